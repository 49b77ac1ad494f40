package model

import (
	"math/big"
	"strings"
)

// Quote is the derived result of pricing a trade against one or more
// pools. It is recomputed on every input change and never persisted.
type Quote struct {
	AmountIn        *big.Int
	AmountOut       *big.Int
	ExchangeRate    *big.Rat
	PriceImpact     *big.Rat
	MinimumReceived *big.Int
	Route           []string
	// Estimate marks a quote derived from reference-currency prices
	// instead of live reserves.
	Estimate bool
}

func equalAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
