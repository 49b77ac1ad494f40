package model

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NativeAddress is the sentinel address used for the chain's native coin.
const NativeAddress = "0x0000000000000000000000000000000000000000"

// Token captures a tradable asset as served by the backend token list.
// Records are immutable once fetched and refreshed wholesale on reload.
type Token struct {
	Address  string  `json:"address"`
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Decimals uint8   `json:"decimals"`
	PriceUSD float64 `json:"price_usd"`
	Native   bool    `json:"native"`
}

// Validate checks boundary constraints before a token enters core logic.
func (t Token) Validate() error {
	if !common.IsHexAddress(t.Address) {
		return fmt.Errorf("token %s: invalid address %q", t.Symbol, t.Address)
	}
	if t.Decimals > 18 {
		return fmt.Errorf("token %s: decimals %d out of range", t.Symbol, t.Decimals)
	}
	if t.Native && !strings.EqualFold(t.Address, NativeAddress) {
		return fmt.Errorf("token %s: native flag requires the zero address", t.Symbol)
	}
	return nil
}

// Addr returns the parsed on-chain address.
func (t Token) Addr() common.Address {
	return common.HexToAddress(t.Address)
}
