package model

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseAmount converts a human decimal string ("1.5") into the token's
// smallest unit. Fractions beyond the token's decimals are rejected
// rather than silently truncated.
func ParseAmount(value string, decimals uint8) (*big.Int, error) {
	value = strings.TrimSpace(value)
	rat, ok := new(big.Rat).SetString(value)
	if !ok {
		return nil, fmt.Errorf("amount %q is not a number", value)
	}
	if rat.Sign() < 0 {
		return nil, fmt.Errorf("amount %q is negative", value)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	scaled := new(big.Rat).Mul(rat, new(big.Rat).SetInt(scale))
	if !scaled.IsInt() {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", value, decimals)
	}
	return scaled.Num(), nil
}

// FormatAmount renders a raw amount back at display scale, trimming
// trailing zeros.
func FormatAmount(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	rat := new(big.Rat).SetFrac(raw, scale)

	text := rat.FloatString(int(decimals))
	if strings.Contains(text, ".") {
		text = strings.TrimRight(text, "0")
		text = strings.TrimRight(text, ".")
	}
	return text
}
