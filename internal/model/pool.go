package model

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// FeeDenominator is the parts-per-million base for pool fees and
// slippage tolerances. A fee of 3000 is 0.3%.
const FeeDenominator = 1_000_000

// Pool is a constant-product pair. Token order matters: Reserve0 belongs
// to Token0 and Reserve1 to Token1.
type Pool struct {
	ID             string   `json:"id"`
	Token0         Token    `json:"token0"`
	Token1         Token    `json:"token1"`
	FeePPM         uint32   `json:"fee_ppm"`
	Reserve0       *big.Int `json:"reserve0"`
	Reserve1       *big.Int `json:"reserve1"`
	PairAddress    string   `json:"pair_address,omitempty"`
	CreatorAddress string   `json:"creator_address,omitempty"`
}

// Validate checks the pool invariants: fee below 100%, reserves either
// both zero (uninitialized) or both strictly positive.
func (p Pool) Validate() error {
	if err := p.Token0.Validate(); err != nil {
		return fmt.Errorf("pool %s: %w", p.ID, err)
	}
	if err := p.Token1.Validate(); err != nil {
		return fmt.Errorf("pool %s: %w", p.ID, err)
	}
	if p.FeePPM >= FeeDenominator {
		return fmt.Errorf("pool %s: fee %d ppm out of range", p.ID, p.FeePPM)
	}
	if p.Reserve0 == nil || p.Reserve1 == nil {
		return fmt.Errorf("pool %s: nil reserves", p.ID)
	}
	if p.Reserve0.Sign() < 0 || p.Reserve1.Sign() < 0 {
		return fmt.Errorf("pool %s: negative reserves", p.ID)
	}
	if (p.Reserve0.Sign() == 0) != (p.Reserve1.Sign() == 0) {
		return fmt.Errorf("pool %s: reserves must be both zero or both positive", p.ID)
	}
	if p.PairAddress != "" && !common.IsHexAddress(p.PairAddress) {
		return fmt.Errorf("pool %s: invalid pair address %q", p.ID, p.PairAddress)
	}
	if p.CreatorAddress != "" && !common.IsHexAddress(p.CreatorAddress) {
		return fmt.Errorf("pool %s: invalid creator address %q", p.ID, p.CreatorAddress)
	}
	return nil
}

// Initialized reports whether the pool has live reserves.
func (p Pool) Initialized() bool {
	return p.Reserve0 != nil && p.Reserve0.Sign() > 0 && p.Reserve1 != nil && p.Reserve1.Sign() > 0
}

// ReservesFor orients the pool's reserves for a trade selling tokenIn.
// The second return is false when tokenIn is on neither side.
func (p Pool) ReservesFor(tokenIn string) (reserveIn, reserveOut *big.Int, ok bool) {
	switch {
	case equalAddress(tokenIn, p.Token0.Address):
		return p.Reserve0, p.Reserve1, true
	case equalAddress(tokenIn, p.Token1.Address):
		return p.Reserve1, p.Reserve0, true
	default:
		return nil, nil, false
	}
}

// Other returns the opposite side of the pair for the given token address.
func (p Pool) Other(token string) (Token, bool) {
	switch {
	case equalAddress(token, p.Token0.Address):
		return p.Token1, true
	case equalAddress(token, p.Token1.Address):
		return p.Token0, true
	default:
		return Token{}, false
	}
}
