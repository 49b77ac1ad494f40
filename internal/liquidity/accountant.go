// Package liquidity converts user-facing deposit and withdrawal requests
// into the token amounts that preserve a pool's price ratio. The math is
// authorization-agnostic; creator gating is the caller's policy.
package liquidity

import (
	"errors"
	"fmt"
	"math/big"

	"piodex/internal/model"
)

var (
	// ErrInvalidInput marks a precondition violation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInitialPrice signals a deposit into an empty pool: the first
	// depositor's chosen ratio defines the price, so there is nothing
	// to convert.
	ErrInitialPrice = errors.New("initial deposit sets the pool price")
	// ErrInsufficientShare marks a withdrawal beyond the caller's LP
	// holdings or the pool's total supply.
	ErrInsufficientShare = errors.New("insufficient liquidity share")
)

// DefaultTolerancePPM is the 1% on-chain slippage guard applied to
// desired deposit amounts.
const DefaultTolerancePPM = 10_000

var ppmDen = big.NewInt(model.FeeDenominator)

// PairedDeposit returns the amount of token1 that must accompany amount0
// to keep the pool's price unchanged: amount1 = amount0 * reserve1 /
// reserve0. An empty pool returns ErrInitialPrice.
func PairedDeposit(reserve0, reserve1, amount0 *big.Int) (*big.Int, error) {
	if err := validateReserves(reserve0, reserve1); err != nil {
		return nil, err
	}
	if amount0 == nil || amount0.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if reserve0.Sign() == 0 && reserve1.Sign() == 0 {
		return nil, ErrInitialPrice
	}

	amount1 := new(big.Int).Mul(amount0, reserve1)
	return amount1.Div(amount1, reserve0), nil
}

// PairedDeposit1 is the symmetric inverse: the token0 amount required to
// accompany amount1.
func PairedDeposit1(reserve0, reserve1, amount1 *big.Int) (*big.Int, error) {
	return PairedDeposit(reserve1, reserve0, amount1)
}

// MinAmounts floors both desired deposit amounts by the tolerance,
// producing the on-chain slippage guards against reserve movement
// between quote time and confirmation.
func MinAmounts(desired0, desired1 *big.Int, tolerancePPM uint32) (*big.Int, *big.Int, error) {
	if desired0 == nil || desired0.Sign() < 0 || desired1 == nil || desired1.Sign() < 0 {
		return nil, nil, fmt.Errorf("%w: desired amounts must be non-negative", ErrInvalidInput)
	}
	if tolerancePPM >= model.FeeDenominator {
		return nil, nil, fmt.Errorf("%w: tolerance %d ppm out of range", ErrInvalidInput, tolerancePPM)
	}

	keep := big.NewInt(int64(model.FeeDenominator - tolerancePPM))

	min0 := new(big.Int).Mul(desired0, keep)
	min0.Div(min0, ppmDen)
	min1 := new(big.Int).Mul(desired1, keep)
	min1.Div(min1, ppmDen)
	return min0, min1, nil
}

// WithdrawAmounts redeems lpToBurn of the caller's LP balance for a
// proportional share of both reserves.
func WithdrawAmounts(reserve0, reserve1, totalSupply, lpToBurn, callerBalance *big.Int) (*big.Int, *big.Int, error) {
	if err := validateReserves(reserve0, reserve1); err != nil {
		return nil, nil, err
	}
	if totalSupply == nil || totalSupply.Sign() <= 0 {
		return nil, nil, fmt.Errorf("%w: total supply must be positive", ErrInvalidInput)
	}
	if lpToBurn == nil || callerBalance == nil {
		return nil, nil, fmt.Errorf("%w: nil LP amounts", ErrInvalidInput)
	}
	if lpToBurn.Sign() <= 0 || lpToBurn.Cmp(callerBalance) > 0 || callerBalance.Cmp(totalSupply) > 0 {
		return nil, nil, ErrInsufficientShare
	}

	amount0 := new(big.Int).Mul(reserve0, lpToBurn)
	amount0.Div(amount0, totalSupply)
	amount1 := new(big.Int).Mul(reserve1, lpToBurn)
	amount1.Div(amount1, totalSupply)
	return amount0, amount1, nil
}

// BurnForPercent converts a withdrawal percentage (in ppm of the
// holding, 1e6 = 100%) into the LP amount to burn, floored.
func BurnForPercent(lpBalance *big.Int, percentPPM uint32) (*big.Int, error) {
	if lpBalance == nil || lpBalance.Sign() < 0 {
		return nil, fmt.Errorf("%w: LP balance must be non-negative", ErrInvalidInput)
	}
	if percentPPM == 0 || percentPPM > model.FeeDenominator {
		return nil, fmt.Errorf("%w: percent %d ppm out of range", ErrInvalidInput, percentPPM)
	}

	burn := new(big.Int).Mul(lpBalance, big.NewInt(int64(percentPPM)))
	return burn.Div(burn, ppmDen), nil
}

func validateReserves(reserve0, reserve1 *big.Int) error {
	if reserve0 == nil || reserve1 == nil {
		return fmt.Errorf("%w: nil reserves", ErrInvalidInput)
	}
	if reserve0.Sign() < 0 || reserve1.Sign() < 0 {
		return fmt.Errorf("%w: negative reserves", ErrInvalidInput)
	}
	if (reserve0.Sign() == 0) != (reserve1.Sign() == 0) {
		return fmt.Errorf("%w: reserves must be both zero or both positive", ErrInvalidInput)
	}
	return nil
}
