// Package amm prices trades against constant-product pools. All amounts
// are integers in the token's smallest unit; fees and tolerances are
// parts per million.
package amm

import (
	"fmt"
	"math"
	"math/big"

	"piodex/internal/model"
)

// MaxSlippagePPM caps the accepted slippage tolerance at 50%.
const MaxSlippagePPM = model.FeeDenominator / 2

var feeDen = big.NewInt(model.FeeDenominator)

// AmountOut computes the output of a swap against a pool holding
// reserveIn/reserveOut with the given fee, taking the fee on the input
// leg:
//
//	effectiveIn = amountIn * (1e6 - fee) / 1e6
//	amountOut   = reserveOut * effectiveIn / (reserveIn + effectiveIn)
//
// evaluated as a single integer division so no precision is lost before
// the final floor. The result is always strictly below reserveOut.
func AmountOut(reserveIn, reserveOut *big.Int, feePPM uint32, amountIn *big.Int) (*big.Int, error) {
	if err := validateSwapInput(reserveIn, reserveOut, feePPM, amountIn); err != nil {
		return nil, err
	}

	feeMul := big.NewInt(int64(model.FeeDenominator - feePPM))

	// numerator = reserveOut * amountIn * (1e6 - fee)
	inWithFee := new(big.Int).Mul(amountIn, feeMul)
	numerator := new(big.Int).Mul(inWithFee, reserveOut)

	// denominator = reserveIn * 1e6 + amountIn * (1e6 - fee)
	denominator := new(big.Int).Mul(reserveIn, feeDen)
	denominator.Add(denominator, inWithFee)

	return numerator.Div(numerator, denominator), nil
}

// PriceImpact is the fractional shortfall of the realized rate against
// the marginal reserve-ratio rate:
//
//	1 - (amountOut/amountIn) / (reserveOut/reserveIn)
//
// A negative result cannot arise from a correctly computed quote and is
// reported as an error rather than returned.
func PriceImpact(reserveIn, reserveOut, amountIn, amountOut *big.Int) (*big.Rat, error) {
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, fmt.Errorf("%w: reserves must be positive", ErrInvalidInput)
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount in must be positive", ErrInvalidInput)
	}
	if amountOut == nil || amountOut.Sign() < 0 {
		return nil, fmt.Errorf("%w: amount out must be non-negative", ErrInvalidInput)
	}

	realized := new(big.Rat).SetFrac(amountOut, amountIn)
	marginal := new(big.Rat).SetFrac(reserveOut, reserveIn)

	impact := new(big.Rat).Quo(realized, marginal)
	impact.Sub(big.NewRat(1, 1), impact)
	if impact.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative price impact %s signals a quote bug", ErrInvalidInput, impact.FloatString(6))
	}
	return impact, nil
}

// MinimumReceived floors amountOut by the slippage tolerance. Tolerances
// above 50% are rejected; the caller clamps user input before calling.
func MinimumReceived(amountOut *big.Int, slippagePPM uint32) (*big.Int, error) {
	if amountOut == nil || amountOut.Sign() < 0 {
		return nil, fmt.Errorf("%w: amount out must be non-negative", ErrInvalidInput)
	}
	if slippagePPM > MaxSlippagePPM {
		return nil, fmt.Errorf("%w: slippage %d ppm above 50%% cap", ErrInvalidInput, slippagePPM)
	}

	min := new(big.Int).Mul(amountOut, big.NewInt(int64(model.FeeDenominator-slippagePPM)))
	return min.Div(min, feeDen), nil
}

// EstimateOut approximates an output from reference-currency prices when
// no live reserves are available. Quotes built from it are estimates
// only; the integer formula is canonical whenever reserves exist.
func EstimateOut(amountIn, priceIn, priceOut float64, feePPM uint32) (float64, error) {
	if amountIn <= 0 || priceIn <= 0 || priceOut <= 0 {
		return 0, fmt.Errorf("%w: amounts and prices must be positive", ErrInvalidInput)
	}
	if feePPM >= model.FeeDenominator {
		return 0, fmt.Errorf("%w: fee %d ppm out of range", ErrInvalidInput, feePPM)
	}
	if math.IsNaN(priceIn) || math.IsNaN(priceOut) || math.IsInf(priceIn, 0) || math.IsInf(priceOut, 0) {
		return 0, fmt.Errorf("%w: prices must be finite", ErrInvalidInput)
	}

	feeFactor := 1 - float64(feePPM)/model.FeeDenominator
	return amountIn * (priceIn / priceOut) * feeFactor, nil
}

func validateSwapInput(reserveIn, reserveOut *big.Int, feePPM uint32, amountIn *big.Int) error {
	if reserveIn == nil || reserveIn.Sign() <= 0 {
		return fmt.Errorf("%w: reserve in must be positive", ErrInvalidInput)
	}
	if reserveOut == nil || reserveOut.Sign() <= 0 {
		return fmt.Errorf("%w: reserve out must be positive", ErrInvalidInput)
	}
	if feePPM >= model.FeeDenominator {
		return fmt.Errorf("%w: fee %d ppm out of range", ErrInvalidInput, feePPM)
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return fmt.Errorf("%w: amount in must be positive", ErrInvalidInput)
	}
	return nil
}
