package amm

import (
	"fmt"
	"math/big"

	"piodex/internal/model"
)

// QuotePath prices a trade selling amountIn of tokenIn through an
// explicit ordered list of pools. Each hop's output feeds the next hop's
// input; price impact is measured end to end against the product of the
// hops' marginal rates, not summed per hop.
func QuotePath(pools []model.Pool, tokenIn string, amountIn *big.Int, slippagePPM uint32) (model.Quote, error) {
	if len(pools) == 0 {
		return model.Quote{}, fmt.Errorf("%w: empty pool path", ErrNoRoute)
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return model.Quote{}, fmt.Errorf("%w: amount in must be positive", ErrInvalidInput)
	}

	current := tokenIn
	hopIn := new(big.Int).Set(amountIn)
	marginal := big.NewRat(1, 1)
	route := make([]string, 0, len(pools))

	for i, pool := range pools {
		reserveIn, reserveOut, ok := pool.ReservesFor(current)
		if !ok {
			return model.Quote{}, fmt.Errorf("%w: hop %d does not trade %s", ErrNoRoute, i, current)
		}
		if !pool.Initialized() {
			return model.Quote{}, fmt.Errorf("%w: hop %d pool %s has no reserves", ErrInvalidInput, i, pool.ID)
		}

		out, err := AmountOut(reserveIn, reserveOut, pool.FeePPM, hopIn)
		if err != nil {
			return model.Quote{}, fmt.Errorf("hop %d: %w", i, err)
		}

		marginal.Mul(marginal, new(big.Rat).SetFrac(reserveOut, reserveIn))
		route = append(route, pool.ID)

		next, ok := pool.Other(current)
		if !ok {
			return model.Quote{}, fmt.Errorf("%w: hop %d does not trade %s", ErrNoRoute, i, current)
		}
		current = next.Address
		hopIn = out
	}

	amountOut := hopIn

	realized := new(big.Rat).SetFrac(amountOut, amountIn)
	impact := new(big.Rat).Quo(realized, marginal)
	impact.Sub(big.NewRat(1, 1), impact)
	if impact.Sign() < 0 {
		return model.Quote{}, fmt.Errorf("%w: negative end-to-end price impact", ErrInvalidInput)
	}

	minReceived, err := MinimumReceived(amountOut, slippagePPM)
	if err != nil {
		return model.Quote{}, err
	}

	return model.Quote{
		AmountIn:        new(big.Int).Set(amountIn),
		AmountOut:       amountOut,
		ExchangeRate:    marginal,
		PriceImpact:     impact,
		MinimumReceived: minReceived,
		Route:           route,
	}, nil
}

// QuotePool prices a direct single-pool trade.
func QuotePool(pool model.Pool, tokenIn string, amountIn *big.Int, slippagePPM uint32) (model.Quote, error) {
	return QuotePath([]model.Pool{pool}, tokenIn, amountIn, slippagePPM)
}

// EstimateQuote builds an estimate-mode quote from reference-currency
// prices. Used when a pool exists but live reserves are not available.
func EstimateQuote(tokenIn, tokenOut model.Token, amountIn float64, feePPM, slippagePPM uint32) (model.Quote, error) {
	if slippagePPM > MaxSlippagePPM {
		return model.Quote{}, fmt.Errorf("%w: slippage %d ppm above 50%% cap", ErrInvalidInput, slippagePPM)
	}

	out, err := EstimateOut(amountIn, tokenIn.PriceUSD, tokenOut.PriceUSD, feePPM)
	if err != nil {
		return model.Quote{}, err
	}

	scaleIn := pow10(tokenIn.Decimals)
	scaleOut := pow10(tokenOut.Decimals)

	rawIn, _ := new(big.Float).Mul(big.NewFloat(amountIn), new(big.Float).SetInt(scaleIn)).Int(nil)
	rawOut, _ := new(big.Float).Mul(big.NewFloat(out), new(big.Float).SetInt(scaleOut)).Int(nil)

	// Keep the rate in raw units like the reserve-backed path does.
	rate := new(big.Rat).SetFloat64(tokenIn.PriceUSD / tokenOut.PriceUSD)
	if rate == nil {
		return model.Quote{}, fmt.Errorf("%w: price ratio not representable", ErrInvalidInput)
	}
	rate.Mul(rate, new(big.Rat).SetFrac(scaleOut, scaleIn))

	minReceived, err := MinimumReceived(rawOut, slippagePPM)
	if err != nil {
		return model.Quote{}, err
	}

	return model.Quote{
		AmountIn:        rawIn,
		AmountOut:       rawOut,
		ExchangeRate:    rate,
		MinimumReceived: minReceived,
		Estimate:        true,
	}, nil
}

func pow10(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}
