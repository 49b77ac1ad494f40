package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"piodex/internal/amm"
	"piodex/internal/model"
)

func newQuoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote TOKEN_IN TOKEN_OUT AMOUNT",
		Short: "Quote a swap without executing it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, cmd, false, false)
			if err != nil {
				return err
			}
			defer a.close()

			quote, tokenIn, tokenOut, _, err := buildQuote(ctx, a, args[0], args[1], args[2])
			if err != nil {
				return err
			}

			printQuote(quote, tokenIn, tokenOut)
			return nil
		},
	}
}

// buildQuote resolves tokens, finds a route and prices the trade. With
// a chain client available the pool reserves are refreshed first; pools
// the chain cannot serve keep their backend snapshot. When no route
// exists but both tokens carry a USD price, a float estimate is
// returned instead.
func buildQuote(ctx context.Context, a *app, inRef, outRef, amountStr string) (model.Quote, model.Token, model.Token, []common.Address, error) {
	var zero model.Quote

	tokenIn, ok := a.catalog.Token(inRef)
	if !ok {
		return zero, model.Token{}, model.Token{}, nil, fmt.Errorf("unknown token %q", inRef)
	}
	tokenOut, ok := a.catalog.Token(outRef)
	if !ok {
		return zero, model.Token{}, model.Token{}, nil, fmt.Errorf("unknown token %q", outRef)
	}

	// Pools hold the wrapped ERC20, not the native coin itself.
	tokenIn = wrappedFor(a, tokenIn)
	tokenOut = wrappedFor(a, tokenOut)

	amountIn, err := model.ParseAmount(amountStr, tokenIn.Decimals)
	if err != nil {
		return zero, tokenIn, tokenOut, nil, err
	}

	route, ok := a.catalog.Route(tokenIn.Address, tokenOut.Address)
	if !ok {
		quote, err := estimateFallback(tokenIn, tokenOut, amountStr, a.cfg.SlippagePPM)
		return quote, tokenIn, tokenOut, nil, err
	}

	route = refreshReserves(ctx, a, route)

	quote, err := amm.QuotePath(route, tokenIn.Address, amountIn, a.cfg.SlippagePPM)
	if err != nil {
		if errors.Is(err, amm.ErrNoRoute) {
			quote, err = estimateFallback(tokenIn, tokenOut, amountStr, a.cfg.SlippagePPM)
			return quote, tokenIn, tokenOut, nil, err
		}
		return zero, tokenIn, tokenOut, nil, err
	}

	return quote, tokenIn, tokenOut, swapAddressPath(route, tokenIn), nil
}

func estimateFallback(tokenIn, tokenOut model.Token, amountStr string, slippagePPM uint32) (model.Quote, error) {
	if tokenIn.PriceUSD <= 0 || tokenOut.PriceUSD <= 0 {
		return model.Quote{}, fmt.Errorf("no route from %s to %s", tokenIn.Symbol, tokenOut.Symbol)
	}
	var amountIn float64
	if _, err := fmt.Sscanf(amountStr, "%g", &amountIn); err != nil {
		return model.Quote{}, fmt.Errorf("amount %q is not a number", amountStr)
	}
	return amm.EstimateQuote(tokenIn, tokenOut, amountIn, 3000, slippagePPM)
}

// refreshReserves replaces backend reserve snapshots with live chain
// values for pools that have an on-chain pair.
func refreshReserves(ctx context.Context, a *app, pools []model.Pool) []model.Pool {
	if a.chain == nil {
		return pools
	}

	fresh := make([]model.Pool, len(pools))
	for i, pool := range pools {
		fresh[i] = pool
		if pool.PairAddress == "" {
			continue
		}
		pair := common.HexToAddress(pool.PairAddress)

		reserve0, reserve1, err := a.chain.GetReserves(ctx, pair)
		if err != nil {
			a.logger.Warn("live reserves unavailable, using backend snapshot",
				zap.String("pool", pool.ID), zap.Error(err))
			continue
		}

		// The pair contract orders tokens by address, which may not
		// match the backend's ordering.
		onchain0, _, err := a.chain.PairTokens(ctx, pair)
		if err != nil {
			a.logger.Warn("pair token order unavailable, using backend snapshot",
				zap.String("pool", pool.ID), zap.Error(err))
			continue
		}
		if !strings.EqualFold(onchain0.Hex(), pool.Token0.Address) {
			reserve0, reserve1 = reserve1, reserve0
		}

		fresh[i].Reserve0 = reserve0
		fresh[i].Reserve1 = reserve1
	}
	return fresh
}

// swapAddressPath flattens a pool route into the router's address path.
func swapAddressPath(route []model.Pool, tokenIn model.Token) []common.Address {
	path := []common.Address{tokenIn.Addr()}
	current := tokenIn
	for _, pool := range route {
		next, ok := pool.Other(current.Address)
		if !ok {
			return nil
		}
		path = append(path, next.Addr())
		current = next
	}
	return path
}

func printQuote(quote model.Quote, tokenIn, tokenOut model.Token) {
	fmt.Printf("amount in:        %s %s\n", model.FormatAmount(quote.AmountIn, tokenIn.Decimals), tokenIn.Symbol)
	fmt.Printf("amount out:       %s %s\n", model.FormatAmount(quote.AmountOut, tokenOut.Decimals), tokenOut.Symbol)
	fmt.Printf("minimum received: %s %s\n", model.FormatAmount(quote.MinimumReceived, tokenOut.Decimals), tokenOut.Symbol)
	if quote.ExchangeRate != nil {
		// ExchangeRate is in raw units; rescale to display units.
		rate := new(big.Rat).Mul(quote.ExchangeRate, decimalGap(tokenIn.Decimals, tokenOut.Decimals))
		fmt.Printf("rate:             1 %s = %s %s\n", tokenIn.Symbol, rate.FloatString(6), tokenOut.Symbol)
	}
	if quote.PriceImpact != nil {
		fmt.Printf("price impact:     %s%%\n", percent(quote.PriceImpact))
	}
	if len(quote.Route) > 0 {
		fmt.Printf("route:            %s\n", strings.Join(quote.Route, " -> "))
	}
	if quote.Estimate {
		fmt.Println("note: price-based estimate, no live pool backs this quote")
	}
}

func percent(impact *big.Rat) string {
	return new(big.Rat).Mul(impact, big.NewRat(100, 1)).FloatString(4)
}

// wrappedFor swaps a native token for its wrapped counterpart when the
// catalog lists one, following the W-prefix convention.
func wrappedFor(a *app, token model.Token) model.Token {
	if !token.Native {
		return token
	}
	if wrapped, ok := a.catalog.Token("W" + token.Symbol); ok && !wrapped.Native {
		return wrapped
	}
	return token
}

// decimalGap is 10^(decIn-decOut) as a rational.
func decimalGap(decIn, decOut uint8) *big.Rat {
	pow := func(d uint8) *big.Int {
		return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d)), nil)
	}
	return new(big.Rat).SetFrac(pow(decIn), pow(decOut))
}
