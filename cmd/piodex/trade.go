package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"piodex/internal/allowance"
	"piodex/internal/liquidity"
	"piodex/internal/model"
)

func newSwapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "swap TOKEN_IN TOKEN_OUT AMOUNT",
		Short: "Swap tokens along the best route",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, cmd, true, true)
			if err != nil {
				return err
			}
			defer a.close()

			quote, tokenIn, tokenOut, path, err := buildQuote(ctx, a, args[0], args[1], args[2])
			if err != nil {
				return err
			}
			if quote.Estimate || len(path) == 0 {
				return fmt.Errorf("no live pool backs this trade")
			}

			printQuote(quote, tokenIn, tokenOut)

			hash, err := a.exec.Swap(ctx, tokenIn, tokenOut, path, quote)
			if err != nil {
				return err
			}
			fmt.Printf("swap confirmed: %s\n", hash.Hex())
			return nil
		},
	}
}

func newApproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve TOKEN [AMOUNT]",
		Short: "Approve the router to spend a token",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, cmd, true, true)
			if err != nil {
				return err
			}
			defer a.close()

			token, ok := a.catalog.Token(args[0])
			if !ok {
				return fmt.Errorf("unknown token %q", args[0])
			}
			if token.Native {
				return fmt.Errorf("%s is the native coin and needs no approval", token.Symbol)
			}

			amount := allowance.MaxApproval
			if len(args) == 2 {
				amount, err = model.ParseAmount(args[1], token.Decimals)
				if err != nil {
					return err
				}
			}

			if !promptConfirm(fmt.Sprintf("approve %s spending of %s", a.chain.Router().Hex(), token.Symbol)) {
				return fmt.Errorf("approval declined")
			}

			hash, err := a.wallet.SubmitApproval(ctx, token.Addr(), a.chain.Router(), amount)
			if err != nil {
				return err
			}
			if err := a.wallet.AwaitConfirmation(ctx, hash); err != nil {
				return err
			}
			fmt.Printf("approval confirmed: %s\n", hash.Hex())
			return nil
		},
	}
	return cmd
}

func newAddLiquidityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-liquidity POOL_ID AMOUNT0 [AMOUNT1]",
		Short: "Deposit a paired amount into a pool",
		Long: "Deposit into a pool at the current reserve ratio. AMOUNT1 is " +
			"computed from AMOUNT0 and the live reserves; on an empty pool both " +
			"amounts are required and set the initial price.",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, cmd, true, true)
			if err != nil {
				return err
			}
			defer a.close()

			pool, err := livePool(ctx, a, args[0])
			if err != nil {
				return err
			}

			amount0, err := model.ParseAmount(args[1], pool.Token0.Decimals)
			if err != nil {
				return err
			}

			var amount1 *big.Int
			if pool.Initialized() {
				amount1, err = liquidity.PairedDeposit(pool.Reserve0, pool.Reserve1, amount0)
				if err != nil {
					return err
				}
				if len(args) == 3 {
					a.logger.Warn("ignoring AMOUNT1, pool ratio decides the pairing",
						zap.String("pool", pool.ID))
				}
			} else {
				if len(args) != 3 {
					return fmt.Errorf("pool %s is empty: both amounts are required and set the initial price", pool.ID)
				}
				amount1, err = model.ParseAmount(args[2], pool.Token1.Decimals)
				if err != nil {
					return err
				}
			}

			min0, min1, err := liquidity.MinAmounts(amount0, amount1, a.cfg.SlippagePPM)
			if err != nil {
				return err
			}

			fmt.Printf("deposit: %s %s + %s %s\n",
				model.FormatAmount(amount0, pool.Token0.Decimals), pool.Token0.Symbol,
				model.FormatAmount(amount1, pool.Token1.Decimals), pool.Token1.Symbol)

			hash, err := a.exec.AddLiquidity(ctx, pool, amount0, amount1, min0, min1)
			if err != nil {
				return err
			}
			fmt.Printf("liquidity added: %s\n", hash.Hex())
			return nil
		},
	}
	return cmd
}

func newRemoveLiquidityCmd() *cobra.Command {
	var percent uint32

	cmd := &cobra.Command{
		Use:   "remove-liquidity POOL_ID",
		Short: "Burn LP tokens for proportional reserves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, cmd, true, true)
			if err != nil {
				return err
			}
			defer a.close()

			pool, err := livePool(ctx, a, args[0])
			if err != nil {
				return err
			}
			if pool.PairAddress == "" {
				return fmt.Errorf("pool %s has no on-chain pair", pool.ID)
			}
			pair := common.HexToAddress(pool.PairAddress)

			lpBalance, err := a.chain.LPBalance(ctx, pair, a.wallet.Address())
			if err != nil {
				return err
			}
			totalSupply, err := a.chain.LPTotalSupply(ctx, pair)
			if err != nil {
				return err
			}

			// Whole percent to parts per million.
			lpToBurn, err := liquidity.BurnForPercent(lpBalance, percent*10_000)
			if err != nil {
				return err
			}

			amount0, amount1, err := liquidity.WithdrawAmounts(pool.Reserve0, pool.Reserve1, totalSupply, lpToBurn, lpBalance)
			if err != nil {
				return err
			}
			min0, min1, err := liquidity.MinAmounts(amount0, amount1, a.cfg.SlippagePPM)
			if err != nil {
				return err
			}

			fmt.Printf("withdraw: %s %s + %s %s\n",
				model.FormatAmount(amount0, pool.Token0.Decimals), pool.Token0.Symbol,
				model.FormatAmount(amount1, pool.Token1.Decimals), pool.Token1.Symbol)

			hash, err := a.exec.RemoveLiquidity(ctx, pool, lpToBurn, min0, min1)
			if err != nil {
				return err
			}
			fmt.Printf("liquidity removed: %s\n", hash.Hex())
			return nil
		},
	}

	cmd.Flags().Uint32Var(&percent, "percent", 100, "share of the LP balance to burn")
	return cmd
}

// livePool fetches a pool from the backend and refreshes its reserves
// from chain.
func livePool(ctx context.Context, a *app, id string) (model.Pool, error) {
	pool, err := a.backend.Pool(ctx, id)
	if err != nil {
		return model.Pool{}, err
	}
	fresh := refreshReserves(ctx, a, []model.Pool{pool})
	return fresh[0], nil
}
