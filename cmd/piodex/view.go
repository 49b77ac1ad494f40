package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"piodex/internal/model"
)

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens",
		Short: "List tradable tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, cmd, false, false)
			if err != nil {
				return err
			}
			defer a.close()

			tokens, err := a.backend.Tokens(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("%-8s %-24s %-44s %s\n", "SYMBOL", "NAME", "ADDRESS", "PRICE")
			for _, token := range tokens {
				fmt.Printf("%-8s %-24s %-44s $%.4f\n", token.Symbol, token.Name, token.Address, token.PriceUSD)
			}
			return nil
		},
	}
}

func newPoolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pools",
		Short: "List liquidity pools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, cmd, false, false)
			if err != nil {
				return err
			}
			defer a.close()

			pools, err := a.backend.Pools(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("%-20s %-12s %-8s %-20s %s\n", "ID", "PAIR", "FEE", "RESERVE0", "RESERVE1")
			for _, pool := range pools {
				fmt.Printf("%-20s %-12s %.2f%%  %-20s %s\n",
					pool.ID,
					pool.Token0.Symbol+"/"+pool.Token1.Symbol,
					float64(pool.FeePPM)/float64(model.FeeDenominator)*100,
					model.FormatAmount(pool.Reserve0, pool.Token0.Decimals),
					model.FormatAmount(pool.Reserve1, pool.Token1.Decimals))
			}
			return nil
		},
	}
}

func newPositionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "positions WALLET",
		Short: "List a wallet's liquidity positions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			if !common.IsHexAddress(args[0]) {
				return fmt.Errorf("invalid wallet address %q", args[0])
			}

			a, err := newApp(ctx, cmd, false, false)
			if err != nil {
				return err
			}
			defer a.close()

			positions, err := a.backend.Positions(ctx, args[0])
			if err != nil {
				return err
			}
			if len(positions) == 0 {
				fmt.Println("no positions")
				return nil
			}

			fmt.Printf("%-20s %-14s %-14s %s\n", "POOL", "TOKEN0", "TOKEN1", "LIQUIDITY")
			for _, pos := range positions {
				fmt.Printf("%-20s %-14.6f %-14.6f %.6f\n",
					pos.PoolID, pos.Token0Amount, pos.Token1Amount, pos.Liquidity)
			}
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history WALLET",
		Short: "Show a wallet's trade history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			if !common.IsHexAddress(args[0]) {
				return fmt.Errorf("invalid wallet address %q", args[0])
			}

			a, err := newApp(ctx, cmd, false, false)
			if err != nil {
				return err
			}
			defer a.close()

			records, err := a.backend.Transactions(ctx, args[0])
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("no transactions")
				return nil
			}

			fmt.Printf("%-20s %-8s %-10s %s\n", "TIME", "TYPE", "STATUS", "TX")
			for _, rec := range records {
				fmt.Printf("%-20s %-8s %-10s %s\n",
					rec.Timestamp.Format("2006-01-02 15:04:05"), rec.Type, rec.Status, rec.TxHash)
			}
			return nil
		},
	}
}
