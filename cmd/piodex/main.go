package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"piodex/internal/allowance"
	"piodex/internal/backend"
	"piodex/internal/chain"
	"piodex/internal/config"
	"piodex/internal/storage"
	"piodex/internal/storage/postgres"
	"piodex/internal/trade"
)

func main() {
	root := &cobra.Command{
		Use:          "piodex",
		Short:        "DEX trading console",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("rpc", "", "chain RPC URL")
	root.PersistentFlags().String("backend", "", "backend API base URL")
	root.PersistentFlags().String("router", "", "router contract address")
	root.PersistentFlags().String("factory", "", "factory contract address")
	root.PersistentFlags().String("private-key", "", "hex private key for signing")
	root.PersistentFlags().Uint32("slippage-ppm", 5000, "slippage tolerance in parts per million")
	root.PersistentFlags().Int("deadline-minutes", 20, "transaction deadline in minutes")
	root.PersistentFlags().Bool("approve-max", true, "approve unbounded allowance instead of exact amounts")
	root.PersistentFlags().String("journal", "./data/transactions.jsonl", "local transaction journal path")
	root.PersistentFlags().String("pg-dsn", "", "optional Postgres DSN for the journal")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newQuoteCmd(),
		newSwapCmd(),
		newApproveCmd(),
		newAddLiquidityCmd(),
		newRemoveLiquidityCmd(),
		newTokensCmd(),
		newPoolsCmd(),
		newPositionsCmd(),
		newHistoryCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app wires the configured clients together for one command run.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	backend *backend.Client
	catalog *backend.CatalogIndex
	chain   *chain.Client
	wallet  *chain.Wallet
	exec    *trade.Executor
	journal storage.Journal
	cleanup []func()
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newApp loads config and builds the clients a command needs. The chain
// client and wallet are optional layers: read-only commands work against
// the backend alone.
func newApp(ctx context.Context, cmd *cobra.Command, needChain, needWallet bool) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("backend url is required")
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		backend: backend.NewClient(cfg.BackendURL, logger),
		catalog: backend.NewCatalogIndex(),
	}
	a.cleanup = append(a.cleanup, func() { logger.Sync() })

	tokens, pools, err := a.backend.Catalog(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	a.catalog.Load(tokens, pools)

	if needChain || needWallet {
		if cfg.RPCURL == "" {
			a.close()
			return nil, fmt.Errorf("rpc url is required")
		}
		router, err := chain.ParseAddress(cfg.RouterAddress)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("router: %w", err)
		}
		factory, err := chain.ParseAddress(cfg.FactoryAddress)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("factory: %w", err)
		}

		chainClient, err := chain.NewClient(ctx, cfg.RPCURL, router, factory)
		if err != nil {
			a.close()
			return nil, err
		}
		a.chain = chainClient
		a.cleanup = append(a.cleanup, chainClient.Close)
	}

	if needWallet {
		if cfg.PrivateKey == "" {
			a.close()
			return nil, fmt.Errorf("private key is required")
		}

		wallet, err := chain.NewWallet(ctx, a.chain, cfg.PrivateKey, logger)
		if err != nil {
			a.close()
			return nil, err
		}
		a.wallet = wallet

		if cfg.PostgresDSN != "" {
			store, err := postgres.NewStore(ctx, cfg.PostgresDSN)
			if err != nil {
				a.close()
				return nil, err
			}
			a.journal = store
			a.cleanup = append(a.cleanup, store.Close)
		} else {
			a.journal = storage.NewJsonlJournal(cfg.JournalPath)
		}

		coord := allowance.NewCoordinator(a.chain, logger)
		a.exec = trade.NewExecutor(trade.Config{
			ApproveExact: !cfg.ApproveMax,
			Deadline:     time.Duration(cfg.DeadlineMinutes) * time.Minute,
			Confirm:      promptConfirm,
		}, wallet, coord, a.chain.Router(), a.journal, logger)
	}

	return a, nil
}

// promptConfirm asks on stdin before anything that moves funds.
func promptConfirm(action string) bool {
	fmt.Printf("%s? [y/N] ", action)
	var answer string
	if _, err := fmt.Scanln(&answer); err != nil {
		return false
	}
	return answer == "y" || answer == "Y" || answer == "yes"
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
