// Package trade sequences token-moving actions: allowance check, then
// approval (confirmed on-chain) strictly before the dependent swap or
// liquidity transaction. Nothing here retries a money-moving
// transaction; failed submissions surface to the caller.
package trade

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"piodex/internal/allowance"
	"piodex/internal/chain"
	"piodex/internal/model"
	"piodex/internal/storage"
)

// ErrNotPoolCreator rejects liquidity changes on a creator-restricted
// pool by any other wallet.
var ErrNotPoolCreator = errors.New("only the pool creator can manage liquidity")

// Wallet is the submit surface the executor drives. *chain.Wallet
// implements it.
type Wallet interface {
	Address() common.Address
	SubmitApproval(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error)
	SubmitSwap(ctx context.Context, path []common.Address, amountIn, minAmountOut *big.Int, recipient common.Address, deadline time.Time) (common.Hash, error)
	SubmitAddLiquidity(ctx context.Context, tokenA, tokenB common.Address, desiredA, desiredB, minA, minB *big.Int, recipient common.Address, deadline time.Time) (common.Hash, error)
	SubmitRemoveLiquidity(ctx context.Context, tokenA, tokenB common.Address, lpAmount, minA, minB *big.Int, recipient common.Address, deadline time.Time) (common.Hash, error)
	AwaitConfirmation(ctx context.Context, hash common.Hash) error
}

// Config controls executor policy.
type Config struct {
	// ApproveExact requests the exact amount instead of the default
	// unbounded allowance.
	ApproveExact bool
	// Deadline is how far in the future router deadlines are set.
	Deadline time.Duration
	// Confirm, when set, is asked before every submission. Declining
	// maps to chain.ErrRejected. Nil means proceed.
	Confirm func(action string) bool
}

// Executor coordinates the coordinator, wallet and journal.
type Executor struct {
	cfg     Config
	wallet  Wallet
	coord   *allowance.Coordinator
	spender common.Address
	journal storage.Journal
	logger  *zap.Logger
}

func NewExecutor(cfg Config, wallet Wallet, coord *allowance.Coordinator, spender common.Address, journal storage.Journal, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = 20 * time.Minute
	}
	return &Executor{
		cfg:     cfg,
		wallet:  wallet,
		coord:   coord,
		spender: spender,
		journal: journal,
		logger:  logger,
	}
}

// Swap executes a quoted trade along path. The approval, when needed,
// is confirmed on-chain before the swap is submitted.
func (e *Executor) Swap(ctx context.Context, tokenIn, tokenOut model.Token, path []common.Address, quote model.Quote) (common.Hash, error) {
	if quote.AmountIn == nil || quote.MinimumReceived == nil {
		return common.Hash{}, fmt.Errorf("quote is incomplete")
	}
	if quote.Estimate {
		return common.Hash{}, fmt.Errorf("refusing to execute against an estimate quote; fetch live reserves first")
	}

	if err := e.ensureAllowance(ctx, tokenIn, quote.AmountIn); err != nil {
		return common.Hash{}, err
	}

	if !e.confirm(fmt.Sprintf("swap %s %s for at least %s %s", quote.AmountIn, tokenIn.Symbol, quote.MinimumReceived, tokenOut.Symbol)) {
		return common.Hash{}, chain.ErrRejected
	}

	hash, err := e.wallet.SubmitSwap(ctx, path, quote.AmountIn, quote.MinimumReceived, e.wallet.Address(), e.deadline())
	if err != nil {
		return common.Hash{}, err
	}

	confirmErr := e.wallet.AwaitConfirmation(ctx, hash)
	e.record(model.TransactionRecord{
		Type:          model.TxTypeSwap,
		WalletAddress: e.wallet.Address().Hex(),
		Token0Address: tokenIn.Address,
		Token1Address: tokenOut.Address,
		Amount0:       quote.AmountIn.String(),
		Amount1:       quote.AmountOut.String(),
		TxHash:        hash.Hex(),
		Status:        statusOf(confirmErr),
		Timestamp:     time.Now().UTC(),
	})
	if confirmErr != nil {
		return hash, confirmErr
	}
	return hash, nil
}

// AddLiquidity deposits a paired amount into a pool. On a
// creator-restricted pool only the recorded creator may proceed.
func (e *Executor) AddLiquidity(ctx context.Context, pool model.Pool, amount0, amount1, min0, min1 *big.Int) (common.Hash, error) {
	if err := e.checkCreator(pool); err != nil {
		return common.Hash{}, err
	}

	if err := e.ensureAllowance(ctx, pool.Token0, amount0); err != nil {
		return common.Hash{}, err
	}
	if err := e.ensureAllowance(ctx, pool.Token1, amount1); err != nil {
		return common.Hash{}, err
	}

	if !e.confirm(fmt.Sprintf("add %s %s and %s %s of liquidity", amount0, pool.Token0.Symbol, amount1, pool.Token1.Symbol)) {
		return common.Hash{}, chain.ErrRejected
	}

	hash, err := e.wallet.SubmitAddLiquidity(ctx,
		pool.Token0.Addr(), pool.Token1.Addr(),
		amount0, amount1, min0, min1,
		e.wallet.Address(), e.deadline())
	if err != nil {
		return common.Hash{}, err
	}

	confirmErr := e.wallet.AwaitConfirmation(ctx, hash)
	e.record(model.TransactionRecord{
		Type:          model.TxTypeAddLiquidity,
		WalletAddress: e.wallet.Address().Hex(),
		Token0Address: pool.Token0.Address,
		Token1Address: pool.Token1.Address,
		Amount0:       amount0.String(),
		Amount1:       amount1.String(),
		TxHash:        hash.Hex(),
		Status:        statusOf(confirmErr),
		Timestamp:     time.Now().UTC(),
	})
	if confirmErr != nil {
		return hash, confirmErr
	}
	return hash, nil
}

// RemoveLiquidity burns LP tokens for proportional reserves. The router
// moves LP tokens, so the pair token needs an allowance like any other
// ERC20.
func (e *Executor) RemoveLiquidity(ctx context.Context, pool model.Pool, lpToBurn, min0, min1 *big.Int) (common.Hash, error) {
	if err := e.checkCreator(pool); err != nil {
		return common.Hash{}, err
	}
	if pool.PairAddress == "" {
		return common.Hash{}, fmt.Errorf("pool %s has no on-chain pair address", pool.ID)
	}

	lpToken := model.Token{
		Address: pool.PairAddress,
		Symbol:  fmt.Sprintf("%s-%s LP", pool.Token0.Symbol, pool.Token1.Symbol),
	}
	if err := e.ensureAllowance(ctx, lpToken, lpToBurn); err != nil {
		return common.Hash{}, err
	}

	if !e.confirm(fmt.Sprintf("burn %s LP of %s/%s", lpToBurn, pool.Token0.Symbol, pool.Token1.Symbol)) {
		return common.Hash{}, chain.ErrRejected
	}

	hash, err := e.wallet.SubmitRemoveLiquidity(ctx,
		pool.Token0.Addr(), pool.Token1.Addr(),
		lpToBurn, min0, min1,
		e.wallet.Address(), e.deadline())
	if err != nil {
		return common.Hash{}, err
	}

	confirmErr := e.wallet.AwaitConfirmation(ctx, hash)
	e.record(model.TransactionRecord{
		Type:          model.TxTypeRemoveLiquidity,
		WalletAddress: e.wallet.Address().Hex(),
		Token0Address: pool.Token0.Address,
		Token1Address: pool.Token1.Address,
		Amount0:       min0.String(),
		Amount1:       min1.String(),
		TxHash:        hash.Hex(),
		Status:        statusOf(confirmErr),
		Timestamp:     time.Now().UTC(),
	})
	if confirmErr != nil {
		return hash, confirmErr
	}
	return hash, nil
}

// ensureAllowance runs the allowance check and, when required, submits
// an approval and waits for its confirmation. It returns only once the
// spender is authorized, keeping the approval strictly ahead of the
// dependent transaction.
func (e *Executor) ensureAllowance(ctx context.Context, token model.Token, amount *big.Int) error {
	state, err := e.coord.Check(ctx, token, e.wallet.Address(), e.spender, amount)
	if err != nil {
		return err
	}
	if state != allowance.StateNeedsApproval {
		return nil
	}

	approveAmount := allowance.MaxApproval
	if e.cfg.ApproveExact {
		approveAmount = amount
	}

	if !e.confirm(fmt.Sprintf("approve %s spending of %s", e.spender.Hex(), token.Symbol)) {
		return chain.ErrRejected
	}

	if err := e.coord.MarkApproving(); err != nil {
		return err
	}

	hash, err := e.wallet.SubmitApproval(ctx, token.Addr(), e.spender, approveAmount)
	if err != nil {
		if stateErr := e.coord.ApprovalFailed(); stateErr != nil {
			e.logger.Warn("approval state rollback failed", zap.Error(stateErr))
		}
		return err
	}

	if err := e.wallet.AwaitConfirmation(ctx, hash); err != nil {
		if stateErr := e.coord.ApprovalFailed(); stateErr != nil {
			e.logger.Warn("approval state rollback failed", zap.Error(stateErr))
		}
		e.record(model.TransactionRecord{
			Type:          model.TxTypeApprove,
			WalletAddress: e.wallet.Address().Hex(),
			Token0Address: token.Address,
			Amount0:       approveAmount.String(),
			TxHash:        hash.Hex(),
			Status:        model.TxStatusFailed,
			Timestamp:     time.Now().UTC(),
		})
		return err
	}

	if err := e.coord.ApprovalConfirmed(); err != nil {
		return err
	}
	e.record(model.TransactionRecord{
		Type:          model.TxTypeApprove,
		WalletAddress: e.wallet.Address().Hex(),
		Token0Address: token.Address,
		Amount0:       approveAmount.String(),
		TxHash:        hash.Hex(),
		Status:        model.TxStatusConfirmed,
		Timestamp:     time.Now().UTC(),
	})
	return nil
}

func (e *Executor) checkCreator(pool model.Pool) error {
	if pool.CreatorAddress == "" {
		return nil
	}
	if common.HexToAddress(pool.CreatorAddress) != e.wallet.Address() {
		return fmt.Errorf("%w: pool %s is owned by %s", ErrNotPoolCreator, pool.ID, pool.CreatorAddress)
	}
	return nil
}

func (e *Executor) confirm(action string) bool {
	if e.cfg.Confirm == nil {
		return true
	}
	return e.cfg.Confirm(action)
}

func (e *Executor) deadline() time.Time {
	return time.Now().Add(e.cfg.Deadline)
}

func (e *Executor) record(record model.TransactionRecord) {
	if e.journal == nil {
		return
	}
	if err := e.journal.AppendTransactions([]model.TransactionRecord{record}); err != nil {
		e.logger.Warn("journal append failed", zap.Error(err))
	}
}

func statusOf(err error) string {
	if err != nil {
		return model.TxStatusFailed
	}
	return model.TxStatusConfirmed
}
