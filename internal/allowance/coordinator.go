// Package allowance decides whether an ERC20 approval transaction must
// precede a token-moving action, and tracks that decision across a
// session. Reads go through an external chain collaborator; the package
// itself never submits transactions.
package allowance

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"piodex/internal/model"
)

var (
	// ErrCheckFailed marks a transient allowance read failure. The
	// coordinator falls back to "approval required"; it never assumes
	// sufficiency on a failed read.
	ErrCheckFailed = errors.New("allowance check failed")
	// ErrBadTransition marks a lifecycle call out of order, e.g.
	// confirming an approval that was never started.
	ErrBadTransition = errors.New("invalid approval state transition")
)

// MaxApproval is the unbounded uint256 allowance requested by default,
// trading one-time gas for not re-prompting on every trade.
var MaxApproval = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// NeedsApproval reports whether moving amount requires an approval
// first. The native coin moves by value transfer and never does.
func NeedsApproval(currentAllowance, amount *big.Int, native bool) bool {
	if native {
		return false
	}
	if currentAllowance == nil {
		return true
	}
	return currentAllowance.Cmp(amount) < 0
}

// Reader reads the on-chain allowance for a (token, owner, spender)
// triple.
type Reader interface {
	GetAllowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
}

// Coordinator serializes allowance verdicts under rapid input changes.
// Every Check starts a new sequence number; a completed check applies
// its verdict only while it is still the newest, so a stale read can
// never overwrite the verdict for a newer amount.
type Coordinator struct {
	reader Reader
	logger *zap.Logger

	seq atomic.Uint64

	mu    sync.Mutex
	state State
}

func NewCoordinator(reader Reader, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		reader: reader,
		logger: logger,
		state:  StateUnknown,
	}
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Check re-evaluates sufficiency for the given token, owner, spender and
// amount. It must be called on every amount or token change; a verdict
// computed for a smaller amount is never reused for a larger one. The
// returned state is the coordinator's state after the check: a check
// superseded while in flight leaves the newer check's outcome in place.
func (c *Coordinator) Check(ctx context.Context, token model.Token, owner, spender common.Address, amount *big.Int) (State, error) {
	seq := c.seq.Add(1)
	c.apply(seq, StateChecking)

	if token.Native {
		return c.apply(seq, StateSufficient), nil
	}
	if amount == nil || amount.Sign() <= 0 {
		// Nothing to move, nothing to approve.
		return c.apply(seq, StateSufficient), nil
	}

	current, err := c.reader.GetAllowance(ctx, token.Addr(), owner, spender)
	if err != nil {
		// Conservative default: a failed read requires approval.
		state := c.apply(seq, StateNeedsApproval)
		c.logger.Warn("allowance read failed",
			zap.String("token", token.Symbol),
			zap.String("owner", owner.Hex()),
			zap.Error(err),
		)
		return state, fmt.Errorf("%w: %v", ErrCheckFailed, err)
	}

	verdict := StateSufficient
	if NeedsApproval(current, amount, token.Native) {
		verdict = StateNeedsApproval
	}

	c.logger.Debug("allowance checked",
		zap.String("token", token.Symbol),
		zap.String("allowance", current.String()),
		zap.String("amount", amount.String()),
		zap.String("verdict", string(verdict)),
	)
	return c.apply(seq, verdict), nil
}

// MarkApproving records that an approval transaction was submitted. Only
// valid from the needs-approval state.
func (c *Coordinator) MarkApproving() error {
	return c.transition(StateNeedsApproval, StateApproving)
}

// ApprovalConfirmed records a confirmed approval transaction.
func (c *Coordinator) ApprovalConfirmed() error {
	return c.transition(StateApproving, StateSufficient)
}

// ApprovalFailed records a failed or user-rejected approval. The state
// returns to needs-approval so the user may retry; it is not a dead end.
func (c *Coordinator) ApprovalFailed() error {
	return c.transition(StateApproving, StateNeedsApproval)
}

// apply installs the state for seq unless a newer check has started.
// Returns the state actually in effect afterwards.
func (c *Coordinator) apply(seq uint64, state State) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq.Load() {
		// A newer check owns the verdict; discard this one.
		return c.state
	}
	c.state = state
	return c.state
}

func (c *Coordinator) transition(from, to State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != from {
		return fmt.Errorf("%w: %s -> %s while %s", ErrBadTransition, from, to, c.state)
	}
	c.state = to
	return nil
}
