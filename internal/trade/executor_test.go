package trade

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"piodex/internal/allowance"
	"piodex/internal/chain"
	"piodex/internal/model"
)

var (
	walletAddr  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	routerAddr  = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	creatorAddr = "0x00000000000000000000000000000000000000cc"

	wpio = model.Token{Address: "0x9Da12b8CF8B94f2E0eedD9841E268631aF03aDb1", Symbol: "WPIO", Decimals: 18}
	usdt = model.Token{Address: "0x75C681D7d00b6cDa3778535Bba87E433cA369C96", Symbol: "USDT", Decimals: 6}
)

type fakeReader struct {
	allowance *big.Int
	err       error
}

func (f *fakeReader) GetAllowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return new(big.Int).Set(f.allowance), nil
}

// fakeWallet records the order of submit and confirmation calls.
type fakeWallet struct {
	calls      []string
	nextHash   byte
	confirmErr map[common.Hash]error
}

func (f *fakeWallet) Address() common.Address { return walletAddr }

func (f *fakeWallet) newHash(kind string) common.Hash {
	f.nextHash++
	f.calls = append(f.calls, "submit:"+kind)
	return common.BytesToHash([]byte{f.nextHash})
}

func (f *fakeWallet) SubmitApproval(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	return f.newHash("approval"), nil
}

func (f *fakeWallet) SubmitSwap(ctx context.Context, path []common.Address, amountIn, minAmountOut *big.Int, recipient common.Address, deadline time.Time) (common.Hash, error) {
	return f.newHash("swap"), nil
}

func (f *fakeWallet) SubmitAddLiquidity(ctx context.Context, tokenA, tokenB common.Address, desiredA, desiredB, minA, minB *big.Int, recipient common.Address, deadline time.Time) (common.Hash, error) {
	return f.newHash("add"), nil
}

func (f *fakeWallet) SubmitRemoveLiquidity(ctx context.Context, tokenA, tokenB common.Address, lpAmount, minA, minB *big.Int, recipient common.Address, deadline time.Time) (common.Hash, error) {
	return f.newHash("remove"), nil
}

func (f *fakeWallet) AwaitConfirmation(ctx context.Context, hash common.Hash) error {
	f.calls = append(f.calls, "confirm")
	if err, ok := f.confirmErr[hash]; ok {
		return err
	}
	return nil
}

type memJournal struct {
	records []model.TransactionRecord
}

func (m *memJournal) AppendTransactions(records []model.TransactionRecord) error {
	m.records = append(m.records, records...)
	return nil
}

func liveQuote(amountIn, amountOut, minReceived int64) model.Quote {
	return model.Quote{
		AmountIn:        big.NewInt(amountIn),
		AmountOut:       big.NewInt(amountOut),
		MinimumReceived: big.NewInt(minReceived),
	}
}

func swapPath() []common.Address {
	return []common.Address{wpio.Addr(), usdt.Addr()}
}

func TestSwapApprovalConfirmedBeforeSwapSubmitted(t *testing.T) {
	// Allowance 500 against 600 in: approval required first.
	wallet := &fakeWallet{}
	coord := allowance.NewCoordinator(&fakeReader{allowance: big.NewInt(500)}, nil)
	journal := &memJournal{}
	exec := NewExecutor(Config{}, wallet, coord, routerAddr, journal, nil)

	if _, err := exec.Swap(context.Background(), wpio, usdt, swapPath(), liveQuote(600, 1195, 1189)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"submit:approval", "confirm", "submit:swap", "confirm"}
	if len(wallet.calls) != len(want) {
		t.Fatalf("call sequence mismatch: %v", wallet.calls)
	}
	for i, call := range want {
		if wallet.calls[i] != call {
			t.Fatalf("call %d: got %s want %s (all: %v)", i, wallet.calls[i], call, wallet.calls)
		}
	}

	if coord.State() != allowance.StateSufficient {
		t.Fatalf("coordinator state mismatch: %s", coord.State())
	}
	if len(journal.records) != 2 {
		t.Fatalf("expected approval and swap records, got %d", len(journal.records))
	}
	if journal.records[0].Type != model.TxTypeApprove || journal.records[1].Type != model.TxTypeSwap {
		t.Fatalf("journal order mismatch: %+v", journal.records)
	}
}

func TestSwapSkipsApprovalWhenSufficient(t *testing.T) {
	wallet := &fakeWallet{}
	coord := allowance.NewCoordinator(&fakeReader{allowance: big.NewInt(1_000_000)}, nil)
	exec := NewExecutor(Config{}, wallet, coord, routerAddr, nil, nil)

	if _, err := exec.Swap(context.Background(), wpio, usdt, swapPath(), liveQuote(600, 1195, 1189)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(wallet.calls) != 2 || wallet.calls[0] != "submit:swap" {
		t.Fatalf("approval was submitted needlessly: %v", wallet.calls)
	}
}

func TestSwapUserRejection(t *testing.T) {
	wallet := &fakeWallet{}
	coord := allowance.NewCoordinator(&fakeReader{allowance: big.NewInt(1_000_000)}, nil)
	exec := NewExecutor(Config{
		Confirm: func(string) bool { return false },
	}, wallet, coord, routerAddr, nil, nil)

	_, err := exec.Swap(context.Background(), wpio, usdt, swapPath(), liveQuote(600, 1195, 1189))
	if !errors.Is(err, chain.ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if len(wallet.calls) != 0 {
		t.Fatalf("rejected swap must not submit: %v", wallet.calls)
	}
}

func TestSwapRefusesEstimateQuote(t *testing.T) {
	wallet := &fakeWallet{}
	coord := allowance.NewCoordinator(&fakeReader{allowance: big.NewInt(1_000_000)}, nil)
	exec := NewExecutor(Config{}, wallet, coord, routerAddr, nil, nil)

	quote := liveQuote(600, 1195, 1189)
	quote.Estimate = true
	if _, err := exec.Swap(context.Background(), wpio, usdt, swapPath(), quote); err == nil {
		t.Fatalf("expected refusal of estimate quote")
	}
	if len(wallet.calls) != 0 {
		t.Fatalf("estimate quote must not submit: %v", wallet.calls)
	}
}

func TestSwapRevertedSurfacesAndJournals(t *testing.T) {
	wallet := &fakeWallet{
		confirmErr: map[common.Hash]error{
			common.BytesToHash([]byte{1}): fmt.Errorf("%w: slippage exceeded", chain.ErrReverted),
		},
	}
	coord := allowance.NewCoordinator(&fakeReader{allowance: big.NewInt(1_000_000)}, nil)
	journal := &memJournal{}
	exec := NewExecutor(Config{}, wallet, coord, routerAddr, journal, nil)

	_, err := exec.Swap(context.Background(), wpio, usdt, swapPath(), liveQuote(600, 1195, 1189))
	if !errors.Is(err, chain.ErrReverted) {
		t.Fatalf("expected ErrReverted, got %v", err)
	}
	if len(journal.records) != 1 || journal.records[0].Status != model.TxStatusFailed {
		t.Fatalf("revert must journal as failed: %+v", journal.records)
	}
}

func TestApprovalFailureReopensRetry(t *testing.T) {
	// Approval confirmation fails; the swap must not be submitted and
	// the coordinator must allow a retry.
	wallet := &fakeWallet{
		confirmErr: map[common.Hash]error{
			common.BytesToHash([]byte{1}): fmt.Errorf("%w", chain.ErrReverted),
		},
	}
	coord := allowance.NewCoordinator(&fakeReader{allowance: big.NewInt(0)}, nil)
	exec := NewExecutor(Config{}, wallet, coord, routerAddr, nil, nil)

	_, err := exec.Swap(context.Background(), wpio, usdt, swapPath(), liveQuote(600, 1195, 1189))
	if !errors.Is(err, chain.ErrReverted) {
		t.Fatalf("expected ErrReverted, got %v", err)
	}
	for _, call := range wallet.calls {
		if call == "submit:swap" {
			t.Fatalf("swap submitted after failed approval: %v", wallet.calls)
		}
	}
	if coord.State() != allowance.StateNeedsApproval {
		t.Fatalf("failed approval must return to needs-approval, got %s", coord.State())
	}
}

func TestAllowanceReadFailureBlocksSwap(t *testing.T) {
	wallet := &fakeWallet{}
	coord := allowance.NewCoordinator(&fakeReader{err: fmt.Errorf("rpc down")}, nil)
	exec := NewExecutor(Config{}, wallet, coord, routerAddr, nil, nil)

	_, err := exec.Swap(context.Background(), wpio, usdt, swapPath(), liveQuote(600, 1195, 1189))
	if !errors.Is(err, allowance.ErrCheckFailed) {
		t.Fatalf("expected ErrCheckFailed, got %v", err)
	}
	if len(wallet.calls) != 0 {
		t.Fatalf("failed allowance read must not submit: %v", wallet.calls)
	}
}

func TestAddLiquidityCreatorGating(t *testing.T) {
	wallet := &fakeWallet{}
	coord := allowance.NewCoordinator(&fakeReader{allowance: big.NewInt(1_000_000)}, nil)
	exec := NewExecutor(Config{}, wallet, coord, routerAddr, nil, nil)

	pool := model.Pool{
		ID:             "wpio-usdt",
		Token0:         wpio,
		Token1:         usdt,
		FeePPM:         3000,
		Reserve0:       big.NewInt(1_000_000),
		Reserve1:       big.NewInt(2_000_000),
		CreatorAddress: creatorAddr,
	}

	_, err := exec.AddLiquidity(context.Background(), pool, big.NewInt(100), big.NewInt(200), big.NewInt(99), big.NewInt(198))
	if !errors.Is(err, ErrNotPoolCreator) {
		t.Fatalf("expected ErrNotPoolCreator, got %v", err)
	}

	// The wallet's own pool goes through.
	pool.CreatorAddress = walletAddr.Hex()
	if _, err := exec.AddLiquidity(context.Background(), pool, big.NewInt(100), big.NewInt(200), big.NewInt(99), big.NewInt(198)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRemoveLiquidityApprovesLPToken(t *testing.T) {
	wallet := &fakeWallet{}
	coord := allowance.NewCoordinator(&fakeReader{allowance: big.NewInt(0)}, nil)
	exec := NewExecutor(Config{}, wallet, coord, routerAddr, nil, nil)

	pool := model.Pool{
		ID:          "wpio-usdt",
		Token0:      wpio,
		Token1:      usdt,
		FeePPM:      3000,
		Reserve0:    big.NewInt(1_000_000),
		Reserve1:    big.NewInt(2_000_000),
		PairAddress: "0x00000000000000000000000000000000000000dd",
	}

	if _, err := exec.RemoveLiquidity(context.Background(), pool, big.NewInt(2500), big.NewInt(25_000), big.NewInt(12_500)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"submit:approval", "confirm", "submit:remove", "confirm"}
	for i, call := range want {
		if wallet.calls[i] != call {
			t.Fatalf("call %d: got %s want %s (all: %v)", i, wallet.calls[i], call, wallet.calls)
		}
	}
}
