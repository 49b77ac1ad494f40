package liquidity

import (
	"errors"
	"math/big"
	"testing"
)

func TestPairedDeposit(t *testing.T) {
	// Pool priced 1:2, depositing 500 of token0 needs 1000 of token1.
	amount1, err := PairedDeposit(big.NewInt(100_000), big.NewInt(200_000), big.NewInt(500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount1.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("paired amount mismatch: got %s want 1000", amount1)
	}
}

func TestPairedDepositInverse(t *testing.T) {
	amount0, err := PairedDeposit1(big.NewInt(100_000), big.NewInt(200_000), big.NewInt(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount0.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("paired amount mismatch: got %s want 500", amount0)
	}
}

func TestPairedDepositEmptyPoolSetsInitialPrice(t *testing.T) {
	// The first depositor defines the price; no conversion happens.
	if _, err := PairedDeposit(big.NewInt(0), big.NewInt(0), big.NewInt(500)); !errors.Is(err, ErrInitialPrice) {
		t.Fatalf("expected ErrInitialPrice, got %v", err)
	}
}

func TestPairedDepositHalfEmptyPoolRejected(t *testing.T) {
	if _, err := PairedDeposit(big.NewInt(0), big.NewInt(200_000), big.NewInt(500)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPairedDepositRatioIsDepositInvariant(t *testing.T) {
	// After applying a paired deposit the same amount0 must convert to
	// the same amount1 against the grown reserves.
	reserve0 := big.NewInt(100_000)
	reserve1 := big.NewInt(200_000)
	amount0 := big.NewInt(500)

	amount1, err := PairedDeposit(reserve0, reserve1, amount0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	grown0 := new(big.Int).Add(reserve0, amount0)
	grown1 := new(big.Int).Add(reserve1, amount1)

	again, err := PairedDeposit(grown0, grown1, amount0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Cmp(amount1) != 0 {
		t.Fatalf("ratio drifted after deposit: %s then %s", amount1, again)
	}
}

func TestMinAmounts(t *testing.T) {
	// Default 1% tolerance.
	min0, min1, err := MinAmounts(big.NewInt(10_000), big.NewInt(20_000), DefaultTolerancePPM)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if min0.Cmp(big.NewInt(9900)) != 0 || min1.Cmp(big.NewInt(19_800)) != 0 {
		t.Fatalf("min amounts mismatch: got %s, %s want 9900, 19800", min0, min1)
	}
}

func TestMinAmountsRejectsFullTolerance(t *testing.T) {
	if _, _, err := MinAmounts(big.NewInt(1), big.NewInt(1), 1_000_000); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestWithdrawAmountsProportional(t *testing.T) {
	// Burning 25% of a 10,000 supply against (100,000, 50,000).
	amount0, amount1, err := WithdrawAmounts(
		big.NewInt(100_000), big.NewInt(50_000),
		big.NewInt(10_000), big.NewInt(2500), big.NewInt(2500),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount0.Cmp(big.NewInt(25_000)) != 0 || amount1.Cmp(big.NewInt(12_500)) != 0 {
		t.Fatalf("withdraw mismatch: got %s, %s want 25000, 12500", amount0, amount1)
	}
}

func TestWithdrawAmountsFullBurnReturnsReserves(t *testing.T) {
	amount0, amount1, err := WithdrawAmounts(
		big.NewInt(100_000), big.NewInt(50_000),
		big.NewInt(10_000), big.NewInt(10_000), big.NewInt(10_000),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount0.Cmp(big.NewInt(100_000)) != 0 || amount1.Cmp(big.NewInt(50_000)) != 0 {
		t.Fatalf("full burn must return full reserves: got %s, %s", amount0, amount1)
	}
}

func TestWithdrawAmountsInsufficientShare(t *testing.T) {
	cases := []struct {
		name    string
		burn    int64
		balance int64
		supply  int64
	}{
		{"zero burn", 0, 2500, 10_000},
		{"burn above balance", 3000, 2500, 10_000},
		{"balance above supply", 2500, 20_000, 10_000},
	}

	for _, tc := range cases {
		_, _, err := WithdrawAmounts(
			big.NewInt(100_000), big.NewInt(50_000),
			big.NewInt(tc.supply), big.NewInt(tc.burn), big.NewInt(tc.balance),
		)
		if !errors.Is(err, ErrInsufficientShare) {
			t.Fatalf("%s: expected ErrInsufficientShare, got %v", tc.name, err)
		}
	}
}

func TestBurnForPercent(t *testing.T) {
	// 25% of a 10,000 LP balance.
	burn, err := BurnForPercent(big.NewInt(10_000), 250_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if burn.Cmp(big.NewInt(2500)) != 0 {
		t.Fatalf("burn mismatch: got %s want 2500", burn)
	}

	if _, err := BurnForPercent(big.NewInt(10_000), 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero percent, got %v", err)
	}
	if _, err := BurnForPercent(big.NewInt(10_000), 1_000_001); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for percent above 100, got %v", err)
	}
}
