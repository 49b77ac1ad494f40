package amm

import (
	"errors"
	"math/big"
	"testing"

	"piodex/internal/model"
)

var (
	tokenPIO  = model.Token{Address: "0x0000000000000000000000000000000000000000", Symbol: "PIO", Decimals: 18, PriceUSD: 2, Native: true}
	tokenWPIO = model.Token{Address: "0x9Da12b8CF8B94f2E0eedD9841E268631aF03aDb1", Symbol: "WPIO", Decimals: 18, PriceUSD: 2}
	tokenUSDT = model.Token{Address: "0x75C681D7d00b6cDa3778535Bba87E433cA369C96", Symbol: "USDT", Decimals: 6, PriceUSD: 1}
	tokenGLD  = model.Token{Address: "0x1111111111111111111111111111111111111111", Symbol: "GLD", Decimals: 18, PriceUSD: 10}
)

func poolOf(id string, t0, t1 model.Token, r0, r1 int64) model.Pool {
	return model.Pool{
		ID:       id,
		Token0:   t0,
		Token1:   t1,
		FeePPM:   3000,
		Reserve0: big.NewInt(r0),
		Reserve1: big.NewInt(r1),
	}
}

func TestQuotePoolDirect(t *testing.T) {
	pool := poolOf("wpio-usdt", tokenWPIO, tokenUSDT, 1_000_000, 2_000_000)

	quote, err := QuotePool(pool, tokenWPIO.Address, big.NewInt(1000), 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quote.AmountOut.Cmp(big.NewInt(1992)) != 0 {
		t.Fatalf("amount out mismatch: got %s want 1992", quote.AmountOut)
	}
	if quote.ExchangeRate.Cmp(big.NewRat(2, 1)) != 0 {
		t.Fatalf("exchange rate mismatch: got %s want 2", quote.ExchangeRate)
	}
	if quote.PriceImpact.Cmp(big.NewRat(1, 250)) != 0 {
		t.Fatalf("price impact mismatch: got %s want 1/250", quote.PriceImpact)
	}
	// 0.5% slippage on 1992 floors to 1982.
	if quote.MinimumReceived.Cmp(big.NewInt(1982)) != 0 {
		t.Fatalf("minimum received mismatch: got %s want 1982", quote.MinimumReceived)
	}
	if len(quote.Route) != 1 || quote.Route[0] != "wpio-usdt" {
		t.Fatalf("route mismatch: %v", quote.Route)
	}
	if quote.Estimate {
		t.Fatalf("live quote must not be an estimate")
	}
}

func TestQuotePoolReversedDirection(t *testing.T) {
	pool := poolOf("wpio-usdt", tokenWPIO, tokenUSDT, 1_000_000, 2_000_000)

	quote, err := QuotePool(pool, tokenUSDT.Address, big.NewInt(2000), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Selling token1 uses reserves (2,000,000 -> 1,000,000).
	want, err := AmountOut(big.NewInt(2_000_000), big.NewInt(1_000_000), 3000, big.NewInt(2000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.AmountOut.Cmp(want) != 0 {
		t.Fatalf("amount out mismatch: got %s want %s", quote.AmountOut, want)
	}
}

func TestQuotePathTwoHops(t *testing.T) {
	first := poolOf("gld-wpio", tokenGLD, tokenWPIO, 500_000, 2_500_000)
	second := poolOf("wpio-usdt", tokenWPIO, tokenUSDT, 1_000_000, 2_000_000)

	quote, err := QuotePath([]model.Pool{first, second}, tokenGLD.Address, big.NewInt(1000), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hop1, err := AmountOut(big.NewInt(500_000), big.NewInt(2_500_000), 3000, big.NewInt(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hop2, err := AmountOut(big.NewInt(1_000_000), big.NewInt(2_000_000), 3000, hop1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.AmountOut.Cmp(hop2) != 0 {
		t.Fatalf("chained output mismatch: got %s want %s", quote.AmountOut, hop2)
	}

	// Marginal rate is the product of the hop ratios: 5 * 2 = 10.
	if quote.ExchangeRate.Cmp(big.NewRat(10, 1)) != 0 {
		t.Fatalf("exchange rate mismatch: got %s want 10", quote.ExchangeRate)
	}
	if quote.PriceImpact.Sign() < 0 {
		t.Fatalf("negative end-to-end impact %s", quote.PriceImpact)
	}
	if len(quote.Route) != 2 {
		t.Fatalf("route mismatch: %v", quote.Route)
	}
}

func TestQuotePathDisconnectedHop(t *testing.T) {
	first := poolOf("gld-wpio", tokenGLD, tokenWPIO, 500_000, 2_500_000)
	// Second hop does not trade WPIO.
	second := poolOf("gld-usdt", tokenGLD, tokenUSDT, 1_000_000, 2_000_000)

	if _, err := QuotePath([]model.Pool{first, second}, tokenGLD.Address, big.NewInt(1000), 0); !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
}

func TestQuotePathUnknownEntryToken(t *testing.T) {
	pool := poolOf("wpio-usdt", tokenWPIO, tokenUSDT, 1_000_000, 2_000_000)

	if _, err := QuotePath([]model.Pool{pool}, tokenGLD.Address, big.NewInt(1000), 0); !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
}

func TestQuotePathEmpty(t *testing.T) {
	if _, err := QuotePath(nil, tokenGLD.Address, big.NewInt(1000), 0); !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
}

func TestQuotePathUninitializedPool(t *testing.T) {
	pool := poolOf("wpio-usdt", tokenWPIO, tokenUSDT, 0, 0)

	if _, err := QuotePool(pool, tokenWPIO.Address, big.NewInt(1000), 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEstimateQuoteMarksEstimate(t *testing.T) {
	quote, err := EstimateQuote(tokenWPIO, tokenUSDT, 100, 3000, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !quote.Estimate {
		t.Fatalf("price-derived quote must be marked as estimate")
	}
	if quote.AmountOut.Sign() <= 0 {
		t.Fatalf("estimate output must be positive, got %s", quote.AmountOut)
	}
}
