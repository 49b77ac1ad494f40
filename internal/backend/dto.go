package backend

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"piodex/internal/model"
)

// The backend serves display-scale floats and percent fees. Everything
// crossing into core types is converted here and validated; nothing
// downstream touches a raw wire value.

type tokenDTO struct {
	Address        string  `json:"address"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Decimals       uint8   `json:"decimals"`
	Logo           string  `json:"logo,omitempty"`
	IsNative       bool    `json:"is_native"`
	Price          float64 `json:"price"`
	PriceChange24h float64 `json:"price_change_24h"`
}

type poolDTO struct {
	ID             string   `json:"id"`
	Token0         tokenDTO `json:"token0"`
	Token1         tokenDTO `json:"token1"`
	Fee            float64  `json:"fee"`
	TVL            float64  `json:"tvl"`
	Volume24h      float64  `json:"volume_24h"`
	APR            float64  `json:"apr"`
	Token0Reserve  float64  `json:"token0_reserve"`
	Token1Reserve  float64  `json:"token1_reserve"`
	CreatorAddress string   `json:"creator_address,omitempty"`
	PairAddress    string   `json:"pair_address,omitempty"`
}

type transactionDTO struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	WalletAddress string    `json:"wallet_address"`
	Token0        tokenDTO  `json:"token0"`
	Token1        tokenDTO  `json:"token1"`
	Amount0       float64   `json:"amount0"`
	Amount1       float64   `json:"amount1"`
	TxHash        string    `json:"tx_hash"`
	Timestamp     time.Time `json:"timestamp"`
	Status        string    `json:"status"`
}

type statsDTO struct {
	TotalVolume    float64   `json:"total_volume"`
	TVL            float64   `json:"tvl"`
	TotalSwappers  int       `json:"total_swappers"`
	Volume24h      float64   `json:"volume_24h"`
	Transactions24 int       `json:"transactions_24h"`
	ActivePools    int       `json:"active_pools"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProtocolStats is the backend's aggregate view, kept display-scale.
type ProtocolStats struct {
	TotalVolume    float64
	TVL            float64
	TotalSwappers  int
	Volume24h      float64
	Transactions24 int
	ActivePools    int
	UpdatedAt      time.Time
}

func (d tokenDTO) toModel() (model.Token, error) {
	token := model.Token{
		Address:  d.Address,
		Symbol:   d.Symbol,
		Name:     d.Name,
		Decimals: d.Decimals,
		PriceUSD: d.Price,
		Native:   d.IsNative,
	}
	if err := token.Validate(); err != nil {
		return model.Token{}, err
	}
	return token, nil
}

func (d poolDTO) toModel() (model.Pool, error) {
	token0, err := d.Token0.toModel()
	if err != nil {
		return model.Pool{}, fmt.Errorf("pool %s: %w", d.ID, err)
	}
	token1, err := d.Token1.toModel()
	if err != nil {
		return model.Pool{}, fmt.Errorf("pool %s: %w", d.ID, err)
	}

	feePPM, err := feeToPPM(d.Fee)
	if err != nil {
		return model.Pool{}, fmt.Errorf("pool %s: %w", d.ID, err)
	}

	reserve0, err := rawAmount(d.Token0Reserve, token0.Decimals)
	if err != nil {
		return model.Pool{}, fmt.Errorf("pool %s reserve0: %w", d.ID, err)
	}
	reserve1, err := rawAmount(d.Token1Reserve, token1.Decimals)
	if err != nil {
		return model.Pool{}, fmt.Errorf("pool %s reserve1: %w", d.ID, err)
	}

	pool := model.Pool{
		ID:             d.ID,
		Token0:         token0,
		Token1:         token1,
		FeePPM:         feePPM,
		Reserve0:       reserve0,
		Reserve1:       reserve1,
		PairAddress:    d.PairAddress,
		CreatorAddress: d.CreatorAddress,
	}
	if err := pool.Validate(); err != nil {
		return model.Pool{}, err
	}
	return pool, nil
}

func (d transactionDTO) toModel() model.TransactionRecord {
	return model.TransactionRecord{
		Type:          d.Type,
		WalletAddress: d.WalletAddress,
		Token0Address: d.Token0.Address,
		Token1Address: d.Token1.Address,
		Amount0:       formatAmount(d.Amount0),
		Amount1:       formatAmount(d.Amount1),
		TxHash:        d.TxHash,
		Status:        d.Status,
		Timestamp:     d.Timestamp,
	}
}

// feeToPPM converts the backend's percent fee (0.3 means 0.3%) into
// parts per million.
func feeToPPM(fee float64) (uint32, error) {
	if fee < 0 || fee >= 100 {
		return 0, fmt.Errorf("fee %v%% out of range", fee)
	}
	ppm := math.Round(fee * 10_000)
	return uint32(ppm), nil
}

// rawAmount converts a display-scale amount into the token's smallest
// unit. The backend rounds its floats, so this is estimate-grade only;
// execution paths re-read reserves from chain.
func rawAmount(value float64, decimals uint8) (*big.Int, error) {
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("amount %v is not usable", value)
	}
	scaled := new(big.Float).Mul(
		big.NewFloat(value),
		new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)),
	)
	raw, _ := scaled.Int(nil)
	return raw, nil
}

func formatAmount(value float64) string {
	return big.NewFloat(value).Text('f', -1)
}
