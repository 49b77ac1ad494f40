package model

import "time"

// Position is a wallet's liquidity stake in a pool. Owned exclusively by
// the contributing wallet address.
type Position struct {
	ID            string    `json:"id"`
	PoolID        string    `json:"pool_id"`
	WalletAddress string    `json:"wallet_address"`
	Token0Amount  float64   `json:"token0_amount"`
	Token1Amount  float64   `json:"token1_amount"`
	Liquidity     float64   `json:"liquidity"`
	MinPrice      float64   `json:"min_price"`
	MaxPrice      float64   `json:"max_price"`
	UnclaimedFees float64   `json:"unclaimed_fees"`
	InRange       bool      `json:"in_range"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
