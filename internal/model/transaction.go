package model

import "time"

// Transaction kinds recorded in the local journal.
const (
	TxTypeSwap            = "swap"
	TxTypeApprove         = "approve"
	TxTypeAddLiquidity    = "add"
	TxTypeRemoveLiquidity = "remove"
)

// Transaction statuses.
const (
	TxStatusPending   = "pending"
	TxStatusConfirmed = "confirmed"
	TxStatusFailed    = "failed"
)

// TransactionRecord is an executed on-chain action as recorded in the
// local journal.
type TransactionRecord struct {
	Type          string    `json:"type"`
	WalletAddress string    `json:"wallet_address"`
	Token0Address string    `json:"token0_address"`
	Token1Address string    `json:"token1_address"`
	Amount0       string    `json:"amount0"`
	Amount1       string    `json:"amount1"`
	TxHash        string    `json:"tx_hash,omitempty"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
}
