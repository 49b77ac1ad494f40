package storage

import "piodex/internal/model"

// Journal defines a sink for executed transaction records.
type Journal interface {
	AppendTransactions(records []model.TransactionRecord) error
}
