// Package postgres persists the transaction journal in Postgres for
// setups where a durable, queryable history is wanted instead of the
// local JSONL file.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"piodex/internal/model"
)

// Store provides Postgres persistence for transaction records.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// AppendTransactions inserts or updates transaction records keyed by
// transaction hash, so a re-run after a partial failure is idempotent.
func (s *Store) AppendTransactions(records []model.TransactionRecord) error {
	return s.AppendTransactionsContext(context.Background(), records)
}

func (s *Store) AppendTransactionsContext(ctx context.Context, records []model.TransactionRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(`
			INSERT INTO transactions (
				tx_hash, type, wallet_address, token0, token1, amount0, amount1, status, ts, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
			ON CONFLICT (tx_hash)
			DO UPDATE SET
				status = EXCLUDED.status,
				updated_at = now()
		`,
			record.TxHash,
			record.Type,
			record.WalletAddress,
			record.Token0Address,
			record.Token1Address,
			record.Amount0,
			record.Amount1,
			record.Status,
			record.Timestamp,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
