package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the executor repositories run queries against. Both *pgxpool.Pool
// and pgx.Tx satisfy it, so the same repository methods work inside and
// outside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner hands out executors and runs functions inside a transaction.
// Mutation+history pairs must go through WithinTx so they commit atomically.
type TxRunner interface {
	DB() DB
	WithinTx(ctx context.Context, fn func(db DB) error) error
}

// Store is the pgx-backed TxRunner.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// DB returns the non-transactional executor.
func (s *Store) DB() DB {
	return s.pool
}

// WithinTx runs fn inside a transaction, committing on nil and rolling back
// on error or panic.
func (s *Store) WithinTx(ctx context.Context, fn func(db DB) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(tx)
	})
}
