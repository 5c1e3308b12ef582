package repository

import (
	"context"
	"database/sql"
)

// TxManager runs fn inside one atomic transaction spanning both stores.
// The transaction commits iff fn returns nil; any error (or a cancelled
// context) rolls everything back, so callers never observe partial effect.
type TxManager interface {
	RunTx(ctx context.Context, fn func(p PatientsRepository, b BedTicketsRepository) error) error
}

// Querier is satisfied by *sql.DB and *sql.Tx, letting the Postgres repos
// run the same statements inside and outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)
