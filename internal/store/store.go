// Package store implements persistence over SQLite, one store per entity.
package store

import (
	"context"
	"database/sql"
)

// DBTX is the subset of *sql.DB and *sql.Tx the stores need. Ledger
// operations bind stores to a single *sql.Tx so the wallet-balance
// read-modify-write and the transaction record write commit together.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
