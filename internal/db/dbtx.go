package db

import (
	"context"
	"database/sql"
)

// DBTX is the querying surface shared by *sql.DB and *sql.Tx. The schoolday
// repositories take a DBTX rather than the concrete *sql.DB so that a move or
// stuck commit can run the same repository code inside one transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
