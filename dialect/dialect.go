package dialect

import (
	"context"
	"database/sql/driver"
)

// Dialect names.
const (
	SQLServer = "sqlserver"
	SQLite    = "sqlite"
)

// ExecQuerier wraps the two database operations: Exec for statements that
// return no rows and Query for statements that do.
type ExecQuerier interface {
	// Exec executes a query that does not return records. v, when not nil,
	// must be a *sql.Result receiving the driver result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows into v, typically a *sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for the
// mapper to talk to a database.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in a transaction.
type Tx interface {
	ExecQuerier
	driver.Tx
}
