// Package dialect defines the driver abstraction the mapper executes
// commands through.
//
// # Dialect Constants
//
//	dialect.SQLServer = "sqlserver"
//	dialect.SQLite    = "sqlite"
//
// Generated SQL uses bracket-quoted identifiers, named @ parameters and
// windowed paging with row_number(). SQL Server is the reference dialect;
// SQLite accepts the same statements except for the identity fetch that
// follows an insert.
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Transaction Interface
//
//	type Tx interface {
//	    ExecQuerier
//	    Commit() error
//	    Rollback() error
//	}
//
// # Usage
//
//	import (
//	    "github.com/syssam/sqlmap/dialect"
//	    "github.com/syssam/sqlmap/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.SQLServer, "sqlserver://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// The dialect/sql package implements Driver on top of database/sql and
// contains the query compiler and command builders.
package dialect
