package sql

import (
	"errors"
	"strings"
)

// Driver errors are never rewritten by this package. The helpers below
// classify constraint violations across the drivers commonly used with it.

// IsConstraintError reports whether err resulted from a constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// sqlStateError is implemented by lib/pq and pgx errors.
type sqlStateError interface {
	SQLState() string
}

// sqlServerError is implemented by go-mssqldb errors.
type sqlServerError interface {
	SQLErrorNumber() int32
}

// sqliteError is implemented by modernc.org/sqlite errors, carrying the
// extended result code.
type sqliteError interface {
	Code() int
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

const (
	mssqlUniqueIndex      = 2601
	mssqlUniqueConstraint = 2627
	mssqlConflict         = 547 // foreign key and check conflicts
)

const (
	sqliteConstraintCheck      = 275
	sqliteConstraintForeignKey = 787
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// IsUniqueConstraintError reports whether err resulted from a uniqueness
// violation, such as a duplicate primary key.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == pgUniqueViolation {
		return true
	}
	if e, ok := asError[sqlServerError](err); ok {
		if n := e.SQLErrorNumber(); n == mssqlUniqueIndex || n == mssqlUniqueConstraint {
			return true
		}
	}
	if e, ok := asError[sqliteError](err); ok {
		if c := e.Code(); c == sqliteConstraintUnique || c == sqliteConstraintPrimaryKey {
			return true
		}
	}
	return containsAny(err.Error(),
		"Error 1062",                 // MySQL
		"violates unique constraint", // Postgres
		"UNIQUE constraint failed",   // SQLite
		"Violation of UNIQUE KEY",    // SQL Server
		"Violation of PRIMARY KEY",   // SQL Server
	)
}

// IsForeignKeyConstraintError reports whether err resulted from a
// foreign-key violation.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == pgForeignKeyViolation {
		return true
	}
	if e, ok := asError[sqliteError](err); ok && e.Code() == sqliteConstraintForeignKey {
		return true
	}
	return containsAny(err.Error(),
		"Error 1451", // MySQL, parent row
		"Error 1452", // MySQL, child row
		"violates foreign key constraint",
		"FOREIGN KEY constraint failed",
		"conflicted with the FOREIGN KEY",
		"conflicted with the REFERENCE",
	)
}

// IsCheckConstraintError reports whether err resulted from a check
// constraint violation.
func IsCheckConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == pgCheckViolation {
		return true
	}
	if e, ok := asError[sqliteError](err); ok && e.Code() == sqliteConstraintCheck {
		return true
	}
	if e, ok := asError[sqlServerError](err); ok && e.SQLErrorNumber() == mssqlConflict &&
		strings.Contains(err.Error(), "CHECK") {
		return true
	}
	return containsAny(err.Error(),
		"Error 3819",
		"violates check constraint",
		"CHECK constraint failed",
		"conflicted with the CHECK",
	)
}

// asError finds the first error in the chain implementing T.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
