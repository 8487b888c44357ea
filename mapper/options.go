package mapper

import (
	"log/slog"

	"github.com/syssam/sqlmap/dialect"
	"github.com/syssam/sqlmap/dialect/sql"
)

// Identity fetch statements appended to an insert when the class map has an
// identity property.
const (
	SQLServerIdentity = " select CAST(scope_identity() as INT)"
)

type config struct {
	notifier    *sql.Notifier
	logger      *slog.Logger
	dialect     string
	identity    string
	hasIdentity bool
}

// Option configures a Mapper.
type Option func(*config)

// WithNotifier delivers every statement to the hooks of n before it runs.
func WithNotifier(n *sql.Notifier) Option {
	return func(c *config) {
		c.notifier = n
	}
}

// WithLogger sets the logger used for consistency and rollback failures.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithIdentityQuery overrides the statement appended to an insert to read the
// generated key back. An empty query reads the key from the driver result.
func WithIdentityQuery(q string) Option {
	return func(c *config) {
		c.identity = q
		c.hasIdentity = true
	}
}

// WithDialect overrides the dialect reported by the driver.
func WithDialect(name string) Option {
	return func(c *config) {
		c.dialect = name
	}
}

// identityQuery returns the appended identity fetch for the dialect. SQLite
// reports the generated rowid through sql.Result instead.
func (c *config) identityQuery() string {
	if c.hasIdentity {
		return c.identity
	}
	if c.dialect == dialect.SQLite {
		return ""
	}
	return SQLServerIdentity
}
