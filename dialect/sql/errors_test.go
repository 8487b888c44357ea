package sql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
)

func TestConstraintErrors(t *testing.T) {
	tests := []struct {
		name                     string
		err                      error
		unique, foreignKey, check bool
	}{
		{name: "nil", err: nil},
		{name: "plain", err: errors.New("connection refused")},
		{name: "pq_unique", err: &pq.Error{Code: "23505"}, unique: true},
		{name: "pq_foreign_key", err: &pq.Error{Code: "23503"}, foreignKey: true},
		{name: "pq_check", err: &pq.Error{Code: "23514"}, check: true},
		{name: "mysql_duplicate", err: &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1' for key 'PRIMARY'"}, unique: true},
		{name: "mysql_parent_row", err: &mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"}, foreignKey: true},
		{name: "mysql_check", err: &mysql.MySQLError{Number: 3819, Message: "Check constraint is violated"}, check: true},
		{name: "mssql_primary_key", err: mssql.Error{Number: 2627, Message: "Violation of PRIMARY KEY constraint 'PK_Users'."}, unique: true},
		{name: "mssql_unique_index", err: mssql.Error{Number: 2601, Message: "Cannot insert duplicate key row"}, unique: true},
		{name: "mssql_foreign_key", err: mssql.Error{Number: 547, Message: "The INSERT statement conflicted with the FOREIGN KEY constraint"}, foreignKey: true},
		{name: "mssql_check", err: mssql.Error{Number: 547, Message: "The INSERT statement conflicted with the CHECK constraint"}, check: true},
		{name: "sqlite_text", err: errors.New("constraint failed: UNIQUE constraint failed: Users.Name (2067)"), unique: true},
		{name: "wrapped", err: fmt.Errorf("dialect/sql: exec: %w", &pq.Error{Code: "23505"}), unique: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, IsUniqueConstraintError(tt.err), "unique")
			assert.Equal(t, tt.foreignKey, IsForeignKeyConstraintError(tt.err), "foreign key")
			assert.Equal(t, tt.check, IsCheckConstraintError(tt.err), "check")
			assert.Equal(t, tt.unique || tt.foreignKey || tt.check, IsConstraintError(tt.err))
		})
	}
}
