package sql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlmap/dialect"
)

func TestDialectMethod(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{dialect.SQLServer, dialect.SQLServer},
		{"mssql", dialect.SQLServer},
		{"azuresql", dialect.SQLServer},
		{dialect.SQLite, dialect.SQLite},
		{"sqlite3", dialect.SQLite},
		{"postgres", "postgres"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			drv := OpenDB(tt.name, db)
			assert.Equal(t, tt.want, drv.Dialect())
			assert.Same(t, db, drv.DB())
		})
	}
}

func TestDriverQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.SQLServer, db)

	t.Run("named_args", func(t *testing.T) {
		mock.ExpectQuery(`select t_0\.\[Name\] from \[Users\] t_0 where \(t_0\.\[ID\] = @whereParam0\)`).
			WithArgs(sql.Named("whereParam0", 1)).
			WillReturnRows(sqlmock.NewRows([]string{"Name"}).AddRow("Alice"))

		cmd := &Command{
			Text:   "select t_0.[Name] from [Users] t_0 where (t_0.[ID] = @whereParam0)",
			Params: []Param{{Name: "@whereParam0", Value: 1}},
		}
		rows := &Rows{}
		err := drv.Query(context.Background(), cmd.Text, cmd.Args(), rows)
		require.NoError(t, err)
		require.True(t, rows.Next())
		var name string
		require.NoError(t, rows.Scan(&name))
		assert.Equal(t, "Alice", name)
		require.NoError(t, rows.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query_error", func(t *testing.T) {
		want := errors.New("database error")
		mock.ExpectQuery("select").WillReturnError(want)

		err := drv.Query(context.Background(), "select 1", []any{}, &Rows{})
		require.ErrorIs(t, err, want)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_destination", func(t *testing.T) {
		err := drv.Query(context.Background(), "select 1", []any{}, new(int))
		require.Error(t, err)
		err = drv.Query(context.Background(), "select 1", "not a slice", &Rows{})
		require.Error(t, err)
	})
}

func TestDriverExec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.SQLServer, db)

	t.Run("result", func(t *testing.T) {
		mock.ExpectExec(`delete from \[Users\] where \[ID\] = @param0`).
			WithArgs(sql.Named("param0", 7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		var res sql.Result
		err := drv.Exec(context.Background(), "delete from [Users] where [ID] = @param0", []any{sql.Named("param0", 7)}, &res)
		require.NoError(t, err)
		n, err := res.RowsAffected()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil_result", func(t *testing.T) {
		mock.ExpectExec("insert").WillReturnResult(sqlmock.NewResult(1, 1))
		require.NoError(t, drv.Exec(context.Background(), "insert into [Users]([Name]) values(@param0)", []any{sql.Named("param0", "x")}, nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec_error", func(t *testing.T) {
		want := errors.New("constraint violation")
		mock.ExpectExec("delete").WillReturnError(want)

		err := drv.Exec(context.Background(), "delete from [Users]", []any{}, nil)
		require.ErrorIs(t, err, want, "driver errors are wrapped, not replaced")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_destination", func(t *testing.T) {
		require.Error(t, drv.Exec(context.Background(), "delete from [Users]", []any{}, new(int)))
	})
}

func TestDriverTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.SQLServer, db)

	t.Run("commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`insert into \[Users\]\(\[Name\]\) values\(@param0\) select CAST\(scope_identity\(\) as INT\)`).
			WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(42))
		mock.ExpectCommit()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)
		rows := &Rows{}
		err = tx.Query(context.Background(), "insert into [Users]([Name]) values(@param0) select CAST(scope_identity() as INT)", []any{sql.Named("param0", "x")}, rows)
		require.NoError(t, err)
		require.True(t, rows.Next())
		var id int64
		require.NoError(t, rows.Scan(&id))
		require.NoError(t, rows.Close())
		assert.Equal(t, int64(42), id)
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("insert").WillReturnError(errors.New("error"))
		mock.ExpectRollback()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)
		require.Error(t, tx.Exec(context.Background(), "insert into [Users]([Name]) values(@param0)", []any{}, nil))
		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin_error", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("no connection"))
		_, err := drv.Tx(context.Background())
		require.Error(t, err)
	})
}

func TestContextCancellation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.SQLServer, db)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock.ExpectQuery("select").WillReturnError(context.Canceled)
	err = drv.Query(ctx, "select 1", []any{}, &Rows{})
	assert.Error(t, err)
}

func TestNullValues(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.SQLServer, db)
	mock.ExpectQuery("select").
		WillReturnRows(sqlmock.NewRows([]string{"Name", "Email"}).
			AddRow("Alice", nil).
			AddRow(nil, "bob@example.com"))

	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "select [Name], [Email] from [Users]", []any{}, rows))
	var names []NullString
	for rows.Next() {
		var name, email NullString
		require.NoError(t, rows.Scan(&name, &email))
		names = append(names, name)
	}
	require.NoError(t, rows.Close())
	assert.Equal(t, []NullString{{String: "Alice", Valid: true}, {}}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}
