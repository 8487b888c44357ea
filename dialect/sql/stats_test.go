package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlmap/dialect"
)

func TestStatsDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var slow []string
	drv := NewStatsDriver(OpenDB(dialect.SQLServer, db),
		WithSlowThreshold(time.Hour),
		WithSlowQueryHook(func(_ context.Context, cmd *Command, _ time.Duration) {
			slow = append(slow, cmd.Text)
		}),
	)
	ctx := context.Background()

	mock.ExpectQuery("select").WillReturnRows(sqlmock.NewRows([]string{"ID"}).AddRow(1))
	rows := &Rows{}
	require.NoError(t, drv.Query(ctx, "select t_0.[ID] from [Users] t_0", []any{}, rows))
	require.NoError(t, rows.Close())

	mock.ExpectExec("delete").WillReturnError(errors.New("boom"))
	require.Error(t, drv.Exec(ctx, "delete from [Users] where [ID] = @param0", []any{}, nil))

	mock.ExpectBegin()
	mock.ExpectExec("update").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()
	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	update := &Command{Text: "update [Users] set [Name] = @param1 where [ID] = @param0"}
	update.AddParam("", 7)
	update.AddParam("", "Bob")
	require.NoError(t, tx.Exec(ctx, update.Text, update.Args(), nil))
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())

	s := drv.QueryStats().Snapshot()
	assert.Equal(t, int64(1), s.Queries)
	assert.Equal(t, int64(2), s.Execs)
	assert.Equal(t, int64(1), s.Errors)
	assert.Equal(t, int64(1), s.Rollbacks)
	assert.Equal(t, int64(2), s.Params)
	assert.Equal(t, map[StatementKind]int64{KindSelect: 1, KindUpdate: 1, KindDelete: 1}, s.Kinds)
	assert.Equal(t, int64(1), drv.QueryStats().Kind(KindUpdate))
	assert.Zero(t, drv.QueryStats().Kind(KindInsert))
	assert.Zero(t, s.Slow)
	assert.Empty(t, slow)
	assert.Contains(t, s.String(), "queries=1 execs=2 select=1 update=1 delete=1 params=2")

	drv.SetSlowThreshold(-1)
	assert.Equal(t, time.Duration(-1), drv.SlowThreshold())
	mock.ExpectQuery("select").WillReturnRows(sqlmock.NewRows([]string{"ID"}))
	require.NoError(t, drv.Query(ctx, "select 1", []any{}, rows))
	require.NoError(t, rows.Close())
	assert.Equal(t, []string{"select 1"}, slow)
	assert.Equal(t, int64(1), drv.QueryStats().Snapshot().Slow)

	drv.QueryStats().Reset()
	assert.Equal(t, StatsSnapshot{}, drv.QueryStats().Snapshot())
	assert.Zero(t, StatsSnapshot{}.Avg())
}

func TestSlowQueryLog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	drv := NewStatsDriver(OpenDB(dialect.SQLServer, db), WithSlowThreshold(-1), WithSlowQueryLog(logger))

	cmd := &Command{Text: "delete from [Users] where [ID] = @param0"}
	cmd.AddParam("", 1)
	mock.ExpectExec("delete").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, drv.Exec(context.Background(), cmd.Text, cmd.Args(), nil))
	assert.Contains(t, buf.String(), "sqlmap: slow statement")
	assert.Contains(t, buf.String(), "kind=delete")
	assert.Contains(t, buf.String(), `text="delete from [Users] where [ID] = @param0"`)
	assert.Contains(t, buf.String(), "@param0")
}

func TestDebugDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var logs []string
	drv := NewDebugDriver(OpenDB(dialect.SQLServer, db), DebugWithLog(func(_ context.Context, v ...any) {
		for _, s := range v {
			logs = append(logs, s.(string))
		}
	}))
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("insert").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	insert := &Command{Text: "insert into [Tags]([Label]) values(@param0)"}
	insert.AddParam("", "go")
	require.NoError(t, tx.Exec(ctx, insert.Text, insert.Args(), nil))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, []string{
		"begin transaction",
		"tx exec: insert into [Tags]([Label]) values(@param0) [@param0=go]",
		"commit transaction",
	}, logs)
}

func TestDebugWithLogger(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	drv := NewDebugDriver(OpenDB(dialect.SQLServer, db), DebugWithLogger(logger))

	mock.ExpectQuery("select").WillReturnRows(sqlmock.NewRows([]string{"n"}))
	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "select count(1) from [Users] t_0", []any{}, rows))
	require.NoError(t, rows.Close())
	assert.Contains(t, buf.String(), "query: select count(1) from [Users] t_0")
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		cmd  *Command
		want StatementKind
	}{
		{&Command{Text: "select t_0.[ID] from [Users] t_0"}, KindSelect},
		{&Command{Text: "  SELECT count(1) from [Users] t_0"}, KindSelect},
		{&Command{Text: "insert into [Users]([Name]) values(@param0) select CAST(scope_identity() as INT)"}, KindInsert},
		{&Command{Text: "update [Users] set [Name] = @param1 where [ID] = @param0"}, KindUpdate},
		{&Command{Text: "delete from [Users] where [ID] = @param0"}, KindDelete},
		{&Command{Text: "usp_active_users", Type: StoredProcedure}, KindProcedure},
		{&Command{Text: "exec usp_active_users"}, KindProcedure},
		{&Command{Text: "with x as (select 1) select * from x"}, KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.cmd.Text, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.cmd))
		})
	}
	assert.Equal(t, "proc", KindProcedure.String())
	assert.Equal(t, "StatementKind(9)", StatementKind(9).String())
}
