// Package mapper runs the commands built by dialect/sql for a single mapped
// entity type.
//
//	users, err := mapper.New[User](drv, userMap)
//	adults, err := users.Where(ctx, sql.F[User]("Age").GTE(18))
package mapper

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"reflect"

	"github.com/spf13/cast"

	"github.com/syssam/sqlmap"
	"github.com/syssam/sqlmap/dialect"
	"github.com/syssam/sqlmap/dialect/sql"
	"github.com/syssam/sqlmap/schema"
)

// Mapper reads and writes entities of type T through a class map.
// It is safe for concurrent use when the underlying driver is.
type Mapper[T any] struct {
	drv      dialect.Driver
	cm       *schema.ClassMap
	logger   *slog.Logger
	identity string
}

// New returns a Mapper for T. The class map must have been built for T.
func New[T any](drv dialect.Driver, cm *schema.ClassMap, opts ...Option) (*Mapper[T], error) {
	if drv == nil {
		return nil, sqlmap.NewArgumentError("drv")
	}
	if cm == nil {
		return nil, sqlmap.NewArgumentError("cm")
	}
	if t := reflect.TypeFor[T](); cm.Type() != t {
		return nil, sqlmap.NewArgumentErrorf("cm", "class map for %s cannot map %s", cm.Type(), t)
	}
	cfg := &config{dialect: drv.Dialect()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.notifier != nil {
		drv = sql.NewNotifyDriver(drv, cfg.notifier)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Mapper[T]{
		drv:      drv,
		cm:       cm,
		logger:   cfg.logger,
		identity: cfg.identityQuery(),
	}, nil
}

// ClassMap returns the class map of the mapper.
func (m *Mapper[T]) ClassMap() *schema.ClassMap { return m.cm }

// All returns every row of the table.
func (m *Mapper[T]) All(ctx context.Context) ([]*T, error) {
	return m.list(ctx, func() (*sql.Command, error) { return sql.BuildSelect(m.cm) })
}

// Where returns the rows matching pred.
func (m *Mapper[T]) Where(ctx context.Context, pred sql.Expr) ([]*T, error) {
	return m.list(ctx, func() (*sql.Command, error) { return sql.BuildWhere(m.cm, pred) })
}

// WherePage returns one page of the rows matching pred. A nil pred pages
// over the whole table.
func (m *Mapper[T]) WherePage(ctx context.Context, pred sql.Expr, page *sql.Page) ([]*T, error) {
	return m.list(ctx, func() (*sql.Command, error) { return sql.BuildPage(m.cm, pred, page) })
}

// Join returns the rows of T joined to the joined map on pred.
func (m *Mapper[T]) Join(ctx context.Context, joined *schema.ClassMap, on sql.Expr) ([]*T, error) {
	return m.list(ctx, func() (*sql.Command, error) { return sql.BuildJoin(m.cm, joined, on) })
}

// JoinPage is the paged form of Join.
func (m *Mapper[T]) JoinPage(ctx context.Context, joined *schema.ClassMap, on sql.Expr, page *sql.Page) ([]*T, error) {
	return m.list(ctx, func() (*sql.Command, error) { return sql.BuildJoinPage(m.cm, joined, on, page) })
}

// ExecProc runs the stored procedure name and materializes its result set.
// The exported fields of args (or the keys of a map[string]any) become
// @-prefixed parameters.
func (m *Mapper[T]) ExecProc(ctx context.Context, name string, args any) ([]*T, error) {
	return m.list(ctx, func() (*sql.Command, error) { return sql.BuildProc(m.cm, name, args) })
}

// Iter runs a filtered select when iteration starts and yields the rows as
// they are read. A nil pred selects every row.
func (m *Mapper[T]) Iter(ctx context.Context, pred sql.Expr) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		var (
			cmd *sql.Command
			err error
		)
		if pred == nil {
			cmd, err = sql.BuildSelect(m.cm)
		} else {
			cmd, err = sql.BuildWhere(m.cm, pred)
		}
		if err != nil {
			yield(nil, err)
			return
		}
		rows := &sql.Rows{}
		if err := m.drv.Query(ctx, cmd.Text, cmd.Args(), rows); err != nil {
			yield(nil, err)
			return
		}
		for v, err := range sql.Materialize[T](rows, m.cm) {
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// Count returns the number of rows in the table.
func (m *Mapper[T]) Count(ctx context.Context) (int64, error) {
	return m.CountWhere(ctx, nil)
}

// CountWhere returns the number of rows matching pred.
func (m *Mapper[T]) CountWhere(ctx context.Context, pred sql.Expr) (int64, error) {
	cmd, err := sql.BuildCount(m.cm, pred)
	if err != nil {
		return 0, err
	}
	v, err := m.scalar(ctx, m.drv, cmd)
	if err != nil {
		return 0, err
	}
	return cast.ToInt64E(v)
}

// Sum returns the sum of property over the table. An empty table sums to 0.
func (m *Mapper[T]) Sum(ctx context.Context, property string) (float64, error) {
	return m.SumWhere(ctx, property, nil)
}

// SumWhere returns the sum of property over the rows matching pred.
func (m *Mapper[T]) SumWhere(ctx context.Context, property string, pred sql.Expr) (float64, error) {
	cmd, err := sql.BuildSum(m.cm, property, pred)
	if err != nil {
		return 0, err
	}
	v, err := m.scalar(ctx, m.drv, cmd)
	if err != nil {
		return 0, err
	}
	return cast.ToFloat64E(v)
}

// GetByID returns the entity whose single primary key equals id.
func (m *Mapper[T]) GetByID(ctx context.Context, id any) (*T, error) {
	pks := m.cm.PrimaryKeys()
	if len(pks) != 1 {
		return nil, sqlmap.NewConfigError(m.cm.Table(), "", fmt.Sprintf("lookup by id requires exactly 1 primary key, found %d", len(pks)))
	}
	pred := sql.Member{Type: m.cm.Type(), Name: pks[0].Alias()}.EQ(id)
	got, err := m.Where(ctx, pred)
	if err != nil {
		return nil, err
	}
	if len(got) == 0 {
		return nil, sqlmap.NewNotFoundErrorWithID(m.cm.Name(), id)
	}
	return got[0], nil
}

// Insert writes entity. When the class map has an identity property the
// insert and the fetch of the generated key run in one transaction, and the
// key is stored on entity before commit.
func (m *Mapper[T]) Insert(ctx context.Context, entity *T) error {
	cmd, err := sql.BuildInsert(m.cm, entity)
	if err != nil {
		return err
	}
	id := m.cm.IdentityProperty()
	if id == nil || !id.HasSetter() {
		return m.drv.Exec(ctx, cmd.Text, cmd.Args(), nil)
	}
	tx, err := m.drv.Tx(ctx)
	if err != nil {
		return err
	}
	key, err := m.insertIdentity(ctx, tx, cmd)
	if err == nil {
		err = id.Set(entity, key)
	}
	if err != nil {
		return m.rollback(ctx, tx, err)
	}
	return tx.Commit()
}

func (m *Mapper[T]) insertIdentity(ctx context.Context, tx dialect.Tx, cmd *sql.Command) (any, error) {
	if m.identity != "" {
		cmd.Text += m.identity
		return m.scalar(ctx, tx, cmd)
	}
	var res sql.Result
	if err := tx.Exec(ctx, cmd.Text, cmd.Args(), &res); err != nil {
		return nil, err
	}
	return res.LastInsertId()
}

// Update writes entity by primary key. It fails with a ConsistencyError
// unless exactly one row was affected.
func (m *Mapper[T]) Update(ctx context.Context, entity *T) error {
	cmd, err := sql.BuildUpdate(m.cm, entity)
	if err != nil {
		return err
	}
	return m.execOne(ctx, "update", cmd)
}

// Delete removes entity by primary key. It fails with a ConsistencyError
// unless exactly one row was affected.
func (m *Mapper[T]) Delete(ctx context.Context, entity *T) error {
	cmd, err := sql.BuildDelete(m.cm, entity)
	if err != nil {
		return err
	}
	return m.execOne(ctx, "delete", cmd)
}

func (m *Mapper[T]) execOne(ctx context.Context, op string, cmd *sql.Command) error {
	var res sql.Result
	if err := m.drv.Exec(ctx, cmd.Text, cmd.Args(), &res); err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		m.logger.WarnContext(ctx, "sqlmap: unexpected affected rows",
			"table", m.cm.Table(),
			"op", op,
			"affected", n,
		)
		return sqlmap.NewConsistencyError(m.cm.Table(), op, n)
	}
	return nil
}

func (m *Mapper[T]) list(ctx context.Context, build func() (*sql.Command, error)) ([]*T, error) {
	return sql.Collect(m.query(ctx, build))
}

func (m *Mapper[T]) query(ctx context.Context, build func() (*sql.Command, error)) iter.Seq2[*T, error] {
	cmd, err := build()
	if err != nil {
		return failed[T](err)
	}
	rows := &sql.Rows{}
	if err := m.drv.Query(ctx, cmd.Text, cmd.Args(), rows); err != nil {
		return failed[T](err)
	}
	return sql.Materialize[T](rows, m.cm)
}

func (m *Mapper[T]) scalar(ctx context.Context, eq dialect.ExecQuerier, cmd *sql.Command) (any, error) {
	rows := &sql.Rows{}
	if err := eq.Query(ctx, cmd.Text, cmd.Args(), rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("sqlmap: %s returned no rows", cmd.Text)
	}
	var v any
	if err := rows.Scan(&v); err != nil {
		return nil, err
	}
	return v, rows.Close()
}

// rollback rolls tx back and returns err, annotated with the rollback
// failure if there was one.
func (m *Mapper[T]) rollback(ctx context.Context, tx dialect.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		m.logger.ErrorContext(ctx, "sqlmap: rollback failed", "table", m.cm.Table(), "error", rerr)
		return fmt.Errorf("%w: %w", err, &sqlmap.RollbackError{Err: rerr})
	}
	return err
}

func failed[T any](err error) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) { yield(nil, err) }
}
