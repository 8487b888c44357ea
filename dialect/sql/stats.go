package sql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syssam/sqlmap/dialect"
)

// StatementKind classifies a command by its leading keyword.
type StatementKind uint8

// Statement kinds.
const (
	KindOther StatementKind = iota
	KindSelect
	KindInsert
	KindUpdate
	KindDelete
	KindProcedure
	numKinds
)

var kindNames = [numKinds]string{"other", "select", "insert", "update", "delete", "proc"}

// String implements the fmt.Stringer interface.
func (k StatementKind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("StatementKind(%d)", uint8(k))
}

// KindOf returns the kind of cmd. Paged selects, counts and sums are
// selects; an identity insert is an insert.
func KindOf(cmd *Command) StatementKind {
	if cmd.Type == StoredProcedure {
		return KindProcedure
	}
	word, _, _ := strings.Cut(strings.TrimSpace(cmd.Text), " ")
	switch strings.ToLower(word) {
	case "select":
		return KindSelect
	case "insert":
		return KindInsert
	case "update":
		return KindUpdate
	case "delete":
		return KindDelete
	case "exec", "execute":
		return KindProcedure
	}
	return KindOther
}

// QueryStats holds command execution statistics.
type QueryStats struct {
	// Queries counts commands read through Query.
	Queries atomic.Int64
	// Execs counts commands run through Exec.
	Execs atomic.Int64
	// Params counts bound parameters over all commands.
	Params atomic.Int64
	// Duration is the total time spent executing, in nanoseconds.
	Duration atomic.Int64
	// Slow counts commands exceeding the slow threshold.
	Slow atomic.Int64
	// Errors counts failed commands.
	Errors atomic.Int64
	// Rollbacks counts rolled back transactions.
	Rollbacks atomic.Int64

	kinds [numKinds]atomic.Int64
}

// Kind returns the number of commands of kind k.
func (s *QueryStats) Kind(k StatementKind) int64 {
	if k >= numKinds {
		return 0
	}
	return s.kinds[k].Load()
}

// Snapshot returns the current statistics.
func (s *QueryStats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Queries:   s.Queries.Load(),
		Execs:     s.Execs.Load(),
		Params:    s.Params.Load(),
		Duration:  time.Duration(s.Duration.Load()),
		Slow:      s.Slow.Load(),
		Errors:    s.Errors.Load(),
		Rollbacks: s.Rollbacks.Load(),
	}
	for k := range numKinds {
		if n := s.kinds[k].Load(); n > 0 {
			if snap.Kinds == nil {
				snap.Kinds = make(map[StatementKind]int64)
			}
			snap.Kinds[k] = n
		}
	}
	return snap
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	for _, c := range []*atomic.Int64{&s.Queries, &s.Execs, &s.Params, &s.Duration, &s.Slow, &s.Errors, &s.Rollbacks} {
		c.Store(0)
	}
	for k := range numKinds {
		s.kinds[k].Store(0)
	}
}

// StatsSnapshot is a point-in-time copy of QueryStats. Kinds holds the
// non-zero per-kind counts.
type StatsSnapshot struct {
	Queries   int64
	Execs     int64
	Params    int64
	Duration  time.Duration
	Slow      int64
	Errors    int64
	Rollbacks int64
	Kinds     map[StatementKind]int64
}

// Avg returns the average command duration.
func (s StatsSnapshot) Avg() time.Duration {
	total := s.Queries + s.Execs
	if total == 0 {
		return 0
	}
	return s.Duration / time.Duration(total)
}

func (s StatsSnapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "queries=%d execs=%d", s.Queries, s.Execs)
	for k := KindSelect; k < numKinds; k++ {
		if n := s.Kinds[k]; n > 0 {
			fmt.Fprintf(&b, " %s=%d", k, n)
		}
	}
	fmt.Fprintf(&b, " params=%d duration=%s avg=%s slow=%d errors=%d rollbacks=%d",
		s.Params, s.Duration, s.Avg(), s.Slow, s.Errors, s.Rollbacks)
	return b.String()
}

// SlowQueryHook is called with a command that exceeded the slow threshold.
type SlowQueryHook func(ctx context.Context, cmd *Command, duration time.Duration)

// StatsDriver wraps a driver with command statistics.
type StatsDriver struct {
	dialect.Driver
	stats     *QueryStats
	threshold time.Duration
	hook      SlowQueryHook
	mu        sync.RWMutex
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the slow command threshold. Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.threshold = d
	}
}

// WithSlowQueryHook sets the callback for slow commands.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.hook = hook
	}
}

// WithSlowQueryLog logs slow commands to logger at warn level. Parameter
// names are logged, values are not.
func WithSlowQueryLog(logger *slog.Logger) StatsOption {
	if logger == nil {
		logger = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, cmd *Command, duration time.Duration) {
		names := make([]string, len(cmd.Params))
		for i, p := range cmd.Params {
			names[i] = p.Name
		}
		logger.WarnContext(ctx, "sqlmap: slow statement",
			"kind", KindOf(cmd).String(),
			"type", cmd.Type.String(),
			"text", cmd.Text,
			"params", names,
			"duration", duration,
		)
	})
}

// NewStatsDriver wraps drv with statistics collection.
//
//	drv, _ := sql.Open(dialect.SQLServer, dsn)
//	sd := sql.NewStatsDriver(drv, sql.WithSlowThreshold(200*time.Millisecond), sql.WithSlowQueryLog(nil))
//	users := mapper.New[User](sd, userMap)
//	// later
//	fmt.Println(sd.QueryStats().Snapshot())
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:    drv,
		stats:     &QueryStats{},
		threshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the collected statistics.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.threshold
}

// SetSlowThreshold updates the slow threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.threshold = threshold
}

// Query executes a query and records statistics.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.record(ctx, commandOf(query, args), start, err, &d.stats.Queries)
	return err
}

// Exec executes a statement and records statistics.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.record(ctx, commandOf(query, args), start, err, &d.stats.Execs)
	return err
}

func (d *StatsDriver) record(ctx context.Context, cmd *Command, start time.Time, err error, counter *atomic.Int64) {
	duration := time.Since(start)
	counter.Add(1)
	d.stats.kinds[KindOf(cmd)].Add(1)
	d.stats.Params.Add(int64(len(cmd.Params)))
	d.stats.Duration.Add(int64(duration))
	if err != nil {
		d.stats.Errors.Add(1)
	}
	d.mu.RLock()
	threshold, hook := d.threshold, d.hook
	d.mu.RUnlock()
	if duration > threshold {
		d.stats.Slow.Add(1)
		if hook != nil {
			hook(ctx, cmd, duration)
		}
	}
}

// Tx starts a transaction that records statistics.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{Tx: tx, driver: d}, nil
}

// StatsTx is the transaction of a StatsDriver.
type StatsTx struct {
	dialect.Tx
	driver *StatsDriver
}

// Query executes a query within the transaction and records statistics.
func (tx *StatsTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.driver.record(ctx, commandOf(query, args), start, err, &tx.driver.stats.Queries)
	return err
}

// Exec executes a statement within the transaction and records statistics.
func (tx *StatsTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.driver.record(ctx, commandOf(query, args), start, err, &tx.driver.stats.Execs)
	return err
}

// Rollback rolls back the transaction and counts it.
func (tx *StatsTx) Rollback() error {
	tx.driver.stats.Rollbacks.Add(1)
	return tx.Tx.Rollback()
}

// DebugDriver logs every command and its bindings before executing it.
type DebugDriver struct {
	dialect.Driver
	log func(context.Context, ...any)
}

// DebugOption configures a DebugDriver.
type DebugOption func(*DebugDriver)

// DebugWithLog sets a custom log function.
func DebugWithLog(logFunc func(context.Context, ...any)) DebugOption {
	return func(d *DebugDriver) {
		d.log = logFunc
	}
}

// DebugWithLogger logs to logger at debug level.
func DebugWithLogger(logger *slog.Logger) DebugOption {
	return DebugWithLog(func(ctx context.Context, v ...any) {
		logger.DebugContext(ctx, fmt.Sprint(v...))
	})
}

// NewDebugDriver wraps drv with debug logging. Without options it logs
// through slog.Default at info level.
func NewDebugDriver(drv dialect.Driver, opts ...DebugOption) *DebugDriver {
	d := &DebugDriver{
		Driver: drv,
		log: func(ctx context.Context, v ...any) {
			slog.InfoContext(ctx, fmt.Sprint(v...))
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Query logs and executes a query.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.log(ctx, "query: "+commandOf(query, args).String())
	return d.Driver.Query(ctx, query, args, v)
}

// Exec logs and executes a statement.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.log(ctx, "exec: "+commandOf(query, args).String())
	return d.Driver.Exec(ctx, query, args, v)
}

// Tx starts a transaction with debug logging.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	d.log(ctx, "begin transaction")
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &DebugTx{Tx: tx, log: d.log}, nil
}

// DebugTx is the transaction of a DebugDriver.
type DebugTx struct {
	dialect.Tx
	log func(context.Context, ...any)
}

// Query logs and executes a query within the transaction.
func (tx *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	tx.log(ctx, "tx query: "+commandOf(query, args).String())
	return tx.Tx.Query(ctx, query, args, v)
}

// Exec logs and executes a statement within the transaction.
func (tx *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	tx.log(ctx, "tx exec: "+commandOf(query, args).String())
	return tx.Tx.Exec(ctx, query, args, v)
}

// Commit logs and commits the transaction.
func (tx *DebugTx) Commit() error {
	tx.log(context.Background(), "commit transaction")
	return tx.Tx.Commit()
}

// Rollback logs and rolls back the transaction.
func (tx *DebugTx) Rollback() error {
	tx.log(context.Background(), "rollback transaction")
	return tx.Tx.Rollback()
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*StatsTx)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
	_ dialect.Tx     = (*DebugTx)(nil)
)

// OpenWithStats opens a database with statistics collection enabled.
func OpenWithStats(driverName, source string, opts ...StatsOption) (*StatsDriver, error) {
	drv, err := Open(driverName, source)
	if err != nil {
		return nil, err
	}
	return NewStatsDriver(drv, opts...), nil
}
