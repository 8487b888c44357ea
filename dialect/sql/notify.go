package sql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/syssam/sqlmap"
	"github.com/syssam/sqlmap/dialect"
)

// Hook observes a command right before it is executed.
type Hook interface {
	Notify(ctx context.Context, cmd *Command)
}

// HookFunc adapts a function to the Hook interface. Functions are not
// comparable, so registering the same HookFunc twice delivers twice.
type HookFunc func(ctx context.Context, cmd *Command)

// Notify calls f(ctx, cmd).
func (f HookFunc) Notify(ctx context.Context, cmd *Command) { f(ctx, cmd) }

// Notifier delivers commands to registered hooks. It is an explicit value
// passed to the drivers and mappers that use it.
type Notifier struct {
	mu    sync.RWMutex
	hooks []Hook
}

// NewNotifier returns a notifier with the given hooks registered.
func NewNotifier(hooks ...Hook) *Notifier {
	n := &Notifier{}
	for _, h := range hooks {
		if h != nil {
			_ = n.Register(h)
		}
	}
	return n
}

// Register adds h. Registering a comparable hook that is already present
// is a no-op.
func (n *Notifier) Register(h Hook) error {
	if h == nil {
		return sqlmap.NewArgumentError("hook")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if reflect.TypeOf(h).Comparable() {
		for _, r := range n.hooks {
			if reflect.TypeOf(r) == reflect.TypeOf(h) && r == h {
				return nil
			}
		}
	}
	n.hooks = append(n.hooks, h)
	return nil
}

// Len returns the number of registered hooks.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.hooks)
}

// Notify delivers cmd to a snapshot of the registered hooks, in
// registration order. Hooks may register other hooks.
func (n *Notifier) Notify(ctx context.Context, cmd *Command) {
	if n == nil {
		return
	}
	n.mu.RLock()
	hooks := make([]Hook, len(n.hooks))
	copy(hooks, n.hooks)
	n.mu.RUnlock()
	for _, h := range hooks {
		h.Notify(ctx, cmd)
	}
}

type logHook struct {
	logger *slog.Logger
}

// LogHook returns a hook logging every command at debug level. A nil
// logger uses slog.Default.
func LogHook(logger *slog.Logger) Hook {
	if logger == nil {
		logger = slog.Default()
	}
	return logHook{logger: logger}
}

func (h logHook) Notify(ctx context.Context, cmd *Command) {
	h.logger.DebugContext(ctx, "sqlmap: execute",
		"type", cmd.Type.String(),
		"text", cmd.Text,
		"params", len(cmd.Params),
	)
}

// NotifyDriver passes every statement through a Notifier before handing
// it to the wrapped driver.
type NotifyDriver struct {
	dialect.Driver
	notifier *Notifier
}

// NewNotifyDriver wraps drv with n.
func NewNotifyDriver(drv dialect.Driver, n *Notifier) *NotifyDriver {
	return &NotifyDriver{Driver: drv, notifier: n}
}

// Notifier returns the notifier used by the driver.
func (d *NotifyDriver) Notifier() *Notifier { return d.notifier }

// Exec notifies and executes a statement.
func (d *NotifyDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.notifier.Notify(ctx, commandOf(query, args))
	return d.Driver.Exec(ctx, query, args, v)
}

// Query notifies and executes a query.
func (d *NotifyDriver) Query(ctx context.Context, query string, args, v any) error {
	d.notifier.Notify(ctx, commandOf(query, args))
	return d.Driver.Query(ctx, query, args, v)
}

// Tx starts a transaction whose statements are notified too.
func (d *NotifyDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &NotifyTx{Tx: tx, notifier: d.notifier}, nil
}

// NotifyTx is the transaction of a NotifyDriver.
type NotifyTx struct {
	dialect.Tx
	notifier *Notifier
}

// Exec notifies and executes a statement in the transaction.
func (tx *NotifyTx) Exec(ctx context.Context, query string, args, v any) error {
	tx.notifier.Notify(ctx, commandOf(query, args))
	return tx.Tx.Exec(ctx, query, args, v)
}

// Query notifies and executes a query in the transaction.
func (tx *NotifyTx) Query(ctx context.Context, query string, args, v any) error {
	tx.notifier.Notify(ctx, commandOf(query, args))
	return tx.Tx.Query(ctx, query, args, v)
}

// commandOf rebuilds a Command from driver arguments. A query without
// whitespace is a procedure name.
func commandOf(query string, args any) *Command {
	cmd := &Command{Text: query}
	if !strings.ContainsAny(strings.TrimSpace(query), " \t\r\n") {
		cmd.Type = StoredProcedure
	}
	argv, _ := args.([]any)
	for i, a := range argv {
		if na, ok := a.(sql.NamedArg); ok {
			cmd.Params = append(cmd.Params, Param{Name: "@" + na.Name, Value: na.Value})
			continue
		}
		cmd.Params = append(cmd.Params, Param{Name: fmt.Sprintf("@p%d", i+1), Value: a})
	}
	return cmd
}

var (
	_ dialect.Driver = (*NotifyDriver)(nil)
	_ dialect.Tx     = (*NotifyTx)(nil)
)
