package sql

import (
	"errors"
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/syssam/sqlmap/schema"
)

// ErrCursorConsumed is yielded when a materialized sequence is iterated
// more than once. Re-execute the command to read the rows again.
var ErrCursorConsumed = errors.New("sqlmap: cursor already consumed")

// Materialize returns a lazy, single-pass sequence of the rows of rows as
// instances of T built by the constructor of cm. Columns named after a
// property alias are assigned through its setter unless NULL; other columns
// are ignored. rows is closed when the sequence ends, when the consumer
// stops early, or on the first error.
//
//	for u, err := range sql.Materialize[User](rows, users) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(u.Name)
//	}
func Materialize[T any](rows ColumnScanner, cm *schema.ClassMap) iter.Seq2[*T, error] {
	return materialize(rows, cm, func(e any) (*T, error) {
		v, ok := e.(*T)
		if !ok {
			return nil, fmt.Errorf("sqlmap: %s constructor returns %T, expect %T", cm.Table(), e, v)
		}
		return v, nil
	})
}

// MaterializeAny is like Materialize for class maps whose type is only
// known at run time, such as records. Each value is a pointer to a new
// instance of cm.Type().
func MaterializeAny(rows ColumnScanner, cm *schema.ClassMap) iter.Seq2[any, error] {
	return materialize(rows, cm, func(e any) (any, error) { return e, nil })
}

func materialize[T any](rows ColumnScanner, cm *schema.ClassMap, conv func(any) (T, error)) iter.Seq2[T, error] {
	var (
		used atomic.Bool
		zero T
	)
	return func(yield func(T, error) bool) {
		if used.Swap(true) {
			yield(zero, ErrCursorConsumed)
			return
		}
		defer rows.Close()
		columns, err := rows.Columns()
		if err != nil {
			yield(zero, fmt.Errorf("sqlmap: reading columns: %w", err))
			return
		}
		props := make([]*schema.PropertyMap, len(columns))
		for i, c := range columns {
			if p, ok := cm.Property(c); ok && p.HasSetter() {
				props[i] = p
			}
		}
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		for rows.Next() {
			clear(values)
			if err := rows.Scan(dest...); err != nil {
				yield(zero, err)
				return
			}
			entity := cm.New()
			for i, p := range props {
				if p == nil || values[i] == nil {
					continue
				}
				if err := p.Set(entity, values[i]); err != nil {
					yield(zero, err)
					return
				}
			}
			v, err := conv(entity)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, err)
		}
	}
}

// Collect drains a materialized sequence into a slice, stopping at the
// first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
