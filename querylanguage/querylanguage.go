// Package querylanguage parses predicates written as text into sql.Expr
// trees and renders trees back to text.
//
//	Age > 30 && (Name == "Bob" || Name == "Carol")
//	u.ID == o.UserID && o.Total >= 100.5
//
// Bare property names resolve against the default binding (the "" key);
// qualified names resolve against the named binding.
package querylanguage

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/syssam/sqlmap"
	"github.com/syssam/sqlmap/dialect/sql"
)

var ops = map[string]sql.Op{
	"==": sql.OpEQ,
	"!=": sql.OpNEQ,
	">":  sql.OpGT,
	">=": sql.OpGTE,
	"<":  sql.OpLT,
	"<=": sql.OpLTE,
}

// Parse parses src into a predicate. bindings maps the qualifiers used in
// src to mapped struct types.
func Parse(src string, bindings map[string]reflect.Type) (sql.Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, sqlmap.NewArgumentErrorf("src", "empty predicate")
	}
	root, err := parser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("querylanguage: %w", err)
	}
	c := &converter{bindings: bindings}
	return c.or(root)
}

type converter struct {
	bindings map[string]reflect.Type
}

func (c *converter) or(n *orNode) (sql.Expr, error) {
	e, err := c.and(n.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range n.Right {
		re, err := c.and(r)
		if err != nil {
			return nil, err
		}
		e = sql.Or(e, re)
	}
	return e, nil
}

func (c *converter) and(n *andNode) (sql.Expr, error) {
	e, err := c.cmp(n.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range n.Right {
		re, err := c.cmp(r)
		if err != nil {
			return nil, err
		}
		e = sql.And(e, re)
	}
	return e, nil
}

func (c *converter) cmp(n *cmpNode) (sql.Expr, error) {
	if n.Op == "" {
		if n.Left.Group == nil {
			return nil, sqlmap.NewCompileError(n.Pos.String(), "expected a comparison")
		}
		return c.or(n.Left.Group)
	}
	l, err := c.term(n.Left)
	if err != nil {
		return nil, err
	}
	r, err := c.term(n.Right)
	if err != nil {
		return nil, err
	}
	return &sql.Binary{Op: ops[n.Op], Left: l, Right: r}, nil
}

func (c *converter) term(n *termNode) (sql.Expr, error) {
	switch {
	case n.Group != nil:
		return c.or(n.Group)
	case n.Str != nil:
		return sql.Value(*n.Str), nil
	case n.Number != nil:
		return number(n.Pos, *n.Number)
	case n.Bool != nil:
		return sql.Value(*n.Bool == "true"), nil
	case n.Nil:
		return sql.Value(nil), nil
	case n.Ref != nil:
		return c.ref(n.Ref)
	}
	return nil, sqlmap.NewCompileError(n.Pos.String(), "empty term")
}

func (c *converter) ref(n *refNode) (sql.Expr, error) {
	binding, name := "", n.Head
	if n.Field != "" {
		binding, name = n.Head, n.Field
	}
	t, ok := c.bindings[binding]
	if !ok || t == nil {
		if binding == "" {
			return nil, sqlmap.NewCompileError(n.Pos.String(), fmt.Sprintf("no default binding for %q", name))
		}
		return nil, sqlmap.NewCompileError(n.Pos.String(), fmt.Sprintf("unknown binding %q", binding))
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return sql.Member{Type: t, Name: name}, nil
}

func number(pos fmt.Stringer, s string) (sql.Expr, error) {
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, sqlmap.NewCompileError(pos.String(), err.Error())
		}
		return sql.Value(f), nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return nil, sqlmap.NewCompileError(pos.String(), err.Error())
	}
	return sql.Value(i), nil
}

// String renders e in the syntax accepted by Parse. Members are qualified
// with their type name, so the output parses back with bindings keyed by
// type name. Captured operands are evaluated.
func String(e sql.Expr) string {
	var b strings.Builder
	write(&b, e, 0)
	return b.String()
}

// Binding strength of an operator. A child binding weaker than its
// context is parenthesized.
func precedence(op sql.Op) int {
	switch op {
	case sql.OpOr:
		return 1
	case sql.OpAnd:
		return 2
	default:
		return 3
	}
}

func write(b *strings.Builder, e sql.Expr, parent int) {
	switch e := e.(type) {
	case nil:
		b.WriteString("nil")
	case *sql.Binary:
		if e == nil {
			b.WriteString("nil")
			return
		}
		p := precedence(e.Op)
		if p < parent {
			b.WriteByte('(')
			defer b.WriteByte(')')
		}
		left, right := p, p+1
		if !e.Op.Logical() {
			left, right = p+1, p+1
		}
		write(b, e.Left, left)
		b.WriteString(" " + e.Op.String() + " ")
		write(b, e.Right, right)
	case sql.Capture:
		if e.Eval == nil {
			b.WriteString("nil")
			return
		}
		writeValue(b, e.Eval())
	case sql.Literal:
		writeValue(b, e.Value)
	default:
		b.WriteString(e.String())
	}
}

// writeValue writes v as a literal. Values with no literal syntax, such as
// time.Time, are written as strings.
func writeValue(b *strings.Builder, v any) {
	switch v := v.(type) {
	case nil:
		b.WriteString("nil")
	case string:
		b.WriteString(strconv.Quote(v))
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		fmt.Fprint(b, v)
	case float32:
		b.WriteString(formatFloat(float64(v)))
	case float64:
		b.WriteString(formatFloat(v))
	default:
		b.WriteString(strconv.Quote(fmt.Sprint(v)))
	}
}

// formatFloat keeps a decimal point so the value parses back as a float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
