package sql

import (
	"database/sql"
	"fmt"
	"strings"
)

// CommandType tells the driver how to interpret the text of a Command.
type CommandType uint8

const (
	// Text commands carry a complete SQL statement.
	Text CommandType = iota
	// StoredProcedure commands carry a procedure name; parameters are
	// passed by name.
	StoredProcedure
)

// String implements the fmt.Stringer interface.
func (t CommandType) String() string {
	switch t {
	case Text:
		return "text"
	case StoredProcedure:
		return "stored procedure"
	default:
		return fmt.Sprintf("CommandType(%d)", uint8(t))
	}
}

// Param is a named parameter binding. Names carry the leading "@".
type Param struct {
	Name  string
	Value any
}

// Command is a compiled statement and its ordered parameter bindings.
// A Command owns no connection; executing it is up to the caller.
type Command struct {
	Text   string
	Type   CommandType
	Params []Param
}

// AddParam appends a parameter and returns its name. An empty name is
// generated as "@param<N>", N being the number of parameters already bound.
func (c *Command) AddParam(name string, v any) string {
	if name == "" {
		name = fmt.Sprintf("@param%d", len(c.Params))
	}
	c.Params = append(c.Params, Param{Name: name, Value: v})
	return name
}

// Param returns the value bound to name.
func (c *Command) Param(name string) (any, bool) {
	for _, p := range c.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// Args returns the parameters as database/sql named arguments. The leading
// "@" is stripped since database/sql requires names to start with a letter.
func (c *Command) Args() []any {
	args := make([]any, len(c.Params))
	for i, p := range c.Params {
		args[i] = sql.Named(strings.TrimPrefix(p.Name, "@"), p.Value)
	}
	return args
}

// String returns the command text followed by its bindings, for logging.
func (c *Command) String() string {
	if len(c.Params) == 0 {
		return c.Text
	}
	var b strings.Builder
	b.WriteString(c.Text)
	b.WriteString(" [")
	for i, p := range c.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", p.Name, p.Value)
	}
	b.WriteByte(']')
	return b.String()
}

// Fragment is a compiled predicate: SQL text without the "where" keyword
// and the parameters it references, in visitation order.
type Fragment struct {
	Text   string
	Params []Param
}
