package sql

import (
	"fmt"
	"strings"

	"github.com/syssam/sqlmap"
	"github.com/syssam/sqlmap/schema"
)

var sqlOps = map[Op]string{
	OpEQ:  "=",
	OpNEQ: "!=",
	OpGT:  ">",
	OpGTE: ">=",
	OpLT:  "<",
	OpLTE: "<=",
	OpAnd: "AND",
	OpOr:  "OR",
}

// Compiler translates predicate trees into SQL fragments against the class
// maps of a QueryContext. Parameter names are "@whereParam<n>", numbered
// from 0 for the lifetime of the compiler.
type Compiler struct {
	ctx    *QueryContext
	sb     strings.Builder
	params []Param
	index  int
}

// NewCompiler returns a compiler resolving members against ctx.
func NewCompiler(ctx *QueryContext) *Compiler {
	return &Compiler{ctx: ctx}
}

// Compile returns the fragment for e. No fragment is returned on error.
//
//	ctx, _ := sql.NewQueryContext(users)
//	f, err := sql.NewCompiler(ctx).Compile(sql.F[User]("Age").GT(30))
//	// f.Text == "(t_0.[Age] > @whereParam0)"
func (c *Compiler) Compile(e Expr) (*Fragment, error) {
	if c.ctx == nil {
		return nil, sqlmap.NewArgumentError("ctx")
	}
	c.sb.Reset()
	c.params = nil
	if err := c.visit(e); err != nil {
		return nil, err
	}
	return &Fragment{Text: c.sb.String(), Params: c.params}, nil
}

func (c *Compiler) visit(e Expr) error {
	switch e := e.(type) {
	case nil:
		return sqlmap.NewCompileError("", "missing operand")
	case Member:
		return c.member(e)
	case Literal:
		c.bind(e.Value)
	case Capture:
		if e.Eval == nil {
			return sqlmap.NewCompileError("Capture", "nil evaluation func")
		}
		c.bind(e.Eval())
	case *Binary:
		if e == nil {
			return sqlmap.NewCompileError("Binary", "nil node")
		}
		return c.binary(e)
	default:
		return sqlmap.NewCompileError(fmt.Sprintf("%T", e), "unsupported node")
	}
	return nil
}

func (c *Compiler) member(m Member) error {
	if m.Type == nil {
		return sqlmap.NewCompileError("Member", fmt.Sprintf("member %q has no type", m.Name))
	}
	var matches []*schema.ClassMap
	for _, cm := range c.ctx.ClassMaps() {
		if cm.Type() == m.Type {
			matches = append(matches, cm)
		}
	}
	switch len(matches) {
	case 0:
		return sqlmap.NewConfigError(m.Type.String(), m.Name, fmt.Sprintf("no map found for type %s", m.Type))
	case 1:
	default:
		return sqlmap.NewCompileError("Member", fmt.Sprintf("type %s is mapped %d times in the query", m.Type, len(matches)))
	}
	cm := matches[0]
	p, ok := cm.Property(m.Name)
	if !ok {
		return sqlmap.NewConfigError(cm.Table(), m.Name, fmt.Sprintf("no map found for property of type %s", m.Type))
	}
	if p.IsFormula() {
		c.sb.WriteString(p.Column())
		return nil
	}
	c.sb.WriteString(c.ctx.AliasForTable(cm))
	c.sb.WriteString(".[")
	c.sb.WriteString(p.Column())
	c.sb.WriteString("]")
	return nil
}

func (c *Compiler) binary(b *Binary) error {
	op, ok := sqlOps[b.Op]
	if !ok {
		return sqlmap.NewCompileError("Binary", fmt.Sprintf("unsupported operator %s", b.Op))
	}
	c.sb.WriteString("(")
	if err := c.visit(b.Left); err != nil {
		return err
	}
	c.sb.WriteString(" ")
	c.sb.WriteString(op)
	c.sb.WriteString(" ")
	if err := c.visit(b.Right); err != nil {
		return err
	}
	c.sb.WriteString(")")
	return nil
}

func (c *Compiler) bind(v any) {
	name := fmt.Sprintf("@whereParam%d", c.index)
	c.index++
	c.sb.WriteString(name)
	c.params = append(c.params, Param{Name: name, Value: v})
}
