package sql

import (
	"fmt"

	"github.com/syssam/sqlmap"
	"github.com/syssam/sqlmap/schema"
)

type tableEntry struct {
	alias string
	cm    *schema.ClassMap
}

// QueryContext assigns table and column aliases for the class maps taking
// part in a single command. A context is created per build and must not be
// shared between commands.
type QueryContext struct {
	tables []tableEntry
	tIndex int
	cIndex int
}

// NewQueryContext registers the given class maps in order. Maps without an
// explicit alias get a generated "t_<n>".
func NewQueryContext(maps ...*schema.ClassMap) (*QueryContext, error) {
	if len(maps) == 0 {
		return nil, sqlmap.NewArgumentErrorf("maps", "at least 1 class map must be provided")
	}
	ctx := &QueryContext{tables: make([]tableEntry, 0, len(maps))}
	for _, cm := range maps {
		if cm == nil {
			return nil, sqlmap.NewArgumentError("maps")
		}
		alias := cm.Alias()
		if alias == "" {
			alias = ctx.nextTableAlias()
		}
		for _, t := range ctx.tables {
			if t.alias == alias {
				return nil, sqlmap.NewConfigError(cm.Table(), "", fmt.Sprintf("table alias %q already used in query", alias))
			}
		}
		ctx.tables = append(ctx.tables, tableEntry{alias: alias, cm: cm})
	}
	return ctx, nil
}

// AliasForTable returns the alias registered for cm. An unregistered map
// gets a fresh "t_<n>" that is not remembered.
func (c *QueryContext) AliasForTable(cm *schema.ClassMap) string {
	if cm != nil {
		for _, t := range c.tables {
			if t.cm == cm {
				return t.alias
			}
		}
	}
	return c.nextTableAlias()
}

// AliasForColumn returns a fresh computed column alias "c_<n>".
func (c *QueryContext) AliasForColumn() string {
	alias := fmt.Sprintf("c_%d", c.cIndex)
	c.cIndex++
	return alias
}

// ClassMaps returns the registered class maps in registration order.
func (c *QueryContext) ClassMaps() []*schema.ClassMap {
	maps := make([]*schema.ClassMap, len(c.tables))
	for i, t := range c.tables {
		maps[i] = t.cm
	}
	return maps
}

func (c *QueryContext) nextTableAlias() string {
	alias := fmt.Sprintf("t_%d", c.tIndex)
	c.tIndex++
	return alias
}
