package main

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/syssam/sqlmap/dialect/sql"
	"github.com/syssam/sqlmap/querylanguage"
	"github.com/syssam/sqlmap/schema"
)

// Statement kinds accepted by --op.
const (
	opSelect = "select"
	opCount  = "count"
	opSum    = "sum"
	opInsert = "insert"
	opUpdate = "update"
	opDelete = "delete"
	opProc   = "proc"
)

// statementFlags describe one command against a table of the catalog.
type statementFlags struct {
	op       string
	where    string
	join     string
	on       string
	orderBy  string
	from     int
	to       int
	desc     bool
	property string
	proc     string
	set      map[string]string
}

func (f *statementFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.op, "op", opSelect, "statement kind: select, count, sum, insert, update, delete or proc")
	fs.StringVarP(&f.where, "where", "w", "", `filter predicate, e.g. 'Age > 30 && Name != "root"'`)
	fs.StringVar(&f.join, "join", "", "table to inner join")
	fs.StringVar(&f.on, "on", "", "join predicate, e.g. 'Users.ID == Orders.UserID'")
	fs.StringVar(&f.orderBy, "order-by", "", "property to page by; enables paging")
	fs.IntVar(&f.from, "from", 1, "first row number of the page")
	fs.IntVar(&f.to, "to", 50, "last row number of the page")
	fs.BoolVar(&f.desc, "desc", false, "page in descending order")
	fs.StringVar(&f.property, "property", "", "property to sum")
	fs.StringVar(&f.proc, "proc", "", "stored procedure name")
	fs.StringToStringVar(&f.set, "set", nil, "property values for insert, update, delete and proc")
}

func (f *statementFlags) values() map[string]any {
	if len(f.set) == 0 {
		return nil
	}
	m := make(map[string]any, len(f.set))
	for k, v := range f.set {
		m[k] = v
	}
	return m
}

func (f *statementFlags) page() *sql.Page {
	if f.orderBy == "" {
		return nil
	}
	return &sql.Page{OrderBy: f.orderBy, From: f.from, To: f.to, Desc: f.desc}
}

func (f *statementFlags) predicate(cat *catalog, table string) (sql.Expr, error) {
	names := []string{table}
	if f.join != "" {
		names = append(names, f.join)
	}
	bindings := cat.bindings(names...)
	var pred sql.Expr
	for _, src := range []string{f.on, f.where} {
		if src == "" {
			continue
		}
		e, err := querylanguage.Parse(src, bindings)
		if err != nil {
			return nil, err
		}
		if pred == nil {
			pred = e
		} else {
			pred = sql.And(pred, e)
		}
	}
	return pred, nil
}

// build returns the command for table together with its class map.
func (f *statementFlags) build(cat *catalog, table string) (*sql.Command, *schema.ClassMap, error) {
	cm, err := cat.lookup(table)
	if err != nil {
		return nil, nil, err
	}
	if f.join != "" && f.op != opSelect {
		return nil, nil, fmt.Errorf("--join applies to select only")
	}
	pred, err := f.predicate(cat, table)
	if err != nil {
		return nil, nil, err
	}
	var cmd *sql.Command
	switch f.op {
	case opSelect:
		cmd, err = f.buildSelect(cat, cm, pred)
	case opCount:
		cmd, err = sql.BuildCount(cm, pred)
	case opSum:
		cmd, err = sql.BuildSum(cm, f.property, pred)
	case opInsert, opUpdate, opDelete:
		cmd, err = f.buildWrite(cm)
	case opProc:
		cmd, err = sql.BuildProc(cm, f.proc, f.values())
	default:
		err = fmt.Errorf("unknown --op %q", f.op)
	}
	if err != nil {
		return nil, nil, err
	}
	return cmd, cm, nil
}

func (f *statementFlags) buildSelect(cat *catalog, cm *schema.ClassMap, pred sql.Expr) (*sql.Command, error) {
	page := f.page()
	if f.join != "" {
		joined, err := cat.lookup(f.join)
		if err != nil {
			return nil, err
		}
		if f.on == "" {
			return nil, errors.New("--join requires --on")
		}
		if page != nil {
			return sql.BuildJoinPage(cm, joined, pred, page)
		}
		return sql.BuildJoin(cm, joined, pred)
	}
	switch {
	case page != nil:
		return sql.BuildPage(cm, pred, page)
	case pred != nil:
		return sql.BuildWhere(cm, pred)
	default:
		return sql.BuildSelect(cm)
	}
}

func (f *statementFlags) buildWrite(cm *schema.ClassMap) (*sql.Command, error) {
	entity := cm.New()
	if err := schema.Assign(cm, entity, f.values()); err != nil {
		return nil, err
	}
	switch f.op {
	case opInsert:
		return sql.BuildInsert(cm, entity)
	case opUpdate:
		return sql.BuildUpdate(cm, entity)
	default:
		return sql.BuildDelete(cm, entity)
	}
}
