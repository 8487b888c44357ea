package sql

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/syssam/sqlmap"
	"github.com/syssam/sqlmap/schema"
)

const (
	selectAll  = "select %s from [%s] %s"
	selectF    = "select %s from [%s] %s where %s"
	selectJoin = "select %s from [%s] %s inner join [%s] %s on %s"
	insertF    = "insert into [%s](%s) values(%s)"
	updateF    = "update [%s] set %s where %s"
	deleteF    = "delete from [%s] where %s"
	pageF      = "select %s from (%s) d where d.[%s] between %s and %s order by d.[%s] asc"
	rowNumberF = "row_number() over (order by [%s] %s) %s, %s"
)

// Page selects the window [From, To] of row numbers ordered by the
// OrderBy property.
type Page struct {
	OrderBy  string
	From, To int
	Desc     bool
}

func (p *Page) direction() string {
	if p.Desc {
		return "desc"
	}
	return "asc"
}

// ColumnList renders the select list of cm under alias: direct columns as
// alias.[Column], formulas as "formula as Alias".
func ColumnList(cm *schema.ClassMap, alias string) string {
	cols := make([]string, 0, len(cm.Properties()))
	for _, p := range cm.Properties() {
		if p.IsFormula() {
			cols = append(cols, p.Column()+" as "+p.Alias())
		} else {
			cols = append(cols, alias+".["+p.Column()+"]")
		}
	}
	return strings.Join(cols, ", ")
}

// propList renders the property aliases of cm qualified by alias.
func propList(cm *schema.ClassMap, alias string) string {
	cols := make([]string, 0, len(cm.Properties()))
	for _, p := range cm.Properties() {
		cols = append(cols, alias+".["+p.Alias()+"]")
	}
	return strings.Join(cols, ", ")
}

// BuildSelect builds a select of all mapped columns of cm.
func BuildSelect(cm *schema.ClassMap) (*Command, error) {
	if cm == nil {
		return nil, sqlmap.NewArgumentError("cm")
	}
	ctx, err := NewQueryContext(cm)
	if err != nil {
		return nil, err
	}
	alias := ctx.AliasForTable(cm)
	return &Command{Text: fmt.Sprintf(selectAll, ColumnList(cm, alias), cm.Table(), alias)}, nil
}

// BuildWhere builds a select of cm filtered by pred.
func BuildWhere(cm *schema.ClassMap, pred Expr) (*Command, error) {
	switch {
	case cm == nil:
		return nil, sqlmap.NewArgumentError("cm")
	case pred == nil:
		return nil, sqlmap.NewArgumentError("pred")
	}
	return buildFiltered(cm, func(ctx *QueryContext) string {
		return ColumnList(cm, ctx.AliasForTable(cm))
	}, pred)
}

// BuildPage builds a paged select of cm. pred may be nil.
//
//	select d.[ID], d.[Name] from (select row_number() over (order by [CreatedAt] desc) c_0,
//	  t_0.[ID], t_0.[Name] from [Users] t_0 where ...) d
//	  where d.[c_0] between @param0 and @param1 order by d.[c_0] asc
func BuildPage(cm *schema.ClassMap, pred Expr, page *Page) (*Command, error) {
	if err := checkPage(cm, page); err != nil {
		return nil, err
	}
	ctx, err := NewQueryContext(cm)
	if err != nil {
		return nil, err
	}
	column := ctx.AliasForColumn()
	alias := ctx.AliasForTable(cm)
	cols := fmt.Sprintf(rowNumberF, page.OrderBy, page.direction(), column, ColumnList(cm, alias))
	cmd := &Command{}
	if pred == nil {
		cmd.Text = fmt.Sprintf(selectAll, cols, cm.Table(), alias)
	} else {
		f, err := NewCompiler(ctx).Compile(pred)
		if err != nil {
			return nil, err
		}
		cmd.Params = append(cmd.Params, f.Params...)
		cmd.Text = fmt.Sprintf(selectF, cols, cm.Table(), alias, f.Text)
	}
	wrapPage(cmd, cm, column, page)
	return cmd, nil
}

// BuildJoin builds a select of the columns of cm inner joined with joined
// on pred. pred references both mapped types.
func BuildJoin(cm, joined *schema.ClassMap, pred Expr) (*Command, error) {
	if err := checkJoin(cm, joined, pred); err != nil {
		return nil, err
	}
	ctx, err := NewQueryContext(cm, joined)
	if err != nil {
		return nil, err
	}
	f, err := NewCompiler(ctx).Compile(pred)
	if err != nil {
		return nil, err
	}
	alias := ctx.AliasForTable(cm)
	return &Command{
		Text:   fmt.Sprintf(selectJoin, ColumnList(cm, alias), cm.Table(), alias, joined.Table(), ctx.AliasForTable(joined), f.Text),
		Params: f.Params,
	}, nil
}

// BuildJoinPage builds a paged BuildJoin.
func BuildJoinPage(cm, joined *schema.ClassMap, pred Expr, page *Page) (*Command, error) {
	if err := checkJoin(cm, joined, pred); err != nil {
		return nil, err
	}
	if err := checkPage(cm, page); err != nil {
		return nil, err
	}
	ctx, err := NewQueryContext(cm, joined)
	if err != nil {
		return nil, err
	}
	column := ctx.AliasForColumn()
	alias := ctx.AliasForTable(cm)
	cols := fmt.Sprintf(rowNumberF, page.OrderBy, page.direction(), column, ColumnList(cm, alias))
	f, err := NewCompiler(ctx).Compile(pred)
	if err != nil {
		return nil, err
	}
	cmd := &Command{
		Text:   fmt.Sprintf(selectJoin, cols, cm.Table(), alias, joined.Table(), ctx.AliasForTable(joined), f.Text),
		Params: f.Params,
	}
	wrapPage(cmd, cm, column, page)
	return cmd, nil
}

// BuildProc builds a stored procedure call. Every exported field of args
// (a struct or pointer to struct) is bound as "@<Field>". A map[string]any
// binds its keys in sorted order. args may be nil.
func BuildProc(cm *schema.ClassMap, name string, args any) (*Command, error) {
	switch {
	case cm == nil:
		return nil, sqlmap.NewArgumentError("cm")
	case strings.TrimSpace(name) == "":
		return nil, sqlmap.NewArgumentError("name")
	}
	cmd := &Command{Text: name, Type: StoredProcedure}
	if m, ok := args.(map[string]any); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			cmd.AddParam("@"+k, m[k])
		}
		return cmd, nil
	}
	rv := reflect.ValueOf(args)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return cmd, nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Invalid:
		return cmd, nil
	case reflect.Struct:
	default:
		return nil, sqlmap.NewArgumentErrorf("args", "expect struct or map[string]any, got %T", args)
	}
	for _, f := range reflect.VisibleFields(rv.Type()) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		cmd.AddParam("@"+f.Name, rv.FieldByIndex(f.Index).Interface())
	}
	return cmd, nil
}

// BuildCount builds a count(1) over cm. pred may be nil.
func BuildCount(cm *schema.ClassMap, pred Expr) (*Command, error) {
	if cm == nil {
		return nil, sqlmap.NewArgumentError("cm")
	}
	return buildAggregate(cm, pred, func(*QueryContext) (string, error) {
		return "count(1)", nil
	})
}

// BuildSum builds a sum over the property of cm. pred may be nil.
func BuildSum(cm *schema.ClassMap, property string, pred Expr) (*Command, error) {
	switch {
	case cm == nil:
		return nil, sqlmap.NewArgumentError("cm")
	case property == "":
		return nil, sqlmap.NewArgumentError("property")
	}
	return buildAggregate(cm, pred, func(ctx *QueryContext) (string, error) {
		p, ok := cm.Property(property)
		if !ok {
			return "", sqlmap.NewConfigError(cm.Table(), property, "no such property")
		}
		if p.IsFormula() {
			return "sum(" + p.Column() + ")", nil
		}
		return "sum(" + ctx.AliasForTable(cm) + ".[" + p.Column() + "])", nil
	})
}

// BuildInsert builds an insert of entity. Identity and read-only properties
// are excluded.
func BuildInsert(cm *schema.ClassMap, entity any) (*Command, error) {
	if err := checkEntity(cm, entity); err != nil {
		return nil, err
	}
	cmd := &Command{}
	var cols, params []string
	for _, p := range cm.Writable() {
		cols = append(cols, "["+p.Column()+"]")
		params = append(params, cmd.AddParam("", value(p, entity)))
	}
	if len(cols) == 0 {
		return nil, sqlmap.NewConfigError(cm.Table(), "", "no writable properties to insert")
	}
	cmd.Text = fmt.Sprintf(insertF, cm.Table(), strings.Join(cols, ", "), strings.Join(params, ", "))
	return cmd, nil
}

// BuildUpdate builds an update of entity matched by its primary key.
// Key parameters are bound first.
func BuildUpdate(cm *schema.ClassMap, entity any) (*Command, error) {
	if err := checkEntity(cm, entity); err != nil {
		return nil, err
	}
	cmd := &Command{}
	where, err := keyFilter(cm, entity, cmd)
	if err != nil {
		return nil, err
	}
	var set []string
	for _, p := range cm.Writable() {
		set = append(set, "["+p.Column()+"] = "+cmd.AddParam("", value(p, entity)))
	}
	if len(set) == 0 {
		return nil, sqlmap.NewConfigError(cm.Table(), "", "no writable properties to update")
	}
	cmd.Text = fmt.Sprintf(updateF, cm.Table(), strings.Join(set, ", "), where)
	return cmd, nil
}

// BuildDelete builds a delete of entity matched by its primary key.
func BuildDelete(cm *schema.ClassMap, entity any) (*Command, error) {
	if err := checkEntity(cm, entity); err != nil {
		return nil, err
	}
	cmd := &Command{}
	where, err := keyFilter(cm, entity, cmd)
	if err != nil {
		return nil, err
	}
	cmd.Text = fmt.Sprintf(deleteF, cm.Table(), where)
	return cmd, nil
}

func buildFiltered(cm *schema.ClassMap, cols func(*QueryContext) string, pred Expr) (*Command, error) {
	ctx, err := NewQueryContext(cm)
	if err != nil {
		return nil, err
	}
	list := cols(ctx)
	f, err := NewCompiler(ctx).Compile(pred)
	if err != nil {
		return nil, err
	}
	return &Command{
		Text:   fmt.Sprintf(selectF, list, cm.Table(), ctx.AliasForTable(cm), f.Text),
		Params: f.Params,
	}, nil
}

func buildAggregate(cm *schema.ClassMap, pred Expr, agg func(*QueryContext) (string, error)) (*Command, error) {
	ctx, err := NewQueryContext(cm)
	if err != nil {
		return nil, err
	}
	expr, err := agg(ctx)
	if err != nil {
		return nil, err
	}
	alias := ctx.AliasForTable(cm)
	if pred == nil {
		return &Command{Text: fmt.Sprintf(selectAll, expr, cm.Table(), alias)}, nil
	}
	f, err := NewCompiler(ctx).Compile(pred)
	if err != nil {
		return nil, err
	}
	return &Command{
		Text:   fmt.Sprintf(selectF, expr, cm.Table(), alias, f.Text),
		Params: f.Params,
	}, nil
}

// wrapPage nests cmd as the derived table d and binds the page bounds.
func wrapPage(cmd *Command, cm *schema.ClassMap, column string, page *Page) {
	from := cmd.AddParam("", page.From)
	to := cmd.AddParam("", page.To)
	cmd.Text = fmt.Sprintf(pageF, propList(cm, "d"), cmd.Text, column, from, to, column)
}

func keyFilter(cm *schema.ClassMap, entity any, cmd *Command) (string, error) {
	keys := cm.PrimaryKeys()
	if len(keys) == 0 {
		return "", sqlmap.NewConfigError(cm.Table(), "", "primary key is not configured")
	}
	where := make([]string, 0, len(keys))
	for _, p := range keys {
		where = append(where, "["+p.Column()+"] = "+cmd.AddParam("", value(p, entity)))
	}
	return strings.Join(where, " AND "), nil
}

// value reads p from entity. A missing getter binds NULL.
func value(p *schema.PropertyMap, entity any) any {
	if !p.HasGetter() {
		return nil
	}
	return p.Get(entity)
}

func checkPage(cm *schema.ClassMap, page *Page) error {
	switch {
	case cm == nil:
		return sqlmap.NewArgumentError("cm")
	case page == nil:
		return sqlmap.NewArgumentError("page")
	case page.OrderBy == "":
		return sqlmap.NewArgumentError("page.OrderBy")
	}
	return nil
}

func checkJoin(cm, joined *schema.ClassMap, pred Expr) error {
	switch {
	case cm == nil:
		return sqlmap.NewArgumentError("cm")
	case joined == nil:
		return sqlmap.NewArgumentError("joined")
	case pred == nil:
		return sqlmap.NewArgumentError("pred")
	}
	return nil
}

func checkEntity(cm *schema.ClassMap, entity any) error {
	switch {
	case cm == nil:
		return sqlmap.NewArgumentError("cm")
	case entity == nil:
		return sqlmap.NewArgumentError("entity")
	case !cm.Accepts(entity):
		if rv := reflect.ValueOf(entity); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return sqlmap.NewArgumentError("entity")
		}
		return sqlmap.NewArgumentErrorf("entity", "expect *%s, got %T", cm.Type(), entity)
	}
	return nil
}
