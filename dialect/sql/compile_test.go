package sql

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlmap"
	"github.com/syssam/sqlmap/schema"
)

func TestQueryContext(t *testing.T) {
	t.Run("generated_aliases", func(t *testing.T) {
		ctx, err := NewQueryContext(users, tags, orders)
		require.NoError(t, err)
		assert.Equal(t, "t_0", ctx.AliasForTable(users))
		assert.Equal(t, "t_0", ctx.AliasForTable(users), "same map, same alias")
		assert.Equal(t, "tg", ctx.AliasForTable(tags))
		assert.Equal(t, "t_1", ctx.AliasForTable(orders))
		assert.Equal(t, []*schema.ClassMap{users, tags, orders}, ctx.ClassMaps())
	})

	t.Run("unregistered_map_gets_fresh_alias", func(t *testing.T) {
		ctx, err := NewQueryContext(users)
		require.NoError(t, err)
		assert.Equal(t, "t_1", ctx.AliasForTable(orders))
		assert.Equal(t, "t_2", ctx.AliasForTable(orders), "fallback aliases are not remembered")
		assert.Equal(t, "t_3", ctx.AliasForTable(nil))
		assert.Len(t, ctx.ClassMaps(), 1)
	})

	t.Run("column_aliases", func(t *testing.T) {
		ctx, err := NewQueryContext(users)
		require.NoError(t, err)
		assert.Equal(t, "c_0", ctx.AliasForColumn())
		assert.Equal(t, "c_1", ctx.AliasForColumn())
		assert.Equal(t, "t_0", ctx.AliasForTable(users), "counters are independent")
	})

	t.Run("errors", func(t *testing.T) {
		_, err := NewQueryContext()
		assert.True(t, sqlmap.IsArgumentError(err))
		_, err = NewQueryContext(users, nil)
		assert.True(t, sqlmap.IsArgumentError(err))
		_, err = NewQueryContext(tags, tags)
		assert.True(t, sqlmap.IsConfigError(err))
	})
}

func TestCompile(t *testing.T) {
	minAge := 18
	tests := []struct {
		name   string
		maps   []*schema.ClassMap
		expr   Expr
		text   string
		params []Param
	}{
		{
			name: "and",
			maps: []*schema.ClassMap{users},
			expr: F[User]("Age").GT(30).And(F[User]("Name").EQ("Bob")),
			text: "((t_0.[Age] > @whereParam0) AND (t_0.[Name] = @whereParam1))",
			params: []Param{
				{Name: "@whereParam0", Value: 30},
				{Name: "@whereParam1", Value: "Bob"},
			},
		},
		{
			name: "operators",
			maps: []*schema.ClassMap{users},
			expr: Or(
				And(F[User]("Age").GTE(1), F[User]("Age").LTE(2)),
				And(F[User]("Age").LT(3), F[User]("Name").NEQ("x")),
			),
			text: "(((t_0.[Age] >= @whereParam0) AND (t_0.[Age] <= @whereParam1)) OR ((t_0.[Age] < @whereParam2) AND (t_0.[Name] != @whereParam3)))",
			params: []Param{
				{Name: "@whereParam0", Value: 1},
				{Name: "@whereParam1", Value: 2},
				{Name: "@whereParam2", Value: 3},
				{Name: "@whereParam3", Value: "x"},
			},
		},
		{
			name:   "formula_is_not_qualified",
			maps:   []*schema.ClassMap{users},
			expr:   F[User]("Orders").GT(0),
			text:   "(" + ordersFormula + " > @whereParam0)",
			params: []Param{{Name: "@whereParam0", Value: 0}},
		},
		{
			name:   "captured_value",
			maps:   []*schema.ClassMap{users},
			expr:   F[User]("Age").GTE(Eval(func() any { return minAge })),
			text:   "(t_0.[Age] >= @whereParam0)",
			params: []Param{{Name: "@whereParam0", Value: 18}},
		},
		{
			name:   "literal_on_the_left",
			maps:   []*schema.ClassMap{users},
			expr:   &Binary{Op: OpLT, Left: Value(10), Right: F[User]("Age")},
			text:   "(@whereParam0 < t_0.[Age])",
			params: []Param{{Name: "@whereParam0", Value: 10}},
		},
		{
			name: "two_tables",
			maps: []*schema.ClassMap{users, orders},
			expr: F[User]("ID").EQ(F[Order]("UserID")).And(F[Order]("Total").GT(9.5)),
			text: "((t_0.[ID] = t_1.[UserID]) AND (t_1.[Total] > @whereParam0))",
			params: []Param{
				{Name: "@whereParam0", Value: 9.5},
			},
		},
		{
			name:   "explicit_alias",
			maps:   []*schema.ClassMap{tags},
			expr:   F[Tag]("Label").EQ(nil),
			text:   "(tg.[Label] = @whereParam0)",
			params: []Param{{Name: "@whereParam0", Value: nil}},
		},
		{
			name:   "pointer_type_argument",
			maps:   []*schema.ClassMap{users},
			expr:   F[*User]("Name").EQ("a"),
			text:   "(t_0.[Name] = @whereParam0)",
			params: []Param{{Name: "@whereParam0", Value: "a"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, err := NewQueryContext(tt.maps...)
			require.NoError(t, err)
			f, err := NewCompiler(ctx).Compile(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.text, f.Text)
			assert.Equal(t, tt.params, f.Params)
		})
	}
}

func TestCompileTypedFields(t *testing.T) {
	var (
		name    = StringField[User]("Name")
		age     = IntField[User]("Age")
		created = TimeField[User]("CreatedAt")
		key     = OtherField[Tag, uuid.UUID]("Key")
	)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	ctx, err := NewQueryContext(users, tags)
	require.NoError(t, err)
	c := NewCompiler(ctx)

	f, err := c.Compile(name.EQ("Bob").And(age.GT(30)).Or(created.LT(now)))
	require.NoError(t, err)
	assert.Equal(t, "(((t_0.[Name] = @whereParam0) AND (t_0.[Age] > @whereParam1)) OR (t_0.[CreatedAt] < @whereParam2))", f.Text)
	assert.Equal(t, []any{"Bob", 30, now}, paramValues(f.Params))

	f, err = c.Compile(key.EQ(id))
	require.NoError(t, err)
	assert.Equal(t, "(tg.[Key] = @whereParam3)", f.Text, "parameter numbering continues across compilations")
	assert.Equal(t, []Param{{Name: "@whereParam3", Value: id}}, f.Params)
}

func TestCompileErrors(t *testing.T) {
	type Unmapped struct{ A int }
	tests := []struct {
		name  string
		maps  []*schema.ClassMap
		expr  Expr
		check func(error) bool
	}{
		{"unmapped_type", []*schema.ClassMap{users}, F[Unmapped]("A").EQ(1), sqlmap.IsConfigError},
		{"unmapped_property", []*schema.ClassMap{users}, F[User]("Missing").EQ(1), sqlmap.IsConfigError},
		{"ambiguous_type", []*schema.ClassMap{users, schema.Map[User]("Admins").As("a").MustBuild()}, F[User]("ID").EQ(1), sqlmap.IsCompileError},
		{"unsupported_operator", []*schema.ClassMap{users}, &Binary{Op: Op(42), Left: F[User]("ID"), Right: Value(1)}, sqlmap.IsCompileError},
		{"zero_operator", []*schema.ClassMap{users}, &Binary{Left: F[User]("ID"), Right: Value(1)}, sqlmap.IsCompileError},
		{"nil_expression", []*schema.ClassMap{users}, nil, sqlmap.IsCompileError},
		{"missing_operand", []*schema.ClassMap{users}, And(F[User]("Age").GT(1), nil), sqlmap.IsCompileError},
		{"nil_capture", []*schema.ClassMap{users}, F[User]("Age").GT(Capture{}), sqlmap.IsCompileError},
		{"untyped_member", []*schema.ClassMap{users}, Member{Name: "Age"}, sqlmap.IsCompileError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, err := NewQueryContext(tt.maps...)
			require.NoError(t, err)
			f, err := NewCompiler(ctx).Compile(tt.expr)
			require.Error(t, err)
			assert.Nil(t, f, "no fragment on error")
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestExprString(t *testing.T) {
	e := F[User]("Age").GT(30).And(F[User]("Name").EQ("Bob")).Or(F[User]("Name").EQ(nil))
	assert.Equal(t, `(((User.Age > 30) && (User.Name == "Bob")) || (User.Name == nil))`, e.String())
	assert.Equal(t, "Op(42)", Op(42).String())
	assert.True(t, OpOr.Logical())
	assert.False(t, OpEQ.Logical())
	assert.Equal(t, reflect.TypeFor[User](), F[*User]("ID").Type)
}

func paramValues(ps []Param) []any {
	out := make([]any, len(ps))
	for i, p := range ps {
		out[i] = p.Value
	}
	return out
}
