package querylanguage

import (
	"reflect"
	"testing"
	"time"

	"github.com/alecthomas/participle/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlmap"
	"github.com/syssam/sqlmap/dialect/sql"
	"github.com/syssam/sqlmap/schema"
)

type User struct {
	ID   int `sqlmap:"pk,identity"`
	Name string
	Age  int
}

type Order struct {
	ID     int `sqlmap:"pk,identity"`
	UserID int
	Total  float64
}

var (
	userType  = reflect.TypeFor[User]()
	orderType = reflect.TypeFor[Order]()
	users     = schema.Map[User]("Users").MustBuild()
	orders    = schema.Map[Order]("Orders").MustBuild()
)

func TestParse(t *testing.T) {
	bindings := map[string]reflect.Type{"": userType, "u": userType, "o": reflect.PointerTo(orderType)}
	tests := []struct {
		src  string
		want sql.Expr
	}{
		{
			src:  `Age > 30`,
			want: sql.F[User]("Age").GT(30),
		},
		{
			src:  `Name == "Bob" && Age <= 40`,
			want: sql.F[User]("Name").EQ("Bob").And(sql.F[User]("Age").LTE(40)),
		},
		{
			src:  `Age < 18 || Age >= 65 && Name != nil`,
			want: sql.Or(sql.F[User]("Age").LT(18), sql.F[User]("Age").GTE(65).And(sql.F[User]("Name").NEQ(nil))),
		},
		{
			src:  `(Age < 18 || Age >= 65) && Name != "root"`,
			want: sql.F[User]("Age").LT(18).Or(sql.F[User]("Age").GTE(65)).And(sql.F[User]("Name").NEQ("root")),
		},
		{
			src:  `u.ID == o.UserID && o.Total > 99.5`,
			want: sql.F[User]("ID").EQ(sql.F[Order]("UserID")).And(sql.F[Order]("Total").GT(99.5)),
		},
		{
			src:  `Name == "say \"hi\"" && Age == -1`,
			want: sql.F[User]("Name").EQ(`say "hi"`).And(sql.F[User]("Age").EQ(-1)),
		},
		{
			src:  `((Age == 1))`,
			want: sql.F[User]("Age").EQ(1),
		},
		{
			src:  `trueAge == true`,
			want: sql.F[User]("trueAge").EQ(true),
		},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := Parse(tt.src, bindings)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	bindings := map[string]reflect.Type{"u": userType}
	tests := []struct {
		name  string
		src   string
		check func(error) bool
	}{
		{"empty", "  ", sqlmap.IsArgumentError},
		{"syntax", "Age >", func(err error) bool {
			var perr participle.Error
			return assert.ErrorAs(t, err, &perr)
		}},
		{"trailing", "u.Age > 1 u.Name", func(err error) bool { return err != nil }},
		{"no_default", "Age > 1", sqlmap.IsCompileError},
		{"unknown_binding", "x.Age > 1", sqlmap.IsCompileError},
		{"bare_term", "u.Age && u.Name == 1", sqlmap.IsCompileError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src, bindings)
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
		})
	}
}

func TestString(t *testing.T) {
	created := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	limit := 10
	tests := []struct {
		expr sql.Expr
		want string
	}{
		{sql.F[User]("Age").GT(30), `User.Age > 30`},
		{sql.F[User]("Name").EQ("Bob").And(sql.F[User]("Age").LTE(40)), `User.Name == "Bob" && User.Age <= 40`},
		{sql.Or(sql.F[User]("Age").LT(18), sql.F[User]("Age").GTE(65).And(sql.F[User]("Name").NEQ(nil))), `User.Age < 18 || User.Age >= 65 && User.Name != nil`},
		{sql.F[User]("Age").LT(18).Or(sql.F[User]("Age").GTE(65)).And(sql.F[User]("ID").EQ(1)), `(User.Age < 18 || User.Age >= 65) && User.ID == 1`},
		{sql.And(sql.F[User]("ID").EQ(1), sql.F[User]("ID").EQ(2).And(sql.F[User]("ID").EQ(3))), `User.ID == 1 && (User.ID == 2 && User.ID == 3)`},
		{sql.F[Order]("Total").GTE(100.0), `Order.Total >= 100.0`},
		{sql.F[User]("Age").LT(sql.Eval(func() any { return limit })), `User.Age < 10`},
		{sql.F[User]("Name").EQ(created), `User.Name == "2024-01-02 00:00:00 +0000 UTC"`},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, String(tt.expr))
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	bindings := map[string]reflect.Type{"User": userType, "Order": orderType}
	exprs := []sql.Expr{
		sql.F[User]("Age").GT(30).And(sql.F[User]("Name").NEQ("x")),
		sql.Or(sql.F[User]("Age").LT(18), sql.F[User]("Age").GTE(65).And(sql.F[User]("Name").NEQ(nil))),
		sql.F[User]("Age").LT(18).Or(sql.F[User]("Age").GTE(65)).And(sql.F[User]("ID").EQ(1)),
		sql.F[User]("ID").EQ(sql.F[Order]("UserID")).And(sql.F[Order]("Total").GT(2.5)),
		sql.And(sql.F[User]("ID").EQ(1), sql.F[User]("ID").EQ(2).And(sql.F[User]("ID").EQ(3))),
	}
	for _, e := range exprs {
		t.Run(String(e), func(t *testing.T) {
			got, err := Parse(String(e), bindings)
			require.NoError(t, err)
			assert.Equal(t, e, got)
		})
	}
}

func TestParsedPredicateCompiles(t *testing.T) {
	bindings := map[string]reflect.Type{"u": userType, "o": orderType}
	parsed, err := Parse(`u.ID == o.UserID && o.Total > 100`, bindings)
	require.NoError(t, err)

	want, err := sql.BuildJoin(users, orders, sql.F[User]("ID").EQ(sql.F[Order]("UserID")).And(sql.F[Order]("Total").GT(100)))
	require.NoError(t, err)
	got, err := sql.BuildJoin(users, orders, parsed)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
