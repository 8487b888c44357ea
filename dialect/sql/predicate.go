package sql

import (
	"fmt"
	"reflect"
	"time"
)

// Expr is a node of a predicate expression tree.
type Expr interface {
	fmt.Stringer
	expr()
}

// Op is a binary operator.
type Op uint8

// Operators understood by the compiler.
const (
	OpEQ Op = iota + 1
	OpNEQ
	OpGT
	OpGTE
	OpLT
	OpLTE
	OpAnd
	OpOr
)

var opText = [...]string{
	OpEQ:  "==",
	OpNEQ: "!=",
	OpGT:  ">",
	OpGTE: ">=",
	OpLT:  "<",
	OpLTE: "<=",
	OpAnd: "&&",
	OpOr:  "||",
}

// String returns the operator token as written in predicate text.
func (o Op) String() string {
	if int(o) < len(opText) && opText[o] != "" {
		return opText[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// Logical reports whether o combines two predicates.
func (o Op) Logical() bool { return o == OpAnd || o == OpOr }

type (
	// Member references a property of the mapped type Type.
	Member struct {
		Type reflect.Type
		Name string
	}

	// Literal is a constant operand. It is always bound as a parameter.
	Literal struct {
		Value any
	}

	// Capture is an operand evaluated when the predicate is compiled, such
	// as a variable read at query time.
	Capture struct {
		Eval func() any
	}

	// Binary applies Op to two operands.
	Binary struct {
		Op          Op
		Left, Right Expr
	}
)

func (Member) expr() {}
func (Literal) expr() {}
func (Capture) expr() {}
func (*Binary) expr() {}

func (m Member) String() string {
	if m.Type == nil {
		return m.Name
	}
	return m.Type.Name() + "." + m.Name
}

func (l Literal) String() string {
	if s, ok := l.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	if l.Value == nil {
		return "nil"
	}
	return fmt.Sprint(l.Value)
}

func (Capture) String() string { return "<capture>" }

func (b *Binary) String() string {
	return fmt.Sprintf("(%v %s %v)", b.Left, b.Op, b.Right)
}

// F references the property name of T.
//
//	sql.F[User]("Age").GT(30).And(sql.F[User]("Name").EQ("Bob"))
func F[T any](name string) Member {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return Member{Type: t, Name: name}
}

// Value wraps v as a literal operand.
func Value(v any) Literal { return Literal{Value: v} }

// Eval wraps fn as an operand evaluated at compile time.
func Eval(fn func() any) Capture { return Capture{Eval: fn} }

// And returns the conjunction of l and r.
func And(l, r Expr) *Binary { return &Binary{Op: OpAnd, Left: l, Right: r} }

// Or returns the disjunction of l and r.
func Or(l, r Expr) *Binary { return &Binary{Op: OpOr, Left: l, Right: r} }

// And returns the conjunction of b and r.
func (b *Binary) And(r Expr) *Binary { return And(b, r) }

// Or returns the disjunction of b and r.
func (b *Binary) Or(r Expr) *Binary { return Or(b, r) }

// operand turns a non-Expr value into a Literal.
func operand(v any) Expr {
	if e, ok := v.(Expr); ok {
		return e
	}
	return Literal{Value: v}
}

func compare(l Expr, op Op, v any) *Binary {
	return &Binary{Op: op, Left: l, Right: operand(v)}
}

// EQ compares the member with v, which may be a value or another Expr.
func (m Member) EQ(v any) *Binary { return compare(m, OpEQ, v) }

// NEQ compares the member with v for inequality.
func (m Member) NEQ(v any) *Binary { return compare(m, OpNEQ, v) }

// GT checks that the member is greater than v.
func (m Member) GT(v any) *Binary { return compare(m, OpGT, v) }

// GTE checks that the member is greater than or equal to v.
func (m Member) GTE(v any) *Binary { return compare(m, OpGTE, v) }

// LT checks that the member is less than v.
func (m Member) LT(v any) *Binary { return compare(m, OpLT, v) }

// LTE checks that the member is less than or equal to v.
func (m Member) LTE(v any) *Binary { return compare(m, OpLTE, v) }

// StringField is a string property of T with typed comparisons.
//
//	var UserName = sql.StringField[User]("Name")
//	pred := UserName.EQ("Bob")
type StringField[T any] string

// Member returns the untyped member reference.
func (f StringField[T]) Member() Member { return F[T](string(f)) }

// EQ returns a predicate that checks if the field equals the given value.
func (f StringField[T]) EQ(v string) *Binary { return f.Member().EQ(v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f StringField[T]) NEQ(v string) *Binary { return f.Member().NEQ(v) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f StringField[T]) GT(v string) *Binary { return f.Member().GT(v) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f StringField[T]) GTE(v string) *Binary { return f.Member().GTE(v) }

// LT returns a predicate that checks if the field is less than the given value.
func (f StringField[T]) LT(v string) *Binary { return f.Member().LT(v) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f StringField[T]) LTE(v string) *Binary { return f.Member().LTE(v) }

// IntField is an int property of T with typed comparisons.
type IntField[T any] string

// Member returns the untyped member reference.
func (f IntField[T]) Member() Member { return F[T](string(f)) }

// EQ returns a predicate that checks if the field equals the given value.
func (f IntField[T]) EQ(v int) *Binary { return f.Member().EQ(v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f IntField[T]) NEQ(v int) *Binary { return f.Member().NEQ(v) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f IntField[T]) GT(v int) *Binary { return f.Member().GT(v) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f IntField[T]) GTE(v int) *Binary { return f.Member().GTE(v) }

// LT returns a predicate that checks if the field is less than the given value.
func (f IntField[T]) LT(v int) *Binary { return f.Member().LT(v) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f IntField[T]) LTE(v int) *Binary { return f.Member().LTE(v) }

// Int64Field is an int64 property of T with typed comparisons.
type Int64Field[T any] string

// Member returns the untyped member reference.
func (f Int64Field[T]) Member() Member { return F[T](string(f)) }

// EQ returns a predicate that checks if the field equals the given value.
func (f Int64Field[T]) EQ(v int64) *Binary { return f.Member().EQ(v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f Int64Field[T]) NEQ(v int64) *Binary { return f.Member().NEQ(v) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f Int64Field[T]) GT(v int64) *Binary { return f.Member().GT(v) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f Int64Field[T]) GTE(v int64) *Binary { return f.Member().GTE(v) }

// LT returns a predicate that checks if the field is less than the given value.
func (f Int64Field[T]) LT(v int64) *Binary { return f.Member().LT(v) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f Int64Field[T]) LTE(v int64) *Binary { return f.Member().LTE(v) }

// Float64Field is a float64 property of T with typed comparisons.
type Float64Field[T any] string

// Member returns the untyped member reference.
func (f Float64Field[T]) Member() Member { return F[T](string(f)) }

// EQ returns a predicate that checks if the field equals the given value.
func (f Float64Field[T]) EQ(v float64) *Binary { return f.Member().EQ(v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f Float64Field[T]) NEQ(v float64) *Binary { return f.Member().NEQ(v) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f Float64Field[T]) GT(v float64) *Binary { return f.Member().GT(v) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f Float64Field[T]) GTE(v float64) *Binary { return f.Member().GTE(v) }

// LT returns a predicate that checks if the field is less than the given value.
func (f Float64Field[T]) LT(v float64) *Binary { return f.Member().LT(v) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f Float64Field[T]) LTE(v float64) *Binary { return f.Member().LTE(v) }

// BoolField is a bool property of T.
type BoolField[T any] string

// Member returns the untyped member reference.
func (f BoolField[T]) Member() Member { return F[T](string(f)) }

// EQ returns a predicate that checks if the field equals the given value.
func (f BoolField[T]) EQ(v bool) *Binary { return f.Member().EQ(v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f BoolField[T]) NEQ(v bool) *Binary { return f.Member().NEQ(v) }

// TimeField is a time.Time property of T with typed comparisons.
type TimeField[T any] string

// Member returns the untyped member reference.
func (f TimeField[T]) Member() Member { return F[T](string(f)) }

// EQ returns a predicate that checks if the field equals the given value.
func (f TimeField[T]) EQ(v time.Time) *Binary { return f.Member().EQ(v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f TimeField[T]) NEQ(v time.Time) *Binary { return f.Member().NEQ(v) }

// GT returns a predicate that checks if the field is after the given value.
func (f TimeField[T]) GT(v time.Time) *Binary { return f.Member().GT(v) }

// GTE returns a predicate that checks if the field is not before the given value.
func (f TimeField[T]) GTE(v time.Time) *Binary { return f.Member().GTE(v) }

// LT returns a predicate that checks if the field is before the given value.
func (f TimeField[T]) LT(v time.Time) *Binary { return f.Member().LT(v) }

// LTE returns a predicate that checks if the field is not after the given value.
func (f TimeField[T]) LTE(v time.Time) *Binary { return f.Member().LTE(v) }

// OtherField is a property of T holding values of type V, such as a
// uuid.UUID key.
type OtherField[T, V any] string

// Member returns the untyped member reference.
func (f OtherField[T, V]) Member() Member { return F[T](string(f)) }

// EQ returns a predicate that checks if the field equals the given value.
func (f OtherField[T, V]) EQ(v V) *Binary { return compare(f.Member(), OpEQ, Literal{Value: v}) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f OtherField[T, V]) NEQ(v V) *Binary { return compare(f.Member(), OpNEQ, Literal{Value: v}) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f OtherField[T, V]) GT(v V) *Binary { return compare(f.Member(), OpGT, Literal{Value: v}) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f OtherField[T, V]) GTE(v V) *Binary { return compare(f.Member(), OpGTE, Literal{Value: v}) }

// LT returns a predicate that checks if the field is less than the given value.
func (f OtherField[T, V]) LT(v V) *Binary { return compare(f.Member(), OpLT, Literal{Value: v}) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f OtherField[T, V]) LTE(v V) *Binary { return compare(f.Member(), OpLTE, Literal{Value: v}) }
