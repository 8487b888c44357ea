package schema

import (
	"fmt"
	"reflect"

	"github.com/syssam/sqlmap"
)

// Builder configures the mapping of T to a table. Every exported field of T
// is mapped on construction; methods adjust the mapping and may be chained.
// The first configuration error is retained and returned by Build.
//
//	users, err := schema.Map[User]("Users").
//	    PrimaryKey("ID").
//	    Identity("ID").
//	    Column("Total", "(select sum(o.Amount) from [Orders] o where o.UserID = t_0.ID)").
//	    ReadOnly("Total").
//	    Build()
type Builder[T any] struct {
	b *builder
}

// Map starts the mapping of T to table. T must be a struct type.
func Map[T any](table string) *Builder[T] {
	return &Builder[T]{b: newBuilder(reflect.TypeFor[T](), table)}
}

// As sets an explicit table alias used instead of a generated t_<n>.
func (m *Builder[T]) As(alias string) *Builder[T] {
	m.b.cm.alias = alias
	return m
}

// New sets the constructor used by the materializer.
func (m *Builder[T]) New(ctor func() *T) *Builder[T] {
	if ctor == nil {
		m.b.fail(sqlmap.NewArgumentError("ctor"))
		return m
	}
	m.b.cm.ctor = func() any { return ctor() }
	return m
}

// Column overrides the column name or SQL formula of a property.
func (m *Builder[T]) Column(name, columnOrFormula string) *Builder[T] {
	m.b.column(name, columnOrFormula)
	return m
}

// ColumnWithSetter overrides the column name or formula of a property and
// replaces its setter. It is typically used with formulas whose result type
// differs from the field type.
func (m *Builder[T]) ColumnWithSetter(name, columnOrFormula string, setter func(*T, any) error) *Builder[T] {
	if setter == nil {
		m.b.fail(sqlmap.NewArgumentError("setter"))
		return m
	}
	m.b.column(name, columnOrFormula)
	if p := m.b.property(name); p != nil {
		p.setter = func(entity, v any) error {
			t, ok := entity.(*T)
			if !ok {
				return fmt.Errorf("sqlmap: set %s: expect %T, got %T", name, (*T)(nil), entity)
			}
			return setter(t, v)
		}
	}
	return m
}

// PrimaryKey marks a property as part of the primary key.
func (m *Builder[T]) PrimaryKey(name string) *Builder[T] {
	m.b.primaryKey(name)
	return m
}

// Identity marks a property as a database-generated identity column. Only one
// property may be the identity.
func (m *Builder[T]) Identity(name string) *Builder[T] {
	m.b.identity(name)
	return m
}

// ReadOnly excludes a property from insert and update statements.
func (m *Builder[T]) ReadOnly(name string) *Builder[T] {
	m.b.readOnly(name)
	return m
}

// Ignore removes a property from the mapping entirely.
func (m *Builder[T]) Ignore(name string) *Builder[T] {
	m.b.ignore(name)
	return m
}

// Build validates and freezes the mapping.
func (m *Builder[T]) Build() (*ClassMap, error) {
	return m.b.build()
}

// MustBuild is like Build but panics on error.
func (m *Builder[T]) MustBuild() *ClassMap {
	cm, err := m.Build()
	if err != nil {
		panic(err)
	}
	return cm
}

// builder holds the mutable state shared by the typed and record builders.
type builder struct {
	cm  *ClassMap
	err error
}

func newBuilder(t reflect.Type, table string) *builder {
	b := &builder{cm: &ClassMap{
		typ:   t,
		table: table,
		ctor:  func() any { return reflect.New(t).Interface() },
	}}
	if t.Kind() != reflect.Struct {
		b.fail(sqlmap.NewConfigError(table, "", fmt.Sprintf("mapped type %s is not a struct", t)))
		return b
	}
	if table == "" {
		b.fail(sqlmap.NewArgumentError("table"))
	}
	var identities int
	for _, f := range structFields(t) {
		p := &PropertyMap{
			alias:      f.name,
			column:     f.name,
			primaryKey: f.tag.primaryKey,
			identity:   f.tag.identity,
			readOnly:   f.tag.readOnly,
			getter:     fieldGetter(f.index),
			setter:     fieldSetter(f.name, f.index),
		}
		if f.tag.column != "" {
			p.column = f.tag.column
		}
		if p.identity {
			identities++
		}
		b.cm.properties = append(b.cm.properties, p)
	}
	if identities > 1 {
		b.fail(sqlmap.NewConfigError(table, "", "identity field already mapped"))
	}
	return b
}

func (b *builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// property returns the property with the given alias, recording a
// configuration error when it does not exist.
func (b *builder) property(name string) *PropertyMap {
	for _, p := range b.cm.properties {
		if p.alias == name {
			return p
		}
	}
	b.fail(sqlmap.NewConfigError(b.cm.table, name, "no such property"))
	return nil
}

func (b *builder) column(name, columnOrFormula string) {
	if columnOrFormula == "" {
		b.fail(sqlmap.NewArgumentError("columnOrFormula"))
		return
	}
	if p := b.property(name); p != nil {
		p.column = columnOrFormula
	}
}

func (b *builder) primaryKey(name string) {
	if p := b.property(name); p != nil {
		p.primaryKey = true
	}
}

func (b *builder) identity(name string) {
	p := b.property(name)
	if p == nil {
		return
	}
	for _, o := range b.cm.properties {
		if o != p && o.identity {
			b.fail(sqlmap.NewConfigError(b.cm.table, name, "identity field already mapped"))
			return
		}
	}
	p.identity = true
}

func (b *builder) readOnly(name string) {
	if p := b.property(name); p != nil {
		p.readOnly = true
	}
}

func (b *builder) ignore(name string) {
	for i, p := range b.cm.properties {
		if p.alias == name {
			b.cm.properties = append(b.cm.properties[:i:i], b.cm.properties[i+1:]...)
			return
		}
	}
	b.fail(sqlmap.NewConfigError(b.cm.table, name, "no such property"))
}

func (b *builder) build() (*ClassMap, error) {
	if b.err != nil {
		return nil, b.err
	}
	cm := &ClassMap{
		typ:     b.cm.typ,
		table:   b.cm.table,
		alias:   b.cm.alias,
		ctor:    b.cm.ctor,
		byAlias: make(map[string]*PropertyMap, len(b.cm.properties)),
	}
	for _, p := range b.cm.properties {
		c := p.clone()
		cm.properties = append(cm.properties, c)
		cm.byAlias[c.alias] = c
	}
	if r := Validate(cm); r.HasErrors() {
		e := r.Errors[0]
		return nil, sqlmap.NewConfigError(e.Table, e.Property, e.Message)
	}
	return cm, nil
}
