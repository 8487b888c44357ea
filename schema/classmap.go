package schema

import (
	"reflect"
	"strings"
)

// ClassMap binds a Go struct type to a relational table. A ClassMap is
// produced by Builder.Build and is read-only afterwards, so it can be shared
// between goroutines without synchronization.
type ClassMap struct {
	typ        reflect.Type
	table      string
	alias      string
	properties []*PropertyMap
	byAlias    map[string]*PropertyMap
	ctor       func() any
}

// Type returns the mapped struct type. It is the type tag predicates are
// resolved against.
func (c *ClassMap) Type() reflect.Type { return c.typ }

// Name returns the name of the mapped type, used in error messages.
func (c *ClassMap) Name() string {
	if c.typ.Name() != "" {
		return c.typ.Name()
	}
	return c.table
}

// Table returns the table name.
func (c *ClassMap) Table() string { return c.table }

// Alias returns the explicit table alias, or an empty string when the query
// context should generate one.
func (c *ClassMap) Alias() string { return c.alias }

// Properties returns the mapped properties in declaration order.
func (c *ClassMap) Properties() []*PropertyMap {
	return append([]*PropertyMap(nil), c.properties...)
}

// Property returns the property with the given alias.
func (c *ClassMap) Property(alias string) (*PropertyMap, bool) {
	p, ok := c.byAlias[alias]
	return p, ok
}

// PrimaryKeys returns the primary key properties in declaration order.
func (c *ClassMap) PrimaryKeys() []*PropertyMap {
	var keys []*PropertyMap
	for _, p := range c.properties {
		if p.primaryKey {
			keys = append(keys, p)
		}
	}
	return keys
}

// IdentityProperty returns the identity property, or nil.
func (c *ClassMap) IdentityProperty() *PropertyMap {
	for _, p := range c.properties {
		if p.identity {
			return p
		}
	}
	return nil
}

// Writable returns the properties included in insert and update statements:
// everything that is neither identity nor read-only.
func (c *ClassMap) Writable() []*PropertyMap {
	var props []*PropertyMap
	for _, p := range c.properties {
		if !p.identity && !p.readOnly {
			props = append(props, p)
		}
	}
	return props
}

// New returns a new *T for the mapped type T.
func (c *ClassMap) New() any { return c.ctor() }

// Accepts reports whether entity is a non-nil *T of the mapped type.
func (c *ClassMap) Accepts(entity any) bool {
	if entity == nil {
		return false
	}
	rv := reflect.ValueOf(entity)
	return rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Type().Elem() == c.typ
}

// PropertyMap is one mapped property of a ClassMap.
type PropertyMap struct {
	alias      string
	column     string
	primaryKey bool
	identity   bool
	readOnly   bool
	getter     func(any) any
	setter     func(any, any) error
}

// Alias returns the public property name exposed to predicates and row
// materialization. It is the Go field name.
func (p *PropertyMap) Alias() string { return p.alias }

// Column returns the column name or SQL formula.
func (p *PropertyMap) Column() string { return p.column }

// IsPrimaryKey reports whether the property is part of the primary key.
func (p *PropertyMap) IsPrimaryKey() bool { return p.primaryKey }

// IsIdentity reports whether the column is generated by the database.
func (p *PropertyMap) IsIdentity() bool { return p.identity }

// IsReadOnly reports whether the property is excluded from insert and update.
func (p *PropertyMap) IsReadOnly() bool { return p.readOnly }

// IsFormula reports whether the column text differs from the alias,
// compared case-insensitively. Formula properties are rendered without a
// table qualifier.
func (p *PropertyMap) IsFormula() bool {
	return !strings.EqualFold(p.alias, p.column)
}

// HasGetter reports whether the property value can be read.
func (p *PropertyMap) HasGetter() bool { return p.getter != nil }

// HasSetter reports whether the property value can be assigned.
func (p *PropertyMap) HasSetter() bool { return p.setter != nil }

// Get returns the property value of entity, or nil when the property has no
// getter or holds a nil value.
func (p *PropertyMap) Get(entity any) any {
	if p.getter == nil || entity == nil {
		return nil
	}
	return p.getter(entity)
}

// Set assigns v to the property of entity. It is a no-op when the property
// has no setter.
func (p *PropertyMap) Set(entity, v any) error {
	if p.setter == nil {
		return nil
	}
	return p.setter(entity, v)
}

func (p *PropertyMap) clone() *PropertyMap {
	c := *p
	return &c
}
