package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"unicode"

	"github.com/syssam/sqlmap"
)

// RecordBuilder maps a table whose shape is only known at run time, such as
// a table declared in a configuration file. Each record table gets a
// distinct struct type built with reflect.StructOf whose fields are of type
// any, so predicates can tell two record tables apart even when their
// properties coincide.
type RecordBuilder struct {
	b *builder
}

// Record starts the mapping of a run-time table with the given property
// aliases. Aliases must be exported Go identifiers.
func Record(table string, aliases ...string) *RecordBuilder {
	t, err := RecordType(table, aliases...)
	if err != nil {
		b := &builder{cm: &ClassMap{table: table, typ: reflect.TypeFor[struct{}]()}}
		b.fail(err)
		return &RecordBuilder{b: b}
	}
	return &RecordBuilder{b: newBuilder(t, table)}
}

const recordMarker = "XRecordTable"

// RecordType returns the struct type backing records of table.
func RecordType(table string, aliases ...string) (reflect.Type, error) {
	if table == "" {
		return nil, sqlmap.NewArgumentError("table")
	}
	if len(aliases) == 0 {
		return nil, sqlmap.NewArgumentError("aliases")
	}
	fields := make([]reflect.StructField, 0, len(aliases)+1)
	seen := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		if !isExportedIdent(a) || a == recordMarker {
			return nil, sqlmap.NewConfigError(table, a, "record property must be an exported identifier")
		}
		if seen[a] {
			return nil, sqlmap.NewConfigError(table, a, "duplicate property alias")
		}
		seen[a] = true
		fields = append(fields, reflect.StructField{Name: a, Type: reflect.TypeFor[any]()})
	}
	// The marker field makes the type unique per table; it is skipped by
	// introspection.
	fields = append(fields, reflect.StructField{
		Name: recordMarker,
		Type: reflect.TypeFor[struct{}](),
		Tag:  reflect.StructTag(fmt.Sprintf(`%s:"-" table:%s`, TagName, strconv.Quote(table))),
	})
	return reflect.StructOf(fields), nil
}

// As sets an explicit table alias.
func (r *RecordBuilder) As(alias string) *RecordBuilder {
	r.b.cm.alias = alias
	return r
}

// Column overrides the column name or SQL formula of a property.
func (r *RecordBuilder) Column(name, columnOrFormula string) *RecordBuilder {
	r.b.column(name, columnOrFormula)
	return r
}

// PrimaryKey marks a property as part of the primary key.
func (r *RecordBuilder) PrimaryKey(name string) *RecordBuilder {
	r.b.primaryKey(name)
	return r
}

// Identity marks a property as the identity column.
func (r *RecordBuilder) Identity(name string) *RecordBuilder {
	r.b.identity(name)
	return r
}

// ReadOnly excludes a property from insert and update statements.
func (r *RecordBuilder) ReadOnly(name string) *RecordBuilder {
	r.b.readOnly(name)
	return r
}

// Build validates and freezes the mapping.
func (r *RecordBuilder) Build() (*ClassMap, error) {
	return r.b.build()
}

// Values returns the property values of entity keyed by alias.
func Values(cm *ClassMap, entity any) map[string]any {
	values := make(map[string]any, len(cm.properties))
	for _, p := range cm.properties {
		values[p.alias] = p.Get(entity)
	}
	return values
}

// Assign sets the properties of entity from values keyed by alias. Unknown
// keys are ignored.
func Assign(cm *ClassMap, entity any, values map[string]any) error {
	for k, v := range values {
		p, ok := cm.byAlias[k]
		if !ok {
			continue
		}
		if err := p.Set(entity, v); err != nil {
			return err
		}
	}
	return nil
}

func isExportedIdent(s string) bool {
	for i, r := range s {
		switch {
		case i == 0 && !unicode.IsUpper(r):
			return false
		case !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_':
			return false
		}
	}
	return s != ""
}
