package schema

import (
	"reflect"
	"strings"
)

// TagName is the struct tag key read during introspection.
//
//	type User struct {
//	    ID       int       `sqlmap:"pk,identity"`
//	    Name     string    `sqlmap:"column=FullName"`
//	    Orders   int       `sqlmap:"readonly,column=(select count(1) from [Orders] o where o.UserID = t_0.ID)"`
//	    Internal string    `sqlmap:"-"`
//	}
//
// The column option consumes the rest of the tag, so formulas may contain commas.
const TagName = "sqlmap"

type tagOptions struct {
	skip       bool
	column     string
	primaryKey bool
	identity   bool
	readOnly   bool
}

func parseTag(tag reflect.StructTag) tagOptions {
	v, ok := tag.Lookup(TagName)
	if !ok {
		return tagOptions{}
	}
	v = strings.TrimSpace(v)
	if v == "-" {
		return tagOptions{skip: true}
	}
	var opts tagOptions
	if i := strings.Index(v, "column="); i >= 0 {
		opts.column = strings.TrimSpace(v[i+len("column="):])
		v = v[:i]
	}
	for _, o := range strings.Split(v, ",") {
		switch strings.TrimSpace(o) {
		case "pk":
			opts.primaryKey = true
		case "identity":
			opts.identity = true
		case "readonly":
			opts.readOnly = true
		}
	}
	return opts
}

// fieldSpec is an exported struct field discovered by introspection.
type fieldSpec struct {
	name  string
	index []int
	tag   tagOptions
}

// structFields returns the exported fields of t in declaration order. The
// fields of an untagged embedded struct are promoted in place. A field
// declared at a shallower depth shadows promoted fields with the same name.
func structFields(t reflect.Type) []fieldSpec {
	var (
		fields []fieldSpec
		seen   = make(map[string]bool)
	)
	var walk func(t reflect.Type, prefix []int, shadowed map[string]bool)
	walk = func(t reflect.Type, prefix []int, shadowed map[string]bool) {
		inner := make(map[string]bool, len(shadowed)+t.NumField())
		for name := range shadowed {
			inner[name] = true
		}
		for i := 0; i < t.NumField(); i++ {
			if f := t.Field(i); !promoted(f) {
				inner[f.Name] = true
			}
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			index := append(append([]int(nil), prefix...), f.Index...)
			if promoted(f) {
				walk(f.Type, index, inner)
				continue
			}
			if !f.IsExported() || seen[f.Name] || shadowed[f.Name] {
				continue
			}
			seen[f.Name] = true
			tag := parseTag(f.Tag)
			if tag.skip {
				continue
			}
			fields = append(fields, fieldSpec{name: f.Name, index: index, tag: tag})
		}
	}
	walk(t, nil, nil)
	return fields
}

func promoted(f reflect.StructField) bool {
	if !f.Anonymous || f.Type.Kind() != reflect.Struct {
		return false
	}
	_, tagged := f.Tag.Lookup(TagName)
	return !tagged
}
