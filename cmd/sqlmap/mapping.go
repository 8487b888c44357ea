package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/syssam/sqlmap/schema"
)

// A mapping file declares the tables the CLI can address:
//
//	tables:
//	  - name: Users
//	    alias: u
//	    columns:
//	      - name: ID
//	        pk: true
//	        identity: true
//	      - name: Name
//	      - name: OrderCount
//	        formula: (select count(1) from [Orders] o where o.UserID = u.ID)
type mappingFile struct {
	Tables []tableSpec `yaml:"tables"`
}

type tableSpec struct {
	Name    string       `yaml:"name"`
	Table   string       `yaml:"table"`
	Alias   string       `yaml:"alias"`
	Columns []columnSpec `yaml:"columns"`
}

type columnSpec struct {
	Name     string `yaml:"name"`
	Column   string `yaml:"column"`
	Formula  string `yaml:"formula"`
	PK       bool   `yaml:"pk"`
	Identity bool   `yaml:"identity"`
	ReadOnly bool   `yaml:"readonly"`
}

// catalog holds the class maps of a mapping file keyed by table name.
type catalog struct {
	maps     map[string]*schema.ClassMap
	names    []string
	warnings []*schema.ValidationError
}

func loadCatalog(fs afero.Fs, path string) (*catalog, error) {
	if path == "" {
		return nil, errors.New("no mapping file configured")
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	cat, err := parseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

func parseCatalog(data []byte) (*catalog, error) {
	var mf mappingFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&mf); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if len(mf.Tables) == 0 {
		return nil, errors.New("no tables declared")
	}
	cat := &catalog{maps: make(map[string]*schema.ClassMap, len(mf.Tables))}
	for i, ts := range mf.Tables {
		cm, err := ts.build()
		if err != nil {
			return nil, fmt.Errorf("tables[%d]: %w", i, err)
		}
		name := ts.key()
		if _, ok := cat.maps[name]; ok {
			return nil, fmt.Errorf("tables[%d]: duplicate table name %q", i, name)
		}
		res := schema.Validate(cm)
		if res.HasErrors() {
			return nil, fmt.Errorf("tables[%d]: %s", i, strings.TrimSpace(res.String()))
		}
		cat.warnings = append(cat.warnings, res.Warnings...)
		cat.maps[name] = cm
		cat.names = append(cat.names, name)
	}
	return cat, nil
}

func (ts *tableSpec) key() string {
	if ts.Name != "" {
		return ts.Name
	}
	return ts.Table
}

func (ts *tableSpec) build() (*schema.ClassMap, error) {
	table := ts.Table
	if table == "" {
		table = ts.Name
	}
	if table == "" {
		return nil, errors.New("table name is required")
	}
	aliases := make([]string, len(ts.Columns))
	for i, c := range ts.Columns {
		aliases[i] = c.Name
	}
	r := schema.Record(table, aliases...)
	if ts.Alias != "" {
		r.As(ts.Alias)
	}
	for _, c := range ts.Columns {
		switch {
		case c.Column != "" && c.Formula != "":
			return nil, fmt.Errorf("column %s: column and formula are exclusive", c.Name)
		case c.Column != "":
			r.Column(c.Name, c.Column)
		case c.Formula != "":
			r.Column(c.Name, c.Formula).ReadOnly(c.Name)
		}
		if c.PK {
			r.PrimaryKey(c.Name)
		}
		if c.Identity {
			r.Identity(c.Name)
		}
		if c.ReadOnly {
			r.ReadOnly(c.Name)
		}
	}
	return r.Build()
}

func (c *catalog) lookup(name string) (*schema.ClassMap, error) {
	if cm, ok := c.maps[name]; ok {
		return cm, nil
	}
	return nil, fmt.Errorf("unknown table %q (known: %s)", name, strings.Join(c.names, ", "))
}

// bindings maps each named table to its record type, and the empty name to
// the first table.
func (c *catalog) bindings(names ...string) map[string]reflect.Type {
	b := make(map[string]reflect.Type, len(names)+1)
	for i, n := range names {
		cm, ok := c.maps[n]
		if !ok {
			continue
		}
		if i == 0 {
			b[""] = cm.Type()
		}
		b[n] = cm.Type()
	}
	return b
}

// tables returns the declared table names in file order.
func (c *catalog) tables() []string {
	return slices.Clone(c.names)
}
