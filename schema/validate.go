package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierRe matches plain column names, as opposed to SQL formulas.
var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_ ]*$`)

// ValidationError describes one problem found in a class map.
type ValidationError struct {
	Table    string
	Property string
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Property, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of class map validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

func (r *ValidationResult) addError(table, property, format string, args ...any) {
	r.Errors = append(r.Errors, &ValidationError{Table: table, Property: property, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) addWarning(table, property, format string, args ...any) {
	r.Warnings = append(r.Warnings, &ValidationError{Table: table, Property: property, Message: fmt.Sprintf(format, args...)})
}

// Validate checks the invariants of a class map. Errors make the mapping
// unusable; warnings flag operations that will fail or produce invalid SQL
// later on.
//
// Example:
//
//	if r := schema.Validate(users); r.HasWarnings() {
//	    log.Println(r)
//	}
func Validate(cm *ClassMap) *ValidationResult {
	r := &ValidationResult{}
	if cm.table == "" {
		r.addError(cm.Name(), "", "table name is empty")
	}
	var (
		seen       = make(map[string]bool, len(cm.properties))
		identities []string
		keys       int
	)
	for _, p := range cm.properties {
		if seen[p.alias] {
			r.addError(cm.table, p.alias, "duplicate property alias")
		}
		seen[p.alias] = true
		if p.column == "" {
			r.addError(cm.table, p.alias, "column name or formula is empty")
		}
		if p.identity {
			identities = append(identities, p.alias)
		}
		if p.primaryKey {
			keys++
		}
		if p.IsFormula() && !identifierRe.MatchString(p.column) && !p.readOnly && !p.identity {
			r.addWarning(cm.table, p.alias, "formula %q is written by insert and update; mark it read-only", p.column)
		}
	}
	if len(identities) > 1 {
		r.addError(cm.table, identities[1], "identity field already mapped")
	}
	if keys == 0 {
		r.addWarning(cm.table, "", "no primary key: update and delete are unavailable")
	}
	return r
}
