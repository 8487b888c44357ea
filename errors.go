package sqlmap

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors. Every typed error below matches exactly one of
// them through errors.Is.
var (
	// ErrConfig is returned when a mapping is not configured for the
	// requested operation (missing primary key, duplicate identity, unmapped
	// property referenced by a predicate).
	ErrConfig = errors.New("sqlmap: configuration error")

	// ErrArgument is returned when a required input is nil or empty.
	ErrArgument = errors.New("sqlmap: invalid argument")

	// ErrCompile is returned when a predicate cannot be resolved against the
	// active query context.
	ErrCompile = errors.New("sqlmap: predicate compilation failed")

	// ErrConsistency is returned when an update or delete reports an
	// affected-row count other than one.
	ErrConsistency = errors.New("sqlmap: consistency violation")

	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("sqlmap: entity not found")
)

// ConfigError represents a mapping configuration error.
type ConfigError struct {
	Table    string // Table of the class map, if known
	Property string // Property alias, if applicable
	Message  string
}

// Error returns the error string.
func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("sqlmap: configuration error")
	if e.Table != "" {
		b.WriteString(" on table ")
		b.WriteString(e.Table)
	}
	if e.Property != "" {
		b.WriteString(" property ")
		b.WriteString(e.Property)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches ErrConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// NewConfigError returns a new ConfigError.
func NewConfigError(table, property, message string) *ConfigError {
	return &ConfigError{Table: table, Property: property, Message: message}
}

// IsConfigError returns true if the error is a ConfigError.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	return errors.As(err, &e) || errors.Is(err, ErrConfig)
}

// ArgumentError represents a nil or empty required input.
type ArgumentError struct {
	Name    string
	Message string
}

// Error returns the error string.
func (e *ArgumentError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("sqlmap: invalid argument %q: %s", e.Name, e.Message)
	}
	return fmt.Sprintf("sqlmap: argument %q is required", e.Name)
}

// Is reports whether the target matches ErrArgument.
func (e *ArgumentError) Is(target error) bool {
	return target == ErrArgument
}

// NewArgumentError returns an ArgumentError for a missing argument.
func NewArgumentError(name string) *ArgumentError {
	return &ArgumentError{Name: name}
}

// NewArgumentErrorf returns an ArgumentError with a formatted message.
func NewArgumentErrorf(name, format string, args ...any) *ArgumentError {
	return &ArgumentError{Name: name, Message: fmt.Sprintf(format, args...)}
}

// IsArgumentError returns true if the error is an ArgumentError.
func IsArgumentError(err error) bool {
	if err == nil {
		return false
	}
	var e *ArgumentError
	return errors.As(err, &e) || errors.Is(err, ErrArgument)
}

// CompileError represents a predicate that cannot be compiled.
type CompileError struct {
	Node    string // Printable form of the offending node
	Message string
}

// Error returns the error string.
func (e *CompileError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("sqlmap: compile %s: %s", e.Node, e.Message)
	}
	return fmt.Sprintf("sqlmap: compile: %s", e.Message)
}

// Is reports whether the target matches ErrCompile.
func (e *CompileError) Is(target error) bool {
	return target == ErrCompile
}

// NewCompileError returns a new CompileError.
func NewCompileError(node, message string) *CompileError {
	return &CompileError{Node: node, Message: message}
}

// IsCompileError returns true if the error is a CompileError.
func IsCompileError(err error) bool {
	if err == nil {
		return false
	}
	var e *CompileError
	return errors.As(err, &e) || errors.Is(err, ErrCompile)
}

// ConsistencyError is returned after an update or delete statement affected
// a number of rows other than one. The statement has already run.
type ConsistencyError struct {
	Table    string
	Op       string // "update" or "delete"
	Affected int64
}

// Error returns the error string.
func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("sqlmap: %s %s must affect 1 row, affected %d", e.Op, e.Table, e.Affected)
}

// Is reports whether the target matches ErrConsistency.
func (e *ConsistencyError) Is(target error) bool {
	return target == ErrConsistency
}

// NewConsistencyError returns a new ConsistencyError.
func NewConsistencyError(table, op string, affected int64) *ConsistencyError {
	return &ConsistencyError{Table: table, Op: op, Affected: affected}
}

// IsConsistencyError returns true if the error is a ConsistencyError.
func IsConsistencyError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConsistencyError
	return errors.As(err, &e) || errors.Is(err, ErrConsistency)
}

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	id    any // Optional: the ID that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("sqlmap: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("sqlmap: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the ID that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given entity type.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the ID that was searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err error // Original error that triggered rollback
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("sqlmap: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}
