package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================
// RESOLUTION ERRORS
// ============================================================

var (
	// ErrFieldDoesNotExist is returned when a field is not declared on the entity
	ErrFieldDoesNotExist = errors.New("field does not exist")

	// ErrNoTableName is returned when neither a table nor an entity name is set
	ErrNoTableName = errors.New("entity has no resolvable table name")

	// ErrNotAForeignKey is returned when asking for the foreign key constraint
	// name of a field that does not hold a BelongsTo relation
	ErrNotAForeignKey = errors.New("field is not a foreign key")

	// ErrModelHasNoPrimaryKey is returned for primary key lookups on an entity
	// without primary key fields
	ErrModelHasNoPrimaryKey = errors.New("entity has no primary key")

	// ErrUnlinkedRelation is returned when a relation target was never resolved
	ErrUnlinkedRelation = errors.New("relation target is not linked")

	// ErrUnknownEntity is returned when an entity name is not in the schema
	ErrUnknownEntity = errors.New("unknown entity")
)

// ResolutionError reports that an entity/field combination cannot be mapped
// to a constraint name. It always indicates a mistake in the caller's
// declarations.
type ResolutionError struct {
	Entity string
	Field  string
	Kind   string // "table", "unique", "primary_key", "foreign_key", "column"
	Err    error
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString("cannot resolve ")
	b.WriteString(e.Kind)
	if e.Entity != "" {
		fmt.Fprintf(&b, " for entity '%s'", e.Entity)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field '%s'", e.Field)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// ============================================================
// MUTATION ERRORS
// ============================================================

// MutationError wraps a driver error raised while executing a mutation.
// The driver error stays reachable through errors.As.
type MutationError struct {
	Operation string
	Table     string
	Err       error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s on %s failed: %v", e.Operation, e.Table, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}
