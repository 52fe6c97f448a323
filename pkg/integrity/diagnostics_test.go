package integrity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/chameleon-db/chameleondb/integrity/pkg/engine"
)

// sqlStateError is how some pool wrappers report a server error: a code
// and nothing else.
type sqlStateError struct{ code string }

func (e sqlStateError) Error() string    { return "sqlstate " + e.code }
func (e sqlStateError) SQLState() string { return e.code }

func TestDiagnosePgconnError(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		Message:        `duplicate key value violates unique constraint "users_email_uniq"`,
		Detail:         "Key (email)=(ada@example.com) already exists.",
		SchemaName:     "public",
		TableName:      "users",
		ConstraintName: "users_email_uniq",
	}

	d, ok := Diagnose(pgErr)
	assert.True(t, ok)
	assert.Equal(t, Diagnostics{
		Code:           "23505",
		ConstraintName: "users_email_uniq",
		TableName:      "users",
		SchemaName:     "public",
		Detail:         "Key (email)=(ada@example.com) already exists.",
		Message:        `duplicate key value violates unique constraint "users_email_uniq"`,
	}, d)
}

func TestDiagnoseWrappedError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23502", TableName: "users", ColumnName: "email"}
	err := &engine.MutationError{Operation: "INSERT", Table: "users", Err: pgErr}

	d, ok := Diagnose(fmt.Errorf("create user: %w", err))
	assert.True(t, ok)
	assert.Equal(t, "email", d.ColumnName)
	assert.Equal(t, "users", d.TableName)
}

func TestDiagnosePqError(t *testing.T) {
	pqErr := &pq.Error{
		Code:       "23503",
		Table:      "books",
		Constraint: "books_author_fk",
		Detail:     `Key (author_id)=(42) is not present in table "authors".`,
	}

	d, ok := Diagnose(pqErr)
	assert.True(t, ok)
	assert.Equal(t, "23503", d.Code)
	assert.Equal(t, "books_author_fk", d.ConstraintName)
	assert.Equal(t, "books", d.TableName)
}

func TestDiagnoseCodeOnly(t *testing.T) {
	d, ok := Diagnose(sqlStateError{code: "23505"})
	assert.True(t, ok)
	assert.Equal(t, Diagnostics{Code: "23505"}, d)
}

func TestDiagnoseNotAViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "nil", err: nil},
		{name: "plain error", err: errors.New("connection refused")},
		{name: "syntax error", err: &pgconn.PgError{Code: "42601"}},
		{name: "serialization failure", err: &pq.Error{Code: "40001"}},
		{name: "undefined object", err: sqlStateError{code: "42704"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Diagnose(tt.err)
			assert.False(t, ok)
			assert.False(t, IsConstraintViolation(tt.err))
		})
	}
}
