package integrity

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Diagnostics is the structured payload PostgreSQL attaches to a constraint
// violation. Fields the server or driver did not provide are empty.
type Diagnostics struct {
	Code           string
	ConstraintName string
	ColumnName     string
	TableName      string
	SchemaName     string
	Detail         string
	Message        string
}

// Diagnose extracts Diagnostics from the first PostgreSQL error in err's
// chain. ok is false unless that error is a constraint violation
// (SQLSTATE class 23). Errors that only expose SQLState(), as some pool and
// middleware wrappers do, yield Diagnostics with just Code set.
func Diagnose(err error) (Diagnostics, bool) {
	if err == nil {
		return Diagnostics{}, false
	}

	var d Diagnostics

	var pgErr *pgconn.PgError
	var pqErr *pq.Error
	var coded interface{ SQLState() string }

	switch {
	case errors.As(err, &pgErr):
		d = Diagnostics{
			Code:           pgErr.Code,
			ConstraintName: pgErr.ConstraintName,
			ColumnName:     pgErr.ColumnName,
			TableName:      pgErr.TableName,
			SchemaName:     pgErr.SchemaName,
			Detail:         pgErr.Detail,
			Message:        pgErr.Message,
		}
	case errors.As(err, &pqErr):
		d = Diagnostics{
			Code:           string(pqErr.Code),
			ConstraintName: pqErr.Constraint,
			ColumnName:     pqErr.Column,
			TableName:      pqErr.Table,
			SchemaName:     pqErr.Schema,
			Detail:         pqErr.Detail,
			Message:        pqErr.Message,
		}
	case errors.As(err, &coded):
		d = Diagnostics{Code: coded.SQLState()}
	default:
		return Diagnostics{}, false
	}

	return d, pgerrcode.IsIntegrityConstraintViolation(d.Code)
}

// IsConstraintViolation reports whether err carries a SQLSTATE class 23 error
func IsConstraintViolation(err error) bool {
	_, ok := Diagnose(err)
	return ok
}
