package engine

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ============================================================
// DATABASE CONTRACT
// ============================================================

// DB is the subset of pgx shared by pgx.Tx, *pgx.Conn and *pgxpool.Pool
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ErrNoDB is returned when no DB is given and no transaction is bound to the context
var ErrNoDB = errors.New("no database handle given and no transaction bound to context")

// resolveDB falls back to the transaction bound to ctx when db is nil
func resolveDB(ctx context.Context, db DB) (DB, error) {
	if db != nil {
		return db, nil
	}
	if tx, ok := TxFromContext(ctx); ok {
		return tx, nil
	}
	return nil, ErrNoDB
}

// ============================================================
// MUTATION TYPES
// ============================================================

type MutationType int

const (
	MutationInsert MutationType = iota
	MutationUpdate
	MutationDelete
)

func (m MutationType) String() string {
	switch m {
	case MutationInsert:
		return "INSERT"
	case MutationUpdate:
		return "UPDATE"
	case MutationDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// ============================================================
// MUTATION RESULT TYPES
// ============================================================

type InsertResult struct {
	ID       interface{} // Primary key
	Record   Row         // Full record (RETURNING *)
	Affected int
}

type UpdateResult struct {
	Records  []Row
	Affected int
}

type DeleteResult struct {
	Affected int
}
