// Package constraints switches PostgreSQL constraints between IMMEDIATE and
// DEFERRED checking inside the current transaction.
package constraints

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chameleon-db/chameleondb/integrity/pkg/engine"
)

//go:generate mockgen -package mockconstraints -destination mock/session.go . Session

// ErrNotInTransaction is returned when constraints are changed outside a
// transaction. SET CONSTRAINTS only lasts until the end of the current
// transaction, so outside one it would silently do nothing.
var ErrNotInTransaction = errors.New("SET CONSTRAINTS requires an active transaction")

// DB executes statements. pgx.Tx, *pgxpool.Tx and *pgx.Conn satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Session is a DB that reports its transaction status the way
// (*pgconn.PgConn).TxStatus does: 'I' idle, 'T' in a transaction, 'E' in a
// failed transaction.
type Session interface {
	DB
	TxStatus() byte
}

// Mode is the checking mode of a constraint
type Mode int

const (
	ModeImmediate Mode = iota
	ModeDeferred
)

func (m Mode) String() string {
	switch m {
	case ModeImmediate:
		return "IMMEDIATE"
	case ModeDeferred:
		return "DEFERRED"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// SetAllImmediate checks every deferrable constraint immediately for the
// rest of the transaction, including rows already written.
func SetAllImmediate(ctx context.Context, db DB) error {
	db, err := session(ctx, db)
	if err != nil {
		return err
	}
	return exec(ctx, db, "SET CONSTRAINTS ALL IMMEDIATE")
}

// SetImmediate checks the named constraints immediately
func SetImmediate(ctx context.Context, db DB, names ...string) error {
	return Set(ctx, db, ModeImmediate, names...)
}

// SetDeferred defers the named constraints to commit time
func SetDeferred(ctx context.Context, db DB, names ...string) error {
	return Set(ctx, db, ModeDeferred, names...)
}

// Set changes the mode of the named constraints. A nil db means the
// transaction bound to ctx. With no names only the transaction is checked.
// Errors from the database, such as an unknown or non-deferrable
// constraint, are returned unchanged.
func Set(ctx context.Context, db DB, mode Mode, names ...string) error {
	db, err := session(ctx, db)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}
	return exec(ctx, db, statement(mode, names))
}

// Immediate runs fn with the named constraints checked immediately and sets
// them back to DEFERRED afterwards, whether fn returns an error, succeeds or
// panics. An error from fn takes precedence over a failed restore.
func Immediate(ctx context.Context, db DB, names []string, fn func(ctx context.Context) error) (err error) {
	db, err = session(ctx, db)
	if err != nil {
		return err
	}
	if tx, ok := db.(pgx.Tx); ok {
		ctx = engine.WithTx(ctx, tx)
	}

	if err := SetImmediate(ctx, db, names...); err != nil {
		return err
	}

	defer func() {
		restoreErr := SetDeferred(ctx, db, names...)
		if restoreErr == nil {
			return
		}
		if err != nil {
			engine.Logger().Debug().Err(restoreErr).Strs("constraints", names).Msg("restore to DEFERRED failed")
			return
		}
		err = restoreErr
	}()

	return fn(ctx)
}

func statement(mode Mode, names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = pgx.Identifier{name}.Sanitize()
	}
	return fmt.Sprintf("SET CONSTRAINTS %s %s", strings.Join(quoted, ", "), mode)
}

func exec(ctx context.Context, db DB, sql string) error {
	engine.Logger().Debug().Str("sql", sql).Msg("set constraints")
	_, err := db.Exec(ctx, sql)
	return err
}

// session resolves db to the handle to use and verifies it is inside a
// transaction.
func session(ctx context.Context, db DB) (DB, error) {
	if db == nil {
		tx, ok := engine.TxFromContext(ctx)
		if !ok {
			return nil, ErrNotInTransaction
		}
		db = tx
	}
	if !InTransaction(db) {
		return nil, ErrNotInTransaction
	}
	return db, nil
}

// InTransaction reports whether db is inside an open transaction. A pool,
// or any handle whose status cannot be determined, is not.
func InTransaction(db DB) bool {
	switch d := db.(type) {
	case Session:
		return inTxStatus(d.TxStatus())
	case interface{ Conn() *pgx.Conn }:
		conn := d.Conn()
		return conn != nil && inTxStatus(conn.PgConn().TxStatus())
	case interface{ PgConn() *pgconn.PgConn }:
		pgConn := d.PgConn()
		return pgConn != nil && inTxStatus(pgConn.TxStatus())
	default:
		return false
	}
}

func inTxStatus(status byte) bool {
	return status == 'T' || status == 'E'
}
