package introspect

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type postgresIntrospector struct {
	conn *pgx.Conn
}

func newPostgresIntrospector(ctx context.Context, connStr string) (Introspector, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	return &postgresIntrospector{conn: conn}, nil
}

func (pi *postgresIntrospector) Detect(ctx context.Context) (bool, error) {
	var version string
	err := pi.conn.QueryRow(ctx, "SELECT version()").Scan(&version)
	return err == nil, err
}

func (pi *postgresIntrospector) ListTables(ctx context.Context, schema string) ([]string, error) {
	rows, err := pi.conn.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}

	return tables, rows.Err()
}

// ListConstraints reads pg_constraint directly: information_schema hides
// constraints on tables the current role does not own and does not expose
// the column order of composite keys.
func (pi *postgresIntrospector) ListConstraints(ctx context.Context, schema string) ([]ConstraintInfo, error) {
	rows, err := pi.conn.Query(ctx, `
		SELECT
			con.conname,
			con.contype::text,
			rel.relname,
			ARRAY(
				SELECT att.attname::text
				FROM unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
				JOIN pg_attribute att
					ON att.attrelid = con.conrelid
					AND att.attnum = k.attnum
				ORDER BY k.ord
			) AS columns,
			con.condeferrable,
			con.condeferred
		FROM pg_constraint con
		JOIN pg_class rel ON rel.oid = con.conrelid
		JOIN pg_namespace nsp ON nsp.oid = rel.relnamespace
		WHERE nsp.nspname = $1
		ORDER BY rel.relname, con.conname
	`, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ConstraintInfo
	for rows.Next() {
		var c ConstraintInfo
		var code string
		if err := rows.Scan(&c.Name, &code, &c.Table, &c.Columns, &c.Deferrable, &c.InitiallyDeferred); err != nil {
			return nil, err
		}
		c.Type = constraintTypeFromCode(code)
		result = append(result, c)
	}

	return result, rows.Err()
}

func (pi *postgresIntrospector) Close() error {
	return pi.conn.Close(context.Background())
}
