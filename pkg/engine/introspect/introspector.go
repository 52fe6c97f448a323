package introspect

import (
	"context"
	"fmt"
	"strings"
)

// DatabaseType identifies the database engine
type DatabaseType string

const (
	PostgreSQL DatabaseType = "postgresql"
	MySQL      DatabaseType = "mysql"
	SQLite     DatabaseType = "sqlite"
	Unknown    DatabaseType = "unknown"
)

// ConstraintType is pg_constraint.contype spelled out
type ConstraintType string

const (
	PrimaryKey ConstraintType = "primary_key"
	Unique     ConstraintType = "unique"
	ForeignKey ConstraintType = "foreign_key"
	Check      ConstraintType = "check"
	Exclusion  ConstraintType = "exclusion"
	Other      ConstraintType = "other"
)

func constraintTypeFromCode(code string) ConstraintType {
	switch code {
	case "p":
		return PrimaryKey
	case "u":
		return Unique
	case "f":
		return ForeignKey
	case "c":
		return Check
	case "x":
		return Exclusion
	default:
		return Other
	}
}

// ConstraintInfo describes one constraint as the database sees it
type ConstraintInfo struct {
	Name              string
	Type              ConstraintType
	Table             string
	Columns           []string
	Deferrable        bool
	InitiallyDeferred bool
}

// Mode returns the constraint's default timing
func (c ConstraintInfo) Mode() string {
	if c.InitiallyDeferred {
		return "DEFERRED"
	}
	return "IMMEDIATE"
}

// Introspector is the interface all DB engines must implement
type Introspector interface {
	// Detect confirms this is the right DB type
	Detect(ctx context.Context) (bool, error)

	// ListTables returns all user-defined tables in a schema
	ListTables(ctx context.Context, schema string) ([]string, error)

	// ListConstraints returns every constraint declared on tables in a schema
	ListConstraints(ctx context.Context, schema string) ([]ConstraintInfo, error)

	// Close closes the connection
	Close() error
}

// NewIntrospector creates the right introspector for a connection string
func NewIntrospector(ctx context.Context, connStr string) (Introspector, error) {
	normalizedConn := strings.TrimSpace(connStr)
	if normalizedConn == "" {
		return nil, fmt.Errorf("connection string is required")
	}

	switch detectFromConnString(normalizedConn) {
	case PostgreSQL:
		return newPostgresIntrospector(ctx, normalizedConn)
	case MySQL, SQLite:
		return nil, fmt.Errorf("deferred constraints are only supported on PostgreSQL")
	default:
		return nil, fmt.Errorf("unsupported database connection scheme")
	}
}

// ByName indexes constraints by name
func ByName(constraints []ConstraintInfo) map[string]ConstraintInfo {
	out := make(map[string]ConstraintInfo, len(constraints))
	for _, c := range constraints {
		out[c.Name] = c
	}
	return out
}

// detectFromConnString identifies DB type from connection string
func detectFromConnString(connStr string) DatabaseType {
	normalized := strings.ToLower(strings.TrimSpace(connStr))

	if strings.HasPrefix(normalized, "postgresql://") || strings.HasPrefix(normalized, "postgres://") {
		return PostgreSQL
	}
	if isLikelyPostgresDSN(normalized) {
		return PostgreSQL
	}
	if strings.HasPrefix(normalized, "mysql://") {
		return MySQL
	}
	if strings.HasPrefix(normalized, "sqlite://") || strings.HasPrefix(normalized, "file:") {
		return SQLite
	}

	return Unknown
}

func isLikelyPostgresDSN(connStr string) bool {
	if !strings.Contains(connStr, "=") {
		return false
	}

	return strings.Contains(connStr, "host=") ||
		strings.Contains(connStr, "dbname=") ||
		strings.Contains(connStr, "user=")
}
