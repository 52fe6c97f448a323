package engine

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Engine ties a schema to a connection pool
type Engine struct {
	schema    *Schema
	connector *Connector
}

// ============================================================
// ENGINE INITIALIZATION
// ============================================================

// NewEngine creates an engine around an already parsed schema
func NewEngine(schema *Schema) *Engine {
	return &Engine{schema: schema}
}

// NewEngineWithSchema loads a .json, .yml or .yaml schema file
func NewEngineWithSchema(schemaPath string) (*Engine, error) {
	schema, err := LoadSchemaFile(schemaPath)
	if err != nil {
		return nil, err
	}
	return NewEngine(schema), nil
}

// ─────────────────────────────────────────────────────────────
// Schema handling
// ─────────────────────────────────────────────────────────────

// Schema returns the loaded schema
func (e *Engine) Schema() *Schema {
	return e.schema
}

// Entity returns an entity by name
func (e *Engine) Entity(name string) (*Entity, error) {
	if e.schema == nil {
		return nil, fmt.Errorf("no schema loaded")
	}
	entity := e.schema.GetEntity(name)
	if entity == nil {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownEntity, name)
	}
	return entity, nil
}

// GenerateMigration generates DDL SQL from the loaded schema
func (e *Engine) GenerateMigration() (string, error) {
	if e.schema == nil {
		return "", fmt.Errorf("no schema loaded")
	}
	return e.schema.GenerateMigration()
}

// Constraints resolves the named constraints of every entity, in schema order
func (e *Engine) Constraints() ([]ResolvedConstraint, error) {
	if e.schema == nil {
		return nil, fmt.Errorf("no schema loaded")
	}

	var all []ResolvedConstraint
	for _, entity := range e.schema.Entities {
		resolved, err := ResolveConstraints(entity)
		if err != nil {
			return nil, err
		}
		all = append(all, resolved...)
	}
	return all, nil
}

// ─────────────────────────────────────────────────────────────
// Connection handling
// ─────────────────────────────────────────────────────────────

// Connect establishes a database connection
func (e *Engine) Connect(ctx context.Context, config ConnectorConfig) error {
	connector := NewConnector(config)
	if err := connector.Connect(ctx); err != nil {
		return err
	}
	e.connector = connector
	return nil
}

// Close closes the database connection
func (e *Engine) Close() {
	if e.connector != nil {
		e.connector.Close()
	}
}

// IsConnected returns true if connected to a database
func (e *Engine) IsConnected() bool {
	return e.connector != nil && e.connector.IsConnected()
}

// Ping verifies the database connection is alive
func (e *Engine) Ping(ctx context.Context) error {
	if e.connector == nil {
		return fmt.Errorf("not connected")
	}
	return e.connector.Ping(ctx)
}

// Connector returns the underlying connector for raw SQL access
func (e *Engine) Connector() *Connector {
	return e.connector
}

// RunInTx runs fn in a transaction on the engine's pool. See RunInTx.
func (e *Engine) RunInTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	if !e.IsConnected() {
		return fmt.Errorf("not connected")
	}
	return RunInTx(ctx, e.connector, fn)
}

// ─────────────────────────────────────────────────────────────
// Mutation API
// ─────────────────────────────────────────────────────────────

// Insert starts an INSERT on the named entity. An unknown entity is
// reported by Execute.
func (e *Engine) Insert(entity string) *InsertBuilder {
	ent, err := e.Entity(entity)
	b := Insert(ent)
	b.err = err
	return b
}

// Update starts an UPDATE on the named entity
func (e *Engine) Update(entity string) *UpdateBuilder {
	ent, err := e.Entity(entity)
	b := Update(ent)
	b.err = err
	return b
}

// Delete starts a DELETE on the named entity
func (e *Engine) Delete(entity string) *DeleteBuilder {
	ent, err := e.Entity(entity)
	b := Delete(ent)
	b.err = err
	return b
}
