package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ============================================================
// INSERT BUILDER
// ============================================================

type InsertBuilder struct {
	entity *Entity
	values map[string]interface{}
	err    error
}

// Insert starts an INSERT into the entity's table
func Insert(entity *Entity) *InsertBuilder {
	return &InsertBuilder{
		entity: entity,
		values: make(map[string]interface{}),
	}
}

// Set adds a field to insert
func (ib *InsertBuilder) Set(field string, value interface{}) *InsertBuilder {
	ib.values[field] = value
	return ib
}

// Execute runs the INSERT on db, or on the transaction bound to ctx when db is nil.
// Driver errors are returned wrapped in a *MutationError.
func (ib *InsertBuilder) Execute(ctx context.Context, db DB) (*InsertResult, error) {
	start := time.Now()

	if ib.err != nil {
		return nil, ib.err
	}

	db, err := resolveDB(ctx, db)
	if err != nil {
		return nil, err
	}

	table, sql, orderedValues, err := ib.generateSQL()
	if err != nil {
		return nil, err
	}

	Logger().Debug().Str("sql", sql).Interface("values", orderedValues).Msg("insert")

	rows, err := db.Query(ctx, sql, orderedValues...)
	if err != nil {
		return nil, &MutationError{Operation: MutationInsert.String(), Table: table, Err: err}
	}
	records, err := scanRows(rows)
	rows.Close()
	if err != nil {
		return nil, &MutationError{Operation: MutationInsert.String(), Table: table, Err: err}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("INSERT executed but returned no rows")
	}

	record := records[0]
	var id interface{}
	if pk := ib.entity.PrimaryKeyFields(); len(pk) == 1 {
		id = record[pk[0].ColumnName()]
	}

	Logger().Trace().Str("table", table).Dur("duration", time.Since(start)).Msg("insert done")

	return &InsertResult{ID: id, Record: record, Affected: 1}, nil
}

func (ib *InsertBuilder) generateSQL() (string, string, []interface{}, error) {
	table, err := ib.entity.TableName()
	if err != nil {
		return "", "", nil, err
	}

	fields := sortedKeys(ib.values)
	columns, err := ib.entity.Columns(fields...)
	if err != nil {
		return "", "", nil, err
	}

	placeholders := make([]string, len(fields))
	values := make([]interface{}, len(fields))
	for i, field := range fields {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		values[i] = ib.values[field]
	}

	var sql string
	if len(fields) == 0 {
		sql = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING *", quote(table))
	} else {
		sql = fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s) RETURNING *",
			quote(table),
			quoteList(columns),
			strings.Join(placeholders, ", "),
		)
	}

	return table, sql, values, nil
}

// ============================================================
// UPDATE BUILDER
// ============================================================

type UpdateBuilder struct {
	entity  *Entity
	filters map[string]interface{}
	updates map[string]interface{}
	err     error
}

// Update starts an UPDATE of the entity's table
func Update(entity *Entity) *UpdateBuilder {
	return &UpdateBuilder{
		entity:  entity,
		filters: make(map[string]interface{}),
		updates: make(map[string]interface{}),
	}
}

// Set adds a field to update
func (ub *UpdateBuilder) Set(field string, value interface{}) *UpdateBuilder {
	ub.updates[field] = value
	return ub
}

// Filter adds an equality condition (WHERE clause)
func (ub *UpdateBuilder) Filter(field string, value interface{}) *UpdateBuilder {
	ub.filters[field] = value
	return ub
}

// Execute runs the UPDATE on db, or on the transaction bound to ctx when db is nil
func (ub *UpdateBuilder) Execute(ctx context.Context, db DB) (*UpdateResult, error) {
	if ub.err != nil {
		return nil, ub.err
	}

	db, err := resolveDB(ctx, db)
	if err != nil {
		return nil, err
	}

	if len(ub.updates) == 0 {
		return nil, fmt.Errorf("UPDATE requires at least one field")
	}
	if len(ub.filters) == 0 {
		return nil, fmt.Errorf("UPDATE requires at least one filter")
	}

	table, sql, orderedValues, err := ub.generateSQL()
	if err != nil {
		return nil, err
	}

	Logger().Debug().Str("sql", sql).Interface("values", orderedValues).Msg("update")

	rows, err := db.Query(ctx, sql, orderedValues...)
	if err != nil {
		return nil, &MutationError{Operation: MutationUpdate.String(), Table: table, Err: err}
	}
	records, err := scanRows(rows)
	rows.Close()
	if err != nil {
		return nil, &MutationError{Operation: MutationUpdate.String(), Table: table, Err: err}
	}

	return &UpdateResult{Records: records, Affected: len(records)}, nil
}

func (ub *UpdateBuilder) generateSQL() (string, string, []interface{}, error) {
	table, err := ub.entity.TableName()
	if err != nil {
		return "", "", nil, err
	}

	var values []interface{}
	paramIndex := 1

	setFields := sortedKeys(ub.updates)
	setColumns, err := ub.entity.Columns(setFields...)
	if err != nil {
		return "", "", nil, err
	}
	setClauses := make([]string, len(setFields))
	for i, field := range setFields {
		setClauses[i] = fmt.Sprintf("%s = $%d", quote(setColumns[i]), paramIndex)
		values = append(values, ub.updates[field])
		paramIndex++
	}

	whereFields := sortedKeys(ub.filters)
	whereColumns, err := ub.entity.Columns(whereFields...)
	if err != nil {
		return "", "", nil, err
	}
	whereClauses := make([]string, len(whereFields))
	for i, field := range whereFields {
		whereClauses[i] = fmt.Sprintf("%s = $%d", quote(whereColumns[i]), paramIndex)
		values = append(values, ub.filters[field])
		paramIndex++
	}

	sql := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s RETURNING *",
		quote(table),
		strings.Join(setClauses, ", "),
		strings.Join(whereClauses, " AND "),
	)

	return table, sql, values, nil
}

// ============================================================
// DELETE BUILDER
// ============================================================

type DeleteBuilder struct {
	entity         *Entity
	filters        map[string]interface{}
	forceDeleteAll bool
	err            error
}

// Delete starts a DELETE from the entity's table
func Delete(entity *Entity) *DeleteBuilder {
	return &DeleteBuilder{
		entity:  entity,
		filters: make(map[string]interface{}),
	}
}

// Filter adds an equality condition (WHERE clause)
func (db *DeleteBuilder) Filter(field string, value interface{}) *DeleteBuilder {
	db.filters[field] = value
	return db
}

// All allows a DELETE without filters
func (db *DeleteBuilder) All() *DeleteBuilder {
	db.forceDeleteAll = true
	return db
}

// Execute runs the DELETE on conn, or on the transaction bound to ctx when conn is nil
func (db *DeleteBuilder) Execute(ctx context.Context, conn DB) (*DeleteResult, error) {
	if db.err != nil {
		return nil, db.err
	}

	conn, err := resolveDB(ctx, conn)
	if err != nil {
		return nil, err
	}

	if len(db.filters) == 0 && !db.forceDeleteAll {
		return nil, fmt.Errorf("DELETE without filters requires All()")
	}

	table, sql, orderedValues, err := db.generateSQL()
	if err != nil {
		return nil, err
	}

	Logger().Debug().Str("sql", sql).Interface("values", orderedValues).Msg("delete")

	commandTag, err := conn.Exec(ctx, sql, orderedValues...)
	if err != nil {
		return nil, &MutationError{Operation: MutationDelete.String(), Table: table, Err: err}
	}

	return &DeleteResult{Affected: int(commandTag.RowsAffected())}, nil
}

func (db *DeleteBuilder) generateSQL() (string, string, []interface{}, error) {
	table, err := db.entity.TableName()
	if err != nil {
		return "", "", nil, err
	}

	fields := sortedKeys(db.filters)
	columns, err := db.entity.Columns(fields...)
	if err != nil {
		return "", "", nil, err
	}

	if len(fields) == 0 {
		return table, fmt.Sprintf("DELETE FROM %s", quote(table)), nil, nil
	}

	whereClauses := make([]string, len(fields))
	values := make([]interface{}, len(fields))
	for i, field := range fields {
		whereClauses[i] = fmt.Sprintf("%s = $%d", quote(columns[i]), i+1)
		values[i] = db.filters[field]
	}

	sql := fmt.Sprintf(
		"DELETE FROM %s WHERE %s",
		quote(table),
		strings.Join(whereClauses, " AND "),
	)

	return table, sql, values, nil
}

// ============================================================
// UTILITIES
// ============================================================

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
