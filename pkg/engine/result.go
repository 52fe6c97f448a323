package engine

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Row represents a single result row as a map of column name → value
// Values are typed: string, int64, float64, bool, nil, time.Time
type Row map[string]interface{}

// Get returns the value of a field
func (r Row) Get(field string) interface{} {
	return r[field]
}

// String returns the string value of a field, or empty string if not found/not string
func (r Row) String(field string) string {
	v, ok := r[field]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return s
}

// Int returns the int64 value of a field, or 0 if not found/not int
func (r Row) Int(field string) int64 {
	v, ok := r[field]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// scanRows converts pgx rows into our Row type
func scanRows(rows pgx.Rows) ([]Row, error) {
	var result []Row
	columns := rows.FieldDescriptions()

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row)
		for i, col := range columns {
			row[col.Name] = values[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
