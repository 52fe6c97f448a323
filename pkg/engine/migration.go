package engine

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// GenerateMigration renders CREATE TABLE statements for every entity,
// followed by the foreign keys. Constraint names come from the resolver so
// rules declared against the schema always match what the database reports.
func (s *Schema) GenerateMigration() (string, error) {
	if s == nil || len(s.Entities) == 0 {
		return "", fmt.Errorf("no schema loaded")
	}

	var tables []string
	var foreignKeys []string

	for _, entity := range s.Entities {
		table, err := entity.TableName()
		if err != nil {
			return "", err
		}

		resolved, err := ResolveConstraints(entity)
		if err != nil {
			return "", err
		}

		var lines []string
		for _, f := range entity.Fields {
			lines = append(lines, columnDefinition(f))
		}

		for _, c := range resolved {
			switch c.Kind {
			case KindPrimaryKey:
				lines = append(lines, fmt.Sprintf("CONSTRAINT %s PRIMARY KEY (%s)", quote(c.Name), quoteList(c.Columns)))
			case KindUnique:
				lines = append(lines, fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)%s", quote(c.Name), quoteList(c.Columns), c.Deferrable.SQL()))
			case KindForeignKey:
				fk, err := foreignKeyStatement(entity, table, c)
				if err != nil {
					return "", err
				}
				foreignKeys = append(foreignKeys, fk)
			}
		}

		tables = append(tables, fmt.Sprintf("CREATE TABLE %s (\n    %s\n);", quote(table), strings.Join(lines, ",\n    ")))
	}

	return strings.Join(append(tables, foreignKeys...), "\n\n") + "\n", nil
}

func foreignKeyStatement(entity *Entity, table string, c ResolvedConstraint) (string, error) {
	f := entity.Field(c.Columns[0])
	rel := entity.foreignKeyRelation(f)
	toTable, toColumn, err := referencedKey(entity, f.Name, rel)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)%s;",
		quote(table), quote(c.Name), quoteList(c.Columns), quote(toTable), quote(toColumn), c.Deferrable.SQL(),
	), nil
}

func columnDefinition(f *Field) string {
	var b strings.Builder
	b.WriteString(quote(f.ColumnName()))
	b.WriteString(" ")
	b.WriteString(sqlType(f.Type))

	if f.Type.Kind == FieldTypeSerial.Kind {
		b.WriteString(" GENERATED BY DEFAULT AS IDENTITY")
	}
	if !f.Nullable || f.PrimaryKey {
		b.WriteString(" NOT NULL")
	}
	if f.Default != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(*f.Default)
	}
	return b.String()
}

// sqlType maps a field type to its PostgreSQL column type
func sqlType(ft FieldType) string {
	switch ft.Kind {
	case "UUID":
		return "uuid"
	case "String":
		switch n := ft.Param.(type) {
		case int:
			return fmt.Sprintf("varchar(%d)", n)
		case float64:
			return fmt.Sprintf("varchar(%d)", int(n))
		}
		return "text"
	case "Int", "Serial":
		return "bigint"
	case "Decimal":
		return "numeric"
	case "Bool":
		return "boolean"
	case "Timestamp":
		return "timestamptz"
	case "Float":
		return "double precision"
	case "Array":
		if inner, ok := ft.Param.(string); ok {
			return sqlType(FieldType{Kind: inner}) + "[]"
		}
		return "text[]"
	default:
		return strings.ToLower(ft.Kind)
	}
}

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return strings.Join(quoted, ", ")
}
