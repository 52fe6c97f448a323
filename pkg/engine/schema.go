package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Schema represents the complete database schema
type Schema struct {
	Entities []*Entity `json:"entities" yaml:"entities"`
}

// Entity represents a database entity (table)
type Entity struct {
	Name string `json:"name" yaml:"name"`
	// Table overrides the table name derived from Name
	Table     string              `json:"table,omitempty" yaml:"table,omitempty"`
	Fields    []*Field            `json:"fields" yaml:"fields"`
	Relations []*Relation         `json:"relations,omitempty" yaml:"relations,omitempty"`
	Uniques   []*UniqueConstraint `json:"unique_constraints,omitempty" yaml:"unique_constraints,omitempty"`
}

// Field represents an entity field (column)
type Field struct {
	Name string `json:"name" yaml:"name"`
	// Column overrides the column name, which defaults to Name
	Column     string    `json:"column,omitempty" yaml:"column,omitempty"`
	Type       FieldType `json:"field_type" yaml:"type"`
	Nullable   bool      `json:"nullable" yaml:"nullable"`
	Unique     bool      `json:"unique" yaml:"unique"`
	PrimaryKey bool      `json:"primary_key" yaml:"primary_key"`
	Default    *string   `json:"default,omitempty" yaml:"default,omitempty"`
}

// ColumnName returns the database column backing the field
func (f *Field) ColumnName() string {
	if f.Column != "" {
		return f.Column
	}
	return f.Name
}

// FieldType represents the type of a field and can be simple or complex
type FieldType struct {
	Kind  string      `json:"-"` // e.g., "UUID", "String", "Serial", "Array"
	Param interface{} `json:"-"` // e.g., inner type for Array
}

// Simple field type constants
var (
	FieldTypeUUID      = FieldType{Kind: "UUID"}
	FieldTypeString    = FieldType{Kind: "String"}
	FieldTypeInt       = FieldType{Kind: "Int"}
	FieldTypeSerial    = FieldType{Kind: "Serial"}
	FieldTypeDecimal   = FieldType{Kind: "Decimal"}
	FieldTypeBool      = FieldType{Kind: "Bool"}
	FieldTypeTimestamp = FieldType{Kind: "Timestamp"}
	FieldTypeFloat     = FieldType{Kind: "Float"}
)

// UnmarshalJSON deserializes FieldType from JSON
// Can be: "UUID" (string) or {"Array": "String"} (object)
func (ft *FieldType) UnmarshalJSON(data []byte) error {
	// Try as string first (simple types)
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*ft = FieldType{Kind: s}
		return nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err == nil {
		return ft.fromObject(obj)
	}

	return fmt.Errorf("cannot unmarshal FieldType from %s", string(data))
}

// UnmarshalYAML accepts the same two shapes as UnmarshalJSON
func (ft *FieldType) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*ft = FieldType{Kind: node.Value}
		return nil
	case yaml.MappingNode:
		var obj map[string]interface{}
		if err := node.Decode(&obj); err != nil {
			return err
		}
		return ft.fromObject(obj)
	default:
		return fmt.Errorf("cannot unmarshal FieldType from line %d", node.Line)
	}
}

func (ft *FieldType) fromObject(obj map[string]interface{}) error {
	// Should have exactly one key
	if len(obj) != 1 {
		return fmt.Errorf("invalid FieldType object: expected 1 key, got %d", len(obj))
	}
	for key, value := range obj {
		*ft = FieldType{Kind: key, Param: value}
	}
	return nil
}

// MarshalJSON serializes FieldType to JSON
func (ft FieldType) MarshalJSON() ([]byte, error) {
	if ft.Param == nil {
		return json.Marshal(ft.Kind)
	}
	obj := map[string]interface{}{ft.Kind: ft.Param}
	return json.Marshal(obj)
}

// String returns a string representation of the FieldType
func (ft FieldType) String() string {
	if ft.Param == nil {
		return ft.Kind
	}
	return fmt.Sprintf("%s(%v)", ft.Kind, ft.Param)
}

// Relation represents a relationship between entities
type Relation struct {
	Name         string       `json:"name" yaml:"name"`
	Kind         RelationKind `json:"kind" yaml:"kind"`
	TargetEntity string       `json:"target_entity" yaml:"target_entity"`
	// ForeignKey names the field on this entity holding the reference
	ForeignKey *string       `json:"foreign_key,omitempty" yaml:"foreign_key,omitempty"`
	Deferrable Deferrability `json:"deferrable,omitempty" yaml:"deferrable,omitempty"`

	target *Entity
}

// Target returns the entity the relation points at, once the schema is linked
func (r *Relation) Target() *Entity {
	return r.target
}

// RelationKind represents the type of relationship
type RelationKind string

const (
	RelationHasOne    RelationKind = "HasOne"
	RelationHasMany   RelationKind = "HasMany"
	RelationBelongsTo RelationKind = "BelongsTo"
)

// UniqueConstraint declares a (possibly composite) unique constraint.
// Name is optional; the generated name is used when empty.
type UniqueConstraint struct {
	Name       string        `json:"name,omitempty" yaml:"name,omitempty"`
	Fields     []string      `json:"fields" yaml:"fields"`
	Deferrable Deferrability `json:"deferrable,omitempty" yaml:"deferrable,omitempty"`
}

// Deferrability mirrors the DEFERRABLE clause of a constraint.
// The zero value selects the default for the constraint kind: foreign keys
// are DEFERRABLE INITIALLY DEFERRED, everything else is NOT DEFERRABLE.
type Deferrability string

const (
	NotDeferrable      Deferrability = "not_deferrable"
	InitiallyImmediate Deferrability = "immediate"
	InitiallyDeferred  Deferrability = "deferred"
)

func (d Deferrability) orDefault(def Deferrability) Deferrability {
	if d == "" {
		return def
	}
	return d
}

// SQL renders the clause appended to a constraint definition
func (d Deferrability) SQL() string {
	switch d {
	case InitiallyImmediate:
		return " DEFERRABLE INITIALLY IMMEDIATE"
	case InitiallyDeferred:
		return " DEFERRABLE INITIALLY DEFERRED"
	default:
		return ""
	}
}

// NewSchema builds a linked schema from entities
func NewSchema(entities ...*Entity) (*Schema, error) {
	s := &Schema{Entities: entities}
	if err := s.Link(); err != nil {
		return nil, err
	}
	return s, nil
}

// Link resolves relation targets. It must run before foreign key names can be
// resolved; the parse helpers call it for you.
func (s *Schema) Link() error {
	for _, entity := range s.Entities {
		for _, rel := range entity.Relations {
			target := s.GetEntity(rel.TargetEntity)
			if target == nil {
				return fmt.Errorf("relation %s.%s: unknown target entity '%s'", entity.Name, rel.Name, rel.TargetEntity)
			}
			rel.target = target
		}
	}
	return nil
}

// GetEntity returns an entity by name, or nil if not found
func (s *Schema) GetEntity(name string) *Entity {
	for _, entity := range s.Entities {
		if entity.Name == name {
			return entity
		}
	}
	return nil
}

// ParseSchemaJSON parses a JSON string into a Schema
func ParseSchemaJSON(jsonStr string) (*Schema, error) {
	var schema Schema
	if err := json.Unmarshal([]byte(jsonStr), &schema); err != nil {
		return nil, err
	}
	if err := schema.Link(); err != nil {
		return nil, err
	}
	return &schema, nil
}

// ParseSchemaYAML parses a YAML document into a Schema
func ParseSchemaYAML(data []byte) (*Schema, error) {
	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, err
	}
	if err := schema.Link(); err != nil {
		return nil, err
	}
	return &schema, nil
}

// LoadSchemaFile reads a .json, .yml or .yaml schema file
func LoadSchemaFile(path string) (*Schema, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseSchemaJSON(string(content))
	case ".yml", ".yaml":
		return ParseSchemaYAML(content)
	default:
		return nil, fmt.Errorf("unsupported schema file extension: %s", filepath.Ext(path))
	}
}

// ToJSON converts a Schema to JSON string
func (s *Schema) ToJSON() (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ─────────────────────────────────────────────────────────────
// Entity helpers
// ─────────────────────────────────────────────────────────────

// Field looks a field up by name, falling back to its column name
func (e *Entity) Field(name string) *Field {
	for _, f := range e.Fields {
		if f.Name == name {
			return f
		}
	}
	for _, f := range e.Fields {
		if f.ColumnName() == name {
			return f
		}
	}
	return nil
}

// PrimaryKeyFields returns the primary key fields in declaration order
func (e *Entity) PrimaryKeyFields() []*Field {
	var pk []*Field
	for _, f := range e.Fields {
		if f.PrimaryKey {
			pk = append(pk, f)
		}
	}
	return pk
}

// TableName returns the table backing the entity.
// Table wins; otherwise the name is converted to a plural snake_case table.
func (e *Entity) TableName() (string, error) {
	if e == nil {
		return "", &ResolutionError{Kind: "table", Err: ErrNoTableName}
	}
	if e.Table != "" {
		return e.Table, nil
	}
	if e.Name == "" {
		return "", &ResolutionError{Kind: "table", Err: ErrNoTableName}
	}
	return entityToTableName(e.Name), nil
}

// columns maps field names to column names, failing on the first unknown field
func (e *Entity) columns(kind string, fields []string) ([]string, error) {
	cols := make([]string, 0, len(fields))
	for _, name := range fields {
		f := e.Field(name)
		if f == nil {
			return nil, &ResolutionError{Entity: e.Name, Field: name, Kind: kind, Err: ErrFieldDoesNotExist}
		}
		cols = append(cols, f.ColumnName())
	}
	return cols, nil
}

// Columns resolves field names to column names
func (e *Entity) Columns(fields ...string) ([]string, error) {
	return e.columns("column", fields)
}

// foreignKeyRelation returns the BelongsTo relation stored in field f
func (e *Entity) foreignKeyRelation(f *Field) *Relation {
	for _, rel := range e.Relations {
		if rel.Kind != RelationBelongsTo || rel.ForeignKey == nil {
			continue
		}
		if *rel.ForeignKey == f.Name || *rel.ForeignKey == f.ColumnName() {
			return rel
		}
	}
	return nil
}

// entityToTableName converts entity name to table name
// Handles pluralization and snake_case conversion
//
// Examples:
//
//	User → users
//	OrderItem → order_items
//	Person → people
func entityToTableName(entity string) string {
	// Convert PascalCase to snake_case
	var result []rune
	for i, r := range entity {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result = append(result, '_')
		}
		result = append(result, r)
	}

	name := strings.ToLower(string(result))

	// Only the last word is pluralised
	prefix, last := "", name
	if i := strings.LastIndex(name, "_"); i >= 0 {
		prefix, last = name[:i+1], name[i+1:]
	}

	if plural, ok := irregularPlurals[last]; ok {
		return prefix + plural
	}

	switch {
	case strings.HasSuffix(last, "s"):
	case len(last) > 1 && last[len(last)-1] == 'y' && !strings.ContainsRune("aeiou", rune(last[len(last)-2])):
		last = last[:len(last)-1] + "ies"
	default:
		last += "s"
	}

	return prefix + last
}
