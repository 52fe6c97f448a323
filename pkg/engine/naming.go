package engine

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// MaxIdentifierLength is PostgreSQL's NAMEDATALEN-1
const MaxIdentifierLength = 63

// ConstraintName builds an identifier from a table, its columns and a suffix
// the way Django's schema editor builds index and foreign key names:
//
//	<table>_<col1>_<col2>_<digest><suffix>
//
// digest is the first 8 hex chars of md5(table + col1 + col2 ...). When the
// result exceeds 63 bytes the table and column parts are truncated and the
// digest keeps the name unique.
func ConstraintName(table string, columns []string, suffix string) string {
	hashSuffix := namesDigestOf(table, columns) + suffix
	name := fmt.Sprintf("%s_%s_%s", table, strings.Join(columns, "_"), hashSuffix)
	return fitName(name, table, columns, hashSuffix)
}

// readableName is ConstraintName without the digest, used for names that
// PostgreSQL users expect to read (unique constraints). The digest only
// appears once the name must be shortened.
func readableName(table string, columns []string, suffix string) string {
	name := fmt.Sprintf("%s_%s%s", table, strings.Join(columns, "_"), suffix)
	return fitName(name, table, columns, namesDigestOf(table, columns)+suffix)
}

// fitName returns name when it fits in an identifier, otherwise a shortened
// <table>_<columns>_<hashSuffix> with each part cut to an equal share.
func fitName(name, table string, columns []string, hashSuffix string) string {
	if len(name) <= MaxIdentifierLength {
		return name
	}

	if len(hashSuffix) > MaxIdentifierLength/3 {
		hashSuffix = hashSuffix[:MaxIdentifierLength/3]
	}
	otherLength := (MaxIdentifierLength-len(hashSuffix))/2 - 1

	name = fmt.Sprintf("%s_%s_%s", truncate(table, otherLength), truncate(strings.Join(columns, "_"), otherLength), hashSuffix)

	// Identifiers may not start with an underscore or a digit
	if name[0] == '_' || (name[0] >= '0' && name[0] <= '9') {
		name = "D" + name[:len(name)-1]
	}
	return name
}

func namesDigest(parts ...string) string {
	h := md5.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))[:8]
}

func namesDigestOf(table string, columns []string) string {
	return namesDigest(append([]string{table}, columns...)...)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ============================================================
// RESOLVER
// ============================================================

// ForeignKeyConstraintName returns the name the migration generator gives the
// foreign key stored in field. field may be the field name or its column.
func ForeignKeyConstraintName(e *Entity, field string) (string, error) {
	table, err := e.TableName()
	if err != nil {
		return "", err
	}

	f := e.Field(field)
	if f == nil {
		return "", &ResolutionError{Entity: e.Name, Field: field, Kind: "foreign_key", Err: ErrFieldDoesNotExist}
	}

	rel := e.foreignKeyRelation(f)
	if rel == nil {
		return "", &ResolutionError{Entity: e.Name, Field: field, Kind: "foreign_key", Err: ErrNotAForeignKey}
	}

	toTable, toColumn, err := referencedKey(e, field, rel)
	if err != nil {
		return "", err
	}

	return ConstraintName(table, []string{f.ColumnName()}, fmt.Sprintf("_fk_%s_%s", toTable, toColumn)), nil
}

// referencedKey returns the table and primary key column a relation targets
func referencedKey(e *Entity, field string, rel *Relation) (string, string, error) {
	target := rel.Target()
	if target == nil {
		return "", "", &ResolutionError{Entity: e.Name, Field: field, Kind: "foreign_key", Err: ErrUnlinkedRelation}
	}

	toTable, err := target.TableName()
	if err != nil {
		return "", "", err
	}

	pk := target.PrimaryKeyFields()
	if len(pk) != 1 {
		return "", "", &ResolutionError{Entity: target.Name, Kind: "foreign_key", Err: ErrModelHasNoPrimaryKey}
	}
	return toTable, pk[0].ColumnName(), nil
}

// UniqueConstraintName returns the name of the unique constraint covering
// exactly fields, in order. An explicitly named UniqueConstraint wins over
// the generated <table>_<columns>_uniq name.
func UniqueConstraintName(e *Entity, fields ...string) (string, error) {
	table, err := e.TableName()
	if err != nil {
		return "", err
	}
	if len(fields) == 0 {
		return "", &ResolutionError{Entity: e.Name, Kind: "unique", Err: ErrFieldDoesNotExist}
	}

	cols, err := e.columns("unique", fields)
	if err != nil {
		return "", err
	}

	for _, uc := range e.Uniques {
		if uc.Name == "" {
			continue
		}
		ucCols, err := e.columns("unique", uc.Fields)
		if err != nil {
			return "", err
		}
		if equalStrings(ucCols, cols) {
			return uc.Name, nil
		}
	}

	return readableName(table, cols, "_uniq"), nil
}

// PrimaryKeyConstraintName returns <table>_pkey, PostgreSQL's default name
func PrimaryKeyConstraintName(e *Entity) (string, error) {
	table, err := e.TableName()
	if err != nil {
		return "", err
	}
	if len(e.PrimaryKeyFields()) == 0 {
		return "", &ResolutionError{Entity: e.Name, Kind: "primary_key", Err: ErrModelHasNoPrimaryKey}
	}

	name := table + "_pkey"
	if len(name) > MaxIdentifierLength {
		name = truncate(table, MaxIdentifierLength-len("_pkey")) + "_pkey"
	}
	return name, nil
}

// ConstraintKind classifies a resolved constraint name
type ConstraintKind string

const (
	KindPrimaryKey ConstraintKind = "primary_key"
	KindUnique     ConstraintKind = "unique"
	KindForeignKey ConstraintKind = "foreign_key"
)

// ResolvedConstraint is one constraint the migration generator creates for an entity
type ResolvedConstraint struct {
	Entity     string
	Table      string
	Kind       ConstraintKind
	Name       string
	Columns    []string
	Deferrable Deferrability
}

// ResolveConstraints lists every named constraint generated for e, in
// primary key, unique, foreign key order.
func ResolveConstraints(e *Entity) ([]ResolvedConstraint, error) {
	table, err := e.TableName()
	if err != nil {
		return nil, err
	}

	var out []ResolvedConstraint

	if pk := e.PrimaryKeyFields(); len(pk) > 0 {
		name, err := PrimaryKeyConstraintName(e)
		if err != nil {
			return nil, err
		}
		out = append(out, ResolvedConstraint{
			Entity: e.Name, Table: table, Kind: KindPrimaryKey, Name: name,
			Columns: fieldColumns(pk), Deferrable: NotDeferrable,
		})
	}

	for _, f := range e.Fields {
		if !f.Unique || f.PrimaryKey || declaredUnique(e, f) {
			continue
		}
		name, err := UniqueConstraintName(e, f.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, ResolvedConstraint{
			Entity: e.Name, Table: table, Kind: KindUnique, Name: name,
			Columns: []string{f.ColumnName()}, Deferrable: NotDeferrable,
		})
	}

	for _, uc := range e.Uniques {
		name, err := UniqueConstraintName(e, uc.Fields...)
		if err != nil {
			return nil, err
		}
		cols, _ := e.Columns(uc.Fields...)
		out = append(out, ResolvedConstraint{
			Entity: e.Name, Table: table, Kind: KindUnique, Name: name,
			Columns: cols, Deferrable: uc.Deferrable.orDefault(NotDeferrable),
		})
	}

	for _, rel := range e.Relations {
		if rel.Kind != RelationBelongsTo || rel.ForeignKey == nil {
			continue
		}
		name, err := ForeignKeyConstraintName(e, *rel.ForeignKey)
		if err != nil {
			return nil, err
		}
		cols, err := e.Columns(*rel.ForeignKey)
		if err != nil {
			return nil, err
		}
		out = append(out, ResolvedConstraint{
			Entity: e.Name, Table: table, Kind: KindForeignKey, Name: name,
			Columns: cols, Deferrable: rel.Deferrable.orDefault(InitiallyDeferred),
		})
	}

	return out, nil
}

// declaredUnique reports whether a single-field UniqueConstraint already
// covers f, in which case it carries the deferrability and name
func declaredUnique(e *Entity, f *Field) bool {
	for _, uc := range e.Uniques {
		if len(uc.Fields) == 1 && e.Field(uc.Fields[0]) == f {
			return true
		}
	}
	return false
}

func fieldColumns(fields []*Field) []string {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.ColumnName()
	}
	return cols
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
