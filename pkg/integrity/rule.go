package integrity

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"

	"github.com/chameleon-db/chameleondb/integrity/pkg/engine"
)

// ErrEmptyConstraintName is returned when validating Named{} with no name
var ErrEmptyConstraintName = errors.New("constraint name is empty")

// ErrNotPrimaryKey is returned when PrimaryKey.Fields are not the entity's
// primary key
var ErrNotPrimaryKey = errors.New("fields are not the primary key")

// Rule identifies one constraint. It is implemented only by Named, Unique,
// PrimaryKey, NotNull and ForeignKey.
type Rule interface {
	fmt.Stringer
	isRule()
}

// Named matches a violation of the constraint with this exact name
type Named struct {
	Name string
}

// Unique matches a unique violation on exactly Fields, in order
type Unique struct {
	Model  *engine.Entity
	Fields []string
}

// PrimaryKey matches a unique violation on the primary key of Model. Fields
// may be left empty; when given they must be the primary key fields.
type PrimaryKey struct {
	Model  *engine.Entity
	Fields []string
}

// NotNull matches a not-null violation on Field
type NotNull struct {
	Model *engine.Entity
	Field string
}

// ForeignKey matches a foreign key violation on the relation stored in Field
type ForeignKey struct {
	Model *engine.Entity
	Field string
}

func (Named) isRule()      {}
func (Unique) isRule()     {}
func (PrimaryKey) isRule() {}
func (NotNull) isRule()    {}
func (ForeignKey) isRule() {}

func (r Named) String() string { return fmt.Sprintf("Named(%s)", r.Name) }
func (r Unique) String() string {
	return fmt.Sprintf("Unique(%s: %s)", entityName(r.Model), strings.Join(r.Fields, ", "))
}
func (r PrimaryKey) String() string {
	return fmt.Sprintf("PrimaryKey(%s)", entityName(r.Model))
}
func (r NotNull) String() string {
	return fmt.Sprintf("NotNull(%s.%s)", entityName(r.Model), r.Field)
}
func (r ForeignKey) String() string {
	return fmt.Sprintf("ForeignKey(%s.%s)", entityName(r.Model), r.Field)
}

func entityName(e *engine.Entity) string {
	if e == nil {
		return "<nil>"
	}
	return e.Name
}

var (
	uniqueDetail     = regexp.MustCompile(`^Key \((?P<fields>.+)\)=\(.*\) already exists\.`)
	foreignKeyDetail = regexp.MustCompile(`^Key \((?P<field>.+)\)=\((?P<value>.+)\) is not present in table`)
)

// target is a rule resolved against its entity: the violation code it
// answers to, and the constraint it names both by name and by shape.
type target struct {
	code    string
	name    string
	table   string
	columns []string
}

// resolve maps a rule to its target. Named never fails; the others fail with
// an *engine.ResolutionError when the entity or field cannot be resolved.
func resolve(rule Rule) (target, error) {
	switch r := rule.(type) {
	case Named:
		if r.Name == "" {
			return target{}, ErrEmptyConstraintName
		}
		return target{name: r.Name}, nil

	case Unique:
		table, err := r.Model.TableName()
		if err != nil {
			return target{}, err
		}
		name, err := engine.UniqueConstraintName(r.Model, r.Fields...)
		if err != nil {
			return target{}, err
		}
		cols, err := r.Model.Columns(r.Fields...)
		if err != nil {
			return target{}, err
		}
		return target{code: pgerrcode.UniqueViolation, name: name, table: table, columns: cols}, nil

	case PrimaryKey:
		table, err := r.Model.TableName()
		if err != nil {
			return target{}, err
		}
		name, err := engine.PrimaryKeyConstraintName(r.Model)
		if err != nil {
			return target{}, err
		}
		cols := make([]string, 0, len(r.Model.Fields))
		for _, f := range r.Model.PrimaryKeyFields() {
			cols = append(cols, f.ColumnName())
		}
		if len(r.Fields) > 0 {
			given, err := r.Model.Columns(r.Fields...)
			if err != nil {
				return target{}, err
			}
			if !equalColumns(given, cols) {
				return target{}, &engine.ResolutionError{
					Entity: r.Model.Name,
					Field:  strings.Join(r.Fields, ", "),
					Kind:   "primary_key",
					Err:    ErrNotPrimaryKey,
				}
			}
		}
		return target{code: pgerrcode.UniqueViolation, name: name, table: table, columns: cols}, nil

	case NotNull:
		table, err := r.Model.TableName()
		if err != nil {
			return target{}, err
		}
		cols, err := r.Model.Columns(r.Field)
		if err != nil {
			return target{}, err
		}
		return target{code: pgerrcode.NotNullViolation, table: table, columns: cols}, nil

	case ForeignKey:
		table, err := r.Model.TableName()
		if err != nil {
			return target{}, err
		}
		name, err := engine.ForeignKeyConstraintName(r.Model, r.Field)
		if err != nil {
			return target{}, err
		}
		cols, err := r.Model.Columns(r.Field)
		if err != nil {
			return target{}, err
		}
		return target{code: pgerrcode.ForeignKeyViolation, name: name, table: table, columns: cols}, nil

	case nil:
		return target{}, errors.New("nil rule")

	default:
		return target{}, fmt.Errorf("unsupported rule type %T", rule)
	}
}

// Match reports whether rule identifies the violation described by d.
// A rule that cannot be resolved matches nothing; RuleSet.Validate reports
// why.
func Match(rule Rule, d Diagnostics) bool {
	t, err := resolve(rule)
	if err != nil {
		return false
	}

	switch rule.(type) {
	case Named:
		return d.ConstraintName == t.name

	case Unique, PrimaryKey:
		if d.Code != t.code {
			return false
		}
		if d.ConstraintName != "" && d.ConstraintName == t.name {
			return true
		}
		return d.TableName == t.table && equalColumns(detailColumns(uniqueDetail, "fields", d.Detail), t.columns)

	case NotNull:
		return d.Code == t.code &&
			d.TableName == t.table &&
			d.ColumnName == t.columns[0]

	case ForeignKey:
		if d.Code != t.code {
			return false
		}
		if d.ConstraintName != "" && d.ConstraintName == t.name {
			return true
		}
		return d.TableName == t.table && equalColumns(detailColumns(foreignKeyDetail, "field", d.Detail), t.columns)

	default:
		return false
	}
}

// detailColumns pulls the column list out of a DETAIL line such as
// "Key (customer_id, sku)=(7, A-1) already exists."
func detailColumns(pattern *regexp.Regexp, group, detail string) []string {
	m := pattern.FindStringSubmatch(detail)
	if m == nil {
		return nil
	}
	cols := strings.Split(m[pattern.SubexpIndex(group)], ", ")
	for i, col := range cols {
		cols[i] = unquoteIdent(col)
	}
	return cols
}

// unquoteIdent undoes the double quoting PostgreSQL applies to identifiers
// such as "Email" in DETAIL lines
func unquoteIdent(col string) string {
	if len(col) >= 2 && col[0] == '"' && col[len(col)-1] == '"' {
		return strings.ReplaceAll(col[1:len(col)-1], `""`, `"`)
	}
	return col
}

func equalColumns(a, b []string) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
