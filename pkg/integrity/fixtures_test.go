package integrity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chameleon-db/chameleondb/integrity/pkg/engine"
)

func strPtr(s string) *string { return &s }

// testSchema declares users, orders, authors and books the way the
// migration generator would create them.
func testSchema(t *testing.T) *engine.Schema {
	t.Helper()

	user := &engine.Entity{
		Name: "User",
		Fields: []*engine.Field{
			{Name: "id", Type: engine.FieldTypeSerial, PrimaryKey: true},
			{Name: "email", Type: engine.FieldTypeString, Unique: true},
			{Name: "name", Type: engine.FieldTypeString, Nullable: true},
		},
	}
	order := &engine.Entity{
		Name: "Order",
		Fields: []*engine.Field{
			{Name: "id", Type: engine.FieldTypeSerial, PrimaryKey: true},
			{Name: "customer_id", Type: engine.FieldTypeInt},
			{Name: "sku", Type: engine.FieldTypeString},
		},
		Uniques: []*engine.UniqueConstraint{
			{Fields: []string{"customer_id", "sku"}, Deferrable: engine.InitiallyImmediate},
		},
	}
	author := &engine.Entity{
		Name: "Author",
		Fields: []*engine.Field{
			{Name: "id", Type: engine.FieldTypeSerial, PrimaryKey: true},
			{Name: "name", Type: engine.FieldTypeString},
		},
	}
	book := &engine.Entity{
		Name: "Book",
		Fields: []*engine.Field{
			{Name: "id", Type: engine.FieldTypeSerial, PrimaryKey: true},
			{Name: "title", Type: engine.FieldTypeString},
			{Name: "author_id", Type: engine.FieldTypeInt},
		},
		Relations: []*engine.Relation{
			{Name: "author", Kind: engine.RelationBelongsTo, TargetEntity: "Author", ForeignKey: strPtr("author_id")},
		},
	}
	keyless := &engine.Entity{
		Name:   "AuditEntry",
		Fields: []*engine.Field{{Name: "message", Type: engine.FieldTypeString}},
	}

	schema, err := engine.NewSchema(user, order, author, book, keyless)
	require.NoError(t, err)
	return schema
}
