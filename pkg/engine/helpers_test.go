package engine

import (
	"strings"
	"testing"
)

func assertContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Errorf("Expected output to contain %q\n\nGot:\n%s", needle, haystack)
	}
}

func strPtr(s string) *string { return &s }

// shopSchema is a small linked schema: users, orders with a composite
// unique constraint, and order items referencing orders.
func shopSchema(t *testing.T) *Schema {
	t.Helper()

	schema, err := NewSchema(
		&Entity{
			Name: "User",
			Fields: []*Field{
				{Name: "id", Type: FieldTypeUUID, PrimaryKey: true},
				{Name: "email", Type: FieldTypeString, Unique: true},
				{Name: "name", Type: FieldTypeString, Nullable: true},
			},
		},
		&Entity{
			Name: "Order",
			Fields: []*Field{
				{Name: "id", Type: FieldTypeSerial, PrimaryKey: true},
				{Name: "customer_id", Type: FieldTypeUUID},
				{Name: "sku", Type: FieldTypeString},
			},
			Relations: []*Relation{
				{Name: "customer", Kind: RelationBelongsTo, TargetEntity: "User", ForeignKey: strPtr("customer_id")},
			},
			Uniques: []*UniqueConstraint{
				{Fields: []string{"customer_id", "sku"}, Deferrable: InitiallyImmediate},
			},
		},
		&Entity{
			Name: "OrderItem",
			Fields: []*Field{
				{Name: "id", Type: FieldTypeSerial, PrimaryKey: true},
				{Name: "order_id", Type: FieldTypeInt},
				{Name: "quantity", Type: FieldTypeInt},
			},
			Relations: []*Relation{
				{Name: "order", Kind: RelationBelongsTo, TargetEntity: "Order", ForeignKey: strPtr("order_id"), Deferrable: NotDeferrable},
			},
		},
	)
	if err != nil {
		t.Fatalf("Failed to build schema: %v", err)
	}
	return schema
}
