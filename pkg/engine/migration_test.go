package engine

import (
	"strings"
	"testing"
)

func TestGenerateMigration(t *testing.T) {
	schema := shopSchema(t)

	sql, err := schema.GenerateMigration()
	if err != nil {
		t.Fatalf("GenerateMigration failed: %v", err)
	}

	fkName, err := ForeignKeyConstraintName(schema.GetEntity("Order"), "customer_id")
	if err != nil {
		t.Fatalf("ForeignKeyConstraintName failed: %v", err)
	}

	assertContains(t, sql, `CREATE TABLE "users"`)
	assertContains(t, sql, `CREATE TABLE "orders"`)
	assertContains(t, sql, `CREATE TABLE "order_items"`)
	assertContains(t, sql, `CONSTRAINT "users_pkey" PRIMARY KEY ("id")`)
	assertContains(t, sql, `CONSTRAINT "users_email_uniq" UNIQUE ("email")`)
	assertContains(t, sql, `CONSTRAINT "orders_customer_id_sku_uniq" UNIQUE ("customer_id", "sku") DEFERRABLE INITIALLY IMMEDIATE`)
	assertContains(t, sql, `"id" bigint GENERATED BY DEFAULT AS IDENTITY NOT NULL`)
	assertContains(t, sql, `"name" text`)
	assertContains(t, sql, `ALTER TABLE "orders" ADD CONSTRAINT "`+fkName+`" FOREIGN KEY ("customer_id") REFERENCES "users" ("id") DEFERRABLE INITIALLY DEFERRED;`)

	if strings.Contains(sql, `"name" text NOT NULL`) {
		t.Error("Nullable field should not be NOT NULL")
	}
}

func TestGenerateMigrationNotDeferrableForeignKey(t *testing.T) {
	schema := shopSchema(t)

	sql, err := schema.GenerateMigration()
	if err != nil {
		t.Fatalf("GenerateMigration failed: %v", err)
	}

	fkName, err := ForeignKeyConstraintName(schema.GetEntity("OrderItem"), "order_id")
	if err != nil {
		t.Fatalf("ForeignKeyConstraintName failed: %v", err)
	}

	assertContains(t, sql, `ADD CONSTRAINT "`+fkName+`" FOREIGN KEY ("order_id") REFERENCES "orders" ("id");`)
}

func TestGenerateMigrationTablesBeforeForeignKeys(t *testing.T) {
	sql, err := shopSchema(t).GenerateMigration()
	if err != nil {
		t.Fatalf("GenerateMigration failed: %v", err)
	}

	lastCreate := strings.LastIndex(sql, "CREATE TABLE")
	firstAlter := strings.Index(sql, "ALTER TABLE")
	if firstAlter < lastCreate {
		t.Error("Foreign keys must be added after every table exists")
	}
}

func TestGenerateMigrationNoSchema(t *testing.T) {
	var schema *Schema

	if _, err := schema.GenerateMigration(); err == nil {
		t.Fatal("Expected error when no schema loaded")
	}
	if _, err := (&Schema{}).GenerateMigration(); err == nil {
		t.Fatal("Expected error for an empty schema")
	}
}

func TestSQLType(t *testing.T) {
	tests := map[string]FieldType{
		"uuid":             FieldTypeUUID,
		"text":             FieldTypeString,
		"varchar(80)":      {Kind: "String", Param: 80},
		"bigint":           FieldTypeSerial,
		"numeric":          FieldTypeDecimal,
		"text[]":           {Kind: "Array"},
		"bigint[]":         {Kind: "Array", Param: "Int"},
		"double precision": {Kind: "Float"},
	}

	for want, ft := range tests {
		if got := sqlType(ft); got != want {
			t.Errorf("sqlType(%v) = %s, want %s", ft, got, want)
		}
	}
}
