package integrity

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chameleon-db/chameleondb/integrity/pkg/engine"
)

func TestNamedMatchesWithoutColumnOrTable(t *testing.T) {
	rule := Named{Name: "constraint_islowercase"}

	assert.True(t, Match(rule, Diagnostics{Code: pgerrcode.CheckViolation, ConstraintName: "constraint_islowercase"}))
	assert.False(t, Match(rule, Diagnostics{Code: pgerrcode.CheckViolation, ConstraintName: "constraint_isuppercase"}))
	assert.False(t, Match(rule, Diagnostics{Code: pgerrcode.CheckViolation}))
}

func TestUniqueMatch(t *testing.T) {
	schema := testSchema(t)
	user := schema.GetEntity("User")
	order := schema.GetEntity("Order")

	tests := []struct {
		name string
		rule Rule
		diag Diagnostics
		want bool
	}{
		{
			name: "by constraint name",
			rule: Unique{Model: user, Fields: []string{"email"}},
			diag: Diagnostics{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_uniq"},
			want: true,
		},
		{
			name: "by detail and table when the name differs",
			rule: Unique{Model: user, Fields: []string{"email"}},
			diag: Diagnostics{
				Code:           pgerrcode.UniqueViolation,
				ConstraintName: "users_email_key",
				TableName:      "users",
				Detail:         "Key (email)=(ada@example.com) already exists.",
			},
			want: true,
		},
		{
			name: "composite in order",
			rule: Unique{Model: order, Fields: []string{"customer_id", "sku"}},
			diag: Diagnostics{
				Code:      pgerrcode.UniqueViolation,
				TableName: "orders",
				Detail:    "Key (customer_id, sku)=(7, A-1) already exists.",
			},
			want: true,
		},
		{
			name: "composite out of order",
			rule: Unique{Model: order, Fields: []string{"customer_id", "sku"}},
			diag: Diagnostics{
				Code:      pgerrcode.UniqueViolation,
				TableName: "orders",
				Detail:    "Key (sku, customer_id)=(A-1, 7) already exists.",
			},
			want: false,
		},
		{
			name: "same column on another table",
			rule: Unique{Model: user, Fields: []string{"email"}},
			diag: Diagnostics{
				Code:      pgerrcode.UniqueViolation,
				TableName: "admins",
				Detail:    "Key (email)=(ada@example.com) already exists.",
			},
			want: false,
		},
		{
			name: "not a unique violation",
			rule: Unique{Model: user, Fields: []string{"email"}},
			diag: Diagnostics{Code: pgerrcode.NotNullViolation, ConstraintName: "users_email_uniq"},
			want: false,
		},
		{
			name: "no payload",
			rule: Unique{Model: user, Fields: []string{"email"}},
			diag: Diagnostics{Code: pgerrcode.UniqueViolation},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.rule, tt.diag))
		})
	}
}

func TestPrimaryKeyMatch(t *testing.T) {
	schema := testSchema(t)
	user := schema.GetEntity("User")

	byName := Diagnostics{Code: pgerrcode.UniqueViolation, ConstraintName: "users_pkey"}
	byDetail := Diagnostics{Code: pgerrcode.UniqueViolation, TableName: "users", Detail: "Key (id)=(1) already exists."}
	otherKey := Diagnostics{Code: pgerrcode.UniqueViolation, TableName: "users", Detail: "Key (email)=(a@b.c) already exists."}

	assert.True(t, Match(PrimaryKey{Model: user}, byName))
	assert.True(t, Match(PrimaryKey{Model: user}, byDetail))
	assert.True(t, Match(PrimaryKey{Model: user, Fields: []string{"id"}}, byDetail))
	assert.False(t, Match(PrimaryKey{Model: user}, otherKey))
}

func TestNotNullMatch(t *testing.T) {
	schema := testSchema(t)
	user := schema.GetEntity("User")
	rule := NotNull{Model: user, Field: "email"}

	assert.True(t, Match(rule, Diagnostics{Code: pgerrcode.NotNullViolation, TableName: "users", ColumnName: "email"}))
	assert.False(t, Match(rule, Diagnostics{Code: pgerrcode.NotNullViolation, TableName: "users", ColumnName: "name"}))
	assert.False(t, Match(rule, Diagnostics{Code: pgerrcode.NotNullViolation, TableName: "orders", ColumnName: "email"}))
	assert.False(t, Match(rule, Diagnostics{Code: pgerrcode.UniqueViolation, TableName: "users", ColumnName: "email"}))
}

func TestForeignKeyMatch(t *testing.T) {
	schema := testSchema(t)
	book := schema.GetEntity("Book")
	rule := ForeignKey{Model: book, Field: "author_id"}

	name, err := engine.ForeignKeyConstraintName(book, "author_id")
	require.NoError(t, err)

	assert.True(t, Match(rule, Diagnostics{Code: pgerrcode.ForeignKeyViolation, ConstraintName: name}))
	assert.True(t, Match(rule, Diagnostics{
		Code:      pgerrcode.ForeignKeyViolation,
		TableName: "books",
		Detail:    `Key (author_id)=(42) is not present in table "authors".`,
	}))
	assert.False(t, Match(rule, Diagnostics{
		Code:      pgerrcode.ForeignKeyViolation,
		TableName: "reviews",
		Detail:    `Key (author_id)=(42) is not present in table "authors".`,
	}))
	assert.False(t, Match(rule, Diagnostics{Code: pgerrcode.UniqueViolation, ConstraintName: name}))
}

func TestStructuralMatchQuotedColumns(t *testing.T) {
	author := &engine.Entity{
		Name:   "Author",
		Fields: []*engine.Field{{Name: "id", Type: engine.FieldTypeSerial, PrimaryKey: true}},
	}
	member := &engine.Entity{
		Name: "Member",
		Fields: []*engine.Field{
			{Name: "id", Type: engine.FieldTypeSerial, PrimaryKey: true},
			{Name: "email", Column: "Email", Type: engine.FieldTypeString, Unique: true},
			{Name: "handle", Column: `Odd"Handle`, Type: engine.FieldTypeString},
			{Name: "author", Column: "AuthorID", Type: engine.FieldTypeInt},
		},
		Uniques: []*engine.UniqueConstraint{{Fields: []string{"email", "handle"}}},
		Relations: []*engine.Relation{
			{Name: "writer", Kind: engine.RelationBelongsTo, TargetEntity: "Author", ForeignKey: strPtr("author")},
		},
	}
	_, err := engine.NewSchema(author, member)
	require.NoError(t, err)

	assert.True(t, Match(Unique{Model: member, Fields: []string{"email"}}, Diagnostics{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: "members_Email_key",
		TableName:      "members",
		Detail:         `Key ("Email")=(ada@example.com) already exists.`,
	}))
	assert.True(t, Match(Unique{Model: member, Fields: []string{"email", "handle"}}, Diagnostics{
		Code:      pgerrcode.UniqueViolation,
		TableName: "members",
		Detail:    `Key ("Email", "Odd""Handle")=(ada@example.com, ada) already exists.`,
	}))
	assert.True(t, Match(ForeignKey{Model: member, Field: "author"}, Diagnostics{
		Code:      pgerrcode.ForeignKeyViolation,
		TableName: "members",
		Detail:    `Key ("AuthorID")=(42) is not present in table "authors".`,
	}))
	assert.False(t, Match(Unique{Model: member, Fields: []string{"email"}}, Diagnostics{
		Code:      pgerrcode.UniqueViolation,
		TableName: "members",
		Detail:    `Key ("email")=(ada@example.com) already exists.`,
	}))
}

func TestResolutionErrors(t *testing.T) {
	schema := testSchema(t)
	user := schema.GetEntity("User")
	book := schema.GetEntity("Book")
	keyless := schema.GetEntity("AuditEntry")

	tests := []struct {
		name string
		rule Rule
		want error
	}{
		{name: "empty name", rule: Named{}, want: ErrEmptyConstraintName},
		{name: "unknown unique field", rule: Unique{Model: user, Fields: []string{"nickname"}}, want: engine.ErrFieldDoesNotExist},
		{name: "unique without fields", rule: Unique{Model: user}, want: engine.ErrFieldDoesNotExist},
		{name: "nil model", rule: NotNull{Field: "email"}, want: engine.ErrNoTableName},
		{name: "unknown not null field", rule: NotNull{Model: user, Field: "nickname"}, want: engine.ErrFieldDoesNotExist},
		{name: "no primary key", rule: PrimaryKey{Model: keyless}, want: engine.ErrModelHasNoPrimaryKey},
		{name: "fields are not the primary key", rule: PrimaryKey{Model: user, Fields: []string{"email"}}, want: ErrNotPrimaryKey},
		{name: "not a foreign key", rule: ForeignKey{Model: book, Field: "title"}, want: engine.ErrNotAForeignKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolve(tt.rule)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			if !errors.Is(tt.want, ErrEmptyConstraintName) {
				var resErr *engine.ResolutionError
				assert.ErrorAs(t, err, &resErr)
			}

			assert.False(t, Match(tt.rule, Diagnostics{Code: pgerrcode.UniqueViolation, ConstraintName: "anything"}))
		})
	}
}

func TestRuleString(t *testing.T) {
	schema := testSchema(t)
	order := schema.GetEntity("Order")

	assert.Equal(t, "Named(constraint_islowercase)", Named{Name: "constraint_islowercase"}.String())
	assert.Equal(t, "Unique(Order: customer_id, sku)", Unique{Model: order, Fields: []string{"customer_id", "sku"}}.String())
	assert.Equal(t, "NotNull(<nil>.email)", NotNull{Field: "email"}.String())
}
