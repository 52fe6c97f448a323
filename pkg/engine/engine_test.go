package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineNotConnected(t *testing.T) {
	eng := NewEngine(shopSchema(t))

	assert.False(t, eng.IsConnected())
	assert.Nil(t, eng.Connector())
	assert.Error(t, eng.Ping(context.Background()))
	assert.Error(t, eng.RunInTx(context.Background(), func(ctx context.Context, tx pgx.Tx) error {
		return nil
	}))
	eng.Close()
}

func TestEngineWithSchemaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(shopYAML), 0644))

	eng, err := NewEngineWithSchema(path)
	require.NoError(t, err)
	assertShop(t, eng.Schema())

	_, err = NewEngineWithSchema(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEngineConstraints(t *testing.T) {
	eng := NewEngine(shopSchema(t))

	all, err := eng.Constraints()
	require.NoError(t, err)

	names := make([]string, len(all))
	for i, c := range all {
		names[i] = c.Name
	}
	assert.Equal(t, []string{
		"users_pkey",
		"users_email_uniq",
		"orders_pkey",
		"orders_customer_id_sku_uniq",
		"orders_customer_id_b7016332_fk_users_id",
		"order_items_pkey",
		"order_items_order_id_412ad78b_fk_orders_id",
	}, names)
}

func TestEngineWithoutSchema(t *testing.T) {
	eng := NewEngine(nil)

	_, err := eng.GenerateMigration()
	assert.Error(t, err)
	_, err = eng.Constraints()
	assert.Error(t, err)
	_, err = eng.Entity("User")
	assert.Error(t, err)
}

func TestEngineUnknownEntity(t *testing.T) {
	eng := NewEngine(shopSchema(t))
	db := &recordingDB{}

	_, err := eng.Insert("Invoice").Set("total", 10).Execute(context.Background(), db)
	assert.ErrorIs(t, err, ErrUnknownEntity)

	_, err = eng.Update("Invoice").Set("total", 10).Filter("id", 1).Execute(context.Background(), db)
	assert.ErrorIs(t, err, ErrUnknownEntity)

	_, err = eng.Delete("Invoice").All().Execute(context.Background(), db)
	assert.ErrorIs(t, err, ErrUnknownEntity)

	assert.Empty(t, db.sql)
}

func TestEngineDelete(t *testing.T) {
	eng := NewEngine(shopSchema(t))
	db := &recordingDB{}

	result, err := eng.Delete("OrderItem").Filter("order_id", 3).Execute(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Affected)
	assert.Equal(t, []string{`DELETE FROM "order_items" WHERE "order_id" = $1`}, db.sql)
}
