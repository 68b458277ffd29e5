package postgres_test

import (
	"context"
	"testing"

	"github.com/sagarc03/r2gate/database/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_InvalidTableName(t *testing.T) {
	_, err := postgres.Connect(context.Background(), "postgres://localhost/none", "bad-name")
	assert.Error(t, err)
}

func TestDatabase_Ping(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	db, err := postgres.Connect(ctx, getDSN(pool), "ping_test")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.NoError(t, db.Ping(ctx))
}

func TestDatabase_MigrateAndValidate(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	tableName := "migrate_test_" + getRandomString(t)
	db, err := postgres.Connect(ctx, getDSN(pool), tableName)
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
		_ = dropTable(ctx, pool, tableName)
	}()

	err = db.Validate(ctx)
	require.Error(t, err, "validate before migrate")
	assert.Contains(t, err.Error(), "does not exist")

	require.NoError(t, db.Migrate(ctx))
	assert.NoError(t, db.Validate(ctx))

	require.NoError(t, db.Migrate(ctx), "migrate should be idempotent")
	assert.NoError(t, db.Validate(ctx))
}

func TestDatabase_ValidateWrongSchema(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	tableName := "wrong_schema_" + getRandomString(t)
	_, err := pool.Exec(ctx, "CREATE TABLE "+tableName+" (id TEXT PRIMARY KEY, username INTEGER)")
	require.NoError(t, err)
	defer func() { _ = dropTable(ctx, pool, tableName) }()

	db, err := postgres.Connect(ctx, getDSN(pool), tableName)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	err = db.Validate(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns")
}
