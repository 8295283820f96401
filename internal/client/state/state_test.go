package state

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE launcher_state (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`)
	require.NoError(t, err)
	return db
}

func TestSetGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyDeviceID, "dev-1"))

	v, ok, err := r.Get(ctx, KeyDeviceID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dev-1", v)
}

func TestGet_Missing(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, ok, err := r.Get(context.Background(), KeyAppToken)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestSet_Overwrites(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyAppToken, "old"))
	require.NoError(t, r.Set(ctx, KeyAppToken, "new"))

	v, _, err := r.Get(ctx, KeyAppToken)
	require.NoError(t, err)
	assert.Equal(t, "new", v)
}

func TestDelete_ManyAndMissing(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyAppToken, "t"))
	require.NoError(t, r.Set(ctx, KeyEmail, "a@b.c"))
	require.NoError(t, r.Set(ctx, KeyDeviceID, "dev"))

	require.NoError(t, r.Delete(ctx, KeyAppToken, KeyEmail, KeyGames))

	_, ok, err := r.Get(ctx, KeyAppToken)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = r.Get(ctx, KeyDeviceID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, _, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, `read state "k"`)
	require.ErrorContains(t, r.Set(ctx, "k", "v"), `write state "k"`)
	require.ErrorContains(t, r.Delete(ctx, "k"), `delete state "k"`)
}
