package storage

import (
	"context"
	"testing"

	"github.com/driftlog/aiops/types"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func TestCredentialStore_CreateAndActiveFor(t *testing.T) {
	db := openTestDB(t)
	store := NewCredentialStore(db)
	ctx := context.Background()

	older := &ProviderCredentialModel{Provider: string(types.ProviderGemini), IsActive: true, Preview: "…aaaa"}
	require.NoError(t, store.Create(ctx, older))

	newer := &ProviderCredentialModel{Provider: string(types.ProviderGemini), IsActive: true, Preview: "…bbbb"}
	newer.CreatedAt = older.CreatedAt.Add(1)
	require.NoError(t, store.Create(ctx, newer))

	active, err := store.ActiveFor(ctx, types.ProviderGemini)
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, newer.ID, active.ID)
}

func TestCredentialStore_ActiveForNoneReturnsNil(t *testing.T) {
	db := openTestDB(t)
	store := NewCredentialStore(db)

	active, err := store.ActiveFor(context.Background(), types.ProviderOpenAI)
	require.NoError(t, err)
	require.Nil(t, active)
}

func TestCredentialStore_GetNotFound(t *testing.T) {
	db := openTestDB(t)
	store := NewCredentialStore(db)

	_, err := store.Get(context.Background(), "missing")
	require.Error(t, err)
	require.Equal(t, types.ErrNotFound, types.GetErrorCode(err))
}

func TestCredentialStore_DeleteAndList(t *testing.T) {
	db := openTestDB(t)
	store := NewCredentialStore(db)
	ctx := context.Background()

	c := &ProviderCredentialModel{Provider: string(types.ProviderOpenAI)}
	require.NoError(t, store.Create(ctx, c))

	rows, err := store.List(ctx, types.ProviderOpenAI)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, store.Delete(ctx, c.ID))

	rows, err = store.List(ctx, types.ProviderOpenAI)
	require.NoError(t, err)
	require.Len(t, rows, 0)
}
