package providers

import (
	"context"
	"strings"
	"testing"

	"github.com/driftlog/aiops/storage"
	"github.com/driftlog/aiops/types"
	"github.com/driftlog/aiops/vault"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, storage.AutoMigrate(db))

	store := storage.NewCredentialStore(db)
	kv := vault.New(strings.Repeat("K", 32))
	return NewRegistry(store, kv, zap.NewNop())
}

func TestRegistry_AddAndRetrieveActivePlaintext(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.AddCredential(ctx, types.ProviderOpenAI, "primary key", "sk-abcdefghij", "admin1")
	require.NoError(t, err)

	plain, err := r.ActivePlaintext(ctx, types.ProviderOpenAI)
	require.NoError(t, err)
	require.Equal(t, "sk-abcdefghij", plain)
}

func TestRegistry_AddCredentialRejectsBadFormat(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.AddCredential(context.Background(), types.ProviderOpenAI, "bad", "not-a-key", "admin1")
	require.Error(t, err)
	require.Equal(t, types.ErrBadInput, types.GetErrorCode(err))
}

func TestRegistry_ActivePlaintextEmptyWhenNoneConfigured(t *testing.T) {
	r := newTestRegistry(t)

	plain, err := r.ActivePlaintext(context.Background(), types.ProviderAnthropic)
	require.NoError(t, err)
	require.Equal(t, "", plain)
}

func TestRegistry_RemoveCredential(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	cred, err := r.AddCredential(ctx, types.ProviderGemini, "k", "abcdefghijklmnopqrst", "admin1")
	require.NoError(t, err)

	require.NoError(t, r.RemoveCredential(ctx, cred.ID))

	rows, err := r.ListCredentials(ctx, types.ProviderGemini)
	require.NoError(t, err)
	require.Len(t, rows, 0)
}
