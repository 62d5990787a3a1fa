package featuregate

import (
	"context"
	"testing"

	"github.com/driftlog/aiops/storage"
	"github.com/driftlog/aiops/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestGate(t *testing.T) (*Gate, storage.FeatureStore, storage.CredentialStore) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, storage.AutoMigrate(db))

	features := storage.NewFeatureStore(db)
	usage := storage.NewUsageStore(db)
	creds := storage.NewCredentialStore(db)
	return New(features, usage, creds, zap.NewNop()), features, creds
}

func TestGate_NoSettingIsDisabled(t *testing.T) {
	g, _, _ := newTestGate(t)
	status, err := g.Status(context.Background(), types.FeatureSuggestions, "u1")
	require.NoError(t, err)
	require.False(t, status.Enabled)
	require.Equal(t, "not found", status.Reason)
}

func TestGate_FullCascade(t *testing.T) {
	g, features, creds := newTestGate(t)
	ctx := context.Background()

	require.NoError(t, features.SetGlobalSetting(ctx, &storage.FeatureSettingModel{
		FeatureID: string(types.FeatureSuggestions), GloballyEnabled: true, DefaultProvider: string(types.ProviderGemini),
	}))

	// Requires a gemini credential that doesn't exist yet.
	status, err := g.Status(ctx, types.FeatureSuggestions, "u7")
	require.NoError(t, err)
	require.False(t, status.Enabled)
	require.Equal(t, "requires gemini key", status.Reason)

	require.NoError(t, creds.Create(ctx, &storage.ProviderCredentialModel{Provider: string(types.ProviderGemini), IsActive: true}))

	status, err = g.Status(ctx, types.FeatureSuggestions, "u7")
	require.NoError(t, err)
	require.True(t, status.Enabled)
	require.Equal(t, "enabled (default)", status.Reason)

	require.NoError(t, g.SetUserPreference(ctx, "u7", types.FeatureSuggestions, false))
	status, err = g.Status(ctx, types.FeatureSuggestions, "u7")
	require.NoError(t, err)
	require.False(t, status.Enabled)
	require.Equal(t, "user preference", status.Reason)

	require.NoError(t, g.SetAdminOverride(ctx, "u7", types.FeatureSuggestions, true, "admin1"))
	status, err = g.Status(ctx, types.FeatureSuggestions, "u7")
	require.NoError(t, err)
	require.True(t, status.Enabled)
	require.Equal(t, "admin override", status.Reason)

	require.NoError(t, g.RemoveAdminOverride(ctx, "u7", types.FeatureSuggestions))
	status, err = g.Status(ctx, types.FeatureSuggestions, "u7")
	require.NoError(t, err)
	require.False(t, status.Enabled)
	require.Equal(t, "user preference", status.Reason)
}

func TestGate_GloballyDisabled(t *testing.T) {
	g, features, _ := newTestGate(t)
	ctx := context.Background()

	require.NoError(t, features.SetGlobalSetting(ctx, &storage.FeatureSettingModel{
		FeatureID: string(types.FeatureAnomalyAlerts), GloballyEnabled: false,
	}))

	status, err := g.Status(ctx, types.FeatureAnomalyAlerts, "u1")
	require.NoError(t, err)
	require.False(t, status.Enabled)
	require.Equal(t, "disabled by administrator", status.Reason)
}

func TestGate_SetUserPreferenceRefusedUnderOverride(t *testing.T) {
	g, features, _ := newTestGate(t)
	ctx := context.Background()

	require.NoError(t, features.SetGlobalSetting(ctx, &storage.FeatureSettingModel{
		FeatureID: string(types.FeatureNLPEntry), GloballyEnabled: true,
	}))
	require.NoError(t, g.SetAdminOverride(ctx, "u1", types.FeatureNLPEntry, false, "admin1"))

	err := g.SetUserPreference(ctx, "u1", types.FeatureNLPEntry, true)
	require.Error(t, err)
	require.Equal(t, types.ErrForbidden, types.GetErrorCode(err))
}
