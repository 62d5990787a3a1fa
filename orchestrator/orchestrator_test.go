package orchestrator

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/driftlog/aiops/config"
	"github.com/driftlog/aiops/storage"
	"github.com/driftlog/aiops/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *gorm.DB) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, storage.AutoMigrate(db))
	require.NoError(t, db.AutoMigrate(&storage.TimeEntry{}, &storage.Project{}, &storage.Task{}, &storage.User{}, &storage.PayRate{}))

	cfg := config.DefaultConfig()
	cfg.Database.Driver = "sqlite"
	cfg.Database.Name = dsn
	cfg.Redis.Addr = mr.Addr()
	cfg.Vault.MasterEncryptionKey = "a-test-master-key-at-least-32-bytes-long"

	o, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	return o, db
}

func seedUser(t *testing.T, db *gorm.DB, id, name string) {
	t.Helper()
	require.NoError(t, db.Create(&storage.User{ID: id, Name: name, ExpectedHoursPerWeek: 40}).Error)
}

func TestSuggest_DisabledFeatureShortCircuits(t *testing.T) {
	o, db := newTestOrchestrator(t)
	seedUser(t, db, "u1", "Alice")
	ctx := context.Background()

	outcome, err := o.Suggest(ctx, "u1", "", 5, false)
	require.NoError(t, err)
	require.False(t, outcome.Enabled)
	require.Nil(t, outcome.Results)
}

func TestSuggest_EnabledGlobalRunsThroughEngine(t *testing.T) {
	o, db := newTestOrchestrator(t)
	seedUser(t, db, "u1", "Alice")
	ctx := context.Background()

	require.NoError(t, o.UpdateFeature(ctx, types.FeatureSuggestions, true, "admin1"))

	outcome, err := o.Suggest(ctx, "u1", "", 5, false)
	require.NoError(t, err)
	require.True(t, outcome.Enabled)
	require.NotNil(t, outcome.Results)
}

func TestSetOverride_DisablesEvenWhenGloballyEnabled(t *testing.T) {
	o, db := newTestOrchestrator(t)
	seedUser(t, db, "u1", "Alice")
	ctx := context.Background()

	require.NoError(t, o.UpdateFeature(ctx, types.FeatureSuggestions, true, "admin1"))
	require.NoError(t, o.SetOverride(ctx, "u1", types.FeatureSuggestions, false, "admin1"))

	outcome, err := o.Suggest(ctx, "u1", "", 5, false)
	require.NoError(t, err)
	require.False(t, outcome.Enabled)

	require.NoError(t, o.RemoveOverride(ctx, "u1", types.FeatureSuggestions))
	outcome, err = o.Suggest(ctx, "u1", "", 5, false)
	require.NoError(t, err)
	require.True(t, outcome.Enabled)
}

func TestListFeatures_ReturnsConfiguredSetting(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	require.NoError(t, o.UpdateFeature(ctx, types.FeatureAnomalyAlerts, true, "admin1"))

	rows, err := o.ListFeatures(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, string(types.FeatureAnomalyAlerts), rows[0].FeatureID)
	require.True(t, rows[0].GloballyEnabled)
}

func TestParseEntry_DisabledFeatureReturnsOutcomeNotError(t *testing.T) {
	o, db := newTestOrchestrator(t)
	seedUser(t, db, "u1", "Alice")
	ctx := context.Background()

	outcome, err := o.ParseEntry(ctx, "u1", "worked 2 hours on website", "UTC", false)
	require.NoError(t, err)
	require.False(t, outcome.Enabled)
	require.Nil(t, outcome.Results)
}
