package usage

import (
	"context"
	"testing"
	"time"

	"github.com/driftlog/aiops/storage"
	"github.com/driftlog/aiops/types"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestLedger_RecordAndSummary(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, storage.AutoMigrate(db))

	ledger := New(storage.NewUsageStore(db))
	ctx := context.Background()

	require.NoError(t, ledger.Record(ctx, Invocation{
		UserID: "u1", FeatureID: types.FeatureSuggestions, Provider: types.ProviderGemini,
		CostUSD: 0.01, Latency: 120 * time.Millisecond, Succeeded: true,
	}))
	require.NoError(t, ledger.Record(ctx, Invocation{
		UserID: "u1", FeatureID: types.FeatureSuggestions, CacheHit: true, Succeeded: true,
	}))

	summary, err := ledger.Summary(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(2), summary.TotalRequests)
	require.Equal(t, int64(1), summary.TotalCacheHits)
	require.InDelta(t, 0.01, summary.TotalCostUSD, 0.0001)
}
