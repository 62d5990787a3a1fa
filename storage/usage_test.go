package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUsageStore_AppendAndAggregate(t *testing.T) {
	db := openTestDB(t)
	store := NewUsageStore(db)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, &UsageRecordModel{
		UserID: "u1", FeatureID: "ai_suggestions", CacheHit: false,
		EstimatedCostUSD: 0.02, Succeeded: true,
	}))
	require.NoError(t, store.Append(ctx, &UsageRecordModel{
		UserID: "u1", FeatureID: "ai_suggestions", CacheHit: true,
		EstimatedCostUSD: 0, Succeeded: true,
	}))
	require.NoError(t, store.Append(ctx, &UsageRecordModel{
		UserID: "u2", FeatureID: "ai_anomaly_alerts", CacheHit: false,
		EstimatedCostUSD: 0.05, Succeeded: false, ErrorCode: "TIMEOUT",
	}))

	agg, err := store.Aggregate(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(3), agg.TotalRequests)
	require.Equal(t, int64(1), agg.TotalCacheHits)
	require.Equal(t, int64(1), agg.TotalFailures)
	require.InDelta(t, 0.07, agg.TotalCostUSD, 0.0001)

	rows, err := store.ForUser(ctx, "u1", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 2)
}
