// Package usage is the append-only ledger of AI feature invocations,
// feeding both billing analytics and admin dashboards (spec §4's usage
// tracking concern). Metrics shape grounded on the teacher's
// llm/health_check_metrics.go Prometheus vectors.
package usage

import (
	"context"
	"time"

	"github.com/driftlog/aiops/storage"
	"github.com/driftlog/aiops/types"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiops_feature_requests_total",
			Help: "Total AI feature invocations.",
		},
		[]string{"feature_id", "provider", "outcome"},
	)
	costUSDTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiops_feature_cost_usd_total",
			Help: "Total estimated USD cost of AI feature invocations.",
		},
		[]string{"feature_id", "provider"},
	)
	latencyMS = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aiops_feature_latency_ms",
			Help:    "AI feature invocation latency in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"feature_id", "provider"},
	)
	cacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiops_feature_cache_hits_total",
			Help: "Total AI feature invocations served from cache.",
		},
		[]string{"feature_id"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, costUSDTotal, latencyMS, cacheHitsTotal)
}

// Invocation is the information one served feature call reports to the
// ledger, ahead of being translated into a storage.UsageRecordModel.
type Invocation struct {
	UserID       string
	FeatureID    types.FeatureID
	Provider     types.Provider
	CacheHit     bool
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Latency      time.Duration
	Succeeded    bool
	ErrorCode    types.ErrorCode
}

// Ledger wraps storage.UsageStore with Prometheus observation, so every
// append also updates the metrics an admin dashboard or alert rule reads.
type Ledger struct {
	store storage.UsageStore
}

// New constructs a Ledger.
func New(store storage.UsageStore) *Ledger {
	return &Ledger{store: store}
}

// Record appends one invocation to the ledger and updates metrics.
func (l *Ledger) Record(ctx context.Context, inv Invocation) error {
	outcome := "success"
	if !inv.Succeeded {
		outcome = "failure"
	}
	if inv.CacheHit {
		cacheHitsTotal.WithLabelValues(string(inv.FeatureID)).Inc()
	}
	requestsTotal.WithLabelValues(string(inv.FeatureID), string(inv.Provider), outcome).Inc()
	if inv.CostUSD > 0 {
		costUSDTotal.WithLabelValues(string(inv.FeatureID), string(inv.Provider)).Add(inv.CostUSD)
	}
	if inv.Latency > 0 {
		latencyMS.WithLabelValues(string(inv.FeatureID), string(inv.Provider)).Observe(float64(inv.Latency.Milliseconds()))
	}

	return l.store.Append(ctx, &storage.UsageRecordModel{
		ID:               uuid.NewString(),
		UserID:           inv.UserID,
		FeatureID:        string(inv.FeatureID),
		Provider:         string(inv.Provider),
		CacheHit:         inv.CacheHit,
		InputTokens:      inv.InputTokens,
		OutputTokens:     inv.OutputTokens,
		EstimatedCostUSD: inv.CostUSD,
		LatencyMS:        int(inv.Latency.Milliseconds()),
		Succeeded:        inv.Succeeded,
		ErrorCode:        string(inv.ErrorCode),
		CreatedAt:        time.Now(),
	})
}

// Summary reports aggregate figures over a window, for admin analytics.
func (l *Ledger) Summary(ctx context.Context, since time.Time) (*storage.UsageAggregate, error) {
	return l.store.Aggregate(ctx, since)
}
