package storage

import (
	"context"
	"time"

	"github.com/driftlog/aiops/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UsageStore is the append-only ledger of feature invocations.
type UsageStore interface {
	Append(ctx context.Context, r *UsageRecordModel) error
	ForUser(ctx context.Context, userID string, since time.Time) ([]*UsageRecordModel, error)
	Aggregate(ctx context.Context, since time.Time) (*UsageAggregate, error)
}

// UsageAggregate summarizes the ledger over a window, feeding billing and
// admin analytics views.
type UsageAggregate struct {
	TotalRequests   int64
	TotalCacheHits  int64
	TotalCostUSD    float64
	TotalFailures   int64
}

type gormUsageStore struct {
	db *gorm.DB
}

// NewUsageStore constructs a gorm-backed UsageStore.
func NewUsageStore(db *gorm.DB) UsageStore {
	return &gormUsageStore{db: db}
}

func (s *gormUsageStore) Append(ctx context.Context, r *UsageRecordModel) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return types.NewError(types.ErrInternal, "failed to append usage record").WithCause(err)
	}
	return nil
}

func (s *gormUsageStore) ForUser(ctx context.Context, userID string, since time.Time) ([]*UsageRecordModel, error) {
	var rows []*UsageRecordModel
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "failed to load usage records").WithCause(err)
	}
	return rows, nil
}

func (s *gormUsageStore) Aggregate(ctx context.Context, since time.Time) (*UsageAggregate, error) {
	var agg UsageAggregate
	row := s.db.WithContext(ctx).Model(&UsageRecordModel{}).
		Where("created_at >= ?", since).
		Select(
			"COUNT(*) as total_requests",
			"SUM(CASE WHEN cache_hit THEN 1 ELSE 0 END) as total_cache_hits",
			"SUM(estimated_cost_usd) as total_cost_usd",
			"SUM(CASE WHEN succeeded THEN 0 ELSE 1 END) as total_failures",
		).Row()
	if err := row.Scan(&agg.TotalRequests, &agg.TotalCacheHits, &agg.TotalCostUSD, &agg.TotalFailures); err != nil {
		return nil, types.NewError(types.ErrInternal, "failed to aggregate usage records").WithCause(err)
	}
	return &agg, nil
}
