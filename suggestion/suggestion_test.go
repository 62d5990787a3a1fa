package suggestion

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/driftlog/aiops/cache"
	"github.com/driftlog/aiops/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&storage.TimeEntry{}, &storage.Project{}))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	entries := storage.NewTimeEntryReader(db)
	projects := storage.NewProjectReader(db)
	store := cache.New(rdb, zap.NewNop())
	limiter := cache.NewRateLimiter(rdb, zap.NewNop())

	cfg := Config{ConfidenceThreshold: 0.5, LookbackDays: 30, CacheTTL: time.Minute, RateLimitPerMinute: 100}
	eng := New(entries, projects, nil, store, limiter, zap.NewNop(), cfg)
	return eng, db
}

func seedProject(t *testing.T, db *gorm.DB, id, name string) {
	t.Helper()
	require.NoError(t, db.Create(&storage.Project{ID: id, Name: name}).Error)
}

func seedEntry(t *testing.T, db *gorm.DB, userID, projectID, desc string, startedAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&storage.TimeEntry{
		ID: desc + startedAt.String(), UserID: userID, ProjectID: projectID,
		Description: desc, StartedAt: startedAt, EndedAt: startedAt.Add(time.Hour), DurationSec: 3600,
	}).Error)
}

func TestSuggest_FrequentProjectWins(t *testing.T) {
	eng, db := newTestEngine(t)
	seedProject(t, db, "p1", "Website Redesign")
	seedProject(t, db, "p2", "Internal Tools")

	now := time.Now()
	for i := 0; i < 5; i++ {
		seedEntry(t, db, "u1", "p1", "worked on homepage", now.AddDate(0, 0, -i))
	}
	seedEntry(t, db, "u1", "p2", "fixed build script", now.AddDate(0, 0, -1))

	results, err := eng.Suggest(context.Background(), "u1", "", 5, false)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "p1", results[0].ProjectID)
	require.Equal(t, "Frequently used project", results[0].Reason)
}

func TestSuggest_CachesSecondCall(t *testing.T) {
	eng, db := newTestEngine(t)
	seedProject(t, db, "p1", "Website Redesign")
	seedEntry(t, db, "u2", "p1", "homepage work", time.Now())

	ctx := context.Background()
	first, err := eng.Suggest(ctx, "u2", "", 5, false)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// Delete the backing entry; a cached result should still be served.
	require.NoError(t, db.Exec("DELETE FROM time_entries").Error)

	second, err := eng.Suggest(ctx, "u2", "", 5, false)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestSuggest_KeywordMatchFindsDescription(t *testing.T) {
	eng, db := newTestEngine(t)
	seedProject(t, db, "p1", "Website Redesign")
	seedProject(t, db, "p2", "Mobile App")
	now := time.Now()
	seedEntry(t, db, "u3", "p2", "implementing onboarding flow", now.AddDate(0, 0, -2))
	seedEntry(t, db, "u3", "p1", "writing the marketing copy", now.AddDate(0, 0, -1))

	results, err := eng.Suggest(context.Background(), "u3", "onboarding flow work", 5, false)
	require.NoError(t, err)

	found := false
	for _, r := range results {
		if r.ProjectID == "p2" && r.Reason == "Matches your description" {
			found = true
		}
	}
	require.True(t, found)
}

func TestSuggest_RateLimited(t *testing.T) {
	eng, db := newTestEngine(t)
	eng.cfg.RateLimitPerMinute = 0
	seedProject(t, db, "p1", "Website Redesign")
	seedEntry(t, db, "u4", "p1", "work", time.Now())

	ctx := context.Background()
	_, err := eng.Suggest(ctx, "u4", "", 5, false)
	require.NoError(t, err)

	_, err = eng.Suggest(ctx, "u4", "", 5, false)
	require.Error(t, err)
}

func TestSuggest_ConfidenceThresholdFiltersLowConfidence(t *testing.T) {
	eng, db := newTestEngine(t)
	eng.cfg.ConfidenceThreshold = 0.95
	seedProject(t, db, "p1", "Website Redesign")
	seedEntry(t, db, "u5", "p1", "work", time.Now())

	results, err := eng.Suggest(context.Background(), "u5", "", 5, false)
	require.NoError(t, err)
	require.Empty(t, results)
}
