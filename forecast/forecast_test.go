package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/driftlog/aiops/cache"
	"github.com/driftlog/aiops/storage"
	"github.com/driftlog/aiops/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestForecaster(t *testing.T) (*Forecaster, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&storage.TimeEntry{}, &storage.User{}, &storage.Project{}, &storage.PayRate{}))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	f := New(
		storage.NewTimeEntryReader(db), storage.NewProjectReader(db), storage.NewUserReader(db), storage.NewPayrollReader(db),
		cache.New(rdb, zap.NewNop()), time.Hour, zap.NewNop(),
	)
	return f, db
}

func seedWeekOfEntries(t *testing.T, db *gorm.DB, userID, projectID string, weekStart time.Time, hoursPerDay float64) {
	t.Helper()
	for i := 0; i < 5; i++ {
		day := weekStart.AddDate(0, 0, i)
		require.NoError(t, db.Create(&storage.TimeEntry{
			ID: userID + day.String(), UserID: userID, ProjectID: projectID,
			StartedAt: day, EndedAt: day.Add(time.Duration(hoursPerDay * float64(time.Hour))),
			DurationSec: int(hoursPerDay * 3600),
		}).Error)
	}
}

func TestForecastPayroll_InsufficientHistoryErrors(t *testing.T) {
	f, db := newTestForecaster(t)
	require.NoError(t, db.Create(&storage.PayRate{UserID: "u1", HourlyUSD: 30}).Error)

	_, err := f.ForecastPayroll(context.Background(), "u1", PeriodBiWeekly, 1, true)
	require.Error(t, err)
	require.Equal(t, types.ErrBadInput, types.GetErrorCode(err))
}

func TestForecastPayroll_ProducesEstimate(t *testing.T) {
	f, db := newTestForecaster(t)
	require.NoError(t, db.Create(&storage.PayRate{UserID: "u2", HourlyUSD: 30}).Error)

	now := time.Now()
	for i := 0; i < 6; i++ {
		weekStart := now.AddDate(0, 0, -14*i-14)
		seedWeekOfEntries(t, db, "u2", "p1", weekStart, 8)
	}

	forecasts, err := f.ForecastPayroll(context.Background(), "u2", PeriodBiWeekly, 2, true)
	require.NoError(t, err)
	require.Len(t, forecasts, 2)
	require.Greater(t, forecasts[0].PointEstimate, 0.0)
	require.GreaterOrEqual(t, forecasts[0].Confidence, 0.5)
}

func TestAssessOvertimeRisk_FlagsHighHours(t *testing.T) {
	f, db := newTestForecaster(t)
	require.NoError(t, db.Create(&storage.User{ID: "u3", Name: "Heavy Worker", ExpectedHoursPerWeek: 40}).Error)
	require.NoError(t, db.Create(&storage.PayRate{UserID: "u3", HourlyUSD: 40}).Error)

	monday := mostRecentMonday(time.Now())
	for i := 0; i < 5; i++ {
		day := monday.AddDate(0, 0, i)
		require.NoError(t, db.Create(&storage.TimeEntry{
			ID: "u3-" + day.String(), UserID: "u3", ProjectID: "p1",
			StartedAt: day, EndedAt: day.Add(11 * time.Hour), DurationSec: 11 * 3600,
		}).Error)
	}

	risks, err := f.AssessOvertimeRisk(context.Background(), []string{"u3"})
	require.NoError(t, err)
	require.NotEmpty(t, risks)
	require.Equal(t, "u3", risks[0].UserID)
}

func TestAssessOvertimeRisk_LowRiskExcluded(t *testing.T) {
	f, db := newTestForecaster(t)
	require.NoError(t, db.Create(&storage.User{ID: "u4", Name: "Normal Worker", ExpectedHoursPerWeek: 40}).Error)

	monday := mostRecentMonday(time.Now())
	require.NoError(t, db.Create(&storage.TimeEntry{
		ID: "u4-1", UserID: "u4", ProjectID: "p1",
		StartedAt: monday, EndedAt: monday.Add(4 * time.Hour), DurationSec: 4 * 3600,
	}).Error)

	risks, err := f.AssessOvertimeRisk(context.Background(), []string{"u4"})
	require.NoError(t, err)
	require.Empty(t, risks)
}

func TestForecastProjectBudget_HighUtilizationIsHighRisk(t *testing.T) {
	f, db := newTestForecaster(t)
	require.NoError(t, db.Create(&storage.Project{ID: "p2", Name: "Big Migration", BudgetTotal: 1000}).Error)

	start := time.Now().AddDate(0, 0, -10)
	require.NoError(t, db.Create(&storage.TimeEntry{
		ID: "e1", UserID: "u5", ProjectID: "p2",
		StartedAt: start, EndedAt: start.Add(20 * time.Hour), DurationSec: 20 * 3600,
	}).Error)

	forecasts, err := f.ForecastProjectBudget(context.Background(), []string{"p2"})
	require.NoError(t, err)
	require.Len(t, forecasts, 1)
	require.Equal(t, "p2", forecasts[0].ProjectID)
	require.NotEmpty(t, forecasts[0].Recommendations)
}

func TestForecastProjectBudget_NoEntriesSkipsProject(t *testing.T) {
	f, db := newTestForecaster(t)
	require.NoError(t, db.Create(&storage.Project{ID: "p3", Name: "Untouched", BudgetTotal: 1000}).Error)

	forecasts, err := f.ForecastProjectBudget(context.Background(), []string{"p3"})
	require.NoError(t, err)
	require.Empty(t, forecasts)
}

func TestForecastCashFlow_AlternatesPayrollWeeks(t *testing.T) {
	f, db := newTestForecaster(t)
	require.NoError(t, db.Create(&storage.PayRate{UserID: "u6", HourlyUSD: 30}).Error)

	now := time.Now()
	for i := 0; i < 3; i++ {
		weekStart := now.AddDate(0, 0, -14*i-14)
		seedWeekOfEntries(t, db, "u6", "p1", weekStart, 8)
	}

	weeks, err := f.ForecastCashFlow(context.Background(), "u6", 4)
	require.NoError(t, err)
	require.Len(t, weeks, 4)
	require.True(t, weeks[0].IsPayrollWeek)
	require.False(t, weeks[1].IsPayrollWeek)
}
