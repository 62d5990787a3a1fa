package report

import (
	"context"
	"testing"
	"time"

	"github.com/driftlog/aiops/storage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestSummarizer(t *testing.T) (*Summarizer, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&storage.TimeEntry{}, &storage.Project{}, &storage.Task{}, &storage.User{}))

	s := New(storage.NewTimeEntryReader(db), storage.NewProjectReader(db), storage.NewUserReader(db), nil, zap.NewNop())
	return s, db
}

func seedEntryAt(t *testing.T, db *gorm.DB, id, userID, projectID string, start time.Time, hours float64) {
	t.Helper()
	dur := int(hours * 3600)
	require.NoError(t, db.Create(&storage.TimeEntry{
		ID: id, UserID: userID, ProjectID: projectID,
		StartedAt: start, EndedAt: start.Add(time.Duration(dur) * time.Second), DurationSec: dur,
	}).Error)
}

func TestWeeklySummary_AggregatesCurrentWeek(t *testing.T) {
	s, db := newTestSummarizer(t)
	require.NoError(t, db.Create(&storage.Project{ID: "p1", Name: "Orbit"}).Error)

	monday := mostRecentMonday(time.Now())
	seedEntryAt(t, db, "e1", "u1", "p1", monday.Add(time.Hour), 3)
	seedEntryAt(t, db, "e2", "u1", "p1", monday.AddDate(0, 0, 1), 2)

	summary, err := s.WeeklySummary(context.Background(), "u1", "", false)
	require.NoError(t, err)
	require.Equal(t, 5.0, summary.Metrics.TotalHours)
	require.Len(t, summary.Metrics.TopProjects, 1)
	require.Equal(t, "Orbit", summary.Metrics.TopProjects[0].Name)
	require.NotEmpty(t, summary.SummaryText)
}

func TestWeeklySummary_FlagsHighPeakDay(t *testing.T) {
	s, db := newTestSummarizer(t)
	require.NoError(t, db.Create(&storage.Project{ID: "p1", Name: "Orbit"}).Error)

	monday := mostRecentMonday(time.Now())
	seedEntryAt(t, db, "e1", "u1", "p1", monday.Add(time.Hour), 13)

	summary, err := s.WeeklySummary(context.Background(), "u1", "", false)
	require.NoError(t, err)
	require.NotEmpty(t, summary.AttentionNeeded)
}

func TestProjectHealth_SingleContributorLowCompletionScoresLow(t *testing.T) {
	s, db := newTestSummarizer(t)
	require.NoError(t, db.Create(&storage.Project{ID: "p1", Name: "Orbit"}).Error)
	require.NoError(t, db.Create(&storage.Task{ID: "t1", ProjectID: "p1", Name: "Design", Status: "todo"}).Error)
	require.NoError(t, db.Create(&storage.Task{ID: "t2", ProjectID: "p1", Name: "Build", Status: "todo"}).Error)
	seedEntryAt(t, db, "e1", "u1", "p1", time.Now().AddDate(0, 0, -2), 4)

	result, err := s.ProjectHealth(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, 1, result.Metrics.ContributorCount)
	require.Equal(t, 0.0, result.Metrics.TaskCompletionRate)
	require.Less(t, result.HealthScore, 80)
}

func TestProjectHealth_HealthyProject(t *testing.T) {
	s, db := newTestSummarizer(t)
	require.NoError(t, db.Create(&storage.Project{ID: "p1", Name: "Orbit"}).Error)
	require.NoError(t, db.Create(&storage.Task{ID: "t1", ProjectID: "p1", Name: "Design", Status: "done"}).Error)
	require.NoError(t, db.Create(&storage.Task{ID: "t2", ProjectID: "p1", Name: "Build", Status: "done"}).Error)
	seedEntryAt(t, db, "e1", "u1", "p1", time.Now().AddDate(0, 0, -2), 4)
	seedEntryAt(t, db, "e2", "u2", "p1", time.Now().AddDate(0, 0, -3), 4)

	result, err := s.ProjectHealth(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, 2, result.Metrics.ContributorCount)
	require.Equal(t, 1.0, result.Metrics.TaskCompletionRate)
	require.Equal(t, "healthy", result.HealthStatus)
}

func TestUserInsights_BelowExpectedFlagged(t *testing.T) {
	s, db := newTestSummarizer(t)
	require.NoError(t, db.Create(&storage.User{ID: "u1", Name: "Sam", ExpectedHoursPerWeek: 40}).Error)
	require.NoError(t, db.Create(&storage.Project{ID: "p1", Name: "Orbit"}).Error)
	seedEntryAt(t, db, "e1", "u1", "p1", time.Now().AddDate(0, 0, -1), 1)

	result, err := s.UserInsights(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "below_expected", result.Metrics.ProductivityTrend)
	require.NotEmpty(t, result.Insights)
}
