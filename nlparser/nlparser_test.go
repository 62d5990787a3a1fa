package nlparser

import (
	"context"
	"testing"
	"time"

	"github.com/driftlog/aiops/config"
	"github.com/driftlog/aiops/storage"
	"github.com/driftlog/aiops/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestParser(t *testing.T) (*Parser, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&storage.TimeEntry{}, &storage.Project{}, &storage.Task{}))

	cfg := config.DefaultFeaturesConfig()
	p := New(storage.NewTimeEntryReader(db), storage.NewProjectReader(db), nil, zap.NewNop(), cfg)
	return p, db
}

func seedProject(t *testing.T, db *gorm.DB, id, name string) {
	t.Helper()
	require.NoError(t, db.Create(&storage.Project{ID: id, Name: name}).Error)
}

func seedEntry(t *testing.T, db *gorm.DB, userID, projectID string, daysAgo int) {
	t.Helper()
	start := time.Now().AddDate(0, 0, -daysAgo)
	require.NoError(t, db.Create(&storage.TimeEntry{
		ID: userID + projectID + start.String(), UserID: userID, ProjectID: projectID,
		StartedAt: start, EndedAt: start.Add(time.Hour), DurationSec: 3600,
	}).Error)
}

func TestParse_DurationAndProjectMatched(t *testing.T) {
	p, db := newTestParser(t)
	seedProject(t, db, "p1", "Project Alpha")
	seedEntry(t, db, "u1", "p1", 3)

	result, err := p.Parse(context.Background(), "u1", "Log 2 hours on Project Alpha yesterday", false)
	require.NoError(t, err)
	require.Equal(t, 7200, result.DurationSeconds)
	require.Equal(t, "p1", result.ProjectID)
	require.NotNil(t, result.StartTime)
}

func TestParse_ShortcutDurationBelowMinimumIsDropped(t *testing.T) {
	p, _ := newTestParser(t)

	result, err := p.Parse(context.Background(), "u1", "worked 0.5m on something quick", false)
	require.NoError(t, err)
	require.Equal(t, 0, result.DurationSeconds)
}

func TestParse_HHMMDuration(t *testing.T) {
	p, db := newTestParser(t)
	seedProject(t, db, "p1", "Beta")
	seedEntry(t, db, "u2", "p1", 1)

	result, err := p.Parse(context.Background(), "u2", "1:30 client meeting for Beta", false)
	require.NoError(t, err)
	require.Equal(t, 5400, result.DurationSeconds)
}

func TestParse_HalfHourKeyword(t *testing.T) {
	p, _ := newTestParser(t)

	result, err := p.Parse(context.Background(), "u3", "worked half an hour today", false)
	require.NoError(t, err)
	require.Equal(t, 1800, result.DurationSeconds)
}

func TestParse_NoMatchNeedsClarification(t *testing.T) {
	p, _ := newTestParser(t)

	result, err := p.Parse(context.Background(), "u4", "did some stuff", false)
	require.NoError(t, err)
	require.True(t, result.NeedsClarification)
	require.NotEmpty(t, result.ClarificationPrompt)
}

func TestParse_SuggestsProjectsWhenUnmatched(t *testing.T) {
	p, db := newTestParser(t)
	seedProject(t, db, "p1", "Gamma Project")
	seedEntry(t, db, "u5", "p1", 2)

	result, err := p.Parse(context.Background(), "u5", "2 hours of random unrelated work", false)
	require.NoError(t, err)
	require.Empty(t, result.ProjectID)
	require.NotEmpty(t, result.Suggestions)
}

func TestConfirm_RequiresProject(t *testing.T) {
	_, err := Confirm(&types.ParseResult{DurationSeconds: 3600}, Overrides{})
	require.Error(t, err)
	require.Equal(t, types.ErrBadInput, types.GetErrorCode(err))
}

func TestConfirm_RequiresDurationOrStartTime(t *testing.T) {
	_, err := Confirm(&types.ParseResult{ProjectID: "p1"}, Overrides{})
	require.Error(t, err)
}

func TestConfirm_SucceedsWithOverrides(t *testing.T) {
	start := time.Now()
	entry, err := Confirm(&types.ParseResult{}, Overrides{
		ProjectID:       strPtr("p1"),
		DurationSeconds: intPtr(3600),
		StartTime:       &start,
	})
	require.NoError(t, err)
	require.Equal(t, "p1", entry.ProjectID)
	require.NotNil(t, entry.EndTime)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
