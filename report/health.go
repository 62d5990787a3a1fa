package report

import (
	"context"
	"time"

	"github.com/driftlog/aiops/storage"
)

// ProjectMetrics is the raw aggregation a health score is built from.
type ProjectMetrics struct {
	TotalHours         float64
	ThisWeekHours      float64
	LastWeekHours      float64
	ActivityTrend      string // "increasing", "decreasing", "stable", or "new"
	TotalTasks         int
	CompletedTasks     int
	TaskCompletionRate float64
	ContributorCount   int
}

// ProjectHealthResult is the scored output of ProjectHealth.
type ProjectHealthResult struct {
	ProjectID   string
	ProjectName string
	HealthScore int
	HealthStatus string
	Metrics     ProjectMetrics
	Insights    []Insight
}

// ProjectHealth scores projectID's health, mirroring
// generate_project_health: a 0-100 score derived from task completion
// rate, activity trend, and contributor count, per spec §4.10.
func (s *Summarizer) ProjectHealth(ctx context.Context, projectID string) (*ProjectHealthResult, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	entries, err := s.entries.ForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	metrics := gatherProjectMetrics(entries)

	tasks, err := s.projects.Tasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	metrics.TotalTasks = len(tasks)
	for _, t := range tasks {
		if t.Status == "done" {
			metrics.CompletedTasks++
		}
	}
	if metrics.TotalTasks > 0 {
		metrics.TaskCompletionRate = float64(metrics.CompletedTasks) / float64(metrics.TotalTasks)
	}

	score := calculateHealthScore(metrics)
	insights := generateHealthInsights(metrics)

	return &ProjectHealthResult{
		ProjectID:    projectID,
		ProjectName:  project.Name,
		HealthScore:  score,
		HealthStatus: healthStatus(score),
		Metrics:      metrics,
		Insights:     insights,
	}, nil
}

func gatherProjectMetrics(entries []*storage.TimeEntry) ProjectMetrics {
	now := time.Now()
	weekStart := mostRecentMonday(now)
	lastWeekStart := weekStart.AddDate(0, 0, -7)

	var m ProjectMetrics
	contributors := map[string]bool{}
	var thisWeekSeconds, lastWeekSeconds, totalSeconds float64

	for _, e := range entries {
		totalSeconds += float64(e.DurationSec)
		contributors[e.UserID] = true
		switch {
		case !e.StartedAt.Before(weekStart):
			thisWeekSeconds += float64(e.DurationSec)
		case !e.StartedAt.Before(lastWeekStart) && e.StartedAt.Before(weekStart):
			lastWeekSeconds += float64(e.DurationSec)
		}
	}

	m.TotalHours = round1(totalSeconds / 3600)
	m.ThisWeekHours = round1(thisWeekSeconds / 3600)
	m.LastWeekHours = round1(lastWeekSeconds / 3600)
	m.ContributorCount = len(contributors)

	switch {
	case lastWeekSeconds == 0 && thisWeekSeconds == 0:
		m.ActivityTrend = "new"
	case lastWeekSeconds == 0:
		m.ActivityTrend = "new"
	case thisWeekSeconds > lastWeekSeconds*1.1:
		m.ActivityTrend = "increasing"
	case thisWeekSeconds < lastWeekSeconds*0.9:
		m.ActivityTrend = "decreasing"
	default:
		m.ActivityTrend = "stable"
	}

	return m
}

// calculateHealthScore mirrors _calculate_health_score: start at 100,
// deduct for low task completion, a decreasing or brand-new activity
// trend, and a single contributor, clamped to [0, 100].
func calculateHealthScore(m ProjectMetrics) int {
	score := 100.0

	if m.TotalTasks > 0 {
		deficit := 0.5 - m.TaskCompletionRate
		if deficit > 0 {
			score -= deficit * 40
		}
	}

	switch m.ActivityTrend {
	case "decreasing":
		score -= 15
	case "new":
		score -= 5
	}

	if m.ContributorCount == 1 {
		score -= 10
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(score + 0.5)
}

// healthStatus maps a score to the status bands generate_project_health
// reports alongside it.
func healthStatus(score int) string {
	switch {
	case score >= 80:
		return "healthy"
	case score >= 60:
		return "moderate"
	case score >= 40:
		return "at_risk"
	default:
		return "critical"
	}
}
