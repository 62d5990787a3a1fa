package report

import (
	"context"
	"fmt"
	"time"

	"github.com/driftlog/aiops/types"
)

// UserMetrics is the raw aggregation UserInsights scores.
type UserMetrics struct {
	UserName          string
	ExpectedHours     float64
	TotalHours30d     float64
	AvgDailyHours     float64
	ActiveProjects    int
	ProductivityTrend string // "above_expected", "below_expected", or "on_track"
}

// UserInsightsResult is the scored output of UserInsights.
type UserInsightsResult struct {
	UserID   string
	Metrics  UserMetrics
	Insights []Insight
}

const userInsightLookbackDays = 30

// UserInsights scores a user's last 30 days against their expected
// weekly hours, a supplement present in generate_user_insights but not
// named by the weekly-summary/project-health operations spec §4.10
// requires; kept because it reuses the same metrics-then-insights
// shape and storage.User.ExpectedHoursPerWeek this subsystem already
// carries.
func (s *Summarizer) UserInsights(ctx context.Context, userID string) (*UserInsightsResult, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	until := time.Now()
	since := until.AddDate(0, 0, -userInsightLookbackDays)
	entries, err := s.entries.ForUser(ctx, userID, since, until)
	if err != nil {
		return nil, err
	}

	var totalSeconds float64
	projects := map[string]bool{}
	for _, e := range entries {
		totalSeconds += float64(e.DurationSec)
		projects[e.ProjectID] = true
	}

	totalHours := round1(totalSeconds / 3600)
	avgDaily := round1(totalHours / userInsightLookbackDays)
	expectedDaily := user.ExpectedHoursPerWeek / 7

	metrics := UserMetrics{
		UserName:       user.Name,
		ExpectedHours:  user.ExpectedHoursPerWeek,
		TotalHours30d:  totalHours,
		AvgDailyHours:  avgDaily,
		ActiveProjects: len(projects),
	}

	switch {
	case expectedDaily > 0 && avgDaily > expectedDaily*1.15:
		metrics.ProductivityTrend = "above_expected"
	case expectedDaily > 0 && avgDaily < expectedDaily*0.85:
		metrics.ProductivityTrend = "below_expected"
	default:
		metrics.ProductivityTrend = "on_track"
	}

	var insights []Insight
	if metrics.ProductivityTrend == "below_expected" {
		insights = append(insights, Insight{
			Type:        InsightProductivity,
			Title:       "Logging below expected hours",
			Description: fmt.Sprintf("Averaging %.1f hours/day against an expected %.1f.", avgDaily, expectedDaily),
			Severity:    types.SeverityInfo,
			ActionItems: []string{"Check for missing time entries or reduced availability"},
		})
	}
	if metrics.ActiveProjects > 6 {
		insights = append(insights, Insight{
			Type:        InsightProductivity,
			Title:       "Working across many projects",
			Description: fmt.Sprintf("Logged time on %d projects in the last 30 days.", metrics.ActiveProjects),
			Severity:    types.SeverityInfo,
		})
	}

	return &UserInsightsResult{UserID: userID, Metrics: metrics, Insights: insights}, nil
}
