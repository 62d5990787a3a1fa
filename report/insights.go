package report

import (
	"fmt"

	"github.com/driftlog/aiops/types"
)

// generateWeeklyInsights mirrors _generate_insights' three rules: a
// week-over-week hours trend, a peak-day workload warning, and a
// too-many-projects focus nudge.
func generateWeeklyInsights(m WeeklyMetrics) []Insight {
	var insights []Insight

	if m.LastWeekHours > 0 {
		switch {
		case m.HoursChangePct >= 20:
			insights = append(insights, Insight{
				Type:        InsightTrend,
				Title:       "Hours trending up",
				Description: fmt.Sprintf("Logged hours are up %.0f%% from last week.", m.HoursChangePct),
				Severity:    types.SeverityInfo,
				MetricValue: floatPtr(m.HoursChangePct),
				MetricLabel: "hours_change_pct",
			})
		case m.HoursChangePct <= -20:
			insights = append(insights, Insight{
				Type:        InsightTrend,
				Title:       "Hours trending down",
				Description: fmt.Sprintf("Logged hours are down %.0f%% from last week.", -m.HoursChangePct),
				Severity:    types.SeverityWarning,
				MetricValue: floatPtr(m.HoursChangePct),
				MetricLabel: "hours_change_pct",
				ActionItems: []string{"Check in on workload or blockers"},
			})
		}
	}

	if m.MaxDailyHours > 10 {
		severity := types.SeverityWarning
		if m.MaxDailyHours > 12 {
			severity = types.SeverityCritical
		}
		insights = append(insights, Insight{
			Type:        InsightWorkload,
			Title:       "High single-day workload",
			Description: fmt.Sprintf("A peak day of %.1f hours was logged this week.", m.MaxDailyHours),
			Severity:    severity,
			MetricValue: floatPtr(m.MaxDailyHours),
			MetricLabel: "peak_day_hours",
			ActionItems: []string{"Watch for burnout risk on heavy days"},
		})
	}

	if m.ProjectsCount > 5 {
		insights = append(insights, Insight{
			Type:        InsightWorkload,
			Title:       "Spread across many projects",
			Description: fmt.Sprintf("Time was logged across %d different projects this week.", m.ProjectsCount),
			Severity:    types.SeverityInfo,
			MetricValue: floatPtr(float64(m.ProjectsCount)),
			MetricLabel: "projects_count",
			ActionItems: []string{"Consider focusing on fewer projects at a time"},
		})
	}

	return insights
}

// generateHealthInsights mirrors the project-health side of
// _generate_insights: activity trend, low task completion, and a lone
// contributor.
func generateHealthInsights(m ProjectMetrics) []Insight {
	var insights []Insight

	if m.ActivityTrend == "decreasing" {
		insights = append(insights, Insight{
			Type:        InsightProjectHealth,
			Title:       "Activity slowing down",
			Description: "This project's logged hours have dropped compared to last week.",
			Severity:    types.SeverityWarning,
			ActionItems: []string{"Check whether the project is stalled or waiting on something"},
		})
	}

	if m.TotalTasks > 0 && m.TaskCompletionRate < 0.3 {
		insights = append(insights, Insight{
			Type:        InsightProjectHealth,
			Title:       "Low task completion",
			Description: fmt.Sprintf("Only %.0f%% of tasks are marked done.", m.TaskCompletionRate*100),
			Severity:    types.SeverityWarning,
			MetricValue: floatPtr(m.TaskCompletionRate),
			MetricLabel: "task_completion_rate",
			ActionItems: []string{"Review open tasks for blockers"},
		})
	}

	if m.ContributorCount == 1 {
		insights = append(insights, Insight{
			Type:        InsightProjectHealth,
			Title:       "Single contributor",
			Description: "Only one person has logged time on this project.",
			Severity:    types.SeverityInfo,
			ActionItems: []string{"Consider whether this project needs more coverage"},
		})
	}

	return insights
}

func floatPtr(v float64) *float64 { return &v }
