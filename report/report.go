// Package report implements the weekly productivity summary, project
// health scoring, and per-user insight generation (spec §4.10).
// Grounded on original_source/backend/app/ai/services/reporting_service.py
// for the metric gathering, insight rules, and health-score formula;
// rewritten in the teacher's constructor-injection idiom. The AI
// narrative stage mirrors suggestion/anomaly's pattern-first shape: a
// deterministic template always exists, the provider call only
// replaces it when available.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/driftlog/aiops/providers"
	"github.com/driftlog/aiops/storage"
	"github.com/driftlog/aiops/types"
	"go.uber.org/zap"
)

// InsightType categorizes a generated Insight, mirroring the Python
// service's InsightType enum.
type InsightType string

const (
	InsightProductivity    InsightType = "productivity"
	InsightProjectHealth   InsightType = "project_health"
	InsightTeamPerformance InsightType = "team_performance"
	InsightWorkload        InsightType = "workload"
	InsightTrend           InsightType = "trend"
	InsightRecommendation  InsightType = "recommendation"
	InsightAlert           InsightType = "alert"
)

// Insight is one piece of analysis surfaced alongside a summary.
type Insight struct {
	Type        InsightType
	Title       string
	Description string
	Severity    types.Severity
	MetricValue *float64
	MetricLabel string
	ActionItems []string
}

// ProjectHours is one project's total logged hours within a period.
type ProjectHours struct {
	Name  string
	Hours float64
}

// DayHours is one calendar day's total logged hours.
type DayHours struct {
	Date  string
	Hours float64
}

// WeeklyMetrics is the raw aggregation a weekly summary is built from.
type WeeklyMetrics struct {
	WeekStart      time.Time
	WeekEnd        time.Time
	UserCount      int
	TotalHours     float64
	LastWeekHours  float64
	HoursChangePct float64
	ProjectsCount  int
	TopProjects    []ProjectHours
	DailyHours     []DayHours
	AvgDailyHours  float64
	MaxDailyHours  float64
	MinDailyHours  float64
}

// AttentionItem is an insight promoted to "needs attention" because
// its severity is warning or critical.
type AttentionItem struct {
	Title       string
	Description string
	Severity    types.Severity
	Actions     []string
}

// WeeklySummary is the full report for one Monday-Sunday period.
type WeeklySummary struct {
	PeriodStart     time.Time
	PeriodEnd       time.Time
	SummaryText     string
	Highlights      []string
	AttentionNeeded []AttentionItem
	Recommendations []string
	Insights        []Insight
	Metrics         WeeklyMetrics
	GeneratedAt     time.Time
}

// Summarizer produces weekly summaries, project health scores, and
// per-user insights from time-entry history.
type Summarizer struct {
	entries  storage.TimeEntryReader
	projects storage.ProjectReader
	users    storage.UserReader
	ai       *providers.AIClient
	logger   *zap.Logger
}

// New constructs a Summarizer.
func New(entries storage.TimeEntryReader, projects storage.ProjectReader, users storage.UserReader, ai *providers.AIClient, logger *zap.Logger) *Summarizer {
	return &Summarizer{entries: entries, projects: projects, users: users, ai: ai, logger: logger}
}

// WeeklySummary builds the current Monday-Sunday report for userID,
// optionally widened to every direct report of managerID (the
// team_id filter in the original service, adapted to this subsystem's
// manager-based UserReader.TeamMembers instead of a team-membership
// table), per spec §4.10.
func (s *Summarizer) WeeklySummary(ctx context.Context, userID, managerID string, includeAI bool) (*WeeklySummary, error) {
	userIDs := []string{userID}
	if managerID != "" {
		members, err := s.users.TeamMembers(ctx, managerID)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			userIDs = append(userIDs, m.ID)
		}
	}

	now := time.Now()
	weekStart := mostRecentMonday(now)
	weekEnd := weekStart.AddDate(0, 0, 7)

	metrics, err := s.gatherWeeklyMetrics(ctx, userIDs, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	insights := generateWeeklyInsights(metrics)

	var summaryText string
	if includeAI && s.ai != nil {
		text, err := s.aiSummary(ctx, metrics, insights)
		if err != nil {
			s.logger.Warn("report ai summary failed, using templated summary", zap.Error(err))
			summaryText = ruleBasedSummary(metrics)
		} else {
			summaryText = text
		}
	} else {
		summaryText = ruleBasedSummary(metrics)
	}

	return &WeeklySummary{
		PeriodStart:     weekStart,
		PeriodEnd:       weekEnd.AddDate(0, 0, -1),
		SummaryText:     summaryText,
		Highlights:      extractHighlights(metrics),
		AttentionNeeded: extractAttentionItems(insights),
		Recommendations: generateRecommendations(metrics, insights),
		Insights:        insights,
		Metrics:         metrics,
		GeneratedAt:     now,
	}, nil
}

func (s *Summarizer) gatherWeeklyMetrics(ctx context.Context, userIDs []string, weekStart, weekEnd time.Time) (WeeklyMetrics, error) {
	metrics := WeeklyMetrics{WeekStart: weekStart, WeekEnd: weekEnd.AddDate(0, 0, -1), UserCount: len(userIDs)}

	entries, err := s.entries.ForUsers(ctx, userIDs, weekStart, weekEnd)
	if err != nil {
		return metrics, err
	}
	lastWeekEntries, err := s.entries.ForUsers(ctx, userIDs, weekStart.AddDate(0, 0, -7), weekStart)
	if err != nil {
		return metrics, err
	}

	var totalSeconds, lastWeekSeconds float64
	for _, e := range entries {
		totalSeconds += float64(e.DurationSec)
	}
	for _, e := range lastWeekEntries {
		lastWeekSeconds += float64(e.DurationSec)
	}

	metrics.TotalHours = round1(totalSeconds / 3600)
	metrics.LastWeekHours = round1(lastWeekSeconds / 3600)
	if lastWeekSeconds > 0 {
		metrics.HoursChangePct = round1((totalSeconds - lastWeekSeconds) / lastWeekSeconds * 100)
	}

	projectSeconds := map[string]float64{}
	projectNames := map[string]string{}
	dailySeconds := map[string]float64{}
	for _, e := range entries {
		projectSeconds[e.ProjectID] += float64(e.DurationSec)
		dailySeconds[e.StartedAt.Format("2006-01-02")] += float64(e.DurationSec)
	}
	metrics.ProjectsCount = len(projectSeconds)

	for pid := range projectSeconds {
		if proj, err := s.projects.Get(ctx, pid); err == nil {
			projectNames[pid] = proj.Name
		}
	}

	var topProjects []ProjectHours
	for pid, secs := range projectSeconds {
		name := projectNames[pid]
		if name == "" {
			name = pid
		}
		topProjects = append(topProjects, ProjectHours{Name: name, Hours: round1(secs / 3600)})
	}
	sort.Slice(topProjects, func(i, j int) bool { return topProjects[i].Hours > topProjects[j].Hours })
	if len(topProjects) > 5 {
		topProjects = topProjects[:5]
	}
	metrics.TopProjects = topProjects

	var days []string
	for day := range dailySeconds {
		days = append(days, day)
	}
	sort.Strings(days)
	var dailyHoursValues []float64
	for _, day := range days {
		hours := round1(dailySeconds[day] / 3600)
		metrics.DailyHours = append(metrics.DailyHours, DayHours{Date: day, Hours: hours})
		dailyHoursValues = append(dailyHoursValues, hours)
	}

	if len(dailyHoursValues) > 0 {
		metrics.AvgDailyHours = round1(mean(dailyHoursValues))
		metrics.MaxDailyHours = round1(max(dailyHoursValues))
		metrics.MinDailyHours = round1(min(dailyHoursValues))
	}

	return metrics, nil
}

func ruleBasedSummary(m WeeklyMetrics) string {
	text := fmt.Sprintf("This week you logged %.1f hours across %d projects.", m.TotalHours, m.ProjectsCount)
	switch {
	case m.HoursChangePct > 10:
		text += fmt.Sprintf(" That's %.0f%% more than last week.", m.HoursChangePct)
	case m.HoursChangePct < -10:
		text += fmt.Sprintf(" That's %.0f%% less than last week.", -m.HoursChangePct)
	}
	return text
}

func extractHighlights(m WeeklyMetrics) []string {
	var highlights []string
	if m.TotalHours > 0 {
		highlights = append(highlights, fmt.Sprintf("Logged %.1f hours this week", m.TotalHours))
	}
	if len(m.TopProjects) > 0 {
		top := m.TopProjects[0]
		highlights = append(highlights, fmt.Sprintf("Most time on: %s (%.1fh)", top.Name, top.Hours))
	}
	if abs(m.HoursChangePct) > 10 {
		direction := "up"
		if m.HoursChangePct < 0 {
			direction = "down"
		}
		highlights = append(highlights, fmt.Sprintf("Productivity %s %.0f%% vs last week", direction, abs(m.HoursChangePct)))
	}
	if len(highlights) > 5 {
		highlights = highlights[:5]
	}
	return highlights
}

func extractAttentionItems(insights []Insight) []AttentionItem {
	var items []AttentionItem
	for _, i := range insights {
		if i.Severity == types.SeverityWarning || i.Severity == types.SeverityCritical {
			items = append(items, AttentionItem{Title: i.Title, Description: i.Description, Severity: i.Severity, Actions: i.ActionItems})
		}
	}
	return items
}

func generateRecommendations(m WeeklyMetrics, insights []Insight) []string {
	seen := map[string]bool{}
	var recs []string
	add := func(r string) {
		if !seen[r] {
			seen[r] = true
			recs = append(recs, r)
		}
	}

	for _, i := range insights {
		for _, a := range i.ActionItems {
			add(a)
		}
	}

	if m.AvgDailyHours > 9 {
		add("Consider reviewing workload distribution")
	}
	if m.ProjectsCount > 6 {
		add("Try to focus on fewer projects for better efficiency")
	}

	if len(recs) > 5 {
		recs = recs[:5]
	}
	return recs
}

func mostRecentMonday(from time.Time) time.Time {
	offset := int(from.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	d := from.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var total float64
	for _, x := range v {
		total += x
	}
	return total / float64(len(v))
}

func max(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func min(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
