package report

import (
	"context"
	"fmt"

	"github.com/driftlog/aiops/types"
)

const reportSystemPrompt = "You write short, encouraging weekly time tracking summaries for a single user. Two to three sentences, no bullet points."

// aiSummary asks the model to narrate the week's metrics, grounded on
// _generate_ai_summary's prompt shape: total hours, change versus last
// week, and the top projects by hours logged.
func (s *Summarizer) aiSummary(ctx context.Context, m WeeklyMetrics, insights []Insight) (string, error) {
	var topLine string
	if len(m.TopProjects) > 0 {
		topLine = fmt.Sprintf("Top project: %s (%.1f hours).", m.TopProjects[0].Name, m.TopProjects[0].Hours)
	}

	prompt := fmt.Sprintf(
		"This week's totals: %.1f hours logged across %d projects, a %.0f%% change from last week's %.1f hours. %s "+
			"Write a brief, encouraging summary of the week.",
		m.TotalHours, m.ProjectsCount, m.HoursChangePct, m.LastWeekHours, topLine,
	)

	outcome, err := s.ai.Generate(ctx, reportSystemPrompt, prompt, 0.5, 200, "", types.FeatureReportSummaries)
	if err != nil {
		return "", err
	}
	if outcome.RawText == "" {
		return "", types.NewError(types.ErrInvalidResponse, "ai report summary response was empty")
	}
	return outcome.RawText, nil
}
