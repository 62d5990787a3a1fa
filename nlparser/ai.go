package nlparser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/driftlog/aiops/storage"
	"github.com/driftlog/aiops/types"
)

const nlpSystemPrompt = "You are a precise time entry parser. Return only valid JSON."

// enhanceWithAI asks the provider to re-derive the same fields the
// rule-based pass produces, then backfills anything it leaves out from
// current, boosting confidence by 0.15 on success, per _enhance_with_ai.
func (p *Parser) enhanceWithAI(ctx context.Context, text string, projects []*storage.Project, current *types.ParseResult) (*types.ParseResult, error) {
	var names []string
	limit := 10
	if len(projects) < limit {
		limit = len(projects)
	}
	for _, proj := range projects[:limit] {
		names = append(names, proj.Name)
	}

	now := time.Now()
	prompt := fmt.Sprintf(`Parse this time entry request and extract the relevant information.

User said: %q

Available projects: %s

Extract:
1. Duration (in hours and minutes)
2. Project name (must match one from the list above)
3. Task description
4. Date (relative to today: %s)

Return a JSON object with:
{
    "duration_hours": number,
    "duration_minutes": number,
    "project_name": string or null,
    "description": string,
    "date": "YYYY-MM-DD" or null
}

Be precise. If unsure, set to null.`, text, strings.Join(names, ", "), now.Format("2006-01-02"))

	outcome, err := p.ai.Generate(ctx, nlpSystemPrompt, prompt, 0.1, 300, "", types.FeatureNLPEntry)
	if err != nil {
		return nil, err
	}
	if outcome.ParsedJSON == nil {
		return nil, types.NewError(types.ErrInvalidResponse, "nlp ai response was not valid JSON")
	}
	data := outcome.ParsedJSON

	enhanced := &types.ParseResult{OriginalText: text}

	hours, _ := data["duration_hours"].(float64)
	minutes, _ := data["duration_minutes"].(float64)
	if hours != 0 || minutes != 0 {
		enhanced.DurationSeconds = int(hours*3600 + minutes*60)
	} else {
		enhanced.DurationSeconds = current.DurationSeconds
	}

	if name, ok := data["project_name"].(string); ok && name != "" {
		for _, proj := range projects {
			if strings.EqualFold(proj.Name, name) {
				enhanced.ProjectID = proj.ID
				break
			}
			if strings.Contains(strings.ToLower(proj.Name), strings.ToLower(name)) {
				enhanced.ProjectID = proj.ID
			}
		}
	}
	if enhanced.ProjectID == "" {
		enhanced.ProjectID = current.ProjectID
	}

	if desc, ok := data["description"].(string); ok && desc != "" {
		enhanced.Description = desc
	} else {
		enhanced.Description = current.Description
	}

	if dateStr, ok := data["date"].(string); ok && dateStr != "" {
		if parsed, err := time.Parse("2006-01-02", dateStr); err == nil {
			enhanced.StartTime = &parsed
		} else {
			enhanced.StartTime = current.StartTime
		}
	} else {
		enhanced.StartTime = current.StartTime
	}

	if enhanced.StartTime != nil && enhanced.DurationSeconds > 0 {
		end := enhanced.StartTime.Add(time.Duration(enhanced.DurationSeconds) * time.Second)
		enhanced.EndTime = &end
	}

	enhanced.Confidence = calculateConfidence(
		enhanced.DurationSeconds > 0, 0.9,
		enhanced.ProjectID != "", 0.9,
		false, 0,
		enhanced.StartTime != nil, 0.9,
	)
	enhanced.Confidence += 0.15
	if enhanced.Confidence > 1.0 {
		enhanced.Confidence = 1.0
	}
	enhanced.ConfidenceLevel = types.LevelForConfidence(enhanced.Confidence)

	return enhanced, nil
}
