package suggestion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/driftlog/aiops/types"
)

// aiSuggestions asks the model to propose additional candidates beyond
// what the pattern strategies found, grounded on
// suggestion_service.py's _get_ai_suggestions prompt shape: recent
// project names, current time-of-day, and the partial description, with
// the model expected to answer as a JSON object with a "suggestions"
// array.
func (e *Engine) aiSuggestions(ctx context.Context, uctx *userContext, now time.Time, partialDescription string) ([]types.SuggestionCandidate, error) {
	var names []string
	for _, pid := range uctx.mostCommonProjects {
		if p, ok := uctx.activeProjects[pid]; ok {
			names = append(names, p.Name)
		}
	}

	prompt := fmt.Sprintf(
		"The user's recent projects are: %s. It is currently %s, %s. The user started typing: %q. "+
			"Respond with JSON: {\"suggestions\": [{\"project_name\": str, \"confidence\": float, \"reason\": str}]}",
		strings.Join(names, ", "), timeOfDay(now.Hour()), now.Weekday().String(), partialDescription,
	)

	outcome, err := e.ai.Generate(ctx, suggestionSystemPrompt, prompt, 0.3, 400, "", types.FeatureSuggestions)
	if err != nil {
		return nil, err
	}
	if outcome.ParsedJSON == nil {
		return nil, types.NewError(types.ErrInvalidResponse, "ai suggestion response was not valid JSON")
	}

	raw, ok := outcome.ParsedJSON["suggestions"].([]any)
	if !ok {
		return nil, types.NewError(types.ErrInvalidResponse, "ai suggestion response missing suggestions array")
	}

	nameToID := map[string]string{}
	for id, p := range uctx.activeProjects {
		nameToID[p.Name] = id
	}

	var out []types.SuggestionCandidate
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["project_name"].(string)
		id, known := nameToID[name]
		if !known {
			continue
		}
		conf, _ := m["confidence"].(float64)
		reason, _ := m["reason"].(string)
		if reason == "" {
			reason = "AI suggested"
		}
		out = append(out, types.SuggestionCandidate{
			ProjectID: id, ProjectName: name, Confidence: conf, Reason: reason, Source: types.SourceAI,
		})
	}

	return out, nil
}

const suggestionSystemPrompt = "You help a time tracking app predict what project and task a user is about to log time against, based on their history."
