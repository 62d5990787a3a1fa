// Package nlparser turns a free-text time entry ("2h on Project Alpha
// yesterday") into a structured ParseResult: duration, date, matched
// project/task, and a leftover description, each carrying its own
// confidence (spec §4.9). Grounded on
// original_source/backend/app/ai/services/nlp_service.py for the
// pattern table, matching heuristics, and confidence weights;
// rewritten in the teacher's constructor-injection idiom. The AI
// refinement stage only runs when rule-based confidence falls below
// the configured threshold, same as the suggestion engine's
// pattern-first/AI-second shape.
package nlparser

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/driftlog/aiops/config"
	"github.com/driftlog/aiops/providers"
	"github.com/driftlog/aiops/storage"
	"github.com/driftlog/aiops/types"
	"go.uber.org/zap"
)

// projectLookbackDays bounds how far back the parser looks for a
// user's active projects and tasks to match against. The spec's cache
// namespace list has no "nlp" entry, so unlike suggestion/anomaly this
// lookup is not cached.
const projectLookbackDays = 90

// minDurationSeconds is the floor below which a parsed duration is
// discarded rather than surfaced, per the resolved duration-minimum
// open question.
const minDurationSeconds = 60

// Parser extracts structured time entry fields from natural language.
type Parser struct {
	entries  storage.TimeEntryReader
	projects storage.ProjectReader
	ai       *providers.AIClient
	logger   *zap.Logger
	cfg      config.FeaturesConfig
}

// New constructs a Parser.
func New(entries storage.TimeEntryReader, projects storage.ProjectReader, ai *providers.AIClient, logger *zap.Logger, cfg config.FeaturesConfig) *Parser {
	return &Parser{entries: entries, projects: projects, ai: ai, logger: logger, cfg: cfg}
}

// Parse runs the rule-based pipeline and, when confidence is low
// enough and a provider is configured, an AI refinement pass.
func (p *Parser) Parse(ctx context.Context, userID, text string, useAI bool) (*types.ParseResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, types.NewError(types.ErrBadInput, "empty input")
	}

	projects, tasks, err := p.userCatalog(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &types.ParseResult{OriginalText: text}
	now := time.Now()

	var durationConf float64
	if seconds, original, ok := parseDuration(text); ok && seconds >= minDurationSeconds {
		result.DurationSeconds = seconds
		durationConf = 0.9
		result.Entities = append(result.Entities, entityAt(text, "duration", original, durationConf))
	}

	var dateConf float64
	var hasDate bool
	if d, original, conf, ok := parseDate(text, now); ok {
		start := d
		result.StartTime = &start
		if result.DurationSeconds > 0 {
			end := start.Add(time.Duration(result.DurationSeconds) * time.Second)
			result.EndTime = &end
		}
		dateConf = conf
		hasDate = true
		result.Entities = append(result.Entities, entityAt(text, "date", original, conf))
	} else {
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		result.StartTime = &start
		if result.DurationSeconds > 0 {
			end := start.Add(time.Duration(result.DurationSeconds) * time.Second)
			result.EndTime = &end
		}
	}

	var projectConf float64
	var projectName string
	if m := matchProject(text, projects); m != nil {
		result.ProjectID = m.id
		projectName = m.name
		projectConf = m.confidence
		result.Entities = append(result.Entities, types.Entity{Type: "project", Value: m.name})
	}

	var taskConf float64
	var taskName string
	if result.ProjectID != "" {
		if m := matchTask(text, tasks, result.ProjectID); m != nil {
			result.TaskID = m.id
			taskName = m.name
			taskConf = m.confidence
			result.Entities = append(result.Entities, types.Entity{Type: "task", Value: m.name})
		}
	}

	result.Description = extractDescription(text, projectName, taskName)

	result.Confidence = calculateConfidence(result.DurationSeconds > 0, durationConf, result.ProjectID != "", projectConf, result.TaskID != "", taskConf, hasDate, dateConf)
	result.ConfidenceLevel = types.LevelForConfidence(result.Confidence)

	if useAI && p.ai != nil && result.Confidence < p.cfg.NLPConfidenceThreshold {
		enhanced, err := p.enhanceWithAI(ctx, text, projects, result)
		if err != nil {
			p.logger.Warn("nlp ai enhancement failed, keeping rule-based result", zap.Error(err))
		} else if enhanced != nil {
			result = enhanced
		}
	}

	if result.Confidence < p.cfg.NLPConfidenceThreshold {
		result.NeedsClarification = true
		result.ClarificationPrompt = generateClarification(result)
	}

	if result.ProjectID == "" && len(projects) > 0 {
		limit := 5
		if len(projects) < limit {
			limit = len(projects)
		}
		for _, proj := range projects[:limit] {
			result.Suggestions = append(result.Suggestions, proj.Name)
		}
	}

	return result, nil
}

// userCatalog loads the projects and tasks a user has actually worked
// on recently, the same team-free approximation suggestion.Engine uses
// for "active projects" given this subsystem has no team membership
// reader.
func (p *Parser) userCatalog(ctx context.Context, userID string) ([]*storage.Project, []*storage.Task, error) {
	since := time.Now().AddDate(0, 0, -projectLookbackDays)
	entries, err := p.entries.ForUser(ctx, userID, since, time.Now())
	if err != nil {
		return nil, nil, err
	}

	seen := map[string]bool{}
	var projectIDs []string
	for _, e := range entries {
		if !seen[e.ProjectID] {
			seen[e.ProjectID] = true
			projectIDs = append(projectIDs, e.ProjectID)
		}
	}
	sort.Strings(projectIDs)

	var projects []*storage.Project
	var tasks []*storage.Task
	for _, id := range projectIDs {
		proj, err := p.projects.Get(ctx, id)
		if err != nil {
			continue
		}
		projects = append(projects, proj)

		projTasks, err := p.projects.Tasks(ctx, id)
		if err == nil {
			tasks = append(tasks, projTasks...)
		}
	}

	return projects, tasks, nil
}

func entityAt(text, entityType, original string, confidence float64) types.Entity {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, strings.ToLower(original))
	e := types.Entity{Type: entityType, Value: original}
	if idx >= 0 {
		e.Start = idx
		e.End = idx + len(original)
	}
	return e
}
