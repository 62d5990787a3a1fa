// Package suggestion implements the pattern-first/AI-second time entry
// suggestion pipeline (spec §4.6). Grounded on
// original_source/backend/app/ai/services/suggestion_service.py for the
// exact strategy ordering and confidence formulas; rewritten in the
// teacher's constructor-injection, *zap.Logger idiom.
package suggestion

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/driftlog/aiops/cache"
	"github.com/driftlog/aiops/providers"
	"github.com/driftlog/aiops/storage"
	"github.com/driftlog/aiops/types"
	"go.uber.org/zap"
)

// Config bounds the engine's pattern and AI stages.
type Config struct {
	ConfidenceThreshold float64
	LookbackDays        int
	CacheTTL            time.Duration
	RateLimitPerMinute  int
}

// Engine produces ranked project/task suggestions for a user, blending
// fast pattern strategies with an optional AI enhancement pass.
type Engine struct {
	entries  storage.TimeEntryReader
	projects storage.ProjectReader
	ai       *providers.AIClient
	cache    *cache.Store
	limiter  *cache.RateLimiter
	logger   *zap.Logger
	cfg      Config
}

// New constructs an Engine.
func New(entries storage.TimeEntryReader, projects storage.ProjectReader, ai *providers.AIClient, store *cache.Store, limiter *cache.RateLimiter, logger *zap.Logger, cfg Config) *Engine {
	return &Engine{entries: entries, projects: projects, ai: ai, cache: store, limiter: limiter, logger: logger, cfg: cfg}
}

// userContext is the per-request working set the pattern and AI stages
// both read, built once from read-only storage.
type userContext struct {
	userID             string
	recentEntries      []*storage.TimeEntry
	activeProjects     map[string]*storage.Project
	mostCommonProjects []string // project ids, ordered by frequency desc
	projectFrequencies map[string]float64
	timeSlotPatterns   map[string][]string // time-of-day -> project ids, recency ordered
}

// Suggest returns up to limit ranked suggestions for a user, optionally
// incorporating a partial description the user is currently typing.
func (e *Engine) Suggest(ctx context.Context, userID string, partialDescription string, limit int, useAI bool) ([]types.SuggestionCandidate, error) {
	if allowed, _ := e.limiter.Allow(ctx, userID, 1, e.cfg.RateLimitPerMinute); !allowed {
		return nil, types.NewError(types.ErrRateLimited, "suggestion rate limit exceeded")
	}

	now := time.Now()
	hour := now.Hour()
	dayOfWeek := int(now.Weekday())
	fingerprint := cache.Fingerprint(map[string]any{
		"user_id": userID, "hour": hour, "day": dayOfWeek, "partial": partialDescription,
	})

	var cached []types.SuggestionCandidate
	if e.cache.Get(ctx, cache.NamespaceSuggestions, &cached, userID, fingerprint) {
		return cached, nil
	}

	uctx, err := e.buildUserContext(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates := e.patternSuggestions(uctx, now, partialDescription)

	if useAI && len(candidates) < limit && e.ai != nil {
		aiCandidates, err := e.aiSuggestions(ctx, uctx, now, partialDescription)
		if err != nil {
			e.logger.Warn("ai suggestions failed, using pattern-only", zap.Error(err))
		} else {
			seen := map[string]bool{}
			for _, c := range candidates {
				seen[c.ProjectID] = true
			}
			for _, c := range aiCandidates {
				if !seen[c.ProjectID] {
					candidates = append(candidates, c)
					seen[c.ProjectID] = true
				}
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Confidence > candidates[j].Confidence })
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	filtered := make([]types.SuggestionCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Confidence >= e.cfg.ConfidenceThreshold {
			filtered = append(filtered, c)
		}
	}

	if len(filtered) > 0 {
		e.cache.Set(ctx, cache.NamespaceSuggestions, e.cfg.CacheTTL, filtered, userID, fingerprint)
	}

	return filtered, nil
}

func (e *Engine) buildUserContext(ctx context.Context, userID string) (*userContext, error) {
	since := time.Now().AddDate(0, 0, -e.cfg.LookbackDays)
	entries, err := e.entries.ForUser(ctx, userID, since, time.Now())
	if err != nil {
		return nil, err
	}
	// Most recent first, matching the Python service's descending query.
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].StartedAt.After(entries[j].StartedAt) })

	uctx := &userContext{
		userID:             userID,
		recentEntries:      entries,
		activeProjects:     map[string]*storage.Project{},
		projectFrequencies: map[string]float64{},
		timeSlotPatterns:   map[string][]string{},
	}

	counts := map[string]int{}
	for _, e := range entries {
		counts[e.ProjectID]++
		slot := timeOfDay(e.StartedAt.Hour())
		uctx.timeSlotPatterns[slot] = append(uctx.timeSlotPatterns[slot], e.ProjectID)
	}

	type pc struct {
		id    string
		count int
	}
	var ordered []pc
	for id, c := range counts {
		ordered = append(ordered, pc{id, c})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].count > ordered[j].count })

	maxCount := 0
	if len(ordered) > 0 {
		maxCount = ordered[0].count
	}
	for _, p := range ordered {
		uctx.mostCommonProjects = append(uctx.mostCommonProjects, p.id)
		if maxCount > 0 {
			uctx.projectFrequencies[p.id] = float64(p.count) / float64(maxCount)
		}
	}
	if len(uctx.mostCommonProjects) > 5 {
		uctx.mostCommonProjects = uctx.mostCommonProjects[:5]
	}

	projectIDs := map[string]bool{}
	for _, e := range entries {
		projectIDs[e.ProjectID] = true
	}
	for id := range projectIDs {
		p, err := e.projects.Get(ctx, id)
		if err == nil {
			uctx.activeProjects[id] = p
		}
	}

	return uctx, nil
}

func timeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}

// patternSuggestions runs the four rule-based strategies in the order
// the Python service does: frequent projects, time-of-day patterns,
// most recent entry, keyword match.
func (e *Engine) patternSuggestions(uctx *userContext, now time.Time, partialDescription string) []types.SuggestionCandidate {
	var out []types.SuggestionCandidate
	seen := map[string]bool{}

	// Strategy 1: most frequent projects (top 3), confidence = min(0.9,
	// 0.5 + freq*0.5).
	topN := uctx.mostCommonProjects
	if len(topN) > 3 {
		topN = topN[:3]
	}
	for _, pid := range topN {
		proj, ok := uctx.activeProjects[pid]
		if !ok {
			continue
		}
		freq := uctx.projectFrequencies[pid]
		conf := 0.5 + freq*0.5
		if conf > 0.9 {
			conf = 0.9
		}
		out = append(out, types.SuggestionCandidate{
			ProjectID: pid, ProjectName: proj.Name, Confidence: conf,
			Reason: "Frequently used project", Source: types.SourcePattern,
		})
		seen[pid] = true
	}

	// Strategy 2: time-of-day pattern, top 2, confidence 0.6.
	slot := timeOfDay(now.Hour())
	slotProjects := uctx.timeSlotPatterns[slot]
	added := 0
	for _, pid := range slotProjects {
		if added >= 2 {
			break
		}
		proj, ok := uctx.activeProjects[pid]
		if !ok || seen[pid] {
			continue
		}
		out = append(out, types.SuggestionCandidate{
			ProjectID: pid, ProjectName: proj.Name, Confidence: 0.6,
			Reason: "Often used in the " + slot, Source: types.SourcePattern,
		})
		seen[pid] = true
		added++
	}

	// Strategy 3: most recent entry, confidence 0.7.
	if len(uctx.recentEntries) > 0 {
		recent := uctx.recentEntries[0]
		if proj, ok := uctx.activeProjects[recent.ProjectID]; ok && !seen[recent.ProjectID] {
			out = append(out, types.SuggestionCandidate{
				ProjectID: recent.ProjectID, ProjectName: proj.Name, TaskID: recent.TaskID,
				SuggestedDescription: recent.Description, Confidence: 0.7,
				Reason: "Your most recent entry", Source: types.SourceRecent,
			})
			seen[recent.ProjectID] = true
		}
	}

	// Strategy 4: keyword match against the last 20 entries, confidence
	// 0.5 + matches*0.1, stops at the first matching entry.
	if partialDescription != "" {
		keywords := extractKeywords(partialDescription)
		limit := len(uctx.recentEntries)
		if limit > 20 {
			limit = 20
		}
		for _, entry := range uctx.recentEntries[:limit] {
			if seen[entry.ProjectID] {
				continue
			}
			proj, ok := uctx.activeProjects[entry.ProjectID]
			if !ok {
				continue
			}
			matches := countKeywordMatches(keywords, entry.Description)
			if matches == 0 {
				continue
			}
			out = append(out, types.SuggestionCandidate{
				ProjectID: entry.ProjectID, ProjectName: proj.Name, TaskID: entry.TaskID,
				SuggestedDescription: entry.Description, Confidence: 0.5 + float64(matches)*0.1,
				Reason: "Matches your description", Source: types.SourcePattern,
			})
			seen[entry.ProjectID] = true
			break
		}
	}

	return out
}

func extractKeywords(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	var keywords []string
	for _, f := range fields {
		if len(f) >= 3 {
			keywords = append(keywords, f)
		}
	}
	return keywords
}

func countKeywordMatches(keywords []string, description string) int {
	desc := strings.ToLower(description)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(desc, kw) {
			matches++
		}
	}
	return matches
}
