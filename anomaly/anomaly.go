// Package anomaly implements rule-based (and, given enough history,
// statistical) detection of unusual time-tracking patterns: extended
// days, consecutive overload, weekend spikes, missing entries,
// duplicates, and burnout risk (spec §4.7). Grounded on
// original_source/backend/app/ai/services/anomaly_service.py for the
// exact thresholds and scoring, and ml_anomaly_service.py for the
// optional statistical baseline; rewritten in the teacher's
// constructor-injection idiom.
package anomaly

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/driftlog/aiops/cache"
	"github.com/driftlog/aiops/config"
	"github.com/driftlog/aiops/storage"
	"github.com/driftlog/aiops/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// dayMetrics is one day's aggregated activity for a user.
type dayMetrics struct {
	date        time.Time
	hours       float64
	entryCounts map[string]int // projectID -> entry count that day
}

// features is the per-user working set every detector reads, built
// once from the raw time entries (mirrors AnomalyFeatures.compute_metrics).
type features struct {
	userID            string
	userName          string
	periodStart       time.Time
	periodEnd         time.Time
	dailyHours        map[string]float64 // "2024-01-02" -> hours
	dailyEntryCounts  map[string]map[string]int
	totalHours        float64
	avgHoursPerDay    float64
	maxHoursDay       float64
	daysWorked        int
	weekendHours      float64
	consecutiveLong   int
	missingDays       []string
}

// Detector runs the anomaly-detection pipeline for one or many users.
type Detector struct {
	entries  storage.TimeEntryReader
	users    storage.UserReader
	cache    *cache.Store
	logger   *zap.Logger
	cfg      config.FeaturesConfig
}

// New constructs a Detector.
func New(entries storage.TimeEntryReader, users storage.UserReader, store *cache.Store, logger *zap.Logger, cfg config.FeaturesConfig) *Detector {
	return &Detector{entries: entries, users: users, cache: store, logger: logger, cfg: cfg}
}

// ScanUser detects anomalies for a single user over the trailing
// periodDays, using a same-day cache to avoid rescanning.
func (d *Detector) ScanUser(ctx context.Context, userID string, periodDays int) ([]types.Finding, error) {
	cacheDate := time.Now().Format("2006-01-02")

	var cached []types.Finding
	if d.cache.Get(ctx, cache.NamespaceAnomalies, &cached, cacheDate, userID) {
		return cached, nil
	}

	f, err := d.buildFeatures(ctx, userID, periodDays)
	if err != nil {
		return nil, err
	}

	var findings []types.Finding
	findings = append(findings, detectExtendedDays(f, d.cfg)...)
	findings = append(findings, detectConsecutiveLongDays(f, d.cfg)...)
	findings = append(findings, detectWeekendSpike(f, d.cfg)...)
	findings = append(findings, detectMissingTime(f)...)
	findings = append(findings, detectDuplicates(f)...)
	findings = append(findings, detectBurnoutRisk(f)...)

	if stat := detectStatisticalOutlier(f, d.cfg); stat != nil {
		findings = append(findings, *stat)
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return types.SeverityRank(findings[i].Severity) < types.SeverityRank(findings[j].Severity)
	})

	d.cache.Set(ctx, cache.NamespaceAnomalies, d.cfg.CacheTTLAnomalies, findings, cacheDate, userID)

	return findings, nil
}

// ScanTeam runs ScanUser across a set of users concurrently, bounding
// fan-out so a large team scan does not overwhelm the database.
func (d *Detector) ScanTeam(ctx context.Context, userIDs []string, periodDays int, concurrency int) (map[string][]types.Finding, error) {
	if concurrency <= 0 {
		concurrency = 4
	}

	results := make(map[string][]types.Finding, len(userIDs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	resultsCh := make(chan struct {
		userID   string
		findings []types.Finding
	}, len(userIDs))

	for _, uid := range userIDs {
		uid := uid
		g.Go(func() error {
			findings, err := d.ScanUser(ctx, uid, periodDays)
			if err != nil {
				d.logger.Warn("anomaly scan failed for user", zap.String("user_id", uid), zap.Error(err))
				return nil // one user's failure does not abort the team scan
			}
			resultsCh <- struct {
				userID   string
				findings []types.Finding
			}{uid, findings}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(resultsCh)

	for r := range resultsCh {
		results[r.userID] = r.findings
	}

	return results, nil
}

func (d *Detector) buildFeatures(ctx context.Context, userID string, periodDays int) (*features, error) {
	user, err := d.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, types.NewError(types.ErrNotFound, fmt.Sprintf("user %s not found", userID))
	}

	periodEnd := time.Now()
	periodStart := periodEnd.AddDate(0, 0, -periodDays)

	entries, err := d.entries.ForUser(ctx, userID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	f := &features{
		userID: userID, userName: user.Name,
		periodStart: periodStart, periodEnd: periodEnd,
		dailyHours:       map[string]float64{},
		dailyEntryCounts: map[string]map[string]int{},
	}

	for _, e := range entries {
		if e.EndedAt.IsZero() {
			continue
		}
		day := e.StartedAt.Format("2006-01-02")
		hours := e.EndedAt.Sub(e.StartedAt).Hours()
		f.dailyHours[day] += hours
		if f.dailyEntryCounts[day] == nil {
			f.dailyEntryCounts[day] = map[string]int{}
		}
		f.dailyEntryCounts[day][e.ProjectID]++
	}

	computeMetrics(f)
	return f, nil
}

// computeMetrics mirrors AnomalyFeatures.compute_metrics: totals,
// averages, weekend hours, the longest run of >=10h days, and the
// weekdays with under an hour of logged time.
func computeMetrics(f *features) {
	if len(f.dailyHours) == 0 {
		return
	}

	for _, h := range f.dailyHours {
		f.totalHours += h
		if h > f.maxHoursDay {
			f.maxHoursDay = h
		}
		if h > 0 {
			f.daysWorked++
		}
	}
	if f.daysWorked > 0 {
		f.avgHoursPerDay = f.totalHours / float64(f.daysWorked)
	}

	for dayStr, hours := range f.dailyHours {
		t, err := time.Parse("2006-01-02", dayStr)
		if err != nil {
			continue
		}
		if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
			f.weekendHours += hours
		}
	}

	var days []string
	for d := range f.dailyHours {
		days = append(days, d)
	}
	sort.Strings(days)

	const longDayThreshold = 10.0
	current, max := 0, 0
	for _, d := range days {
		if f.dailyHours[d] >= longDayThreshold {
			current++
			if current > max {
				max = current
			}
		} else {
			current = 0
		}
	}
	f.consecutiveLong = max

	for cur := f.periodStart; !cur.After(f.periodEnd); cur = cur.AddDate(0, 0, 1) {
		// Weekends are never counted as missing days.
		if cur.Weekday() == time.Saturday || cur.Weekday() == time.Sunday {
			continue
		}
		dayStr := cur.Format("2006-01-02")
		if f.dailyHours[dayStr] < 1 {
			f.missingDays = append(f.missingDays, dayStr)
		}
	}
}

func detectExtendedDays(f *features, cfg config.FeaturesConfig) []types.Finding {
	var out []types.Finding
	for day, hours := range f.dailyHours {
		if hours < cfg.AnomalyExtendedDayHours {
			continue
		}
		severity := types.SeverityWarning
		if hours >= 14 {
			severity = types.SeverityCritical
		}
		out = append(out, types.Finding{
			Type: types.FindingExtendedDay, Severity: severity, UserID: f.userID,
			Description: fmt.Sprintf("Extended work day: %.1f hours on %s", hours, day),
			DetectedAt:  time.Now(),
			Details:     map[string]any{"date": day, "hours": round2(hours), "threshold": cfg.AnomalyExtendedDayHours},
			Recommendation: "Consider taking breaks and maintaining work-life balance",
		})
	}
	return out
}

func detectConsecutiveLongDays(f *features, cfg config.FeaturesConfig) []types.Finding {
	if f.consecutiveLong < cfg.AnomalyConsecutiveLongDays {
		return nil
	}
	return []types.Finding{{
		Type: types.FindingConsecutiveLongDays, Severity: types.SeverityCritical, UserID: f.userID,
		Description: fmt.Sprintf("%d consecutive days with 10+ hours", f.consecutiveLong),
		DetectedAt:  time.Now(),
		Details: map[string]any{
			"consecutive_days": f.consecutiveLong, "threshold_days": cfg.AnomalyConsecutiveLongDays,
		},
		Recommendation: "This pattern may indicate burnout risk. Consider workload review.",
	}}
}

func detectWeekendSpike(f *features, cfg config.FeaturesConfig) []types.Finding {
	if f.weekendHours < cfg.AnomalyWeekendHours {
		return nil
	}
	severity := types.SeverityInfo
	if f.weekendHours >= 8 {
		severity = types.SeverityWarning
	}
	return []types.Finding{{
		Type: types.FindingWeekendSpike, Severity: severity, UserID: f.userID,
		Description: fmt.Sprintf("Weekend work spike: %.1f hours", f.weekendHours),
		DetectedAt:  time.Now(),
		Details:     map[string]any{"weekend_hours": round2(f.weekendHours), "threshold": cfg.AnomalyWeekendHours},
		Recommendation: "Ensure weekend work is planned and compensated appropriately",
	}}
}

func detectMissingTime(f *features) []types.Finding {
	if len(f.missingDays) < 2 {
		return nil
	}
	shown := f.missingDays
	if len(shown) > 5 {
		shown = shown[:5]
	}
	return []types.Finding{{
		Type: types.FindingMissingTime, Severity: types.SeverityInfo, UserID: f.userID,
		Description: fmt.Sprintf("Missing time entries for %d weekdays", len(f.missingDays)),
		DetectedAt:  time.Now(),
		Details:     map[string]any{"missing_days": shown, "total_missing": len(f.missingDays)},
		Recommendation: "Consider filling in missing time entries",
	}}
}

// detectDuplicates flags any (day, project) pair with more than 3
// entries, the same threshold the original service's HAVING clause uses.
func detectDuplicates(f *features) []types.Finding {
	var out []types.Finding
	var days []string
	for d := range f.dailyEntryCounts {
		days = append(days, d)
	}
	sort.Strings(days)

	for _, day := range days {
		projects := f.dailyEntryCounts[day]
		var projectIDs []string
		for p := range projects {
			projectIDs = append(projectIDs, p)
		}
		sort.Strings(projectIDs)
		for _, pid := range projectIDs {
			count := projects[pid]
			if count <= 3 {
				continue
			}
			out = append(out, types.Finding{
				Type: types.FindingDuplicateEntry, Severity: types.SeverityInfo, UserID: f.userID,
				Description: fmt.Sprintf("Multiple entries (%d) for same project on %s", count, day),
				DetectedAt:  time.Now(),
				Details:     map[string]any{"date": day, "project_id": pid, "entry_count": count},
				Recommendation: "Review entries for potential duplicates or consolidation",
			})
		}
	}
	return out
}

// detectBurnoutRisk sums a weighted risk score across five factors,
// exactly as the original service does, and flags at a total of 40+.
func detectBurnoutRisk(f *features) []types.Finding {
	riskScore := 0
	var factors []string

	if f.avgHoursPerDay > 9 {
		riskScore += 20
		factors = append(factors, fmt.Sprintf("High avg hours (%.1fh/day)", f.avgHoursPerDay))
	}
	if f.consecutiveLong >= 3 {
		riskScore += 30
		factors = append(factors, fmt.Sprintf("%d consecutive long days", f.consecutiveLong))
	}
	if f.weekendHours > 4 {
		riskScore += 15
		factors = append(factors, fmt.Sprintf("Weekend work (%.1fh)", f.weekendHours))
	}
	if f.maxHoursDay > 12 {
		riskScore += 20
		factors = append(factors, fmt.Sprintf("Max %.1fh in single day", f.maxHoursDay))
	}
	if f.daysWorked == 7 {
		riskScore += 15
		factors = append(factors, "No days off in period")
	}

	if riskScore < 40 {
		return nil
	}

	severity := types.SeverityWarning
	if riskScore >= 60 {
		severity = types.SeverityCritical
	}

	return []types.Finding{{
		Type: types.FindingBurnoutRisk, Severity: severity, UserID: f.userID,
		Description: fmt.Sprintf("Potential burnout risk detected (score: %d/100)", riskScore),
		DetectedAt:  time.Now(),
		Details:     map[string]any{"risk_score": riskScore, "risk_factors": factors},
		Recommendation: "Consider discussing workload and wellbeing with manager. " +
			"Regular breaks and time off are important for sustained productivity.",
	}}
}

// detectStatisticalOutlier flags a day more than two standard
// deviations above the user's own mean daily hours, a simplified
// z-score baseline grounded on ml_anomaly_service.py's UserBaseline.
// Degrades gracefully (returns nil) below MinSamplesForMLAnomaly days
// of history, since a baseline computed on too few samples is noise.
func detectStatisticalOutlier(f *features, cfg config.FeaturesConfig) *types.Finding {
	if len(f.dailyHours) < cfg.MinSamplesForMLAnomaly {
		return nil
	}

	var values []float64
	for _, h := range f.dailyHours {
		values = append(values, h)
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values) - 1)
	stddev := math.Sqrt(variance)
	if stddev == 0 {
		stddev = 1.5 // the Python service's default when only one sample exists
	}

	if f.maxHoursDay <= mean+2*stddev {
		return nil
	}

	return &types.Finding{
		Type: types.FindingStatisticalOutlier, Severity: types.SeverityWarning, UserID: f.userID,
		Description: fmt.Sprintf("Day of %.1f hours is a statistical outlier against your %.1fh average", f.maxHoursDay, mean),
		DetectedAt:  time.Now(),
		Details:     map[string]any{"max_hours": round2(f.maxHoursDay), "baseline_mean": round2(mean), "baseline_stddev": round2(stddev)},
		Confidence:  1 - math.Min(1, stddev/mean),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
