package orchestrator

import (
	"context"
	"time"

	"github.com/driftlog/aiops/forecast"
	"github.com/driftlog/aiops/nlparser"
	"github.com/driftlog/aiops/providers"
	"github.com/driftlog/aiops/report"
	"github.com/driftlog/aiops/types"
)

// Outcome wraps every feature-gated operation's result with the
// enabled/reason envelope spec §7 requires: "a disabled feature returns
// a structured {enabled: false, reason: …, results: []} outcome", never
// an error.
type Outcome[T any] struct {
	Enabled bool
	Reason  string
	Results T
}

// gated runs fn only if featureID resolves enabled for userID, recording
// one usage entry either way; a disabled feature short-circuits before
// any provider contact and before fn runs at all.
func gated[T any](o *Orchestrator, ctx context.Context, userID string, featureID types.FeatureID, fn func(ctx context.Context) (T, types.Provider, error)) (Outcome[T], error) {
	status, err := o.gate.Status(ctx, featureID, userID)
	if err != nil {
		var zero T
		return Outcome[T]{Results: zero}, err
	}
	if !status.Enabled {
		var zero T
		o.recordUsage(ctx, userID, featureID, "", false, false, 0, types.ErrFeatureDisabled)
		return Outcome[T]{Enabled: false, Reason: status.Reason, Results: zero}, nil
	}

	start := time.Now()
	result, provider, err := fn(ctx)
	elapsed := time.Since(start)
	if err != nil {
		o.recordUsage(ctx, userID, featureID, provider, false, false, elapsed, types.GetErrorCode(err))
		var zero T
		return Outcome[T]{Enabled: true, Reason: status.Reason, Results: zero}, err
	}

	o.recordUsage(ctx, userID, featureID, provider, false, true, elapsed, "")
	return Outcome[T]{Enabled: true, Reason: status.Reason, Results: result}, nil
}

// Suggest implements the suggest(userId, partialDescription?, limit,
// useAI) operation.
func (o *Orchestrator) Suggest(ctx context.Context, userID, partialDescription string, limit int, useAI bool) (Outcome[[]types.SuggestionCandidate], error) {
	return gated(o, ctx, userID, types.FeatureSuggestions, func(ctx context.Context) ([]types.SuggestionCandidate, types.Provider, error) {
		results, err := o.suggestions.Suggest(ctx, userID, partialDescription, limit, useAI)
		return results, aiProviderOf(useAI, o.ai), err
	})
}

// ScanAnomalies implements scanAnomalies(userId, periodDays).
func (o *Orchestrator) ScanAnomalies(ctx context.Context, userID string, periodDays int) (Outcome[[]types.Finding], error) {
	return gated(o, ctx, userID, types.FeatureAnomalyAlerts, func(ctx context.Context) ([]types.Finding, types.Provider, error) {
		results, err := o.anomalies.ScanUser(ctx, userID, periodDays)
		return results, "", err
	})
}

// ScanTeamAnomalies implements scanAnomalies(teamScope, periodDays).
func (o *Orchestrator) ScanTeamAnomalies(ctx context.Context, requestingUserID string, userIDs []string, periodDays, concurrency int) (Outcome[map[string][]types.Finding], error) {
	return gated(o, ctx, requestingUserID, types.FeatureAnomalyAlerts, func(ctx context.Context) (map[string][]types.Finding, types.Provider, error) {
		results, err := o.anomalies.ScanTeam(ctx, userIDs, periodDays, concurrency)
		return results, "", err
	})
}

// ForecastPayroll implements forecastPayroll(userId, periodType,
// periodsAhead, includeOvertime).
func (o *Orchestrator) ForecastPayroll(ctx context.Context, userID string, periodType forecast.PeriodType, periodsAhead int, includeOvertime bool) (Outcome[[]forecast.PayrollForecast], error) {
	return gated(o, ctx, userID, types.FeaturePayrollForecast, func(ctx context.Context) ([]forecast.PayrollForecast, types.Provider, error) {
		results, err := o.forecaster.ForecastPayroll(ctx, userID, periodType, periodsAhead, includeOvertime)
		return results, "", err
	})
}

// AssessOvertime implements assessOvertime(userId, daysAhead, teamScope?).
// daysAhead is accepted for interface parity with spec §6 but the risk
// assessment itself reads from recent history, not a forward window;
// this mirrors forecast.AssessOvertimeRisk's own signature.
func (o *Orchestrator) AssessOvertime(ctx context.Context, userID string, daysAhead int, teamScope []string) (Outcome[[]forecast.OvertimeRisk], error) {
	userIDs := teamScope
	if len(userIDs) == 0 {
		userIDs = []string{userID}
	}
	return gated(o, ctx, userID, types.FeaturePayrollForecast, func(ctx context.Context) ([]forecast.OvertimeRisk, types.Provider, error) {
		results, err := o.forecaster.AssessOvertimeRisk(ctx, userIDs)
		return results, "", err
	})
}

// ForecastProjectBudget implements forecastProjectBudget(userId,
// projectId?, teamScope?).
func (o *Orchestrator) ForecastProjectBudget(ctx context.Context, userID string, projectIDs []string) (Outcome[[]forecast.ProjectBudgetForecast], error) {
	return gated(o, ctx, userID, types.FeaturePayrollForecast, func(ctx context.Context) ([]forecast.ProjectBudgetForecast, types.Provider, error) {
		results, err := o.forecaster.ForecastProjectBudget(ctx, projectIDs)
		return results, "", err
	})
}

// ForecastCashFlow implements forecastCashFlow(userId, weeksAhead).
func (o *Orchestrator) ForecastCashFlow(ctx context.Context, userID string, weeksAhead int) (Outcome[[]forecast.CashFlowWeek], error) {
	return gated(o, ctx, userID, types.FeaturePayrollForecast, func(ctx context.Context) ([]forecast.CashFlowWeek, types.Provider, error) {
		results, err := o.forecaster.ForecastCashFlow(ctx, userID, weeksAhead)
		return results, "", err
	})
}

// ParseEntry implements parseEntry(userId, text, timezone, useAI) ->
// ParseResult. timezone is accepted for interface parity with spec §6;
// date keywords resolve against the caller's wall-clock time, which the
// handler layer is expected to have already localized.
func (o *Orchestrator) ParseEntry(ctx context.Context, userID, text, timezone string, useAI bool) (Outcome[*types.ParseResult], error) {
	return gated(o, ctx, userID, types.FeatureNLPEntry, func(ctx context.Context) (*types.ParseResult, types.Provider, error) {
		result, err := o.parser.Parse(ctx, userID, text, useAI)
		return result, aiProviderOf(useAI, o.ai), err
	})
}

// ConfirmEntry implements confirmEntry(userId, parseResult, overrides).
// Not feature-gated: it performs no provider call and is pure
// validation over an already-produced ParseResult.
func (o *Orchestrator) ConfirmEntry(parseResult *types.ParseResult, overrides nlparser.Overrides) (*nlparser.ConfirmedEntry, error) {
	return nlparser.Confirm(parseResult, overrides)
}

// WeeklyReport implements weeklyReport(userId, teamScope?, useAI).
func (o *Orchestrator) WeeklyReport(ctx context.Context, userID, managerID string, useAI bool) (Outcome[*report.WeeklySummary], error) {
	return gated(o, ctx, userID, types.FeatureReportSummaries, func(ctx context.Context) (*report.WeeklySummary, types.Provider, error) {
		result, err := o.reports.WeeklySummary(ctx, userID, managerID, useAI)
		return result, aiProviderOf(useAI, o.ai), err
	})
}

// ProjectHealth implements projectHealth(userId, projectId).
func (o *Orchestrator) ProjectHealth(ctx context.Context, userID, projectID string) (Outcome[*report.ProjectHealthResult], error) {
	return gated(o, ctx, userID, types.FeatureReportSummaries, func(ctx context.Context) (*report.ProjectHealthResult, types.Provider, error) {
		result, err := o.reports.ProjectHealth(ctx, projectID)
		return result, "", err
	})
}

// UserInsights implements userInsights(userId, targetUserId?).
func (o *Orchestrator) UserInsights(ctx context.Context, userID string, targetUserID string) (Outcome[*report.UserInsightsResult], error) {
	if targetUserID == "" {
		targetUserID = userID
	}
	return gated(o, ctx, userID, types.FeatureReportSummaries, func(ctx context.Context) (*report.UserInsightsResult, types.Provider, error) {
		result, err := o.reports.UserInsights(ctx, targetUserID)
		return result, "", err
	})
}

// aiProviderOf returns a usage-record provider label for calls that may
// have reached a provider. Which specific provider actually answered is
// internal to providers.GenerationOutcome and not surfaced through these
// higher-level operations, so useAI calls are attributed generically
// rather than left indistinguishable from a pure pattern-only call.
func aiProviderOf(useAI bool, ai *providers.AIClient) types.Provider {
	if !useAI || ai == nil {
		return ""
	}
	return "ai"
}
