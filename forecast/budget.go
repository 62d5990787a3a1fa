package forecast

import (
	"context"
	"sort"
	"time"

	"github.com/driftlog/aiops/types"
)

// ProjectBudgetForecast is one project's burn-rate projection.
type ProjectBudgetForecast struct {
	ProjectID           string
	ProjectName         string
	BudgetTotalUSD      float64
	SpentToDateUSD      float64
	ProjectedTotalUSD   float64
	BurnRateDailyUSD    float64
	DaysRemaining       int
	ProjectedCompletion time.Time
	RiskLevel           types.RiskLevel
	Recommendations     []string
}

// blendedHourlyRate is used when a per-user rate cannot be attributed
// to a project's mixed contributors, matching the original service's
// simplified "average pay rate" placeholder.
const blendedHourlyRate = 50.00

// ForecastProjectBudget analyzes burn rate and completion risk for
// each given project, sorted most severe first, per spec §4.8.
func (f *Forecaster) ForecastProjectBudget(ctx context.Context, projectIDs []string) ([]ProjectBudgetForecast, error) {
	var forecasts []ProjectBudgetForecast
	for _, pid := range projectIDs {
		fc, err := f.analyzeProjectBudget(ctx, pid)
		if err != nil {
			return nil, err
		}
		if fc != nil {
			forecasts = append(forecasts, *fc)
		}
	}

	sort.SliceStable(forecasts, func(i, j int) bool {
		return types.RiskRank(forecasts[i].RiskLevel) < types.RiskRank(forecasts[j].RiskLevel)
	})
	return forecasts, nil
}

func (f *Forecaster) analyzeProjectBudget(ctx context.Context, projectID string) (*ProjectBudgetForecast, error) {
	project, err := f.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, nil
	}

	entries, err := f.entries.ForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	var totalHours float64
	var firstStart time.Time
	for _, e := range entries {
		totalHours += e.EndedAt.Sub(e.StartedAt).Hours()
		if firstStart.IsZero() || e.StartedAt.Before(firstStart) {
			firstStart = e.StartedAt
		}
	}
	if totalHours == 0 {
		return nil, nil
	}

	spentToDate := totalHours * blendedHourlyRate

	daysActive := int(time.Since(firstStart).Hours()/24) + 1
	if daysActive < 1 {
		daysActive = 1
	}
	burnRateDaily := spentToDate / float64(daysActive)

	budgetTotal := project.BudgetTotal
	if budgetTotal == 0 {
		budgetTotal = 50000.00 // the original service's placeholder budget
	}

	var daysRemaining int
	var projectedCompletion time.Time
	var projectedTotal float64
	if burnRateDaily > 0 {
		remaining := budgetTotal - spentToDate
		daysRemaining = int(remaining / burnRateDaily)
		projectedCompletion = time.Now().AddDate(0, 0, daysRemaining)
		projectedTotal = spentToDate + burnRateDaily*float64(daysRemaining)
	} else {
		daysRemaining = 365
		projectedCompletion = time.Now().AddDate(0, 0, 365)
		projectedTotal = spentToDate
	}

	utilization := 0.0
	if budgetTotal > 0 {
		utilization = spentToDate / budgetTotal * 100
	}

	var level types.RiskLevel
	var recommendations []string
	switch {
	case utilization > 90:
		level = types.RiskCritical
		recommendations = []string{
			"Project approaching budget limit",
			"Review remaining scope for cuts",
			"Request budget increase if necessary",
		}
	case utilization > 75:
		level = types.RiskHigh
		recommendations = []string{"Monitor spending closely", "Prioritize critical deliverables"}
	case utilization > 50:
		level = types.RiskMedium
		recommendations = []string{"On track but continue monitoring"}
	default:
		level = types.RiskLow
		recommendations = []string{"Budget utilization healthy"}
	}

	return &ProjectBudgetForecast{
		ProjectID: projectID, ProjectName: project.Name,
		BudgetTotalUSD: budgetTotal, SpentToDateUSD: round2(spentToDate),
		ProjectedTotalUSD: round2(projectedTotal), BurnRateDailyUSD: round2(burnRateDaily),
		DaysRemaining: daysRemaining, ProjectedCompletion: projectedCompletion,
		RiskLevel: level, Recommendations: recommendations,
	}, nil
}

// CashFlowWeek is one week's payroll cash-flow projection.
type CashFlowWeek struct {
	WeekStart        time.Time
	WeekEnd          time.Time
	IsPayrollWeek    bool
	ProjectedUSD     float64
	CumulativeUSD    float64
}

// ForecastCashFlow projects weekly payroll outlay assuming a bi-weekly
// cadence, from a rolling mean of recent periods, per spec §4.8.
func (f *Forecaster) ForecastCashFlow(ctx context.Context, userID string, weeksAhead int) ([]CashFlowWeek, error) {
	history, err := f.buildPayrollHistory(ctx, userID, PeriodBiWeekly, 6)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, types.NewError(types.ErrBadInput, "insufficient payroll history")
	}

	amounts := make([]float64, len(history))
	for i, h := range history {
		amounts[i] = h.GrossAmountUSD
	}
	avgPayroll := mean(amounts)

	currentWeek := mostRecentMonday(time.Now())
	var weeks []CashFlowWeek
	cumulative := 0.0
	for i := 0; i < weeksAhead; i++ {
		weekStart := currentWeek.AddDate(0, 0, 7*i)
		weekEnd := weekStart.AddDate(0, 0, 6)
		isPayrollWeek := i%2 == 0

		projected := 0.0
		if isPayrollWeek {
			projected = avgPayroll
			cumulative += avgPayroll
		}

		weeks = append(weeks, CashFlowWeek{
			WeekStart: weekStart, WeekEnd: weekEnd, IsPayrollWeek: isPayrollWeek,
			ProjectedUSD: round2(projected), CumulativeUSD: round2(cumulative),
		})
	}

	return weeks, nil
}
