// Package forecast implements payroll, overtime-risk, project-budget,
// and cash-flow projections (spec §4.8). Grounded on
// original_source/backend/app/ai/services/forecasting_service.py for
// the weighted-moving-average, trend, and risk-banding formulas.
// Payroll period history has no owned PayrollPeriod/PayrollEntry table
// in this subsystem (storage's reader boundary is time entries,
// projects, tasks, users, and pay rates), so periods are derived here
// by bucketing TimeEntryReader results into period-shaped windows
// rather than read from a payroll ledger the original service assumed.
package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/driftlog/aiops/cache"
	"github.com/driftlog/aiops/storage"
	"github.com/driftlog/aiops/types"
	"go.uber.org/zap"
)

// PeriodType names a payroll cadence.
type PeriodType string

const (
	PeriodWeekly       PeriodType = "weekly"
	PeriodBiWeekly     PeriodType = "bi_weekly"
	PeriodSemiMonthly  PeriodType = "semi_monthly"
	PeriodMonthly      PeriodType = "monthly"
)

// PayrollPeriodActual is one completed period's observed totals, the
// input series the payroll forecast is fit against.
type PayrollPeriodActual struct {
	Start          time.Time
	End            time.Time
	RegularHours   float64
	OvertimeHours  float64
	GrossAmountUSD float64
}

// PayrollForecast is one period's projection, carrying the
// regular/overtime cost split alongside the common types.Forecast shape.
type PayrollForecast struct {
	types.Forecast
	PeriodStart           time.Time
	PeriodEnd             time.Time
	PredictedRegularUSD   float64
	PredictedOvertimeUSD  float64
}

// Forecaster produces predictive analytics over time-entry and
// pay-rate history.
type Forecaster struct {
	entries  storage.TimeEntryReader
	projects storage.ProjectReader
	users    storage.UserReader
	payroll  storage.PayrollReader
	cache    *cache.Store
	ttl      time.Duration
	logger   *zap.Logger
}

// New constructs a Forecaster.
func New(entries storage.TimeEntryReader, projects storage.ProjectReader, users storage.UserReader, payroll storage.PayrollReader, store *cache.Store, ttl time.Duration, logger *zap.Logger) *Forecaster {
	return &Forecaster{entries: entries, projects: projects, users: users, payroll: payroll, cache: store, ttl: ttl, logger: logger}
}

// ForecastPayroll projects gross payroll cost for the periodsAhead
// periods following the most recent completed one, per spec §4.8.
func (f *Forecaster) ForecastPayroll(ctx context.Context, userID string, periodType PeriodType, periodsAhead int, includeOvertime bool) ([]PayrollForecast, error) {
	cacheKey := fmt.Sprintf("%s:%d", periodType, periodsAhead)
	var cached []PayrollForecast
	if f.cache.Get(ctx, cache.NamespaceForecast, &cached, "payroll", userID, cacheKey) {
		return cached, nil
	}

	history, err := f.buildPayrollHistory(ctx, userID, periodType, 12)
	if err != nil {
		return nil, err
	}
	if len(history) < 3 {
		return nil, types.NewError(types.ErrBadInput, "insufficient historical data (need at least 3 periods)")
	}

	var forecasts []PayrollForecast
	lastEnd := history[len(history)-1].End
	for i := 0; i < periodsAhead; i++ {
		start, end := nextPeriod(lastEnd, periodType, 0)
		fc := generatePayrollForecast(history, start, end, includeOvertime)
		forecasts = append(forecasts, fc)
		lastEnd = end
	}

	f.cache.Set(ctx, cache.NamespaceForecast, f.ttl, forecasts, "payroll", userID, cacheKey)
	return forecasts, nil
}

func (f *Forecaster) buildPayrollHistory(ctx context.Context, userID string, periodType PeriodType, limit int) ([]PayrollPeriodActual, error) {
	rate, err := f.payroll.RateFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rate == 0 {
		rate = 25.00 // the original service's default blended rate
	}

	now := time.Now()
	var periods []PayrollPeriodActual
	cursorEnd := periodEndAligned(now, periodType)
	for i := 0; i < limit; i++ {
		start, periodEnd := previousPeriod(cursorEnd, periodType)
		cursorEnd = start.AddDate(0, 0, -1)

		entries, err := f.entries.ForUser(ctx, userID, start, periodEnd)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			continue
		}

		dailyHours := map[string]float64{}
		for _, e := range entries {
			day := e.StartedAt.Format("2006-01-02")
			dailyHours[day] += e.EndedAt.Sub(e.StartedAt).Hours()
		}

		var regular, overtime float64
		for _, h := range dailyHours {
			if h > 8 {
				regular += 8
				overtime += h - 8
			} else {
				regular += h
			}
		}
		gross := regular*rate + overtime*rate*1.5

		periods = append([]PayrollPeriodActual{{
			Start: start, End: periodEnd, RegularHours: regular, OvertimeHours: overtime, GrossAmountUSD: gross,
		}}, periods...)
	}

	sort.Slice(periods, func(i, j int) bool { return periods[i].Start.Before(periods[j].Start) })
	return periods, nil
}

// periodEndAligned finds the most recent completed period boundary at
// or before now, so history never includes a partial in-progress period.
func periodEndAligned(now time.Time, periodType PeriodType) time.Time {
	switch periodType {
	case PeriodWeekly:
		for now.Weekday() != time.Sunday {
			now = now.AddDate(0, 0, -1)
		}
	case PeriodBiWeekly:
		for now.Weekday() != time.Sunday {
			now = now.AddDate(0, 0, -1)
		}
	case PeriodSemiMonthly:
		if now.Day() <= 15 {
			now = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
		} else {
			now = time.Date(now.Year(), now.Month(), 15, 0, 0, 0, 0, now.Location())
		}
	default: // monthly
		now = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
	}
	return now
}

// previousPeriod returns the (start, end) of the period immediately
// before the given period end.
func previousPeriod(end time.Time, periodType PeriodType) (time.Time, time.Time) {
	switch periodType {
	case PeriodWeekly:
		return end.AddDate(0, 0, -6), end
	case PeriodBiWeekly:
		return end.AddDate(0, 0, -13), end
	case PeriodSemiMonthly:
		if end.Day() <= 15 {
			start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, end.Location())
			return start, end
		}
		start := time.Date(end.Year(), end.Month(), 16, 0, 0, 0, 0, end.Location())
		return start, end
	default:
		start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, end.Location())
		return start, end
	}
}

// nextPeriod mirrors _calculate_next_period: given the last period's
// end date, derive the (start, end) of the period `offset` steps ahead.
func nextPeriod(lastEnd time.Time, periodType PeriodType, offset int) (time.Time, time.Time) {
	for ; offset > 0; offset-- {
		_, lastEnd = nextPeriod(lastEnd, periodType, 0)
	}
	start := lastEnd.AddDate(0, 0, 1)

	switch periodType {
	case PeriodWeekly:
		return start, start.AddDate(0, 0, 6)
	case PeriodBiWeekly:
		return start, start.AddDate(0, 0, 13)
	case PeriodSemiMonthly:
		if start.Day() <= 15 {
			return start, time.Date(start.Year(), start.Month(), 15, 0, 0, 0, 0, start.Location())
		}
		nextMonth := time.Date(start.Year(), start.Month(), 28, 0, 0, 0, 0, start.Location()).AddDate(0, 0, 4)
		lastOfMonth := nextMonth.AddDate(0, 0, -nextMonth.Day())
		return start, lastOfMonth
	default: // monthly
		nextMonth := time.Date(start.Year(), start.Month(), 28, 0, 0, 0, 0, start.Location()).AddDate(0, 0, 4)
		lastOfMonth := nextMonth.AddDate(0, 0, -nextMonth.Day())
		return start, lastOfMonth
	}
}

func generatePayrollForecast(history []PayrollPeriodActual, periodStart, periodEnd time.Time, includeOvertime bool) PayrollForecast {
	amounts := make([]float64, len(history))
	var regularHours, overtimeHours []float64
	for i, h := range history {
		amounts[i] = h.GrossAmountUSD
		regularHours = append(regularHours, h.RegularHours)
		overtimeHours = append(overtimeHours, h.OvertimeHours)
	}

	totalWeight := 0
	weightedSum := 0.0
	for i, a := range amounts {
		w := i + 1
		totalWeight += w
		weightedSum += a * float64(w)
	}
	weightedAvg := weightedSum / float64(totalWeight)

	trend := types.TrendStable
	trendFactor := 1.0
	if len(amounts) >= 3 {
		recentAvg := mean(amounts[len(amounts)-3:])
		var olderAvg float64
		if len(amounts) > 3 {
			olderAvg = mean(amounts[:len(amounts)-3])
		} else {
			olderAvg = amounts[0]
		}
		if olderAvg > 0 {
			ratio := recentAvg / olderAvg
			if ratio > 1.05 {
				trend, trendFactor = types.TrendIncreasing, ratio
			} else if ratio < 0.95 {
				trend, trendFactor = types.TrendDecreasing, ratio
			}
		}
	}

	predictedTotal := weightedAvg * trendFactor

	totalRegular := sum(regularHours)
	totalOvertime := sum(overtimeHours)
	regularShare := totalRegular / math.Max(totalRegular+totalOvertime, 1)
	predictedRegular := predictedTotal * regularShare
	predictedOvertime := 0.0
	if includeOvertime {
		predictedOvertime = predictedTotal - predictedRegular
	}

	var stddev, confidence float64
	if len(amounts) >= 3 {
		stddev = stdev(amounts)
		m := mean(amounts)
		confidence = 1.0
		if m > 0 {
			confidence = 1 - stddev/m
		}
		confidence = math.Max(0.5, math.Min(1.0, confidence))
	} else {
		stddev = mean(amounts) * 0.15
		confidence = 0.5
	}

	margin := stddev * 1.96
	lower := math.Max(predictedTotal-margin, 0)
	upper := predictedTotal + margin

	var factors []string
	switch trend {
	case types.TrendIncreasing:
		factors = append(factors, "Payroll costs trending upward")
	case types.TrendDecreasing:
		factors = append(factors, "Payroll costs trending downward")
	}
	if len(overtimeHours) > 0 && mean(overtimeHours) > 5 {
		factors = append(factors, "Significant overtime observed")
	}

	return PayrollForecast{
		Forecast: types.Forecast{
			PointEstimate: round2(predictedTotal),
			Confidence:    round3(confidence),
			Interval:      types.Interval{Lower: round2(lower), Upper: round2(upper)},
			Trend:         trend,
			Factors:       factors,
		},
		PeriodStart:          periodStart,
		PeriodEnd:            periodEnd,
		PredictedRegularUSD:  round2(predictedRegular),
		PredictedOvertimeUSD: round2(predictedOvertime),
	}
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return sum(v) / float64(len(v))
}

func sum(v []float64) float64 {
	total := 0.0
	for _, x := range v {
		total += x
	}
	return total
}

func stdev(v []float64) float64 {
	if len(v) < 2 {
		return 0
	}
	m := mean(v)
	var variance float64
	for _, x := range v {
		variance += (x - m) * (x - m)
	}
	variance /= float64(len(v) - 1)
	return math.Sqrt(variance)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
