package forecast

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/driftlog/aiops/types"
)

// OvertimeRisk is one user's projected-overtime assessment.
type OvertimeRisk struct {
	UserID             string
	UserName           string
	CurrentHours       float64
	ProjectedHours     float64
	OvertimeThreshold  float64
	RiskLevel          types.RiskLevel
	ProjectedOvertime  float64
	EstimatedCostUSD   float64
	Recommendation     string
}

// AssessOvertimeRisk evaluates each given user against their weekly
// hours threshold, surfacing only medium-risk-and-above results
// sorted most severe first, per spec §4.8.
func (f *Forecaster) AssessOvertimeRisk(ctx context.Context, userIDs []string) ([]OvertimeRisk, error) {
	weekStart := mostRecentMonday(time.Now())
	today := time.Now()
	weekEnd := weekStart.AddDate(0, 0, 6)
	daysLeft := int(weekEnd.Sub(today).Hours()/24) + 1
	if daysLeft < 0 {
		daysLeft = 0
	}

	var risks []OvertimeRisk
	for _, uid := range userIDs {
		user, err := f.users.Get(ctx, uid)
		if err != nil {
			return nil, err
		}
		if user == nil {
			continue
		}

		currentHours, err := f.hoursBetween(ctx, uid, weekStart, today)
		if err != nil {
			return nil, err
		}
		avgDaily, err := f.avgDailyHours(ctx, uid, 30)
		if err != nil {
			return nil, err
		}

		threshold := user.ExpectedHoursPerWeek
		if threshold == 0 {
			threshold = 40
		}

		projected := currentHours + avgDaily*float64(daysLeft)

		var level types.RiskLevel
		var recommendation string
		switch {
		case projected > threshold*1.2:
			level = types.RiskCritical
			recommendation = fmt.Sprintf("Urgent: Reduce workload. Projected %.1fh overtime", projected-threshold)
		case projected > threshold*1.1:
			level = types.RiskHigh
			recommendation = fmt.Sprintf("Review workload distribution. Likely to exceed threshold by %.1fh", projected-threshold)
		case projected > threshold:
			level = types.RiskMedium
			recommendation = "Minor overtime expected. Monitor daily"
		default:
			level = types.RiskLow
			recommendation = "On track for normal hours"
		}

		if level == types.RiskLow {
			continue
		}

		rate, err := f.payroll.RateFor(ctx, uid)
		if err != nil {
			return nil, err
		}
		if rate == 0 {
			rate = 25.00
		}

		overtimeHours := projected - threshold
		if overtimeHours < 0 {
			overtimeHours = 0
		}

		risks = append(risks, OvertimeRisk{
			UserID: uid, UserName: user.Name,
			CurrentHours: round2(currentHours), ProjectedHours: round2(projected),
			OvertimeThreshold: threshold, RiskLevel: level,
			ProjectedOvertime: round2(overtimeHours),
			EstimatedCostUSD:  round2(overtimeHours * rate * 1.5),
			Recommendation:    recommendation,
		})
	}

	sort.SliceStable(risks, func(i, j int) bool { return types.RiskRank(risks[i].RiskLevel) < types.RiskRank(risks[j].RiskLevel) })
	return risks, nil
}

func (f *Forecaster) hoursBetween(ctx context.Context, userID string, start, end time.Time) (float64, error) {
	entries, err := f.entries.ForUser(ctx, userID, start, end)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, e := range entries {
		total += e.EndedAt.Sub(e.StartedAt).Hours()
	}
	return total, nil
}

func (f *Forecaster) avgDailyHours(ctx context.Context, userID string, days int) (float64, error) {
	start := time.Now().AddDate(0, 0, -days)
	entries, err := f.entries.ForUser(ctx, userID, start, time.Now())
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 8.0, nil // the original service's default assumption
	}

	daily := map[string]float64{}
	for _, e := range entries {
		day := e.StartedAt.Format("2006-01-02")
		daily[day] += e.EndedAt.Sub(e.StartedAt).Hours()
	}

	var hours []float64
	for _, h := range daily {
		hours = append(hours, h)
	}
	return mean(hours), nil
}

func mostRecentMonday(from time.Time) time.Time {
	offset := int(from.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	d := from.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}
