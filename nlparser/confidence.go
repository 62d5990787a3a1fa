package nlparser

import "github.com/driftlog/aiops/types"

// calculateConfidence computes the weighted overall score: duration
// 0.3, project 0.4, task 0.2, date 0.1, matching _calculate_confidence's
// weights and its partial-credit defaults (0.3 for an unmatched task,
// 0.5 for a date that defaulted to today).
func calculateConfidence(hasDuration bool, durationConf float64, hasProject bool, projectConf float64, hasTask bool, taskConf float64, hasDate bool, dateConf float64) float64 {
	type weighted struct {
		score, weight float64
	}

	var parts []weighted

	if hasDuration {
		parts = append(parts, weighted{durationConf, 0.3})
	} else {
		parts = append(parts, weighted{0.0, 0.3})
	}

	if hasProject {
		c := projectConf
		if c == 0 {
			c = 0.5
		}
		parts = append(parts, weighted{c, 0.4})
	} else {
		parts = append(parts, weighted{0.0, 0.4})
	}

	if hasTask {
		c := taskConf
		if c == 0 {
			c = 0.5
		}
		parts = append(parts, weighted{c, 0.2})
	} else {
		parts = append(parts, weighted{0.3, 0.2})
	}

	if hasDate {
		parts = append(parts, weighted{0.9, 0.1})
	} else {
		parts = append(parts, weighted{0.5, 0.1})
	}

	var totalWeight, weightedSum float64
	for _, p := range parts {
		totalWeight += p.weight
		weightedSum += p.score * p.weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

// generateClarification names the missing pieces a caller should fill
// in, matching _generate_clarification.
func generateClarification(result *types.ParseResult) string {
	var missing []string
	if result.DurationSeconds == 0 {
		missing = append(missing, "how long")
	}
	if result.ProjectID == "" {
		missing = append(missing, "which project")
	}

	if len(missing) == 0 {
		return "Could you provide more details?"
	}

	question := "Could you clarify "
	for i, m := range missing {
		if i > 0 {
			question += " and "
		}
		question += m
	}
	return question + "?"
}
