package planner

// bodyFatScoreWeight makes body composition count 1.5x the raw scale
// weight in the composite score - it is the more meaningful signal.
const bodyFatScoreWeight = 1.5

// CalculateScore maps a body state onto the normalized progress scale:
// the initial baseline always scores 50, the goal always scores 100, and
// regressing past the baseline falls toward 0. The result is clamped to
// [0, 100].
func CalculateScore(weight, bodyFat, goalWeight, goalBodyFat, initialWeight, initialBodyFat float64) float64 {
	weightScore := componentScore(weight, goalWeight, initialWeight)
	bodyFatScore := componentScore(bodyFat, goalBodyFat, initialBodyFat)
	composite := (weightScore + bodyFatScoreWeight*bodyFatScore) / (1 + bodyFatScoreWeight)
	return clampScore(composite)
}

// CalculateProgressRate is CalculateScore under the name the summary
// widgets use.
func CalculateProgressRate(weight, bodyFat, goalWeight, goalBodyFat, initialWeight, initialBodyFat float64) float64 {
	return CalculateScore(weight, bodyFat, goalWeight, goalBodyFat, initialWeight, initialBodyFat)
}

// componentScore scores a single dimension. When the goal equals the
// baseline there is no direction of travel and the component pins at 50
// instead of dividing by zero.
func componentScore(current, goal, initial float64) float64 {
	if initial == goal {
		return 50
	}
	return 50 + 50*(initial-current)/(initial-goal)
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
