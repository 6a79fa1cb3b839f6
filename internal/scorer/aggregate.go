package scorer

import (
	"math"

	"github.com/sells-group/maturity-cli/internal/model"
)

// AggregateDimension scores one dimension from the questions that belong to
// it. A dimension with no questions (or no question weight) scores 0.
// Normalization errors are returned unwrapped so callers can match them.
func AggregateDimension(dim model.Dimension, questions []model.Question, answers model.AnswerMap) (model.DimensionScore, error) {
	var weighted, weightSum float64
	for _, q := range questions {
		if q.DimensionID != dim.ID {
			continue
		}
		var ans *model.Answer
		if a, ok := answers[q.ID]; ok {
			ans = &a
		}
		v, err := Normalize(q, ans)
		if err != nil {
			return model.DimensionScore{}, err
		}
		weighted += v * q.Weight
		weightSum += q.Weight
	}

	var score int
	if weightSum > 0 {
		score = clampScore(roundHalfUp(weighted / weightSum * 100))
	}
	target := clampScore(roundHalfUp(dim.TargetLevel * 100))

	return model.DimensionScore{
		Score:  score,
		Target: target,
		Gap:    max(0, target-score),
	}, nil
}

// ComposeOverall is the dimension-weighted mean of the dimension scores,
// rounded and clamped to [0,100]. Dimensions missing from scores count as 0.
func ComposeOverall(scores map[string]model.DimensionScore, dims []model.Dimension) int {
	var total float64
	for _, d := range dims {
		total += d.Weight * float64(scores[d.ID].Score)
	}
	sum := WeightSum(dims)
	if sum <= 0 {
		return 0
	}
	return clampScore(roundHalfUp(total / sum))
}

// roundHalfUp rounds .5 toward positive infinity, so -2.5 becomes -2.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
