package benchmark

import (
	"math"

	"github.com/sells-group/maturity-cli/internal/model"
)

// averageBand is how far below the cohort average a score can fall and still
// be rated average.
const averageBand = 10

var messages = map[model.PerformanceLevel]string{
	model.PerformanceTopDecile:    "Outstanding: you are among the top 10% of comparable companies.",
	model.PerformanceTopQuartile:  "Excellent: you are in the top 25% of comparable companies.",
	model.PerformanceAboveAverage: "Good: you are above the median of comparable companies.",
	model.PerformanceAverage:      "You are in line with the average of comparable companies.",
	model.PerformanceBelowAverage: "You are below the average of comparable companies; there is clear room to improve.",
}

// Message returns the fixed message for a performance level.
func Message(level model.PerformanceLevel) string {
	return messages[level]
}

// Compare rates a score against cohort statistics. dimensionID is empty for
// the overall comparison.
func Compare(userScore int, stats model.BenchmarkStats, dimensionID string) model.ComparisonResult {
	score := float64(userScore)

	var percentile int
	var level model.PerformanceLevel
	switch {
	case score >= stats.Top10:
		percentile, level = 95, model.PerformanceTopDecile
	case score >= stats.Top25:
		percentile, level = 87, model.PerformanceTopQuartile
	case score >= stats.Median:
		percentile, level = 65, model.PerformanceAboveAverage
	case score >= stats.Average-averageBand:
		percentile, level = 45, model.PerformanceAverage
	default:
		percentile, level = 25, model.PerformanceBelowAverage
	}

	return model.ComparisonResult{
		DimensionID:      dimensionID,
		UserScore:        userScore,
		Benchmark:        stats,
		Percentile:       percentile,
		PerformanceLevel: level,
		Gap:              roundHalfUp(score - stats.Average),
		GapToTop25:       max(0, roundHalfUp(stats.Top25-score)),
		Message:          messages[level],
	}
}

// CompareAll builds the comparison set for a scores document. Without
// expanded access only the overall comparison is returned. Dimensions the
// cohort has no statistics for are left out.
func CompareAll(scores *model.Scores, res Resolution, expanded bool) model.ComparisonSet {
	set := model.ComparisonSet{
		DataSource:        res.Source,
		HasSufficientData: res.HasSufficientData,
		SampleSize:        res.Data.SampleSize,
		Overall:           Compare(scores.Overall, res.Data.Overall, ""),
	}
	if !expanded {
		return set
	}

	set.Dimensions = make(map[string]model.ComparisonResult, len(scores.Dimensions))
	for id, ds := range scores.Dimensions {
		stats, ok := res.Data.Dimensions[id]
		if !ok {
			continue
		}
		set.Dimensions[id] = Compare(ds.Score, stats, id)
	}
	return set
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
