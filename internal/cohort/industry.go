package cohort

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/maturity-cli/internal/model"
)

type sectorAcc struct {
	n        int
	overall  float64
	dimSum   map[string]float64
	dimCount map[string]int
}

// IndustryBenchmarks averages the overall and per-dimension scores of each
// sector. Sectors with fewer than minSample records are left out entirely.
// Malformed records are skipped. Output is sorted by sector.
func IndustryBenchmarks(records []model.Assessment, minSample int) []model.IndustryBenchmark {
	if minSample <= 0 {
		minSample = DefaultMinSampleSize
	}

	groups := make(map[string]*sectorAcc)
	var skipped int
	for _, r := range records {
		if !eligible(r) {
			continue
		}
		if err := checkRecord(r); err != nil {
			skipped++
			zap.L().Debug("cohort: skipping record", zap.Error(err))
			continue
		}
		acc, ok := groups[r.Company.Sector]
		if !ok {
			acc = &sectorAcc{dimSum: make(map[string]float64), dimCount: make(map[string]int)}
			groups[r.Company.Sector] = acc
		}
		acc.n++
		acc.overall += float64(r.Scores.Overall)
		for id, ds := range r.Scores.Dimensions {
			acc.dimSum[id] += float64(ds.Score)
			acc.dimCount[id]++
		}
	}

	var out []model.IndustryBenchmark
	var dropped int
	for sector, acc := range groups {
		if acc.n < minSample {
			dropped++
			continue
		}
		ib := model.IndustryBenchmark{
			Sector:     sector,
			SampleSize: acc.n,
			Overall:    acc.overall / float64(acc.n),
			Dimensions: make(map[string]float64, len(acc.dimSum)),
		}
		for id, sum := range acc.dimSum {
			ib.Dimensions[id] = sum / float64(acc.dimCount[id])
		}
		out = append(out, ib)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sector < out[j].Sector })

	zap.L().Info("cohort: industry benchmarks computed",
		zap.Int("records", len(records)),
		zap.Int("sectors", len(out)),
		zap.Int("sectors_below_min_sample", dropped),
		zap.Int("skipped", skipped),
	)
	return out
}
