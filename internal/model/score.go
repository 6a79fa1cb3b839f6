package model

import "time"

// DimensionScore is the scored result of one dimension. All values are
// integers in [0,100] and Gap = max(0, Target-Score).
type DimensionScore struct {
	Score  int `json:"score"`
	Target int `json:"target"`
	Gap    int `json:"gap"`
}

// MaturityLevel is the discrete 1-4 maturity level.
type MaturityLevel int

const (
	MaturityBasic              MaturityLevel = 1
	MaturityAverage            MaturityLevel = 2
	MaturityModeratelyAdvanced MaturityLevel = 3
	MaturityAdvanced           MaturityLevel = 4
)

// MaturityClassification is derived from the overall score only.
type MaturityClassification struct {
	Level MaturityLevel `json:"level"`
	Label string        `json:"label"`
	Band  string        `json:"band"`
}

// Scores is the scores document persisted and exported for a submission.
type Scores struct {
	Dimensions             map[string]DimensionScore `json:"dimensions"`
	Overall                int                       `json:"overall"`
	MaturityClassification MaturityClassification    `json:"maturityClassification"`
}

// BenchmarkStats are cohort statistics for one score series.
type BenchmarkStats struct {
	Average float64 `json:"average" yaml:"average"`
	Median  float64 `json:"median" yaml:"median"`
	Top25   float64 `json:"top25" yaml:"top25"`
	Top10   float64 `json:"top10" yaml:"top10"`
}

// BenchmarkData is the precomputed statistics of one cohort. Key is
// "<sector>-<companySize>" or "default".
type BenchmarkData struct {
	Key         string                    `json:"key" yaml:"key"`
	Sector      string                    `json:"sector" yaml:"sector"`
	CompanySize string                    `json:"companySize" yaml:"company_size"`
	Region      string                    `json:"region" yaml:"region"`
	SampleSize  int                       `json:"sampleSize" yaml:"sample_size"`
	Dimensions  map[string]BenchmarkStats `json:"dimensions" yaml:"dimensions"`
	Overall     BenchmarkStats            `json:"overall" yaml:"overall"`
	LastUpdated time.Time                 `json:"lastUpdated" yaml:"last_updated"`
}

// DataSource names the fallback tier a benchmark was resolved from.
type DataSource string

const (
	DataSourceExact   DataSource = "exact"
	DataSourceSector  DataSource = "sector"
	DataSourceDefault DataSource = "default"
)

// PerformanceLevel is one of the five percentile buckets.
type PerformanceLevel string

const (
	PerformanceTopDecile    PerformanceLevel = "top_decile"
	PerformanceTopQuartile  PerformanceLevel = "top_quartile"
	PerformanceAboveAverage PerformanceLevel = "above_average"
	PerformanceAverage      PerformanceLevel = "average"
	PerformanceBelowAverage PerformanceLevel = "below_average"
)

// ComparisonResult compares one score against cohort statistics.
type ComparisonResult struct {
	DimensionID      string           `json:"dimensionId,omitempty"`
	UserScore        int              `json:"userScore"`
	Benchmark        BenchmarkStats   `json:"benchmark"`
	Percentile       int              `json:"percentile"`
	PerformanceLevel PerformanceLevel `json:"performanceLevel"`
	Gap              int              `json:"gap"`
	GapToTop25       int              `json:"gapToTop25"`
	Message          string           `json:"message"`
}

// ComparisonSet is the overall comparison plus, with expanded access, one
// comparison per dimension.
type ComparisonSet struct {
	DataSource        DataSource                  `json:"dataSource"`
	HasSufficientData bool                        `json:"hasSufficientData"`
	SampleSize        int                         `json:"sampleSize"`
	Overall           ComparisonResult            `json:"overall"`
	Dimensions        map[string]ComparisonResult `json:"dimensions,omitempty"`
}
