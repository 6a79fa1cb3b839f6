// Package report joins scoring and benchmarking into the result returned to
// a respondent.
package report

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/maturity-cli/internal/benchmark"
	"github.com/sells-group/maturity-cli/internal/model"
	"github.com/sells-group/maturity-cli/internal/scorer"
)

// Report is the full result of one submission. Benchmark is nil when no
// comparison could be produced.
type Report struct {
	Scores    *model.Scores        `json:"scores"`
	Benchmark *model.ComparisonSet `json:"benchmark,omitempty"`
}

// Request holds everything needed to build a report.
type Request struct {
	Answers model.AnswerMap
	Company model.CompanyDetails
	// Expanded is the caller-verified access gate; it unlocks per-dimension
	// comparisons.
	Expanded bool
}

// Builder builds reports against one spec and one cohort table snapshot.
type Builder struct {
	spec  *model.AssessmentSpec
	table *benchmark.Table
}

// NewBuilder creates a Builder. table may be nil, in which case reports never
// carry a benchmark.
func NewBuilder(spec *model.AssessmentSpec, table *benchmark.Table) *Builder {
	return &Builder{spec: spec, table: table}
}

// Spec returns the assessment spec the builder scores against.
func (b *Builder) Spec() *model.AssessmentSpec { return b.spec }

// Table returns the cohort table snapshot, possibly nil.
func (b *Builder) Table() *benchmark.Table { return b.table }

// Build scores the answers and, when possible, compares them with the
// company's cohort. Scoring errors are returned; benchmark problems only
// drop the benchmark.
func (b *Builder) Build(req Request) (*Report, error) {
	scores, err := scorer.Score(b.spec, req.Answers)
	if err != nil {
		return nil, err
	}

	rep := &Report{Scores: scores}
	cmp, err := b.compare(scores, req)
	if err != nil {
		zap.L().Warn("report: continuing without benchmark",
			zap.String("sector", req.Company.Sector),
			zap.String("company_size", req.Company.CompanySize),
			zap.Error(err),
		)
		return rep, nil
	}
	rep.Benchmark = cmp
	return rep, nil
}

// Compare builds only the comparison set for an existing scores document.
func (b *Builder) Compare(scores *model.Scores, company model.CompanyDetails, expanded bool) (*model.ComparisonSet, error) {
	return b.compare(scores, Request{Company: company, Expanded: expanded})
}

func (b *Builder) compare(scores *model.Scores, req Request) (*model.ComparisonSet, error) {
	if b.table == nil {
		return nil, eris.New("report: no benchmark table loaded")
	}
	if scores == nil {
		return nil, eris.New("report: no scores to compare")
	}
	if req.Company.Sector == "" {
		return nil, eris.New("report: company sector is required for benchmarking")
	}

	res := b.table.Resolve(req.Company.Sector, req.Company.CompanySize)
	if !res.HasSufficientData {
		zap.L().Info("report: benchmark cohort below representative size",
			zap.String("cohort", res.Data.Key),
			zap.String("data_source", string(res.Source)),
			zap.Int("sample_size", res.Data.SampleSize),
		)
	}
	set := benchmark.CompareAll(scores, res, req.Expanded)
	return &set, nil
}
