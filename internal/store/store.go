// Package store persists assessments and cohort benchmark tables.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/maturity-cli/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = eris.New("store: not found")

// ErrCompleted is returned when answers are written to a completed
// assessment.
var ErrCompleted = eris.New("assessment: already completed")

// AssessmentFilter specifies criteria for listing assessments.
type AssessmentFilter struct {
	Status    model.AssessmentStatus `json:"status,omitempty"`
	Sector    string                 `json:"sector,omitempty"`
	OptInOnly bool                   `json:"opt_in_only,omitempty"`
	Limit     int                    `json:"limit,omitempty"` // 0 = default cap, < 0 = no cap
	Offset    int                    `json:"offset,omitempty"`
}

// defaultListLimit caps list queries without an explicit limit.
const defaultListLimit = 1000

// limit returns the row cap. A negative Limit lists every row and yields 0.
func (f AssessmentFilter) limit() int {
	switch {
	case f.Limit < 0:
		return 0
	case f.Limit == 0:
		return defaultListLimit
	}
	return f.Limit
}

// Store defines the persistence interface for assessments and benchmarks.
type Store interface {
	// Assessments
	CreateAssessment(ctx context.Context, a *model.Assessment) (*model.Assessment, error)
	// SaveAnswers only updates in-progress records; completed ones yield
	// ErrCompleted.
	SaveAnswers(ctx context.Context, id string, answers model.AnswerMap) error
	CompleteAssessment(ctx context.Context, id string, scores *model.Scores, at time.Time) error
	GetAssessment(ctx context.Context, id string) (*model.Assessment, error)
	ListAssessments(ctx context.Context, filter AssessmentFilter) ([]model.Assessment, error)

	// Benchmarks
	UpsertBenchmarks(ctx context.Context, entries []model.BenchmarkData) (int64, error)
	ListBenchmarks(ctx context.Context) ([]model.BenchmarkData, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// prepareAssessment fills the defaults of a new record.
func prepareAssessment(a *model.Assessment, id string, now time.Time) *model.Assessment {
	out := *a
	if out.ID == "" {
		out.ID = id
	}
	if out.Status == "" {
		out.Status = model.AssessmentInProgress
	}
	if out.Answers == nil {
		out.Answers = model.AnswerMap{}
	}
	out.CreatedAt = now
	out.UpdatedAt = now
	if out.Status == model.AssessmentCompleted && out.CompletedAt == nil {
		out.CompletedAt = &now
	}
	return &out
}

func checkBenchmarkKeys(entries []model.BenchmarkData) error {
	for i, e := range entries {
		if e.Key == "" {
			return eris.Errorf("store: benchmark entry %d has no key", i)
		}
	}
	return nil
}
