// Package assessment runs the questionnaire lifecycle on top of the store:
// create, answer, complete, report, export and the anonymous peer views.
package assessment

import (
	"context"
	"errors"
	"io"
	"maps"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/maturity-cli/internal/cache"
	"github.com/sells-group/maturity-cli/internal/cohort"
	"github.com/sells-group/maturity-cli/internal/export"
	"github.com/sells-group/maturity-cli/internal/model"
	"github.com/sells-group/maturity-cli/internal/report"
	"github.com/sells-group/maturity-cli/internal/scorer"
	"github.com/sells-group/maturity-cli/internal/store"
)

// ErrAlreadyCompleted is returned when answers are changed on a completed
// assessment.
var ErrAlreadyCompleted = store.ErrCompleted

// ValidationError reports answers that do not fit the question bank.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "assessment: invalid answers: " + e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is caused by invalid input.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Options tunes the peer views.
type Options struct {
	DefaultLanguage  string
	MinSampleSize    int
	LeaderboardLimit int
}

// Service coordinates the store, the report builder and the cohort cache.
type Service struct {
	store   store.Store
	builder *report.Builder
	cache   *cache.Cache
	opts    Options
	now     func() time.Time
}

// NewService creates a Service. c may be nil.
func NewService(st store.Store, builder *report.Builder, c *cache.Cache, opts Options) *Service {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "en"
	}
	if opts.MinSampleSize <= 0 {
		opts.MinSampleSize = cohort.DefaultMinSampleSize
	}
	return &Service{store: st, builder: builder, cache: c, opts: opts, now: time.Now}
}

// Spec returns the question bank the service scores against.
func (s *Service) Spec() *model.AssessmentSpec { return s.builder.Spec() }

// Ping checks the store connection.
func (s *Service) Ping(ctx context.Context) error { return s.store.Ping(ctx) }

// Builder returns the report builder.
func (s *Service) Builder() *report.Builder { return s.builder }

// CreateRequest starts a new assessment.
type CreateRequest struct {
	Company  model.CompanyDetails `json:"company"`
	Language string               `json:"language,omitempty"`
	OptIn    bool                 `json:"opt_in"`
	Answers  model.AnswerMap      `json:"answers,omitempty"`
}

// Create validates the initial answers and stores a new in-progress
// assessment.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Assessment, error) {
	if err := s.validateAnswers(req.Answers); err != nil {
		return nil, err
	}
	lang, err := export.NormalizeLanguage(req.Language, s.opts.DefaultLanguage)
	if err != nil {
		return nil, &ValidationError{Err: err}
	}

	a, err := s.store.CreateAssessment(ctx, &model.Assessment{
		Version:  s.Spec().Version,
		Language: lang,
		Status:   model.AssessmentInProgress,
		OptIn:    req.OptIn,
		Company:  req.Company,
		Answers:  req.Answers,
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("assessment: created",
		zap.String("assessment_id", a.ID),
		zap.String("sector", a.Company.Sector),
	)
	return a, nil
}

// Get returns a stored assessment.
func (s *Service) Get(ctx context.Context, id string) (*model.Assessment, error) {
	return s.store.GetAssessment(ctx, id)
}

// SaveAnswers merges answers into an in-progress assessment. Answers for
// questions already answered are replaced.
func (s *Service) SaveAnswers(ctx context.Context, id string, answers model.AnswerMap) (*model.Assessment, error) {
	a, err := s.store.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == model.AssessmentCompleted {
		return nil, eris.Wrapf(ErrAlreadyCompleted, "assessment %s", id)
	}

	merged := maps.Clone(a.Answers)
	if merged == nil {
		merged = model.AnswerMap{}
	}
	maps.Copy(merged, answers)
	if err := s.validateAnswers(merged); err != nil {
		return nil, err
	}

	if err := s.store.SaveAnswers(ctx, id, merged); err != nil {
		return nil, err
	}
	a.Answers = merged
	return a, nil
}

// Complete scores the assessment, stores the scores and marks it completed.
// Completing twice rescores with the stored answers.
func (s *Service) Complete(ctx context.Context, id string) (*model.Assessment, error) {
	a, err := s.store.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	scores, err := s.score(a.Answers)
	if err != nil {
		return nil, err
	}

	at := s.now().UTC()
	if err := s.store.CompleteAssessment(ctx, id, scores, at); err != nil {
		return nil, err
	}
	if err := s.cache.InvalidateCohort(ctx); err != nil {
		zap.L().Warn("assessment: cohort cache invalidation failed", zap.Error(err))
	}

	a.Scores = scores
	a.Status = model.AssessmentCompleted
	a.CompletedAt = &at
	zap.L().Info("assessment: completed",
		zap.String("assessment_id", id),
		zap.Int("overall", scores.Overall),
		zap.String("band", scores.MaturityClassification.Band),
	)
	return a, nil
}

// Report builds the report for a stored assessment. Assessments still in
// progress are scored on the fly without being persisted.
func (s *Service) Report(ctx context.Context, id string, expanded bool) (*report.Report, error) {
	a, err := s.store.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	rep, err := s.builder.Build(report.Request{Answers: a.Answers, Company: a.Company, Expanded: expanded})
	if err != nil {
		return nil, &ValidationError{Err: err}
	}
	return rep, nil
}

// Export returns the export document of a stored assessment.
func (s *Service) Export(ctx context.Context, id string, withDetails bool) (*export.Document, error) {
	a, err := s.store.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	return export.FromAssessment(a, withDetails, s.now())
}

// Import reads an export document and stores it as a new assessment. A
// document with scores is stored completed with recomputed scores; one
// without stays in progress. Imported records never join the peer cohort.
func (s *Service) Import(ctx context.Context, r io.Reader) (*model.Assessment, error) {
	doc, err := export.Read(r, s.Spec())
	if err != nil {
		return nil, &ValidationError{Err: err}
	}
	a := doc.ToAssessment()
	a.OptIn = false
	if doc.ID != "" {
		if _, err := s.store.GetAssessment(ctx, doc.ID); err == nil {
			a.ID = ""
		} else if !eris.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	created, err := s.store.CreateAssessment(ctx, a)
	if err != nil {
		return nil, err
	}
	zap.L().Info("assessment: imported",
		zap.String("assessment_id", created.ID),
		zap.String("source_id", doc.ID),
	)
	return created, nil
}

// IndustryBenchmarks returns the per-sector averages of opted-in, completed
// assessments.
func (s *Service) IndustryBenchmarks(ctx context.Context) ([]model.IndustryBenchmark, error) {
	key := cache.IndustryKey(s.opts.MinSampleSize)
	var cached []model.IndustryBenchmark
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		zap.L().Warn("assessment: cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return cached, nil
	}

	records, err := s.cohortRecords(ctx, "")
	if err != nil {
		return nil, err
	}
	out := cohort.IndustryBenchmarks(records, s.opts.MinSampleSize)
	if err := s.cache.Set(ctx, key, out); err != nil {
		zap.L().Warn("assessment: cache write failed", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}

// Leaderboard returns the anonymous ranking, optionally for one sector.
// limit <= 0 uses the configured limit.
func (s *Service) Leaderboard(ctx context.Context, sector string, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = s.opts.LeaderboardLimit
	}
	key := cache.LeaderboardKey(sector, limit)
	var cached []model.LeaderboardEntry
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		zap.L().Warn("assessment: cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return cached, nil
	}

	records, err := s.cohortRecords(ctx, sector)
	if err != nil {
		return nil, err
	}
	out := cohort.Leaderboard(records, limit)
	if err := s.cache.Set(ctx, key, out); err != nil {
		zap.L().Warn("assessment: cache write failed", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}

func (s *Service) cohortRecords(ctx context.Context, sector string) ([]model.Assessment, error) {
	return s.store.ListAssessments(ctx, store.AssessmentFilter{
		Status:    model.AssessmentCompleted,
		Sector:    sector,
		OptInOnly: true,
		Limit:     -1,
	})
}

func (s *Service) validateAnswers(answers model.AnswerMap) error {
	if unknown := scorer.UnknownAnswers(s.Spec(), answers); len(unknown) > 0 {
		return &ValidationError{Err: eris.Errorf("unknown questions %v", unknown)}
	}
	if _, err := scorer.Score(s.Spec(), answers); err != nil {
		return &ValidationError{Err: err}
	}
	if err := scorer.CheckSelections(s.Spec(), answers); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

func (s *Service) score(answers model.AnswerMap) (*model.Scores, error) {
	scores, err := scorer.Score(s.Spec(), answers)
	if err != nil {
		return nil, &ValidationError{Err: err}
	}
	return scores, nil
}
