package scorer

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/maturity-cli/internal/model"
)

// Score computes the full scores document for a set of answers. It builds a
// fresh document on every call; repeated calls with the same inputs return
// equal results.
func Score(spec *model.AssessmentSpec, answers model.AnswerMap) (*model.Scores, error) {
	if spec == nil {
		return nil, eris.New("scorer: nil assessment spec")
	}

	dims := make(map[string]model.DimensionScore, len(spec.Dimensions))
	for _, d := range spec.Dimensions {
		qs := spec.QuestionsFor(d.ID)
		if len(qs) == 0 {
			zap.L().Warn("scorer: dimension has no questions",
				zap.String("dimension", d.ID),
			)
		}
		ds, err := AggregateDimension(d, qs, answers)
		if err != nil {
			return nil, err
		}
		dims[d.ID] = ds
	}

	overall := ComposeOverall(dims, spec.Dimensions)
	return &model.Scores{
		Dimensions:             dims,
		Overall:                overall,
		MaturityClassification: Classify(overall),
	}, nil
}

// UnknownAnswers returns the sorted answer ids that match no question in spec.
func UnknownAnswers(spec *model.AssessmentSpec, answers model.AnswerMap) []string {
	var unknown []string
	for id := range answers {
		if _, ok := spec.Question(id); !ok {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// CheckSelections enforces min_select and max_select on checkbox answers.
// Selections are counted once per known option. A limit of 0 is unbounded.
func CheckSelections(spec *model.AssessmentSpec, answers model.AnswerMap) error {
	for _, q := range spec.Questions {
		if q.Type != model.QuestionCheckboxes || (q.MinSelect <= 0 && q.MaxSelect <= 0) {
			continue
		}
		a, ok := answers[q.ID]
		if !ok || a.Type != q.Type {
			continue
		}
		n := countSelected(q.Options, a.Selected)
		if q.MinSelect > 0 && n < q.MinSelect {
			return eris.Wrapf(ErrInvalidAnswer, "question %s: %d selected, at least %d required", q.ID, n, q.MinSelect)
		}
		if q.MaxSelect > 0 && n > q.MaxSelect {
			return eris.Wrapf(ErrInvalidAnswer, "question %s: %d selected, at most %d allowed", q.ID, n, q.MaxSelect)
		}
	}
	return nil
}

func countSelected(options []model.Option, selected []string) int {
	known := make(map[string]bool, len(options))
	for _, o := range options {
		known[o.ID] = true
	}
	seen := make(map[string]bool, len(selected))
	for _, id := range selected {
		if known[id] {
			seen[id] = true
		}
	}
	return len(seen)
}
