package scorer

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/maturity-cli/internal/model"
)

// maxScaleLevel is the top of the 0-5 scale.
const maxScaleLevel = 5

// ErrInvalidAnswer marks an answer whose payload cannot be interpreted for
// its (matching) question type.
var ErrInvalidAnswer = eris.New("scorer: invalid answer")

// AnswerTypeMismatchError is returned when an answer's type tag differs from
// its question's type.
type AnswerTypeMismatchError struct {
	QuestionID string
	Want       model.QuestionType
	Got        model.QuestionType
}

func (e *AnswerTypeMismatchError) Error() string {
	return fmt.Sprintf("scorer: answer type mismatch for question %s: want %s, got %s", e.QuestionID, e.Want, e.Got)
}

// Normalize maps an answer to its contribution in [0,1]. A nil answer is an
// unanswered question and contributes 0.
func Normalize(q model.Question, a *model.Answer) (float64, error) {
	if a == nil {
		return 0, nil
	}
	if a.Type != q.Type {
		return 0, &AnswerTypeMismatchError{QuestionID: q.ID, Want: q.Type, Got: a.Type}
	}

	switch q.Type {
	case model.QuestionTriState:
		v, err := triStateValue(a.Choice)
		if err != nil {
			return 0, eris.Wrapf(err, "question %s", q.ID)
		}
		return v, nil
	case model.QuestionScale:
		return scaleValue(a.Level), nil
	case model.QuestionCheckboxes:
		return checkboxValue(q.Options, a.Selected), nil
	case model.QuestionDualCheckboxes:
		return dualValue(q.Left, q.Right, a.Dual), nil
	case model.QuestionTableDualCheckboxes, model.QuestionScaleTable, model.QuestionTriStateTable:
		return tableValue(q, a.Rows)
	default:
		return 0, eris.Wrapf(ErrInvalidAnswer, "question %s: unsupported type %q", q.ID, q.Type)
	}
}

func triStateValue(c model.TriState) (float64, error) {
	switch c {
	case model.TriStateYes:
		return 1, nil
	case model.TriStatePartial:
		return 0.5, nil
	case model.TriStateNo, "":
		return 0, nil
	default:
		return 0, eris.Wrapf(ErrInvalidAnswer, "unknown tri-state choice %q", c)
	}
}

func scaleValue(level *int) float64 {
	if level == nil {
		return 0
	}
	l := *level
	if l < 0 {
		l = 0
	}
	if l > maxScaleLevel {
		l = maxScaleLevel
	}
	return float64(l) / maxScaleLevel
}

// checkboxValue divides the selected weight by the total positive weight.
// Non-positive options never raise the denominator, but a selected negative
// option still lowers the numerator.
func checkboxValue(options []model.Option, selected []string) float64 {
	var maxWeight float64
	weights := make(map[string]float64, len(options))
	for _, o := range options {
		weights[o.ID] = o.Weight
		if o.Weight > 0 {
			maxWeight += o.Weight
		}
	}
	if maxWeight == 0 {
		return 0
	}

	var got float64
	counted := make(map[string]bool, len(selected))
	for _, id := range selected {
		if counted[id] {
			continue
		}
		counted[id] = true
		got += weights[id]
	}
	return clamp01(got / maxWeight)
}

func dualValue(left, right *model.Option, sel *model.DualSelection) float64 {
	if sel == nil || left == nil || right == nil {
		return 0
	}
	total := left.Weight + right.Weight
	if total <= 0 {
		return 0
	}
	var got float64
	if sel.Left {
		got += left.Weight
	}
	if sel.Right {
		got += right.Weight
	}
	return clamp01(got / total)
}

// tableValue averages the per-row scalar rule over the question's rows.
// Rows missing from the answer count as zero so the denominator stays fixed.
func tableValue(q model.Question, rows map[string]model.Cell) (float64, error) {
	if len(q.Rows) == 0 {
		return 0, nil
	}
	var sum float64
	for _, r := range q.Rows {
		cell, ok := rows[r.ID]
		if !ok {
			continue
		}
		var v float64
		switch q.Type {
		case model.QuestionTriStateTable:
			tv, err := triStateValue(cell.Choice)
			if err != nil {
				return 0, eris.Wrapf(err, "question %s row %s", q.ID, r.ID)
			}
			v = tv
		case model.QuestionScaleTable:
			v = scaleValue(cell.Level)
		case model.QuestionTableDualCheckboxes:
			v = dualValue(q.Left, q.Right, cell.Dual)
		}
		sum += v
	}
	return sum / float64(len(q.Rows)), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
