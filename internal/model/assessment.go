package model

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// QuestionType identifies the answer shape a question expects.
type QuestionType string

const (
	QuestionTriState            QuestionType = "tri-state"
	QuestionScale               QuestionType = "scale-0-5"
	QuestionCheckboxes          QuestionType = "checkboxes"
	QuestionDualCheckboxes      QuestionType = "dual-checkboxes"
	QuestionTableDualCheckboxes QuestionType = "table-dual-checkboxes"
	QuestionScaleTable          QuestionType = "scale-table"
	QuestionTriStateTable       QuestionType = "tri-state-table"
)

// QuestionTypes lists every supported question type.
var QuestionTypes = []QuestionType{
	QuestionTriState,
	QuestionScale,
	QuestionCheckboxes,
	QuestionDualCheckboxes,
	QuestionTableDualCheckboxes,
	QuestionScaleTable,
	QuestionTriStateTable,
}

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	for _, qt := range QuestionTypes {
		if qt == t {
			return true
		}
	}
	return false
}

// IsTable reports whether t is one of the row-indexed table variants.
func (t QuestionType) IsTable() bool {
	switch t {
	case QuestionTableDualCheckboxes, QuestionScaleTable, QuestionTriStateTable:
		return true
	}
	return false
}

// TriState is a yes/partial/no choice.
type TriState string

const (
	TriStateYes     TriState = "yes"
	TriStatePartial TriState = "partial"
	TriStateNo      TriState = "no"
)

// Dimension is one named axis of maturity.
type Dimension struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Weight      float64 `json:"weight" yaml:"weight"`
	TargetLevel float64 `json:"target_level" yaml:"target_level"` // 0-1 fraction
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
}

// Option is a weighted checkbox option. Options with a non-positive weight
// are flags and never count toward the maximum.
type Option struct {
	ID     string  `json:"id" yaml:"id"`
	Label  string  `json:"label" yaml:"label"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Row is one row of a table question.
type Row struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Question is a single questionnaire item. Only the config fields that
// belong to Type are meaningful.
type Question struct {
	ID          string       `json:"id" yaml:"id"`
	DimensionID string       `json:"dimension_id" yaml:"dimension_id"`
	Type        QuestionType `json:"type" yaml:"type"`
	Weight      float64      `json:"weight" yaml:"weight"`
	Text        string       `json:"text" yaml:"text"`

	// checkboxes
	Options   []Option `json:"options,omitempty" yaml:"options,omitempty"`
	MinSelect int      `json:"min_select,omitempty" yaml:"min_select,omitempty"`
	MaxSelect int      `json:"max_select,omitempty" yaml:"max_select,omitempty"`

	// dual-checkboxes and table-dual-checkboxes
	Left  *Option `json:"left,omitempty" yaml:"left,omitempty"`
	Right *Option `json:"right,omitempty" yaml:"right,omitempty"`

	// table variants
	Rows []Row `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// AssessmentSpec is the authored questionnaire for one locale/version.
type AssessmentSpec struct {
	Version    string      `json:"version" yaml:"version"`
	Language   string      `json:"language" yaml:"language"`
	Dimensions []Dimension `json:"dimensions" yaml:"dimensions"`
	Questions  []Question  `json:"questions" yaml:"questions"`
}

// Dimension returns the dimension with the given id.
func (s *AssessmentSpec) Dimension(id string) (Dimension, bool) {
	for _, d := range s.Dimensions {
		if d.ID == id {
			return d, true
		}
	}
	return Dimension{}, false
}

// Question returns the question with the given id.
func (s *AssessmentSpec) Question(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// QuestionsFor returns the questions of a dimension in authored order.
func (s *AssessmentSpec) QuestionsFor(dimensionID string) []Question {
	var out []Question
	for _, q := range s.Questions {
		if q.DimensionID == dimensionID {
			out = append(out, q)
		}
	}
	return out
}

// Validate checks structural invariants of the question bank. Dimensions without
// questions are allowed; they score zero.
func (s *AssessmentSpec) Validate() error {
	var errs []string

	dims := make(map[string]bool, len(s.Dimensions))
	for _, d := range s.Dimensions {
		if d.ID == "" {
			errs = append(errs, "dimension with empty id")
			continue
		}
		if dims[d.ID] {
			errs = append(errs, fmt.Sprintf("duplicate dimension %q", d.ID))
		}
		dims[d.ID] = true
		if d.Weight < 0 {
			errs = append(errs, fmt.Sprintf("dimension %q: weight must be >= 0", d.ID))
		}
		if d.TargetLevel < 0 || d.TargetLevel > 1 {
			errs = append(errs, fmt.Sprintf("dimension %q: target_level must be between 0 and 1", d.ID))
		}
	}

	seen := make(map[string]bool, len(s.Questions))
	for _, q := range s.Questions {
		if q.ID == "" {
			errs = append(errs, "question with empty id")
			continue
		}
		if seen[q.ID] {
			errs = append(errs, fmt.Sprintf("duplicate question %q", q.ID))
		}
		seen[q.ID] = true
		if !dims[q.DimensionID] {
			errs = append(errs, fmt.Sprintf("question %q: unknown dimension %q", q.ID, q.DimensionID))
		}
		if !q.Type.Valid() {
			errs = append(errs, fmt.Sprintf("question %q: unknown type %q", q.ID, q.Type))
			continue
		}
		if q.Weight < 0 {
			errs = append(errs, fmt.Sprintf("question %q: weight must be >= 0", q.ID))
		}
		switch q.Type {
		case QuestionCheckboxes:
			if len(q.Options) == 0 {
				errs = append(errs, fmt.Sprintf("question %q: checkboxes need options", q.ID))
			}
			if q.MaxSelect > 0 && q.MaxSelect < q.MinSelect {
				errs = append(errs, fmt.Sprintf("question %q: max_select must be >= min_select", q.ID))
			}
		case QuestionDualCheckboxes, QuestionTableDualCheckboxes:
			if q.Left == nil || q.Right == nil {
				errs = append(errs, fmt.Sprintf("question %q: dual checkboxes need left and right", q.ID))
			}
		}
		if q.Type.IsTable() && len(q.Rows) == 0 {
			errs = append(errs, fmt.Sprintf("question %q: table needs rows", q.ID))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("model: assessment spec invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DualSelection is the answer to a pair of independent checkboxes.
type DualSelection struct {
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Cell is one row value of a table answer.
type Cell struct {
	Choice TriState       `json:"choice,omitempty"`
	Level  *int           `json:"level,omitempty"`
	Dual   *DualSelection `json:"dual,omitempty"`
}

// Answer is the response to one question. Type must match the question's
// type; only the payload fields for that type are read.
type Answer struct {
	Type     QuestionType    `json:"type"`
	Choice   TriState        `json:"choice,omitempty"`
	Level    *int            `json:"level,omitempty"`
	Selected []string        `json:"selected,omitempty"`
	Dual     *DualSelection  `json:"dual,omitempty"`
	Rows     map[string]Cell `json:"rows,omitempty"`
}

// AnswerMap maps question ids to answers.
type AnswerMap map[string]Answer

// CompanyDetails describes the respondent's organization.
type CompanyDetails struct {
	Name        string `json:"name,omitempty"`
	Sector      string `json:"sector"`
	CompanySize string `json:"company_size"`
	Region      string `json:"region,omitempty"`
}
