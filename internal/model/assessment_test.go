package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSpec() *AssessmentSpec {
	return &AssessmentSpec{
		Version:  "1",
		Language: "en",
		Dimensions: []Dimension{
			{ID: "strategy", Weight: 1, TargetLevel: 0.7},
			{ID: "data", Weight: 1, TargetLevel: 0.8},
		},
		Questions: []Question{
			{ID: "q1", DimensionID: "strategy", Type: QuestionTriState, Weight: 1},
			{ID: "q2", DimensionID: "strategy", Type: QuestionCheckboxes, Weight: 1,
				Options: []Option{{ID: "erp", Weight: 1}, {ID: "none", Weight: 0}}},
			{ID: "q3", DimensionID: "data", Type: QuestionScaleTable, Weight: 2,
				Rows: []Row{{ID: "sales"}, {ID: "finance"}}},
		},
	}
}

func TestQuestionType_Valid(t *testing.T) {
	for _, qt := range QuestionTypes {
		assert.True(t, qt.Valid(), string(qt))
	}
	assert.False(t, QuestionType("slider").Valid())
	assert.False(t, QuestionType("").Valid())
}

func TestQuestionType_IsTable(t *testing.T) {
	assert.True(t, QuestionScaleTable.IsTable())
	assert.True(t, QuestionTriStateTable.IsTable())
	assert.True(t, QuestionTableDualCheckboxes.IsTable())
	assert.False(t, QuestionScale.IsTable())
	assert.False(t, QuestionDualCheckboxes.IsTable())
}

func TestAssessmentSpec_Lookups(t *testing.T) {
	spec := validSpec()

	d, ok := spec.Dimension("data")
	require.True(t, ok)
	assert.Equal(t, 0.8, d.TargetLevel)
	_, ok = spec.Dimension("missing")
	assert.False(t, ok)

	q, ok := spec.Question("q3")
	require.True(t, ok)
	assert.Equal(t, QuestionScaleTable, q.Type)

	qs := spec.QuestionsFor("strategy")
	require.Len(t, qs, 2)
	assert.Equal(t, "q1", qs[0].ID)
	assert.Equal(t, "q2", qs[1].ID)
	assert.Empty(t, spec.QuestionsFor("people"))
}

func TestAssessmentSpec_Validate(t *testing.T) {
	require.NoError(t, validSpec().Validate())

	tests := []struct {
		name   string
		mutate func(s *AssessmentSpec)
		want   string
	}{
		{"duplicate dimension", func(s *AssessmentSpec) {
			s.Dimensions = append(s.Dimensions, Dimension{ID: "data", Weight: 1})
		}, `duplicate dimension "data"`},
		{"target out of range", func(s *AssessmentSpec) {
			s.Dimensions[0].TargetLevel = 1.5
		}, "target_level"},
		{"duplicate question", func(s *AssessmentSpec) {
			s.Questions = append(s.Questions, s.Questions[0])
		}, `duplicate question "q1"`},
		{"unknown type", func(s *AssessmentSpec) {
			s.Questions[0].Type = "slider"
		}, "unknown type"},
		{"checkboxes without options", func(s *AssessmentSpec) {
			s.Questions[1].Options = nil
		}, "checkboxes need options"},
		{"dual without sides", func(s *AssessmentSpec) {
			s.Questions[0].Type = QuestionDualCheckboxes
		}, "need left and right"},
		{"table without rows", func(s *AssessmentSpec) {
			s.Questions[2].Rows = nil
		}, "table needs rows"},
		{"negative weight", func(s *AssessmentSpec) {
			s.Questions[0].Weight = -1
		}, "weight must be >= 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.mutate(spec)
			err := spec.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestScores_JSONFieldNames(t *testing.T) {
	s := Scores{
		Dimensions: map[string]DimensionScore{"strategy": {Score: 70, Target: 75, Gap: 5}},
		Overall:    70,
		MaturityClassification: MaturityClassification{
			Level: MaturityModeratelyAdvanced, Label: "Moderately Advanced", Band: "moderately_advanced",
		},
	}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"dimensions": {"strategy": {"score": 70, "target": 75, "gap": 5}},
		"overall": 70,
		"maturityClassification": {"level": 3, "label": "Moderately Advanced", "band": "moderately_advanced"}
	}`, string(data))
}
