package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/maturity-cli/internal/model"
	"github.com/sells-group/maturity-cli/internal/registry"
	"github.com/sells-group/maturity-cli/internal/scorer"
)

func level(n int) *int { return &n }

func completedAssessment(t *testing.T) *model.Assessment {
	t.Helper()
	spec, err := registry.DefaultSpec()
	require.NoError(t, err)

	answers := model.AnswerMap{
		"strategy_plan":   {Type: model.QuestionTriState, Choice: model.TriStateYes},
		"strategy_budget": {Type: model.QuestionScale, Level: level(3)},
		"tech_tools":      {Type: model.QuestionCheckboxes, Selected: []string{"erp", "crm"}},
	}
	scores, err := scorer.Score(spec, answers)
	require.NoError(t, err)

	return &model.Assessment{
		ID:       "a-1",
		Version:  spec.Version,
		Language: "en-us",
		Status:   model.AssessmentCompleted,
		Company:  model.CompanyDetails{Name: "Acme", Sector: "manufacturing", CompanySize: "small"},
		Answers:  answers,
		Scores:   scores,
	}
}

func TestNormalizeLanguage(t *testing.T) {
	got, err := NormalizeLanguage("en-us", "")
	require.NoError(t, err)
	assert.Equal(t, "en-US", got)

	got, err = NormalizeLanguage("", "de")
	require.NoError(t, err)
	assert.Equal(t, "de", got)

	_, err = NormalizeLanguage("", "")
	assert.Error(t, err)

	_, err = NormalizeLanguage("not a tag!", "")
	assert.Error(t, err)
}

func TestFromAssessment_FieldNames(t *testing.T) {
	a := completedAssessment(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	doc, err := FromAssessment(a, false, now)
	require.NoError(t, err)
	assert.Equal(t, "en-US", doc.Language)
	assert.Nil(t, doc.UserDetails)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc))

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	for _, k := range []string{"id", "version", "language", "timestamp", "answers", "scores"} {
		assert.Contains(t, raw, k)
	}
	assert.NotContains(t, raw, "userDetails")
	assert.Contains(t, string(raw["scores"]), `"maturityClassification"`)
}

func TestFromAssessment_WithDetails(t *testing.T) {
	doc, err := FromAssessment(completedAssessment(t), true, time.Now())
	require.NoError(t, err)
	require.NotNil(t, doc.UserDetails)
	assert.Equal(t, "Acme", doc.UserDetails.Name)
}

func TestFromAssessment_Nil(t *testing.T) {
	_, err := FromAssessment(nil, false, time.Now())
	assert.Error(t, err)
}

func TestRoundTrip_RecomputesScores(t *testing.T) {
	spec, err := registry.DefaultSpec()
	require.NoError(t, err)

	a := completedAssessment(t)
	want := *a.Scores
	a.Scores.Overall = 99 // tampered

	doc, err := FromAssessment(a, true, time.Now())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc))

	got, err := Read(&buf, spec)
	require.NoError(t, err)
	assert.Equal(t, want, *got.Scores)

	imported := got.ToAssessment()
	assert.Equal(t, model.AssessmentCompleted, imported.Status)
	assert.Equal(t, "manufacturing", imported.Company.Sector)
	assert.Equal(t, a.Answers, imported.Answers)
}

func TestRead_UnknownQuestion(t *testing.T) {
	spec, err := registry.DefaultSpec()
	require.NoError(t, err)

	in := `{"id":"x","version":"2.0","language":"en","answers":{"made_up":{"type":"tri-state","choice":"yes"}}}`
	_, err = Read(strings.NewReader(in), spec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "made_up")
}

func TestRead_TypeMismatch(t *testing.T) {
	spec, err := registry.DefaultSpec()
	require.NoError(t, err)

	in := `{"id":"x","version":"2.0","language":"en","answers":{"strategy_plan":{"type":"scale-0-5","level":3}}}`
	_, err = Read(strings.NewReader(in), spec)
	require.Error(t, err)
}

func TestRead_MalformedJSON(t *testing.T) {
	spec, err := registry.DefaultSpec()
	require.NoError(t, err)

	_, err = Read(strings.NewReader("{"), spec)
	assert.Error(t, err)
}

func TestRead_DefaultsLanguageToSpec(t *testing.T) {
	spec, err := registry.DefaultSpec()
	require.NoError(t, err)

	got, err := Read(strings.NewReader(`{"id":"x","answers":{}}`), spec)
	require.NoError(t, err)
	assert.Equal(t, spec.Language, got.Language)
	assert.Nil(t, got.Scores)
}

func TestRoundTrip_InProgressStaysInProgress(t *testing.T) {
	spec, err := registry.DefaultSpec()
	require.NoError(t, err)

	a := completedAssessment(t)
	a.Status = model.AssessmentInProgress
	a.Scores = nil

	doc, err := FromAssessment(a, false, time.Now())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc))
	assert.Contains(t, buf.String(), `"scores": null`)

	got, err := Read(&buf, spec)
	require.NoError(t, err)
	assert.Nil(t, got.Scores)

	imported := got.ToAssessment()
	assert.Equal(t, model.AssessmentInProgress, imported.Status)
	assert.Nil(t, imported.Scores)
	assert.Equal(t, a.Answers, imported.Answers)
}
