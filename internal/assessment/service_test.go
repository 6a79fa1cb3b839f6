package assessment

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/maturity-cli/internal/export"
	"github.com/sells-group/maturity-cli/internal/model"
	"github.com/sells-group/maturity-cli/internal/registry"
	"github.com/sells-group/maturity-cli/internal/report"
	"github.com/sells-group/maturity-cli/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	spec, err := registry.DefaultSpec()
	require.NoError(t, err)
	tbl, err := registry.DefaultBenchmarks()
	require.NoError(t, err)

	svc := NewService(st, report.NewBuilder(spec, tbl), nil, Options{MinSampleSize: 3, LeaderboardLimit: 10})
	svc.now = func() time.Time { return time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func level(n int) *int { return &n }

func retail(name string) model.CompanyDetails {
	return model.CompanyDetails{Name: name, Sector: "retail", CompanySize: "small"}
}

func TestCreate_RejectsUnknownQuestion(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Create(context.Background(), CreateRequest{
		Company: retail("Acme"),
		Answers: model.AnswerMap{"nope": {Type: model.QuestionTriState, Choice: model.TriStateYes}},
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "nope")
}

func TestSaveAnswers_EnforcesSelectionLimits(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateRequest{Company: retail("Acme")})
	require.NoError(t, err)

	_, err = svc.SaveAnswers(ctx, a.ID, model.AnswerMap{
		"data_collection": {Type: model.QuestionCheckboxes, Selected: []string{}},
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "at least 1")

	_, err = svc.SaveAnswers(ctx, a.ID, model.AnswerMap{
		"data_collection": {Type: model.QuestionCheckboxes, Selected: []string{"sales"}},
	})
	assert.NoError(t, err)
}

func TestCreate_RejectsTypeMismatch(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Create(context.Background(), CreateRequest{
		Company: retail("Acme"),
		Answers: model.AnswerMap{"strategy_plan": {Type: model.QuestionScale, Level: level(2)}},
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestCreate_NormalizesLanguage(t *testing.T) {
	svc := newTestService(t)
	a, err := svc.Create(context.Background(), CreateRequest{Company: retail("Acme"), Language: "de-de"})
	require.NoError(t, err)
	assert.Equal(t, "de-DE", a.Language)
	assert.Equal(t, svc.Spec().Version, a.Version)

	b, err := svc.Create(context.Background(), CreateRequest{Company: retail("Acme")})
	require.NoError(t, err)
	assert.Equal(t, "en", b.Language)
}

func TestLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateRequest{
		Company: retail("Acme"),
		OptIn:   true,
		Answers: model.AnswerMap{"strategy_plan": {Type: model.QuestionTriState, Choice: model.TriStatePartial}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.AssessmentInProgress, a.Status)

	updated, err := svc.SaveAnswers(ctx, a.ID, model.AnswerMap{
		"strategy_plan":   {Type: model.QuestionTriState, Choice: model.TriStateYes},
		"strategy_budget": {Type: model.QuestionScale, Level: level(5)},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Answers, 2)
	assert.Equal(t, model.TriStateYes, updated.Answers["strategy_plan"].Choice)

	done, err := svc.Complete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssessmentCompleted, done.Status)
	require.NotNil(t, done.Scores)
	assert.Greater(t, done.Scores.Dimensions["strategy"].Score, 0)
	require.NotNil(t, done.CompletedAt)

	stored, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, done.Scores, stored.Scores)

	_, err = svc.SaveAnswers(ctx, a.ID, model.AnswerMap{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrAlreadyCompleted))
}

func TestGet_NotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, eris.Is(err, store.ErrNotFound))

	_, err = svc.Complete(context.Background(), "missing")
	assert.True(t, eris.Is(err, store.ErrNotFound))
}

func TestReport_ExpandedGate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateRequest{
		Company: model.CompanyDetails{Sector: "manufacturing", CompanySize: "small"},
		Answers: model.AnswerMap{"strategy_budget": {Type: model.QuestionScale, Level: level(3)}},
	})
	require.NoError(t, err)

	basic, err := svc.Report(ctx, a.ID, false)
	require.NoError(t, err)
	require.NotNil(t, basic.Benchmark)
	assert.Equal(t, model.DataSourceExact, basic.Benchmark.DataSource)
	assert.Nil(t, basic.Benchmark.Dimensions)

	full, err := svc.Report(ctx, a.ID, true)
	require.NoError(t, err)
	assert.NotEmpty(t, full.Benchmark.Dimensions)
	assert.Equal(t, basic.Scores, full.Scores)
}

func TestExportImport(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateRequest{
		Company: retail("Acme"),
		OptIn:   true,
		Answers: model.AnswerMap{"tech_tools": {Type: model.QuestionCheckboxes, Selected: []string{"erp", "crm", "bi"}}},
	})
	require.NoError(t, err)
	_, err = svc.Complete(ctx, a.ID)
	require.NoError(t, err)

	doc, err := svc.Export(ctx, a.ID, true)
	require.NoError(t, err)
	assert.Equal(t, a.ID, doc.ID)
	require.NotNil(t, doc.UserDetails)

	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, doc))

	imported, err := svc.Import(ctx, &buf)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, imported.ID, "existing id gets a fresh one")
	assert.False(t, imported.OptIn)
	assert.Equal(t, model.AssessmentCompleted, imported.Status)
	assert.Equal(t, doc.Scores, imported.Scores)
}

func TestExport_InProgressHasNoScores(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateRequest{Company: retail("Acme")})
	require.NoError(t, err)

	doc, err := svc.Export(ctx, a.ID, false)
	require.NoError(t, err)
	assert.Nil(t, doc.Scores)
	assert.Nil(t, doc.UserDetails)
}

func TestExportImport_InProgressStaysEditable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateRequest{
		Company: retail("Acme"),
		Answers: model.AnswerMap{"strategy_plan": {Type: model.QuestionTriState, Choice: model.TriStatePartial}},
	})
	require.NoError(t, err)

	doc, err := svc.Export(ctx, a.ID, true)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, doc))

	imported, err := svc.Import(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, model.AssessmentInProgress, imported.Status)
	assert.Nil(t, imported.Scores)

	updated, err := svc.SaveAnswers(ctx, imported.ID, model.AnswerMap{
		"strategy_budget": {Type: model.QuestionScale, Level: level(3)},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Answers, 2)

	done, err := svc.Complete(ctx, imported.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssessmentCompleted, done.Status)
}

func TestImport_Invalid(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Import(context.Background(), bytes.NewBufferString(`{"answers":{"ghost":{"type":"tri-state"}}}`))
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func completeWith(t *testing.T, svc *Service, company model.CompanyDetails, optIn bool, budget int) {
	t.Helper()
	ctx := context.Background()
	a, err := svc.Create(ctx, CreateRequest{
		Company: company,
		OptIn:   optIn,
		Answers: model.AnswerMap{"strategy_budget": {Type: model.QuestionScale, Level: level(budget)}},
	})
	require.NoError(t, err)
	_, err = svc.Complete(ctx, a.ID)
	require.NoError(t, err)
}

func TestPeerViews(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, lvl := range []int{1, 3, 5} {
		completeWith(t, svc, retail("r"), true, lvl)
	}
	completeWith(t, svc, retail("private"), false, 5)
	completeWith(t, svc, model.CompanyDetails{Sector: "services", CompanySize: "large"}, true, 5)

	industry, err := svc.IndustryBenchmarks(ctx)
	require.NoError(t, err)
	require.Len(t, industry, 1, "services has one record, below the minimum sample")
	assert.Equal(t, "retail", industry[0].Sector)
	assert.Equal(t, 3, industry[0].SampleSize)

	board, err := svc.Leaderboard(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, board, 4)
	assert.Equal(t, 1, board[0].Rank)
	for _, e := range board {
		assert.NotEqual(t, "private", e.Alias)
	}

	retailOnly, err := svc.Leaderboard(ctx, "retail", 2)
	require.NoError(t, err)
	require.Len(t, retailOnly, 2)
	assert.GreaterOrEqual(t, retailOnly[0].Overall, retailOnly[1].Overall)
}
