package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/maturity-cli/internal/benchmark"
	"github.com/sells-group/maturity-cli/internal/model"
)

func TestDefaultSpec(t *testing.T) {
	spec, err := DefaultSpec()
	require.NoError(t, err)

	assert.Equal(t, "en", spec.Language)
	assert.Len(t, spec.Dimensions, 6)
	for _, d := range spec.Dimensions {
		assert.NotEmpty(t, spec.QuestionsFor(d.ID), "dimension %s has no questions", d.ID)
		assert.Equal(t, 1.0, d.Weight)
	}

	types := make(map[model.QuestionType]bool)
	for _, q := range spec.Questions {
		types[q.Type] = true
	}
	for _, qt := range model.QuestionTypes {
		assert.True(t, types[qt], "question bank has no %s question", qt)
	}
}

func TestDefaultSpec_FlagsHaveZeroWeight(t *testing.T) {
	spec, err := DefaultSpec()
	require.NoError(t, err)

	q, ok := spec.Question("data_collection")
	require.True(t, ok)
	var flag *model.Option
	for i := range q.Options {
		if q.Options[i].ID == "no_digital_collection" {
			flag = &q.Options[i]
		}
	}
	require.NotNil(t, flag)
	assert.Equal(t, 0.0, flag.Weight)
}

func TestDefaultBenchmarks(t *testing.T) {
	tbl, err := DefaultBenchmarks()
	require.NoError(t, err)

	def, ok := tbl.Get(benchmark.DefaultKey)
	require.True(t, ok)
	assert.Equal(t, model.BenchmarkStats{Average: 66, Median: 69, Top25: 78, Top10: 85}, def.Overall)
	assert.Len(t, def.Dimensions, 6)
	assert.Equal(t, 2026, def.LastUpdated.Year())

	res := tbl.Resolve("manufacturing", "large")
	assert.Equal(t, model.DataSourceSector, res.Source)
	assert.Equal(t, "manufacturing-small", res.Data.Key)

	res = tbl.Resolve("services", "large")
	assert.Equal(t, model.DataSourceExact, res.Source)
	assert.False(t, res.HasSufficientData)
}

func TestLoadSpecFile_JSON(t *testing.T) {
	spec := model.AssessmentSpec{
		Version:    "1",
		Language:   "de",
		Dimensions: []model.Dimension{{ID: "d1", Name: "One", Weight: 1, TargetLevel: 0.5}},
		Questions:  []model.Question{{ID: "q1", DimensionID: "d1", Type: model.QuestionTriState, Weight: 1}},
	}
	data, err := json.Marshal(spec)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "spec.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := LoadSpecFile(path)
	require.NoError(t, err)
	assert.Equal(t, "de", got.Language)
	require.Len(t, got.Questions, 1)
	assert.Equal(t, model.QuestionTriState, got.Questions[0].Type)
}

func TestLoadSpecFile_EmptyPathUsesDefault(t *testing.T) {
	got, err := LoadSpecFile("")
	require.NoError(t, err)
	assert.Len(t, got.Dimensions, 6)
}

func TestLoadSpecFile_Invalid(t *testing.T) {
	yml := `
version: "1"
dimensions:
  - {id: d1, weight: 1, target_level: 0.5}
questions:
  - {id: q1, dimension_id: missing, type: tri-state, weight: 1}
`
	path := filepath.Join(t.TempDir(), "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	_, err := LoadSpecFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dimension")
}

func TestLoadSpecFile_Missing(t *testing.T) {
	_, err := LoadSpecFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read spec file")
}

func TestLoadBenchmarksFile_MissingDefault(t *testing.T) {
	yml := `
- key: retail-small
  sector: retail
  company_size: small
  sample_size: 20
  overall: {average: 50, median: 52, top25: 60, top10: 70}
`
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	_, err := LoadBenchmarksFile(path)
	require.Error(t, err)
	assert.True(t, eris.Is(err, benchmark.ErrMissingDefaultBenchmark))
}
