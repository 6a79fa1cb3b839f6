package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/maturity-cli/internal/config"
	"github.com/sells-group/maturity-cli/internal/model"
	"github.com/sells-group/maturity-cli/internal/registry"
	"github.com/sells-group/maturity-cli/internal/report"
	"github.com/sells-group/maturity-cli/internal/store"
)

func defaultBuilder(t *testing.T) *report.Builder {
	t.Helper()
	spec, err := registry.DefaultSpec()
	require.NoError(t, err)
	table, err := registry.DefaultBenchmarks()
	require.NoError(t, err)
	return report.NewBuilder(spec, table)
}

func emptyReport(t *testing.T, expanded bool) (*report.Report, *model.AssessmentSpec) {
	t.Helper()
	b := defaultBuilder(t)
	rep, err := b.Build(report.Request{
		Company:  model.CompanyDetails{Sector: "manufacturing", CompanySize: "small"},
		Expanded: expanded,
	})
	require.NoError(t, err)
	return rep, b.Spec()
}

func TestWriteReportTable(t *testing.T) {
	rep, spec := emptyReport(t, true)

	var buf bytes.Buffer
	require.NoError(t, writeReportTable(&buf, rep, spec))

	out := buf.String()
	assert.Contains(t, out, "Digital Strategy")
	assert.Contains(t, out, "Overall:  0 / 100")
	assert.Contains(t, out, "Maturity: level 1 (Basic)")
	assert.Contains(t, out, "Benchmark (exact, 42 companies)")
	assert.Contains(t, out, "Gap:         -58")
	assert.NotContains(t, out, "Note:")
}

func TestWriteReportTable_NoBenchmark(t *testing.T) {
	rep, spec := emptyReport(t, false)
	rep.Benchmark = nil

	var buf bytes.Buffer
	require.NoError(t, writeReportTable(&buf, rep, spec))
	assert.Contains(t, buf.String(), "Benchmark: not available")
}

func TestWriteReportCSV(t *testing.T) {
	rep, spec := emptyReport(t, true)

	var buf bytes.Buffer
	require.NoError(t, writeReportCSV(&buf, rep, spec))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(spec.Dimensions)+2)

	assert.Equal(t, "dimension_id", records[0][0])
	assert.Equal(t, []string{"strategy", "Digital Strategy", "0", "75", "75", "55.0", "25", "below_average", "68"}, records[1])

	last := records[len(records)-1]
	assert.Equal(t, "overall", last[0])
	assert.Equal(t, "Basic", last[1])
	assert.Equal(t, "58.0", last[5])
}

func TestWriteReportCSV_LimitedAccessLeavesDimensionCellsEmpty(t *testing.T) {
	rep, spec := emptyReport(t, false)

	var buf bytes.Buffer
	require.NoError(t, writeReportCSV(&buf, rep, spec))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "", records[1][5])
	assert.Equal(t, "25", records[len(records)-1][6])
}

func TestReadAnswersFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "answers.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"strategy_plan": {"type": "tri-state", "choice": "yes"}}`), 0o644))

	answers, err := readAnswersFile(path)
	require.NoError(t, err)
	assert.Equal(t, model.TriStateYes, answers["strategy_plan"].Choice)

	_, err = readAnswersFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))
	_, err = readAnswersFile(path)
	assert.Error(t, err)
}

func TestCheckFormat(t *testing.T) {
	assert.NoError(t, checkFormat("csv", "table", "csv"))
	err := checkFormat("xml", "table", "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table, csv")
}

func TestWriteLeaderboardTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeLeaderboardTable(&buf, nil))
	assert.Contains(t, buf.String(), "No opted-in assessments")

	buf.Reset()
	entries := []model.LeaderboardEntry{
		{Rank: 1, Alias: "Swift Falcon 12", Sector: "retail", CompanySize: "small", Overall: 82, Rating: 8.2, Badge: "Leader"},
	}
	require.NoError(t, writeLeaderboardTable(&buf, entries))
	assert.Contains(t, buf.String(), "Swift Falcon 12")
	assert.Contains(t, buf.String(), "Leader")
}

func TestWriteIndustryTable(t *testing.T) {
	dims := []model.Dimension{{ID: "strategy"}, {ID: "people"}}
	rows := []model.IndustryBenchmark{
		{Sector: "retail", SampleSize: 4, Overall: 61.5, Dimensions: map[string]float64{"strategy": 70}},
		{Sector: "banking", SampleSize: 3, Overall: 48, Dimensions: map[string]float64{"strategy": 50, "people": 44}},
	}

	var buf bytes.Buffer
	require.NoError(t, writeIndustryTable(&buf, rows, dims))
	out := buf.String()
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("banking")), bytes.Index(buf.Bytes(), []byte("retail")))
	assert.Contains(t, out, "61.5")
	assert.Equal(t, "retail", rows[0].Sector, "input order is untouched")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}

func TestLoadBenchmarkTable(t *testing.T) {
	prev := cfg
	t.Cleanup(func() { cfg = prev })
	cfg = &config.Config{}

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	ctx := t.Context()
	require.NoError(t, st.Migrate(ctx))

	// Empty store falls back to the built-in table.
	table, err := loadBenchmarkTable(ctx, st)
	require.NoError(t, err)
	builtin, err := registry.DefaultBenchmarks()
	require.NoError(t, err)
	assert.Equal(t, builtin.Keys(), table.Keys())

	// Stored cohorts win over the built-in table.
	stored := []model.BenchmarkData{
		{Key: "default", Sector: "all", CompanySize: "all", SampleSize: 20,
			Overall: model.BenchmarkStats{Average: 50, Median: 50, Top25: 60, Top10: 70}},
	}
	_, err = st.UpsertBenchmarks(ctx, stored)
	require.NoError(t, err)
	table, err = loadBenchmarkTable(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, table.Keys())

	// A configured file wins over the store.
	path := filepath.Join(t.TempDir(), "cohorts.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"key":"default","sampleSize":1},{"key":"retail-small","sector":"retail","companySize":"small"}]`), 0o644))
	cfg.Assessment.BenchmarkFile = path
	table, err = loadBenchmarkTable(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "retail-small"}, table.Keys())
}

func TestInitCache_UnreachableRedisDegrades(t *testing.T) {
	prev := cfg
	t.Cleanup(func() { cfg = prev })

	cfg = &config.Config{}
	assert.Nil(t, initCache(t.Context()))

	cfg = &config.Config{
		Store: config.StoreConfig{ConnectAttempts: 1},
		Cache: config.CacheConfig{RedisAddr: "127.0.0.1:1", TTLSecs: 60},
	}
	assert.Nil(t, initCache(t.Context()))
}
