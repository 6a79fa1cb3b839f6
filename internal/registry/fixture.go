// Package registry loads the authored question bank and the precomputed
// cohort statistics.
package registry

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/maturity-cli/internal/benchmark"
	"github.com/sells-group/maturity-cli/internal/model"
	"github.com/sells-group/maturity-cli/internal/scorer"
)

//go:embed data/questionbank.yaml
var defaultSpecYAML []byte

//go:embed data/benchmarks.yaml
var defaultBenchmarksYAML []byte

// DefaultSpec returns the built-in question bank.
func DefaultSpec() (*model.AssessmentSpec, error) {
	spec, err := ParseSpec(defaultSpecYAML, "yaml")
	if err != nil {
		return nil, eris.Wrap(err, "registry: default question bank")
	}
	return spec, nil
}

// DefaultBenchmarks returns the built-in cohort table.
func DefaultBenchmarks() (*benchmark.Table, error) {
	tbl, err := ParseBenchmarks(defaultBenchmarksYAML, "yaml")
	if err != nil {
		return nil, eris.Wrap(err, "registry: default benchmarks")
	}
	return tbl, nil
}

// LoadSpecFile reads an assessment spec from a YAML or JSON file. An empty
// path returns the built-in question bank.
func LoadSpecFile(path string) (*model.AssessmentSpec, error) {
	if path == "" {
		return DefaultSpec()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read spec file")
	}
	return ParseSpec(data, formatOf(path))
}

// ParseSpec decodes and validates an assessment spec. format is "json" or
// "yaml".
func ParseSpec(data []byte, format string) (*model.AssessmentSpec, error) {
	var spec model.AssessmentSpec
	if err := decode(data, format, &spec); err != nil {
		return nil, eris.Wrap(err, "registry: decode spec")
	}
	if err := scorer.ValidateSpec(&spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// LoadBenchmarksFile reads a cohort table from a YAML or JSON file. An empty
// path returns the built-in table. A table without a default entry is
// rejected here, at load time.
func LoadBenchmarksFile(path string) (*benchmark.Table, error) {
	if path == "" {
		return DefaultBenchmarks()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read benchmarks file")
	}
	return ParseBenchmarks(data, formatOf(path))
}

// ParseBenchmarks decodes a list of cohort entries into a table.
func ParseBenchmarks(data []byte, format string) (*benchmark.Table, error) {
	var entries []model.BenchmarkData
	if err := decode(data, format, &entries); err != nil {
		return nil, eris.Wrap(err, "registry: decode benchmarks")
	}
	tbl, err := benchmark.NewTable(entries)
	if err != nil {
		return nil, eris.Wrap(err, "registry: build benchmark table")
	}
	return tbl, nil
}

func decode(data []byte, format string, v any) error {
	if format == "json" {
		return json.Unmarshal(data, v)
	}
	return yaml.Unmarshal(data, v)
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}
