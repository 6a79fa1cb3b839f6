// Package benchmark resolves cohort statistics for a company and compares
// scores against them.
package benchmark

import (
	"maps"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/maturity-cli/internal/model"
)

const (
	// DefaultKey is the key of the global fallback cohort.
	DefaultKey = "default"

	// MinSampleSize is the cohort size at which statistics count as
	// representative.
	MinSampleSize = 15
)

// ErrMissingDefaultBenchmark is returned when a table has no default entry.
var ErrMissingDefaultBenchmark = eris.New("benchmark: table has no default entry")

// Key builds the lookup key for a sector and company size.
func Key(sector, companySize string) string {
	return sector + "-" + companySize
}

// Table is an immutable snapshot of cohort statistics, keyed by
// "<sector>-<companySize>". Entry order is kept for the sector fallback.
type Table struct {
	order   []string
	entries map[string]model.BenchmarkData
}

// Resolution is the outcome of a lookup.
type Resolution struct {
	Data              model.BenchmarkData `json:"data"`
	Source            model.DataSource    `json:"dataSource"`
	HasSufficientData bool                `json:"hasSufficientData"`
}

// NewTable builds a table from entries in the given order. Entries without a
// Key get one from Sector and CompanySize. Later duplicates replace earlier
// ones but keep the first position.
func NewTable(entries []model.BenchmarkData) (*Table, error) {
	t := &Table{entries: make(map[string]model.BenchmarkData, len(entries))}
	for _, e := range entries {
		key := e.Key
		if key == "" {
			if e.Sector == "" || e.CompanySize == "" {
				return nil, eris.Errorf("benchmark: entry needs a key or sector and company size (sector=%q size=%q)", e.Sector, e.CompanySize)
			}
			key = Key(e.Sector, e.CompanySize)
		}
		e.Key = key
		if _, dup := t.entries[key]; !dup {
			t.order = append(t.order, key)
		}
		t.entries[key] = cloneData(e)
	}
	if _, ok := t.entries[DefaultKey]; !ok {
		return nil, ErrMissingDefaultBenchmark
	}
	return t, nil
}

// Resolve picks the best cohort for a company: the exact key, then the first
// entry of the same sector, then the default entry. It never fails.
func (t *Table) Resolve(sector, companySize string) Resolution {
	if sector != "" {
		if e, ok := t.entries[Key(sector, companySize)]; ok && companySize != "" {
			return newResolution(e, model.DataSourceExact)
		}
		prefix := sector + "-"
		for _, k := range t.order {
			if strings.HasPrefix(k, prefix) {
				return newResolution(t.entries[k], model.DataSourceSector)
			}
		}
	}
	return newResolution(t.entries[DefaultKey], model.DataSourceDefault)
}

// Get returns a copy of the entry stored under key.
func (t *Table) Get(key string) (model.BenchmarkData, bool) {
	e, ok := t.entries[key]
	if !ok {
		return model.BenchmarkData{}, false
	}
	return cloneData(e), true
}

// Keys returns the entry keys in table order.
func (t *Table) Keys() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Entries returns copies of all entries in table order.
func (t *Table) Entries() []model.BenchmarkData {
	out := make([]model.BenchmarkData, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, cloneData(t.entries[k]))
	}
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.order) }

func newResolution(e model.BenchmarkData, src model.DataSource) Resolution {
	return Resolution{
		Data:              cloneData(e),
		Source:            src,
		HasSufficientData: e.SampleSize >= MinSampleSize,
	}
}

func cloneData(e model.BenchmarkData) model.BenchmarkData {
	e.Dimensions = maps.Clone(e.Dimensions)
	return e
}
