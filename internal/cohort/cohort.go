package cohort

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/maturity-cli/internal/model"
)

// DefaultMinSampleSize is the smallest sector group reported in industry
// benchmarks.
const DefaultMinSampleSize = 3

// eligible reports whether a record should take part in peer views at all.
func eligible(a model.Assessment) bool {
	return a.Status == model.AssessmentCompleted && a.OptIn
}

// checkRecord returns an error for records that cannot be aggregated.
func checkRecord(a model.Assessment) error {
	switch {
	case a.ID == "":
		return eris.New("cohort: record has no id")
	case a.Company.Sector == "":
		return eris.Errorf("cohort: record %s has no sector", a.ID)
	case a.Scores == nil:
		return eris.Errorf("cohort: record %s has no scores", a.ID)
	case a.Scores.Overall < 0 || a.Scores.Overall > 100:
		return eris.Errorf("cohort: record %s overall %d out of range", a.ID, a.Scores.Overall)
	}
	return nil
}
