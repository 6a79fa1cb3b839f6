// Package scorer turns questionnaire answers into dimension scores, an
// overall maturity score and a maturity classification.
package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/maturity-cli/internal/model"
)

// WeightSum returns the sum of all dimension weights.
func WeightSum(dims []model.Dimension) float64 {
	var sum float64
	for _, d := range dims {
		sum += d.Weight
	}
	return sum
}

// ValidateSpec checks that a spec can be scored: structurally valid, with a
// positive dimension weight sum. Questions with zero weight are legal but
// logged by callers as informational.
func ValidateSpec(spec *model.AssessmentSpec) error {
	if spec == nil {
		return eris.New("scorer: nil assessment spec")
	}
	if err := spec.Validate(); err != nil {
		return eris.Wrap(err, "scorer: validate spec")
	}

	var errs []string
	if len(spec.Dimensions) == 0 {
		errs = append(errs, "spec has no dimensions")
	}
	sum := WeightSum(spec.Dimensions)
	if sum <= 0 || math.IsNaN(sum) {
		errs = append(errs, fmt.Sprintf("dimension weight sum must be > 0, got %.2f", sum))
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: spec validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
