package scorer

import "github.com/sells-group/maturity-cli/internal/model"

// maturityBands maps inclusive lower bounds of the 0-100 overall score to
// classifications, highest first.
var maturityBands = []struct {
	min int
	cls model.MaturityClassification
}{
	{76, model.MaturityClassification{Level: model.MaturityAdvanced, Label: "Advanced", Band: "advanced"}},
	{51, model.MaturityClassification{Level: model.MaturityModeratelyAdvanced, Label: "Moderately Advanced", Band: "moderately_advanced"}},
	{26, model.MaturityClassification{Level: model.MaturityAverage, Label: "Average", Band: "average"}},
	{0, model.MaturityClassification{Level: model.MaturityBasic, Label: "Basic", Band: "basic"}},
}

// Classify maps an overall score to its maturity classification. Scores
// outside [0,100] are clamped first.
func Classify(score int) model.MaturityClassification {
	score = clampScore(score)
	for _, b := range maturityBands {
		if score >= b.min {
			return b.cls
		}
	}
	return maturityBands[len(maturityBands)-1].cls
}
