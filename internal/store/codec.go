package store

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/maturity-cli/internal/model"
)

// marshalAssessment encodes the JSON columns of an assessment. scores is nil
// when the assessment has not been scored.
func marshalAssessment(a *model.Assessment) (company, answers, scores []byte, err error) {
	if company, err = json.Marshal(a.Company); err != nil {
		return nil, nil, nil, eris.Wrap(err, "marshal company")
	}
	if answers, err = json.Marshal(a.Answers); err != nil {
		return nil, nil, nil, eris.Wrap(err, "marshal answers")
	}
	if a.Scores != nil {
		if scores, err = json.Marshal(a.Scores); err != nil {
			return nil, nil, nil, eris.Wrap(err, "marshal scores")
		}
	}
	return company, answers, scores, nil
}

func unmarshalAssessment(a *model.Assessment, company, answers, scores []byte) error {
	if err := json.Unmarshal(company, &a.Company); err != nil {
		return eris.Wrap(err, "unmarshal company")
	}
	if err := json.Unmarshal(answers, &a.Answers); err != nil {
		return eris.Wrap(err, "unmarshal answers")
	}
	if a.Answers == nil {
		a.Answers = model.AnswerMap{}
	}
	if scores != nil {
		a.Scores = &model.Scores{}
		if err := json.Unmarshal(scores, a.Scores); err != nil {
			return eris.Wrap(err, "unmarshal scores")
		}
	}
	return nil
}

var benchmarkColumns = []string{
	"key", "position", "sector", "company_size", "region", "sample_size", "overall", "dimensions", "last_updated",
}

// benchmarkRow encodes an entry in benchmarkColumns order.
func benchmarkRow(position int, e model.BenchmarkData) ([]any, error) {
	overall, err := json.Marshal(e.Overall)
	if err != nil {
		return nil, eris.Wrapf(err, "marshal overall stats for %s", e.Key)
	}
	dims := e.Dimensions
	if dims == nil {
		dims = map[string]model.BenchmarkStats{}
	}
	dimData, err := json.Marshal(dims)
	if err != nil {
		return nil, eris.Wrapf(err, "marshal dimension stats for %s", e.Key)
	}
	return []any{
		e.Key, position, e.Sector, e.CompanySize, e.Region, e.SampleSize, overall, dimData, e.LastUpdated.UTC(),
	}, nil
}

func unmarshalBenchmarkStats(overall, dims []byte, e *model.BenchmarkData) error {
	if err := json.Unmarshal(overall, &e.Overall); err != nil {
		return eris.Wrapf(err, "unmarshal overall stats for %s", e.Key)
	}
	if err := json.Unmarshal(dims, &e.Dimensions); err != nil {
		return eris.Wrapf(err, "unmarshal dimension stats for %s", e.Key)
	}
	return nil
}
