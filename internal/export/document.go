// Package export converts assessments to and from the user-facing export
// document, and writes peer views as spreadsheets.
package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"

	"github.com/sells-group/maturity-cli/internal/model"
	"github.com/sells-group/maturity-cli/internal/scorer"
)

// Document is the downloadable JSON form of an assessment. Field names are
// part of the import/export contract.
type Document struct {
	ID          string                `json:"id"`
	Version     string                `json:"version"`
	Language    string                `json:"language"`
	Timestamp   time.Time             `json:"timestamp"`
	Answers     model.AnswerMap       `json:"answers"`
	Scores      *model.Scores         `json:"scores"`
	UserDetails *model.CompanyDetails `json:"userDetails,omitempty"`
}

// NormalizeLanguage canonicalizes a BCP 47 tag ("en-us" -> "en-US"). An
// empty tag becomes fallback.
func NormalizeLanguage(tag, fallback string) (string, error) {
	if tag == "" {
		tag = fallback
	}
	if tag == "" {
		return "", eris.New("export: language is required")
	}
	t, err := language.Parse(tag)
	if err != nil {
		return "", eris.Wrapf(err, "export: parse language %q", tag)
	}
	return t.String(), nil
}

// FromAssessment builds an export document. Company details are included only
// when withDetails is set.
func FromAssessment(a *model.Assessment, withDetails bool, now time.Time) (*Document, error) {
	if a == nil {
		return nil, eris.New("export: nil assessment")
	}
	lang, err := NormalizeLanguage(a.Language, "en")
	if err != nil {
		return nil, err
	}
	doc := &Document{
		ID:        a.ID,
		Version:   a.Version,
		Language:  lang,
		Timestamp: now.UTC(),
		Answers:   a.Answers,
		Scores:    a.Scores,
	}
	if doc.Answers == nil {
		doc.Answers = model.AnswerMap{}
	}
	if withDetails {
		details := a.Company
		doc.UserDetails = &details
	}
	return doc, nil
}

// Write encodes doc as indented JSON.
func Write(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "export: encode document")
	}
	return nil
}

// Read decodes an export document and checks its answers against spec.
// Scores in the document are discarded and recomputed from the answers. A
// document exported before completion carries no scores and gets none.
func Read(r io.Reader, spec *model.AssessmentSpec) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "export: decode document")
	}
	lang, err := NormalizeLanguage(doc.Language, spec.Language)
	if err != nil {
		return nil, err
	}
	doc.Language = lang

	if unknown := scorer.UnknownAnswers(spec, doc.Answers); len(unknown) > 0 {
		return nil, eris.Errorf("export: answers reference unknown questions: %v", unknown)
	}
	scores, err := scorer.Score(spec, doc.Answers)
	if err != nil {
		return nil, eris.Wrap(err, "export: score imported answers")
	}
	if err := scorer.CheckSelections(spec, doc.Answers); err != nil {
		return nil, eris.Wrap(err, "export: check imported answers")
	}
	if doc.Scores != nil {
		doc.Scores = scores
	}
	return &doc, nil
}

// ToAssessment converts an imported document into an assessment record. Only
// a document with scores becomes a completed record.
func (d *Document) ToAssessment() *model.Assessment {
	a := &model.Assessment{
		ID:       d.ID,
		Version:  d.Version,
		Language: d.Language,
		Status:   model.AssessmentInProgress,
		Answers:  d.Answers,
		Scores:   d.Scores,
	}
	if d.UserDetails != nil {
		a.Company = *d.UserDetails
	}
	if d.Scores != nil {
		a.Status = model.AssessmentCompleted
	}
	return a
}
