package model

import "time"

// AssessmentStatus is the lifecycle state of a stored assessment.
type AssessmentStatus string

const (
	AssessmentInProgress AssessmentStatus = "in_progress"
	AssessmentCompleted  AssessmentStatus = "completed"
)

// Assessment is a stored questionnaire submission.
type Assessment struct {
	ID          string           `json:"id"`
	Version     string           `json:"version"`
	Language    string           `json:"language"`
	Status      AssessmentStatus `json:"status"`
	OptIn       bool             `json:"opt_in"`
	Company     CompanyDetails   `json:"company"`
	Answers     AnswerMap        `json:"answers"`
	Scores      *Scores          `json:"scores,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// LeaderboardEntry is one anonymous row of the peer leaderboard.
type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	Alias       string  `json:"alias"`
	Sector      string  `json:"sector"`
	CompanySize string  `json:"companySize,omitempty"`
	Overall     int     `json:"overall"`
	Rating      float64 `json:"rating"` // overall on the 0-10 display scale
	Badge       string  `json:"badge"`
}

// IndustryBenchmark is the average result of one sector's peers.
type IndustryBenchmark struct {
	Sector     string             `json:"sector"`
	SampleSize int                `json:"sampleSize"`
	Overall    float64            `json:"overall"`
	Dimensions map[string]float64 `json:"dimensions"`
}
