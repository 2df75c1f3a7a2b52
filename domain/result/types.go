package result

import (
	"moralsim/domain/choice"
	"moralsim/domain/core"
	"moralsim/domain/pattern"
)

// UnknownDemographic fills missing identity fields copied from dataset rows
const UnknownDemographic = "Unknown"

// Match is a historical respondent whose choices resemble the current one
type Match struct {
	ID         string  `json:"id"`
	Gender     string  `json:"gender"`
	Age        string  `json:"age"`
	RowIndex   int     `json:"row_index"`
	Compared   int     `json:"compared"`
	Matches    int     `json:"matches"`
	Similarity float64 `json:"similarity"`
}

// Significance is a one-sided binomial tail probability for a dimension count
type Significance struct {
	Dimension pattern.Dimension `json:"dimension"`
	Count     int               `json:"count"`
	N         int               `json:"n"`
	PValue    float64           `json:"p_value"`
}

// SimilaritySummary describes the spread of similarity values in a match list
type SimilaritySummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Max    float64 `json:"max"`
}

// Report is the exported outcome of a completed (or in-progress) session
type Report struct {
	SessionID    core.SessionID            `json:"session_id"`
	Total        int                       `json:"total"`
	Complete     bool                      `json:"complete"`
	History      []choice.Record           `json:"history"`
	Scores       *pattern.Scores           `json:"scores,omitempty"`
	Summary      []pattern.Entry           `json:"summary"`
	Similar      []Match                   `json:"similar"`
	Distribution SimilaritySummary         `json:"distribution"`
	Significance []Significance            `json:"significance,omitempty"`
	Vector       string                    `json:"vector"`
	VectorHash   core.Hash                 `json:"vector_hash"`
	CreatedAt    core.Timestamp            `json:"created_at"`
	Percentages  map[pattern.Dimension]int `json:"percentages"`
}
