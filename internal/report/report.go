package report

import (
	"strings"

	"moralsim/domain/choice"
	"moralsim/domain/core"
	"moralsim/domain/pattern"
	"moralsim/domain/result"
	"moralsim/internal/analysis"
)

// Input is everything a report is built from
type Input struct {
	SessionID core.SessionID
	Total     int
	History   []choice.Record
	Similar   []result.Match
}

// Build assembles the exported report. Scores are recomputed from history.
func Build(in Input) *result.Report {
	history := make([]choice.Record, len(in.History))
	copy(history, in.History)

	similar := in.Similar
	if similar == nil {
		similar = []result.Match{}
	}

	scores := analysis.Analyze(history)
	labels := choice.Labels(history)

	rep := &result.Report{
		SessionID:    in.SessionID,
		Total:        in.Total,
		Complete:     in.Total > 0 && len(history) >= in.Total,
		History:      history,
		Scores:       scores,
		Summary:      analysis.Summarize(scores),
		Similar:      similar,
		Distribution: Distribution(similar),
		Significance: Significance(scores),
		Vector:       strings.Join(labels, ""),
		VectorHash:   core.ComputeChoiceVectorHash(labels),
		CreatedAt:    core.Now(),
		Percentages:  map[pattern.Dimension]int{},
	}
	if scores != nil {
		rep.Percentages = scores.Percentages()
	}
	return rep
}
