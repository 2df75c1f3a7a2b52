package analysis

import (
	"moralsim/domain/choice"
	"moralsim/domain/pattern"
	"moralsim/domain/scenario"
)

// rule ties a dimension to the predicate counted over chosen option metadata
type rule struct {
	dimension pattern.Dimension
	holds     func(m scenario.OptionMetadata) bool
}

var rules = []rule{
	{pattern.PrefersYounger, func(m scenario.OptionMetadata) bool { return m.SparesYounger }},
	{pattern.PrefersMore, func(m scenario.OptionMetadata) bool { return m.SavesMore() }},
	{pattern.AvoidsAction, func(m scenario.OptionMetadata) bool { return m.Inaction }},
	{pattern.PrefersKnown, func(m scenario.OptionMetadata) bool { return m.SparesKnown }},
	{pattern.AcceptsUncertainty, func(m scenario.OptionMetadata) bool { return m.Uncertain }},
	{pattern.Utilitarian, func(m scenario.OptionMetadata) bool { return m.Utilitarian }},
	{pattern.PrefersHumans, func(m scenario.OptionMetadata) bool { return m.SparesHumans }},
}

// Analyze recomputes pattern scores from the full history.
// Returns nil for an empty history.
func Analyze(history []choice.Record) *pattern.Scores {
	if len(history) == 0 {
		return nil
	}

	scores := pattern.NewScores(len(history))
	for _, rec := range history {
		for _, r := range rules {
			if r.holds(rec.Metadata) {
				scores.Counts[r.dimension]++
			}
		}
	}
	return scores
}

// Summarize lists every dimension in report order with its count and ratio
func Summarize(scores *pattern.Scores) []pattern.Entry {
	if scores == nil {
		return nil
	}

	pct := scores.Percentages()
	entries := make([]pattern.Entry, 0, len(pattern.Dimensions))
	for _, d := range pattern.Dimensions {
		entries = append(entries, pattern.Entry{
			Dimension: d,
			Label:     d.Label(),
			Count:     scores.Count(d),
			Ratio:     scores.Ratio(d),
			Percent:   pct[d],
		})
	}
	return entries
}
