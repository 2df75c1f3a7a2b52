package report

import (
	"strings"
	"testing"

	"moralsim/domain/choice"
	"moralsim/domain/pattern"
	"moralsim/domain/result"
	"moralsim/domain/scenario"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(metas ...scenario.OptionMetadata) []choice.Record {
	out := make([]choice.Record, len(metas))
	for i, m := range metas {
		label := scenario.LabelA
		if m.Inaction {
			label = scenario.LabelB
		}
		out[i] = choice.Record{Label: label, Metadata: m, Sequence: i}
	}
	return out
}

func TestBuild_RoundedPercentages(t *testing.T) {
	history := records(
		scenario.OptionMetadata{Inaction: true},
		scenario.OptionMetadata{ExpectedDeaths: 1, AlternativeExpectedDeaths: 5},
		scenario.OptionMetadata{ExpectedDeaths: 1, AlternativeExpectedDeaths: 3},
	)
	rep := Build(Input{SessionID: "s1", Total: 3, History: history})

	assert.True(t, rep.Complete)
	assert.Equal(t, "BAA", rep.Vector)
	assert.False(t, rep.VectorHash.IsEmpty())
	assert.Equal(t, 67, rep.Percentages[pattern.PrefersMore])
	assert.Equal(t, 33, rep.Percentages[pattern.AvoidsAction])
	assert.NotNil(t, rep.Similar)
	assert.Len(t, rep.Significance, len(pattern.Dimensions))
}

func TestBuild_EmptyHistory(t *testing.T) {
	rep := Build(Input{SessionID: "s1", Total: 7})
	assert.False(t, rep.Complete)
	assert.Nil(t, rep.Scores)
	assert.Empty(t, rep.Summary)
	assert.Empty(t, rep.Percentages)
	assert.Nil(t, rep.Significance)
}

func TestDistribution(t *testing.T) {
	s := Distribution([]result.Match{{Similarity: 100}, {Similarity: 50}, {Similarity: 75}})
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 75.0, s.Mean)
	assert.Equal(t, 75.0, s.Median)
	assert.Equal(t, 100.0, s.Max)
	assert.Greater(t, s.StdDev, 0.0)

	assert.Equal(t, result.SimilaritySummary{}, Distribution(nil))
}

func TestSignificance_BinomialTail(t *testing.T) {
	s := pattern.NewScores(7)
	s.Counts[pattern.AvoidsAction] = 7
	s.Counts[pattern.PrefersMore] = 4

	sig := Significance(s)
	require.Len(t, sig, len(pattern.Dimensions))
	byDim := map[pattern.Dimension]float64{}
	for _, x := range sig {
		byDim[x.Dimension] = x.PValue
	}
	assert.InDelta(t, 1.0/128.0, byDim[pattern.AvoidsAction], 1e-6)
	assert.InDelta(t, 0.5, byDim[pattern.PrefersMore], 1e-6)
	assert.Equal(t, 1.0, byDim[pattern.PrefersHumans])
}

func TestHTML(t *testing.T) {
	rep := Build(Input{
		SessionID: "s1",
		Total:     2,
		History:   records(scenario.OptionMetadata{Inaction: true}, scenario.OptionMetadata{Inaction: true}),
		Similar:   []result.Match{{ID: "r9", Gender: "F", Age: "40", Compared: 2, Matches: 2, Similarity: 100}},
	})

	md := Markdown(rep)
	assert.Contains(t, md, "| Avoids direct action | 2 | 100% |")
	assert.Contains(t, md, "#r9")

	out := string(HTML(rep))
	assert.True(t, strings.Contains(out, "<table>"))
	assert.Contains(t, out, "<h1")
}
