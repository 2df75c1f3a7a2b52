package analysis

import (
	"testing"

	"moralsim/domain/choice"
	"moralsim/domain/pattern"
	"moralsim/domain/scenario"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(m scenario.OptionMetadata) choice.Record {
	return choice.Record{Metadata: m}
}

func TestAnalyze_EmptyHistory(t *testing.T) {
	assert.Nil(t, Analyze(nil))
	assert.Nil(t, Analyze([]choice.Record{}))
	assert.Nil(t, Summarize(nil))
}

func TestAnalyze_CountsPredicates(t *testing.T) {
	history := []choice.Record{
		rec(scenario.OptionMetadata{ExpectedDeaths: 1, AlternativeExpectedDeaths: 5, Utilitarian: true, SparesYounger: true}),
		rec(scenario.OptionMetadata{ExpectedDeaths: 5, AlternativeExpectedDeaths: 1, Inaction: true, SparesKnown: true}),
		rec(scenario.OptionMetadata{ExpectedDeaths: 3, AlternativeExpectedDeaths: 3, Inaction: true}),
		rec(scenario.OptionMetadata{ExpectedDeaths: 0, AlternativeExpectedDeaths: 2, SparesHumans: true, Uncertain: true}),
	}

	s := Analyze(history)
	require.NotNil(t, s)
	assert.Equal(t, 4, s.N)
	assert.Equal(t, 1, s.Count(pattern.PrefersYounger))
	assert.Equal(t, 2, s.Count(pattern.PrefersMore), "equal expected deaths is not saving more")
	assert.Equal(t, 2, s.Count(pattern.AvoidsAction))
	assert.Equal(t, 1, s.Count(pattern.PrefersKnown))
	assert.Equal(t, 1, s.Count(pattern.AcceptsUncertainty))
	assert.Equal(t, 1, s.Count(pattern.Utilitarian))
	assert.Equal(t, 1, s.Count(pattern.PrefersHumans))

	for _, d := range pattern.Dimensions {
		assert.LessOrEqual(t, s.Count(d), s.N)
	}
}

func TestAnalyze_IsPure(t *testing.T) {
	history := []choice.Record{
		rec(scenario.OptionMetadata{Inaction: true}),
		rec(scenario.OptionMetadata{ExpectedDeaths: 1, AlternativeExpectedDeaths: 4}),
	}
	assert.Equal(t, Analyze(history), Analyze(history))
}

func TestAnalyze_FirstChoiceA(t *testing.T) {
	tpl, err := scenario.Lookup(scenario.TemplateClassic)
	require.NoError(t, err)

	p := scenario.NewParams()
	p.SetCount("main_count", 5)
	p.SetCount("side_count", 1)
	p.SetLabel("main_age", "young adults (25-35)")
	p.SetLabel("side_age", "young adults (25-35)")
	p.SetLabel("side_relation", "strangers")
	sc := tpl.Build(p)

	r, err := choice.NewRecord("s", sc, scenario.LabelA, 0)
	require.NoError(t, err)

	s := Analyze([]choice.Record{r})
	require.NotNil(t, s)
	assert.Equal(t, 1, s.N)
	assert.Equal(t, 1, s.Count(pattern.PrefersMore))
	assert.Equal(t, 0, s.Count(pattern.AvoidsAction))
	assert.Equal(t, 1.0, s.Normalized()[pattern.PrefersMore])
}

func TestSummarize_Order(t *testing.T) {
	s := pattern.NewScores(2)
	s.Counts[pattern.AvoidsAction] = 1

	entries := Summarize(s)
	require.Len(t, entries, len(pattern.Dimensions))
	for i, d := range pattern.Dimensions {
		assert.Equal(t, d, entries[i].Dimension)
	}
	assert.Equal(t, 50, entries[2].Percent)
	assert.Equal(t, "Avoids direct action", entries[2].Label)
}
