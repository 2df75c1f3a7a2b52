package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScores_RatioAndPercentages(t *testing.T) {
	s := NewScores(3)
	s.Counts[PrefersMore] = 2
	s.Counts[AvoidsAction] = 1

	assert.InDelta(t, 2.0/3.0, s.Ratio(PrefersMore), 1e-9)
	assert.Equal(t, 67, s.Percentages()[PrefersMore])
	assert.Equal(t, 33, s.Percentages()[AvoidsAction])
	assert.Equal(t, 0, s.Percentages()[PrefersHumans])

	for _, d := range Dimensions {
		r := s.Normalized()[d]
		assert.GreaterOrEqual(t, r, 0.0)
		assert.LessOrEqual(t, r, 1.0)
	}
}

func TestScores_ZeroLengthIsZeroNotError(t *testing.T) {
	s := NewScores(0)
	assert.Equal(t, 0.0, s.Ratio(PrefersMore))
	assert.False(t, s.Exceeds(PrefersMore, 0.6))

	var nilScores *Scores
	assert.Equal(t, 0, nilScores.Count(AvoidsAction))
	assert.Equal(t, 0.0, nilScores.Ratio(AvoidsAction))
	assert.Equal(t, 0, nilScores.Len())
}

func TestScores_ExceedsIsStrict(t *testing.T) {
	s := NewScores(4)
	s.Counts[AvoidsAction] = 2
	assert.False(t, s.Exceeds(AvoidsAction, 0.5), "2 of 4 is exactly 50%")

	s.Counts[AvoidsAction] = 3
	assert.True(t, s.Exceeds(AvoidsAction, 0.5))

	s = NewScores(5)
	s.Counts[PrefersYounger] = 3
	assert.False(t, s.Exceeds(PrefersYounger, 0.6), "3 of 5 is exactly 60%")
}
