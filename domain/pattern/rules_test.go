package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch_PriorityOrder(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		counts   map[Dimension]int
		expected string
		matched  bool
	}{
		{"nothing strong", 5, map[Dimension]int{PrefersMore: 3}, "", false},
		{"avoids action 3 of 5", 5, map[Dimension]int{AvoidsAction: 3}, "probability", true},
		{"age beats quantity", 5, map[Dimension]int{PrefersYounger: 4, PrefersMore: 5}, "loop", true},
		{"quantity beats action", 4, map[Dimension]int{PrefersMore: 3, AvoidsAction: 3}, "transplant", true},
		{"known alone", 3, map[Dimension]int{PrefersKnown: 2}, "bridge", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScores(tt.n)
			for d, c := range tt.counts {
				s.Counts[d] = c
			}
			r, ok := Match(s)
			assert.Equal(t, tt.matched, ok)
			assert.Equal(t, tt.expected, r.Template)
			if ok {
				assert.Equal(t, r.Dimension, s.Dominant())
			} else {
				assert.Empty(t, s.Dominant())
			}
		})
	}
}

func TestMatch_NilScores(t *testing.T) {
	_, ok := Match(nil)
	assert.False(t, ok)
	var s *Scores
	assert.Empty(t, s.Dominant())
}
