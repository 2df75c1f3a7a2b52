package report

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"moralsim/domain/pattern"
	"moralsim/domain/result"
)

// Distribution summarises the similarity values of a match list
func Distribution(similar []result.Match) result.SimilaritySummary {
	summary := result.SimilaritySummary{Count: len(similar)}
	if len(similar) == 0 {
		return summary
	}

	data := make([]float64, len(similar))
	for i, m := range similar {
		data[i] = m.Similarity
	}

	if mean, err := stats.Mean(data); err == nil {
		summary.Mean = round2(mean)
	}
	if median, err := stats.Median(data); err == nil {
		summary.Median = round2(median)
	}
	if sd, err := stats.StandardDeviation(data); err == nil {
		summary.StdDev = round2(sd)
	}
	if max, err := stats.Max(data); err == nil {
		summary.Max = round2(max)
	}
	return summary
}

// Significance computes, per dimension, the probability of observing at least
// the recorded count if each choice were a fair coin flip. Small values mark
// tendencies unlikely to be chance. Nil scores produce no entries.
func Significance(scores *pattern.Scores) []result.Significance {
	if scores == nil || scores.N == 0 {
		return nil
	}

	dist := distuv.Binomial{N: float64(scores.N), P: 0.5}
	out := make([]result.Significance, 0, len(pattern.Dimensions))
	for _, d := range pattern.Dimensions {
		k := scores.Count(d)
		p := 1.0
		if k > 0 {
			p = 1 - dist.CDF(float64(k-1))
		}
		out = append(out, result.Significance{
			Dimension: d,
			Count:     k,
			N:         scores.N,
			PValue:    math.Max(0, math.Min(1, p)),
		})
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
