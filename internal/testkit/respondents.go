package testkit

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"moralsim/domain/core"
	"moralsim/domain/dataset"
)

// RespondentConfig configures the synthetic respondent generator
type RespondentConfig struct {
	Count       int     `json:"count"`
	Positions   int     `json:"positions"`
	LeanA       float64 `json:"lean_a"`       // probability of answering A at each position
	MissingRate float64 `json:"missing_rate"` // probability a position is left blank
	Seed        int64   `json:"seed"`
}

// DefaultRespondentConfig returns a small balanced population
func DefaultRespondentConfig() RespondentConfig {
	return RespondentConfig{
		Count:     200,
		Positions: 10,
		LeanA:     0.5,
		Seed:      42,
	}
}

var (
	genders = []string{"Female", "Male", "Non-binary"}
	ages    = []string{"18-24", "25-34", "35-44", "45-54", "55+"}
)

// RespondentGenerator produces deterministic datasets shaped like the survey
// export: an id, demographics, and one responseN column per position with
// answers encoded as 1 (A) or 0 (B).
type RespondentGenerator struct {
	config RespondentConfig
	rng    *rand.Rand
}

// NewRespondentGenerator creates a generator seeded from config.Seed
func NewRespondentGenerator(config RespondentConfig) *RespondentGenerator {
	return &RespondentGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Headers returns the column names in export order
func (g *RespondentGenerator) Headers() []string {
	headers := []string{"ResponseId", "gender", "age"}
	for p := 1; p <= g.config.Positions; p++ {
		headers = append(headers, fmt.Sprintf("response%d", p))
	}
	return headers
}

// Generate builds the dataset
func (g *RespondentGenerator) Generate() *dataset.Dataset {
	rows := make([]dataset.Row, 0, g.config.Count)
	for i := 0; i < g.config.Count; i++ {
		row := dataset.Row{
			"ResponseId": fmt.Sprintf("R_%05d", i+1),
			"gender":     genders[g.rng.Intn(len(genders))],
			"age":        ages[g.rng.Intn(len(ages))],
		}
		for p := 1; p <= g.config.Positions; p++ {
			if g.rng.Float64() < g.config.MissingRate {
				continue
			}
			answer := "0"
			if g.rng.Float64() < g.config.LeanA {
				answer = "1"
			}
			row[fmt.Sprintf("response%d", p)] = answer
		}
		rows = append(rows, row)
	}
	return &dataset.Dataset{
		Source:   "synthetic",
		Headers:  g.Headers(),
		Rows:     rows,
		LoadedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// StaticSource serves a fixed dataset, or fails with ErrDatasetUnavailable when it is nil
type StaticSource struct {
	Dataset *dataset.Dataset
	Label   string
}

// NewSyntheticSource generates a dataset and wraps it in a source
func NewSyntheticSource(config RespondentConfig) *StaticSource {
	return &StaticSource{Dataset: NewRespondentGenerator(config).Generate(), Label: "synthetic"}
}

func (s *StaticSource) ReadDataset(ctx context.Context) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Dataset.IsEmpty() {
		return nil, core.NewDatasetUnavailableError(s.Name(), fmt.Errorf("no rows"))
	}
	return s.Dataset, nil
}

func (s *StaticSource) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}
