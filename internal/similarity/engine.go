package similarity

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"moralsim/domain/choice"
	"moralsim/domain/core"
	"moralsim/domain/dataset"
	"moralsim/domain/result"
	"moralsim/internal"
)

// DefaultTopK is the number of matches returned when k <= 0
const DefaultTopK = 5

const defaultChunkSize = 256

// Result is one ranked historical respondent
type Result = result.Match

// Engine ranks dataset rows by agreement with a respondent's choice vector.
// Results are never cached; every call rescans the dataset.
type Engine struct {
	sampleLimit int
	chunkSize   int
	workers     int
	logger      *internal.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithSampleLimit scans only the first n rows (0 scans all)
func WithSampleLimit(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.sampleLimit = n
		}
	}
}

// WithChunkSize sets how many rows each worker scores per task
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithWorkers caps concurrent scoring goroutines
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger overrides the default logger
func WithLogger(l *internal.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates a similarity engine
func New(opts ...Option) *Engine {
	e := &Engine{
		chunkSize: defaultChunkSize,
		workers:   runtime.GOMAXPROCS(0),
		logger:    internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Similar ranks dataset rows against a choice history
func (e *Engine) Similar(ctx context.Context, history []choice.Record, ds *dataset.Dataset, k int) ([]Result, error) {
	return e.SimilarVector(ctx, choice.Vector(history), ds, k)
}

// SimilarVector ranks dataset rows against a binary choice vector (1=A, 0=B).
// Empty vectors, empty datasets and datasets without comparable fields all
// yield an empty list, not an error. Only context cancellation fails.
func (e *Engine) SimilarVector(ctx context.Context, vector []int, ds *dataset.Dataset, k int) ([]Result, error) {
	if len(vector) == 0 || ds.IsEmpty() {
		return []Result{}, nil
	}
	if k <= 0 {
		k = DefaultTopK
	}

	rows := ds.Rows
	if e.sampleLimit > 0 && e.sampleLimit < len(rows) {
		rows = rows[:e.sampleLimit]
	}

	table := aliasTable(len(vector))
	scored := make([]*Result, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for start := 0; start < len(rows); start += e.chunkSize {
		start := start
		end := start + e.chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				scored[i] = scoreRow(rows[i], i, vector, table)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Result, 0, k)
	comparable := 0
	for _, r := range scored {
		if r == nil {
			continue
		}
		if r.Compared > 0 {
			comparable++
		}
		if r.Matches > 0 {
			out = append(out, *r)
		}
	}
	if comparable == 0 {
		e.logger.Warn("[Similarity] %v", malformed(ds.Source, len(vector)))
		return []Result{}, nil
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if len(out) > k {
		out = out[:k]
	}

	e.logger.Debug("[Similarity] scanned %d rows, %d comparable, returning %d", len(rows), comparable, len(out))
	return out, nil
}

// scoreRow compares one row; nil when no position is comparable
func scoreRow(row dataset.Row, index int, vector []int, table [][]string) *Result {
	cells := resolveRow(row, table)

	compared, matches := 0, 0
	for i, c := range cells {
		if c == nil {
			continue
		}
		compared++
		if c.value == vector[i] {
			matches++
		}
	}
	if compared == 0 {
		return nil
	}

	id, ok := row.First(idFields...)
	if !ok {
		id = result.UnknownDemographic
	}
	gender, ok := row.First(genderFields...)
	if !ok {
		gender = result.UnknownDemographic
	}
	age, ok := row.First(ageFields...)
	if !ok {
		age = result.UnknownDemographic
	}

	return &Result{
		ID:         id,
		Gender:     gender,
		Age:        age,
		RowIndex:   index,
		Compared:   compared,
		Matches:    matches,
		Similarity: float64(matches) / float64(compared) * 100,
	}
}

// malformed describes a dataset with rows but no usable response columns.
// It degrades to an empty result instead of failing the caller.
func malformed(source string, positions int) error {
	return fmt.Errorf("%w: %s (%d positions)", core.ErrDatasetMalformed, source, positions)
}
