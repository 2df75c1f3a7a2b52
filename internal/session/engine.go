package session

import (
	"context"
	"time"

	"moralsim/domain/choice"
	"moralsim/domain/core"
	"moralsim/domain/dataset"
	"moralsim/domain/result"
	"moralsim/internal"
	"moralsim/internal/generator"
	"moralsim/internal/report"
	"moralsim/internal/selector"
	"moralsim/internal/similarity"
	"moralsim/ports"
)

// DefaultRevealDelay is how long presentation layers show a recorded choice
// before moving to the next scenario
const DefaultRevealDelay = 500 * time.Millisecond

// DatasetView is the read side of the dataset holder
type DatasetView interface {
	Load(ctx context.Context) (*dataset.Dataset, error)
}

// Engine bundles the collaborators every session shares. Sessions own only
// their history; everything here is stateless or safe for concurrent use.
type Engine struct {
	Selector   *selector.Selector
	Generator  *generator.Generator
	Similarity *similarity.Engine
	Dataset    DatasetView
	Results    ports.ResultRepository
	Publisher  Publisher
	Logger     *internal.Logger
	TopK       int
}

func (e *Engine) publisher() Publisher {
	if e.Publisher == nil {
		return nopPublisher{}
	}
	return e.Publisher
}

func (e *Engine) logger() *internal.Logger {
	if e.Logger == nil {
		return internal.DefaultLogger
	}
	return e.Logger
}

func (e *Engine) publish(t EventType, id core.SessionID, data interface{}) {
	e.publisher().Publish(Event{Type: t, SessionID: id, Data: data, Timestamp: core.Now()})
}

// similar ranks the dataset against a history. Dataset problems degrade to an
// empty list; only cancellation is an error.
func (e *Engine) similar(ctx context.Context, history []choice.Record) ([]result.Match, error) {
	if e.Similarity == nil || e.Dataset == nil || len(history) == 0 {
		return []result.Match{}, nil
	}
	ds, err := e.Dataset.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger().Warn("[Session] similarity skipped: %v", err)
		return []result.Match{}, nil
	}
	return e.Similarity.Similar(ctx, history, ds, e.TopK)
}

// buildReport computes the report for a history snapshot
func (e *Engine) buildReport(ctx context.Context, id core.SessionID, history []choice.Record) (*result.Report, error) {
	matches, err := e.similar(ctx, history)
	if err != nil {
		return nil, err
	}
	return report.Build(report.Input{
		SessionID: id,
		Total:     e.Selector.Total(),
		History:   history,
		Similar:   matches,
	}), nil
}

// persist stores a finished report when a repository is configured
func (e *Engine) persist(ctx context.Context, rep *result.Report) {
	if e.Results == nil || rep == nil {
		return
	}
	if err := e.Results.SaveReport(ctx, rep); err != nil {
		e.logger().Error("[Session] failed to save report for %s: %v", rep.SessionID, err)
		return
	}
	e.logger().Debug("[Session] saved report for %s", rep.SessionID)
}
