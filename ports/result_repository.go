package ports

import (
	"context"

	"moralsim/domain/core"
	"moralsim/domain/result"
)

// ResultRepository persists session reports. The stored shape is not a
// contract; implementations may serialize however suits the backend.
type ResultRepository interface {
	// SaveReport upserts the report for its session
	SaveReport(ctx context.Context, rep *result.Report) error

	// GetReport returns ErrSessionNotFound when nothing was stored
	GetReport(ctx context.Context, id core.SessionID) (*result.Report, error)

	// ListReports returns the most recent reports, newest first
	ListReports(ctx context.Context, limit int) ([]*result.Report, error)

	Close() error
}
