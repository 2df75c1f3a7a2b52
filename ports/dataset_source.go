package ports

import (
	"context"

	"moralsim/domain/dataset"
)

// DatasetSource provides read-only access to the reference dataset of
// historical respondents
type DatasetSource interface {
	// ReadDataset loads every row. Implementations return ErrDatasetUnavailable
	// when the source is missing or has no data rows.
	ReadDataset(ctx context.Context) (*dataset.Dataset, error)

	// Name identifies the source in logs and status output
	Name() string
}
