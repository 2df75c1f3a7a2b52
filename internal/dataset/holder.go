package dataset

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"moralsim/domain/core"
	"moralsim/domain/dataset"
	"moralsim/internal"
	"moralsim/ports"
)

// Holder loads the reference dataset once and hands the immutable result to
// readers. A failed load leaves the holder unavailable until Reload is called;
// there is no automatic retry.
type Holder struct {
	source ports.DatasetSource
	logger *internal.Logger

	mu      sync.RWMutex
	current *dataset.Dataset
	status  dataset.DatasetStatus
	lastErr error

	group singleflight.Group
}

// NewHolder creates a holder over a dataset source. source may be nil, in
// which case the dataset is permanently unavailable.
func NewHolder(source ports.DatasetSource, logger *internal.Logger) *Holder {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Holder{source: source, logger: logger, status: dataset.StatusNotLoaded}
}

// Load reads the dataset if it has not been loaded yet
func (h *Holder) Load(ctx context.Context) (*dataset.Dataset, error) {
	h.mu.RLock()
	ds, status, err := h.current, h.status, h.lastErr
	h.mu.RUnlock()

	switch status {
	case dataset.StatusReady:
		return ds, nil
	case dataset.StatusUnavailable:
		return nil, err
	}
	return h.Reload(ctx)
}

// Reload re-reads the source. Concurrent callers share one read.
func (h *Holder) Reload(ctx context.Context) (*dataset.Dataset, error) {
	v, err, _ := h.group.Do("load", func() (interface{}, error) {
		return h.read(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*dataset.Dataset), nil
}

func (h *Holder) read(ctx context.Context) (*dataset.Dataset, error) {
	if h.source == nil {
		err := core.NewDatasetUnavailableError("none", nil)
		h.set(nil, dataset.StatusUnavailable, err)
		return nil, err
	}

	start := time.Now()
	ds, err := h.source.ReadDataset(ctx)
	if err == nil && ds.IsEmpty() {
		err = core.NewDatasetUnavailableError(h.source.Name(), nil)
	}
	if err != nil && isCallerAbort(err) {
		// the caller went away; the source itself may be fine
		h.logger.Debug("[Dataset] load of %s abandoned: %v", h.source.Name(), err)
		return nil, err
	}
	if err != nil {
		h.logger.Warn("[Dataset] %s unavailable: %v", h.source.Name(), err)
		h.set(nil, dataset.StatusUnavailable, err)
		return nil, err
	}

	h.logger.Info("[Dataset] loaded %s: %d responses in %s", h.source.Name(), ds.Len(), time.Since(start).Round(time.Millisecond))
	h.set(ds, dataset.StatusReady, nil)
	return ds, nil
}

func isCallerAbort(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (h *Holder) set(ds *dataset.Dataset, status dataset.DatasetStatus, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ds == nil && h.current != nil {
		// keep serving the last good dataset after a failed reload
		h.lastErr = err
		return
	}
	h.current = ds
	h.status = status
	h.lastErr = err
}

// Current returns the loaded dataset without triggering a load
func (h *Holder) Current() *dataset.Dataset {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// SampleRows returns up to n leading rows for provider prompts
func (h *Holder) SampleRows(n int) []dataset.Row {
	return h.Current().Sample(n)
}

// Info reports load status for status endpoints
func (h *Holder) Info() dataset.Info {
	h.mu.RLock()
	defer h.mu.RUnlock()

	info := dataset.Info{Status: h.status}
	if h.source != nil {
		info.Source = h.source.Name()
	}
	if h.lastErr != nil {
		info.Error = h.lastErr.Error()
	}
	if h.current != nil {
		loaded := h.current.LoadedAt
		info.RecordCount = h.current.Len()
		info.FieldCount = len(h.current.Headers)
		info.LoadedAt = &loaded
	}
	return info
}
