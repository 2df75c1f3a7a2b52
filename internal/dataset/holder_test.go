package dataset

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"moralsim/domain/core"
	"moralsim/domain/dataset"
	"moralsim/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	calls atomic.Int32
	ds    *dataset.Dataset
	err   error
	delay time.Duration
}

func (f *fakeSource) ReadDataset(ctx context.Context) (*dataset.Dataset, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.ds, f.err
}

func (f *fakeSource) Name() string { return "fake.csv" }

func sample() *dataset.Dataset {
	return &dataset.Dataset{
		Source:   "fake.csv",
		Headers:  []string{"id", "response1"},
		Rows:     []dataset.Row{{"id": "1", "response1": "A"}, {"id": "2", "response1": "B"}},
		LoadedAt: time.Now(),
	}
}

func TestHolder_LoadOnce(t *testing.T) {
	src := &fakeSource{ds: sample()}
	h := NewHolder(src, internal.NewNopLogger())

	ds, err := h.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())

	_, err = h.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())

	info := h.Info()
	assert.Equal(t, dataset.StatusReady, info.Status)
	assert.Equal(t, 2, info.RecordCount)
	assert.Equal(t, 2, info.FieldCount)
	assert.Len(t, h.SampleRows(1), 1)
}

func TestHolder_UnavailableUntilReload(t *testing.T) {
	src := &fakeSource{err: core.NewDatasetUnavailableError("fake.csv", errors.New("disk"))}
	h := NewHolder(src, internal.NewNopLogger())

	_, err := h.Load(context.Background())
	assert.ErrorIs(t, err, core.ErrDatasetUnavailable)
	_, err = h.Load(context.Background())
	assert.ErrorIs(t, err, core.ErrDatasetUnavailable)
	assert.Equal(t, int32(1), src.calls.Load(), "no automatic retry")
	assert.Equal(t, dataset.StatusUnavailable, h.Info().Status)
	assert.Nil(t, h.SampleRows(3))

	src.err = nil
	src.ds = sample()
	ds, err := h.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, dataset.StatusReady, h.Info().Status)
}

func TestHolder_EmptyDatasetIsUnavailable(t *testing.T) {
	h := NewHolder(&fakeSource{ds: &dataset.Dataset{}}, internal.NewNopLogger())
	_, err := h.Load(context.Background())
	assert.ErrorIs(t, err, core.ErrDatasetUnavailable)

	h = NewHolder(nil, internal.NewNopLogger())
	_, err = h.Load(context.Background())
	assert.ErrorIs(t, err, core.ErrDatasetUnavailable)
}

func TestHolder_FailedReloadKeepsLastGood(t *testing.T) {
	src := &fakeSource{ds: sample()}
	h := NewHolder(src, internal.NewNopLogger())
	_, err := h.Load(context.Background())
	require.NoError(t, err)

	src.err = errors.New("gone")
	_, err = h.Reload(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 2, h.Current().Len())
	assert.Equal(t, "gone", h.Info().Error)
}

func TestHolder_ConcurrentReloadSharesRead(t *testing.T) {
	src := &fakeSource{ds: sample(), delay: 50 * time.Millisecond}
	h := NewHolder(src, internal.NewNopLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = h.Reload(context.Background())
		}()
	}
	wg.Wait()
	assert.Less(t, src.calls.Load(), int32(8))
}

func TestHolder_CancelledLoadIsNotRemembered(t *testing.T) {
	src := &fakeSource{ds: sample()}
	h := NewHolder(src, internal.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, dataset.StatusNotLoaded, h.Info().Status)
	assert.Empty(t, h.Info().Error)

	ds, err := h.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, dataset.StatusReady, h.Info().Status)
	assert.Equal(t, int32(2), src.calls.Load())
}
