package usage

import (
	"context"
	"errors"
	"testing"

	"moralsim/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	usage *ports.UsageData
	err   error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Rewrite(ctx context.Context, req ports.ScenarioRequest) (*ports.ScenarioText, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ports.ScenarioText{Context: "ctx", Audit: ports.GenerationAudit{Provider: "stub", Usage: s.usage}}, nil
}

func TestTracker_WrapAccumulates(t *testing.T) {
	tracker := NewTracker(nil)
	p := tracker.Wrap(&stubProvider{usage: &ports.UsageData{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15, Model: "m1"}})
	assert.Equal(t, "stub", p.Name())

	for i := 0; i < 3; i++ {
		_, err := p.Rewrite(context.Background(), ports.ScenarioRequest{})
		require.NoError(t, err)
	}

	snap := tracker.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "m1", snap[0].Model)
	assert.Equal(t, 3, snap[0].Calls)
	assert.Equal(t, 45, snap[0].TotalTokens)
	assert.Equal(t, 30, snap[0].PromptTokens)
	assert.Zero(t, snap[0].Failures)
}

func TestTracker_FailuresAndInvalidCounts(t *testing.T) {
	tracker := NewTracker(nil)
	failing := tracker.Wrap(&stubProvider{err: errors.New("boom")})
	_, err := failing.Rewrite(context.Background(), ports.ScenarioRequest{})
	require.Error(t, err)

	tracker.Record("stub", &ports.UsageData{PromptTokens: -1, Model: "m1"}, false)

	snap := tracker.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "", snap[0].Model)
	assert.Equal(t, 2, snap[0].Calls)
	assert.Equal(t, 1, snap[0].Failures)
	assert.Zero(t, snap[0].TotalTokens)
}

func TestTracker_SnapshotOrdered(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.Record("openai", &ports.UsageData{Model: "b"}, false)
	tracker.Record("gemini", &ports.UsageData{Model: "z"}, false)
	tracker.Record("openai", &ports.UsageData{Model: "a"}, false)

	snap := tracker.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "gemini", snap[0].Provider)
	assert.Equal(t, "a", snap[1].Model)
	assert.Equal(t, "b", snap[2].Model)
}
