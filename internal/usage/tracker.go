package usage

import (
	"context"
	"sort"
	"sync"
	"time"

	"moralsim/internal"
	"moralsim/ports"
)

// Totals is the accumulated token usage for one provider/model pair
type Totals struct {
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	Calls            int       `json:"calls"`
	Failures         int       `json:"failures"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	LastUsed         time.Time `json:"last_used"`
}

// Tracker accumulates provider usage in memory for the lifetime of the process
type Tracker struct {
	mu     sync.Mutex
	totals map[string]*Totals
	logger *internal.Logger
}

// NewTracker creates an empty tracker
func NewTracker(logger *internal.Logger) *Tracker {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Tracker{totals: make(map[string]*Totals), logger: logger}
}

// Record adds one call's usage. Negative token counts are dropped rather
// than failing the caller.
func (t *Tracker) Record(provider string, data *ports.UsageData, failed bool) {
	if data != nil && (data.PromptTokens < 0 || data.CompletionTokens < 0 || data.TotalTokens < 0) {
		t.logger.Warn("[Usage] invalid token counts from %s: %+v", provider, *data)
		data = nil
	}

	model := ""
	if data != nil {
		model = data.Model
	}
	key := provider + "/" + model

	t.mu.Lock()
	defer t.mu.Unlock()

	tot, ok := t.totals[key]
	if !ok {
		tot = &Totals{Provider: provider, Model: model}
		t.totals[key] = tot
	}
	tot.Calls++
	tot.LastUsed = time.Now()
	if failed {
		tot.Failures++
		return
	}
	if data != nil {
		tot.PromptTokens += data.PromptTokens
		tot.CompletionTokens += data.CompletionTokens
		tot.TotalTokens += data.TotalTokens
	}
}

// Snapshot returns a copy of every bucket ordered by provider then model
func (t *Tracker) Snapshot() []Totals {
	t.mu.Lock()
	out := make([]Totals, 0, len(t.totals))
	for _, tot := range t.totals {
		out = append(out, *tot)
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Model < out[j].Model
	})
	return out
}

// Wrap decorates a provider so every Rewrite is recorded
func (t *Tracker) Wrap(p ports.ScenarioProvider) ports.ScenarioProvider {
	return &trackedProvider{inner: p, tracker: t}
}

type trackedProvider struct {
	inner   ports.ScenarioProvider
	tracker *Tracker
}

func (p *trackedProvider) Name() string { return p.inner.Name() }

func (p *trackedProvider) Rewrite(ctx context.Context, req ports.ScenarioRequest) (*ports.ScenarioText, error) {
	text, err := p.inner.Rewrite(ctx, req)
	if err != nil {
		p.tracker.Record(p.inner.Name(), nil, true)
		return nil, err
	}
	p.tracker.Record(p.inner.Name(), text.Audit.Usage, false)
	return text, nil
}
