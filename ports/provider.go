package ports

import (
	"context"

	"moralsim/domain/core"
	"moralsim/domain/dataset"
	"moralsim/domain/pattern"
	"moralsim/domain/scenario"
)

// ScenarioProvider rewrites a rendered catalog scenario into fresh narrative
// text. It never chooses parameters or metadata; those stay with the catalog.
type ScenarioProvider interface {
	Rewrite(ctx context.Context, req ScenarioRequest) (*ScenarioText, error)
	Name() string
}

// ScenarioRequest is everything a provider sees
type ScenarioRequest struct {
	Template    scenario.TemplateID `json:"template"`
	Title       string              `json:"title"`
	Draft       *scenario.Scenario  `json:"draft"`
	Params      scenario.Params     `json:"params"`
	Summary     []pattern.Entry     `json:"summary,omitempty"`
	SampleRows  []dataset.Row       `json:"sample_rows,omitempty"`
	Position    int                 `json:"position"`
	Total       int                 `json:"total"`
	Challenging pattern.Dimension   `json:"challenging,omitempty"`
}

// OptionText is the provider's wording for one option
type OptionText struct {
	Action      string `json:"action"`
	Consequence string `json:"consequence"`
}

// ScenarioText is the provider response schema
type ScenarioText struct {
	Context string     `json:"context"`
	OptionA OptionText `json:"option_a"`
	OptionB OptionText `json:"option_b"`
	Note    string     `json:"note,omitempty"`

	Audit GenerationAudit `json:"-"`
}

// UsageData carries token accounting when the provider reports it
type UsageData struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
	Provider         string `json:"provider"`
}

// GenerationAudit is metadata about a provider call (prompt/response hashes, model)
type GenerationAudit struct {
	Provider     string     `json:"provider"`
	Model        string     `json:"model,omitempty"`
	Temperature  float64    `json:"temperature,omitempty"`
	MaxTokens    int        `json:"max_tokens,omitempty"`
	PromptHash   core.Hash  `json:"prompt_hash,omitempty"`
	ResponseHash core.Hash  `json:"response_hash,omitempty"`
	Usage        *UsageData `json:"usage,omitempty"`
}
