package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moralsim/ai"
	"moralsim/domain/core"
	"moralsim/internal"
	"moralsim/ports"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds provider configuration shared by the OpenAI and Gemini adapters
type Config struct {
	Model       string        // e.g., "gpt-4.1-mini" or "gemini-2.5-flash"
	APIKey      string        // provider API key
	BaseURL     string        // Optional override
	Temperature float64       // 0.0-1.0, lower = more deterministic
	MaxTokens   int           // Max tokens in response
	Timeout     time.Duration // Request timeout
	PromptsDir  string        // Optional directory overriding the built-in prompts
}

const systemContext = "You are the narrator of a moral psychology study. You rewrite dilemmas without changing their facts."

// OpenAIProvider rewrites scenarios through an OpenAI-compatible chat completions API
type OpenAIProvider struct {
	config Config
	client *ai.StructuredClient[ports.ScenarioText]
	logger *internal.Logger
}

var _ ports.ScenarioProvider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider backed by the structured JSON client
func NewOpenAIProvider(config Config, logger *internal.Logger) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("openai provider requires an API key")
	}
	if config.Model == "" {
		config.Model = "gpt-4.1-mini"
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	client := ai.NewStructuredClient[ports.ScenarioText](ai.ClientConfig{
		APIKey:        config.APIKey,
		BaseURL:       config.BaseURL,
		Model:         config.Model,
		Temperature:   config.Temperature,
		MaxTokens:     config.MaxTokens,
		Timeout:       config.Timeout,
		SystemContext: systemContext,
		PromptsDir:    config.PromptsDir,
	}, logger)

	return &OpenAIProvider{config: config, client: client, logger: logger}, nil
}

// Name implements ports.ScenarioProvider
func (p *OpenAIProvider) Name() string { return ProviderOpenAI }

// Rewrite implements ports.ScenarioProvider
func (p *OpenAIProvider) Rewrite(ctx context.Context, req ports.ScenarioRequest) (*ports.ScenarioText, error) {
	resp, prompt, err := p.client.CompleteFromPrompt(ctx, ScenarioPrompt, Replacements(req))
	if err != nil {
		return nil, fmt.Errorf("openai rewrite of %s: %w", req.Template, err)
	}

	text := resp.Value
	text.Audit = ports.GenerationAudit{
		Provider:     ProviderOpenAI,
		Model:        resp.Usage.Model,
		Temperature:  p.config.Temperature,
		MaxTokens:    p.config.MaxTokens,
		PromptHash:   core.NewHash([]byte(prompt)),
		ResponseHash: core.NewHash([]byte(resp.Content)),
		Usage: &ports.UsageData{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
			Model:            resp.Usage.Model,
			Provider:         ProviderOpenAI,
		},
	}
	p.logger.Debug("[OpenAIProvider] rewrote %s using %d tokens", req.Template, resp.Usage.TotalTokens)
	return text, nil
}
