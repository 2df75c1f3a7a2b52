package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"moralsim/ai"
	"moralsim/domain/core"
	"moralsim/internal"
	"moralsim/ports"

	"google.golang.org/genai"
)

// contentGenerator is the slice of *genai.Models the provider calls
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiProvider rewrites scenarios with the Google GenAI SDK in JSON mode
type GeminiProvider struct {
	config  Config
	models  contentGenerator
	prompts *ai.PromptManager
	logger  *internal.Logger
}

var _ ports.ScenarioProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini API client
func NewGeminiProvider(ctx context.Context, config Config, logger *internal.Logger) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("gemini provider requires an API key")
	}
	cc := &genai.ClientConfig{APIKey: config.APIKey, Backend: genai.BackendGeminiAPI}
	if config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGeminiProvider(config, client.Models, logger), nil
}

func newGeminiProvider(config Config, models contentGenerator, logger *internal.Logger) *GeminiProvider {
	if config.Model == "" {
		config.Model = "gemini-2.5-flash"
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &GeminiProvider{
		config:  config,
		models:  models,
		prompts: ai.NewPromptManager(config.PromptsDir),
		logger:  logger,
	}
}

// Name implements ports.ScenarioProvider
func (p *GeminiProvider) Name() string { return ProviderGemini }

// Rewrite implements ports.ScenarioProvider
func (p *GeminiProvider) Rewrite(ctx context.Context, req ports.ScenarioRequest) (*ports.ScenarioText, error) {
	prompt, err := p.prompts.RenderPrompt(ScenarioPrompt, Replacements(req))
	if err != nil {
		return nil, err
	}

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	gc := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(systemContext, genai.RoleUser),
		Temperature:       genai.Ptr(float32(p.config.Temperature)),
	}
	if p.config.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(p.config.MaxTokens)
	}

	resp, err := p.models.GenerateContent(ctx, p.config.Model, genai.Text(prompt), gc)
	if err != nil {
		return nil, fmt.Errorf("gemini rewrite of %s: %w", req.Template, err)
	}

	content := resp.Text()
	if content == "" {
		return nil, fmt.Errorf("gemini rewrite of %s: empty response", req.Template)
	}

	var text ports.ScenarioText
	if err := json.Unmarshal([]byte(content), &text); err != nil {
		return nil, fmt.Errorf("gemini rewrite of %s: invalid JSON: %w", req.Template, err)
	}

	text.Audit = ports.GenerationAudit{
		Provider:     ProviderGemini,
		Model:        p.config.Model,
		Temperature:  p.config.Temperature,
		MaxTokens:    p.config.MaxTokens,
		PromptHash:   core.NewHash([]byte(prompt)),
		ResponseHash: core.NewHash([]byte(content)),
	}
	if u := resp.UsageMetadata; u != nil {
		text.Audit.Usage = &ports.UsageData{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
			Model:            p.config.Model,
			Provider:         ProviderGemini,
		}
	}
	p.logger.Debug("[GeminiProvider] rewrote %s", req.Template)
	return &text, nil
}
