package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"moralsim/internal"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultTimeout = 60 * time.Second
)

// ClientConfig configures an OpenAI-compatible chat completions client
type ClientConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	Temperature   float64
	MaxTokens     int
	Timeout       time.Duration
	SystemContext string
	PromptsDir    string
}

// Usage is the token accounting reported by the completions endpoint
type Usage struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"-"`
}

// Response is a typed result plus the raw content it was decoded from
type Response[T any] struct {
	Value   *T
	Content string
	Usage   Usage
}

// StructuredClient provides typed JSON responses from LLM calls
type StructuredClient[T any] struct {
	config        ClientConfig
	httpClient    *http.Client
	PromptManager *PromptManager
	logger        *internal.Logger
}

// ResponseFormat forces structured output from GPT models
type ResponseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model               string          `json:"model"`
	Messages            []chatMessage   `json:"messages"`
	Temperature         float64         `json:"temperature,omitempty"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
	ResponseFormat      *ResponseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// NewStructuredClient creates a new structured client
func NewStructuredClient[T any](config ClientConfig, logger *internal.Logger) *StructuredClient[T] {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	logger.Debug("[StructuredClient] Initializing client with model=%s, temp=%.2f, maxTokens=%d, timeout=%v",
		config.Model, config.Temperature, config.MaxTokens, config.Timeout)

	return &StructuredClient[T]{
		config:        config,
		httpClient:    &http.Client{Timeout: config.Timeout},
		PromptManager: NewPromptManager(config.PromptsDir),
		logger:        logger,
	}
}

// Complete sends one chat completion and decodes the message content into T
func (client *StructuredClient[T]) Complete(ctx context.Context, prompt, systemMessage string) (*Response[T], error) {
	ctx, cancel := context.WithTimeout(ctx, client.config.Timeout)
	defer cancel()

	systemContent := systemMessage
	if systemContent == "" {
		systemContent = client.config.SystemContext
	}
	// JSON mode is rejected unless the word "json" appears in the messages
	if !strings.Contains(strings.ToLower(systemContent+prompt), "json") {
		systemContent += "\n\nRespond with valid JSON output."
	}

	reqBody := chatRequest{
		Model: client.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: strings.TrimSpace(systemContent)},
			{Role: "user", Content: prompt},
		},
		Temperature:         client.config.Temperature,
		MaxCompletionTokens: client.config.MaxTokens,
		ResponseFormat:      &ResponseFormat{Type: "json_object"},
	}

	client.logger.Debug("[StructuredClient] Sending request to %s - promptLength=%d, temp=%.2f",
		client.config.Model, len(prompt), client.config.Temperature)

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.config.BaseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+client.config.APIKey)

	resp, err := client.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("request timeout after %v: %w", client.config.Timeout, err)
		}
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completions API error (status %d): %s", resp.StatusCode, truncate(string(body), 512))
	}

	var envelope chatResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		client.logger.Error("[StructuredClient] Failed to parse response envelope: %v", err)
		return nil, fmt.Errorf("failed to parse completions response: %w", err)
	}
	if len(envelope.Choices) == 0 {
		return nil, fmt.Errorf("no choices in completions response")
	}

	content := cleanJSONContent(envelope.Choices[0].Message.Content)

	var value T
	if err := json.Unmarshal([]byte(content), &value); err != nil {
		client.logger.Warn("[StructuredClient] Content is not valid JSON for the result type: %v", err)
		return nil, fmt.Errorf("failed to parse JSON content into result type: %w", err)
	}

	usage := envelope.Usage
	usage.Model = envelope.Model
	if usage.Model == "" {
		usage.Model = client.config.Model
	}

	client.logger.Debug("[StructuredClient] Parsed response (%d bytes, %d tokens)", len(content), usage.TotalTokens)
	return &Response[T]{Value: &value, Content: content, Usage: usage}, nil
}

// CompleteFromPrompt renders a named prompt template and completes it
func (client *StructuredClient[T]) CompleteFromPrompt(ctx context.Context, promptName string, replacements map[string]string) (*Response[T], string, error) {
	prompt, err := client.PromptManager.RenderPrompt(promptName, replacements)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load/render prompt: %w", err)
	}
	resp, err := client.Complete(ctx, prompt, "")
	return resp, prompt, err
}

// cleanJSONContent strips markdown fences and any chatter around the outermost JSON object
func cleanJSONContent(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	start := strings.IndexAny(content, "{[")
	if start < 0 {
		return content
	}
	closer := "}"
	if content[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(content, closer)
	if end < start {
		return content[start:]
	}
	return content[start : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
