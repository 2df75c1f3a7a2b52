package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"moralsim/domain/dataset"
	"moralsim/domain/pattern"
	"moralsim/domain/scenario"
	"moralsim/internal"
	"moralsim/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

const rewritten = `{"context":"A runaway tram races toward 5 hikers.","option_a":{"action":"Throw the switch","consequence":"1 hiker dies"},"option_b":{"action":"Do nothing","consequence":"5 hikers die"},"note":"probes quantity"}`

func classicRequest(t *testing.T) ports.ScenarioRequest {
	t.Helper()
	tpl, err := scenario.Lookup(scenario.TemplateClassic)
	require.NoError(t, err)

	p := scenario.NewParams()
	p.SetCount("main_count", 5)
	p.SetCount("side_count", 1)
	p.SetLabel("main_age", "adults (18-64)")
	p.SetLabel("side_age", "adults (18-64)")
	p.SetLabel("side_relation", "strangers")
	draft := tpl.Build(p)

	return ports.ScenarioRequest{
		Template:    tpl.ID,
		Title:       tpl.Title,
		Draft:       draft,
		Params:      p,
		Summary:     []pattern.Entry{{Dimension: pattern.PrefersMore, Label: pattern.PrefersMore.Label(), Count: 2, Percent: 100}},
		SampleRows:  []dataset.Row{{"response1": "A", "gender": "F"}},
		Position:    2,
		Total:       7,
		Challenging: pattern.PrefersMore,
	}
}

func TestReplacements(t *testing.T) {
	req := classicRequest(t)
	r := Replacements(req)

	assert.Equal(t, "3", r["POSITION"])
	assert.Equal(t, "7", r["TOTAL"])
	assert.Equal(t, req.Draft.Context, r["CONTEXT"])
	assert.Equal(t, req.Draft.OptionB.Consequence, r["OPTION_B_CONSEQUENCE"])
	assert.Contains(t, r["SUMMARY"], "2 of 2 answers (100%)")
	assert.Equal(t, "- gender=F, response1=A", r["SAMPLE_ROWS"])
	assert.Contains(t, r["CHALLENGE"], pattern.PrefersMore.Label())

	empty := Replacements(ports.ScenarioRequest{Template: scenario.TemplateLoop})
	assert.Equal(t, "(no answers yet)", empty["SUMMARY"])
	assert.Equal(t, "(none available)", empty["SAMPLE_ROWS"])
	assert.Empty(t, empty["CHALLENGE"])
}

func TestOpenAIProvider_Rewrite(t *testing.T) {
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		prompt = body.Messages[len(body.Messages)-1].Content
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   "gpt-4.1-mini-2025",
			"choices": []map[string]any{{"message": map[string]string{"content": rewritten}}},
			"usage":   map[string]int{"prompt_tokens": 100, "completion_tokens": 40, "total_tokens": 140},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(Config{APIKey: "k", BaseURL: srv.URL, Timeout: 5 * time.Second, Temperature: 0.8}, internal.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, p.Name())

	req := classicRequest(t)
	text, err := p.Rewrite(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "A runaway tram races toward 5 hikers.", text.Context)
	assert.Equal(t, "1 hiker dies", text.OptionA.Consequence)
	assert.Equal(t, "probes quantity", text.Note)
	assert.Equal(t, ProviderOpenAI, text.Audit.Provider)
	assert.Equal(t, "gpt-4.1-mini-2025", text.Audit.Model)
	assert.False(t, text.Audit.PromptHash.IsEmpty())
	require.NotNil(t, text.Audit.Usage)
	assert.Equal(t, 140, text.Audit.Usage.TotalTokens)

	assert.Contains(t, prompt, req.Draft.Context)
	assert.Contains(t, prompt, "Scenario 3 of 7")
}

func TestOpenAIProvider_RequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(Config{}, nil)
	assert.Error(t, err)
}

type fakeModels struct {
	content string
	err     error
	model   string
	config  *genai.GenerateContentConfig
	prompt  string
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: f.content}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount: 90, CandidatesTokenCount: 30, TotalTokenCount: 120,
		},
	}, nil
}

func TestGeminiProvider_Rewrite(t *testing.T) {
	fake := &fakeModels{content: rewritten}
	p := newGeminiProvider(Config{MaxTokens: 512}, fake, internal.NewNopLogger())
	assert.Equal(t, ProviderGemini, p.Name())

	req := classicRequest(t)
	text, err := p.Rewrite(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Do nothing", text.OptionB.Action)
	assert.Equal(t, "gemini-2.5-flash", fake.model)
	assert.Equal(t, "application/json", fake.config.ResponseMIMEType)
	assert.Equal(t, int32(512), fake.config.MaxOutputTokens)
	assert.True(t, strings.Contains(fake.prompt, req.Draft.Context))
	require.NotNil(t, text.Audit.Usage)
	assert.Equal(t, 120, text.Audit.Usage.TotalTokens)
}

func TestGeminiProvider_Failures(t *testing.T) {
	req := classicRequest(t)

	_, err := newGeminiProvider(Config{}, &fakeModels{err: errors.New("quota exceeded")}, internal.NewNopLogger()).Rewrite(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	_, err = newGeminiProvider(Config{}, &fakeModels{content: "not json"}, internal.NewNopLogger()).Rewrite(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")

	_, err = NewGeminiProvider(context.Background(), Config{}, nil)
	assert.Error(t, err)
}
