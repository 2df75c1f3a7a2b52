package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"moralsim/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdict struct {
	Answer string `json:"answer"`
	Score  int    `json:"score"`
}

func completionServer(t *testing.T, status int, content string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-test-0001",
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
			"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(url string) *StructuredClient[verdict] {
	return NewStructuredClient[verdict](ClientConfig{
		APIKey:        "test-key",
		BaseURL:       url + "/",
		Model:         "gpt-test",
		Temperature:   0.7,
		MaxTokens:     256,
		Timeout:       5 * time.Second,
		SystemContext: "You grade answers.",
	}, internal.NewNopLogger())
}

func TestStructuredClient_Complete(t *testing.T) {
	var seen chatRequest
	srv := completionServer(t, http.StatusOK, "```json\n{\"answer\":\"A\",\"score\":3}\n```", &seen)

	resp, err := testClient(srv.URL).Complete(context.Background(), "grade this", "")
	require.NoError(t, err)
	assert.Equal(t, verdict{Answer: "A", Score: 3}, *resp.Value)
	assert.Equal(t, 20, resp.Usage.TotalTokens)
	assert.Equal(t, "gpt-test-0001", resp.Usage.Model)

	assert.Equal(t, "gpt-test", seen.Model)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Contains(t, seen.Messages[0].Content, "JSON")
	assert.Equal(t, "grade this", seen.Messages[1].Content)
	require.NotNil(t, seen.ResponseFormat)
	assert.Equal(t, "json_object", seen.ResponseFormat.Type)
	assert.Equal(t, 256, seen.MaxCompletionTokens)
}

func TestStructuredClient_HTTPError(t *testing.T) {
	srv := completionServer(t, http.StatusTooManyRequests, "", nil)

	_, err := testClient(srv.URL).Complete(context.Background(), "grade this", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestStructuredClient_InvalidContent(t *testing.T) {
	srv := completionServer(t, http.StatusOK, "I cannot answer that.", nil)

	_, err := testClient(srv.URL).Complete(context.Background(), "grade this", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse JSON content")
}

func TestCleanJSONContent(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                            `{"a":1}`,
		"```json\n{\"a\":1}\n```":            `{"a":1}`,
		"```\n{\"a\":1}\n```":                `{"a":1}`,
		"Here is the JSON:\n{\"a\":1}\nDone": `{"a":1}`,
		"[1,2]":                              "[1,2]",
		"no json":                            "no json",
	}
	for in, want := range cases {
		assert.Equal(t, want, cleanJSONContent(in), "input %q", in)
	}
}

func TestPromptManager_BuiltinAndOverride(t *testing.T) {
	pm := NewPromptManager("")
	out, err := pm.RenderPrompt("scenario", map[string]string{"TITLE": "The Footbridge", "POSITION": "2", "TOTAL": "7"})
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario 2 of 7: The Footbridge")
	assert.Contains(t, out, `{"context": "..."`)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scenario.txt"), []byte("custom {TITLE}"), 0o644))
	out, err = NewPromptManager(dir).RenderPrompt("scenario", map[string]string{"TITLE": "Loop"})
	require.NoError(t, err)
	assert.Equal(t, "custom Loop", out)

	_, err = pm.LoadPrompt("missing")
	assert.Error(t, err)
}
