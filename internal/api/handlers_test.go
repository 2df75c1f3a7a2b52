package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"moralsim/domain/core"
	"moralsim/domain/dataset"
	"moralsim/domain/result"
	"moralsim/internal"
	holder "moralsim/internal/dataset"
	apperrors "moralsim/internal/errors"
	"moralsim/internal/generator"
	"moralsim/internal/selector"
	"moralsim/internal/session"
	"moralsim/internal/similarity"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	ds  *dataset.Dataset
	err error
}

func (f *fakeSource) ReadDataset(ctx context.Context) (*dataset.Dataset, error) { return f.ds, f.err }
func (f *fakeSource) Name() string                                              { return "responses.csv" }

func responses() *dataset.Dataset {
	return &dataset.Dataset{
		Source:  "responses.csv",
		Headers: []string{"id", "gender", "age", "response1", "response2", "response3"},
		Rows: []dataset.Row{
			{"id": "1", "gender": "F", "age": "30", "response1": "A", "response2": "A", "response3": "B"},
			{"id": "2", "gender": "M", "age": "41", "response1": "B", "response2": "B", "response3": "B"},
			{"id": "3", "gender": "F", "age": "22", "response1": "1", "response2": "0", "response3": "1"},
		},
		LoadedAt: time.Now(),
	}
}

type fixture struct {
	router  *gin.Engine
	manager *session.Manager
	hub     *SSEHub
	source  *fakeSource
}

func newFixture(t *testing.T, total int) *fixture {
	t.Helper()
	logger := internal.NewNopLogger()
	src := &fakeSource{ds: responses()}
	h := holder.NewHolder(src, logger)
	hub := NewSSEHub(logger)
	t.Cleanup(hub.Close)

	engine := &session.Engine{
		Selector:   selector.New(total),
		Generator:  generator.New(generator.NewRand(11), generator.WithLogger(logger)),
		Similarity: similarity.New(similarity.WithLogger(logger)),
		Dataset:    h,
		Publisher:  hub,
		Logger:     logger,
		TopK:       5,
	}
	manager := session.NewManager(engine, time.Hour)
	handler := NewHandler(manager, h, nil, hub, logger)
	return &fixture{router: NewRouter(handler, gin.TestMode), manager: manager, hub: hub, source: src}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type choiceResponse struct {
	Outcome session.Outcome `json:"outcome"`
	Session session.View    `json:"session"`
}

func TestAPI_FullSession(t *testing.T) {
	f := newFixture(t, 3)

	w := f.do(t, http.MethodPost, "/api/sessions?start=true", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	view := decode[session.View](t, w)
	require.NotNil(t, view.Current)
	assert.Equal(t, selector.StateInProgress, view.State)
	assert.False(t, view.Adaptive)
	id := string(view.ID)

	for i, c := range []string{"A", "A", "B"} {
		w = f.do(t, http.MethodPost, "/api/sessions/"+id+"/choices", `{"choice":"`+c+`"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode[choiceResponse](t, w)
		assert.Equal(t, i+1, body.Session.Answered)
		assert.Equal(t, i == 2, body.Outcome.Complete)
	}

	w = f.do(t, http.MethodGet, "/api/sessions/"+id+"/report", "")
	require.Equal(t, http.StatusOK, w.Code)
	rep := decode[result.Report](t, w)
	assert.True(t, rep.Complete)
	assert.Equal(t, "AAB", rep.Vector)
	require.NotEmpty(t, rep.Similar)
	assert.Equal(t, "1", rep.Similar[0].ID)
	assert.Equal(t, 100.0, rep.Similar[0].Similarity)

	w = f.do(t, http.MethodGet, "/api/sessions/"+id+"/report.html", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<h")

	// a finished session accepts no more answers
	w = f.do(t, http.MethodPost, "/api/sessions/"+id+"/choices", `{"choice":"A"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.CodeInvalidTransition, decode[ErrorResponse](t, w).Code)
}

func TestAPI_Errors(t *testing.T) {
	f := newFixture(t, 7)

	w := f.do(t, http.MethodGet, "/api/sessions/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/api/sessions/"+string(core.NewSessionID()), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/api/sessions", "")
	id := string(decode[session.View](t, w).ID)

	// answering before start is an invalid transition
	w = f.do(t, http.MethodPost, "/api/sessions/"+id+"/choices", `{"choice":"A"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/api/sessions/"+id+"/start", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodPost, "/api/sessions/"+id+"/start", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/api/sessions/"+id+"/choices", `{"choice":"C"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.CodeInvalidInput, decode[ErrorResponse](t, w).Code)

	w = f.do(t, http.MethodPost, "/api/sessions/"+id+"/choices", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_ResetAndDelete(t *testing.T) {
	f := newFixture(t, 7)

	w := f.do(t, http.MethodPost, "/api/sessions?start=true", "")
	id := string(decode[session.View](t, w).ID)
	f.do(t, http.MethodPost, "/api/sessions/"+id+"/choices", `{"choice":"B"}`)

	w = f.do(t, http.MethodPost, "/api/sessions/"+id+"/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[session.View](t, w)
	assert.Equal(t, 0, view.Answered)
	assert.Equal(t, selector.StateNotStarted, view.State)

	w = f.do(t, http.MethodGet, "/api/sessions", "")
	assert.Contains(t, w.Body.String(), id)

	w = f.do(t, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, f.manager.Len())
}

func TestAPI_DatasetAndSimilar(t *testing.T) {
	f := newFixture(t, 7)

	w := f.do(t, http.MethodGet, "/api/dataset", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dataset.StatusNotLoaded, decode[dataset.Info](t, w).Status)

	w = f.do(t, http.MethodPost, "/api/similar", `{"vector":"BBB"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Similar []result.Match `json:"similar"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	// every row shares at least one answer with BBB
	require.Len(t, body.Similar, 3)
	assert.Equal(t, "2", body.Similar[0].ID)
	assert.Equal(t, 100.0, body.Similar[0].Similarity)

	w = f.do(t, http.MethodPost, "/api/similar", `{"vector":"AXB"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/dataset/reload", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decode[dataset.Info](t, w).RecordCount)

	f.source.err = core.NewDatasetUnavailableError("responses.csv", errors.New("disk gone"))
	w = f.do(t, http.MethodPost, "/api/dataset/reload", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, apperrors.CodeDatasetUnavailable, decode[ErrorResponse](t, w).Code)
}

func TestAPI_TemplatesAndReports(t *testing.T) {
	f := newFixture(t, 7)

	w := f.do(t, http.MethodGet, "/api/templates", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Templates []TemplateView `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Templates, 7)

	w = f.do(t, http.MethodGet, "/api/reports", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/reports/"+string(core.NewSessionID()), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_EventStream(t *testing.T) {
	f := newFixture(t, 7)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	w := f.do(t, http.MethodPost, "/api/sessions", "")
	id := string(decode[session.View](t, w).ID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/sessions/"+id+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return f.hub.ClientCount(id) == 1 }, 2*time.Second, 10*time.Millisecond)

	w = f.do(t, http.MethodPost, "/api/sessions/"+id+"/start", "")
	require.Equal(t, http.StatusOK, w.Code)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	var eventLine string
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "event:") {
			eventLine = scanner.Text()
			break
		}
	}
	assert.Equal(t, "event:scenario_presented", eventLine)
}
