package api

import (
	"encoding/json"
	"net/http"
	"time"

	"moralsim/domain/dataset"
	"moralsim/internal/session"
	"moralsim/internal/usage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// OpsConfig controls the operational listener
type OpsConfig struct {
	Profiling bool
	Usage     *usage.Tracker
}

type datasetInfo interface {
	Info() dataset.Info
}

// NewOpsRouter serves liveness, readiness and (optionally) pprof on a
// separate listener from the public API
func NewOpsRouter(config OpsConfig, sessions *session.Manager, ds datasetInfo, hub *SSEHub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	started := time.Now()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"uptime": time.Since(started).Round(time.Second).String(),
		})
	})

	// The engine runs without a dataset (similarity degrades to empty), so
	// readiness reports dataset status without failing on it.
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]interface{}{
			"status":   "ready",
			"sessions": sessions.Len(),
			"dataset":  ds.Info(),
		}
		if hub != nil {
			body["streams"] = len(hub.ActiveSessions())
		}
		writeJSON(w, http.StatusOK, body)
	})

	if config.Usage != nil {
		r.Get("/usage", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]interface{}{"providers": config.Usage.Snapshot()})
		})
	}

	if config.Profiling {
		r.Mount("/debug", middleware.Profiler())
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
