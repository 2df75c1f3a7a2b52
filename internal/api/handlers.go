package api

import (
	"net/http"
	"strconv"
	"time"

	"moralsim/domain/choice"
	"moralsim/domain/core"
	"moralsim/domain/pattern"
	"moralsim/domain/result"
	"moralsim/domain/scenario"
	"moralsim/internal"
	"moralsim/internal/dataset"
	"moralsim/internal/errors"
	"moralsim/internal/report"
	"moralsim/internal/session"
	"moralsim/ports"

	"github.com/gin-gonic/gin"
)

// Handler serves the session, dataset and catalog JSON API
type Handler struct {
	sessions *session.Manager
	dataset  *dataset.Holder
	results  ports.ResultRepository
	hub      *SSEHub
	logger   *internal.Logger
}

// NewHandler creates a handler. results may be nil when persistence is disabled.
func NewHandler(sessions *session.Manager, holder *dataset.Holder, results ports.ResultRepository, hub *SSEHub, logger *internal.Logger) *Handler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Handler{sessions: sessions, dataset: holder, results: results, hub: hub, logger: logger}
}

// Register mounts the API under /api
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")

	api.GET("/sessions", h.listSessions)
	api.POST("/sessions", h.createSession)
	api.GET("/sessions/:id", h.getSession)
	api.DELETE("/sessions/:id", h.deleteSession)
	api.POST("/sessions/:id/start", h.startSession)
	api.POST("/sessions/:id/choices", h.choose)
	api.POST("/sessions/:id/reset", h.resetSession)
	api.GET("/sessions/:id/report", h.sessionReport)
	api.GET("/sessions/:id/report.html", h.sessionReportHTML)
	if h.hub != nil {
		api.GET("/sessions/:id/events", h.hub.HandleSSE)
	}

	api.GET("/reports", h.listReports)
	api.GET("/reports/:id", h.storedReport)

	api.GET("/dataset", h.datasetInfo)
	api.POST("/dataset/reload", h.reloadDataset)
	api.POST("/similar", h.similar)

	api.GET("/templates", h.templates)
}

// NewRouter builds the gin engine serving the API
func NewRouter(h *Handler, mode string) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))
	h.Register(router)
	return router
}

func requestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("[API] %s %s %d %v", c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

func (h *Handler) lookup(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.sessions.List()})
}

// createSession creates a session; ?start=true also presents the first scenario
func (h *Handler) createSession(c *gin.Context) {
	s := h.sessions.Create()
	if c.Query("start") == "true" {
		if _, err := s.Start(c.Request.Context()); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusCreated, s.View())
}

func (h *Handler) getSession(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.View())
}

func (h *Handler) deleteSession(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	h.sessions.Delete(s.ID)
	c.Status(http.StatusNoContent)
}

func (h *Handler) startSession(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	if _, err := s.Start(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// ChoiceRequest is the body of POST /api/sessions/:id/choices
type ChoiceRequest struct {
	Choice string `json:"choice" binding:"required"`
}

func (h *Handler) choose(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var req ChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidInput("body must be {\"choice\":\"A\"} or {\"choice\":\"B\"}"))
		return
	}
	label, err := scenario.ParseLabel(req.Choice)
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := s.Choose(c.Request.Context(), label)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcome": out, "session": s.View()})
}

func (h *Handler) resetSession(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	s.Reset()
	c.JSON(http.StatusOK, s.View())
}

func (h *Handler) sessionReport(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	rep, err := s.Report(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *Handler) sessionReportHTML(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	rep, err := s.Report(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", report.HTML(rep))
}

func (h *Handler) listReports(c *gin.Context) {
	if h.results == nil {
		c.JSON(http.StatusOK, gin.H{"reports": []*result.Report{}})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	reports, err := h.results.ListReports(c.Request.Context(), limit)
	if err != nil {
		respondError(c, errors.Wrap(err, "failed to list reports"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (h *Handler) storedReport(c *gin.Context) {
	if h.results == nil {
		respondError(c, errors.NotFound("report"))
		return
	}
	id, err := core.ParseSessionID(c.Param("id"))
	if err != nil {
		respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	rep, err := h.results.GetReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *Handler) datasetInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.dataset.Info())
}

func (h *Handler) reloadDataset(c *gin.Context) {
	if _, err := h.dataset.Reload(c.Request.Context()); err != nil {
		h.logger.Warn("[API] dataset reload failed: %v", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.dataset.Info())
}

// SimilarRequest scores an arbitrary answer string, e.g. {"vector":"ABBA"}
type SimilarRequest struct {
	Vector string `json:"vector" binding:"required"`
	TopK   int    `json:"top_k"`
}

func (h *Handler) similar(c *gin.Context) {
	var req SimilarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidInput("body must be {\"vector\":\"ABBA\"}"))
		return
	}
	vector, err := choice.ParseVector(req.Vector)
	if err != nil {
		respondError(c, err)
		return
	}

	engine := h.sessions.Engine()
	k := req.TopK
	if k <= 0 {
		k = engine.TopK
	}

	matches := []result.Match{}
	ds, err := h.dataset.Load(c.Request.Context())
	if err == nil {
		matches, err = engine.Similarity.SimilarVector(c.Request.Context(), vector, ds, k)
		if err != nil {
			respondError(c, err)
			return
		}
	} else {
		h.logger.Warn("[API] similarity without dataset: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{
		"vector":       vector,
		"similar":      matches,
		"distribution": report.Distribution(matches),
	})
}

// TemplateView is the public description of a catalog template
type TemplateView struct {
	ID         scenario.TemplateID  `json:"id"`
	Title      string               `json:"title"`
	Probes     []scenario.Probe     `json:"probes"`
	Challenges pattern.Dimension    `json:"challenges,omitempty"`
	Params     []scenario.ParamSpec `json:"params"`
}

func (h *Handler) templates(c *gin.Context) {
	catalog := scenario.Catalog()
	out := make([]TemplateView, len(catalog))
	for i, t := range catalog {
		out[i] = TemplateView{ID: t.ID, Title: t.Title, Probes: t.Probes, Challenges: t.Challenges, Params: t.Params}
	}
	c.JSON(http.StatusOK, gin.H{"templates": out})
}
