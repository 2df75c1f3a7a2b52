package api

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"moralsim/internal"
	"moralsim/internal/session"

	"github.com/gin-gonic/gin"
)

// DefaultKeepAlive is how often an idle SSE stream receives a ping
const DefaultKeepAlive = 30 * time.Second

// SSEHub fans session events out to Server-Sent Events subscribers.
// It implements session.Publisher; Publish never blocks the caller.
type SSEHub struct {
	clients   map[string]map[chan session.Event]bool
	clientsMu sync.RWMutex
	broadcast chan session.Event
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	keepAlive time.Duration
	logger    *internal.Logger
}

var _ session.Publisher = (*SSEHub)(nil)

// NewSSEHub creates a new SSE hub and starts its dispatch loop
func NewSSEHub(logger *internal.Logger) *SSEHub {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	hub := &SSEHub{
		clients:   make(map[string]map[chan session.Event]bool),
		broadcast: make(chan session.Event, 100),
		done:      make(chan struct{}),
		keepAlive: DefaultKeepAlive,
		logger:    logger,
	}

	hub.wg.Add(1)
	go hub.run()
	return hub
}

func (h *SSEHub) run() {
	defer h.wg.Done()
	for {
		select {
		case event := <-h.broadcast:
			h.deliver(event)
		case <-h.done:
			return
		}
	}
}

func (h *SSEHub) deliver(event session.Event) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for clientChan := range h.clients[string(event.SessionID)] {
		select {
		case clientChan <- event:
		default:
			h.logger.Warn("[SSE] Client channel full for session %s, skipping %s", event.SessionID, event.Type)
		}
	}
}

// Publish implements session.Publisher
func (h *SSEHub) Publish(event session.Event) {
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("[SSE] Broadcast channel full, dropping event: %s", event.Type)
	}
}

// Subscribe registers a listener for one session. The returned cancel func
// unregisters it and closes the channel; it is safe to call more than once.
func (h *SSEHub) Subscribe(sessionID string) (<-chan session.Event, func()) {
	ch := make(chan session.Event, 10)

	h.clientsMu.Lock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = make(map[chan session.Event]bool)
	}
	h.clients[sessionID][ch] = true
	h.logger.Debug("[SSE] Client registered for session %s (total clients: %d)", sessionID, len(h.clients[sessionID]))
	h.clientsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.unsubscribe(sessionID, ch) })
	}
}

func (h *SSEHub) unsubscribe(sessionID string, ch chan session.Event) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	clients, exists := h.clients[sessionID]
	if !exists || !clients[ch] {
		return
	}
	delete(clients, ch)
	close(ch)
	if len(clients) == 0 {
		delete(h.clients, sessionID)
	}
}

// Close stops the dispatch loop and closes every subscriber channel
func (h *SSEHub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		h.clientsMu.Lock()
		for id, clients := range h.clients {
			for ch := range clients {
				close(ch)
			}
			delete(h.clients, id)
		}
		h.clientsMu.Unlock()
	})
}

// HandleSSE streams the events of the session named by the :id path param
func (h *SSEHub) HandleSSE(c *gin.Context) {
	sessionID := c.Param("id")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	events, cancel := h.Subscribe(sessionID)
	defer cancel()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			eventJSON, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("[SSE] Failed to marshal event: %v", err)
				return true
			}
			c.SSEvent(string(event.Type), string(eventJSON))
			return true

		case t := <-ticker.C:
			c.SSEvent("ping", `{"status":"alive","timestamp":"`+t.UTC().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}

// ActiveSessions returns sessions with at least one subscriber
func (h *SSEHub) ActiveSessions() []string {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	sessions := make([]string, 0, len(h.clients))
	for sessionID := range h.clients {
		sessions = append(sessions, sessionID)
	}
	return sessions
}

// ClientCount returns the number of subscribers for a session
func (h *SSEHub) ClientCount(sessionID string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[sessionID])
}
