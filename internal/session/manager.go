package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"moralsim/domain/core"
)

// DefaultSessionTTL is how long an untouched session survives
const DefaultSessionTTL = 2 * time.Hour

// Manager keeps live sessions in memory keyed by id
type Manager struct {
	engine *Engine
	ttl    time.Duration

	mu       sync.RWMutex
	sessions map[core.SessionID]*Session
}

// NewManager creates a session manager
func NewManager(engine *Engine, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Manager{
		engine:   engine,
		ttl:      ttl,
		sessions: make(map[core.SessionID]*Session),
	}
}

// Engine returns the shared collaborators
func (m *Manager) Engine() *Engine { return m.engine }

// Create registers a new NotStarted session
func (m *Manager) Create() *Session {
	s := New(core.NewSessionID(), m.engine)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.engine.logger().Debug("[SessionManager] created %s", s.ID)
	return s
}

// Get looks a session up by its external id
func (m *Manager) Get(id string) (*Session, error) {
	sid, err := core.ParseSessionID(id)
	if err != nil {
		return nil, core.ErrSessionNotFound
	}

	m.mu.RLock()
	s, ok := m.sessions[sid]
	m.mu.RUnlock()
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return s, nil
}

// Delete drops a session; unknown ids are ignored
func (m *Manager) Delete(id core.SessionID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// List returns views of all sessions, oldest first
func (m *Manager) List() []View {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	views := make([]View, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, s.View())
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].CreatedAt.Before(views[j].CreatedAt)
	})
	return views
}

// Sweep removes sessions idle for longer than the TTL. Sessions with a
// generation in flight are kept.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		last, busy := s.idleSince()
		if busy || now.Sub(last) <= m.ttl {
			continue
		}
		delete(m.sessions, id)
		removed++
	}
	if removed > 0 {
		m.engine.logger().Info("[SessionManager] expired %d idle sessions", removed)
	}
	return removed
}

// Run sweeps periodically until ctx is cancelled
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.ttl / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}
