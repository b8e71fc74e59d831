// Package session keeps one workflow state per browser session.
//
// Sessions live in memory only and are dropped after an idle TTL. Steps of
// a single session run one at a time; different sessions never share
// state.
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Jiyoung0219/doc2plan-coach/internal/coach"
	"github.com/Jiyoung0219/doc2plan-coach/internal/docai"
)

// Data is the mutable content of a session.
type Data struct {
	Document docai.Document
	State    coach.State
}

// Session is one user's workflow.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	data     Data
	lastSeen atomic.Int64 // unix nanoseconds
	now      func() time.Time
}

// Do runs fn with exclusive access to the session data.
func (s *Session) Do(fn func(d *Data) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	defer s.touch()
	return fn(&s.data)
}

// LastSeen returns the time of the last access.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch() {
	s.lastSeen.Store(s.now().UnixNano())
}

// Manager owns the live sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
	logger   *slog.Logger
}

// NewManager creates an empty Manager. A nil logger uses slog.Default().
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		now:      time.Now,
		logger:   logger,
	}
}

// Create starts a new empty session.
func (m *Manager) Create() *Session {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: m.now(),
		now:       m.now,
	}
	s.touch()

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Debug("session created", "session_id", s.ID)
	return s
}

// Get returns the session with id and marks it as used.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.touch()
	}
	return s, ok
}

// Delete ends a session. It reports whether the session existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		m.logger.Debug("session deleted", "session_id", id)
	}
	return ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than ttl and returns how many were
// dropped.
func (m *Manager) Sweep(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// StartSweeper runs Sweep every interval until ctx is done. Non-positive
// durations leave sessions in place and start nothing.
func (m *Manager) StartSweeper(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 || interval <= 0 {
		m.logger.Warn("session sweeper disabled", "interval", interval, "ttl", ttl)
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		m.logger.Info("session sweeper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(ttl); n > 0 {
					m.logger.Info("expired sessions dropped", "count", n, "live", m.Len())
				}
			case <-ctx.Done():
				m.logger.Info("session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
