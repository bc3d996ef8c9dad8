package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Manager is the registry of live sessions. It is constructed once in main
// and passed to whatever needs it; there is no package-level state.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Controller
	log      zerolog.Logger
}

// NewManager creates an empty session registry.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*Controller),
		log:      log.With().Str("component", "session_manager").Logger(),
	}
}

// Add registers a session.
func (m *Manager) Add(c *Controller) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[c.ID()] = c
}

// Get looks up a session by id.
func (m *Manager) Get(id uuid.UUID) (*Controller, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.sessions[id]
	return c, ok
}

// Remove terminates the session if still running and drops it from the
// registry.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	c, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		c.Terminate()
	}
}

// Len reports the number of registered sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartSweeper periodically drops sessions that have been in a terminal
// state for longer than retain. Running sessions end themselves through the
// countdown, so the sweeper never touches them.
func (m *Manager) StartSweeper(ctx context.Context, interval, retain time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sweep(retain)
			}
		}
	}()
}

func (m *Manager) sweep(retain time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, c := range m.sessions {
		if finished, ok := c.FinishedAt(); ok && time.Since(finished) > retain {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.log.Debug().Int("removed", removed).Msg("Swept finished sessions")
	}
}
