package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ngcgiang/auction-live-client/internal/auction"
)

// Manager tracks one session per watched product. Sessions share nothing: a
// product's transport, reconciler, and flow belong to its session alone.
type Manager struct {
	opts Options

	mu       sync.RWMutex
	sessions map[string]*Session // key: productID
}

// NewManager creates a manager whose sessions share the given base options.
func NewManager(opts Options) *Manager {
	return &Manager{
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Watch starts a session for the product, or returns the one already
// running. A per-product OnState callback overrides the base option.
func (m *Manager) Watch(ctx context.Context, productID string, onState func(auction.ViewState)) (*Session, error) {
	m.mu.RLock()
	existing, ok := m.sessions[productID]
	m.mu.RUnlock()
	if ok {
		return existing, nil
	}

	opts := m.opts
	if onState != nil {
		opts.OnState = onState
	}

	s, err := New(productID, opts)
	if err != nil {
		return nil, err
	}
	if err := s.Start(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if racing, ok := m.sessions[productID]; ok {
		m.mu.Unlock()
		s.Stop()
		return racing, nil
	}
	m.sessions[productID] = s
	m.mu.Unlock()

	return s, nil
}

// Unwatch stops and removes the product's session, if any.
func (m *Manager) Unwatch(productID string) {
	m.mu.Lock()
	s, ok := m.sessions[productID]
	delete(m.sessions, productID)
	m.mu.Unlock()

	if ok {
		if err := s.Stop(); err != nil {
			log.Warn().Str("product_id", productID).Err(err).Msg("session stop failed")
		}
	}
}

// Get returns the session watching the product, if any.
func (m *Manager) Get(productID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[productID]
	return s, ok
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StopAll stops every session.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		if err := s.Stop(); err != nil {
			log.Warn().Str("product_id", id).Err(err).Msg("session stop failed")
		}
		delete(m.sessions, id)
	}
}
