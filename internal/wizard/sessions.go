package wizard

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SessionManager holds one mounted Wizard per campaign, restoring lazily on
// first access.
type SessionManager struct {
	cp   *Checkpointer
	opts Options

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	wizard *Wizard

	mu       sync.Mutex
	accessed time.Time
}

func (s *session) touch() {
	s.mu.Lock()
	s.accessed = time.Now()
	s.mu.Unlock()
}

func (s *session) lastAccessed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessed
}

// NewSessionManager creates an empty manager.
func NewSessionManager(cp *Checkpointer, opts Options) *SessionManager {
	return &SessionManager{
		cp:       cp,
		opts:     opts,
		sessions: make(map[string]*session),
	}
}

// Get returns the wizard for campaignID, mounting it if necessary.
// The caller is responsible for checking the campaign exists.
func (m *SessionManager) Get(ctx context.Context, campaignID string) (*Wizard, error) {
	// Fast path: already mounted
	m.mu.RLock()
	if s, ok := m.sessions[campaignID]; ok {
		m.mu.RUnlock()
		s.touch()
		return s.wizard, nil
	}
	m.mu.RUnlock()

	// Slow path: mount
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if s, ok := m.sessions[campaignID]; ok {
		s.touch()
		return s.wizard, nil
	}

	w, err := Mount(ctx, campaignID, m.cp, m.opts)
	if err != nil {
		return nil, err
	}
	s := &session{wizard: w}
	s.touch()
	m.sessions[campaignID] = s
	return w, nil
}

// Drop forgets the session for campaignID. The next Get remounts it.
func (m *SessionManager) Drop(campaignID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, campaignID)
}

// EvictIdle drops sessions not accessed within maxIdle and returns how many
// were dropped. Sessions with unsaved edits get a draft save first; one whose
// save fails stays mounted until a later sweep.
func (m *SessionManager) EvictIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.RLock()
	idle := make(map[string]*session)
	for id, s := range m.sessions {
		if s.lastAccessed().Before(cutoff) {
			idle[id] = s
		}
	}
	m.mu.RUnlock()

	for id, s := range idle {
		if !s.wizard.Unsaved() {
			continue
		}
		if err := s.wizard.SaveDraft(ctx); err != nil {
			slog.Warn("idle wizard session kept mounted",
				"component", "wizard",
				"campaign_id", id,
				"error", err,
			)
			delete(idle, id)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, s := range idle {
		// Skip sessions that changed while saving.
		if m.sessions[id] != s || !s.lastAccessed().Before(cutoff) || s.wizard.Unsaved() {
			continue
		}
		delete(m.sessions, id)
		evicted++
	}
	if evicted > 0 {
		slog.Info("idle wizard sessions evicted", "component", "wizard", "evicted", evicted, "remaining", len(m.sessions))
	}
	return evicted
}

// Len returns the number of mounted sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
