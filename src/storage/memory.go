package storage

import (
	"context"
	"sync"
	"time"

	"forex-signal-bot/src/models"
)

// MemorySessionStore keeps sessions in process; they are lost on restart.
type MemorySessionStore struct {
	TTL time.Duration
	Now func() time.Time

	mu       sync.RWMutex
	sessions map[int64]models.MChatSession
}

// -----------------------------------------------------------------------------

func NewMemorySessionStore(cfg models.MStorageConfig) *MemorySessionStore {
	return &MemorySessionStore{
		TTL:      sessionTTL(cfg),
		Now:      time.Now,
		sessions: make(map[int64]models.MChatSession),
	}
}

func (m *MemorySessionStore) Initialize() error { return nil }

func (m *MemorySessionStore) Close() error { return nil }

// -----------------------------------------------------------------------------

func (m *MemorySessionStore) SaveSession(ctx context.Context, session models.MChatSession) error {
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = m.Now()
	}
	m.mu.Lock()
	m.sessions[session.ChatID] = session
	m.mu.Unlock()
	return nil
}

// -----------------------------------------------------------------------------

func (m *MemorySessionStore) GetSession(ctx context.Context, chatID int64) (*models.MChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[chatID]
	if !ok {
		return nil, nil
	}
	if isExpired(&s, m.TTL, m.Now()) {
		delete(m.sessions, chatID)
		return nil, nil
	}
	return &s, nil
}

// -----------------------------------------------------------------------------

func (m *MemorySessionStore) DeleteSession(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	delete(m.sessions, chatID)
	m.mu.Unlock()
	return nil
}
