package analysis

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("analysis session not found")

// SessionStore keeps each user's analysis sessions newest first.
// Append must insert and trim to keep atomically with respect to other
// appends for the same user.
type SessionStore interface {
	Append(ctx context.Context, s *Session, keep int) error
	List(ctx context.Context, userID string, offset, limit int) ([]Session, int, error)
	Get(ctx context.Context, userID string, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

type memoryStore struct {
	mu     sync.RWMutex
	byUser map[string][]Session
}

func NewMemoryStore() SessionStore {
	return &memoryStore{byUser: make(map[string][]Session)}
}

func (m *memoryStore) Append(_ context.Context, s *Session, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.byUser[s.UserID]
	size := len(existing) + 1
	if keep > 0 && size > keep {
		size = keep
	}
	next := make([]Session, 0, size)
	next = append(next, *s)
	next = append(next, existing[:size-1]...)
	m.byUser[s.UserID] = next
	return nil
}

func (m *memoryStore) List(_ context.Context, userID string, offset, limit int) ([]Session, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.byUser[userID]
	total := len(all)
	if offset < 0 || limit <= 0 || offset >= total {
		return []Session{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	out := make([]Session, end-offset)
	copy(out, all[offset:end])
	return out, total, nil
}

func (m *memoryStore) Get(_ context.Context, userID string, id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.byUser[userID] {
		if s.ID == id {
			found := s
			return &found, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (m *memoryStore) Delete(_ context.Context, userID string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := m.byUser[userID]
	for i, s := range sessions {
		if s.ID == id {
			next := make([]Session, 0, len(sessions)-1)
			next = append(next, sessions[:i]...)
			next = append(next, sessions[i+1:]...)
			m.byUser[userID] = next
			return nil
		}
	}
	return ErrSessionNotFound
}
