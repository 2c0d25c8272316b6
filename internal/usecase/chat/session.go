package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is one conversation turn.
type Message struct {
	Role    string // "user" / "assistant"
	Content string
	At      time.Time
}

// Session holds a bounded conversation history.
type Session struct {
	ID        string
	Messages  []Message
	UpdatedAt time.Time
}

// SessionStore keeps chat sessions alive between requests.
type SessionStore interface {
	Get(id string) (*Session, bool)
	Create() *Session
	Delete(id string)
}

// MemoryStore is an in-process SessionStore with TTL-based expiry. Expired
// sessions are swept lazily on access.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a session store whose sessions expire after ttl
// of inactivity.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns a live session by ID.
func (m *MemoryStore) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()

	s, ok := m.sessions[id]
	return s, ok
}

// Create registers a new empty session with a generated ID.
func (m *MemoryStore) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()

	s := &Session{ID: uuid.NewString(), UpdatedAt: m.now()}
	m.sessions[s.ID] = s
	return s
}

// Delete removes a session.
func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *MemoryStore) sweepLocked() {
	cutoff := m.now().Add(-m.ttl)
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}
