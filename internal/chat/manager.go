package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultMaxSessions = 1000
	defaultSessionTTL  = 2 * time.Hour
)

// Manager keeps one Session per browser. Idle sessions expire and the least
// recently used one is evicted once the store is full.
type Manager struct {
	mu       sync.Mutex
	cache    *expirable.LRU[string, *Session]
	backend  Backend
	sessOpts []Option
}

func NewManager(backend Backend, size int, ttl time.Duration, opts ...Option) *Manager {
	if size <= 0 {
		size = defaultMaxSessions
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Manager{
		cache:    expirable.NewLRU[string, *Session](size, nil, ttl),
		backend:  backend,
		sessOpts: opts,
	}
}

func (m *Manager) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	return m.cache.Get(id)
}

// Acquire returns the session for id, or a fresh one under a new id when id
// is empty or unknown.
func (m *Manager) Acquire(id string) (string, *Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.Get(id); ok {
		return id, sess, false
	}
	newID := uuid.NewString()
	sess := NewSession(m.backend, m.sessOpts...)
	m.cache.Add(newID, sess)
	return newID, sess, true
}

func (m *Manager) Len() int {
	return m.cache.Len()
}
