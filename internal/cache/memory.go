package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sihmvp/dropout-monitor/internal/model"
)

// MemoryRosterCache is a single-slot roster cache with a TTL.
type MemoryRosterCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	roster  []model.StudentSummary
	expires time.Time
	now     func() time.Time
}

// NewMemoryRosterCache creates a MemoryRosterCache. A zero ttl disables caching.
func NewMemoryRosterCache(ttl time.Duration) *MemoryRosterCache {
	return &MemoryRosterCache{ttl: ttl, now: time.Now}
}

func (c *MemoryRosterCache) Get(_ context.Context) ([]model.StudentSummary, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.roster == nil || !c.now().Before(c.expires) {
		return nil, false, nil
	}
	return append([]model.StudentSummary(nil), c.roster...), true, nil
}

func (c *MemoryRosterCache) Set(_ context.Context, roster []model.StudentSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ttl <= 0 {
		return nil
	}
	c.roster = append(make([]model.StudentSummary, 0, len(roster)), roster...)
	c.expires = c.now().Add(c.ttl)
	return nil
}

func (c *MemoryRosterCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roster = nil
	return nil
}

type memorySession struct {
	username string
	expires  time.Time
}

// MemorySessionStore keeps sessions in a map.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

// NewMemorySessionStore creates an empty MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]memorySession), now: time.Now}
}

func (s *MemorySessionStore) Create(_ context.Context, jti, username string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[jti] = memorySession{username: username, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemorySessionStore) Exists(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[jti]
	if !ok {
		return false, nil
	}
	if !s.now().Before(sess.expires) {
		delete(s.sessions, jti)
		return false, nil
	}
	return true, nil
}

func (s *MemorySessionStore) Revoke(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, jti)
	return nil
}

func (s *MemorySessionStore) RevokeAll(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for jti, sess := range s.sessions {
		if sess.username == username {
			delete(s.sessions, jti)
		}
	}
	return nil
}
