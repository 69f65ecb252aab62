package memory

import (
	"context"
	"sort"
	"time"

	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/repository"
)

// UserStore is the in-memory repository.UserStore.
type UserStore struct {
	db *DB
}

// NewUserStore creates a UserStore over db.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) List(_ context.Context) ([]model.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	users := make([]model.User, 0, len(s.db.users))
	for _, u := range s.db.users {
		users = append(users, model.User{Username: u.Username, Role: u.Role, CreatedAt: u.CreatedAt})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *UserStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	u, ok := s.db.users[username]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) Create(_ context.Context, u *model.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.users[u.Username]; ok {
		return repository.ErrDuplicateUsername
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	s.db.users[u.Username] = &cp
	return nil
}

func (s *UserStore) UpdateRole(_ context.Context, username string, role model.Role) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u, ok := s.db.users[username]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (s *UserStore) Delete(_ context.Context, username string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.users[username]; !ok {
		return repository.ErrUserNotFound
	}
	delete(s.db.users, username)
	return nil
}

// AuditStore is the in-memory repository.AuditStore.
type AuditStore struct {
	db *DB
}

// NewAuditStore creates an AuditStore over db.
func NewAuditStore(db *DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Insert(_ context.Context, e *model.AuditEntry) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	e.ID = int64(len(s.db.audit) + 1)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.db.audit = append(s.db.audit, *e)
	return nil
}
