package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/repository"
)

// UserService manages login accounts.
type UserService struct {
	users repository.UserStore
	auth  *AuthService
	audit AuditRecorder
	log   zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserStore, auth *AuthService, audit AuditRecorder, log zerolog.Logger) *UserService {
	return &UserService{
		users: users,
		auth:  auth,
		audit: audit,
		log:   log.With().Str("component", "user_service").Logger(),
	}
}

// List returns every account without password hashes.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// Register creates an account with a hashed password.
func (s *UserService) Register(ctx context.Context, actor string, req model.RegisterRequest) (*model.User, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{Username: req.Username, PasswordHash: hash, Role: req.Role}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.record(ctx, model.AuditEntry{Actor: actor, Action: model.AuditUserCreate, Target: user.Username, Detail: string(user.Role)})
	return user, nil
}

// UpdateRole changes an account's role and ends its sessions so the next
// request carries the new role.
func (s *UserService) UpdateRole(ctx context.Context, actor, username string, role model.Role) error {
	if err := s.users.UpdateRole(ctx, username, role); err != nil {
		return err
	}
	if err := s.auth.RevokeUser(ctx, username); err != nil {
		s.log.Error().Err(err).Str("username", username).Msg("Session revocation failed")
	}
	s.record(ctx, model.AuditEntry{Actor: actor, Action: model.AuditUserUpdate, Target: username, Detail: string(role)})
	return nil
}

// Delete removes an account and ends its sessions.
func (s *UserService) Delete(ctx context.Context, actor, username string) error {
	if err := s.users.Delete(ctx, username); err != nil {
		return err
	}
	if err := s.auth.RevokeUser(ctx, username); err != nil {
		s.log.Error().Err(err).Str("username", username).Msg("Session revocation failed")
	}
	s.record(ctx, model.AuditEntry{Actor: actor, Action: model.AuditUserDelete, Target: username})
	return nil
}

// EnsureUser creates username with role unless it already exists. It reports
// whether an account was created.
func (s *UserService) EnsureUser(ctx context.Context, username, password string, role model.Role) (bool, error) {
	_, err := s.Register(ctx, "system", model.RegisterRequest{Username: username, Password: password, Role: role})
	if errors.Is(err, ErrDuplicateUser) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *UserService) record(ctx context.Context, e model.AuditEntry) {
	if err := s.audit.Record(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("action", e.Action).Msg("Audit record failed")
	}
}
