// Package cache stores the classified roster and login sessions, in Redis or
// in process memory when Redis is not configured.
package cache

import (
	"context"
	"time"

	"github.com/sihmvp/dropout-monitor/internal/model"
)

// RosterCache holds the most recent classified roster.
type RosterCache interface {
	// Get reports ok=false on a miss.
	Get(ctx context.Context) (roster []model.StudentSummary, ok bool, err error)
	Set(ctx context.Context, roster []model.StudentSummary) error
	Invalidate(ctx context.Context) error
}

// SessionStore tracks live tokens by JWT id.
type SessionStore interface {
	Create(ctx context.Context, jti, username string, ttl time.Duration) error
	Exists(ctx context.Context, jti string) (bool, error)
	Revoke(ctx context.Context, jti string) error
	// RevokeAll ends every session held by username.
	RevokeAll(ctx context.Context, username string) error
}
