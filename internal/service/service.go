package service

import (
	"context"

	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/repository"
)

// Errors surfaced by every service. Store errors pass through unchanged so
// handlers can match them with errors.Is.
var (
	ErrStudentNotFound = repository.ErrStudentNotFound
	ErrUserNotFound    = repository.ErrUserNotFound
	ErrDuplicateUser   = repository.ErrDuplicateUsername
)

// AuditRecorder accepts audit entries. worker.AuditQueue and
// worker.DirectAuditWriter implement it.
type AuditRecorder interface {
	Record(ctx context.Context, e model.AuditEntry) error
}

// RosterPublisher announces roster changes. events.Bus implements it.
type RosterPublisher interface {
	Publish(ctx context.Context, ev model.RosterEvent) error
}
