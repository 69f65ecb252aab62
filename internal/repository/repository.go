// Package repository holds the persistence layer. The package root carries the
// store contracts and the pgx implementation; sqlite and memory live in
// sub-packages.
package repository

import (
	"context"
	"errors"

	"github.com/sihmvp/dropout-monitor/internal/model"
)

var (
	ErrStudentNotFound   = errors.New("student not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
)

// StudentStore reads and writes students and their test scores.
type StudentStore interface {
	ListRecords(ctx context.Context) ([]model.StudentRecord, error)
	GetRecord(ctx context.Context, studentID string) (*model.StudentRecord, error)
	ListScores(ctx context.Context, studentID string) ([]model.TestScore, error)
	Trend(ctx context.Context, studentID string) ([]model.TrendPoint, error)
	SubjectAverages(ctx context.Context) ([]model.SubjectScore, error)
	Update(ctx context.Context, studentID string, attendance float64, fee model.FeeStatus) error
	// Delete removes the student and every score row in one transaction.
	Delete(ctx context.Context, studentID string) error
	ExistingIDs(ctx context.Context, studentIDs []string) (map[string]struct{}, error)
	// BulkInsert stores new students and their scores atomically.
	BulkInsert(ctx context.Context, students []model.Student, scores []model.TestScore) error
}

// UserStore manages login accounts.
type UserStore interface {
	List(ctx context.Context) ([]model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	UpdateRole(ctx context.Context, username string, role model.Role) error
	Delete(ctx context.Context, username string) error
}

// AuditStore persists audit entries.
type AuditStore interface {
	Insert(ctx context.Context, e *model.AuditEntry) error
}
