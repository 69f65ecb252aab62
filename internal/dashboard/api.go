// Package dashboard holds the client-side state of the monitoring dashboard:
// the roster controller, user administration, the student view and routing.
// It talks to the server only through the interfaces below.
package dashboard

import (
	"context"
	"io"

	"github.com/sihmvp/dropout-monitor/internal/apiclient"
	"github.com/sihmvp/dropout-monitor/internal/model"
)

// StudentAPI is what the roster controller needs from the server.
type StudentAPI interface {
	ListStudents(ctx context.Context, search string, filter model.RiskFilter) ([]model.StudentSummary, error)
	GetStudent(ctx context.Context, studentID string) (*model.StudentDetail, error)
	Trend(ctx context.Context, studentID string) ([]model.TrendPoint, error)
	SubjectScores(ctx context.Context) ([]model.SubjectScore, error)
	UpdateStudent(ctx context.Context, studentID string, updates model.StudentUpdates) (string, error)
	DeleteStudent(ctx context.Context, studentID string) (string, error)
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// UserAPI is what user administration needs from the server.
type UserAPI interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	Register(ctx context.Context, req model.RegisterRequest) (string, error)
	UpdateUser(ctx context.Context, username string, role model.Role) (string, error)
	DeleteUser(ctx context.Context, username string) (string, error)
}

// OwnRecordAPI serves the read-only student view.
type OwnRecordAPI interface {
	GetOwnRecord(ctx context.Context) (*model.StudentDetail, error)
	Trend(ctx context.Context, studentID string) ([]model.TrendPoint, error)
}

// AuthAPI logs in and out. Implementations keep the token for later calls.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*model.LoginResponse, error)
	StudentLogin(ctx context.Context, username, password string) (*model.LoginResponse, error)
	Logout(ctx context.Context) error
}

// RosterWatcher streams server-side roster changes.
type RosterWatcher interface {
	WatchRoster(ctx context.Context, ready func(), fn func(model.RosterEvent)) error
}

// API is the full surface the App drives.
type API interface {
	AuthAPI
	StudentAPI
	UserAPI
	GetOwnRecord(ctx context.Context) (*model.StudentDetail, error)
	RosterWatcher
}

var _ API = (*apiclient.Client)(nil)

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }
