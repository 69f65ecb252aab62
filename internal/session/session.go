// Package session holds the identity of the logged-in dashboard user.
package session

import (
	"sync"
	"time"

	"github.com/sihmvp/dropout-monitor/internal/model"
)

// Action is a user intent gated by role.
type Action int

const (
	ViewRoster Action = iota
	ViewOwnRecord
	ExportRecord
	EditStudent
	DeleteStudent
	UploadRoster
	ManageUsers
)

var actionNames = map[Action]string{
	ViewRoster:    "view roster",
	ViewOwnRecord: "view own record",
	ExportRecord:  "export record",
	EditStudent:   "edit student",
	DeleteStudent: "delete student",
	UploadRoster:  "upload roster",
	ManageUsers:   "manage users",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

var permissions = map[model.Role]map[Action]bool{
	model.RoleAdmin: {
		ViewRoster: true, ExportRecord: true, EditStudent: true,
		DeleteStudent: true, UploadRoster: true, ManageUsers: true,
	},
	model.RoleMentor: {
		ViewRoster: true, ExportRecord: true,
	},
	model.RoleStudent: {
		ViewOwnRecord: true,
	},
}

// Session is created at login and invalidated at logout. A nil or invalid
// Session permits nothing.
type Session struct {
	username string
	role     model.Role
	token    string
	issuedAt time.Time

	mu    sync.RWMutex
	valid bool
}

// New starts a valid session.
func New(username string, role model.Role, token string, issuedAt time.Time) *Session {
	return &Session{username: username, role: role, token: token, issuedAt: issuedAt, valid: true}
}

func (s *Session) Username() string {
	if s == nil {
		return ""
	}
	return s.username
}

func (s *Session) Role() model.Role {
	if s == nil {
		return ""
	}
	return s.role
}

func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	return s.token
}

func (s *Session) IssuedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.issuedAt
}

// Valid reports whether the session is still logged in.
func (s *Session) Valid() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.valid
}

// Invalidate ends the session. It is idempotent.
func (s *Session) Invalidate() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.valid = false
	s.mu.Unlock()
}

// Can reports whether the session's role may perform a.
func (s *Session) Can(a Action) bool {
	if !s.Valid() {
		return false
	}
	return permissions[s.role][a]
}

// Staff reports whether the session belongs to an admin or mentor.
func (s *Session) Staff() bool {
	return s.Valid() && s.role.Staff()
}
