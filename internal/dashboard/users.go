package dashboard

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/session"
)

// ImportResult counts the rows of a user import.
type ImportResult struct {
	Created int
	Failed  int
}

// UserManager is the admin-only account screen. The list is refetched
// wholesale after every successful change.
type UserManager struct {
	api  UserAPI
	sess *session.Session
	log  zerolog.Logger

	mu     sync.Mutex
	users  []model.User
	notice string
}

func NewUserManager(api UserAPI, sess *session.Session, log zerolog.Logger) *UserManager {
	return &UserManager{
		api:  api,
		sess: sess,
		log:  log.With().Str("component", "user_manager").Logger(),
	}
}

// Refresh replaces the user list. On failure the previous list stays.
func (m *UserManager) Refresh(ctx context.Context) error {
	if !m.sess.Can(session.ManageUsers) {
		return notPermitted("manage users")
	}
	users, err := m.api.ListUsers(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("Failed to fetch users")
		return err
	}
	m.mu.Lock()
	m.users = users
	m.mu.Unlock()
	return nil
}

// Users returns a copy of the current list.
func (m *UserManager) Users() []model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.User(nil), m.users...)
}

// Notice returns the last message meant for the user.
func (m *UserManager) Notice() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notice
}

// Create registers a new account.
func (m *UserManager) Create(ctx context.Context, username, password string, role model.Role) error {
	if !m.sess.Can(session.ManageUsers) {
		return m.fail(notPermitted("manage users"))
	}
	if strings.TrimSpace(username) == "" || password == "" || role == "" {
		return m.fail(userError("All fields required", ErrIncomplete))
	}

	msg, err := m.api.Register(ctx, model.RegisterRequest{Username: username, Password: password, Role: role})
	if err != nil {
		return m.fail(describe(err, "An error occurred while creating the user."))
	}
	return m.succeeded(ctx, msg)
}

// UpdateRole changes an account's role.
func (m *UserManager) UpdateRole(ctx context.Context, username string, role model.Role) error {
	if !m.sess.Can(session.ManageUsers) {
		return m.fail(notPermitted("manage users"))
	}
	if username == "" || role == "" {
		return m.fail(userError("Username and role are required.", ErrIncomplete))
	}

	msg, err := m.api.UpdateUser(ctx, username, role)
	if err != nil {
		return m.fail(describe(err, "An error occurred while updating."))
	}
	return m.succeeded(ctx, msg)
}

// Delete removes an account once confirm approves.
func (m *UserManager) Delete(ctx context.Context, username string, confirm Confirmer) error {
	if !m.sess.Can(session.ManageUsers) {
		return m.fail(notPermitted("manage users"))
	}
	if confirm == nil || !confirm.Confirm(fmt.Sprintf("Are you sure you want to delete user %s?", username)) {
		return nil
	}

	msg, err := m.api.DeleteUser(ctx, username)
	if err != nil {
		return m.fail(describe(err, "An error occurred while deleting."))
	}
	return m.succeeded(ctx, msg)
}

// ImportCSV registers one account per row. The header must name username and
// password columns in any order; a missing or empty role means student.
// Rows are sent one at a time and the list is refetched once at the end.
func (m *UserManager) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	var result ImportResult
	if !m.sess.Can(session.ManageUsers) {
		return result, m.fail(notPermitted("manage users"))
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return result, m.fail(userError("The CSV file is empty.", ErrIncomplete))
		}
		return result, m.fail(userError("Could not read the CSV file.", err))
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	userCol, okUser := cols["username"]
	passCol, okPass := cols["password"]
	if !okUser || !okPass {
		return result, m.fail(userError("The CSV header must contain username,password,role.", ErrIncomplete))
	}
	roleCol, okRole := cols["role"]

	field := func(rec []string, i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, m.fail(userError("Could not read the CSV file.", err))
		}

		req := model.RegisterRequest{
			Username: field(rec, userCol),
			Password: field(rec, passCol),
			Role:     model.RoleStudent,
		}
		if okRole {
			if role := field(rec, roleCol); role != "" {
				req.Role = model.Role(strings.ToLower(role))
			}
		}
		if req.Username == "" && req.Password == "" {
			continue
		}

		if _, err := m.api.Register(ctx, req); err != nil {
			m.log.Warn().Err(err).Str("username", req.Username).Msg("Import row rejected")
			result.Failed++
			continue
		}
		result.Created++
	}

	if err := m.Refresh(ctx); err != nil {
		m.log.Warn().Err(err).Msg("Refetch after import failed")
	}
	m.setNotice(fmt.Sprintf("CSV import complete! %d created, %d failed.", result.Created, result.Failed))
	return result, nil
}

// ExportCSV writes username,role rows. An empty list writes nothing.
func (m *UserManager) ExportCSV(w io.Writer) error {
	users := m.Users()
	if len(users) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	rows := make([][]string, 0, len(users)+1)
	rows = append(rows, []string{"username", "role"})
	for _, u := range users {
		rows = append(rows, []string{u.Username, string(u.Role)})
	}
	return cw.WriteAll(rows)
}

// Reset forgets the list and notice.
func (m *UserManager) Reset() {
	m.mu.Lock()
	m.users = nil
	m.notice = ""
	m.mu.Unlock()
}

func (m *UserManager) succeeded(ctx context.Context, msg string) error {
	m.setNotice(msg)
	if err := m.Refresh(ctx); err != nil {
		m.log.Warn().Err(err).Msg("Refetch after change failed")
	}
	return nil
}

func (m *UserManager) setNotice(msg string) {
	m.mu.Lock()
	m.notice = msg
	m.mu.Unlock()
}

func (m *UserManager) fail(ue *UserError) error {
	m.setNotice(ue.Message)
	return ue
}
