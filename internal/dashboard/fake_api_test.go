package dashboard

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/sihmvp/dropout-monitor/internal/apiclient"
	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/risk"
)

var errNetwork = errors.New("dial tcp: connection refused")

type listCall struct {
	search string
	filter model.RiskFilter
}

// fakeAPI is an in-memory server. Failure knobs make the next calls fail.
type fakeAPI struct {
	mu       sync.Mutex
	students map[string]model.StudentRecord
	reasons  map[string][]string
	scores   map[string][]model.TestScore
	users    []model.User

	listCalls   []listCall
	updateCalls []model.UpdateStudentRequest
	deleteCalls []string
	registered  []model.RegisterRequest
	userLists   int
	logouts     int

	listErr   error
	getErr    error
	updateErr error
	deleteErr error
	uploadErr error
	loginErr  error
	loginRole model.Role

	// listGate, when set, blocks ListStudents until it receives.
	listGate chan struct{}
	// remote feeds WatchRoster subscribers.
	remote chan model.RosterEvent
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		students: map[string]model.StudentRecord{
			"S1": {Student: model.Student{StudentID: "S1", AttendancePercentage: 60, FeeStatus: model.FeePaid}, AvgTestScore: 40},
			"S2": {Student: model.Student{StudentID: "S2", AttendancePercentage: 95, FeeStatus: model.FeePaid}, AvgTestScore: 90},
		},
		users:     []model.User{{Username: "admin", Role: model.RoleAdmin}},
		loginRole: model.RoleAdmin,
	}
}

func (f *fakeAPI) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listCalls)
}

func (f *fakeAPI) Login(_ context.Context, username, _ string) (*model.LoginResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &model.LoginResponse{Message: "Login successful", Role: f.loginRole, Username: username, Token: "tok-" + username}, nil
}

func (f *fakeAPI) StudentLogin(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	return f.Login(ctx, username, password)
}

func (f *fakeAPI) Logout(context.Context) error {
	f.mu.Lock()
	f.logouts++
	f.mu.Unlock()
	return nil
}

func (f *fakeAPI) ListStudents(ctx context.Context, search string, filter model.RiskFilter) ([]model.StudentSummary, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, listCall{search, filter})
	gate, listErr := f.listGate, f.listErr
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if listErr != nil {
		return nil, listErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.StudentSummary{}
	for _, id := range []string{"S1", "S2", "S3"} {
		rec, ok := f.students[id]
		if !ok {
			continue
		}
		sum := risk.Summarize(rec)
		if search != "" && !strings.Contains(strings.ToLower(id), strings.ToLower(search)) {
			continue
		}
		if !filter.Matches(sum.RiskLevel) {
			continue
		}
		out = append(out, sum)
	}
	return out, nil
}

func (f *fakeAPI) GetStudent(_ context.Context, id string) (*model.StudentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.students[id]
	if !ok {
		return nil, &apiclient.APIError{Status: http.StatusNotFound, Message: "Student not found."}
	}
	info := risk.Info(risk.Summarize(rec))
	if r, ok := f.reasons[id]; ok {
		info.Reasons = r
	}
	scores := []model.TestScore{}
	if sc, ok := f.scores[id]; ok {
		scores = append(scores, sc...)
	}
	return &model.StudentDetail{Info: info, Scores: scores}, nil
}

func (f *fakeAPI) GetOwnRecord(ctx context.Context) (*model.StudentDetail, error) {
	return f.GetStudent(ctx, "S1")
}

func (f *fakeAPI) Trend(_ context.Context, id string) ([]model.TrendPoint, error) {
	if id == "S1" {
		return []model.TrendPoint{{TestNumber: 1, TestScore: 40}}, nil
	}
	return nil, &apiclient.APIError{Status: http.StatusNotFound, Message: "No trend data available."}
}

func (f *fakeAPI) SubjectScores(context.Context) ([]model.SubjectScore, error) {
	return []model.SubjectScore{{Subject: "Math", TestScore: 65}}, nil
}

func (f *fakeAPI) UpdateStudent(_ context.Context, id string, updates model.StudentUpdates) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls = append(f.updateCalls, model.UpdateStudentRequest{StudentID: id, Updates: &updates})
	if f.updateErr != nil {
		return "", f.updateErr
	}
	rec := f.students[id]
	rec.AttendancePercentage = *updates.AttendancePercentage
	rec.FeeStatus = updates.FeeStatus
	f.students[id] = rec
	return "Student " + id + " updated successfully.", nil
}

func (f *fakeAPI) DeleteStudent(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, id)
	if f.deleteErr != nil {
		return "", f.deleteErr
	}
	delete(f.students, id)
	return "Student " + id + " and their records deleted successfully.", nil
}

func (f *fakeAPI) Upload(_ context.Context, _ string, r io.Reader) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	_, _ = io.ReadAll(r)
	f.mu.Lock()
	f.students["S3"] = model.StudentRecord{Student: model.Student{StudentID: "S3", AttendancePercentage: 75, FeeStatus: model.FeeOverdue}, AvgTestScore: 70}
	f.mu.Unlock()
	return "Uploaded 1 new student(s).", nil
}

func (f *fakeAPI) ListUsers(context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userLists++
	return append([]model.User(nil), f.users...), nil
}

func (f *fakeAPI) Register(_ context.Context, req model.RegisterRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, req)
	if !req.Role.Valid() {
		return "", &apiclient.APIError{Status: http.StatusBadRequest, Message: "Invalid role. Only admin, mentor or student allowed."}
	}
	for _, u := range f.users {
		if u.Username == req.Username {
			return "", &apiclient.APIError{Status: http.StatusConflict, Message: "Username already exists."}
		}
	}
	f.users = append(f.users, model.User{Username: req.Username, Role: req.Role})
	return "User registered successfully!", nil
}

func (f *fakeAPI) UpdateUser(_ context.Context, username string, role model.Role) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, u := range f.users {
		if u.Username == username {
			f.users[i].Role = role
			return "User " + username + " role updated to " + string(role) + ".", nil
		}
	}
	return "", &apiclient.APIError{Status: http.StatusNotFound, Message: "User " + username + " not found."}
}

func (f *fakeAPI) DeleteUser(_ context.Context, username string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, u := range f.users {
		if u.Username == username {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return "User " + username + " deleted successfully.", nil
		}
	}
	return "", &apiclient.APIError{Status: http.StatusNotFound, Message: "User " + username + " not found."}
}

func (f *fakeAPI) WatchRoster(ctx context.Context, ready func(), fn func(model.RosterEvent)) error {
	if ready != nil {
		ready()
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-f.remote:
			fn(ev)
		}
	}
}
