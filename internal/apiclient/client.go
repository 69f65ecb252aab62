// Package apiclient is the HTTP client for the dropout monitor API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/response"
)

// APIError is a non-2xx response. Message is the server's text, unchanged.
type APIError struct {
	Status  int
	Message string
	Code    response.ErrCode
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// AsAPIError reports whether err carries an APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Client calls the API on behalf of one logged-in user.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a Client for baseURL (scheme and host, no /api suffix). A nil
// httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SetToken sets the bearer token sent with every request. Empty clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// ─── Auth ───────────────────────────────────────────────────────────

// Login authenticates against the staff endpoint and stores the token.
func (c *Client) Login(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	return c.login(ctx, "/api/login", username, password)
}

// StudentLogin authenticates against the student endpoint and stores the token.
func (c *Client) StudentLogin(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	return c.login(ctx, "/api/student-login", username, password)
}

func (c *Client) login(ctx context.Context, path, username, password string) (*model.LoginResponse, error) {
	var resp model.LoginResponse
	body := model.LoginRequest{Username: username, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

// Logout revokes the current token server-side and forgets it locally, even
// when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.SetToken("")
	if c.Token() == "" {
		return nil
	}
	return c.doJSON(ctx, http.MethodPost, "/api/logout", nil, nil)
}

// ─── Students ───────────────────────────────────────────────────────

// ListStudents returns the roster narrowed by search and filter.
func (c *Client) ListStudents(ctx context.Context, search string, filter model.RiskFilter) ([]model.StudentSummary, error) {
	q := url.Values{}
	q.Set("search", search)
	if filter == "" {
		filter = model.FilterAll
	}
	q.Set("filter", string(filter))

	var roster []model.StudentSummary
	if err := c.doJSON(ctx, http.MethodGet, "/api/students?"+q.Encode(), nil, &roster); err != nil {
		return nil, err
	}
	return roster, nil
}

// GetStudent returns one student's detail with reasons and score history.
func (c *Client) GetStudent(ctx context.Context, studentID string) (*model.StudentDetail, error) {
	var detail model.StudentDetail
	if err := c.doJSON(ctx, http.MethodGet, "/api/student/"+url.PathEscape(studentID), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetOwnRecord returns the logged-in student's own detail.
func (c *Client) GetOwnRecord(ctx context.Context) (*model.StudentDetail, error) {
	var detail model.StudentDetail
	if err := c.doJSON(ctx, http.MethodGet, "/api/student/me", nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Trend returns a student's score series ordered by test number.
func (c *Client) Trend(ctx context.Context, studentID string) ([]model.TrendPoint, error) {
	var points []model.TrendPoint
	if err := c.doJSON(ctx, http.MethodGet, "/api/student/trends/"+url.PathEscape(studentID), nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// SubjectScores returns the average score per subject.
func (c *Client) SubjectScores(ctx context.Context) ([]model.SubjectScore, error) {
	var scores []model.SubjectScore
	if err := c.doJSON(ctx, http.MethodGet, "/api/subjects/scores", nil, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// UpdateStudent sends the two editable fields and returns the server message.
func (c *Client) UpdateStudent(ctx context.Context, studentID string, updates model.StudentUpdates) (string, error) {
	body := model.UpdateStudentRequest{StudentID: studentID, Updates: &updates}
	return c.doMessage(ctx, http.MethodPost, "/api/student/update", body)
}

// DeleteStudent removes a student and returns the server message.
func (c *Client) DeleteStudent(ctx context.Context, studentID string) (string, error) {
	return c.doMessage(ctx, http.MethodDelete, "/api/student/delete/"+url.PathEscape(studentID), nil)
}

// Upload sends a roster file as multipart field "file" and returns the
// server message. The file is not inspected.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build multipart: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build multipart: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var msg model.MessageResponse
	if err := c.do(req, &msg); err != nil {
		return "", err
	}
	return msg.Message, nil
}

// ─── Users ──────────────────────────────────────────────────────────

// ListUsers returns every account.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Register creates an account and returns the server message.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (string, error) {
	return c.doMessage(ctx, http.MethodPost, "/api/register", req)
}

// UpdateUser changes an account's role and returns the server message.
func (c *Client) UpdateUser(ctx context.Context, username string, role model.Role) (string, error) {
	return c.doMessage(ctx, http.MethodPost, "/api/user/update", model.UpdateUserRequest{Username: username, Role: role})
}

// DeleteUser removes an account and returns the server message.
func (c *Client) DeleteUser(ctx context.Context, username string) (string, error) {
	return c.doMessage(ctx, http.MethodDelete, "/api/user/delete/"+url.PathEscape(username), nil)
}

// ─── Transport ──────────────────────────────────────────────────────

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) doMessage(ctx context.Context, method, path string, body interface{}) (string, error) {
	var msg model.MessageResponse
	if err := c.doJSON(ctx, method, path, body, &msg); err != nil {
		return "", err
	}
	return msg.Message, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body response.ErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		apiErr.Message = body.Message
		apiErr.Code = body.Code
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
