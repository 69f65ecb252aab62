package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sihmvp/dropout-monitor/internal/model"
	ws "github.com/sihmvp/dropout-monitor/internal/websocket"
)

func TestRosterStream(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	token := s.login(t, "/api/login", "admin")
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/roster?token=" + token

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	frame, err := ws.ReadFrame(conn)
	require.NoError(t, err)
	require.Equal(t, ws.EventReady, frame.Event)

	body, _ := json.Marshal(map[string]string{})
	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/student/delete/S2", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	frame, err = ws.ReadFrame(conn)
	require.NoError(t, err)
	assert.Equal(t, ws.EventRoster, frame.Event)
	require.NotNil(t, frame.Roster)
	assert.Equal(t, model.EventStudentDeleted, frame.Roster.Type)
	assert.Equal(t, "S2", frame.Roster.StudentID)
	assert.Equal(t, "admin", frame.Roster.Actor)
}

func TestRosterStreamRejectsStudents(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	token := s.login(t, "/api/student-login", "S1")
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/roster?token=" + token

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
