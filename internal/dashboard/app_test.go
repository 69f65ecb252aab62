package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sihmvp/dropout-monitor/internal/apiclient"
	"github.com/sihmvp/dropout-monitor/internal/model"
)

func newApp(api *fakeAPI, live bool) *App {
	return NewApp(api, AppOptions{Live: live, Log: zerolog.Nop()})
}

func TestStaffLogin(t *testing.T) {
	api := newFakeAPI()
	app := newApp(api, false)

	route, err := app.Login(context.Background(), "admin", "pw")
	require.NoError(t, err)
	assert.Equal(t, RouteDashboard, route)
	assert.Equal(t, model.RoleAdmin, app.Session().Role())

	roster, err := app.Roster()
	require.NoError(t, err)
	assert.Len(t, roster.Roster(), 2, "roster fetched on login")

	_, err = app.Users()
	assert.NoError(t, err)
	_, err = app.StudentView()
	assert.ErrorIs(t, err, ErrNotPermitted)
}

func TestStaffLoginRejectsStudents(t *testing.T) {
	api := newFakeAPI()
	api.loginRole = model.RoleStudent
	app := newApp(api, false)

	route, err := app.Login(context.Background(), "S1", "pw")
	assert.ErrorIs(t, err, ErrWrongPortal)
	assert.Equal(t, "Only staff accounts can log in here. Please use the student login page.", err.Error())
	assert.Equal(t, RouteLogin, route)
	assert.Nil(t, app.Session())
	assert.Equal(t, 1, api.logouts, "issued token is revoked")
	assert.Zero(t, api.listCount())
}

func TestStudentLoginRejectsStaff(t *testing.T) {
	api := newFakeAPI()
	app := newApp(api, false)

	route, err := app.StudentLogin(context.Background(), "admin", "pw")
	assert.ErrorIs(t, err, ErrWrongPortal)
	assert.Equal(t, RouteStudentLogin, route)
	assert.Nil(t, app.Session())
}

func TestStudentLogin(t *testing.T) {
	api := newFakeAPI()
	api.loginRole = model.RoleStudent
	app := newApp(api, false)

	route, err := app.StudentLogin(context.Background(), "S1", "pw")
	require.NoError(t, err)
	assert.Equal(t, RouteStudentDashboard, route)

	view, err := app.StudentView()
	require.NoError(t, err)
	require.NotNil(t, view.Record())
	assert.Equal(t, "S1", view.Record().Info.StudentID)
	assert.Len(t, view.Trend(), 1)

	_, err = app.Roster()
	assert.ErrorIs(t, err, ErrNotPermitted)
	assert.Equal(t, RouteStudentDashboard, app.Navigate("/dashboard"))
}

func TestLoginValidation(t *testing.T) {
	api := newFakeAPI()
	app := newApp(api, false)

	_, err := app.Login(context.Background(), "  ", "pw")
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, "Please fill out all fields.", err.Error())

	api.loginErr = &apiclient.APIError{Status: 401, Message: "Invalid credentials"}
	_, err = app.Login(context.Background(), "admin", "bad")
	assert.Equal(t, "Invalid credentials", err.Error())

	api.loginErr = errNetwork
	_, err = app.Login(context.Background(), "admin", "pw")
	assert.Equal(t, "Failed to connect to the server.", err.Error())
	assert.Nil(t, app.Session())
}

func TestLogoutFromAnyState(t *testing.T) {
	t.Run("logged out", func(t *testing.T) {
		api := newFakeAPI()
		app := newApp(api, false)
		assert.Equal(t, RouteLogin, app.Logout(context.Background()))
		assert.Zero(t, api.logouts)
	})

	t.Run("mid edit", func(t *testing.T) {
		api := newFakeAPI()
		app := newApp(api, true)
		_, err := app.Login(context.Background(), "admin", "pw")
		require.NoError(t, err)

		roster, err := app.Roster()
		require.NoError(t, err)
		require.NoError(t, roster.Select(context.Background(), "S1"))
		require.NoError(t, roster.BeginEdit())
		sess := app.Session()

		assert.Equal(t, RouteLogin, app.Logout(context.Background()))
		assert.Nil(t, app.Session())
		assert.False(t, sess.Valid())
		assert.False(t, roster.Editing())
		assert.Nil(t, roster.Selected())
		assert.Equal(t, 1, api.logouts)

		_, err = app.Roster()
		assert.ErrorIs(t, err, ErrNotLoggedIn)
		assert.Equal(t, RouteLogin, app.Navigate("/dashboard"))
	})

	t.Run("student", func(t *testing.T) {
		api := newFakeAPI()
		api.loginRole = model.RoleStudent
		app := newApp(api, false)
		_, err := app.StudentLogin(context.Background(), "S1", "pw")
		require.NoError(t, err)
		assert.Equal(t, RouteStudentLogin, app.Logout(context.Background()))
	})

	t.Run("twice", func(t *testing.T) {
		api := newFakeAPI()
		app := newApp(api, false)
		_, err := app.Login(context.Background(), "admin", "pw")
		require.NoError(t, err)
		sess := app.Session()

		assert.Equal(t, RouteLogin, app.Logout(context.Background()))
		assert.Equal(t, RouteLogin, app.Logout(context.Background()))
		assert.False(t, sess.Valid())
		assert.Equal(t, 1, api.logouts, "only a live session reaches the server")
	})
}

func TestLiveRemoteChangesRefetch(t *testing.T) {
	api := newFakeAPI()
	api.remote = make(chan model.RosterEvent)
	app := newApp(api, true)

	_, err := app.Login(context.Background(), "admin", "pw")
	require.NoError(t, err)
	before := api.listCount()

	api.remote <- model.RosterEvent{Type: model.EventStudentUpdated, StudentID: "S2", Actor: "admin"}
	api.remote <- model.RosterEvent{Type: model.EventStudentDeleted, StudentID: "S2", Actor: "mentor"}

	assert.Eventually(t, func() bool { return api.listCount() == before+1 }, time.Second, 5*time.Millisecond,
		"own events are skipped, remote events refetch once")

	app.Logout(context.Background())
}
