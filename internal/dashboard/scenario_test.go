package dashboard_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sihmvp/dropout-monitor/internal/apiclient"
	"github.com/sihmvp/dropout-monitor/internal/bootstrap"
	"github.com/sihmvp/dropout-monitor/internal/config"
	"github.com/sihmvp/dropout-monitor/internal/dashboard"
	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/validator"
)

// newBackend serves the real router on the in-memory store.
func newBackend(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Setup()

	cfg := &config.Config{
		GinMode:        gin.TestMode,
		DBDriver:       config.DriverMemory,
		JWTSecret:      "scenario-secret",
		JWTExpiry:      time.Hour,
		BcryptCost:     4,
		MaxUploadBytes: 1 << 20,
		RosterCacheTTL: time.Minute,
	}
	log := zerolog.Nop()
	ctx := context.Background()

	stores, err := bootstrap.OpenStores(ctx, cfg, log)
	require.NoError(t, err)
	services, err := bootstrap.NewServices(ctx, cfg, log, stores)
	require.NoError(t, err)

	require.NoError(t, stores.Students.BulkInsert(ctx,
		[]model.Student{
			{StudentID: "S1", AttendancePercentage: 60, FeeStatus: model.FeePaid},
			{StudentID: "S2", AttendancePercentage: 95, FeeStatus: model.FeePaid},
		},
		[]model.TestScore{
			{StudentID: "S1", Subject: "Math", TestScore: 40, TestNumber: 1},
			{StudentID: "S2", Subject: "Math", TestScore: 90, TestNumber: 1},
		},
	))
	_, err = services.User.EnsureUser(ctx, "admin", "pw", model.RoleAdmin)
	require.NoError(t, err)
	_, err = services.User.EnsureUser(ctx, "S1", "pw", model.RoleStudent)
	require.NoError(t, err)

	srv := httptest.NewServer(services.Router(cfg, log))
	t.Cleanup(func() {
		srv.Close()
		services.Close()
		stores.Close()
	})
	return srv.URL
}

func TestAdminEditScenario(t *testing.T) {
	url := newBackend(t)
	ctx := context.Background()
	app := dashboard.NewApp(apiclient.New(url, nil), dashboard.AppOptions{Log: zerolog.Nop()})

	route, err := app.Login(ctx, "admin", "pw")
	require.NoError(t, err)
	require.Equal(t, dashboard.RouteDashboard, route)

	c, err := app.Roster()
	require.NoError(t, err)
	roster := c.Roster()
	require.Len(t, roster, 2)
	assert.Equal(t, model.RiskHigh, roster[0].RiskLevel)
	assert.Equal(t, model.RiskLow, roster[1].RiskLevel)

	require.NoError(t, c.SetFilter(ctx, model.FilterHigh))
	require.Len(t, c.Roster(), 1)
	assert.Equal(t, "S1", c.Roster()[0].StudentID)

	require.NoError(t, c.Select(ctx, "S1"))
	require.NoError(t, c.BeginEdit())
	require.NoError(t, c.SetDraftAttendance(10))
	c.CancelEdit()
	assert.Equal(t, 60.0, c.Selected().Info.AttendancePercentage)

	require.NoError(t, c.BeginEdit())
	require.NoError(t, c.SetDraftAttendance(40))
	require.NoError(t, c.ApplyEdit(ctx))

	assert.Nil(t, c.Selected())
	assert.Equal(t, "Student S1 updated successfully.", c.Notice())
	require.Len(t, c.Roster(), 1)
	assert.Equal(t, 40.0, c.Roster()[0].AttendancePercentage)

	require.NoError(t, c.Select(ctx, "S1"))
	require.NoError(t, c.BeginEdit())
	require.NoError(t, c.SetDraftFeeStatus("Sometimes"))
	err = c.ApplyEdit(ctx)
	require.Error(t, err)
	assert.Equal(t, "S1", c.Selected().Info.StudentID, "rejected edit keeps the selection")
	assert.Equal(t, model.FeePaid, c.Selected().Info.FeeStatus)

	assert.Equal(t, dashboard.RouteLogin, app.Logout(ctx))
}

func TestUploadAndStudentPortalScenario(t *testing.T) {
	url := newBackend(t)
	ctx := context.Background()
	staff := dashboard.NewApp(apiclient.New(url, nil), dashboard.AppOptions{Log: zerolog.Nop()})

	_, err := staff.Login(ctx, "admin", "pw")
	require.NoError(t, err)
	c, err := staff.Roster()
	require.NoError(t, err)

	csv := "student_id,attendance_percentage,fee_status,subject,test_score,test_number\n" +
		"S3,75,Overdue,Math,70,1\n"
	require.NoError(t, c.Upload(ctx, "roster.csv", strings.NewReader(csv)))
	assert.Equal(t, "Uploaded 1 new student(s).", c.Notice())
	assert.Len(t, c.Roster(), 3)
	assert.Equal(t, 1, c.RiskCounts()[model.RiskMedium])

	student := dashboard.NewApp(apiclient.New(url, nil), dashboard.AppOptions{Log: zerolog.Nop()})
	_, err = student.Login(ctx, "S1", "pw")
	assert.ErrorIs(t, err, dashboard.ErrWrongPortal)

	route, err := student.StudentLogin(ctx, "S1", "pw")
	require.NoError(t, err)
	assert.Equal(t, dashboard.RouteStudentDashboard, route)
	view, err := student.StudentView()
	require.NoError(t, err)
	assert.Equal(t, "S1", view.Record().Info.StudentID)
	assert.Len(t, view.Trend(), 1)
}
