package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/repository"
)

var (
	_ repository.StudentStore = (*StudentStore)(nil)
	_ repository.UserStore    = (*UserStore)(nil)
	_ repository.AuditStore   = (*AuditStore)(nil)
)

func seed(t *testing.T, s *StudentStore) {
	t.Helper()
	err := s.BulkInsert(context.Background(),
		[]model.Student{
			{StudentID: "S2", AttendancePercentage: 95, FeeStatus: model.FeePaid},
			{StudentID: "S1", AttendancePercentage: 60, FeeStatus: model.FeeOverdue},
		},
		[]model.TestScore{
			{StudentID: "S1", Subject: "Math", TestScore: 40, TestNumber: 2},
			{StudentID: "S1", Subject: "Math", TestScore: 50, TestNumber: 1},
			{StudentID: "S2", Subject: "Math", TestScore: 90, TestNumber: 1},
			{StudentID: "S2", Subject: "Art", TestScore: 80, TestNumber: 1},
		})
	require.NoError(t, err)
}

func TestStudentStore(t *testing.T) {
	ctx := context.Background()
	s := NewStudentStore(Open())
	seed(t, s)

	records, err := s.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "S1", records[0].StudentID)
	assert.Equal(t, 45.0, records[0].AvgTestScore)
	assert.Equal(t, 85.0, records[1].AvgTestScore)

	trend, err := s.Trend(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, []model.TrendPoint{{TestNumber: 1, TestScore: 50}, {TestNumber: 2, TestScore: 40}}, trend)

	subjects, err := s.SubjectAverages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.SubjectScore{{Subject: "Art", TestScore: 80}, {Subject: "Math", TestScore: 60}}, subjects)

	existing, err := s.ExistingIDs(ctx, []string{"S1", "S9"})
	require.NoError(t, err)
	assert.Contains(t, existing, "S1")
	assert.NotContains(t, existing, "S9")

	require.NoError(t, s.Update(ctx, "S1", 40, model.FeePaid))
	rec, err := s.GetRecord(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, 40.0, rec.AttendancePercentage)
	assert.Equal(t, model.FeePaid, rec.FeeStatus)

	assert.ErrorIs(t, s.Update(ctx, "S9", 40, model.FeePaid), repository.ErrStudentNotFound)

	require.NoError(t, s.Delete(ctx, "S1"))
	_, err = s.GetRecord(ctx, "S1")
	assert.ErrorIs(t, err, repository.ErrStudentNotFound)
	scores, err := s.ListScores(ctx, "S1")
	require.NoError(t, err)
	assert.Empty(t, scores)
	assert.ErrorIs(t, s.Delete(ctx, "S1"), repository.ErrStudentNotFound)
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore(Open())

	require.NoError(t, s.Create(ctx, &model.User{Username: "bob", PasswordHash: "h", Role: model.RoleMentor}))
	require.NoError(t, s.Create(ctx, &model.User{Username: "alice", PasswordHash: "h", Role: model.RoleAdmin}))
	assert.ErrorIs(t, s.Create(ctx, &model.User{Username: "bob"}), repository.ErrDuplicateUsername)

	users, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Empty(t, users[0].PasswordHash)

	require.NoError(t, s.UpdateRole(ctx, "bob", model.RoleAdmin))
	u, err := s.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)
	assert.Equal(t, "h", u.PasswordHash)

	require.NoError(t, s.Delete(ctx, "bob"))
	assert.ErrorIs(t, s.Delete(ctx, "bob"), repository.ErrUserNotFound)
	assert.ErrorIs(t, s.UpdateRole(ctx, "bob", model.RoleAdmin), repository.ErrUserNotFound)
}

func TestAuditStore(t *testing.T) {
	db := Open()
	s := NewAuditStore(db)
	require.NoError(t, s.Insert(context.Background(), &model.AuditEntry{Actor: "admin", Action: model.AuditStudentDelete, Target: "S1"}))

	entries := db.AuditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ID)
	assert.False(t, entries[0].CreatedAt.IsZero())
}
