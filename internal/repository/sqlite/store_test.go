package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sihmvp/dropout-monitor/internal/database"
	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/repository"
)

func openTestDB(t *testing.T) (*StudentStore, *UserStore, *AuditStore) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "students.db")
	require.NoError(t, database.MigrateUp("sqlite", "sqlite3://"+path))

	db, err := database.NewSQLiteDB(context.Background(), path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewStudentStore(db), NewUserStore(db), NewAuditStore(db)
}

func TestStudentStore(t *testing.T) {
	ctx := context.Background()
	students, _, _ := openTestDB(t)

	require.NoError(t, students.BulkInsert(ctx,
		[]model.Student{
			{StudentID: "S1", AttendancePercentage: 60, FeeStatus: model.FeeOverdue},
			{StudentID: "S2", AttendancePercentage: 95, FeeStatus: model.FeePaid},
		},
		[]model.TestScore{
			{StudentID: "S1", Subject: "Math", TestScore: 40, TestNumber: 1},
			{StudentID: "S1", Subject: "Math", TestScore: 50, TestNumber: 2},
			{StudentID: "S2", Subject: "Math", TestScore: 90, TestNumber: 1},
		}))

	records, err := students.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 45.0, records[0].AvgTestScore)

	existing, err := students.ExistingIDs(ctx, []string{"S2", "S3"})
	require.NoError(t, err)
	assert.Len(t, existing, 1)

	subjects, err := students.SubjectAverages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.SubjectScore{{Subject: "Math", TestScore: 60}}, subjects)

	require.NoError(t, students.Update(ctx, "S1", 40, model.FeePaid))
	assert.ErrorIs(t, students.Update(ctx, "S9", 1, model.FeePaid), repository.ErrStudentNotFound)

	require.NoError(t, students.Delete(ctx, "S1"))
	trend, err := students.Trend(ctx, "S1")
	require.NoError(t, err)
	assert.Empty(t, trend)
	_, err = students.GetRecord(ctx, "S1")
	assert.ErrorIs(t, err, repository.ErrStudentNotFound)
}

func TestUserAndAuditStore(t *testing.T) {
	ctx := context.Background()
	_, users, audit := openTestDB(t)

	require.NoError(t, users.Create(ctx, &model.User{Username: "admin", PasswordHash: "hash", Role: model.RoleAdmin}))
	assert.ErrorIs(t, users.Create(ctx, &model.User{Username: "admin", PasswordHash: "x", Role: model.RoleAdmin}), repository.ErrDuplicateUsername)

	u, err := users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "hash", u.PasswordHash)

	require.NoError(t, users.UpdateRole(ctx, "admin", model.RoleMentor))
	list, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.RoleMentor, list[0].Role)

	require.NoError(t, users.Delete(ctx, "admin"))
	_, err = users.GetByUsername(ctx, "admin")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	e := &model.AuditEntry{Actor: "admin", Action: model.AuditUserDelete, Target: "admin"}
	require.NoError(t, audit.Insert(ctx, e))
	assert.NotZero(t, e.ID)
}

const legacyStudentsDDL = `
CREATE TABLE students (student_id TEXT PRIMARY KEY, attendance_percentage REAL, fee_status TEXT);
CREATE TABLE test_scores (
    test_id INTEGER PRIMARY KEY, student_id TEXT, subject TEXT, test_score REAL, test_number INTEGER,
    FOREIGN KEY (student_id) REFERENCES students(student_id)
);`

func TestOpenLegacyDatabase(t *testing.T) {
	const werkzeugHash = "pbkdf2:sha256:600000$salt$0123abcd"

	tests := []struct {
		name     string
		usersDDL string
	}{
		{"username primary key", `CREATE TABLE users (username TEXT PRIMARY KEY, password TEXT, role TEXT)`},
		{"integer id", `CREATE TABLE users (id INTEGER PRIMARY KEY, username TEXT NOT NULL UNIQUE, password TEXT NOT NULL, role TEXT NOT NULL)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "students.db")

			legacy, err := sqlx.Open("sqlite3", path)
			require.NoError(t, err)
			_, err = legacy.Exec(legacyStudentsDDL + tt.usersDDL)
			require.NoError(t, err)
			_, err = legacy.Exec(`INSERT INTO students VALUES ('S1', 72.5, 'Paid');
				INSERT INTO test_scores (student_id, subject, test_score, test_number) VALUES ('S1', 'Math', 64, 1)`)
			require.NoError(t, err)
			_, err = legacy.Exec(`INSERT INTO users (username, password, role) VALUES ('admin', ?, 'admin')`, werkzeugHash)
			require.NoError(t, err)
			require.NoError(t, legacy.Close())

			require.NoError(t, database.MigrateUp("sqlite", "sqlite3://"+path))
			db, err := database.NewSQLiteDB(ctx, path, zerolog.Nop())
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })
			students, users := NewStudentStore(db), NewUserStore(db)

			records, err := students.ListRecords(ctx)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, 64.0, records[0].AvgTestScore)

			u, err := users.GetByUsername(ctx, "admin")
			require.NoError(t, err)
			assert.Equal(t, werkzeugHash, u.PasswordHash)
			assert.False(t, u.CreatedAt.IsZero())

			require.NoError(t, users.Create(ctx, &model.User{Username: "mentor", PasswordHash: "$2a$04$x", Role: model.RoleMentor}))
			list, err := users.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "admin", list[0].Username)

			require.NoError(t, users.Delete(ctx, "admin"))
			require.NoError(t, users.Create(ctx, &model.User{Username: "admin", PasswordHash: "$2a$04$y", Role: model.RoleAdmin}))

			require.NoError(t, db.Close())
			db, err = database.NewSQLiteDB(ctx, path, zerolog.Nop())
			require.NoError(t, err, "reopening an upgraded file is a no-op")
			t.Cleanup(func() { db.Close() })
		})
	}
}
