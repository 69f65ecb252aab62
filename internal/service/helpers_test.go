package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sihmvp/dropout-monitor/internal/cache"
	"github.com/sihmvp/dropout-monitor/internal/config"
	"github.com/sihmvp/dropout-monitor/internal/events"
	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/repository/memory"
	"github.com/sihmvp/dropout-monitor/internal/worker"
)

type testEnv struct {
	db       *memory.DB
	bus      *events.LocalBus
	cache    *cache.MemoryRosterCache
	sessions *cache.MemorySessionStore
	auth     *AuthService
	students *StudentService
	ingest   *IngestService
	users    *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: 4}

	db := memory.Open()
	env := &testEnv{
		db:       db,
		bus:      events.NewLocalBus(),
		cache:    cache.NewMemoryRosterCache(time.Minute),
		sessions: cache.NewMemorySessionStore(),
	}
	studentStore := memory.NewStudentStore(db)
	audit := worker.NewDirectAuditWriter(memory.NewAuditStore(db))
	log := zerolog.Nop()

	env.auth = NewAuthService(cfg, memory.NewUserStore(db), env.sessions)
	env.students = NewStudentService(studentStore, env.cache, env.bus, audit, log)
	env.ingest = NewIngestService(studentStore, env.cache, env.bus, audit, log)
	env.users = NewUserService(memory.NewUserStore(db), env.auth, audit, log)
	return env
}

func (e *testEnv) seedStudents(t *testing.T) {
	t.Helper()
	err := memory.NewStudentStore(e.db).BulkInsert(context.Background(),
		[]model.Student{
			{StudentID: "S1", AttendancePercentage: 60, FeeStatus: model.FeePaid},
			{StudentID: "S2", AttendancePercentage: 95, FeeStatus: model.FeePaid},
			{StudentID: "X3", AttendancePercentage: 90, FeeStatus: model.FeeOverdue},
		},
		[]model.TestScore{
			{StudentID: "S1", Subject: "Math", TestScore: 40, TestNumber: 1},
			{StudentID: "S1", Subject: "Math", TestScore: 45, TestNumber: 2},
			{StudentID: "S2", Subject: "Math", TestScore: 88, TestNumber: 1},
			{StudentID: "X3", Subject: "Math", TestScore: 70, TestNumber: 1},
		})
	require.NoError(t, err)
}

func (e *testEnv) addUser(t *testing.T, username, password string, role model.Role) {
	t.Helper()
	_, err := e.users.Register(context.Background(), "test", model.RegisterRequest{Username: username, Password: password, Role: role})
	require.NoError(t, err)
}
