// Package bootstrap assembles stores and services from configuration. The
// server and the tooling commands share it so every entry point sees the same
// driver selection and Redis fallbacks.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sihmvp/dropout-monitor/internal/cache"
	"github.com/sihmvp/dropout-monitor/internal/config"
	"github.com/sihmvp/dropout-monitor/internal/database"
	"github.com/sihmvp/dropout-monitor/internal/events"
	"github.com/sihmvp/dropout-monitor/internal/repository"
	"github.com/sihmvp/dropout-monitor/internal/repository/memory"
	"github.com/sihmvp/dropout-monitor/internal/repository/sqlite"
	"github.com/sihmvp/dropout-monitor/internal/service"
	"github.com/sihmvp/dropout-monitor/internal/worker"
)

// Stores bundles the persistence layer for one DB_DRIVER.
type Stores struct {
	Students repository.StudentStore
	Users    repository.UserStore
	Audit    repository.AuditStore
	closers  []func()
}

// Close releases the underlying connections.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// OpenStores connects the configured driver, running migrations first when
// AUTO_MIGRATE is on.
func OpenStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	if cfg.AutoMigrate && cfg.DBDriver != config.DriverMemory {
		if err := database.MigrateUp(cfg.DBDriver, cfg.MigrationURL()); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info().Str("driver", cfg.DBDriver).Msg("Migrations applied")
	}

	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.MaxDBConns, log)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Students: repository.NewStudentRepository(pool),
			Users:    repository.NewUserRepository(pool),
			Audit:    repository.NewAuditRepository(pool),
			closers:  []func(){pool.Close},
		}, nil

	case config.DriverSQLite:
		db, err := database.NewSQLiteDB(ctx, cfg.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Students: sqlite.NewStudentStore(db),
			Users:    sqlite.NewUserStore(db),
			Audit:    sqlite.NewAuditStore(db),
			closers:  []func(){func() { _ = db.Close() }},
		}, nil

	case config.DriverMemory:
		db := memory.Open()
		log.Warn().Msg("Using in-memory storage, data is lost on exit")
		return &Stores{
			Students: memory.NewStudentStore(db),
			Users:    memory.NewUserStore(db),
			Audit:    memory.NewAuditStore(db),
		}, nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

// Services is the wired service layer plus the shared infrastructure the
// handlers need directly.
type Services struct {
	Auth    *service.AuthService
	Student *service.StudentService
	Ingest  *service.IngestService
	User    *service.UserService
	Bus     events.Bus

	// AuditWorker is nil when audit entries are written synchronously.
	AuditWorker *worker.AuditWorker
	rdb         *redis.Client
}

// Close releases the Redis connection, if any.
func (s *Services) Close() {
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
}

// NewServices wires the services over stores. With REDIS_URL set, the roster
// cache, sessions, event bus and audit queue live in Redis; otherwise
// in-process equivalents are used.
func NewServices(ctx context.Context, cfg *config.Config, log zerolog.Logger, stores *Stores) (*Services, error) {
	var (
		rosterCache cache.RosterCache
		sessions    cache.SessionStore
		bus         events.Bus
		audit       service.AuditRecorder
		auditWorker *worker.AuditWorker
		rdb         *redis.Client
	)

	if cfg.RedisURL != "" {
		var err error
		rdb, err = database.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, err
		}
		rosterCache = cache.NewRedisRosterCache(rdb, cfg.RosterCacheTTL)
		sessions = cache.NewRedisSessionStore(rdb)
		bus = events.NewRedisBus(rdb, log)
		audit = worker.NewAuditQueue(rdb)
		auditWorker = worker.NewAuditWorker(stores.Audit, rdb, log)
	} else {
		log.Warn().Msg("REDIS_URL not set, using in-process cache, sessions and events")
		rosterCache = cache.NewMemoryRosterCache(cfg.RosterCacheTTL)
		sessions = cache.NewMemorySessionStore()
		bus = events.NewLocalBus()
		audit = worker.NewDirectAuditWriter(stores.Audit)
	}

	authService := service.NewAuthService(cfg, stores.Users, sessions)
	return &Services{
		Auth:        authService,
		Student:     service.NewStudentService(stores.Students, rosterCache, bus, audit, log),
		Ingest:      service.NewIngestService(stores.Students, rosterCache, bus, audit, log),
		User:        service.NewUserService(stores.Users, authService, audit, log),
		Bus:         bus,
		AuditWorker: auditWorker,
		rdb:         rdb,
	}, nil
}
