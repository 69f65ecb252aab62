package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sihmvp/dropout-monitor/internal/config"
	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/repository"
)

// AuditQueue pushes entries onto persist_audit_queue for AuditWorker.
type AuditQueue struct {
	rdb *redis.Client
}

// NewAuditQueue creates an AuditQueue.
func NewAuditQueue(rdb *redis.Client) *AuditQueue {
	return &AuditQueue{rdb: rdb}
}

// Record enqueues e.
func (q *AuditQueue) Record(ctx context.Context, e model.AuditEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	return q.rdb.RPush(ctx, config.WorkerKey.PersistAuditQueue, payload).Err()
}

// DirectAuditWriter persists entries synchronously. It is used when Redis
// is not configured.
type DirectAuditWriter struct {
	store repository.AuditStore
}

// NewDirectAuditWriter creates a DirectAuditWriter.
func NewDirectAuditWriter(store repository.AuditStore) *DirectAuditWriter {
	return &DirectAuditWriter{store: store}
}

// Record writes e immediately.
func (w *DirectAuditWriter) Record(ctx context.Context, e model.AuditEntry) error {
	return w.store.Insert(ctx, &e)
}

// AuditWorker consumes persist_audit_queue and writes entries to the AuditStore.
type AuditWorker struct {
	store      repository.AuditStore
	rdb        *redis.Client
	log        zerolog.Logger
	retryDelay time.Duration
}

// NewAuditWorker creates a new AuditWorker.
func NewAuditWorker(store repository.AuditStore, rdb *redis.Client, log zerolog.Logger) *AuditWorker {
	return &AuditWorker{
		store:      store,
		rdb:        rdb,
		log:        log.With().Str("component", "audit_worker").Logger(),
		retryDelay: 5 * time.Second,
	}
}

// Start runs the worker loop until ctx is cancelled. Call in a goroutine.
func (w *AuditWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AuditWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistAuditQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	var entry model.AuditEntry
	if err := json.Unmarshal([]byte(result[1]), &entry); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.store.Insert(ctx, &entry); err != nil {
		w.log.Error().Err(err).
			Str("action", entry.Action).
			Str("target", entry.Target).
			Msg("Persist error, retrying")
		w.rdb.RPush(ctx, config.WorkerKey.PersistAuditQueue, result[1])
		select {
		case <-ctx.Done():
		case <-time.After(w.retryDelay):
		}
	}
}

// drain persists what is left in the queue before shutdown.
func (w *AuditWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.PersistAuditQueue).Result()
		if err != nil {
			break
		}

		var entry model.AuditEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}
		if err := w.store.Insert(ctx, &entry); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistAuditQueue, raw)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
