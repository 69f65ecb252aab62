package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sihmvp/dropout-monitor/internal/model"
)

// AuditRepository writes the audit log on PostgreSQL.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Insert appends an entry.
func (r *AuditRepository) Insert(ctx context.Context, e *model.AuditEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO audit_log (actor, action, target, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		e.Actor, e.Action, e.Target, e.Detail, e.CreatedAt,
	).Scan(&e.ID)
}
