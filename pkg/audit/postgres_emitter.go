package audit

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresEmitter persists events to the audit_events table. Pair it with
// AsyncEmitter when insert latency must stay off the request path.
type PostgresEmitter struct {
	pool *pgxpool.Pool
}

// NewPostgresEmitter creates an emitter over an established pool.
func NewPostgresEmitter(pool *pgxpool.Pool) *PostgresEmitter {
	if pool == nil {
		panic("audit: pgx pool cannot be nil")
	}
	return &PostgresEmitter{pool: pool}
}

// Emit inserts the event. Role pointers map to nullable columns.
func (p *PostgresEmitter) Emit(ctx context.Context, event Event) error {
	stamp(&event)
	if err := event.Validate(); err != nil {
		return err
	}

	var before, after *string
	if event.BeforeRole != nil {
		s := string(*event.BeforeRole)
		before = &s
	}
	if event.AfterRole != nil {
		s := string(*event.AfterRole)
		after = &s
	}

	_, err := p.pool.Exec(ctx,
		`INSERT INTO audit_events (id, type, actor_id, project_id, target_user_id, before_role, after_role, admin_bypass, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.Type, event.ActorID, event.ProjectID, event.TargetUserID,
		before, after, event.AdminBypass, event.CreatedAt)
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}
