package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/shopsphere/internal/notifications"
	"github.com/geocoder89/shopsphere/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationDeliveriesRepo records one row per (kind, ref) so a retried job
// never emails a customer twice.
type NotificationDeliveriesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewNotificationDeliveriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *NotificationDeliveriesRepo {
	return &NotificationDeliveriesRepo{pool: pool, prom: prom}
}

func (r *NotificationDeliveriesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// TryStart claims the delivery for sending. It returns
// notifications.ErrAlreadySent or notifications.ErrInProgress when another
// attempt owns it.
func (r *NotificationDeliveriesRepo) TryStart(ctx context.Context, kind, ref, jobID, recipient string) error {
	err := r.observe("deliveries.insert", func() error {
		_, e := r.pool.Exec(ctx, `
			INSERT INTO notification_deliveries (kind, ref_id, job_id, recipient, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'sending', NOW(), NOW())
		`, kind, ref, jobID, recipient)
		return e
	})
	if err == nil {
		return nil
	}
	if !IsUniqueViolation(err) {
		return err
	}

	// only one worker can flip failed -> sending
	var tag pgconn.CommandTag
	err = r.observe("deliveries.reclaim_failed", func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `
			UPDATE notification_deliveries
			SET status = 'sending',
			    job_id = $3,
			    recipient = $4,
			    last_error = NULL,
			    updated_at = NOW()
			WHERE kind = $1 AND ref_id = $2 AND status = 'failed'
		`, kind, ref, jobID, recipient)
		return e
	})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var (
		status string
		sentAt *time.Time
	)
	err = r.observe("deliveries.get_status", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT status, sent_at
			FROM notification_deliveries
			WHERE kind = $1 AND ref_id = $2
		`, kind, ref).Scan(&status, &sentAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// row vanished between statements; let the caller retry
			return nil
		}
		return err
	}

	if sentAt != nil || status == "sent" {
		return notifications.ErrAlreadySent
	}

	return notifications.ErrInProgress
}

func (r *NotificationDeliveriesRepo) MarkSent(ctx context.Context, kind, ref string) error {
	return r.observe("deliveries.mark_sent", func() error {
		_, e := r.pool.Exec(ctx, `
			UPDATE notification_deliveries
			SET status = 'sent',
			    sent_at = NOW(),
			    last_error = NULL,
			    updated_at = NOW()
			WHERE kind = $1 AND ref_id = $2
		`, kind, ref)
		return e
	})
}

func (r *NotificationDeliveriesRepo) MarkFailed(ctx context.Context, kind, ref, errMsg string) error {
	return r.observe("deliveries.mark_failed", func() error {
		_, e := r.pool.Exec(ctx, `
			UPDATE notification_deliveries
			SET status = 'failed',
			    last_error = $3,
			    updated_at = NOW()
			WHERE kind = $1 AND ref_id = $2
		`, kind, ref, errMsg)
		return e
	})
}
