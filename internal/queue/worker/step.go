package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/shopsphere/internal/domain/job"
	"github.com/geocoder89/shopsphere/internal/jobs"
	"github.com/geocoder89/shopsphere/internal/notifications"
)

// errPermanent marks failures that no retry can fix.
var errPermanent = errors.New("permanent job failure")

// ProcessOne claims and runs at most one job. It reports whether a job was
// claimed.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}
		return false, err
	}

	w.metrics.IncClaimed(j.Type)
	start := time.Now()
	finish := w.prom.JobStarted()

	runCtx, cancelRun := context.WithTimeout(ctx, w.cfg.JobTimeout)
	err = w.execute(runCtx, j)
	cancelRun()

	w.metrics.ObserveDuration(j.Type, time.Since(start))

	if err != nil {
		finish(j.Type, w.handleFailure(ctx, j, err))
		return true, nil
	}

	if err := w.repo.MarkDone(ctx, j.ID); err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		finish(j.Type, "failed")
		return true, err
	}

	finish(j.Type, "done")
	w.metrics.IncDone(j.Type)
	w.log.InfoContext(ctx, "job done", "job_id", j.ID, "job_type", j.Type, "attempts", j.Attempts)
	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	payload, err := jobs.DecodePayload(j)
	if err != nil {
		return fmt.Errorf("%w: %v", errPermanent, err)
	}

	switch p := payload.(type) {
	case jobs.OrderConfirmationPayload:
		return w.deliver(ctx, j, "order_confirmation", p.OrderID, p.UserID, func(ctx context.Context, email, name string) error {
			return w.notifier.SendOrderConfirmation(ctx, notifications.OrderConfirmationInput{
				Email:      email,
				Name:       name,
				OrderID:    p.OrderID,
				TotalPrice: p.TotalPrice,
				ItemCount:  p.ItemCount,
			})
		})

	case jobs.OrderStatusChangedPayload:
		// one delivery per order and status
		ref := p.OrderID + ":" + p.Status
		return w.deliver(ctx, j, "order_status", ref, p.UserID, func(ctx context.Context, email, name string) error {
			return w.notifier.SendOrderStatusUpdate(ctx, notifications.OrderStatusInput{
				Email:   email,
				Name:    name,
				OrderID: p.OrderID,
				Status:  p.Status,
			})
		})

	default:
		return fmt.Errorf("%w: unhandled payload %T", errPermanent, payload)
	}
}

func (w *Worker) deliver(ctx context.Context, j job.Job, kind, ref, userID string, send func(ctx context.Context, email, name string) error) error {
	u, err := w.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}

	err = w.deliveries.TryStart(ctx, kind, ref, j.ID, u.Email)
	switch {
	case errors.Is(err, notifications.ErrAlreadySent):
		w.metrics.IncDuplicateSkipped(j.Type)
		w.log.InfoContext(ctx, "notification already sent", "job_id", j.ID, "kind", kind, "ref", ref)
		return nil
	case err != nil:
		return err
	}

	if err := send(ctx, u.Email, u.Name); err != nil {
		if mErr := w.deliveries.MarkFailed(ctx, kind, ref, err.Error()); mErr != nil {
			w.log.ErrorContext(ctx, "mark delivery failed", "job_id", j.ID, "err", mErr)
		}
		return err
	}

	return w.deliveries.MarkSent(ctx, kind, ref)
}

// handleFailure retries with backoff until MaxAttempts, then leaves the job
// failed for the admin endpoints to reprocess. It returns "retry" or "failed".
func (w *Worker) handleFailure(ctx context.Context, j job.Job, cause error) string {
	w.metrics.IncFailed(j.Type)
	msg := cause.Error()

	nextAttempt := j.Attempts + 1
	if errors.Is(cause, errPermanent) || nextAttempt >= j.MaxAttempts {
		w.metrics.IncDeadLettered(j.Type)
		w.log.ErrorContext(ctx, "job failed permanently", "job_id", j.ID, "job_type", j.Type, "attempts", nextAttempt, "err", msg)

		if err := w.repo.MarkFailed(ctx, j.ID, msg); err != nil {
			w.log.ErrorContext(ctx, "mark job failed", "job_id", j.ID, "err", err)
		}
		return "failed"
	}

	runAt := time.Now().Add(w.backoff(j.Attempts))
	w.metrics.IncRetried(j.Type)
	w.log.WarnContext(ctx, "job failed, rescheduled", "job_id", j.ID, "job_type", j.Type, "attempts", nextAttempt, "run_at", runAt, "err", msg)

	if err := w.repo.Reschedule(ctx, j.ID, runAt, msg); err != nil {
		w.log.ErrorContext(ctx, "reschedule job", "job_id", j.ID, "err", err)
	}
	return "retry"
}
