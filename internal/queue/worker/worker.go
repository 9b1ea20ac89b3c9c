package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/shopsphere/internal/domain/job"
	"github.com/geocoder89/shopsphere/internal/domain/user"
	"github.com/geocoder89/shopsphere/internal/jobs"
	"github.com/geocoder89/shopsphere/internal/notifications"
	"github.com/geocoder89/shopsphere/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// DeliveryStore records one row per (kind, ref) so a retried job never sends
// the same notification twice.
type DeliveryStore interface {
	TryStart(ctx context.Context, kind, ref, jobID, recipient string) error
	MarkSent(ctx context.Context, kind, ref string) error
	MarkFailed(ctx context.Context, kind, ref, errMsg string) error
}

type Config struct {
	PollInterval  time.Duration
	WorkerID      string
	Concurrency   int
	ShutdownGrace time.Duration
	JobTimeout    time.Duration
	LockTTL       time.Duration
}

// Deps groups the worker's collaborators. Metrics, Prom and Log are optional.
type Deps struct {
	Jobs       JobsRepository
	Users      UserReader
	Deliveries DeliveryStore
	Notifier   notifications.Notifier
	Metrics    *observability.JobMetrics
	Prom       *observability.Prom
	Log        *slog.Logger
}

type Worker struct {
	cfg        Config
	repo       JobsRepository
	users      UserReader
	deliveries DeliveryStore
	notifier   notifications.Notifier
	metrics    *observability.JobMetrics
	prom       *observability.Prom
	log        *slog.Logger

	backoff func(attempt int) time.Duration

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, deps Deps) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 10 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = time.Minute
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewJobMetrics(string(jobs.JobOrderConfirmation), string(jobs.JobOrderStatusChanged))
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}

	return &Worker{
		cfg:        cfg,
		repo:       deps.Jobs,
		users:      deps.Users,
		deliveries: deps.Deliveries,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		prom:       deps.Prom,
		log:        deps.Log.With("worker_id", cfg.WorkerID),
		backoff:    ExponentialBackoff,
	}
}

func (w *Worker) Metrics() *observability.JobMetrics {
	return w.metrics
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) Ready() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}

// Run polls until ctx is cancelled, then waits up to ShutdownGrace for
// in-flight jobs. Jobs are processed on a context detached from ctx so a
// shutdown does not abort a half-sent notification.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	w.log.Info("worker started", "concurrency", w.cfg.Concurrency)

	jobCtx, cancelJobs := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelJobs()

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx, jobCtx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.requeueLoop(ctx)
	}()

	<-ctx.Done()
	w.setReady(false)
	w.log.Info("worker received shutdown signal")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(w.cfg.ShutdownGrace):
		cancelJobs()
		<-done
		w.log.Warn("shutdown grace elapsed, in-flight jobs cancelled")
		return nil
	}
}

func (w *Worker) loop(ctx, jobCtx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// drain while there is work
		for ctx.Err() == nil {
			processed, err := w.ProcessOne(jobCtx)
			if err != nil {
				w.log.Error("process job failed", "err", err)
			}
			if !processed {
				break
			}
		}
	}
}

func (w *Worker) requeueLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.LockTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.repo.RequeueStaleProcessing(ctx, w.cfg.LockTTL)
			if err != nil {
				w.log.Error("requeue stale jobs failed", "err", err)
				continue
			}
			if n > 0 {
				w.log.Warn("requeued stale jobs", "count", n)
			}
		}
	}
}
