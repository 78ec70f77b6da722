package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/desktop-notifier/internal/domain"
	"github.com/notifyhub/desktop-notifier/internal/queue"
	"github.com/notifyhub/desktop-notifier/internal/repository"
)

// Notifier shows a popup and waits for its completion.
// *service.NotifyService satisfies it.
type Notifier interface {
	Notify(ctx context.Context, req domain.NotifyRequest) (*domain.Reply, error)
}

// Worker is a single goroutine that continuously pulls reminders from the
// queue, shows them through the notifier and records the outcome, handling
// retry scheduling on failure.
type Worker struct {
	id       int
	q        *queue.Queue
	repo     repository.ReminderRepository
	notifier Notifier
	backoff  []time.Duration
	logger   *zap.Logger
	hooks    MetricHooks
}

// NewWorker constructs a worker. Nil hooks are no-ops.
func NewWorker(
	id int,
	q *queue.Queue,
	repo repository.ReminderRepository,
	n Notifier,
	backoff []time.Duration,
	logger *zap.Logger,
	hooks MetricHooks,
) *Worker {
	if hooks.OnFired == nil {
		hooks.OnFired = func() {}
	}
	if hooks.OnRetried == nil {
		hooks.OnRetried = func() {}
	}
	if hooks.OnFailed == nil {
		hooks.OnFailed = func() {}
	}
	return &Worker{
		id: id, q: q, repo: repo, notifier: n,
		backoff: backoff, logger: logger, hooks: hooks,
	}
}

// Run blocks until ctx is cancelled, processing one queue item per iteration.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker started", zap.Int("id", w.id))
	for {
		item, ok := w.q.Dequeue(ctx)
		if !ok {
			w.logger.Info("worker stopping", zap.Int("id", w.id))
			return
		}
		w.process(ctx, item)
	}
}

func (w *Worker) process(ctx context.Context, item queue.Item) {
	log := w.logger.With(zap.String("reminder_id", item.ReminderID))

	r, err := w.repo.GetByID(ctx, item.ReminderID)
	if errors.Is(err, domain.ErrNotFound) {
		// Deleted between scheduling and processing; nothing to show.
		log.Debug("reminder was deleted before processing")
		return
	}
	if err != nil {
		log.Error("failed to fetch reminder", zap.Error(err))
		return
	}
	if r.Status != domain.ReminderQueued {
		log.Debug("reminder is no longer queued", zap.String("status", string(r.Status)))
		return
	}

	if err := w.repo.UpdateStatus(ctx, r.ID, domain.ReminderNotifying); err != nil {
		log.Error("failed to mark as notifying", zap.Error(err))
		return
	}

	reply, err := w.notifier.Notify(ctx, domain.NotifyRequest{Title: r.Title, Message: r.Message})
	if err != nil {
		if ctx.Err() != nil {
			// Shutting down; ResetInFlight returns the reminder to pending
			// on the next start.
			return
		}
		log.Warn("reminder notification failed", zap.Error(err), zap.Int("attempts", r.Attempts))
		w.handleFailure(ctx, r, err)
		return
	}

	if err := w.repo.MarkFired(ctx, r.ID, *reply, time.Now().UTC()); err != nil {
		log.Error("failed to mark as fired", zap.Error(err))
		return
	}

	w.hooks.OnFired()
	log.Info("reminder fired", zap.String("activation", string(reply.Type)))
}

// handleFailure either schedules a retry (if retries remain) or marks the
// reminder as permanently failed.
//
// Retry schedule:
//
//	attempt 0 → backoff[0]  (default 5 s)
//	attempt 1 → backoff[1]  (default 30 s)
//	attempt 2 → backoff[2]  (default 120 s)
//	attempt N ≥ len(backoff) → last backoff entry (clamped)
func (w *Worker) handleFailure(ctx context.Context, r *domain.Reminder, notifyErr error) {
	attempts := r.Attempts + 1
	if r.Attempts >= r.MaxRetries {
		if err := w.repo.MarkFailed(ctx, r.ID, attempts, notifyErr.Error()); err != nil {
			w.logger.Error("failed to mark reminder as failed",
				zap.String("id", r.ID), zap.Error(err))
			return
		}
		w.hooks.OnFailed()
		return
	}

	fireAt := time.Now().UTC().Add(w.backoffFor(r.Attempts))
	if err := w.repo.ScheduleRetry(ctx, r.ID, attempts, fireAt, notifyErr.Error()); err != nil {
		w.logger.Error("failed to schedule retry",
			zap.String("id", r.ID), zap.Error(err))
		return
	}
	w.hooks.OnRetried()
}

func (w *Worker) backoffFor(attempt int) time.Duration {
	if len(w.backoff) == 0 {
		return 0
	}
	if attempt >= len(w.backoff) {
		attempt = len(w.backoff) - 1
	}
	return w.backoff[attempt]
}
