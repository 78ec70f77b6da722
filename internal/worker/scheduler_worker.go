package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/desktop-notifier/internal/domain"
	"github.com/notifyhub/desktop-notifier/internal/queue"
	"github.com/notifyhub/desktop-notifier/internal/repository"
)

const dueBatchSize = 100

// SchedulerWorker polls the repository for pending reminders whose fire_at
// has passed and enqueues them for delivery. Retries are rescheduled as
// pending with a later fire_at, so the same poll picks them up.
type SchedulerWorker struct {
	repo     repository.ReminderRepository
	q        *queue.Queue
	interval time.Duration
	logger   *zap.Logger
}

func NewSchedulerWorker(
	repo repository.ReminderRepository,
	q *queue.Queue,
	interval time.Duration,
	logger *zap.Logger,
) *SchedulerWorker {
	return &SchedulerWorker{repo: repo, q: q, interval: interval, logger: logger}
}

// Run ticks every interval and enqueues any reminders that are now due.
// Stops cleanly when ctx is cancelled.
func (sw *SchedulerWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	sw.logger.Info("scheduler worker started", zap.Duration("interval", sw.interval))

	for {
		select {
		case <-ctx.Done():
			sw.logger.Info("scheduler worker stopping")
			return
		case <-ticker.C:
			sw.Poll(ctx)
		}
	}
}

// Poll runs a single scheduling pass and returns how many reminders it
// enqueued.
func (sw *SchedulerWorker) Poll(ctx context.Context) int {
	now := time.Now().UTC()
	reminders, err := sw.repo.FindDue(ctx, now, dueBatchSize)
	if err != nil {
		sw.logger.Error("scheduler poll error", zap.Error(err))
		return 0
	}

	enqueued := 0
	for _, r := range reminders {
		// Claim before enqueueing so a worker never sees a queued item whose
		// row still says pending. The claim fails when the reminder was
		// edited or deleted after FindDue read it.
		claimed, err := sw.repo.ClaimDue(ctx, r.ID, now)
		if err != nil {
			sw.logger.Error("failed to claim due reminder",
				zap.String("id", r.ID), zap.Error(err))
			continue
		}
		if !claimed {
			sw.logger.Debug("due reminder changed before claim", zap.String("id", r.ID))
			continue
		}

		if err := sw.q.Enqueue(queue.Item{ReminderID: r.ID}); err != nil {
			sw.logger.Warn("could not enqueue due reminder",
				zap.String("id", r.ID), zap.Error(err))
			if err := sw.repo.UpdateStatus(ctx, r.ID, domain.ReminderPending); err != nil {
				sw.logger.Error("failed to revert status after enqueue failure",
					zap.String("id", r.ID), zap.Error(err))
			}
			continue
		}
		enqueued++
	}

	if enqueued > 0 {
		sw.logger.Info("enqueued due reminders", zap.Int("count", enqueued))
	}
	return enqueued
}
