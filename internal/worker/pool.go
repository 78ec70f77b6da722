package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/notifyhub/desktop-notifier/internal/config"
	"github.com/notifyhub/desktop-notifier/internal/queue"
	"github.com/notifyhub/desktop-notifier/internal/repository"
)

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the pool constructor signature clean.
type MetricHooks struct {
	OnFired   func()
	OnRetried func()
	OnFailed  func()
}

// Pool manages the lifecycle of all delivery workers.
// All workers share the same queue.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
}

// NewPool creates cfg.ReminderWorkers identical workers.
func NewPool(
	cfg *config.Config,
	q *queue.Queue,
	repo repository.ReminderRepository,
	n Notifier,
	logger *zap.Logger,
	hooks MetricHooks,
) *Pool {
	workers := make([]*Worker, cfg.ReminderWorkers)

	for i := range workers {
		workers[i] = NewWorker(
			i, q, repo, n,
			cfg.RetryBackoff,
			logger.With(zap.Int("worker_id", i)),
			hooks,
		)
	}

	return &Pool{workers: workers}
}

// Start launches all workers as goroutines.
// The provided ctx is forwarded to every worker; cancelling it
// triggers a graceful shutdown of the entire pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has returned after ctx is cancelled.
func (p *Pool) Wait() {
	p.wg.Wait()
}
