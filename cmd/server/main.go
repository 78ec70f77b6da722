package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/notifyhub/desktop-notifier/internal/api"
	"github.com/notifyhub/desktop-notifier/internal/config"
	"github.com/notifyhub/desktop-notifier/internal/db"
	"github.com/notifyhub/desktop-notifier/internal/domain"
	"github.com/notifyhub/desktop-notifier/internal/metrics"
	"github.com/notifyhub/desktop-notifier/internal/notifier"
	"github.com/notifyhub/desktop-notifier/internal/queue"
	"github.com/notifyhub/desktop-notifier/internal/ratelimiter"
	"github.com/notifyhub/desktop-notifier/internal/repository"
	"github.com/notifyhub/desktop-notifier/internal/service"
	"github.com/notifyhub/desktop-notifier/internal/worker"
)

func main() {
	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		boot, _ := zap.NewProduction()
		boot.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := newLogger(cfg)
	if err != nil {
		boot, _ := zap.NewProduction()
		boot.Fatal("failed to build logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	// ---- storage ----
	repo, closeRepo := openRepository(ctx, cfg, logger)
	defer closeRepo()

	// Reminders caught mid-delivery by the last shutdown go back to pending.
	if n, err := repo.ResetInFlight(ctx); err != nil {
		logger.Fatal("failed to reset in-flight reminders", zap.Error(err))
	} else if n > 0 {
		logger.Info("in-flight reminders returned to pending", zap.Int64("count", n))
	}

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	q := queue.New(cfg.ReminderQueueSize)
	metrics.RegisterQueueDepth(reg, q.Depth)

	n := newNotifier(cfg, logger)
	limiter := ratelimiter.New(cfg.NotifyRateLimit)
	onReply, onError := m.NotifyHooks()
	notifySvc := service.NewNotifyService(n, limiter, domain.NotificationOptions{
		Sound:      cfg.NotifySound,
		Timeout:    cfg.NotifyTimeout,
		ReplyLabel: cfg.NotifyReplyLabel,
	}, service.NotifyHooks{OnReply: onReply, OnError: onError}, logger)
	reminderSvc := service.NewReminderService(repo, cfg.ReminderMaxRetries, logger)

	// ---- reminder delivery ----
	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	onFired, onRetried, onFailed := m.WorkerHooks()
	pool := worker.NewPool(cfg, q, repo, notifySvc, logger, worker.MetricHooks{
		OnFired:   onFired,
		OnRetried: onRetried,
		OnFailed:  onFailed,
	})
	pool.Start(workerCtx)

	schedulerW := worker.NewSchedulerWorker(repo, q, cfg.SchedulerInterval, logger)
	go schedulerW.Run(workerCtx)

	// ---- HTTP server ----
	router := api.NewRouter(notifySvc, reminderSvc, q, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting requests; open /notify calls get ShutdownTimeout to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop the scheduler and the delivery workers.
	cancelWorkers()

	// 3. Wait for in-flight deliveries to return.
	pool.Wait()

	logger.Info("server stopped cleanly")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if cfg.LogDevelopment {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}

// openRepository uses Postgres when DATABASE_URL is set and an in-process
// store otherwise.
func openRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.ReminderRepository, func()) {
	if cfg.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, reminders are kept in memory")
		return repository.NewMemoryReminderRepository(), func() {}
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		pool.Close()
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	return repository.NewPgReminderRepository(pool), pool.Close
}

// newNotifier picks the popup backend. A missing executable degrades to the
// log backend so the API stays reachable on headless hosts.
func newNotifier(cfg *config.Config, logger *zap.Logger) notifier.Notifier {
	backend := notifier.Backend(cfg.NotifierBackend)
	if backend == notifier.BackendLog {
		return notifier.NewLogNotifier(logger)
	}

	n, err := notifier.NewExecNotifier(backend, cfg.NotifierCommand, cfg.NotifyGrace, logger)
	if errors.Is(err, domain.ErrNotifierUnavailable) {
		logger.Warn("notification tool not found, falling back to log backend", zap.Error(err))
		return notifier.NewLogNotifier(logger)
	}
	if err != nil {
		logger.Fatal("failed to configure notifier", zap.Error(err))
	}

	logger.Info("notifier ready", zap.String("backend", string(notifier.ResolveBackend(backend))))
	return n
}
