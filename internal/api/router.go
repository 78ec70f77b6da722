package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/notifyhub/desktop-notifier/internal/api/handler"
	apimw "github.com/notifyhub/desktop-notifier/internal/api/middleware"
	"github.com/notifyhub/desktop-notifier/internal/queue"
	"github.com/notifyhub/desktop-notifier/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	notifySvc *service.NotifyService,
	reminderSvc *service.ReminderService,
	q *queue.Queue,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)            // recover panics, return 500
	r.Use(chimw.RealIP)               // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1 << 20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)        // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	nh := handler.NewNotifyHandler(notifySvc, logger)
	rh := handler.NewReminderHandler(reminderSvc, logger)
	mh := handler.NewMetricsHandler(q)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)
	r.Post("/notify", nh.Notify)

	// Raw Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/reminders", rh.Create)
		r.Get("/reminders", rh.List)
		r.Delete("/reminders", rh.Delete)
		r.Get("/reminders/{id}", rh.GetByID)
		r.Patch("/reminders/{id}", rh.Edit)
		r.Delete("/reminders/{id}", rh.Delete)

		// JSON queue snapshot
		r.Get("/metrics", mh.GetMetrics)
	})

	return r
}
