package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/notifyhub/desktop-notifier/internal/domain"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	NotificationsCompleted *prometheus.CounterVec
	NotificationErrors     *prometheus.CounterVec
	NotificationWait       prometheus.Histogram
	RemindersFired         prometheus.Counter
	RemindersRetried       prometheus.Counter
	RemindersFailed        prometheus.Counter
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NotificationsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_completed_total",
			Help: "Popups that completed, by how the user ended them.",
		}, []string{"activation"}),

		NotificationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_errors_total",
			Help: "Popups the notification facility could not complete.",
		}, []string{"reason"}),

		NotificationWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notification_wait_seconds",
			Help:    "Time from showing a popup to its completion.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 15, 20, 30},
		}),

		RemindersFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_fired_total",
			Help: "Reminders whose popup completed.",
		}),
		RemindersRetried: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_retried_total",
			Help: "Reminder deliveries rescheduled after a facility error.",
		}),
		RemindersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_failed_total",
			Help: "Reminders that failed permanently (retries exhausted).",
		}),
	}

	reg.MustRegister(
		m.NotificationsCompleted,
		m.NotificationErrors,
		m.NotificationWait,
		m.RemindersFired,
		m.RemindersRetried,
		m.RemindersFailed,
	)

	return m
}

// RegisterQueueDepth exposes the reminder queue depth as a gauge sampled
// at scrape time.
func RegisterQueueDepth(reg prometheus.Registerer, depth func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "reminder_queue_depth",
		Help: "Current number of reminders waiting for a delivery worker.",
	}, func() float64 { return float64(depth()) }))
}

// NotifyHooks returns the callbacks expected by service.NotifyHooks.
// Centralises the prometheus observation calls so the service stays import-free.
func (m *Metrics) NotifyHooks() (
	onReply func(domain.ActivationType, time.Duration),
	onError func(error),
) {
	onReply = func(a domain.ActivationType, wait time.Duration) {
		m.NotificationsCompleted.WithLabelValues(string(a)).Inc()
		m.NotificationWait.Observe(wait.Seconds())
	}
	onError = func(err error) {
		m.NotificationErrors.WithLabelValues(ErrorReason(err)).Inc()
	}
	return
}

// WorkerHooks returns the callbacks expected by worker.MetricHooks.
func (m *Metrics) WorkerHooks() (onFired, onRetried, onFailed func()) {
	onFired = m.RemindersFired.Inc
	onRetried = m.RemindersRetried.Inc
	onFailed = m.RemindersFailed.Inc
	return
}

// ErrorReason maps a notification error to a low-cardinality label value.
func ErrorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotifierTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrNotifierUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrNotifierFailed):
		return "failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
