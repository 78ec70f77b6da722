package handler

import (
	"net/http"

	"github.com/notifyhub/desktop-notifier/internal/queue"
)

// MetricsHandler serves a human-readable JSON queue snapshot.
// Raw Prometheus metrics (counters, histograms) are available at /metrics
// via promhttp.Handler and are separate from this endpoint.
type MetricsHandler struct {
	q *queue.Queue
}

func NewMetricsHandler(q *queue.Queue) *MetricsHandler {
	return &MetricsHandler{q: q}
}

// GetMetrics handles GET /api/v1/metrics
//
// @Summary  Real-time reminder queue snapshot
// @Tags     metrics
// @Produce  json
// @Success  200  {object}  map[string]int
// @Router   /api/v1/metrics [get]
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]int{
		"queue_depth":    h.q.Depth(),
		"queue_capacity": h.q.Capacity(),
	})
}
