package handler

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/notifyhub/desktop-notifier/internal/api/middleware"
	"github.com/notifyhub/desktop-notifier/internal/domain"
	"github.com/notifyhub/desktop-notifier/internal/service"
)

// NotifyHandler shows a desktop notification and answers with the user's
// interaction.
type NotifyHandler struct {
	svc    *service.NotifyService
	logger *zap.Logger
}

func NewNotifyHandler(svc *service.NotifyService, logger *zap.Logger) *NotifyHandler {
	return &NotifyHandler{svc: svc, logger: logger}
}

// Notify handles POST /notify
//
// The response is held open until the popup completes.
//
// @Summary  Show a desktop notification and wait for the reply
// @Tags     notifications
// @Accept   json
// @Produce  plain
// @Param    body  body      domain.NotifyRequest  false  "Title and message, both optional"
// @Success  200   {string}  string                "Reply text or activation type"
// @Failure  400   {object}  map[string]string
// @Failure  502   {object}  map[string]string
// @Failure  503   {object}  map[string]string
// @Failure  504   {object}  map[string]string
// @Router   /notify [post]
func (h *NotifyHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var req domain.NotifyRequest
	// An empty body means "use the placeholders".
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reply, err := h.svc.Notify(r.Context(), req)
	if err != nil {
		h.logger.Warn("notification failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, reply.Text())
}
