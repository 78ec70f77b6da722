package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/notifyhub/desktop-notifier/internal/api/middleware"
	"github.com/notifyhub/desktop-notifier/internal/domain"
	"github.com/notifyhub/desktop-notifier/internal/service"
)

// ReminderHandler handles the reminder CRUD endpoints.
type ReminderHandler struct {
	svc    *service.ReminderService
	logger *zap.Logger
}

func NewReminderHandler(svc *service.ReminderService, logger *zap.Logger) *ReminderHandler {
	return &ReminderHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/reminders
//
// @Summary  Schedule a reminder
// @Tags     reminders
// @Accept   json
// @Produce  json
// @Param    body  body      domain.CreateReminderRequest  true  "Reminder payload"
// @Success  201   {object}  domain.Reminder
// @Failure  422   {object}  map[string]string
// @Router   /api/v1/reminders [post]
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rem, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.logger.Warn("create reminder failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rem)
}

// List handles GET /api/v1/reminders
//
// @Summary  Fetch reminders by id, or all reminders
// @Tags     reminders
// @Produce  json
// @Param    id   query     []string  false  "Reminder ids (repeatable)"
// @Success  200  {object}  map[string]any
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/reminders [get]
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.svc.Fetch(r.Context(), r.URL.Query()["id"])
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  reminders,
		"total": len(reminders),
	})
}

// GetByID handles GET /api/v1/reminders/{id}
//
// @Summary  Get a reminder by ID
// @Tags     reminders
// @Produce  json
// @Param    id   path      string  true  "Reminder UUID"
// @Success  200  {object}  domain.Reminder
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/reminders/{id} [get]
func (h *ReminderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	rem, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rem)
}

// Edit handles PATCH /api/v1/reminders/{id}
//
// @Summary  Edit a pending reminder
// @Tags     reminders
// @Accept   json
// @Produce  json
// @Param    id    path      string                      true  "Reminder UUID"
// @Param    body  body      domain.EditReminderRequest  true  "Fields to change"
// @Success  200   {object}  domain.Reminder
// @Failure  404   {object}  map[string]string
// @Failure  409   {object}  map[string]string
// @Failure  422   {object}  map[string]string
// @Router   /api/v1/reminders/{id} [patch]
func (h *ReminderHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req domain.EditReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rem, err := h.svc.Edit(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rem)
}

// Delete handles DELETE /api/v1/reminders?id=... and DELETE /api/v1/reminders/{id}
//
// @Summary  Delete reminders
// @Tags     reminders
// @Param    id   query     []string  false  "Reminder ids (repeatable)"
// @Success  204
// @Failure  404  {object}  map[string]string
// @Failure  422  {object}  map[string]string
// @Router   /api/v1/reminders [delete]
func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ids := r.URL.Query()["id"]
	if id := chi.URLParam(r, "id"); id != "" {
		ids = append(ids, id)
	}

	if err := h.svc.Delete(r.Context(), ids); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
