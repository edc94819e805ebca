package handler

import (
	"log/slog"
	"net/http"

	"github.com/enockm/productivity-tracker/internal/service"
)

// NotificationHandler serves the dashboard notification digest.
type NotificationHandler struct {
	notifications *service.NotificationService
	logger        *slog.Logger
}

func NewNotificationHandler(notifications *service.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// HandleDigest computes and returns the full notification payload: counts,
// capped detail lists, insights with streaks, and the summary line. Computed
// fresh on every call.
//
// HTTP: GET /api/notifications
func (h *NotificationHandler) HandleDigest(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	digest, err := h.notifications.Digest(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, digest)
}
