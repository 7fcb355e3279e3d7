package handler

import (
	"net/http"

	"library-client/internal/devapi"
	"library-client/internal/domain"
	"library-client/internal/middleware"
)

// NotificationHandler serves the token user's notifications
type NotificationHandler struct {
	lib *devapi.Library
}

func NewNotificationHandler(lib *devapi.Library) *NotificationHandler {
	return &NotificationHandler{lib: lib}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeError(w, r, domain.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, h.lib.Notifications(user))
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeError(w, r, domain.ErrUnauthenticated)
		return
	}
	h.lib.MarkAllRead(user)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
