package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dmcruz/eventhub/internal/model"
	"github.com/dmcruz/eventhub/internal/service"
)

// NotificationService is the notification surface the handlers need.
type NotificationService interface {
	List(ctx context.Context, userID int64, q service.NotificationQuery) (*model.NotificationPage, error)
	SetRead(ctx context.Context, notificationID, userID int64, isRead bool) (*model.Notification, error)
}

// NotificationHandler holds the HTTP handlers for the authenticated user's
// notifications.
type NotificationHandler struct {
	svc NotificationService
}

// NewNotificationHandler constructs a NotificationHandler.
func NewNotificationHandler(svc NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List handles GET /notifications
// Query params: unreadOnly (default true), page (default 0), pageSize
// (default 10, max 50).
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	q := service.NotificationQuery{UnreadOnly: true, Page: 0, PageSize: 10}
	params := r.URL.Query()
	if v := params.Get("unreadOnly"); v != "" {
		q.UnreadOnly = v == "true"
	}
	if v := params.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid page number")
			return
		}
		q.Page = page
	}
	if v := params.Get("pageSize"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid page size")
			return
		}
		q.PageSize = size
	}

	page, err := h.svc.List(r.Context(), principal.UserID, q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// UpdateStatus handles PATCH /notifications/{notificationID}
func (h *NotificationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := pathID(r, "notificationID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification ID")
		return
	}

	var req model.UpdateNotificationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.IsRead == nil {
		writeError(w, http.StatusBadRequest, "'isRead' must be a boolean value")
		return
	}

	notification, err := h.svc.SetRead(r.Context(), id, principal.UserID, *req.IsRead)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notification)
}
