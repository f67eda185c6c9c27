package handler

import (
	"context"
	"net/http"

	"github.com/dmcruz/eventhub/internal/model"
)

// EventService is the event surface the handlers need.
type EventService interface {
	Create(ctx context.Context, actorID int64, req model.CreateEventRequest) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	Get(ctx context.Context, id int64) (*model.Event, error)
	Update(ctx context.Context, id, actorID int64, actorIsAdmin bool, req model.UpdateEventRequest) (*model.Event, []int64, error)
}

// EventHandler holds the HTTP handlers for the event surface.
type EventHandler struct {
	svc EventService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

// Create handles POST /events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.Create(r.Context(), principal.UserID, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// List handles GET /events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// Get handles GET /events/{eventID}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event ID")
		return
	}

	event, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Update handles PUT /events/{eventID}
// Restricted to the event author or an admin. A capacity increase promotes
// waiting users inside the update transaction; the promoted ids are echoed
// back so admin tooling can display them.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := pathID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event ID")
		return
	}

	var req model.UpdateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, promoted, err := h.svc.Update(r.Context(), id, principal.UserID, principal.IsAdmin(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if promoted == nil {
		promoted = []int64{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"event":           event,
		"promotedUserIds": promoted,
	})
}
