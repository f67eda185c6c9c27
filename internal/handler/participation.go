package handler

import (
	"context"
	"net/http"

	"github.com/dmcruz/eventhub/internal/model"
)

// ParticipationService is the registration surface the handlers need.
type ParticipationService interface {
	Register(ctx context.Context, eventID, userID int64) (*model.Participation, error)
	Cancel(ctx context.Context, eventID, userID int64) ([]int64, error)
	Participants(ctx context.Context, eventID int64) ([]model.Participation, error)
	Waiting(ctx context.Context, eventID int64) ([]model.WaitlistEntry, error)
}

// ParticipationHandler holds the HTTP handlers for event participation.
type ParticipationHandler struct {
	svc ParticipationService
}

// NewParticipationHandler constructs a ParticipationHandler.
func NewParticipationHandler(svc ParticipationService) *ParticipationHandler {
	return &ParticipationHandler{svc: svc}
}

// Register handles POST /events/{eventID}/participations
// Responds 201 when a seat was granted and 200 when the caller landed on the
// waiting list; the status field carries the same distinction.
func (h *ParticipationHandler) Register(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event ID")
		return
	}

	participation, err := h.svc.Register(r.Context(), eventID, principal.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if participation.Status == model.StatusWaitingList {
		status = http.StatusOK
	}
	writeJSON(w, status, participation)
}

// Cancel handles DELETE /events/{eventID}/participations
func (h *ParticipationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event ID")
		return
	}

	if _, err := h.svc.Cancel(r.Context(), eventID, principal.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListParticipants handles GET /events/{eventID}/participations
func (h *ParticipationHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event ID")
		return
	}

	participants, err := h.svc.Participants(r.Context(), eventID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if participants == nil {
		participants = []model.Participation{}
	}
	writeJSON(w, http.StatusOK, participants)
}

// ListWaiting handles GET /events/{eventID}/waiting-list
func (h *ParticipationHandler) ListWaiting(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event ID")
		return
	}

	entries, err := h.svc.Waiting(r.Context(), eventID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []model.WaitlistEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
