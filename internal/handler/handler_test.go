package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmcruz/eventhub/internal/model"
	"github.com/dmcruz/eventhub/internal/repository"
	"github.com/dmcruz/eventhub/internal/service"
)

const testSecret = "test-secret"

// ─── Service stubs ────────────────────────────────────────────────────────────

type stubEventService struct {
	getFn    func(ctx context.Context, id int64) (*model.Event, error)
	updateFn func(ctx context.Context, id, actorID int64, actorIsAdmin bool, req model.UpdateEventRequest) (*model.Event, []int64, error)
}

func (s *stubEventService) Create(ctx context.Context, actorID int64, req model.CreateEventRequest) (*model.Event, error) {
	return &model.Event{ID: 1, Title: req.Title, CreatedBy: actorID}, nil
}

func (s *stubEventService) List(ctx context.Context) ([]model.Event, error) { return nil, nil }

func (s *stubEventService) Get(ctx context.Context, id int64) (*model.Event, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (s *stubEventService) Update(ctx context.Context, id, actorID int64, actorIsAdmin bool, req model.UpdateEventRequest) (*model.Event, []int64, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, actorID, actorIsAdmin, req)
	}
	return nil, nil, repository.ErrNotFound
}

type stubParticipationService struct {
	registerFn func(ctx context.Context, eventID, userID int64) (*model.Participation, error)
	cancelFn   func(ctx context.Context, eventID, userID int64) ([]int64, error)
}

func (s *stubParticipationService) Register(ctx context.Context, eventID, userID int64) (*model.Participation, error) {
	return s.registerFn(ctx, eventID, userID)
}

func (s *stubParticipationService) Cancel(ctx context.Context, eventID, userID int64) ([]int64, error) {
	return s.cancelFn(ctx, eventID, userID)
}

func (s *stubParticipationService) Participants(ctx context.Context, eventID int64) ([]model.Participation, error) {
	return nil, nil
}

func (s *stubParticipationService) Waiting(ctx context.Context, eventID int64) ([]model.WaitlistEntry, error) {
	return nil, nil
}

type stubNotificationService struct {
	setReadFn func(ctx context.Context, notificationID, userID int64, isRead bool) (*model.Notification, error)
}

func (s *stubNotificationService) List(ctx context.Context, userID int64, q service.NotificationQuery) (*model.NotificationPage, error) {
	return &model.NotificationPage{Data: []model.Notification{}}, nil
}

func (s *stubNotificationService) SetRead(ctx context.Context, notificationID, userID int64, isRead bool) (*model.Notification, error) {
	if s.setReadFn != nil {
		return s.setReadFn(ctx, notificationID, userID, isRead)
	}
	return &model.Notification{ID: notificationID, IsRead: isRead}, nil
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func newTestRouter(events *stubEventService, participations *stubParticipationService, notifications *stubNotificationService) http.Handler {
	if events == nil {
		events = &stubEventService{}
	}
	if participations == nil {
		participations = &stubParticipationService{}
	}
	if notifications == nil {
		notifications = &stubNotificationService{}
	}
	return NewRouter(
		NewEventHandler(events),
		NewParticipationHandler(participations),
		NewNotificationHandler(notifications),
		testSecret,
		zerolog.Nop(),
	)
}

func signToken(t *testing.T, userID int64, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"role":   role,
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

// ─── Registration endpoint ────────────────────────────────────────────────────

func TestRegisterConfirmedReturns201(t *testing.T) {
	participations := &stubParticipationService{
		registerFn: func(ctx context.Context, eventID, userID int64) (*model.Participation, error) {
			return &model.Participation{
				EventID:          eventID,
				UserID:           userID,
				Status:           model.StatusConfirmed,
				ConfirmationCode: "b5d1c6e2-0000-0000-0000-000000000000",
				RegisteredAt:     time.Now(),
			}, nil
		},
	}
	router := newTestRouter(nil, participations, nil)

	rec := doRequest(t, router, http.MethodPost, "/events/5/participations", signToken(t, 42, "user"), "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var got model.Participation
	decodeBody(t, rec, &got)
	assert.Equal(t, model.StatusConfirmed, got.Status)
	assert.Equal(t, int64(5), got.EventID)
	assert.Equal(t, int64(42), got.UserID)
}

func TestRegisterWaitlistedReturns200(t *testing.T) {
	participations := &stubParticipationService{
		registerFn: func(ctx context.Context, eventID, userID int64) (*model.Participation, error) {
			return &model.Participation{
				EventID:      eventID,
				UserID:       userID,
				Status:       model.StatusWaitingList,
				RegisteredAt: time.Now(),
			}, nil
		},
	}
	router := newTestRouter(nil, participations, nil)

	rec := doRequest(t, router, http.MethodPost, "/events/5/participations", signToken(t, 42, "user"), "")
	require.Equal(t, http.StatusOK, rec.Code, "waitlisted registration must stay distinguishable from a confirmed one")

	var got model.Participation
	decodeBody(t, rec, &got)
	assert.Equal(t, model.StatusWaitingList, got.Status)
}

func TestRegisterRequiresAuthentication(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := doRequest(t, router, http.MethodPost, "/events/5/participations", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/events/5/participations", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"event not found", repository.ErrNotFound, http.StatusNotFound},
		{"already registered", repository.ErrAlreadyRegistered, http.StatusBadRequest},
		{"already waitlisted", repository.ErrAlreadyWaitlisted, http.StatusBadRequest},
		{"event occurred", repository.ErrEventOccurred, http.StatusBadRequest},
		{"invalid capacity", repository.ErrInvalidCapacity, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			participations := &stubParticipationService{
				registerFn: func(ctx context.Context, eventID, userID int64) (*model.Participation, error) {
					return nil, tt.err
				},
			}
			router := newTestRouter(nil, participations, nil)

			rec := doRequest(t, router, http.MethodPost, "/events/5/participations", signToken(t, 42, "user"), "")
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRegisterInvalidEventID(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := doRequest(t, router, http.MethodPost, "/events/abc/participations", signToken(t, 42, "user"), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ─── Cancellation endpoint ────────────────────────────────────────────────────

func TestCancelReturns204(t *testing.T) {
	participations := &stubParticipationService{
		cancelFn: func(ctx context.Context, eventID, userID int64) ([]int64, error) {
			return []int64{7}, nil
		},
	}
	router := newTestRouter(nil, participations, nil)

	rec := doRequest(t, router, http.MethodDelete, "/events/5/participations", signToken(t, 42, "user"), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestCancelErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"event not found", repository.ErrNotFound, http.StatusNotFound},
		{"not registered", repository.ErrNotRegistered, http.StatusBadRequest},
		{"event occurred", repository.ErrEventOccurred, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			participations := &stubParticipationService{
				cancelFn: func(ctx context.Context, eventID, userID int64) ([]int64, error) {
					return nil, tt.err
				},
			}
			router := newTestRouter(nil, participations, nil)

			rec := doRequest(t, router, http.MethodDelete, "/events/5/participations", signToken(t, 42, "user"), "")
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCancelRequiresAuthentication(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := doRequest(t, router, http.MethodDelete, "/events/5/participations", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ─── Event endpoints ──────────────────────────────────────────────────────────

func TestGetEventNotFound(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := doRequest(t, router, http.MethodGet, "/events/99", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateEventForbidden(t *testing.T) {
	events := &stubEventService{
		updateFn: func(ctx context.Context, id, actorID int64, actorIsAdmin bool, req model.UpdateEventRequest) (*model.Event, []int64, error) {
			return nil, nil, repository.ErrForbidden
		},
	}
	router := newTestRouter(events, nil, nil)

	body := `{"title":"New","description":"","maxParticipants":5,"scheduledAt":"2030-01-01T10:00:00Z"}`
	rec := doRequest(t, router, http.MethodPut, "/events/5", signToken(t, 42, "user"), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateEventEchoesPromotedUsers(t *testing.T) {
	events := &stubEventService{
		updateFn: func(ctx context.Context, id, actorID int64, actorIsAdmin bool, req model.UpdateEventRequest) (*model.Event, []int64, error) {
			return &model.Event{ID: id, Title: req.Title}, []int64{8, 9}, nil
		},
	}
	router := newTestRouter(events, nil, nil)

	body := `{"title":"Bigger room","description":"","maxParticipants":50,"scheduledAt":"2030-01-01T10:00:00Z"}`
	rec := doRequest(t, router, http.MethodPut, "/events/5", signToken(t, 42, "user"), body)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		PromotedUserIDs []int64 `json:"promotedUserIds"`
	}
	decodeBody(t, rec, &got)
	assert.Equal(t, []int64{8, 9}, got.PromotedUserIDs)
}

func TestCreateEventRejectsUnknownFields(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := doRequest(t, router, http.MethodPost, "/events", signToken(t, 42, "user"), `{"bogus":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ─── Notification endpoints ───────────────────────────────────────────────────

func TestNotificationsRequireAuthentication(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := doRequest(t, router, http.MethodGet, "/notifications", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNotificationsList(t *testing.T) {
	router := newTestRouter(nil, nil, &stubNotificationService{})

	rec := doRequest(t, router, http.MethodGet, "/notifications?unreadOnly=false&page=0&pageSize=10", signToken(t, 42, "user"), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateNotificationForbidden(t *testing.T) {
	notifications := &stubNotificationService{
		setReadFn: func(ctx context.Context, notificationID, userID int64, isRead bool) (*model.Notification, error) {
			return nil, repository.ErrForbidden
		},
	}
	router := newTestRouter(nil, nil, notifications)

	rec := doRequest(t, router, http.MethodPatch, "/notifications/3", signToken(t, 42, "user"), `{"isRead":true}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateNotificationRequiresIsRead(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := doRequest(t, router, http.MethodPatch, "/notifications/3", signToken(t, 42, "user"), `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ─── Health ───────────────────────────────────────────────────────────────────

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := doRequest(t, router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
