// Package service implements business validation and orchestration between
// HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmcruz/eventhub/internal/model"
)

// ErrInvalid marks request validation failures. Handlers map it to 400.
var ErrInvalid = errors.New("invalid request")

// EventStore is the event persistence surface the service needs.
type EventStore interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	GetByID(ctx context.Context, id int64) (*model.Event, error)
	Update(ctx context.Context, id, actorID int64, actorIsAdmin bool, req model.UpdateEventRequest) (*model.Event, []int64, error)
}

// ParticipationStore is the ledger surface the service needs.
type ParticipationStore interface {
	Register(ctx context.Context, eventID, userID int64) (*model.Participation, error)
	Cancel(ctx context.Context, eventID, userID int64) ([]int64, error)
	ListByEvent(ctx context.Context, eventID int64) ([]model.Participation, error)
	ListWaiting(ctx context.Context, eventID int64) ([]model.WaitlistEntry, error)
}

// NotificationStore is the notification read surface the service needs.
type NotificationStore interface {
	ListForUser(ctx context.Context, userID int64, unreadOnly bool, page, pageSize int) ([]model.Notification, int, error)
	SetRead(ctx context.Context, notificationID, userID int64, isRead bool) (*model.Notification, error)
}

// EventService orchestrates event operations.
type EventService struct {
	events EventStore
}

// NewEventService constructs an EventService.
func NewEventService(events EventStore) *EventService {
	return &EventService{events: events}
}

// Create validates the request and persists a new event owned by actorID.
func (s *EventService) Create(ctx context.Context, actorID int64, req model.CreateEventRequest) (*model.Event, error) {
	if err := validateEventFields(req.Title, req.MaxParticipants, req.ScheduledAt); err != nil {
		return nil, err
	}
	return s.events.Create(ctx, &model.Event{
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		MaxParticipants: req.MaxParticipants,
		ScheduledAt:     req.ScheduledAt,
		CreatedBy:       actorID,
	})
}

// List returns all events.
func (s *EventService) List(ctx context.Context) ([]model.Event, error) {
	return s.events.List(ctx)
}

// Get returns a single event by id.
func (s *EventService) Get(ctx context.Context, id int64) (*model.Event, error) {
	return s.events.GetByID(ctx, id)
}

// Update validates and applies an event update on behalf of the actor.
// Returns the updated event and the ids of users promoted from the waiting
// list when the capacity change freed slots.
func (s *EventService) Update(ctx context.Context, id, actorID int64, actorIsAdmin bool, req model.UpdateEventRequest) (*model.Event, []int64, error) {
	if err := validateEventFields(req.Title, req.MaxParticipants, req.ScheduledAt); err != nil {
		return nil, nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	return s.events.Update(ctx, id, actorID, actorIsAdmin, req)
}

func validateEventFields(title string, maxParticipants *int, scheduledAt time.Time) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if maxParticipants != nil && *maxParticipants <= 0 {
		return fmt.Errorf("%w: maxParticipants must be null or a positive integer", ErrInvalid)
	}
	if scheduledAt.IsZero() {
		return fmt.Errorf("%w: scheduledAt is required", ErrInvalid)
	}
	return nil
}

// ParticipationService orchestrates registration, cancellation and ledger
// reads. The hard work (capacity decision, promotion, notification
// coupling) happens inside the repository transactions; this layer passes
// domain errors through untouched so handlers can map HTTP statuses.
type ParticipationService struct {
	events         EventStore
	participations ParticipationStore
}

// NewParticipationService constructs a ParticipationService.
func NewParticipationService(events EventStore, participations ParticipationStore) *ParticipationService {
	return &ParticipationService{events: events, participations: participations}
}

// Register registers the user for the event. The returned participation's
// Status tells the caller whether a seat was granted or the user was
// waitlisted; the two outcomes must stay distinguishable.
func (s *ParticipationService) Register(ctx context.Context, eventID, userID int64) (*model.Participation, error) {
	return s.participations.Register(ctx, eventID, userID)
}

// Cancel removes the user's participation or waiting list entry.
func (s *ParticipationService) Cancel(ctx context.Context, eventID, userID int64) ([]int64, error) {
	return s.participations.Cancel(ctx, eventID, userID)
}

// Participants returns the event's confirmed participants.
func (s *ParticipationService) Participants(ctx context.Context, eventID int64) ([]model.Participation, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.participations.ListByEvent(ctx, eventID)
}

// Waiting returns the event's waiting list in promotion order.
func (s *ParticipationService) Waiting(ctx context.Context, eventID int64) ([]model.WaitlistEntry, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.participations.ListWaiting(ctx, eventID)
}

// NotificationQuery carries the list filters after parsing.
type NotificationQuery struct {
	UnreadOnly bool
	Page       int
	PageSize   int
}

// NotificationService exposes the authenticated user's notifications.
type NotificationService struct {
	notifications NotificationStore
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(notifications NotificationStore) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// List returns one page of the user's notifications.
func (s *NotificationService) List(ctx context.Context, userID int64, q NotificationQuery) (*model.NotificationPage, error) {
	if q.Page < 0 {
		return nil, fmt.Errorf("%w: invalid page number", ErrInvalid)
	}
	if q.PageSize < 1 || q.PageSize > 50 {
		return nil, fmt.Errorf("%w: page size must be between 1 and 50", ErrInvalid)
	}

	notifications, total, err := s.notifications.ListForUser(ctx, userID, q.UnreadOnly, q.Page, q.PageSize)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}

	totalPages := (total + q.PageSize - 1) / q.PageSize
	return &model.NotificationPage{
		Data: notifications,
		Pagination: model.Pagination{
			CurrentPage: q.Page,
			PageSize:    q.PageSize,
			TotalItems:  total,
			TotalPages:  totalPages,
		},
	}, nil
}

// SetRead toggles the read flag of one of the user's notifications.
func (s *NotificationService) SetRead(ctx context.Context, notificationID, userID int64, isRead bool) (*model.Notification, error) {
	return s.notifications.SetRead(ctx, notificationID, userID, isRead)
}
