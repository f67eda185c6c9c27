// Package model defines the core domain types for the event participation system.
package model

import (
	"fmt"
	"time"
)

// Notification types emitted by the participation core.
const (
	NotificationRegistrationConfirmed = "EVENT_REGISTRATION_CONFIRMED"
	NotificationWaitingListAdded      = "EVENT_WAITING_LIST_ADDED"
	NotificationPromoted              = "EVENT_PROMOTED_FROM_WAITING_LIST"
	NotificationEventUpdated          = "EVENT_UPDATED"
)

// Participation statuses. Only confirmed rows are persisted in the
// participants ledger; waiting_list is a wire-level status backed by the
// waiting list ledger.
const (
	StatusConfirmed   = "confirmed"
	StatusWaitingList = "waiting_list"
)

// Event represents an event users can register for.
// A nil MaxParticipants means unlimited capacity.
type Event struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	MaxParticipants *int      `json:"maxParticipants"`
	ScheduledAt     time.Time `json:"scheduledAt"`
	CreatedBy       int64     `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Unlimited reports whether the event has no capacity bound.
func (e *Event) Unlimited() bool {
	return e.MaxParticipants == nil
}

// HasOccurred reports whether the event's scheduled time is not in the
// future relative to now. Registration and cancellation are rejected for
// events that have occurred.
func (e *Event) HasOccurred(now time.Time) bool {
	return !e.ScheduledAt.After(now)
}

// Admission is the outcome of the capacity policy for a new registrant.
type Admission int

const (
	AdmissionConfirm Admission = iota
	AdmissionWaitlist
)

// DecideAdmission is the capacity policy: given an event's capacity bound
// (nil = unlimited) and the current confirmed participant count, decide
// whether a new registrant is confirmed or waitlisted. Pure and
// deterministic; capacity validation happens at event creation.
func DecideAdmission(maxParticipants *int, confirmedCount int) Admission {
	if maxParticipants == nil {
		return AdmissionConfirm
	}
	if confirmedCount < *maxParticipants {
		return AdmissionConfirm
	}
	return AdmissionWaitlist
}

// Participation is a user's registration outcome for an event. Status is
// StatusConfirmed for participant ledger rows and StatusWaitingList for
// waiting list rows; ConfirmationCode is set only for confirmed rows.
type Participation struct {
	EventID          int64     `json:"eventId"`
	UserID           int64     `json:"userId"`
	Status           string    `json:"status"`
	ConfirmationCode string    `json:"confirmationCode,omitempty"`
	RegisteredAt     time.Time `json:"registeredAt"`
}

// WaitlistEntry is a waiting list ledger row. RegisteredAt defines the FIFO
// promotion order.
type WaitlistEntry struct {
	EventID      int64     `json:"eventId"`
	UserID       int64     `json:"userId"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Notification is a persisted notification row, written in the same
// transaction as the ledger mutation it reports.
type Notification struct {
	ID        int64     `json:"notificationId"`
	UserID    int64     `json:"-"`
	EventID   *int64    `json:"-"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
	Link      string    `json:"link,omitempty"`
}

// EventLink returns the API path of the related event, or "" when the
// notification is not about an event.
func (n *Notification) EventLink() string {
	if n.EventID == nil {
		return ""
	}
	return fmt.Sprintf("/events/%d", *n.EventID)
}

// Notification message texts.

func ConfirmationMessage(title string) string {
	return fmt.Sprintf("You have successfully registered for the event: '%s'.", title)
}

func WaitlistMessage(title string) string {
	return fmt.Sprintf("The event '%s' is full. You've been added to the waiting list.", title)
}

func PromotionMessage(title string) string {
	return fmt.Sprintf("Good news! You've been promoted from the waiting list and are now registered for the event: '%s'.", title)
}

func EventUpdatedMessage(eventID int64, title string) string {
	return fmt.Sprintf("The event '%s' (ID: %d) has been updated. Check the new details!", title, eventID)
}

// CreateEventRequest is the payload for creating a new event. A missing or
// null maxParticipants means unlimited capacity.
type CreateEventRequest struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	MaxParticipants *int      `json:"maxParticipants"`
	ScheduledAt     time.Time `json:"scheduledAt"`
}

// UpdateEventRequest is the payload for replacing an event's mutable fields.
// Setting maxParticipants to null lifts the capacity bound.
type UpdateEventRequest struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	MaxParticipants *int      `json:"maxParticipants"`
	ScheduledAt     time.Time `json:"scheduledAt"`
}

// UpdateNotificationRequest toggles a notification's read state.
type UpdateNotificationRequest struct {
	IsRead *bool `json:"isRead"`
}

// NotificationPage is a paginated slice of a user's notifications.
type NotificationPage struct {
	Data       []Notification `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
