// Package promotion implements the waiting-list promotion engine: whenever
// confirmed capacity is freed on an event (a cancellation, a capacity
// increase), it moves the longest-waiting users into the confirmed
// participants ledger in FIFO order and emits PROMOTED notifications.
//
// The engine operates on a Ledger so the FIFO and capacity semantics stay
// independent of the storage driver. In production the Ledger is backed by
// the pgx transaction that freed the capacity, which keeps the whole
// read-count-promote-notify flow atomic with the triggering mutation.
package promotion

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dmcruz/eventhub/internal/model"
)

// Ledger is the view of both participation ledgers the engine needs. All
// methods must execute inside the caller's transaction.
type Ledger interface {
	// Event returns the event's current metadata, or an error when it
	// does not exist.
	Event(ctx context.Context, eventID int64) (*model.Event, error)
	// ConfirmedCount returns the number of confirmed participants.
	ConfirmedCount(ctx context.Context, eventID int64) (int, error)
	// IsConfirmed reports whether the user already holds a confirmed
	// participant row for the event.
	IsConfirmed(ctx context.Context, eventID, userID int64) (bool, error)
	// WaitingInOrder returns every waiting list entry for the event in
	// FIFO order (registration time ascending, insertion order on ties).
	WaitingInOrder(ctx context.Context, eventID int64) ([]model.WaitlistEntry, error)
	// OldestWaiting returns the earliest waiting list entry, or nil when
	// the waiting list is empty.
	OldestWaiting(ctx context.Context, eventID int64) (*model.WaitlistEntry, error)
	// Confirm inserts a confirmed participant row for the user.
	Confirm(ctx context.Context, eventID, userID int64) error
	// RemoveFromWaitlist deletes the user's waiting list entry.
	RemoveFromWaitlist(ctx context.Context, eventID, userID int64) error
	// Notify writes a notification row for the user about the event.
	Notify(ctx context.Context, userID int64, notificationType, message string, eventID int64) error
}

// Engine drives the waitlist-to-confirmed transition.
type Engine struct {
	log zerolog.Logger
}

// NewEngine constructs an Engine.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log}
}

// Sweep promotes eligible users from the event's waiting list. It re-reads
// the confirmed count from the ledger rather than assuming exactly one slot
// was freed, because a capacity increase can free many slots at once.
// Returns the ids of the users actually promoted, oldest first.
//
// A user found in both ledgers is benign drift, not a caller error: the
// stale waiting list entry is removed without creating a duplicate
// participant row and without consuming a capacity slot.
func (e *Engine) Sweep(ctx context.Context, ledger Ledger, eventID int64) ([]int64, error) {
	event, err := ledger.Event(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event %d: %w", eventID, err)
	}

	if event.Unlimited() {
		return e.sweepUnlimited(ctx, ledger, event)
	}
	return e.sweepLimited(ctx, ledger, event)
}

// sweepUnlimited promotes the entire waiting list in one pass: with no
// capacity bound there is never a reason to leave anyone waiting.
func (e *Engine) sweepUnlimited(ctx context.Context, ledger Ledger, event *model.Event) ([]int64, error) {
	waiting, err := ledger.WaitingInOrder(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("list waiting users for event %d: %w", event.ID, err)
	}

	var promoted []int64
	for _, entry := range waiting {
		confirmed, err := ledger.IsConfirmed(ctx, event.ID, entry.UserID)
		if err != nil {
			return nil, err
		}
		if !confirmed {
			if err := e.promote(ctx, ledger, event, entry.UserID); err != nil {
				return nil, err
			}
			promoted = append(promoted, entry.UserID)
		}
		if err := ledger.RemoveFromWaitlist(ctx, event.ID, entry.UserID); err != nil {
			return nil, fmt.Errorf("remove user %d from waiting list: %w", entry.UserID, err)
		}
	}
	return promoted, nil
}

// sweepLimited promotes one FIFO slot at a time while free capacity and
// waiting users remain. Stale entries (user already confirmed) are cleaned
// up without consuming a slot.
func (e *Engine) sweepLimited(ctx context.Context, ledger Ledger, event *model.Event) ([]int64, error) {
	confirmedCount, err := ledger.ConfirmedCount(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("count participants for event %d: %w", event.ID, err)
	}

	var promoted []int64
	for confirmedCount < *event.MaxParticipants {
		entry, err := ledger.OldestWaiting(ctx, event.ID)
		if err != nil {
			return nil, fmt.Errorf("read waiting list head for event %d: %w", event.ID, err)
		}
		if entry == nil {
			break
		}

		confirmed, err := ledger.IsConfirmed(ctx, event.ID, entry.UserID)
		if err != nil {
			return nil, err
		}
		if confirmed {
			if err := ledger.RemoveFromWaitlist(ctx, event.ID, entry.UserID); err != nil {
				return nil, fmt.Errorf("remove stale waiting list entry: %w", err)
			}
			e.log.Warn().
				Int64("event_id", event.ID).
				Int64("user_id", entry.UserID).
				Msg("user already confirmed, removed stale waiting list entry")
			continue
		}

		if err := e.promote(ctx, ledger, event, entry.UserID); err != nil {
			return nil, err
		}
		if err := ledger.RemoveFromWaitlist(ctx, event.ID, entry.UserID); err != nil {
			return nil, fmt.Errorf("remove user %d from waiting list: %w", entry.UserID, err)
		}
		promoted = append(promoted, entry.UserID)
		confirmedCount++
	}
	return promoted, nil
}

func (e *Engine) promote(ctx context.Context, ledger Ledger, event *model.Event, userID int64) error {
	if err := ledger.Confirm(ctx, event.ID, userID); err != nil {
		return fmt.Errorf("confirm user %d for event %d: %w", userID, event.ID, err)
	}
	err := ledger.Notify(ctx, userID, model.NotificationPromoted, model.PromotionMessage(event.Title), event.ID)
	if err != nil {
		return fmt.Errorf("notify promoted user %d: %w", userID, err)
	}
	e.log.Info().
		Int64("event_id", event.ID).
		Int64("user_id", userID).
		Msg("promoted from waiting list")
	return nil
}
