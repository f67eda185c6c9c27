// Package repository implements all database access for the participation
// system. It uses pgx directly (no ORM); every capacity-affecting flow is a
// single transaction that starts by locking the event row.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/dmcruz/eventhub/internal/model"
	"github.com/dmcruz/eventhub/internal/promotion"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyRegistered is returned when the user already holds a confirmed
// participant row for the event.
var ErrAlreadyRegistered = errors.New("user is already registered for this event")

// ErrAlreadyWaitlisted is returned when the user is already on the event's
// waiting list.
var ErrAlreadyWaitlisted = errors.New("user is already on the waiting list for this event")

// ErrEventOccurred is returned when registering for or cancelling an event
// whose scheduled time has passed.
var ErrEventOccurred = errors.New("event has already occurred")

// ErrNotRegistered is returned when cancelling without a participant or
// waiting list row.
var ErrNotRegistered = errors.New("user was not registered for this event or on its waiting list")

// ErrInvalidCapacity is returned when a stored capacity bound is not null or
// positive. Event validation guards against this; reaching it means the row
// was corrupted outside the API.
var ErrInvalidCapacity = errors.New("event capacity has an invalid configuration")

// ErrForbidden is returned when the caller is not allowed to touch the
// resource.
var ErrForbidden = errors.New("forbidden")

// EventRepository handles persistence for events.
type EventRepository struct {
	db     *pgxpool.Pool
	engine *promotion.Engine
	log    zerolog.Logger
}

// NewEventRepository constructs an EventRepository. The promotion engine is
// invoked when an update frees capacity.
func NewEventRepository(db *pgxpool.Pool, engine *promotion.Engine, log zerolog.Logger) *EventRepository {
	return &EventRepository{db: db, engine: engine, log: log}
}

// Create inserts a new event and returns it with its generated id.
func (r *EventRepository) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	event.CreatedAt = time.Now().UTC()
	err := r.db.QueryRow(ctx,
		`INSERT INTO events (title, description, max_participants, scheduled_at, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		event.Title, event.Description, event.MaxParticipants, event.ScheduledAt, event.CreatedBy, event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

// List returns all events ordered by creation time descending.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, description, max_participants, scheduled_at, created_by, created_at
		 FROM events
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.MaxParticipants, &e.ScheduledAt, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*model.Event, error) {
	var e model.Event
	err := r.db.QueryRow(ctx,
		`SELECT id, title, description, max_participants, scheduled_at, created_by, created_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Title, &e.Description, &e.MaxParticipants, &e.ScheduledAt, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

// Update replaces the event's mutable fields inside a single transaction.
// Only the author or an admin may update. When the change can free capacity
// (bound raised or lifted) the promotion engine sweeps the waiting list
// before commit, and every confirmed or waiting user gets an EVENT_UPDATED
// notification in the same transaction. Returns the updated event and the
// ids of any users promoted by the capacity change.
func (r *EventRepository) Update(ctx context.Context, id int64, actorID int64, actorIsAdmin bool, req model.UpdateEventRequest) (*model.Event, []int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Lock the event row so concurrent registrations and cancellations
	// cannot interleave with the capacity change.
	var current model.Event
	err = tx.QueryRow(ctx,
		`SELECT id, title, description, max_participants, scheduled_at, created_by, created_at
		 FROM events WHERE id = $1
		 FOR UPDATE`,
		id,
	).Scan(&current.ID, &current.Title, &current.Description, &current.MaxParticipants,
		&current.ScheduledAt, &current.CreatedBy, &current.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrNotFound
		}
		return nil, nil, err
	}

	if current.CreatedBy != actorID && !actorIsAdmin {
		err = ErrForbidden
		return nil, nil, err
	}

	updated := current
	updated.Title = req.Title
	updated.Description = req.Description
	updated.MaxParticipants = req.MaxParticipants
	updated.ScheduledAt = req.ScheduledAt

	_, err = tx.Exec(ctx,
		`UPDATE events SET title = $1, description = $2, max_participants = $3, scheduled_at = $4
		 WHERE id = $5`,
		updated.Title, updated.Description, updated.MaxParticipants, updated.ScheduledAt, id,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("update event: %w", err)
	}

	var promoted []int64
	if freesCapacity(current.MaxParticipants, updated.MaxParticipants) {
		promoted, err = r.engine.Sweep(ctx, &txLedger{tx: tx}, id)
		if err != nil {
			return nil, nil, fmt.Errorf("promote after capacity change: %w", err)
		}
	}

	err = notifyEventAudience(ctx, tx, id, model.NotificationEventUpdated, model.EventUpdatedMessage(id, updated.Title))
	if err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit transaction: %w", err)
	}

	r.log.Info().
		Int64("event_id", id).
		Ints64("promoted", promoted).
		Msg("event updated")
	return &updated, promoted, nil
}

// freesCapacity reports whether moving from the old bound to the new one can
// open confirmed slots: the bound was lifted, or raised.
func freesCapacity(oldMax, newMax *int) bool {
	if oldMax == nil {
		return false
	}
	if newMax == nil {
		return true
	}
	return *newMax > *oldMax
}

// notifyEventAudience writes one notification per user currently holding a
// participant or waiting list row for the event.
func notifyEventAudience(ctx context.Context, tx pgx.Tx, eventID int64, notificationType, message string) error {
	rows, err := tx.Query(ctx,
		`SELECT user_id FROM event_participants WHERE event_id = $1
		 UNION
		 SELECT user_id FROM waiting_list WHERE event_id = $1`,
		eventID,
	)
	if err != nil {
		return fmt.Errorf("list event audience: %w", err)
	}
	defer rows.Close()

	var userIDs []int64
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return fmt.Errorf("scan audience user: %w", err)
		}
		userIDs = append(userIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, userID := range userIDs {
		if err := insertNotification(ctx, tx, userID, &eventID, notificationType, message); err != nil {
			return err
		}
	}
	return nil
}

// insertNotification writes a notification row inside the caller's
// transaction, so it becomes visible only if the ledger mutation commits.
func insertNotification(ctx context.Context, tx pgx.Tx, userID int64, eventID *int64, notificationType, message string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO notifications (user_id, event_id, type, message, is_read, created_at)
		 VALUES ($1, $2, $3, $4, FALSE, $5)`,
		userID, eventID, notificationType, message, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}
