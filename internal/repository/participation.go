package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/dmcruz/eventhub/internal/model"
	"github.com/dmcruz/eventhub/internal/promotion"
)

// ParticipationRepository handles the confirmed participants ledger and the
// waiting list ledger.
type ParticipationRepository struct {
	db     *pgxpool.Pool
	engine *promotion.Engine
	log    zerolog.Logger
}

// NewParticipationRepository constructs a ParticipationRepository.
func NewParticipationRepository(db *pgxpool.Pool, engine *promotion.Engine, log zerolog.Logger) *ParticipationRepository {
	return &ParticipationRepository{db: db, engine: engine, log: log}
}

// Register registers the user for the event inside one transaction: either
// as a confirmed participant (seat available) or on the waiting list (event
// full). The matching notification is written in the same transaction.
//
// The event row is read with SELECT ... FOR UPDATE so concurrent
// registrations for the same event serialise on the row lock. Without it,
// two transactions can read the same confirmed count before either inserts,
// and both confirm for the last remaining seat.
func (r *ParticipationRepository) Register(ctx context.Context, eventID, userID int64) (*model.Participation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	event, err := lockEvent(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	if event.HasOccurred(time.Now()) {
		err = ErrEventOccurred
		return nil, err
	}

	ledger := &txLedger{tx: tx}
	confirmed, err := ledger.IsConfirmed(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if confirmed {
		err = ErrAlreadyRegistered
		return nil, err
	}
	waiting, err := isWaitlisted(ctx, tx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if waiting {
		err = ErrAlreadyWaitlisted
		return nil, err
	}

	if event.MaxParticipants != nil && *event.MaxParticipants <= 0 {
		err = ErrInvalidCapacity
		return nil, err
	}

	confirmedCount, err := ledger.ConfirmedCount(ctx, eventID)
	if err != nil {
		return nil, err
	}

	participation := &model.Participation{
		EventID:      eventID,
		UserID:       userID,
		RegisteredAt: time.Now().UTC(),
	}

	switch model.DecideAdmission(event.MaxParticipants, confirmedCount) {
	case model.AdmissionConfirm:
		participation.Status = model.StatusConfirmed
		participation.ConfirmationCode = uuid.New().String()
		_, err = tx.Exec(ctx,
			`INSERT INTO event_participants (event_id, user_id, status, confirmation_code, registered_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			eventID, userID, model.StatusConfirmed, participation.ConfirmationCode, participation.RegisteredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("insert participant: %w", err)
		}
		err = insertNotification(ctx, tx, userID, &eventID,
			model.NotificationRegistrationConfirmed, model.ConfirmationMessage(event.Title))
		if err != nil {
			return nil, err
		}

	case model.AdmissionWaitlist:
		participation.Status = model.StatusWaitingList
		_, err = tx.Exec(ctx,
			`INSERT INTO waiting_list (event_id, user_id, registered_at)
			 VALUES ($1, $2, $3)`,
			eventID, userID, participation.RegisteredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("insert waiting list entry: %w", err)
		}
		err = insertNotification(ctx, tx, userID, &eventID,
			model.NotificationWaitingListAdded, model.WaitlistMessage(event.Title))
		if err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	r.log.Info().
		Int64("event_id", eventID).
		Int64("user_id", userID).
		Str("status", participation.Status).
		Msg("registered for event")
	return participation, nil
}

// Cancel removes the user's participation. Deleting a confirmed participant
// frees a seat, so the promotion engine sweeps the waiting list before
// commit; deleting a waiting list entry frees nothing. Returns the ids of
// any users promoted by the cancellation.
func (r *ParticipationRepository) Cancel(ctx context.Context, eventID, userID int64) ([]int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	event, err := lockEvent(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	if event.HasOccurred(time.Now()) {
		err = ErrEventOccurred
		return nil, err
	}

	res, err := tx.Exec(ctx,
		`DELETE FROM event_participants WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("delete participant: %w", err)
	}

	var promoted []int64
	if res.RowsAffected() > 0 {
		// A confirmed seat was freed; hand it to the longest-waiting user
		// within this same transaction so no concurrent registration can
		// steal it.
		promoted, err = r.engine.Sweep(ctx, &txLedger{tx: tx}, eventID)
		if err != nil {
			return nil, fmt.Errorf("promote after cancellation: %w", err)
		}
	} else {
		res, err = tx.Exec(ctx,
			`DELETE FROM waiting_list WHERE event_id = $1 AND user_id = $2`,
			eventID, userID,
		)
		if err != nil {
			return nil, fmt.Errorf("delete waiting list entry: %w", err)
		}
		if res.RowsAffected() == 0 {
			err = ErrNotRegistered
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	r.log.Info().
		Int64("event_id", eventID).
		Int64("user_id", userID).
		Ints64("promoted", promoted).
		Msg("cancelled participation")
	return promoted, nil
}

// ListByEvent returns the event's confirmed participants ordered by
// registration time ascending.
func (r *ParticipationRepository) ListByEvent(ctx context.Context, eventID int64) ([]model.Participation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT event_id, user_id, status, confirmation_code, registered_at
		 FROM event_participants
		 WHERE event_id = $1
		 ORDER BY registered_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []model.Participation
	for rows.Next() {
		var p model.Participation
		if err := rows.Scan(&p.EventID, &p.UserID, &p.Status, &p.ConfirmationCode, &p.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// ListWaiting returns the event's waiting list in promotion order.
func (r *ParticipationRepository) ListWaiting(ctx context.Context, eventID int64) ([]model.WaitlistEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT event_id, user_id, registered_at
		 FROM waiting_list
		 WHERE event_id = $1
		 ORDER BY registered_at ASC, id ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list waiting entries: %w", err)
	}
	defer rows.Close()

	var entries []model.WaitlistEntry
	for rows.Next() {
		var e model.WaitlistEntry
		if err := rows.Scan(&e.EventID, &e.UserID, &e.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan waiting entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// lockEvent reads the event row with an exclusive row lock, serialising all
// capacity-affecting flows for the event until the transaction resolves.
func lockEvent(ctx context.Context, tx pgx.Tx, eventID int64) (*model.Event, error) {
	var e model.Event
	err := tx.QueryRow(ctx,
		`SELECT id, title, description, max_participants, scheduled_at, created_by, created_at
		 FROM events WHERE id = $1
		 FOR UPDATE`,
		eventID,
	).Scan(&e.ID, &e.Title, &e.Description, &e.MaxParticipants, &e.ScheduledAt, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}
	return &e, nil
}

func isWaitlisted(ctx context.Context, tx pgx.Tx, eventID, userID int64) (bool, error) {
	var waiting bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM waiting_list WHERE event_id = $1 AND user_id = $2)`,
		eventID, userID,
	).Scan(&waiting)
	if err != nil {
		return false, fmt.Errorf("check waiting list: %w", err)
	}
	return waiting, nil
}
