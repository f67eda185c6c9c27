package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmcruz/eventhub/internal/model"
)

// txLedger adapts an open pgx transaction to the promotion engine's Ledger
// interface. The caller must already hold the event row lock; every query
// here runs inside that same transaction.
type txLedger struct {
	tx pgx.Tx
}

func (l *txLedger) Event(ctx context.Context, eventID int64) (*model.Event, error) {
	var e model.Event
	err := l.tx.QueryRow(ctx,
		`SELECT id, title, description, max_participants, scheduled_at, created_by, created_at
		 FROM events WHERE id = $1`,
		eventID,
	).Scan(&e.ID, &e.Title, &e.Description, &e.MaxParticipants, &e.ScheduledAt, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

func (l *txLedger) ConfirmedCount(ctx context.Context, eventID int64) (int, error) {
	var count int
	err := l.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM event_participants WHERE event_id = $1 AND status = $2`,
		eventID, model.StatusConfirmed,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return count, nil
}

func (l *txLedger) IsConfirmed(ctx context.Context, eventID, userID int64) (bool, error) {
	var confirmed bool
	err := l.tx.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM event_participants
			WHERE event_id = $1 AND user_id = $2 AND status = $3
		 )`,
		eventID, userID, model.StatusConfirmed,
	).Scan(&confirmed)
	if err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return confirmed, nil
}

func (l *txLedger) WaitingInOrder(ctx context.Context, eventID int64) ([]model.WaitlistEntry, error) {
	rows, err := l.tx.Query(ctx,
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

func (l *txLedger) OldestWaiting(ctx context.Context, eventID int64) (*model.WaitlistEntry, error) {
	var e model.WaitlistEntry
	err := l.tx.QueryRow(ctx,
		`SELECT event_id, user_id, registered_at
		 FROM waiting_list
		 WHERE event_id = $1
		 ORDER BY registered_at ASC, id ASC
		 LIMIT 1`,
		eventID,
	).Scan(&e.EventID, &e.UserID, &e.RegisteredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("read waiting list head: %w", err)
	}
	return &e, nil
}

func (l *txLedger) Confirm(ctx context.Context, eventID, userID int64) error {
	_, err := l.tx.Exec(ctx,
		`INSERT INTO event_participants (event_id, user_id, status, confirmation_code, registered_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		eventID, userID, model.StatusConfirmed, uuid.New().String(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (l *txLedger) RemoveFromWaitlist(ctx context.Context, eventID, userID int64) error {
	_, err := l.tx.Exec(ctx,
		`DELETE FROM waiting_list WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete waiting list entry: %w", err)
	}
	return nil
}

func (l *txLedger) Notify(ctx context.Context, userID int64, notificationType, message string, eventID int64) error {
	return insertNotification(ctx, l.tx, userID, &eventID, notificationType, message)
}
