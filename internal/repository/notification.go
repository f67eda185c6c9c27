package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmcruz/eventhub/internal/model"
)

// NotificationRepository handles the read surface of the notifications
// table. The rows themselves are written by the participation and event
// transactions via insertNotification.
type NotificationRepository struct {
	db *pgxpool.Pool
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// ListForUser returns one page of the user's notifications, newest first,
// plus the total row count for the filter.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64, unreadOnly bool, page, pageSize int) ([]model.Notification, int, error) {
	filter := `WHERE user_id = $1`
	if unreadOnly {
		filter += ` AND is_read = FALSE`
	}

	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications `+filter, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, event_id, type, message, is_read, created_at
		 FROM notifications `+filter+`
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, pageSize, page*pageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.EventID, &n.Type, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		n.Link = n.EventLink()
		notifications = append(notifications, n)
	}
	return notifications, total, rows.Err()
}

// SetRead updates the read flag of a notification owned by userID. Returns
// ErrNotFound for an unknown id and ErrForbidden when the notification
// belongs to another user.
func (r *NotificationRepository) SetRead(ctx context.Context, notificationID, userID int64, isRead bool) (*model.Notification, error) {
	var ownerID int64
	err := r.db.QueryRow(ctx,
		`SELECT user_id FROM notifications WHERE id = $1`,
		notificationID,
	).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	if ownerID != userID {
		return nil, ErrForbidden
	}

	var n model.Notification
	err = r.db.QueryRow(ctx,
		`UPDATE notifications SET is_read = $1
		 WHERE id = $2
		 RETURNING id, user_id, event_id, type, message, is_read, created_at`,
		isRead, notificationID,
	).Scan(&n.ID, &n.UserID, &n.EventID, &n.Type, &n.Message, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("update notification: %w", err)
	}
	n.Link = n.EventLink()
	return &n, nil
}
