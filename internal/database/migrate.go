package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema creates the tables on startup when they do not exist yet.
//
// waiting_list carries a serial id besides the (event_id, user_id)
// uniqueness constraint: promotion order is registered_at ascending with the
// id breaking ties, so two registrations in the same instant still promote
// in insertion order. The (event_id, registered_at, id) index serves the
// FIFO scans.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id               BIGSERIAL PRIMARY KEY,
		title            TEXT NOT NULL,
		description      TEXT NOT NULL DEFAULT '',
		max_participants INT,
		scheduled_at     TIMESTAMPTZ NOT NULL,
		created_by       BIGINT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS event_participants (
		event_id          BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		user_id           BIGINT NOT NULL,
		status            TEXT NOT NULL DEFAULT 'confirmed',
		confirmation_code TEXT NOT NULL,
		registered_at     TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (event_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS waiting_list (
		id            BIGSERIAL PRIMARY KEY,
		event_id      BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		user_id       BIGINT NOT NULL,
		registered_at TIMESTAMPTZ NOT NULL,
		UNIQUE (event_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_waiting_list_fifo
		ON waiting_list (event_id, registered_at, id)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL,
		event_id   BIGINT REFERENCES events(id) ON DELETE CASCADE,
		type       TEXT NOT NULL,
		message    TEXT NOT NULL,
		is_read    BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user
		ON notifications (user_id, is_read, created_at DESC)`,
}

// Migrate applies the schema statements in order.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
