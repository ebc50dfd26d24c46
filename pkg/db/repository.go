package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/intent-dispatch/pkg/events"
)

const repoLogPrefix = "db:repository"

const defaultListLimit = 100

// Repository reads and writes the notification journal.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertNotification appends a record to the journal. It satisfies events.Journal.
func (r *Repository) InsertNotification(ctx context.Context, rec *events.Record) error {
	slog.Debug(fmt.Sprintf("%s - InsertNotification type=%s error=%v", repoLogPrefix, rec.Type, rec.Error))

	_, err := r.pool.Exec(ctx,
		`INSERT INTO notifications (type, payload, meta, is_error, source)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.Type, nullJSON(rec.Payload), nullJSON(rec.Meta), rec.Error, rec.Source)
	if err != nil {
		return fmt.Errorf("%s - insert notification: %w", repoLogPrefix, err)
	}
	return nil
}

// ListNotifications returns journaled notifications, newest first.
func (r *Repository) ListNotifications(ctx context.Context, params ListNotificationsParams) ([]Notification, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id::text, type, payload, meta, is_error, source, created
		 FROM notifications
		 WHERE ($1 = '' OR type = $1) AND (NOT $2 OR is_error)
		 ORDER BY created DESC
		 LIMIT $3`, params.Type, params.ErrorsOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("%s - list notifications: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s - list notifications: %w", repoLogPrefix, err)
	}
	return out, nil
}

// Ping checks the journal's database connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	var payload, meta []byte
	if err := row.Scan(&n.ID, &n.Type, &payload, &meta, &n.IsError, &n.Source, &n.Created); err != nil {
		return nil, fmt.Errorf("%s - scan notification: %w", repoLogPrefix, err)
	}
	n.Payload = payload
	n.Meta = meta
	return &n, nil
}

// nullJSON maps an absent document to SQL NULL.
func nullJSON(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}
