package risk

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRecorder persists crisis events to Postgres.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder connects to Postgres and ensures the audit schema.
func NewPostgresRecorder(ctx context.Context, databaseURL string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	r := &PostgresRecorder{pool: pool}
	if err := r.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

func (r *PostgresRecorder) ensureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS crisis_events (
			id         UUID PRIMARY KEY,
			user_id    TEXT NOT NULL,
			context    TEXT NOT NULL,
			level      TEXT NOT NULL,
			snippet    TEXT NOT NULL,
			matches    TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_crisis_events_user
			ON crisis_events (user_id, created_at DESC);`
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure crisis_events schema: %w", err)
	}
	return nil
}

// Record inserts one crisis event.
func (r *PostgresRecorder) Record(ctx context.Context, event *CrisisEvent) error {
	if event == nil {
		return ErrNilEvent
	}
	if event.UserID == "" {
		return ErrEmptyUserID
	}

	const q = `
		INSERT INTO crisis_events (id, user_id, context, level, snippet, matches, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, q,
		event.ID, event.UserID, event.Context, string(event.Level),
		event.Snippet, event.Matches, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert crisis event: %w", err)
	}
	return nil
}

// ListByUser returns a user's events, newest first.
func (r *PostgresRecorder) ListByUser(ctx context.Context, userID string, limit int) ([]*CrisisEvent, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if limit <= 0 {
		limit = 50
	}

	const q = `
		SELECT id, user_id, context, level, snippet, matches, created_at
		FROM crisis_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query crisis events: %w", err)
	}
	defer rows.Close()

	var out []*CrisisEvent
	for rows.Next() {
		var ev CrisisEvent
		var level string
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Context, &level, &ev.Snippet, &ev.Matches, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan crisis event: %w", err)
		}
		ev.Level = Level(level)
		out = append(out, &ev)
	}
	return out, rows.Err()
}

// Close releases the connection pool.
func (r *PostgresRecorder) Close() {
	r.pool.Close()
}

var _ Recorder = (*PostgresRecorder)(nil)
