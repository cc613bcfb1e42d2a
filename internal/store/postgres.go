package store

import (
	"context"
	"fmt"

	"github.com/andresmejia3/vidspot/internal/search"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores history in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres establishes a connection pool and ensures the schema is initialized.
func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
		CREATE TABLE IF NOT EXISTS searches (
			id UUID PRIMARY KEY,
			video_id TEXT NOT NULL DEFAULT '',
			video_name TEXT NOT NULL DEFAULT '',
			target TEXT NOT NULL,
			kind TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			first_frame INT,
			last_frame INT,
			fps DOUBLE PRECISION,
			confidence DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS searches_created_at_idx ON searches (created_at DESC);
		CREATE INDEX IF NOT EXISTS searches_video_id_idx ON searches (video_id);
	`
	_, err := pool.Exec(ctx, query)
	return err
}

// Close terminates the connection pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

func (s *Postgres) Record(ctx context.Context, e Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO searches (id, video_id, video_name, target, kind, message, first_frame, last_frame, fps, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, e.ID, e.VideoID, e.VideoName, e.Target, string(e.Kind), e.Message, e.FirstFrame, e.LastFrame, e.FPS, e.Confidence, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	return nil
}

func (s *Postgres) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, video_id, video_name, target, kind, message, first_frame, last_frame, fps, confidence, created_at
		FROM searches ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		var id uuid.UUID
		var kind string
		err := row.Scan(&id, &e.VideoID, &e.VideoName, &e.Target, &kind, &e.Message,
			&e.FirstFrame, &e.LastFrame, &e.FPS, &e.Confidence, &e.CreatedAt)
		e.ID = id
		e.Kind = search.Kind(kind)
		return e, err
	})
}

// Reset drops the history table to clear the database state, then recreates
// it empty so the store stays usable.
func (s *Postgres) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DROP TABLE IF EXISTS searches CASCADE;`); err != nil {
		return err
	}
	return initSchema(ctx, s.pool)
}
