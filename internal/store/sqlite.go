package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/andresmejia3/vidspot/internal/search"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS searches (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL DEFAULT '',
		video_name TEXT NOT NULL DEFAULT '',
		target TEXT NOT NULL,
		kind TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		first_frame INTEGER,
		last_frame INTEGER,
		fps REAL,
		confidence REAL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_searches_created_at ON searches(created_at);
	CREATE INDEX IF NOT EXISTS idx_searches_video_id ON searches(video_id);
	`

// SQLite stores history in a local SQLite file with thread-safe access.
type SQLite struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// NewSQLite opens (or creates) the database at path.
func NewSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &SQLite{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func (db *SQLite) migrate() error {
	_, err := db.conn.Exec(sqliteSchema)
	return err
}

// Close closes the database connection.
func (db *SQLite) Close() {
	db.conn.Close()
}

func (db *SQLite) Record(ctx context.Context, e Entry) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO searches (id, video_id, video_name, target, kind, message, first_frame, last_frame, fps, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID.String(), e.VideoID, e.VideoName, e.Target, string(e.Kind), e.Message,
		e.FirstFrame, e.LastFrame, e.FPS, e.Confidence, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	return nil
}

func (db *SQLite) List(ctx context.Context, limit int) ([]Entry, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	query := `SELECT id, video_id, video_name, target, kind, message, first_frame, last_frame, fps, confidence, created_at
		FROM searches ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query searches: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e           Entry
			id, kind    string
			first, last sql.NullInt64
			fps, conf   sql.NullFloat64
			created     time.Time
		)
		if err := rows.Scan(&id, &e.VideoID, &e.VideoName, &e.Target, &kind, &e.Message,
			&first, &last, &fps, &conf, &created); err != nil {
			return nil, fmt.Errorf("failed to scan search: %w", err)
		}
		e.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("bad search id %q: %w", id, err)
		}
		e.Kind = search.Kind(kind)
		e.FirstFrame = intPtr(first)
		e.LastFrame = intPtr(last)
		e.FPS = floatPtr(fps)
		e.Confidence = floatPtr(conf)
		e.CreatedAt = created
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Reset drops the history table and recreates it empty.
func (db *SQLite) Reset(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.conn.ExecContext(ctx, `DROP TABLE IF EXISTS searches;`); err != nil {
		return err
	}
	return db.migrate()
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return &n.Float64
}
