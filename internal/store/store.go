package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andresmejia3/vidspot/internal/search"
	"github.com/andresmejia3/vidspot/internal/utils"
	"github.com/google/uuid"
)

// Entry is one recorded submission.
type Entry struct {
	ID         uuid.UUID
	VideoID    string
	VideoName  string
	Target     string
	Kind       search.Kind
	Message    string
	FirstFrame *int
	LastFrame  *int
	FPS        *float64
	Confidence *float64
	CreatedAt  time.Time
}

// Store persists search history.
type Store interface {
	Record(ctx context.Context, e Entry) error
	// List returns the newest entries first. limit <= 0 returns everything.
	List(ctx context.Context, limit int) ([]Entry, error)
	// Reset drops all history and leaves an empty schema behind.
	Reset(ctx context.Context) error
	Close()
}

// Open connects to the history database named by dsn. postgres:// and
// postgresql:// URLs use PostgreSQL; anything else is a SQLite file path.
func Open(ctx context.Context, dsn string) (Store, error) {
	if isPostgres(dsn) {
		return NewPostgres(ctx, dsn)
	}
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	return NewSQLite(dsn)
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// DefaultPath is the SQLite history file used when no DSN is configured.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "vidspot.db"
	}
	return filepath.Join(dir, "vidspot", "history.db")
}

// NewEntry builds an entry for a resolved submission. Detail columns are
// only filled for successful outcomes.
func NewEntry(sub search.Submission) Entry {
	e := Entry{
		ID:        uuid.New(),
		Target:    sub.Target,
		Kind:      sub.Outcome.Kind,
		Message:   sub.Outcome.Message,
		CreatedAt: time.Now().UTC(),
	}
	if sub.Video != nil {
		e.VideoName = sub.Video.Name
		if id, err := utils.GenerateVideoID(sub.Video.Path); err == nil {
			e.VideoID = id
		}
	}
	if d := sub.Outcome.Detection; d != nil {
		first, last, fps := d.FirstFrame, d.LastFrame, d.FPS
		e.FirstFrame = &first
		e.LastFrame = &last
		e.FPS = &fps
		e.Confidence = d.Confidence
	}
	return e
}
