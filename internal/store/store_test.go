package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andresmejia3/vidspot/internal/search"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if _, ok := s.(*SQLite); !ok {
		t.Fatalf("Open(%q) returned %T, want *SQLite", path, s)
	}
	exerciseStore(t, s)
}

// TestStoreIntegration runs the same scenarios against a real Postgres container.
// It requires Docker to be running.
func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// We wrap this in a function to recover from panics inside testcontainers (e.g. socket not found)
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("testcontainers panicked: %v", r)
			}
		}()
		_, err = testcontainers.NewDockerClientWithOpts(ctx)
		return
	}()
	if err != nil {
		t.Skipf("Docker not available, skipping integration test: %v", err)
	}

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("vidspot_test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
		testcontainers.WithLogger(noopLogger{}),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	// Open runs migrations
	s, err := Open(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to connect to store: %v", err)
	}
	defer s.Close()

	if _, ok := s.(*Postgres); !ok {
		t.Fatalf("Open returned %T, want *Postgres", s)
	}
	exerciseStore(t, s)
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	conf := 0.87
	first, last, fps := 12, 340, 30.0
	base := time.Now().UTC().Truncate(time.Millisecond)

	found := Entry{
		ID: uuid.New(), VideoID: "vid_1", VideoName: "cat.mp4", Target: "dog",
		Kind: search.KindSuccess, Message: "Dog found",
		FirstFrame: &first, LastFrame: &last, FPS: &fps, Confidence: &conf,
		CreatedAt: base.Add(-time.Minute),
	}
	missing := Entry{
		ID: uuid.New(), VideoID: "vid_2", VideoName: "road.mp4", Target: "car",
		Kind: search.KindNotFound, Message: "No car detected",
		CreatedAt: base,
	}

	for _, e := range []Entry{found, missing} {
		if err := s.Record(ctx, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	entries, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	// Newest first
	if entries[0].ID != missing.ID || entries[1].ID != found.ID {
		t.Errorf("Unexpected order: %s, %s", entries[0].VideoName, entries[1].VideoName)
	}
	if entries[0].FirstFrame != nil || entries[0].FPS != nil {
		t.Errorf("Not-found entry carries detail fields: %+v", entries[0])
	}

	got := entries[1]
	if got.Kind != search.KindSuccess || got.Target != "dog" || got.Message != "Dog found" {
		t.Errorf("Round-trip mismatch: %+v", got)
	}
	if got.FirstFrame == nil || *got.FirstFrame != 12 || got.LastFrame == nil || *got.LastFrame != 340 {
		t.Errorf("Frames = %v/%v, want 12/340", got.FirstFrame, got.LastFrame)
	}
	if got.Confidence == nil || *got.Confidence != 0.87 {
		t.Errorf("Confidence = %v, want 0.87", got.Confidence)
	}

	limited, err := s.List(ctx, 1)
	if err != nil {
		t.Fatalf("List(1) failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected 1 entry with limit, got %d", len(limited))
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	entries, err = s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List after reset failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty history after reset, got %d", len(entries))
	}
}

func TestNewEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cat.mp4")
	if err := os.WriteFile(path, []byte("fake video content"), 0644); err != nil {
		t.Fatal(err)
	}
	v, err := search.OpenVideo(path)
	if err != nil {
		t.Fatal(err)
	}

	conf := 0.5
	success := search.Submission{
		Video:  v,
		Target: "dog",
		Outcome: search.Outcome{
			Kind:      search.KindSuccess,
			Message:   "Dog found",
			Detection: &search.Detection{FirstFrame: 1, LastFrame: 9, FPS: 25, Confidence: &conf},
		},
		Sent: true,
	}
	e := NewEntry(success)
	if e.VideoID == "" || e.VideoName != "cat.mp4" {
		t.Errorf("Video fields not filled: %+v", e)
	}
	if e.FirstFrame == nil || *e.FirstFrame != 1 || e.FPS == nil || *e.FPS != 25 {
		t.Errorf("Detection fields not copied: %+v", e)
	}

	e = NewEntry(search.Submission{Video: v, Target: "dog", Outcome: search.NotFound("none")})
	if e.FirstFrame != nil || e.Confidence != nil {
		t.Errorf("Not-found entry carries detail fields: %+v", e)
	}
}

func TestOpenPicksBackend(t *testing.T) {
	tests := []struct {
		dsn  string
		want bool
	}{
		{"postgres://localhost:5432/vidspot", true},
		{"postgresql://u:p@db/vidspot", true},
		{"/tmp/history.db", false},
		{"history.db", false},
	}
	for _, tt := range tests {
		if got := isPostgres(tt.dsn); got != tt.want {
			t.Errorf("isPostgres(%q) = %v, want %v", tt.dsn, got, tt.want)
		}
	}
}

type noopLogger struct{}

func (n noopLogger) Printf(format string, v ...interface{}) {}
