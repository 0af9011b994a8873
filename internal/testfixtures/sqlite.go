package testfixtures

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/example/talent-scheduler/internal/crypto"
	"github.com/example/talent-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Schedules    *sqlite.ScheduleRepository
	Interviewers *sqlite.InterviewerRepository
	Timeline     *sqlite.TimelineRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary database file
// that is migrated automatically. Interviewer credentials are sealed with a
// fixed test key. Callers may optionally invoke Close, but the helper also
// registers a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "talent-scheduler.db")

	pool, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	aead, err := crypto.New(bytes.Repeat([]byte{0x42}, 32))
	if err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to build credential cipher: %v", err)
	}

	harness := &SQLiteHarness{
		Schedules:    sqlite.NewScheduleRepository(pool),
		Interviewers: sqlite.NewInterviewerRepository(pool, aead),
		Timeline:     sqlite.NewTimelineRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
