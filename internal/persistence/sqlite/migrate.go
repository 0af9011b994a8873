package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order exactly once each; applied versions are
// tracked in schema_migrations.
var migrations = []string{
	`CREATE TABLE interviewers (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		calendar_id   TEXT NOT NULL DEFAULT '',
		access_token  TEXT NOT NULL DEFAULT '',
		refresh_token TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE TABLE schedules (
		id                  TEXT PRIMARY KEY,
		candidate_id        TEXT NOT NULL,
		stage_id            TEXT NOT NULL,
		duration_minutes    INTEGER NOT NULL CHECK (duration_minutes > 0),
		status              TEXT NOT NULL CHECK (status IN ('pending', 'confirmed', 'rejected', 'completed')),
		scheduled_at        TEXT NOT NULL,
		candidate_response  TEXT NOT NULL CHECK (candidate_response IN ('pending', 'accepted', 'rejected')),
		beverage_preference TEXT,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	)`,
	`CREATE TABLE schedule_interviewers (
		schedule_id    TEXT NOT NULL REFERENCES schedules(id),
		interviewer_id TEXT NOT NULL,
		PRIMARY KEY (schedule_id, interviewer_id)
	)`,
	`CREATE TABLE schedule_options (
		id           TEXT PRIMARY KEY,
		schedule_id  TEXT NOT NULL REFERENCES schedules(id),
		scheduled_at TEXT NOT NULL,
		reason       TEXT,
		status       TEXT NOT NULL CHECK (status IN ('pending', 'selected', 'rejected')),
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,
	`CREATE INDEX idx_schedule_options_schedule ON schedule_options(schedule_id)`,
	`CREATE TABLE timeline_events (
		id           TEXT PRIMARY KEY,
		candidate_id TEXT NOT NULL,
		event_type   TEXT NOT NULL,
		payload      TEXT NOT NULL DEFAULT '{}',
		author_id    TEXT,
		created_at   TEXT NOT NULL
	)`,
	`CREATE INDEX idx_timeline_events_candidate ON timeline_events(candidate_id, created_at)`,
}

// Migrate brings the schema up to date. It is safe to call on every startup.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("sqlite: creating schema_migrations: %w", err)
	}

	for version, stmt := range migrations {
		applied, err := cp.migrationApplied(ctx, version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		err = cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("sqlite: applying migration %d: %w", version, err)
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))`, version)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (cp *ConnectionPool) migrationApplied(ctx context.Context, version int) (bool, error) {
	var count int
	err := cp.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking migration %d: %w", version, err)
	}
	return count > 0, nil
}
