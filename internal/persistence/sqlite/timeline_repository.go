package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/talent-scheduler/internal/persistence"
)

// TimelineRepository implements the append-only audit sink on SQLite. There
// is intentionally no update or delete path.
type TimelineRepository struct {
	pool *ConnectionPool
}

// NewTimelineRepository wires a timeline repository around the pool.
func NewTimelineRepository(pool *ConnectionPool) *TimelineRepository {
	return &TimelineRepository{pool: pool}
}

// Append records one timeline event.
func (r *TimelineRepository) Append(ctx context.Context, event persistence.TimelineEvent) (persistence.TimelineEvent, error) {
	payload := event.Payload
	if payload == "" {
		payload = "{}"
	}

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO timeline_events (id, candidate_id, event_type, payload, author_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.CandidateID,
		event.EventType,
		payload,
		nullString(event.AuthorID),
		event.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return persistence.TimelineEvent{}, mapError(err)
	}
	event.Payload = payload
	return event, nil
}

// ListForCandidate returns a candidate's events oldest first.
func (r *TimelineRepository) ListForCandidate(ctx context.Context, candidateID string) ([]persistence.TimelineEvent, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, candidate_id, event_type, payload, author_id, created_at
		FROM timeline_events WHERE candidate_id = ?
		ORDER BY created_at ASC, id ASC`, candidateID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var events []persistence.TimelineEvent
	for rows.Next() {
		var (
			event     persistence.TimelineEvent
			authorID  sql.NullString
			createdAt string
		)
		if err := rows.Scan(&event.ID, &event.CandidateID, &event.EventType, &event.Payload, &authorID, &createdAt); err != nil {
			return nil, mapError(err)
		}
		if authorID.Valid {
			event.AuthorID = &authorID.String
		}
		if event.CreatedAt, err = parseStoredTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return events, nil
}
