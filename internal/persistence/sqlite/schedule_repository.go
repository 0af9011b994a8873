package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/talent-scheduler/internal/persistence"
)

// ScheduleRepository implements persistence.ScheduleRepository on SQLite.
type ScheduleRepository struct {
	pool *ConnectionPool
}

// NewScheduleRepository wires a schedule repository around the pool.
func NewScheduleRepository(pool *ConnectionPool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

// CreateScheduleWithOptions inserts the schedule, its interviewer links, and
// its options in one transaction.
func (r *ScheduleRepository) CreateScheduleWithOptions(ctx context.Context, schedule persistence.Schedule, options []persistence.ScheduleOption) error {
	if schedule.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO schedules (id, candidate_id, stage_id, duration_minutes, status, scheduled_at, candidate_response, beverage_preference, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			schedule.ID,
			schedule.CandidateID,
			schedule.StageID,
			schedule.DurationMinutes,
			schedule.Status,
			schedule.ScheduledAt.UTC().Format(time.RFC3339),
			schedule.CandidateResponse,
			nullString(schedule.BeveragePreference),
			schedule.CreatedAt.UTC().Format(time.RFC3339),
			schedule.UpdatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return mapError(err)
		}

		for _, interviewerID := range schedule.InterviewerIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO schedule_interviewers (schedule_id, interviewer_id) VALUES (?, ?)`,
				schedule.ID, interviewerID); err != nil {
				return mapError(err)
			}
		}

		for _, option := range options {
			if option.ScheduleID != schedule.ID {
				return persistence.ErrConstraintViolation
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO schedule_options (id, schedule_id, scheduled_at, reason, status, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				option.ID,
				option.ScheduleID,
				option.ScheduledAt.UTC().Format(time.RFC3339),
				nullString(option.Reason),
				option.Status,
				option.CreatedAt.UTC().Format(time.RFC3339),
				option.UpdatedAt.UTC().Format(time.RFC3339),
			); err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

// GetSchedule retrieves a schedule with its interviewer IDs.
func (r *ScheduleRepository) GetSchedule(ctx context.Context, id string) (persistence.Schedule, error) {
	if id == "" {
		return persistence.Schedule{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, candidate_id, stage_id, duration_minutes, status, scheduled_at, candidate_response, beverage_preference, created_at, updated_at
		FROM schedules WHERE id = ?`, id)

	schedule, err := scanSchedule(row)
	if err != nil {
		return persistence.Schedule{}, err
	}

	interviewerIDs, err := r.loadInterviewerIDs(ctx, id)
	if err != nil {
		return persistence.Schedule{}, err
	}
	schedule.InterviewerIDs = interviewerIDs
	return schedule, nil
}

// GetOption retrieves one option, scoped to its schedule.
func (r *ScheduleRepository) GetOption(ctx context.Context, scheduleID, optionID string) (persistence.ScheduleOption, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, schedule_id, scheduled_at, reason, status, created_at, updated_at
		FROM schedule_options WHERE id = ? AND schedule_id = ?`, optionID, scheduleID)
	return scanOption(row)
}

// ListOptions returns a schedule's options ordered by proposed time.
func (r *ScheduleRepository) ListOptions(ctx context.Context, scheduleID string) ([]persistence.ScheduleOption, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, schedule_id, scheduled_at, reason, status, created_at, updated_at
		FROM schedule_options WHERE schedule_id = ?
		ORDER BY scheduled_at ASC, id ASC`, scheduleID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var options []persistence.ScheduleOption
	for rows.Next() {
		option, err := scanOption(rows)
		if err != nil {
			return nil, err
		}
		options = append(options, option)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return options, nil
}

// ConfirmOption performs the confirmation transition as one transaction. The
// guarded updates only touch rows still in the pending state, so of two
// concurrent confirmations exactly one commits; the other observes zero
// affected rows and fails with ErrConflict.
func (r *ScheduleRepository) ConfirmOption(ctx context.Context, confirmation persistence.OptionConfirmation) (persistence.Schedule, persistence.ScheduleOption, error) {
	var (
		schedule persistence.Schedule
		option   persistence.ScheduleOption
	)

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		now := confirmation.Now.UTC().Format(time.RFC3339)

		row := tx.QueryRowContext(ctx, `
			SELECT id, schedule_id, scheduled_at, reason, status, created_at, updated_at
			FROM schedule_options WHERE id = ? AND schedule_id = ?`,
			confirmation.OptionID, confirmation.ScheduleID)
		existing, err := scanOption(row)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE schedule_options SET status = 'selected', updated_at = ?
			WHERE id = ? AND schedule_id = ? AND status = 'pending'`,
			now, confirmation.OptionID, confirmation.ScheduleID)
		if err != nil {
			return mapError(err)
		}
		if affected, err := res.RowsAffected(); err != nil {
			return err
		} else if affected == 0 {
			return persistence.ErrConflict
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE schedule_options SET status = 'rejected', updated_at = ?
			WHERE schedule_id = ? AND id <> ? AND status = 'pending'`,
			now, confirmation.ScheduleID, confirmation.OptionID); err != nil {
			return mapError(err)
		}

		res, err = tx.ExecContext(ctx, `
			UPDATE schedules
			SET status = 'confirmed', scheduled_at = ?, candidate_response = 'accepted', beverage_preference = ?, updated_at = ?
			WHERE id = ? AND status = 'pending'`,
			existing.ScheduledAt.UTC().Format(time.RFC3339),
			nullString(confirmation.BeveragePreference),
			now,
			confirmation.ScheduleID)
		if err != nil {
			return mapError(err)
		}
		if affected, err := res.RowsAffected(); err != nil {
			return err
		} else if affected == 0 {
			return persistence.ErrConflict
		}

		row = tx.QueryRowContext(ctx, `
			SELECT id, candidate_id, stage_id, duration_minutes, status, scheduled_at, candidate_response, beverage_preference, created_at, updated_at
			FROM schedules WHERE id = ?`, confirmation.ScheduleID)
		schedule, err = scanSchedule(row)
		if err != nil {
			return err
		}

		row = tx.QueryRowContext(ctx, `
			SELECT id, schedule_id, scheduled_at, reason, status, created_at, updated_at
			FROM schedule_options WHERE id = ?`, confirmation.OptionID)
		option, err = scanOption(row)
		return err
	})
	if err != nil {
		return persistence.Schedule{}, persistence.ScheduleOption{}, err
	}

	interviewerIDs, err := r.loadInterviewerIDs(ctx, schedule.ID)
	if err != nil {
		return persistence.Schedule{}, persistence.ScheduleOption{}, err
	}
	schedule.InterviewerIDs = interviewerIDs
	return schedule, option, nil
}

// UpdateSchedule overwrites mutable schedule fields. Options are deliberately
// untouched; this is the manual-override path.
func (r *ScheduleRepository) UpdateSchedule(ctx context.Context, schedule persistence.Schedule) (persistence.Schedule, error) {
	if schedule.ID == "" {
		return persistence.Schedule{}, persistence.ErrNotFound
	}

	res, err := r.pool.db.ExecContext(ctx, `
		UPDATE schedules
		SET status = ?, scheduled_at = ?, candidate_response = ?, beverage_preference = ?, updated_at = ?
		WHERE id = ?`,
		schedule.Status,
		schedule.ScheduledAt.UTC().Format(time.RFC3339),
		schedule.CandidateResponse,
		nullString(schedule.BeveragePreference),
		schedule.UpdatedAt.UTC().Format(time.RFC3339),
		schedule.ID)
	if err != nil {
		return persistence.Schedule{}, mapError(err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return persistence.Schedule{}, err
	} else if affected == 0 {
		return persistence.Schedule{}, persistence.ErrNotFound
	}

	return r.GetSchedule(ctx, schedule.ID)
}

func (r *ScheduleRepository) loadInterviewerIDs(ctx context.Context, scheduleID string) ([]string, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT interviewer_id FROM schedule_interviewers
		WHERE schedule_id = ? ORDER BY interviewer_id ASC`, scheduleID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return ids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (persistence.Schedule, error) {
	var (
		schedule                             persistence.Schedule
		scheduledAt, createdAt, updatedAt    string
		beverage                             sql.NullString
	)
	err := row.Scan(
		&schedule.ID,
		&schedule.CandidateID,
		&schedule.StageID,
		&schedule.DurationMinutes,
		&schedule.Status,
		&scheduledAt,
		&schedule.CandidateResponse,
		&beverage,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Schedule{}, mapError(err)
	}

	if beverage.Valid {
		schedule.BeveragePreference = &beverage.String
	}
	if schedule.ScheduledAt, err = parseStoredTime(scheduledAt, "scheduled_at"); err != nil {
		return persistence.Schedule{}, err
	}
	if schedule.CreatedAt, err = parseStoredTime(createdAt, "created_at"); err != nil {
		return persistence.Schedule{}, err
	}
	if schedule.UpdatedAt, err = parseStoredTime(updatedAt, "updated_at"); err != nil {
		return persistence.Schedule{}, err
	}
	return schedule, nil
}

func scanOption(row rowScanner) (persistence.ScheduleOption, error) {
	var (
		option                            persistence.ScheduleOption
		scheduledAt, createdAt, updatedAt string
		reason                            sql.NullString
	)
	err := row.Scan(
		&option.ID,
		&option.ScheduleID,
		&scheduledAt,
		&reason,
		&option.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.ScheduleOption{}, mapError(err)
	}

	if reason.Valid {
		option.Reason = &reason.String
	}
	if option.ScheduledAt, err = parseStoredTime(scheduledAt, "scheduled_at"); err != nil {
		return persistence.ScheduleOption{}, err
	}
	if option.CreatedAt, err = parseStoredTime(createdAt, "created_at"); err != nil {
		return persistence.ScheduleOption{}, err
	}
	if option.UpdatedAt, err = parseStoredTime(updatedAt, "updated_at"); err != nil {
		return persistence.ScheduleOption{}, err
	}
	return option, nil
}

func parseStoredTime(value, column string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parsing %s: %w", column, err)
	}
	return t, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
