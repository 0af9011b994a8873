package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/talent-scheduler/internal/crypto"
	"github.com/example/talent-scheduler/internal/persistence"
)

// InterviewerRepository implements persistence.InterviewerRepository on
// SQLite. Calendar tokens are sealed before insertion and opened on read, so
// plaintext credentials only ever exist in memory.
type InterviewerRepository struct {
	pool *ConnectionPool
	aead *crypto.AEAD
}

// NewInterviewerRepository wires an interviewer repository around the pool.
// The AEAD is required; credentials are never stored in the clear.
func NewInterviewerRepository(pool *ConnectionPool, aead *crypto.AEAD) *InterviewerRepository {
	return &InterviewerRepository{pool: pool, aead: aead}
}

// CreateInterviewer inserts a new interviewer record.
func (r *InterviewerRepository) CreateInterviewer(ctx context.Context, interviewer persistence.Interviewer) error {
	access, refresh, err := r.sealTokens(interviewer)
	if err != nil {
		return err
	}

	_, err = r.pool.db.ExecContext(ctx, `
		INSERT INTO interviewers (id, name, email, calendar_id, access_token, refresh_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		interviewer.ID,
		interviewer.Name,
		interviewer.Email,
		interviewer.CalendarID,
		access,
		refresh,
		interviewer.CreatedAt.UTC().Format(time.RFC3339),
		interviewer.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// UpdateInterviewer overwrites an existing interviewer record.
func (r *InterviewerRepository) UpdateInterviewer(ctx context.Context, interviewer persistence.Interviewer) error {
	access, refresh, err := r.sealTokens(interviewer)
	if err != nil {
		return err
	}

	res, err := r.pool.db.ExecContext(ctx, `
		UPDATE interviewers
		SET name = ?, email = ?, calendar_id = ?, access_token = ?, refresh_token = ?, updated_at = ?
		WHERE id = ?`,
		interviewer.Name,
		interviewer.Email,
		interviewer.CalendarID,
		access,
		refresh,
		interviewer.UpdatedAt.UTC().Format(time.RFC3339),
		interviewer.ID,
	)
	if err != nil {
		return mapError(err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetInterviewer retrieves one interviewer with opened credentials.
func (r *InterviewerRepository) GetInterviewer(ctx context.Context, id string) (persistence.Interviewer, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, name, email, calendar_id, access_token, refresh_token, created_at, updated_at
		FROM interviewers WHERE id = ?`, id)
	return r.scanInterviewer(row)
}

// GetInterviewers retrieves the interviewers for the given IDs, ordered by
// ID. Missing IDs are simply absent from the result; the caller decides
// whether that is an error.
func (r *InterviewerRepository) GetInterviewers(ctx context.Context, ids []string) ([]persistence.Interviewer, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.pool.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, name, email, calendar_id, access_token, refresh_token, created_at, updated_at
		FROM interviewers WHERE id IN (%s) ORDER BY id ASC`, placeholders), args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var interviewers []persistence.Interviewer
	for rows.Next() {
		interviewer, err := r.scanInterviewer(rows)
		if err != nil {
			return nil, err
		}
		interviewers = append(interviewers, interviewer)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return interviewers, nil
}

// DeleteInterviewer removes an interviewer record.
func (r *InterviewerRepository) DeleteInterviewer(ctx context.Context, id string) error {
	res, err := r.pool.db.ExecContext(ctx, `DELETE FROM interviewers WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *InterviewerRepository) sealTokens(interviewer persistence.Interviewer) (access, refresh string, err error) {
	if r.aead == nil {
		return "", "", fmt.Errorf("sqlite: interviewer repository has no credential cipher")
	}
	if access, err = r.aead.Seal(interviewer.AccessToken); err != nil {
		return "", "", fmt.Errorf("sqlite: sealing access token: %w", err)
	}
	if refresh, err = r.aead.Seal(interviewer.RefreshToken); err != nil {
		return "", "", fmt.Errorf("sqlite: sealing refresh token: %w", err)
	}
	return access, refresh, nil
}

func (r *InterviewerRepository) scanInterviewer(row rowScanner) (persistence.Interviewer, error) {
	var (
		interviewer          persistence.Interviewer
		access, refresh      string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&interviewer.ID,
		&interviewer.Name,
		&interviewer.Email,
		&interviewer.CalendarID,
		&access,
		&refresh,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Interviewer{}, mapError(err)
	}

	if interviewer.AccessToken, err = r.aead.Open(access); err != nil {
		return persistence.Interviewer{}, fmt.Errorf("sqlite: opening access token: %w", err)
	}
	if interviewer.RefreshToken, err = r.aead.Open(refresh); err != nil {
		return persistence.Interviewer{}, fmt.Errorf("sqlite: opening refresh token: %w", err)
	}
	if interviewer.CreatedAt, err = parseStoredTime(createdAt, "created_at"); err != nil {
		return persistence.Interviewer{}, err
	}
	if interviewer.UpdatedAt, err = parseStoredTime(updatedAt, "updated_at"); err != nil {
		return persistence.Interviewer{}, err
	}
	return interviewer, nil
}
