package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/workpulse/agent/internal/domain/session"
	"github.com/workpulse/agent/internal/repository"
)

// SessionRepository implements session.SessionRepository for SQLite
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	query := `
		INSERT INTO sessions (
			id, mode, project_id, task, start_time, end_time, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		sess.ID,
		sess.Mode,
		sess.ProjectID,
		sess.Task,
		sess.StartTime,
		sess.EndTime,
		sess.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	query := `
		SELECT id, mode, project_id, task, start_time, end_time, is_active
		FROM sessions
		WHERE id = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetActive returns the single active session, or repository.ErrNotFound
func (r *SessionRepository) GetActive(ctx context.Context) (*session.Session, error) {
	query := `
		SELECT id, mode, project_id, task, start_time, end_time, is_active
		FROM sessions
		WHERE is_active = 1
		ORDER BY start_time DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query))
}

// Update updates a session
func (r *SessionRepository) Update(ctx context.Context, sess *session.Session) error {
	query := `
		UPDATE sessions
		SET mode = ?, project_id = ?, task = ?, end_time = ?, is_active = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		sess.Mode,
		sess.ProjectID,
		sess.Task,
		sess.EndTime,
		sess.IsActive,
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// MarkSynced records that the remote service has confirmed the session.
// Activity periods for a session are held back until this flips.
func (r *SessionRepository) MarkSynced(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE sessions SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark session synced: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// IsSynced reports whether the remote service has confirmed the session
func (r *SessionRepository) IsSynced(ctx context.Context, id string) (bool, error) {
	var synced bool
	err := r.db.QueryRowContext(ctx, `SELECT synced FROM sessions WHERE id = ?`, id).Scan(&synced)
	if err == sql.ErrNoRows {
		return false, repository.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to get session sync state: %w", err)
	}
	return synced, nil
}

func (r *SessionRepository) scanOne(row *sql.Row) (*session.Session, error) {
	var sess session.Session
	var projectID sql.NullString
	var task sql.NullString
	var endTime sql.NullTime
	err := row.Scan(
		&sess.ID,
		&sess.Mode,
		&projectID,
		&task,
		&sess.StartTime,
		&endTime,
		&sess.IsActive,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if projectID.Valid {
		sess.ProjectID = &projectID.String
	}
	sess.Task = task.String
	if endTime.Valid {
		sess.EndTime = &endTime.Time
	}

	return &sess, nil
}
