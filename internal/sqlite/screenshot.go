package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/workpulse/agent/internal/domain/screenshot"
	"github.com/workpulse/agent/internal/repository"
)

// ScreenshotRepository implements the screenshot stores for SQLite
type ScreenshotRepository struct {
	db *DB
}

// NewScreenshotRepository creates a new ScreenshotRepository
func NewScreenshotRepository(db *DB) *ScreenshotRepository {
	return &ScreenshotRepository{db: db}
}

// Create persists a captured screenshot. The slot columns derive from the
// capture time and enforce the one-capture-per-slot rule.
func (r *ScreenshotRepository) Create(ctx context.Context, shot *screenshot.Screenshot) error {
	query := `
		INSERT INTO screenshots (
			id, session_id, user_id, local_path, remote_url,
			thumbnail_path, thumbnail_remote_url, captured_at,
			slot_day, slot_key, mode, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		shot.ID,
		shot.SessionID,
		shot.UserID,
		shot.LocalPath,
		shot.RemoteURL,
		shot.ThumbnailPath,
		shot.ThumbnailRemoteURL,
		shot.CapturedAt,
		screenshot.SlotDay(shot.CapturedAt),
		screenshot.SlotKey(shot.CapturedAt),
		shot.Mode,
		shot.Notes,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create screenshot: %w", err)
	}

	return nil
}

// Get retrieves a screenshot by ID
func (r *ScreenshotRepository) Get(ctx context.Context, id string) (*screenshot.Screenshot, error) {
	query := `
		SELECT id, session_id, user_id, local_path, remote_url,
		       thumbnail_path, thumbnail_remote_url, captured_at, mode, notes
		FROM screenshots
		WHERE id = ?
	`

	var shot screenshot.Screenshot
	var userID, remoteURL, thumbPath, thumbRemote, notes sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&shot.ID,
		&shot.SessionID,
		&userID,
		&shot.LocalPath,
		&remoteURL,
		&thumbPath,
		&thumbRemote,
		&shot.CapturedAt,
		&shot.Mode,
		&notes,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get screenshot: %w", err)
	}

	shot.UserID = userID.String
	shot.RemoteURL = remoteURL.String
	shot.ThumbnailPath = thumbPath.String
	shot.ThumbnailRemoteURL = thumbRemote.String
	shot.Notes = notes.String

	return &shot, nil
}

// SlotTaken reports whether a capture already exists for the slot
func (r *ScreenshotRepository) SlotTaken(ctx context.Context, day string, slot int) (bool, error) {
	query := `SELECT COUNT(*) FROM screenshots WHERE slot_day = ? AND slot_key = ?`

	var count int
	if err := r.db.QueryRowContext(ctx, query, day, slot).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return count > 0, nil
}

// ListByDay returns all captures of a day in chronological order
func (r *ScreenshotRepository) ListByDay(ctx context.Context, day string) ([]screenshot.Screenshot, error) {
	query := `
		SELECT id, session_id, user_id, local_path, remote_url,
		       thumbnail_path, thumbnail_remote_url, captured_at, mode, notes
		FROM screenshots
		WHERE slot_day = ?
		ORDER BY captured_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list screenshots: %w", err)
	}
	defer rows.Close()

	var shots []screenshot.Screenshot
	for rows.Next() {
		var shot screenshot.Screenshot
		var userID, remoteURL, thumbPath, thumbRemote, notes sql.NullString
		if err := rows.Scan(
			&shot.ID,
			&shot.SessionID,
			&userID,
			&shot.LocalPath,
			&remoteURL,
			&thumbPath,
			&thumbRemote,
			&shot.CapturedAt,
			&shot.Mode,
			&notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan screenshot: %w", err)
		}
		shot.UserID = userID.String
		shot.RemoteURL = remoteURL.String
		shot.ThumbnailPath = thumbPath.String
		shot.ThumbnailRemoteURL = thumbRemote.String
		shot.Notes = notes.String
		shots = append(shots, shot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating screenshots: %w", err)
	}

	return shots, nil
}

// MarkUploaded records the remote URLs once the binary upload and metadata
// create both succeeded
func (r *ScreenshotRepository) MarkUploaded(ctx context.Context, id, remoteURL, thumbnailRemoteURL string) error {
	query := `
		UPDATE screenshots
		SET remote_url = ?, thumbnail_remote_url = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, remoteURL, thumbnailRemoteURL, id)
	if err != nil {
		return fmt.Errorf("failed to mark screenshot uploaded: %w", err)
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

// Delete removes a screenshot row. Callers remove the image files.
func (r *ScreenshotRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM screenshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete screenshot: %w", err)
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
