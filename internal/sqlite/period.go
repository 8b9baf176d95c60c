package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/workpulse/agent/internal/domain/report"
	"github.com/workpulse/agent/internal/domain/session"
	"github.com/workpulse/agent/internal/repository"
)

// PeriodRepository implements session.PeriodRepository for SQLite
type PeriodRepository struct {
	db *DB
}

// NewPeriodRepository creates a new PeriodRepository
func NewPeriodRepository(db *DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// Create persists a scored activity period
func (r *PeriodRepository) Create(ctx context.Context, period *session.ActivityPeriod) error {
	breakdown, err := json.Marshal(period.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics breakdown: %w", err)
	}

	query := `
		INSERT INTO activity_periods (
			id, session_id, period_start, period_end, mode,
			activity_score, is_valid, classification, metrics_breakdown
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		period.ID,
		period.SessionID,
		period.PeriodStart,
		period.PeriodEnd,
		period.Mode,
		period.ActivityScore,
		period.IsValid,
		period.Classification,
		string(breakdown),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create activity period: %w", err)
	}

	return nil
}

// ListBySession returns all periods of a session in chronological order
func (r *PeriodRepository) ListBySession(ctx context.Context, sessionID string) ([]session.ActivityPeriod, error) {
	query := `
		SELECT id, session_id, period_start, period_end, mode,
		       activity_score, is_valid, classification, metrics_breakdown
		FROM activity_periods
		WHERE session_id = ?
		ORDER BY period_start ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity periods: %w", err)
	}
	defer rows.Close()

	return scanPeriods(rows)
}

// ScoresBetween returns period start/score pairs overlapping [from, to),
// feeding the hourly pooling of the validity engine.
func (r *PeriodRepository) ScoresBetween(ctx context.Context, from, to time.Time) ([]report.PeriodScore, error) {
	query := `
		SELECT period_start, activity_score
		FROM activity_periods
		WHERE period_start >= ? AND period_start < ?
		ORDER BY period_start ASC
	`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list period scores: %w", err)
	}
	defer rows.Close()

	var scores []report.PeriodScore
	for rows.Next() {
		var s report.PeriodScore
		if err := rows.Scan(&s.Start, &s.Score); err != nil {
			return nil, fmt.Errorf("failed to scan period score: %w", err)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating period scores: %w", err)
	}

	return scores, nil
}

// ScoreAround returns the highest score among a session's periods covering
// the given instant, and zero when no period covers it.
func (r *PeriodRepository) ScoreAround(ctx context.Context, sessionID string, at time.Time) (int, error) {
	query := `
		SELECT COALESCE(MAX(activity_score), 0)
		FROM activity_periods
		WHERE session_id = ? AND period_start <= ? AND period_end > ?
	`

	var score int
	if err := r.db.QueryRowContext(ctx, query, sessionID, at, at).Scan(&score); err != nil {
		return 0, fmt.Errorf("failed to get period score: %w", err)
	}
	return score, nil
}

func scanPeriods(rows *sql.Rows) ([]session.ActivityPeriod, error) {
	var periods []session.ActivityPeriod
	for rows.Next() {
		var p session.ActivityPeriod
		var breakdown string
		if err := rows.Scan(
			&p.ID,
			&p.SessionID,
			&p.PeriodStart,
			&p.PeriodEnd,
			&p.Mode,
			&p.ActivityScore,
			&p.IsValid,
			&p.Classification,
			&breakdown,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity period: %w", err)
		}
		if err := json.Unmarshal([]byte(breakdown), &p.Breakdown); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metrics breakdown: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity periods: %w", err)
	}

	return periods, nil
}
