package sqlite

import (
	"context"
	"fmt"
	"time"
)

// LabelRepository implements session.LabelRepository for SQLite
type LabelRepository struct {
	db *DB
}

// NewLabelRepository creates a new LabelRepository
func NewLabelRepository(db *DB) *LabelRepository {
	return &LabelRepository{db: db}
}

// Touch records that a label was just used
func (r *LabelRepository) Touch(ctx context.Context, label string) error {
	query := `
		INSERT INTO activity_labels (label, last_used)
		VALUES (?, ?)
		ON CONFLICT(label) DO UPDATE SET last_used = excluded.last_used
	`

	if _, err := r.db.ExecContext(ctx, query, label, time.Now()); err != nil {
		return fmt.Errorf("failed to touch label: %w", err)
	}
	return nil
}

// Recent returns the most recently used labels, newest first
func (r *LabelRepository) Recent(ctx context.Context, limit int) ([]string, error) {
	query := `
		SELECT label
		FROM activity_labels
		ORDER BY last_used DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating labels: %w", err)
	}

	return labels, nil
}
