package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/workpulse/agent/internal/domain/outbox"
	"github.com/workpulse/agent/internal/repository"
)

// QueueRepository implements the durable sync queue for SQLite
type QueueRepository struct {
	db *DB
}

// NewQueueRepository creates a new QueueRepository
func NewQueueRepository(db *DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Enqueue appends a pending mutation
func (r *QueueRepository) Enqueue(ctx context.Context, item *outbox.Item) error {
	query := `
		INSERT INTO sync_queue (
			id, entity_type, entity_id, session_id, operation,
			payload, attempts, synced, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.EntityType,
		item.EntityID,
		item.SessionID,
		item.Operation,
		string(item.Payload),
		item.Attempts,
		item.Synced,
		item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue item: %w", err)
	}

	return nil
}

// Pending returns all unsynced items in enqueue order
func (r *QueueRepository) Pending(ctx context.Context) ([]outbox.Item, error) {
	query := `
		SELECT id, entity_type, entity_id, session_id, operation,
		       payload, attempts, synced, created_at
		FROM sync_queue
		WHERE synced = 0
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending items: %w", err)
	}
	defer rows.Close()

	var items []outbox.Item
	for rows.Next() {
		var item outbox.Item
		var payload string
		if err := rows.Scan(
			&item.ID,
			&item.EntityType,
			&item.EntityID,
			&item.SessionID,
			&item.Operation,
			&payload,
			&item.Attempts,
			&item.Synced,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan queue item: %w", err)
		}
		item.Payload = []byte(payload)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue items: %w", err)
	}

	return items, nil
}

// MarkSynced flags an item as delivered
func (r *QueueRepository) MarkSynced(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE sync_queue SET synced = 1 WHERE id = ?`, id)
}

// IncrementAttempts bumps the permanent-failure counter of an item
func (r *QueueRepository) IncrementAttempts(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE sync_queue SET attempts = attempts + 1 WHERE id = ?`, id)
}

// Delete removes an item, delivered or not
func (r *QueueRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM sync_queue WHERE id = ?`, id)
}

// DeleteForSession discards all pending mutations belonging to a session.
// Used when a remote veto makes the session's local history moot.
func (r *QueueRepository) DeleteForSession(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sync_queue WHERE session_id = ? AND synced = 0`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear session queue: %w", err)
	}
	return nil
}

// Status returns the most recent queue item for an entity, letting callers
// report whether it is pending or already delivered.
func (r *QueueRepository) Status(ctx context.Context, entityType outbox.EntityType, entityID string) (*outbox.Item, error) {
	query := `
		SELECT id, entity_type, entity_id, session_id, operation,
		       payload, attempts, synced, created_at
		FROM sync_queue
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var item outbox.Item
	var payload string
	err := r.db.QueryRowContext(ctx, query, entityType, entityID).Scan(
		&item.ID,
		&item.EntityType,
		&item.EntityID,
		&item.SessionID,
		&item.Operation,
		&payload,
		&item.Attempts,
		&item.Synced,
		&item.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue status: %w", err)
	}
	item.Payload = []byte(payload)

	return &item, nil
}

func (r *QueueRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update queue item: %w", err)
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
