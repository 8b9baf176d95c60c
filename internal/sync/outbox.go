package sync

import (
	"context"
	"fmt"

	"github.com/workpulse/agent/internal/domain/outbox"
	"github.com/workpulse/agent/internal/domain/screenshot"
	"github.com/workpulse/agent/internal/domain/session"
)

// The engine is the outbox the tracker and scheduler write through: each
// mutation is validated, enqueued durably, and a drain is kicked so online
// delivery is near-immediate.

var (
	_ session.Outbox    = (*Engine)(nil)
	_ screenshot.Outbox = (*Engine)(nil)
)

// SessionCreated enqueues a session create
func (e *Engine) SessionCreated(ctx context.Context, sess *session.Session) error {
	item, err := outbox.NewSessionItem(sess, outbox.OpCreate, e.deviceID)
	if err != nil {
		return fmt.Errorf("build session item: %w", err)
	}
	return e.enqueue(ctx, item)
}

// SessionUpdated enqueues a session update
func (e *Engine) SessionUpdated(ctx context.Context, sess *session.Session) error {
	item, err := outbox.NewSessionItem(sess, outbox.OpUpdate, e.deviceID)
	if err != nil {
		return fmt.Errorf("build session item: %w", err)
	}
	return e.enqueue(ctx, item)
}

// PeriodCreated enqueues an activity period create
func (e *Engine) PeriodCreated(ctx context.Context, period *session.ActivityPeriod) error {
	item, err := outbox.NewPeriodItem(period, "")
	if err != nil {
		return fmt.Errorf("build period item: %w", err)
	}
	return e.enqueue(ctx, item)
}

// ScreenshotCreated enqueues a screenshot create
func (e *Engine) ScreenshotCreated(ctx context.Context, shot *screenshot.Screenshot) error {
	item, err := outbox.NewScreenshotItem(shot)
	if err != nil {
		return fmt.Errorf("build screenshot item: %w", err)
	}
	return e.enqueue(ctx, item)
}

func (e *Engine) enqueue(ctx context.Context, item *outbox.Item) error {
	if err := e.queue.Enqueue(ctx, item); err != nil {
		return fmt.Errorf("enqueue %s mutation: %w", item.EntityType, err)
	}
	e.Kick()
	return nil
}
