// Package sync drains the durable outbox to the tracking service. The agent
// is offline-first: every mutation lands in the local queue and the engine
// delivers it when the service is reachable, in dependency order.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	stdsync "sync"
	"time"

	"github.com/workpulse/agent/internal/domain/outbox"
	"github.com/workpulse/agent/internal/domain/screenshot"
	"github.com/workpulse/agent/internal/remote"
	"github.com/workpulse/agent/internal/repository"
)

const (
	defaultDrainInterval  = 30 * time.Second
	defaultOfflineBackoff = 30 * time.Second
	defaultVetoCooldown   = 5 * time.Minute

	// Zero-score screenshots are purged locally after this many failed
	// delivery attempts instead of retrying forever.
	purgeAttempts = 5
)

// NoticeKind classifies engine notices surfaced to the UI layer.
type NoticeKind string

const (
	NoticeUpgradeRequired NoticeKind = "upgrade_required"
	NoticeSessionVetoed   NoticeKind = "session_vetoed"
)

// Notice is a user-facing event the engine cannot resolve on its own.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Queue is the durable outbox the engine drains.
type Queue interface {
	Enqueue(ctx context.Context, item *outbox.Item) error
	Pending(ctx context.Context) ([]outbox.Item, error)
	MarkSynced(ctx context.Context, id string) error
	IncrementAttempts(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DeleteForSession(ctx context.Context, sessionID string) error
}

// SessionStore tracks which sessions the service has confirmed.
type SessionStore interface {
	MarkSynced(ctx context.Context, id string) error
	IsSynced(ctx context.Context, id string) (bool, error)
}

// PeriodStore supplies activity scores for the screenshot purge rule.
type PeriodStore interface {
	ScoreAround(ctx context.Context, sessionID string, at time.Time) (int, error)
}

// ScreenshotStore provides the screenshot rows and files behind queue items.
type ScreenshotStore interface {
	Get(ctx context.Context, id string) (*screenshot.Screenshot, error)
	MarkUploaded(ctx context.Context, id, remoteURL, thumbnailRemoteURL string) error
	Delete(ctx context.Context, id string) error
}

// API is the remote surface the engine delivers to.
type API interface {
	CreateSession(ctx context.Context, m outbox.SessionMutation) error
	UpdateSession(ctx context.Context, m outbox.SessionMutation) error
	CreateActivityPeriod(ctx context.Context, m outbox.PeriodMutation) error
	GenerateUploadURL(ctx context.Context, screenshotID string) (remote.UploadTarget, error)
	UploadFile(ctx context.Context, uploadURL, path string) error
	CreateScreenshot(ctx context.Context, m outbox.ScreenshotMutation, imageURL, thumbnailURL string) error
}

// VetoTarget stops the local session when the service reports a conflict.
type VetoTarget interface {
	Veto(ctx context.Context) error
}

// Config holds the engine timings. Zero values pick the defaults.
type Config struct {
	DrainInterval  time.Duration
	OfflineBackoff time.Duration
	VetoCooldown   time.Duration
}

func (c Config) withDefaults() Config {
	if c.DrainInterval <= 0 {
		c.DrainInterval = defaultDrainInterval
	}
	if c.OfflineBackoff <= 0 {
		c.OfflineBackoff = defaultOfflineBackoff
	}
	if c.VetoCooldown <= 0 {
		c.VetoCooldown = defaultVetoCooldown
	}
	return c
}

// Engine owns the drain loop. Drains never overlap: the loop runs them
// serially, whether triggered by the interval or a kick.
type Engine struct {
	queue       Queue
	sessions    SessionStore
	periods     PeriodStore
	screenshots ScreenshotStore
	api         API
	tracker     VetoTarget
	deviceID    string
	cfg         Config
	logger      *slog.Logger

	kick    chan struct{}
	notices chan Notice

	mu           stdsync.Mutex
	halted       bool
	offlineUntil time.Time
	lastVeto     time.Time
}

// NewEngine creates a new Engine
func NewEngine(queue Queue, sessions SessionStore, periods PeriodStore, screenshots ScreenshotStore, api API, tracker VetoTarget, deviceID string, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		queue:       queue,
		sessions:    sessions,
		periods:     periods,
		screenshots: screenshots,
		api:         api,
		tracker:     tracker,
		deviceID:    deviceID,
		cfg:         cfg.withDefaults(),
		logger:      logger,
		kick:        make(chan struct{}, 1),
		notices:     make(chan Notice, 8),
	}
}

// Notices surfaces events the UI must show (upgrade required, session veto)
func (e *Engine) Notices() <-chan Notice {
	return e.notices
}

// Halted reports whether the service rejected this agent version
func (e *Engine) Halted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.halted
}

// Kick requests an immediate drain. Safe from any goroutine; coalesces.
func (e *Engine) Kick() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

// Run drives the drain loop until the context ends. An immediate first
// drain flushes whatever the previous run left behind.
func (e *Engine) Run(ctx context.Context) error {
	e.drain(ctx)

	ticker := time.NewTicker(e.cfg.DrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.drain(ctx)
		case <-e.kick:
			e.drain(ctx)
		}
	}
}

func (e *Engine) drain(ctx context.Context) {
	e.mu.Lock()
	skip := e.halted || time.Now().Before(e.offlineUntil)
	e.mu.Unlock()
	if skip {
		return
	}

	items, err := e.queue.Pending(ctx)
	if err != nil {
		e.logger.Error("failed to read pending queue", "error", err)
		return
	}
	if len(items) == 0 {
		return
	}

	var sessions, shots, periods []outbox.Item
	for _, item := range items {
		switch item.EntityType {
		case outbox.EntitySession:
			sessions = append(sessions, item)
		case outbox.EntityScreenshot:
			shots = append(shots, item)
		case outbox.EntityActivityPeriod:
			periods = append(periods, item)
		}
	}

	// Sessions first so dependents can clear their gate this cycle, then
	// screenshots, then periods.
	for _, item := range sessions {
		if stop := e.sendSession(ctx, item); stop {
			return
		}
	}
	for _, item := range shots {
		if stop := e.sendScreenshot(ctx, item); stop {
			return
		}
	}

	var deferred []outbox.Item
	for _, item := range periods {
		held, stop := e.sendPeriod(ctx, item)
		if stop {
			return
		}
		if held {
			deferred = append(deferred, item)
		}
	}
	// One re-check for items whose session synced earlier in this cycle.
	for _, item := range deferred {
		held, stop := e.sendPeriod(ctx, item)
		if stop {
			return
		}
		if held {
			e.logger.Debug("activity period waiting on dependencies",
				"period_id", item.EntityID, "session_id", item.SessionID)
		}
	}
}

func (e *Engine) sendSession(ctx context.Context, item outbox.Item) bool {
	var m outbox.SessionMutation
	if err := json.Unmarshal(item.Payload, &m); err != nil {
		e.dropPoisonItem(ctx, item, err)
		return false
	}

	var err error
	switch item.Operation {
	case outbox.OpUpdate:
		err = e.api.UpdateSession(ctx, m)
	default:
		err = e.api.CreateSession(ctx, m)
	}
	if err != nil {
		return e.handleFailure(ctx, item, err)
	}

	if err := e.queue.MarkSynced(ctx, item.ID); err != nil {
		e.logger.Error("failed to mark item synced", "item_id", item.ID, "error", err)
	}
	// Either operation proves the session exists remotely.
	if err := e.sessions.MarkSynced(ctx, m.SessionID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		e.logger.Error("failed to record session sync", "session_id", m.SessionID, "error", err)
	}
	return false
}

func (e *Engine) sendScreenshot(ctx context.Context, item outbox.Item) bool {
	var m outbox.ScreenshotMutation
	if err := json.Unmarshal(item.Payload, &m); err != nil {
		e.dropPoisonItem(ctx, item, err)
		return false
	}

	shot, err := e.screenshots.Get(ctx, m.ScreenshotID)
	if errors.Is(err, repository.ErrNotFound) {
		e.deleteItem(ctx, item.ID)
		return false
	}
	if err != nil {
		e.logger.Error("failed to load screenshot", "screenshot_id", m.ScreenshotID, "error", err)
		return false
	}

	if item.Attempts >= purgeAttempts && e.zeroScore(ctx, shot) {
		e.logger.Info("purging undeliverable zero-score screenshot", "screenshot_id", shot.ID)
		e.purgeScreenshot(ctx, shot, item.ID)
		return false
	}

	target, err := e.api.GenerateUploadURL(ctx, shot.ID)
	if err == nil {
		err = e.api.UploadFile(ctx, target.ImageURL, shot.LocalPath)
	}
	if err == nil && shot.ThumbnailPath != "" {
		err = e.api.UploadFile(ctx, target.ThumbnailURL, shot.ThumbnailPath)
	}
	if err == nil {
		err = e.api.CreateScreenshot(ctx, m, target.ImageURL, target.ThumbnailURL)
	}
	if err != nil {
		// The service permanently refuses this screenshot, e.g. its session
		// never materialized remotely. Keep nothing.
		if errors.Is(err, remote.ErrInvalidOperation) {
			e.logger.Warn("screenshot rejected by service, discarding", "screenshot_id", shot.ID)
			e.purgeScreenshot(ctx, shot, item.ID)
			return false
		}
		return e.handleFailure(ctx, item, err)
	}

	if err := e.screenshots.MarkUploaded(ctx, shot.ID, target.ImageURL, target.ThumbnailURL); err != nil {
		e.logger.Error("failed to record upload", "screenshot_id", shot.ID, "error", err)
	}
	e.removeFiles(shot)
	if err := e.queue.MarkSynced(ctx, item.ID); err != nil {
		e.logger.Error("failed to mark item synced", "item_id", item.ID, "error", err)
	}
	return false
}

// sendPeriod returns held=true when the item's dependencies are not yet
// confirmed remotely. Held items cost no delivery attempt.
func (e *Engine) sendPeriod(ctx context.Context, item outbox.Item) (held, stop bool) {
	var m outbox.PeriodMutation
	if err := json.Unmarshal(item.Payload, &m); err != nil {
		e.dropPoisonItem(ctx, item, err)
		return false, false
	}

	ready, err := e.periodDepsReady(ctx, m)
	if err != nil {
		e.logger.Error("failed to check period dependencies", "period_id", m.PeriodID, "error", err)
		return true, false
	}
	if !ready {
		return true, false
	}

	if err := e.api.CreateActivityPeriod(ctx, m); err != nil {
		return false, e.handleFailure(ctx, item, err)
	}
	if err := e.queue.MarkSynced(ctx, item.ID); err != nil {
		e.logger.Error("failed to mark item synced", "item_id", item.ID, "error", err)
	}
	return false, false
}

func (e *Engine) periodDepsReady(ctx context.Context, m outbox.PeriodMutation) (bool, error) {
	synced, err := e.sessions.IsSynced(ctx, m.SessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !synced {
		return false, nil
	}

	if m.ScreenshotID != "" {
		shot, err := e.screenshots.Get(ctx, m.ScreenshotID)
		if errors.Is(err, repository.ErrNotFound) {
			// Purged locally; nothing left to wait for.
			return true, nil
		}
		if err != nil {
			return false, err
		}
		if shot.RemoteURL == "" {
			return false, nil
		}
	}
	return true, nil
}

// handleFailure classifies a delivery error. It returns true when the whole
// drain cycle should stop (offline, version halt).
func (e *Engine) handleFailure(ctx context.Context, item outbox.Item, err error) bool {
	switch {
	case errors.Is(err, remote.ErrUnreachable):
		e.mu.Lock()
		e.offlineUntil = time.Now().Add(e.cfg.OfflineBackoff)
		e.mu.Unlock()
		e.logger.Info("service unreachable, entering offline mode",
			"backoff", e.cfg.OfflineBackoff)
		return true

	case errors.Is(err, remote.ErrUnsupportedVersion):
		e.mu.Lock()
		e.halted = true
		e.mu.Unlock()
		e.logger.Warn("agent version no longer supported, sync halted")
		e.notify(NoticeUpgradeRequired, "This version is no longer supported. Please upgrade to resume syncing.")
		return true

	case errors.Is(err, remote.ErrConcurrentSession):
		e.handleConcurrentSession(ctx, item, err)
		return false

	case errors.Is(err, remote.ErrInvalidOperation):
		e.logger.Warn("mutation permanently rejected, discarding",
			"entity_type", item.EntityType, "entity_id", item.EntityID)
		e.deleteItem(ctx, item.ID)
		return false

	default:
		if !remote.Retryable(err) {
			e.logger.Warn("delivery failed", "entity_type", item.EntityType,
				"entity_id", item.EntityID, "error", err)
		}
		if err := e.queue.IncrementAttempts(ctx, item.ID); err != nil {
			e.logger.Error("failed to record attempt", "item_id", item.ID, "error", err)
		}
		return false
	}
}

func (e *Engine) handleConcurrentSession(ctx context.Context, item outbox.Item, err error) {
	var apiErr *remote.APIError
	if errors.As(err, &apiErr) && apiErr.DeviceID == e.deviceID {
		// Our own session is racing a previous delivery; plain retry.
		if err := e.queue.IncrementAttempts(ctx, item.ID); err != nil {
			e.logger.Error("failed to record attempt", "item_id", item.ID, "error", err)
		}
		return
	}

	e.mu.Lock()
	fire := time.Since(e.lastVeto) >= e.cfg.VetoCooldown
	if fire {
		e.lastVeto = time.Now()
	}
	e.mu.Unlock()

	if fire {
		e.logger.Warn("concurrent session on another device, vetoing local session",
			"session_id", item.SessionID)
		if err := e.tracker.Veto(ctx); err != nil {
			e.logger.Error("failed to veto session", "error", err)
		}
		e.notify(NoticeSessionVetoed, "Tracking stopped: another device is already running a session.")
	}

	if err := e.queue.DeleteForSession(ctx, item.SessionID); err != nil {
		e.logger.Error("failed to clear vetoed session queue",
			"session_id", item.SessionID, "error", err)
	}
}

func (e *Engine) zeroScore(ctx context.Context, shot *screenshot.Screenshot) bool {
	if shot.SessionID == screenshot.PlaceholderSessionID {
		return true
	}
	score, err := e.periods.ScoreAround(ctx, shot.SessionID, shot.CapturedAt)
	if err != nil {
		e.logger.Error("failed to load screenshot score", "screenshot_id", shot.ID, "error", err)
		return false
	}
	return score == 0
}

func (e *Engine) purgeScreenshot(ctx context.Context, shot *screenshot.Screenshot, itemID string) {
	e.removeFiles(shot)
	if err := e.screenshots.Delete(ctx, shot.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		e.logger.Error("failed to delete screenshot", "screenshot_id", shot.ID, "error", err)
	}
	e.deleteItem(ctx, itemID)
}

func (e *Engine) removeFiles(shot *screenshot.Screenshot) {
	for _, path := range []string{shot.LocalPath, shot.ThumbnailPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("failed to remove screenshot file", "path", path, "error", err)
		}
	}
}

func (e *Engine) dropPoisonItem(ctx context.Context, item outbox.Item, err error) {
	e.logger.Error("undecodable queue item, dropping",
		"item_id", item.ID, "entity_type", item.EntityType, "error", err)
	e.deleteItem(ctx, item.ID)
}

func (e *Engine) deleteItem(ctx context.Context, id string) {
	if err := e.queue.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		e.logger.Error("failed to delete queue item", "item_id", id, "error", err)
	}
}

func (e *Engine) notify(kind NoticeKind, message string) {
	select {
	case e.notices <- Notice{Kind: kind, Message: message}:
	default:
		e.logger.Warn("notice channel full, dropping notice", "kind", kind)
	}
}

