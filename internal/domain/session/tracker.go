package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/workpulse/agent/internal/domain/metrics"
	"github.com/workpulse/agent/internal/domain/scoring"
	"github.com/workpulse/agent/internal/foreground"
	"github.com/workpulse/agent/internal/input"
)

// Standalone validity rule for a command-hours period.
const (
	validityMinScore       = 30
	validityActivityWindow = 5 * time.Minute
)

// Config holds tracker timing. Zero values take the production defaults.
type Config struct {
	PeriodLength  time.Duration
	IdlePoll      time.Duration
	IdleThreshold time.Duration
}

func (c Config) withDefaults() Config {
	if c.PeriodLength <= 0 {
		c.PeriodLength = 10 * time.Minute
	}
	if c.IdlePoll <= 0 {
		c.IdlePoll = 30 * time.Second
	}
	if c.IdleThreshold <= 0 {
		c.IdleThreshold = 60 * time.Second
	}
	return c
}

type command struct {
	fn    func(ctx context.Context) error
	reply chan error
}

// Tracker owns the session lifecycle: it drives the period timer, performs
// idle detection, and triggers scoring and persistence at window boundaries.
//
// All counter mutation happens on the Run goroutine. Public methods send
// commands into that loop and wait for the reply, so Stop returns only
// after the in-flight partial period has been flushed.
type Tracker struct {
	sessions  SessionRepository
	periods   PeriodRepository
	labels    LabelRepository
	outbox    Outbox
	source    input.Source
	inspector foreground.Inspector
	logger    *slog.Logger
	cfg       Config

	agg     *metrics.Aggregator
	editor  metrics.EditorCounters
	current *Session
	label   string

	cmds    chan command
	events  *notifier
	running atomic.Bool
}

// NewTracker creates a tracker. Run must be called before any operation.
func NewTracker(
	sessions SessionRepository,
	periods PeriodRepository,
	labels LabelRepository,
	outbox Outbox,
	source input.Source,
	inspector foreground.Inspector,
	cfg Config,
	logger *slog.Logger,
) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	if source == nil {
		source = input.NoopSource{}
	}
	if inspector == nil {
		inspector = foreground.NoopInspector{}
	}
	return &Tracker{
		sessions:  sessions,
		periods:   periods,
		labels:    labels,
		outbox:    outbox,
		source:    source,
		inspector: inspector,
		logger:    logger,
		cfg:       cfg.withDefaults(),
		agg:       metrics.NewAggregator(time.Now()),
		cmds:      make(chan command),
		events:    &notifier{},
	}
}

// Subscribe registers a lifecycle event channel. Call before Run; slow
// consumers lose events rather than stalling the actor.
func (t *Tracker) Subscribe(buffer int) <-chan Event {
	return t.events.subscribe(buffer)
}

// Run executes the actor loop until ctx is canceled. On cancellation an
// in-flight partial period is flushed, but the session stays active in the
// store so Restore can reattach after a restart.
func (t *Tracker) Run(ctx context.Context) error {
	inputCh, err := t.source.Events(ctx)
	if err != nil {
		return fmt.Errorf("starting input capture: %w", err)
	}

	periodTimer := time.NewTimer(t.cfg.PeriodLength)
	stopTimer(periodTimer)
	idleTicker := time.NewTicker(t.cfg.IdlePoll)
	defer idleTicker.Stop()
	defer stopTimer(periodTimer)

	t.running.Store(true)
	defer t.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			if t.current != nil {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				t.flushPeriod(flushCtx, time.Now())
				cancel()
			}
			return nil

		case ev, ok := <-inputCh:
			if !ok {
				inputCh = nil
				continue
			}
			if t.current != nil {
				t.agg.Record(ev)
			} else {
				at := ev.At
				if at.IsZero() {
					at = time.Now()
				}
				t.agg.TouchActivity(at)
			}

		case <-periodTimer.C:
			t.flushPeriod(ctx, time.Now())
			if t.current != nil {
				periodTimer.Reset(t.cfg.PeriodLength)
			}

		case <-idleTicker.C:
			t.checkIdle(time.Now())

		case cmd := <-t.cmds:
			cmd.reply <- cmd.fn(withTimer{Context: ctx, timer: periodTimer})
		}
	}
}

// withTimer smuggles the period timer into command handlers so start/stop
// can arm and disarm it from inside the actor loop.
type withTimer struct {
	context.Context
	timer *time.Timer
}

func (t *Tracker) do(ctx context.Context, fn func(context.Context) error) error {
	if !t.running.Load() {
		return ErrNotRunning
	}
	cmd := command{fn: fn, reply: make(chan error, 1)}
	select {
	case t.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start begins tracking. Calling Start while already tracking with the same
// parameters is a no-op; with different parameters it stops the prior
// session first.
func (t *Tracker) Start(ctx context.Context, mode Mode, projectID *string, task string) error {
	if mode != ModeClientHours && mode != ModeCommandHours {
		return ErrInvalidInput
	}
	return t.do(ctx, func(ctx context.Context) error {
		return t.start(ctx, mode, projectID, task)
	})
}

// Stop ends the active session, flushing the in-progress window first.
// A no-op when no session is active.
func (t *Tracker) Stop(ctx context.Context) error {
	return t.do(ctx, func(ctx context.Context) error {
		return t.stop(ctx, EventStopped)
	})
}

// SwitchMode is stop followed by start.
func (t *Tracker) SwitchMode(ctx context.Context, mode Mode, projectID *string, task string) error {
	if mode != ModeClientHours && mode != ModeCommandHours {
		return ErrInvalidInput
	}
	return t.do(ctx, func(ctx context.Context) error {
		if err := t.stop(ctx, EventStopped); err != nil {
			return err
		}
		return t.start(ctx, mode, projectID, task)
	})
}

// Restore reattaches to a session found still active in storage after a
// crash or restart. No new session record is created.
func (t *Tracker) Restore(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidInput
	}
	return t.do(ctx, func(ctx context.Context) error {
		sess, err := t.sessions.Get(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("loading session: %w", err)
		}
		if !sess.IsActive {
			return ErrSessionInactive
		}
		now := time.Now()
		t.current = sess
		t.editor = metrics.EditorCounters{}
		t.agg.Reset(now)
		t.agg.TouchActivity(now)
		t.armTimer(ctx)
		t.events.publish(Event{Kind: EventStarted, SessionID: sess.ID, At: now})
		t.logger.Info("session restored", "session_id", sess.ID, "mode", sess.Mode)
		return nil
	})
}

// Veto force-stops the active session in response to a remote
// concurrent-session signal.
func (t *Tracker) Veto(ctx context.Context) error {
	return t.do(ctx, func(ctx context.Context) error {
		return t.stop(ctx, EventVetoed)
	})
}

// SetActivityLabel records the user-chosen "current activity" label applied
// to screenshots captured from now on.
func (t *Tracker) SetActivityLabel(ctx context.Context, label string) error {
	return t.do(ctx, func(ctx context.Context) error {
		t.label = label
		if t.labels != nil && label != "" {
			if err := t.labels.Touch(ctx, label); err != nil {
				t.logger.Warn("failed to store activity label", "error", err)
			}
		}
		return nil
	})
}

// RecordEditorActivity folds externally supplied editor counters into the
// current window. Used by client-hours scoring.
func (t *Tracker) RecordEditorActivity(ctx context.Context, c metrics.EditorCounters) error {
	return t.do(ctx, func(ctx context.Context) error {
		t.editor.Commits += c.Commits
		t.editor.Saves += c.Saves
		t.editor.CaretMoves += c.CaretMoves
		t.editor.LinesChanged += c.LinesChanged
		return nil
	})
}

// State returns a point-in-time view of the tracker, including the live
// score for the in-progress window.
func (t *Tracker) State(ctx context.Context) (StateSnapshot, error) {
	var snap StateSnapshot
	err := t.do(ctx, func(ctx context.Context) error {
		snap.ActivityLabel = t.label
		snap.LastActivity = t.agg.LastActivity()
		if t.current == nil {
			return nil
		}
		snap.Active = true
		snap.SessionID = t.current.ID
		snap.Mode = t.current.Mode
		snap.ProjectID = t.current.ProjectID
		snap.Task = t.current.Task
		snap.LiveScore = t.liveScore(time.Now())
		return nil
	})
	return snap, err
}

func (t *Tracker) start(ctx context.Context, mode Mode, projectID *string, task string) error {
	if t.current != nil {
		if t.current.Mode == mode && t.current.Task == task && equalPtr(t.current.ProjectID, projectID) {
			return nil
		}
		if err := t.stop(ctx, EventStopped); err != nil {
			return err
		}
	}

	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		Mode:      mode,
		ProjectID: projectID,
		Task:      task,
		StartTime: now,
		IsActive:  true,
	}
	if err := t.sessions.Create(ctx, sess); err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	if err := t.outbox.SessionCreated(ctx, sess); err != nil {
		t.logger.Warn("failed to enqueue session create", "session_id", sess.ID, "error", err)
	}

	t.current = sess
	t.editor = metrics.EditorCounters{}
	t.agg.Reset(now)
	t.agg.TouchActivity(now)
	t.armTimer(ctx)
	t.events.publish(Event{Kind: EventStarted, SessionID: sess.ID, At: now})
	t.logger.Info("session started", "session_id", sess.ID, "mode", mode, "task", task)
	return nil
}

func (t *Tracker) stop(ctx context.Context, kind EventKind) error {
	if t.current == nil {
		return nil
	}

	now := time.Now()
	t.flushPeriod(ctx, now)

	sess := t.current
	sess.EndTime = &now
	sess.IsActive = false
	if err := t.sessions.Update(ctx, sess); err != nil {
		return fmt.Errorf("closing session: %w", err)
	}
	if err := t.outbox.SessionUpdated(ctx, sess); err != nil {
		t.logger.Warn("failed to enqueue session update", "session_id", sess.ID, "error", err)
	}

	t.current = nil
	t.disarmTimer(ctx)
	t.events.publish(Event{Kind: kind, SessionID: sess.ID, At: now})
	t.logger.Info("session stopped", "session_id", sess.ID, "vetoed", kind == EventVetoed)
	return nil
}

// flushPeriod scores the current window, persists an ActivityPeriod and
// resets the counters. Persistence failures are logged, never fatal: the
// timer loop must survive local-capture errors.
func (t *Tracker) flushPeriod(ctx context.Context, now time.Time) {
	if t.current == nil {
		return
	}

	snap := t.agg.Snapshot(now)
	score := t.liveScore(now)

	classification := scoring.ClassUnknown
	if win, err := t.inspector.ActiveWindow(ctx); err == nil {
		classification = scoring.Classify(win)
	}

	last := t.agg.LastActivity()
	valid := score >= validityMinScore && !last.IsZero() && now.Sub(last) < validityActivityWindow

	period := &ActivityPeriod{
		ID:             uuid.NewString(),
		SessionID:      t.current.ID,
		PeriodStart:    snap.WindowStart,
		PeriodEnd:      now,
		Mode:           t.current.Mode,
		ActivityScore:  score,
		IsValid:        valid,
		Classification: classification,
		Breakdown:      snap,
	}

	if err := t.periods.Create(ctx, period); err != nil {
		t.logger.Error("failed to persist activity period", "session_id", period.SessionID, "error", err)
	} else if err := t.outbox.PeriodCreated(ctx, period); err != nil {
		t.logger.Warn("failed to enqueue activity period", "period_id", period.ID, "error", err)
	}

	t.agg.Reset(now)
	t.editor = metrics.EditorCounters{}
	t.events.publish(Event{Kind: EventPeriodRecorded, SessionID: period.SessionID, PeriodID: period.ID, At: now})
	t.logger.Debug("period recorded",
		"period_id", period.ID, "score", score, "valid", valid, "classification", classification)
}

func (t *Tracker) liveScore(now time.Time) int {
	if t.current == nil {
		return 0
	}
	if t.current.Mode == ModeClientHours {
		return scoring.ClientScore(t.editor)
	}
	return scoring.CommandScore(t.agg.Snapshot(now))
}

func (t *Tracker) checkIdle(now time.Time) {
	if t.current == nil {
		return
	}
	last := t.agg.LastActivity()
	if last.IsZero() || now.Sub(last) <= t.cfg.IdleThreshold {
		return
	}
	t.events.publish(Event{Kind: EventIdle, SessionID: t.current.ID, At: now})
	t.logger.Debug("idle detected", "session_id", t.current.ID, "since", now.Sub(last))
}

func (t *Tracker) armTimer(ctx context.Context) {
	if wt, ok := ctx.(withTimer); ok {
		stopTimer(wt.timer)
		wt.timer.Reset(t.cfg.PeriodLength)
	}
}

func (t *Tracker) disarmTimer(ctx context.Context) {
	if wt, ok := ctx.(withTimer); ok {
		stopTimer(wt.timer)
	}
}

func stopTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
