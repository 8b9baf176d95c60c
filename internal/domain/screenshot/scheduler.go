package screenshot

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/workpulse/agent/internal/domain/session"
)

// Repository provides persistence for screenshots.
type Repository interface {
	Create(ctx context.Context, shot *Screenshot) error
	SlotTaken(ctx context.Context, day string, slot int) (bool, error)
}

// Outbox receives screenshot mutations for the sync engine.
type Outbox interface {
	ScreenshotCreated(ctx context.Context, shot *Screenshot) error
}

// TrackerState exposes the tracker's current session and activity label.
type TrackerState interface {
	State(ctx context.Context) (session.StateSnapshot, error)
}

// Scheduler captures one screenshot per slot at a randomized instant inside
// the next unclaimed slot. It maintains a single outstanding timer and runs
// on its own goroutine: capture and encoding never stall the period timer
// or input aggregation.
type Scheduler struct {
	repo     Repository
	outbox   Outbox
	capturer Capturer
	tracker  TrackerState
	dir      string
	userID   string
	slotLen  time.Duration
	rng      *rand.Rand
	logger   *slog.Logger
}

// NewScheduler creates a scheduler writing images under dir.
func NewScheduler(
	repo Repository,
	outbox Outbox,
	capturer Capturer,
	tracker TrackerState,
	dir, userID string,
	logger *slog.Logger,
) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if capturer == nil {
		capturer = NoopCapturer{}
	}
	return &Scheduler{
		repo:     repo,
		outbox:   outbox,
		capturer: capturer,
		tracker:  tracker,
		dir:      dir,
		userID:   userID,
		slotLen:  SlotLength,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logger,
	}
}

// Run schedules captures until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		target := s.nextTarget(ctx, time.Now())
		wait := time.Until(target)
		if wait < 0 {
			wait = 0
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		s.captureSlot(ctx, time.Now())
	}
}

// nextTarget picks a random instant inside the next unclaimed slot. The
// current slot is never used, so a capture and its reschedule can't burst
// into the same window.
func (s *Scheduler) nextTarget(ctx context.Context, now time.Time) time.Time {
	slotStart := now.Truncate(s.slotLen).Add(s.slotLen)

	// Scan forward past already-captured slots. Bounded so a store failure
	// can't spin the loop.
	for i := 0; i < 12; i++ {
		taken, err := s.repo.SlotTaken(ctx, SlotDay(slotStart), s.slotKey(slotStart))
		if err != nil {
			s.logger.Warn("slot lookup failed", "error", err)
			break
		}
		if !taken {
			break
		}
		slotStart = slotStart.Add(s.slotLen)
	}

	offset := time.Duration(s.rng.Int63n(int64(s.slotLen)))
	return slotStart.Add(offset)
}

// captureSlot captures one screenshot and persists it. All failures are
// logged and skipped; the scheduler loop never crashes.
func (s *Scheduler) captureSlot(ctx context.Context, now time.Time) {
	day, key := SlotDay(now), s.slotKey(now)

	taken, err := s.repo.SlotTaken(ctx, day, key)
	if err != nil {
		s.logger.Warn("slot lookup failed", "day", day, "slot", key, "error", err)
		return
	}
	if taken {
		s.logger.Debug("slot already captured", "day", day, "slot", key)
		return
	}

	if !s.capturer.Available() {
		s.logger.Debug("no capture capability, skipping slot", "slot", key)
		return
	}
	img, err := s.capturer.Capture(ctx)
	if err != nil {
		s.logger.Warn("screen capture failed", "slot", key, "error", err)
		return
	}

	state, err := s.tracker.State(ctx)
	if err != nil {
		s.logger.Warn("tracker state unavailable", "error", err)
		state = session.StateSnapshot{}
	}
	sessionID := state.SessionID
	mode := state.Mode
	if !state.Active {
		sessionID = PlaceholderSessionID
		mode = session.ModeCommandHours
	}

	id := uuid.NewString()
	localPath := filepath.Join(s.dir, fmt.Sprintf("%s.png", id))
	thumbPath := filepath.Join(s.dir, fmt.Sprintf("%s_thumb.png", id))
	if err := writePNG(localPath, img); err != nil {
		s.logger.Error("failed to write screenshot", "error", err)
		return
	}
	if err := writePNG(thumbPath, thumbnail(img)); err != nil {
		s.logger.Error("failed to write thumbnail", "error", err)
		return
	}

	shot := &Screenshot{
		ID:            id,
		SessionID:     sessionID,
		UserID:        s.userID,
		LocalPath:     localPath,
		ThumbnailPath: thumbPath,
		CapturedAt:    now,
		Mode:          mode,
		Notes:         state.ActivityLabel,
	}
	if err := s.repo.Create(ctx, shot); err != nil {
		s.logger.Error("failed to persist screenshot", "screenshot_id", id, "error", err)
		return
	}
	if err := s.outbox.ScreenshotCreated(ctx, shot); err != nil {
		s.logger.Warn("failed to enqueue screenshot", "screenshot_id", id, "error", err)
	}
	s.logger.Debug("screenshot captured", "screenshot_id", id, "session_id", sessionID, "slot", key)
}

func (s *Scheduler) slotKey(at time.Time) int {
	midnight := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	return int(at.Sub(midnight) / s.slotLen)
}
