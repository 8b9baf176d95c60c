package metrics

import (
	"math"
	"time"

	"github.com/workpulse/agent/internal/input"
)

const (
	// Pointer moves under this many pixels are sensor jitter.
	jitterFloorPx = 5.0
	// Single jumps beyond this are display switches or hook glitches.
	jumpCeilingPx = 1000.0
	// Only one in ten navigation hits counts toward the key total.
	navigationWeight = 10
	// Crossing this suspicion level halves the window's key counters.
	suspicionHalveAt = 5.0
)

// Aggregator accumulates raw input counters for one capture window.
// It is not safe for concurrent use: the tracker actor goroutine is the
// single caller, per the capture path's single-writer design.
type Aggregator struct {
	windowStart      time.Time
	totalKeys        int
	productiveKeys   int
	navigationHits   int
	uniqueKeys       map[int]struct{}
	uniqueProductive map[int]struct{}
	clicks           int
	rightClicks      int
	scrolls          int
	distance         float64
	lastX, lastY     float64
	haveLastPoint    bool
	lastActivity     time.Time
	halved           bool
	detector         *botDetector
}

// NewAggregator creates an aggregator with its window starting at now.
func NewAggregator(now time.Time) *Aggregator {
	a := &Aggregator{detector: newBotDetector()}
	a.Reset(now)
	return a
}

// Record folds one input event into the current window.
func (a *Aggregator) Record(ev input.Event) {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	a.lastActivity = at
	a.detector.decay()

	switch ev.Kind {
	case input.KeyDown:
		a.recordKey(ev.Keycode, at)
	case input.MouseClick:
		a.clicks++
	case input.MouseRightClick:
		a.rightClicks++
	case input.Scroll:
		a.scrolls++
	case input.MouseMove:
		a.recordMove(ev.X, ev.Y)
	}
}

func (a *Aggregator) recordKey(code int, at time.Time) {
	switch classify(code) {
	case classProductive:
		a.totalKeys++
		a.productiveKeys++
		a.uniqueProductive[code] = struct{}{}
	case classNavigation:
		a.navigationHits++
		if a.navigationHits%navigationWeight == 0 {
			a.totalKeys++
		}
	default:
		a.totalKeys++
	}
	a.uniqueKeys[code] = struct{}{}

	triggered := a.detector.observeKey(code, at)
	a.detector.raise(triggered)
	if a.detector.suspicion > suspicionHalveAt && !a.halved {
		a.totalKeys /= 2
		a.productiveKeys /= 2
		a.navigationHits /= 2
		a.halved = true
	}
}

func (a *Aggregator) recordMove(x, y float64) {
	if !a.haveLastPoint {
		a.lastX, a.lastY = x, y
		a.haveLastPoint = true
		return
	}
	d := math.Hypot(x-a.lastX, y-a.lastY)
	a.lastX, a.lastY = x, y
	if d < jitterFloorPx || d > jumpCeilingPx {
		return
	}
	a.distance += d
}

// Snapshot captures the window's counters as of now.
func (a *Aggregator) Snapshot(now time.Time) Snapshot {
	return Snapshot{
		WindowStart:          a.windowStart,
		Elapsed:              now.Sub(a.windowStart),
		TotalKeys:            a.totalKeys,
		ProductiveKeys:       a.productiveKeys,
		NavigationKeys:       a.navigationHits,
		UniqueKeys:           len(a.uniqueKeys),
		UniqueProductiveKeys: len(a.uniqueProductive),
		Clicks:               a.clicks,
		RightClicks:          a.rightClicks,
		Scrolls:              a.scrolls,
		MouseDistance:        a.distance,
		Suspicion:            a.detector.suspicion,
	}
}

// Reset clears all counters for the next window. Counters never leak
// across window boundaries. Suspicion state carries over: a bot does not
// become human at a period boundary.
func (a *Aggregator) Reset(now time.Time) {
	a.windowStart = now
	a.totalKeys = 0
	a.productiveKeys = 0
	a.navigationHits = 0
	a.uniqueKeys = make(map[int]struct{})
	a.uniqueProductive = make(map[int]struct{})
	a.clicks = 0
	a.rightClicks = 0
	a.scrolls = 0
	a.distance = 0
	a.haveLastPoint = false
	a.halved = false
}

// LastActivity returns the timestamp of the most recent input event.
func (a *Aggregator) LastActivity() time.Time {
	return a.lastActivity
}

// TouchActivity records non-event activity (e.g. session start) so idle
// detection has a baseline.
func (a *Aggregator) TouchActivity(at time.Time) {
	a.lastActivity = at
}

// Suspicion exposes the current bot-suspicion score.
func (a *Aggregator) Suspicion() float64 {
	return a.detector.suspicion
}
