package metrics

import "time"

const (
	slidingWindow = 10 * time.Second
	// More keys than this inside the sliding window is pattern (i).
	burstKeyLimit = 150
	// Inter-key interval variance below this (ms^2) with a mean interval
	// under 200ms is the signature of programmatic injection, pattern (ii).
	varianceFloorMs2 = 10.0
	meanCeilingMs    = 200.0
	// Minimum intervals before the variance test is meaningful.
	minIntervalSamples = 10
	// Same keycode repeating more than this consecutively is pattern (iii).
	repeatLimit = 50

	suspicionDecay = 0.1
	suspicionStep  = 1.0
)

// botDetector keeps a 10-second sliding window of keystroke timestamps and
// scores how machine-like the stream looks.
type botDetector struct {
	stamps      []time.Time
	lastKeycode int
	repeatRun   int
	suspicion   float64
}

func newBotDetector() *botDetector {
	return &botDetector{lastKeycode: -1}
}

// decay is applied once per input event of any kind. Suspicion never goes
// negative.
func (d *botDetector) decay() {
	d.suspicion -= suspicionDecay
	if d.suspicion < 0 {
		d.suspicion = 0
	}
}

// raise bumps suspicion by one per triggered pattern.
func (d *botDetector) raise(patterns int) {
	d.suspicion += suspicionStep * float64(patterns)
}

// observeKey records one keystroke and returns how many suspicion patterns
// it triggered.
func (d *botDetector) observeKey(code int, at time.Time) int {
	if code == d.lastKeycode {
		d.repeatRun++
	} else {
		d.lastKeycode = code
		d.repeatRun = 1
	}

	d.stamps = append(d.stamps, at)
	d.trim(at)

	triggered := 0
	if len(d.stamps) > burstKeyLimit {
		triggered++
	}
	if d.injectionSignature() {
		triggered++
	}
	if d.repeatRun > repeatLimit {
		triggered++
	}
	return triggered
}

func (d *botDetector) trim(now time.Time) {
	cutoff := now.Add(-slidingWindow)
	idx := 0
	for idx < len(d.stamps) && d.stamps[idx].Before(cutoff) {
		idx++
	}
	if idx > 0 {
		d.stamps = append(d.stamps[:0], d.stamps[idx:]...)
	}
}

// injectionSignature reports near-constant inter-key timing: sample variance
// under 10 ms^2 while the mean interval is below 200ms.
func (d *botDetector) injectionSignature() bool {
	if len(d.stamps) < minIntervalSamples+1 {
		return false
	}
	intervals := make([]float64, 0, len(d.stamps)-1)
	for i := 1; i < len(d.stamps); i++ {
		intervals = append(intervals, float64(d.stamps[i].Sub(d.stamps[i-1]).Microseconds())/1000.0)
	}

	var sum float64
	for _, iv := range intervals {
		sum += iv
	}
	mean := sum / float64(len(intervals))
	if mean >= meanCeilingMs {
		return false
	}

	var sq float64
	for _, iv := range intervals {
		diff := iv - mean
		sq += diff * diff
	}
	variance := sq / float64(len(intervals))
	return variance < varianceFloorMs2
}
