package metrics

import "time"

// Snapshot is the immutable view of one capture window's accumulated
// counters, taken at a period boundary (or on demand for live display).
type Snapshot struct {
	WindowStart          time.Time     `json:"window_start"`
	Elapsed              time.Duration `json:"elapsed"`
	TotalKeys            int           `json:"total_keys"`
	ProductiveKeys       int           `json:"productive_keys"`
	NavigationKeys       int           `json:"navigation_keys"`
	UniqueKeys           int           `json:"unique_keys"`
	UniqueProductiveKeys int           `json:"unique_productive_keys"`
	Clicks               int           `json:"clicks"`
	RightClicks          int           `json:"right_clicks"`
	Scrolls              int           `json:"scrolls"`
	MouseDistance        float64       `json:"mouse_distance"`
	Suspicion            float64       `json:"suspicion"`
}

// Minutes returns the elapsed window length in minutes, never below a small
// floor so per-minute rates stay finite for very young windows.
func (s Snapshot) Minutes() float64 {
	m := s.Elapsed.Minutes()
	if m < 1.0/60.0 {
		return 1.0 / 60.0
	}
	return m
}

// EditorCounters carries externally supplied editor activity used for
// client-hours scoring instead of raw input counters.
type EditorCounters struct {
	Commits      int `json:"commits"`
	Saves        int `json:"saves"`
	CaretMoves   int `json:"caret_moves"`
	LinesChanged int `json:"lines_changed"`
}
