package report

import (
	"sort"
	"time"
)

// Raw 0-100 score thresholds for the 3-tier screenshot validity rule
// (4.0 and 2.5 on the 10-point scale).
const (
	validScore    = 40
	criticalScore = 25
	// An enclosing clock hour rescues a critical screenshot when it holds
	// at least this many screenshots and its pooled period scores average
	// at least validScore.
	hourlyQuorum = 6
	// Each valid screenshot contributes a fixed amount of tracked time.
	MinutesPerValidScreenshot = 10
)

// Sample is one screenshot with the activity score of its backing period,
// on the raw 0-100 scale.
type Sample struct {
	ScreenshotID string
	CapturedAt   time.Time
	Score        int
}

// PeriodScore is one activity period's score, used for hourly pooling.
type PeriodScore struct {
	Start time.Time
	Score int
}

// EvaluateValidity applies the 3-tier rule per screenshot:
//
//	score >= 4.0            -> valid
//	score in [2.5, 4.0)     -> valid if a chronological neighbor scores
//	                           >= 4.0, or the enclosing clock hour holds
//	                           >= 6 screenshots and its pooled period
//	                           scores average >= 4.0
//	score < 2.5             -> never valid
//
// The rescue is asymmetric: it only promotes low scores, never demotes.
// Hour boundaries are strict truncation points for the pooling rule.
func EvaluateValidity(samples []Sample, periods []PeriodScore) map[string]bool {
	ordered := append([]Sample(nil), samples...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].CapturedAt.Before(ordered[j].CapturedAt)
	})

	countByHour := make(map[time.Time]int, len(ordered))
	for _, s := range ordered {
		countByHour[s.CapturedAt.Truncate(time.Hour)]++
	}

	result := make(map[string]bool, len(ordered))
	for i, s := range ordered {
		switch {
		case s.Score >= validScore:
			result[s.ScreenshotID] = true
		case s.Score < criticalScore:
			result[s.ScreenshotID] = false
		default:
			result[s.ScreenshotID] = rescueCritical(ordered, i, countByHour, periods)
		}
	}
	return result
}

func rescueCritical(ordered []Sample, i int, countByHour map[time.Time]int, periods []PeriodScore) bool {
	if i > 0 && ordered[i-1].Score >= validScore {
		return true
	}
	if i < len(ordered)-1 && ordered[i+1].Score >= validScore {
		return true
	}

	hour := ordered[i].CapturedAt.Truncate(time.Hour)
	if countByHour[hour] < hourlyQuorum {
		return false
	}
	avg, ok := hourlyPeriodAverage(periods, hour)
	return ok && avg >= validScore
}

func hourlyPeriodAverage(periods []PeriodScore, hour time.Time) (float64, bool) {
	var sum, n int
	end := hour.Add(time.Hour)
	for _, p := range periods {
		if p.Start.Before(hour) || !p.Start.Before(end) {
			continue
		}
		sum += p.Score
		n++
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

// TrackedMinutes sums the fixed contribution of every valid screenshot.
func TrackedMinutes(validity map[string]bool) int {
	minutes := 0
	for _, valid := range validity {
		if valid {
			minutes += MinutesPerValidScreenshot
		}
	}
	return minutes
}

// TrimmedMean returns the top-80% trimmed mean: scores sorted ascending,
// the lowest 20% by count dropped (rounding down), the remainder averaged.
// Idle outliers stop dragging the average without discarding genuine
// low-effort periods entirely.
func TrimmedMean(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sorted := append([]int(nil), scores...)
	sort.Ints(sorted)

	drop := len(sorted) / 5
	kept := sorted[drop:]

	var sum int
	for _, s := range kept {
		sum += s
	}
	return float64(sum) / float64(len(kept))
}
