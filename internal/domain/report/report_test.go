package report

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 1, hour, minute, 0, 0, time.UTC)
}

func TestTrimmedMean(t *testing.T) {
	// Drop lowest 20% by count (one element), average the rest.
	require.InDelta(t, 10.0, TrimmedMean([]int{10, 10, 10, 10, 0}), 1e-9)

	require.InDelta(t, 0.0, TrimmedMean(nil), 1e-9)
	require.InDelta(t, 42.0, TrimmedMean([]int{42}), 1e-9)
	// Fewer than five samples: nothing is dropped.
	require.InDelta(t, 30.0, TrimmedMean([]int{0, 30, 60}), 1e-9)
	// Ten samples: two dropped.
	require.InDelta(t, 50.0, TrimmedMean([]int{0, 0, 50, 50, 50, 50, 50, 50, 50, 50}), 1e-9)
}

func TestValidityTier1(t *testing.T) {
	v := EvaluateValidity([]Sample{{ScreenshotID: "a", CapturedAt: at(9, 5), Score: 40}}, nil)
	require.True(t, v["a"])
}

func TestValidityTier3NeverValid(t *testing.T) {
	samples := []Sample{
		{ScreenshotID: "low", CapturedAt: at(9, 5), Score: 24},
		{ScreenshotID: "high", CapturedAt: at(9, 15), Score: 90},
	}
	v := EvaluateValidity(samples, nil)
	require.False(t, v["low"])
	require.True(t, v["high"])
}

func TestValidityNeighborRescue(t *testing.T) {
	samples := []Sample{
		{ScreenshotID: "a", CapturedAt: at(9, 5), Score: 50},
		{ScreenshotID: "b", CapturedAt: at(9, 15), Score: 30},
		{ScreenshotID: "c", CapturedAt: at(9, 25), Score: 10},
	}
	v := EvaluateValidity(samples, nil)
	require.True(t, v["a"])
	require.True(t, v["b"], "critical screenshot next to a valid neighbor")
	require.False(t, v["c"])

	// Without a qualifying neighbor the critical screenshot stays invalid.
	alone := EvaluateValidity([]Sample{
		{ScreenshotID: "b", CapturedAt: at(9, 15), Score: 30},
	}, nil)
	require.False(t, alone["b"])
}

func TestValidityHourlyPoolRescue(t *testing.T) {
	// Six screenshots in one hour: five score 10 (never valid), one scores
	// 35 (critical). No neighbor reaches 40, but the pooled period scores
	// for the hour average >= 40, so the 35 is rescued.
	samples := make([]Sample, 0, 6)
	scores := []int{10, 10, 10, 10, 10, 35}
	for i, sc := range scores {
		samples = append(samples, Sample{
			ScreenshotID: fmt.Sprintf("s%d", i),
			CapturedAt:   at(9, i*10),
			Score:        sc,
		})
	}
	periods := []PeriodScore{
		{Start: at(9, 0), Score: 45},
		{Start: at(9, 10), Score: 50},
		{Start: at(9, 20), Score: 40},
	}

	v := EvaluateValidity(samples, periods)
	require.True(t, v["s5"], "hourly average rescues the critical screenshot")
	for i := 0; i < 5; i++ {
		require.False(t, v[fmt.Sprintf("s%d", i)], "scores below 2.5 never become valid")
	}

	// With a weak hourly pool the rescue does not apply.
	weak := []PeriodScore{{Start: at(9, 0), Score: 20}}
	v = EvaluateValidity(samples, weak)
	require.False(t, v["s5"])
}

func TestValidityHourlyPoolRequiresQuorum(t *testing.T) {
	samples := []Sample{
		{ScreenshotID: "a", CapturedAt: at(9, 0), Score: 30},
		{ScreenshotID: "b", CapturedAt: at(9, 10), Score: 30},
	}
	periods := []PeriodScore{{Start: at(9, 0), Score: 90}}
	v := EvaluateValidity(samples, periods)
	require.False(t, v["a"], "fewer than six screenshots in the hour")
}

func TestValidityHourBoundariesAreStrict(t *testing.T) {
	// The critical screenshot at 9:55 cannot pool with 10:00 periods.
	samples := make([]Sample, 0, 6)
	for i := 0; i < 5; i++ {
		samples = append(samples, Sample{
			ScreenshotID: fmt.Sprintf("s%d", i),
			CapturedAt:   at(9, i*10),
			Score:        10,
		})
	}
	samples = append(samples, Sample{ScreenshotID: "edge", CapturedAt: at(9, 55), Score: 30})

	nextHour := []PeriodScore{
		{Start: at(10, 0), Score: 100},
		{Start: at(10, 10), Score: 100},
	}
	v := EvaluateValidity(samples, nextHour)
	require.False(t, v["edge"])
}

func TestValidityMonotonic(t *testing.T) {
	neighbors := []Sample{
		{ScreenshotID: "prev", CapturedAt: at(9, 5), Score: 10},
		{ScreenshotID: "next", CapturedAt: at(9, 25), Score: 10},
	}

	low := append([]Sample{{ScreenshotID: "x", CapturedAt: at(9, 15), Score: 35}}, neighbors...)
	raised := append([]Sample{{ScreenshotID: "x", CapturedAt: at(9, 15), Score: 45}}, neighbors...)

	before := EvaluateValidity(low, nil)
	after := EvaluateValidity(raised, nil)

	// Raising x's own score past 4.0 only adds validity, never removes it.
	require.True(t, after["x"])
	for id, valid := range before {
		if valid {
			require.True(t, after[id], "validity lost for %s", id)
		}
	}
}

func TestTrackedMinutes(t *testing.T) {
	v := map[string]bool{"a": true, "b": false, "c": true}
	require.Equal(t, 20, TrackedMinutes(v))
}
