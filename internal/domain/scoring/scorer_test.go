package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/workpulse/agent/internal/domain/metrics"
)

func snapshot(elapsed time.Duration) metrics.Snapshot {
	return metrics.Snapshot{Elapsed: elapsed}
}

func TestCommandScoreBounds(t *testing.T) {
	cases := []metrics.Snapshot{
		{Elapsed: 10 * time.Minute},
		{Elapsed: 10 * time.Minute, ProductiveKeys: 100000, UniqueProductiveKeys: 100000, Clicks: 100000, Scrolls: 100000, MouseDistance: 1e9},
		{Elapsed: 10 * time.Minute, ProductiveKeys: 500, Suspicion: 50},
		{Elapsed: time.Second, ProductiveKeys: 3},
	}
	for _, snap := range cases {
		score := CommandScore(snap)
		require.GreaterOrEqual(t, score, 0)
		require.LessOrEqual(t, score, 100)
	}
}

func TestCommandScoreTypingScenario(t *testing.T) {
	// 10 minutes, 500 productive keystrokes, 200 unique productive keys,
	// no mouse use: both key sub-scores cap at 10, base 0.25*10+0.45*10.
	snap := metrics.Snapshot{
		Elapsed:              10 * time.Minute,
		TotalKeys:            500,
		ProductiveKeys:       500,
		UniqueProductiveKeys: 200,
	}
	require.Equal(t, 70, CommandScore(snap))
}

func TestCommandScoreZeroInput(t *testing.T) {
	require.Equal(t, 0, CommandScore(snapshot(10*time.Minute)))
}

func TestReadResearchBonus(t *testing.T) {
	// Low typing but heavy scroll/movement: bonus applies.
	reading := metrics.Snapshot{
		Elapsed:       10 * time.Minute,
		Scrolls:       100,           // 10/min, full scale
		MouseDistance: 30000,         // 3000/min, full scale
		Clicks:        200,           // 20/min, full scale
	}
	withBonus := CommandScore(reading)
	// Base is 0.10*10*3 = 3.0; bonus adds up to 2.0 on top.
	require.Greater(t, withBonus, 30)
	require.LessOrEqual(t, withBonus, 50)

	// The same mouse activity alongside fast typing earns no bonus.
	typing := reading
	typing.ProductiveKeys = 400
	typing.UniqueProductiveKeys = 130
	sub := CommandSubScores(typing)
	require.GreaterOrEqual(t, sub.KeyRate, 5.0)
	require.Zero(t, readResearchBonusFor(sub))
}

func TestBotPenaltyRange(t *testing.T) {
	require.Equal(t, 1.0, BotPenalty(0))
	require.InDelta(t, 0.5, BotPenalty(5), 1e-9)
	require.Equal(t, 0.0, BotPenalty(10))
	require.Equal(t, 0.0, BotPenalty(25))
	require.Equal(t, 1.0, BotPenalty(-1))
}

func TestBotPenaltySuppressesScore(t *testing.T) {
	snap := metrics.Snapshot{
		Elapsed:              10 * time.Minute,
		ProductiveKeys:       500,
		UniqueProductiveKeys: 200,
	}
	clean := CommandScore(snap)
	snap.Suspicion = 8
	suspect := CommandScore(snap)
	require.Less(t, suspect, clean)

	snap.Suspicion = 12
	require.Equal(t, 0, CommandScore(snap))
}

func TestClientScore(t *testing.T) {
	require.Equal(t, 0, ClientScore(metrics.EditorCounters{}))
	require.Equal(t, 100, ClientScore(metrics.EditorCounters{Commits: 10}))

	moderate := ClientScore(metrics.EditorCounters{Commits: 1, Saves: 3, CaretMoves: 500, LinesChanged: -50})
	require.Greater(t, moderate, 0)
	require.LessOrEqual(t, moderate, 100)

	// Net lines changed contributes by magnitude.
	require.Equal(t,
		ClientScore(metrics.EditorCounters{LinesChanged: 100}),
		ClientScore(metrics.EditorCounters{LinesChanged: -100}))
}
