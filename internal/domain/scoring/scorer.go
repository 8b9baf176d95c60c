package scoring

import (
	"math"

	"github.com/workpulse/agent/internal/domain/metrics"
)

// Full-scale per-minute rates: a counter at or above its rate earns the
// full 10 points for that sub-score.
const (
	fullKeyRate       = 40.0   // productive keys/min
	fullKeyDiversity  = 12.0   // unique productive keys/min
	fullClickRate     = 20.0   // clicks/min
	fullScrollRate    = 10.0   // scrolls/min
	fullMovementRate  = 3000.0 // px/min
	subScale          = 10.0
	readResearchBonus = 2.0
)

// SubScores holds the five capped command-hours sub-scores on a 0-10 scale.
type SubScores struct {
	KeyRate      float64 `json:"key_rate"`
	KeyDiversity float64 `json:"key_diversity"`
	ClickRate    float64 `json:"click_rate"`
	ScrollRate   float64 `json:"scroll_rate"`
	MovementRate float64 `json:"movement_rate"`
}

// CommandSubScores normalizes a window's counters to per-minute rates and
// converts each to a capped 0-10 sub-score.
func CommandSubScores(snap metrics.Snapshot) SubScores {
	minutes := snap.Minutes()
	return SubScores{
		KeyRate:      cappedSub(float64(snap.ProductiveKeys)/minutes, fullKeyRate),
		KeyDiversity: cappedSub(float64(snap.UniqueProductiveKeys)/minutes, fullKeyDiversity),
		ClickRate:    cappedSub(float64(snap.Clicks+snap.RightClicks)/minutes, fullClickRate),
		ScrollRate:   cappedSub(float64(snap.Scrolls)/minutes, fullScrollRate),
		MovementRate: cappedSub(snap.MouseDistance/minutes, fullMovementRate),
	}
}

// CommandScore computes the 0-100 command-hours activity score for one
// window snapshot.
func CommandScore(snap metrics.Snapshot) int {
	sub := CommandSubScores(snap)

	base := 0.25*sub.KeyRate +
		0.45*sub.KeyDiversity +
		0.10*sub.ClickRate +
		0.10*sub.ScrollRate +
		0.10*sub.MovementRate

	level := base + readResearchBonusFor(sub)
	level *= BotPenalty(snap.Suspicion)
	if level > subScale {
		level = subScale
	}
	if level < 0 {
		level = 0
	}
	return int(math.Round(level * 10))
}

// readResearchBonusFor rewards reading-heavy windows: when both key
// sub-scores sit below half scale, click/scroll/movement activity beyond
// half scale earns up to 2.0 extra points.
func readResearchBonusFor(sub SubScores) float64 {
	if sub.KeyRate >= subScale/2 || sub.KeyDiversity >= subScale/2 {
		return 0
	}
	excess := math.Max(0, sub.ClickRate-subScale/2) +
		math.Max(0, sub.ScrollRate-subScale/2) +
		math.Max(0, sub.MovementRate-subScale/2)
	bonus := excess * (readResearchBonus / (3 * subScale / 2))
	if bonus > readResearchBonus {
		bonus = readResearchBonus
	}
	return bonus
}

// BotPenalty maps a suspicion score to a multiplicative penalty in [0, 1].
func BotPenalty(suspicion float64) float64 {
	p := 1 - suspicion/10
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// ClientScore computes the 0-100 client-hours score from externally
// supplied editor counters.
func ClientScore(c metrics.EditorCounters) int {
	lines := c.LinesChanged
	if lines < 0 {
		lines = -lines
	}
	score := float64(c.Commits)*25 +
		float64(c.Saves)*10 +
		float64(c.CaretMoves)/50 +
		float64(lines)/5
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return int(math.Round(score))
}

func cappedSub(rate, fullScale float64) float64 {
	s := rate / fullScale * subScale
	if s > subScale {
		return subScale
	}
	if s < 0 {
		return 0
	}
	return s
}
