package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/workpulse/agent/internal/domain/metrics"
	"github.com/workpulse/agent/internal/domain/scoring"
	"github.com/workpulse/agent/internal/domain/session"
	"github.com/workpulse/agent/internal/repository"
)

func insertPeriod(t *testing.T, repo *PeriodRepository, id, sessionID string, start time.Time, score int) {
	t.Helper()
	period := &session.ActivityPeriod{
		ID:             id,
		SessionID:      sessionID,
		PeriodStart:    start,
		PeriodEnd:      start.Add(10 * time.Minute),
		Mode:           session.ModeCommandHours,
		ActivityScore:  score,
		IsValid:        score >= 30,
		Classification: scoring.ClassCoding,
		Breakdown:      metrics.Snapshot{TotalKeys: 120, Clicks: 14},
	}
	require.NoError(t, repo.Create(context.Background(), period))
}

func TestPeriodRepository_CreateList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	sessions := NewSessionRepository(db)
	repo := NewPeriodRepository(db)
	insertSession(t, sessions, "s1", true)

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	insertPeriod(t, repo, "p2", "s1", start.Add(10*time.Minute), 55)
	insertPeriod(t, repo, "p1", "s1", start, 70)

	periods, err := repo.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, periods, 2)
	require.Equal(t, "p1", periods[0].ID, "chronological order")
	require.Equal(t, 70, periods[0].ActivityScore)
	require.Equal(t, scoring.ClassCoding, periods[0].Classification)
	require.Equal(t, 120, periods[0].Breakdown.TotalKeys, "breakdown survives the round trip")
}

func TestPeriodRepository_ForeignKey(t *testing.T) {
	db := NewTestDB(t)
	repo := NewPeriodRepository(db)

	period := &session.ActivityPeriod{
		ID:             "p1",
		SessionID:      "no-such-session",
		PeriodStart:    time.Now(),
		PeriodEnd:      time.Now().Add(10 * time.Minute),
		Mode:           session.ModeCommandHours,
		Classification: scoring.ClassOther,
	}
	require.ErrorIs(t, repo.Create(context.Background(), period), repository.ErrForeignKeyViolation)
}

func TestPeriodRepository_ScoresBetween(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	sessions := NewSessionRepository(db)
	repo := NewPeriodRepository(db)
	insertSession(t, sessions, "s1", true)

	hour := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	insertPeriod(t, repo, "p1", "s1", hour, 40)
	insertPeriod(t, repo, "p2", "s1", hour.Add(20*time.Minute), 60)
	insertPeriod(t, repo, "p3", "s1", hour.Add(time.Hour), 90)

	scores, err := repo.ScoresBetween(ctx, hour, hour.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, scores, 2)
	require.Equal(t, 40, scores[0].Score)
	require.Equal(t, 60, scores[1].Score)
}

func TestPeriodRepository_ScoreAround(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	sessions := NewSessionRepository(db)
	repo := NewPeriodRepository(db)
	insertSession(t, sessions, "s1", true)

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	insertPeriod(t, repo, "p1", "s1", start, 45)

	score, err := repo.ScoreAround(ctx, "s1", start.Add(5*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 45, score)

	score, err = repo.ScoreAround(ctx, "s1", start.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 0, score, "no covering period yields zero")
}
