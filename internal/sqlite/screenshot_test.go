package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/workpulse/agent/internal/domain/screenshot"
	"github.com/workpulse/agent/internal/domain/session"
	"github.com/workpulse/agent/internal/repository"
)

func insertShot(t *testing.T, repo *ScreenshotRepository, id string, at time.Time) *screenshot.Screenshot {
	t.Helper()
	shot := &screenshot.Screenshot{
		ID:            id,
		SessionID:     "s1",
		UserID:        "user-1",
		LocalPath:     "/tmp/" + id + ".png",
		ThumbnailPath: "/tmp/" + id + "_thumb.png",
		CapturedAt:    at,
		Mode:          session.ModeCommandHours,
		Notes:         "sprint work",
	}
	require.NoError(t, repo.Create(context.Background(), shot))
	return shot
}

func TestScreenshotRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewScreenshotRepository(db)

	at := time.Date(2026, 3, 1, 14, 35, 0, 0, time.UTC)
	insertShot(t, repo, "sc1", at)

	loaded, err := repo.Get(context.Background(), "sc1")
	require.NoError(t, err)
	require.Equal(t, "s1", loaded.SessionID)
	require.Equal(t, "sprint work", loaded.Notes)
	require.Empty(t, loaded.RemoteURL)

	_, err = repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestScreenshotRepository_SlotUniqueness(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewScreenshotRepository(db)

	at := time.Date(2026, 3, 1, 14, 35, 0, 0, time.UTC)
	insertShot(t, repo, "sc1", at)

	taken, err := repo.SlotTaken(ctx, screenshot.SlotDay(at), screenshot.SlotKey(at))
	require.NoError(t, err)
	require.True(t, taken)

	// A second capture inside the same 10-minute slot is rejected.
	dup := &screenshot.Screenshot{
		ID:         "sc2",
		SessionID:  "s1",
		LocalPath:  "/tmp/sc2.png",
		CapturedAt: at.Add(2 * time.Minute),
		Mode:       session.ModeCommandHours,
	}
	require.ErrorIs(t, repo.Create(ctx, dup), repository.ErrDuplicate)

	// The next slot is free.
	taken, err = repo.SlotTaken(ctx, screenshot.SlotDay(at), screenshot.SlotKey(at)+1)
	require.NoError(t, err)
	require.False(t, taken)
}

func TestScreenshotRepository_ListByDay(t *testing.T) {
	db := NewTestDB(t)
	repo := NewScreenshotRepository(db)

	day := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)
	insertShot(t, repo, "sc2", day.Add(20*time.Minute))
	insertShot(t, repo, "sc1", day)
	insertShot(t, repo, "other-day", day.Add(24*time.Hour))

	shots, err := repo.ListByDay(context.Background(), screenshot.SlotDay(day))
	require.NoError(t, err)
	require.Len(t, shots, 2)
	require.Equal(t, "sc1", shots[0].ID)
}

func TestScreenshotRepository_MarkUploadedDelete(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewScreenshotRepository(db)

	at := time.Date(2026, 3, 1, 14, 35, 0, 0, time.UTC)
	insertShot(t, repo, "sc1", at)

	require.NoError(t, repo.MarkUploaded(ctx, "sc1", "https://cdn/sc1.png", "https://cdn/sc1_thumb.png"))
	loaded, err := repo.Get(ctx, "sc1")
	require.NoError(t, err)
	require.Equal(t, "https://cdn/sc1.png", loaded.RemoteURL)
	require.Equal(t, "https://cdn/sc1_thumb.png", loaded.ThumbnailRemoteURL)

	require.NoError(t, repo.Delete(ctx, "sc1"))
	_, err = repo.Get(ctx, "sc1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.ErrorIs(t, repo.MarkUploaded(ctx, "sc1", "", ""), repository.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, "sc1"), repository.ErrNotFound)
}
