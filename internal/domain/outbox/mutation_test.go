package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/workpulse/agent/internal/domain/screenshot"
	"github.com/workpulse/agent/internal/domain/session"
)

func validSession() *session.Session {
	return &session.Session{
		ID:        "s1",
		Mode:      session.ModeClientHours,
		Task:      "api cleanup",
		StartTime: time.Now(),
		IsActive:  true,
	}
}

func TestNewSessionItem(t *testing.T) {
	item, err := NewSessionItem(validSession(), OpCreate, "dev-1")
	require.NoError(t, err)
	require.Equal(t, EntitySession, item.EntityType)
	require.Equal(t, "s1", item.EntityID)
	require.Equal(t, "s1", item.SessionID)
	require.NotEmpty(t, item.ID)
	require.False(t, item.Synced)

	var m SessionMutation
	require.NoError(t, json.Unmarshal(item.Payload, &m))
	require.Equal(t, "dev-1", m.DeviceID)
	require.Equal(t, "client_hours", m.Mode)
}

func TestNewSessionItemRequiresDeviceID(t *testing.T) {
	_, err := NewSessionItem(validSession(), OpCreate, "")
	require.Error(t, err)
}

func TestNewSessionItemRejectsUnknownMode(t *testing.T) {
	sess := validSession()
	sess.Mode = "volunteer_hours"
	_, err := NewSessionItem(sess, OpCreate, "dev-1")
	require.Error(t, err)
}

func TestNewPeriodItem(t *testing.T) {
	start := time.Now().Add(-10 * time.Minute)
	period := &session.ActivityPeriod{
		ID:             "p1",
		SessionID:      "s1",
		PeriodStart:    start,
		PeriodEnd:      start.Add(10 * time.Minute),
		Mode:           session.ModeCommandHours,
		ActivityScore:  70,
		IsValid:        true,
		Classification: "coding",
	}

	item, err := NewPeriodItem(period, "sc1")
	require.NoError(t, err)
	require.Equal(t, EntityActivityPeriod, item.EntityType)
	require.Equal(t, "s1", item.SessionID)

	var m PeriodMutation
	require.NoError(t, json.Unmarshal(item.Payload, &m))
	require.Equal(t, "sc1", m.ScreenshotID)
	require.Equal(t, 70, m.ActivityScore)

	// A window that ends before it starts never reaches the queue.
	period.PeriodEnd = start.Add(-time.Minute)
	_, err = NewPeriodItem(period, "")
	require.Error(t, err)

	// Scores outside 0-100 never reach the queue.
	period.PeriodEnd = start.Add(10 * time.Minute)
	period.ActivityScore = 140
	_, err = NewPeriodItem(period, "")
	require.Error(t, err)
}

func TestNewScreenshotItem(t *testing.T) {
	shot := &screenshot.Screenshot{
		ID:         "sc1",
		SessionID:  screenshot.PlaceholderSessionID,
		CapturedAt: time.Now(),
		Mode:       session.ModeCommandHours,
	}

	item, err := NewScreenshotItem(shot)
	require.NoError(t, err)
	require.Equal(t, EntityScreenshot, item.EntityType)
	require.Equal(t, screenshot.PlaceholderSessionID, item.SessionID)

	shot.Mode = ""
	_, err = NewScreenshotItem(shot)
	require.Error(t, err)
}
