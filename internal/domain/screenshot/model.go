package screenshot

import (
	"time"

	"github.com/workpulse/agent/internal/domain/session"
)

// PlaceholderSessionID tags captures taken while no session is active.
// Capture never silently drops; the sync engine lets the server reject
// these if they stay unattached.
const PlaceholderSessionID = "unassigned"

// SlotLength is the fixed capture window. One screenshot per slot at most.
const SlotLength = 10 * time.Minute

// Screenshot is one captured screen image plus its derived thumbnail.
type Screenshot struct {
	ID                 string       `json:"id"`
	SessionID          string       `json:"session_id"`
	UserID             string       `json:"user_id,omitempty"`
	LocalPath          string       `json:"local_path,omitempty"`
	RemoteURL          string       `json:"remote_url,omitempty"`
	ThumbnailPath      string       `json:"thumbnail_path,omitempty"`
	ThumbnailRemoteURL string       `json:"thumbnail_remote_url,omitempty"`
	CapturedAt         time.Time    `json:"captured_at"`
	Mode               session.Mode `json:"mode"`
	Notes              string       `json:"notes,omitempty"`
}

// SlotKey identifies a 10-minute slot within a day: hour*6 + slotIndex.
func SlotKey(at time.Time) int {
	return at.Hour()*6 + at.Minute()/10
}

// SlotDay returns the calendar-day key a slot belongs to.
func SlotDay(at time.Time) string {
	return at.Format("2006-01-02")
}
