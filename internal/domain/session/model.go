package session

import (
	"time"

	"github.com/workpulse/agent/internal/domain/metrics"
	"github.com/workpulse/agent/internal/domain/scoring"
)

// Mode selects how a session's activity is scored.
type Mode string

const (
	ModeClientHours  Mode = "client_hours"
	ModeCommandHours Mode = "command_hours"
)

// Session is one tracking run. At most one session is active per device.
type Session struct {
	ID        string     `json:"id"`
	Mode      Mode       `json:"mode"`
	ProjectID *string    `json:"project_id,omitempty"`
	Task      string     `json:"task,omitempty"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	IsActive  bool       `json:"is_active"`
}

// ActivityPeriod is one scored 10-minute capture window. Immutable after
// creation except for sync-status bookkeeping.
type ActivityPeriod struct {
	ID             string                 `json:"id"`
	SessionID      string                 `json:"session_id"`
	PeriodStart    time.Time              `json:"period_start"`
	PeriodEnd      time.Time              `json:"period_end"`
	Mode           Mode                   `json:"mode"`
	ActivityScore  int                    `json:"activity_score"`
	IsValid        bool                   `json:"is_valid"`
	Classification scoring.Classification `json:"classification"`
	Breakdown      metrics.Snapshot       `json:"metrics_breakdown"`
}

// StateSnapshot is a point-in-time view of the tracker for consumers
// outside the actor loop (screenshot scheduler, UI accessors).
type StateSnapshot struct {
	Active        bool
	SessionID     string
	Mode          Mode
	ProjectID     *string
	Task          string
	ActivityLabel string
	LastActivity  time.Time
	LiveScore     int
}
