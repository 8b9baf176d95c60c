package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/workpulse/agent/internal/domain/screenshot"
	"github.com/workpulse/agent/internal/domain/session"
)

// Mutations are the tagged payload variants carried by queue items. Each is
// validated at construction so the sync path never re-parses ad hoc JSON.

var validate = validator.New()

// SessionMutation mirrors a local session create or update.
type SessionMutation struct {
	SessionID string     `json:"session_id" validate:"required"`
	Mode      string     `json:"mode" validate:"oneof=client_hours command_hours"`
	ProjectID *string    `json:"project_id,omitempty"`
	Task      string     `json:"task,omitempty"`
	StartTime time.Time  `json:"start_time" validate:"required"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	IsActive  bool       `json:"is_active"`
	DeviceID  string     `json:"device_id" validate:"required"`
}

// PeriodMutation mirrors a local activity period create.
type PeriodMutation struct {
	PeriodID       string          `json:"period_id" validate:"required"`
	SessionID      string          `json:"session_id" validate:"required"`
	ScreenshotID   string          `json:"screenshot_id,omitempty"`
	PeriodStart    time.Time       `json:"period_start" validate:"required"`
	PeriodEnd      time.Time       `json:"period_end" validate:"required,gtefield=PeriodStart"`
	Mode           string          `json:"mode" validate:"oneof=client_hours command_hours"`
	ActivityScore  int             `json:"activity_score" validate:"gte=0,lte=100"`
	IsValid        bool            `json:"is_valid"`
	Classification string          `json:"classification" validate:"required"`
	Breakdown      json.RawMessage `json:"metrics_breakdown,omitempty"`
}

// ScreenshotMutation mirrors a local screenshot create. The binary upload is
// driven by the sync engine; the mutation carries the metadata.
type ScreenshotMutation struct {
	ScreenshotID string    `json:"screenshot_id" validate:"required"`
	SessionID    string    `json:"session_id" validate:"required"`
	UserID       string    `json:"user_id,omitempty"`
	CapturedAt   time.Time `json:"captured_at" validate:"required"`
	Mode         string    `json:"mode" validate:"oneof=client_hours command_hours"`
	Notes        string    `json:"notes,omitempty"`
	LocalPath    string    `json:"local_path,omitempty"`
	ThumbnailPath string   `json:"thumbnail_path,omitempty"`
}

// NewSessionItem builds a validated queue item for a session mutation.
func NewSessionItem(sess *session.Session, op Operation, deviceID string) (*Item, error) {
	m := SessionMutation{
		SessionID: sess.ID,
		Mode:      string(sess.Mode),
		ProjectID: sess.ProjectID,
		Task:      sess.Task,
		StartTime: sess.StartTime,
		EndTime:   sess.EndTime,
		IsActive:  sess.IsActive,
		DeviceID:  deviceID,
	}
	return newItem(EntitySession, sess.ID, sess.ID, op, m)
}

// NewPeriodItem builds a validated queue item for an activity period create.
func NewPeriodItem(period *session.ActivityPeriod, screenshotID string) (*Item, error) {
	breakdown, err := json.Marshal(period.Breakdown)
	if err != nil {
		return nil, fmt.Errorf("marshal metrics breakdown: %w", err)
	}
	m := PeriodMutation{
		PeriodID:       period.ID,
		SessionID:      period.SessionID,
		ScreenshotID:   screenshotID,
		PeriodStart:    period.PeriodStart,
		PeriodEnd:      period.PeriodEnd,
		Mode:           string(period.Mode),
		ActivityScore:  period.ActivityScore,
		IsValid:        period.IsValid,
		Classification: string(period.Classification),
		Breakdown:      breakdown,
	}
	return newItem(EntityActivityPeriod, period.ID, period.SessionID, OpCreate, m)
}

// NewScreenshotItem builds a validated queue item for a screenshot create.
func NewScreenshotItem(shot *screenshot.Screenshot) (*Item, error) {
	m := ScreenshotMutation{
		ScreenshotID:  shot.ID,
		SessionID:     shot.SessionID,
		UserID:        shot.UserID,
		CapturedAt:    shot.CapturedAt,
		Mode:          string(shot.Mode),
		Notes:         shot.Notes,
		LocalPath:     shot.LocalPath,
		ThumbnailPath: shot.ThumbnailPath,
	}
	return newItem(EntityScreenshot, shot.ID, shot.SessionID, OpCreate, m)
}

func newItem(entity EntityType, entityID, sessionID string, op Operation, mutation any) (*Item, error) {
	if err := validate.Struct(mutation); err != nil {
		return nil, fmt.Errorf("validate %s mutation: %w", entity, err)
	}
	payload, err := json.Marshal(mutation)
	if err != nil {
		return nil, fmt.Errorf("marshal %s mutation: %w", entity, err)
	}
	return &Item{
		ID:         uuid.NewString(),
		EntityType: entity,
		EntityID:   entityID,
		SessionID:  sessionID,
		Operation:  op,
		Payload:    payload,
		CreatedAt:  time.Now(),
	}, nil
}
