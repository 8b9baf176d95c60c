package outbox

import (
	"encoding/json"
	"time"
)

// EntityType names the local entity a queue item mutates remotely.
type EntityType string

const (
	EntitySession        EntityType = "session"
	EntityActivityPeriod EntityType = "activity_period"
	EntityScreenshot     EntityType = "screenshot"
)

// Operation is the remote mutation verb.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
)

// Item is one durable pending mutation. Items are removed (marked synced)
// once the remote accepts them, or after they are judged permanently
// undeliverable.
type Item struct {
	ID         string          `json:"id"`
	EntityType EntityType      `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	SessionID  string          `json:"session_id"`
	Operation  Operation       `json:"operation"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	Synced     bool            `json:"synced"`
	CreatedAt  time.Time       `json:"created_at"`
}
