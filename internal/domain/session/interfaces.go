package session

import "context"

// SessionRepository provides persistence for sessions.
type SessionRepository interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, sess *Session) error
	GetActive(ctx context.Context) (*Session, error)
}

// PeriodRepository provides persistence for activity periods.
type PeriodRepository interface {
	Create(ctx context.Context, period *ActivityPeriod) error
}

// LabelRepository tracks recently used activity labels.
type LabelRepository interface {
	Touch(ctx context.Context, label string) error
}

// Outbox receives durable mutations for the sync engine. Implementations
// enqueue and kick an immediate drain.
type Outbox interface {
	SessionCreated(ctx context.Context, sess *Session) error
	SessionUpdated(ctx context.Context, sess *Session) error
	PeriodCreated(ctx context.Context, period *ActivityPeriod) error
}
