package session

import (
	"sync"
	"time"
)

// EventKind identifies tracker lifecycle signals.
type EventKind int

const (
	EventStarted EventKind = iota
	EventStopped
	EventVetoed
	EventIdle
	EventPeriodRecorded
)

// Event is a typed tracker signal. The tracker actor is the single writer;
// consumers subscribe at construction time.
type Event struct {
	Kind      EventKind
	SessionID string
	PeriodID  string
	At        time.Time
}

// notifier fans events out to subscriber channels without ever blocking the
// actor loop. Slow subscribers lose events; signals are informational.
type notifier struct {
	mu   sync.Mutex
	subs []chan Event
}

func (n *notifier) subscribe(buffer int) <-chan Event {
	ch := make(chan Event, buffer)
	n.mu.Lock()
	n.subs = append(n.subs, ch)
	n.mu.Unlock()
	return ch
}

func (n *notifier) publish(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
