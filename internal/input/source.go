package input

import (
	"context"
	"time"
)

// EventKind identifies the kind of raw input event.
type EventKind int

const (
	KeyDown EventKind = iota
	MouseClick
	MouseRightClick
	Scroll
	MouseMove
)

// Event is a single raw input event from the platform hook.
type Event struct {
	Kind    EventKind
	Keycode int
	X       float64
	Y       float64
	At      time.Time
}

// Source is a capability-checked input hook. Platforms without a usable
// native hook provide NoopSource so callers never branch on nil.
type Source interface {
	// Available reports whether the hook can deliver events on this platform.
	Available() bool
	// Events starts delivery and returns the event stream. The stream is
	// closed when ctx is canceled. Calling Events twice is an error.
	Events(ctx context.Context) (<-chan Event, error)
}

// NoopSource is the fallback for platforms where no hook is available.
type NoopSource struct{}

func (NoopSource) Available() bool { return false }

func (NoopSource) Events(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

// ChannelSource adapts an externally fed channel to the Source interface.
// Platform glue pushes hook callbacks into Feed; tests drive it directly.
type ChannelSource struct {
	ch chan Event
}

// NewChannelSource creates a ChannelSource with the given buffer size.
func NewChannelSource(buffer int) *ChannelSource {
	return &ChannelSource{ch: make(chan Event, buffer)}
}

func (s *ChannelSource) Available() bool { return true }

func (s *ChannelSource) Events(ctx context.Context) (<-chan Event, error) {
	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-s.ch:
				if !ok {
					return
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Feed delivers an event to consumers. Events are dropped when the buffer
// is full so a stalled consumer never blocks the hook callback.
func (s *ChannelSource) Feed(ev Event) {
	select {
	case s.ch <- ev:
	default:
	}
}
