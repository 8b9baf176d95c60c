package input

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNoopSourceDeliversNothing(t *testing.T) {
	src := NoopSource{}
	require.False(t, src.Available())

	ctx, cancel := context.WithCancel(context.Background())
	events, err := src.Events(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-events:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed on cancel")
	}
}

func TestChannelSourceFeedsEvents(t *testing.T) {
	src := NewChannelSource(4)
	require.True(t, src.Available())

	events, err := src.Events(context.Background())
	require.NoError(t, err)

	src.Feed(Event{Kind: KeyDown, Keycode: 65, At: time.Now()})

	select {
	case ev := <-events:
		require.Equal(t, KeyDown, ev.Kind)
		require.Equal(t, 65, ev.Keycode)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestChannelSourceFeedNeverBlocks(t *testing.T) {
	src := NewChannelSource(1)
	_, err := src.Events(context.Background())
	require.NoError(t, err)

	// Nothing drains the channel; extra events are dropped, not queued.
	for i := 0; i < 100; i++ {
		src.Feed(Event{Kind: MouseMove, X: float64(i)})
	}
}
