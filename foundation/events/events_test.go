package events_test

import (
	"testing"

	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/stretchr/testify/require"
)

func TestEvents(t *testing.T) {
	evts := events.New()

	id, ch := evts.Subscribe()
	require.NotEmpty(t, id)
	require.Equal(t, 1, evts.Count())

	evts.Send("block: 1")
	require.Equal(t, "block: 1", <-ch)

	// A full receiver drops events instead of blocking the sender.
	for i := 0; i < 200; i++ {
		evts.Send("flood")
	}
	require.Len(t, ch, 100)

	require.NoError(t, evts.Release(id))
	require.Error(t, evts.Release(id))
	require.Equal(t, 0, evts.Count())

	_, ch2 := evts.Subscribe()
	evts.Shutdown()
	for range ch2 {
	}
	require.Equal(t, 0, evts.Count())
}
