package simulator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventQueueBasicOperations(t *testing.T) {
	t.Run("new queue is empty", func(t *testing.T) {
		q := NewEventQueue()
		require.Equal(t, 0, q.Len())
		require.True(t, q.IsEmpty())

		_, ok := q.Pop()
		require.False(t, ok, "Expected nothing from empty queue")
	})

	t.Run("push and pop single event", func(t *testing.T) {
		q := NewEventQueue()
		q.Push(NewEvent(EventTypeEndIo, 10))
		require.Equal(t, 1, q.Len())

		popped, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, int64(10), popped.Timestamp())
		require.Equal(t, EventTypeEndIo, popped.Type())
		require.Equal(t, 0, q.Len())
	})
}

func TestEventQueueOrdering(t *testing.T) {
	q := NewEventQueue()

	// Push events in non-chronological order
	for _, ts := range []int64{15, 5, 20, 1, 10} {
		q.Push(NewEvent(EventTypeSwitchProcess, ts))
	}
	require.Equal(t, 5, q.Len())

	for i, expected := range []int64{1, 5, 10, 15, 20} {
		event, ok := q.Pop()
		require.True(t, ok, "Expected event at position %d", i)
		require.Equal(t, expected, event.Timestamp(), "position %d", i)
	}
	require.True(t, q.IsEmpty())
}

func TestEventQueueTiesPopInInsertionOrder(t *testing.T) {
	q := NewEventQueue()
	kinds := []EventType{EventTypeEndIo, EventTypeNewProcess, EventTypeIoRequest, EventTypeEndProcess, EventTypeSwitchProcess}
	for _, k := range kinds {
		q.Push(NewEvent(k, 42))
	}
	// an earlier event pushed last still comes first
	q.Push(NewEvent(EventTypeEndIo, 41))

	first, _ := q.Pop()
	require.Equal(t, int64(41), first.Timestamp())
	for _, k := range kinds {
		event, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, k, event.Type())
	}
}

func TestEventQueuePeek(t *testing.T) {
	t.Run("peek empty queue", func(t *testing.T) {
		_, ok := NewEventQueue().Peek()
		require.False(t, ok)
	})

	t.Run("peek does not remove event", func(t *testing.T) {
		q := NewEventQueue()
		q.Push(NewEvent(EventTypeEndIo, 10))
		q.Push(NewEvent(EventTypeEndIo, 5))

		for i := 0; i < 3; i++ {
			event, ok := q.Peek()
			require.True(t, ok)
			require.Equal(t, int64(5), event.Timestamp(), "peek %d", i)
			require.Equal(t, 2, q.Len())
		}

		popped, _ := q.Pop()
		require.Equal(t, int64(5), popped.Timestamp())
		require.Equal(t, 1, q.Len())
	})
}

func TestEventQueueClearAndCount(t *testing.T) {
	q := NewEventQueue()
	q.Push(NewEvent(EventTypeEndIo, 3))
	q.Push(NewEvent(EventTypeNewProcess, 1))
	q.Push(NewEvent(EventTypeEndIo, 2))

	require.Equal(t, 2, q.CountByType(EventTypeEndIo))
	require.Equal(t, 1, q.CountByType(EventTypeNewProcess))
	require.Equal(t, 0, q.CountByType(EventTypeSwitchProcess))
	require.Len(t, q.Events(), 3)

	q.Clear()
	require.True(t, q.IsEmpty())
	require.Empty(t, q.Events())
}

func TestEventString(t *testing.T) {
	require.Equal(t, "io_request(t=30)", NewEvent(EventTypeIoRequest, 30).String())
	require.Equal(t, "unknown", EventType(99).String())
}
