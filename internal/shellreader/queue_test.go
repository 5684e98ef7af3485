package shellreader

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := newQueue(10)
	for i := range 5 {
		require.True(t, q.put(strconv.Itoa(i)))
	}
	require.Equal(t, 5, q.len())

	for i := range 5 {
		line, ok := q.tryGet()
		require.True(t, ok)
		require.Equal(t, strconv.Itoa(i), line)
	}

	_, ok := q.tryGet()
	require.False(t, ok)
}

func TestQueue_PutBlocksWhenFull(t *testing.T) {
	q := newQueue(2)
	require.True(t, q.put("a"))
	require.True(t, q.put("b"))

	stored := make(chan bool)
	go func() {
		stored <- q.put("c")
	}()

	select {
	case <-stored:
		t.Fatal("put returned while the queue was full")
	case <-time.After(50 * time.Millisecond):
	}
	require.Equal(t, q.capacity(), q.len())

	line, ok := q.tryGet()
	require.True(t, ok)
	require.Equal(t, "a", line)

	require.True(t, <-stored)
	require.Equal(t, "b", <-q.get())
	require.Equal(t, "c", <-q.get())
}

func TestQueue_ReleaseUnblocksPut(t *testing.T) {
	q := newQueue(1)
	require.True(t, q.put("kept"))

	stored := make(chan bool)
	go func() {
		stored <- q.put("dropped")
	}()

	q.release()
	q.release()

	require.False(t, <-stored)
	require.False(t, q.put("after release"))

	line, ok := q.tryGet()
	require.True(t, ok)
	require.Equal(t, "kept", line)
}
