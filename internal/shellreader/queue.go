package shellreader

// DefaultQueueSize is the number of normalized lines buffered between the
// stream readers and the consumer.
const DefaultQueueSize = 250

// queue is a bounded FIFO shared by the stdout and stderr readers (producers)
// and a single consumer. A full queue blocks put, which stops the reader from
// draining its pipe and eventually blocks the child's write.
type queue struct {
	lines chan string
	// released is closed on teardown so producers blocked in put can exit
	released chan struct{}
}

func newQueue(size int) *queue {
	return &queue{
		lines:    make(chan string, size),
		released: make(chan struct{}),
	}
}

// put blocks until there is room for line. It returns false when the queue
// was released before the line could be stored.
func (q *queue) put(line string) bool {
	select {
	case q.lines <- line:
		return true
	case <-q.released:
		return false
	}
}

// get returns the receive side for consumers that wait on other events too.
func (q *queue) get() <-chan string {
	return q.lines
}

// tryGet returns the oldest line without blocking.
func (q *queue) tryGet() (string, bool) {
	select {
	case line := <-q.lines:
		return line, true
	default:
		return "", false
	}
}

func (q *queue) len() int {
	return len(q.lines)
}

func (q *queue) capacity() int {
	return cap(q.lines)
}

// release unblocks all pending and future puts. Buffered lines stay readable.
func (q *queue) release() {
	select {
	case <-q.released:
	default:
		close(q.released)
	}
}
