package outputlog

import (
	"io"
	"sync"
	"time"
)

// Writer appends chunks to an io.Writer from a single goroutine, so any
// number of stream writers can be used concurrently.
type Writer struct {
	chunks chan Chunk
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// NewWriter starts a Writer on w. Call Close to flush it.
func NewWriter(w io.Writer) *Writer {
	lw := &Writer{
		chunks: make(chan Chunk, 100),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(lw.done)
		for chunk := range lw.chunks {
			if _, err := w.Write(FormatChunk(chunk)); err != nil {
				lw.setErr(err)
			}
		}
	}()

	return lw
}

// StreamWriter returns an io.Writer whose writes become chunks of stream.
// Each Write is one chunk and is stamped with the current time.
func (lw *Writer) StreamWriter(stream string) io.Writer {
	return &streamWriter{stream: stream, log: lw}
}

// WriteChunk queues chunk as is.
func (lw *Writer) WriteChunk(chunk Chunk) error {
	if err := ValidateStream(chunk.Stream); err != nil {
		return err
	}
	lw.chunks <- chunk
	return nil
}

// Close waits for pending chunks to be written and returns the first write
// error. The Writer must not be used afterwards.
func (lw *Writer) Close() error {
	close(lw.chunks)
	<-lw.done
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.err
}

func (lw *Writer) setErr(err error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if lw.err == nil {
		lw.err = err
	}
}

type streamWriter struct {
	stream string
	log    *Writer
}

func (sw *streamWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	err := sw.log.WriteChunk(Chunk{
		Stream:    sw.stream,
		Timestamp: time.Now().UTC(),
		Line:      append([]byte(nil), p...),
	})
	if err != nil {
		return 0, err
	}
	return len(p), nil
}
