package shellreader

import (
	"context"
	"errors"
	"io"
	"iter"
)

// Lines ranges over Next. The sequence stops after io.EOF without yielding
// it; any other error is yielded once with an empty line and stops the
// sequence.
func (r *Reader) Lines(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			line, err := r.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if !yield(line, nil) {
				return
			}
		}
	}
}

// Buffered ranges over the lines that are already queued, without waiting.
func (r *Reader) Buffered() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			line, ok := r.Poll()
			if !ok || !yield(line) {
				return
			}
		}
	}
}
