package outputlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"time"
)

// Reader decodes chunks from a log.
type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next chunk. It returns io.EOF at a clean end of the log
// and io.ErrUnexpectedEOF when the log ends inside a chunk, for example
// because the writer was killed mid-write.
func (lr *Reader) Next() (Chunk, error) {
	var chunk Chunk

	stream, err := lr.r.ReadString(' ')
	if err != nil {
		if errors.Is(err, io.EOF) && stream == "" {
			return chunk, io.EOF
		}
		return chunk, fmt.Errorf("reading stream: %w", unexpected(err))
	}
	chunk.Stream = stream[:len(stream)-1]
	if err := ValidateStream(chunk.Stream); err != nil {
		return chunk, err
	}

	timestamp, err := lr.r.ReadString(' ')
	if err != nil {
		return chunk, fmt.Errorf("reading timestamp: %w", unexpected(err))
	}
	chunk.Timestamp, err = time.Parse(TimestampLayout, timestamp[:len(timestamp)-1])
	if err != nil {
		return chunk, fmt.Errorf("parsing timestamp: %w", err)
	}

	length, err := lr.r.ReadString(':')
	if err != nil {
		return chunk, fmt.Errorf("reading length: %w", unexpected(err))
	}
	n, err := strconv.Atoi(length[:len(length)-1])
	if err != nil || n < 0 {
		return chunk, fmt.Errorf("parsing length %q: invalid length", length[:len(length)-1])
	}

	if b, err := lr.r.ReadByte(); err != nil {
		return chunk, fmt.Errorf("reading space after colon: %w", unexpected(err))
	} else if b != ' ' {
		return chunk, fmt.Errorf("expected space after colon, got %q", b)
	}

	chunk.Line = make([]byte, n)
	if _, err := io.ReadFull(lr.r, chunk.Line); err != nil {
		return chunk, fmt.Errorf("reading content (%d bytes): %w", n, unexpected(err))
	}

	if b, err := lr.r.ReadByte(); err != nil {
		return chunk, fmt.Errorf("reading final newline: %w", unexpected(err))
	} else if b != '\n' {
		return chunk, fmt.Errorf("expected newline separator, got %q", b)
	}

	return chunk, nil
}

// Chunks ranges over the log. A decoding error is yielded once and ends the
// sequence; a clean end of the log is not yielded.
func (lr *Reader) Chunks() iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		for {
			chunk, err := lr.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(chunk, err) || err != nil {
				return
			}
		}
	}
}

// All reads the rest of the log and concatenates the content per stream.
func (lr *Reader) All() (map[string][]byte, error) {
	result := make(map[string][]byte)
	for chunk, err := range lr.Chunks() {
		if err != nil {
			return result, err
		}
		result[chunk.Stream] = append(result[chunk.Stream], chunk.Line...)
	}
	return result, nil
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
