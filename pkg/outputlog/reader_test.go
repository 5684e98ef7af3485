package outputlog

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReader_Next(t *testing.T) {
	input := "stdout 2025-01-07T12:34:56.789Z 12: Hello world\n\n" +
		"stderr 2025-01-07T10:20:30Z 5: Error\n"
	reader := NewReader(strings.NewReader(input))

	chunk, err := reader.Next()
	require.NoError(t, err)
	require.Equal(t, "stdout", chunk.Stream)
	require.True(t, chunk.Timestamp.Equal(time.Date(2025, 1, 7, 12, 34, 56, 789000000, time.UTC)))
	require.Equal(t, "Hello world\n", string(chunk.Line))

	chunk, err = reader.Next()
	require.NoError(t, err)
	require.Equal(t, "stderr", chunk.Stream)
	require.Equal(t, "Error", string(chunk.Line))

	_, err = reader.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestReader_Errors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		unexpected bool
	}{
		{name: "invalid timestamp", input: "stdout invalid-timestamp 5: hello\n"},
		{name: "invalid length", input: "stdout 2025-01-07T12:34:56Z notanumber: hello\n"},
		{name: "negative length", input: "stdout 2025-01-07T12:34:56Z -1: hello\n"},
		{name: "invalid stream", input: "std\x00out 2025-01-07T12:34:56Z 5: hello\n"},
		{name: "missing space", input: "stdout 2025-01-07T12:34:56Z 5:hello\n"},
		{name: "wrong separator", input: "stdout 2025-01-07T12:34:56Z 5: helloX"},
		{name: "missing final newline", input: "stdout 2025-01-07T12:34:56Z 5: hello", unexpected: true},
		{name: "truncated content", input: "stdout 2025-01-07T12:34:56Z 50: hello", unexpected: true},
		{name: "truncated header", input: "stdout 2025-01-07", unexpected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tt.input)).Next()
			require.Error(t, err)
			require.NotErrorIs(t, err, io.EOF)
			if tt.unexpected {
				require.ErrorIs(t, err, io.ErrUnexpectedEOF)
			}
		})
	}
}

func TestReader_ContentThatLooksLikeHeader(t *testing.T) {
	fake := []byte("stdout 2025-01-07T12:34:56Z 42: fake data\n")
	formatted := FormatChunk(Chunk{Stream: "stderr", Timestamp: time.Now(), Line: fake})

	chunk, err := NewReader(bytes.NewReader(formatted)).Next()
	require.NoError(t, err)
	require.Equal(t, "stderr", chunk.Stream)
	require.Equal(t, fake, chunk.Line)
}

func TestReader_Chunks(t *testing.T) {
	var buf bytes.Buffer
	base := time.Date(2025, 1, 7, 12, 0, 0, 0, time.UTC)
	buf.Write(FormatChunk(Chunk{Stream: "stdout", Timestamp: base, Line: []byte("line1\n")}))
	buf.Write(FormatChunk(Chunk{Stream: "stderr", Timestamp: base.Add(time.Second), Line: []byte("error1\n")}))
	buf.Write(FormatChunk(Chunk{Stream: "stdout", Timestamp: base.Add(2 * time.Second), Line: allBytes()}))

	var chunks []Chunk
	for chunk, err := range NewReader(&buf).Chunks() {
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}

	require.Len(t, chunks, 3)
	require.Equal(t, "line1\n", string(chunks[0].Line))
	require.Equal(t, "stderr", chunks[1].Stream)
	require.Equal(t, allBytes(), chunks[2].Line)
}

func TestReader_ChunksStopsAtError(t *testing.T) {
	input := string(FormatChunk(Chunk{Stream: "stdout", Timestamp: time.Now(), Line: []byte("ok\n")})) +
		"stdout 2025-01-07T12:34:56Z 99: cut"

	var errs []error
	count := 0
	for _, err := range NewReader(strings.NewReader(input)).Chunks() {
		count++
		if err != nil {
			errs = append(errs, err)
		}
	}

	require.Equal(t, 2, count)
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], io.ErrUnexpectedEOF)
}

func TestReader_All(t *testing.T) {
	var buf bytes.Buffer
	now := time.Now()
	buf.Write(FormatChunk(Chunk{Stream: "stdout", Timestamp: now, Line: []byte("stdout1\n")}))
	buf.Write(FormatChunk(Chunk{Stream: "stderr", Timestamp: now, Line: []byte("stderr1\n")}))
	buf.Write(FormatChunk(Chunk{Stream: "stdout", Timestamp: now, Line: []byte("stdout2\n")}))

	all, err := NewReader(&buf).All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "stdout1\nstdout2\n", string(all["stdout"]))
	require.Equal(t, "stderr1\n", string(all["stderr"]))
}
