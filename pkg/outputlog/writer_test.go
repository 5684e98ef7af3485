package outputlog

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriter_StreamWriter(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf)

	stdout := writer.StreamWriter("stdout")
	stderr := writer.StreamWriter("stderr")

	n, err := stdout.Write([]byte("line1\n"))
	require.NoError(t, err)
	require.Equal(t, 6, n)
	_, err = stderr.Write([]byte("error1\n"))
	require.NoError(t, err)
	_, err = stdout.Write([]byte("partial"))
	require.NoError(t, err)

	require.NoError(t, writer.Close())

	var chunks []Chunk
	for chunk, err := range NewReader(&buf).Chunks() {
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}

	require.Len(t, chunks, 3)
	require.Equal(t, "stdout", chunks[0].Stream)
	require.Equal(t, "line1\n", string(chunks[0].Line))
	require.Equal(t, "stderr", chunks[1].Stream)
	require.Equal(t, "partial", string(chunks[2].Line))
	require.WithinDuration(t, time.Now(), chunks[0].Timestamp, time.Minute)
}

func TestWriter_EmptyWriteIsSkipped(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf)

	n, err := writer.StreamWriter("stdout").Write(nil)
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, writer.Close())
	require.Zero(t, buf.Len())
}

func TestWriter_WriteCopiesInput(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf)

	data := []byte("original\n")
	_, err := writer.StreamWriter("stdout").Write(data)
	require.NoError(t, err)
	copy(data, "modified")

	require.NoError(t, writer.Close())

	all, err := NewReader(&buf).All()
	require.NoError(t, err)
	require.Equal(t, "original\n", string(all["stdout"]))
}

func TestWriter_InvalidStream(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf)

	_, err := writer.StreamWriter("bad stream").Write([]byte("x"))
	require.Error(t, err)
	require.NoError(t, writer.Close())
}

func TestWriter_ConcurrentStreams(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf)

	var wg sync.WaitGroup
	for _, stream := range []string{"stdout", "stderr"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := writer.StreamWriter(stream)
			for range 500 {
				_, _ = w.Write([]byte(stream + "\n"))
			}
		}()
	}
	wg.Wait()
	require.NoError(t, writer.Close())

	all, err := NewReader(&buf).All()
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte("stdout\n"), 500), all["stdout"])
	require.Equal(t, bytes.Repeat([]byte("stderr\n"), 500), all["stderr"])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriter_CloseReportsWriteError(t *testing.T) {
	writer := NewWriter(failingWriter{})

	_, err := writer.StreamWriter("stdout").Write([]byte("x\n"))
	require.NoError(t, err)

	require.EqualError(t, writer.Close(), "disk full")
}
