package outputlog

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// TimestampLayout is the layout of the timestamp field.
const TimestampLayout = time.RFC3339Nano

var streamName = regexp.MustCompile(`^[a-zA-Z0-9_./-]{1,64}$`)

// Chunk is one write to one stream.
type Chunk struct {
	Stream    string
	Timestamp time.Time
	Line      []byte
}

// FormatChunk encodes chunk in the log format.
func FormatChunk(chunk Chunk) []byte {
	header := chunk.Stream + " " + chunk.Timestamp.UTC().Format(TimestampLayout) + " " + strconv.Itoa(len(chunk.Line)) + ": "
	out := make([]byte, 0, len(header)+len(chunk.Line)+1)
	out = append(out, header...)
	out = append(out, chunk.Line...)
	return append(out, '\n')
}

// ValidateStream returns an error if name cannot be used as a stream name.
func ValidateStream(name string) error {
	if !streamName.MatchString(name) {
		return fmt.Errorf("invalid stream name %q", name)
	}
	return nil
}
