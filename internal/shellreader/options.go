package shellreader

import (
	"io"
	"log/slog"
	"os"
	"time"
)

const (
	// DefaultIdleTimeout is how long Next waits for a line before giving up.
	DefaultIdleTimeout = 120 * time.Second
	// DefaultTeardownTimeout bounds how long Close waits for the exit status.
	DefaultTeardownTimeout = 500 * time.Millisecond
)

// Recorder receives a copy of every raw line before it is cleaned. It is
// satisfied by outputlog.Writer.
type Recorder interface {
	StreamWriter(stream string) io.Writer
}

// Options configures a Reader. The zero value is usable.
type Options struct {
	// Shell runs the command as `Shell -c command`. Defaults to $SHELL, then
	// /bin/sh. Ignored on Windows.
	Shell string

	// Dir is the working directory of the child. Empty means the current one.
	Dir string

	// Env is the child's environment. Nil inherits the current environment.
	Env []string

	// KeepANSI keeps SGR color sequences in the output. All other escape
	// sequences are removed either way.
	KeepANSI bool

	IdleTimeout     time.Duration
	TeardownTimeout time.Duration

	// QueueSize is the capacity of the line queue. Defaults to
	// DefaultQueueSize.
	QueueSize int

	// Record, if set, gets the raw bytes of each line on the streams
	// "stdout" and "stderr".
	Record Recorder

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Shell == "" {
		o.Shell = os.Getenv("SHELL")
	}
	if o.Shell == "" {
		o.Shell = "/bin/sh"
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = DefaultIdleTimeout
	}
	if o.TeardownTimeout <= 0 {
		o.TeardownTimeout = DefaultTeardownTimeout
	}
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultQueueSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
