package shellreader

import (
	"errors"
	"fmt"
	"time"
)

// ErrIdleTimeout matches every *IdleTimeoutError.
var ErrIdleTimeout = errors.New("shell produced no output within idle timeout")

// LaunchError is returned by Start when the child process could not be
// spawned. Nothing is left running or open when it is returned.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %q: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// IdleTimeoutError ends the line sequence when the child is still running
// (or its streams are still open) but nothing arrived for Timeout.
type IdleTimeoutError struct {
	Timeout time.Duration
	// Idle is the time since the last delivered line, or since the reader
	// started when no line was delivered yet.
	Idle time.Duration
}

func (e *IdleTimeoutError) Error() string {
	return fmt.Sprintf("no output for %s (idle timeout %s)", e.Idle.Round(time.Millisecond), e.Timeout)
}

func (e *IdleTimeoutError) Is(target error) bool {
	return target == ErrIdleTimeout
}
