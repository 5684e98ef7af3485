package shellreader

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"shellmux/pkg/outputtype"
)

const (
	streamStdout = "stdout"
	streamStderr = "stderr"
)

// MaxLineBytes is the longest raw line a stream reader holds. Longer lines
// are delivered as several lines of at most this many bytes each.
const MaxLineBytes = 64 * 1024

// Reader runs one shell command and merges its stdout and stderr into a
// single bounded sequence of cleaned lines.
//
// A Reader owns its child process. Always call Close, typically with defer,
// even when the sequence was not consumed to the end:
//
//	r, err := shellreader.Start("echo one; sleep 5; echo two", shellreader.Options{})
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//	for line, err := range r.Lines(ctx) {
//		...
//	}
type Reader struct {
	command   string
	opts      Options
	log       *slog.Logger
	proc      *process
	stripANSI bool
	queue     *queue

	stdoutDone  chan struct{}
	stderrDone  chan struct{}
	readersDone chan struct{}
	exited      chan struct{}

	mu         sync.Mutex
	lastOutput time.Time
	finished   error
	exitCode   int
	outputType outputtype.Type
	typeReason string

	recMu    sync.Mutex
	recorder Recorder

	closeOnce sync.Once
}

// Start launches command and begins reading its output. The command string is
// passed to the shell as is.
func Start(command string, opts Options) (*Reader, error) {
	opts = opts.withDefaults()

	proc, err := launch(command, opts)
	if err != nil {
		return nil, &LaunchError{Command: command, Err: err}
	}

	r := &Reader{
		command:     command,
		opts:        opts,
		log:         opts.Logger.With("pid", proc.pid()),
		proc:        proc,
		stripANSI:   !opts.KeepANSI || proc.forceStrip,
		queue:       newQueue(opts.QueueSize),
		stdoutDone:  make(chan struct{}),
		stderrDone:  make(chan struct{}),
		readersDone: make(chan struct{}),
		exited:      make(chan struct{}),
		lastOutput:  time.Now(),
		exitCode:    -1,
		outputType:  outputtype.Unknown,
		recorder:    opts.Record,
	}

	go r.wait()
	go r.readStream(proc.stdout, streamStdout, r.stdoutDone)
	go r.readStream(proc.stderr, streamStderr, r.stderrDone)
	go func() {
		<-r.stdoutDone
		<-r.stderrDone
		close(r.readersDone)
	}()

	r.log.Debug("Started shell command", "shell", opts.Shell, "command", command)
	return r, nil
}

// readStream forwards lines from one stream into the queue until the stream
// reports end of data or the reader is closed.
func (r *Reader) readStream(stream io.Reader, name string, done chan<- struct{}) {
	defer close(done)

	var detector *outputtype.Detector
	if name == streamStdout {
		detector = outputtype.NewDetector()
		defer r.settleType(detector)
	}

	buffered := bufio.NewReaderSize(stream, MaxLineBytes)
	for {
		// raw aliases the bufio buffer and is only valid until the next read.
		raw, err := buffered.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			err = nil
		}
		if len(raw) > 0 {
			r.record(name, raw)
			if detector != nil && !detector.Detected() && detector.AnalyzeLine(string(raw)) {
				r.settleType(detector)
			}
			if !r.queue.put(r.clean(name, raw)) {
				return
			}
		}
		if err != nil {
			if !isEndOfData(err) {
				r.log.Debug("Stream read failed", "stream", name, "error", err)
			}
			return
		}
	}
}

// settleType publishes the detector's verdict. The stdout reader is the
// only caller.
func (r *Reader) settleType(d *outputtype.Detector) {
	d.Finish()
	t, reason := d.Result()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outputType == outputtype.Unknown {
		r.outputType, r.typeReason = t, reason
		r.log.Debug("Detected output type", "type", t, "reason", reason)
	}
}

func (r *Reader) clean(name string, raw []byte) string {
	if name == streamStderr {
		return CleanStderr(raw, r.stripANSI)
	}
	return Clean(raw, r.stripANSI)
}

func (r *Reader) record(name string, raw []byte) {
	r.recMu.Lock()
	defer r.recMu.Unlock()
	if r.recorder == nil {
		return
	}
	if _, err := r.recorder.StreamWriter(name).Write(raw); err != nil {
		r.log.Debug("Failed to record output", "stream", name, "error", err)
	}
}

func (r *Reader) wait() {
	err := r.proc.cmd.Wait()

	code := -1
	if state := r.proc.cmd.ProcessState; state != nil {
		code = state.ExitCode()
	}

	r.mu.Lock()
	r.exitCode = code
	r.mu.Unlock()

	r.log.Debug("Shell exited", "exit_code", code, "error", err)
	close(r.exited)
}

// Next waits for the next line. Every delivered line restarts the idle
// window.
//
// It returns io.EOF once both streams are exhausted and every buffered line
// was delivered. If nothing arrives within the idle timeout while the streams
// are still open it returns an *IdleTimeoutError. Both end the sequence: all
// later calls return the same error. A done ctx returns ctx.Err() and leaves
// the sequence usable.
func (r *Reader) Next(ctx context.Context) (string, error) {
	if err := r.terminalErr(); err != nil {
		return "", err
	}

	timer := time.NewTimer(r.opts.IdleTimeout)
	defer timer.Stop()

	select {
	case line := <-r.queue.get():
		return r.deliver(line), nil
	case <-r.readersDone:
		return r.drainOrFinish()
	case <-timer.C:
		if r.Closed() {
			return r.drainOrFinish()
		}
		return "", r.finish(&IdleTimeoutError{
			Timeout: r.opts.IdleTimeout,
			Idle:    time.Since(r.lastOutputTime()),
		})
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Poll returns a buffered line without waiting. It reports false when the
// queue is empty, whether or not the command may still produce output.
func (r *Reader) Poll() (string, bool) {
	line, ok := r.queue.tryGet()
	if !ok {
		return "", false
	}
	return r.deliver(line), true
}

// drainOrFinish is called once no producer is left. Lines still queued are
// delivered first.
func (r *Reader) drainOrFinish() (string, error) {
	if line, ok := r.queue.tryGet(); ok {
		return r.deliver(line), nil
	}
	return "", r.finish(io.EOF)
}

func (r *Reader) deliver(line string) string {
	r.mu.Lock()
	r.lastOutput = time.Now()
	r.mu.Unlock()
	return line
}

func (r *Reader) finish(err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished == nil {
		r.finished = err
	}
	return r.finished
}

func (r *Reader) terminalErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

func (r *Reader) lastOutputTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastOutput
}

// Closed reports whether both output streams reached end of data. Lines may
// still be buffered.
func (r *Reader) Closed() bool {
	select {
	case <-r.readersDone:
		return true
	default:
		return false
	}
}

// Pending returns the number of buffered lines.
func (r *Reader) Pending() int {
	return r.queue.len()
}

// Pid returns the process id of the shell.
func (r *Reader) Pid() int {
	return r.proc.pid()
}

// Command returns the command string the shell was started with.
func (r *Reader) Command() string {
	return r.command
}

// Prompt returns the prompt string of the shell family, such as "$".
func (r *Reader) Prompt() string {
	return r.proc.prompt
}

// Highlight returns the code fence language that suits the output.
func (r *Reader) Highlight() string {
	return r.proc.highlight
}

// ExitCode returns the exit status of the shell. It is -1 while the shell is
// running, when it was killed by a signal, or when Close could not observe
// the exit in time.
func (r *Reader) ExitCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exitCode
}

// OutputType returns what kind of output the command writes to stdout, with a
// short reason. It is outputtype.Unknown until enough output was seen or
// stdout ended.
func (r *Reader) OutputType() (outputtype.Type, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outputType, r.typeReason
}

// Close terminates the shell and its process group, waits briefly for the
// exit status and releases the streams. Undelivered lines are discarded.
// Close is safe to call more than once and never fails: teardown problems
// are logged.
func (r *Reader) Close() error {
	r.closeOnce.Do(r.teardown)
	return nil
}

func (r *Reader) teardown() {
	select {
	case <-r.exited:
		// The shell is reaped and its pid may name another group by now.
		// Anything it left on the pty gets SIGHUP when the master closes.
	default:
		r.proc.terminate()
	}

	select {
	case <-r.exited:
	case <-time.After(r.opts.TeardownTimeout):
		r.log.Warn("Shell did not exit within teardown timeout", "timeout", r.opts.TeardownTimeout)
	}

	r.queue.release()
	r.proc.closeStreams()

	select {
	case <-r.readersDone:
	case <-time.After(r.opts.TeardownTimeout):
		r.log.Warn("Stream readers still blocked after teardown", "timeout", r.opts.TeardownTimeout)
	}

	// A reader that outlived the wait above must not touch the recorder,
	// which the caller may close as soon as Close returns.
	r.recMu.Lock()
	r.recorder = nil
	r.recMu.Unlock()
}
