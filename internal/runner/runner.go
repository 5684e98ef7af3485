package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"shellmux/internal/shellreader"
	"shellmux/pkg/outputlog"
	"shellmux/pkg/transcript"
)

// Format selects how lines are written.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat validates a --format value. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatMarkdown, FormatHTML:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format %q (want text, markdown or html)", s)
}

// Config is everything the run and replay commands need beyond the command.
type Config struct {
	Options shellreader.Options

	// StdoutOnly drops lines that came from standard error.
	StdoutOnly bool

	Format Format

	// RecordPath, if set, receives the raw streams in outputlog format.
	RecordPath string
}

// Run executes command and writes its cleaned output to w. It returns the
// command's exit code, or -1 when it is unknown.
//
// The returned error is a launch failure, an idle timeout or the context's
// error. Lines received before the error are still written.
func Run(ctx context.Context, w io.Writer, command string, cfg Config) (int, error) {
	opts := cfg.Options

	var recorder *outputlog.Writer
	if cfg.RecordPath != "" {
		f, err := os.OpenFile(cfg.RecordPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return -1, fmt.Errorf("failed to open record file: %w", err)
		}
		defer func() { _ = f.Close() }()
		recorder = outputlog.NewWriter(f)
		opts.Record = recorder
	}

	reader, err := shellreader.Start(command, opts)
	if err != nil {
		if recorder != nil {
			_ = recorder.Close()
		}
		return -1, err
	}

	out := newOutput(w, cfg, transcript.Transcript{
		Prompt:    reader.Prompt(),
		Command:   command,
		Highlight: reader.Highlight(),
	})

	var runErr error
	for line, err := range reader.Lines(ctx) {
		if err != nil {
			runErr = err
			break
		}
		out.add(line)
	}

	if kind, reason := reader.OutputType(); !kind.LineOriented() {
		slog.Warn("Command output is not line oriented, lines may be garbled",
			"type", kind, "reason", reason)
	}

	_ = reader.Close()
	if recorder != nil {
		if err := recorder.Close(); err != nil {
			slog.Error("Failed to write record file", "path", cfg.RecordPath, "error", err)
		}
	}

	if err := out.flush(); err != nil && runErr == nil {
		runErr = err
	}
	return reader.ExitCode(), runErr
}

// Replay reads a log written by Run with RecordPath and writes it to w as if
// the command ran again with cfg.
func Replay(r io.Reader, w io.Writer, cfg Config) error {
	out := newOutput(w, cfg, transcript.Transcript{Prompt: "$", Highlight: "ansi"})
	strip := !cfg.Options.KeepANSI

	for chunk, err := range outputlog.NewReader(r).Chunks() {
		if err != nil {
			_ = out.flush()
			return fmt.Errorf("failed to read record: %w", err)
		}
		switch chunk.Stream {
		case "stdout":
			out.add(shellreader.Clean(chunk.Line, strip))
		case "stderr":
			out.add(shellreader.CleanStderr(chunk.Line, strip))
		default:
			slog.Debug("Skipping unknown stream", "stream", chunk.Stream)
		}
	}
	return out.flush()
}

// output writes text lines as they come and buffers them for the
// transcript formats.
type output struct {
	w          *bufio.Writer
	format     Format
	stdoutOnly bool
	transcript transcript.Transcript
	err        error
}

func newOutput(w io.Writer, cfg Config, t transcript.Transcript) *output {
	return &output{
		w:          bufio.NewWriter(w),
		format:     cfg.Format,
		stdoutOnly: cfg.StdoutOnly,
		transcript: t,
	}
}

func (o *output) add(line string) {
	if o.stdoutOnly && shellreader.IsStderr(line) {
		return
	}
	if o.format != FormatText && o.format != "" {
		o.transcript.Lines = append(o.transcript.Lines, line)
		return
	}
	if o.err != nil {
		return
	}
	if _, err := o.w.WriteString(line + "\n"); err != nil {
		o.err = err
		return
	}
	// Text output is streamed, so do not hold lines back.
	o.err = o.w.Flush()
}

func (o *output) flush() error {
	if o.err != nil {
		return o.err
	}
	switch o.format {
	case FormatMarkdown:
		_, o.err = o.w.WriteString(o.transcript.Markdown())
	case FormatHTML:
		_, o.err = o.w.WriteString(o.transcript.HTML())
	}
	if o.err != nil {
		return o.err
	}
	return o.w.Flush()
}
