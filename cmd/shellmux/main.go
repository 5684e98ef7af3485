package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"shellmux/internal/runner"
	"shellmux/internal/shellreader"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	verbose bool

	idleTimeout time.Duration
	keepANSI    bool
	shell       string
	workDir     string
	queueSize   int
	stdoutOnly  bool
	recordPath  string
	format      string
)

var rootCmd = &cobra.Command{
	Use:   "shellmux",
	Short: "shellmux - run a shell command and stream its merged output",
	Long: `shellmux runs a shell command with stdout on a pseudo-terminal and stderr on a
pipe, and prints both as one stream of cleaned lines. Lines from stderr are
prefixed with "[stderr] ".`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

var runCmd = &cobra.Command{
	Use:   "run [flags] -- command [args...]",
	Short: "Run a command and print its output",
	Long: `Run a command through the shell and print its output line by line.

All arguments are joined with spaces and passed to "$SHELL -c" as is. The
command fails if it produces no output for --timeout while still running.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		code, err := runner.Run(ctx, os.Stdout, strings.Join(args, " "), cfg)
		if err != nil {
			return err
		}
		if code != 0 {
			return exitCodeError(code)
		}
		return nil
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Print the output of a recorded run",
	Long: `Read a file written by "shellmux run --record" and print the recorded lines,
cleaned with the current flags.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig(cmd)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open record: %w", err)
		}
		defer func() { _ = f.Close() }()

		return runner.Replay(f, os.Stdout, cfg)
	},
}

// exitCodeError carries the child's exit status to main.
type exitCodeError int

func (e exitCodeError) Error() string {
	if e < 0 {
		return "command was killed by a signal or its exit status is unknown"
	}
	return fmt.Sprintf("command exited with status %d", int(e))
}

func buildConfig(cmd *cobra.Command) (runner.Config, error) {
	f, err := runner.ParseFormat(format)
	if err != nil {
		return runner.Config{}, err
	}

	keep := keepANSI
	if !cmd.Flags().Changed("keep-ansi") {
		// Colors are only useful when a terminal shows them
		keep = f == runner.FormatText && term.IsTerminal(int(os.Stdout.Fd()))
	}

	return runner.Config{
		Options: shellreader.Options{
			Shell:       shell,
			Dir:         workDir,
			KeepANSI:    keep,
			IdleTimeout: idleTimeout,
			QueueSize:   queueSize,
		},
		StdoutOnly: stdoutOnly,
		Format:     f,
		RecordPath: recordPath,
	}, nil
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&keepANSI, "keep-ansi", false, "Keep color escape sequences (default: true when stdout is a terminal)")
	cmd.Flags().BoolVar(&stdoutOnly, "stdout-only", false, "Drop lines written to stderr")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, markdown or html")
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug messages to stderr")

	runCmd.Flags().DurationVarP(&idleTimeout, "timeout", "t", shellreader.DefaultIdleTimeout, "Fail when the command prints nothing for this long")
	runCmd.Flags().StringVar(&shell, "shell", "", "Shell used to run the command (default: $SHELL or /bin/sh)")
	runCmd.Flags().StringVarP(&workDir, "dir", "C", "", "Working directory for the command")
	runCmd.Flags().IntVar(&queueSize, "queue-size", shellreader.DefaultQueueSize, "Number of lines buffered before the command is blocked")
	runCmd.Flags().StringVar(&recordPath, "record", "", "Record the raw output streams to this file")
	addOutputFlags(runCmd)
	addOutputFlags(replayCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replayCmd)
}

func main() {
	os.Exit(exitStatus(rootCmd.ExecuteContext(context.Background()), os.Stderr))
}

// exitStatus maps the result of a command to the process exit status. The
// child's own status is passed through silently; anything else is reported
// on stderr and exits 1.
func exitStatus(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var code exitCodeError
	if errors.As(err, &code) && code > 0 {
		return int(code)
	}
	_, _ = fmt.Fprintln(stderr, err)
	return 1
}
