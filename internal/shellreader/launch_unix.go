//go:build !windows

package shellreader

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
)

// launch starts `shell -c command` with stdin and stdout on a pseudo-terminal
// and stderr on a pipe. The child leads its own session so the whole process
// group can be signalled on teardown.
func launch(command string, opts Options) (*process, error) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open pty: %w", err)
	}

	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		_ = ptmx.Close()
		_ = tty.Close()
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	cmd := exec.Command(opts.Shell, "-c", command)
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = stderrW
	// Ctty is the child's stdin, which is the pty slave
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
	}

	startErr := cmd.Start()

	// The child holds its own copies now. Keeping ours open would hide EOF.
	_ = tty.Close()
	_ = stderrW.Close()

	if startErr != nil {
		_ = ptmx.Close()
		_ = stderrR.Close()
		return nil, startErr
	}

	return &process{
		cmd:       cmd,
		stdin:     ptmx,
		stdout:    ptmx,
		stderr:    stderrR,
		prompt:    "$",
		highlight: "ansi",
	}, nil
}

// terminate sends SIGTERM and then SIGKILL to the child's process group, so
// commands started by the shell go down with it.
func (p *process) terminate() {
	pid := p.cmd.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
		_ = p.cmd.Process.Signal(syscall.SIGTERM)
	}
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
		_ = p.cmd.Process.Kill()
	}
}

// isEndOfData reports read errors that mean the stream is exhausted. A pty
// master returns EIO once every slave descriptor is closed.
func isEndOfData(err error) bool {
	return isClosedErr(err) || errors.Is(err, syscall.EIO)
}
