//go:build windows

package shellreader

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

const powershellPath = `C:\Windows\System32\WindowsPowerShell\v1.0\powershell.exe`

// launch starts the command under PowerShell, or cmd.exe when PowerShell is
// not installed. There is no pseudo-terminal, so all streams are pipes.
func launch(command string, opts Options) (*process, error) {
	var cmd *exec.Cmd
	var prompt, highlight string
	if _, err := os.Stat(powershellPath); err == nil {
		cmd = exec.Command("powershell", command)
		prompt, highlight = "PS >", "powershell"
	} else {
		cmd = exec.Command("cmd", "/c", command)
		prompt, highlight = "cmd >", "cmd"
	}
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		closeAll(stdinR, stdinW)
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdinR, stdinW, stdoutR, stdoutW)
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}
	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	startErr := cmd.Start()
	closeAll(stdinR, stdoutW, stderrW)
	if startErr != nil {
		closeAll(stdinW, stdoutR, stderrR)
		return nil, startErr
	}

	return &process{
		cmd:       cmd,
		stdin:     stdinW,
		stdout:    stdoutR,
		stderr:    stderrR,
		prompt:    prompt,
		highlight: highlight,
		// Windows consoles do not use ANSI sequences
		forceStrip: true,
	}, nil
}

func (p *process) terminate() {
	_ = p.cmd.Process.Kill()
}

func isEndOfData(err error) bool {
	return isClosedErr(err) || errors.Is(err, os.ErrDeadlineExceeded)
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
