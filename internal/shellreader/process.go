package shellreader

import (
	"errors"
	"io"
	"os"
	"os/exec"
)

// process is the spawned child together with the parent side of its streams.
// On Unix stdin and stdout share the pty master.
type process struct {
	cmd    *exec.Cmd
	stdin  *os.File
	stdout *os.File
	stderr *os.File

	prompt    string
	highlight string
	// forceStrip is set where the platform never emits color sequences
	forceStrip bool
}

func (p *process) pid() int {
	return p.cmd.Process.Pid
}

// closeStreams closes the parent side of every stream once.
func (p *process) closeStreams() {
	seen := map[*os.File]bool{}
	for _, f := range []*os.File{p.stdin, p.stdout, p.stderr} {
		if f == nil || seen[f] {
			continue
		}
		seen[f] = true
		_ = f.Close()
	}
}

func isClosedErr(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed)
}
