package execution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"golang.org/x/sync/errgroup"
)

// stderrTailSize bounds how much stderr is kept for error reports.
const stderrTailSize = 64 * 1024

// LocalRuntime executes commands as local processes. Output that is not
// redirected to a file is streamed to Stdout and Stderr as it arrives.
type LocalRuntime struct {
	Stdout io.Writer // defaults to os.Stdout
	Stderr io.Writer // defaults to os.Stderr
}

// NewLocalRuntime creates a LocalRuntime relaying to the process's own streams.
func NewLocalRuntime() *LocalRuntime {
	return &LocalRuntime{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes a command locally. Both pipes are drained concurrently so a
// tool writing heavily to one stream cannot stall on the other.
func (r *LocalRuntime) Run(ctx context.Context, spec RunSpec) (*RunResult, error) {
	if len(spec.Command) == 0 {
		return nil, ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, spec.Command[0], spec.Command[1:]...)
	cmd.Dir = spec.WorkDir
	if len(spec.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range spec.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	// Handle stdin.
	if spec.Stdin != "" {
		stdin, err := os.Open(spec.Stdin)
		if err != nil {
			return nil, &ExecutionError{Phase: "stdin", Err: err}
		}
		defer stdin.Close()
		cmd.Stdin = stdin
	}

	// Handle stdout.
	var stdoutFile *os.File
	var stdoutPipe io.ReadCloser
	if spec.Stdout != "" {
		f, err := os.Create(spec.Stdout)
		if err != nil {
			return nil, &ExecutionError{Phase: "stdout", Err: err}
		}
		stdoutFile = f
		defer stdoutFile.Close()
		cmd.Stdout = stdoutFile
	} else {
		p, err := cmd.StdoutPipe()
		if err != nil {
			return nil, &ExecutionError{Phase: "stdout", Err: err}
		}
		stdoutPipe = p
	}

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, &ExecutionError{Phase: "stderr", Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &ExecutionError{Phase: "start", Err: err}
	}

	tail := newTailBuffer(stderrTailSize)
	var g errgroup.Group
	if stdoutPipe != nil {
		g.Go(func() error { return drain(orDefault(r.Stdout, os.Stdout), stdoutPipe) })
	}
	g.Go(func() error { return drain(io.MultiWriter(orDefault(r.Stderr, os.Stderr), tail), stderrPipe) })

	// Pipes must be fully read before Wait closes them.
	streamErr := g.Wait()
	waitErr := cmd.Wait()

	result := &RunResult{Stderr: tail.String()}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, &ExecutionError{Phase: "wait", Err: waitErr}
		}
		result.ExitCode = exitErr.ExitCode()
	}
	if stdoutFile != nil {
		if err := stdoutFile.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			return result, &ExecutionError{Phase: "stdout", Err: fmt.Errorf("close %s: %w", spec.Stdout, err)}
		}
	}
	if streamErr != nil {
		return result, &ExecutionError{Phase: "stream", Err: streamErr}
	}
	return result, nil
}

// drain copies src to dst until EOF. If dst fails, the rest of src is
// discarded so the child never blocks on a full pipe; the write error is
// still reported.
func drain(dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, src)
	if err == nil {
		return nil
	}
	io.Copy(io.Discard, src)
	if errors.Is(err, os.ErrClosed) {
		// Wait closed the pipe after the process exited.
		return nil
	}
	return err
}

func orDefault(w, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if n >= t.max {
		t.buf = append(t.buf[:0], p[n-t.max:]...)
		return n, nil
	}
	if over := len(t.buf) + n - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	t.buf = append(t.buf, p...)
	return n, nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
