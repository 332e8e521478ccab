package supervisor

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/brianly1003/lspclient/internal/rpc/transport"
)

// GracePeriod is how long Stop waits for the process to exit after SIGTERM
// before escalating to a forceful kill.
const GracePeriod = 5 * time.Second

// Local spawns a language server as a subprocess and wires its stdio pipes
// into a transport.StdioTransport. Generalized from the teacher's CLI-subprocess
// manager (`internal/adapters/claude/manager.go`): there, a single
// request/response CLI invocation that exits after one prompt; here, a
// long-lived bidirectional server process that stays up for the whole
// session.
type Local struct {
	candidate Candidate

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   *os.File
	stopped bool
}

// NewLocal creates the Local runtime for candidate.
func NewLocal(candidate Candidate) *Local {
	return &Local{candidate: candidate}
}

func (l *Local) Candidate() Candidate { return l.candidate }

// Start probes for the candidate's binary (auto-installing it if missing
// and auto-install is not disabled), spawns it, and returns a transport
// wrapping its stdio pipes.
func (l *Local) Start(ctx context.Context) (transport.Transport, error) {
	if err := l.ensureAvailable(); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, l.candidate.Command, l.candidate.Args...)
	if l.candidate.WorkDir != "" {
		cmd.Dir = l.candidate.WorkDir
	}
	if len(l.candidate.Env) > 0 {
		cmd.Env = append(os.Environ(), l.candidate.Env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &ServerRuntimeError{Candidate: l.candidate.Name, Cause: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &ServerRuntimeError{Candidate: l.candidate.Name, Cause: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &ServerRuntimeError{Candidate: l.candidate.Name, Cause: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &ServerRuntimeError{Candidate: l.candidate.Name, Cause: err}
	}

	go l.streamStderr(stderr)
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Debug().Err(err).Str("candidate", l.candidate.Name).Msg("server process exited")
		} else {
			log.Debug().Str("candidate", l.candidate.Name).Msg("server process exited cleanly")
		}
	}()

	l.mu.Lock()
	l.cmd = cmd
	l.mu.Unlock()

	return transport.NewStdioTransportWithIO(stdout, stdin, transport.WithStdioID(l.candidate.Name)), nil
}

// streamStderr drains the child's stderr line-by-line into the logger so
// diagnostic output from the server doesn't block its own process by
// filling the pipe buffer.
func (l *Local) streamStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		log.Debug().Str("candidate", l.candidate.Name).Str("stream", "stderr").Msg(scanner.Text())
	}
}

// ensureAvailable probes for the candidate's binary via exec.LookPath,
// invoking EnsureInstalled when it's missing, unless auto-install has been
// disabled via LSPCLIENT_NO_AUTOINSTALL.
func (l *Local) ensureAvailable() error {
	if l.candidate.Probe == "" {
		return nil
	}
	if _, err := exec.LookPath(l.candidate.Probe); err == nil {
		return nil
	}

	if autoInstallDisabled() || l.candidate.EnsureInstalled == nil {
		return &ServerInstallationError{Candidate: l.candidate.Name, Cause: os.ErrNotExist}
	}

	if err := l.candidate.EnsureInstalled(); err != nil {
		return &ServerInstallationError{Candidate: l.candidate.Name, Cause: err}
	}
	if _, err := exec.LookPath(l.candidate.Probe); err != nil {
		return &ServerInstallationError{Candidate: l.candidate.Name, Cause: err}
	}
	return nil
}

func autoInstallDisabled() bool {
	v := os.Getenv("LSPCLIENT_NO_AUTOINSTALL")
	return v != "" && v != "0" && v != "false"
}

// Stop sends a graceful termination signal and waits up to GracePeriod
// before killing the process outright.
func (l *Local) Stop(ctx context.Context) error {
	l.mu.Lock()
	cmd := l.cmd
	stopped := l.stopped
	l.stopped = true
	l.mu.Unlock()

	if cmd == nil || cmd.Process == nil || stopped {
		return nil
	}

	_ = cmd.Process.Signal(syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(GracePeriod):
		return cmd.Process.Kill()
	case <-ctx.Done():
		return cmd.Process.Kill()
	}
}
