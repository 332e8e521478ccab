package supervisor

import (
	"context"
	"fmt"

	"github.com/brianly1003/lspclient/internal/rpc/transport"
)

// Runtime spawns (or connects to) a single server instance and returns the
// Transport the multiplexer should wrap, tearing it down on Stop.
type Runtime interface {
	// Start brings the candidate up and returns a ready Transport.
	Start(ctx context.Context) (transport.Transport, error)
	// Stop tears down the instance gracefully, escalating to a forceful
	// kill if ctx expires first.
	Stop(ctx context.Context) error
	// Candidate returns the Candidate this runtime was built from, for
	// logging and fallback-chain bookkeeping.
	Candidate() Candidate
}

// ServerRuntimeError wraps a failure starting or stopping a server
// instance, naming which candidate was responsible.
type ServerRuntimeError struct {
	Candidate string
	Cause     error
}

func (e *ServerRuntimeError) Error() string {
	return fmt.Sprintf("supervisor: runtime %q failed: %v", e.Candidate, e.Cause)
}

func (e *ServerRuntimeError) Unwrap() error { return e.Cause }

// ServerInstallationError wraps a failure probing for or auto-installing a
// local candidate's binary.
type ServerInstallationError struct {
	Candidate string
	Cause     error
}

func (e *ServerInstallationError) Error() string {
	return fmt.Sprintf("supervisor: could not install %q: %v", e.Candidate, e.Cause)
}

func (e *ServerInstallationError) Unwrap() error { return e.Cause }

// NewRuntime constructs the concrete Runtime for a Candidate's Kind.
func NewRuntime(c Candidate) (Runtime, error) {
	switch c.Kind {
	case KindLocal:
		return NewLocal(c), nil
	case KindSocket:
		return NewSocketRuntime(c), nil
	case KindWebSocket:
		return NewSocketRuntime(c), nil
	case KindContainer:
		return NewContainer(c)
	default:
		return nil, fmt.Errorf("supervisor: unknown candidate kind %d", c.Kind)
	}
}
