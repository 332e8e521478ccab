package supervisor

import (
	"context"
	"time"

	"github.com/brianly1003/lspclient/internal/rpc/transport"
)

// SocketRuntime connects to an already-listening (or externally-spawned)
// server over TCP, a Unix domain socket, or a WebSocket endpoint. TCP and
// Unix dials retry with backoff until the candidate's DialDeadline expires;
// a WebSocket endpoint is dialed once, bounded by the same deadline.
type SocketRuntime struct {
	candidate Candidate
	conn      transport.Transport
}

// NewSocketRuntime creates the runtime for candidate (KindSocket or
// KindWebSocket).
func NewSocketRuntime(candidate Candidate) *SocketRuntime {
	return &SocketRuntime{candidate: candidate}
}

func (s *SocketRuntime) Candidate() Candidate { return s.candidate }

func (s *SocketRuntime) Start(ctx context.Context) (transport.Transport, error) {
	deadline := s.candidate.DialDeadline
	if deadline <= 0 {
		deadline = transport.DefaultDialDeadline
	}

	var (
		t   transport.Transport
		err error
	)

	switch s.candidate.Kind {
	case KindWebSocket:
		dialCtx, cancel := context.WithTimeout(ctx, deadline)
		defer cancel()
		t, err = transport.DialWebSocket(dialCtx, s.candidate.URL)
	default:
		t, err = transport.DialSocketWithBackoff(ctx, s.candidate.Network, s.candidate.Address,
			transport.DefaultDialInitialBackoff, transport.DefaultDialMaxBackoff, deadline)
	}

	if err != nil {
		return nil, &ServerRuntimeError{Candidate: s.candidate.Name, Cause: err}
	}

	s.conn = t
	return t, nil
}

func (s *SocketRuntime) Stop(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- s.conn.Close() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(GracePeriod):
		return nil
	}
}
