package supervisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/brianly1003/lspclient/internal/rpc/transport"
)

// FallbackError collects every candidate's failure when none of them could
// be started.
type FallbackError struct {
	Attempts []error
}

func (e *FallbackError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, err := range e.Attempts {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("supervisor: all candidates failed: %s", strings.Join(parts, "; "))
}

func (e *FallbackError) Unwrap() []error { return e.Attempts }

// Instance is a single running server: its Runtime, the Transport it
// returned, and the state machine tracking its lifecycle.
type Instance struct {
	Runtime   Runtime
	Transport transport.Transport
	State     *StateMachine
}

// StartFirst tries candidates in order, returning the Instance for the
// first one that starts successfully. This is the client's fallback chain:
// a user-supplied override first, then a locally probed binary, then a
// container, then a local binary that self-installs if missing — the
// caller picks the order by how it builds the candidates slice.
func StartFirst(ctx context.Context, candidates []Candidate) (*Instance, error) {
	if len(candidates) == 0 {
		return nil, &FallbackError{}
	}

	var attempts []error
	for _, c := range candidates {
		sm := NewStateMachine()
		rt, err := NewRuntime(c)
		if err != nil {
			attempts = append(attempts, err)
			continue
		}

		t, err := rt.Start(ctx)
		if err != nil {
			log.Debug().Err(err).Str("candidate", c.Name).Msg("candidate failed, trying next")
			_ = sm.Transition(Failed)
			attempts = append(attempts, err)
			continue
		}

		if err := sm.Transition(Spawned); err != nil {
			attempts = append(attempts, err)
			continue
		}

		return &Instance{Runtime: rt, Transport: t, State: sm}, nil
	}

	return nil, &FallbackError{Attempts: attempts}
}
