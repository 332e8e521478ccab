package supervisor

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/brianly1003/lspclient/internal/chans"
	"github.com/brianly1003/lspclient/internal/rpc/client"
	"github.com/brianly1003/lspclient/internal/rpc/message"
)

// Replica is one member of a Pool: its Instance plus the Session multiplexed
// over the Instance's Transport.
type Replica struct {
	Instance *Instance
	Session  *client.Session
}

// Pool supervises several replicas of the same server candidate set,
// broadcasting handshake-shaped calls (initialize, shutdown) to every
// member via chans.ManyShot, and rotating ordinary calls round-robin across
// every replica. Next does not look at a replica's state or load.
//
// This is a capability spec.md's original single-server design never
// needed; it exists for language servers expensive enough per-workspace
// that a client wants several warm instances sharing work round-robin,
// while still presenting one initialize/shutdown pair to the caller.
type Pool struct {
	mu       sync.Mutex
	replicas []*Replica
	next     int
}

// NewPool starts `count` replicas from the same candidate list, returning
// once every replica has either started or the fallback chain has
// exhausted its candidates for that slot. A replica that fails to start is
// omitted; NewPool only fails outright if every slot failed.
func NewPool(ctx context.Context, candidates []Candidate, count int) (*Pool, error) {
	p := &Pool{}
	var errs []error

	for i := 0; i < count; i++ {
		inst, err := StartFirst(ctx, candidates)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sess := client.NewSession(inst.Transport)
		p.replicas = append(p.replicas, &Replica{Instance: inst, Session: sess})
	}

	if len(p.replicas) == 0 {
		return nil, &FallbackError{Attempts: errs}
	}
	if len(errs) > 0 {
		log.Warn().Int("failed", len(errs)).Int("started", len(p.replicas)).Msg("pool started with fewer replicas than requested")
	}
	return p, nil
}

// Size returns the number of live replicas.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.replicas)
}

// Next returns the replica selected by round-robin for an ordinary,
// single-target call.
func (p *Pool) Next() *Replica {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.replicas) == 0 {
		return nil
	}
	r := p.replicas[p.next%len(p.replicas)]
	p.next++
	return r
}

// Broadcast sends the same request id, method, and params to every
// replica and waits for all of them to answer, used for initialize and
// shutdown so the pool presents a single logical handshake to the caller
// regardless of how many replicas back it. Each replica owns an
// independent Session and pending table, so this aggregates one one-shot
// call per replica into a single chans.ManyShot rather than routing
// through any one replica's own PendingTable.
func (p *Pool) Broadcast(ctx context.Context, id *message.ID, method string, params interface{}) ([]*message.Response, error) {
	p.mu.Lock()
	replicas := append([]*Replica(nil), p.replicas...)
	p.mu.Unlock()

	if len(replicas) == 0 {
		return nil, nil
	}

	many := chans.NewManyShot(len(replicas))
	for _, r := range replicas {
		go func(r *Replica) {
			resp, err := r.Session.CallWithID(ctx, id, method, params)
			many.Fulfill(resp, err)
		}(r)
	}
	return many.Wait(ctx)
}

// Close tears down every replica's session and runtime, collecting every
// error rather than stopping at the first.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	replicas := append([]*Replica(nil), p.replicas...)
	p.replicas = nil
	p.mu.Unlock()

	var errs []error
	for _, r := range replicas {
		if err := r.Session.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := r.Instance.Runtime.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &FallbackError{Attempts: errs}
	}
	return nil
}
