// Package chans implements the completion primitives the multiplexer and
// supervisor use to hand a result back across goroutine boundaries: a
// one-shot completion for a single in-flight request, and a many-shot
// completion for operations a pool supervisor broadcasts to N replicas and
// must wait on until all of them report in.
package chans

import (
	"context"
	"sync"

	"github.com/brianly1003/lspclient/internal/rpc/message"
)

// OneShot is a single-use completion: exactly one Fulfill call is expected,
// and Wait blocks until it happens or ctx is done.
type OneShot struct {
	ch   chan *message.Response
	once sync.Once
}

// NewOneShot creates a ready-to-fulfill completion.
func NewOneShot() *OneShot {
	return &OneShot{ch: make(chan *message.Response, 1)}
}

// Fulfill delivers resp to the waiter. Safe to call at most once; later
// calls are no-ops, matching the pending table's contract that a request
// id is retired the moment its response arrives.
func (o *OneShot) Fulfill(resp *message.Response) {
	o.once.Do(func() {
		o.ch <- resp
	})
}

// Wait blocks until Fulfill is called or ctx is done.
func (o *OneShot) Wait(ctx context.Context) (*message.Response, error) {
	select {
	case resp := <-o.ch:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ManyShot is a completion that waits for `expected` independent fulfillments
// before releasing its waiter, used by the pool supervisor to broadcast a
// single logical call (e.g. initialize, shutdown) across every replica and
// block until all of them have answered.
type ManyShot struct {
	mu        sync.Mutex
	expected  int
	responses []*message.Response
	errs      []error
	done      chan struct{}
	closed    bool
}

// NewManyShot creates a completion that expects `expected` fulfillments.
func NewManyShot(expected int) *ManyShot {
	m := &ManyShot{
		expected: expected,
		done:     make(chan struct{}),
	}
	if expected <= 0 {
		close(m.done)
	}
	return m
}

// Fulfill records one reply (resp may be nil if err is non-nil) and
// releases waiters once the expected count is reached.
func (m *ManyShot) Fulfill(resp *message.Response, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	m.responses = append(m.responses, resp)
	if err != nil {
		m.errs = append(m.errs, err)
	}

	if len(m.responses) >= m.expected {
		m.closed = true
		close(m.done)
	}
}

// Wait blocks until every expected fulfillment has arrived or ctx is done,
// returning every response received so far (possibly short of `expected`
// if ctx expired first) and the first error recorded, if any.
func (m *ManyShot) Wait(ctx context.Context) ([]*message.Response, error) {
	select {
	case <-m.done:
	case <-ctx.Done():
		m.mu.Lock()
		resps := append([]*message.Response(nil), m.responses...)
		m.mu.Unlock()
		return resps, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.errs) > 0 {
		return m.responses, m.errs[0]
	}
	return m.responses, nil
}

// PendingTable correlates outbound request ids with their one-shot
// completions. It is the generalized form of the `pending map[int64]chan
// *Response` the teacher's client kept inline, with string|int ids instead
// of int64. Broadcasting one call across many replicas is handled one level
// up, by the pool supervisor aggregating independent per-replica OneShots
// into a single chans.ManyShot (see Pool.Broadcast) rather than by this
// table, since every replica here owns its own Session and its own table.
type PendingTable struct {
	mu       sync.Mutex
	oneShots map[string]*OneShot
}

// NewPendingTable creates an empty pending table.
func NewPendingTable() *PendingTable {
	return &PendingTable{
		oneShots: make(map[string]*OneShot),
	}
}

// Register installs a fresh one-shot completion for id and returns it. It
// panics if id is already registered, since that indicates a request-id
// collision the multiplexer should never produce.
func (t *PendingTable) Register(id *message.ID) *OneShot {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := id.String()
	if _, exists := t.oneShots[key]; exists {
		panic("chans: duplicate pending request id " + key)
	}

	o := NewOneShot()
	t.oneShots[key] = o
	return o
}

// Send delivers resp to the pending entry for resp.ID, if any is
// registered, and retires the entry. Returns false if no entry was found
// (a response for an id nobody is waiting on — logged, not an error, per
// §4.6: late or duplicate responses are tolerated).
func (t *PendingTable) Send(resp *message.Response) bool {
	if resp == nil || resp.ID == nil {
		return false
	}
	key := resp.ID.String()

	t.mu.Lock()
	o, ok := t.oneShots[key]
	if ok {
		delete(t.oneShots, key)
	}
	t.mu.Unlock()

	if !ok {
		return false
	}
	o.Fulfill(resp)
	return true
}

// Cancel retires id without fulfilling it, used when a call's context is
// cancelled before a response arrives so the table doesn't leak entries.
func (t *PendingTable) Cancel(id *message.ID) {
	key := id.String()
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.oneShots, key)
}

// Len reports the number of still-outstanding entries, for shutdown-drain
// assertions in tests.
func (t *PendingTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.oneShots)
}

// DrainWithError fulfills every outstanding one-shot entry with an error
// response, used when the transport closes out from under the multiplexer
// so no caller hangs forever.
func (t *PendingTable) DrainWithError(err *message.Error) {
	t.mu.Lock()
	oneShots := t.oneShots
	t.oneShots = make(map[string]*OneShot)
	t.mu.Unlock()

	for id, o := range oneShots {
		o.Fulfill(message.NewErrorResponse(message.StringID(id), err))
	}
}
