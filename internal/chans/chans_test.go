package chans

import (
	"context"
	"testing"
	"time"

	"github.com/brianly1003/lspclient/internal/rpc/message"
)

func TestOneShot_FulfillThenWait(t *testing.T) {
	o := NewOneShot()
	want, _ := message.NewSuccessResponse(message.StringID("1"), map[string]int{"a": 1})
	o.Fulfill(want)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := o.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got != want {
		t.Fatalf("expected the fulfilled response back, got a different pointer")
	}
}

func TestOneShot_SecondFulfillIsNoOp(t *testing.T) {
	o := NewOneShot()
	first, _ := message.NewSuccessResponse(message.StringID("1"), 1)
	second, _ := message.NewSuccessResponse(message.StringID("1"), 2)

	o.Fulfill(first)
	o.Fulfill(second) // must not panic on a closed/full channel

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := o.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got != first {
		t.Fatal("expected the first fulfillment to win")
	}
}

func TestOneShot_Wait_RespectsContextCancellation(t *testing.T) {
	o := NewOneShot()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := o.Wait(ctx)
	if err == nil {
		t.Fatal("expected Wait to return an error once the context expires")
	}
}

func TestManyShot_ReleasesOnceAllExpectedFulfill(t *testing.T) {
	m := NewManyShot(3)
	for i := 0; i < 3; i++ {
		resp, _ := message.NewSuccessResponse(message.StringID("1"), i)
		m.Fulfill(resp, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resps, err := m.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(resps) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(resps))
	}
}

func TestManyShot_ZeroExpected_ReleasesImmediately(t *testing.T) {
	m := NewManyShot(0)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := m.Wait(ctx); err != nil {
		t.Fatalf("expected an immediate release for zero expected fulfillments, got %v", err)
	}
}

func TestManyShot_Wait_ReturnsPartialResultsOnTimeout(t *testing.T) {
	m := NewManyShot(2)
	resp, _ := message.NewSuccessResponse(message.StringID("1"), 1)
	m.Fulfill(resp, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	resps, err := m.Wait(ctx)
	if err == nil {
		t.Fatal("expected a context-deadline error")
	}
	if len(resps) != 1 {
		t.Fatalf("expected the single recorded response, got %d", len(resps))
	}
}

func TestManyShot_FirstErrorIsReturned(t *testing.T) {
	m := NewManyShot(2)
	m.Fulfill(nil, context.DeadlineExceeded)
	resp, _ := message.NewSuccessResponse(message.StringID("1"), 1)
	m.Fulfill(resp, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := m.Wait(ctx)
	if err != context.DeadlineExceeded {
		t.Fatalf("expected the first recorded error, got %v", err)
	}
}

func TestPendingTable_RegisterAndSend(t *testing.T) {
	pt := NewPendingTable()
	id := message.StringID("req-1")
	o := pt.Register(id)

	if pt.Len() != 1 {
		t.Fatalf("expected 1 pending entry, got %d", pt.Len())
	}

	resp, _ := message.NewSuccessResponse(id, "ok")
	if ok := pt.Send(resp); !ok {
		t.Fatal("expected Send to find the registered entry")
	}
	if pt.Len() != 0 {
		t.Fatalf("expected the entry to be retired after Send, got len %d", pt.Len())
	}

	got, err := o.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got != resp {
		t.Fatal("expected the one-shot to be fulfilled with the sent response")
	}
}

func TestPendingTable_Send_UnknownIDReturnsFalse(t *testing.T) {
	pt := NewPendingTable()
	resp, _ := message.NewSuccessResponse(message.StringID("nobody-waiting"), "ok")
	if ok := pt.Send(resp); ok {
		t.Fatal("expected Send for an unregistered id to report false")
	}
}

func TestPendingTable_Register_DuplicateIDPanics(t *testing.T) {
	pt := NewPendingTable()
	id := message.StringID("dup")
	pt.Register(id)

	defer func() {
		if recover() == nil {
			t.Fatal("expected a duplicate registration to panic")
		}
	}()
	pt.Register(id)
}

func TestPendingTable_Cancel_RetiresWithoutFulfilling(t *testing.T) {
	pt := NewPendingTable()
	id := message.StringID("req-1")
	o := pt.Register(id)
	pt.Cancel(id)

	if pt.Len() != 0 {
		t.Fatalf("expected 0 pending entries after cancel, got %d", pt.Len())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := o.Wait(ctx); err == nil {
		t.Fatal("expected a cancelled entry to never be fulfilled")
	}
}

func TestPendingTable_DrainWithError_FulfillsOutstandingEntries(t *testing.T) {
	pt := NewPendingTable()
	id1 := message.StringID("req-1")
	id2 := message.StringID("req-2")
	o1 := pt.Register(id1)
	o2 := pt.Register(id2)

	pt.DrainWithError(message.ErrInternalError("transport closed"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := o1.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if resp.Error == nil {
		t.Fatal("expected the drained one-shot to carry an error response")
	}

	resp2, err := o2.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if resp2.Error == nil {
		t.Fatal("expected the second drained one-shot to carry an error response")
	}

	if pt.Len() != 0 {
		t.Fatalf("expected the table to be empty after draining, got %d", pt.Len())
	}
}
