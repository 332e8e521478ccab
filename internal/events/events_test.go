package events

import (
	"testing"
	"time"
)

type stringEvent string

func (e stringEvent) Type() string { return string(e) }

func TestHub_New(t *testing.T) {
	h := New()

	if h == nil {
		t.Fatal("New() returned nil")
	}
	if h.subscribers == nil {
		t.Error("subscribers map is nil")
	}
	if h.broadcast == nil {
		t.Error("broadcast channel is nil")
	}
	if h.register == nil {
		t.Error("register channel is nil")
	}
	if h.unregister == nil {
		t.Error("unregister channel is nil")
	}
	if h.done == nil {
		t.Error("done channel is nil")
	}
}

func TestHub_StartStop(t *testing.T) {
	h := New()
	h.Start()

	// Starting again should not panic or deadlock.
	h.Start()

	h.Stop()

	// Stopping again should be a no-op, not a panic from a double close.
	h.Stop()
}

func TestHub_SubscribeAndPublish(t *testing.T) {
	h := New()
	h.Start()
	defer h.Stop()

	sub := NewChannelSubscriber("sub-1", 4)
	h.Subscribe(sub)

	h.Publish(stringEvent("diagnostic"))

	select {
	case ev := <-sub.Events():
		if ev.Type() != "diagnostic" {
			t.Errorf("expected diagnostic, got %q", ev.Type())
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestHub_Unsubscribe_StopsDelivery(t *testing.T) {
	h := New()
	h.Start()
	defer h.Stop()

	sub := NewChannelSubscriber("sub-1", 4)
	h.Subscribe(sub)
	h.Unsubscribe("sub-1")

	// Give the dispatch loop a moment to process the unregister before
	// publishing, since Subscribe/Unsubscribe only enqueue onto the loop.
	time.Sleep(10 * time.Millisecond)

	h.Publish(stringEvent("should-not-arrive"))

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Fatal("unsubscribed subscriber should not receive further events")
		}
	case <-time.After(50 * time.Millisecond):
	}

	select {
	case <-sub.Done():
	default:
		t.Error("unsubscribe should close the subscriber")
	}
}

func TestHub_Publish_DropsSubscriberWhenBufferFull(t *testing.T) {
	h := New()
	h.Start()
	defer h.Stop()

	sub := NewChannelSubscriber("sub-1", 1)
	h.Subscribe(sub)
	time.Sleep(10 * time.Millisecond)

	h.Publish(stringEvent("first"))
	time.Sleep(10 * time.Millisecond)
	h.Publish(stringEvent("second")) // buffer already full; Send fails, hub drops sub
	time.Sleep(10 * time.Millisecond)

	if ev := <-sub.Events(); ev.Type() != "first" {
		t.Fatalf("expected to still receive the buffered event, got %q", ev.Type())
	}

	h.Publish(stringEvent("third"))

	select {
	case ev := <-sub.Events():
		t.Fatalf("dropped subscriber should not receive further events, got %q", ev.Type())
	case <-time.After(50 * time.Millisecond):
		// No delivery: the hub dropped this subscriber after the failed Send.
	}
}

func TestChannelSubscriber_CloseIsIdempotent(t *testing.T) {
	sub := NewChannelSubscriber("sub-1", 1)
	if err := sub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if err := sub.Send(stringEvent("x")); err != ErrSubscriberClosed {
		t.Errorf("expected ErrSubscriberClosed after close, got %v", err)
	}
}
