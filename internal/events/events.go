// Package events implements a small pub/sub hub for fanning out
// server-originated notifications (diagnostics, log/show messages, watched
// file changes) to however many subscribers a Client Facade consumer
// registers, decoupling the session's read loop from slow or multiple
// listeners.
package events

import "errors"

// ErrSubscriberClosed is returned by Send once a subscriber has been closed
// or its buffer is full and the event would otherwise block the hub.
var ErrSubscriberClosed = errors.New("events: subscriber closed or unable to keep up")

// Event is anything the hub can fan out; Type is used for logging only.
type Event interface {
	Type() string
}

// Subscriber receives events pushed by the hub.
type Subscriber interface {
	ID() string
	Send(Event) error
	Close() error
	Done() <-chan struct{}
}

// Hub fans a single stream of Events out to any number of registered
// Subscribers, generalized from the teacher's central event hub (there,
// fixed to file-change/session events; here, generic over Event).
type Hub struct {
	subscribers map[string]Subscriber
	broadcast   chan Event
	register    chan Subscriber
	unregister  chan string
	done        chan struct{}
}

// New creates a Hub with a reasonably sized broadcast buffer; Publish drops
// an event rather than blocking the caller when the buffer is full.
func New() *Hub {
	return &Hub{
		subscribers: make(map[string]Subscriber),
		broadcast:   make(chan Event, 256),
		register:    make(chan Subscriber),
		unregister:  make(chan string),
		done:        make(chan struct{}),
	}
}

// Start launches the hub's dispatch loop in a new goroutine.
func (h *Hub) Start() {
	go h.run()
}

// Stop terminates the dispatch loop and closes every subscriber.
func (h *Hub) Stop() {
	select {
	case <-h.done:
		return
	default:
		close(h.done)
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			for _, sub := range h.subscribers {
				_ = sub.Close()
			}
			return

		case sub := <-h.register:
			h.subscribers[sub.ID()] = sub

		case id := <-h.unregister:
			if sub, ok := h.subscribers[id]; ok {
				_ = sub.Close()
				delete(h.subscribers, id)
			}

		case ev := <-h.broadcast:
			for id, sub := range h.subscribers {
				if err := sub.Send(ev); err != nil {
					delete(h.subscribers, id)
				}
			}
		}
	}
}

// Publish enqueues ev for delivery to every current subscriber. Never
// blocks: if the broadcast buffer is full, the event is dropped.
func (h *Hub) Publish(ev Event) {
	select {
	case h.broadcast <- ev:
	default:
	}
}

// Subscribe registers sub to receive future events.
func (h *Hub) Subscribe(sub Subscriber) {
	select {
	case h.register <- sub:
	case <-h.done:
	}
}

// Unsubscribe removes the subscriber with the given id.
func (h *Hub) Unsubscribe(id string) {
	select {
	case h.unregister <- id:
	case <-h.done:
	}
}

// ChannelSubscriber delivers events onto a buffered Go channel, for
// consumers that would rather range over a channel than implement
// Subscriber themselves.
type ChannelSubscriber struct {
	id     string
	ch     chan Event
	done   chan struct{}
	closed bool
}

// NewChannelSubscriber creates a channel-backed subscriber with the given
// id and buffer size.
func NewChannelSubscriber(id string, bufferSize int) *ChannelSubscriber {
	return &ChannelSubscriber{
		id:   id,
		ch:   make(chan Event, bufferSize),
		done: make(chan struct{}),
	}
}

func (s *ChannelSubscriber) ID() string { return s.id }

func (s *ChannelSubscriber) Send(ev Event) error {
	if s.closed {
		return ErrSubscriberClosed
	}
	select {
	case s.ch <- ev:
		return nil
	default:
		return ErrSubscriberClosed
	}
}

func (s *ChannelSubscriber) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	close(s.ch)
	return nil
}

func (s *ChannelSubscriber) Done() <-chan struct{} { return s.done }

// Events returns the channel to range over for delivered events.
func (s *ChannelSubscriber) Events() <-chan Event { return s.ch }
