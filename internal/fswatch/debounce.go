package fswatch

import (
	"sync"
	"time"
)

type debouncedEvent struct {
	path       string
	changeType ChangeType
	timer      *time.Timer
}

// debouncer coalesces rapid filesystem events for the same path within a
// fixed window, the same coalescing policy the teacher applied before
// handing events to its own hub.
type debouncer struct {
	window   time.Duration
	callback func(path string, changeType ChangeType)

	mu      sync.Mutex
	pending map[string]*debouncedEvent
	stopped bool
}

func newDebouncer(window time.Duration, callback func(path string, changeType ChangeType)) *debouncer {
	return &debouncer{
		window:   window,
		callback: callback,
		pending:  make(map[string]*debouncedEvent),
	}
}

func (d *debouncer) add(path string, changeType ChangeType) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if existing, ok := d.pending[path]; ok {
		existing.timer.Stop()
		existing.changeType = mergeChangeTypes(existing.changeType, changeType)
		existing.timer = time.AfterFunc(d.window, func() { d.fire(path) })
		return
	}

	d.pending[path] = &debouncedEvent{
		path:       path,
		changeType: changeType,
		timer:      time.AfterFunc(d.window, func() { d.fire(path) }),
	}
}

func (d *debouncer) fire(path string) {
	d.mu.Lock()
	event, ok := d.pending[path]
	if !ok {
		d.mu.Unlock()
		return
	}
	delete(d.pending, path)
	stopped := d.stopped
	d.mu.Unlock()

	if !stopped && d.callback != nil {
		d.callback(event.path, event.changeType)
	}
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for _, event := range d.pending {
		event.timer.Stop()
	}
	d.pending = make(map[string]*debouncedEvent)
}

func mergeChangeTypes(existing, new ChangeType) ChangeType {
	if new == Deleted {
		return Deleted
	}
	if existing == Created {
		return Created
	}
	return new
}
