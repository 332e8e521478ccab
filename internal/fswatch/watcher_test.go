package fswatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	events []FileEvent
}

func (r *recorder) record(ev FileEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) snapshot() []FileEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]FileEvent(nil), r.events...)
}

func TestWatcher_DetectsFileCreation(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	w := NewWatcher(root, 20, nil, rec.record)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(root, "new.go"), []byte("package x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		for _, ev := range rec.snapshot() {
			if ev.Path == "new.go" && ev.ChangeType == Created {
				return
			}
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("did not observe a Created event for new.go, got %+v", rec.snapshot())
}

func TestWatcher_IgnoresMatchingPatterns(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "node_modules"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	rec := &recorder{}
	w := NewWatcher(root, 20, []string{"node_modules"}, rec.record)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(root, "node_modules", "ignored.js"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	for _, ev := range rec.snapshot() {
		if filepath.Base(ev.Path) == "ignored.js" {
			t.Fatalf("expected ignored.js to be skipped, got event %+v", ev)
		}
	}
}

func TestDebouncer_CoalescesRapidEvents(t *testing.T) {
	var mu sync.Mutex
	var calls []ChangeType

	d := newDebouncer(30*time.Millisecond, func(path string, ct ChangeType) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, ct)
	})

	d.add("a.go", Changed)
	d.add("a.go", Changed)
	d.add("a.go", Deleted)

	time.Sleep(100 * time.Millisecond)
	d.stop()

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 {
		t.Fatalf("expected exactly one coalesced callback, got %d: %+v", len(calls), calls)
	}
	if calls[0] != Deleted {
		t.Fatalf("expected Delete to win over Changed, got %v", calls[0])
	}
}
