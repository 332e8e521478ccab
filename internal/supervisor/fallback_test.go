package supervisor

import (
	"context"
	"testing"
	"time"
)

func TestStartFirst_SkipsFailingCandidateAndUsesNext(t *testing.T) {
	candidates := []Candidate{
		{Kind: KindLocal, Name: "missing", Command: "definitely-not-a-real-binary-xyz", Probe: "definitely-not-a-real-binary-xyz"},
		{Kind: KindLocal, Name: "fallback", Command: "cat", Probe: "cat"},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	inst, err := StartFirst(ctx, candidates)
	if err != nil {
		t.Fatalf("StartFirst: %v", err)
	}
	defer inst.Runtime.Stop(context.Background())

	if inst.Runtime.Candidate().Name != "fallback" {
		t.Fatalf("expected the fallback candidate to win, got %q", inst.Runtime.Candidate().Name)
	}
	if inst.State.Current() != Spawned {
		t.Fatalf("expected instance state Spawned, got %s", inst.State.Current())
	}
}

func TestStartFirst_AllCandidatesFail_ReturnsFallbackError(t *testing.T) {
	candidates := []Candidate{
		{Kind: KindLocal, Name: "missing-a", Command: "definitely-not-a-real-binary-xyz", Probe: "definitely-not-a-real-binary-xyz"},
		{Kind: KindLocal, Name: "missing-b", Command: "also-not-real-xyz", Probe: "also-not-real-xyz"},
	}

	_, err := StartFirst(context.Background(), candidates)
	if err == nil {
		t.Fatal("expected an error when every candidate fails")
	}
	fe, ok := err.(*FallbackError)
	if !ok {
		t.Fatalf("expected *FallbackError, got %T", err)
	}
	if len(fe.Attempts) != 2 {
		t.Fatalf("expected 2 recorded attempts, got %d", len(fe.Attempts))
	}
}

func TestStartFirst_EmptyCandidateList_ReturnsFallbackError(t *testing.T) {
	_, err := StartFirst(context.Background(), nil)
	if err == nil {
		t.Fatal("expected an error for an empty candidate list")
	}
}
