package supervisor

import "testing"

func TestStateMachine_StartsUninitialized(t *testing.T) {
	sm := NewStateMachine()
	if sm.Current() != Uninitialized {
		t.Fatalf("expected Uninitialized, got %s", sm.Current())
	}
}

func TestStateMachine_FollowsForwardProgression(t *testing.T) {
	sm := NewStateMachine()
	for _, to := range []State{Spawned, Ready, ShuttingDown, Exited} {
		if err := sm.Transition(to); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}
	if sm.Current() != Exited {
		t.Fatalf("expected Exited, got %s", sm.Current())
	}
}

func TestStateMachine_RejectsSkippingStates(t *testing.T) {
	sm := NewStateMachine()
	if err := sm.Transition(Ready); err == nil {
		t.Fatal("expected error transitioning Uninitialized -> Ready directly")
	}
	if sm.Current() != Uninitialized {
		t.Fatalf("state should be unchanged after rejected transition, got %s", sm.Current())
	}
}

func TestStateMachine_FailedReachableFromAnyState(t *testing.T) {
	for _, from := range []State{Uninitialized, Spawned, Ready, ShuttingDown} {
		sm := NewStateMachine()
		for s := Uninitialized; s != from; {
			next := validTransitions[s][0]
			_ = sm.Transition(next)
			s = next
		}
		if err := sm.Transition(Failed); err != nil {
			t.Fatalf("from %s: expected Failed to be reachable, got %v", from, err)
		}
	}
}

func TestStateMachine_TerminalStatesRejectFurtherTransitions(t *testing.T) {
	sm := NewStateMachine()
	_ = sm.Transition(Failed)
	if err := sm.Transition(Spawned); err == nil {
		t.Fatal("expected Failed to reject a further forward transition")
	}
}
