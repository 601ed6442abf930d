package models

import "testing"

// TestStatusTerminal verifies which lifecycle states are final.
func TestStatusTerminal(t *testing.T) {
	cases := map[Status]bool{
		StatusNotStarted: false,
		StatusInProgress: false,
		StatusCompleted:  true,
		StatusStopped:    true,
	}
	for status, want := range cases {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

// TestCompletionRate verifies the fraction and the empty-list guard.
func TestCompletionRate(t *testing.T) {
	exercises := []SessionExercise{
		{Completed: true},
		{Completed: true},
		{Completed: false},
	}
	got := CompletionRate(exercises)
	want := 2.0 / 3.0
	if got < want-0.0001 || got > want+0.0001 {
		t.Errorf("CompletionRate = %f, want %f", got, want)
	}

	if got := CompletionRate(nil); got != 0 {
		t.Errorf("CompletionRate(nil) = %f, want 0", got)
	}
}
