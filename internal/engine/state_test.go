package engine

import "testing"

func TestStatePartition(t *testing.T) {
	blocking := []State{StateNotStarted, StateAuthentication, StateWaiting, StateProcessing}
	terminal := []State{
		StateFinished, StateFailed, StateParsingFailed, StateConnFailed,
		StateAuthFailed, StateNotAvailable, StateTimeout,
	}

	for _, s := range blocking {
		if !s.IsBlocking() || s.IsTerminal() {
			t.Errorf("%q should be blocking", s)
		}
	}
	for _, s := range terminal {
		if s.IsBlocking() || !s.IsTerminal() {
			t.Errorf("%q should be terminal", s)
		}
	}
}

func TestStateStrings(t *testing.T) {
	cases := map[State]string{
		StateNotStarted:    "not started",
		StateProcessing:    "processing",
		StateParsingFailed: "parsing failed",
		StateConnFailed:    "connection failed",
		StateAuthFailed:    "authentication failed",
		StateNotAvailable:  "predictor not available",
	}
	for s, want := range cases {
		if string(s) != want {
			t.Errorf("state %q, want %q", s, want)
		}
	}
}

func TestDefaultMessageNeverEmpty(t *testing.T) {
	all := []State{
		StateNotStarted, StateAuthentication, StateWaiting, StateProcessing,
		StateFinished, StateFailed, StateParsingFailed, StateConnFailed,
		StateAuthFailed, StateNotAvailable, StateTimeout,
	}
	for _, s := range all {
		if s.DefaultMessage() == "" {
			t.Errorf("%q has no default message", s)
		}
	}
}
