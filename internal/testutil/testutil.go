// Package testutil holds small helpers shared by the package tests.
package testutil

import (
	"testing"
	"time"
)

// WaitFor polls cond every 10ms until it returns true or the timeout
// elapses. It reports whether the condition was met.
func WaitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

// MustWaitFor fails the test when cond does not become true within timeout.
func MustWaitFor(t *testing.T, timeout time.Duration, msg string, cond func() bool) {
	t.Helper()
	if !WaitFor(timeout, cond) {
		t.Fatalf("condition not met within %s: %s", timeout, msg)
	}
}
