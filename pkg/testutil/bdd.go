package testutil

import "testing"

// Scenario steps for call-lifecycle tests. Each step is a subtest named after
// its keyword, so `go test -run 'Lifecycle/When_the_call_starts'` picks one out.

func Given(t *testing.T, precondition string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "Given", precondition, fn)
}

func When(t *testing.T, action string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "When", action, fn)
}

func Then(t *testing.T, outcome string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "Then", outcome, fn)
}

func step(t *testing.T, keyword, desc string, fn func(t *testing.T)) {
	t.Helper()
	if !t.Run(keyword+" "+desc, fn) {
		t.Logf("%s step failed: %s", keyword, desc)
	}
}
