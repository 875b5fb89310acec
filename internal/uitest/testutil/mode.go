package testutil

import (
	"os"
	"slices"
	"testing"
)

// TestMode selects which tests run.
type TestMode string

const (
	TestModeMock   TestMode = "mock"   // static fixtures on the in-memory driver
	TestModeReplay TestMode = "replay" // real browser, recorded responses
	TestModeLive   TestMode = "live"   // real browser, real network
)

const testModeEnv = "UITEST_TEST_MODE"

// CurrentMode reads UITEST_TEST_MODE; mock when unset.
func CurrentMode() TestMode {
	mode := os.Getenv(testModeEnv)
	if mode == "" {
		return TestModeMock
	}
	return TestMode(mode)
}

// SkipUnlessMode skips t unless the current mode is one of modes.
func SkipUnlessMode(t testing.TB, modes ...TestMode) {
	t.Helper()
	if !slices.Contains(modes, CurrentMode()) {
		t.Skipf("skipping: requires %s in %v", testModeEnv, modes)
	}
}
