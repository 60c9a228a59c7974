package concurrency

import "testing"

func TestShutdownRequestedDefaultsFalse(t *testing.T) {
	reset()
	if ShutdownRequested() {
		t.Error("ShutdownRequested() true before any signal")
	}
}

func TestShutdownRequestedSetAndReset(t *testing.T) {
	reset()
	shutdownRequested.Store(true)
	if !ShutdownRequested() {
		t.Error("ShutdownRequested() false after Store(true)")
	}
	reset()
	if ShutdownRequested() {
		t.Error("ShutdownRequested() true after reset")
	}
}
