// Package concurrency holds the single process-wide mutable the engine
// depends on: a shutdown flag toggled by SIGINT, polled between the major
// steps of a long-running operation.
package concurrency

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/sirupsen/logrus"
)

var shutdownRequested atomic.Bool

// ShutdownRequested reports whether a shutdown has been requested. Callers
// in the middle of a WAL-guarded operation poll this between major steps
// (e.g. between layer writes) and unwind via the active WAL record if set.
func ShutdownRequested() bool {
	return shutdownRequested.Load()
}

// InstallSignalHandler registers a SIGINT handler: the first signal sets
// the shutdown flag and lets in-flight operations unwind gracefully; a
// second signal exits immediately.
func InstallSignalHandler() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT)
	go func() {
		for range ch {
			if shutdownRequested.Load() {
				os.Exit(1)
			}
			shutdownRequested.Store(true)
			logrus.Warn("shutdown requested, finishing current operation...")
		}
	}()
}

// reset clears the flag; used by tests only.
func reset() {
	shutdownRequested.Store(false)
}
