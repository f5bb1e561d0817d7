package signalhandler

import (
	"context"
	"os/signal"
	"runtime"
	"syscall"
)

// SetupHandler returns a context that is cancelled on SIGINT or SIGTERM.
// A cancelled run stops before any output file is renamed into place.
func SetupHandler(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// GetOptimalProcs returns the optimal number of worker goroutines for the system
func GetOptimalProcs() int {
	numCPU := runtime.NumCPU()

	// OpenCV parallelizes internally, leave some headroom for it
	maxProcs := (numCPU * 3) / 4
	if maxProcs < 1 {
		maxProcs = 1
	}

	return maxProcs
}
