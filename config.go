package asyncutil

import (
	"github.com/ygrebnov/asyncutil/executor"
	"github.com/ygrebnov/asyncutil/metrics"
)

// config holds the construction-time configuration shared by AsyncSemaphore,
// AsyncQueue, BoundedAsyncQueue and AsyncRWLock.
type config struct {
	// Executor runs the continuations BoundedAsyncQueue attaches to its
	// gate and inner-queue Futures, and the per-item calls of ForEach.
	// AsyncSemaphore, AsyncQueue and AsyncRWLock do not use it; a
	// continuation registered with Future.Attach runs on the Executor
	// passed to Attach.
	// Default: executor.Inline{} (run on the settling goroutine).
	Executor executor.Executor

	// Metrics receives queue-length, permit and cancellation observations.
	// Default: metrics.NewNoopProvider().
	Metrics metrics.Provider
}

// defaultConfig centralizes default values for config.
func defaultConfig() config {
	return config{
		Executor: executor.Inline{},
		Metrics:  metrics.NewNoopProvider(),
	}
}

// validateConfig performs lightweight invariant checks. Reserved for future
// expansion; every combination of Executor/Metrics is currently valid.
func validateConfig(_ *config) error {
	return nil
}
