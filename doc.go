// Package asyncutil provides non-blocking concurrency primitives whose
// acquire/consume operations return a Future instead of parking the
// calling goroutine.
//
// Three primitives share one waiter-queue protocol:
//
//   - AsyncSemaphore: a permit-counted gate with a strict-FIFO queue of
//     multi-permit waiters.
//   - AsyncQueue: an unbounded multi-producer single-consumer value queue
//     whose consumer side (NextStage/Poll) surfaces a Future when the
//     queue is momentarily empty.
//   - BoundedAsyncQueue: an AsyncQueue with send-side backpressure,
//     composed from an AsyncQueue and an AsyncSemaphore.
//
// AsyncRWLock instantiates the same waiter-queue skeleton with a
// reader/writer admission predicate instead of a permit count.
//
// Constructors
//
// Every primitive accepts functional Options. WithExecutor,
// WithFixedExecutor and WithDynamicExecutor select the Executor that
// BoundedAsyncQueue uses for the continuations it attaches internally and
// that ForEach uses to run its callback (default: inline, on the goroutine
// that settles the Future); AsyncSemaphore, AsyncQueue and AsyncRWLock
// accept these options but do not use the Executor. A continuation
// registered with Future.Attach runs on the Executor passed to Attach.
// WithMetrics attaches a metrics.Provider for queue-length,
// available-permits, wait-duration and cancellation observations (default:
// metrics.NewNoopProvider()).
//
// Errors
//
// Sentinel errors (ErrInvalidArgument, ErrCancelled, ErrEndOfIteration)
// classify Future settlement outcomes. ErrEndOfIteration and ErrCancelled
// are ordinary control-flow sentinels, not operational failures. Use
// IsEndOfIteration/IsCancelled/IsSemantic rather than direct comparison,
// since they also recognise the sentinels when wrapped.
//
// Combinators
//
// Collect, ForEach, Map and Concat are iterator combinators built purely
// atop AsyncQueue.NextStage; they are the external-collaborator boundary
// this package exposes to callers who want sequence-style operations over
// a queue's values rather than direct NextStage/Poll calls.
package asyncutil
