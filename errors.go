package asyncutil

import "errors"

// Namespace prefixes every sentinel error in this package, matching the
// namespacing convention the ambient stack uses elsewhere.
const Namespace = "asyncutil"

var (
	// ErrInvalidArgument is reported synchronously when a negative permit
	// count is supplied: Acquire returns a Future already settled with it,
	// and Release returns it. TryAcquire does not return it; it reports
	// false for a negative count.
	ErrInvalidArgument = errors.New(Namespace + ": invalid argument")

	// ErrCancelled settles a Future whose waiter was cancelled before a
	// fulfiller reached it. Distinct from ErrEndOfIteration: a cancelled
	// waiter never observes termination, and a terminated queue never
	// produces ErrCancelled.
	ErrCancelled = errors.New(Namespace + ": waiter cancelled")

	// ErrEndOfIteration is a semantic sentinel, not a failure: it is how
	// NextStage reports that a queue has terminated and fully drained.
	// NextStage returns it unwrapped; IsEndOfIteration also recognises it
	// when a caller has wrapped it.
	ErrEndOfIteration = errors.New(Namespace + ": end of iteration")
)

// IsCancelled reports whether err is (or wraps) ErrCancelled.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsEndOfIteration reports whether err is (or wraps) ErrEndOfIteration.
//
// Modeled on the lfq package's IsWouldBlock/IsSemantic classifiers: a
// terminated-and-drained queue is a control-flow signal for consumers, not
// an operational failure, so callers are expected to branch on this rather
// than propagate err as-is.
func IsEndOfIteration(err error) bool {
	return errors.Is(err, ErrEndOfIteration)
}

// IsSemantic reports whether err is one of this package's non-failure
// sentinels (cancellation or end-of-iteration), as opposed to an
// unexpected error propagated from a user continuation.
func IsSemantic(err error) bool {
	return IsCancelled(err) || IsEndOfIteration(err)
}
