package asyncutil

import (
	"context"
	"sync"

	"code.hybscloud.com/atomix"

	"github.com/ygrebnov/asyncutil/executor"
)

// Future is an abstract single-assignment cell carrying either a value of
// type T or an error. It has three states: pending, settled-value, and
// settled-error. The transition out of pending is one-way.
//
// Grounded on xigexb/go-future's CompletableFuture: an atomic done flag
// gates a fast lock-free read for the common "already settled" case, a
// mutex protects the value/error/callback-list slow path, and callbacks
// accumulated before settlement are flushed exactly once, outside the lock.
type Future[T any] struct {
	done atomix.Bool

	mu  sync.Mutex
	val T
	err error
	cbs []pendingCallback[T]

	doneCh chan struct{}

	// cancelHook, when set, lets the waiter-queue owner unlink this
	// Future's node before it settles with ErrCancelled. It returns false
	// when a fulfiller has already claimed the node (see Cancel).
	cancelHook func() bool
}

type pendingCallback[T any] struct {
	exec executor.Executor
	fn   func(T, error)
}

// newFuture returns a pending Future.
func newFuture[T any]() *Future[T] {
	return &Future[T]{doneCh: make(chan struct{})}
}

// newSettledFuture returns a Future already settled to v. Used for the
// semaphore's and queue's immediate-grant fast paths, where admission
// succeeds without ever touching the waiter queue.
func newSettledFuture[T any](v T) *Future[T] {
	f := &Future[T]{doneCh: make(chan struct{}), val: v}
	close(f.doneCh)
	f.done.StoreRelease(true)
	return f
}

// newSettledErrorFuture returns a Future already settled with err.
func newSettledErrorFuture[T any](err error) *Future[T] {
	f := &Future[T]{doneCh: make(chan struct{}), err: err}
	close(f.doneCh)
	f.done.StoreRelease(true)
	return f
}

// IsDone reports whether the Future has settled, lock-free.
func (f *Future[T]) IsDone() bool {
	return f.done.LoadAcquire()
}

// Done returns a channel closed once the Future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.doneCh
}

// Wait blocks until the Future settles or ctx is done, whichever comes
// first. It is a convenience wrapper for callers who want synchronous
// style; the library itself never blocks internally.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.doneCh:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Attach registers fn to run once the Future settles, dispatched through
// exec (executor.Inline{} if nil). If the Future has already settled, fn
// runs (via exec) immediately.
func (f *Future[T]) Attach(exec executor.Executor, fn func(T, error)) {
	if exec == nil {
		exec = executor.Inline{}
	}

	if f.done.LoadAcquire() {
		v, err := f.snapshot()
		exec.Submit(func() { fn(v, err) })
		return
	}

	f.mu.Lock()
	if f.done.LoadAcquire() {
		v, err := f.val, f.err
		f.mu.Unlock()
		exec.Submit(func() { fn(v, err) })
		return
	}
	f.cbs = append(f.cbs, pendingCallback[T]{exec: exec, fn: fn})
	f.mu.Unlock()
}

func (f *Future[T]) snapshot() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.val, f.err
}

// Settle transitions a pending Future to settled-value. It reports false
// if the Future had already settled (by a prior Settle, SettleError, or
// Cancel), in which case the caller must treat this as the losing side of
// a settlement race and not assume v was delivered.
func (f *Future[T]) Settle(v T) bool {
	return f.settle(v, nil)
}

// SettleError transitions a pending Future to settled-error.
func (f *Future[T]) SettleError(err error) bool {
	var zero T
	return f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) bool {
	if f.done.LoadAcquire() {
		return false
	}

	f.mu.Lock()
	if f.done.LoadAcquire() {
		f.mu.Unlock()
		return false
	}
	f.val = v
	f.err = err
	cbs := f.cbs
	f.cbs = nil
	f.done.StoreRelease(true)
	close(f.doneCh)
	f.mu.Unlock()

	for _, cb := range cbs {
		cb := cb
		cb.exec.Submit(func() { cb.fn(v, err) })
	}
	return true
}

// Cancel settles a still-pending Future with ErrCancelled and reports true,
// or reports false if the Future was not pending (already settled, or a
// concurrent fulfiller already claimed its waiter-queue node).
//
// A cancelled waiter never receives a value, and its cancellation never
// consumes a fulfillment or a permit. When cancelHook reports that a
// fulfiller already popped this Future's node, Cancel backs off entirely
// rather than racing a SettleError against the fulfiller's Settle: the
// fulfiller's value must not be silently dropped.
func (f *Future[T]) Cancel() bool {
	if f.done.LoadAcquire() {
		return false
	}
	if f.cancelHook != nil && !f.cancelHook() {
		return false
	}
	var zero T
	return f.settle(zero, ErrCancelled)
}

// setCancelHook wires the waiter-queue unlink callback. Unexported: only
// the primitives in this package (semaphore, queue) construct Futures with
// a cancel hook attached.
func (f *Future[T]) setCancelHook(hook func() bool) {
	f.cancelHook = hook
}
