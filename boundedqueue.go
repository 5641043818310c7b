package asyncutil

import (
	"sync"

	"code.hybscloud.com/atomix"
)

// BoundedAsyncQueue is an MPSC value queue with send-side backpressure: at
// most capacity accepted-but-unconsumed items exist at any instant. It
// composes an AsyncSemaphore as the send-side gate and an AsyncQueue as
// the value channel.
type BoundedAsyncQueue[T any] struct {
	capacity int64
	gate     *AsyncSemaphore
	inner    *AsyncQueue[T]

	terminated atomix.Bool

	mu                  sync.Mutex
	acceptedNotConsumed int64
	drainHandle         *Future[struct{}]
}

// NewBoundedAsyncQueue constructs a BoundedAsyncQueue with the given
// capacity. capacity must be > 0.
func NewBoundedAsyncQueue[T any](capacity int64, opts ...Option) *BoundedAsyncQueue[T] {
	if capacity <= 0 {
		panic("asyncutil: NewBoundedAsyncQueue requires capacity > 0")
	}
	return &BoundedAsyncQueue[T]{
		capacity: capacity,
		gate:     NewAsyncSemaphore(capacity, opts...),
		inner:    NewAsyncQueue[T](opts...),
	}
}

// Send acquires one unit of backpressure capacity, then pushes v into the
// inner queue once granted. The returned Future settles true once v has
// been accepted, or false if the queue was (or became, while the permit
// acquisition was pending) terminated. In the latter case the permit is
// returned to the gate rather than leaked.
func (b *BoundedAsyncQueue[T]) Send(v T) *Future[bool] {
	if b.terminated.LoadAcquire() {
		return newSettledFuture[bool](false)
	}

	result := newFuture[bool]()
	permit := b.gate.Acquire(1)
	permit.Attach(b.inner.cfg.Executor, func(_ struct{}, err error) {
		if err != nil {
			// The only settlement errors Acquire(1) ever produces are
			// ErrInvalidArgument (unreachable here, n=1) or ErrCancelled.
			// The latter is also unreachable: Send never cancels its own
			// gate waiter.
			result.SettleError(err)
			return
		}
		if b.terminated.LoadAcquire() {
			_ = b.gate.Release(1)
			result.Settle(false)
			return
		}

		b.mu.Lock()
		b.acceptedNotConsumed++
		b.mu.Unlock()

		accepted := b.inner.Send(v)
		if !accepted {
			// Terminated in the gap between the check above and Send.
			b.mu.Lock()
			b.acceptedNotConsumed--
			b.mu.Unlock()
			_ = b.gate.Release(1)
			result.Settle(false)
			return
		}
		result.Settle(true)
	})
	return result
}

// NextStage pops the next value and, once the caller has observed it,
// releases one unit of backpressure capacity back to the gate. The
// release happens after delivery, never before.
func (b *BoundedAsyncQueue[T]) NextStage() *Future[T] {
	inner := b.inner.NextStage()
	out := newFuture[T]()
	inner.Attach(b.inner.cfg.Executor, func(v T, err error) {
		if err != nil {
			out.SettleError(err)
			return
		}
		out.Settle(v)
		b.onConsumed()
	})
	return out
}

// Poll pops a buffered value without blocking, releasing one unit of
// backpressure capacity if a value was returned.
func (b *BoundedAsyncQueue[T]) Poll() (T, bool) {
	v, ok := b.inner.Poll()
	if ok {
		b.onConsumed()
	}
	return v, ok
}

func (b *BoundedAsyncQueue[T]) onConsumed() {
	_ = b.gate.Release(1)

	b.mu.Lock()
	b.acceptedNotConsumed--
	drained := b.acceptedNotConsumed == 0 && b.terminated.LoadAcquire()
	handle := b.drainHandle
	b.mu.Unlock()

	if drained && handle != nil {
		handle.Settle(struct{}{})
	}
}

// Terminate sets the sticky termination flag and terminates the inner
// queue; it returns a Future that settles once every send accepted before
// termination has been consumed.
func (b *BoundedAsyncQueue[T]) Terminate() *Future[struct{}] {
	b.mu.Lock()
	if b.terminated.LoadAcquire() {
		handle := b.drainHandle
		b.mu.Unlock()
		return handle
	}
	b.terminated.StoreRelease(true)
	handle := newFuture[struct{}]()
	b.drainHandle = handle
	alreadyDrained := b.acceptedNotConsumed == 0
	b.mu.Unlock()

	b.inner.Terminate()

	if alreadyDrained {
		handle.Settle(struct{}{})
	}
	return handle
}

// Terminated reports whether Terminate has been called.
func (b *BoundedAsyncQueue[T]) Terminated() bool {
	return b.terminated.LoadAcquire()
}
