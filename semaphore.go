package asyncutil

import (
	"sync"
	"time"

	"github.com/ygrebnov/asyncutil/executor"
	"github.com/ygrebnov/asyncutil/internal/waiterqueue"
)

// AsyncSemaphore is a permit-counted gate with a strict-FIFO queue of
// multi-permit waiters. Acquire never blocks the caller; it returns a
// Future that settles once enough permits have been reserved.
//
// Grounded on newcomingsoon-sync/semaphore's Weighted: the admission
// algorithm ("stop at the first waiter that cannot yet be satisfied") is
// the same strict-FIFO tie-break, generalized from a condvar-style
// ready-channel-per-waiter into this package's shared Future/waiterqueue.
type AsyncSemaphore struct {
	mu        sync.Mutex
	available int64
	waiters   *waiterqueue.Queue[*semWaiter]
	cfg       config
}

type semWaiter struct {
	n   int64
	fut *Future[struct{}]
}

// NewAsyncSemaphore constructs a semaphore with the given initial permit
// count. n must be >= 0.
func NewAsyncSemaphore(n int64, opts ...Option) *AsyncSemaphore {
	if n < 0 {
		panic("asyncutil: NewAsyncSemaphore requires n >= 0")
	}
	return &AsyncSemaphore{
		available: n,
		waiters:   waiterqueue.New[*semWaiter](),
		cfg:       buildConfig(opts...),
	}
}

// Acquire reserves n permits, returning a Future that settles with an
// empty struct once granted, or with ErrInvalidArgument synchronously
// (via an already-settled Future) if n < 0.
func (s *AsyncSemaphore) Acquire(n int64) *Future[struct{}] {
	if n < 0 {
		return newSettledErrorFuture[struct{}](ErrInvalidArgument)
	}

	s.mu.Lock()
	if s.available >= n && s.waiters.Empty() {
		s.available -= n
		s.cfg.Metrics.UpDownCounter(metricAvailablePermits).Add(-n)
		s.mu.Unlock()
		return newSettledFuture[struct{}](struct{}{})
	}

	fut := newFuture[struct{}]()
	w := &semWaiter{n: n, fut: fut}
	node := s.waiters.PushBack(w)
	s.cfg.Metrics.UpDownCounter(metricQueueLength).Add(1)
	s.mu.Unlock()

	queuedAt := time.Now()
	fut.Attach(executor.Inline{}, func(struct{}, error) {
		s.cfg.Metrics.Histogram(metricWaitDuration).Record(time.Since(queuedAt).Seconds())
	})
	fut.setCancelHook(func() bool { return s.cancelWaiter(node) })
	return fut
}

// TryAcquire reserves n permits only if they are immediately available and
// no waiter is already queued ahead. It never queues, so it cannot violate
// fairness. It reports false (and leaves the ledger unchanged) if n < 0.
func (s *AsyncSemaphore) TryAcquire(n int64) bool {
	if n < 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.available >= n && s.waiters.Empty() {
		s.available -= n
		s.cfg.Metrics.UpDownCounter(metricAvailablePermits).Add(-n)
		return true
	}
	return false
}

// Release returns n permits to the ledger and admits as many queued
// waiters as the replenished ledger now satisfies, in strict FIFO order.
// It returns ErrInvalidArgument synchronously if n < 0.
func (s *AsyncSemaphore) Release(n int64) error {
	if n < 0 {
		return ErrInvalidArgument
	}

	s.mu.Lock()
	s.available += n
	s.cfg.Metrics.UpDownCounter(metricAvailablePermits).Add(n)
	granted := s.admitLocked()
	s.mu.Unlock()

	for _, w := range granted {
		w.fut.Settle(struct{}{})
	}
	return nil
}

// admitLocked implements the "stop at the first unsatisfiable waiter"
// rule: a later, smaller request never jumps the queue ahead of an
// earlier, larger one even when the ledger could satisfy it. Must be
// called with s.mu held; returns the waiters granted, to be settled by
// the caller after releasing the lock.
func (s *AsyncSemaphore) admitLocked() []*semWaiter {
	var granted []*semWaiter
	for {
		node, ok := s.waiters.Front()
		if !ok {
			break
		}
		w := node.Value
		if s.available < w.n {
			break
		}
		s.available -= w.n
		s.waiters.PopFront()
		s.cfg.Metrics.UpDownCounter(metricAvailablePermits).Add(-w.n)
		s.cfg.Metrics.UpDownCounter(metricQueueLength).Add(-1)
		granted = append(granted, w)
	}
	return granted
}

// cancelWaiter removes node from the waiter queue, reporting whether this
// call won the race against a concurrent Release that might otherwise have
// already popped (and be settling) the same node. A successful removal of
// the head may free later, smaller waiters to be admitted, mirroring
// x/sync's "isFront, renotify" step, so it re-runs admitLocked before
// releasing the lock.
func (s *AsyncSemaphore) cancelWaiter(node *waiterqueue.Node[*semWaiter]) bool {
	s.mu.Lock()
	removed := s.waiters.Remove(node)
	var granted []*semWaiter
	if removed {
		s.cfg.Metrics.UpDownCounter(metricQueueLength).Add(-1)
		s.cfg.Metrics.Counter(metricCancellations).Add(1)
		granted = s.admitLocked()
	}
	s.mu.Unlock()

	for _, w := range granted {
		w.fut.Settle(struct{}{})
	}
	return removed
}

// DrainPermits returns whatever is currently available and zeroes the
// ledger, without ever consulting or admitting queued waiters. Intended
// for shutdown paths.
func (s *AsyncSemaphore) DrainPermits() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.available
	s.available = 0
	s.cfg.Metrics.UpDownCounter(metricAvailablePermits).Add(-d)
	return d
}

// AvailablePermits returns the current permit count.
func (s *AsyncSemaphore) AvailablePermits() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
}

// QueueLength returns the number of currently queued waiters.
func (s *AsyncSemaphore) QueueLength() int {
	return s.waiters.Len()
}

