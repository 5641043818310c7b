package asyncutil

import (
	"sync"
	"time"

	"github.com/ygrebnov/asyncutil/executor"
	"github.com/ygrebnov/asyncutil/internal/waiterqueue"
)

// Fairness selects the admission ordering an AsyncRWLock uses among queued
// waiters. Grounded on kolosys-ion's semaphore.Fairness enum, which lists
// FIFO/LIFO/None as constructor-selected modes for a weighted semaphore.
// An unfair mode is a legitimate separate constructor-selected variant but
// is not required, so only FIFO is implemented here; LIFO and None are
// retained as named constants documenting the extension point, not dead
// ends pretending to work.
type Fairness int

const (
	// FIFO admits waiters in strict queued order. AsyncRWLock implements
	// only this mode.
	FIFO Fairness = iota
	// LIFO would admit the most recently queued waiter first. Not
	// implemented: NewAsyncRWLock panics if selected.
	LIFO
	// None would admit whichever waiter a scheduler happens to wake first,
	// dropping fairness for throughput. Not implemented: NewAsyncRWLock
	// panics if selected.
	None
)

func (f Fairness) String() string {
	switch f {
	case FIFO:
		return "FIFO"
	case LIFO:
		return "LIFO"
	case None:
		return "None"
	default:
		return "Fairness(unknown)"
	}
}

// rwWaiter is the payload carried by a queued AsyncRWLock waiter: exclusive
// requests want a write hold, non-exclusive requests want a read hold.
type rwWaiter struct {
	exclusive bool
	fut       *Future[struct{}]
}

// AsyncRWLock generalizes the same waiter-queue skeleton AsyncSemaphore
// instantiates, with an admission predicate suited to reader/writer
// exclusion instead of a permit count: any number of readers may hold
// concurrently, but a writer requires sole possession.
//
// Strict FIFO applies exactly as in AsyncSemaphore: a queued writer blocks
// all waiters behind it, including readers that could otherwise proceed
// concurrently with each other, so a steady stream of readers cannot starve
// a writer.
type AsyncRWLock struct {
	mu       sync.Mutex
	readers  int64 // count of currently held read locks
	writer   bool  // true while a write lock is held
	fairness Fairness
	waiters  *waiterqueue.Queue[*rwWaiter]
	cfg      config
}

// NewAsyncRWLock constructs an unlocked AsyncRWLock. fairness must be FIFO;
// LIFO and None are named but unimplemented (see Fairness), and selecting
// either panics immediately rather than silently falling back to FIFO.
func NewAsyncRWLock(fairness Fairness, opts ...Option) *AsyncRWLock {
	if fairness != FIFO {
		panic("asyncutil: AsyncRWLock only implements FIFO fairness")
	}
	return &AsyncRWLock{
		fairness: fairness,
		waiters:  waiterqueue.New[*rwWaiter](),
		cfg:      buildConfig(opts...),
	}
}

// RLock returns a Future that settles once a shared read hold is granted.
// Grant requires the queue to be empty and no writer currently held; like
// AsyncSemaphore.Acquire, a request that cannot be granted immediately is
// strict-FIFO queued rather than allowed to jump ahead of an earlier
// queued writer.
func (l *AsyncRWLock) RLock() *Future[struct{}] {
	return l.request(false)
}

// Lock returns a Future that settles once an exclusive write hold is
// granted (no readers and no writer currently held, and the queue empty).
func (l *AsyncRWLock) Lock() *Future[struct{}] {
	return l.request(true)
}

func (l *AsyncRWLock) request(exclusive bool) *Future[struct{}] {
	l.mu.Lock()
	if l.waiters.Empty() && l.admitsLocked(exclusive) {
		l.grantLocked(exclusive)
		l.mu.Unlock()
		return newSettledFuture[struct{}](struct{}{})
	}

	fut := newFuture[struct{}]()
	w := &rwWaiter{exclusive: exclusive, fut: fut}
	node := l.waiters.PushBack(w)
	l.cfg.Metrics.UpDownCounter(metricQueueLength).Add(1)
	l.mu.Unlock()

	queuedAt := time.Now()
	fut.Attach(executor.Inline{}, func(struct{}, error) {
		l.cfg.Metrics.Histogram(metricWaitDuration).Record(time.Since(queuedAt).Seconds())
	})
	fut.setCancelHook(func() bool { return l.cancelWaiter(node) })
	return fut
}

// admitsLocked reports whether a request of the given exclusivity could be
// granted right now, given the current hold state. Must be called with
// l.mu held.
func (l *AsyncRWLock) admitsLocked(exclusive bool) bool {
	if l.writer {
		return false
	}
	if exclusive {
		return l.readers == 0
	}
	return true
}

func (l *AsyncRWLock) grantLocked(exclusive bool) {
	if exclusive {
		l.writer = true
	} else {
		l.readers++
	}
}

// RUnlock releases one shared read hold and admits as many queued waiters
// as the new state permits, in strict FIFO order (stopping at the first
// waiter, typically a writer, that still cannot be granted).
func (l *AsyncRWLock) RUnlock() {
	l.mu.Lock()
	if l.readers == 0 {
		l.mu.Unlock()
		panic("asyncutil: RUnlock called without a held read lock")
	}
	l.readers--
	granted := l.admitLocked()
	l.mu.Unlock()

	for _, w := range granted {
		w.fut.Settle(struct{}{})
	}
}

// Unlock releases the held exclusive write lock and admits as many queued
// waiters as the new state permits.
func (l *AsyncRWLock) Unlock() {
	l.mu.Lock()
	if !l.writer {
		l.mu.Unlock()
		panic("asyncutil: Unlock called without a held write lock")
	}
	l.writer = false
	granted := l.admitLocked()
	l.mu.Unlock()

	for _, w := range granted {
		w.fut.Settle(struct{}{})
	}
}

// admitLocked pops and grants queued waiters while the head of the queue
// can be satisfied, stopping at the first one that cannot. This is the
// same "stop at first unsatisfiable waiter" rule AsyncSemaphore.admitLocked
// uses, generalized from a permit count to the reader/writer predicate.
// A granted reader lets admission continue to the next waiter (multiple
// readers may be granted in one pass); a granted writer stops the pass,
// since a writer excludes everyone queued behind it until released.
func (l *AsyncRWLock) admitLocked() []*rwWaiter {
	var granted []*rwWaiter
	for {
		node, ok := l.waiters.Front()
		if !ok {
			break
		}
		w := node.Value
		if !l.admitsLocked(w.exclusive) {
			break
		}
		l.waiters.PopFront()
		l.cfg.Metrics.UpDownCounter(metricQueueLength).Add(-1)
		l.grantLocked(w.exclusive)
		granted = append(granted, w)
		if w.exclusive {
			break
		}
	}
	return granted
}

func (l *AsyncRWLock) cancelWaiter(node *waiterqueue.Node[*rwWaiter]) bool {
	l.mu.Lock()
	removed := l.waiters.Remove(node)
	var granted []*rwWaiter
	if removed {
		l.cfg.Metrics.UpDownCounter(metricQueueLength).Add(-1)
		l.cfg.Metrics.Counter(metricCancellations).Add(1)
		granted = l.admitLocked()
	}
	l.mu.Unlock()

	for _, w := range granted {
		w.fut.Settle(struct{}{})
	}
	return removed
}

// QueueLength returns the number of currently queued waiters.
func (l *AsyncRWLock) QueueLength() int {
	return l.waiters.Len()
}
