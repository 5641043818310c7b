package asyncutil

import (
	"sync"
	"time"

	"code.hybscloud.com/atomix"

	"github.com/ygrebnov/asyncutil/executor"
	"github.com/ygrebnov/asyncutil/internal/waiterqueue"
)

// AsyncQueue is an unbounded multi-producer single-consumer value queue.
// Send is safe from any number of goroutines; NextStage and Poll are not,
// since the fulfillment-taking side is restricted to a single consumer.
//
// The queue is in one of three logical modes at any instant: Empty,
// RequesterMode (consumerWaiters non-empty), or FulfillerMode
// (buffered non-empty). The two waiterqueue.Queue instances below never
// hold nodes simultaneously; Send and NextStage enforce the exclusion by
// always draining the opposite side first under the same mutex.
//
// Grounded on other_examples' bmizerany-wait/list.go: its FIFO waiters
// queue plus LIFO ready stack is the same requester/fulfillment duality,
// generalized here to FIFO-on-both-sides (the bounded queue built on top
// needs strict arrival order for both producers and buffered values) and
// rebuilt around Future[T] instead of per-waiter channels.
type AsyncQueue[T any] struct {
	mu              sync.Mutex
	consumerWaiters *waiterqueue.Queue[*Future[T]]
	buffered        *waiterqueue.Queue[T]
	terminated      atomix.Bool
	cfg             config
}

// NewAsyncQueue constructs an empty, unbounded AsyncQueue.
func NewAsyncQueue[T any](opts ...Option) *AsyncQueue[T] {
	return &AsyncQueue[T]{
		consumerWaiters: waiterqueue.New[*Future[T]](),
		buffered:        waiterqueue.New[T](),
		cfg:             buildConfig(opts...),
	}
}

// Send enqueues item, handing it directly to the longest-waiting consumer
// if one is parked, or buffering it for a future NextStage/Poll otherwise.
// It returns false without enqueuing if the queue has already terminated.
func (q *AsyncQueue[T]) Send(item T) bool {
	if q.terminated.LoadAcquire() {
		return false
	}

	q.mu.Lock()
	if q.terminated.LoadAcquire() {
		q.mu.Unlock()
		return false
	}
	if node, ok := q.consumerWaiters.PopFront(); ok {
		q.mu.Unlock()
		// The node is now unlinked, so a concurrent Cancel's hook finds
		// Remove reporting false and Cancel backs off without settling:
		// this Settle delivers item to the waiter.
		node.Value.Settle(item)
		return true
	}
	q.buffered.PushBack(item)
	q.cfg.Metrics.UpDownCounter(metricQueueLength).Add(1)
	q.mu.Unlock()
	return true
}

// NextStage returns a Future settling to the next value once one is
// available, to end-of-iteration if the queue has terminated and drained,
// or immediately if a value is already buffered.
func (q *AsyncQueue[T]) NextStage() *Future[T] {
	q.mu.Lock()
	if node, ok := q.buffered.PopFront(); ok {
		q.cfg.Metrics.UpDownCounter(metricQueueLength).Add(-1)
		q.mu.Unlock()
		return newSettledFuture[T](node.Value)
	}
	if q.terminated.LoadAcquire() {
		q.mu.Unlock()
		return newSettledErrorFuture[T](ErrEndOfIteration)
	}

	fut := newFuture[T]()
	node := q.consumerWaiters.PushBack(fut)
	q.mu.Unlock()

	queuedAt := time.Now()
	fut.Attach(executor.Inline{}, func(T, error) {
		q.cfg.Metrics.Histogram(metricWaitDuration).Record(time.Since(queuedAt).Seconds())
	})
	fut.setCancelHook(func() bool {
		q.mu.Lock()
		removed := q.consumerWaiters.Remove(node)
		q.mu.Unlock()
		if removed {
			q.cfg.Metrics.Counter(metricCancellations).Add(1)
		}
		return removed
	})
	return fut
}

// Poll returns the next buffered value without blocking, or (zero, false)
// if none is ready right now. It cannot distinguish "empty" from
// "terminated and drained"; callers needing that distinction must use
// NextStage.
func (q *AsyncQueue[T]) Poll() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	node, ok := q.buffered.PopFront()
	if !ok {
		var zero T
		return zero, false
	}
	q.cfg.Metrics.UpDownCounter(metricQueueLength).Add(-1)
	return node.Value, true
}

// Terminate sets the sticky termination flag, settles every currently
// pending consumer waiter with ErrEndOfIteration, and rejects future Sends.
// Idempotent: a second call is a no-op.
func (q *AsyncQueue[T]) Terminate() {
	q.mu.Lock()
	if q.terminated.LoadAcquire() {
		q.mu.Unlock()
		return
	}
	q.terminated.StoreRelease(true)
	var drained []*Future[T]
	q.consumerWaiters.DrainFunc(func(n *waiterqueue.Node[*Future[T]]) {
		drained = append(drained, n.Value)
	})
	q.mu.Unlock()

	for _, fut := range drained {
		fut.SettleError(ErrEndOfIteration)
	}
}

// Terminated reports whether Terminate has been called.
func (q *AsyncQueue[T]) Terminated() bool {
	return q.terminated.LoadAcquire()
}
