package asyncutil

// Instrument names shared by AsyncSemaphore, AsyncQueue and BoundedAsyncQueue
// when a metrics.Provider is configured via WithMetrics.
const (
	metricAvailablePermits = "asyncutil_semaphore_available_permits"
	metricQueueLength      = "asyncutil_waiter_queue_length"
	metricCancellations    = "asyncutil_cancellations"
	metricWaitDuration     = "asyncutil_waiter_wait_seconds"
	metricItemErrors       = "asyncutil_iterator_item_errors"
)
