// Package executor provides the continuation-dispatch abstraction used when
// a settled Future fans out to attached callbacks.
//
// There is nothing to pool here: a continuation is a bare func(), not a
// reusable object. The same two shapes a worker pool normally offers
// (grow-as-needed vs. fixed capacity) show up instead as Dynamic (one
// goroutine per Submit) and Fixed (a bounded pool of long-lived goroutines
// draining a task channel).
package executor

import "code.hybscloud.com/iox"

// Executor runs a continuation, possibly asynchronously. Submit must not
// block the caller for longer than it takes to hand fn off; Fixed uses a
// short non-blocking-then-backoff retry before falling back to a blocking
// send, so a momentarily saturated pool does not immediately stall a
// settling goroutine. Once those retries are exhausted, Fixed's Submit
// blocks until a pool goroutine takes fn.
type Executor interface {
	Submit(fn func())
}

// Inline runs fn synchronously on the caller's goroutine. This is the
// default used throughout the package when no Executor is configured:
// continuations run on the settling thread unless told otherwise.
type Inline struct{}

func (Inline) Submit(fn func()) { fn() }

// dynamic spawns one goroutine per Submit call. There is no object to
// reuse here, so Dynamic is a bare `go fn()`.
type dynamic struct{}

// Dynamic returns an Executor that runs every continuation on its own
// goroutine, unbounded. Suitable when continuations are short and callers
// want to avoid head-of-line blocking between unrelated settlements.
func Dynamic() Executor { return dynamic{} }

func (dynamic) Submit(fn func()) { go fn() }

// fixed is a bounded pool of n long-lived goroutines draining a shared task
// channel.
type fixed struct {
	tasks chan func()
}

// Fixed returns an Executor backed by n long-lived goroutines. Submit first
// attempts a non-blocking send; on a full task channel it retries briefly
// with iox.Backoff (the same adaptive-backoff idiom the lfq package
// documents for its own bounded queues) before falling back to a blocking
// send, so bursts don't immediately stall the settling goroutine.
func Fixed(n int) Executor {
	if n <= 0 {
		panic("executor: Fixed requires n > 0")
	}
	f := &fixed{tasks: make(chan func(), n)}
	for i := 0; i < n; i++ {
		go f.run()
	}
	return f
}

func (f *fixed) run() {
	for fn := range f.tasks {
		fn()
	}
}

func (f *fixed) Submit(fn func()) {
	select {
	case f.tasks <- fn:
		return
	default:
	}

	backoff := iox.Backoff{}
	for i := 0; i < 8; i++ {
		select {
		case f.tasks <- fn:
			return
		default:
			backoff.Wait()
		}
	}
	f.tasks <- fn
}
