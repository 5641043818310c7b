package asyncutil

import (
	"context"
	"errors"
	"sync"
)

// Collect drains q until end-of-iteration (or ctx is done) and returns
// every value observed, in delivery order.
func Collect[T any](ctx context.Context, q *AsyncQueue[T]) ([]T, error) {
	var out []T
	for {
		v, err := q.NextStage().Wait(ctx)
		if err != nil {
			if IsEndOfIteration(err) {
				return out, nil
			}
			return out, err
		}
		out = append(out, v)
	}
}

// ForEach drains q, dispatching fn for each value through the configured
// Executor (WithExecutor/WithFixedExecutor/WithDynamicExecutor; inline by
// default), and returns errors.Join of every non-nil error fn produced,
// each wrapped with its delivery index via ItemError. Every item is run;
// an error from fn does not short-circuit the drain.
func ForEach[T any](ctx context.Context, q *AsyncQueue[T], fn func(context.Context, T) error, opts ...Option) error {
	cfg := buildConfig(opts...)

	var (
		mu      sync.Mutex
		errs    []error
		pending sync.WaitGroup
	)

	index := 0
	for {
		v, err := q.NextStage().Wait(ctx)
		if err != nil {
			if IsEndOfIteration(err) {
				break
			}
			pending.Wait()
			return err
		}

		i := index
		index++
		item := v
		pending.Add(1)
		cfg.Executor.Submit(func() {
			defer pending.Done()
			if ferr := fn(ctx, item); ferr != nil {
				cfg.Metrics.Counter(metricItemErrors).Add(1)
				mu.Lock()
				errs = append(errs, newItemTaggedError(ferr, i))
				mu.Unlock()
			}
		})
	}

	pending.Wait()
	return errors.Join(errs...)
}

// Map returns a new unbounded AsyncQueue fed by a goroutine that applies fn
// to every value drained from in, in delivery order, forwarding results
// via Send. A fn call that returns a non-nil error does not forward a
// value for that item; the error is only counted via the configured
// metrics.Provider, since a single-consumer AsyncQueue has no room for a
// second parallel error stream (callers needing per-item errors should
// use ForEach instead). The output queue terminates once in terminates
// (or drains, if already terminated) or ctx is done.
func Map[T, R any](ctx context.Context, in *AsyncQueue[T], fn func(context.Context, T) (R, error), opts ...Option) *AsyncQueue[R] {
	cfg := buildConfig(opts...)
	out := NewAsyncQueue[R](opts...)

	go func() {
		defer out.Terminate()
		for {
			v, err := in.NextStage().Wait(ctx)
			if err != nil {
				return
			}
			r, ferr := fn(ctx, v)
			if ferr != nil {
				cfg.Metrics.Counter(metricItemErrors).Add(1)
				continue
			}
			if !out.Send(r) {
				return
			}
		}
	}()

	return out
}

// Concat merges the items of every queue in qs into one output queue, in
// each source's own delivery order. Arrival order across sources is not
// globally deterministic: whichever source's feeder goroutine observes
// the next value first forwards it first. The output queue terminates
// once every source has terminated and drained, or immediately if qs is
// empty. Coordination of "every feeder finished" uses drainGroup (see
// lifecycle.go).
func Concat[T any](ctx context.Context, qs ...*AsyncQueue[T]) *AsyncQueue[T] {
	out := NewAsyncQueue[T]()
	if len(qs) == 0 {
		out.Terminate()
		return out
	}

	group := newDrainGroup(len(qs), out.Terminate)
	for _, q := range qs {
		q := q
		go func() {
			defer group.done()
			for {
				v, err := q.NextStage().Wait(ctx)
				if err != nil {
					return
				}
				if !out.Send(v) {
					return
				}
			}
		}()
	}
	return out
}
