package asyncutil

import (
	"fmt"

	"github.com/ygrebnov/asyncutil/executor"
	"github.com/ygrebnov/asyncutil/metrics"
)

// Option configures an AsyncSemaphore, AsyncQueue, BoundedAsyncQueue or
// AsyncRWLock at construction.
type Option func(*configOptions)

// internal builder state for options assembly.
type configOptions struct {
	cfg          config
	execSelected bool
}

// WithExecutor sets the configured Executor (see config.Executor for which
// primitives use it). Conflicts with WithFixedExecutor/WithDynamicExecutor.
func WithExecutor(exec executor.Executor) Option {
	return func(co *configOptions) {
		if exec == nil {
			panic("WithExecutor requires a non-nil executor.Executor")
		}
		if co.execSelected {
			panic("conflicting executor options: more than one of WithExecutor, WithFixedExecutor, WithDynamicExecutor specified")
		}
		co.execSelected = true
		co.cfg.Executor = exec
	}
}

// WithFixedExecutor selects a bounded pool of n goroutines for continuation
// dispatch (see executor.Fixed). n must be > 0.
func WithFixedExecutor(n int) Option {
	return func(co *configOptions) {
		if co.execSelected {
			panic("conflicting executor options: more than one of WithExecutor, WithFixedExecutor, WithDynamicExecutor specified")
		}
		co.execSelected = true
		co.cfg.Executor = executor.Fixed(n)
	}
}

// WithDynamicExecutor selects one goroutine per continuation (see
// executor.Dynamic).
func WithDynamicExecutor() Option {
	return func(co *configOptions) {
		if co.execSelected {
			panic("conflicting executor options: more than one of WithExecutor, WithFixedExecutor, WithDynamicExecutor specified")
		}
		co.execSelected = true
		co.cfg.Executor = executor.Dynamic()
	}
}

// WithMetrics sets the metrics.Provider instrumentation is recorded against.
func WithMetrics(p metrics.Provider) Option {
	return func(co *configOptions) {
		if p == nil {
			panic("WithMetrics requires a non-nil metrics.Provider")
		}
		co.cfg.Metrics = p
	}
}

// buildConfig applies opts over defaultConfig and validates the result,
// panicking on conflicting or invalid options.
func buildConfig(opts ...Option) config {
	co := configOptions{cfg: defaultConfig()}
	for _, opt := range opts {
		if opt == nil {
			panic("nil option")
		}
		opt(&co)
	}
	if err := validateConfig(&co.cfg); err != nil {
		panic(fmt.Errorf("invalid config: %w", err))
	}
	return co.cfg
}
