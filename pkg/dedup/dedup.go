// Package dedup collapses concurrent identical requests onto a single
// in-flight call. Many independent widgets can ask for the same job's
// location at once; only one network call should be issued and every caller
// must observe the same outcome, including failures.
package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultGraceDelay keeps a settled entry joinable briefly so that
// near-simultaneous callers still collapse onto the finished call instead of
// racing the registry cleanup.
const DefaultGraceDelay = 100 * time.Millisecond

type Config struct {
	graceDelay time.Duration
	clock      clock.Clock
}

type Option func(*Config)

func WithGraceDelay(d time.Duration) Option {
	return func(c *Config) {
		c.graceDelay = d
	}
}

func WithClock(clk clock.Clock) Option {
	return func(c *Config) {
		c.clock = clk
	}
}

type flight[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Group is an injectable keyed collapse service. The zero value is not
// usable; construct with NewGroup.
type Group[T any] struct {
	mu      sync.Mutex
	flights map[string]*flight[T]
	cfg     Config
}

func NewGroup[T any](options ...Option) *Group[T] {
	cfg := Config{
		graceDelay: DefaultGraceDelay,
		clock:      clock.New(),
	}
	for _, opt := range options {
		opt(&cfg)
	}
	return &Group[T]{
		flights: make(map[string]*flight[T]),
		cfg:     cfg,
	}
}

// Do returns the result of the in-flight call registered under key, starting
// one with fn if none exists. Errors are shared verbatim with every waiter.
// A joining caller can still bail out on its own context without affecting
// the underlying call.
func (g *Group[T]) Do(ctx context.Context, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	g.mu.Lock()
	if existing, ok := g.flights[key]; ok {
		g.mu.Unlock()
		select {
		case <-existing.done:
			return existing.value, existing.err
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}

	f := &flight[T]{done: make(chan struct{})}
	g.flights[key] = f
	g.mu.Unlock()

	f.value, f.err = fn(ctx)
	close(f.done)

	// Drop the entry only after the grace delay so stragglers join the
	// settled flight rather than re-issuing the call.
	g.cfg.clock.AfterFunc(g.cfg.graceDelay, func() {
		g.mu.Lock()
		if g.flights[key] == f {
			delete(g.flights, key)
		}
		g.mu.Unlock()
	})

	return f.value, f.err
}

// Forget drops the entry for key immediately, forcing the next Do to issue a
// fresh call. Used by user-initiated refresh paths that must bypass the grace
// window.
func (g *Group[T]) Forget(key string) {
	g.mu.Lock()
	delete(g.flights, key)
	g.mu.Unlock()
}
