// Package stopwatch derives a live-updating elapsed duration from a fixed
// start timestamp. The backend owns the timestamps; this only renders the
// distance from now.
package stopwatch

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type Config struct {
	clock  clock.Clock
	onTick func(elapsed time.Duration)
}

type Option func(*Config)

func WithClock(clk clock.Clock) Option {
	return func(c *Config) {
		c.clock = clk
	}
}

// WithTickCallback registers a callback invoked with the updated elapsed
// value on every tick.
func WithTickCallback(f func(elapsed time.Duration)) Option {
	return func(c *Config) {
		c.onTick = f
	}
}

// Stopwatch re-computes elapsed = now − start once per second while running.
type Stopwatch struct {
	cfg   Config
	start time.Time

	mu      sync.Mutex
	stop    chan struct{}
	elapsed time.Duration
}

func New(start time.Time, options ...Option) *Stopwatch {
	cfg := Config{clock: clock.New()}
	for _, opt := range options {
		opt(&cfg)
	}
	s := &Stopwatch{cfg: cfg, start: start}
	s.elapsed = s.compute()
	return s
}

func (s *Stopwatch) compute() time.Duration {
	return s.cfg.clock.Now().Sub(s.start).Truncate(time.Second)
}

// Elapsed returns the most recently computed elapsed duration, floored to
// whole seconds.
func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Start begins ticking. Starting a running stopwatch is a no-op.
func (s *Stopwatch) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	go s.run(s.stop)
}

func (s *Stopwatch) run(stop chan struct{}) {
	ticker := s.cfg.clock.Ticker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// A tick and a stop can become ready together; stop wins.
			select {
			case <-stop:
				return
			default:
			}
			elapsed := s.compute()
			s.mu.Lock()
			s.elapsed = elapsed
			s.mu.Unlock()
			if s.cfg.onTick != nil {
				s.cfg.onTick(elapsed)
			}
		}
	}
}

// Stop halts ticking and releases the timer. Safe to call repeatedly.
func (s *Stopwatch) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
}

// FormatElapsed renders a duration as MM:SS, switching to HH:MM:SS once the
// elapsed time reaches one hour.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
