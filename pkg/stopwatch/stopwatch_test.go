//go:build unit || !integration

package stopwatch_test

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/do4u-project/do4u/pkg/stopwatch"
)

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{5 * time.Second, "00:05"},
		{65 * time.Second, "01:05"},
		{59*time.Minute + 59*time.Second, "59:59"},
		{time.Hour, "01:00:00"},
		{3725 * time.Second, "01:02:05"},
		{-3 * time.Second, "00:00"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, stopwatch.FormatElapsed(tc.d))
	}
}

type StopwatchSuite struct {
	suite.Suite
}

func TestStopwatchSuite(t *testing.T) {
	suite.Run(t, new(StopwatchSuite))
}

func (s *StopwatchSuite) TestInitialElapsedFromStart() {
	mock := clock.NewMock()
	start := mock.Now().Add(-65 * time.Second)

	sw := stopwatch.New(start, stopwatch.WithClock(mock))
	s.Equal(65*time.Second, sw.Elapsed())
	s.Equal("01:05", stopwatch.FormatElapsed(sw.Elapsed()))
}

func (s *StopwatchSuite) TestTicksWhileRunning() {
	mock := clock.NewMock()
	start := mock.Now()

	var mu sync.Mutex
	var last time.Duration
	sw := stopwatch.New(start,
		stopwatch.WithClock(mock),
		stopwatch.WithTickCallback(func(elapsed time.Duration) {
			mu.Lock()
			last = elapsed
			mu.Unlock()
		}))
	sw.Start()
	defer sw.Stop()

	mock.Add(65 * time.Second)

	s.Require().Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return last == 65*time.Second
	}, time.Second, 5*time.Millisecond)
	s.Equal(65*time.Second, sw.Elapsed())
}

func (s *StopwatchSuite) TestStopHaltsTicks() {
	mock := clock.NewMock()
	sw := stopwatch.New(mock.Now(), stopwatch.WithClock(mock))
	sw.Start()

	mock.Add(3 * time.Second)
	s.Require().Eventually(func() bool {
		return sw.Elapsed() == 3*time.Second
	}, time.Second, 5*time.Millisecond)

	sw.Stop()
	mock.Add(10 * time.Second)
	s.Equal(3*time.Second, sw.Elapsed())

	// Stop is idempotent.
	sw.Stop()
}
