//go:build unit || !integration

package notifications_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/do4u-project/do4u/pkg/dedup"
	"github.com/do4u-project/do4u/pkg/models"
	"github.com/do4u-project/do4u/pkg/notifications"
)

type stubFetcher struct {
	mu    sync.Mutex
	calls int
	items []*models.Notification
	block chan struct{}
}

func (f *stubFetcher) Notifications(ctx context.Context, limit int, includeRead bool) ([]*models.Notification, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	items := f.items
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return items, nil
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memReads struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func newMemReads() *memReads {
	return &memReads{ids: make(map[string]struct{})}
}

func (m *memReads) ReadIDs() map[string]struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]struct{}, len(m.ids))
	for id := range m.ids {
		out[id] = struct{}{}
	}
	return out
}

func (m *memReads) MarkRead(ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.ids[id] = struct{}{}
	}
	return nil
}

type FeedSuite struct {
	suite.Suite
	fetcher *stubFetcher
	reads   *memReads
	feed    *notifications.Feed
}

func TestFeedSuite(t *testing.T) {
	suite.Run(t, new(FeedSuite))
}

func (s *FeedSuite) SetupTest() {
	s.fetcher = &stubFetcher{items: []*models.Notification{
		{ID: "n1", Message: "job accepted"},
		{ID: "n2", Message: "job started"},
		{ID: "n3", Message: "job completed"},
	}}
	s.reads = newMemReads()
	s.feed = notifications.NewFeed(s.fetcher, s.reads,
		dedup.NewGroup[[]*models.Notification](dedup.WithGraceDelay(0)))
}

func (s *FeedSuite) TestReadOverlay() {
	s.Require().NoError(s.reads.MarkRead("n2"))

	items, err := s.feed.Refresh(context.Background())
	s.Require().NoError(err)
	s.Require().Len(items, 3)

	s.False(items[0].IsRead)
	s.True(items[1].IsRead)
	s.Equal(2, notifications.UnreadCount(items))
}

func (s *FeedSuite) TestMarkAllRead() {
	items, err := s.feed.Refresh(context.Background())
	s.Require().NoError(err)
	s.Equal(3, notifications.UnreadCount(items))

	s.Require().NoError(s.feed.MarkAllRead(items))

	items, err = s.feed.Refresh(context.Background())
	s.Require().NoError(err)
	s.Zero(notifications.UnreadCount(items))
}

func (s *FeedSuite) TestConcurrentRefreshesCollapse() {
	release := make(chan struct{})
	s.fetcher.mu.Lock()
	s.fetcher.block = release
	s.fetcher.mu.Unlock()

	// Default grace window so a straggler arriving just after settlement
	// still joins the finished flight.
	feed := notifications.NewFeed(s.fetcher, s.reads,
		dedup.NewGroup[[]*models.Notification]())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := feed.Refresh(context.Background())
			s.NoError(err)
		}()
	}

	// Wait until the first caller holds the flight, then let everyone join it.
	s.Require().Eventually(func() bool {
		return s.fetcher.callCount() == 1
	}, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	s.Equal(1, s.fetcher.callCount())
}
