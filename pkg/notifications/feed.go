// Package notifications merges the backend's activity feed with the locally
// persisted read-id set. The backend does not track per-user read state; the
// client owns it.
package notifications

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/do4u-project/do4u/pkg/dedup"
	"github.com/do4u-project/do4u/pkg/models"
)

const DefaultLimit = 20

// Fetcher pulls the raw feed. Satisfied by client.Client.
type Fetcher interface {
	Notifications(ctx context.Context, limit int, includeRead bool) ([]*models.Notification, error)
}

// ReadStore persists which notification ids the viewer has read. Satisfied by
// session.Store.
type ReadStore interface {
	ReadIDs() map[string]struct{}
	MarkRead(ids ...string) error
}

// Feed is the viewer's notification list with read state applied.
type Feed struct {
	fetcher Fetcher
	reads   ReadStore
	group   *dedup.Group[[]*models.Notification]
	limit   int
}

func NewFeed(fetcher Fetcher, reads ReadStore, group *dedup.Group[[]*models.Notification]) *Feed {
	return &Feed{
		fetcher: fetcher,
		reads:   reads,
		group:   group,
		limit:   DefaultLimit,
	}
}

// Refresh fetches the feed and overlays the local read set. Concurrent
// refreshes from sibling widgets collapse onto one request.
func (f *Feed) Refresh(ctx context.Context) ([]*models.Notification, error) {
	items, err := f.group.Do(ctx, "/api/v1/notifications/", func(ctx context.Context) ([]*models.Notification, error) {
		return f.fetcher.Notifications(ctx, f.limit, true)
	})
	if err != nil {
		return nil, errors.Wrap(err, "refreshing notifications")
	}

	read := f.reads.ReadIDs()
	out := make([]*models.Notification, len(items))
	for i, item := range items {
		n := *item
		if _, ok := read[n.ID]; ok {
			n.IsRead = true
		}
		out[i] = &n
	}
	return out, nil
}

// UnreadCount returns how many of items are unread.
func UnreadCount(items []*models.Notification) int {
	return lo.CountBy(items, func(n *models.Notification) bool {
		return !n.IsRead
	})
}

// MarkAllRead persists every id in items as read.
func (f *Feed) MarkAllRead(items []*models.Notification) error {
	ids := lo.Map(items, func(n *models.Notification, _ int) string {
		return n.ID
	})
	if len(ids) == 0 {
		return nil
	}
	if err := f.reads.MarkRead(ids...); err != nil {
		return errors.Wrap(err, "persisting read ids")
	}
	log.Debug().Int("count", len(ids)).Msg("notifications marked read")
	return nil
}
