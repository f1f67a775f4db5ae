package util

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/do4u-project/do4u/pkg/client"
	"github.com/do4u-project/do4u/pkg/config"
	"github.com/do4u-project/do4u/pkg/models"
	"github.com/do4u-project/do4u/pkg/pubsub"
	"github.com/do4u-project/do4u/pkg/session"
)

// GetAPIClient builds the configured API client backed by the file session
// store. The returned client broadcasts an unauthorized signal on any 401; the
// CLI only logs it, since clearing the token already happened inside the
// client.
func GetAPIClient(ctx context.Context) (*client.Client, *session.Store, error) {
	store, err := session.NewStore(config.DataDir())
	if err != nil {
		return nil, nil, err
	}

	c, err := client.New(config.APIURL(), store)
	if err != nil {
		return nil, nil, err
	}

	err = c.OnUnauthorized(ctx, pubsub.SubscriberFunc[client.UnauthorizedEvent](
		func(ctx context.Context, event client.UnauthorizedEvent) error {
			log.Warn().Str("path", event.Path).Msg("session expired; token cleared")
			return nil
		}))
	if err != nil {
		return nil, nil, err
	}

	return c, store, nil
}

// GetViewer resolves the configured viewer identity.
func GetViewer() models.Viewer {
	return config.Viewer()
}
