/* utils.go
 * Builds the optional collaborators of the API from configuration: Redis backed presence and subscription fan out,
 * and the NATS event publisher
 * Authors: Zachary Bower
 */

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gamehub/api/api"
	"gamehub/api/events"
	"gamehub/api/presence"
	"gamehub/api/pubsub"
	"gamehub/config"
	"gamehub/obslog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// connectRedis parses a redis:// URL and checks the server answers
// Preconditions: Receives a Redis URL, which may be empty
// Postconditions: Returns nil without error when the URL is empty, otherwise a connected client or an error
func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return rdb, nil
}

// collaborators returns the API options for the services named in cfg. Anything not configured keeps the in process
// default. The returned cleanup closes every connection that was opened
func collaborators(ctx context.Context, cfg *config.Config) ([]api.Option, func(), error) {
	var (
		options []api.Option
		closers []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	rdb, err := connectRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, cleanup, err
	}
	if rdb != nil {
		options = append(options, api.WithPresence(presence.NewRedis(rdb)), api.WithBroker(pubsub.NewRedis(rdb)))
		closers = append(closers, func() {
			if err := rdb.Close(); err != nil {
				obslog.L().Warn("failed to close redis client", zap.Error(err))
			}
		})
		obslog.L().Info("using redis for presence and subscriptions")
	}

	if url := strings.TrimSpace(cfg.NATSURL); url != "" {
		publisher, err := events.NewNATS(url)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		options = append(options, api.WithEvents(publisher))
		closers = append(closers, publisher.Close)
		obslog.L().Info("publishing domain events to nats")
	}
	return options, cleanup, nil
}
