/* main_test.go
 * Contains unit tests for the start up helpers in utils.go
 * Authors: Zachary Bower
 */

package main

import (
	"context"
	"testing"
	"time"

	"gamehub/api/api"
	"gamehub/api/auth"
	"gamehub/api/events"
	"gamehub/api/presence"
	"gamehub/api/pubsub"
	"gamehub/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applied(t *testing.T, options []api.Option) *api.API {
	t.Helper()
	a, err := api.NewAPI(api.NewMockStore(), auth.NewTokens("secret", time.Hour), options...)
	require.NoError(t, err)
	return a
}

// region connectRedis tests

func TestConnectRedis_Empty(t *testing.T) {
	rdb, err := connectRedis(context.Background(), "  ")
	assert.NoError(t, err)
	assert.Nil(t, rdb)
}

func TestConnectRedis_Success(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := connectRedis(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer rdb.Close()
	assert.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())
}

func TestConnectRedis_Errors(t *testing.T) {
	_, err := connectRedis(context.Background(), "http://not-redis")
	assert.ErrorContains(t, err, "invalid REDIS_URL")

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = connectRedis(context.Background(), "redis://"+addr)
	assert.ErrorContains(t, err, "failed to reach redis")
}

// endregion

// region collaborators tests

func TestCollaborators_Defaults(t *testing.T) {
	options, cleanup, err := collaborators(context.Background(), &config.Config{})
	require.NoError(t, err)
	defer cleanup()
	assert.Empty(t, options)

	a := applied(t, options)
	assert.IsType(t, &pubsub.Memory{}, a.Broker)
	assert.IsType(t, &presence.Memory{}, a.Presence)
	assert.IsType(t, events.Noop{}, a.Events)
}

func TestCollaborators_RedisAndNATS(t *testing.T) {
	mr := miniredis.RunT(t)
	ns := test.RunServer(&server.Options{Host: "127.0.0.1", Port: -1, NoLog: true, NoSigs: true})
	defer ns.Shutdown()

	options, cleanup, err := collaborators(context.Background(), &config.Config{
		RedisURL: "redis://" + mr.Addr(),
		NATSURL:  ns.ClientURL(),
	})
	require.NoError(t, err)
	defer cleanup()
	require.Len(t, options, 3)

	a := applied(t, options)
	assert.IsType(t, &pubsub.Redis{}, a.Broker)
	assert.IsType(t, &presence.Redis{}, a.Presence)
	assert.IsType(t, &events.NATS{}, a.Events)

	require.NoError(t, a.Presence.Connect(context.Background(), "user-1"))
	members, err := mr.Members("onlineUsers")
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, members)
}

func TestCollaborators_NATSUnavailable(t *testing.T) {
	_, cleanup, err := collaborators(context.Background(), &config.Config{NATSURL: "nats://127.0.0.1:1"})
	assert.Error(t, err)
	cleanup()
}

// endregion
