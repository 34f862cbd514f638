/* presence_test.go
 * Contains unit tests for presence.go
 * Authors: Zachary Bower
 */

package presence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTracker(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedis(rdb), mr
}

// region Redis tests

func TestRedis_ConnectDisconnect(t *testing.T) {
	ctx := context.Background()
	tr, mr := newRedisTracker(t)

	require.NoError(t, tr.Connect(ctx, "u1"))
	require.NoError(t, tr.Connect(ctx, "u2"))

	online, err := tr.Online(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, online)

	members, err := mr.Members(keyOnlineUsers)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, members)

	require.NoError(t, tr.Disconnect(ctx, "u1"))
	online, err = tr.Online(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, online)
}

func TestRedis_SecondConnectionKeepsUserOnline(t *testing.T) {
	ctx := context.Background()
	tr, _ := newRedisTracker(t)

	require.NoError(t, tr.Connect(ctx, "u1"))
	require.NoError(t, tr.Connect(ctx, "u1"))
	require.NoError(t, tr.Disconnect(ctx, "u1"))

	online, err := tr.Online(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, online)

	require.NoError(t, tr.Disconnect(ctx, "u1"))
	online, err = tr.Online(ctx)
	require.NoError(t, err)
	assert.Empty(t, online)
}

func TestRedis_Unavailable(t *testing.T) {
	tr, mr := newRedisTracker(t)
	mr.Close()

	assert.Error(t, tr.Connect(context.Background(), "u1"))
	_, err := tr.Online(context.Background())
	assert.Error(t, err)
}

// endregion

func TestMemory(t *testing.T) {
	ctx := context.Background()
	tr := NewMemory()

	require.NoError(t, tr.Connect(ctx, "b"))
	require.NoError(t, tr.Connect(ctx, "a"))
	require.NoError(t, tr.Connect(ctx, ""))

	online, err := tr.Online(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, online)

	require.NoError(t, tr.Disconnect(ctx, "a"))
	online, _ = tr.Online(ctx)
	assert.Equal(t, []string{"b"}, online)
}
