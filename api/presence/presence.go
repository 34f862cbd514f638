/* presence.go
 * Contains the online user tracker backed by the Redis set onlineUsers, with an in process fallback
 * Authors: Zachary Bower
 */

package presence

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

const keyOnlineUsers = "onlineUsers"

// Tracker records which users hold an open subscription connection
type Tracker interface {
	Connect(ctx context.Context, userID string) error
	Disconnect(ctx context.Context, userID string) error
	Online(ctx context.Context) ([]string, error)
}

// connCounter counts the open connections of each user in this process, so a user with two tabs stays online
// until both close
type connCounter struct {
	mu    sync.Mutex
	conns map[string]int
}

func (c *connCounter) inc(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conns == nil {
		c.conns = make(map[string]int)
	}
	c.conns[userID]++
	return c.conns[userID]
}

func (c *connCounter) dec(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.conns[userID] - 1
	if n <= 0 {
		delete(c.conns, userID)
		return 0
	}
	c.conns[userID] = n
	return n
}

type Redis struct {
	rdb *redis.Client
	connCounter
}

func NewRedis(rdb *redis.Client) *Redis { return &Redis{rdb: rdb} }

func (r *Redis) Connect(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	r.inc(userID)
	if err := r.rdb.SAdd(ctx, keyOnlineUsers, userID).Err(); err != nil {
		return fmt.Errorf("failed to mark %s online: %w", userID, err)
	}
	return nil
}

func (r *Redis) Disconnect(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" || r.dec(userID) > 0 {
		return nil
	}
	if err := r.rdb.SRem(ctx, keyOnlineUsers, userID).Err(); err != nil {
		return fmt.Errorf("failed to mark %s offline: %w", userID, err)
	}
	return nil
}

func (r *Redis) Online(ctx context.Context) ([]string, error) {
	users, err := r.rdb.SMembers(ctx, keyOnlineUsers).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read online users: %w", err)
	}
	sort.Strings(users)
	return users, nil
}

// Memory tracks presence for a single process when no Redis is configured
type Memory struct {
	connCounter
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Connect(_ context.Context, userID string) error {
	if strings.TrimSpace(userID) != "" {
		m.inc(userID)
	}
	return nil
}

func (m *Memory) Disconnect(_ context.Context, userID string) error {
	m.dec(userID)
	return nil
}

func (m *Memory) Online(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]string, 0, len(m.conns))
	for u := range m.conns {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}

var (
	_ Tracker = (*Redis)(nil)
	_ Tracker = (*Memory)(nil)
)
