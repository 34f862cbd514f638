/* redis.go
 * Contains the Redis pub/sub Broker
 * Authors: Zachary Bower
 */

package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"gamehub/obslog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "gamehub:"

type Redis struct{ rdb *redis.Client }

func NewRedis(rdb *redis.Client) *Redis { return &Redis{rdb: rdb} }

func (r *Redis) Publish(ctx context.Context, topic string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", topic, err)
	}
	if err := r.rdb.Publish(ctx, channelPrefix+topic, raw).Err(); err != nil {
		return fmt.Errorf("redis publish %s failed: %w", topic, err)
	}
	return nil
}

// Subscribe waits for the subscription to be confirmed so no message published after it returns is missed
func (r *Redis) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	sub := r.rdb.Subscribe(ctx, channelPrefix+topic)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe %s failed: %w", topic, err)
	}

	out := make(chan []byte, subscriberBuffer)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				default:
					obslog.L().Warn("dropping subscription message", zap.String("topic", topic))
				}
			}
		}
	}()
	return out, nil
}

func (r *Redis) Close() error { return nil }

var (
	_ Broker = (*Memory)(nil)
	_ Broker = (*Redis)(nil)
)
