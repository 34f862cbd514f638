/* pubsub.go
 * Contains the Broker used to fan chat events out to subscription clients, with an in process implementation
 * and a Redis implementation for running several server instances
 * Authors: Zachary Bower
 */

package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Topics published by the chat service
const (
	TopicMessageReceived = "MESSAGE_RECEIVED"
	TopicTyping          = "TYPING"
	TopicStopTyping      = "STOP_TYPING"
)

// TopicMessageAdded is the chat scoped topic for new messages in one chat
func TopicMessageAdded(chatID string) string {
	return "MESSAGE_ADDED_" + chatID
}

// Broker publishes JSON payloads to topics and streams them to subscribers
type Broker interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
	// Subscribe streams raw payloads until ctx is cancelled, then closes the channel
	Subscribe(ctx context.Context, topic string) (<-chan []byte, error)
	Close() error
}

const subscriberBuffer = 32

// Memory is a Broker for a single process
type Memory struct {
	mu     sync.RWMutex
	subs   map[string]map[chan []byte]struct{}
	closed bool
}

func NewMemory() *Memory {
	return &Memory{subs: make(map[string]map[chan []byte]struct{})}
}

// Publish delivers payload to every current subscriber of topic. Slow subscribers miss messages rather than block
func (m *Memory) Publish(_ context.Context, topic string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", topic, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for ch := range m.subs[topic] {
		select {
		case ch <- raw:
		default:
		}
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	ch := make(chan []byte, subscriberBuffer)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, fmt.Errorf("broker closed")
	}
	if m.subs[topic] == nil {
		m.subs[topic] = make(map[chan []byte]struct{})
	}
	m.subs[topic][ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.remove(topic, ch)
	}()
	return ch, nil
}

func (m *Memory) remove(topic string, ch chan []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[topic][ch]; !ok {
		return
	}
	delete(m.subs[topic], ch)
	if len(m.subs[topic]) == 0 {
		delete(m.subs, topic)
	}
	close(ch)
}

// Close ends every subscription
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for topic, set := range m.subs {
		for ch := range set {
			close(ch)
		}
		delete(m.subs, topic)
	}
	m.closed = true
	return nil
}
