/* events.go
 * Contains the domain event publisher. Events are JSON encoded and published to NATS under the gamehub subject prefix
 * Authors: Zachary Bower
 */

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gamehub/obslog"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const SubjectPrefix = "gamehub."

// Envelope wraps every published event
type Envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       interface{} `json:"data"`
}

// Publisher emits domain events. Publishing is best effort and never fails the operation that caused it
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
	Close()
}

type NATS struct {
	conn *nats.Conn
	now  func() time.Time
}

// NewNATS connects to the NATS server at url
// Preconditions: Receives a NATS URL such as nats://localhost:4222
// Postconditions: Returns a connected publisher, or an error if the first connection attempt fails
func NewNATS(url string) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("gamehub"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				obslog.L().Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			obslog.L().Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &NATS{conn: conn, now: time.Now}, nil
}

func (n *NATS) Publish(_ context.Context, eventType string, data interface{}) error {
	raw, err := json.Marshal(Envelope{Type: eventType, OccurredAt: n.now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}
	if err := n.conn.Publish(SubjectPrefix+eventType, raw); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

// Close flushes pending events and closes the connection
func (n *NATS) Close() {
	if err := n.conn.Flush(); err != nil {
		obslog.L().Warn("nats flush failed", zap.Error(err))
	}
	n.conn.Close()
}

// Noop discards events. Used when no NATS URL is configured
type Noop struct{}

func (Noop) Publish(context.Context, string, interface{}) error { return nil }
func (Noop) Close()                                             {}

var (
	_ Publisher = (*NATS)(nil)
	_ Publisher = Noop{}
)
