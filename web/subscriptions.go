/* subscriptions.go
 * Serves GraphQL subscriptions over WebSocket using the graphql-transport-ws protocol. A connection is authenticated
 * by connectionParams.Authorization and marks its user online until it closes
 * Authors: Zachary Bower
 */

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"gamehub/api/auth"
	"gamehub/metrics"
	"gamehub/obslog"

	"github.com/gorilla/websocket"
	graphql "github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"go.uber.org/zap"
)

const subprotocol = "graphql-transport-ws"

// Message types of graphql-transport-ws
const (
	msgConnectionInit = "connection_init"
	msgConnectionAck  = "connection_ack"
	msgPing           = "ping"
	msgPong           = "pong"
	msgSubscribe      = "subscribe"
	msgNext           = "next"
	msgError          = "error"
	msgComplete       = "complete"
)

// Close codes of graphql-transport-ws
const (
	closeInvalidMessage = 4400
	closeUnauthorized   = 4401
	closeInitTimeout    = 4408
	closeDuplicateID    = 4409
	closeTooManyInit    = 4429
)

const (
	initTimeout      = 10 * time.Second
	wsWriteTimeout   = 10 * time.Second
	presenceTimeout  = 5 * time.Second
	maxSocketMessage = 64 << 10
)

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type subscribePayload struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// wsConn is one subscription client
type wsConn struct {
	s    *Server
	conn *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once

	mu       sync.Mutex
	identity auth.Identity
	acked    bool
	ops      map[string]context.CancelFunc
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		Subprotocols: []string{subprotocol},
		CheckOrigin:  s.checkOrigin,
	}
}

// checkOrigin accepts the origins allowed by the CORS configuration
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.origins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// subscriptionHandler upgrades GET /graphql and runs the protocol until the client or the server goes away
func (s *Server) subscriptionHandler(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		writeGraphQLError(w, "GraphQL queries are served over POST, GET only accepts WebSocket subscriptions", http.StatusBadRequest)
		return
	}
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		obslog.L().Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &wsConn{s: s, conn: conn, ops: make(map[string]context.CancelFunc)}
	if conn.Subprotocol() != subprotocol {
		c.closeWith(websocket.CloseProtocolError, "Subprotocol not acceptable")
		return
	}
	c.run()
}

// run reads client messages until the connection closes, then cancels every running operation
func (c *wsConn) run() {
	ctx, cancel := context.WithCancel(c.s.sockets)
	defer c.cleanup(cancel)

	go func() {
		<-ctx.Done()
		if c.s.sockets.Err() != nil {
			c.closeWith(websocket.CloseGoingAway, "Server shutting down")
		}
	}()

	c.conn.SetReadLimit(maxSocketMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(initTimeout))
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if c.isAcked() {
				obslog.L().Debug("subscription connection closed", zap.Error(err))
			} else if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
				c.closeWith(closeInitTimeout, "Connection initialisation timeout")
			}
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
			c.closeWith(closeInvalidMessage, "Invalid message received")
			return
		}
		if !c.handle(ctx, msg) {
			return
		}
	}
}

// handle processes one message and reports whether the connection stays open
func (c *wsConn) handle(ctx context.Context, msg wsMessage) bool {
	switch msg.Type {
	case msgConnectionInit:
		return c.init(ctx, msg.Payload)
	case msgPing:
		c.write(wsMessage{Type: msgPong, Payload: msg.Payload})
	case msgPong:
	case msgSubscribe:
		return c.subscribe(ctx, msg)
	case msgComplete:
		c.mu.Lock()
		if stop, ok := c.ops[msg.ID]; ok {
			stop()
		}
		c.mu.Unlock()
	default:
		c.closeWith(closeInvalidMessage, "Invalid message received")
		return false
	}
	return true
}

func (c *wsConn) init(ctx context.Context, payload json.RawMessage) bool {
	if c.isAcked() {
		c.closeWith(closeTooManyInit, "Too many initialisation requests")
		return false
	}
	var params struct {
		Authorization string `json:"Authorization"`
	}
	if len(payload) > 0 && string(payload) != "null" {
		if err := json.Unmarshal(payload, &params); err != nil {
			c.closeWith(closeInvalidMessage, "Invalid connection params")
			return false
		}
	}
	if params.Authorization == "" {
		c.closeWith(closeUnauthorized, "You must be logged in")
		return false
	}
	id, err := c.s.api.Tokens.Parse(params.Authorization)
	if err != nil {
		c.closeWith(closeUnauthorized, "Invalid token")
		return false
	}

	c.mu.Lock()
	c.identity = id
	c.acked = true
	c.mu.Unlock()
	_ = c.conn.SetReadDeadline(time.Time{})

	if err := c.s.api.Presence.Connect(ctx, id.UserID); err != nil {
		obslog.L().Warn("failed to mark user online", zap.String("user", id.UserID), zap.Error(err))
	}
	c.write(wsMessage{Type: msgConnectionAck})
	return true
}

func (c *wsConn) subscribe(ctx context.Context, msg wsMessage) bool {
	if !c.isAcked() {
		c.closeWith(closeUnauthorized, "Unauthorized")
		return false
	}
	var payload subscribePayload
	if msg.ID == "" || json.Unmarshal(msg.Payload, &payload) != nil || payload.Query == "" {
		c.closeWith(closeInvalidMessage, "Invalid subscribe message")
		return false
	}

	c.mu.Lock()
	if _, exists := c.ops[msg.ID]; exists {
		c.mu.Unlock()
		c.closeWith(closeDuplicateID, "Subscriber for "+msg.ID+" already exists")
		return false
	}
	opCtx, stop := context.WithCancel(auth.WithIdentity(ctx, c.identity))
	c.ops[msg.ID] = stop
	c.mu.Unlock()

	metrics.Subscriptions.Inc()
	go c.stream(opCtx, msg.ID, payload)
	return true
}

// stream forwards the responses of one operation. A response with errors and no data before any result is sent as
// an error message, after which the protocol sends nothing more for that id
func (c *wsConn) stream(ctx context.Context, id string, p subscribePayload) {
	defer c.finish(id)

	responses, err := c.s.schema.Subscribe(ctx, p.Query, p.OperationName, p.Variables)
	if err != nil {
		c.writePayload(id, msgError, []*gqlerrors.QueryError{gqlerrors.Errorf("%s", err)})
		return
	}

	started, failed := false, false
	for v := range responses {
		resp, ok := v.(*graphql.Response)
		if !ok || failed {
			continue
		}
		if !started && resp.Data == nil && len(resp.Errors) > 0 {
			failed = true
			c.writePayload(id, msgError, resp.Errors)
			continue
		}
		started = true
		c.writePayload(id, msgNext, resp)
	}
	if !failed && ctx.Err() == nil {
		c.write(wsMessage{ID: id, Type: msgComplete})
	}
}

func (c *wsConn) finish(id string) {
	c.mu.Lock()
	if stop, ok := c.ops[id]; ok {
		stop()
		delete(c.ops, id)
	}
	c.mu.Unlock()
	metrics.Subscriptions.Dec()
}

func (c *wsConn) cleanup(cancel context.CancelFunc) {
	c.mu.Lock()
	for _, stop := range c.ops {
		stop()
	}
	acked, userID := c.acked, c.identity.UserID
	c.mu.Unlock()
	cancel()

	if acked {
		ctx, done := context.WithTimeout(context.Background(), presenceTimeout)
		defer done()
		if err := c.s.api.Presence.Disconnect(ctx, userID); err != nil {
			obslog.L().Warn("failed to mark user offline", zap.String("user", userID), zap.Error(err))
		}
	}
	_ = c.conn.Close()
}

func (c *wsConn) isAcked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acked
}

func (c *wsConn) writePayload(id, typ string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		obslog.L().Error("failed to encode subscription payload", zap.String("id", id), zap.Error(err))
		return
	}
	c.write(wsMessage{ID: id, Type: typ, Payload: raw})
}

func (c *wsConn) write(msg wsMessage) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := c.conn.WriteJSON(msg); err != nil {
		obslog.L().Debug("subscription write failed", zap.String("type", msg.Type), zap.Error(err))
	}
}

func (c *wsConn) closeWith(code int, reason string) {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(wsWriteTimeout))
		_ = c.conn.Close()
	})
}
