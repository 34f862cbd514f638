/* subscriptions_test.go
 * Contains tests which drive the graphql-transport-ws protocol over a real WebSocket connection
 * Authors: Zachary Bower
 */

package web

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gamehub/api/auth"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialSubscriptions(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	dialer := websocket.Dialer{Subprotocols: []string{subprotocol}, HandshakeTimeout: 2 * time.Second}
	conn, resp, err := dialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/graphql", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, subprotocol, conn.Subprotocol())
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func receive(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func expectClose(t *testing.T, conn *websocket.Conn, code int) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, code, closeErr.Code)
}

func initConn(t *testing.T, conn *websocket.Conn, token string) {
	t.Helper()
	send(t, conn, map[string]interface{}{
		"type":    msgConnectionInit,
		"payload": map[string]string{"Authorization": "Bearer " + token},
	})
	assert.Equal(t, msgConnectionAck, receive(t, conn).Type)
}

func online(t *testing.T, s *Server) []string {
	users, err := s.api.Presence.Online(context.Background())
	require.NoError(t, err)
	return users
}

// region Connection tests

func TestSubscriptions_InitMarksUserOnline(t *testing.T) {
	s, a, ms := newTestServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()
	ada, token := seedUser(t, a, ms, "ada")

	conn := dialSubscriptions(t, srv)
	initConn(t, conn, token)
	assert.Equal(t, []string{ada.ID.Hex()}, online(t, s))

	send(t, conn, map[string]interface{}{"type": msgPing, "payload": map[string]string{"n": "1"}})
	pong := receive(t, conn)
	assert.Equal(t, msgPong, pong.Type)
	assert.JSONEq(t, `{"n":"1"}`, string(pong.Payload))

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return len(online(t, s)) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSubscriptions_RejectsBadInit(t *testing.T) {
	s, _, _ := newTestServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	conn := dialSubscriptions(t, srv)
	send(t, conn, map[string]interface{}{"type": msgConnectionInit})
	expectClose(t, conn, closeUnauthorized)

	conn = dialSubscriptions(t, srv)
	send(t, conn, map[string]interface{}{"type": msgConnectionInit, "payload": map[string]string{"Authorization": "Bearer nope"}})
	expectClose(t, conn, closeUnauthorized)

	conn = dialSubscriptions(t, srv)
	send(t, conn, map[string]interface{}{"id": "1", "type": msgSubscribe, "payload": map[string]string{"query": "subscription { typing { chatId } }"}})
	expectClose(t, conn, closeUnauthorized)

	conn = dialSubscriptions(t, srv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	expectClose(t, conn, closeInvalidMessage)

	assert.Empty(t, online(t, s))
}

func TestSubscriptions_DuplicateInit(t *testing.T) {
	s, a, ms := newTestServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()
	_, token := seedUser(t, a, ms, "ada")

	conn := dialSubscriptions(t, srv)
	initConn(t, conn, token)
	send(t, conn, map[string]interface{}{"type": msgConnectionInit, "payload": map[string]string{"Authorization": token}})
	expectClose(t, conn, closeTooManyInit)
}

// endregion

// region Operation tests

func TestSubscriptions_MessageAdded(t *testing.T) {
	s, a, ms := newTestServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()
	ada, _ := seedUser(t, a, ms, "ada")
	bob, bobToken := seedUser(t, a, ms, "bob")
	adaCtx := auth.WithIdentity(context.Background(), auth.Identity{UserID: ada.ID.Hex()})
	chat, err := a.CreateChat(adaCtx, []string{bob.ID.Hex()}, "")
	require.NoError(t, err)

	conn := dialSubscriptions(t, srv)
	initConn(t, conn, bobToken)
	send(t, conn, map[string]interface{}{
		"id":   "sub-1",
		"type": msgSubscribe,
		"payload": map[string]interface{}{
			"query":     `subscription($id: ID!) { messageAdded(chatId: $id) { content senderId } }`,
			"variables": map[string]string{"id": chat.ID.Hex()},
		},
	})

	// keep publishing until the subscription has registered with the broker
	received := make(chan wsMessage, 1)
	go func() {
		var msg wsMessage
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		if conn.ReadJSON(&msg) == nil {
			received <- msg
		}
		close(received)
	}()
	var msg wsMessage
	require.Eventually(t, func() bool {
		_, err := a.CreateNewMessage(adaCtx, chat.ID.Hex(), "hello")
		if err != nil {
			return false
		}
		select {
		case msg = <-received:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, "sub-1", msg.ID)
	assert.Equal(t, msgNext, msg.Type)
	var payload struct {
		Data struct {
			MessageAdded struct {
				Content  string
				SenderID string
			}
		}
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "hello", payload.Data.MessageAdded.Content)
	assert.Equal(t, ada.ID.Hex(), payload.Data.MessageAdded.SenderID)

	send(t, conn, map[string]interface{}{"id": "sub-1", "type": msgComplete})
}

func TestSubscriptions_ErrorMessage(t *testing.T) {
	s, a, ms := newTestServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()
	ada, _ := seedUser(t, a, ms, "ada")
	bob, _ := seedUser(t, a, ms, "bob")
	_, eveToken := seedUser(t, a, ms, "eve")
	chat, err := a.CreateChat(auth.WithIdentity(context.Background(), auth.Identity{UserID: ada.ID.Hex()}), []string{bob.ID.Hex()}, "")
	require.NoError(t, err)

	conn := dialSubscriptions(t, srv)
	initConn(t, conn, eveToken)

	send(t, conn, map[string]interface{}{"id": "bad", "type": msgSubscribe, "payload": map[string]string{"query": "subscription { nope }"}})
	msg := receive(t, conn)
	assert.Equal(t, "bad", msg.ID)
	assert.Equal(t, msgError, msg.Type)

	send(t, conn, map[string]interface{}{
		"id":   "forbidden",
		"type": msgSubscribe,
		"payload": map[string]interface{}{
			"query":     `subscription($id: ID!) { messageAdded(chatId: $id) { content } }`,
			"variables": map[string]string{"id": chat.ID.Hex()},
		},
	})
	msg = receive(t, conn)
	assert.Equal(t, "forbidden", msg.ID)
	assert.Equal(t, msgError, msg.Type)
	var errs []struct {
		Extensions map[string]interface{} `json:"extensions"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &errs))
	require.Len(t, errs, 1)
	assert.EqualValues(t, 403, errs[0].Extensions["code"])
}

func TestSubscriptions_QueryOverSocket(t *testing.T) {
	s, a, ms := newTestServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()
	_, token := seedUser(t, a, ms, "ada")

	conn := dialSubscriptions(t, srv)
	initConn(t, conn, token)
	send(t, conn, map[string]interface{}{"id": "q", "type": msgSubscribe, "payload": map[string]string{"query": "{ me { username } }"}})

	next := receive(t, conn)
	assert.Equal(t, msgNext, next.Type)
	assert.JSONEq(t, `{"data":{"me":{"username":"ada"}}}`, string(next.Payload))
	done := receive(t, conn)
	assert.Equal(t, "q", done.ID)
	assert.Equal(t, msgComplete, done.Type)
}

// endregion
