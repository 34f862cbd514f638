/* chat_test.go
 * Contains unit tests for chat.go
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"gamehub/api/pubsub"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func receive(t *testing.T, ch <-chan []byte, v interface{}) {
	t.Helper()
	select {
	case raw := <-ch:
		require.NoError(t, json.Unmarshal(raw, v))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for publish")
	}
}

// region CreateChat tests

func TestCreateChat_ReusesDirectChat(t *testing.T) {
	a, ms := newTestAPI(t)
	ada := seedUser(ms, "ada")
	bob := seedUser(ms, "bob")

	chat, err := a.CreateChat(as(ada), []string{bob.ID.Hex(), bob.ID.Hex(), ada.ID.Hex()}, "")
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{ada.ID, bob.ID}, chat.Users)
	assert.False(t, chat.IsGroup)

	again, err := a.CreateChat(as(bob), []string{ada.ID.Hex()}, "")
	require.NoError(t, err)
	assert.Equal(t, chat.ID, again.ID)
	assert.Len(t, ms.Chats, 1)
}

func TestCreateChat_Group(t *testing.T) {
	a, ms := newTestAPI(t)
	ada := seedUser(ms, "ada")
	bob := seedUser(ms, "bob")
	cat := seedUser(ms, "cat")

	chat, err := a.CreateChat(as(ada), []string{bob.ID.Hex(), cat.ID.Hex()}, " squad ")
	require.NoError(t, err)
	assert.True(t, chat.IsGroup)
	assert.Equal(t, "squad", chat.Name)
}

func TestCreateChat_Errors(t *testing.T) {
	a, ms := newTestAPI(t)
	ada := seedUser(ms, "ada")

	_, err := a.CreateChat(as(ada), []string{ada.ID.Hex()}, "")
	requireCode(t, err, http.StatusBadRequest)

	_, err = a.CreateChat(as(ada), []string{primitive.NewObjectID().Hex()}, "")
	requireCode(t, err, http.StatusNotFound)

	_, err = a.CreateChat(context.Background(), []string{ada.ID.Hex()}, "")
	requireCode(t, err, http.StatusUnauthorized)
}

// endregion

// region Message tests

func TestCreateNewMessage_PublishesAndOrders(t *testing.T) {
	a, ms := newTestAPI(t)
	ada := seedUser(ms, "ada")
	bob := seedUser(ms, "bob")
	chat, err := a.CreateChat(as(ada), []string{bob.ID.Hex()}, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	received, err := a.Broker.Subscribe(ctx, pubsub.TopicMessageReceived)
	require.NoError(t, err)
	added, err := a.Broker.Subscribe(ctx, pubsub.TopicMessageAdded(chat.ID.Hex()))
	require.NoError(t, err)

	first, err := a.CreateNewMessage(as(ada), chat.ID.Hex(), "  hi bob ")
	require.NoError(t, err)
	assert.Equal(t, "hi bob", first.Content)
	assert.Equal(t, []primitive.ObjectID{ada.ID}, first.ReadBy)

	var event MessageEvent
	receive(t, received, &event)
	assert.Equal(t, first.ID.Hex(), event.ID)
	assert.ElementsMatch(t, []string{ada.ID.Hex(), bob.ID.Hex()}, event.Recipients)
	receive(t, added, &event)
	assert.Equal(t, chat.ID.Hex(), event.ChatID)

	second, err := a.CreateNewMessage(as(bob), chat.ID.Hex(), "hey")
	require.NoError(t, err)
	assert.Equal(t, second.ID, *ms.Chats[chat.ID].LatestMessage)

	full, err := a.GetFullChat(as(ada), chat.ID.Hex())
	require.NoError(t, err)
	require.Len(t, full.Messages, 2)
	assert.Equal(t, first.ID, full.Messages[0].ID)
	assert.Equal(t, second.ID, full.Messages[1].ID)
}

func TestCreateNewMessage_Rejections(t *testing.T) {
	a, ms := newTestAPI(t)
	ada := seedUser(ms, "ada")
	bob := seedUser(ms, "bob")
	eve := seedUser(ms, "eve")
	chat, err := a.CreateChat(as(ada), []string{bob.ID.Hex()}, "")
	require.NoError(t, err)

	_, err = a.CreateNewMessage(as(ada), chat.ID.Hex(), "   ")
	requireCode(t, err, http.StatusBadRequest)

	_, err = a.CreateNewMessage(as(eve), chat.ID.Hex(), "let me in")
	requireCode(t, err, http.StatusForbidden)

	_, err = a.GetChat(as(eve), chat.ID.Hex())
	requireCode(t, err, http.StatusForbidden)

	_, err = a.GetFullChat(as(ada), primitive.NewObjectID().Hex())
	requireCode(t, err, http.StatusNotFound)
}

func TestMarkAsRead(t *testing.T) {
	a, ms := newTestAPI(t)
	ada := seedUser(ms, "ada")
	bob := seedUser(ms, "bob")
	chat, err := a.CreateChat(as(ada), []string{bob.ID.Hex()}, "")
	require.NoError(t, err)
	msg, err := a.CreateNewMessage(as(ada), chat.ID.Hex(), "hi")
	require.NoError(t, err)

	ok, err := a.MarkAsRead(as(bob), chat.ID.Hex())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.ElementsMatch(t, []primitive.ObjectID{ada.ID, bob.ID}, ms.Messages[msg.ID].ReadBy)
}

func TestGetChats_NewestFirst(t *testing.T) {
	a, ms := newTestAPI(t)
	ada := seedUser(ms, "ada")
	bob := seedUser(ms, "bob")
	cat := seedUser(ms, "cat")
	older, err := a.CreateChat(as(ada), []string{bob.ID.Hex()}, "")
	require.NoError(t, err)
	newer, err := a.CreateChat(as(ada), []string{cat.ID.Hex()}, "")
	require.NoError(t, err)
	ms.Chats[newer.ID].UpdatedAt = fixedNow.Add(time.Minute)

	chats, err := a.GetInbox(as(ada))
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, newer.ID, chats[0].ID)
	assert.Equal(t, older.ID, chats[1].ID)
}

// endregion

// region Typing tests

func TestTyping(t *testing.T) {
	a, ms := newTestAPI(t)
	ada := seedUser(ms, "ada")
	bob := seedUser(ms, "bob")
	chat, err := a.CreateChat(as(ada), []string{bob.ID.Hex()}, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	typing, err := a.Broker.Subscribe(ctx, pubsub.TopicTyping)
	require.NoError(t, err)
	stopped, err := a.Broker.Subscribe(ctx, pubsub.TopicStopTyping)
	require.NoError(t, err)

	ok, err := a.UserTyping(as(ada), chat.ID.Hex())
	require.NoError(t, err)
	assert.True(t, ok)
	var event TypingEvent
	receive(t, typing, &event)
	assert.Equal(t, ada.ID.Hex(), event.UserID)

	_, err = a.UserStoppedTyping(as(bob), chat.ID.Hex())
	require.NoError(t, err)
	receive(t, stopped, &event)
	assert.Equal(t, bob.ID.Hex(), event.UserID)

	assert.NoError(t, a.CanSubscribeToChat(as(bob), chat.ID.Hex()))
}

// endregion
