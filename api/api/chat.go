/* chat.go
 * Contains chats, messages, read receipts and the typing indicators published to subscribers
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"errors"
	"strings"

	"gamehub/api/apperr"
	"gamehub/api/pubsub"
	"gamehub/api/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateChat opens a chat between the caller and users. A two person chat is reused when one already exists
// Preconditions: Receives the ids of the other members
// Postconditions: Returns the chat, which always includes the caller and lists each member once
func (a *API) CreateChat(ctx context.Context, userIDs []string, name string) (*store.Chat, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	others, err := parseIDs(userIDs, "user id")
	if err != nil {
		return nil, err
	}
	members := uniqueIDs(append([]primitive.ObjectID{uid}, others...))
	if len(members) < 2 {
		return nil, apperr.BadRequest("A chat needs at least one other user")
	}

	found, err := a.Store.GetUsersByIDs(ctx, members)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(found) != len(members) {
		return nil, apperr.NotFound("User not found")
	}

	if len(members) == 2 {
		existing, err := a.Store.FindDirectChat(ctx, members[0], members[1])
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.Internal(err)
		}
	}

	chat := &store.Chat{Users: members, IsGroup: len(members) > 2, Name: strings.TrimSpace(name)}
	if err := a.Store.CreateChat(ctx, chat); err != nil {
		return nil, apperr.Internal(err)
	}
	return chat, nil
}

// GetChats returns the chats the caller belongs to, most recently active first
func (a *API) GetChats(ctx context.Context) ([]store.Chat, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	chats, err := a.Store.ListChatsForUser(ctx, uid)
	return chats, storeErr(err, "Chats not found")
}

// GetInbox is the caller's chat list. It is the same ordering as GetChats
func (a *API) GetInbox(ctx context.Context) ([]store.Chat, error) {
	return a.GetChats(ctx)
}

// memberChat loads a chat and checks the caller belongs to it
func (a *API) memberChat(ctx context.Context, uid primitive.ObjectID, chatID string) (*store.Chat, error) {
	cid, err := parseID(chatID, "chat id")
	if err != nil {
		return nil, err
	}
	chat, err := a.Store.GetChat(ctx, cid)
	if err != nil {
		return nil, storeErr(err, "Chat not found")
	}
	if !chat.HasMember(uid) {
		return nil, apperr.Forbidden("You are not a member of this chat")
	}
	return chat, nil
}

func (a *API) GetChat(ctx context.Context, chatID string) (*store.Chat, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return a.memberChat(ctx, uid, chatID)
}

// GetFullChat returns a chat and its messages in the order they were sent
func (a *API) GetFullChat(ctx context.Context, chatID string) (*FullChat, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	chat, err := a.memberChat(ctx, uid, chatID)
	if err != nil {
		return nil, err
	}
	msgs, err := a.Store.ListMessages(ctx, chat.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &FullChat{Chat: chat, Messages: msgs}, nil
}

// CreateNewMessage posts to a chat the caller belongs to and notifies subscribers
func (a *API) CreateNewMessage(ctx context.Context, chatID, content string) (*store.Message, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	chat, err := a.memberChat(ctx, uid, chatID)
	if err != nil {
		return nil, err
	}
	return a.postMessage(ctx, chat, uid, content, true)
}

// postMessage stores a message, moves the chat's latest message and publishes it. Direct messages also go to
// the messageReceived topic; league chat messages only go to the chat scoped topic
func (a *API) postMessage(ctx context.Context, chat *store.Chat, sender primitive.ObjectID, content string, direct bool) (*store.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.BadRequest("Message content cannot be empty")
	}

	msg := &store.Message{Sender: sender, Content: content, Chat: chat.ID}
	if err := a.Store.CreateMessage(ctx, msg); err != nil {
		return nil, apperr.Internal(err)
	}
	if err := a.Store.SetLatestMessage(ctx, chat.ID, msg.ID); err != nil {
		return nil, apperr.Internal(err)
	}

	event := MessageEvent{
		ID:         msg.ID.Hex(),
		ChatID:     chat.ID.Hex(),
		SenderID:   sender.Hex(),
		Content:    msg.Content,
		CreatedAt:  msg.CreatedAt,
		Recipients: hexIDs(chat.Users),
	}
	if direct {
		a.broadcast(ctx, pubsub.TopicMessageReceived, event)
	}
	a.broadcast(ctx, pubsub.TopicMessageAdded(event.ChatID), event)
	return msg, nil
}

// MarkAsRead marks every message of a chat as read by the caller
func (a *API) MarkAsRead(ctx context.Context, chatID string) (bool, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return false, err
	}
	chat, err := a.memberChat(ctx, uid, chatID)
	if err != nil {
		return false, err
	}
	if err := a.Store.MarkChatRead(ctx, chat.ID, uid); err != nil {
		return false, apperr.Internal(err)
	}
	return true, nil
}

// UserTyping publishes a typing indicator to the other members of the chat
func (a *API) UserTyping(ctx context.Context, chatID string) (bool, error) {
	return a.typing(ctx, chatID, pubsub.TopicTyping)
}

func (a *API) UserStoppedTyping(ctx context.Context, chatID string) (bool, error) {
	return a.typing(ctx, chatID, pubsub.TopicStopTyping)
}

func (a *API) typing(ctx context.Context, chatID, topic string) (bool, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return false, err
	}
	chat, err := a.memberChat(ctx, uid, chatID)
	if err != nil {
		return false, err
	}
	a.broadcast(ctx, topic, TypingEvent{ChatID: chat.ID.Hex(), UserID: uid.Hex(), Recipients: hexIDs(chat.Users)})
	return true, nil
}

// GetMessage resolves a message reference, such as a chat's latest message
func (a *API) GetMessage(ctx context.Context, id primitive.ObjectID) (*store.Message, error) {
	msg, err := a.Store.GetMessage(ctx, id)
	return msg, storeErr(err, "Message not found")
}

// CanSubscribeToChat reports whether the caller may receive messageAdded events for a chat
func (a *API) CanSubscribeToChat(ctx context.Context, chatID string) error {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return err
	}
	_, err = a.memberChat(ctx, uid, chatID)
	return err
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}
