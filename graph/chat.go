/* chat.go
 * Contains the chat resolvers and the chat subscriptions, which stream broker payloads to the members of a chat
 * Authors: Zachary Bower
 */

package graph

import (
	"context"
	"encoding/json"

	"gamehub/api/api"
	"gamehub/api/pubsub"
	"gamehub/api/store"
	"gamehub/obslog"

	graphql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"
)

// region Types

type chatResolver struct {
	r *Resolver
	c store.Chat
}

func (r *Resolver) chatList(chats []store.Chat) []*chatResolver {
	out := make([]*chatResolver, len(chats))
	for i := range chats {
		out[i] = &chatResolver{r: r, c: chats[i]}
	}
	return out
}

func (c *chatResolver) ID() graphql.ID { return gqlID(c.c.ID) }
func (c *chatResolver) Name() *string { return optString(c.c.Name) }
func (c *chatResolver) IsGroup() bool { return c.c.IsGroup }

func (c *chatResolver) Users(ctx context.Context) ([]*userResolver, error) {
	return c.r.usersByIDs(ctx, c.c.Users)
}

func (c *chatResolver) LatestMessage(ctx context.Context) (*messageResolver, error) {
	if c.c.LatestMessage == nil {
		return nil, nil
	}
	msg, err := c.r.api.GetMessage(ctx, *c.c.LatestMessage)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &messageResolver{r: c.r, m: *msg}, nil
}

func (c *chatResolver) CreatedAt() graphql.Time { return gqlTime(c.c.CreatedAt) }
func (c *chatResolver) UpdatedAt() graphql.Time { return gqlTime(c.c.UpdatedAt) }

type messageResolver struct {
	r *Resolver
	m store.Message
}

func (r *Resolver) message(m *store.Message) *messageResolver {
	return &messageResolver{r: r, m: *m}
}

func (m *messageResolver) ID() graphql.ID { return gqlID(m.m.ID) }
func (m *messageResolver) ChatID() graphql.ID { return gqlID(m.m.Chat) }

func (m *messageResolver) Sender(ctx context.Context) (*userResolver, error) {
	return m.r.userByID(ctx, m.m.Sender)
}

func (m *messageResolver) Content() string { return m.m.Content }
func (m *messageResolver) ReadBy() []graphql.ID { return gqlIDs(m.m.ReadBy) }
func (m *messageResolver) CreatedAt() graphql.Time { return gqlTime(m.m.CreatedAt) }

type fullChat struct {
	Chat     *chatResolver
	Messages []*messageResolver
}

type messageEvent struct {
	ID        graphql.ID
	ChatID    graphql.ID
	SenderID  graphql.ID
	Content   string
	CreatedAt graphql.Time
}

type typingEvent struct {
	ChatID graphql.ID
	UserID graphql.ID
}

// endregion

// region Queries

func (r *Resolver) GetChats(ctx context.Context) ([]*chatResolver, error) {
	chats, err := r.api.GetChats(ctx)
	if err != nil {
		return nil, err
	}
	return r.chatList(chats), nil
}

func (r *Resolver) GetInbox(ctx context.Context) ([]*chatResolver, error) {
	chats, err := r.api.GetInbox(ctx)
	if err != nil {
		return nil, err
	}
	return r.chatList(chats), nil
}

func (r *Resolver) GetChat(ctx context.Context, args struct{ ChatID graphql.ID }) (*chatResolver, error) {
	chat, err := r.api.GetChat(ctx, string(args.ChatID))
	if err != nil {
		return nil, err
	}
	return &chatResolver{r: r, c: *chat}, nil
}

func (r *Resolver) GetFullChat(ctx context.Context, args struct{ ChatID graphql.ID }) (*fullChat, error) {
	full, err := r.api.GetFullChat(ctx, string(args.ChatID))
	if err != nil {
		return nil, err
	}
	out := &fullChat{Chat: &chatResolver{r: r, c: *full.Chat}, Messages: make([]*messageResolver, len(full.Messages))}
	for i := range full.Messages {
		out.Messages[i] = r.message(&full.Messages[i])
	}
	return out, nil
}

// endregion

// region Mutations

type createChatArgs struct {
	Input struct {
		Users []graphql.ID
		Name  *string
	}
}

func (r *Resolver) CreateChat(ctx context.Context, args createChatArgs) (*chatResolver, error) {
	chat, err := r.api.CreateChat(ctx, ids(args.Input.Users), str(args.Input.Name))
	if err != nil {
		return nil, err
	}
	return &chatResolver{r: r, c: *chat}, nil
}

type createMessageArgs struct {
	Input struct {
		ChatID  graphql.ID
		Content string
	}
}

func (r *Resolver) CreateNewMessage(ctx context.Context, args createMessageArgs) (*messageResolver, error) {
	msg, err := r.api.CreateNewMessage(ctx, string(args.Input.ChatID), args.Input.Content)
	if err != nil {
		return nil, err
	}
	return r.message(msg), nil
}

func (r *Resolver) MarkAsRead(ctx context.Context, args struct{ ChatID graphql.ID }) (bool, error) {
	return r.api.MarkAsRead(ctx, string(args.ChatID))
}

func (r *Resolver) UserTyping(ctx context.Context, args struct{ ChatID graphql.ID }) (bool, error) {
	return r.api.UserTyping(ctx, string(args.ChatID))
}

func (r *Resolver) UserStoppedTyping(ctx context.Context, args struct{ ChatID graphql.ID }) (bool, error) {
	return r.api.UserStoppedTyping(ctx, string(args.ChatID))
}

// endregion

// region Subscriptions

// MessageReceived streams new direct chat messages addressed to the caller
func (r *Resolver) MessageReceived(ctx context.Context) (<-chan *messageEvent, error) {
	id, err := subscriber(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := r.api.Broker.Subscribe(ctx, pubsub.TopicMessageReceived)
	if err != nil {
		return nil, err
	}
	return forward(ctx, raw, func(ev api.MessageEvent) (*messageEvent, bool) {
		if ev.SenderID == id.UserID || !contains(ev.Recipients, id.UserID) {
			return nil, false
		}
		return toMessageEvent(ev), true
	}), nil
}

func (r *Resolver) Typing(ctx context.Context) (<-chan *typingEvent, error) {
	return r.typingStream(ctx, pubsub.TopicTyping)
}

func (r *Resolver) StopTyping(ctx context.Context) (<-chan *typingEvent, error) {
	return r.typingStream(ctx, pubsub.TopicStopTyping)
}

func (r *Resolver) typingStream(ctx context.Context, topic string) (<-chan *typingEvent, error) {
	id, err := subscriber(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := r.api.Broker.Subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}
	return forward(ctx, raw, func(ev api.TypingEvent) (*typingEvent, bool) {
		if ev.UserID == id.UserID || !contains(ev.Recipients, id.UserID) {
			return nil, false
		}
		return &typingEvent{ChatID: graphql.ID(ev.ChatID), UserID: graphql.ID(ev.UserID)}, true
	}), nil
}

// MessageAdded streams every new message of one chat, including the caller's own, to its members
func (r *Resolver) MessageAdded(ctx context.Context, args struct{ ChatID graphql.ID }) (<-chan *messageEvent, error) {
	if err := r.api.CanSubscribeToChat(ctx, string(args.ChatID)); err != nil {
		return nil, err
	}
	raw, err := r.api.Broker.Subscribe(ctx, pubsub.TopicMessageAdded(string(args.ChatID)))
	if err != nil {
		return nil, err
	}
	return forward(ctx, raw, func(ev api.MessageEvent) (*messageEvent, bool) {
		return toMessageEvent(ev), true
	}), nil
}

func toMessageEvent(ev api.MessageEvent) *messageEvent {
	return &messageEvent{
		ID:        graphql.ID(ev.ID),
		ChatID:    graphql.ID(ev.ChatID),
		SenderID:  graphql.ID(ev.SenderID),
		Content:   ev.Content,
		CreatedAt: gqlTime(ev.CreatedAt),
	}
}

// forward decodes broker payloads into E and sends the converted values that pass the filter until in closes
func forward[E any, T any](ctx context.Context, in <-chan []byte, convert func(E) (T, bool)) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for raw := range in {
			var ev E
			if err := json.Unmarshal(raw, &ev); err != nil {
				obslog.L().Warn("dropping undecodable subscription payload", zap.Error(err))
				continue
			}
			v, ok := convert(ev)
			if !ok {
				continue
			}
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// endregion
