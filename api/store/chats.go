/* chats.go
 * Contains the methods for interacting with the chats and messages collections
 * Authors: Zachary Bower
 */

package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) CreateChat(ctx context.Context, chat *Chat) error {
	now := s.clock()
	if chat.ID.IsZero() {
		chat.ID = primitive.NewObjectID()
	}
	chat.CreatedAt, chat.UpdatedAt = now, now
	chat.Users = emptyIfNil(chat.Users)
	_, err := s.Collections.Chats.InsertOne(ctx, chat)
	return wrapWrite(err, "chat insert")
}

func (s *Store) GetChat(ctx context.Context, id primitive.ObjectID) (*Chat, error) {
	var chat Chat
	if err := s.Collections.Chats.FindOne(ctx, bson.M{"_id": id}).Decode(&chat); err != nil {
		return nil, wrapFind(err, "chat")
	}
	return &chat, nil
}

// FindDirectChat returns the existing two person chat between a and b, or mongo.ErrNoDocuments
func (s *Store) FindDirectChat(ctx context.Context, a, b primitive.ObjectID) (*Chat, error) {
	filter := bson.M{
		"is_group": false,
		"users":    bson.M{"$all": bson.A{a, b}, "$size": 2},
	}
	var chat Chat
	if err := s.Collections.Chats.FindOne(ctx, filter).Decode(&chat); err != nil {
		return nil, wrapFind(err, "chat")
	}
	return &chat, nil
}

// ListChatsForUser returns the chats user belongs to, most recently active first
func (s *Store) ListChatsForUser(ctx context.Context, user primitive.ObjectID) ([]Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := s.Collections.Chats.Find(ctx, bson.M{"users": user}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer cursor.Close(ctx)

	chats := []Chat{}
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, fmt.Errorf("failed to decode chats: %w", err)
	}
	return chats, nil
}

func (s *Store) AddChatMember(ctx context.Context, chatID, user primitive.ObjectID) error {
	res, err := s.Collections.Chats.UpdateOne(ctx, bson.M{"_id": chatID}, bson.M{
		"$addToSet": bson.M{"users": user},
		"$set":      bson.M{"is_group": true},
	})
	if err != nil {
		return fmt.Errorf("chat member update failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *Store) SetLatestMessage(ctx context.Context, chatID, messageID primitive.ObjectID) error {
	_, err := s.Collections.Chats.UpdateOne(ctx, bson.M{"_id": chatID}, bson.M{
		"$set": bson.M{"latest_message": messageID, "updated_at": s.clock()},
	})
	if err != nil {
		return fmt.Errorf("latest message update failed: %w", err)
	}
	return nil
}

// CreateMessage inserts a message. The sender is marked as having read it
func (s *Store) CreateMessage(ctx context.Context, msg *Message) error {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	msg.CreatedAt = s.clock()
	if len(msg.ReadBy) == 0 {
		msg.ReadBy = []primitive.ObjectID{msg.Sender}
	}
	_, err := s.Collections.Messages.InsertOne(ctx, msg)
	return wrapWrite(err, "message insert")
}

func (s *Store) GetMessage(ctx context.Context, id primitive.ObjectID) (*Message, error) {
	var msg Message
	if err := s.Collections.Messages.FindOne(ctx, bson.M{"_id": id}).Decode(&msg); err != nil {
		return nil, wrapFind(err, "message")
	}
	return &msg, nil
}

// ListMessages returns the messages of a chat in the order they were sent
func (s *Store) ListMessages(ctx context.Context, chatID primitive.ObjectID) ([]Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.Collections.Messages.Find(ctx, bson.M{"chat": chatID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer cursor.Close(ctx)

	msgs := []Message{}
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return msgs, nil
}

// MarkChatRead adds user to read_by on every message of the chat
func (s *Store) MarkChatRead(ctx context.Context, chatID, user primitive.ObjectID) error {
	_, err := s.Collections.Messages.UpdateMany(ctx, bson.M{"chat": chatID}, bson.M{"$addToSet": bson.M{"read_by": user}})
	if err != nil {
		return fmt.Errorf("mark chat read failed: %w", err)
	}
	return nil
}

func (s *Store) MarkMessageRead(ctx context.Context, messageID, user primitive.ObjectID) error {
	res, err := s.Collections.Messages.UpdateOne(ctx, bson.M{"_id": messageID}, bson.M{"$addToSet": bson.M{"read_by": user}})
	if err != nil {
		return fmt.Errorf("mark message read failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
