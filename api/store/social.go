/* social.go
 * Contains the methods for interacting with the friend_requests collection
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

func (s *Store) CreateFriendRequest(ctx context.Context, req *FriendRequest) error {
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	req.CreatedAt = s.clock()
	_, err := s.Collections.FriendRequests.InsertOne(ctx, req)
	return wrapWrite(err, "friend request insert")
}

func (s *Store) GetFriendRequest(ctx context.Context, id primitive.ObjectID) (*FriendRequest, error) {
	var req FriendRequest
	if err := s.Collections.FriendRequests.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, wrapFind(err, "friend request")
	}
	return &req, nil
}

// FindPendingRequest returns the request sent from one user to another, or mongo.ErrNoDocuments
func (s *Store) FindPendingRequest(ctx context.Context, from, to primitive.ObjectID) (*FriendRequest, error) {
	var req FriendRequest
	if err := s.Collections.FriendRequests.FindOne(ctx, bson.M{"from": from, "to": to}).Decode(&req); err != nil {
		return nil, wrapFind(err, "friend request")
	}
	return &req, nil
}

// ListFriendRequestsTo returns the requests received by a user, newest first
func (s *Store) ListFriendRequestsTo(ctx context.Context, to primitive.ObjectID) ([]FriendRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.Collections.FriendRequests.Find(ctx, bson.M{"to": to}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query friend requests: %w", err)
	}
	defer cursor.Close(ctx)

	reqs := []FriendRequest{}
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, fmt.Errorf("failed to decode friend requests: %w", err)
	}
	return reqs, nil
}

func (s *Store) DeleteFriendRequest(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.Collections.FriendRequests.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("friend request delete failed: %w", err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteRequestsBetween removes pending requests in either direction between two users
func (s *Store) DeleteRequestsBetween(ctx context.Context, a, b primitive.ObjectID) error {
	filter := bson.M{"$or": bson.A{
		bson.M{"from": a, "to": b},
		bson.M{"from": b, "to": a},
	}}
	if _, err := s.Collections.FriendRequests.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("friend request cleanup failed: %w", err)
	}
	return nil
}
