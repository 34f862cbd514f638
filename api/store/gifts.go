/* gifts.go
 * Contains the methods for interacting with the gifts collection
 * Authors: Zachary Bower
 */

package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) CreateGift(ctx context.Context, gift *Gift) error {
	if gift.ID.IsZero() {
		gift.ID = primitive.NewObjectID()
	}
	gift.CreatedAt = s.clock()
	_, err := s.Collections.Gifts.InsertOne(ctx, gift)
	return wrapWrite(err, "gift insert")
}

func (s *Store) GetGift(ctx context.Context, id primitive.ObjectID) (*Gift, error) {
	var gift Gift
	if err := s.Collections.Gifts.FindOne(ctx, bson.M{"_id": id}).Decode(&gift); err != nil {
		return nil, wrapFind(err, "gift")
	}
	return &gift, nil
}

func (s *Store) ListGiftsBySender(ctx context.Context, sender primitive.ObjectID) ([]Gift, error) {
	return s.findGifts(ctx, bson.M{"sender": sender})
}

func (s *Store) ListGiftsByReceiver(ctx context.Context, receiver primitive.ObjectID) ([]Gift, error) {
	return s.findGifts(ctx, bson.M{"receivers": receiver})
}

func (s *Store) findGifts(ctx context.Context, filter bson.M) ([]Gift, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.Collections.Gifts.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query gifts: %w", err)
	}
	defer cursor.Close(ctx)

	gifts := []Gift{}
	if err := cursor.All(ctx, &gifts); err != nil {
		return nil, fmt.Errorf("failed to decode gifts: %w", err)
	}
	return gifts, nil
}
