/* catalog.go
 * Contains the methods for interacting with the achievements, medals and cup_types collections
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

// region Achievements

// CreateAchievement inserts an achievement. Returns ErrConflict when the name is taken
func (s *Store) CreateAchievement(ctx context.Context, a *Achievement) error {
	now := s.clock()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.CreatedAt, a.UpdatedAt = now, now
	_, err := s.Collections.Achievements.InsertOne(ctx, a)
	return wrapWrite(err, "achievement insert")
}

func (s *Store) GetAchievement(ctx context.Context, id primitive.ObjectID) (*Achievement, error) {
	return s.findAchievement(ctx, bson.M{"_id": id})
}

func (s *Store) GetAchievementByName(ctx context.Context, name string) (*Achievement, error) {
	return s.findAchievement(ctx, bson.M{"name": name})
}

func (s *Store) findAchievement(ctx context.Context, filter bson.M) (*Achievement, error) {
	var a Achievement
	if err := s.Collections.Achievements.FindOne(ctx, filter).Decode(&a); err != nil {
		return nil, wrapFind(err, "achievement")
	}
	return &a, nil
}

func (s *Store) ListAchievements(ctx context.Context) ([]Achievement, error) {
	return s.findAchievements(ctx, bson.M{})
}

func (s *Store) ListAchievementsByUser(ctx context.Context, user primitive.ObjectID) ([]Achievement, error) {
	return s.findAchievements(ctx, bson.M{"user_id": user})
}

func (s *Store) findAchievements(ctx context.Context, filter bson.M) ([]Achievement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.Collections.Achievements.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer cursor.Close(ctx)

	out := []Achievement{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode achievements: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateAchievement(ctx context.Context, id primitive.ObjectID, update AchievementUpdate) (*Achievement, error) {
	set := bson.M{"updated_at": s.clock()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Img != nil {
		set["img"] = *update.Img
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var a Achievement
	err := s.Collections.Achievements.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&a)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, wrapWrite(err, "achievement update")
		}
		return nil, wrapFind(err, "achievement")
	}
	return &a, nil
}

func (s *Store) DeleteAchievement(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.Collections.Achievements.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("achievement delete failed: %w", err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// endregion

// region Medals

func (s *Store) GetMedal(ctx context.Context, id primitive.ObjectID) (*Medal, error) {
	var m Medal
	if err := s.Collections.Medals.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, wrapFind(err, "medal")
	}
	return &m, nil
}

func (s *Store) ListMedals(ctx context.Context) ([]Medal, error) {
	cursor, err := s.Collections.Medals.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query medals: %w", err)
	}
	defer cursor.Close(ctx)

	out := []Medal{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode medals: %w", err)
	}
	return out, nil
}

// endregion

// region Cup types

func (s *Store) CreateCupType(ctx context.Context, c *CupType) error {
	now := s.clock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := s.Collections.CupTypes.InsertOne(ctx, c)
	return wrapWrite(err, "cup type insert")
}

func (s *Store) GetCupType(ctx context.Context, id primitive.ObjectID) (*CupType, error) {
	var c CupType
	if err := s.Collections.CupTypes.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, wrapFind(err, "cup type")
	}
	return &c, nil
}

func (s *Store) ListCupTypes(ctx context.Context) ([]CupType, error) {
	cursor, err := s.Collections.CupTypes.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "price", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query cup types: %w", err)
	}
	defer cursor.Close(ctx)

	out := []CupType{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode cup types: %w", err)
	}
	return out, nil
}

// UpdateCupType replaces the mutable fields of a cup type and returns the result
func (s *Store) UpdateCupType(ctx context.Context, c *CupType) (*CupType, error) {
	set := bson.M{"name": c.Name, "image": c.Image, "price": c.Price, "updated_at": s.clock()}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out CupType
	if err := s.Collections.CupTypes.FindOneAndUpdate(ctx, bson.M{"_id": c.ID}, bson.M{"$set": set}, opts).Decode(&out); err != nil {
		return nil, wrapFind(err, "cup type")
	}
	return &out, nil
}

func (s *Store) DeleteCupType(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.Collections.CupTypes.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cup type delete failed: %w", err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// endregion
