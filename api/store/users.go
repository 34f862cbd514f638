/* users.go
 * Contains the methods for interacting with the users collection
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

func emptyIfNil(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return []primitive.ObjectID{}
	}
	return ids
}

// CreateUser inserts a new user, assigning its id and timestamps
// Preconditions: Receives a user with a hashed password
// Postconditions: user.ID is set. Returns ErrConflict when the email or username is taken
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	now := s.clock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt, user.UpdatedAt = now, now
	user.Medals = emptyIfNil(user.Medals)
	user.Friends = emptyIfNil(user.Friends)
	user.LikesGiven = emptyIfNil(user.LikesGiven)
	user.LikesReceived = emptyIfNil(user.LikesReceived)
	user.GiftsGiven = emptyIfNil(user.GiftsGiven)
	user.GiftsReceived = emptyIfNil(user.GiftsReceived)
	user.Blocked = emptyIfNil(user.Blocked)
	user.Achievements = emptyIfNil(user.Achievements)

	_, err := s.Collections.Users.InsertOne(ctx, user)
	return wrapWrite(err, "user insert")
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*User, error) {
	var user User
	if err := s.Collections.Users.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, wrapFind(err, "user")
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

// GetUsersByIDs returns the users whose ids are in ids. Missing ids are skipped
func (s *Store) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]User, error) {
	if len(ids) == 0 {
		return []User{}, nil
	}
	return s.findUsers(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

// ListUsers returns every user ordered by username
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	return s.findUsers(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
}

func (s *Store) findUsers(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]User, error) {
	cursor, err := s.Collections.Users.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// UpdateUser applies the non-nil fields of update and returns the updated user
func (s *Store) UpdateUser(ctx context.Context, id primitive.ObjectID, update UserUpdate) (*User, error) {
	set := bson.M{"updated_at": s.clock()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	if update.Bio != nil {
		set["bio"] = *update.Bio
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}
	if update.Password != nil {
		set["password"] = *update.Password
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user User
	err := s.Collections.Users.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, wrapWrite(err, "user update")
		}
		return nil, wrapFind(err, "user")
	}
	return &user, nil
}

// DeleteUser removes the user document. Returns mongo.ErrNoDocuments when nothing was deleted
func (s *Store) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.Collections.Users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("user delete failed: %w", err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetUserImage sets the profile image and returns the image it replaced, empty when there was none
func (s *Store) SetUserImage(ctx context.Context, id primitive.ObjectID, image string) (string, error) {
	var before struct {
		Image string `bson:"image"`
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before).SetProjection(bson.M{"image": 1})
	update := bson.M{"$set": bson.M{"image": image, "updated_at": s.clock()}}
	if err := s.Collections.Users.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&before); err != nil {
		return "", wrapFind(err, "user")
	}
	return before.Image, nil
}

// AddToSet adds ids to the relation array named by field without creating duplicates
func (s *Store) AddToSet(ctx context.Context, userID primitive.ObjectID, field string, ids ...primitive.ObjectID) error {
	update := bson.M{"$addToSet": bson.M{field: bson.M{"$each": ids}}}
	return s.updateUser(ctx, bson.M{"_id": userID}, update)
}

// PullFromSet removes ids from the relation array named by field
func (s *Store) PullFromSet(ctx context.Context, userID primitive.ObjectID, field string, ids ...primitive.ObjectID) error {
	update := bson.M{"$pull": bson.M{field: bson.M{"$in": ids}}}
	return s.updateUser(ctx, bson.M{"_id": userID}, update)
}

func (s *Store) updateUser(ctx context.Context, filter bson.M, update bson.M) error {
	res, err := s.Collections.Users.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("user update failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AwardPoints adds points to the weekly, monthly and lifetime totals of every user in ids, and to the
// monthly points of their ranked league when they have one
// Preconditions: Receives the users to credit and a non-negative number of points
// Postconditions: Both updates applied, or an error if either fails
func (s *Store) AwardPoints(ctx context.Context, ids []primitive.ObjectID, points int) error {
	if len(ids) == 0 || points == 0 {
		return nil
	}
	_, err := s.Collections.Users.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{
		"$inc": bson.M{
			"game_points.current_week":  points,
			"game_points.current_month": points,
			"level.total_game_points":   points,
		},
		"$set": bson.M{"updated_at": s.clock()},
	})
	if err != nil {
		return fmt.Errorf("failed to award game points: %w", err)
	}

	_, err = s.Collections.Users.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "league.id": bson.M{"$exists": true}},
		bson.M{"$inc": bson.M{"league.current_month_points": points}},
	)
	if err != nil {
		return fmt.Errorf("failed to award league points: %w", err)
	}
	return nil
}

func (s *Store) SetUserLevel(ctx context.Context, id primitive.ObjectID, name string, num int) error {
	return s.updateUser(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"level.name": name, "level.num": num}})
}

// DebitDiamonds removes amount diamonds from the user only if the balance covers it
// Postconditions: Returns ErrConflict when the balance is insufficient or the user is missing
func (s *Store) DebitDiamonds(ctx context.Context, id primitive.ObjectID, amount int) error {
	res, err := s.Collections.Users.UpdateOne(ctx,
		bson.M{"_id": id, "diamond": bson.M{"$gte": amount}},
		bson.M{"$inc": bson.M{"diamond": -amount}},
	)
	if err != nil {
		return fmt.Errorf("diamond debit failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

func (s *Store) CreditDiamonds(ctx context.Context, ids []primitive.ObjectID, amount int) error {
	_, err := s.Collections.Users.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{"$inc": bson.M{"diamond": amount}})
	if err != nil {
		return fmt.Errorf("diamond credit failed: %w", err)
	}
	return nil
}

// SaveRanks writes the computed ranks of every user in a single bulk write
func (s *Store) SaveRanks(ctx context.Context, updates []RankUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		set := bson.M{
			"game_rankings.week_rank":  u.WeekRank,
			"game_rankings.month_rank": u.MonthRank,
			"game_rankings.total_rank": u.TotalRank,
		}
		if u.HasLeagueRanking {
			set["league.current_month_rank"] = u.LeagueMonthRank
			set["league.last_month_rank"] = u.LeagueLastMonth
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.User}).
			SetUpdate(bson.M{"$set": set}))
	}

	_, err := s.Collections.Users.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("rank bulk write failed: %w", err)
	}
	return nil
}

// ResetWeeklyPoints zeroes the weekly points of every user
func (s *Store) ResetWeeklyPoints(ctx context.Context) error {
	_, err := s.Collections.Users.UpdateMany(ctx, bson.M{}, bson.M{"$set": bson.M{"game_points.current_week": 0}})
	if err != nil {
		return fmt.Errorf("weekly reset failed: %w", err)
	}
	return nil
}

// ResetMonthlyPoints moves the current month into last month and zeroes the current month, for game points and
// ranked league points
func (s *Store) ResetMonthlyPoints(ctx context.Context) error {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"game_points.last_month":    "$game_points.current_month",
			"game_points.current_month": 0,
		}}},
	}
	if _, err := s.Collections.Users.UpdateMany(ctx, bson.M{}, pipeline); err != nil {
		return fmt.Errorf("monthly game point reset failed: %w", err)
	}

	leaguePipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"league.last_month_points":    "$league.current_month_points",
			"league.current_month_points": 0,
		}}},
	}
	if _, err := s.Collections.Users.UpdateMany(ctx, bson.M{"league.id": bson.M{"$exists": true}}, leaguePipeline); err != nil {
		return fmt.Errorf("monthly league point reset failed: %w", err)
	}
	return nil
}
