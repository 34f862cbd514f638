/* indexes.go
 * Contains EnsureIndexes which creates the indexes every collection relies on
 * Authors: Zachary Bower
 */

package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique and lookup indexes. Safe to call on every start up
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	specs := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{s.Collections.Users, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "league.id", Value: 1}}},
		}},
		{s.Collections.Achievements, []mongo.IndexModel{
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		}},
		{s.Collections.Medals, []mongo.IndexModel{
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		}},
		{s.Collections.Leagues, []mongo.IndexModel{
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		}},
		{s.Collections.FriendRequests, []mongo.IndexModel{
			{Keys: bson.D{{Key: "from", Value: 1}, {Key: "to", Value: 1}}, Options: unique},
		}},
		{s.Collections.Messages, []mongo.IndexModel{
			{Keys: bson.D{{Key: "chat", Value: 1}, {Key: "created_at", Value: 1}}},
		}},
		{s.Collections.Matches, []mongo.IndexModel{
			{Keys: bson.D{{Key: "league", Value: 1}, {Key: "round", Value: 1}, {Key: "position", Value: 1}}},
		}},
		{s.Collections.Rankings, []mongo.IndexModel{
			{Keys: bson.D{{Key: "period", Value: 1}, {Key: "period_start", Value: 1}, {Key: "league", Value: 1}, {Key: "position", Value: 1}}},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "period", Value: 1}}},
		}},
	}

	for _, spec := range specs {
		if _, err := spec.coll.Indexes().CreateMany(ctx, spec.models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", spec.coll.Name(), err)
		}
	}
	return nil
}
