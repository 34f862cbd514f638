/* rankings.go
 * Contains the methods for interacting with the rankings collection
 * Authors: Zachary Bower
 */

package store

import (
	"context"
	"fmt"
	"time"

	"gamehub/api/shared"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertRankings stores a batch of period snapshots
func (s *Store) InsertRankings(ctx context.Context, rankings []Ranking) error {
	if len(rankings) == 0 {
		return nil
	}
	now := s.clock()
	docs := make([]interface{}, len(rankings))
	for i := range rankings {
		if rankings[i].ID.IsZero() {
			rankings[i].ID = primitive.NewObjectID()
		}
		rankings[i].CreatedAt = now
		docs[i] = rankings[i]
	}
	_, err := s.Collections.Rankings.InsertMany(ctx, docs)
	return wrapWrite(err, "ranking insert")
}

// AggregatePeriodPoints sums the points of each user across the game snapshots of a period that closed at or after from
// Postconditions: Rows are ordered by points descending, ties by user id
func (s *Store) AggregatePeriodPoints(ctx context.Context, period shared.Period, from time.Time) ([]PeriodPoints, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"period": period, "league": bson.M{"$exists": false}, "period_end": bson.M{"$gte": from}}}},
		{{Key: "$group", Value: bson.M{"_id": "$user", "points": bson.M{"$sum": "$points"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "points", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	cursor, err := s.Collections.Rankings.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate rankings: %w", err)
	}
	defer cursor.Close(ctx)

	out := []PeriodPoints{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode ranking aggregate: %w", err)
	}
	return out, nil
}

// ListRankings returns snapshots matching filter ordered by position
func (s *Store) ListRankings(ctx context.Context, f RankingFilter) ([]Ranking, error) {
	filter := bson.M{}
	if f.Period != "" {
		filter["period"] = f.Period
	}
	if f.League != nil {
		filter["league"] = *f.League
	} else {
		filter["league"] = bson.M{"$exists": false}
	}
	window := bson.M{}
	if !f.From.IsZero() {
		window["$gte"] = f.From
	}
	if !f.To.IsZero() {
		window["$lt"] = f.To
	}
	if len(window) > 0 {
		filter["period_start"] = window
	}

	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cursor, err := s.Collections.Rankings.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query rankings: %w", err)
	}
	defer cursor.Close(ctx)

	out := []Ranking{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode rankings: %w", err)
	}
	return out, nil
}
