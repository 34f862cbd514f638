/* leagues.go
 * Contains the methods for interacting with the leagues and custom_leagues collections
 * Authors: Zachary Bower
 */

package store

import (
	"context"
	"fmt"

	"gamehub/api/shared"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// region Ranked leagues

// SeedLeagues upserts the ranked tiers by name
// Preconditions: Receives the tiers to create
// Postconditions: Every tier exists once. Existing tiers keep their ids
func (s *Store) SeedLeagues(ctx context.Context, leagues []League) error {
	models := make([]mongo.WriteModel, 0, len(leagues))
	for _, l := range leagues {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"name": l.Name}).
			SetUpdate(bson.M{"$set": bson.M{"min_points": l.MinPoints, "image": l.Image}}).
			SetUpsert(true))
	}
	if len(models) == 0 {
		return nil
	}
	if _, err := s.Collections.Leagues.BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("league seed failed: %w", err)
	}
	return nil
}

func (s *Store) GetLeague(ctx context.Context, id primitive.ObjectID) (*League, error) {
	var l League
	if err := s.Collections.Leagues.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		return nil, wrapFind(err, "league")
	}
	return &l, nil
}

func (s *Store) GetLeagueByName(ctx context.Context, name string) (*League, error) {
	var l League
	if err := s.Collections.Leagues.FindOne(ctx, bson.M{"name": name}).Decode(&l); err != nil {
		return nil, wrapFind(err, "league")
	}
	return &l, nil
}

func (s *Store) ListLeagues(ctx context.Context) ([]League, error) {
	cursor, err := s.Collections.Leagues.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "min_points", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query leagues: %w", err)
	}
	defer cursor.Close(ctx)

	out := []League{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode leagues: %w", err)
	}
	return out, nil
}

// endregion

// region Custom leagues

func (s *Store) CreateCustomLeague(ctx context.Context, l *CustomLeague) error {
	now := s.clock()
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	l.CreatedAt, l.UpdatedAt = now, now
	l.RegisteredPlayers = emptyIfNil(l.RegisteredPlayers)
	l.Spectators = emptyIfNil(l.Spectators)
	l.Teams = emptyIfNil(l.Teams)
	l.Matches = emptyIfNil(l.Matches)
	l.Ranking = emptyIfNil(l.Ranking)
	_, err := s.Collections.CustomLeagues.InsertOne(ctx, l)
	return wrapWrite(err, "custom league insert")
}

func (s *Store) GetCustomLeague(ctx context.Context, id primitive.ObjectID) (*CustomLeague, error) {
	var l CustomLeague
	if err := s.Collections.CustomLeagues.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		return nil, wrapFind(err, "custom league")
	}
	return &l, nil
}

// ListCustomLeagues returns the leagues with the given status, or every league when status is empty
func (s *Store) ListCustomLeagues(ctx context.Context, status shared.LeagueStatus) ([]CustomLeague, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	cursor, err := s.Collections.CustomLeagues.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query custom leagues: %w", err)
	}
	defer cursor.Close(ctx)

	out := []CustomLeague{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode custom leagues: %w", err)
	}
	return out, nil
}

// conditionalLeagueUpdate applies update only when filter still matches. ErrConflict otherwise
func (s *Store) conditionalLeagueUpdate(ctx context.Context, filter bson.M, update bson.M, what string) error {
	res, err := s.Collections.CustomLeagues.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("%s failed: %w", what, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", what, ErrConflict)
	}
	return nil
}

// AddLeaguePlayer registers player while the league is coming, the player is not registered and a seat is free
// Postconditions: Returns ErrConflict when any of those conditions no longer hold
func (s *Store) AddLeaguePlayer(ctx context.Context, leagueID, player primitive.ObjectID, maxSeats int) error {
	filter := bson.M{
		"_id":                leagueID,
		"status":             shared.LeagueComing,
		"registered_players": bson.M{"$ne": player},
		fmt.Sprintf("registered_players.%d", maxSeats-1): bson.M{"$exists": false},
	}
	update := bson.M{
		"$push": bson.M{"registered_players": player},
		"$set":  bson.M{"updated_at": s.clock()},
	}
	return s.conditionalLeagueUpdate(ctx, filter, update, "league join")
}

// RemoveLeaguePlayer unregisters player while the league is still coming
func (s *Store) RemoveLeaguePlayer(ctx context.Context, leagueID, player primitive.ObjectID) error {
	filter := bson.M{"_id": leagueID, "status": shared.LeagueComing, "registered_players": player}
	update := bson.M{
		"$pull": bson.M{"registered_players": player},
		"$set":  bson.M{"updated_at": s.clock()},
	}
	return s.conditionalLeagueUpdate(ctx, filter, update, "league leave")
}

// AddLeagueSpectator adds user as a spectator unless they are already one, or are registered to play
func (s *Store) AddLeagueSpectator(ctx context.Context, leagueID, user primitive.ObjectID) error {
	filter := bson.M{
		"_id":                leagueID,
		"spectators":         bson.M{"$ne": user},
		"registered_players": bson.M{"$ne": user},
	}
	update := bson.M{"$push": bson.M{"spectators": user}}
	return s.conditionalLeagueUpdate(ctx, filter, update, "add spectator")
}

// StartLeague moves a coming league to active with its first round
func (s *Store) StartLeague(ctx context.Context, leagueID primitive.ObjectID, teams, matches []primitive.ObjectID) error {
	now := s.clock()
	filter := bson.M{"_id": leagueID, "status": shared.LeagueComing}
	update := bson.M{"$set": bson.M{
		"status":        shared.LeagueActive,
		"teams":         teams,
		"matches":       matches,
		"current_round": 1,
		"start_date":    now,
		"updated_at":    now,
	}}
	return s.conditionalLeagueUpdate(ctx, filter, update, "league start")
}

// AdvanceLeagueRound is a compare-and-set on current_round. Exactly one caller moving from fromRound succeeds
// Postconditions: Returns ErrConflict to every caller that lost the race
func (s *Store) AdvanceLeagueRound(ctx context.Context, leagueID primitive.ObjectID, fromRound int, matches []primitive.ObjectID) error {
	filter := bson.M{"_id": leagueID, "status": shared.LeagueActive, "current_round": fromRound}
	update := bson.M{
		"$set":  bson.M{"current_round": fromRound + 1, "updated_at": s.clock()},
		"$push": bson.M{"matches": bson.M{"$each": matches}},
	}
	return s.conditionalLeagueUpdate(ctx, filter, update, "league round advance")
}

// TouchCustomLeague bumps updated_at. Inside a transaction it makes concurrent transactions on the same league
// conflict, so only one of them commits and the others retry against its writes
func (s *Store) TouchCustomLeague(ctx context.Context, leagueID primitive.ObjectID) error {
	res, err := s.Collections.CustomLeagues.UpdateOne(ctx, bson.M{"_id": leagueID}, bson.M{"$set": bson.M{"updated_at": s.clock()}})
	if err != nil {
		return fmt.Errorf("league touch failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// EndLeague closes an active league with its final ranking
func (s *Store) EndLeague(ctx context.Context, leagueID primitive.ObjectID, ranking []primitive.ObjectID) error {
	now := s.clock()
	filter := bson.M{"_id": leagueID, "status": shared.LeagueActive}
	update := bson.M{"$set": bson.M{
		"status":     shared.LeagueEnded,
		"ranking":    ranking,
		"end_date":   now,
		"updated_at": now,
	}}
	return s.conditionalLeagueUpdate(ctx, filter, update, "league end")
}

// endregion
