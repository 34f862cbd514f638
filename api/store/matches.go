/* matches.go
 * Contains the methods for interacting with the teams and matches collections of custom leagues
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

// region Teams

// CreateTeams inserts teams, assigning ids to any team without one
func (s *Store) CreateTeams(ctx context.Context, teams []Team) error {
	if len(teams) == 0 {
		return nil
	}
	docs := make([]interface{}, len(teams))
	for i := range teams {
		if teams[i].ID.IsZero() {
			teams[i].ID = primitive.NewObjectID()
		}
		teams[i].Players = emptyIfNil(teams[i].Players)
		docs[i] = teams[i]
	}
	_, err := s.Collections.Teams.InsertMany(ctx, docs)
	return wrapWrite(err, "team insert")
}

func (s *Store) GetTeamsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Team, error) {
	if len(ids) == 0 {
		return []Team{}, nil
	}
	return s.findTeams(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *Store) ListTeamsByLeague(ctx context.Context, leagueID primitive.ObjectID) ([]Team, error) {
	return s.findTeams(ctx, bson.M{"league": leagueID})
}

func (s *Store) findTeams(ctx context.Context, filter bson.M) ([]Team, error) {
	cursor, err := s.Collections.Teams.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "team_name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer cursor.Close(ctx)

	out := []Team{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode teams: %w", err)
	}
	return out, nil
}

// RecordTeamResult counts a played match for the team, and a win plus points when won is true
func (s *Store) RecordTeamResult(ctx context.Context, teamID primitive.ObjectID, won bool, points int) error {
	inc := bson.M{"matches_played": 1}
	if won {
		inc["matches_won"] = 1
		inc["total_points"] = points
	}
	res, err := s.Collections.Teams.UpdateOne(ctx, bson.M{"_id": teamID}, bson.M{"$inc": inc})
	if err != nil {
		return fmt.Errorf("team result update failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// endregion

// region Matches

// CreateMatches inserts the matches of one round, assigning ids to any match without one
func (s *Store) CreateMatches(ctx context.Context, matches []Match) error {
	if len(matches) == 0 {
		return nil
	}
	now := s.clock()
	docs := make([]interface{}, len(matches))
	for i := range matches {
		if matches[i].ID.IsZero() {
			matches[i].ID = primitive.NewObjectID()
		}
		if matches[i].RoundWinners == nil {
			matches[i].RoundWinners = []RoundWinner{}
		}
		matches[i].CreatedAt = now
		docs[i] = matches[i]
	}
	_, err := s.Collections.Matches.InsertMany(ctx, docs)
	return wrapWrite(err, "match insert")
}

func (s *Store) GetMatch(ctx context.Context, id primitive.ObjectID) (*Match, error) {
	var m Match
	if err := s.Collections.Matches.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, wrapFind(err, "match")
	}
	return &m, nil
}

// ListMatchesByLeague returns every match of a league in round then position order
func (s *Store) ListMatchesByLeague(ctx context.Context, leagueID primitive.ObjectID) ([]Match, error) {
	return s.findMatches(ctx, bson.M{"league": leagueID})
}

func (s *Store) ListMatchesByRound(ctx context.Context, leagueID primitive.ObjectID, round int) ([]Match, error) {
	return s.findMatches(ctx, bson.M{"league": leagueID, "round": round})
}

func (s *Store) findMatches(ctx context.Context, filter bson.M) ([]Match, error) {
	opts := options.Find().SetSort(bson.D{{Key: "round", Value: 1}, {Key: "position", Value: 1}})
	cursor, err := s.Collections.Matches.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer cursor.Close(ctx)

	out := []Match{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode matches: %w", err)
	}
	return out, nil
}

// RecordMatchWinner decides a match, only if it is still undecided
// Postconditions: Returns ErrConflict when another report already decided the match
func (s *Store) RecordMatchWinner(ctx context.Context, matchID, winner, loser primitive.ObjectID) error {
	now := s.clock()
	filter := bson.M{"_id": matchID, "winner_team": nil}
	update := bson.M{"$set": bson.M{"winner_team": winner, "loser_team": loser, "decided_at": now}}

	res, err := s.Collections.Matches.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("match result update failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("match already decided: %w", ErrConflict)
	}
	return nil
}

// AppendGameWinner records one game of a best of three, only if exactly gamesPlayed games were recorded before and
// the match is undecided
// Postconditions: Returns ErrConflict when a concurrent report got there first
func (s *Store) AppendGameWinner(ctx context.Context, matchID primitive.ObjectID, gamesPlayed int, game RoundWinner) error {
	filter := bson.M{
		"_id":           matchID,
		"winner_team":   nil,
		"round_winners": bson.M{"$size": gamesPlayed},
	}
	update := bson.M{"$push": bson.M{"round_winners": game}}

	res, err := s.Collections.Matches.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("game result update failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("game already recorded: %w", ErrConflict)
	}
	return nil
}

// endregion
