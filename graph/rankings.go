/* rankings.go
 * Contains the leaderboard resolvers
 * Authors: Zachary Bower
 */

package graph

import (
	"context"

	"gamehub/api/api"

	graphql "github.com/graph-gophers/graphql-go"
)

type gameStat struct {
	User   *userResolver
	Points int32
	Rank   int32
}

type rankingEntry struct {
	UserID   graphql.ID
	Username string
	Points   int32
	Position int32
}

type userRanking struct {
	UserID        graphql.ID
	CurrentPoints int32
	PeriodPoints  int32
	Rank          *int32
	Rankings      []*rankingEntry
	LeagueName    *string
}

func (r *Resolver) gameStats(stats []api.GameStat, err error) ([]*gameStat, error) {
	if err != nil {
		return nil, err
	}
	out := make([]*gameStat, len(stats))
	for i := range stats {
		out[i] = &gameStat{User: r.user(&stats[i].User), Points: int32(stats[i].Points), Rank: int32(stats[i].Rank)}
	}
	return out, nil
}

func (r *Resolver) leagueStats(rankings []api.LeagueRanking, err error) ([]*gameStat, error) {
	if err != nil {
		return nil, err
	}
	stats := make([]api.GameStat, len(rankings))
	for i, l := range rankings {
		stats[i] = api.GameStat(l)
	}
	return r.gameStats(stats, nil)
}

func rankingEntries(entries []api.RankingEntry, err error) ([]*rankingEntry, error) {
	if err != nil {
		return nil, err
	}
	out := make([]*rankingEntry, len(entries))
	for i, e := range entries {
		out[i] = &rankingEntry{UserID: graphql.ID(e.UserID), Username: e.Username, Points: int32(e.Points), Position: int32(e.Position)}
	}
	return out, nil
}

func (r *Resolver) GetCurrentWeekGameStats(ctx context.Context) ([]*gameStat, error) {
	return r.gameStats(r.api.GetCurrentWeekGameStats(ctx))
}

func (r *Resolver) GetCurrentMonthGameStats(ctx context.Context) ([]*gameStat, error) {
	return r.gameStats(r.api.GetCurrentMonthGameStats(ctx))
}

func (r *Resolver) GetOverallGameStats(ctx context.Context) ([]*gameStat, error) {
	return r.gameStats(r.api.GetOverallGameStats(ctx))
}

func (r *Resolver) GetTop3CurrentWeekPlayers(ctx context.Context) ([]*gameStat, error) {
	return r.gameStats(r.api.GetTop3CurrentWeekPlayers(ctx))
}

func (r *Resolver) GetTop3CurrentMonthPlayers(ctx context.Context) ([]*gameStat, error) {
	return r.gameStats(r.api.GetTop3CurrentMonthPlayers(ctx))
}

func (r *Resolver) GetTop3OverallPlayers(ctx context.Context) ([]*gameStat, error) {
	return r.gameStats(r.api.GetTop3OverallPlayers(ctx))
}

func (r *Resolver) GetCurrentMonthLeagueRankings(ctx context.Context, args struct{ LeagueName string }) ([]*gameStat, error) {
	return r.leagueStats(r.api.GetCurrentMonthLeagueRankings(ctx, args.LeagueName))
}

func (r *Resolver) GetLastMonthLeagueRankings(ctx context.Context, args struct{ LeagueName string }) ([]*gameStat, error) {
	return r.leagueStats(r.api.GetLastMonthLeagueRankings(ctx, args.LeagueName))
}

func (r *Resolver) GetUserRanking(ctx context.Context, args struct{ Period string }) (*userRanking, error) {
	ranking, err := r.api.GetUserRanking(ctx, args.Period)
	if err != nil {
		return nil, err
	}
	entries, _ := rankingEntries(ranking.Rankings, nil)
	out := &userRanking{
		UserID:        graphql.ID(ranking.UserID),
		CurrentPoints: int32(ranking.CurrentPoints),
		PeriodPoints:  int32(ranking.PeriodPoints),
		Rankings:      entries,
		LeagueName:    optString(ranking.LeagueName),
	}
	if ranking.Rank != nil {
		rank := int32(*ranking.Rank)
		out.Rank = &rank
	}
	return out, nil
}

func (r *Resolver) LeagueRankings(ctx context.Context, args struct{ LeagueName, Period string }) ([]*rankingEntry, error) {
	return rankingEntries(r.api.LeagueRankings(ctx, args.LeagueName, args.Period))
}

func (r *Resolver) TopPlayers(ctx context.Context) ([]*rankingEntry, error) {
	return rankingEntries(r.api.TopPlayers(ctx))
}
