/* rankings.go
 * Contains the ranking jobs run by the scheduler and the leaderboard queries
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gamehub/api/apperr"
	"gamehub/api/logic"
	"gamehub/api/shared"
	"gamehub/api/store"
	"gamehub/obslog"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// RankedLeagues are the tiers written by SeedLeagues
var RankedLeagues = []store.League{
	{Name: shared.TierPlatinum, MinPoints: 5000},
	{Name: shared.TierGold, MinPoints: 2000},
	{Name: shared.TierSilver, MinPoints: 500},
	{Name: shared.TierBronze, MinPoints: 0},
}

// region Jobs

// SeedLeagues creates the ranked leagues. Running it again leaves one document per tier
func (a *API) SeedLeagues(ctx context.Context) error {
	if err := a.Store.SeedLeagues(ctx, RankedLeagues); err != nil {
		return fmt.Errorf("failed to seed leagues: %w", err)
	}
	return nil
}

// UpdateRankings recomputes the week, month and overall ranks of every user and their ranks within their league
func (a *API) UpdateRankings(ctx context.Context) error {
	users, err := a.Store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	if err := a.Store.SaveRanks(ctx, logic.ComputeRanks(users)); err != nil {
		return fmt.Errorf("failed to save ranks: %w", err)
	}
	a.emit(ctx, shared.EventRankingsUpdated, map[string]int{"users": len(users)})
	obslog.L().Info("rankings updated", zap.Int("users", len(users)))
	return nil
}

// WeeklyReset snapshots the week that just closed and zeroes weekly points
// Postconditions: One week Ranking per user exists for the previous week and every currentWeek is 0
func (a *API) WeeklyReset(ctx context.Context) error {
	users, err := a.Store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	start, end := logic.PreviousWeek(a.clock())
	if err := a.Store.InsertRankings(ctx, logic.Snapshots(users, shared.PeriodWeek, start, end, logic.WeekPoints)); err != nil {
		return fmt.Errorf("failed to write weekly snapshots: %w", err)
	}
	if err := a.Store.ResetWeeklyPoints(ctx); err != nil {
		return fmt.Errorf("failed to reset weekly points: %w", err)
	}
	obslog.L().Info("weekly reset complete", zap.Int("users", len(users)), zap.Time("week_start", start))
	return nil
}

// MonthlyReset snapshots the month that just closed, for game points and for each ranked league, then rolls
// currentMonth into lastMonth
func (a *API) MonthlyReset(ctx context.Context) error {
	users, err := a.Store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	start, end := logic.MonthBounds(a.clock(), -1)
	snaps := logic.Snapshots(users, shared.PeriodMonth, start, end, logic.MonthPoints)
	snaps = append(snaps, logic.LeagueSnapshots(users, start, end)...)
	if err := a.Store.InsertRankings(ctx, snaps); err != nil {
		return fmt.Errorf("failed to write monthly snapshots: %w", err)
	}
	if err := a.Store.ResetMonthlyPoints(ctx); err != nil {
		return fmt.Errorf("failed to reset monthly points: %w", err)
	}
	obslog.L().Info("monthly reset complete", zap.Int("users", len(users)), zap.Time("month_start", start))
	return nil
}

// endregion

// region Game stats

func (a *API) GetCurrentWeekGameStats(ctx context.Context) ([]GameStat, error) {
	return a.gameStats(ctx, logic.WeekPoints, 0)
}

func (a *API) GetCurrentMonthGameStats(ctx context.Context) ([]GameStat, error) {
	return a.gameStats(ctx, logic.MonthPoints, 0)
}

func (a *API) GetOverallGameStats(ctx context.Context) ([]GameStat, error) {
	return a.gameStats(ctx, logic.TotalPoints, 0)
}

func (a *API) GetTop3CurrentWeekPlayers(ctx context.Context) ([]GameStat, error) {
	return a.gameStats(ctx, logic.WeekPoints, 3)
}

func (a *API) GetTop3CurrentMonthPlayers(ctx context.Context) ([]GameStat, error) {
	return a.gameStats(ctx, logic.MonthPoints, 3)
}

func (a *API) GetTop3OverallPlayers(ctx context.Context) ([]GameStat, error) {
	return a.gameStats(ctx, logic.TotalPoints, 3)
}

// gameStats orders every user by the selected points with the same tie-break as the ranking job
func (a *API) gameStats(ctx context.Context, points func(u *store.User) int, limit int) ([]GameStat, error) {
	users, err := a.Store.ListUsers(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return rankUsers(users, points, limit), nil
}

func rankUsers(users []store.User, points func(u *store.User) int, limit int) []GameStat {
	byID := make(map[primitive.ObjectID]store.User, len(users))
	scored := make([]logic.Scored, 0, len(users))
	for i := range users {
		byID[users[i].ID] = users[i]
		scored = append(scored, logic.Scored{ID: users[i].ID, Username: users[i].Username, Points: points(&users[i])})
	}
	ordered := logic.Order(scored)
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}
	out := make([]GameStat, 0, len(ordered))
	for i, s := range ordered {
		out = append(out, GameStat{User: byID[s.ID], Points: s.Points, Rank: i + 1})
	}
	return out
}

// endregion

// region League standings

func (a *API) GetCurrentMonthLeagueRankings(ctx context.Context, leagueName string) ([]LeagueRanking, error) {
	return a.leagueStandings(ctx, leagueName, func(u *store.User) int { return u.League.CurrentMonthPoints })
}

func (a *API) GetLastMonthLeagueRankings(ctx context.Context, leagueName string) ([]LeagueRanking, error) {
	return a.leagueStandings(ctx, leagueName, func(u *store.User) int { return u.League.LastMonthPoints })
}

func (a *API) leagueStandings(ctx context.Context, leagueName string, points func(u *store.User) int) ([]LeagueRanking, error) {
	league, err := a.rankedLeague(ctx, leagueName)
	if err != nil {
		return nil, err
	}
	users, err := a.Store.ListUsers(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	members := make([]store.User, 0, len(users))
	for _, u := range users {
		if u.League != nil && u.League.ID == league.ID {
			members = append(members, u)
		}
	}
	stats := rankUsers(members, points, 0)
	out := make([]LeagueRanking, len(stats))
	for i, s := range stats {
		out[i] = LeagueRanking(s)
	}
	return out, nil
}

// GetRankedLeague resolves a user's ranked league reference
func (a *API) GetRankedLeague(ctx context.Context, id primitive.ObjectID) (*store.League, error) {
	league, err := a.Store.GetLeague(ctx, id)
	return league, storeErr(err, "League not found")
}

func (a *API) rankedLeague(ctx context.Context, name string) (*store.League, error) {
	league, err := a.Store.GetLeagueByName(ctx, strings.ToLower(strings.TrimSpace(name)))
	return league, storeErr(err, "League not found")
}

// endregion

// region Snapshots

// GetUserRanking aggregates the caller's snapshot points since the start of the week, month or year
// Preconditions: Receives week, month or year. A year sums month snapshots
// Postconditions: Returns the ordered list of every user with points in the period. Rank is nil when the caller has none
func (a *API) GetUserRanking(ctx context.Context, period string) (*UserRanking, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	p := shared.Period(strings.ToLower(strings.TrimSpace(period)))
	start, err := logic.StartOfPeriod(p, a.clock())
	if err != nil {
		return nil, apperr.BadRequest("Invalid period: must be one of week month year")
	}
	user, err := a.Store.GetUserByID(ctx, uid)
	if err != nil {
		return nil, storeErr(err, "User not found")
	}

	snapshotPeriod := p
	if p == shared.PeriodYear {
		snapshotPeriod = shared.PeriodMonth
	}
	rows, err := a.Store.AggregatePeriodPoints(ctx, snapshotPeriod, start)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	usernames, err := a.usernames(ctx, periodUsers(rows))
	if err != nil {
		return nil, err
	}

	scored := make([]logic.Scored, len(rows))
	for i, r := range rows {
		scored[i] = logic.Scored{ID: r.User, Username: usernames[r.User], Points: r.Points}
	}
	result := &UserRanking{UserID: uid.Hex(), CurrentPoints: user.Level.TotalGamePoints, Rankings: []RankingEntry{}}
	for i, s := range logic.Order(scored) {
		entry := RankingEntry{UserID: s.ID.Hex(), Username: s.Username, Points: s.Points, Position: i + 1}
		result.Rankings = append(result.Rankings, entry)
		if s.ID == uid {
			rank := entry.Position
			result.Rank = &rank
			result.PeriodPoints = s.Points
		}
	}

	if user.League != nil && !user.League.ID.IsZero() {
		league, err := a.Store.GetLeague(ctx, user.League.ID)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.Internal(err)
		}
		if league != nil {
			result.LeagueName = league.Name
		}
	}
	return result, nil
}

// LeagueRankings returns the standings of a ranked league. The current month is read live from the members'
// currentMonthPoints, the last month from the snapshots written by the monthly reset
func (a *API) LeagueRankings(ctx context.Context, leagueName, period string) ([]RankingEntry, error) {
	if _, _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "current":
		standings, err := a.GetCurrentMonthLeagueRankings(ctx, leagueName)
		if err != nil {
			return nil, err
		}
		out := make([]RankingEntry, len(standings))
		for i, s := range standings {
			out[i] = RankingEntry{UserID: s.User.ID.Hex(), Username: s.User.Username, Points: s.Points, Position: s.Rank}
		}
		return out, nil
	case "last":
		league, err := a.rankedLeague(ctx, leagueName)
		if err != nil {
			return nil, err
		}
		start, end := logic.MonthBounds(a.clock(), -1)
		return a.snapshotEntries(ctx, store.RankingFilter{Period: shared.PeriodMonth, League: &league.ID, From: start, To: end})
	default:
		return nil, apperr.BadRequest("Invalid period: must be current or last")
	}
}

// TopPlayers returns the three best week snapshots of last week
func (a *API) TopPlayers(ctx context.Context) ([]RankingEntry, error) {
	if _, _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	start, end := logic.PreviousWeek(a.clock())
	return a.snapshotEntries(ctx, store.RankingFilter{Period: shared.PeriodWeek, From: start, To: end, Limit: 3})
}

func (a *API) snapshotEntries(ctx context.Context, f store.RankingFilter) ([]RankingEntry, error) {
	snaps, err := a.Store.ListRankings(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	ids := make([]primitive.ObjectID, len(snaps))
	for i, s := range snaps {
		ids[i] = s.User
	}
	usernames, err := a.usernames(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]RankingEntry, len(snaps))
	for i, s := range snaps {
		out[i] = RankingEntry{UserID: s.User.Hex(), Username: usernames[s.User], Points: s.Points, Position: s.Position}
	}
	return out, nil
}

func (a *API) usernames(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	users, err := a.Store.GetUsersByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		out[u.ID] = u.Username
	}
	return out, nil
}

func periodUsers(rows []store.PeriodPoints) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, len(rows))
	for i, r := range rows {
		ids[i] = r.User
	}
	return ids
}

// endregion
