/* leagues.go
 * Contains the custom league, team and match resolvers
 * Authors: Zachary Bower
 */

package graph

import (
	"context"

	"gamehub/api/api"
	"gamehub/api/store"

	graphql "github.com/graph-gophers/graphql-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// region Types

type customLeagueResolver struct {
	r *Resolver
	l store.CustomLeague
}

func (r *Resolver) league(l *store.CustomLeague, err error) (*customLeagueResolver, error) {
	if err != nil {
		return nil, err
	}
	return &customLeagueResolver{r: r, l: *l}, nil
}

func (c *customLeagueResolver) ID() graphql.ID { return gqlID(c.l.ID) }
func (c *customLeagueResolver) Name() string { return c.l.Name }

func (c *customLeagueResolver) CreatedBy(ctx context.Context) (*userResolver, error) {
	return c.r.userByID(ctx, c.l.CreatedBy)
}

func (c *customLeagueResolver) CreatedByAdmin() bool { return c.l.CreatedByAdmin }
func (c *customLeagueResolver) IsPrivate() bool { return c.l.IsPrivate }
func (c *customLeagueResolver) MaxSeats() int32 { return int32(c.l.MaxSeats) }
func (c *customLeagueResolver) PointsForWin() int32 { return int32(c.l.PointsForWin) }

func (c *customLeagueResolver) PointsForTopThree() []int32 {
	out := make([]int32, len(c.l.PointsForTopThree))
	for i, p := range c.l.PointsForTopThree {
		out[i] = int32(p)
	}
	return out
}

func (c *customLeagueResolver) PlaySpeed() *string { return optString(c.l.PlaySpeed) }
func (c *customLeagueResolver) PlayType() *string { return optString(c.l.PlayType) }
func (c *customLeagueResolver) LevelName() *string { return optString(c.l.LevelName) }
func (c *customLeagueResolver) RoomBackground() *string { return optString(c.l.RoomBackground) }
func (c *customLeagueResolver) Status() string { return string(c.l.Status) }

func (c *customLeagueResolver) RegisteredPlayers(ctx context.Context) ([]*userResolver, error) {
	return c.r.usersByIDs(ctx, c.l.RegisteredPlayers)
}

func (c *customLeagueResolver) Spectators(ctx context.Context) ([]*userResolver, error) {
	return c.r.usersByIDs(ctx, c.l.Spectators)
}

func (c *customLeagueResolver) Teams(ctx context.Context) ([]*teamResolver, error) {
	return c.r.teamsByIDs(ctx, c.l.Teams)
}

func (c *customLeagueResolver) Matches(ctx context.Context) ([]*matchResolver, error) {
	if len(c.l.Matches) == 0 {
		return []*matchResolver{}, nil
	}
	matches, err := c.r.api.GetLeagueMatches(ctx, c.l.ID.Hex())
	if err != nil {
		return nil, err
	}
	return c.r.matchList(matches), nil
}

func (c *customLeagueResolver) CurrentRound() int32 { return int32(c.l.CurrentRound) }

// Ranking lists the podium teams, champion first
func (c *customLeagueResolver) Ranking(ctx context.Context) ([]*teamResolver, error) {
	return c.r.teamsByIDs(ctx, c.l.Ranking)
}

func (c *customLeagueResolver) ChatID() *graphql.ID { return optID(c.l.Chat) }
func (c *customLeagueResolver) StartDate() *graphql.Time { return optTime(c.l.StartDate) }
func (c *customLeagueResolver) EndDate() *graphql.Time { return optTime(c.l.EndDate) }
func (c *customLeagueResolver) CreatedAt() graphql.Time { return gqlTime(c.l.CreatedAt) }

type teamResolver struct {
	r *Resolver
	t store.Team
}

// teamsByIDs resolves team references keeping the order of refs
func (r *Resolver) teamsByIDs(ctx context.Context, refs []primitive.ObjectID) ([]*teamResolver, error) {
	if len(refs) == 0 {
		return []*teamResolver{}, nil
	}
	teams, err := r.api.GetTeams(ctx, refs)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]store.Team, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}
	out := make([]*teamResolver, 0, len(refs))
	for _, id := range refs {
		if t, ok := byID[id]; ok {
			out = append(out, &teamResolver{r: r, t: t})
		}
	}
	return out, nil
}

func (r *Resolver) teamByID(ctx context.Context, id *primitive.ObjectID) (*teamResolver, error) {
	if id == nil {
		return nil, nil
	}
	teams, err := r.teamsByIDs(ctx, []primitive.ObjectID{*id})
	if err != nil || len(teams) == 0 {
		return nil, err
	}
	return teams[0], nil
}

func (t *teamResolver) ID() graphql.ID { return gqlID(t.t.ID) }
func (t *teamResolver) TeamName() string { return t.t.TeamName }

func (t *teamResolver) Players(ctx context.Context) ([]*userResolver, error) {
	return t.r.usersByIDs(ctx, t.t.Players)
}

func (t *teamResolver) TotalPoints() int32 { return int32(t.t.TotalPoints) }
func (t *teamResolver) MatchesPlayed() int32 { return int32(t.t.MatchesPlayed) }
func (t *teamResolver) MatchesWon() int32 { return int32(t.t.MatchesWon) }

type matchResolver struct {
	r *Resolver
	m store.Match
}

type roundWinner struct {
	Round      int32
	WinnerTeam graphql.ID
}

func (r *Resolver) matchList(matches []store.Match) []*matchResolver {
	out := make([]*matchResolver, len(matches))
	for i := range matches {
		out[i] = &matchResolver{r: r, m: matches[i]}
	}
	return out
}

func (m *matchResolver) ID() graphql.ID { return gqlID(m.m.ID) }
func (m *matchResolver) LeagueID() graphql.ID { return gqlID(m.m.League) }
func (m *matchResolver) Round() int32 { return int32(m.m.Round) }
func (m *matchResolver) Stage() string { return m.m.Stage }
func (m *matchResolver) Position() int32 { return int32(m.m.Position) }

func (m *matchResolver) Participants(ctx context.Context) ([]*teamResolver, error) {
	return m.r.teamsByIDs(ctx, m.m.Participants)
}

func (m *matchResolver) WinnerTeam(ctx context.Context) (*teamResolver, error) {
	return m.r.teamByID(ctx, m.m.WinnerTeam)
}

func (m *matchResolver) LoserTeam(ctx context.Context) (*teamResolver, error) {
	return m.r.teamByID(ctx, m.m.LoserTeam)
}

func (m *matchResolver) IsFinal() bool { return m.m.IsFinal }
func (m *matchResolver) BestOf() int32 { return int32(m.m.BestOf) }

func (m *matchResolver) RoundWinners() []*roundWinner {
	out := make([]*roundWinner, len(m.m.RoundWinners))
	for i, g := range m.m.RoundWinners {
		out[i] = &roundWinner{Round: int32(g.Round), WinnerTeam: gqlID(g.WinnerTeam)}
	}
	return out
}

func (m *matchResolver) DecidedAt() *graphql.Time {
	if m.m.DecidedAt == nil {
		return nil
	}
	return optTime(*m.m.DecidedAt)
}

type matchReport struct {
	Match       *matchResolver
	RoundAdded  bool
	LeagueEnded bool
}

// endregion

// region Queries

func (r *Resolver) GetCustomLeague(ctx context.Context, args struct{ ID graphql.ID }) (*customLeagueResolver, error) {
	return r.league(r.api.GetCustomLeague(ctx, string(args.ID)))
}

func (r *Resolver) GetCustomLeagues(ctx context.Context, args struct{ Status *string }) ([]*customLeagueResolver, error) {
	leagues, err := r.api.GetCustomLeagues(ctx, str(args.Status))
	if err != nil {
		return nil, err
	}
	out := make([]*customLeagueResolver, len(leagues))
	for i := range leagues {
		out[i] = &customLeagueResolver{r: r, l: leagues[i]}
	}
	return out, nil
}

func (r *Resolver) GetLeagueMatches(ctx context.Context, args struct{ LeagueID graphql.ID }) ([]*matchResolver, error) {
	matches, err := r.api.GetLeagueMatches(ctx, string(args.LeagueID))
	if err != nil {
		return nil, err
	}
	return r.matchList(matches), nil
}

func (r *Resolver) GetLeagueTeams(ctx context.Context, args struct{ LeagueID graphql.ID }) ([]*teamResolver, error) {
	teams, err := r.api.GetLeagueTeams(ctx, string(args.LeagueID))
	if err != nil {
		return nil, err
	}
	out := make([]*teamResolver, len(teams))
	for i := range teams {
		out[i] = &teamResolver{r: r, t: teams[i]}
	}
	return out, nil
}

// endregion

// region Mutations

type customLeagueArgs struct {
	Input struct {
		Name              string
		IsPrivate         *bool
		Password          *string
		MaxSeats          int32
		PointsForWin      *int32
		PointsForTopThree *[]int32
		PlaySpeed         *string
		PlayType          *string
		LevelName         *string
		RoomBackground    *string
	}
}

func (args customLeagueArgs) toAPI() api.CustomLeagueInput {
	in := args.Input
	out := api.CustomLeagueInput{
		Name:           in.Name,
		IsPrivate:      in.IsPrivate != nil && *in.IsPrivate,
		Password:       str(in.Password),
		MaxSeats:       int(in.MaxSeats),
		PlaySpeed:      str(in.PlaySpeed),
		PlayType:       str(in.PlayType),
		LevelName:      str(in.LevelName),
		RoomBackground: str(in.RoomBackground),
	}
	if in.PointsForWin != nil {
		out.PointsForWin = int(*in.PointsForWin)
	}
	if in.PointsForTopThree != nil {
		for _, p := range *in.PointsForTopThree {
			out.PointsForTopThree = append(out.PointsForTopThree, int(p))
		}
	}
	return out
}

func (r *Resolver) CreateCustomLeague(ctx context.Context, args customLeagueArgs) (*customLeagueResolver, error) {
	return r.league(r.api.CreateCustomLeague(ctx, args.toAPI()))
}

func (r *Resolver) JoinLeague(ctx context.Context, args struct {
	LeagueID graphql.ID
	Password *string
}) (*customLeagueResolver, error) {
	return r.league(r.api.JoinLeague(ctx, string(args.LeagueID), str(args.Password)))
}

func (r *Resolver) LeaveLeague(ctx context.Context, args struct{ LeagueID graphql.ID }) (*customLeagueResolver, error) {
	return r.league(r.api.LeaveLeague(ctx, string(args.LeagueID)))
}

func (r *Resolver) AddSpectatorToLeague(ctx context.Context, args struct{ LeagueID, UserID graphql.ID }) (*customLeagueResolver, error) {
	return r.league(r.api.AddSpectatorToLeague(ctx, string(args.LeagueID), string(args.UserID)))
}

func (r *Resolver) GenerateMatches(ctx context.Context, args struct{ LeagueID graphql.ID }) (*customLeagueResolver, error) {
	return r.league(r.api.GenerateMatches(ctx, string(args.LeagueID)))
}

func (r *Resolver) ReportMatchResult(ctx context.Context, args struct{ MatchID, WinningTeamID graphql.ID }) (*matchReport, error) {
	report, err := r.api.ReportMatchResult(ctx, string(args.MatchID), string(args.WinningTeamID))
	if err != nil {
		return nil, err
	}
	return &matchReport{
		Match:       &matchResolver{r: r, m: *report.Match},
		RoundAdded:  report.RoundAdded,
		LeagueEnded: report.LeagueEnded,
	}, nil
}

func (r *Resolver) SendMessage(ctx context.Context, args struct {
	LeagueID graphql.ID
	Content  string
}) (*messageResolver, error) {
	msg, err := r.api.SendMessage(ctx, string(args.LeagueID), args.Content)
	if err != nil {
		return nil, err
	}
	return r.message(msg), nil
}

func (r *Resolver) MarkMessageAsRead(ctx context.Context, args struct{ MessageID graphql.ID }) (*messageResolver, error) {
	msg, err := r.api.MarkMessageAsRead(ctx, string(args.MessageID))
	if err != nil {
		return nil, err
	}
	return r.message(msg), nil
}

// endregion
