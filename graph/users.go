/* users.go
 * Contains the user, auth and social resolvers
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

type userResolver struct {
	r *Resolver
	u store.User
}

type gamePoints struct {
	CurrentWeek  int32
	CurrentMonth int32
	LastMonth    int32
}

type gameRankings struct {
	WeekRank  int32
	MonthRank int32
	TotalRank int32
}

type level struct {
	Name            string
	Num             int32
	TotalGamePoints int32
}

func (r *Resolver) user(u *store.User) *userResolver {
	return &userResolver{r: r, u: *u}
}

func (r *Resolver) userList(users []store.User) []*userResolver {
	out := make([]*userResolver, len(users))
	for i := range users {
		out[i] = r.user(&users[i])
	}
	return out
}

// usersByIDs resolves references in the order given, skipping users that no longer exist
func (r *Resolver) usersByIDs(ctx context.Context, refs []primitive.ObjectID) ([]*userResolver, error) {
	if len(refs) == 0 {
		return []*userResolver{}, nil
	}
	users, err := r.api.GetUsersByIDs(ctx, refs)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*store.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	out := make([]*userResolver, 0, len(refs))
	for _, id := range refs {
		if u, ok := byID[id]; ok {
			out = append(out, r.user(u))
		}
	}
	return out, nil
}

func (r *Resolver) userByID(ctx context.Context, id primitive.ObjectID) (*userResolver, error) {
	if id.IsZero() {
		return nil, nil
	}
	users, err := r.usersByIDs(ctx, []primitive.ObjectID{id})
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return users[0], nil
}

func (u *userResolver) ID() graphql.ID { return gqlID(u.u.ID) }
func (u *userResolver) Name() string { return u.u.Name }
func (u *userResolver) Username() string { return u.u.Username }
func (u *userResolver) Email() string { return u.u.Email }
func (u *userResolver) Phone() *string { return optString(u.u.Phone) }
func (u *userResolver) Bio() *string { return optString(u.u.Bio) }
func (u *userResolver) Image() *string { return optString(u.u.Image) }
func (u *userResolver) Diamond() int32 { return int32(u.u.Diamond) }
func (u *userResolver) IsAdmin() bool { return u.u.IsAdmin }

func (u *userResolver) GamePoints() *gamePoints {
	p := u.u.GamePoints
	return &gamePoints{CurrentWeek: int32(p.CurrentWeek), CurrentMonth: int32(p.CurrentMonth), LastMonth: int32(p.LastMonth)}
}

func (u *userResolver) GameRankings() *gameRankings {
	g := u.u.GameRankings
	return &gameRankings{WeekRank: int32(g.WeekRank), MonthRank: int32(g.MonthRank), TotalRank: int32(g.TotalRank)}
}

func (u *userResolver) Level() *level {
	return &level{Name: u.u.Level.Name, Num: int32(u.u.Level.Num), TotalGamePoints: int32(u.u.Level.TotalGamePoints)}
}

func (u *userResolver) League() *leagueStandingResolver {
	if u.u.League == nil {
		return nil
	}
	return &leagueStandingResolver{r: u.r, s: *u.u.League}
}

func (u *userResolver) Friends(ctx context.Context) ([]*userResolver, error) {
	return u.r.usersByIDs(ctx, u.u.Friends)
}

func (u *userResolver) LikesReceived() int32 { return int32(len(u.u.LikesReceived)) }

func (u *userResolver) Achievements(ctx context.Context) ([]*achievementResolver, error) {
	achs, err := u.r.api.GetUserAchievements(ctx, u.u.ID.Hex())
	if err != nil {
		return nil, err
	}
	return achievementList(achs), nil
}

func (u *userResolver) CreatedAt() graphql.Time { return gqlTime(u.u.CreatedAt) }

type leagueStandingResolver struct {
	r *Resolver
	s store.LeagueStanding
}

func (l *leagueStandingResolver) League(ctx context.Context) (*rankedLeagueResolver, error) {
	if l.s.ID.IsZero() {
		return nil, nil
	}
	league, err := l.r.api.GetRankedLeague(ctx, l.s.ID)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rankedLeagueResolver{l: *league}, nil
}

func (l *leagueStandingResolver) CurrentMonthPoints() int32 { return int32(l.s.CurrentMonthPoints) }
func (l *leagueStandingResolver) LastMonthPoints() int32 { return int32(l.s.LastMonthPoints) }
func (l *leagueStandingResolver) CurrentMonthRank() int32 { return int32(l.s.CurrentMonthRank) }
func (l *leagueStandingResolver) LastMonthRank() int32 { return int32(l.s.LastMonthRank) }

type rankedLeagueResolver struct {
	l store.League
}

func (l *rankedLeagueResolver) ID() graphql.ID { return gqlID(l.l.ID) }
func (l *rankedLeagueResolver) Name() string { return l.l.Name }
func (l *rankedLeagueResolver) MinPoints() int32 { return int32(l.l.MinPoints) }
func (l *rankedLeagueResolver) Image() *string { return optString(l.l.Image) }

type authDataResolver struct {
	r *Resolver
	d *api.AuthData
}

func (a *authDataResolver) Token() string { return a.d.Token }
func (a *authDataResolver) TokenExpiration() int32 { return int32(a.d.TokenExpiration) }
func (a *authDataResolver) User() *userResolver { return a.r.user(a.d.User) }

type likesInfo struct {
	Count int32
	Users []*userResolver
}

type friendRequestResolver struct {
	r   *Resolver
	req store.FriendRequest
}

func (f *friendRequestResolver) ID() graphql.ID { return gqlID(f.req.ID) }

func (f *friendRequestResolver) From(ctx context.Context) (*userResolver, error) {
	return f.r.userByID(ctx, f.req.From)
}

func (f *friendRequestResolver) To(ctx context.Context) (*userResolver, error) {
	return f.r.userByID(ctx, f.req.To)
}

func (f *friendRequestResolver) CreatedAt() graphql.Time { return gqlTime(f.req.CreatedAt) }

// endregion

// region Queries

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	u, err := r.api.Me(ctx)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.user(u), nil
}

func (r *Resolver) GetUser(ctx context.Context, args struct{ ID graphql.ID }) (*userResolver, error) {
	u, err := r.api.GetUser(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	return r.user(u), nil
}

func (r *Resolver) GetUsers(ctx context.Context) ([]*userResolver, error) {
	users, err := r.api.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	return r.userList(users), nil
}

func (r *Resolver) SearchUsers(ctx context.Context, args struct{ Query string }) ([]*userResolver, error) {
	users, err := r.api.SearchUsers(ctx, args.Query)
	if err != nil {
		return nil, err
	}
	return r.userList(users), nil
}

func (r *Resolver) OnlineUsers(ctx context.Context) ([]*userResolver, error) {
	users, err := r.api.OnlineUsers(ctx)
	if err != nil {
		return nil, err
	}
	return r.userList(users), nil
}

func (r *Resolver) GetFriendRequests(ctx context.Context) ([]*friendRequestResolver, error) {
	reqs, err := r.api.GetFriendRequests(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*friendRequestResolver, len(reqs))
	for i := range reqs {
		out[i] = &friendRequestResolver{r: r, req: reqs[i]}
	}
	return out, nil
}

func (r *Resolver) GetFriendsByLevel(ctx context.Context) ([]*userResolver, error) {
	users, err := r.api.GetFriendsByLevel(ctx)
	if err != nil {
		return nil, err
	}
	return r.userList(users), nil
}

func (r *Resolver) GetNumLikes(ctx context.Context, args struct{ UserID graphql.ID }) (*likesInfo, error) {
	info, err := r.api.GetNumLikes(ctx, string(args.UserID))
	if err != nil {
		return nil, err
	}
	return &likesInfo{Count: int32(info.Count), Users: r.userList(info.Users)}, nil
}

// endregion

// region Mutations

type signUpArgs struct {
	Input struct {
		Name     string
		Email    string
		Username string
		Password string
		Phone    *string
	}
}

func (r *Resolver) SignUp(ctx context.Context, args signUpArgs) (*userResolver, error) {
	in := args.Input
	u, err := r.api.SignUp(ctx, api.SignUpInput{
		Name:     in.Name,
		Email:    in.Email,
		Username: in.Username,
		Password: in.Password,
		Phone:    str(in.Phone),
	})
	if err != nil {
		return nil, err
	}
	return r.user(u), nil
}

func (r *Resolver) Login(ctx context.Context, args struct{ Email, Password string }) (*authDataResolver, error) {
	data, err := r.api.Login(ctx, args.Email, args.Password)
	if err != nil {
		return nil, err
	}
	return &authDataResolver{r: r, d: data}, nil
}

type updateUserArgs struct {
	Input struct {
		Name     *string
		Email    *string
		Bio      *string
		Phone    *string
		Password *string
	}
}

func (r *Resolver) UpdateUser(ctx context.Context, args updateUserArgs) (*userResolver, error) {
	in := args.Input
	u, err := r.api.UpdateUser(ctx, api.UpdateUserInput{Name: in.Name, Email: in.Email, Bio: in.Bio, Phone: in.Phone, Password: in.Password})
	if err != nil {
		return nil, err
	}
	return r.user(u), nil
}

func (r *Resolver) DeleteUser(ctx context.Context, args struct{ ID graphql.ID }) (bool, error) {
	return r.api.DeleteUser(ctx, string(args.ID))
}

func (r *Resolver) SendFriendRequest(ctx context.Context, args struct{ ToUserEmail string }) (*friendRequestResolver, error) {
	req, err := r.api.SendFriendRequest(ctx, args.ToUserEmail)
	if err != nil {
		return nil, err
	}
	return &friendRequestResolver{r: r, req: *req}, nil
}

func (r *Resolver) AcceptFriendRequest(ctx context.Context, args struct{ RequestID graphql.ID }) (*userResolver, error) {
	return r.userResult(r.api.AcceptFriendRequest(ctx, string(args.RequestID)))
}

func (r *Resolver) DeclineFriendRequest(ctx context.Context, args struct{ RequestID graphql.ID }) (bool, error) {
	return r.api.DeclineFriendRequest(ctx, string(args.RequestID))
}

func (r *Resolver) DeleteFriend(ctx context.Context, args struct{ UserEmail string }) (*userResolver, error) {
	return r.userResult(r.api.DeleteFriend(ctx, args.UserEmail))
}

func (r *Resolver) LikeUser(ctx context.Context, args struct{ UserID graphql.ID }) (*userResolver, error) {
	return r.userResult(r.api.LikeUser(ctx, string(args.UserID)))
}

func (r *Resolver) UnlikeUser(ctx context.Context, args struct{ UserID graphql.ID }) (*userResolver, error) {
	return r.userResult(r.api.UnlikeUser(ctx, string(args.UserID)))
}

func (r *Resolver) BlockUser(ctx context.Context, args struct{ UserID graphql.ID }) (*userResolver, error) {
	return r.userResult(r.api.BlockUser(ctx, string(args.UserID)))
}

func (r *Resolver) userResult(u *store.User, err error) (*userResolver, error) {
	if err != nil {
		return nil, err
	}
	return r.user(u), nil
}

// endregion
