/* store_interface.go
 * Contains the Store interface for dependency injection and testing
 * Authors: Zachary Bower
 */

package store

import (
	"context"
	"time"

	"gamehub/api/shared"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Interface defines the methods that Store implements.
// This allows for mocking in tests.
type Interface interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, update UserUpdate) (*User, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	SetUserImage(ctx context.Context, id primitive.ObjectID, image string) (string, error)
	AddToSet(ctx context.Context, userID primitive.ObjectID, field string, ids ...primitive.ObjectID) error
	PullFromSet(ctx context.Context, userID primitive.ObjectID, field string, ids ...primitive.ObjectID) error
	AwardPoints(ctx context.Context, ids []primitive.ObjectID, points int) error
	SetUserLevel(ctx context.Context, id primitive.ObjectID, name string, num int) error
	DebitDiamonds(ctx context.Context, id primitive.ObjectID, amount int) error
	CreditDiamonds(ctx context.Context, ids []primitive.ObjectID, amount int) error
	SaveRanks(ctx context.Context, updates []RankUpdate) error
	ResetWeeklyPoints(ctx context.Context) error
	ResetMonthlyPoints(ctx context.Context) error

	// Friend requests
	CreateFriendRequest(ctx context.Context, req *FriendRequest) error
	GetFriendRequest(ctx context.Context, id primitive.ObjectID) (*FriendRequest, error)
	FindPendingRequest(ctx context.Context, from, to primitive.ObjectID) (*FriendRequest, error)
	ListFriendRequestsTo(ctx context.Context, to primitive.ObjectID) ([]FriendRequest, error)
	DeleteFriendRequest(ctx context.Context, id primitive.ObjectID) error
	DeleteRequestsBetween(ctx context.Context, a, b primitive.ObjectID) error

	// Chats and messages
	CreateChat(ctx context.Context, chat *Chat) error
	GetChat(ctx context.Context, id primitive.ObjectID) (*Chat, error)
	FindDirectChat(ctx context.Context, a, b primitive.ObjectID) (*Chat, error)
	ListChatsForUser(ctx context.Context, user primitive.ObjectID) ([]Chat, error)
	AddChatMember(ctx context.Context, chatID, user primitive.ObjectID) error
	SetLatestMessage(ctx context.Context, chatID, messageID primitive.ObjectID) error
	CreateMessage(ctx context.Context, msg *Message) error
	GetMessage(ctx context.Context, id primitive.ObjectID) (*Message, error)
	ListMessages(ctx context.Context, chatID primitive.ObjectID) ([]Message, error)
	MarkChatRead(ctx context.Context, chatID, user primitive.ObjectID) error
	MarkMessageRead(ctx context.Context, messageID, user primitive.ObjectID) error

	// Gifts
	CreateGift(ctx context.Context, gift *Gift) error
	GetGift(ctx context.Context, id primitive.ObjectID) (*Gift, error)
	ListGiftsBySender(ctx context.Context, sender primitive.ObjectID) ([]Gift, error)
	ListGiftsByReceiver(ctx context.Context, receiver primitive.ObjectID) ([]Gift, error)

	// Catalog
	CreateAchievement(ctx context.Context, a *Achievement) error
	GetAchievement(ctx context.Context, id primitive.ObjectID) (*Achievement, error)
	GetAchievementByName(ctx context.Context, name string) (*Achievement, error)
	ListAchievements(ctx context.Context) ([]Achievement, error)
	ListAchievementsByUser(ctx context.Context, user primitive.ObjectID) ([]Achievement, error)
	UpdateAchievement(ctx context.Context, id primitive.ObjectID, update AchievementUpdate) (*Achievement, error)
	DeleteAchievement(ctx context.Context, id primitive.ObjectID) error
	GetMedal(ctx context.Context, id primitive.ObjectID) (*Medal, error)
	ListMedals(ctx context.Context) ([]Medal, error)
	CreateCupType(ctx context.Context, c *CupType) error
	GetCupType(ctx context.Context, id primitive.ObjectID) (*CupType, error)
	ListCupTypes(ctx context.Context) ([]CupType, error)
	UpdateCupType(ctx context.Context, c *CupType) (*CupType, error)
	DeleteCupType(ctx context.Context, id primitive.ObjectID) error

	// Ranked leagues
	SeedLeagues(ctx context.Context, leagues []League) error
	GetLeague(ctx context.Context, id primitive.ObjectID) (*League, error)
	GetLeagueByName(ctx context.Context, name string) (*League, error)
	ListLeagues(ctx context.Context) ([]League, error)

	// Custom leagues
	CreateCustomLeague(ctx context.Context, l *CustomLeague) error
	GetCustomLeague(ctx context.Context, id primitive.ObjectID) (*CustomLeague, error)
	ListCustomLeagues(ctx context.Context, status shared.LeagueStatus) ([]CustomLeague, error)
	AddLeaguePlayer(ctx context.Context, leagueID, player primitive.ObjectID, maxSeats int) error
	RemoveLeaguePlayer(ctx context.Context, leagueID, player primitive.ObjectID) error
	AddLeagueSpectator(ctx context.Context, leagueID, user primitive.ObjectID) error
	StartLeague(ctx context.Context, leagueID primitive.ObjectID, teams, matches []primitive.ObjectID) error
	AdvanceLeagueRound(ctx context.Context, leagueID primitive.ObjectID, fromRound int, matches []primitive.ObjectID) error
	EndLeague(ctx context.Context, leagueID primitive.ObjectID, ranking []primitive.ObjectID) error
	TouchCustomLeague(ctx context.Context, leagueID primitive.ObjectID) error
	CreateTeams(ctx context.Context, teams []Team) error
	GetTeamsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Team, error)
	ListTeamsByLeague(ctx context.Context, leagueID primitive.ObjectID) ([]Team, error)
	RecordTeamResult(ctx context.Context, teamID primitive.ObjectID, won bool, points int) error
	CreateMatches(ctx context.Context, matches []Match) error
	GetMatch(ctx context.Context, id primitive.ObjectID) (*Match, error)
	ListMatchesByLeague(ctx context.Context, leagueID primitive.ObjectID) ([]Match, error)
	ListMatchesByRound(ctx context.Context, leagueID primitive.ObjectID, round int) ([]Match, error)
	RecordMatchWinner(ctx context.Context, matchID, winner, loser primitive.ObjectID) error
	AppendGameWinner(ctx context.Context, matchID primitive.ObjectID, gamesPlayed int, game RoundWinner) error

	// Rankings
	InsertRankings(ctx context.Context, rankings []Ranking) error
	AggregatePeriodPoints(ctx context.Context, period shared.Period, from time.Time) ([]PeriodPoints, error)
	ListRankings(ctx context.Context, f RankingFilter) ([]Ranking, error)

	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	EnsureIndexes(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Ensure Store implements Interface
var _ Interface = (*Store)(nil)
