/* models.go
 * This file contain the structs that relate to DB objects. Field names are stored in snake_case
 * Authors: Zachary Bower
 */

package store

import (
	"time"

	"gamehub/api/shared"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GamePoints struct {
	CurrentWeek  int `bson:"current_week"`
	CurrentMonth int `bson:"current_month"`
	LastMonth    int `bson:"last_month"`
}

type GameRankings struct {
	WeekRank  int `bson:"week_rank"`
	MonthRank int `bson:"month_rank"`
	TotalRank int `bson:"total_rank"`
}

type Level struct {
	Name            string `bson:"name"`
	Num             int    `bson:"num"`
	TotalGamePoints int    `bson:"total_game_points"`
}

// LeagueStanding is a user's position within their ranked league
type LeagueStanding struct {
	ID                 primitive.ObjectID `bson:"id"`
	CurrentMonthPoints int                `bson:"current_month_points"`
	LastMonthPoints    int                `bson:"last_month_points"`
	CurrentMonthRank   int                `bson:"current_month_rank"`
	LastMonthRank      int                `bson:"last_month_rank"`
}

type Subscription struct {
	Active    bool      `bson:"is"`
	StartDate time.Time `bson:"start_date,omitempty"`
	EndDate   time.Time `bson:"end_date,omitempty"`
	For       string    `bson:"for,omitempty"`
}

type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Name     string             `bson:"name"`
	Username string             `bson:"username"`
	Email    string             `bson:"email"`
	Password string             `bson:"password"`
	Phone    string             `bson:"phone,omitempty"`
	Bio      string             `bson:"bio,omitempty"`
	Image    string             `bson:"image,omitempty"`
	Diamond  int                `bson:"diamond"`
	IsAdmin  bool               `bson:"is_admin"`

	GamePoints   GamePoints      `bson:"game_points"`
	GameRankings GameRankings    `bson:"game_rankings"`
	Level        Level           `bson:"level"`
	League       *LeagueStanding `bson:"league,omitempty"`
	Subscribed   Subscription    `bson:"subscribed"`

	Medals        []primitive.ObjectID `bson:"medals"`
	Friends       []primitive.ObjectID `bson:"friends"`
	LikesGiven    []primitive.ObjectID `bson:"likes_given"`
	LikesReceived []primitive.ObjectID `bson:"likes_received"`
	GiftsGiven    []primitive.ObjectID `bson:"gifts_given"`
	GiftsReceived []primitive.ObjectID `bson:"gifts_received"`
	Blocked       []primitive.ObjectID `bson:"blocked"`
	Achievements  []primitive.ObjectID `bson:"achievements"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// HasRelation reports whether id is present in the relation set named by field
func (u *User) HasRelation(field string, id primitive.ObjectID) bool {
	var set []primitive.ObjectID
	switch field {
	case shared.FieldFriends:
		set = u.Friends
	case shared.FieldBlocked:
		set = u.Blocked
	case shared.FieldLikesGiven:
		set = u.LikesGiven
	case shared.FieldLikesReceived:
		set = u.LikesReceived
	case shared.FieldGiftsGiven:
		set = u.GiftsGiven
	case shared.FieldGiftsReceived:
		set = u.GiftsReceived
	case shared.FieldAchievements:
		set = u.Achievements
	case shared.FieldMedals:
		set = u.Medals
	}
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

// UserUpdate holds the profile fields a user may change. Nil fields are left alone
type UserUpdate struct {
	Name     *string
	Email    *string
	Bio      *string
	Phone    *string
	Password *string
}

type FriendRequest struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	From      primitive.ObjectID `bson:"from"`
	To        primitive.ObjectID `bson:"to"`
	CreatedAt time.Time          `bson:"created_at"`
}

type Chat struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	Name          string               `bson:"name,omitempty"`
	IsGroup       bool                 `bson:"is_group"`
	Users         []primitive.ObjectID `bson:"users"`
	LatestMessage *primitive.ObjectID  `bson:"latest_message,omitempty"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

func (c *Chat) HasMember(id primitive.ObjectID) bool {
	for _, u := range c.Users {
		if u == id {
			return true
		}
	}
	return false
}

type Message struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Sender    primitive.ObjectID   `bson:"sender"`
	Content   string               `bson:"content"`
	Chat      primitive.ObjectID   `bson:"chat"`
	ReadBy    []primitive.ObjectID `bson:"read_by"`
	CreatedAt time.Time            `bson:"created_at"`
}

type Gift struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Sender      primitive.ObjectID   `bson:"sender"`
	Receivers   []primitive.ObjectID `bson:"receivers"`
	Type        string               `bson:"type"`
	Status      string               `bson:"status"`
	Category    string               `bson:"gift_category"`
	Count       int                  `bson:"count"`
	Message     string               `bson:"message,omitempty"`
	IsAnonymous bool                 `bson:"is_anonymous"`
	CreatedAt   time.Time            `bson:"created_at"`
}

type Achievement struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description,omitempty"`
	Img         string             `bson:"img,omitempty"`
	UserID      primitive.ObjectID `bson:"user_id"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

// AchievementUpdate holds the fields an owner may change. Nil fields are left alone
type AchievementUpdate struct {
	Name        *string
	Description *string
	Img         *string
}

type Medal struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description,omitempty"`
	Img         string             `bson:"img,omitempty"`
}

type CupType struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Image     string             `bson:"image,omitempty"`
	Price     int                `bson:"price"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// League is one of the ranked tiers users are sorted into
type League struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	MinPoints int                `bson:"min_points"`
	Image     string             `bson:"image,omitempty"`
}

// CustomLeague is a user created single elimination tournament
type CustomLeague struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty"`
	Name              string               `bson:"name"`
	CreatedBy         primitive.ObjectID   `bson:"created_by"`
	CreatedByAdmin    bool                 `bson:"created_by_admin"`
	IsPrivate         bool                 `bson:"is_private"`
	Password          string               `bson:"password,omitempty"`
	MaxSeats          int                  `bson:"max_seats"`
	PointsForWin      int                  `bson:"points_for_win"`
	PointsForTopThree [3]int               `bson:"points_for_top_three"`
	PlaySpeed         string               `bson:"play_speed,omitempty"`
	PlayType          string               `bson:"play_type,omitempty"`
	LevelName         string               `bson:"level_name,omitempty"`
	RoomBackground    string               `bson:"room_background,omitempty"`
	Status            shared.LeagueStatus  `bson:"status"`
	RegisteredPlayers []primitive.ObjectID `bson:"registered_players"`
	Spectators        []primitive.ObjectID `bson:"spectators"`
	Teams             []primitive.ObjectID `bson:"teams"`
	Matches           []primitive.ObjectID `bson:"matches"`
	CurrentRound      int                  `bson:"current_round"`
	Ranking           []primitive.ObjectID `bson:"ranking"`
	Chat              primitive.ObjectID   `bson:"chat,omitempty"`
	StartDate         time.Time            `bson:"start_date,omitempty"`
	EndDate           time.Time            `bson:"end_date,omitempty"`
	CreatedAt         time.Time            `bson:"created_at"`
	UpdatedAt         time.Time            `bson:"updated_at"`
}

func (l *CustomLeague) IsPlayer(id primitive.ObjectID) bool {
	for _, p := range l.RegisteredPlayers {
		if p == id {
			return true
		}
	}
	return false
}

func (l *CustomLeague) IsSpectator(id primitive.ObjectID) bool {
	for _, p := range l.Spectators {
		if p == id {
			return true
		}
	}
	return false
}

// Team is two players entered together into a custom league
type Team struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	League        primitive.ObjectID   `bson:"league"`
	TeamName      string               `bson:"team_name"`
	Players       []primitive.ObjectID `bson:"players"`
	TotalPoints   int                  `bson:"total_points"`
	MatchesPlayed int                  `bson:"matches_played"`
	MatchesWon    int                  `bson:"matches_won"`
}

// RoundWinner is one game of a best of three final
type RoundWinner struct {
	Round      int                `bson:"round"`
	WinnerTeam primitive.ObjectID `bson:"winner_team"`
}

type Match struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	League       primitive.ObjectID   `bson:"league"`
	Round        int                  `bson:"round"`
	Stage        string               `bson:"stage"`
	Position     int                  `bson:"position"`
	Participants []primitive.ObjectID `bson:"participants"`
	WinnerTeam   *primitive.ObjectID  `bson:"winner_team"`
	LoserTeam    *primitive.ObjectID  `bson:"loser_team"`
	IsFinal      bool                 `bson:"is_final"`
	BestOf       int                  `bson:"best_of"`
	RoundWinners []RoundWinner        `bson:"round_winners"`
	CreatedAt    time.Time            `bson:"created_at"`
	DecidedAt    *time.Time           `bson:"decided_at,omitempty"`
}

func (m *Match) Decided() bool {
	return m.WinnerTeam != nil
}

func (m *Match) HasParticipant(team primitive.ObjectID) bool {
	for _, p := range m.Participants {
		if p == team {
			return true
		}
	}
	return false
}

// Ranking is a points snapshot of one user for one period
type Ranking struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	User        primitive.ObjectID  `bson:"user"`
	League      *primitive.ObjectID `bson:"league,omitempty"`
	Points      int                 `bson:"points"`
	Period      shared.Period       `bson:"period"`
	PeriodStart time.Time           `bson:"period_start"`
	PeriodEnd   time.Time           `bson:"period_end"`
	Position    int                 `bson:"position"`
	CreatedAt   time.Time           `bson:"created_at"`
}

// RankingFilter narrows ListRankings. Zero values are ignored, except a nil League which selects game snapshots only
type RankingFilter struct {
	Period shared.Period
	League *primitive.ObjectID
	From   time.Time
	To     time.Time
	Limit  int64
}

// PeriodPoints is one row of an aggregation of ranking snapshots
type PeriodPoints struct {
	User   primitive.ObjectID `bson:"_id"`
	Points int                `bson:"points"`
}

// RankUpdate is the set of ranks computed for one user by the ranking job
type RankUpdate struct {
	User             primitive.ObjectID
	WeekRank         int
	MonthRank        int
	TotalRank        int
	LeagueMonthRank  int
	LeagueLastMonth  int
	HasLeagueRanking bool
}
