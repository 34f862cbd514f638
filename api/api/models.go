/* models.go
 * This file contain the input and result structs used by api consumers
 * Authors: Zachary Bower
 */

package api

import (
	"time"

	"gamehub/api/store"
)

type SignUpInput struct {
	Name     string `validate:"required,max=64"`
	Email    string `validate:"required,email"`
	Username string `validate:"required,min=3,max=32,excludesall=@ "`
	Password string `validate:"required,min=6,max=72"`
	Phone    string `validate:"omitempty,max=20"`
}

type UpdateUserInput struct {
	Name     *string `validate:"omitempty,max=64"`
	Email    *string `validate:"omitempty,email"`
	Bio      *string `validate:"omitempty,max=500"`
	Phone    *string `validate:"omitempty,max=20"`
	Password *string `validate:"omitempty,min=6,max=72"`
}

// AuthData is returned by login
type AuthData struct {
	Token           string
	TokenExpiration int
	User            *store.User
}

// LikesInfo is the like count of a user and who gave them
type LikesInfo struct {
	Count int
	Users []store.User
}

// FullChat is a chat with its messages in time order
type FullChat struct {
	Chat     *store.Chat
	Messages []store.Message
}

type GiftInput struct {
	Receivers   []string `validate:"required,min=1,dive,required"`
	Type        string   `validate:"required,oneof=diamond sub item voucher subscription"`
	Status      string   `validate:"omitempty,oneof=pending completed failed"`
	Category    string   `validate:"required,oneof=virtual physical subscription"`
	Count       int      `validate:"min=1"`
	Message     string   `validate:"max=500"`
	IsAnonymous bool
}

type AchievementInput struct {
	Name        string `validate:"required,max=100"`
	Description string `validate:"max=1000"`
	Img         string
}

type AchievementUpdateInput struct {
	Name        *string `validate:"omitempty,min=1,max=100"`
	Description *string `validate:"omitempty,max=1000"`
	Img         *string
}

type CupTypeInput struct {
	Name  string `validate:"required,max=100"`
	Image string
	Price int `validate:"min=0"`
}

type CustomLeagueInput struct {
	Name              string `validate:"required,max=100"`
	IsPrivate         bool
	Password          string
	MaxSeats          int   `validate:"required"`
	PointsForWin      int   `validate:"min=0"`
	PointsForTopThree []int `validate:"omitempty,len=3,dive,min=0"`
	PlaySpeed         string
	PlayType          string
	LevelName         string
	RoomBackground    string
}

// MessageEvent is the payload published for messageReceived and messageAdded
type MessageEvent struct {
	ID         string    `json:"id"`
	ChatID     string    `json:"chatId"`
	SenderID   string    `json:"senderId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	Recipients []string  `json:"recipients"`
}

// TypingEvent is the payload published for typing and stopTyping
type TypingEvent struct {
	ChatID     string   `json:"chatId"`
	UserID     string   `json:"userId"`
	Recipients []string `json:"recipients"`
}

// RankingEntry is one row of an ordered ranking
type RankingEntry struct {
	UserID   string
	Username string
	Points   int
	Position int
}

// UserRanking is the caller's standing for a period
type UserRanking struct {
	UserID        string
	CurrentPoints int
	PeriodPoints  int
	Rank          *int
	Rankings      []RankingEntry
	LeagueName    string
}

// GameStat is a user with their points and rank for one period
type GameStat struct {
	User   store.User
	Points int
	Rank   int
}

// LeagueRanking is a ranked league member with their league points and rank
type LeagueRanking struct {
	User   store.User
	Points int
	Rank   int
}

// MatchReport is the result of reportMatchResult
type MatchReport struct {
	Match       *store.Match
	RoundAdded  bool
	LeagueEnded bool
}
