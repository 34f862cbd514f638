/* handlers_test.go
 * Contains unit tests for bot command handlers using mock Discord session
 * AI-Generated
 */

package bot

import (
	"context"
	"testing"
	"time"

	"gamehub/api/api"
	"gamehub/api/auth"
	"gamehub/api/shared"
	"gamehub/api/store"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// createTestBot creates a Bot over an in memory store, registered as the API's announcer
func createTestBot(t *testing.T) (*Bot, *MockDiscordSession, *api.MockStore) {
	t.Helper()
	ms := api.NewMockStore()
	a, err := api.NewAPI(ms, auth.NewTokens("test-secret", time.Hour))
	require.NoError(t, err)
	b, err := NewBot("test_token", "announcements", a)
	require.NoError(t, err)
	session := NewMockDiscordSession()
	b.setSession(session)
	a.Announcer = b
	return b, session, ms
}

func createMockMessage(content, userID, username, channelID string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{
		Message: &discordgo.Message{
			Content:   content,
			ChannelID: channelID,
			Author: &discordgo.User{
				ID:       userID,
				Username: username,
			},
		},
	}
}

func seedPlayer(ms *api.MockStore, username string, week, month, total int) *store.User {
	u := store.CreateSampleUser(username)
	u.GamePoints.CurrentWeek = week
	u.GamePoints.CurrentMonth = month
	u.Level.TotalGamePoints = total
	return ms.PutUser(&u)
}

func as(u *store.User) context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{UserID: u.ID.Hex()})
}

// startLeague creates a full four seat league and draws its teams
func startLeague(t *testing.T, b *Bot, ms *api.MockStore, name string) *store.CustomLeague {
	t.Helper()
	owner := seedPlayer(ms, "owner", 0, 0, 0)
	league, err := b.APIPtr.CreateCustomLeague(as(owner), api.CustomLeagueInput{Name: name, MaxSeats: 4, PointsForWin: 5})
	require.NoError(t, err)
	for _, player := range []string{"p1", "p2", "p3", "p4"} {
		_, err := b.APIPtr.JoinLeague(as(seedPlayer(ms, name+player, 0, 0, 0)), league.ID.Hex(), "")
		require.NoError(t, err)
	}
	league, err = b.APIPtr.GenerateMatches(as(owner), league.ID.Hex())
	require.NoError(t, err)
	return league
}

// region newMessageHandler tests

func TestNewMessageHandler_IgnoresSelf(t *testing.T) {
	b, session, _ := createTestBot(t)
	b.newMessageHandler(session, createMockMessage("$help", "bot", "Bot", "channel123"), "bot")
	assert.Empty(t, session.SentMessages)
}

func TestNewMessageHandler_IgnoresOtherText(t *testing.T) {
	b, session, _ := createTestBot(t)
	b.newMessageHandler(session, createMockMessage("hello $top", "user123", "TestUser", "channel123"), "bot")
	b.newMessageHandler(session, createMockMessage("$details", "user123", "TestUser", "channel123"), "bot")
	assert.Empty(t, session.SentMessages)
}

func TestNewMessageHandler_Help(t *testing.T) {
	b, session, _ := createTestBot(t)
	b.newMessageHandler(session, createMockMessage("$help", "user123", "TestUser", "channel123"), "bot")

	last := session.GetLastMessage()
	assert.Equal(t, "channel123", last.ChannelID)
	assert.Contains(t, last.Content, "$top [week|month|overall]")
	assert.Contains(t, last.Content, "$league")
}

// endregion

// region $top tests

func TestTopHandler_Periods(t *testing.T) {
	b, session, ms := createTestBot(t)
	seedPlayer(ms, "ada", 30, 100, 900)
	seedPlayer(ms, "bob", 50, 10, 1000)
	seedPlayer(ms, "cat", 30, 60, 10)
	seedPlayer(ms, "dan", 0, 0, 0)

	b.newMessageHandler(session, createMockMessage("$top", "user123", "TestUser", "channel123"), "bot")
	assert.Equal(t, "Top players this week:\n1. bob - 50 points\n2. ada - 30 points\n3. cat - 30 points\n", session.GetLastMessage().Content)

	b.newMessageHandler(session, createMockMessage("$top MONTH", "user123", "TestUser", "channel123"), "bot")
	assert.Equal(t, "Top players this month:\n1. ada - 100 points\n2. cat - 60 points\n3. bob - 10 points\n", session.GetLastMessage().Content)

	b.newMessageHandler(session, createMockMessage("$top overall", "user123", "TestUser", "channel123"), "bot")
	assert.Equal(t, "Top players overall:\n1. bob - 1000 points\n2. ada - 900 points\n3. cat - 10 points\n", session.GetLastMessage().Content)
}

func TestTopHandler_Errors(t *testing.T) {
	b, session, ms := createTestBot(t)

	b.newMessageHandler(session, createMockMessage("$top", "user123", "TestUser", "channel123"), "bot")
	assert.Equal(t, "No players ranked this week yet", session.GetLastMessage().Content)

	b.newMessageHandler(session, createMockMessage("$top decade", "user123", "TestUser", "channel123"), "bot")
	assert.Equal(t, `Unknown period "decade", use week, month or overall`, session.GetLastMessage().Content)

	ms.FailOn("ListUsers", assert.AnError)
	b.newMessageHandler(session, createMockMessage("$top", "user123", "TestUser", "channel123"), "bot")
	assert.Equal(t, "An error occurred getting the top players", session.GetLastMessage().Content)
}

// endregion

// region $league tests

func TestLeagueHandler_FuzzyMatch(t *testing.T) {
	b, session, ms := createTestBot(t)
	startLeague(t, b, ms, "Friday Cup")

	assert.Equal(t, MockMessage{ChannelID: "announcements", Content: "League Friday Cup has started with 2 teams"}, session.GetLastMessage())

	b.newMessageHandler(session, createMockMessage(`$league "friday cp"`, "user123", "TestUser", "channel123"), "bot")
	last := session.GetLastMessage()
	assert.Equal(t, "channel123", last.ChannelID)
	assert.Contains(t, last.Content, "**Friday Cup** (active, round 1)")
	assert.Contains(t, last.Content, "Players: 4/4, spectators: 0")
	assert.Contains(t, last.Content, "Teams:\n- ")
	assert.Contains(t, last.Content, "0/0 won, 0 points")
}

func TestLeagueHandler_NotStarted(t *testing.T) {
	b, session, ms := createTestBot(t)
	owner := seedPlayer(ms, "owner", 0, 0, 0)
	_, err := b.APIPtr.CreateCustomLeague(as(owner), api.CustomLeagueInput{Name: "Sunday League", MaxSeats: 4, PointsForWin: 5})
	require.NoError(t, err)

	b.newMessageHandler(session, createMockMessage("$league Sunday", "user123", "TestUser", "channel123"), "bot")
	content := session.GetLastMessage().Content
	assert.Contains(t, content, "**Sunday League** (coming)")
	assert.Contains(t, content, "Teams are drawn when the league starts")
}

func TestLeagueHandler_Errors(t *testing.T) {
	b, session, ms := createTestBot(t)

	b.newMessageHandler(session, createMockMessage("$league", "user123", "TestUser", "channel123"), "bot")
	assert.Equal(t, "Usage: `$league \"<name>\"`", session.GetLastMessage().Content)

	b.newMessageHandler(session, createMockMessage(`$league "unterminated`, "user123", "TestUser", "channel123"), "bot")
	assert.Equal(t, "Could not read that command, check your quotes", session.GetLastMessage().Content)

	b.newMessageHandler(session, createMockMessage(`$league "Nothing Here"`, "user123", "TestUser", "channel123"), "bot")
	assert.Equal(t, `No league matches "Nothing Here"`, session.GetLastMessage().Content)

	ms.FailOn("ListCustomLeagues", assert.AnError)
	b.newMessageHandler(session, createMockMessage(`$league "Cup"`, "user123", "TestUser", "channel123"), "bot")
	assert.Equal(t, "An error occurred getting the leagues", session.GetLastMessage().Content)
}

// endregion

// region formatLeague tests

func TestFormatLeague_Champions(t *testing.T) {
	winner := store.Team{TeamName: "Team 2", MatchesPlayed: 1, MatchesWon: 1, TotalPoints: 20}
	loser := store.Team{TeamName: "Team 1", MatchesPlayed: 1, TotalPoints: 10}
	winner.ID = primitive.ObjectID{2}
	loser.ID = primitive.ObjectID{1}
	league := store.CustomLeague{Name: "Cup", Status: shared.LeagueEnded, MaxSeats: 4, Ranking: []primitive.ObjectID{winner.ID, loser.ID}}

	out := formatLeague(&league, []store.Team{loser, winner})
	assert.Contains(t, out, "**Cup** (ended)\n")
	assert.Contains(t, out, "- Team 2: 1/1 won, 20 points\n")
	assert.Contains(t, out, "Champions: Team 2\n")
}

// endregion
