/* handlers.go
 * Contains testable handler methods that accept DiscordSession interface
 * Authors: Zachary Bower
 * AI-Generated: Extracted runtime functionality from bot.go
 */

package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gamehub/api/api"
	"gamehub/api/logic"
	"gamehub/api/shared"
	"gamehub/api/store"
	"gamehub/obslog"

	"github.com/bwmarrin/discordgo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const commandTimeout = 10 * time.Second

// topPeriods maps the $top argument onto the API call and the label used in the reply
var topPeriods = map[string]struct {
	label string
	fetch func(a *api.API, ctx context.Context) ([]api.GameStat, error)
}{
	"week":    {"this week", (*api.API).GetTop3CurrentWeekPlayers},
	"month":   {"this month", (*api.API).GetTop3CurrentMonthPlayers},
	"overall": {"overall", (*api.API).GetTop3OverallPlayers},
}

// helpMessageHandler handles the $help command with a DiscordSession interface
func (b *Bot) helpMessageHandler(session DiscordSession, message *discordgo.MessageCreate) {
	var res strings.Builder
	res.WriteString("Gaming Hub Bot\n")
	res.WriteString("`$top [week|month|overall]`: shows the three players with the most points for the period. Defaults to week\n")
	res.WriteString("`$league \"<name>\"`: shows the status, round and teams of a custom league. There is fuzzy matching on names, names that contain two or more words need to be encased in \" (e.g. \"Friday Cup\")\n")
	res.WriteString("League starts and champions are announced in this channel\n")
	b.reply(session, message, res.String())
}

// topHandler handles the $top command with a DiscordSession interface
func (b *Bot) topHandler(session DiscordSession, message *discordgo.MessageCreate) {
	args, err := logic.SplitTerms(message.Content)
	if err != nil {
		b.reply(session, message, "Could not read that command, check your quotes")
		return
	}
	period := "week"
	if len(args) > 1 {
		period = strings.ToLower(args[1])
	}
	p, ok := topPeriods[period]
	if !ok {
		b.reply(session, message, fmt.Sprintf("Unknown period %q, use week, month or overall", period))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	stats, err := p.fetch(b.APIPtr, ctx)
	if err != nil {
		obslog.L().Error("failed to load top players", zap.String("period", period), zap.Error(err))
		b.reply(session, message, "An error occurred getting the top players")
		return
	}
	b.reply(session, message, formatTop(p.label, stats))
}

func formatTop(label string, stats []api.GameStat) string {
	if len(stats) == 0 {
		return fmt.Sprintf("No players ranked %s yet", label)
	}
	var res strings.Builder
	res.WriteString(fmt.Sprintf("Top players %s:\n", label))
	for _, s := range stats {
		res.WriteString(fmt.Sprintf("%d. %s - %d points\n", s.Rank, s.User.Username, s.Points))
	}
	return res.String()
}

// leagueHandler handles the $league command with a DiscordSession interface
func (b *Bot) leagueHandler(session DiscordSession, message *discordgo.MessageCreate) {
	args, err := logic.SplitTerms(message.Content)
	if err != nil {
		b.reply(session, message, "Could not read that command, check your quotes")
		return
	}
	if len(args) < 2 {
		b.reply(session, message, "Usage: `$league \"<name>\"`")
		return
	}
	name := strings.Join(args[1:], " ")

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	leagues, err := b.APIPtr.GetCustomLeagues(ctx, "")
	if err != nil {
		obslog.L().Error("failed to list leagues", zap.Error(err))
		b.reply(session, message, "An error occurred getting the leagues")
		return
	}
	names := make([]string, len(leagues))
	for i := range leagues {
		names[i] = leagues[i].Name
	}
	match, ok := logic.BestMatch(name, names)
	if !ok {
		b.reply(session, message, fmt.Sprintf("No league matches %q", name))
		return
	}
	league := leagues[0]
	for i := range leagues {
		if leagues[i].Name == match {
			league = leagues[i]
			break
		}
	}

	teams, err := b.APIPtr.GetLeagueTeams(ctx, league.ID.Hex())
	if err != nil {
		obslog.L().Error("failed to load league teams", zap.String("league", league.ID.Hex()), zap.Error(err))
		b.reply(session, message, "An error occurred getting the league teams")
		return
	}
	b.reply(session, message, formatLeague(&league, teams))
}

func formatLeague(league *store.CustomLeague, teams []store.Team) string {
	var res strings.Builder
	res.WriteString(fmt.Sprintf("**%s** (%s", league.Name, league.Status))
	if league.Status == shared.LeagueActive {
		res.WriteString(fmt.Sprintf(", round %d", league.CurrentRound))
	}
	res.WriteString(")\n")
	res.WriteString(fmt.Sprintf("Players: %d/%d, spectators: %d\n", len(league.RegisteredPlayers), league.MaxSeats, len(league.Spectators)))

	if len(teams) == 0 {
		res.WriteString("Teams are drawn when the league starts\n")
		return res.String()
	}
	byID := make(map[primitive.ObjectID]string, len(teams))
	res.WriteString("Teams:\n")
	for _, t := range teams {
		byID[t.ID] = t.TeamName
		res.WriteString(fmt.Sprintf("- %s: %d/%d won, %d points\n", t.TeamName, t.MatchesWon, t.MatchesPlayed, t.TotalPoints))
	}
	if league.Status == shared.LeagueEnded && len(league.Ranking) > 0 {
		res.WriteString(fmt.Sprintf("Champions: %s\n", byID[league.Ranking[0]]))
	}
	return res.String()
}

func (b *Bot) reply(session DiscordSession, message *discordgo.MessageCreate, content string) {
	if _, err := session.ChannelMessageSend(message.ChannelID, content); err != nil {
		obslog.L().Warn("failed to send discord reply", zap.String("channel", message.ChannelID), zap.Error(err))
	}
}

// newMessageHandler routes messages to appropriate handlers with a DiscordSession interface
// botUserID is the bot's user ID to prevent self-responses
func (b *Bot) newMessageHandler(session DiscordSession, message *discordgo.MessageCreate, botUserID string) {
	if message.Author == nil || message.Author.ID == botUserID {
		return
	}

	switch {
	case startsWith(message.Content, "$help"):
		b.helpMessageHandler(session, message)

	case startsWith(message.Content, "$top"):
		b.topHandler(session, message)

	case startsWith(message.Content, "$league"):
		b.leagueHandler(session, message)
	}
}
