/* bot.go
 * Contains the Discord bot used for posting league announcements to a channel and answering $ commands. Requires a
 * discord bot token and channel id, and the API pointer, all of which are passed in from main.go
 * Authors: Zachary Bower
 */

package bot

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"gamehub/api/api"

	"github.com/bwmarrin/discordgo"
)

// DiscordSession is the part of the discord session the bot sends through: announcements and command replies
type DiscordSession interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ DiscordSession = (*discordgo.Session)(nil)

var ErrNotConnected = errors.New("discord session is not connected")

type Bot struct {
	BotToken  string
	ChannelID string
	APIPtr    *api.API

	mu      sync.RWMutex
	session DiscordSession
}

// NewBot creates the bot
// Preconditions: Receives the bot token, the announcement channel id and the API
// Postconditions: Returns the Bot, or an error if the token or channel is missing
func NewBot(botToken string, channelID string, apiPtr *api.API) (*Bot, error) {
	if botToken == "" {
		return nil, fmt.Errorf("botToken is required but none was provided")
	}
	if channelID == "" {
		return nil, fmt.Errorf("channelID is required but none was provided")
	}

	return &Bot{
		BotToken:  botToken,
		ChannelID: channelID,
		APIPtr:    apiPtr,
	}, nil
}

// Announce posts a league announcement to the configured channel. It implements api.Announcer
// Preconditions: The bot is running, or a session was attached with setSession
// Postconditions: The message is sent, or ErrNotConnected / the discord error is returned
func (b *Bot) Announce(message string) error {
	b.mu.RLock()
	session := b.session
	b.mu.RUnlock()
	if session == nil {
		return ErrNotConnected
	}
	if _, err := session.ChannelMessageSend(b.ChannelID, message); err != nil {
		return fmt.Errorf("failed to send announcement: %w", err)
	}
	return nil
}

func (b *Bot) setSession(session DiscordSession) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.session = session
}

// startsWith reports whether content is the command itself or the command followed by arguments, so $top does not
// also match $topping
func startsWith(content string, command string) bool {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, command) {
		return false
	}
	rest := content[len(command):]
	return rest == "" || rest[0] == ' '
}
