//go:build !test

/* bot_runtime.go
 * Contains runtime-only Discord bot methods that use *discordgo.Session directly.
 * Delegates to testable handlers in handlers.go
 * Authors: Zachary Bower
 */

package bot

import (
	"context"
	"fmt"

	"gamehub/obslog"

	"github.com/bwmarrin/discordgo"
)

// Run opens the Discord session and keeps it open until ctx is cancelled
// Preconditions: Receives a context cancelled on shutdown. commands enables the $ command handlers, otherwise the
// session is only used for announcements
// Postconditions: Returns nil after the session closes, or the error that prevented it from opening
func (b *Bot) Run(ctx context.Context, commands bool) error {
	discord, err := discordgo.New("Bot " + b.BotToken)
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}

	if commands {
		discord.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
		discord.AddHandler(b.newMessage)
	}

	if err := discord.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	b.setSession(discord)
	obslog.L().Info("Discord bot started")

	<-ctx.Done()
	b.setSession(nil)
	return discord.Close()
}

// newMessage delegates to the testable newMessageHandler
// *discordgo.Session implements DiscordSession interface
func (b *Bot) newMessage(discord *discordgo.Session, message *discordgo.MessageCreate) {
	b.newMessageHandler(discord, message, discord.State.User.ID)
}
