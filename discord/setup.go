// Package discord wires the markov bot into a discord session. It
// registers the slash commands, listens for guild chatter to feed the
// training buffer, and answers mentions.
package discord

import (
	"fmt"
	"os"

	"github.com/bwmarrin/discordgo"

	"github.com/Soypete/discord-markov-bot/ai"
	"github.com/Soypete/discord-markov-bot/database"
	"github.com/Soypete/discord-markov-bot/logging"
	"github.com/Soypete/discord-markov-bot/markov"
)

// Store is everything the discord surface needs from postgres.
type Store interface {
	database.MessageWriter
	database.ResponseWriter
	database.WordPicker
}

// Markov bundles the chain machinery the discord surface drives.
type Markov struct {
	Generator *markov.Generator
	Pregen    *markov.Pregen
	Updater   *markov.Updater
	Buffer    *markov.TrainingBuffer
}

// Options are the discord-specific knobs from the config file.
type Options struct {
	// GuildID scopes command registration to a single guild. Empty
	// registers the commands globally.
	GuildID string
	// Training controls whether guild chatter is recorded for the
	// next chain update.
	Training bool
}

// Client is the discord session plus the bot machinery the handlers
// need.
type Client struct {
	Session  *discordgo.Session
	markov   Markov
	db       Store
	llm      ai.Chatter
	opts     Options
	logger   *logging.Logger
	commands []*discordgo.ApplicationCommand
}

// Setup configures the discord session. It opens the websocket,
// registers the slash commands, and attaches the message listeners.
// The caller owns the session and must Close it on shutdown.
func Setup(m Markov, store Store, llm ai.Chatter, opts Options, logger *logging.Logger) (*Client, error) {
	token := os.Getenv("DISCORD_SECRET")
	if token == "" {
		return nil, fmt.Errorf("missing token: set DISCORD_SECRET")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents |= discordgo.IntentMessageContent

	d := &Client{
		Session: session,
		markov:  m,
		db:      store,
		llm:     llm,
		opts:    opts,
		logger:  logger.Component("discord"),
	}

	err = session.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open discord session: %w", err)
	}

	for _, cmd := range d.AddCommands() {
		created, err := session.ApplicationCommandCreate(session.State.User.ID, opts.GuildID, cmd)
		if err != nil {
			return nil, fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
		d.commands = append(d.commands, created)
	}

	commandHandlers := d.MakeCommandHandlers()
	session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if handler, ok := commandHandlers[i.ApplicationCommandData().Name]; ok {
			handler(s, i)
		}
	})
	session.AddHandler(d.onMessageCreate)
	session.AddHandler(d.onMessageDelete)

	d.logger.Info("discord session open", "guild_id", opts.GuildID, "commands", len(d.commands))
	return d, nil
}

// RemoveCommands deletes the commands registered by Setup. Called on
// shutdown so a guild-scoped dev bot does not leave stale commands
// behind.
func (d *Client) RemoveCommands() {
	for _, cmd := range d.commands {
		err := d.Session.ApplicationCommandDelete(d.Session.State.User.ID, d.opts.GuildID, cmd.ID)
		if err != nil {
			d.logger.Error("failed to remove command", "command", cmd.Name, "error", err)
		}
	}
}
