package keepalive

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/Soypete/discord-markov-bot/logging"
)

// alertChannelName is where the monitor posts. The channel has to
// exist in a guild the alert bot can see.
const alertChannelName = "margobot-alerts"

// DiscordAlerter posts alerts to a discord channel.
type DiscordAlerter struct {
	session   *discordgo.Session
	channelID string
	userID    string
	logger    *logging.Logger
}

// NewDiscordAlerter opens a session with the bot token and finds the
// alert channel. userID, when set, is mentioned in every alert.
func NewDiscordAlerter(token string, userID string, logger *logging.Logger) (*DiscordAlerter, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	err = session.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open discord session: %w", err)
	}

	channelID, err := findChannelByName(session, alertChannelName)
	if err != nil {
		if closeErr := session.Close(); closeErr != nil {
			logger.Error("failed to close discord session", "error", closeErr.Error())
		}
		return nil, fmt.Errorf("failed to find channel %s: %w", alertChannelName, err)
	}

	logger.Info("discord alerter initialized", "channel", alertChannelName, "channelID", channelID, "userID", userID)

	return &DiscordAlerter{
		session:   session,
		channelID: channelID,
		userID:    userID,
		logger:    logger,
	}, nil
}

// findChannelByName searches all guilds for a channel with the given
// name.
func findChannelByName(session *discordgo.Session, channelName string) (string, error) {
	for _, guild := range session.State.Guilds {
		channels, err := session.GuildChannels(guild.ID)
		if err != nil {
			continue
		}

		for _, channel := range channels {
			if channel.Name == channelName {
				return channel.ID, nil
			}
		}
	}

	return "", fmt.Errorf("channel %s not found in any guild", channelName)
}

// SendAlert posts an alert to the configured channel.
func (da *DiscordAlerter) SendAlert(ctx context.Context, serviceName string, message string) error {
	var alertMessage string
	if da.userID != "" {
		alertMessage = fmt.Sprintf("<@%s> **Alert:** %s", da.userID, message)
	} else {
		alertMessage = fmt.Sprintf("**Alert:** %s", message)
	}

	_, err := da.session.ChannelMessageSend(da.channelID, alertMessage)
	if err != nil {
		da.logger.Error("failed to send discord alert",
			"error", err.Error(),
			"service", serviceName,
			"channel_id", da.channelID)
		return fmt.Errorf("failed to send discord message: %w", err)
	}

	da.logger.Info("discord alert sent",
		"service", serviceName,
		"channel_id", da.channelID)

	return nil
}

// Close closes the discord session.
func (da *DiscordAlerter) Close() error {
	return da.session.Close()
}
