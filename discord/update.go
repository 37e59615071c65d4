package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Soypete/discord-markov-bot/metrics"
)

// updateChain folds the buffered chatter into the chain on demand.
// Registration restricts the command to members with Manage Server.
func (d *Client) updateChain(s *discordgo.Session, i *discordgo.InteractionCreate) {
	start := time.Now()
	metrics.DiscordCommandTotal.WithLabelValues("update_markov_chain").Inc()
	defer func() {
		metrics.DiscordCommandDuration.WithLabelValues("update_markov_chain").Observe(time.Since(start).Seconds())
	}()

	if !d.opts.Training {
		err := d.respond(s, i, "Online learning is disabled.")
		if err != nil {
			d.logger.Error("failed to respond to update command", "error", err)
			metrics.DiscordCommandErrors.WithLabelValues("update_markov_chain").Inc()
		}
		return
	}

	result := d.markov.Updater.Update(context.Background())
	if result.Err != nil {
		d.logger.Error("chain update failed", "error", result.Err)
		metrics.DiscordCommandErrors.WithLabelValues("update_markov_chain").Inc()
	}

	err := d.respond(s, i, result.Message())
	if err != nil {
		d.logger.Error("failed to respond to update command", "error", err)
		metrics.DiscordCommandErrors.WithLabelValues("update_markov_chain").Inc()
		return
	}
	d.logger.Debug("update command executed", "outcome", result.Outcome)
	metrics.DiscordMessageSent.Add(1)
}
