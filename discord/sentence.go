package discord

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Soypete/discord-markov-bot/metrics"
	"github.com/Soypete/discord-markov-bot/types"
)

// sentence generates a markov sentence. Single-word seeds go through
// the pregen cache, phrases and seedless requests hit the generator
// directly.
func (d *Client) sentence(s *discordgo.Session, i *discordgo.InteractionCreate) {
	start := time.Now()
	metrics.DiscordCommandTotal.WithLabelValues("sentence").Inc()
	defer func() {
		metrics.DiscordCommandDuration.WithLabelValues("sentence").Observe(time.Since(start).Seconds())
	}()

	var seed string
	if opts := i.ApplicationCommandData().Options; len(opts) > 0 {
		seed = opts[0].StringValue()
	}

	var text string
	words := strings.Fields(seed)
	switch {
	case len(words) == 1 && d.markov.Pregen != nil:
		text = d.markov.Pregen.Get(words[0])
	default:
		text = d.markov.Generator.Generate(seed)
	}

	err := d.respond(s, i, text)
	if err != nil {
		d.logger.Error("failed to respond to sentence command", "error", err, "seed", seed)
		metrics.DiscordCommandErrors.WithLabelValues("sentence").Inc()
		return
	}
	d.logger.Debug("sentence command executed", "seed", seed)
	metrics.DiscordMessageSent.Add(1)

	err = d.db.InsertBotResponse(context.Background(), types.BotResponse{
		Seed:   seed,
		Text:   text,
		Source: types.SourceMarkov,
		Time:   time.Now(),
	})
	if err != nil {
		d.logger.Error("failed to archive sentence response", "error", err)
	}
}
