package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Soypete/discord-markov-bot/metrics"
)

// help lists the commands. The last line is a markov sentence seeded
// with "help" so the help text doubles as a demo.
func (d *Client) help(s *discordgo.Session, i *discordgo.InteractionCreate) {
	start := time.Now()
	metrics.DiscordCommandTotal.WithLabelValues("help").Inc()
	defer func() {
		metrics.DiscordCommandDuration.WithLabelValues("help").Observe(time.Since(start).Seconds())
	}()

	helpMessage := `Margo learns from stream chat and talks back. Commands:
- /sentence [seed]: generate a sentence, optionally built around a seed word or phrase
- /oracle: receive a cryptic pronouncement
- /bad_word: today's extremely mild bad word
- /update_markov_chain: fold buffered chatter into the chain (mods only)
You can also @mention me and I will answer.`
	if d.markov.Pregen != nil {
		helpMessage = fmt.Sprintf("%s\n\n%s", helpMessage, d.markov.Pregen.Get("help"))
	}

	err := d.respond(s, i, helpMessage)
	if err != nil {
		d.logger.Error("failed to respond to help command", "error", err)
		metrics.DiscordCommandErrors.WithLabelValues("help").Inc()
		return
	}
	d.logger.Debug("help command executed")
	metrics.DiscordMessageSent.Add(1)
}
