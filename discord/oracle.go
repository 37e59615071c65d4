package discord

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Soypete/discord-markov-bot/metrics"
)

// oracle strings together 5 to 25 random words from the oracle word
// list. The result reads like a fortune cookie written by a dice
// roll, which is the point.
func (d *Client) oracle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	start := time.Now()
	metrics.DiscordCommandTotal.WithLabelValues("oracle").Inc()
	defer func() {
		metrics.DiscordCommandDuration.WithLabelValues("oracle").Observe(time.Since(start).Seconds())
	}()

	count := 5 + rand.Intn(21)
	words, err := d.db.RandomOracleWords(context.Background(), count)
	if err != nil || len(words) == 0 {
		d.logger.Error("failed to draw oracle words", "error", err)
		metrics.DiscordCommandErrors.WithLabelValues("oracle").Inc()
		respondErr := d.respond(s, i, "The oracle is silent today.")
		if respondErr != nil {
			d.logger.Error("failed to respond to oracle command", "error", respondErr)
		}
		return
	}

	err = d.respond(s, i, strings.Join(words, " "))
	if err != nil {
		d.logger.Error("failed to respond to oracle command", "error", err)
		metrics.DiscordCommandErrors.WithLabelValues("oracle").Inc()
		return
	}
	d.logger.Debug("oracle command executed", "words", count)
	metrics.DiscordMessageSent.Add(1)
}

// badWord returns one word from the extremely mild insult list.
func (d *Client) badWord(s *discordgo.Session, i *discordgo.InteractionCreate) {
	start := time.Now()
	metrics.DiscordCommandTotal.WithLabelValues("bad_word").Inc()
	defer func() {
		metrics.DiscordCommandDuration.WithLabelValues("bad_word").Observe(time.Since(start).Seconds())
	}()

	word, err := d.db.RandomBadWord(context.Background())
	if err != nil || word == "" {
		d.logger.Error("failed to draw a bad word", "error", err)
		metrics.DiscordCommandErrors.WithLabelValues("bad_word").Inc()
		respondErr := d.respond(s, i, "All the bad words are used up.")
		if respondErr != nil {
			d.logger.Error("failed to respond to bad_word command", "error", respondErr)
		}
		return
	}

	err = d.respond(s, i, strings.ToUpper(word[:1])+word[1:]+".")
	if err != nil {
		d.logger.Error("failed to respond to bad_word command", "error", err)
		metrics.DiscordCommandErrors.WithLabelValues("bad_word").Inc()
		return
	}
	d.logger.Debug("bad_word command executed")
	metrics.DiscordMessageSent.Add(1)
}
