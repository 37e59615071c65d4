package twitchirc

import (
	"context"
	"strings"

	v2 "github.com/gempir/go-twitch-irc/v2"

	"github.com/Soypete/discord-markov-bot/metrics"
	"github.com/Soypete/discord-markov-bot/types"
)

// trainerConsumer archives chat and records it for the next chain
// update. Filtering of unlearnable text happens later, when the buffer
// is drained.
type trainerConsumer struct {
	irc *IRC
}

func (t *trainerConsumer) Name() string { return "trainer" }

func (t *trainerConsumer) ProcessMessage(ctx context.Context, msg v2.PrivateMessage) {
	chat := cleanMessage(msg)
	if ignoredChatters[chat.Username] {
		t.irc.logger.Debug("ignoring bot chatter", "user", chat.Username)
		return
	}

	_, err := t.irc.db.InsertChatMessage(ctx, chat)
	if err != nil {
		t.irc.logger.Error("failed to archive twitch message", "error", err.Error())
	}

	if !t.irc.opts.Training {
		return
	}
	t.irc.markov.Buffer.Record(msg.ID, chat.Text)
	metrics.MessagesObserved.Add(1)
	metrics.TrainingBufferSize.Set(float64(t.irc.markov.Buffer.Len()))
}

// responderConsumer answers !sentence commands and messages that talk
// to the bot.
type responderConsumer struct {
	irc *IRC
}

func (r *responderConsumer) Name() string { return "responder" }

func (r *responderConsumer) ProcessMessage(ctx context.Context, msg v2.PrivateMessage) {
	chat := cleanMessage(msg)
	if ignoredChatters[chat.Username] {
		return
	}

	seed, isCommand := sentenceSeed(chat.Text)
	if !isCommand {
		if !mentionsBot(chat.Text) {
			return
		}
		seed = mentionSeed(chat.Text)
	}

	text := r.generate(seed)
	r.irc.Say(text)
	r.irc.logger.Debug("answered chat", "user", chat.Username, "seed", seed)

	err := r.irc.db.InsertBotResponse(ctx, types.BotResponse{
		Seed:   seed,
		Text:   text,
		Source: types.SourceMarkov,
		Time:   chat.Time,
	})
	if err != nil {
		r.irc.logger.Error("failed to archive twitch response", "error", err.Error())
	}
}

// generate routes single-word seeds through the pregen cache and
// everything else to the generator.
func (r *responderConsumer) generate(seed string) string {
	words := strings.Fields(seed)
	if len(words) == 1 && r.irc.markov.Pregen != nil {
		return r.irc.markov.Pregen.Get(words[0])
	}
	return r.irc.markov.Generator.Generate(seed)
}

// mentionSeed picks the first word of the message that is not the
// bot's name to seed the reply.
func mentionSeed(text string) string {
	for _, word := range strings.Fields(text) {
		if mentionsBot(word) {
			continue
		}
		return word
	}
	return ""
}
