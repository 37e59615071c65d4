package discord

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Soypete/discord-markov-bot/metrics"
	"github.com/Soypete/discord-markov-bot/types"
)

// onMessageCreate archives guild chatter, records it for the next
// chain update, and answers when the bot is mentioned.
func (d *Client) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	metrics.DiscordMessageReceived.Add(1)
	ctx := context.Background()

	_, err := d.db.InsertChatMessage(ctx, types.ChatMessage{
		Platform: types.PlatformDiscord,
		Username: m.Author.Username,
		Text:     m.Content,
		Time:     time.Now(),
	})
	if err != nil {
		d.logger.Error("failed to archive discord message", "error", err)
	}

	if d.opts.Training {
		d.markov.Buffer.Record(m.ID, m.Content)
		metrics.MessagesObserved.Add(1)
		metrics.TrainingBufferSize.Set(float64(d.markov.Buffer.Len()))
	}

	if d.mentionsBot(s, m) {
		d.replyToMention(ctx, s, m)
	}
}

// onMessageDelete drops deleted messages from the training buffer so
// the next update cannot learn them.
func (d *Client) onMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	if !d.opts.Training {
		return
	}
	d.markov.Buffer.Discard(m.ID)
	metrics.MessagesDiscarded.Add(1)
	metrics.TrainingBufferSize.Set(float64(d.markov.Buffer.Len()))
}

func (d *Client) mentionsBot(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	if s.State.User == nil {
		return false
	}
	for _, user := range m.Mentions {
		if user.ID == s.State.User.ID {
			return true
		}
	}
	return false
}

// replyToMention answers a direct mention. The LLM gets first crack
// when it is configured, otherwise the markov chain answers with the
// first word of the question as its seed.
func (d *Client) replyToMention(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	question := stripMention(m.Content, s.State.User.ID)

	var text string
	if d.llm != nil {
		var err error
		text, err = d.llm.SingleMessageResponse(ctx, types.ChatMessage{
			Platform: types.PlatformDiscord,
			Username: m.Author.Username,
			Text:     question,
			Time:     time.Now(),
		})
		if err != nil {
			d.logger.Error("llm reply failed, falling back to markov", "error", err)
			text = ""
		}
	}
	if text == "" {
		seed := ""
		if words := strings.Fields(question); len(words) > 0 {
			seed = words[0]
		}
		text = d.markov.Generator.Generate(seed)
		err := d.db.InsertBotResponse(ctx, types.BotResponse{
			Seed:   seed,
			Text:   text,
			Source: types.SourceMarkov,
			Time:   time.Now(),
		})
		if err != nil {
			d.logger.Error("failed to archive mention response", "error", err)
		}
	}

	_, err := s.ChannelMessageSendReply(m.ChannelID, text, m.Reference())
	if err != nil {
		d.logger.Error("failed to reply to mention", "error", err)
		return
	}
	metrics.DiscordMessageSent.Add(1)
}

// stripMention removes the bot's own mention tokens so they do not
// leak into the llm prompt or the markov seed.
func stripMention(content, botID string) string {
	content = strings.ReplaceAll(content, "<@"+botID+">", "")
	content = strings.ReplaceAll(content, "<@!"+botID+">", "")
	return strings.TrimSpace(content)
}
