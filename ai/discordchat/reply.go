package discordchat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/Soypete/discord-markov-bot/ai"
	"github.com/Soypete/discord-markov-bot/metrics"
	"github.com/Soypete/discord-markov-bot/types"
)

// historyLimit caps how many turns of conversation ride along with each
// prompt.
const historyLimit = 10

func (b *Bot) manageChatHistory(injection []string, chatType schema.ChatMessageType) {
	if len(b.chatHistory) >= historyLimit {
		b.chatHistory = b.chatHistory[1:]
	}
	b.chatHistory = append(b.chatHistory, llms.TextParts(chatType, strings.Join(injection, " ")))
}

func (b *Bot) callLLM(ctx context.Context, injection []string) (string, error) {
	b.manageChatHistory(injection, schema.ChatMessageTypeHuman)
	messageHistory := []llms.MessageContent{llms.TextParts(schema.ChatMessageTypeSystem, ai.MargoPrompt)}
	messageHistory = append(messageHistory, b.chatHistory...)

	resp, err := b.llm.GenerateContent(ctx, messageHistory,
		llms.WithCandidateCount(1),
		llms.WithMaxLength(500),
		llms.WithTemperature(0.7),
		llms.WithPresencePenalty(1.0),
		llms.WithStopWords([]string{"@margo", "@Margo", "@MargoBot"}))
	if err != nil {
		return "", fmt.Errorf("failed to get llm response: %w", err)
	}

	cleaned := ai.CleanResponse(resp.Choices[0].Content)
	b.manageChatHistory([]string{cleaned}, llms.ChatMessageTypeAI)

	err = b.db.InsertBotResponse(ctx, types.BotResponse{
		Text:      cleaned,
		Source:    types.SourceLLM,
		ModelName: b.modelName,
		Time:      time.Now(),
	})
	if err != nil {
		return cleaned, fmt.Errorf("failed to write to db: %w", err)
	}
	return cleaned, nil
}

// SingleMessageResponse answers one mention with the running chat
// history as context. An empty model response turns into a polite ask to
// try again rather than silence.
func (b *Bot) SingleMessageResponse(ctx context.Context, msg types.ChatMessage) (string, error) {
	b.logger.Debug("processing mention", "user", msg.Username)

	reply, err := b.callLLM(ctx, []string{fmt.Sprintf("%s: %s", msg.Username, msg.Text)})
	if err != nil {
		metrics.FailedLLMGenCount.Add(1)
		return "", err
	}
	if reply == "" {
		metrics.EmptyLLMResponseCount.Add(1)
		// We are trying to tag the user to get them to try again with a better prompt.
		return fmt.Sprintf("sorry, I cannot respond to @%s. Please try again", msg.Username), nil
	}
	metrics.SuccessfulLLMGenCount.Add(1)
	return reply, nil
}
