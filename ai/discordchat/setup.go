// package discordchat implements the chatter interface for discord
// mentions.
package discordchat

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Soypete/discord-markov-bot/database"
	"github.com/Soypete/discord-markov-bot/logging"
)

// Bot is a client for interacting with the OpenAI-compatible LLM and the
// response archive.
type Bot struct {
	llm         llms.Model
	db          database.ResponseWriter
	modelName   string
	chatHistory []llms.MessageContent
	logger      *logging.Logger
}

// Setup creates a new discord LLM chatter.
func Setup(db database.ResponseWriter, modelName string, llmPath string, logger *logging.Logger) (*Bot, error) {
	if logger == nil {
		logger = logging.Default()
	}

	logger.Info("setting up discord LLM chatter", "model", modelName, "path", llmPath)

	opts := []openai.Option{
		openai.WithBaseURL(llmPath),
		openai.WithModel(modelName),
	}
	llm, err := openai.New(opts...)
	if err != nil {
		logger.Error("failed to create OpenAI LLM", "error", err.Error())
		return nil, fmt.Errorf("failed to create OpenAI LLM: %w", err)
	}

	return &Bot{
		llm:       llm,
		db:        db,
		modelName: modelName,
		logger:    logger,
	}, nil
}
