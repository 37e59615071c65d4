package types

import (
	"time"

	"github.com/google/uuid"
)

// Platform identifies which chat surface a message came from.
type Platform string

const (
	PlatformDiscord Platform = "discord"
	PlatformTwitch  Platform = "twitch"
)

// ResponseSource identifies which subsystem produced a bot response.
type ResponseSource string

const (
	SourceMarkov ResponseSource = "markov"
	SourceLLM    ResponseSource = "llm"
)

// ChatMessage represents a message observed in chat. Contains the metadata
// needed to archive it and to decide whether it can train the chain.
type ChatMessage struct {
	Platform  Platform  `db:"platform"`
	Username  string    `db:"username"`
	Text      string    `db:"message"`
	IsCommand bool      `db:"is_command"`
	Time      time.Time `db:"created_at"`
	UUID      uuid.UUID `db:"uuid"`
}

// BotResponse represents a sentence the bot posted, markov or LLM made.
type BotResponse struct {
	UUID      uuid.UUID      `db:"uuid"`
	Seed      string         `db:"seed"`
	Text      string         `db:"response"`
	Source    ResponseSource `db:"source"`
	ModelName string         `db:"model_name"`
	Time      time.Time      `db:"created_at"`
}
