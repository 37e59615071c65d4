package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Soypete/discord-markov-bot/types"
)

// MessageWriter archives observed chat messages.
type MessageWriter interface {
	InsertChatMessage(ctx context.Context, msg types.ChatMessage) (uuid.UUID, error)
}

// InsertChatMessage archives a chat message and returns its assigned ID.
// The archive keeps messages from every platform in one table, which is
// what the trainer CLI bulk-loads from later.
func (p *Postgres) InsertChatMessage(ctx context.Context, msg types.ChatMessage) (uuid.UUID, error) {
	p.logger.Debug("generating UUID for message", "user", msg.Username)
	ID, err := uuid.NewUUID()
	if err != nil {
		p.logger.Error("error generating UUID", "error", err.Error())
		return uuid.UUID{}, fmt.Errorf("error generating UUID: %w", err)
	}
	msg.UUID = ID

	query := "INSERT INTO chat_message (platform, username, message, is_command, created_at, uuid) VALUES (:platform, :username, :message, :is_command, :created_at, :uuid)"
	p.logger.Debug("inserting message into database", "messageID", ID, "user", msg.Username)

	_, err = p.connections.NamedExecContext(ctx, query, msg)
	if err != nil {
		p.logger.Error("error inserting message into database", "error", err.Error(), "messageID", ID)
		return uuid.UUID{}, fmt.Errorf("error inserting message: %w", err)
	}

	p.logger.Debug("message inserted successfully", "messageID", ID)
	return ID, nil
}

// GetRecentMessages returns the archived text of the latest non-command
// messages, newest first. The trainer CLI uses it to rebuild a chain
// from history.
func (p *Postgres) GetRecentMessages(ctx context.Context, limit int) ([]string, error) {
	var texts []string
	query := "SELECT message FROM chat_message WHERE is_command = false ORDER BY created_at DESC LIMIT $1"
	if err := p.connections.SelectContext(ctx, &texts, query, limit); err != nil {
		p.logger.Error("error selecting recent messages", "error", err.Error())
		return nil, fmt.Errorf("error selecting recent messages: %w", err)
	}
	return texts, nil
}
