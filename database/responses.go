package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Soypete/discord-markov-bot/types"
)

// ResponseWriter archives what the bot said.
type ResponseWriter interface {
	InsertBotResponse(ctx context.Context, resp types.BotResponse) error
}

// InsertBotResponse archives a sentence the bot posted, markov and LLM
// alike, so weird output can be traced back to its seed later.
func (p *Postgres) InsertBotResponse(ctx context.Context, resp types.BotResponse) error {
	if resp.UUID == (uuid.UUID{}) {
		ID, err := uuid.NewUUID()
		if err != nil {
			p.logger.Error("error generating UUID", "error", err.Error())
			return fmt.Errorf("error generating UUID: %w", err)
		}
		resp.UUID = ID
	}

	query := "INSERT INTO bot_response (uuid, seed, response, source, model_name, created_at) VALUES ($1, $2, $3, $4, $5, $6)"
	_, err := p.connections.ExecContext(ctx, query,
		resp.UUID, resp.Seed, resp.Text, resp.Source, resp.ModelName, resp.Time)
	if err != nil {
		p.logger.Error("error inserting response", "error", err.Error())
		return fmt.Errorf("error inserting response: %w", err)
	}
	return nil
}
