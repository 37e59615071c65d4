package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Soypete/discord-markov-bot/logging"
	"github.com/Soypete/discord-markov-bot/types"
)

func newMockPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return &Postgres{connections: sqlxDB, logger: logging.Discard()}, mock
}

func TestInsertChatMessage(t *testing.T) {
	postgres, mock := newMockPostgres(t)

	msg := types.ChatMessage{
		Platform:  types.PlatformDiscord,
		Username:  "testuser",
		Text:      "hello chat",
		IsCommand: false,
		Time:      time.Now(),
	}

	mock.ExpectExec("INSERT INTO chat_message").
		WithArgs(string(msg.Platform), msg.Username, msg.Text, msg.IsCommand, msg.Time, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	// Execute
	id, err := postgres.InsertChatMessage(context.Background(), msg)

	// Assert
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.UUID{}, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRecentMessages(t *testing.T) {
	postgres, mock := newMockPostgres(t)

	rows := sqlmock.NewRows([]string{"message"}).
		AddRow("newest message").
		AddRow("older message")

	mock.ExpectQuery("SELECT message FROM chat_message WHERE is_command = false ORDER BY created_at DESC LIMIT \\$1").
		WithArgs(2).
		WillReturnRows(rows)

	// Execute
	texts, err := postgres.GetRecentMessages(context.Background(), 2)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, []string{"newest message", "older message"}, texts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBotResponse(t *testing.T) {
	postgres, mock := newMockPostgres(t)

	resp := types.BotResponse{
		UUID:      uuid.New(),
		Seed:      "taco",
		Text:      "taco tuesday is the best day",
		Source:    types.SourceMarkov,
		ModelName: "",
		Time:      time.Now(),
	}

	mock.ExpectExec("INSERT INTO bot_response").
		WithArgs(resp.UUID, resp.Seed, resp.Text, string(resp.Source), resp.ModelName, resp.Time).
		WillReturnResult(sqlmock.NewResult(1, 1))

	// Execute
	err := postgres.InsertBotResponse(context.Background(), resp)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBotResponseAssignsUUID(t *testing.T) {
	postgres, mock := newMockPostgres(t)

	resp := types.BotResponse{
		Text:   "a sentence with no id yet",
		Source: types.SourceMarkov,
		Time:   time.Now(),
	}

	mock.ExpectExec("INSERT INTO bot_response").
		WithArgs(sqlmock.AnyArg(), resp.Seed, resp.Text, string(resp.Source), resp.ModelName, resp.Time).
		WillReturnResult(sqlmock.NewResult(1, 1))

	// Execute
	err := postgres.InsertBotResponse(context.Background(), resp)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRandomOracleWords(t *testing.T) {
	postgres, mock := newMockPostgres(t)

	rows := sqlmock.NewRows([]string{"word"}).
		AddRow("thunder").
		AddRow("covenant").
		AddRow("dust")

	mock.ExpectQuery("SELECT word FROM oracle_word ORDER BY RANDOM\\(\\) LIMIT \\$1").
		WithArgs(3).
		WillReturnRows(rows)

	// Execute
	words, err := postgres.RandomOracleWords(context.Background(), 3)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, []string{"thunder", "covenant", "dust"}, words)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRandomBadWord(t *testing.T) {
	postgres, mock := newMockPostgres(t)

	rows := sqlmock.NewRows([]string{"word"}).AddRow("plonker")

	mock.ExpectQuery("SELECT word FROM bad_word ORDER BY RANDOM\\(\\) LIMIT 1").
		WillReturnRows(rows)

	// Execute
	word, err := postgres.RandomBadWord(context.Background())

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, "plonker", word)
	assert.NoError(t, mock.ExpectationsWereMet())
}
