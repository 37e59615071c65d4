package database

import (
	"context"
	"fmt"
)

// WordPicker serves the word lists behind the oracle and bad word
// commands.
type WordPicker interface {
	RandomOracleWords(ctx context.Context, count int) ([]string, error)
	RandomBadWord(ctx context.Context) (string, error)
}

// RandomOracleWords returns count random words from the oracle list.
func (p *Postgres) RandomOracleWords(ctx context.Context, count int) ([]string, error) {
	var words []string
	query := "SELECT word FROM oracle_word ORDER BY RANDOM() LIMIT $1"
	if err := p.connections.SelectContext(ctx, &words, query, count); err != nil {
		p.logger.Error("error selecting oracle words", "error", err.Error())
		return nil, fmt.Errorf("error selecting oracle words: %w", err)
	}
	return words, nil
}

// RandomBadWord returns one random word from the bad word list.
func (p *Postgres) RandomBadWord(ctx context.Context) (string, error) {
	var word string
	query := "SELECT word FROM bad_word ORDER BY RANDOM() LIMIT 1"
	if err := p.connections.GetContext(ctx, &word, query); err != nil {
		p.logger.Error("error selecting bad word", "error", err.Error())
		return "", fmt.Errorf("error selecting bad word: %w", err)
	}
	return word, nil
}
