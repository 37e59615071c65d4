// The trainer builds or extends the markov chain artifact outside the
// running bot. It trains on a text file, the postgres chat archive, or
// both, and the bot's artifact watcher picks up the result live.
package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"

	"github.com/Soypete/discord-markov-bot/database"
	"github.com/Soypete/discord-markov-bot/logging"
	"github.com/Soypete/discord-markov-bot/markov"
	"github.com/Soypete/discord-markov-bot/secrets"
)

func main() {
	var chainPath string
	var inputPath string
	var order int
	var fromDB bool
	var dbLimit int
	var fresh bool
	var logLevel string
	flag.StringVar(&chainPath, "chain", "data/chain.json", "Path of the chain artifact")
	flag.StringVar(&inputPath, "input", "", "Text file to train on, one message per line")
	flag.IntVar(&order, "order", markov.DefaultOrder, "Context words per state when building fresh")
	flag.BoolVar(&fromDB, "fromDB", false, "Also train on the postgres chat archive")
	flag.IntVar(&dbLimit, "limit", 10000, "Maximum archived messages to train on")
	flag.BoolVar(&fresh, "fresh", false, "Build a new chain instead of merging into the existing artifact")
	flag.StringVar(&logLevel, "logLevel", "info", "Log verbosity (debug, info, warn, error)")
	flag.Parse()

	ctx := context.Background()
	logger := logging.NewLogger(logging.LogLevel(logLevel), os.Stdout)

	if inputPath == "" && !fromDB {
		log.Fatalln("nothing to train on: pass -input and/or -fromDB")
	}

	var texts []string
	if inputPath != "" {
		lines, err := readLines(inputPath)
		if err != nil {
			log.Fatalln(err)
		}
		logger.Info("read training file", "path", inputPath, "lines", len(lines))
		texts = append(texts, lines...)
	}

	if fromDB {
		if err := secrets.Init(ctx); err != nil {
			log.Fatalln(err)
		}
		db, err := database.NewPostgres(logger)
		if err != nil {
			log.Fatalln(err)
		}
		messages, err := db.GetRecentMessages(ctx, dbLimit)
		if err != nil {
			log.Fatalln(err)
		}
		logger.Info("read chat archive", "messages", len(messages))
		texts = append(texts, messages...)
	}

	trained, err := markov.Build(texts, order)
	if err != nil {
		log.Fatalln(err)
	}
	logger.Info("trained chain", "states", trained.StateCount(), "order", trained.Order())

	store := markov.NewStore(chainPath, logger)
	merged := trained
	if !fresh {
		existing, err := store.Load(order)
		if err != nil {
			log.Fatalln(err)
		}
		merged, err = markov.Merge(existing, trained)
		if err != nil {
			log.Fatalln(err)
		}
		logger.Info("merged into existing chain", "states", merged.StateCount())
	}

	if err := store.Backup(); err != nil {
		log.Fatalln(err)
	}
	if err := store.Save(merged); err != nil {
		log.Fatalln(err)
	}
	logger.Info("saved chain artifact", "path", store.Path(), "states", merged.StateCount())
}

// readLines loads a training file, one message per line. Blank lines
// are skipped here; the chain builder filters the rest.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
