package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Soypete/discord-markov-bot/ai"
	"github.com/Soypete/discord-markov-bot/ai/discordchat"
	"github.com/Soypete/discord-markov-bot/config"
	"github.com/Soypete/discord-markov-bot/database"
	"github.com/Soypete/discord-markov-bot/discord"
	"github.com/Soypete/discord-markov-bot/logging"
	"github.com/Soypete/discord-markov-bot/markov"
	"github.com/Soypete/discord-markov-bot/metrics"
	"github.com/Soypete/discord-markov-bot/secrets"
	twitchirc "github.com/Soypete/discord-markov-bot/twitch"
	"github.com/Soypete/discord-markov-bot/watcher"
)

func main() {

	var configPath string
	var startDiscord bool
	var startTwitch bool
	flag.StringVar(&configPath, "config", "", "Path to the yaml config file")
	flag.BoolVar(&startDiscord, "discordMode", true, "Start the discord bot")
	flag.BoolVar(&startTwitch, "twitchMode", false, "Start the twitch IRC bot")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	wg := &sync.WaitGroup{}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalln(err)
	}
	logger := logging.NewLogger(logging.LogLevel(cfg.LogLevel), os.Stdout)

	// secrets from 1password when deployed with a service account
	if err := secrets.Init(ctx); err != nil {
		log.Fatalln(err)
	}

	// listen and serve for metrics server.
	server := metrics.SetupServer()
	go server.Run()

	// setup postgres connection
	db, err := database.NewPostgres(logger)
	if err != nil {
		log.Fatalln(err)
	}

	// load the chain artifact and wire the markov machinery
	store := markov.NewStore(cfg.Markov.ChainFile, logger)
	chain, err := store.Load(cfg.Markov.Order)
	if err != nil {
		log.Fatalln(err)
	}
	model := markov.NewModel(chain)
	gen := markov.NewGenerator(model, markov.GeneratorOptions{
		Attempts: cfg.Markov.Attempts,
		MaxWords: cfg.Markov.MaxWords,
		Disabled: !cfg.Markov.GenerationEnabled(),
	}, logger)
	buffer := markov.NewTrainingBuffer()
	updater := markov.NewUpdater(store, model, buffer, logger)
	pregen := markov.NewPregen(gen, markov.PregenOptions{
		SeedWords: cfg.Pregen.SeedWords,
		Amount:    *cfg.Pregen.Amount,
		LowWater:  *cfg.Pregen.RegenerateLimit,
		Interval:  cfg.Pregen.Interval(),
	}, logger)

	training := cfg.Training.TrainingEnabled()

	wg.Add(1)
	go func() {
		defer wg.Done()
		pregen.Run(ctx)
	}()

	if training {
		wg.Add(1)
		go func() {
			defer wg.Done()
			updater.RunPeriodic(ctx, cfg.Training.UpdateInterval())
		}()
	}

	// reload the chain when the trainer CLI rewrites the artifact
	chainWatcher, err := watcher.NewChainWatcher(store.Path(), func(context.Context) error {
		fresh, err := store.Load(model.Chain().Order())
		if err != nil {
			return err
		}
		model.Swap(fresh)
		return nil
	}, logger)
	if err != nil {
		log.Fatalln(err)
	}
	if err := chainWatcher.Start(ctx); err != nil {
		log.Fatalln(err)
	}

	// optional LLM chatter for direct mentions
	var chatter ai.Chatter
	if cfg.AI.AIEnabled() {
		llmBot, err := discordchat.Setup(db, cfg.AI.ModelName, cfg.AI.URL, logger)
		if err != nil {
			log.Fatalln(err)
		}
		chatter = llmBot
	}

	var session *discord.Client
	if startDiscord {
		session, err = discord.Setup(
			discord.Markov{Generator: gen, Pregen: pregen, Updater: updater, Buffer: buffer},
			db, chatter,
			discord.Options{GuildID: cfg.Discord.GuildID, Training: training},
			logger)
		if err != nil {
			fmt.Println(err)
			stop <- os.Interrupt
		}
	}

	var irc *twitchirc.IRC
	if startTwitch {
		irc, err = twitchirc.SetupTwitchIRC(
			twitchirc.Markov{Generator: gen, Pregen: pregen, Buffer: buffer},
			db,
			twitchirc.Options{Channel: cfg.Twitch.Channel, Username: cfg.Twitch.Username, Training: training},
			logger)
		if err != nil {
			fmt.Println(err)
			stop <- os.Interrupt
		}
		if irc != nil {
			http.HandleFunc("/twitch/auth/health", irc.AuthHealthHandler())
			err = irc.ConnectIRC(ctx, wg)
			if err != nil {
				fmt.Println(err)
				stop <- os.Interrupt
			}
			go func() {
				err := irc.Client.Connect()
				if err != nil {
					fmt.Println(err)
					stop <- os.Interrupt
				}
			}()
		}
	}

	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	logger.Info("margobot is up", "discord", startDiscord, "twitch", startTwitch, "training", training)
	shutdown(cancel, wg, irc, session, chainWatcher, updater, training, stop, logger)
}

// shutdown closes the chat surfaces, folds any remaining chatter into
// the chain, and waits for the background loops to drain.
func shutdown(cancel context.CancelFunc, wg *sync.WaitGroup,
	irc *twitchirc.IRC, session *discord.Client, chainWatcher *watcher.ChainWatcher,
	updater *markov.Updater, training bool, stop chan os.Signal, logger *logging.Logger) {
	<-stop
	logger.Info("shutting down")

	if session != nil {
		session.RemoveCommands()
		if err := session.Session.Close(); err != nil {
			logger.Error("failed to close discord session", "error", err)
		}
	}
	if irc != nil && irc.Client != nil {
		if err := irc.Client.Disconnect(); err != nil {
			logger.Error("failed to disconnect from twitch", "error", err)
		}
	}

	// last chance to learn from the buffered chatter
	if training {
		result := updater.Update(context.Background())
		if result.Err != nil {
			logger.Error("final chain update failed", "error", result.Err)
		} else {
			logger.Info("final chain update", "outcome", result.Outcome)
		}
	}

	chainWatcher.Stop()
	cancel()
	wg.Wait()
	logger.Info("goodbye")
}
