// The keepalive monitor runs as its own process, watches the bot's
// health endpoints, and posts alerts to discord when checks fail.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/Soypete/discord-markov-bot/keepalive"
	"github.com/Soypete/discord-markov-bot/logging"
)

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func main() {
	botURL := getEnv("BOT_HEALTH_URL", "http://localhost:6060/healthz")
	twitchAuthURL := getEnv("TWITCH_AUTH_HEALTH_URL", "http://localhost:6060/twitch/auth/health")
	llmHealthURL := getEnv("LLM_HEALTH_URL", "")
	discordToken := getEnv("DISCORD_SECRET", "")
	discordUserID := getEnv("DISCORD_ALERT_USER_ID", "")
	logLevel := getEnv("LOG_LEVEL", "info")
	checkInterval := getEnvInt("CHECK_INTERVAL", 60)
	alertInterval := getEnvInt("ALERT_INTERVAL", 3600)

	logger := logging.NewLogger(logging.LogLevel(logLevel), os.Stdout)
	stop := make(chan os.Signal, 1)

	if discordToken == "" {
		logger.Error("DISCORD_SECRET environment variable is required")
		os.Exit(1)
	}

	alerter, err := keepalive.NewDiscordAlerter(discordToken, discordUserID, logger)
	if err != nil {
		logger.Error("failed to create discord alerter", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := alerter.Close(); err != nil {
			logger.Error("failed to close alerter", "error", err.Error())
		}
	}()

	services := []keepalive.ServiceConfig{
		{
			Name:          "margobot",
			HealthURL:     botURL,
			AuthHealthURL: twitchAuthURL,
		},
	}

	// The LLM server is optional; monitor it only when a URL is set
	if llmHealthURL != "" {
		services = append(services, keepalive.ServiceConfig{
			Name:      "llm",
			HealthURL: llmHealthURL,
		})
	}

	kas := keepalive.NewKeepAliveService(
		services,
		time.Duration(checkInterval)*time.Second,
		time.Duration(alertInterval)*time.Second,
		alerter,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		logger.Info("received interrupt signal, shutting down")
		cancel()
	}()

	logger.Info("starting keepalive service",
		"check_interval", checkInterval,
		"alert_interval", alertInterval,
		"services", len(services))

	if err := kas.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("keepalive service stopped", "error", err.Error())
	}
}
