package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Soypete/discord-markov-bot/logging"
)

// Config represents the full bot configuration file structure
type Config struct {
	// LogLevel controls log verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// Markov configures the chain model and sentence generation
	Markov MarkovConfig `yaml:"markov"`

	// Pregen configures the background sentence pregeneration queues
	Pregen PregenConfig `yaml:"pregen"`

	// Training configures online learning from observed chat
	Training TrainingConfig `yaml:"training"`

	// Discord configures the discord surface
	Discord DiscordConfig `yaml:"discord"`

	// Twitch configures the twitch IRC surface
	Twitch TwitchConfig `yaml:"twitch"`

	// AI configures the optional LLM chatter used for direct mentions
	AI AIConfig `yaml:"ai"`
}

// MarkovConfig holds the chain and generator settings
type MarkovConfig struct {
	// ChainFile is the path of the persisted chain artifact.
	// A .bak sibling is written next to it before every update
	ChainFile string `yaml:"chain_file"`

	// Order is the number of context words per chain state.
	// Only used when building a chain from scratch; a loaded
	// artifact keeps the order it was trained with
	Order int `yaml:"order"`

	// Attempts is how many times generation retries before falling back
	Attempts int `yaml:"attempts"`

	// MaxWords caps the length of a generated sentence in words
	MaxWords int `yaml:"max_words"`

	// Enabled turns sentence generation on. Defaults to true
	Enabled *bool `yaml:"enabled,omitempty"`
}

// PregenConfig holds the pregeneration queue settings
type PregenConfig struct {
	// SeedWords are the words that get a standing queue of ready sentences
	SeedWords []string `yaml:"seed_words"`

	// Amount is the target queue depth per seed word
	Amount *int `yaml:"amount,omitempty"`

	// RegenerateLimit is the depth below which a queue gets topped up
	RegenerateLimit *int `yaml:"regenerate_limit,omitempty"`

	// IntervalSeconds is how often the refill loop checks the queues
	IntervalSeconds *int `yaml:"interval_seconds,omitempty"`
}

// TrainingConfig holds the online learning settings
type TrainingConfig struct {
	// Enabled turns message collection and chain updates on. Defaults to true
	Enabled *bool `yaml:"enabled,omitempty"`

	// UpdateIntervalHours is how often the chain retrains on buffered chat
	UpdateIntervalHours *int `yaml:"update_interval_hours,omitempty"`
}

// DiscordConfig holds the discord surface settings.
// The bot token comes from the DISCORD_SECRET environment variable
type DiscordConfig struct {
	// GuildID scopes slash command registration to a single guild.
	// Empty registers the commands globally
	GuildID string `yaml:"guild_id,omitempty"`
}

// TwitchConfig holds the twitch IRC settings.
// The token comes from TWITCH_OAUTH_TOKEN, or from the interactive
// consent flow using TWITCH_ID and TWITCH_SECRET
type TwitchConfig struct {
	// Channel is the twitch channel the bot joins
	Channel string `yaml:"channel"`

	// Username is the bot's twitch login name
	Username string `yaml:"username"`
}

// AIConfig holds the LLM chatter settings
type AIConfig struct {
	// Enabled turns LLM replies to direct mentions on. Defaults to false,
	// in which case mentions get a markov sentence instead
	Enabled *bool `yaml:"enabled,omitempty"`

	// URL is the OpenAI-compatible endpoint of the model server
	URL string `yaml:"url,omitempty"`

	// ModelName is the model to request from the server
	ModelName string `yaml:"model_name,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	enabled := true
	disabled := false
	amount := 10
	regenerate := 5
	interval := 5
	updateHours := 6

	return &Config{
		LogLevel: string(logging.LogLevelInfo),
		Markov: MarkovConfig{
			ChainFile: "data/chain.json",
			Order:     2,
			Attempts:  10,
			MaxWords:  200,
			Enabled:   &enabled,
		},
		Pregen: PregenConfig{
			SeedWords:       []string{"help", "sentence", "oracle", "news", "weather"},
			Amount:          &amount,
			RegenerateLimit: &regenerate,
			IntervalSeconds: &interval,
		},
		Training: TrainingConfig{
			Enabled:             &enabled,
			UpdateIntervalHours: &updateHours,
		},
		Twitch: TwitchConfig{
			Username: "margobot",
		},
		AI: AIConfig{
			Enabled:   &disabled,
			URL:       "http://localhost:8080/v1",
			ModelName: "llama3",
		},
	}
}

// LoadConfig loads bot configuration from a YAML file. An empty path
// returns the defaults so the bot can run without a config file
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Start with defaults
	config := DefaultConfig()

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	applyDefaults(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// validateConfig ensures required fields are present and values are sensible
func validateConfig(config *Config) error {
	switch logging.LogLevel(config.LogLevel) {
	case logging.LogLevelDebug, logging.LogLevelInfo, logging.LogLevelWarn, logging.LogLevelError:
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", config.LogLevel)
	}

	if config.Markov.ChainFile == "" {
		return fmt.Errorf("markov.chain_file is required")
	}

	if config.Markov.Order < 1 {
		return fmt.Errorf("markov.order must be at least 1, got %d", config.Markov.Order)
	}

	if config.Markov.Attempts < 1 {
		return fmt.Errorf("markov.attempts must be at least 1, got %d", config.Markov.Attempts)
	}

	if config.Markov.MaxWords < 1 {
		return fmt.Errorf("markov.max_words must be at least 1, got %d", config.Markov.MaxWords)
	}

	for i, word := range config.Pregen.SeedWords {
		if word == "" || strings.ContainsAny(word, " \t\n") {
			return fmt.Errorf("pregen.seed_words[%d]: seed words must be single non-empty words, got %q", i, word)
		}
	}

	if *config.Pregen.Amount < 1 {
		return fmt.Errorf("pregen.amount must be at least 1, got %d", *config.Pregen.Amount)
	}

	if *config.Pregen.RegenerateLimit < 1 || *config.Pregen.RegenerateLimit > *config.Pregen.Amount {
		return fmt.Errorf("pregen.regenerate_limit must be between 1 and pregen.amount, got %d", *config.Pregen.RegenerateLimit)
	}

	if *config.Pregen.IntervalSeconds < 1 {
		return fmt.Errorf("pregen.interval_seconds must be at least 1, got %d", *config.Pregen.IntervalSeconds)
	}

	if *config.Training.UpdateIntervalHours < 1 {
		return fmt.Errorf("training.update_interval_hours must be at least 1, got %d", *config.Training.UpdateIntervalHours)
	}

	if *config.AI.Enabled && config.AI.URL == "" {
		return fmt.Errorf("ai.url is required when ai.enabled is true")
	}

	return nil
}

// applyDefaults fills in pointer fields the file left unset
func applyDefaults(config *Config) {
	defaults := DefaultConfig()

	if config.Markov.Enabled == nil {
		config.Markov.Enabled = defaults.Markov.Enabled
	}
	if config.Pregen.Amount == nil {
		config.Pregen.Amount = defaults.Pregen.Amount
	}
	if config.Pregen.RegenerateLimit == nil {
		config.Pregen.RegenerateLimit = defaults.Pregen.RegenerateLimit
	}
	if config.Pregen.IntervalSeconds == nil {
		config.Pregen.IntervalSeconds = defaults.Pregen.IntervalSeconds
	}
	if config.Training.Enabled == nil {
		config.Training.Enabled = defaults.Training.Enabled
	}
	if config.Training.UpdateIntervalHours == nil {
		config.Training.UpdateIntervalHours = defaults.Training.UpdateIntervalHours
	}
	if config.AI.Enabled == nil {
		config.AI.Enabled = defaults.AI.Enabled
	}
}

// GenerationEnabled returns whether markov generation is on (true if nil or true)
func (c *MarkovConfig) GenerationEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// TrainingEnabled returns whether online learning is on (true if nil or true)
func (c *TrainingConfig) TrainingEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// UpdateInterval returns the retrain interval as a duration
func (c *TrainingConfig) UpdateInterval() time.Duration {
	if c.UpdateIntervalHours == nil {
		return 6 * time.Hour
	}
	return time.Duration(*c.UpdateIntervalHours) * time.Hour
}

// Interval returns the refill check interval as a duration
func (c *PregenConfig) Interval() time.Duration {
	if c.IntervalSeconds == nil {
		return 5 * time.Second
	}
	return time.Duration(*c.IntervalSeconds) * time.Second
}

// AIEnabled returns whether the LLM chatter is on (false if nil)
func (c *AIConfig) AIEnabled() bool {
	return c.Enabled != nil && *c.Enabled
}
