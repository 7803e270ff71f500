package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
	"github.com/chatops-lab/discord-autoreply/internal/biz/usecase"
)

// Config represents application configuration
type Config struct {
	// Completion backend (OpenAI-compatible)
	DeepSeek DeepSeekConfig

	// Discord REST + gateway
	Discord DiscordConfig

	// Seed values for the live settings
	AutoReply AutoReplyConfig

	// Settings store
	Store StoreConfig

	// Control API
	API APIConfig

	// Prompts configuration (loaded from YAML)
	Prompts *PromptsConfig

	// Debug mode
	Debug bool
}

// DeepSeekConfig contains completion backend configuration
type DeepSeekConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// DiscordConfig contains Discord configuration
type DiscordConfig struct {
	Token      string
	APIBase    string
	GatewayURL string
}

// AutoReplyConfig contains the seed values of the live settings
type AutoReplyConfig struct {
	Enabled        bool
	ReplyFrequency int
	ChannelIDs     []string
	IgnoreUserIDs  []string
	MinDelayMs     int
	MaxDelayMs     int
	MaxQueueLength int
}

// StoreConfig contains settings store configuration
type StoreConfig struct {
	DBPath string
}

// APIConfig contains control API configuration
type APIConfig struct {
	Port int
}

// DefaultAPIPort is the loopback port of the control API
const DefaultAPIPort = 9871

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	defaults := domain.DefaultSettings()

	// Settings DB path
	dbPath := os.Getenv("SETTINGS_DB_PATH")
	if dbPath == "" {
		homeDir, _ := os.UserHomeDir()
		dbPath = filepath.Join(homeDir, ".discord-autoreply", "settings.db")
	}

	// Load prompts from YAML
	promptsConfig, err := LoadPromptsConfig(os.Getenv("PROMPTS_CONFIG_PATH"))
	if err != nil {
		promptsConfig = DefaultPromptsConfig()
	}

	return &Config{
		DeepSeek: DeepSeekConfig{
			APIKey:  os.Getenv("DEEPSEEK_API_KEY"),
			Model:   os.Getenv("DEEPSEEK_MODEL"),
			BaseURL: os.Getenv("DEEPSEEK_BASE_URL"),
		},
		Discord: DiscordConfig{
			Token:      os.Getenv("DISCORD_TOKEN"),
			APIBase:    os.Getenv("DISCORD_API_BASE"),
			GatewayURL: os.Getenv("DISCORD_GATEWAY_URL"),
		},
		AutoReply: AutoReplyConfig{
			Enabled:        envBool("AUTOREPLY_ENABLED", defaults.Enabled),
			ReplyFrequency: envInt("REPLY_FREQUENCY", defaults.ReplyFrequency),
			ChannelIDs:     envList("CHANNEL_IDS"),
			IgnoreUserIDs:  envList("IGNORE_USER_IDS"),
			MinDelayMs:     envInt("MIN_DELAY_MS", defaults.MinDelayMs),
			MaxDelayMs:     envInt("MAX_DELAY_MS", defaults.MaxDelayMs),
			MaxQueueLength: envInt("MAX_QUEUE_LENGTH", defaults.MaxQueueLength),
		},
		Store: StoreConfig{
			DBPath: dbPath,
		},
		API: APIConfig{
			Port: envInt("API_PORT", DefaultAPIPort),
		},
		Prompts: promptsConfig,
		Debug:   os.Getenv("DEBUG") == "true",
	}
}

// ToSettings converts the env seed into a settings snapshot
func (c *Config) ToSettings() domain.Settings {
	return domain.Settings{
		Enabled:        c.AutoReply.Enabled,
		ReplyFrequency: c.AutoReply.ReplyFrequency,
		APIKey:         c.DeepSeek.APIKey,
		OutboundToken:  c.Discord.Token,
		ChannelIDs:     c.AutoReply.ChannelIDs,
		IgnoreUserIDs:  c.AutoReply.IgnoreUserIDs,
		MinDelayMs:     c.AutoReply.MinDelayMs,
		MaxDelayMs:     c.AutoReply.MaxDelayMs,
		MaxQueueLength: c.AutoReply.MaxQueueLength,
	}.Normalize()
}

// ToPromptConfig converts to prompt configuration
func (c *Config) ToPromptConfig() usecase.PromptConfig {
	if c.Prompts == nil {
		return usecase.DefaultPromptConfig
	}
	return c.Prompts.ToPromptConfig()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return &ConfigError{Field: "DISCORD_TOKEN", Message: "required"}
	}
	if c.AutoReply.ReplyFrequency < 0 || c.AutoReply.ReplyFrequency > 100 {
		return &ConfigError{Field: "REPLY_FREQUENCY", Message: "must be between 0 and 100"}
	}
	if c.AutoReply.MinDelayMs < 0 || c.AutoReply.MaxDelayMs < c.AutoReply.MinDelayMs {
		return &ConfigError{Field: "MIN_DELAY_MS/MAX_DELAY_MS", Message: "need 0 <= min <= max"}
	}
	if c.AutoReply.MaxQueueLength < 1 {
		return &ConfigError{Field: "MAX_QUEUE_LENGTH", Message: "must be at least 1"}
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return &ConfigError{Field: "API_PORT", Message: "invalid port"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

func envInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return def
}

// envList splits a comma separated value, dropping blanks
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
