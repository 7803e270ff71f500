package conf

import (
	"errors"
	"testing"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"DEEPSEEK_API_KEY", "DISCORD_TOKEN", "AUTOREPLY_ENABLED", "REPLY_FREQUENCY",
		"CHANNEL_IDS", "IGNORE_USER_IDS", "MIN_DELAY_MS", "MAX_DELAY_MS", "MAX_QUEUE_LENGTH",
		"API_PORT", "PROMPTS_CONFIG_PATH", "DEBUG",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("SETTINGS_DB_PATH", "/tmp/x/settings.db")

	cfg := LoadFromEnv()
	def := domain.DefaultSettings()

	assert.False(t, cfg.AutoReply.Enabled)
	assert.Equal(t, def.ReplyFrequency, cfg.AutoReply.ReplyFrequency)
	assert.Equal(t, def.MinDelayMs, cfg.AutoReply.MinDelayMs)
	assert.Equal(t, def.MaxDelayMs, cfg.AutoReply.MaxDelayMs)
	assert.Equal(t, def.MaxQueueLength, cfg.AutoReply.MaxQueueLength)
	assert.Nil(t, cfg.AutoReply.ChannelIDs)
	assert.Equal(t, DefaultAPIPort, cfg.API.Port)
	assert.Equal(t, "/tmp/x/settings.db", cfg.Store.DBPath)
	assert.NotNil(t, cfg.Prompts)
	assert.False(t, cfg.Debug)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk")
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("AUTOREPLY_ENABLED", "true")
	t.Setenv("REPLY_FREQUENCY", "75")
	t.Setenv("CHANNEL_IDS", " c1, ,c2 ")
	t.Setenv("IGNORE_USER_IDS", "u9")
	t.Setenv("MIN_DELAY_MS", "100")
	t.Setenv("MAX_DELAY_MS", "200")
	t.Setenv("MAX_QUEUE_LENGTH", "bogus")
	t.Setenv("API_PORT", "8080")
	t.Setenv("PROMPTS_CONFIG_PATH", "")
	t.Setenv("DEBUG", "true")

	cfg := LoadFromEnv()
	require.NoError(t, cfg.Validate())

	s := cfg.ToSettings()
	assert.True(t, s.Enabled)
	assert.Equal(t, 75, s.ReplyFrequency)
	assert.Equal(t, "sk", s.APIKey)
	assert.Equal(t, "tok", s.OutboundToken)
	assert.Equal(t, []string{"c1", "c2"}, s.ChannelIDs)
	assert.Equal(t, []string{"u9"}, s.IgnoreUserIDs)
	assert.Equal(t, 100, s.MinDelayMs)
	assert.Equal(t, 200, s.MaxDelayMs)
	assert.Equal(t, domain.DefaultMaxQueueLength, s.MaxQueueLength)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.True(t, cfg.Debug)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Discord:   DiscordConfig{Token: "tok"},
			AutoReply: AutoReplyConfig{ReplyFrequency: 30, MinDelayMs: 1, MaxDelayMs: 2, MaxQueueLength: 10},
			API:       APIConfig{Port: DefaultAPIPort},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing token", func(c *Config) { c.Discord.Token = "" }, "DISCORD_TOKEN"},
		{"frequency", func(c *Config) { c.AutoReply.ReplyFrequency = 101 }, "REPLY_FREQUENCY"},
		{"delays", func(c *Config) { c.AutoReply.MaxDelayMs = 0 }, "MIN_DELAY_MS/MAX_DELAY_MS"},
		{"queue", func(c *Config) { c.AutoReply.MaxQueueLength = 0 }, "MAX_QUEUE_LENGTH"},
		{"port", func(c *Config) { c.API.Port = 70000 }, "API_PORT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}
