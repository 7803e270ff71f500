package data

import (
	"github.com/chatops-lab/discord-autoreply/internal/biz/repo"
	"github.com/chatops-lab/discord-autoreply/internal/infra/discord"
	"go.uber.org/zap"
)

// Repositories contains all repositories
type Repositories struct {
	Completion repo.CompletionRepo
	Outbound   repo.OutboundRepo
	Source     repo.MessageSource
	Settings   repo.SettingsRepo
}

// Options configures the repositories
type Options struct {
	CompletionBaseURL string
	CompletionModel   string
	DiscordAPIBase    string
	GatewayURL        string
	DiscordToken      string
	SettingsDBPath    string
}

// NewRepositories creates all repositories
func NewRepositories(opts Options, logger *zap.Logger) (*Repositories, error) {
	settingsRepo, err := NewSettingsRepo(opts.SettingsDBPath)
	if err != nil {
		return nil, err
	}

	client := discord.NewClient(opts.DiscordAPIBase, logger)
	gateway := discord.NewGateway(opts.GatewayURL, opts.DiscordToken, logger)

	return &Repositories{
		Completion: NewDeepSeekRepo(opts.CompletionBaseURL, opts.CompletionModel, logger),
		Outbound:   NewDiscordRepo(client),
		Source:     NewGatewaySource(gateway),
		Settings:   settingsRepo,
	}, nil
}

// Close releases resources held by the repositories
func (r *Repositories) Close() error {
	if r.Settings != nil {
		return r.Settings.Close()
	}
	return nil
}
