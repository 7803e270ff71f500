package repo

import (
	"context"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
)

// SettingsRepo persists the settings snapshot (SQLite)
type SettingsRepo interface {
	// Load returns the stored settings, or nil when nothing was saved yet
	Load(ctx context.Context) (*domain.Settings, error)

	// Save replaces the stored settings
	Save(ctx context.Context, settings domain.Settings) error

	Close() error
}
