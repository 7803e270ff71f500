package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
	"github.com/chatops-lab/discord-autoreply/internal/biz/repo"
	"go.uber.org/zap"
)

// SettingsProvider hands out the live settings snapshot
type SettingsProvider interface {
	Current() domain.Settings
}

// SettingsUsecase owns the live settings snapshot
type SettingsUsecase struct {
	repo    repo.SettingsRepo
	current atomic.Pointer[domain.Settings]
	writeMu sync.Mutex
	logger  *zap.Logger

	listenersMu sync.RWMutex
	listeners   []func(domain.Settings)
}

// NewSettingsUsecase creates the usecase seeded with seed.
// A snapshot already persisted in settingsRepo replaces the seed.
func NewSettingsUsecase(ctx context.Context, settingsRepo repo.SettingsRepo, seed domain.Settings, logger *zap.Logger) (*SettingsUsecase, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &SettingsUsecase{
		repo:   settingsRepo,
		logger: logger.Named("settings"),
	}

	initial := seed.Normalize()
	if settingsRepo != nil {
		stored, err := settingsRepo.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		if stored != nil {
			initial = stored.Normalize()
			uc.logger.Info("using persisted settings")
		}
	}
	uc.current.Store(&initial)
	return uc, nil
}

// Current returns the live snapshot
func (uc *SettingsUsecase) Current() domain.Settings {
	return *uc.current.Load()
}

// Update applies patch, persists the result and swaps it in
func (uc *SettingsUsecase) Update(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	uc.writeMu.Lock()
	defer uc.writeMu.Unlock()

	next := patch.Apply(uc.Current())
	if uc.repo != nil {
		if err := uc.repo.Save(ctx, next); err != nil {
			return domain.Settings{}, fmt.Errorf("save settings: %w", err)
		}
	}
	uc.current.Store(&next)

	uc.logger.Info("settings updated",
		zap.Bool("enabled", next.Enabled),
		zap.Int("reply_frequency", next.ReplyFrequency),
		zap.Int("max_queue_length", next.MaxQueueLength))

	uc.listenersMu.RLock()
	listeners := uc.listeners
	uc.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(next)
	}
	return next, nil
}

// OnChange registers fn to run after every successful Update
func (uc *SettingsUsecase) OnChange(fn func(domain.Settings)) {
	uc.listenersMu.Lock()
	defer uc.listenersMu.Unlock()
	uc.listeners = append(uc.listeners, fn)
}
