package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
	"github.com/chatops-lab/discord-autoreply/internal/biz/repo"
	"go.uber.org/zap"
)

// CooldownMargin is added to every cooldown wait
const CooldownMargin = time.Second

// ErrMissingOutboundToken is returned when no outbound credential is configured
var ErrMissingOutboundToken = errors.New("outbound token not set")

// SenderUsecase posts replies and records the rate-limit windows it observes
type SenderUsecase struct {
	outbound  repo.OutboundRepo
	cooldowns *CooldownTracker
	settings  SettingsProvider
	sleep     SleepFunc
	logger    *zap.Logger
}

// NewSenderUsecase creates a new sender usecase
func NewSenderUsecase(
	outbound repo.OutboundRepo,
	cooldowns *CooldownTracker,
	settings SettingsProvider,
	sleep SleepFunc,
	logger *zap.Logger,
) *SenderUsecase {
	if sleep == nil {
		sleep = Sleep
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SenderUsecase{
		outbound:  outbound,
		cooldowns: cooldowns,
		settings:  settings,
		sleep:     sleep,
		logger:    logger.Named("sender"),
	}
}

// Send posts text to channelID, first waiting out any cooldown on the channel.
// A nil error means the platform accepted the message.
func (uc *SenderUsecase) Send(ctx context.Context, channelID, text string) error {
	for uc.cooldowns.InCooldown(channelID) {
		wait := uc.cooldowns.Remaining(channelID) + CooldownMargin
		uc.logger.Info("channel in cooldown before send, waiting",
			zap.String("channel", channelID),
			zap.Duration("wait", wait))
		if err := uc.sleep(ctx, wait); err != nil {
			return err
		}
	}

	token := uc.settings.Current().OutboundToken
	if token == "" {
		return ErrMissingOutboundToken
	}

	info, err := uc.outbound.PostMessage(ctx, token, channelID, text)
	if err != nil {
		var rl *repo.RateLimitError
		if errors.As(err, &rl) {
			uc.cooldowns.Record(channelID, rl.RetryAfter, domain.CooldownSourceRateLimit)
		}
		uc.logger.Warn("send failed", zap.String("channel", channelID), zap.Error(err))
		return fmt.Errorf("send message: %w", err)
	}

	if info.Exhausted() {
		uc.cooldowns.Record(channelID, info.ResetAfter, domain.CooldownSourceQuota)
	}

	uc.logger.Info("message sent", zap.String("channel", channelID))
	return nil
}
