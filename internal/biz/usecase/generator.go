package usecase

import (
	"context"

	"github.com/chatops-lab/discord-autoreply/internal/biz/repo"
	"go.uber.org/zap"
)

// GeneratorUsecase turns a prompt into reply text
type GeneratorUsecase struct {
	completion   repo.CompletionRepo
	settings     SettingsProvider
	systemPrompt string
	logger       *zap.Logger
}

// NewGeneratorUsecase creates a new generator usecase
func NewGeneratorUsecase(
	completion repo.CompletionRepo,
	settings SettingsProvider,
	systemPrompt string,
	logger *zap.Logger,
) *GeneratorUsecase {
	if systemPrompt == "" {
		systemPrompt = DefaultPromptConfig.SystemPrompt
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeneratorUsecase{
		completion:   completion,
		settings:     settings,
		systemPrompt: systemPrompt,
		logger:       logger.Named("generator"),
	}
}

// Generate returns the reply for prompt, or "" on any failure.
// Failures are logged here and never returned.
func (uc *GeneratorUsecase) Generate(ctx context.Context, prompt string) string {
	reply, err := uc.completion.Complete(ctx, uc.settings.Current().APIKey, uc.systemPrompt, prompt)
	if err != nil {
		uc.logger.Warn("reply generation failed", zap.Error(err))
		return ""
	}
	uc.logger.Debug("reply generated", zap.String("reply", reply))
	return reply
}
