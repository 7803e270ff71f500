package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chatops-lab/discord-autoreply/internal/api"
	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
	"github.com/chatops-lab/discord-autoreply/internal/biz/usecase"
	"github.com/chatops-lab/discord-autoreply/internal/data"
	"github.com/chatops-lab/discord-autoreply/internal/server"
	"github.com/chatops-lab/discord-autoreply/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch Discord channels and reply to selected messages",
	RunE:  runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize repository layer
	repos, err := data.NewRepositories(data.Options{
		CompletionBaseURL: cfg.DeepSeek.BaseURL,
		CompletionModel:   cfg.DeepSeek.Model,
		DiscordAPIBase:    cfg.Discord.APIBase,
		GatewayURL:        cfg.Discord.GatewayURL,
		DiscordToken:      cfg.Discord.Token,
		SettingsDBPath:    cfg.Store.DBPath,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create repositories: %w", err)
	}
	defer repos.Close()

	logger.Info("settings store opened", zap.String("path", cfg.Store.DBPath))

	// Initialize usecase layer
	settingsUC, err := usecase.NewSettingsUsecase(ctx, repos.Settings, cfg.ToSettings(), logger)
	if err != nil {
		return err
	}
	prompts := cfg.ToPromptConfig()
	history := domain.NewMessageHistory(domain.DefaultHistoryLength)
	cooldowns := usecase.NewCooldownTracker(logger)

	generatorUC := usecase.NewGeneratorUsecase(repos.Completion, settingsUC, prompts.SystemPrompt, logger)
	senderUC := usecase.NewSenderUsecase(repos.Outbound, cooldowns, settingsUC, nil, logger)
	admissionUC := usecase.NewAdmissionUsecase(settingsUC, history, repos.Source.SelfID, logger)

	// Initialize service layer
	dispatcher := service.NewDispatcher(generatorUC, senderUC, cooldowns, history, settingsUC, prompts, logger)
	defer dispatcher.Stop()
	settingsUC.OnChange(func(s domain.Settings) {
		dispatcher.SetMaxQueueLength(s.MaxQueueLength)
	})

	janitor := service.NewJanitor(cooldowns, dispatcher, service.DefaultJanitorInterval, logger)
	janitor.Start()
	defer janitor.Stop()

	srv := server.NewAutoReplyServer(repos.Source, admissionUC, dispatcher, cooldowns, logger)
	apiServer := api.NewServer(dispatcher, cooldowns, settingsUC, history, cfg.API.Port, logger)

	current := settingsUC.Current()
	logger.Info("starting discord auto-reply",
		zap.String("version", Version),
		zap.Bool("enabled", current.Enabled),
		zap.Int("reply_frequency", current.ReplyFrequency),
		zap.Strings("channels", current.ChannelIDs),
		zap.Int("api_port", cfg.API.Port))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		return apiServer.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return apiServer.Stop(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("shutting down")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
