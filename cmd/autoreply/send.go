package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chatops-lab/discord-autoreply/internal/biz/repo"
	"github.com/chatops-lab/discord-autoreply/internal/biz/usecase"
	"github.com/chatops-lab/discord-autoreply/internal/data"
	"github.com/spf13/cobra"
)

var (
	sendChannel string
	sendText    string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Post one message to a channel, waiting out any rate limit",
	RunE:  runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendChannel, "channel", "", "channel id")
	sendCmd.Flags().StringVar(&sendText, "text", "", "message text")
	_ = sendCmd.MarkFlagRequired("channel")
	_ = sendCmd.MarkFlagRequired("text")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(sendText) == "" {
		return fmt.Errorf("--text must not be empty")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	repos, err := data.NewRepositories(data.Options{
		DiscordAPIBase: cfg.Discord.APIBase,
		GatewayURL:     cfg.Discord.GatewayURL,
		DiscordToken:   cfg.Discord.Token,
		SettingsDBPath: cfg.Store.DBPath,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create repositories: %w", err)
	}
	defer repos.Close()

	settingsUC, err := usecase.NewSettingsUsecase(ctx, repos.Settings, cfg.ToSettings(), logger)
	if err != nil {
		return err
	}
	senderUC := usecase.NewSenderUsecase(repos.Outbound, usecase.NewCooldownTracker(logger), settingsUC, nil, logger)

	// A 429 records the channel cooldown, so the second attempt waits it out
	err = senderUC.Send(ctx, sendChannel, sendText)
	var rl *repo.RateLimitError
	if errors.As(err, &rl) {
		err = senderUC.Send(ctx, sendChannel, sendText)
	}
	if err != nil {
		return err
	}

	fmt.Println("Message sent successfully!")
	return nil
}
