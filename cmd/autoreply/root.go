package main

import (
	"fmt"
	"log"
	"os"

	"github.com/chatops-lab/discord-autoreply/internal/conf"
	"github.com/chatops-lab/discord-autoreply/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time.
var Version = "dev"

var (
	envFile string
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "autoreply",
	Short: "Discord auto-responder driven by an OpenAI-compatible model",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil {
			log.Println("No .env file found, using environment variables")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
}

// loadConfig reads and validates the environment and builds the process logger
func loadConfig() (*conf.Config, error) {
	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	l, err := logging.New(cfg.Debug)
	if err != nil {
		return nil, err
	}
	logger = l
	return cfg, nil
}

func apiURL(cfg *conf.Config) string {
	return fmt.Sprintf("http://127.0.0.1:%d", cfg.API.Port)
}
