package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chatops-lab/discord-autoreply/internal/conf"
	"github.com/chatops-lab/discord-autoreply/internal/logging"
	"github.com/chatops-lab/discord-autoreply/internal/mcp"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Version is set at build time.
var Version = "dev"

// This MCP server talks to a running autoreply daemon through its loopback control API.
// stdout carries the protocol, so every log line goes to stderr.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger, err := logging.NewStderr(os.Getenv("DEBUG") == "true")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	baseURL := os.Getenv("AUTOREPLY_API_URL")
	if baseURL == "" {
		cfg := conf.LoadFromEnv()
		baseURL = fmt.Sprintf("http://127.0.0.1:%d", cfg.API.Port)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := mcp.NewServer(mcp.NewClient(baseURL), Version, logger)
	logger.Info("serving MCP tools on stdio", zap.String("api", baseURL))
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("mcp server stopped", zap.Error(err))
		os.Exit(1)
	}
}
