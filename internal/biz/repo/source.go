package repo

import (
	"context"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
)

// MessageHandler receives every message a source detects
type MessageHandler func(msg *domain.DetectedMessage)

// SlowModeHandler receives slow-mode observations
type SlowModeHandler func(report domain.SlowModeReport)

// MessageSource detects new chat messages (gateway, DOM watcher, ...)
type MessageSource interface {
	OnMessage(handler MessageHandler)
	OnSlowMode(handler SlowModeHandler)

	// SelfID returns the account id the source is logged in as, empty until known
	SelfID() string

	// Run blocks until ctx is cancelled or the source fails permanently
	Run(ctx context.Context) error
}
