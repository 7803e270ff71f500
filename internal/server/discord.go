package server

import (
	"context"
	"time"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
	"github.com/chatops-lab/discord-autoreply/internal/biz/repo"
	"github.com/chatops-lab/discord-autoreply/internal/biz/usecase"
	"go.uber.org/zap"
)

// Admitter decides whether a detected message gets a reply
type Admitter interface {
	Admit(msg *domain.DetectedMessage) usecase.AdmissionResult
}

// Enqueuer queues a message for the per-channel worker
type Enqueuer interface {
	Enqueue(channelID string, msg domain.PendingMessage) bool
}

// CooldownRecorder records a rate-limit window
type CooldownRecorder interface {
	Record(channelID string, d time.Duration, source domain.CooldownSource)
}

// AutoReplyServer connects a message source to admission and the dispatcher
type AutoReplyServer struct {
	source    repo.MessageSource
	admission Admitter
	queue     Enqueuer
	cooldowns CooldownRecorder
	logger    *zap.Logger
}

// NewAutoReplyServer creates a new server and registers the source handlers
func NewAutoReplyServer(
	source repo.MessageSource,
	admission Admitter,
	queue Enqueuer,
	cooldowns CooldownRecorder,
	logger *zap.Logger,
) *AutoReplyServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AutoReplyServer{
		source:    source,
		admission: admission,
		queue:     queue,
		cooldowns: cooldowns,
		logger:    logger.Named("server"),
	}
	source.OnMessage(s.handleMessage)
	source.OnSlowMode(s.handleSlowMode)
	return s
}

// Run blocks until ctx is cancelled or the source gives up
func (s *AutoReplyServer) Run(ctx context.Context) error {
	s.logger.Info("listening for messages")
	return s.source.Run(ctx)
}

func (s *AutoReplyServer) handleMessage(msg *domain.DetectedMessage) {
	if msg == nil {
		return
	}
	s.logger.Debug("message received",
		zap.String("channel", msg.Metadata.ChannelID),
		zap.String("user", msg.Metadata.Username),
		zap.Bool("mentioned", msg.IsMentioned),
		zap.String("content", truncate(msg.Content, 50)))

	result := s.admission.Admit(msg)
	if !result.Reply {
		s.logger.Debug("message skipped",
			zap.String("message_id", msg.Metadata.MessageID),
			zap.String("reason", result.Reason))
		return
	}

	s.queue.Enqueue(msg.Metadata.ChannelID, msg.ToPending())
}

func (s *AutoReplyServer) handleSlowMode(report domain.SlowModeReport) {
	s.cooldowns.Record(report.ChannelID, report.Duration, domain.CooldownSourceSlowMode)
}

// truncate truncates string to specified length
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
