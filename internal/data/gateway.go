package data

import (
	"context"
	"sync"
	"time"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
	"github.com/chatops-lab/discord-autoreply/internal/biz/repo"
	"github.com/chatops-lab/discord-autoreply/internal/infra/discord"
)

// gatewaySource adapts the gateway client to MessageSource
type gatewaySource struct {
	gateway *discord.Gateway

	mu         sync.RWMutex
	onMessage  repo.MessageHandler
	onSlowMode repo.SlowModeHandler
}

// NewGatewaySource creates a message source backed by the gateway
func NewGatewaySource(gateway *discord.Gateway) repo.MessageSource {
	s := &gatewaySource{gateway: gateway}
	gateway.OnMessage(s.handleMessage)
	gateway.OnChannelUpdate(s.handleChannelUpdate)
	return s
}

func (s *gatewaySource) OnMessage(handler repo.MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMessage = handler
}

func (s *gatewaySource) OnSlowMode(handler repo.SlowModeHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSlowMode = handler
}

func (s *gatewaySource) SelfID() string {
	return s.gateway.SelfID()
}

func (s *gatewaySource) Run(ctx context.Context) error {
	return s.gateway.Run(ctx)
}

func (s *gatewaySource) handleMessage(msg *discord.Message) {
	s.mu.RLock()
	handler := s.onMessage
	s.mu.RUnlock()
	if handler == nil {
		return
	}
	handler(convertMessage(msg, s.gateway.SelfID()))
}

func (s *gatewaySource) handleChannelUpdate(ch *discord.Channel) {
	if ch.RateLimitPerUser <= 0 {
		return
	}
	s.mu.RLock()
	handler := s.onSlowMode
	s.mu.RUnlock()
	if handler == nil {
		return
	}
	handler(domain.SlowModeReport{
		ChannelID: ch.ID,
		Duration:  time.Duration(ch.RateLimitPerUser) * time.Second,
	})
}

// convertMessage maps a gateway message to the domain type
func convertMessage(msg *discord.Message, selfID string) *domain.DetectedMessage {
	ts, err := time.Parse(time.RFC3339, msg.Timestamp)
	if err != nil {
		ts = time.Now()
	}
	return &domain.DetectedMessage{
		Content:     msg.Content,
		IsMentioned: msg.MentionsUser(selfID),
		IsBot:       msg.Author.Bot,
		Metadata: domain.MessageMetadata{
			Username:  msg.Author.DisplayName(),
			UserID:    msg.Author.ID,
			ChannelID: msg.ChannelID,
			MessageID: msg.ID,
			Timestamp: ts,
		},
	}
}
