package data

import (
	"testing"
	"time"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
	"github.com/chatops-lab/discord-autoreply/internal/infra/discord"
	"github.com/stretchr/testify/assert"
)

func TestConvertMessage(t *testing.T) {
	msg := &discord.Message{
		ID:        "m1",
		ChannelID: "c1",
		Content:   "hi <@self>",
		Author:    discord.User{ID: "u1", Username: "alice", GlobalName: "Alice A"},
		Mentions:  []discord.User{{ID: "self"}},
		Timestamp: "2024-03-01T10:20:30.123000+00:00",
	}

	got := convertMessage(msg, "self")
	assert.Equal(t, "hi <@self>", got.Content)
	assert.True(t, got.IsMentioned)
	assert.False(t, got.IsBot)
	assert.Equal(t, "Alice A", got.Metadata.Username)
	assert.Equal(t, "u1", got.Metadata.UserID)
	assert.Equal(t, "c1", got.Metadata.ChannelID)
	assert.Equal(t, "m1", got.Metadata.MessageID)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 20, 30, 123000000, time.UTC), got.Metadata.Timestamp.UTC())

	// before READY nobody is "self"
	assert.False(t, convertMessage(msg, "").IsMentioned)
}

func TestConvertMessage_BadTimestamp(t *testing.T) {
	got := convertMessage(&discord.Message{Timestamp: "yesterday"}, "")
	assert.False(t, got.Metadata.Timestamp.IsZero())
}

func TestGatewaySource_SlowModeReports(t *testing.T) {
	g := discord.NewGateway("", "tok", nil)
	src := NewGatewaySource(g).(*gatewaySource)

	var reports []domain.SlowModeReport
	src.OnSlowMode(func(r domain.SlowModeReport) { reports = append(reports, r) })

	src.handleChannelUpdate(&discord.Channel{ID: "c1", RateLimitPerUser: 0})
	src.handleChannelUpdate(&discord.Channel{ID: "c1", RateLimitPerUser: 15})

	assert.Equal(t, []domain.SlowModeReport{{ChannelID: "c1", Duration: 15 * time.Second}}, reports)
}

func TestGatewaySource_MessageWithoutHandler(t *testing.T) {
	src := NewGatewaySource(discord.NewGateway("", "tok", nil)).(*gatewaySource)
	assert.NotPanics(t, func() { src.handleMessage(&discord.Message{ID: "m"}) })

	var got *domain.DetectedMessage
	src.OnMessage(func(m *domain.DetectedMessage) { got = m })
	src.handleMessage(&discord.Message{ID: "m", ChannelID: "c"})
	assert.Equal(t, "m", got.Metadata.MessageID)
}
