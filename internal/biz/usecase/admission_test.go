package usecase

import (
	"testing"
	"time"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
	"github.com/stretchr/testify/assert"
)

func newTestAdmission(s domain.Settings, roll float64) (*AdmissionUsecase, *domain.MessageHistory, *fakeClock) {
	history := domain.NewMessageHistory(domain.DefaultHistoryLength)
	clock := newFakeClock()
	uc := NewAdmissionUsecase(&staticSettings{s: s}, history, func() string { return "self" }, nil)
	uc.now = clock.Now
	uc.roll = func() float64 { return roll }
	return uc, history, clock
}

func detected(id, channel, user, content string) *domain.DetectedMessage {
	return &domain.DetectedMessage{
		Content: content,
		Metadata: domain.MessageMetadata{
			Username:  user,
			UserID:    user,
			ChannelID: channel,
			MessageID: id,
		},
	}
}

func TestAdmission_Skips(t *testing.T) {
	enabled := domain.Settings{Enabled: true, ReplyFrequency: 100, ChannelIDs: []string{"c1"}, IgnoreUserIDs: []string{"spam"}}

	tests := []struct {
		name     string
		settings domain.Settings
		msg      *domain.DetectedMessage
		want     string
	}{
		{"disabled", domain.Settings{ReplyFrequency: 100}, detected("1", "c1", "u", "hi"), SkipDisabled},
		{"empty content", enabled, detected("1", "c1", "u", "   "), SkipInvalid},
		{"missing channel", enabled, detected("1", "", "u", "hi"), SkipInvalid},
		{"own message", enabled, detected("1", "c1", "self", "hi"), SkipSelf},
		{"other channel", enabled, detected("1", "c2", "u", "hi"), SkipChannel},
		{"ignored user", enabled, detected("1", "c1", "spam", "hi"), SkipIgnoredUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, history, _ := newTestAdmission(tt.settings, 0)
			got := uc.Admit(tt.msg)
			assert.False(t, got.Reply)
			assert.Equal(t, tt.want, got.Reason)
			assert.Zero(t, history.Len())
		})
	}
}

func TestAdmission_Frequency(t *testing.T) {
	s := domain.Settings{Enabled: true, ReplyFrequency: 30}

	uc, history, _ := newTestAdmission(s, 0.29)
	assert.True(t, uc.Admit(detected("1", "c1", "u", "hi")).Reply)

	uc, _, _ = newTestAdmission(s, 0.30)
	got := uc.Admit(detected("1", "c1", "u", "hi"))
	assert.False(t, got.Reply)
	assert.Equal(t, SkipNotSelected, got.Reason)

	// recorded in the history either way
	assert.Equal(t, 1, history.Len())
}

func TestAdmission_MentionAlwaysReplies(t *testing.T) {
	uc, history, _ := newTestAdmission(domain.Settings{Enabled: true, ReplyFrequency: 0}, 0.99)

	msg := detected("1", "c1", "u", "hey <@self>")
	msg.IsMentioned = true
	assert.True(t, uc.Admit(msg).Reply)
	assert.Equal(t, []domain.HistoryEntry{{Username: "u", Content: "hey <@self>", Timestamp: history.Last(1)[0].Timestamp}}, history.Last(1))
}

func TestAdmission_BotAuthors(t *testing.T) {
	uc, history, _ := newTestAdmission(domain.Settings{Enabled: true, ReplyFrequency: 100}, 0)

	msg := detected("1", "c1", "bot", "beep")
	msg.IsBot = true
	got := uc.Admit(msg)
	assert.False(t, got.Reply)
	assert.Equal(t, SkipBot, got.Reason)
	assert.Equal(t, 1, history.Len())

	msg = detected("2", "c1", "bot", "beep <@self>")
	msg.IsBot = true
	msg.IsMentioned = true
	assert.True(t, uc.Admit(msg).Reply)
}

func TestAdmission_Dedupe(t *testing.T) {
	uc, history, clock := newTestAdmission(domain.Settings{Enabled: true, ReplyFrequency: 100}, 0)

	assert.True(t, uc.Admit(detected("m1", "c1", "u", "hi")).Reply)
	assert.Equal(t, SkipDuplicate, uc.Admit(detected("m1", "c1", "u", "hi")).Reason)
	assert.Equal(t, 1, history.Len())

	clock.Advance(seenTTL + time.Second)
	assert.True(t, uc.Admit(detected("m1", "c1", "u", "hi")).Reply)
	assert.Equal(t, 2, history.Len())
}
