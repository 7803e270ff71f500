package domain

import (
	"slices"
	"time"
)

// Settings is an immutable snapshot of the live configuration.
// Components read a fresh snapshot per operation; updates replace the whole value.
type Settings struct {
	Enabled        bool     `json:"enabled"`
	ReplyFrequency int      `json:"reply_frequency"` // 0-100
	APIKey         string   `json:"api_key"`
	OutboundToken  string   `json:"outbound_token"`
	ChannelIDs     []string `json:"channel_ids"`
	IgnoreUserIDs  []string `json:"ignore_user_ids"`
	MinDelayMs     int      `json:"min_delay_ms"`
	MaxDelayMs     int      `json:"max_delay_ms"`
	MaxQueueLength int      `json:"max_queue_length"`
}

// DefaultSettings mirrors the defaults of the settings panel
func DefaultSettings() Settings {
	return Settings{
		Enabled:        false,
		ReplyFrequency: 30,
		MinDelayMs:     2000,
		MaxDelayMs:     10000,
		MaxQueueLength: DefaultMaxQueueLength,
	}
}

// MinDelay returns the lower pacing bound
func (s Settings) MinDelay() time.Duration {
	return time.Duration(s.MinDelayMs) * time.Millisecond
}

// MaxDelay returns the upper pacing bound
func (s Settings) MaxDelay() time.Duration {
	return time.Duration(s.MaxDelayMs) * time.Millisecond
}

// MonitorsChannel reports whether messages from channelID are in scope.
// An empty channel list means every channel is monitored.
func (s Settings) MonitorsChannel(channelID string) bool {
	return len(s.ChannelIDs) == 0 || slices.Contains(s.ChannelIDs, channelID)
}

// IgnoresUser reports whether userID is on the ignore list
func (s Settings) IgnoresUser(userID string) bool {
	return userID != "" && slices.Contains(s.IgnoreUserIDs, userID)
}

// Normalize clamps values into their valid ranges
func (s Settings) Normalize() Settings {
	if s.ReplyFrequency < 0 {
		s.ReplyFrequency = 0
	}
	if s.ReplyFrequency > 100 {
		s.ReplyFrequency = 100
	}
	if s.MinDelayMs < 0 {
		s.MinDelayMs = 0
	}
	if s.MaxDelayMs < s.MinDelayMs {
		s.MaxDelayMs = s.MinDelayMs
	}
	if s.MaxQueueLength <= 0 {
		s.MaxQueueLength = DefaultMaxQueueLength
	}
	s.ChannelIDs = slices.Clone(s.ChannelIDs)
	s.IgnoreUserIDs = slices.Clone(s.IgnoreUserIDs)
	return s
}

// Redacted hides credentials for display
func (s Settings) Redacted() Settings {
	if s.APIKey != "" {
		s.APIKey = "***"
	}
	if s.OutboundToken != "" {
		s.OutboundToken = "***"
	}
	return s
}

// SettingsPatch is a partial update; nil fields are left unchanged
type SettingsPatch struct {
	Enabled        *bool     `json:"enabled,omitempty"`
	ReplyFrequency *int      `json:"reply_frequency,omitempty"`
	APIKey         *string   `json:"api_key,omitempty"`
	OutboundToken  *string   `json:"outbound_token,omitempty"`
	ChannelIDs     *[]string `json:"channel_ids,omitempty"`
	IgnoreUserIDs  *[]string `json:"ignore_user_ids,omitempty"`
	MinDelayMs     *int      `json:"min_delay_ms,omitempty"`
	MaxDelayMs     *int      `json:"max_delay_ms,omitempty"`
	MaxQueueLength *int      `json:"max_queue_length,omitempty"`
}

// Apply returns a copy of s with the patch applied and normalized
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.ReplyFrequency != nil {
		s.ReplyFrequency = *p.ReplyFrequency
	}
	if p.APIKey != nil {
		s.APIKey = *p.APIKey
	}
	if p.OutboundToken != nil {
		s.OutboundToken = *p.OutboundToken
	}
	if p.ChannelIDs != nil {
		s.ChannelIDs = *p.ChannelIDs
	}
	if p.IgnoreUserIDs != nil {
		s.IgnoreUserIDs = *p.IgnoreUserIDs
	}
	if p.MinDelayMs != nil {
		s.MinDelayMs = *p.MinDelayMs
	}
	if p.MaxDelayMs != nil {
		s.MaxDelayMs = *p.MaxDelayMs
	}
	if p.MaxQueueLength != nil {
		s.MaxQueueLength = *p.MaxQueueLength
	}
	return s.Normalize()
}
