package domain

import "time"

// MessageMetadata identifies where a message came from and who wrote it.
// It is captured once at detection time and never modified afterwards.
type MessageMetadata struct {
	Username  string
	UserID    string
	ChannelID string
	MessageID string
	Timestamp time.Time
}

// PendingMessage is a detected message waiting in a channel queue for a reply
type PendingMessage struct {
	Content     string
	IsMentioned bool
	Metadata    MessageMetadata
}

// DetectedMessage is what a detector hands to admission
type DetectedMessage struct {
	Content     string
	IsMentioned bool
	IsBot       bool
	Metadata    MessageMetadata
}

// ToPending converts a detected message into a queue entry
func (m *DetectedMessage) ToPending() PendingMessage {
	return PendingMessage{
		Content:     m.Content,
		IsMentioned: m.IsMentioned,
		Metadata:    m.Metadata,
	}
}

// IsAuthoredBy checks if the message was written by the given user
func (m *DetectedMessage) IsAuthoredBy(userID string) bool {
	return userID != "" && m.Metadata.UserID == userID
}

// SlowModeReport is emitted by observers that see a channel slow-mode window
type SlowModeReport struct {
	ChannelID string
	Duration  time.Duration
}
