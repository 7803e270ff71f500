package domain

import (
	"sync"
	"time"
)

// DefaultHistoryLength is how many recent messages are kept as reply context
const DefaultHistoryLength = 10

// HistoryEntry is one observed chat line
type HistoryEntry struct {
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageHistory is a bounded, channel-agnostic log of recently observed messages.
// Entries from different channels interleave in arrival order.
type MessageHistory struct {
	mu      sync.RWMutex
	entries []HistoryEntry
	max     int
}

// NewMessageHistory creates a history bounded by max entries
func NewMessageHistory(max int) *MessageHistory {
	if max <= 0 {
		max = DefaultHistoryLength
	}
	return &MessageHistory{max: max}
}

// Add appends an entry, dropping the oldest on overflow
func (h *MessageHistory) Add(entry HistoryEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, entry)
	if over := len(h.entries) - h.max; over > 0 {
		h.entries = h.entries[over:]
	}
}

// Last returns up to n most recent entries, oldest first
func (h *MessageHistory) Last(n int) []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	if n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]HistoryEntry, n)
	copy(out, h.entries[len(h.entries)-n:])
	return out
}

// Len returns the number of stored entries
func (h *MessageHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
