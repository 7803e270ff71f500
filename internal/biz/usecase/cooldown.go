package usecase

import (
	"sort"
	"sync"
	"time"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
	"go.uber.org/zap"
)

// CooldownTracker remembers the latest rate-limit window per channel.
// A new report always overwrites the previous one, even if it ends earlier.
type CooldownTracker struct {
	mu      sync.RWMutex
	records map[string]domain.CooldownRecord
	now     func() time.Time
	logger  *zap.Logger
}

// NewCooldownTracker creates a tracker on the wall clock
func NewCooldownTracker(logger *zap.Logger) *CooldownTracker {
	return NewCooldownTrackerWithClock(time.Now, logger)
}

// NewCooldownTrackerWithClock creates a tracker reading time from now
func NewCooldownTrackerWithClock(now func() time.Time, logger *zap.Logger) *CooldownTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CooldownTracker{
		records: make(map[string]domain.CooldownRecord),
		now:     now,
		logger:  logger.Named("cooldown"),
	}
}

// Record sets the channel's window to end d from now. Non-positive durations are ignored.
func (t *CooldownTracker) Record(channelID string, d time.Duration, source domain.CooldownSource) {
	if channelID == "" || d <= 0 {
		return
	}

	t.mu.Lock()
	t.records[channelID] = domain.CooldownRecord{
		ChannelID: channelID,
		EndTime:   t.now().Add(d),
		Duration:  d,
		Source:    source,
	}
	t.mu.Unlock()

	t.logger.Info("cooldown recorded",
		zap.String("channel", channelID),
		zap.Duration("duration", d),
		zap.String("source", string(source)))
}

// InCooldown reports whether the channel's window is still open
func (t *CooldownTracker) InCooldown(channelID string) bool {
	t.mu.RLock()
	rec, ok := t.records[channelID]
	t.mu.RUnlock()
	return ok && rec.Active(t.now())
}

// Remaining returns the time left in the channel's window, zero when none
func (t *CooldownTracker) Remaining(channelID string) time.Duration {
	t.mu.RLock()
	rec, ok := t.records[channelID]
	t.mu.RUnlock()
	if !ok {
		return 0
	}
	return rec.Remaining(t.now())
}

// Snapshot returns the active windows ordered by channel id
func (t *CooldownTracker) Snapshot() []domain.CooldownRecord {
	now := t.now()

	t.mu.RLock()
	out := make([]domain.CooldownRecord, 0, len(t.records))
	for _, rec := range t.records {
		if rec.Active(now) {
			out = append(out, rec)
		}
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out
}

// Prune drops windows that have already closed and returns how many were removed
func (t *CooldownTracker) Prune() int {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for ch, rec := range t.records {
		if !rec.Active(now) {
			delete(t.records, ch)
			removed++
		}
	}
	return removed
}
