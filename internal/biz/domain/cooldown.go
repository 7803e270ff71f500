package domain

import "time"

// CooldownSource records who reported a cooldown
type CooldownSource string

const (
	CooldownSourceRateLimit CooldownSource = "rate_limit" // 429 retry_after
	CooldownSourceQuota     CooldownSource = "quota"      // x-ratelimit-remaining reached zero
	CooldownSourceSlowMode  CooldownSource = "slow_mode"  // slow-mode observer
)

// CooldownRecord is the latest observed rate-limit window for a channel
type CooldownRecord struct {
	ChannelID string
	EndTime   time.Time
	Duration  time.Duration
	Source    CooldownSource
}

// Active reports whether now falls before the end of the window
func (c *CooldownRecord) Active(now time.Time) bool {
	return now.Before(c.EndTime)
}

// Remaining returns the time left in the window, never negative
func (c *CooldownRecord) Remaining(now time.Time) time.Duration {
	if d := c.EndTime.Sub(now); d > 0 {
		return d
	}
	return 0
}
