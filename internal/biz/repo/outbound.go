package repo

import (
	"context"
	"fmt"
	"time"
)

// RateLimitInfo carries the rate-limit signals read from a successful send
type RateLimitInfo struct {
	Remaining    string        // raw x-ratelimit-remaining, empty when absent
	ResetAfter   time.Duration // parsed x-ratelimit-reset-after, zero when absent
	HasResetInfo bool
}

// Exhausted reports whether the server said no more sends are allowed in this window
func (r RateLimitInfo) Exhausted() bool {
	return r.Remaining == "0" && r.HasResetInfo
}

// RateLimitError is a send rejected because the channel is rate limited
type RateLimitError struct {
	RetryAfter time.Duration
	Global     bool
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %v: %v", e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// OutboundRepo posts messages to a channel on the chat platform
type OutboundRepo interface {
	// PostMessage sends content to channelID. A rate-limited response returns *RateLimitError.
	PostMessage(ctx context.Context, token, channelID, content string) (RateLimitInfo, error)
}
