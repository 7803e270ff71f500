package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultAPIBase is the REST endpoint used when none is configured
const DefaultAPIBase = "https://discord.com/api/v9"

// RateLimitHeaders holds the rate-limit headers of a successful response
type RateLimitHeaders struct {
	Remaining  string        // x-ratelimit-remaining, raw
	ResetAfter time.Duration // x-ratelimit-reset-after, rounded up to the millisecond
	HasReset   bool
}

// CreatedMessage is the subset of the create-message response we read
type CreatedMessage struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
}

// APIError is a non-2xx response that is not a rate limit
type APIError struct {
	StatusCode int
	Code       int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("discord api error: %d - %s (code %d)", e.StatusCode, e.Message, e.Code)
	}
	return fmt.Sprintf("discord api error: %d - %s", e.StatusCode, e.Body)
}

// RateLimitError is a 429 response, or any error body carrying retry_after
type RateLimitError struct {
	StatusCode int
	RetryAfter time.Duration
	Global     bool
	Message    string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("discord rate limited: %d - retry after %v (global=%v)", e.StatusCode, e.RetryAfter, e.Global)
}

// errorBody is the JSON error document returned on failure
type errorBody struct {
	Message    string  `json:"message"`
	Code       int     `json:"code"`
	RetryAfter float64 `json:"retry_after"`
	Global     bool    `json:"global"`
}

// createMessageBody is the JSON body of a create-message request
type createMessageBody struct {
	Content string `json:"content"`
	TTS     bool   `json:"tts"`
	Flags   int    `json:"flags"`
}

// Client is the Discord REST client
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new REST client
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIBase
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.Named("discord"),
	}
}

// CreateMessage posts content to a channel.
// token is sent verbatim in the Authorization header.
func (c *Client) CreateMessage(ctx context.Context, token, channelID, content string) (*CreatedMessage, RateLimitHeaders, error) {
	var limits RateLimitHeaders

	if token == "" {
		return nil, limits, fmt.Errorf("discord token not set")
	}

	body, err := json.Marshal(createMessageBody{Content: content, TTS: false, Flags: 0})
	if err != nil {
		return nil, limits, fmt.Errorf("marshal message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, url.PathEscape(channelID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, limits, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, limits, fmt.Errorf("post message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, limits, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, limits, parseError(resp.StatusCode, respBody)
	}

	limits = parseRateLimitHeaders(resp.Header)

	var created CreatedMessage
	if err := json.Unmarshal(respBody, &created); err != nil {
		// The message went out; an odd body is not a send failure.
		c.logger.Warn("unparseable create-message response", zap.String("channel", channelID), zap.Error(err))
	}

	c.logger.Debug("message sent",
		zap.String("channel", channelID),
		zap.String("message_id", created.ID),
		zap.String("ratelimit_remaining", limits.Remaining))

	return &created, limits, nil
}

// parseError converts a non-2xx response into *RateLimitError or *APIError
func parseError(status int, body []byte) error {
	var eb errorBody
	decodeErr := json.Unmarshal(body, &eb)

	if status == http.StatusTooManyRequests || (decodeErr == nil && eb.RetryAfter > 0) {
		return &RateLimitError{
			StatusCode: status,
			RetryAfter: secondsToDuration(eb.RetryAfter),
			Global:     eb.Global,
			Message:    eb.Message,
		}
	}

	return &APIError{
		StatusCode: status,
		Code:       eb.Code,
		Message:    eb.Message,
		Body:       string(body),
	}
}

func parseRateLimitHeaders(h http.Header) RateLimitHeaders {
	limits := RateLimitHeaders{Remaining: h.Get("X-RateLimit-Remaining")}
	if raw := h.Get("X-RateLimit-Reset-After"); raw != "" {
		if secs, err := strconv.ParseFloat(raw, 64); err == nil && secs >= 0 {
			limits.ResetAfter = secondsToDuration(secs)
			limits.HasReset = true
		}
	}
	return limits
}

// secondsToDuration rounds fractional seconds up to whole milliseconds
func secondsToDuration(secs float64) time.Duration {
	if secs <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(secs*1000)) * time.Millisecond
}
