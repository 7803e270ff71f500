package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
)

// Client is the HTTP client for the autoreply control API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new control API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// QueuedMessage is one entry of a channel queue
type QueuedMessage struct {
	Content     string `json:"content"`
	Username    string `json:"username"`
	UserID      string `json:"user_id"`
	MessageID   string `json:"message_id"`
	IsMentioned bool   `json:"is_mentioned"`
	Timestamp   string `json:"timestamp"`
}

// ChannelStatus is the queue state of one channel
type ChannelStatus struct {
	ChannelID    string          `json:"channel_id"`
	QueueLength  int             `json:"queue_length"`
	IsProcessing bool            `json:"is_processing"`
	State        string          `json:"state"`
	Messages     []QueuedMessage `json:"messages"`
}

// Cooldown is an active rate-limit window
type Cooldown struct {
	ChannelID   string `json:"channel_id"`
	Source      string `json:"source"`
	EndTime     string `json:"end_time"`
	DurationMs  int64  `json:"duration_ms"`
	RemainingMs int64  `json:"remaining_ms"`
}

// ============ Queue ============

// GetQueue lists every known channel queue
func (c *Client) GetQueue(ctx context.Context) ([]ChannelStatus, error) {
	var result struct {
		Channels []ChannelStatus `json:"channels"`
	}
	if err := c.get(ctx, "/api/queue", &result); err != nil {
		return nil, err
	}
	return result.Channels, nil
}

// GetChannelQueue gets the queue of one channel
func (c *Client) GetChannelQueue(ctx context.Context, channelID string) (*ChannelStatus, error) {
	var st ChannelStatus
	if err := c.get(ctx, "/api/queue/"+url.PathEscape(channelID), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// ============ Cooldowns ============

// GetCooldowns lists active cooldowns
func (c *Client) GetCooldowns(ctx context.Context) ([]Cooldown, error) {
	var result struct {
		Cooldowns []Cooldown `json:"cooldowns"`
	}
	if err := c.get(ctx, "/api/cooldowns", &result); err != nil {
		return nil, err
	}
	return result.Cooldowns, nil
}

// ReportSlowMode records a slow-mode window of the given length
func (c *Client) ReportSlowMode(ctx context.Context, channelID string, seconds float64) error {
	body := map[string]float64{"seconds": seconds}
	return c.send(ctx, http.MethodPost, "/api/cooldowns/"+url.PathEscape(channelID), body, nil)
}

// ============ Settings ============

// GetSettings gets the live settings with credentials redacted
func (c *Client) GetSettings(ctx context.Context) (*domain.Settings, error) {
	var s domain.Settings
	if err := c.get(ctx, "/api/settings", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSettings applies a partial update and returns the result
func (c *Client) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (*domain.Settings, error) {
	var s domain.Settings
	if err := c.send(ctx, http.MethodPut, "/api/settings", patch, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ============ HTTP Helpers ============

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, result)
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP %s failed: %w", req.Method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
