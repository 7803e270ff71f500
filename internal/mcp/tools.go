package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Tool names
const (
	ToolQueueStatus    = "autoreply_queue_status"
	ToolListCooldowns  = "autoreply_list_cooldowns"
	ToolGetSettings    = "autoreply_get_settings"
	ToolUpdateSettings = "autoreply_update_settings"
	ToolReportSlowMode = "autoreply_report_slowmode"
)

// Server exposes the control API as MCP tools
type Server struct {
	server *mcpsdk.Server
	client *Client
	logger *zap.Logger
}

// NewServer creates the MCP server and registers every tool
func NewServer(client *Client, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		server: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    "autoreply-tools",
			Version: version,
		}, nil),
		client: client,
		logger: logger.Named("mcp"),
	}
	s.registerTools()
	return s
}

// Run serves the tools on stdin/stdout until the client disconnects or ctx ends
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect serves the tools over an arbitrary transport
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name:        ToolQueueStatus,
		Description: "Show pending reply queues. Pass channel_id for a single channel, omit it for all channels.",
	}, s.handleQueueStatus)

	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name:        ToolListCooldowns,
		Description: "List channels that are currently rate limited or in slow mode, with the time left.",
	}, s.handleListCooldowns)

	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name:        ToolGetSettings,
		Description: "Get the live auto-reply settings. Credentials are redacted.",
	}, s.handleGetSettings)

	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name:        ToolUpdateSettings,
		Description: "Change auto-reply settings. Only the fields that are provided are updated.",
	}, s.handleUpdateSettings)

	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name:        ToolReportSlowMode,
		Description: "Report a slow-mode window for a channel so no reply is sent there until it ends.",
	}, s.handleReportSlowMode)
}

// QueueStatusInput selects the channel to inspect
type QueueStatusInput struct {
	ChannelID string `json:"channel_id,omitempty" jsonschema:"Channel to inspect. All channels when empty."`
}

// QueueStatusOutput lists channel queues
type QueueStatusOutput struct {
	Channels []ChannelStatus `json:"channels"`
	Pending  int             `json:"pending"`
}

func (s *Server) handleQueueStatus(ctx context.Context, req *mcpsdk.CallToolRequest, input QueueStatusInput) (*mcpsdk.CallToolResult, QueueStatusOutput, error) {
	var channels []ChannelStatus
	if input.ChannelID != "" {
		st, err := s.client.GetChannelQueue(ctx, input.ChannelID)
		if err != nil {
			return nil, QueueStatusOutput{}, err
		}
		channels = []ChannelStatus{*st}
	} else {
		all, err := s.client.GetQueue(ctx)
		if err != nil {
			return nil, QueueStatusOutput{}, err
		}
		channels = all
	}

	out := QueueStatusOutput{Channels: channels}
	if out.Channels == nil {
		out.Channels = []ChannelStatus{}
	}
	for i := range out.Channels {
		if out.Channels[i].Messages == nil {
			out.Channels[i].Messages = []QueuedMessage{}
		}
		out.Pending += out.Channels[i].QueueLength
	}
	return nil, out, nil
}

// ListCooldownsInput is empty - no input needed
type ListCooldownsInput struct{}

// ListCooldownsOutput contains the active cooldowns
type ListCooldownsOutput struct {
	Cooldowns []Cooldown `json:"cooldowns"`
}

func (s *Server) handleListCooldowns(ctx context.Context, req *mcpsdk.CallToolRequest, input ListCooldownsInput) (*mcpsdk.CallToolResult, ListCooldownsOutput, error) {
	cooldowns, err := s.client.GetCooldowns(ctx)
	if err != nil {
		return nil, ListCooldownsOutput{}, err
	}
	if cooldowns == nil {
		cooldowns = []Cooldown{}
	}
	return nil, ListCooldownsOutput{Cooldowns: cooldowns}, nil
}

// GetSettingsInput is empty - no input needed
type GetSettingsInput struct{}

// SettingsOutput wraps a settings snapshot
type SettingsOutput struct {
	Settings domain.Settings `json:"settings"`
}

func (s *Server) handleGetSettings(ctx context.Context, req *mcpsdk.CallToolRequest, input GetSettingsInput) (*mcpsdk.CallToolResult, SettingsOutput, error) {
	settings, err := s.client.GetSettings(ctx)
	if err != nil {
		return nil, SettingsOutput{}, err
	}
	return nil, SettingsOutput{Settings: withEmptyLists(*settings)}, nil
}

// withEmptyLists keeps list fields as arrays in the structured output
func withEmptyLists(s domain.Settings) domain.Settings {
	if s.ChannelIDs == nil {
		s.ChannelIDs = []string{}
	}
	if s.IgnoreUserIDs == nil {
		s.IgnoreUserIDs = []string{}
	}
	return s
}

// UpdateSettingsInput is a partial settings update
type UpdateSettingsInput struct {
	Enabled        *bool     `json:"enabled,omitempty" jsonschema:"Turn auto-reply on or off"`
	ReplyFrequency *int      `json:"reply_frequency,omitempty" jsonschema:"Percent chance (0-100) of replying to a message that does not mention us"`
	ChannelIDs     *[]string `json:"channel_ids,omitempty" jsonschema:"Channels to watch. An empty list watches every channel."`
	IgnoreUserIDs  *[]string `json:"ignore_user_ids,omitempty" jsonschema:"Users whose messages are never answered"`
	MinDelayMs     *int      `json:"min_delay_ms,omitempty" jsonschema:"Lower bound of the random delay before a reply, in milliseconds"`
	MaxDelayMs     *int      `json:"max_delay_ms,omitempty" jsonschema:"Upper bound of the random delay before a reply, in milliseconds"`
	MaxQueueLength *int      `json:"max_queue_length,omitempty" jsonschema:"Maximum pending messages kept per channel"`
}

func (in UpdateSettingsInput) patch() domain.SettingsPatch {
	return domain.SettingsPatch{
		Enabled:        in.Enabled,
		ReplyFrequency: in.ReplyFrequency,
		ChannelIDs:     in.ChannelIDs,
		IgnoreUserIDs:  in.IgnoreUserIDs,
		MinDelayMs:     in.MinDelayMs,
		MaxDelayMs:     in.MaxDelayMs,
		MaxQueueLength: in.MaxQueueLength,
	}
}

func (s *Server) handleUpdateSettings(ctx context.Context, req *mcpsdk.CallToolRequest, input UpdateSettingsInput) (*mcpsdk.CallToolResult, SettingsOutput, error) {
	settings, err := s.client.UpdateSettings(ctx, input.patch())
	if err != nil {
		return nil, SettingsOutput{}, err
	}
	s.logger.Info("settings updated via tool",
		zap.Bool("enabled", settings.Enabled),
		zap.Int("reply_frequency", settings.ReplyFrequency))
	return nil, SettingsOutput{Settings: withEmptyLists(*settings)}, nil
}

// ReportSlowModeInput names the channel and the window length
type ReportSlowModeInput struct {
	ChannelID string  `json:"channel_id" jsonschema:"Channel that is in slow mode"`
	Seconds   float64 `json:"seconds" jsonschema:"Slow-mode interval in seconds"`
}

// ReportSlowModeOutput confirms the report
type ReportSlowModeOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) handleReportSlowMode(ctx context.Context, req *mcpsdk.CallToolRequest, input ReportSlowModeInput) (*mcpsdk.CallToolResult, ReportSlowModeOutput, error) {
	channelID := strings.TrimSpace(input.ChannelID)
	if channelID == "" {
		return nil, ReportSlowModeOutput{}, fmt.Errorf("channel_id is required")
	}
	if input.Seconds <= 0 {
		return nil, ReportSlowModeOutput{}, fmt.Errorf("seconds must be positive")
	}

	if err := s.client.ReportSlowMode(ctx, channelID, input.Seconds); err != nil {
		return nil, ReportSlowModeOutput{}, err
	}
	return nil, ReportSlowModeOutput{
		Success: true,
		Message: fmt.Sprintf("Channel %s paused for %gs", channelID, input.Seconds),
	}, nil
}
