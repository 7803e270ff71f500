package data

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chatops-lab/discord-autoreply/internal/biz/repo"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	// DefaultDeepSeekBaseURL is the OpenAI-compatible DeepSeek endpoint
	DefaultDeepSeekBaseURL = "https://api.deepseek.com/v1"
	// DefaultDeepSeekModel is the chat model used when none is configured
	DefaultDeepSeekModel = "deepseek-chat"
)

// Sampling parameters for short conversational replies
const (
	replyTemperature = 0.7
	replyMaxTokens   = 100
	replyTopP        = 0.9
)

var (
	// ErrMissingAPIKey is returned without any network call when no credential is configured
	ErrMissingAPIKey = errors.New("completion api key not set")
	// ErrUnauthorized is returned when the endpoint rejects the credential
	ErrUnauthorized = errors.New("completion api key rejected")
	// ErrEmptyReply is returned when the response carries no usable text
	ErrEmptyReply = errors.New("completion returned no content")
)

// deepseekRepo implements CompletionRepo over an OpenAI-compatible endpoint
type deepseekRepo struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewDeepSeekRepo creates a completion repository.
// The API key is passed per call so settings updates apply without a restart.
func NewDeepSeekRepo(baseURL, model string, logger *zap.Logger) repo.CompletionRepo {
	if baseURL == "" {
		baseURL = DefaultDeepSeekBaseURL
	}
	if model == "" {
		model = DefaultDeepSeekModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &deepseekRepo{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.Named("deepseek"),
	}
}

// Complete sends a single system + user exchange and returns the trimmed reply
func (r *deepseekRepo) Complete(ctx context.Context, apiKey, systemPrompt, prompt string) (string, error) {
	if apiKey == "" {
		return "", ErrMissingAPIKey
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = r.baseURL
	config.HTTPClient = r.httpClient
	client := openai.NewClientWithConfig(config)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: replyTemperature,
		MaxTokens:   replyMaxTokens,
		TopP:        replyTopP,
	})
	if err != nil {
		if isUnauthorized(err) {
			return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrEmptyReply)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyReply
	}

	r.logger.Debug("completion ok",
		zap.String("model", r.model),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return content, nil
}

func isUnauthorized(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusUnauthorized
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusUnauthorized
	}
	return false
}
