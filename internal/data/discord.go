package data

import (
	"context"
	"errors"

	"github.com/chatops-lab/discord-autoreply/internal/biz/repo"
	"github.com/chatops-lab/discord-autoreply/internal/infra/discord"
)

// discordRepo implements the outbound repository over the REST client
type discordRepo struct {
	client *discord.Client
}

// NewDiscordRepo creates an outbound repository
func NewDiscordRepo(client *discord.Client) repo.OutboundRepo {
	return &discordRepo{client: client}
}

// PostMessage sends content and surfaces the rate-limit headers of the response
func (r *discordRepo) PostMessage(ctx context.Context, token, channelID, content string) (repo.RateLimitInfo, error) {
	_, limits, err := r.client.CreateMessage(ctx, token, channelID, content)
	if err != nil {
		var rl *discord.RateLimitError
		if errors.As(err, &rl) {
			return repo.RateLimitInfo{}, &repo.RateLimitError{RetryAfter: rl.RetryAfter, Global: rl.Global, Err: err}
		}
		return repo.RateLimitInfo{}, err
	}
	return repo.RateLimitInfo{
		Remaining:    limits.Remaining,
		ResetAfter:   limits.ResetAfter,
		HasResetInfo: limits.HasReset,
	}, nil
}
