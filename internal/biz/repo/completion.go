package repo

import "context"

// CompletionRepo is the text-completion backend used to generate replies
type CompletionRepo interface {
	// Complete sends one system instruction plus one user prompt and returns the reply text.
	// Any failure (missing credential, auth, transport, malformed body) is returned as an error.
	Complete(ctx context.Context, apiKey, systemPrompt, prompt string) (string, error)
}
