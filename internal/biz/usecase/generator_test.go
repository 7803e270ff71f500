package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerator_Generate(t *testing.T) {
	completion := &mockCompletionRepo{reply: "不错"}
	settings := &staticSettings{s: domain.Settings{APIKey: "sk-1"}}
	gen := NewGeneratorUsecase(completion, settings, "", nil)

	assert.Equal(t, "不错", gen.Generate(context.Background(), "p"))
	assert.Equal(t, []string{"sk-1"}, completion.keys)
	assert.Equal(t, DefaultPromptConfig.SystemPrompt, completion.system)
	assert.Equal(t, "p", completion.prompt)

	// key changes are picked up on the next call
	settings.s.APIKey = "sk-2"
	gen.Generate(context.Background(), "p")
	assert.Equal(t, "sk-2", completion.keys[1])
}

func TestGenerator_FailureIsEmpty(t *testing.T) {
	completion := &mockCompletionRepo{err: errors.New("401")}
	gen := NewGeneratorUsecase(completion, &staticSettings{}, "custom", nil)

	assert.Equal(t, "", gen.Generate(context.Background(), "p"))
	assert.Equal(t, "custom", completion.system)
}
