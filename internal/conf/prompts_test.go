package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chatops-lab/discord-autoreply/internal/biz/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPromptsConfig_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
reply:
  system_prompt: "be brief"
reply_templates:
  - "static, dropped"
  - "嗯{generated_content}"
`), 0644))

	cfg, err := LoadPromptsConfig(path)
	require.NoError(t, err)

	pc := cfg.ToPromptConfig()
	assert.Equal(t, "be brief", pc.SystemPrompt)
	assert.Equal(t, usecase.DefaultPromptConfig.PromptHeader, pc.PromptHeader)
	assert.Equal(t, usecase.DefaultPromptConfig.PromptFooter, pc.PromptFooter)
	assert.Equal(t, 3, pc.HistoryCount)
	assert.Equal(t, []string{"嗯{generated_content}"}, pc.ReplyTemplates)
}

func TestLoadPromptsConfig_Errors(t *testing.T) {
	_, err := LoadPromptsConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reply: [unclosed"), 0644))
	_, err = LoadPromptsConfig(path)
	assert.Error(t, err)
}

func TestLoadPromptsConfig_RepoFile(t *testing.T) {
	cfg, err := LoadPromptsConfig(filepath.Join("..", "..", "configs", "prompts.yaml"))
	require.NoError(t, err)
	assert.Equal(t, usecase.DefaultPromptConfig, cfg.ToPromptConfig())
}
