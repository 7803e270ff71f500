package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chatops-lab/discord-autoreply/internal/biz/usecase"
	"gopkg.in/yaml.v3"
)

// PromptsConfig contains all prompt configurations loaded from YAML
type PromptsConfig struct {
	Reply     ReplyPrompts  `yaml:"reply"`
	History   HistoryConfig `yaml:"history"`
	Templates []string      `yaml:"reply_templates"`
}

// ReplyPrompts contains the reply generation prompts
type ReplyPrompts struct {
	SystemPrompt  string `yaml:"system_prompt"`
	PromptHeader  string `yaml:"prompt_header"`
	HistoryMarker string `yaml:"history_marker"`
	CurrentMarker string `yaml:"current_marker"`
	PromptFooter  string `yaml:"prompt_footer"`
}

// HistoryConfig contains history settings
type HistoryConfig struct {
	PromptCount int `yaml:"prompt_count"` // Entries included in each prompt
}

// LoadPromptsConfig loads prompts configuration from YAML file
func LoadPromptsConfig(configPath string) (*PromptsConfig, error) {
	// Try multiple paths
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/prompts.yaml",
			"/etc/discord-autoreply/prompts.yaml",
		}
		// Add path relative to executable
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "prompts.yaml"))
		}
	}

	var data []byte
	for _, p := range paths {
		if b, err := os.ReadFile(p); err == nil {
			data = b
			break
		}
	}

	if data == nil {
		if configPath != "" {
			return nil, fmt.Errorf("read prompts config %s: not found", configPath)
		}
		// Return default config if no file found
		return DefaultPromptsConfig(), nil
	}

	var config PromptsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse prompts.yaml: %w", err)
	}

	// Fill in defaults for empty values
	config.fillDefaults()

	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *PromptsConfig) fillDefaults() {
	defaults := DefaultPromptsConfig()

	if c.Reply.SystemPrompt == "" {
		c.Reply.SystemPrompt = defaults.Reply.SystemPrompt
	}
	if c.Reply.PromptHeader == "" {
		c.Reply.PromptHeader = defaults.Reply.PromptHeader
	}
	if c.Reply.HistoryMarker == "" {
		c.Reply.HistoryMarker = defaults.Reply.HistoryMarker
	}
	if c.Reply.CurrentMarker == "" {
		c.Reply.CurrentMarker = defaults.Reply.CurrentMarker
	}
	if c.Reply.PromptFooter == "" {
		c.Reply.PromptFooter = defaults.Reply.PromptFooter
	}
	if c.History.PromptCount <= 0 {
		c.History.PromptCount = defaults.History.PromptCount
	}

	// Templates without the placeholder would discard the generated reply
	var templates []string
	for _, t := range c.Templates {
		if strings.Contains(t, usecase.GeneratedContentPlaceholder) {
			templates = append(templates, t)
		}
	}
	if len(templates) == 0 {
		templates = defaults.Templates
	}
	c.Templates = templates
}

// ToPromptConfig converts to the usecase prompt configuration
func (c *PromptsConfig) ToPromptConfig() usecase.PromptConfig {
	return usecase.PromptConfig{
		SystemPrompt:   c.Reply.SystemPrompt,
		PromptHeader:   c.Reply.PromptHeader,
		HistoryMarker:  c.Reply.HistoryMarker,
		CurrentMarker:  c.Reply.CurrentMarker,
		PromptFooter:   c.Reply.PromptFooter,
		HistoryCount:   c.History.PromptCount,
		ReplyTemplates: append([]string(nil), c.Templates...),
	}
}

// DefaultPromptsConfig returns the default prompts configuration
func DefaultPromptsConfig() *PromptsConfig {
	d := usecase.DefaultPromptConfig
	return &PromptsConfig{
		Reply: ReplyPrompts{
			SystemPrompt:  d.SystemPrompt,
			PromptHeader:  d.PromptHeader,
			HistoryMarker: d.HistoryMarker,
			CurrentMarker: d.CurrentMarker,
			PromptFooter:  d.PromptFooter,
		},
		History: HistoryConfig{
			PromptCount: d.HistoryCount,
		},
		Templates: append([]string(nil), d.ReplyTemplates...),
	}
}
