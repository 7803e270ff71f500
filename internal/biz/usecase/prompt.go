package usecase

import (
	"strings"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
)

// GeneratedContentPlaceholder marks where a reply template puts the generated text
const GeneratedContentPlaceholder = "{generated_content}"

// PromptConfig contains prompt configuration
type PromptConfig struct {
	SystemPrompt  string // System instruction sent with every completion
	PromptHeader  string // Opening instruction of the user prompt
	HistoryMarker string // Heading above the recent history lines
	CurrentMarker string // Label in front of the message being answered
	PromptFooter  string // Closing instruction (length limit etc.)

	HistoryCount   int      // Recent history entries included in the prompt
	ReplyTemplates []string // Each contains GeneratedContentPlaceholder
}

// DefaultPromptConfig contains default prompt configuration
var DefaultPromptConfig = PromptConfig{
	SystemPrompt:   "你是一个友好的聊天助手，请用简短自然的语言回复。",
	PromptHeader:   "请根据以下聊天记录生成一个简短的回复。回复要像正常人的对话一样自然，不要加任何前缀，直接表达你的想法：",
	HistoryMarker:  "最近的聊天记录:",
	CurrentMarker:  "需要回复的消息:",
	PromptFooter:   "请直接生成回复，不要加任何前缀，长度不要超过50个字。",
	HistoryCount:   3,
	ReplyTemplates: []string{GeneratedContentPlaceholder},
}

// BuildPrompt renders the user prompt from recent history and the message being answered.
// history is oldest first.
func (c PromptConfig) BuildPrompt(history []domain.HistoryEntry, current string) string {
	var sb strings.Builder
	sb.WriteString(c.PromptHeader)
	sb.WriteString("\n\n")

	if len(history) > 0 {
		sb.WriteString(c.HistoryMarker)
		sb.WriteString("\n")
		for _, h := range history {
			sb.WriteString(h.Username)
			sb.WriteString(": ")
			sb.WriteString(h.Content)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(c.CurrentMarker)
	sb.WriteString(" ")
	sb.WriteString(current)
	sb.WriteString("\n\n")
	sb.WriteString(c.PromptFooter)
	return sb.String()
}

// ApplyTemplate picks a reply template with intn and fills in reply.
// intn(n) must return a value in [0, n).
func (c PromptConfig) ApplyTemplate(reply string, intn func(int) int) string {
	if len(c.ReplyTemplates) == 0 {
		return reply
	}
	tpl := c.ReplyTemplates[0]
	if len(c.ReplyTemplates) > 1 && intn != nil {
		tpl = c.ReplyTemplates[intn(len(c.ReplyTemplates))]
	}
	if !strings.Contains(tpl, GeneratedContentPlaceholder) {
		return reply
	}
	return strings.ReplaceAll(tpl, GeneratedContentPlaceholder, reply)
}

// FormatOutbound prefixes a mention of the original author when that message mentioned us
func FormatOutbound(reply string, msg domain.PendingMessage) string {
	if msg.IsMentioned && msg.Metadata.UserID != "" {
		return "<@" + msg.Metadata.UserID + "> " + reply
	}
	return reply
}
