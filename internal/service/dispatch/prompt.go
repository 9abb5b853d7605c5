package dispatch

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/porchlabs/porch/internal/core"
)

const unifiedSystemPrompt = `You are Porch, an AI assistant for real-estate portfolio management.
You help with property analysis, market trends, financial modeling and portfolio decisions.
Use the provided context about the user and the conversation when it is relevant.
Be accurate and practical; say so when you do not know something.`

const simplifiedSystemPrompt = `You are Porch, a real-estate portfolio assistant. Answer the user's question directly and concisely.`

var (
	tokenizerOnce sync.Once
	tokenizer     *tiktoken.Tiktoken
)

// countTokens measures prompt text with the cl100k_base encoding. If the
// encoding cannot be loaded (offline environments) it approximates at four
// characters per token, which overcounts slightly and so stays within budget.
func countTokens(text string) int {
	tokenizerOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			tokenizer = enc
		}
	})
	if tokenizer == nil {
		return (len(text) + 3) / 4
	}
	return len(tokenizer.Encode(text, nil, nil))
}

// buildUnifiedMessages assembles the full-context prompt: system preamble
// enriched with profile, summary, relevant memories and tool results packed
// under the token budget, followed by the recent conversation and the user
// message.
func buildUnifiedMessages(req core.ChatRequest, rc core.RelevantContext, tokenBudget int) []core.Message {
	var sb strings.Builder
	sb.WriteString(unifiedSystemPrompt)

	if rc.Profile.PreferredStyle != "" {
		fmt.Fprintf(&sb, "\n\nThe user prefers %s answers.", rc.Profile.PreferredStyle)
	}

	budget := tokenBudget - countTokens(sb.String())

	if rc.Summary != nil {
		section := formatSummary(rc.Summary)
		if cost := countTokens(section); cost <= budget {
			sb.WriteString(section)
			budget -= cost
		}
	}

	if len(rc.RelevantMemories) > 0 {
		sb.WriteString("\n\nRelevant context from memory:")
		for _, m := range rc.RelevantMemories {
			line := "\n- " + strings.TrimSpace(m.Content)
			cost := countTokens(line)
			if cost > budget {
				break
			}
			sb.WriteString(line)
			budget -= cost
		}
	}

	if len(rc.ToolResults) > 0 {
		sb.WriteString("\n\nRecent tool results:")
		for _, m := range rc.ToolResults {
			line := "\n- " + formatToolResult(m)
			cost := countTokens(line)
			if cost > budget {
				break
			}
			sb.WriteString(line)
			budget -= cost
		}
	}

	messages := []core.Message{{Role: core.RoleSystem, Content: sb.String()}}
	for _, e := range rc.RecentContext {
		messages = append(messages, entryToMessage(e))
	}
	return append(messages, core.Message{Role: core.RoleUser, Content: req.Message})
}

// buildSimplifiedMessages is the degraded variant: short preamble, only the
// tail of the recent conversation, no memory sections.
func buildSimplifiedMessages(req core.ChatRequest, rc core.RelevantContext) []core.Message {
	messages := []core.Message{{Role: core.RoleSystem, Content: simplifiedSystemPrompt}}

	recent := rc.RecentContext
	if len(recent) > 4 {
		recent = recent[len(recent)-4:]
	}
	for _, e := range recent {
		messages = append(messages, entryToMessage(e))
	}
	return append(messages, core.Message{Role: core.RoleUser, Content: req.Message})
}

func formatSummary(s *core.ConversationSummary) string {
	var sb strings.Builder
	sb.WriteString("\n\nEarlier in this conversation:")
	if len(s.KeyTopics) > 0 {
		sb.WriteString("\nTopics: " + strings.Join(s.KeyTopics, ", "))
	}
	if len(s.Decisions) > 0 {
		sb.WriteString("\nDecisions: " + strings.Join(s.Decisions, "; "))
	}
	if len(s.ActionItems) > 0 {
		sb.WriteString("\nAction items: " + strings.Join(s.ActionItems, "; "))
	}
	return sb.String()
}

// formatToolResult recovers the structured payload of a tool_result entry.
// Entries that fail to decode are passed through as-is.
func formatToolResult(e core.MemoryEntry) string {
	var tc core.ToolContext
	if err := json.Unmarshal([]byte(e.Content), &tc); err != nil {
		return strings.TrimSpace(e.Content)
	}
	return fmt.Sprintf("%s (via %s): %s", tc.ToolName, tc.SourceInterface, tc.Result)
}

// entryToMessage maps a stored conversation turn back to a chat message.
// Turns are persisted with a role prefix; anything unprefixed reads as user.
func entryToMessage(e core.MemoryEntry) core.Message {
	if rest, ok := strings.CutPrefix(e.Content, "assistant: "); ok {
		return core.Message{Role: core.RoleAssistant, Content: rest}
	}
	if rest, ok := strings.CutPrefix(e.Content, "user: "); ok {
		return core.Message{Role: core.RoleUser, Content: rest}
	}
	return core.Message{Role: core.RoleUser, Content: e.Content}
}
