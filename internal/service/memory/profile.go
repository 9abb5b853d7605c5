package memory

import (
	"encoding/json"
	"strings"

	"github.com/porchlabs/porch/internal/core"
	"github.com/porchlabs/porch/internal/service/intent"
)

// buildProfile derives a read-only view over a user's entries. It is
// recomputed on every context query and never stored.
func buildProfile(userID string, entries []core.MemoryEntry) core.UserProfile {
	profile := core.UserProfile{
		UserID:      userID,
		TopicCounts: make(map[string]int),
		ToolCounts:  make(map[string]int),
	}

	for _, e := range entries {
		switch e.Kind {
		case core.KindConversation:
			profile.InteractionCount++
			profile.TopicCounts[string(intent.Classify(e.Content))]++
		case core.KindToolResult:
			var tc core.ToolContext
			if err := json.Unmarshal([]byte(e.Content), &tc); err == nil && tc.ToolName != "" {
				profile.ToolCounts[tc.ToolName]++
			}
		case core.KindPreference:
			if style := detectStyle(e.Content); style != "" {
				profile.PreferredStyle = style
			}
		}
	}

	if profile.PreferredStyle == "" {
		profile.PreferredStyle = "balanced"
	}
	return profile
}

func detectStyle(content string) string {
	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, "concise") || strings.Contains(lower, "brief") || strings.Contains(lower, "short"):
		return "concise"
	case strings.Contains(lower, "detail") || strings.Contains(lower, "thorough") || strings.Contains(lower, "in-depth"):
		return "detailed"
	default:
		return ""
	}
}
