package core

import "time"

type MemoryKind string

const (
	KindConversation MemoryKind = "conversation"
	KindPreference   MemoryKind = "preference"
	KindFact         MemoryKind = "fact"
	KindToolResult   MemoryKind = "tool_result"
)

// MemoryEntry is an atomic fact/utterance/tool-result stored against a user
// and session. Content and Kind are immutable once written; only LastUsedAt
// and Confidence are refreshed on reuse. Short-lived entries carry ExpiresAt.
type MemoryEntry struct {
	ID              string
	UserID          string
	SessionID       string
	Kind            MemoryKind
	Content         string
	Importance      int     // 0..10
	Confidence      float64 // 0..1
	SourceInterface string
	CreatedAt       time.Time
	ExpiresAt       *time.Time
	LastUsedAt      time.Time
}

func (e MemoryEntry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && !e.ExpiresAt.After(now)
}

// ToolContext is the structured payload stored as a tool_result entry, so a
// later "what did we find out via tools" query recovers structure instead
// of prose.
type ToolContext struct {
	ToolName        string    `json:"tool"`
	Result          string    `json:"result"`
	SourceInterface string    `json:"sourceInterface"`
	Timestamp       time.Time `json:"timestamp"`
}

// ConversationSummary compresses a session's history. Later summaries for
// the same session supersede earlier ones; consumers use the most recent.
type ConversationSummary struct {
	SessionID   string
	KeyTopics   []string
	Decisions   []string
	ActionItems []string
	GeneratedAt time.Time
}

// UserProfile is a read-only projection recomputed on demand from a user's
// memory entries. It is never a source of truth.
type UserProfile struct {
	UserID           string
	PreferredStyle   string
	TopicCounts      map[string]int
	ToolCounts       map[string]int
	InteractionCount int
}

// RelevantContext is what the memory store hands the dispatcher for one
// query.
type RelevantContext struct {
	RecentContext    []MemoryEntry
	RelevantMemories []MemoryEntry
	ToolResults      []MemoryEntry
	Summary          *ConversationSummary
	Profile          UserProfile
}

// MemoryStats backs the inspection endpoints.
type MemoryStats struct {
	UserID       string
	TotalEntries int
	ByKind       map[MemoryKind]int
	ExpiringSoon int
	Sessions     int
}
