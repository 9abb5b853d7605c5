package core

import "time"

const (
	PorchName    = "Porch"
	PorchVersion = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Source interfaces a chat request can originate from.
const (
	SourceMain     = "main"
	SourceFloating = "floating"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the input to the orchestration core. Only Message is
// required; every other field is corrected with defaults rather than
// rejected.
type ChatRequest struct {
	Message            string  `json:"message"`
	SessionID          string  `json:"sessionId,omitempty"`
	UserID             string  `json:"userId,omitempty"`
	Model              string  `json:"model,omitempty"`
	Temperature        float64 `json:"temperature,omitempty"`
	MaxTokens          int     `json:"maxTokens,omitempty"`
	Streaming          bool    `json:"streaming,omitempty"`
	SourceInstance     string  `json:"sourceInstance,omitempty"`
	MemoryEnabled      *bool   `json:"memoryEnabled,omitempty"`
	CrossSessionMemory bool    `json:"crossSessionMemory,omitempty"`
}

func (r ChatRequest) MemoryOn() bool {
	return r.MemoryEnabled == nil || *r.MemoryEnabled
}

// ChatResponse always carries Success=true and non-empty Content; degraded
// quality is visible only through Metadata.SourceTier.
type ChatResponse struct {
	Success   bool             `json:"success"`
	Content   string           `json:"content"`
	SessionID string           `json:"sessionId"`
	Model     string           `json:"model"`
	Metadata  ResponseMetadata `json:"metadata"`
}

type ResponseMetadata struct {
	ProcessingTimeMs int64        `json:"processingTimeMs"`
	MemoryIntegrated bool         `json:"memoryIntegrated"`
	ContextUsed      ContextUsage `json:"contextUsed"`
	SourceTier       string       `json:"sourceTier"`
	CacheHit         bool         `json:"cacheHit,omitempty"`
}

type ContextUsage struct {
	RecentMessages   int `json:"recentMessages"`
	RelevantMemories int `json:"relevantMemories"`
	ToolResults      int `json:"toolResults"`
}

// StreamChunk is one element of the streaming response variant. The final
// chunk has Done=true and empty Content.
type StreamChunk struct {
	Content   string `json:"content"`
	Done      bool   `json:"done"`
	SessionID string `json:"sessionId"`
	Model     string `json:"model"`
}

// DispatchOutcome is the result of one cascade run. Fallback is true when
// the deterministic tail tier produced the content.
type DispatchOutcome struct {
	Tier     string
	Content  string
	Fallback bool
}

// DispatchAttempt records one tier attempt for observability. It lives only
// for the duration of a single request.
type DispatchAttempt struct {
	Tier      string
	StartedAt time.Time
	Duration  time.Duration
	Err       error
}
