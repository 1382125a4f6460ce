package models

import "time"

// TraceEventType categorizes trace timeline entries.
type TraceEventType string

const (
	TraceUserMessage       TraceEventType = "user_message"
	TraceSecurityBlock     TraceEventType = "security_block"
	TraceToolCall          TraceEventType = "tool_call"
	TraceToolResult        TraceEventType = "tool_result"
	TraceAssistantResponse TraceEventType = "assistant_response"
	TraceError             TraceEventType = "error"
)

// TraceEvent is one entry in a session's observability timeline. Events are
// fire-and-forget: emitting them never fails or blocks the request path.
type TraceEvent struct {
	Type      TraceEventType `json:"type"`
	SessionID string         `json:"session_id"`
	Timestamp time.Time      `json:"timestamp"`

	// Message payload, truncated for storage.
	Content string `json:"content,omitempty"`

	// Tool fields, set for tool_call / tool_result events.
	ToolName   string        `json:"tool_name,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
	Latency    time.Duration `json:"latency_ns,omitempty"`
	IsError    bool          `json:"is_error,omitempty"`

	// Security fields, set for security_block events.
	RiskScore int               `json:"risk_score,omitempty"`
	Threats   []ThreatDetection `json:"threats,omitempty"`

	// Token accounting, set on assistant_response events.
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
}
