package agent

import (
	"context"
	"encoding/json"

	"github.com/yaronbeen/Shamay-AI-Official-sub006/pkg/models"
)

// LLMProvider is the interface model backends implement.
//
// Implementations must be safe for concurrent use; multiple goroutines may
// call Complete simultaneously for different requests.
type LLMProvider interface {
	// Complete sends a prompt and returns a streaming response.
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error)

	// Name returns the provider name.
	Name() string

	// DefaultModel returns the model used when a request does not name one.
	DefaultModel() string
}

// CompletionRequest carries one model call: system prompt, conversation so
// far, available tools and generation limits.
type CompletionRequest struct {
	// Model names the model; empty means the provider default.
	Model string `json:"model"`

	// System is handled separately from messages in the model APIs.
	System string `json:"system,omitempty"`

	// Messages is the conversation in chronological order.
	Messages []CompletionMessage `json:"messages"`

	// Tools the model may request. Empty disables tool calling.
	Tools []Tool `json:"-"`

	// MaxTokens limits the response length; 0 uses the provider default.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// CompletionMessage is a single conversation message. Role is "user" or
// "assistant"; tool results travel on a user-role message per the wire
// convention of the model APIs.
type CompletionMessage struct {
	Role        string              `json:"role"`
	Content     string              `json:"content,omitempty"`
	ToolCalls   []models.ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []models.ToolResult `json:"tool_results,omitempty"`
	Attachments []models.Attachment `json:"attachments,omitempty"`
}

// CompletionChunk is one unit of a streaming model response.
//
// Text arrives incrementally; TextEnd marks the boundary of one text block so
// the loop can run the output filter per block. A ToolCall arrives complete.
// Token counts are populated on the final chunk only.
type CompletionChunk struct {
	Text    string `json:"text,omitempty"`
	TextEnd bool   `json:"text_end,omitempty"`

	ToolCall *models.ToolCall `json:"tool_call,omitempty"`

	Done  bool  `json:"done,omitempty"`
	Error error `json:"-"`

	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
}

// Tool is one executable capability exposed to the model. All tools in this
// service are read-only lookups against the session's appraisal record.
type Tool interface {
	// Name returns the function-calling name (alphanumeric, underscores).
	Name() string

	// Description tells the model when to use the tool.
	Description() string

	// Schema returns the JSON Schema for the tool's parameters.
	Schema() json.RawMessage

	// Execute runs the tool; params have already been validated against
	// Schema by the registry.
	Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error)
}

// ToolResult is the output of one tool execution. Errors are also
// communicated through IsError so the model can handle them gracefully.
type ToolResult struct {
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// ResponseChunk is one unit of the orchestrator's streamed reply.
//
// Exactly one field group is set per chunk: filtered response text, a
// localized progress notice, a finished tool result, the terminal Done chunk
// carrying token totals, or an error.
type ResponseChunk struct {
	Text   string `json:"text,omitempty"`
	Notice string `json:"notice,omitempty"`

	ToolResult *models.ToolResult `json:"tool_result,omitempty"`

	Done         bool `json:"done,omitempty"`
	InputTokens  int  `json:"input_tokens,omitempty"`
	OutputTokens int  `json:"output_tokens,omitempty"`

	Error error `json:"-"`
}
