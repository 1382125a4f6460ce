package models

import (
	"encoding/json"
	"time"
)

// Role indicates the turn author type.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SegmentType identifies the kind of content held by a turn segment.
type SegmentType string

const (
	SegmentText       SegmentType = "text"
	SegmentImage      SegmentType = "image"
	SegmentDocument   SegmentType = "document"
	SegmentToolResult SegmentType = "tool_result"
)

// Segment is one ordered content unit inside a conversation turn.
// Exactly one payload field is populated, selected by Type.
type Segment struct {
	Type       SegmentType `json:"type"`
	Text       string      `json:"text,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// ConversationTurn is one role-tagged message unit, possibly multi-segment.
// Turns are immutable once appended; the caller supplies prior turns on every
// request, the server never persists them.
type ConversationTurn struct {
	Role      Role       `json:"role"`
	Segments  []Segment  `json:"segments,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// TextTurn builds a single-segment text turn.
func TextTurn(role Role, text string) ConversationTurn {
	return ConversationTurn{
		Role:     role,
		Segments: []Segment{{Type: SegmentText, Text: text}},
	}
}

// Text concatenates the text segments of the turn.
func (t ConversationTurn) Text() string {
	var out string
	for _, seg := range t.Segments {
		if seg.Type == SegmentText {
			out += seg.Text
		}
	}
	return out
}

// ToolCall is the model's request to invoke a registered tool.
// ID is the opaque call identifier used to match results to calls.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult is the outcome of one tool invocation, matched to its
// originating call by ToolCallID regardless of dispatch order.
type ToolResult struct {
	ToolCallID string        `json:"tool_call_id"`
	Content    string        `json:"content"`
	IsError    bool          `json:"is_error,omitempty"`
	Latency    time.Duration `json:"latency_ns,omitempty"`
}

// Attachment is a caller-supplied file. Payload bytes never become
// conversation content until the intake scanner accepts them; accepted
// attachments are referred to by SanitizedName only.
type Attachment struct {
	Name     string      `json:"name"`
	MimeType string      `json:"mime_type"`
	Size     int64       `json:"size"`
	Payload  []byte      `json:"-"`
	Scan     *ScanResult `json:"scan,omitempty"`
}

// ScanResult is the intake scanner's verdict for one attachment.
type ScanResult struct {
	IsValid       bool              `json:"is_valid"`
	IsSafe        bool              `json:"is_safe"`
	SanitizedName string            `json:"sanitized_name"`
	BlockReason   string            `json:"block_reason,omitempty"`
	Threats       []ThreatDetection `json:"threats,omitempty"`
}
