// Package trace records per-session observability timelines. Appends are
// fire-and-forget: a sink never blocks the request path and never returns an
// error to it.
package trace

import (
	"sync"
	"time"
	"unicode/utf8"

	"github.com/yaronbeen/Shamay-AI-Official-sub006/pkg/models"
)

// Sink receives trace events. Implementations must be safe for concurrent use
// and must not block.
type Sink interface {
	Emit(event models.TraceEvent)
}

// MultiSink fans one event out to several sinks.
type MultiSink []Sink

func (m MultiSink) Emit(event models.TraceEvent) {
	for _, s := range m {
		s.Emit(event)
	}
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Emit(models.TraceEvent) {}

// maxContentLen bounds stored message content; full payloads live in logs.
const maxContentLen = 2000

// Store keeps ordered per-session timelines in memory for the trace read
// endpoint. Sessions are evicted oldest-first past maxSessions.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string][]models.TraceEvent
	order       []string
	maxSessions int
}

// NewStore creates a store retaining up to maxSessions session timelines.
// maxSessions <= 0 means 1000.
func NewStore(maxSessions int) *Store {
	if maxSessions <= 0 {
		maxSessions = 1000
	}
	return &Store{
		sessions:    make(map[string][]models.TraceEvent),
		maxSessions: maxSessions,
	}
}

// Emit implements Sink.
func (s *Store) Emit(event models.TraceEvent) {
	if event.SessionID == "" {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Content = truncate(event.Content, maxContentLen)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[event.SessionID]; !ok {
		s.order = append(s.order, event.SessionID)
		for len(s.order) > s.maxSessions {
			delete(s.sessions, s.order[0])
			s.order = s.order[1:]
		}
	}
	s.sessions[event.SessionID] = append(s.sessions[event.SessionID], event)
}

// truncate cuts s to at most max bytes without splitting a UTF-8 rune.
// Stored content is Hebrew for most sessions, so a byte slice at the limit
// would routinely land mid-rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// SecuritySummary aggregates the security posture of one session.
type SecuritySummary struct {
	MaxRiskScore  int  `json:"max_risk_score"`
	BlockCount    int  `json:"block_count"`
	WarningCount  int  `json:"warning_count"`
	ToolCalls     int  `json:"tool_calls"`
	ToolErrors    int  `json:"tool_errors"`
	HadModelError bool `json:"had_model_error"`
}

// Timeline returns the ordered events for a session plus a security summary.
// The second return is false when the session is unknown.
func (s *Store) Timeline(sessionID string) ([]models.TraceEvent, SecuritySummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, ok := s.sessions[sessionID]
	if !ok {
		return nil, SecuritySummary{}, false
	}

	out := make([]models.TraceEvent, len(events))
	copy(out, events)

	var sum SecuritySummary
	for _, e := range out {
		if e.RiskScore > sum.MaxRiskScore {
			sum.MaxRiskScore = e.RiskScore
		}
		switch e.Type {
		case models.TraceSecurityBlock:
			sum.BlockCount++
		case models.TraceToolCall:
			sum.ToolCalls++
		case models.TraceToolResult:
			if e.IsError {
				sum.ToolErrors++
			}
		case models.TraceError:
			sum.HadModelError = true
		}
		sum.WarningCount += len(e.Threats)
	}
	return out, sum, true
}
