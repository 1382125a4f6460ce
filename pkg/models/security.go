package models

// ThreatCategory classifies a single pattern match on input or output text.
type ThreatCategory string

const (
	ThreatPromptInjection ThreatCategory = "prompt_injection"
	ThreatJailbreak       ThreatCategory = "jailbreak"
	ThreatDataExtraction  ThreatCategory = "data_extraction"
	ThreatMarkupInjection ThreatCategory = "markup_injection"
	ThreatObfuscation     ThreatCategory = "obfuscation"
	ThreatOversizedInput  ThreatCategory = "oversized_input"
)

// Severity grades a threat detection.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RiskWeight returns the contribution of this severity to the saturating
// 0-100 risk score.
func (s Severity) RiskWeight() int {
	switch s {
	case SeverityLow:
		return 5
	case SeverityMedium:
		return 15
	case SeverityHigh:
		return 30
	case SeverityCritical:
		return 60
	default:
		return 0
	}
}

// ThreatDetection is one classified pattern match.
type ThreatDetection struct {
	Category    ThreatCategory `json:"category"`
	Severity    Severity       `json:"severity"`
	Span        string         `json:"span,omitempty"`
	Description string         `json:"description"`
}

// SecurityDecision is the input filter's verdict for one message. The filter
// always returns a decision, even for empty input; it never fails the request
// by itself.
type SecurityDecision struct {
	Sanitized   string            `json:"sanitized"`
	Blocked     bool              `json:"blocked"`
	BlockReason string            `json:"block_reason,omitempty"`
	Warnings    []ThreatDetection `json:"warnings,omitempty"`
	RiskScore   int               `json:"risk_score"`
}
