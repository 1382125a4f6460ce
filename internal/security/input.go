// Package security implements the two layered text filters guarding the chat
// core: the input filter screening caller messages before any model call, and
// the output filter screening every model-produced text segment before it is
// streamed back.
package security

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/i18n"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/pkg/models"
)

// FilterConfig tunes the input filter.
type FilterConfig struct {
	// MaxInputRunes caps scanned input length. Longer input is truncated
	// before scanning and the truncation recorded as a medium threat.
	// Default: 10000.
	MaxInputRunes int

	// RunThreshold is the minimum run of disallowed characters reported as
	// obfuscation. Default: DefaultRunThreshold.
	RunThreshold int
}

func (c *FilterConfig) withDefaults() FilterConfig {
	cfg := FilterConfig{MaxInputRunes: 10000, RunThreshold: DefaultRunThreshold}
	if c == nil {
		return cfg
	}
	if c.MaxInputRunes > 0 {
		cfg.MaxInputRunes = c.MaxInputRunes
	}
	if c.RunThreshold > 0 {
		cfg.RunThreshold = c.RunThreshold
	}
	return cfg
}

// Filter is the input security filter. Safe for concurrent use; all pattern
// state is compiled once at package load.
type Filter struct {
	config FilterConfig
}

// NewFilter creates an input filter. A nil config uses defaults.
func NewFilter(config *FilterConfig) *Filter {
	return &Filter{config: config.withDefaults()}
}

// maxSpanLen bounds the matched span recorded on a threat, so threat records
// cannot themselves become an exfiltration channel.
const maxSpanLen = 120

// Validate screens one raw caller message. It never fails: every input,
// including empty input, yields a decision. The sanitized text is always
// HTML-entity-encoded as the final step, whether or not anything matched.
func (f *Filter) Validate(raw, sessionID string, lang language.Tag) models.SecurityDecision {
	decision := models.SecurityDecision{}

	text := raw
	if runes := []rune(text); len(runes) > f.config.MaxInputRunes {
		text = string(runes[:f.config.MaxInputRunes])
		decision.Warnings = append(decision.Warnings, models.ThreatDetection{
			Category:    models.ThreatOversizedInput,
			Severity:    models.SeverityMedium,
			Description: fmt.Sprintf("input truncated to %d characters", f.config.MaxInputRunes),
		})
	}

	critical := false

	record := func(t models.ThreatDetection) {
		if t.Severity == models.SeverityCritical {
			critical = true
		}
		decision.Warnings = append(decision.Warnings, t)
	}

	for _, p := range injectionPatterns {
		if span := p.re.FindString(text); span != "" {
			record(models.ThreatDetection{
				Category:    p.category,
				Severity:    p.severity,
				Span:        clampSpan(span),
				Description: p.description,
			})
		}
	}
	for _, p := range extractionPatterns {
		if span := p.re.FindString(text); span != "" {
			record(models.ThreatDetection{
				Category:    p.category,
				Severity:    p.severity,
				Span:        clampSpan(span),
				Description: p.description,
			})
		}
	}

	// Markup payloads are neutralized in the sanitized text regardless of
	// whether the request ends up blocked.
	for _, p := range markupPatterns {
		if span := p.re.FindString(text); span != "" {
			record(models.ThreatDetection{
				Category:    p.category,
				Severity:    p.severity,
				Span:        clampSpan(span),
				Description: p.description,
			})
			text = p.re.ReplaceAllString(text, neutralizedPlaceholder)
		}
	}

	if run := longestDisallowedRun(text); run >= f.config.RunThreshold {
		record(models.ThreatDetection{
			Category:    models.ThreatObfuscation,
			Severity:    models.SeverityMedium,
			Description: fmt.Sprintf("run of %d non-text characters", run),
		})
	}

	for _, t := range decision.Warnings {
		decision.RiskScore += t.Severity.RiskWeight()
	}
	if decision.RiskScore > 100 {
		decision.RiskScore = 100
	}

	if critical {
		decision.Blocked = true
		decision.BlockReason = i18n.T(lang, i18n.KeyBlockedInjection)
	}

	decision.Sanitized = EncodeEntities(text)
	return decision
}

func clampSpan(span string) string {
	runes := []rune(span)
	if len(runes) > maxSpanLen {
		return string(runes[:maxSpanLen])
	}
	return span
}
