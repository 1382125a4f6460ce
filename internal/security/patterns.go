package security

import (
	"regexp"

	"github.com/yaronbeen/Shamay-AI-Official-sub006/pkg/models"
)

// threatPattern couples a compiled pattern with its classification.
type threatPattern struct {
	re          *regexp.Regexp
	category    models.ThreatCategory
	severity    models.Severity
	description string
}

// Instruction-override and jailbreak phrasing, English and Hebrew.
// Any match is critical and blocks the request before it reaches the model.
var injectionPatterns = []threatPattern{
	{
		re:          regexp.MustCompile(`(?i)(ignore|disregard|forget)\s+(all\s+)?(previous|prior|above|earlier)\s+(instructions|rules|prompts|directions)`),
		category:    models.ThreatPromptInjection,
		severity:    models.SeverityCritical,
		description: "instruction override attempt",
	},
	{
		re:          regexp.MustCompile(`(?i)(reveal|show|print|repeat|output|leak)\s+(your\s+|the\s+)?(system\s+prompt|hidden\s+(prompt|instructions)|initial\s+instructions)`),
		category:    models.ThreatPromptInjection,
		severity:    models.SeverityCritical,
		description: "system prompt extraction attempt",
	},
	{
		re:          regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|in|the)\b`),
		category:    models.ThreatJailbreak,
		severity:    models.SeverityCritical,
		description: "role reassignment attempt",
	},
	{
		re:          regexp.MustCompile(`(?i)(enable|enter|activate|switch\s+to)\s+(developer|admin|debug|god|dan)\s+mode`),
		category:    models.ThreatJailbreak,
		severity:    models.SeverityCritical,
		description: "privileged mode request",
	},
	{
		re:          regexp.MustCompile(`(?i)\b(jailbreak|jailbroken|do\s+anything\s+now)\b`),
		category:    models.ThreatJailbreak,
		severity:    models.SeverityCritical,
		description: "jailbreak keyword",
	},
	{
		re:          regexp.MustCompile(`(?i)pretend\s+(you\s+are|to\s+be)\s+`),
		category:    models.ThreatJailbreak,
		severity:    models.SeverityCritical,
		description: "persona override attempt",
	},
	{
		re:          regexp.MustCompile(`התעלמ[יו]?\s+מ(כל\s+)?ההוראות`),
		category:    models.ThreatPromptInjection,
		severity:    models.SeverityCritical,
		description: "instruction override attempt (he)",
	},
	{
		re:          regexp.MustCompile(`(חשו?פ[יו]?|גל[הי]|הצג[יו]?)\s+את\s+(הוראות|הנחיות)\s+המערכת`),
		category:    models.ThreatPromptInjection,
		severity:    models.SeverityCritical,
		description: "system prompt extraction attempt (he)",
	},
	{
		re:          regexp.MustCompile(`(את[הם]|את)\s+עכשיו\s+`),
		category:    models.ThreatJailbreak,
		severity:    models.SeverityCritical,
		description: "role reassignment attempt (he)",
	},
	{
		re:          regexp.MustCompile(`מצב\s+(מפתחים?|מנהל|דיבאג)`),
		category:    models.ThreatJailbreak,
		severity:    models.SeverityCritical,
		description: "privileged mode request (he)",
	},
	{
		re:          regexp.MustCompile(`העמ[די]ד?\s+פנים\s+ש`),
		category:    models.ThreatJailbreak,
		severity:    models.SeverityCritical,
		description: "persona override attempt (he)",
	},
}

// Credential and database probing. High severity: recorded as a warning and
// reflected in the risk score, but not blocking on its own.
var extractionPatterns = []threatPattern{
	{
		re:          regexp.MustCompile(`(?i)\b(dump|list|show|reveal|export|send)\b[^.?!]{0,60}\b(passwords?|credentials?|secrets?|api[_\- ]?keys?|tokens?)\b`),
		category:    models.ThreatDataExtraction,
		severity:    models.SeverityHigh,
		description: "credential probing",
	},
	{
		re:          regexp.MustCompile(`(?i)\b(database|db)\s+(schema|dump|structure|tables|connection\s+string)\b`),
		category:    models.ThreatDataExtraction,
		severity:    models.SeverityHigh,
		description: "database probing",
	},
	{
		re:          regexp.MustCompile(`(?i)\benv(ironment)?\s+variables?\b`),
		category:    models.ThreatDataExtraction,
		severity:    models.SeverityMedium,
		description: "environment probing",
	},
	{
		re:          regexp.MustCompile(`(הצג[יו]?|שלח[יו]?|ייצא[יו]?)[^.?!]{0,40}(סיסמ(ה|אות)|מפתח(ות)?\s+API|סודות)`),
		category:    models.ThreatDataExtraction,
		severity:    models.SeverityHigh,
		description: "credential probing (he)",
	},
	{
		re:          regexp.MustCompile(`(מבנה|תוכן|ייצוא)\s+(מסד|בסיס)\s+(ה)?נתונים`),
		category:    models.ThreatDataExtraction,
		severity:    models.SeverityHigh,
		description: "database probing (he)",
	},
}

// Markup and script payloads. Matches are always replaced with a placeholder
// in the sanitized text, independent of the blocking decision.
var markupPatterns = []threatPattern{
	{
		re:          regexp.MustCompile(`(?i)<\s*script\b[^>]*>(?s:.*?)(</\s*script\s*>|$)`),
		category:    models.ThreatMarkupInjection,
		severity:    models.SeverityHigh,
		description: "script tag",
	},
	{
		re:          regexp.MustCompile(`(?i)<\s*(iframe|object|embed|svg)\b`),
		category:    models.ThreatMarkupInjection,
		severity:    models.SeverityHigh,
		description: "embedded frame or object",
	},
	{
		re:          regexp.MustCompile(`(?i)javascript\s*:`),
		category:    models.ThreatMarkupInjection,
		severity:    models.SeverityHigh,
		description: "javascript URI",
	},
	{
		re:          regexp.MustCompile(`(?i)\bon(load|error|click|focus|mouseover|submit)\s*=`),
		category:    models.ThreatMarkupInjection,
		severity:    models.SeverityHigh,
		description: "inline event handler",
	},
	{
		re:          regexp.MustCompile(`(?i)data:text/html`),
		category:    models.ThreatMarkupInjection,
		severity:    models.SeverityHigh,
		description: "data URI payload",
	},
}

// neutralizedPlaceholder replaces markup-injection spans in sanitized text.
const neutralizedPlaceholder = "[removed]"
