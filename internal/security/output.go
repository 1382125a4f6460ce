package security

import (
	"regexp"
	"strings"
)

// Leakage patterns checked on every outgoing text segment. A match blocks the
// segment; the loop substitutes one fixed safe message.
var leakagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(my|the)\s+(system\s+prompt|hidden\s+instructions?)\s+(is|are|says?|reads?)`),
	regexp.MustCompile(`(?i)here\s+(is|are)\s+(my|the)\s+(system\s+prompt|instructions)`),
	regexp.MustCompile(`הוראות\s+המערכת\s+(שלי\s+)?(הן|אומרות)`),
	// Credential material should never appear in answers about a property.
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_\-]{20,}`),
	regexp.MustCompile(`(?i)\b(password|api[_\- ]?key|connection\s+string)\s*[:=]\s*\S+`),
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`),
}

var (
	codeFenceRe  = regexp.MustCompile("(?m)^```[^\n]*$")
	headingRe    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockquoteRe = regexp.MustCompile(`(?m)^>\s?`)
	// Single underscores stay: identifiers like gush_chelka appear in answers.
	emphasisRe = regexp.MustCompile(`(\*\*|__|\*)`)
	imageRe    = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]*)\)`)
	linkRe     = regexp.MustCompile(`\[([^\]]+)\]\(([^)]*)\)`)
	backtickRe = regexp.MustCompile("`+")
	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

// OutputFilter screens model-produced text. It must run once per segment,
// never once for a whole multi-segment response.
type OutputFilter struct{}

// NewOutputFilter creates an output filter.
func NewOutputFilter() *OutputFilter {
	return &OutputFilter{}
}

// Check screens one candidate text segment for the given session. When
// blocked is true the segment must not be streamed; otherwise stripped holds
// the segment with markdown control sequences removed.
func (f *OutputFilter) Check(candidate, sessionID string) (blocked bool, stripped string) {
	for _, re := range leakagePatterns {
		if re.MatchString(candidate) {
			return true, ""
		}
	}
	return false, StripMarkdown(candidate)
}

// StripMarkdown removes markdown control sequences, keeping the visible text.
// Links keep their target in parentheses; images reduce to their alt text.
func StripMarkdown(s string) string {
	s = codeFenceRe.ReplaceAllString(s, "")
	s = imageRe.ReplaceAllString(s, "$1")
	s = linkRe.ReplaceAllString(s, "$1 ($2)")
	s = headingRe.ReplaceAllString(s, "")
	s = blockquoteRe.ReplaceAllString(s, "")
	s = emphasisRe.ReplaceAllString(s, "")
	s = backtickRe.ReplaceAllString(s, "")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
