package security

import "unicode"

// DefaultRunThreshold is the minimum length of a run of disallowed characters
// reported as an obfuscation threat.
const DefaultRunThreshold = 30

// longestDisallowedRun scans s once, left to right, counting consecutive
// characters that are neither letters (any script, Hebrew included), digits,
// whitespace, nor common punctuation. Deliberately not a regexp: a
// backtracking pattern over adversarial input can go superlinear, a counter
// cannot.
func longestDisallowedRun(s string) int {
	longest := 0
	current := 0
	for _, r := range s {
		if runAllowed(r) {
			if current > longest {
				longest = current
			}
			current = 0
			continue
		}
		current++
	}
	if current > longest {
		longest = current
	}
	return longest
}

func runAllowed(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '.', ',', '!', '?', '-', ':', ';', '\'', '"', '(', ')', '%', '₪', '$':
		return true
	}
	return false
}
