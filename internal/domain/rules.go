package domain

import "regexp"

// captureRule pairs a compiled pattern with the submatch index to keep.
// Group 0 keeps the whole match.
type captureRule struct {
	re    *regexp.Regexp
	group int
}

// ruleSet is an ordered pattern cascade, most specific pattern first. The
// first rule that matches wins and the rest are never consulted. Every
// section and free-text field cascade in this package is declared as one
// of these so the fallback order is visible in a single place.
type ruleSet []captureRule

// apply runs the cascade against text and returns the first capture.
func (rs ruleSet) apply(text string) (string, bool) {
	start, end, ok := rs.applyIndex(text)
	if !ok {
		return "", false
	}
	return text[start:end], true
}

// applyIndex runs the cascade and returns the byte span of the first
// capture, letting callers slice a parallel case-preserved string.
func (rs ruleSet) applyIndex(text string) (start, end int, ok bool) {
	for _, r := range rs {
		m := r.re.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		lo, hi := m[2*r.group], m[2*r.group+1]
		if lo < 0 {
			continue
		}
		return lo, hi, true
	}
	return 0, 0, false
}
