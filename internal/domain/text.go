package domain

import "strings"

// normalizeLines collapses runs of spaces and tabs within each line, trims
// line edges and drops blank lines, preserving the line structure the
// boilerplate filter needs downstream. Section and marker matching runs
// over a lowercased copy of this form; captured spans are sliced back out
// of the case-preserved form at the same offsets.
func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// flattenWhitespace collapses every whitespace run to a single space.
// Field extraction sees this view so captures can cross the line breaks
// PDF conversion scatters through sentences.
func flattenWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
