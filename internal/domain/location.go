package domain

import (
	"regexp"
	"strings"

	"github.com/typhoonwatch/bulletin-etl/internal/gazetteer"
)

// parentheticalRe strips inline qualifiers like "(mainland)" or "(southern
// portion)" before tokenizing.
var parentheticalRe = regexp.MustCompile(`\([^)]*\)`)

// boilerplateMarkers flag lines that narrate impacts rather than list
// places. Warning tables interleave location lists with threat prose; any
// line containing one of these is dropped before tokenizing.
var boilerplateMarkers = []string{
	"wind threat:",
	"gale-forc",
	"strong winds",
	"prevailing winds",
	"warning lead time:",
	"range of wind speeds:",
	"potential impacts",
	"minor to moderate",
	"minor threat",
	"moderate threat",
	"property",
	"page",
	"prepared by",
	"weather",
	"pagasa",
	"bulletin",
}

// islandHeaderRe matches an island-group header with its punctuation
// ("Luzon:", "over Visayas -"). Headers act as token boundaries: the
// header itself is dropped and the text on each side is classified on its
// own, so a line for one island group never bleeds into the next.
var islandHeaderRe = regexp.MustCompile(`(?i)(?:\bover\s+|\bacross\s+|\bin\s+)?\b(?:luzon|visayas|mindanao)\b\s*[:\-]\s*`)

// tokenSplitRe splits location lists on commas and semicolons.
var tokenSplitRe = regexp.MustCompile(`[,;]`)

// ResolveLocations classifies free text naming warned areas into island
// group buckets. Tokens that resolve to nothing land under Other so
// ambiguity stays visible instead of being dropped. Each group renders as
// a comma-joined string of its locations in first-seen order.
func ResolveLocations(raw string, ix *gazetteer.Index) IslandTags {
	cleaned := parentheticalRe.ReplaceAllString(raw, " ")

	kept := make([]string, 0, 8)
	for _, line := range strings.Split(cleaned, "\n") {
		if isBoilerplateLine(line) {
			continue
		}
		kept = append(kept, line)
	}
	joined := strings.Join(kept, " ")
	joined = strings.ReplaceAll(joined, " and ", ", ")
	joined = flattenWhitespace(joined)

	groups := make(map[gazetteer.IslandGroup][]string, 4)
	seen := make(map[string]bool)
	for _, tok := range tokenSplitRe.Split(joined, -1) {
		for _, part := range islandHeaderRe.Split(tok, -1) {
			part = strings.TrimSpace(part)
			if len(part) < 3 {
				continue
			}
			group := ix.Lookup(part)
			if group == gazetteer.Unknown {
				group = gazetteer.Other
			}
			key := strings.ToLower(part)
			if seen[key] {
				continue
			}
			seen[key] = true
			groups[group] = append(groups[group], part)
		}
	}

	return IslandTags{
		Luzon:    joinGroup(groups[gazetteer.Luzon]),
		Visayas:  joinGroup(groups[gazetteer.Visayas]),
		Mindanao: joinGroup(groups[gazetteer.Mindanao]),
		Other:    joinGroup(groups[gazetteer.Other]),
	}
}

// joinGroup renders a group's locations in canonical comma-joined form, or
// nil when the group is empty.
func joinGroup(locations []string) *string {
	if len(locations) == 0 {
		return nil
	}
	s := strings.Join(locations, ", ")
	return &s
}

// isBoilerplateLine reports whether a line is impact narration or a bare
// separator rather than a location list.
func isBoilerplateLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	switch trimmed {
	case "-", "--", "- -":
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, marker := range boilerplateMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
