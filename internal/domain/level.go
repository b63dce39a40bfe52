package domain

import (
	"regexp"
	"sort"
	"strings"
)

// Numeric wind signal markers as bulletins typeset them: prose mentions
// ("Tropical Cyclone Wind Signal No. 3"), terse forms ("TCWS #3",
// "Signal 3:") and table cells ("3 |").
var signalMarkerRes = []*regexp.Regexp{
	regexp.MustCompile(`(?:wind\s+)?(?:signal|tcws)\s*(?:no\.?\s*)?#?([1-5])(?:\s|[:\-]|$)`),
	regexp.MustCompile(`\b([1-5])\s*\|`),
}

// signalKeywords imply a level without naming a digit. PAGASA couples each
// signal number to a fixed wind-band vocabulary.
var signalKeywords = map[int][]string{
	1: {"gale force", "initial warning"},
	2: {"storm force"},
	3: {"severe tropical storm"},
	4: {"typhoon force"},
	5: {"violent winds", "super typhoon"},
}

// looseSignalRes catch signal numbers named at a distance ("the highest
// signal in effect is no. 2", "2 over Luzon") that the strict markers
// miss. Consulted only when no marker of any kind was found.
var looseSignalRes = []*regexp.Regexp{
	regexp.MustCompile(`(?:signal|tcws)[^0-9]*?([1-5])`),
	regexp.MustCompile(`([1-5])[^a-z0-9]*(?:luzon|visayas|mindanao)`),
}

// signalMarker is the first occurrence of a level's marker in a section.
type signalMarker struct {
	level int
	start int
	end   int
}

// findSignalMarkers scans the lowercased section for numeric and keyword
// markers and keeps the earliest occurrence per level, ordered by level.
func findSignalMarkers(lower string) []signalMarker {
	first := make(map[int]signalMarker, 5)
	record := func(level, start, end int) {
		m, ok := first[level]
		if !ok || start < m.start {
			first[level] = signalMarker{level: level, start: start, end: end}
		}
	}

	for _, re := range signalMarkerRes {
		for _, m := range re.FindAllStringSubmatchIndex(lower, -1) {
			record(int(lower[m[2]]-'0'), m[0], m[1])
		}
	}
	// Bulletins hyphenate wind bands ("Storm-force winds") as often as
	// not. Swapping hyphens for spaces keeps offsets unchanged.
	dehyphenated := strings.ReplaceAll(lower, "-", " ")
	for level, phrases := range signalKeywords {
		for _, phrase := range phrases {
			if i := strings.Index(dehyphenated, phrase); i >= 0 {
				record(level, i, i+len(phrase))
			}
		}
	}

	markers := make([]signalMarker, 0, len(first))
	for _, m := range first {
		markers = append(markers, m)
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].level < markers[j].level })
	return markers
}

// FindSignalLevels returns the signal levels present in a section in
// ascending order.
func FindSignalLevels(section string) []int {
	markers := findSignalMarkers(strings.ToLower(section))
	var levels []int
	for _, m := range markers {
		levels = append(levels, m.level)
	}
	return levels
}

// SplitSignalSection slices a signal section into per-level sub-texts.
// Each detected level's window runs from just after its first marker to
// the first marker of the next-higher detected level, so location lists
// never leak across levels. When no marker of any kind is present, the
// whole section falls to the highest loosely implied level.
func SplitSignalSection(section string) map[int]string {
	lower := strings.ToLower(section)
	markers := findSignalMarkers(lower)
	if len(markers) == 0 {
		level, ok := highestImpliedSignal(lower)
		if !ok {
			return nil
		}
		return map[int]string{level: section}
	}

	windows := make(map[int]string, len(markers))
	for i, m := range markers {
		boundary := len(section)
		for _, higher := range markers[i+1:] {
			if higher.start < boundary {
				boundary = higher.start
			}
		}
		if boundary <= m.end {
			continue
		}
		window := strings.TrimSpace(section[m.end:boundary])
		if window == "" {
			continue
		}
		windows[m.level] = window
	}
	return windows
}

// highestImpliedSignal returns the highest signal number loosely implied
// anywhere in the section.
func highestImpliedSignal(lower string) (int, bool) {
	best := 0
	for _, re := range looseSignalRes {
		for _, m := range re.FindAllStringSubmatchIndex(lower, -1) {
			if level := int(lower[m[2]] - '0'); level > best {
				best = level
			}
		}
	}
	return best, best > 0
}

// rainfallKeywords describe the three rainfall warning levels, most severe
// first: level 1 is the red band (intense, >30 mm/h), level 2 orange
// (heavy, 15-30 mm/h), level 3 yellow (light to moderate, 7.5-15 mm/h).
var rainfallKeywords = []struct {
	level   int
	phrases []string
}{
	{1, []string{"intense rainfall", "intense rain", ">30 mm", "flash flood", "widespread flooding"}},
	{2, []string{"heavy rainfall", "heavy rain", "15-30 mm", "moderate flooding"}},
	{3, []string{"light to moderate", "7.5-15 mm", "rainfall advisory", "minor flooding"}},
}

// IdentifyRainfallLevel classifies a rainfall section by its most severe
// stated hazard: levels are checked from 1 down and the first hit wins, so
// a section naming several intensities lands on the worst one. At most one
// level per call.
func IdentifyRainfallLevel(section string) (int, bool) {
	lower := strings.ToLower(section)
	for _, band := range rainfallKeywords {
		for _, phrase := range band.phrases {
			if strings.Contains(lower, phrase) {
				return band.level, true
			}
		}
	}
	return 0, false
}
