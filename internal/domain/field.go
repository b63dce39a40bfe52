package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Sentinels for fields the cascades cannot find. Downstream consumers key
// on these exact strings.
const (
	LocationNotFound  = "Location not found"
	MovementNotFound  = "Movement information not found"
	WindspeedNotFound = "Wind speed not found"
)

// maxFieldLen bounds free-text captures; anything longer has almost
// certainly swallowed unrelated trailing prose.
const maxFieldLen = 200

const monthNames = `January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Oct|Nov|Dec`

// issuedAtRules match the bulletin issue timestamp. PDF text extraction
// mangles this header several ways, so later rules accept progressively
// sloppier spacing, down to the fully glued "ISSUEDAT" form.
var issuedAtRules = ruleSet{
	{regexp.MustCompile(`(?i)issued\s+at\s+(\d{1,2}:\d{2}\s*(?:AM|PM)[,\s]+\d{1,2}\s+(?:` + monthNames + `)\s+\d{4})`), 1},
	{regexp.MustCompile(`(?i)issued\s+at\s+(\d{1,2}:\d{2}\s*(?:AM|PM)[,\s]+\d{1,2}\s+\w+\s+\d{4})`), 1},
	{regexp.MustCompile(`(?i)issued\s*at\s*(\d{1,2}:\d{2}[AP]M[^0-9]*\d{1,2}\s+\w+\s+\d{4})`), 1},
	{regexp.MustCompile(`(?i)issuedat\s*(\d{1,2}:\d{2}[AP]M[,\s]*\d{1,2}\s*[A-Za-z]+\s*\d{4})`), 1},
}

// issuedAtPartsRe decomposes a captured issue phrase into clock, meridiem,
// day, month and year regardless of the punctuation between them.
var issuedAtPartsRe = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*([AP]M)[,\s]*(\d{1,2})\s*([A-Za-z]+)\s*(\d{4})`)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ExtractIssuedAt returns the bulletin issue time normalized to
// "2006-01-02 15:04:05" form. A capture that resists parsing is returned
// raw rather than dropped; false means no issue timestamp was found.
func ExtractIssuedAt(text string) (string, bool) {
	capture, ok := issuedAtRules.apply(flattenWhitespace(text))
	if !ok {
		return "", false
	}
	if normalized, ok := normalizeIssuedAt(capture); ok {
		return normalized, true
	}
	return capture, true
}

// normalizeIssuedAt converts a captured phrase like "5:00 PM, 10 November
// 2025" to "2025-11-10 17:00:00".
func normalizeIssuedAt(capture string) (string, bool) {
	m := issuedAtPartsRe.FindStringSubmatch(capture)
	if m == nil {
		return "", false
	}

	hour := parseIntOrZero(m[1])
	minute := parseIntOrZero(m[2])
	day := parseIntOrZero(m[4])
	year := parseIntOrZero(m[6])

	monthKey := strings.ToLower(m[5])
	if len(monthKey) > 3 {
		monthKey = monthKey[:3]
	}
	month, ok := monthsByPrefix[monthKey]
	if !ok {
		return "", false
	}

	switch strings.ToUpper(m[3]) {
	case "PM":
		if hour != 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 || day < 1 || day > 31 {
		return "", false
	}

	ts := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	return ts.Format("2006-01-02 15:04:05"), true
}

// parseIntOrZero converts digit captures, treating failures as zero.
func parseIntOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// locationRules anchor on the verbs bulletins use to place the cyclone
// center and require a geographic cue in the capture.
var locationRules = ruleSet{
	{regexp.MustCompile(`(?i)located\s+([^.]*?(?:latitude|longitude|km|miles|east|west|north|south)[^.]*)`), 1},
	{regexp.MustCompile(`(?i)centered\s+([^.]*?(?:latitude|longitude|km|miles|east|west|north|south)[^.]*)`), 1},
	{regexp.MustCompile(`(?i)(?:at|near)\s+([^.]*?(?:latitude|longitude|km|miles|east|west|north|south)[^.]*)`), 1},
}

// ExtractLocation returns the cyclone center phrase or its sentinel.
func ExtractLocation(text string) string {
	capture, ok := locationRules.apply(flattenWhitespace(text))
	if !ok {
		return LocationNotFound
	}
	return clampField(capture)
}

// movementRules capture the forecast motion sentence. The whole matched
// sentence is kept, not just the direction.
var movementRules = ruleSet{
	{regexp.MustCompile(`(?i)(?:will|is\s+expected\s+to|forecast)\s+move\s+[^.]*?(?:northwest|northeast|southwest|southeast|west|east|north|south)[^.]*`), 0},
	{regexp.MustCompile(`(?i)on\s+the\s+forecast\s+track[^.]*`), 0},
	{regexp.MustCompile(`(?i)(?:will|forecast)[^.]*?(?:northwestward|northeastward|southwestward|southeastward|westward|eastward|northward|southward)[^.]*`), 0},
}

// ExtractMovement returns the forecast motion phrase or its sentinel.
func ExtractMovement(text string) string {
	capture, ok := movementRules.apply(flattenWhitespace(text))
	if !ok {
		return MovementNotFound
	}
	return clampField(capture)
}

// windspeedRules capture the sustained wind figure in km/h. The last rule
// accepts any km/h figure as a final resort.
var windspeedRules = ruleSet{
	{regexp.MustCompile(`(?i)maximum\s+sustained\s+winds?\s+of\s+(\d+)\s*(?:km/h|kph|km/hr)`), 1},
	{regexp.MustCompile(`(?i)winds?\s+of\s+(\d+)\s*(?:km/h|kph|km/hr)`), 1},
	{regexp.MustCompile(`(?i)(\d+)\s*(?:km/h|kph|km/hr)`), 1},
}

// ExtractWindspeed returns the sustained windspeed rendered in the fixed
// phrasing downstream consumers parse, or its sentinel.
func ExtractWindspeed(text string) string {
	capture, ok := windspeedRules.apply(flattenWhitespace(text))
	if !ok {
		return WindspeedNotFound
	}
	return fmt.Sprintf("Maximum sustained winds of %s km/h near the center", capture)
}

// clampField trims a capture and truncates it at maxFieldLen.
func clampField(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxFieldLen {
		return s[:maxFieldLen]
	}
	return s
}
