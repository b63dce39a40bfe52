package domain

import (
	"regexp"
	"strings"
)

// noSignalPhrases short-circuit signal extraction: a bulletin stating that
// no wind signal is in effect has an empty signal block by declaration,
// not by extraction failure.
var noSignalPhrases = []string{
	"no tropical cyclone wind signal",
	"no wind signal",
}

// signalSectionRules locate the wind signal block. The block runs to the
// next known section header ("hazard"/"rainfall") or end of text. Headings
// vary between the full phrase, a short heading and the bare acronym.
var signalSectionRules = ruleSet{
	{regexp.MustCompile(`(?s)tropical\s+cyclone\s+wind\s+signals?\s+in\s+effect(.*?)(?:hazard|rainfall|$)`), 1},
	{regexp.MustCompile(`(?s)wind\s+signals?(.*?)(?:hazard|rainfall|$)`), 1},
	{regexp.MustCompile(`(?s)tcws(.*?)(?:hazard|rainfall|$)`), 1},
}

// rainfallSectionRules locate the rainfall block inside the hazards
// narrative; it runs to the winds subsection or end of text.
var rainfallSectionRules = ruleSet{
	{regexp.MustCompile(`(?s)(?:hazards\s+affecting|rainfall:)(.*?)(?:winds:|$)`), 1},
	{regexp.MustCompile(`(?s)rainfall(.*?)(?:winds:|$)`), 1},
}

// ExtractSignalSection returns the wind signal block of a bulletin. The
// second return is false when the bulletin has no such block, including
// the explicit no-signal declaration; both are valid terminal states that
// leave every signal tag map null.
func ExtractSignalSection(text string) (string, bool) {
	norm := normalizeLines(text)
	lower := strings.ToLower(norm)
	for _, phrase := range noSignalPhrases {
		if strings.Contains(lower, phrase) {
			return "", false
		}
	}
	start, end, ok := signalSectionRules.applyIndex(lower)
	if !ok {
		return "", false
	}
	return norm[start:end], true
}

// ExtractRainfallSection returns the rainfall block of a bulletin, or
// false when the bulletin has none.
func ExtractRainfallSection(text string) (string, bool) {
	norm := normalizeLines(text)
	lower := strings.ToLower(norm)
	start, end, ok := rainfallSectionRules.applyIndex(lower)
	if !ok {
		return "", false
	}
	return norm[start:end], true
}
