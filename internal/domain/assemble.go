package domain

import (
	"log/slog"
	"strings"

	"github.com/typhoonwatch/bulletin-etl/internal/gazetteer"
)

// AssembleBulletin runs the full extraction over one bulletin text. The
// record degrades field by field: a missing section leaves its tag maps
// null, an unmatched field keeps its sentinel, and only text with nothing
// to read at all fails, returning ErrUnreadableDocument and no record.
// Assembly is pure; the same text and gazetteer always produce the same
// record.
func AssembleBulletin(text string, ix *gazetteer.Index) (*BulletinRecord, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrUnreadableDocument
	}

	rec := &BulletinRecord{
		LocationText: ExtractLocation(text),
		Movement:     ExtractMovement(text),
		Windspeed:    ExtractWindspeed(text),
	}
	if issued, ok := ExtractIssuedAt(text); ok {
		rec.IssuedAt = &issued
	}

	if section, ok := ExtractSignalSection(text); ok {
		for level, window := range SplitSignalSection(section) {
			if tags := rec.SignalTags(level); tags != nil {
				*tags = ResolveLocations(window, ix)
			}
		}
	}

	if section, ok := ExtractRainfallSection(text); ok {
		if level, ok := IdentifyRainfallLevel(section); ok {
			if tags := rec.RainfallTags(level); tags != nil {
				*tags = ResolveLocations(section, ix)
			}
		}
	}

	return rec, nil
}

// AssembleEnvelope builds the output envelope for one collector payload.
// An unreadable bulletin text is not an error at this level: the envelope
// ships with a null record so downstream consumers still see that the
// bulletin was observed.
func AssembleEnvelope(raw RawBulletin, ix *gazetteer.Index, logger *slog.Logger) ExtractedBulletin {
	out := ExtractedBulletin{
		Cyclone:        raw.Cyclone,
		Bulletin:       raw.Bulletin,
		Source:         raw.Source,
		AdvisorySource: AdvisoryNone,
		ProcessedAt:    clock.Now(),
	}

	rec, err := AssembleBulletin(raw.Text, ix)
	if err != nil {
		logger.Warn("bulletin unreadable, publishing null record",
			"cyclone", raw.Cyclone, "bulletin", raw.Bulletin, "source", raw.Source)
		out.ID = BulletinID(raw, "")
		return out
	}

	out.Record = rec
	out.ID = BulletinID(raw, issuedOrEmpty(rec))
	return out
}
