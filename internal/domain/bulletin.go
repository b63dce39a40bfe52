package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnreadableDocument marks bulletin text with nothing to extract from
// (empty or whitespace-only after the upstream PDF conversion). The record
// for such a document is null; batch callers log it and move on.
var ErrUnreadableDocument = errors.New("unreadable bulletin document")

// RawBulletin represents the flat JSON payload produced by the collector:
// the cyclone name from the bulletin page tab, the bulletin designation,
// the source PDF URL, and the plain text recovered from that PDF upstream.
type RawBulletin struct {
	Cyclone  string `json:"cyclone"`
	Bulletin string `json:"bulletin"` // e.g. "TCB#14"
	Source   string `json:"source"`
	Text     string `json:"text"`
}

// ParseRawBulletin decodes a collector payload.
func ParseRawBulletin(value []byte) (RawBulletin, error) {
	var raw RawBulletin
	if err := json.Unmarshal(value, &raw); err != nil {
		return RawBulletin{}, fmt.Errorf("parse raw bulletin: %w", err)
	}
	return raw, nil
}

// RawDocument represents an unprocessed message from the source topic.
type RawDocument struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// IslandTags groups warned locations by major island group. All four keys
// always serialize; a group with no locations serializes as null. Values
// are comma-joined location names in first-seen order.
type IslandTags struct {
	Luzon    *string `json:"Luzon"`
	Visayas  *string `json:"Visayas"`
	Mindanao *string `json:"Mindanao"`
	Other    *string `json:"Other"`
}

// Empty reports whether no group carries a value.
func (t IslandTags) Empty() bool {
	return t.Luzon == nil && t.Visayas == nil && t.Mindanao == nil && t.Other == nil
}

// BulletinRecord is the extraction result for one bulletin. The key set is
// fixed; downstream consumers select on exactly these names. Tag maps that
// are all null mean no warning at that level was in effect, which is a
// different state from the record itself being null (text unreadable).
type BulletinRecord struct {
	LocationText string  `json:"typhoon_location_text"`
	Movement     string  `json:"typhoon_movement"`
	Windspeed    string  `json:"typhoon_windspeed"`
	IssuedAt     *string `json:"updated_datetime"`

	Signal1 IslandTags `json:"signal_warning_tags1"`
	Signal2 IslandTags `json:"signal_warning_tags2"`
	Signal3 IslandTags `json:"signal_warning_tags3"`
	Signal4 IslandTags `json:"signal_warning_tags4"`
	Signal5 IslandTags `json:"signal_warning_tags5"`

	Rainfall1 IslandTags `json:"rainfall_warning_tags1"`
	Rainfall2 IslandTags `json:"rainfall_warning_tags2"`
	Rainfall3 IslandTags `json:"rainfall_warning_tags3"`
}

// SignalTags returns the tag map for a wind signal level, or nil for a
// level outside 1-5.
func (r *BulletinRecord) SignalTags(level int) *IslandTags {
	switch level {
	case 1:
		return &r.Signal1
	case 2:
		return &r.Signal2
	case 3:
		return &r.Signal3
	case 4:
		return &r.Signal4
	case 5:
		return &r.Signal5
	default:
		return nil
	}
}

// RainfallTags returns the tag map for a rainfall warning level, or nil
// for a level outside 1-3.
func (r *BulletinRecord) RainfallTags(level int) *IslandTags {
	switch level {
	case 1:
		return &r.Rainfall1
	case 2:
		return &r.Rainfall2
	case 3:
		return &r.Rainfall3
	default:
		return nil
	}
}

// ExtractedBulletin is the output envelope destined for the sink topic.
type ExtractedBulletin struct {
	ID             string          `json:"id"`
	Cyclone        string          `json:"cyclone,omitempty"`
	Bulletin       string          `json:"bulletin,omitempty"`
	Source         string          `json:"source,omitempty"`
	Record         *BulletinRecord `json:"record"`
	AdvisorySource string          `json:"advisory_source,omitempty"` // "none", "live", or "failed"
	ProcessedAt    time.Time       `json:"processed_at"`
}

// BulletinID builds a deterministic identifier from the bulletin's
// identity fields so replays and re-extractions of the same bulletin
// produce the same id and stay idempotent downstream.
func BulletinID(raw RawBulletin, issuedAt string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s", raw.Cyclone, raw.Bulletin, raw.Source, issuedAt)))
	return "tcb-" + hex.EncodeToString(h[:])[:8]
}
