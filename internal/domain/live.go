package domain

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/typhoonwatch/bulletin-etl/internal/gazetteer"
)

// DocumentSource fetches the latest bulletin document for extraction.
type DocumentSource interface {
	LatestBulletin(ctx context.Context) (RawBulletin, error)
}

// AdvisoryFeed fetches the current rainfall advisory report.
type AdvisoryFeed interface {
	FetchAdvisory(ctx context.Context) (AdvisoryReport, error)
}

// AdvisoryReport lists the provinces under each rainfall advisory band as
// published on the advisory page: red for more than 200 mm expected in
// 24 h, orange for 100-200 mm, yellow for 50-100 mm.
type AdvisoryReport struct {
	Red    []string `json:"red"`
	Orange []string `json:"orange"`
	Yellow []string `json:"yellow"`
}

// Empty reports whether the report carries no provinces at all.
func (r AdvisoryReport) Empty() bool {
	return len(r.Red) == 0 && len(r.Orange) == 0 && len(r.Yellow) == 0
}

// Advisory source labels recorded on the output envelope.
const (
	AdvisoryNone   = "none"
	AdvisoryLive   = "live"
	AdvisoryFailed = "failed"
)

// AssembleLive fetches the bulletin document and the advisory feed
// concurrently and assembles a record from both. The legs degrade
// independently: a dead advisory feed leaves advisory_source=failed on an
// otherwise complete envelope, while a failed or unreadable document
// yields a null record no matter what the advisory said. Neither leg
// aborts the other; the envelope always comes back.
func AssembleLive(ctx context.Context, docs DocumentSource, feed AdvisoryFeed, ix *gazetteer.Index, logger *slog.Logger) ExtractedBulletin {
	var (
		wg      sync.WaitGroup
		raw     RawBulletin
		docErr  error
		report  AdvisoryReport
		feedErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		raw, docErr = docs.LatestBulletin(ctx)
	}()
	if feed != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report, feedErr = feed.FetchAdvisory(ctx)
		}()
	}
	wg.Wait()

	advisorySource := AdvisoryNone
	if feed != nil {
		if feedErr != nil {
			logger.Warn("advisory fetch failed", "error", feedErr)
			advisorySource = AdvisoryFailed
		} else {
			advisorySource = AdvisoryLive
		}
	}

	if docErr != nil {
		logger.Error("bulletin fetch failed", "error", docErr)
		return ExtractedBulletin{AdvisorySource: advisorySource, ProcessedAt: clock.Now()}
	}

	out := AssembleEnvelope(raw, ix, logger)
	out.AdvisorySource = advisorySource
	if out.Record != nil && advisorySource == AdvisoryLive {
		MergeAdvisory(out.Record, report, ix)
	}
	return out
}

// EnrichWithAdvisory supplements a record's rainfall tags from the live
// advisory feed. A feed failure only marks the envelope; the record
// derived from the bulletin text is never discarded.
func EnrichWithAdvisory(ctx context.Context, out *ExtractedBulletin, feed AdvisoryFeed, ix *gazetteer.Index, logger *slog.Logger) {
	if feed == nil || out.Record == nil {
		return
	}
	report, err := feed.FetchAdvisory(ctx)
	if err != nil {
		out.AdvisorySource = AdvisoryFailed
		logger.Warn("advisory fetch failed", "error", err, "cyclone", out.Cyclone)
		return
	}
	MergeAdvisory(out.Record, report, ix)
	out.AdvisorySource = AdvisoryLive
}

// MergeAdvisory fills rainfall tag maps the bulletin text left empty from
// the advisory report (red is level 1, orange 2, yellow 3). Text-derived
// tags always win; the advisory only supplements.
func MergeAdvisory(rec *BulletinRecord, report AdvisoryReport, ix *gazetteer.Index) {
	if rec == nil {
		return
	}
	bands := []struct {
		level     int
		provinces []string
	}{
		{1, report.Red},
		{2, report.Orange},
		{3, report.Yellow},
	}
	for _, band := range bands {
		if len(band.provinces) == 0 {
			continue
		}
		tags := rec.RainfallTags(band.level)
		if tags == nil || !tags.Empty() {
			continue
		}
		*tags = ResolveLocations(strings.Join(band.provinces, ", "), ix)
	}
}

// issuedOrEmpty unwraps a record's issue timestamp for id derivation.
func issuedOrEmpty(rec *BulletinRecord) string {
	if rec == nil || rec.IssuedAt == nil {
		return ""
	}
	return *rec.IssuedAt
}
