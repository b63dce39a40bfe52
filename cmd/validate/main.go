// Command validate performs end-to-end data integrity checks across the
// bulletin mock data: raw bulletin fixtures, the extracted fixture written
// by genmock, and a hand-annotated ground truth file. It verifies fixture
// shape, extraction reproducibility, classification accuracy against the
// annotations, and output schema constraints.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -raw data/mock/bulletins_raw.json \
//	  -gazetteer data/mock/gazetteer_sample.csv \
//	  -extracted data/mock/bulletins_extracted.json \
//	  -annotated data/mock/annotated_bulletins.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/jonboulle/clockwork"

	"github.com/typhoonwatch/bulletin-etl/internal/domain"
	"github.com/typhoonwatch/bulletin-etl/internal/gazetteer"
)

// mockClockTime mirrors the frozen clock genmock bakes into the extracted
// fixtures; reproducibility checks re-run extraction at the same instant.
var mockClockTime = time.Date(2025, time.November, 10, 18, 0, 0, 0, time.UTC)

// annotatedBulletin is one hand-labeled ground truth entry. Signal levels
// key island groups to the provinces expected in that tag map, in order.
type annotatedBulletin struct {
	Cyclone         string                         `json:"cyclone"`
	Bulletin        string                         `json:"bulletin"`
	IssuedAt        string                         `json:"issued_at"`
	WindspeedKPH    int                            `json:"windspeed_kph"`
	Signals         map[string]map[string][]string `json:"signals"`
	RainfallLevel   int                            `json:"rainfall_level"`
	RainfallIslands []string                       `json:"rainfall_islands"`
	Unreadable      bool                           `json:"unreadable"`
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	errors  []string
	checked int
	correct int
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// check records one accuracy-counted assertion.
func (p *phase) check(ok bool, format string, args ...any) {
	p.checked++
	if ok {
		p.correct++
		return
	}
	p.errorf(format, args...)
}

func main() {
	rawPath := flag.String("raw", "data/mock/bulletins_raw.json", "path to raw bulletin fixtures")
	gazetteerPath := flag.String("gazetteer", "data/mock/gazetteer_sample.csv", "path to the sample gazetteer CSV")
	extractedPath := flag.String("extracted", "data/mock/bulletins_extracted.json", "path to the extracted bulletin fixture")
	annotatedPath := flag.String("annotated", "data/mock/annotated_bulletins.json", "path to the annotated ground truth")
	flag.Parse()

	if code := run(*rawPath, *gazetteerPath, *extractedPath, *annotatedPath); code != 0 {
		os.Exit(code)
	}
}

func run(rawPath, gazetteerPath, extractedPath, annotatedPath string) int {
	// Set a fixed clock matching genmock so recomputed envelopes carry the
	// same ids and timestamps as the checked-in fixture.
	domain.SetClock(clockwork.NewFakeClockAt(mockClockTime))
	defer domain.SetClock(nil)

	// ── Load all data sources ──
	fmt.Println("=== Bulletin Data Integrity Validation ===")
	fmt.Println()

	raws, err := loadJSON[domain.RawBulletin](rawPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load raw fixtures: %v\n", err)
		return 1
	}

	ix, err := gazetteer.Load(gazetteerPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load gazetteer: %v\n", err)
		return 1
	}

	extracted, err := loadJSON[domain.ExtractedBulletin](extractedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load extracted fixture: %v\n", err)
		return 1
	}

	annotations, err := loadJSON[annotatedBulletin](annotatedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load annotations: %v\n", err)
		return 1
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateRawFixtures(raws),
		validateReproducibility(raws, extracted, ix),
		validateAnnotations(annotations, extracted),
		validateSchemaAlignment(extracted),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-48s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Bulletins: %d raw, %d extracted, %d annotated\n", len(raws), len(extracted), len(annotations))
	if acc := phases[2]; acc.checked > 0 {
		fmt.Printf("Annotation accuracy: %d/%d fields (%.1f%%)\n",
			acc.correct, acc.checked, 100*float64(acc.correct)/float64(acc.checked))
	}

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ── Phase 1: Raw Fixtures ──
// Validates that the raw bulletin fixtures are well formed.

var bulletinLabelRe = regexp.MustCompile(`^TCB#\d+$`)

func validateRawFixtures(raws []domain.RawBulletin) *phase {
	p := &phase{name: "Phase 1: Raw Fixtures (shape)"}

	if len(raws) == 0 {
		p.errorf("no raw bulletins")
		return p
	}

	seen := map[string]bool{}
	for i, raw := range raws {
		if raw.Cyclone == "" {
			p.errorf("raw %d: missing cyclone name", i)
		}
		if !bulletinLabelRe.MatchString(raw.Bulletin) {
			p.errorf("raw %d (%s): bulletin label %q does not match TCB#<n>", i, raw.Cyclone, raw.Bulletin)
		}
		if !strings.HasSuffix(raw.Source, ".pdf") {
			p.errorf("raw %d (%s): source %q is not a pdf url", i, raw.Cyclone, raw.Source)
		}

		identity := raw.Cyclone + "|" + raw.Bulletin
		if seen[identity] {
			p.errorf("raw %d: duplicate bulletin identity %s", i, identity)
		}
		seen[identity] = true
	}
	return p
}

// ── Phase 2: Reproducibility ──
// Re-runs extraction on every raw fixture and compares the result with the
// checked-in extracted fixture. Any drift means genmock must be re-run.

func validateReproducibility(raws []domain.RawBulletin, extracted []domain.ExtractedBulletin, ix *gazetteer.Index) *phase {
	p := &phase{name: "Phase 2: Reproducibility (re-extraction)"}

	byID := map[string]*domain.ExtractedBulletin{}
	for i := range extracted {
		if extracted[i].ID == "" {
			p.errorf("extracted %d: missing id", i)
			continue
		}
		byID[extracted[i].ID] = &extracted[i]
	}

	logger := discardLogger()
	for i, raw := range raws {
		want := domain.AssembleEnvelope(raw, ix, logger)

		got, ok := byID[want.ID]
		if !ok {
			p.errorf("raw %d (%s %s): id %q not found in extracted fixture", i, raw.Cyclone, raw.Bulletin, want.ID)
			continue
		}
		compareEnvelopes(p, want, got)
	}

	if len(raws) != len(extracted) {
		p.errorf("count mismatch: %d raw, %d extracted", len(raws), len(extracted))
	}
	return p
}

func compareEnvelopes(p *phase, want domain.ExtractedBulletin, got *domain.ExtractedBulletin) {
	id := want.ID

	if got.Cyclone != want.Cyclone {
		p.errorf("%s: cyclone: expected %q, got %q", id, want.Cyclone, got.Cyclone)
	}
	if got.Bulletin != want.Bulletin {
		p.errorf("%s: bulletin: expected %q, got %q", id, want.Bulletin, got.Bulletin)
	}
	if got.AdvisorySource != want.AdvisorySource {
		p.errorf("%s: advisory_source: expected %q, got %q", id, want.AdvisorySource, got.AdvisorySource)
	}
	if !got.ProcessedAt.Equal(want.ProcessedAt) {
		p.errorf("%s: processed_at: expected %s, got %s", id,
			want.ProcessedAt.Format(time.RFC3339), got.ProcessedAt.Format(time.RFC3339))
	}

	if (want.Record == nil) != (got.Record == nil) {
		p.errorf("%s: record nullness: expected null=%t, got null=%t", id, want.Record == nil, got.Record == nil)
		return
	}
	if want.Record == nil {
		return
	}

	if got.Record.LocationText != want.Record.LocationText {
		p.errorf("%s: location text: expected %q, got %q", id, want.Record.LocationText, got.Record.LocationText)
	}
	if got.Record.Movement != want.Record.Movement {
		p.errorf("%s: movement: expected %q, got %q", id, want.Record.Movement, got.Record.Movement)
	}
	if got.Record.Windspeed != want.Record.Windspeed {
		p.errorf("%s: windspeed: expected %q, got %q", id, want.Record.Windspeed, got.Record.Windspeed)
	}
	if !ptrStrEq(got.Record.IssuedAt, want.Record.IssuedAt) {
		p.errorf("%s: issued_at: expected %s, got %s", id, ptrStr(want.Record.IssuedAt), ptrStr(got.Record.IssuedAt))
	}

	for level := 1; level <= 5; level++ {
		compareTags(p, id, fmt.Sprintf("signal%d", level),
			*want.Record.SignalTags(level), *got.Record.SignalTags(level))
	}
	for level := 1; level <= 3; level++ {
		compareTags(p, id, fmt.Sprintf("rainfall%d", level),
			*want.Record.RainfallTags(level), *got.Record.RainfallTags(level))
	}
}

func compareTags(p *phase, id, field string, want, got domain.IslandTags) {
	pairs := []struct {
		island string
		want   *string
		got    *string
	}{
		{"Luzon", want.Luzon, got.Luzon},
		{"Visayas", want.Visayas, got.Visayas},
		{"Mindanao", want.Mindanao, got.Mindanao},
		{"Other", want.Other, got.Other},
	}
	for _, pair := range pairs {
		if !ptrStrEq(pair.got, pair.want) {
			p.errorf("%s: %s.%s: expected %s, got %s", id, field, pair.island, ptrStr(pair.want), ptrStr(pair.got))
		}
	}
}

// ── Phase 3: Annotation Accuracy ──
// Compares the extracted fixture against the hand-labeled ground truth.
// Free-text mismatches report edit distance so a near miss (a dropped word,
// a reordered province) is distinguishable from reading the wrong section.

func validateAnnotations(annotations []annotatedBulletin, extracted []domain.ExtractedBulletin) *phase {
	p := &phase{name: "Phase 3: Annotation Accuracy (ground truth)"}

	byIdentity := map[string]*domain.ExtractedBulletin{}
	for i := range extracted {
		byIdentity[extracted[i].Cyclone+"|"+extracted[i].Bulletin] = &extracted[i]
	}

	for _, ann := range annotations {
		identity := ann.Cyclone + " " + ann.Bulletin
		e, ok := byIdentity[ann.Cyclone+"|"+ann.Bulletin]
		if !ok {
			p.errorf("%s: not found in extracted fixture", identity)
			continue
		}

		if ann.Unreadable {
			p.check(e.Record == nil, "%s: expected null record for unreadable text, got a record", identity)
			continue
		}
		if e.Record == nil {
			p.errorf("%s: expected a record, got null", identity)
			continue
		}

		checkAnnotatedFields(p, identity, ann, e.Record)
		checkAnnotatedSignals(p, identity, ann, e.Record)
		checkAnnotatedRainfall(p, identity, ann, e.Record)
	}
	return p
}

func checkAnnotatedFields(p *phase, identity string, ann annotatedBulletin, rec *domain.BulletinRecord) {
	p.check(rec.IssuedAt != nil && *rec.IssuedAt == ann.IssuedAt,
		"%s: issued_at: expected %q, got %s", identity, ann.IssuedAt, ptrStr(rec.IssuedAt))

	wantSpeed := fmt.Sprintf("%d km/h", ann.WindspeedKPH)
	p.check(strings.Contains(rec.Windspeed, wantSpeed),
		"%s: windspeed: expected %q in %q", identity, wantSpeed, rec.Windspeed)
}

func checkAnnotatedSignals(p *phase, identity string, ann annotatedBulletin, rec *domain.BulletinRecord) {
	for level := 1; level <= 5; level++ {
		expected := ann.Signals[strconv.Itoa(level)]
		tags := rec.SignalTags(level)

		if len(expected) == 0 {
			p.check(tags.Empty(), "%s: signal%d: expected no tags, got %s", identity, level, tagsString(*tags))
			continue
		}
		for island, provinces := range expected {
			want := strings.Join(provinces, ", ")
			got := islandValue(*tags, island)
			p.check(got != nil && *got == want,
				"%s: signal%d.%s: %s", identity, level, island, mismatchDetail(want, got))
		}
	}
}

func checkAnnotatedRainfall(p *phase, identity string, ann annotatedBulletin, rec *domain.BulletinRecord) {
	if ann.RainfallLevel == 0 {
		return
	}
	for level := 1; level <= 3; level++ {
		tags := rec.RainfallTags(level)
		if level != ann.RainfallLevel {
			p.check(tags.Empty(), "%s: rainfall%d: expected no tags, got %s", identity, level, tagsString(*tags))
			continue
		}
		for _, island := range ann.RainfallIslands {
			got := islandValue(*tags, island)
			p.check(got != nil && *got != "",
				"%s: rainfall%d.%s: expected a tag, got %s", identity, level, island, ptrStr(got))
		}
	}
}

// mismatchDetail renders a free-text mismatch with an edit distance hint.
func mismatchDetail(want string, got *string) string {
	if got == nil {
		return fmt.Sprintf("expected %q, got <nil>", want)
	}
	d := levenshtein.ComputeDistance(want, *got)
	if d > 0 && d <= len(want)/2 {
		return fmt.Sprintf("expected %q, got %q (near miss, edit distance %d)", want, *got, d)
	}
	return fmt.Sprintf("expected %q, got %q", want, *got)
}

func islandValue(tags domain.IslandTags, island string) *string {
	switch island {
	case "Luzon":
		return tags.Luzon
	case "Visayas":
		return tags.Visayas
	case "Mindanao":
		return tags.Mindanao
	case "Other":
		return tags.Other
	}
	return nil
}

func tagsString(tags domain.IslandTags) string {
	parts := []string{}
	for _, pair := range []struct {
		island string
		value  *string
	}{
		{"Luzon", tags.Luzon},
		{"Visayas", tags.Visayas},
		{"Mindanao", tags.Mindanao},
		{"Other", tags.Other},
	} {
		if pair.value != nil {
			parts = append(parts, pair.island+"="+*pair.value)
		}
	}
	if len(parts) == 0 {
		return "<empty>"
	}
	return strings.Join(parts, "; ")
}

// ── Phase 4: Schema Alignment ──
// Validates envelope constraints downstream consumers rely on.

var idRe = regexp.MustCompile(`^tcb-[0-9a-f]{8}$`)

var advisorySources = map[string]bool{
	domain.AdvisoryNone:   true,
	domain.AdvisoryLive:   true,
	domain.AdvisoryFailed: true,
}

func validateSchemaAlignment(extracted []domain.ExtractedBulletin) *phase {
	p := &phase{name: "Phase 4: Schema Alignment (envelope)"}
	for i := range extracted {
		checkSchemaRecord(p, i, &extracted[i])
	}
	return p
}

func checkSchemaRecord(p *phase, i int, e *domain.ExtractedBulletin) {
	pf := func(format string, args ...any) {
		p.errorf("record %d (id %s): "+format, append([]any{i, e.ID}, args...)...)
	}

	if !idRe.MatchString(e.ID) {
		pf("id %q does not match tcb-<8 hex>", e.ID)
	}
	if e.Cyclone == "" {
		pf("cyclone is empty")
	}
	if !advisorySources[e.AdvisorySource] {
		pf("advisory_source %q not in {none, live, failed}", e.AdvisorySource)
	}
	if e.ProcessedAt.IsZero() {
		pf("processed_at is zero")
	}

	if e.Record == nil {
		return
	}
	checkSchemaRecordFields(pf, e.Record)
}

func checkSchemaRecordFields(pf func(string, ...any), rec *domain.BulletinRecord) {
	if rec.LocationText == "" {
		pf("location text is empty (sentinel expected when unmatched)")
	}
	if rec.Movement == "" {
		pf("movement is empty (sentinel expected when unmatched)")
	}
	if rec.Windspeed == "" {
		pf("windspeed is empty (sentinel expected when unmatched)")
	}
	if rec.IssuedAt != nil {
		if _, err := time.Parse("2006-01-02 15:04:05", *rec.IssuedAt); err != nil {
			pf("issued_at %q is not a normalized timestamp", *rec.IssuedAt)
		}
	}

	for level := 1; level <= 5; level++ {
		checkSchemaTags(pf, fmt.Sprintf("signal%d", level), rec.SignalTags(level))
	}
	for level := 1; level <= 3; level++ {
		checkSchemaTags(pf, fmt.Sprintf("rainfall%d", level), rec.RainfallTags(level))
	}
}

// checkSchemaTags rejects empty-string tags: a tagged island either carries
// locations or stays null.
func checkSchemaTags(pf func(string, ...any), field string, tags *domain.IslandTags) {
	for _, pair := range []struct {
		island string
		value  *string
	}{
		{"Luzon", tags.Luzon},
		{"Visayas", tags.Visayas},
		{"Mindanao", tags.Mindanao},
		{"Other", tags.Other},
	} {
		if pair.value != nil && strings.TrimSpace(*pair.value) == "" {
			pf("%s.%s is an empty string (should be null)", field, pair.island)
		}
	}
}

// ── Helpers ──

func ptrStrEq(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func ptrStr(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
