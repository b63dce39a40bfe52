// Command genmock regenerates the extracted bulletin fixtures from the raw
// bulletin fixtures. It runs the actual domain extraction under a fixed
// clock so the output matches real pipeline behavior and stays byte-stable
// across runs.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -raw data/mock/bulletins_raw.json \
//	  -gazetteer data/mock/gazetteer_sample.csv \
//	  -out data/mock/bulletins_extracted.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/typhoonwatch/bulletin-etl/internal/domain"
	"github.com/typhoonwatch/bulletin-etl/internal/gazetteer"
)

// mockClockTime is the frozen processed_at instant baked into the extracted
// fixtures. The fixture tests pin the same instant.
var mockClockTime = time.Date(2025, time.November, 10, 18, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rawPath := flag.String("raw", "data/mock/bulletins_raw.json", "path to raw bulletin fixtures")
	gazetteerPath := flag.String("gazetteer", "data/mock/gazetteer_sample.csv", "path to the sample gazetteer CSV")
	outPath := flag.String("out", "data/mock/bulletins_extracted.json", "output path for extracted bulletin fixtures")
	flag.Parse()

	data, err := os.ReadFile(*rawPath)
	if err != nil {
		return fmt.Errorf("read raw fixtures: %w", err)
	}
	var bulletins []domain.RawBulletin
	if err := json.Unmarshal(data, &bulletins); err != nil {
		return fmt.Errorf("decode raw fixtures: %w", err)
	}
	if len(bulletins) == 0 {
		return fmt.Errorf("no raw bulletins in %s", *rawPath)
	}

	ix, err := gazetteer.Load(*gazetteerPath)
	if err != nil {
		return fmt.Errorf("load gazetteer: %w", err)
	}
	log.Printf("gazetteer: %d locations", ix.Len())

	// Set a fixed clock for reproducible processed_at timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(mockClockTime))
	defer domain.SetClock(nil)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	extracted := make([]domain.ExtractedBulletin, 0, len(bulletins))
	for _, raw := range bulletins {
		extracted = append(extracted, domain.AssembleEnvelope(raw, ix, logger))
	}

	if err := writeJSON(*outPath, extracted); err != nil {
		return fmt.Errorf("writing extracted fixture: %w", err)
	}
	log.Printf("wrote extracted fixture: %s", *outPath)

	printStats(extracted)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// statsResult holds aggregated counts for printStats reporting.
type statsResult struct {
	signalCounts   map[int]int
	rainfallCounts map[int]int
	nullRecords    int
	withIssuedAt   int
}

func collectStats(extracted []domain.ExtractedBulletin) statsResult {
	s := statsResult{
		signalCounts:   map[int]int{},
		rainfallCounts: map[int]int{},
	}
	for i := range extracted {
		rec := extracted[i].Record
		if rec == nil {
			s.nullRecords++
			continue
		}
		if rec.IssuedAt != nil {
			s.withIssuedAt++
		}
		for level := 1; level <= 5; level++ {
			if !rec.SignalTags(level).Empty() {
				s.signalCounts[level]++
			}
		}
		for level := 1; level <= 3; level++ {
			if !rec.RainfallTags(level).Empty() {
				s.rainfallCounts[level]++
			}
		}
	}
	return s
}

func printStats(extracted []domain.ExtractedBulletin) {
	stats := collectStats(extracted)

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(extracted))
	fmt.Printf("Null records: %d\n", stats.nullRecords)
	fmt.Printf("With issued_at: %d\n", stats.withIssuedAt)
	fmt.Printf("By signal level: 1=%d, 2=%d, 3=%d, 4=%d, 5=%d\n",
		stats.signalCounts[1], stats.signalCounts[2], stats.signalCounts[3],
		stats.signalCounts[4], stats.signalCounts[5])
	fmt.Printf("By rainfall level: 1=%d, 2=%d, 3=%d\n",
		stats.rainfallCounts[1], stats.rainfallCounts[2], stats.rainfallCounts[3])

	printBulletinDetails(extracted)
}

func printBulletinDetails(extracted []domain.ExtractedBulletin) {
	fmt.Println("\nPer bulletin:")
	for i := range extracted {
		e := &extracted[i]
		fmt.Printf("  %s %s (%s):", e.Cyclone, e.Bulletin, e.ID)
		if e.Record == nil {
			fmt.Println(" null record")
			continue
		}
		if e.Record.IssuedAt != nil {
			fmt.Printf(" issued=%q", *e.Record.IssuedAt)
		}
		for level := 1; level <= 5; level++ {
			if tags := e.Record.SignalTags(level); !tags.Empty() {
				fmt.Printf(" signal%d=%s", level, taggedIslands(*tags))
			}
		}
		for level := 1; level <= 3; level++ {
			if tags := e.Record.RainfallTags(level); !tags.Empty() {
				fmt.Printf(" rainfall%d=%s", level, taggedIslands(*tags))
			}
		}
		fmt.Println()
	}
}

// taggedIslands renders which island groups carry values, for eyeballing
// fixture changes without reading the full JSON.
func taggedIslands(tags domain.IslandTags) string {
	out := ""
	if tags.Luzon != nil {
		out += "L"
	}
	if tags.Visayas != nil {
		out += "V"
	}
	if tags.Mindanao != nil {
		out += "M"
	}
	if tags.Other != nil {
		out += "O"
	}
	return out
}
