// Command extract runs the bulletin extraction once and prints the result
// as JSON. It reads bulletin text from a file or stdin, or fetches the
// latest bulletin (and, when configured, the rainfall advisory) live from
// the PAGASA site. Live mode needs poppler's pdftotext on PATH.
//
// Usage:
//
//	go run ./cmd/extract -text bulletin.txt -gazetteer data/psgc_locations.csv
//	pdftotext -layout bulletin.pdf - | go run ./cmd/extract -text - -pretty
//	go run ./cmd/extract -live -pretty
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/typhoonwatch/bulletin-etl/internal/adapter/pagasa"
	"github.com/typhoonwatch/bulletin-etl/internal/config"
	"github.com/typhoonwatch/bulletin-etl/internal/domain"
	"github.com/typhoonwatch/bulletin-etl/internal/gazetteer"
	"github.com/typhoonwatch/bulletin-etl/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	textPath := flag.String("text", "", `bulletin text file, or "-" for stdin`)
	live := flag.Bool("live", false, "fetch the latest bulletin from PAGASA")
	gazetteerPath := flag.String("gazetteer", "", "gazetteer CSV path (defaults to GAZETTEER_PATH)")
	pretty := flag.Bool("pretty", false, "indent the JSON output")
	flag.Parse()

	if *live == (*textPath != "") {
		flag.Usage()
		return errors.New("exactly one of -text or -live is required")
	}

	// .env is a local development convenience; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *gazetteerPath == "" {
		*gazetteerPath = cfg.GazetteerPath
	}

	ix, err := gazetteer.Load(*gazetteerPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *live {
		return runLive(ctx, cfg, ix, logger, *pretty)
	}
	return runText(*textPath, ix, *pretty)
}

func runText(path string, ix *gazetteer.Index, pretty bool) error {
	text, err := readText(path)
	if err != nil {
		return fmt.Errorf("read bulletin text: %w", err)
	}

	rec, err := domain.AssembleBulletin(text, ix)
	if err != nil {
		return err
	}
	return printJSON(rec, pretty)
}

func runLive(ctx context.Context, cfg *config.Config, ix *gazetteer.Index, logger *slog.Logger, pretty bool) error {
	metrics := observability.NewMetrics()

	converter := pagasa.NewPdftotextConverter(cfg.PagasaTimeout, logger)
	if !converter.Available() {
		logger.Warn("pdftotext not found on PATH; bulletin conversion will fail")
	}
	client := pagasa.NewClient(cfg, converter, metrics, logger)

	var feed domain.AdvisoryFeed
	if cfg.AdvisoryEnabled {
		feed = client
	}

	out := domain.AssembleLive(ctx, client, feed, ix, logger)
	if err := printJSON(out, pretty); err != nil {
		return err
	}
	if out.Record == nil {
		return errors.New("no record extracted: bulletin fetch failed or text was unreadable")
	}
	return nil
}

func readText(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func printJSON(v any, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
