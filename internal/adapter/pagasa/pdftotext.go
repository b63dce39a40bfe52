package pagasa

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/exec"
	"strings"
	"time"
)

// PdftotextConverter extracts bulletin text by streaming the PDF through
// poppler's pdftotext. Layout mode keeps the signal tables line-oriented,
// which the section splitter depends on.
type PdftotextConverter struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewPdftotextConverter creates a converter that downloads bulletin PDFs
// with the given timeout and pipes them through the pdftotext binary.
func NewPdftotextConverter(timeout time.Duration, logger *slog.Logger) *PdftotextConverter {
	return &PdftotextConverter{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Available reports whether the pdftotext binary is on PATH.
func (c *PdftotextConverter) Available() bool {
	_, err := exec.LookPath("pdftotext")
	return err == nil
}

// Convert downloads the PDF at pdfURL and returns its text content.
func (c *PdftotextConverter) Convert(ctx context.Context, pdfURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", fmt.Errorf("build pdf request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch bulletin pdf: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining before close
		return "", fmt.Errorf("bulletin pdf error: status %d", resp.StatusCode)
	}

	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", "-", "-")
	cmd.Stdin = resp.Body

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("pdftotext: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	c.logger.Debug("converted bulletin pdf", "url", pdfURL, "bytes", stdout.Len())
	return stdout.String(), nil
}
