// Package pagasa scrapes the PAGASA site: the severe weather bulletin page
// for active cyclones and their bulletin PDFs, and the weather advisory page
// for rainfall warning bands.
package pagasa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/typhoonwatch/bulletin-etl/internal/config"
	"github.com/typhoonwatch/bulletin-etl/internal/domain"
	"github.com/typhoonwatch/bulletin-etl/internal/observability"
)

const bulletinPath = "/tropical-cyclone/severe-weather-bulletin"

// ErrNoActiveCyclone is returned when the bulletin page carries no typhoon
// tab, which is the normal state of the page outside cyclone season.
var ErrNoActiveCyclone = errors.New("no active tropical cyclone tab on bulletin page")

// TextConverter turns a bulletin PDF into plain text. PDF conversion runs
// outside this service; the default converter only reports that.
type TextConverter interface {
	Convert(ctx context.Context, pdfURL string) (string, error)
}

type notConfiguredConverter struct{}

func (notConfiguredConverter) Convert(context.Context, string) (string, error) {
	return "", errors.New("pdf text converter not configured")
}

// Client implements domain.DocumentSource and domain.AdvisoryFeed against
// the PAGASA site.
type Client struct {
	baseURL         string
	advisoryURL     string
	advisoryTimeout time.Duration
	httpClient      *http.Client
	converter       TextConverter
	metrics         *observability.Metrics
	logger          *slog.Logger
}

// NewClient creates a PAGASA site client. A nil converter leaves PDF text
// conversion unconfigured, which fails LatestBulletin at the convert step.
func NewClient(cfg *config.Config, converter TextConverter, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if converter == nil {
		converter = notConfiguredConverter{}
	}
	return &Client{
		baseURL:         strings.TrimRight(cfg.PagasaBaseURL, "/"),
		advisoryURL:     cfg.AdvisoryURL,
		advisoryTimeout: cfg.AdvisoryTimeout,
		httpClient:      &http.Client{Timeout: cfg.PagasaTimeout},
		converter:       converter,
		metrics:         metrics,
		logger:          logger,
	}
}

// LatestBulletin scrapes the bulletin page for the first active cyclone tab
// and its most recent bulletin PDF, then runs the PDF through the text
// converter. PDF links are listed chronologically, latest last.
func (c *Client) LatestBulletin(ctx context.Context) (domain.RawBulletin, error) {
	doc, err := c.fetchDocument(ctx, c.baseURL+bulletinPath)
	if err != nil {
		return domain.RawBulletin{}, err
	}

	cyclone := strings.TrimSpace(doc.Find("ul.nav-tabs li[role=presentation] a").First().Text())
	if cyclone == "" {
		return domain.RawBulletin{}, ErrNoActiveCyclone
	}

	pane := doc.Find("div.tab-content div.tab-pane").First()
	if pane.Length() == 0 {
		pane = doc.Selection
	}

	var pdfURL, linkText string
	pane.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		if strings.Contains(strings.ToLower(href), ".pdf") {
			pdfURL = c.absoluteURL(href)
			linkText = strings.TrimSpace(s.Text())
		}
	})
	if pdfURL == "" {
		return domain.RawBulletin{}, fmt.Errorf("no bulletin pdf link for cyclone %s", cyclone)
	}

	raw := domain.RawBulletin{
		Cyclone:  cyclone,
		Bulletin: bulletinLabel(linkText, pdfURL),
		Source:   pdfURL,
	}

	text, err := c.converter.Convert(ctx, pdfURL)
	if err != nil {
		return domain.RawBulletin{}, fmt.Errorf("convert bulletin pdf: %w", err)
	}
	raw.Text = text

	c.logger.Debug("scraped latest bulletin", "cyclone", raw.Cyclone, "bulletin", raw.Bulletin, "source", raw.Source)
	return raw, nil
}

// FetchAdvisory scrapes the weather advisory page and derives the rainfall
// warning report from its band headings.
func (c *Client) FetchAdvisory(ctx context.Context) (domain.AdvisoryReport, error) {
	if c.advisoryURL == "" {
		return domain.AdvisoryReport{}, errors.New("advisory url not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, c.advisoryTimeout)
	defer cancel()

	start := time.Now()
	doc, err := c.fetchDocument(ctx, c.advisoryURL)
	c.metrics.AdvisoryFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.AdvisoryRequests.WithLabelValues("error").Inc()
		return domain.AdvisoryReport{}, err
	}
	c.metrics.AdvisoryRequests.WithLabelValues("success").Inc()

	report := parseAdvisoryReport(advisoryText(doc))
	if report.Empty() {
		c.logger.Debug("advisory page parsed with no rainfall bands", "url", c.advisoryURL)
	}
	return report, nil
}

func (c *Client) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("pagasa page error: status %d: %s", resp.StatusCode, body)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

// absoluteURL resolves a scraped href against the configured base URL.
func (c *Client) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// bulletinLabelRes pull the bulletin number out of a link caption or a PDF
// filename ("TCB#14", "Tropical Cyclone Bulletin No. 14", "uwan-tcb14.pdf").
var bulletinLabelRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)tcb\s*#?\s*(\d+)`),
	regexp.MustCompile(`(?i)bulletin\s*(?:no\.?|nr\.?|#)?\s*(\d+)`),
}

func bulletinLabel(linkText, pdfURL string) string {
	for _, source := range []string{linkText, pdfURL} {
		for _, re := range bulletinLabelRes {
			if m := re.FindStringSubmatch(source); m != nil {
				return "TCB#" + m[1]
			}
		}
	}
	return ""
}

// advisorySelectors locate the advisory body, most specific selector first.
// The page markup has drifted over time; older captures carry only the
// inner weekly-content div.
var advisorySelectors = []string{
	"div.col-md-12.article-content.weather-advisory",
	"div.article-content.weather-advisory",
	"div.weather-advisory",
	"div.weekly-content-adv",
}

func advisoryText(doc *goquery.Document) string {
	for _, sel := range advisorySelectors {
		if s := doc.Find(sel); s.Length() > 0 {
			return s.Text()
		}
	}
	return doc.Find("body").Text()
}

// Band heading markers as the advisory page writes them. Dash and spacing
// variants cover the captures seen in the wild.
var (
	redMarkers    = []string{">200 mm", ">200mm", "more than 200 mm", "red warning"}
	orangeMarkers = []string{"100-200 mm", "100-200mm", "100–200 mm", "100 to 200 mm", "orange warning"}
	yellowMarkers = []string{"50-100 mm", "50-100mm", "50–100 mm", "50 to 100 mm", "yellow warning"}
)

// parseAdvisoryReport walks the advisory body line by line. A band heading
// opens collection into that band; subsequent lines are split into province
// names until the next heading or the impacts narrative starts.
func parseAdvisoryReport(text string) domain.AdvisoryReport {
	var report domain.AdvisoryReport
	var current *[]string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "potential impacts"):
			current = nil
		case containsAny(lower, redMarkers):
			current = &report.Red
		case containsAny(lower, orangeMarkers):
			current = &report.Orange
		case containsAny(lower, yellowMarkers):
			current = &report.Yellow
		default:
			if current != nil {
				*current = append(*current, splitProvinces(line)...)
			}
		}
	}
	return report
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func splitProvinces(line string) []string {
	line = strings.ReplaceAll(line, " and ", ", ")
	var out []string
	for _, tok := range strings.Split(line, ",") {
		tok = strings.TrimSuffix(strings.TrimSpace(tok), ".")
		if tok == "" {
			continue
		}
		out = append(out, tok)
	}
	return out
}
