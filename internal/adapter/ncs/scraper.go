// Package ncs scrapes seismic events from the National Center for Seismology
// website. The page's markup is unannounced and changes without notice, so
// extraction runs a cascade of independent strategies in fixed priority
// order: header-keyword column mapping, positional numeric inference, and
// finally free-text pattern scanning over the whole page. Each strategy
// either produces a result or reports no match; downstream range checks and
// deduplication absorb the occasional false positive this tolerates.
package ncs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/monsoonlabs/hazardwatch/internal/domain"
)

// Client fetches and parses the NCS page. Requests are rate-limited: this is
// someone else's website, not an API built for us.
type Client struct {
	pageURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates an NCS scraper with a bounded request timeout and a
// request-per-second ceiling.
func NewClient(pageURL string, timeout time.Duration, rps float64, logger *slog.Logger) *Client {
	return &Client{
		pageURL:    pageURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// Name identifies this adapter in cycle reports and event records.
func (c *Client) Name() string { return "ncs" }

// Hazard reports the hazard type this source produces.
func (c *Client) Hazard() domain.Hazard { return domain.HazardSeismic }

// Fetch retrieves the NCS page and extracts raw seismic records for the
// trailing windowDays. Transport failures and non-200 responses return
// domain.ErrSourceUnavailable; rows that fail extraction are skipped and
// counted, never fatal.
func (c *Client) Fetch(ctx context.Context, windowDays int) ([]domain.RawRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: ncs: %v", domain.ErrSourceUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build ncs request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: ncs: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: ncs: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: ncs: read body: %v", domain.ErrSourceUnavailable, err)
	}

	records := c.Extract(body, windowDays)
	c.logger.Info("fetched ncs events", "count", len(records), "window_days", windowDays)
	return records, nil
}

// Extract runs the strategy cascade over a fetched HTML document. Split from
// Fetch so the parsing path is testable without a server.
func (c *Client) Extract(page []byte, windowDays int) []domain.RawRecord {
	doc, err := html.Parse(strings.NewReader(string(page)))
	if err != nil {
		c.logger.Warn("ncs page did not parse as html", "error", err)
		return nil
	}

	var records []domain.RawRecord
	for i, table := range collectTables(doc) {
		if len(table) <= 1 {
			continue
		}
		cols, ok := mapColumns(table)
		if !ok {
			c.logger.Debug("table skipped, not a hazard table", "table", i)
			continue
		}
		for _, row := range table[1:] {
			rec, ok := extractRow(row, cols, windowDays)
			if !ok {
				c.logger.Debug("row rejected during extraction", "table", i)
				continue
			}
			records = append(records, rec)
		}
	}

	// Last resort: no table yielded a single accepted row.
	if len(records) == 0 {
		records = extractFreeText(pageText(doc))
		if len(records) > 0 {
			c.logger.Info("ncs tables unusable, recovered events from page text", "count", len(records))
		}
	}
	return records
}

// collectTables returns every <table> in the document as rows of trimmed
// cell texts (<th> and <td> alike).
func collectTables(doc *html.Node) [][][]string {
	var tables [][][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			tables = append(tables, collectRows(n))
			return // nested tables are counted once, at the outermost level
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return tables
}

func collectRows(table *html.Node) [][]string {
	var rows [][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			rows = append(rows, collectCells(n))
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(table)
	return rows
}

func collectCells(tr *html.Node) []string {
	var cells []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th") {
			cells = append(cells, strings.TrimSpace(nodeText(n)))
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(tr)
	return cells
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		sb.WriteString(nodeText(child))
	}
	return sb.String()
}

// pageText flattens the whole document to text for the free-text fallback.
func pageText(doc *html.Node) string {
	return nodeText(doc)
}
