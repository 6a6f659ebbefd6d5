// Package floodwatch fetches flood reports from a JSON bulletin feed. The
// feed is optional; deployments without one simply run seismic-only cycles.
package floodwatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/monsoonlabs/hazardwatch/internal/domain"
)

// Client fetches the flood bulletin feed.
type Client struct {
	feedURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a flood bulletin client with a bounded request timeout.
func NewClient(feedURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		feedURL:    feedURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Name identifies this adapter in cycle reports and event records.
func (c *Client) Name() string { return "floodwatch" }

// Hazard reports the hazard type this source produces.
func (c *Client) Hazard() domain.Hazard { return domain.HazardFlood }

// bulletin is one flood report as published by the feed.
type bulletin struct {
	State      string  `json:"state"`
	District   string  `json:"district"`
	Severity   string  `json:"severity"`
	RainfallMM float64 `json:"rainfall_mm"`
	Lat        float64 `json:"latitude"`
	Lon        float64 `json:"longitude"`
	StartMS    int64   `json:"start_time"` // epoch milliseconds
}

// Fetch returns raw flood records from the bulletin feed. Reports whose
// start time is older than windowDays are dropped. Transport failures and
// non-200 responses return domain.ErrSourceUnavailable.
func (c *Client) Fetch(ctx context.Context, windowDays int) ([]domain.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build floodwatch request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: floodwatch: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: floodwatch: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	var bulletins []bulletin
	if err := json.NewDecoder(resp.Body).Decode(&bulletins); err != nil {
		return nil, fmt.Errorf("%w: floodwatch: decode: %v", domain.ErrSourceUnavailable, err)
	}

	cutoff := domain.Clock().Now().UTC().AddDate(0, 0, -windowDays)
	records := make([]domain.RawRecord, 0, len(bulletins))
	for _, b := range bulletins {
		if b.StartMS > 0 && time.UnixMilli(b.StartMS).UTC().Before(cutoff) {
			continue
		}
		place := b.District
		if place != "" && b.State != "" {
			place = fmt.Sprintf("%s, %s", b.District, b.State)
		} else if place == "" {
			place = b.State
		}
		records = append(records, domain.RawRecord{
			Lat:          b.Lat,
			Lon:          b.Lon,
			EpochMS:      b.StartMS,
			Place:        place,
			SeverityText: b.Severity,
			RainfallMM:   b.RainfallMM,
		})
	}

	c.logger.Info("fetched flood bulletins", "count", len(records), "window_days", windowDays)
	return records, nil
}
