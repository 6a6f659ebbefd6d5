// Package usgs fetches seismic events from the USGS FDSN event API as
// GeoJSON. The source is structured, so records map field-for-field into
// raw records with no heuristics.
package usgs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/monsoonlabs/hazardwatch/internal/domain"
)

// MinMagnitude is the floor below which feed events are not requested.
const MinMagnitude = 2.5

// Client queries the USGS FDSN event endpoint over a fixed bounding box.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a USGS feed client with a bounded request timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Name identifies this adapter in cycle reports and event records.
func (c *Client) Name() string { return "usgs" }

// Hazard reports the hazard type this source produces.
func (c *Client) Hazard() domain.Hazard { return domain.HazardSeismic }

// Fetch returns raw seismic records for the trailing windowDays. Transport
// failures and non-200 responses return an empty slice wrapped in
// domain.ErrSourceUnavailable; the caller logs and continues.
func (c *Client) Fetch(ctx context.Context, windowDays int) ([]domain.RawRecord, error) {
	end := domain.Clock().Now().UTC()
	start := end.AddDate(0, 0, -windowDays)

	params := url.Values{
		"format":       {"geojson"},
		"starttime":    {start.Format("2006-01-02T15:04:05")},
		"endtime":      {end.Format("2006-01-02T15:04:05")},
		"minlatitude":  {fmt.Sprintf("%g", domain.MinLatitude)},
		"maxlatitude":  {fmt.Sprintf("%g", domain.MaxLatitude)},
		"minlongitude": {fmt.Sprintf("%g", domain.MinLongitude)},
		"maxlongitude": {fmt.Sprintf("%g", domain.MaxLongitude)},
		"minmagnitude": {fmt.Sprintf("%g", MinMagnitude)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build usgs request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: usgs: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: usgs: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	records, err := DecodeFeed(resp.Body, c.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: usgs: decode: %v", domain.ErrSourceUnavailable, err)
	}

	c.logger.Info("fetched usgs events", "count", len(records), "window_days", windowDays)
	return records, nil
}

// DecodeFeed parses a GeoJSON feature collection into raw records. Features
// without coordinates are logged and skipped. It is shared with the backfill
// command, which reads exported feeds from disk.
func DecodeFeed(r io.Reader, logger *slog.Logger) ([]domain.RawRecord, error) {
	var fc featureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, err
	}

	records := make([]domain.RawRecord, 0, len(fc.Features))
	for _, f := range fc.Features {
		if len(f.Geometry.Coordinates) < 2 {
			logger.Warn("usgs feature missing coordinates, skipping", "place", f.Properties.Place)
			continue
		}
		rec := domain.RawRecord{
			Magnitude: f.Properties.Mag,
			Lon:       f.Geometry.Coordinates[0],
			Lat:       f.Geometry.Coordinates[1],
			EpochMS:   f.Properties.Time,
			Place:     f.Properties.Place,
		}
		if len(f.Geometry.Coordinates) > 2 {
			depth := f.Geometry.Coordinates[2]
			rec.DepthKm = &depth
		}
		records = append(records, rec)
	}
	return records, nil
}

// USGS GeoJSON response types.

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties properties `json:"properties"`
	Geometry   geometry   `json:"geometry"`
}

type properties struct {
	Mag   float64 `json:"mag"`
	Place string  `json:"place"`
	Time  int64   `json:"time"` // epoch milliseconds
}

type geometry struct {
	Coordinates []float64 `json:"coordinates"` // [lon, lat, depth_km]
}
