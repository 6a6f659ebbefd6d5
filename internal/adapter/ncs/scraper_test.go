package ncs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monsoonlabs/hazardwatch/internal/domain"
)

var scrapeNow = time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)

func withFrozenClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(scrapeNow))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func newTestScraper(t *testing.T, body string, status int) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, 100, slog.Default())
}

func tableDoc(header string, rows ...string) string {
	doc := "<html><body><table><tr>" + header + "</tr>"
	for _, r := range rows {
		doc += "<tr>" + r + "</tr>"
	}
	return doc + "</table></body></html>"
}

func TestFetch_HeaderMappedTable(t *testing.T) {
	withFrozenClock(t)
	page := tableDoc(
		"<th>Date</th><th>Mag</th><th>Lat</th><th>Long</th>",
		"<td>2024-01-01 10:00:00</td><td>5.5</td><td>28.5</td><td>77.2</td>",
	)
	c := newTestScraper(t, page, http.StatusOK)

	records, err := c.Fetch(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, 5.5, rec.Magnitude)
	assert.Equal(t, 28.5, rec.Lat)
	assert.Equal(t, 77.2, rec.Lon)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC).UnixMilli(), rec.EpochMS)
}

func TestFetch_ServerError(t *testing.T) {
	c := newTestScraper(t, "busy", http.StatusServiceUnavailable)
	records, err := c.Fetch(context.Background(), 7)
	assert.Empty(t, records)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestExtract_TableQualification(t *testing.T) {
	withFrozenClock(t)
	c := NewClient("http://unused", time.Second, 100, slog.Default())

	t.Run("fewer than two keyword matches is skipped", func(t *testing.T) {
		page := tableDoc(
			"<th>Name</th><th>Score</th><th>Rank</th>",
			"<td>alpha</td><td>5.5</td><td>1</td>",
		)
		assert.Empty(t, c.Extract([]byte(page), 7))
	})

	t.Run("header-only table is skipped", func(t *testing.T) {
		page := tableDoc("<th>Mag</th><th>Lat</th><th>Long</th>")
		assert.Empty(t, c.Extract([]byte(page), 7))
	})

	t.Run("non-table page without patterns yields nothing", func(t *testing.T) {
		assert.Empty(t, c.Extract([]byte("<html><body><p>maintenance</p></body></html>"), 7))
	})
}

func TestExtract_PositionalInference(t *testing.T) {
	withFrozenClock(t)
	c := NewClient("http://unused", time.Second, 100, slog.Default())

	// Headers carry keywords (time, location) but name no magnitude or
	// coordinate columns, forcing positional inference off the first data
	// row: first numeric is magnitude, then lat, lon, depth.
	page := tableDoc(
		"<th>Event Time</th><th>Reading A</th><th>Reading B</th><th>Reading C</th><th>Reading D</th><th>Location</th>",
		"<td>2024-01-02 08:15:00</td><td>4.8</td><td>26.15</td><td>91.77</td><td>22.0</td><td>Near Guwahati</td>",
	)

	records := c.Extract([]byte(page), 7)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, 4.8, rec.Magnitude)
	assert.Equal(t, 26.15, rec.Lat)
	assert.Equal(t, 91.77, rec.Lon)
	require.NotNil(t, rec.DepthKm)
	assert.Equal(t, 22.0, *rec.DepthKm)
	assert.Equal(t, "Near Guwahati", rec.Place)
	assert.Equal(t, time.Date(2024, 1, 2, 8, 15, 0, 0, time.UTC).UnixMilli(), rec.EpochMS)
}

func TestExtract_CellScanWhenNoColumnsResolve(t *testing.T) {
	withFrozenClock(t)
	c := NewClient("http://unused", time.Second, 100, slog.Default())

	// The header qualifies (date, location) but neither strategy resolves a
	// magnitude or coordinate column: no keyword names one, and the first
	// data row has no three purely numeric cells. Row-level extraction must
	// still recover both from the prose cell.
	page := tableDoc(
		"<th>Date</th><th>Location</th><th>Details</th>",
		"<td>2024-01-01 10:00:00</td><td>Near Delhi</td><td>M 5.5 at 28.5, 77.2</td>",
	)

	records := c.Extract([]byte(page), 7)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, 5.5, rec.Magnitude)
	assert.Equal(t, 28.5, rec.Lat)
	assert.Equal(t, 77.2, rec.Lon)
	assert.Equal(t, "Near Delhi", rec.Place)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC).UnixMilli(), rec.EpochMS)
}

func TestExtract_RowRejection(t *testing.T) {
	withFrozenClock(t)
	c := NewClient("http://unused", time.Second, 100, slog.Default())
	header := "<th>Date</th><th>Mag</th><th>Lat</th><th>Long</th>"

	tests := []struct {
		name string
		row  string
		want int
	}{
		{
			"no parseable magnitude anywhere",
			"<td>recent</td><td>strong</td><td>unknown</td><td>unknown</td>",
			0,
		},
		{
			"magnitude outside credible range",
			"<td>2024-01-01 10:00:00</td><td>12.5</td><td>28.5</td><td>77.2</td>",
			0,
		},
		{
			"coordinates far outside bounding box",
			"<td>2024-01-01 10:00:00</td><td>5.5</td><td>48.85</td><td>2.35</td>",
			0,
		},
		{
			"coordinates within tolerance margin accepted",
			"<td>2024-01-01 10:00:00</td><td>5.5</td><td>3.5</td><td>70.0</td>",
			1,
		},
		{
			"row older than window",
			"<td>2023-11-01 10:00:00</td><td>5.5</td><td>28.5</td><td>77.2</td>",
			0,
		},
		{
			"unparseable date defaults to now and passes window",
			"<td>yesterday evening</td><td>5.5</td><td>28.5</td><td>77.2</td>",
			1,
		},
		{
			"coordinate pair recovered from combined cell",
			"<td>2024-01-01 10:00:00</td><td>5.5</td><td colspan=2>28.5, 77.2</td>",
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := c.Extract([]byte(tableDoc(header, tt.row)), 7)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestExtract_MagnitudeFallbackScan(t *testing.T) {
	withFrozenClock(t)
	c := NewClient("http://unused", time.Second, 100, slog.Default())

	// Magnitude column holds junk; the value hides in a trailing cell.
	page := tableDoc(
		"<th>Date</th><th>Mag</th><th>Lat</th><th>Long</th><th>Remarks</th>",
		"<td>2024-01-01 10:00:00</td><td>n/a</td><td>28.5</td><td>77.2</td><td>revised to 4.6</td>",
	)
	records := c.Extract([]byte(page), 7)
	require.Len(t, records, 1)
	// The coordinate cells also match the decimal pattern but fall outside
	// the credible (0, 10) range, so the scan lands on the remarks value.
	assert.InDelta(t, 4.6, records[0].Magnitude, 0.001)
}

func TestExtract_FreeTextFallback(t *testing.T) {
	withFrozenClock(t)
	c := NewClient("http://unused", time.Second, 100, slog.Default())

	t.Run("magnitude first", func(t *testing.T) {
		page := `<html><body><p>Magnitude 4.3 earthquake recorded at 28.61 N, 77.20 E this morning.</p></body></html>`
		records := c.Extract([]byte(page), 7)
		require.Len(t, records, 1)
		assert.Equal(t, 4.3, records[0].Magnitude)
		assert.Equal(t, 28.61, records[0].Lat)
		assert.Equal(t, 77.20, records[0].Lon)
		assert.Equal(t, scrapeNow.UnixMilli(), records[0].EpochMS)
	})

	t.Run("coordinates first", func(t *testing.T) {
		page := `<html><body><p>Event at 26.15 N, 91.77 E measured M 5.1 by observatory.</p></body></html>`
		records := c.Extract([]byte(page), 7)
		require.Len(t, records, 1)
		assert.Equal(t, 26.15, records[0].Lat)
		assert.Equal(t, 91.77, records[0].Lon)
		assert.Equal(t, 5.1, records[0].Magnitude)
	})

	t.Run("depth mention synthesizes mid-range magnitude", func(t *testing.T) {
		page := `<html><body><p>Tremor at 26.15 N, 91.77 E, depth 33 km.</p></body></html>`
		records := c.Extract([]byte(page), 7)
		require.Len(t, records, 1)
		assert.Equal(t, 5.0, records[0].Magnitude)
		require.NotNil(t, records[0].DepthKm)
		assert.Equal(t, 33.0, *records[0].DepthKm)
	})

	t.Run("tables take priority over page text", func(t *testing.T) {
		page := tableDoc(
			"<th>Date</th><th>Mag</th><th>Lat</th><th>Long</th>",
			"<td>2024-01-01 10:00:00</td><td>5.5</td><td>28.5</td><td>77.2</td>",
		) + `<p>Magnitude 4.3 at 28.61 N, 77.20 E</p>`
		records := c.Extract([]byte(page), 7)
		require.Len(t, records, 1)
		assert.Equal(t, 5.5, records[0].Magnitude)
	})
}
