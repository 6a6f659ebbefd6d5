package ncs

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/monsoonlabs/hazardwatch/internal/domain"
)

var (
	magnitudeRe = regexp.MustCompile(`(\d+\.\d+)`)
	numberRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
	coordPairRe = regexp.MustCompile(`(\d+\.\d+)[,\s]+(\d+\.\d+)`)
	dateLikeRe  = regexp.MustCompile(`\d{1,4}[-/]\d{1,2}[-/]\d{1,4}`)

	// Free-text patterns correlating a magnitude-like number with a
	// coordinate pair (in either order) or a depth mention.
	freeTextPatterns = []*regexp.Regexp{
		regexp.MustCompile(`M(?:agnitude)?\s*(\d+\.\d+).*?(\d+\.\d+)[°\s]*[NS][,\s]+(\d+\.\d+)[°\s]*[EW]`),
		regexp.MustCompile(`(\d+\.\d+)[°\s]*[NS][,\s]+(\d+\.\d+)[°\s]*[EW].*?M(?:agnitude)?\s*(\d+\.\d+)`),
		regexp.MustCompile(`(\d+\.\d+)[°\s]*[NS][,\s]+(\d+\.\d+)[°\s]*[EW].*?depth\s*(\d+(?:\.\d+)?)`),
	}
)

// headerKeywords qualify a table as hazard data. At least two distinct
// keywords must appear across the header cells.
var headerKeywords = []string{"magnitude", "mag", "lat", "lon", "depth", "location", "time", "date"}

// boundsMarginDeg is the slack outside the monitored bounding box before a
// coordinate pair is rejected. A margin, not a hard clip: nearby events are
// still relevant.
const boundsMarginDeg = 5.0

// columnMap holds resolved column indices; -1 means unidentified.
type columnMap struct {
	mag, date, lat, lon, depth, location int
}

// mapColumns resolves the column layout of a candidate table, trying the
// header-keyword strategy first and positional numeric inference second.
// Returns false only when the table does not qualify as hazard data or has
// no data rows to infer from. Unresolved columns stay -1; the row
// extractors then fall back to scanning every cell, so a table where both
// strategies come up empty still gets row-level extraction.
func mapColumns(table [][]string) (columnMap, bool) {
	header := lowered(table[0])
	if !qualifies(header) {
		return columnMap{}, false
	}

	cols := mapColumnsByHeader(header)
	if cols.mag == -1 || (cols.lat == -1 && cols.lon == -1) {
		if len(table) < 2 {
			return columnMap{}, false
		}
		cols = mapColumnsByPosition(table[1], cols)
	}
	return cols, true
}

func lowered(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ToLower(strings.TrimSpace(c))
	}
	return out
}

func qualifies(header []string) bool {
	matches := 0
	for _, kw := range headerKeywords {
		for _, h := range header {
			if strings.Contains(h, kw) {
				matches++
				break
			}
		}
	}
	return matches >= 2
}

// mapColumnsByHeader assigns columns by keyword substring match against
// lowercased header text.
func mapColumnsByHeader(header []string) columnMap {
	find := func(keywords ...string) int {
		for i, h := range header {
			for _, kw := range keywords {
				if strings.Contains(h, kw) {
					return i
				}
			}
		}
		return -1
	}
	return columnMap{
		mag:      find("magnitude", "mag"),
		date:     find("date", "time"),
		lat:      find("lat"),
		lon:      find("lon", "long"),
		depth:    find("depth"),
		location: find("region", "location", "place"),
	}
}

// mapColumnsByPosition infers missing columns from the shape of the first
// data row: the first numeric cell is magnitude, the next two latitude and
// longitude, a fourth numeric cell depth; the first non-numeric non-empty
// cell is location and a date-like cell is the date column.
func mapColumnsByPosition(firstData []string, cols columnMap) columnMap {
	var numeric []int
	for i, cell := range firstData {
		// Tolerate comma decimal separators.
		if _, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", "."), 64); err == nil {
			numeric = append(numeric, i)
		}
	}
	if len(numeric) < 3 {
		return cols
	}

	cols.mag = numeric[0]
	cols.lat = numeric[1]
	cols.lon = numeric[2]
	if len(numeric) > 3 {
		cols.depth = numeric[3]
	}

	// Header-resolved date and location columns are kept; inference only
	// fills the gaps.
	if cols.location == -1 {
		isNumeric := make(map[int]bool, len(numeric))
		for _, i := range numeric {
			isNumeric[i] = true
		}
		for i, cell := range firstData {
			if !isNumeric[i] && cell != "" {
				cols.location = i
				break
			}
		}
	}
	if cols.date == -1 {
		for i, cell := range firstData {
			if dateLikeRe.MatchString(cell) {
				cols.date = i
				break
			}
		}
	}
	return cols
}

// extractRow converts one data row into a raw record, or reports rejection:
// no usable magnitude, no coordinate pair, coordinates far outside the
// monitored box, or an event older than windowDays.
func extractRow(cells []string, cols columnMap, windowDays int) (domain.RawRecord, bool) {
	if len(cells) == 0 {
		return domain.RawRecord{}, false
	}

	mag, ok := extractMagnitude(cells, cols.mag)
	if !ok {
		return domain.RawRecord{}, false
	}

	lat, lon, ok := extractCoords(cells, cols.lat, cols.lon)
	if !ok {
		return domain.RawRecord{}, false
	}
	if lat < domain.MinLatitude-boundsMarginDeg || lat > domain.MaxLatitude+boundsMarginDeg ||
		lon < domain.MinLongitude-boundsMarginDeg || lon > domain.MaxLongitude+boundsMarginDeg {
		return domain.RawRecord{}, false
	}

	rec := domain.RawRecord{Magnitude: mag, Lat: lat, Lon: lon}

	if cols.depth >= 0 && cols.depth < len(cells) {
		if m := numberRe.FindString(cells[cols.depth]); m != "" {
			if depth, err := strconv.ParseFloat(m, 64); err == nil {
				rec.DepthKm = &depth
			}
		}
	}

	now := domain.Clock().Now().UTC()
	eventTime := now
	if cols.date >= 0 && cols.date < len(cells) {
		if t, ok := domain.ParseEventTime(cells[cols.date]); ok {
			eventTime = t
		}
	}
	if eventTime.Before(now.AddDate(0, 0, -windowDays)) {
		return domain.RawRecord{}, false
	}
	rec.EpochMS = eventTime.UnixMilli()

	if cols.location >= 0 && cols.location < len(cells) {
		rec.Place = strings.TrimSpace(cells[cols.location])
	}
	return rec, true
}

// extractMagnitude reads the designated column first, then scans every cell.
// Only values in the open interval (0, 10) are credible magnitudes.
func extractMagnitude(cells []string, magCol int) (float64, bool) {
	if magCol >= 0 && magCol < len(cells) {
		if v, ok := parseMagnitude(cells[magCol]); ok {
			return v, true
		}
	}
	for _, cell := range cells {
		if v, ok := parseMagnitude(cell); ok {
			return v, true
		}
	}
	return 0, false
}

func parseMagnitude(s string) (float64, bool) {
	m := magnitudeRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || v <= 0 || v >= 10 {
		return 0, false
	}
	return v, true
}

// extractCoords reads designated columns first, falling back to a combined
// "lat, lon" pattern scanned across every cell.
func extractCoords(cells []string, latCol, lonCol int) (float64, float64, bool) {
	if latCol >= 0 && latCol < len(cells) && lonCol >= 0 && lonCol < len(cells) {
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(cells[latCol]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(cells[lonCol]), 64)
		if errLat == nil && errLon == nil {
			return lat, lon, true
		}
	}
	for _, cell := range cells {
		if m := coordPairRe.FindStringSubmatch(cell); len(m) == 3 {
			lat, errLat := strconv.ParseFloat(m[1], 64)
			lon, errLon := strconv.ParseFloat(m[2], 64)
			if errLat == nil && errLon == nil {
				return lat, lon, true
			}
		}
	}
	return 0, 0, false
}

// extractFreeText is the last-resort strategy: scan the whole page text for
// fixed patterns correlating a magnitude with a coordinate pair. Matches get
// the current time as occurrence time.
func extractFreeText(text string) []domain.RawRecord {
	now := domain.Clock().Now().UTC()
	var records []domain.RawRecord
	for i, pattern := range freeTextPatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			var rec domain.RawRecord
			if i == 0 {
				// magnitude first: mag, lat, lon
				mag, e1 := strconv.ParseFloat(m[1], 64)
				lat, e2 := strconv.ParseFloat(m[2], 64)
				lon, e3 := strconv.ParseFloat(m[3], 64)
				if e1 != nil || e2 != nil || e3 != nil {
					continue
				}
				rec = domain.RawRecord{Magnitude: mag, Lat: lat, Lon: lon}
			} else {
				// coordinates first: lat, lon, then magnitude or depth
				lat, e1 := strconv.ParseFloat(m[1], 64)
				lon, e2 := strconv.ParseFloat(m[2], 64)
				val, e3 := strconv.ParseFloat(m[3], 64)
				if e1 != nil || e2 != nil || e3 != nil {
					continue
				}
				rec = domain.RawRecord{Lat: lat, Lon: lon}
				if val < 10 {
					rec.Magnitude = val
				} else {
					// Third capture was a depth; assume a mid-range magnitude.
					rec.Magnitude = 5.0
					depth := val
					rec.DepthKm = &depth
				}
			}
			rec.EpochMS = now.UnixMilli()
			records = append(records, rec)
		}
		if len(records) > 0 {
			break
		}
	}
	return records
}
