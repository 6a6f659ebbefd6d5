package domain

import (
	"fmt"
	"strings"
	"time"
)

// eventTimeLayouts are the timestamp formats seen across source feeds, tried
// in order. The NCS site has published at least the first two; the rest
// cover regional day-first variants.
var eventTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 MST",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006/01/02 15:04:05",
}

// ParseEventTime parses a source timestamp against the known layouts in
// order. Returns false when no layout matches; callers default to "now".
func ParseEventTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range eventTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// hazardLabels name hazards in synthesized place descriptions.
var hazardLabels = map[Hazard]string{
	HazardSeismic: "Earthquake",
	HazardFlood:   "Flood",
	HazardCyclone: "Cyclone",
}

// SeismicDefaultDepthKm is applied when a seismic source omits depth.
const SeismicDefaultDepthKm = 10.0

// Normalize converts a raw adapter record into the canonical Event. Pure and
// total: every output field gets a value. Occurrence time defaults to the
// current clock time, depth to 10 km for seismic events, and the region is
// always recomputed from coordinates; any region text a source supplied is
// ignored so all feeds bucket consistently.
func Normalize(raw RawRecord, hazard Hazard, source string) Event {
	occurredAt := clock.Now().UTC()
	if raw.EpochMS > 0 {
		occurredAt = time.UnixMilli(raw.EpochMS).UTC()
	} else if t, ok := ParseEventTime(raw.TimeText); ok {
		occurredAt = t
	}

	region := ResolveRegion(raw.Lat, raw.Lon)

	place := strings.TrimSpace(raw.Place)
	if place == "" {
		place = fmt.Sprintf("%s near %s, India", hazardLabels[hazard], region)
	}

	var depth float64
	if hazard == HazardSeismic {
		depth = SeismicDefaultDepthKm
		if raw.DepthKm != nil {
			depth = *raw.DepthKm
		}
	} else if raw.DepthKm != nil {
		depth = *raw.DepthKm
	}

	return Event{
		ID:           GenerateID(hazard, occurredAt, raw.Lat, raw.Lon),
		Hazard:       hazard,
		OccurredAt:   occurredAt,
		Lat:          raw.Lat,
		Lon:          raw.Lon,
		Magnitude:    raw.Magnitude,
		DepthKm:      depth,
		Severity:     strings.ToLower(strings.TrimSpace(raw.SeverityText)),
		RainfallMM:   raw.RainfallMM,
		WindSpeedKmh: raw.WindSpeedKmh,
		PressureHPa:  raw.PressureHPa,
		Region:       region,
		Place:        place,
		Source:       source,
		IngestedAt:   clock.Now().UTC(),
	}
}
