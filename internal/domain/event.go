package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Hazard enumerates the event categories this system tracks.
type Hazard string

const (
	HazardSeismic Hazard = "seismic"
	HazardFlood   Hazard = "flood"
	HazardCyclone Hazard = "cyclone"
)

// Valid reports whether h is one of the known hazard types.
func (h Hazard) Valid() bool {
	switch h {
	case HazardSeismic, HazardFlood, HazardCyclone:
		return true
	}
	return false
}

// Sentinel errors shared across adapters and the ingestion cycle.
var (
	// ErrSourceUnavailable marks a transport failure or non-success status
	// from an external feed. Non-fatal: the cycle continues with the
	// remaining sources.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrStoreUnavailable marks an unreachable persistence layer. Fatal for
	// the current cycle, which aborts with zero progress.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// RawRecord is the hazard-agnostic intermediate shape produced by a source
// adapter before normalization. Latitude and longitude are required; every
// other field is optional and carries an explicit default applied by
// Normalize. Discarded after normalization.
type RawRecord struct {
	Magnitude float64 // seismic magnitude; 0 when unmeasured
	Lat       float64
	Lon       float64
	DepthKm   *float64 // nil → 10.0 for seismic events
	EpochMS   int64    // epoch milliseconds; 0 → fall back to TimeText
	TimeText  string   // pre-parsed timestamp; "" → ingestion time
	Place     string   // free-text location; "" → synthesized from region

	// Flood fields.
	SeverityText string // low | medium | high | severe | catastrophic
	RainfallMM   float64

	// Cyclone fields.
	WindSpeedKmh float64
	PressureHPa  float64
}

// Event is the canonical persisted hazard record.
type Event struct {
	ID         string    `json:"id"`
	Hazard     Hazard    `json:"hazard"`
	OccurredAt time.Time `json:"occurred_at"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Magnitude  float64   `json:"magnitude"`
	DepthKm    float64   `json:"depth_km,omitempty"`

	Severity     string  `json:"severity,omitempty"`
	RainfallMM   float64 `json:"rainfall_mm,omitempty"`
	WindSpeedKmh float64 `json:"wind_speed_kmh,omitempty"`
	PressureHPa  float64 `json:"pressure_hpa,omitempty"`

	Region     string    `json:"region"`
	Place      string    `json:"place,omitempty"`
	Source     string    `json:"source"`
	IngestedAt time.Time `json:"ingested_at"`
}

// GenerateID produces a deterministic ID from the event's natural identity.
// Reprocessing the same physical event yields the same ID, which keeps
// reconciliation and downstream publishing idempotent.
func GenerateID(hazard Hazard, occurredAt time.Time, lat, lon float64) string {
	input := fmt.Sprintf("%s|%d|%.4f|%.4f", hazard, occurredAt.UTC().Unix(), lat, lon)
	hash := sha256.Sum256([]byte(input))
	return string(hazard) + "-" + hex.EncodeToString(hash[:8])
}
