// Package predict produces short-horizon risk estimates per hazard and
// region. Each estimator combines a static risk-zone table, a lazily
// trained regression component, and a deterministic rule-based fallback,
// so a prediction call never fails outright.
package predict

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/monsoonlabs/hazardwatch/internal/domain"
	"github.com/monsoonlabs/hazardwatch/internal/observability"
)

// minTrainingRecords is the history size below which training is not
// attempted and the rule-based fallback answers alone.
const minTrainingRecords = 10

// Confidence levels reported with each estimate. The trained path is
// trusted more than the fallback rules.
const (
	trainedConfidence  = 0.7
	fallbackConfidence = 0.5
)

// Default regions absorb query strings that match nothing in the fixed
// set. Each hazard falls back to its most exposed region.
const (
	SeismicDefaultRegion = "Assam"
	FloodDefaultRegion   = "Kerala"
	CycloneDefaultRegion = "Odisha"
)

// Estimate is the transient output of a prediction call. Hazard-specific
// fields are zero for other hazards.
type Estimate struct {
	Hazard      domain.Hazard `json:"hazard"`
	Region      string        `json:"region"`
	Probability float64       `json:"probability"`
	Confidence  float64       `json:"confidence"`
	RiskFactor  float64       `json:"risk_factor"`

	Magnitude float64 `json:"magnitude,omitempty"` // seismic

	Severity   string  `json:"severity,omitempty"`     // flood, cyclone
	RainfallMM float64 `json:"rainfall_mm,omitempty"`  // flood

	WindSpeedKmh  float64 `json:"wind_speed_kmh,omitempty"` // cyclone
	PressureHPa   float64 `json:"pressure_hpa,omitempty"`
	StormCategory string  `json:"storm_category,omitempty"`
	CycloneSeason bool    `json:"cyclone_season,omitempty"`
}

// Hint carries optional forecast inputs supplied by the caller.
type Hint struct {
	RainfallForecastMM *float64
}

// ModelStore persists fitted regression parameters across restarts.
type ModelStore interface {
	SaveModel(ctx context.Context, name string, params any) error
	LoadModel(ctx context.Context, name string, params any) (bool, error)
}

// Set bundles one estimator per hazard and dispatches by hazard type.
type Set struct {
	Seismic *SeismicEstimator
	Flood   *FloodEstimator
	Cyclone *CycloneEstimator
}

// Predict routes to the hazard's estimator. The only error is an unknown
// hazard; each estimator itself always returns an Estimate.
func (s *Set) Predict(ctx context.Context, hazard domain.Hazard, region string, history []domain.Event, hint *Hint) (Estimate, error) {
	switch hazard {
	case domain.HazardSeismic:
		return s.Seismic.Predict(ctx, region, history), nil
	case domain.HazardFlood:
		return s.Flood.Predict(ctx, region, history, hint), nil
	case domain.HazardCyclone:
		return s.Cyclone.Predict(ctx, region, history), nil
	}
	return Estimate{}, fmt.Errorf("unknown hazard type %q", hazard)
}

// resolveQueryRegion approximately matches free-form caller input against
// the fixed region set, falling back to the hazard's default region when
// nothing matches.
func resolveQueryRegion(s, fallback string) string {
	if region, ok := domain.MatchRegion(s); ok {
		return region
	}
	return fallback
}

// matchesRegion reports whether an event belongs to the query region,
// either by resolved region or by place text mention.
func matchesRegion(e domain.Event, region string) bool {
	return e.Region == region || strings.Contains(e.Place, region)
}

func isMonsoon(m time.Month) bool {
	return m >= time.June && m <= time.September
}

// isCycloneSeason covers the pre-monsoon (Apr-May) and post-monsoon
// (Oct-Dec) cyclone seasons of the Indian Ocean basin.
func isCycloneSeason(m time.Month) bool {
	switch m {
	case time.April, time.May, time.October, time.November, time.December:
		return true
	}
	return false
}

func seasonFlag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// oneHotRegion appends a one-hot region encoding to the feature vector,
// indexed by position in the fixed region list. Unknown regions encode as
// all zeros.
func oneHotRegion(features []float64, region string) []float64 {
	encoded := make([]float64, len(domain.Regions))
	if i := domain.RegionIndex(region); i >= 0 {
		encoded[i] = 1
	}
	return append(features, encoded...)
}

// severityTier maps severity labels to the numeric regression target and
// back. Unknown labels count as the lowest tier.
var severityTier = map[string]float64{
	"low": 1, "medium": 2, "high": 3, "severe": 4, "catastrophic": 5,
}

func tierOf(severity string) float64 {
	if v, ok := severityTier[strings.ToLower(severity)]; ok {
		return v
	}
	return 1
}

func recordPrediction(m *observability.Metrics, hazard domain.Hazard, trained bool) {
	mode := "fallback"
	if trained {
		mode = "trained"
	}
	m.Predictions.WithLabelValues(string(hazard), mode).Inc()
}
