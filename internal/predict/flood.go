package predict

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/monsoonlabs/hazardwatch/internal/domain"
	"github.com/monsoonlabs/hazardwatch/internal/observability"
)

// Trained-path rainfall defaults and normalization. 300mm marks very heavy
// rainfall for the probability scaling.
const (
	floodDefaultRainfallMM = 150.0
	heavyRainfallMM        = 300.0
)

// FloodEstimator predicts flood probability, expected severity, and
// rainfall per region.
type FloodEstimator struct {
	zones   *RiskZoneTable
	store   ModelStore
	logger  *slog.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	model *ridgeModel
}

func NewFloodEstimator(ctx context.Context, store ModelStore, logger *slog.Logger, metrics *observability.Metrics) *FloodEstimator {
	e := &FloodEstimator{zones: FloodRiskZones, store: store, logger: logger, metrics: metrics}
	var m ridgeModel
	if ok, err := store.LoadModel(ctx, "flood", &m); err != nil {
		logger.Warn("load flood model failed", "error", err)
	} else if ok {
		e.model = &m
		logger.Info("loaded persisted flood model", "features", len(m.Weights))
	}
	return e
}

// Predict returns a flood risk estimate for the region. The hint's rainfall
// forecast, when present, overrides the historical estimate.
func (e *FloodEstimator) Predict(ctx context.Context, region string, history []domain.Event, hint *Hint) Estimate {
	region = resolveQueryRegion(region, FloodDefaultRegion)

	e.mu.Lock()
	if e.model == nil {
		e.train(ctx, history)
	}
	model := e.model
	e.mu.Unlock()

	if model == nil {
		recordPrediction(e.metrics, domain.HazardFlood, false)
		return e.fallback(region, hint)
	}

	risk := e.zones.Factor(region)
	now := domain.Clock().Now()
	monsoon := isMonsoon(now.Month())

	rainfall := e.rainfallEstimate(region, history, hint, now.Month())

	features := []float64{
		rainfall,
		float64(now.Month()),
		risk,
		seasonFlag(monsoon),
	}
	features = oneHotRegion(features, region)
	tier := model.predict(features)
	if math.IsNaN(tier) {
		recordPrediction(e.metrics, domain.HazardFlood, false)
		return e.fallback(region, hint)
	}

	seasonFactor := 0.7
	if monsoon {
		seasonFactor = 1.5
	}
	rainFactor := math.Min(1.0, rainfall/heavyRainfallMM)
	probability := math.Min(0.95, risk*rainFactor*seasonFactor)

	recordPrediction(e.metrics, domain.HazardFlood, true)
	return Estimate{
		Hazard:      domain.HazardFlood,
		Region:      region,
		Probability: probability,
		Severity:    floodSeverityLabel(tier),
		RainfallMM:  rainfall,
		Confidence:  trainedConfidence,
		RiskFactor:  risk,
	}
}

// rainfallEstimate prefers the caller's forecast, then the historical mean
// for the current calendar month, then the fixed default.
func (e *FloodEstimator) rainfallEstimate(region string, history []domain.Event, hint *Hint, month time.Month) float64 {
	if hint != nil && hint.RainfallForecastMM != nil {
		return *hint.RainfallForecastMM
	}
	var sum float64
	var count int
	for _, ev := range history {
		if matchesRegion(ev, region) && ev.OccurredAt.Month() == month && ev.RainfallMM > 0 {
			sum += ev.RainfallMM
			count++
		}
	}
	if count > 0 {
		return sum / float64(count)
	}
	return floodDefaultRainfallMM
}

func (e *FloodEstimator) train(ctx context.Context, history []domain.Event) {
	var features [][]float64
	var targets []float64
	for _, ev := range history {
		if ev.Severity == "" {
			continue
		}
		row := []float64{
			ev.RainfallMM,
			float64(ev.OccurredAt.Month()),
			e.zones.Factor(ev.Region),
			seasonFlag(isMonsoon(ev.OccurredAt.Month())),
		}
		features = append(features, oneHotRegion(row, ev.Region))
		targets = append(targets, tierOf(ev.Severity))
	}
	if len(features) < minTrainingRecords {
		return
	}

	model, err := fitRidge(features, targets, ridgeLambda)
	if err != nil {
		e.logger.Warn("flood model training failed", "error", err, "records", len(features))
		return
	}
	e.model = model
	e.logger.Info("flood model trained", "records", len(features))

	if err := e.store.SaveModel(ctx, "flood", model); err != nil {
		e.logger.Warn("save flood model failed", "error", err)
	}
}

// fallback derives severity and rainfall from the risk tier and season.
func (e *FloodEstimator) fallback(region string, hint *Hint) Estimate {
	risk := e.zones.Factor(region)
	monsoon := isMonsoon(domain.Clock().Now().Month())
	tier := e.zones.Tier(region)

	rainfall := 100.0
	if monsoon {
		switch tier {
		case TierVeryHigh:
			rainfall = 250
		case TierHigh:
			rainfall = 200
		default:
			rainfall = 150
		}
	}
	if hint != nil && hint.RainfallForecastMM != nil {
		rainfall = *hint.RainfallForecastMM
	}

	severity := "low"
	switch {
	case tier == TierVeryHigh && monsoon:
		severity = "high"
	case tier == TierVeryHigh || (tier == TierHigh && monsoon):
		severity = "medium"
	}

	seasonFactor := 0.7
	if monsoon {
		seasonFactor = 1.5
	}
	probability := math.Min(0.9, risk*seasonFactor)

	return Estimate{
		Hazard:      domain.HazardFlood,
		Region:      region,
		Probability: probability,
		Severity:    severity,
		RainfallMM:  rainfall,
		Confidence:  fallbackConfidence,
		RiskFactor:  risk,
	}
}

// floodSeverityLabel maps the numeric regression target back to a label.
func floodSeverityLabel(tier float64) string {
	switch {
	case tier >= 2.5:
		return "high"
	case tier >= 1.5:
		return "medium"
	default:
		return "low"
	}
}
