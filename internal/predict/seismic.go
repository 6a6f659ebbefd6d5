package predict

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/monsoonlabs/hazardwatch/internal/domain"
	"github.com/monsoonlabs/hazardwatch/internal/observability"
)

// Fixed trained-path defaults when no matching history exists.
const (
	seismicDefaultDepthKm   = 15.0
	seismicDefaultMagnitude = 5.0
)

// historyWindowDays is the recent-activity window the probability frequency
// term is normalized over.
const historyWindowDays = 90

// SeismicEstimator predicts earthquake probability and expected magnitude
// per region.
type SeismicEstimator struct {
	zones   *RiskZoneTable
	store   ModelStore
	logger  *slog.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	model *ridgeModel
}

// NewSeismicEstimator constructs an untrained estimator, restoring
// persisted model parameters when available.
func NewSeismicEstimator(ctx context.Context, store ModelStore, logger *slog.Logger, metrics *observability.Metrics) *SeismicEstimator {
	e := &SeismicEstimator{zones: SeismicRiskZones, store: store, logger: logger, metrics: metrics}
	var m ridgeModel
	if ok, err := store.LoadModel(ctx, "seismic", &m); err != nil {
		logger.Warn("load seismic model failed", "error", err)
	} else if ok {
		e.model = &m
		logger.Info("loaded persisted seismic model", "features", len(m.Weights))
	}
	return e
}

// Predict returns a risk estimate for the region. Never fails: when the
// learned component is unavailable or produces an implausible value, the
// rule-based fallback answers instead.
func (e *SeismicEstimator) Predict(ctx context.Context, region string, history []domain.Event) Estimate {
	region = resolveQueryRegion(region, SeismicDefaultRegion)

	e.mu.Lock()
	if e.model == nil {
		e.train(ctx, history)
	}
	model := e.model
	e.mu.Unlock()

	if model == nil {
		recordPrediction(e.metrics, domain.HazardSeismic, false)
		return e.fallback(region, history)
	}

	risk := e.zones.Factor(region)
	now := domain.Clock().Now()

	features := []float64{
		seismicDefaultDepthKm,
		float64(now.Month()),
		float64(now.Year()),
		risk,
	}
	features = oneHotRegion(features, region)
	magnitude := model.predict(features)
	if math.IsNaN(magnitude) || magnitude <= 0 {
		recordPrediction(e.metrics, domain.HazardSeismic, false)
		return e.fallback(region, history)
	}

	matches := 0
	for _, ev := range history {
		if matchesRegion(ev, region) {
			matches++
		}
	}
	frequency := float64(matches) / historyWindowDays
	probability := math.Min(0.9, risk*0.7+frequency*0.3)

	recordPrediction(e.metrics, domain.HazardSeismic, true)
	return Estimate{
		Hazard:      domain.HazardSeismic,
		Region:      region,
		Probability: probability,
		Magnitude:   magnitude,
		Confidence:  trainedConfidence,
		RiskFactor:  risk,
	}
}

// train fits the regression once sufficient complete records exist. Holding
// e.mu, so concurrent predictions during training block on one attempt.
func (e *SeismicEstimator) train(ctx context.Context, history []domain.Event) {
	var features [][]float64
	var targets []float64
	for _, ev := range history {
		if ev.Magnitude <= 0 {
			continue
		}
		row := []float64{
			ev.DepthKm,
			float64(ev.OccurredAt.Month()),
			float64(ev.OccurredAt.Year()),
			e.zones.Factor(ev.Region),
		}
		features = append(features, oneHotRegion(row, ev.Region))
		targets = append(targets, ev.Magnitude)
	}
	if len(features) < minTrainingRecords {
		return
	}

	model, err := fitRidge(features, targets, ridgeLambda)
	if err != nil {
		e.logger.Warn("seismic model training failed", "error", err, "records", len(features))
		return
	}
	e.model = model
	e.logger.Info("seismic model trained", "records", len(features))

	if err := e.store.SaveModel(ctx, "seismic", model); err != nil {
		e.logger.Warn("save seismic model failed", "error", err)
	}
}

// fallback derives the estimate from the risk tier and the historical mean
// magnitude alone.
func (e *SeismicEstimator) fallback(region string, history []domain.Event) Estimate {
	risk := e.zones.Factor(region)

	var sum float64
	var count int
	for _, ev := range history {
		if matchesRegion(ev, region) && ev.Magnitude > 0 {
			sum += ev.Magnitude
			count++
		}
	}
	avg := seismicDefaultMagnitude
	if count > 0 {
		avg = sum / float64(count)
	}

	var magnitude float64
	switch e.zones.Tier(region) {
	case TierVeryHigh:
		magnitude = avg + 0.5
	case TierHigh:
		magnitude = avg + 0.3
	case TierModerate:
		magnitude = avg + 0.1
	default:
		magnitude = math.Max(4.0, avg-0.2)
	}

	return Estimate{
		Hazard:      domain.HazardSeismic,
		Region:      region,
		Probability: risk,
		Magnitude:   magnitude,
		Confidence:  fallbackConfidence,
		RiskFactor:  risk,
	}
}
