package predict

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/monsoonlabs/hazardwatch/internal/domain"
	"github.com/monsoonlabs/hazardwatch/internal/observability"
)

// Trained-path defaults when no history carries the field.
const (
	cycloneDefaultWindKmh     = 120.0
	cycloneDefaultPressureHPa = 980.0
)

// CycloneEstimator predicts cyclone probability, intensity, and storm
// category per region.
type CycloneEstimator struct {
	zones   *RiskZoneTable
	store   ModelStore
	logger  *slog.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	model *ridgeModel
}

func NewCycloneEstimator(ctx context.Context, store ModelStore, logger *slog.Logger, metrics *observability.Metrics) *CycloneEstimator {
	e := &CycloneEstimator{zones: CycloneRiskZones, store: store, logger: logger, metrics: metrics}
	var m ridgeModel
	if ok, err := store.LoadModel(ctx, "cyclone", &m); err != nil {
		logger.Warn("load cyclone model failed", "error", err)
	} else if ok {
		e.model = &m
		logger.Info("loaded persisted cyclone model", "features", len(m.Weights))
	}
	return e
}

// Predict returns a cyclone risk estimate for the region.
func (e *CycloneEstimator) Predict(ctx context.Context, region string, history []domain.Event) Estimate {
	region = resolveQueryRegion(region, CycloneDefaultRegion)

	e.mu.Lock()
	if e.model == nil {
		e.train(ctx, history)
	}
	model := e.model
	e.mu.Unlock()

	if model == nil {
		recordPrediction(e.metrics, domain.HazardCyclone, false)
		return e.fallback(region)
	}

	risk := e.zones.Factor(region)
	now := domain.Clock().Now()
	season := isCycloneSeason(now.Month())

	// Regional averages; with no regional history the whole record set
	// stands in, and fixed defaults cover empty fields.
	matching := history[:0:0]
	for _, ev := range history {
		if matchesRegion(ev, region) {
			matching = append(matching, ev)
		}
	}
	if len(matching) == 0 {
		matching = history
	}
	wind := avgField(matching, func(ev domain.Event) float64 { return ev.WindSpeedKmh }, cycloneDefaultWindKmh)
	pressure := avgField(matching, func(ev domain.Event) float64 { return ev.PressureHPa }, cycloneDefaultPressureHPa)

	features := []float64{
		wind,
		pressure,
		float64(now.Month()),
		risk,
		seasonFlag(season),
	}
	features = oneHotRegion(features, region)
	tier := model.predict(features)
	if math.IsNaN(tier) {
		recordPrediction(e.metrics, domain.HazardCyclone, false)
		return e.fallback(region)
	}

	seasonFactor := 0.6
	if season {
		seasonFactor = 1.5
	}
	probability := math.Min(0.95, risk*seasonFactor)

	recordPrediction(e.metrics, domain.HazardCyclone, true)
	return Estimate{
		Hazard:        domain.HazardCyclone,
		Region:        region,
		Probability:   probability,
		Severity:      cycloneSeverityLabel(tier),
		WindSpeedKmh:  wind,
		PressureHPa:   pressure,
		StormCategory: StormCategory(wind),
		CycloneSeason: season,
		Confidence:    trainedConfidence,
		RiskFactor:    risk,
	}
}

func (e *CycloneEstimator) train(ctx context.Context, history []domain.Event) {
	var features [][]float64
	var targets []float64
	for _, ev := range history {
		if ev.Severity == "" || domain.RegionIndex(ev.Region) < 0 {
			continue
		}
		row := []float64{
			ev.WindSpeedKmh,
			ev.PressureHPa,
			float64(ev.OccurredAt.Month()),
			e.zones.Factor(ev.Region),
			seasonFlag(isCycloneSeason(ev.OccurredAt.Month())),
		}
		features = append(features, oneHotRegion(row, ev.Region))
		targets = append(targets, tierOf(ev.Severity))
	}
	if len(features) < minTrainingRecords {
		return
	}

	model, err := fitRidge(features, targets, ridgeLambda)
	if err != nil {
		e.logger.Warn("cyclone model training failed", "error", err, "records", len(features))
		return
	}
	e.model = model
	e.logger.Info("cyclone model trained", "records", len(features))

	if err := e.store.SaveModel(ctx, "cyclone", model); err != nil {
		e.logger.Warn("save cyclone model failed", "error", err)
	}
}

// fallback derives intensity from the risk tier and season alone.
func (e *CycloneEstimator) fallback(region string) Estimate {
	risk := e.zones.Factor(region)
	season := isCycloneSeason(domain.Clock().Now().Month())

	var wind, pressure float64
	var severity string
	switch e.zones.Tier(region) {
	case TierVeryHigh:
		wind, pressure = 140, 960
		severity = "medium"
		if season {
			severity = "high"
		}
	case TierHigh:
		wind, pressure = 120, 970
		severity = "low"
		if season {
			severity = "medium"
		}
	default:
		wind, pressure = 100, 980
		severity = "low"
	}

	seasonFactor := 0.6
	if season {
		seasonFactor = 1.5
	}
	probability := math.Min(0.9, risk*seasonFactor)

	return Estimate{
		Hazard:        domain.HazardCyclone,
		Region:        region,
		Probability:   probability,
		Severity:      severity,
		WindSpeedKmh:  wind,
		PressureHPa:   pressure,
		StormCategory: StormCategory(wind),
		CycloneSeason: season,
		Confidence:    fallbackConfidence,
		RiskFactor:    risk,
	}
}

// avgField averages a positive-valued field across events, or returns the
// default when no event carries it.
func avgField(events []domain.Event, get func(domain.Event) float64, def float64) float64 {
	var sum float64
	var count int
	for _, ev := range events {
		if v := get(ev); v > 0 {
			sum += v
			count++
		}
	}
	if count == 0 {
		return def
	}
	return sum / float64(count)
}

// cycloneSeverityLabel maps the numeric regression target back to a label.
func cycloneSeverityLabel(tier float64) string {
	switch {
	case tier >= 4:
		return "catastrophic"
	case tier >= 3:
		return "severe"
	case tier >= 2:
		return "high"
	case tier >= 1.5:
		return "medium"
	default:
		return "low"
	}
}

// StormCategory classifies sustained wind speed (km/h) into the IMD storm
// scale.
func StormCategory(windKmh float64) string {
	switch {
	case windKmh >= 222:
		return "Super Cyclonic Storm"
	case windKmh >= 166:
		return "Very Severe Cyclonic Storm"
	case windKmh >= 118:
		return "Severe Cyclonic Storm"
	case windKmh >= 88:
		return "Cyclonic Storm"
	case windKmh >= 62:
		return "Deep Depression"
	default:
		return "Depression"
	}
}
