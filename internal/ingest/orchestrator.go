package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/monsoonlabs/hazardwatch/internal/domain"
	"github.com/monsoonlabs/hazardwatch/internal/observability"
)

// ErrCycleInFlight is returned when a cycle is requested while another is
// still running. Cycles never overlap.
var ErrCycleInFlight = errors.New("ingestion cycle already in flight")

// Source is a hazard feed adapter. Fetch returns raw records covering the
// last windowDays days, or domain.ErrSourceUnavailable when the feed cannot
// be reached.
type Source interface {
	Name() string
	Hazard() domain.Hazard
	Fetch(ctx context.Context, windowDays int) ([]domain.RawRecord, error)
}

// Publisher forwards reconciled events downstream. Optional.
type Publisher interface {
	Publish(ctx context.Context, events []domain.Event) error
}

// CycleReport summarizes one fetch-normalize-reconcile cycle.
type CycleReport struct {
	RecordsSeen  int            `json:"records_seen"`
	Inserted     int            `json:"inserted"`
	Updated      int            `json:"updated"`
	SourceErrors map[string]int `json:"source_errors,omitempty"`
	Duration     time.Duration  `json:"duration"`
}

// Orchestrator runs ingestion cycles: every source is fetched in parallel,
// records are normalized to canonical events, and each event is reconciled
// against the store. A failed source degrades the cycle; a failed store
// aborts it.
type Orchestrator struct {
	sources    []Source
	reconciler *Reconciler
	publisher  Publisher
	windowDays int
	logger     *slog.Logger
	metrics    *observability.Metrics

	mu    sync.Mutex
	ready atomic.Bool
}

func NewOrchestrator(sources []Source, reconciler *Reconciler, publisher Publisher, windowDays int, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		sources:    sources,
		reconciler: reconciler,
		publisher:  publisher,
		windowDays: windowDays,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once at least one cycle has completed.
func (o *Orchestrator) CheckReadiness(_ context.Context) error {
	if !o.ready.Load() {
		return errors.New("no ingestion cycle has completed yet")
	}
	return nil
}

type fetchResult struct {
	source  string
	hazard  domain.Hazard
	records []domain.RawRecord
	err     error
}

// RunCycle executes one ingestion cycle. Returns ErrCycleInFlight when
// another cycle is already running.
func (o *Orchestrator) RunCycle(ctx context.Context) (CycleReport, error) {
	if !o.mu.TryLock() {
		return CycleReport{}, ErrCycleInFlight
	}
	defer o.mu.Unlock()

	start := time.Now()
	o.metrics.CycleRunning.Set(1)
	defer o.metrics.CycleRunning.Set(0)

	o.logger.Info("ingestion cycle started", "sources", len(o.sources), "window_days", o.windowDays)

	results := o.fetchAll(ctx)

	report := CycleReport{SourceErrors: map[string]int{}}
	var reconciled []domain.Event
	for _, res := range results {
		if res.err != nil {
			report.SourceErrors[res.source]++
			o.logger.Warn("source fetch failed", "source", res.source, "error", res.err)
			continue
		}
		report.RecordsSeen += len(res.records)

		for _, raw := range res.records {
			if raw.Lat == 0 && raw.Lon == 0 {
				// A zero origin means the feed omitted coordinates entirely.
				o.metrics.RecordsSkipped.WithLabelValues(res.source, "no_coordinates").Inc()
				o.logger.Debug("record without coordinates skipped", "source", res.source)
				continue
			}
			event := domain.Normalize(raw, res.hazard, res.source)
			_, outcome, err := o.reconciler.Reconcile(ctx, event)
			if err != nil {
				// Store failures abort the whole cycle.
				return report, err
			}
			if outcome == OutcomeUpdated {
				report.Updated++
			} else {
				report.Inserted++
			}
			reconciled = append(reconciled, event)
		}
	}

	if o.publisher != nil && len(reconciled) > 0 {
		if err := o.publisher.Publish(ctx, reconciled); err != nil {
			// Publishing is best effort; events are already persisted.
			o.logger.Warn("publish reconciled events failed", "error", err, "count", len(reconciled))
		}
	}

	report.Duration = time.Since(start)
	o.metrics.CycleDuration.Observe(report.Duration.Seconds())
	o.ready.Store(true)

	o.logger.Info("ingestion cycle complete",
		"records_seen", report.RecordsSeen,
		"inserted", report.Inserted,
		"updated", report.Updated,
		"source_errors", len(report.SourceErrors),
		"duration", report.Duration)
	return report, nil
}

// Run executes cycles on the given interval until the context is cancelled.
// The first cycle starts immediately.
func (o *Orchestrator) Run(ctx context.Context, interval time.Duration) error {
	if _, err := o.RunCycle(ctx); err != nil && !errors.Is(err, ErrCycleInFlight) {
		o.logger.Error("ingestion cycle failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("ingestion stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if _, err := o.RunCycle(ctx); err != nil && !errors.Is(err, ErrCycleInFlight) {
				o.logger.Error("ingestion cycle failed", "error", err)
			}
		}
	}
}

// fetchAll queries every source concurrently and collects the results.
func (o *Orchestrator) fetchAll(ctx context.Context) []fetchResult {
	results := make([]fetchResult, len(o.sources))
	var wg sync.WaitGroup
	for i, src := range o.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			fetchStart := time.Now()
			records, err := src.Fetch(ctx, o.windowDays)
			o.metrics.SourceFetchDuration.WithLabelValues(src.Name()).Observe(time.Since(fetchStart).Seconds())
			if err != nil {
				o.metrics.SourceFetches.WithLabelValues(src.Name(), "error").Inc()
			} else {
				o.metrics.SourceFetches.WithLabelValues(src.Name(), "success").Inc()
				o.metrics.RecordsExtracted.WithLabelValues(src.Name()).Add(float64(len(records)))
			}
			results[i] = fetchResult{source: src.Name(), hazard: src.Hazard(), records: records, err: err}
		}(i, src)
	}
	wg.Wait()
	return results
}
