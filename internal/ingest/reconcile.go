package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/monsoonlabs/hazardwatch/internal/domain"
	"github.com/monsoonlabs/hazardwatch/internal/observability"
)

// Tolerances for matching an incoming event against a stored one. Two
// reports within five minutes and a tenth of a degree describe the same
// physical event.
const (
	TimeTolerance  = 5 * time.Minute
	CoordTolerance = 0.1
)

// Outcome reports what reconciliation did with an event.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeUpdated
)

func (o Outcome) String() string {
	if o == OutcomeUpdated {
		return "updated"
	}
	return "inserted"
}

// Reconciler deduplicates incoming events against the store. A match within
// the tolerance window overwrites the stored event, so the latest report of
// a physical event always wins.
type Reconciler struct {
	store   domain.EventStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewReconciler(store domain.EventStore, logger *slog.Logger, metrics *observability.Metrics) *Reconciler {
	return &Reconciler{store: store, logger: logger, metrics: metrics}
}

// Reconcile inserts e as a new event or overwrites a stored event that lies
// within the tolerance window. Returns the stored event's ID alongside the
// outcome.
func (r *Reconciler) Reconcile(ctx context.Context, e domain.Event) (string, Outcome, error) {
	existing, err := r.store.FindNear(ctx, e.Hazard, e.OccurredAt, e.Lat, e.Lon, TimeTolerance, CoordTolerance)
	if err != nil {
		return "", 0, fmt.Errorf("reconcile %s: %w", e.ID, err)
	}

	if existing != nil {
		if err := r.store.Update(ctx, existing.ID, e); err != nil {
			return "", 0, fmt.Errorf("reconcile %s: %w", e.ID, err)
		}
		r.metrics.EventsUpdated.Inc()
		r.logger.Debug("event updated",
			"id", existing.ID, "hazard", e.Hazard, "source", e.Source, "region", e.Region)
		return existing.ID, OutcomeUpdated, nil
	}

	id, err := r.store.Insert(ctx, e)
	if err != nil {
		return "", 0, fmt.Errorf("reconcile %s: %w", e.ID, err)
	}
	r.metrics.EventsInserted.Inc()
	r.logger.Debug("event inserted",
		"id", id, "hazard", e.Hazard, "source", e.Source, "region", e.Region)
	return id, OutcomeInserted, nil
}
