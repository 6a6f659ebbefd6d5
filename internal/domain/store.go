package domain

import (
	"context"
	"time"
)

// EventStore is the persistence contract the reconciliation engine and
// prediction surface depend on. Implementations must map their own
// connectivity failures to ErrStoreUnavailable.
type EventStore interface {
	// FindNear returns a stored event of the same hazard whose occurrence
	// time lies within ±timeTol of at and whose coordinates lie within
	// ±coordTol degrees of (lat, lon), or nil when no such event exists.
	FindNear(ctx context.Context, hazard Hazard, at time.Time, lat, lon float64, timeTol time.Duration, coordTol float64) (*Event, error)

	// Insert stores a new event and returns its ID.
	Insert(ctx context.Context, e Event) (string, error)

	// Update overwrites every field of the stored event identified by id.
	Update(ctx context.Context, id string, e Event) error

	// History returns events of the given hazard that occurred at or after
	// since, newest first.
	History(ctx context.Context, hazard Hazard, since time.Time) ([]Event, error)
}
