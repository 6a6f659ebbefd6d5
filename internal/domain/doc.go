// Package domain models hazard-event data for the Indian subcontinent.
//
// # Data Sources
//
// Seismic events arrive from two independent upstream sources:
//
//	USGS FDSN event API: structured GeoJSON over a fixed bounding box
//	covering India (lat 6.5–37.5, lon 68.0–98.0) with a minimum-magnitude
//	floor of 2.5. Coordinates arrive as [lon, lat, depth_km], times as
//	epoch milliseconds.
//
//	NCS (National Center for Seismology) website: an HTML page whose
//	tabular markup is unannounced and changes without notice. The scraper
//	in internal/adapter/ncs extracts rows heuristically; see that package.
//
// Flood events arrive from an optional JSON bulletin feed
// (internal/adapter/floodwatch). Cyclone records enter through backfill.
//
// # Canonical Event
//
// All sources normalize into one Event shape. The region field is always
// recomputed from coordinates by ResolveRegion, never trusted from the
// source, so events from different feeds land in consistent buckets. Region
// resolution uses coarse latitude/longitude bands and is explicitly a
// best-effort classification, not a boundary determination.
//
// Deduplication identity is (hazard, occurrence time, lat, lon) under a
// tolerance window (±5 minutes, ±0.1°), because independent sources round
// timestamps and coordinates differently for the same physical event.
//
// # ID Generation
//
// Event IDs are deterministic SHA-256 hashes of hazard|time|lat|lon. This
// enables idempotent reconciliation and replay safety without distributed
// coordination. See [GenerateID].
package domain
