// Package sqlite persists canonical events and trained model parameters in
// an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/monsoonlabs/hazardwatch/internal/domain"
)

// Store implements domain.EventStore and the estimator model store on top
// of modernc.org/sqlite.
type Store struct {
	db *sql.DB
}

// Open opens the database at path and configures WAL mode. The ingestion
// daemon and the admin server share a single Store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %s: %w", pragma, err)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS events (
	id             TEXT PRIMARY KEY,
	hazard         TEXT NOT NULL,
	occurred_at_ms INTEGER NOT NULL,
	lat            REAL NOT NULL,
	lon            REAL NOT NULL,
	magnitude      REAL NOT NULL DEFAULT 0,
	depth_km       REAL NOT NULL DEFAULT 0,
	severity       TEXT NOT NULL DEFAULT '',
	rainfall_mm    REAL NOT NULL DEFAULT 0,
	wind_speed_kmh REAL NOT NULL DEFAULT 0,
	pressure_hpa   REAL NOT NULL DEFAULT 0,
	region         TEXT NOT NULL,
	place          TEXT NOT NULL DEFAULT '',
	source         TEXT NOT NULL,
	ingested_at_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS models (
	name       TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	trained_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_events_hazard_occurred ON events(hazard, occurred_at_ms);
CREATE INDEX IF NOT EXISTS idx_events_region ON events(region);
`

// Migrate creates the schema if it does not already exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, migration); err != nil {
		return fmt.Errorf("%w: migrate: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Ping verifies the database is reachable. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const eventColumns = `id, hazard, occurred_at_ms, lat, lon, magnitude, depth_km,
	severity, rainfall_mm, wind_speed_kmh, pressure_hpa, region, place, source, ingested_at_ms`

// FindNear returns the stored event of the same hazard closest in time to
// at, within ±timeTol and ±coordTol degrees, or nil when none matches.
func (s *Store) FindNear(ctx context.Context, hazard domain.Hazard, at time.Time, lat, lon float64, timeTol time.Duration, coordTol float64) (*domain.Event, error) {
	atMS := at.UTC().UnixMilli()
	tolMS := timeTol.Milliseconds()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE hazard = ?
		   AND occurred_at_ms BETWEEN ? AND ?
		   AND lat BETWEEN ? AND ?
		   AND lon BETWEEN ? AND ?
		 ORDER BY ABS(occurred_at_ms - ?) LIMIT 1`,
		string(hazard), atMS-tolMS, atMS+tolMS,
		lat-coordTol, lat+coordTol, lon-coordTol, lon+coordTol, atMS,
	)

	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find near: %v", domain.ErrStoreUnavailable, err)
	}
	return e, nil
}

// Insert stores a new event and returns its ID.
func (s *Store) Insert(ctx context.Context, e domain.Event) (string, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Hazard), e.OccurredAt.UTC().UnixMilli(), e.Lat, e.Lon,
		e.Magnitude, e.DepthKm, e.Severity, e.RainfallMM, e.WindSpeedKmh,
		e.PressureHPa, e.Region, e.Place, e.Source, e.IngestedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: insert event %s: %v", domain.ErrStoreUnavailable, e.ID, err)
	}
	return e.ID, nil
}

// Update overwrites every field of the stored event identified by id.
func (s *Store) Update(ctx context.Context, id string, e domain.Event) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET hazard = ?, occurred_at_ms = ?, lat = ?, lon = ?,
		 magnitude = ?, depth_km = ?, severity = ?, rainfall_mm = ?,
		 wind_speed_kmh = ?, pressure_hpa = ?, region = ?, place = ?,
		 source = ?, ingested_at_ms = ? WHERE id = ?`,
		string(e.Hazard), e.OccurredAt.UTC().UnixMilli(), e.Lat, e.Lon,
		e.Magnitude, e.DepthKm, e.Severity, e.RainfallMM, e.WindSpeedKmh,
		e.PressureHPa, e.Region, e.Place, e.Source, e.IngestedAt.UTC().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("%w: update event %s: %v", domain.ErrStoreUnavailable, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event %s: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update event %s: not found", id)
	}
	return nil
}

// History returns events of the given hazard occurring at or after since,
// newest first.
func (s *Store) History(ctx context.Context, hazard domain.Hazard, since time.Time) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE hazard = ? AND occurred_at_ms >= ?
		 ORDER BY occurred_at_ms DESC`,
		string(hazard), since.UTC().UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: history: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: history scan: %v", domain.ErrStoreUnavailable, err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: history iterate: %v", domain.ErrStoreUnavailable, err)
	}
	return events, nil
}

// SaveModel persists trained estimator parameters under name, replacing any
// previous version.
func (s *Store) SaveModel(ctx context.Context, name string, params any) error {
	payload, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal model %s: %w", name, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO models (name, payload, trained_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, trained_at = excluded.trained_at`,
		name, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: save model %s: %v", domain.ErrStoreUnavailable, name, err)
	}
	return nil
}

// LoadModel reads trained estimator parameters into params. Returns false
// with no error when no model has been saved under name.
func (s *Store) LoadModel(ctx context.Context, name string, params any) (bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM models WHERE name = ?`, name,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: load model %s: %v", domain.ErrStoreUnavailable, name, err)
	}
	if err := json.Unmarshal([]byte(payload), params); err != nil {
		return false, fmt.Errorf("unmarshal model %s: %w", name, err)
	}
	return true, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEvent(row scannable) (*domain.Event, error) {
	var (
		e                    domain.Event
		hazard               string
		occurredMS, ingestMS int64
	)
	err := row.Scan(&e.ID, &hazard, &occurredMS, &e.Lat, &e.Lon, &e.Magnitude,
		&e.DepthKm, &e.Severity, &e.RainfallMM, &e.WindSpeedKmh, &e.PressureHPa,
		&e.Region, &e.Place, &e.Source, &ingestMS)
	if err != nil {
		return nil, err
	}
	e.Hazard = domain.Hazard(hazard)
	e.OccurredAt = time.UnixMilli(occurredMS).UTC()
	e.IngestedAt = time.UnixMilli(ingestMS).UTC()
	return &e, nil
}
