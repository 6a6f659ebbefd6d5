// Command backfill imports historical seismic events from a USGS GeoJSON
// export on disk, running each feature through the same normalization and
// reconciliation path as the live ingest loop. It is used to seed a fresh
// database with enough history for the estimators to train on.
//
// Usage:
//
//	go run ./cmd/backfill -feed data/usgs_2023.geojson -db hazardwatch.db
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/monsoonlabs/hazardwatch/internal/adapter/sqlite"
	"github.com/monsoonlabs/hazardwatch/internal/adapter/usgs"
	"github.com/monsoonlabs/hazardwatch/internal/domain"
	"github.com/monsoonlabs/hazardwatch/internal/ingest"
	"github.com/monsoonlabs/hazardwatch/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	feedPath := flag.String("feed", "", "path to a USGS GeoJSON feature collection")
	dbPath := flag.String("db", "hazardwatch.db", "path to the event database")
	verbose := flag.Bool("v", false, "log every reconciled event")
	flag.Parse()

	if *feedPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -feed")
	}

	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	ctx := context.Background()

	f, err := os.Open(*feedPath)
	if err != nil {
		return fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()

	records, err := usgs.DecodeFeed(f, logger)
	if err != nil {
		return fmt.Errorf("decode feed %s: %w", *feedPath, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("feed %s contains no usable features", *feedPath)
	}

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}

	reconciler := ingest.NewReconciler(store, logger, observability.NewMetrics())

	inserted, updated := 0, 0
	for _, rec := range records {
		event := domain.Normalize(rec, domain.HazardSeismic, "usgs")
		id, outcome, err := reconciler.Reconcile(ctx, event)
		if err != nil {
			return fmt.Errorf("reconcile event at %s: %w", event.OccurredAt, err)
		}
		switch outcome {
		case ingest.OutcomeInserted:
			inserted++
		case ingest.OutcomeUpdated:
			updated++
		}
		if *verbose {
			logger.Debug("reconciled", "id", id, "outcome", outcome.String(), "region", event.Region)
		}
	}

	log.Printf("backfill complete: %d features, %d inserted, %d updated", len(records), inserted, updated)
	return nil
}
