// Command import seeds the TimescaleDB tables behind the dashboard from the
// cleaned observation CSV and the detected rapid weight change CSV.
package main

import (
	"context"
	"log"
	"time"

	"github.com/itsatony/w4b_v3/server/dashboard/internal/config"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/database"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/repository/csvfile"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/repository/timescale"
	"github.com/spf13/pflag"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	nuts.InitVersion()

	cfg, err := config.LoadImport()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observationsPath := pflag.String("observations", cfg.Dashboard.ObservationsCSV, "observation CSV to import")
	intervalsPath := pflag.String("intervals", cfg.Dashboard.IntervalsCSV, "weight change interval CSV to import")
	skipIntervals := pflag.Bool("skip-intervals", false, "import observations only")
	timeout := pflag.Duration("timeout", 10*time.Minute, "overall import timeout")
	pflag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := database.NewTimescaleDB(cfg.Database.TimescaleDB)
	if err != nil {
		nuts.L.Fatalf("[Import] Failed to connect to TimescaleDB: %v", err)
	}
	defer db.Close()

	observationRepo, err := timescale.NewObservationRepository(db)
	if err != nil {
		nuts.L.Fatalf("[Import] Failed to initialize observation table: %v", err)
	}
	observations, err := csvfile.NewObservationFile(*observationsPath).Load(ctx)
	if err != nil {
		nuts.L.Fatalf("[Import] Failed to read observations: %v", err)
	}
	if err := observationRepo.InsertObservations(ctx, observations); err != nil {
		nuts.L.Fatalf("[Import] Failed to insert observations: %v", err)
	}
	nuts.L.Infof("[Import] Imported %d observations from %s", len(observations), *observationsPath)

	if *skipIntervals {
		return
	}

	intervalRepo, err := timescale.NewIntervalRepository(db)
	if err != nil {
		nuts.L.Fatalf("[Import] Failed to initialize interval table: %v", err)
	}
	intervals, err := csvfile.NewIntervalFile(*intervalsPath).Load(ctx)
	if err != nil {
		nuts.L.Fatalf("[Import] Failed to read weight change intervals: %v", err)
	}
	if err := intervalRepo.ReplaceIntervals(ctx, intervals); err != nil {
		nuts.L.Fatalf("[Import] Failed to store weight change intervals: %v", err)
	}
	nuts.L.Infof("[Import] Replaced weight change intervals with %d rows from %s", len(intervals), *intervalsPath)
}
