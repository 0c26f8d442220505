package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/ksred/klear-datagen/internal/app"
	"github.com/ksred/klear-datagen/internal/config"
	"github.com/ksred/klear-datagen/internal/database"
	"github.com/ksred/klear-datagen/internal/marketdata"
	"github.com/ksred/klear-datagen/internal/scenario"
	"github.com/ksred/klear-datagen/internal/types"
)

type options struct {
	outputDir     string
	profile       string
	snapshots     string
	saveSnapshots string
	dbPath        string
}

// main generates every scenario of a profile and writes one JSON document
// per scenario
func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	var opts options
	flag.StringVar(&opts.outputDir, "output-dir", "", "directory for scenario documents (default from config)")
	flag.StringVar(&opts.profile, "profile", "", "generation profile: "+strings.Join(scenario.ProfileNames(), ", "))
	flag.StringVar(&opts.snapshots, "snapshots", "", "replay market snapshots from this file instead of fetching quotes")
	flag.StringVar(&opts.saveSnapshots, "save-snapshots", "", "write the snapshots used to this file")
	flag.StringVar(&opts.dbPath, "db", "", "also seed every scenario into this SQLite database")
	seed := flag.Int64("seed", 0, "base seed (default from config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	app.ConfigureLogging(cfg.App)

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			cfg.Generator.Seed = *seed
		}
	})
	if opts.outputDir != "" {
		cfg.Generator.OutputDir = opts.outputDir
	}
	if opts.profile != "" {
		cfg.Generator.Profile = opts.profile
	}
	if opts.snapshots != "" {
		cfg.Quotes.SnapshotFile = opts.snapshots
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts); err != nil {
		log.Fatal().Err(err).Msg("Generation failed")
	}
}

func run(ctx context.Context, cfg config.Config, opts options) error {
	profile, ok := scenario.LookupProfile(cfg.Generator.Profile)
	if !ok {
		return fmt.Errorf("unknown profile %q, available: %s", cfg.Generator.Profile, strings.Join(scenario.ProfileNames(), ", "))
	}

	cache, closeCache, err := app.NewCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	orchestrator := scenario.NewOrchestrator(cache, scenario.Options{Seed: cfg.Generator.Seed})
	logger := log.With().
		Str("profile", profile.Name).
		Int64("seed", cfg.Generator.Seed).
		Logger()
	logger.Info().Int("scenarios", len(profile.Steps)).Msg("generating profile")

	datasets, err := orchestrator.RunProfile(ctx, profile)
	if err != nil {
		return err
	}

	store := scenario.NewFileStore(cfg.Generator.OutputDir)
	if err := store.SaveAll(ctx, orchestrator.Registry()); err != nil {
		return err
	}

	if opts.saveSnapshots != "" {
		if err := marketdata.SaveSnapshots(opts.saveSnapshots, mergeSnapshots(datasets)); err != nil {
			return err
		}
		logger.Info().Str("path", opts.saveSnapshots).Msg("saved market snapshots")
	}

	if opts.dbPath != "" {
		db, err := database.NewDatabase(opts.dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		seeder := database.NewSeeder(db)
		for _, d := range datasets {
			if _, err := seeder.Seed(ctx, d); err != nil {
				return fmt.Errorf("seed %s: %w", d.ScenarioID, err)
			}
		}
	}

	for _, d := range datasets {
		s := types.Summarize(d)
		logger.Info().
			Str("scenario_id", s.ScenarioID).
			Str("trader_account", s.TraderAccount).
			Int("trades", s.TradeCount).
			Int("settlements", s.SettlementCount).
			Int("failed", s.FailedCount).
			Int("events", s.EventCount).
			Msg("scenario written")
	}
	logger.Info().Str("dir", store.Dir()).Msg("generation complete")
	return nil
}

// mergeSnapshots collects every snapshot used by datasets, first seen wins
func mergeSnapshots(datasets []*types.Dataset) *types.SnapshotSet {
	merged := types.NewSnapshotSet()
	for _, d := range datasets {
		for _, snap := range d.MarketSnapshots.Snapshots() {
			if _, ok := merged.Get(snap.Symbol); !ok {
				merged.Put(snap)
			}
		}
	}
	return merged
}
