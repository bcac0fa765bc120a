// Package main is the entry point for the harvester: it loads a brand
// registry file, runs the coverage pipeline across those brands, and prints
// a summary of each brand's run.
//
// Usage:
//
//	go run ./cmd/harvester -brands brands.yaml
//	go run ./cmd/harvester -brands brands.yaml -concurrency 5
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/hairlens/internal/config"
	"github.com/jmylchreest/hairlens/internal/database"
	"github.com/jmylchreest/hairlens/internal/fetch"
	"github.com/jmylchreest/hairlens/internal/label"
	"github.com/jmylchreest/hairlens/internal/logging"
	"github.com/jmylchreest/hairlens/internal/models"
	"github.com/jmylchreest/hairlens/internal/repository"
	"github.com/jmylchreest/hairlens/internal/version"
	"github.com/jmylchreest/hairlens/internal/worker"
)

// brandFile is the on-disk shape of the brand registry a run is driven
// against. Registry import itself is out of scope for the core; this is
// just the caller's local feed of brand identities.
type brandFile struct {
	Brands []models.Brand `yaml:"brands"`
}

func main() {
	brandsPath := flag.String("brands", "brands.yaml", "path to the brand registry YAML file")
	concurrency := flag.Int("concurrency", 0, "number of brands to process concurrently (0 = use default)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().Short())
		return
	}

	logger := logging.SetDefault()
	v := version.Get()
	logger.Info("starting harvester", "version", v.Version, "commit", v.Commit, "built", v.Date, "go_version", v.GoVersion)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	brands, err := loadBrands(*brandsPath)
	if err != nil {
		logger.Error("failed to load brand registry", "path", *brandsPath, "error", err)
		os.Exit(1)
	}
	if len(brands) == 0 {
		logger.Error("brand registry is empty", "path", *brandsPath)
		os.Exit(1)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := database.MigrateWithLogger(db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	if schemaVersion, err := database.GetLatestSchemaVersion(db); err != nil {
		logger.Warn("failed to get schema version", "error", err)
	} else if schemaVersion != "" {
		migrationCount, _ := database.GetMigrationCount(db)
		logger.Info("database schema ready", "schema_version", schemaVersion, "migrations_applied", migrationCount)
	}

	repo := repository.NewSQLiteRepository(db)

	labelEngine, err := label.New()
	if err != nil {
		logger.Error("failed to load label engine", "error", err)
		os.Exit(1)
	}

	w := worker.New(worker.Config{
		Concurrency:  *concurrency,
		BlueprintDir: cfg.BlueprintDir,
		FetchOptions: fetch.Options{
			Headless: cfg.Headless,
			MinDelay: cfg.RequestDelay,
		},
		MaxLLMCalls:  cfg.MaxLLMCallsPerBrand,
		LLMModel:     cfg.LLMModel,
		AnthropicKey: cfg.AnthropicAPIKey,
	}, repo, labelEngine, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reports := w.Run(ctx, brands)

	exitCode := 0
	for _, r := range reports {
		if r == nil {
			continue
		}
		logger.Info("brand run summary",
			"brand_slug", r.BrandSlug,
			"discovered_total", r.DiscoveredTotal,
			"extracted_total", r.ExtractedTotal,
			"verified_inci_total", r.VerifiedINCITotal,
			"verified_inci_rate", r.VerifiedINCIRate(),
			"quarantined_total", r.QuarantinedTotal,
			"stopped_the_line", r.StoppedTheLine,
			"errors", len(r.Errors),
		)
		if len(r.Errors) > 0 {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func loadBrands(path string) ([]models.Brand, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read brand registry: %w", err)
	}
	var bf brandFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("parse brand registry: %w", err)
	}
	return bf.Brands, nil
}
