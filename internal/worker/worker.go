// Package worker drives one harvesting run across a set of brands: brands
// run concurrently, each owning its own fetcher session and coverage
// report, while all of them share one repository connection. Parallel
// across brands, sequential within a brand.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/hairlens/internal/blueprint"
	"github.com/jmylchreest/hairlens/internal/constants"
	"github.com/jmylchreest/hairlens/internal/coverage"
	"github.com/jmylchreest/hairlens/internal/discovery"
	"github.com/jmylchreest/hairlens/internal/fetch"
	"github.com/jmylchreest/hairlens/internal/label"
	"github.com/jmylchreest/hairlens/internal/llmclient"
	"github.com/jmylchreest/hairlens/internal/logging"
	"github.com/jmylchreest/hairlens/internal/models"
	"github.com/jmylchreest/hairlens/internal/repository"
)

// Config configures a Worker run.
type Config struct {
	// Concurrency is how many brands are processed at once. Defaults to
	// constants.DefaultBrandConcurrency when <= 0, capped at
	// constants.MaxBrandConcurrency.
	Concurrency int

	// BlueprintDir is where per-brand blueprints are loaded from, and where
	// a freshly generated blueprint is saved for brands that don't have one
	// yet.
	BlueprintDir string

	// FetchOptions seeds every brand's own Session; Logger is overridden
	// per-brand.
	FetchOptions fetch.Options

	MaxLLMCalls  int
	LLMModel     string
	AnthropicKey string
}

// Worker runs a harvesting pass over a list of brands against one shared
// repository.
type Worker struct {
	cfg         Config
	repo        repository.Repository
	labelEngine *label.Engine
	logger      *slog.Logger
}

// New builds a Worker. repo and labelEngine are required.
func New(cfg Config, repo repository.Repository, labelEngine *label.Engine, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = constants.DefaultBrandConcurrency
	}
	if cfg.Concurrency > constants.MaxBrandConcurrency {
		cfg.Concurrency = constants.MaxBrandConcurrency
	}
	if cfg.BlueprintDir == "" {
		cfg.BlueprintDir = "config/blueprints"
	}
	return &Worker{cfg: cfg, repo: repo, labelEngine: labelEngine, logger: logger}
}

// Run processes every brand to completion, bounding concurrency to
// cfg.Concurrency, and returns one coverage.Report per brand in the same
// order brands were given. A per-brand failure is recorded in that brand's
// Report.Errors rather than aborting the whole run.
func (w *Worker) Run(ctx context.Context, brands []models.Brand) []*coverage.Report {
	reports := make([]*coverage.Report, len(brands))
	sem := make(chan struct{}, w.cfg.Concurrency)
	var wg sync.WaitGroup

	for i, brand := range brands {
		i, brand := i, brand
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			reports[i] = w.runBrand(ctx, brand)
		}()
	}
	wg.Wait()
	return reports
}

// runBrand owns one brand's fetcher session for the duration of its run and
// guarantees it is released on every exit path.
func (w *Worker) runBrand(ctx context.Context, brand models.Brand) *coverage.Report {
	brandLogger := w.logger.With("brand_slug", brand.BrandSlug)
	ctx = logging.WithJobID(ctx, brand.BrandSlug)

	bp, found, err := blueprint.Load(brand.BrandSlug, w.cfg.BlueprintDir)
	if err != nil {
		brandLogger.Error("failed to load blueprint", "error", err)
		r := coverage.NewReport(brand.BrandSlug)
		r.Errors = append(r.Errors, fmt.Sprintf("extraction_error: blueprint load: %s", err))
		r.Complete()
		return r
	}
	if !found {
		platform := blueprint.DetectPlatform(brand.SiteRoot)
		bp = blueprint.Generate(brand, platform)
		if _, err := blueprint.Save(bp, w.cfg.BlueprintDir); err != nil {
			brandLogger.Warn("failed to save generated blueprint", "error", err)
		}
	}

	fetchOpts := w.cfg.FetchOptions
	fetchOpts.Logger = brandLogger
	session, err := fetch.NewSession(fetchOpts)
	if err != nil {
		brandLogger.Error("failed to start fetch session", "error", err)
		r := coverage.NewReport(brand.BrandSlug)
		r.Errors = append(r.Errors, fmt.Sprintf("extraction_error: fetch session: %s", err))
		r.Complete()
		return r
	}
	defer session.Close()

	productPattern, err := bp.ProductURLPatternRegexp()
	if err != nil {
		brandLogger.Warn("invalid product_url_pattern", "error", err)
	}
	discoveryCfg := discovery.Config{
		Entrypoints:       brand.Entrypoints,
		AllowedDomains:    brand.AllowedDomains,
		SitemapURLs:       bp.Discovery.SitemapURLs,
		MaxPages:          bp.Discovery.MaxPages,
		ProductURLPattern: productPattern,
	}
	adapters := []discovery.Adapter{discovery.NewSitemapAdapter(), discovery.NewDOMCrawlerAdapter()}
	urls := discovery.Discover(ctx, adapters, discoveryCfg, brandLogger)

	var llm coverage.LLMClient
	if bp.Extraction.UseLLMFallback && w.cfg.AnthropicKey != "" {
		llm = llmclient.New(w.cfg.AnthropicKey, w.cfg.LLMModel, w.cfg.MaxLLMCalls, brandLogger)
	}

	engine := coverage.New(w.labelEngine, w.repo, brandLogger)
	report, err := engine.Run(ctx, brand, bp, urls, session, llm)
	if err != nil {
		brandLogger.Error("brand run failed to persist coverage", "error", err)
	}
	return report
}
