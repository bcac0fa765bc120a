package coverage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmylchreest/hairlens/internal/blueprint"
	"github.com/jmylchreest/hairlens/internal/cleaner"
	"github.com/jmylchreest/hairlens/internal/crossvalidate"
	"github.com/jmylchreest/hairlens/internal/evidence"
	"github.com/jmylchreest/hairlens/internal/extractor"
	"github.com/jmylchreest/hairlens/internal/ingredient"
	"github.com/jmylchreest/hairlens/internal/label"
	"github.com/jmylchreest/hairlens/internal/llmclient"
	"github.com/jmylchreest/hairlens/internal/models"
	"github.com/jmylchreest/hairlens/internal/qualitygate"
	"github.com/jmylchreest/hairlens/internal/repository"
	"github.com/jmylchreest/hairlens/internal/taxonomy"
	"github.com/jmylchreest/hairlens/internal/urlclassify"
)

// Fetcher is the narrow interface the engine needs from the headless-browser
// collaborator.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// LLMClient is the narrow interface the engine needs from the LLM-grounded
// fallback collaborator.
type LLMClient interface {
	CanCall() bool
	ExtractStructured(ctx context.Context, pageText, prompt string, maxTokens int) (map[string]any, error)
}

// Engine drives one brand end-to-end. It holds no brand-scoped state
// itself; Fetcher and LLMClient are owned by the caller for the duration of
// one brand run and passed into Run.
type Engine struct {
	labelEngine *label.Engine
	repo        repository.Repository
	qaConfig    qualitygate.Config
	logger      *slog.Logger
}

// New builds an Engine. labelEngine and repo are required; logger defaults
// to slog.Default() when nil.
func New(labelEngine *label.Engine, repo repository.Repository, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		labelEngine: labelEngine,
		repo:        repo,
		qaConfig:    qualitygate.DefaultConfig(),
		logger:      logger,
	}
}

// Run processes one brand's discovered URLs to completion, or until the
// stop-the-line brake fires. It never returns an error for per-URL
// failures (those are isolated into the returned Report's Errors), only for
// a failure that prevents persisting the final coverage rollup.
func (e *Engine) Run(ctx context.Context, brand models.Brand, bp blueprint.Blueprint, urls []models.DiscoveredURL, fetcher Fetcher, llm LLMClient) (*Report, error) {
	report := NewReport(brand.BrandSlug)

	productPattern, err := bp.ProductURLPatternRegexp()
	if err != nil {
		e.logger.Warn("invalid product_url_pattern, ignoring", "brand_slug", brand.BrandSlug, "error", err)
		productPattern = nil
	}
	selectors := bp.Selectors()

	var productURLs []string
	for _, du := range urls {
		urlType := urlclassify.Classify(du.URL, productPattern)
		report.DiscoveredTotal++
		switch urlType {
		case models.URLTypeKit:
			report.KitsTotal++
		case models.URLTypeNonHair:
			report.NonHairTotal++
		case models.URLTypeProduct:
			report.HairTotal++
			productURLs = append(productURLs, du.URL)
		case models.URLTypeCategory:
			report.HairTotal++
		default:
			report.NonHairTotal++
		}
	}

	for _, productURL := range productURLs {
		if e.processOne(ctx, brand, bp, selectors, productURL, fetcher, llm, report) {
			if report.shouldStopTheLine() {
				report.StoppedTheLine = true
				report.Errors = append(report.Errors, fmt.Sprintf(
					"stop_the_line: failure_rate=%.2f%% after %d products",
					report.FailureRate()*100, report.ExtractedTotal))
				e.logger.Warn("stop-the-line triggered", "brand_slug", brand.BrandSlug,
					"failure_rate", report.FailureRate(), "extracted_total", report.ExtractedTotal)
				break
			}
		}
	}

	if sp, ok := llm.(interface{ Summary() llmclient.Summary }); ok {
		s := sp.Summary()
		report.LLMCalls = s.TotalCalls
		report.LLMInputTokens = s.TotalInputTokens
		report.LLMOutputTokens = s.TotalOutputTokens
	}

	report.Complete()

	if err := e.repo.UpsertBrandCoverage(ctx, report.ToCoverage()); err != nil {
		return report, fmt.Errorf("coverage: upsert brand coverage: %w", err)
	}

	e.logger.Info("brand run complete",
		"brand_slug", brand.BrandSlug,
		"extracted_total", report.ExtractedTotal,
		"verified_inci_total", report.VerifiedINCITotal,
		"verified_inci_rate", report.VerifiedINCIRate(),
		"quarantined_total", report.QuarantinedTotal,
	)
	return report, nil
}

// processOne fetches, extracts, gates, and persists a single product URL.
// It returns true when a product row was actually extracted (counters
// updated), so the caller can evaluate the stop-the-line brake only after a
// real extraction.
func (e *Engine) processOne(ctx context.Context, brand models.Brand, bp blueprint.Blueprint, selectors extractor.Selectors, productURL string, fetcher Fetcher, llm LLMClient, report *Report) bool {
	html, err := fetcher.Fetch(ctx, productURL)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("extraction_error: %s: %s", productURL, err))
		e.logger.Warn("fetch failed", "url", productURL, "error", err)
		return false
	}

	result := extractor.Extract(html, productURL, selectors)
	if strings.TrimSpace(result.ProductName) == "" {
		return false
	}

	gender := taxonomy.DetectGenderTarget(result.ProductName, productURL)
	productType := taxonomy.NormalizeProductType(result.ProductName)
	category := taxonomy.NormalizeCategory(productType, result.ProductName)

	relevant, reason := taxonomy.IsHairRelevant(result.ProductName, productURL, result.Description)
	if !relevant {
		reason = "url_classified_as_product"
	}

	var inciList []string
	inciValid := false
	confidence := 0.0
	method := result.ExtractionMethod
	description := result.Description
	evidenceEntries := append([]models.Evidence(nil), result.Evidence...)

	if result.INCIRaw != "" {
		vr := ingredient.ExtractAndValidate(result.INCIRaw)
		inciList = vr.Cleaned
		if vr.Valid {
			inciValid = true
			confidence = 0.90
		} else {
			// Retained for diagnosis: the quality gate re-validates the list
			// and quarantines with the specific rejection code.
			confidence = 0.30
		}
	}

	if !inciValid && llm != nil && llm.CanCall() && bp.Extraction.UseLLMFallback {
		if llmInci, llmDesc, llmEvidence, ok := e.tryLLMExtraction(ctx, llm, html, productURL, result.ProductName); ok {
			if len(llmInci) > 0 {
				vr := ingredient.ExtractAndValidate(strings.Join(llmInci, ", "))
				if vr.Valid {
					inciList = vr.Cleaned
					confidence = 0.85
					method = models.ExtractionLLMGrounded
				}
			}
			if description == "" && llmDesc != "" {
				description = llmDesc
			}
			evidenceEntries = append(evidenceEntries, llmEvidence...)
		}
	}

	extraction := models.ProductExtraction{
		BrandSlug:             brand.BrandSlug,
		ProductURL:            productURL,
		ProductName:           result.ProductName,
		ImageURLMain:          result.ImageURLMain,
		GenderTarget:          gender,
		ProductTypeNormalized: productType,
		ProductCategory:       category,
		HairRelevanceReason:   reason,
		Description:           description,
		INCIIngredients:       inciList,
		Price:                 result.Price,
		Currency:              result.Currency,
		Confidence:            confidence,
		ExtractionMethod:      method,
		Evidence:              evidenceEntries,
	}

	labels := e.labelEngine.Detect(label.Input{
		Description:     extraction.Description,
		ProductName:     extraction.ProductName,
		INCIIngredients: extraction.INCIIngredients,
		ImageTexts:      result.ImageTexts,
	})
	extraction.ProductLabels = labels

	if issues := crossvalidate.Validate(crossvalidate.Input{
		INCIIngredients:       extraction.INCIIngredients,
		Description:           extraction.Description,
		ProductName:           extraction.ProductName,
		ImageURLMain:          extraction.ImageURLMain,
		ProductTypeNormalized: string(extraction.ProductTypeNormalized),
		Price:                 extraction.Price,
		HasPrice:              result.HasPrice,
		Currency:              extraction.Currency,
	}); issues.HasErrors() {
		e.logger.Info("field cross-validation flagged issues", "url", productURL,
			"score", issues.Score, "error_count", issues.ErrorCount())
	}

	verdict := qualitygate.Run(extraction, brand.AllowedDomains, e.qaConfig)

	if _, err := e.repo.UpsertProduct(ctx, extraction, verdict); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("extraction_error: %s: %s", productURL, err))
		e.logger.Error("upsert failed", "url", productURL, "error", err)
		return false
	}

	report.ExtractedTotal++
	switch verdict.Status {
	case models.StatusVerifiedINCI:
		report.VerifiedINCITotal++
	case models.StatusCatalogOnly:
		report.CatalogOnlyTotal++
	case models.StatusQuarantined:
		report.QuarantinedTotal++
	}
	return true
}

// llmExtractPrompt is deliberately strict:
// only fields verbatim on the page, never inferred.
const llmExtractPrompt = "Extract the following fields from this hair product page.\n" +
	"Product: %s\n\n" +
	"Return JSON with these fields:\n" +
	"- inci_ingredients: list of individual INCI ingredient names (strings), or null if not found\n" +
	"- description: product description text, or null if not found\n\n" +
	"IMPORTANT: Only extract INCI ingredients if you find a complete ingredient list " +
	"(typically starting with 'Aqua' or 'Water'). Do NOT guess or infer ingredients."

func (e *Engine) tryLLMExtraction(ctx context.Context, llm LLMClient, rawHTML, sourceURL, productName string) (inci []string, description string, ev []models.Evidence, ok bool) {
	pageText := cleaner.PageText(rawHTML, sourceURL)
	prompt := fmt.Sprintf(llmExtractPrompt, productName)

	raw, err := llm.ExtractStructured(ctx, pageText, prompt, 2048)
	if err != nil {
		e.logger.Warn("llm fallback failed", "url", sourceURL, "error", err)
		return nil, "", nil, false
	}

	tracker := evidence.New()

	if v, present := raw["inci_ingredients"]; present && v != nil {
		if list, asList := v.([]any); asList {
			for _, item := range list {
				if s, isStr := item.(string); isStr && strings.TrimSpace(s) != "" {
					inci = append(inci, s)
				}
			}
		}
		if len(inci) > 0 {
			raw, _ := json.Marshal(inci)
			tracker.Record("inci_ingredients", sourceURL, "llm:inci_ingredients", string(raw), models.ExtractionLLMGrounded)
		}
	}

	if v, present := raw["description"]; present && v != nil {
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) != "" {
			description = s
			tracker.Record("description", sourceURL, "llm:description", s, models.ExtractionLLMGrounded)
		}
	}

	ev = tracker.Entries()
	if len(inci) == 0 && description == "" {
		return nil, "", nil, false
	}
	return inci, description, ev, true
}
