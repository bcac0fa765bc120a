// Package qualitygate applies the tiered pass/fail checks that classify a
// product record as verified_inci, catalog_only, or quarantined.
package qualitygate

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jmylchreest/hairlens/internal/ingredient"
	"github.com/jmylchreest/hairlens/internal/models"
)

// garbageNames are substrings of a product name that mark a scraped error
// page (404, unavailable listing, ...) rather than a real product.
var garbageNames = []string{
	"404", "não encontrado", "não encontrada",
	"página não encontrada", "page not found",
	"produto indisponível", "product unavailable",
	"error", "erro",
}

// Config tunes the Tier 2 ingredient-validation thresholds.
type Config struct {
	MinINCITerms  int
	MinConfidence float64
}

// DefaultConfig matches the pipeline's default thresholds.
func DefaultConfig() Config {
	return Config{MinINCITerms: 5, MinConfidence: 0.80}
}

func checkDomain(rawURL string, allowedDomains []string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	for _, d := range allowedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Run applies Tier 1 (minimal validity) and, when ingredients are present,
// Tier 2 (ingredient validation + confidence) to a product record and
// returns the resulting verdict.
func Run(product models.ProductExtraction, allowedDomains []string, config Config) models.QualityVerdict {
	var passed, failed []string

	nameLower := strings.ToLower(strings.TrimSpace(product.ProductName))
	isGarbage := false
	for _, g := range garbageNames {
		if strings.Contains(nameLower, g) {
			isGarbage = true
			break
		}
	}
	if isGarbage {
		failed = append(failed, "name_garbage")
	} else {
		passed = append(passed, "name_valid")
	}

	if checkDomain(product.ProductURL, allowedDomains) {
		passed = append(passed, "domain_valid")
	} else {
		failed = append(failed, "domain_unofficial")
	}

	if product.ImageURLMain != "" {
		passed = append(passed, "has_image")
	} else {
		failed = append(failed, "no_image")
	}

	if product.HairRelevanceReason != "" {
		passed = append(passed, "hair_relevant")
	} else {
		failed = append(failed, "no_hair_relevance")
	}

	if len(failed) > 0 {
		reason := strings.Join(failed, "; ")
		return models.QualityVerdict{
			Status: models.StatusQuarantined,
			Quarantine: &models.QuarantineDetail{
				RejectionReason: reason,
				RejectionCode:   "tier1_failed",
				ReviewStatus:    models.ReviewPending,
			},
		}
	}

	if len(product.INCIIngredients) == 0 {
		return models.QualityVerdict{Status: models.StatusCatalogOnly}
	}

	inciResult := ingredient.ValidateList(product.INCIIngredients)
	if !inciResult.Valid {
		code := inciResult.RejectionReason
		if i := strings.Index(code, ":"); i >= 0 {
			code = code[:i]
		}
		return models.QualityVerdict{
			Status: models.StatusQuarantined,
			Quarantine: &models.QuarantineDetail{
				RejectionReason: fmt.Sprintf("inci_invalid:%s", inciResult.RejectionReason),
				RejectionCode:   code,
				ReviewStatus:    models.ReviewPending,
			},
		}
	}

	if product.Confidence < config.MinConfidence {
		return models.QualityVerdict{
			Status: models.StatusQuarantined,
			Quarantine: &models.QuarantineDetail{
				RejectionReason: fmt.Sprintf("confidence %.2f < %.2f", product.Confidence, config.MinConfidence),
				RejectionCode:   "low_confidence",
				ReviewStatus:    models.ReviewPending,
			},
		}
	}

	return models.QualityVerdict{Status: models.StatusVerifiedINCI}
}
