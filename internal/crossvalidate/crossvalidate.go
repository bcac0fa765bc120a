// Package crossvalidate cross-checks extracted product fields against each
// other to catch content landing in the wrong field, like marketing copy stored
// as INCI, usage steps stored as a description, and similar scraper
// mistakes.
package crossvalidate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jmylchreest/hairlens/internal/models"
)

var marketingPhrases = []string{
	"sem amônia", "sem amonia", "fácil de aplicar", "fácil aplicação",
	"ideal para", "indicado para", "recomendado para",
	"maior durabilidade", "cobertura dos fios", "cor vibrante",
	"brilho intenso", "brilho natural", "cabelos naturais",
	"quimicamente tratados", "concentrado protetor", "exclusivo",
	"formulação", "proporciona", "promove", "fortalece",
	"protege", "suavidade", "maciez", "hidratação profunda",
	"tecnologia", "resultado", "ação reparadora",
	"tons de", "efeito natural", "longa duração",
}

var usagePhrases = []string{
	"aplique", "aplicar", "aplicação", "massageie", "massage",
	"enxágue", "enxague", "rinse", "deixe agir", "aguarde",
	"espalhe", "distribua", "use em", "use nos", "use no",
	"apply to", "apply on", "spread", "leave on", "wait",
	"wash", "lavar", "modo de uso", "como usar", "how to use",
	"passo 1", "passo 2", "step 1", "step 2",
	"seque com", "penteie", "secar", "desembarace",
}

var usageActionVerbs = []string{
	"aplique", "aplicar", "massageie", "enxágue", "enxague",
	"use", "apply", "spread", "rinse", "wash", "lavar",
	"deixe", "aguarde", "espalhe", "distribua", "penteie",
	"seque", "secar",
}

var inciAnchorIngredients = map[string]struct{}{
	"aqua": {}, "water": {}, "aqua/water": {}, "sodium laureth sulfate": {},
	"sodium lauryl sulfate": {}, "cetearyl alcohol": {}, "glycerin": {},
	"dimethicone": {}, "phenoxyethanol": {}, "tocopherol": {},
	"cetrimonium chloride": {}, "stearyl alcohol": {}, "isopropyl myristate": {},
	"parfum": {}, "fragrance": {}, "citric acid": {}, "sodium chloride": {},
	"behentrimonium chloride": {}, "amodimethicone": {},
}

var marketingComplexPattern = regexp.MustCompile(`(?i)\.\s*\*+[A-Z]|complex[*:\s]`)
var sentenceBreakPattern = regexp.MustCompile(`\.\s+[A-Z]`)

// scoreDeductions maps each issue severity to its point cost against the
// 100-point baseline score.
var scoreDeductions = map[models.IssueSeverity]int{
	models.SeverityError:   20,
	models.SeverityWarning: 5,
	models.SeverityInfo:    0,
}

// Input bundles the extracted fields the cross-validator inspects together.
type Input struct {
	ProductName           string
	INCIIngredients       []string
	Description           string
	UsageInstructions     string
	BenefitsClaims        []string
	Price                 float64
	HasPrice              bool
	Currency              string
	ImageURLMain          string
	ProductTypeNormalized string
}

// Validate runs every cross-field rule and returns the combined report,
// including the derived 0-100 quality score.
func Validate(in Input) models.FieldValidationReport {
	var issues []models.FieldIssue

	issues = append(issues, checkRequiredFields(in.ProductName, in.ImageURLMain, in.ProductTypeNormalized)...)
	issues = append(issues, checkINCIIsMarketing(in.INCIIngredients)...)
	issues = append(issues, checkINCIIsUsage(in.INCIIngredients)...)
	issues = append(issues, checkINCIHasSentences(in.INCIIngredients)...)
	issues = append(issues, checkINCIMarketingComplex(in.INCIIngredients)...)
	issues = append(issues, checkDescriptionQuality(in.Description)...)
	issues = append(issues, checkUsageQuality(in.UsageInstructions)...)
	issues = append(issues, checkBenefitsQuality(in.BenefitsClaims)...)
	issues = append(issues, checkPrice(in.Price, in.HasPrice, in.Currency)...)

	score := 100
	for _, issue := range issues {
		score -= scoreDeductions[issue.Severity]
	}
	if score < 0 {
		score = 0
	}

	return models.FieldValidationReport{Issues: issues, Score: score}
}

func lowercaseItems(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = strings.ToLower(strings.TrimSpace(item))
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// checkINCIIsMarketing flags an INCI list that is actually marketing copy:
// either no anchor ingredient is present and some items read as marketing
// phrases (ERROR), or a large share of items do (WARNING).
func checkINCIIsMarketing(inci []string) []models.FieldIssue {
	if len(inci) == 0 {
		return nil
	}
	lower := lowercaseItems(inci)
	anchorsFound := 0
	for _, item := range lower {
		if _, ok := inciAnchorIngredients[item]; ok {
			anchorsFound++
		}
	}

	marketingHits := 0
	var examples []string
	for _, item := range lower {
		for _, phrase := range marketingPhrases {
			if strings.Contains(item, phrase) {
				marketingHits++
				if len(examples) < 3 {
					examples = append(examples, truncate(item, 80))
				}
				break
			}
		}
	}

	if marketingHits > 0 && anchorsFound == 0 {
		return []models.FieldIssue{{
			Field:    "inci_ingredients",
			Code:     "inci_is_marketing",
			Severity: models.SeverityError,
			Message:  fmt.Sprintf("INCI contains marketing text instead of ingredients (%d/%d items)", marketingHits, len(inci)),
			Details:  strings.Join(examples, "; "),
		}}
	}
	if float64(marketingHits) > float64(len(inci))*0.3 {
		return []models.FieldIssue{{
			Field:    "inci_ingredients",
			Code:     "inci_mixed_marketing",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("%d of %d INCI items look like marketing text", marketingHits, len(inci)),
			Details:  strings.Join(examples, "; "),
		}}
	}
	return nil
}

// checkINCIIsUsage flags an INCI list contaminated with usage-instruction phrases.
func checkINCIIsUsage(inci []string) []models.FieldIssue {
	if len(inci) == 0 {
		return nil
	}
	lower := lowercaseItems(inci)
	usageHits := 0
	var examples []string
	for _, item := range lower {
		for _, phrase := range usagePhrases {
			if strings.Contains(item, phrase) {
				usageHits++
				if len(examples) < 3 {
					examples = append(examples, truncate(item, 80))
				}
				break
			}
		}
	}

	if float64(usageHits) > float64(len(inci))*0.3 {
		return []models.FieldIssue{{
			Field:    "inci_ingredients",
			Code:     "inci_is_usage",
			Severity: models.SeverityError,
			Message:  fmt.Sprintf("INCI contains usage instructions (%d/%d items)", usageHits, len(inci)),
			Details:  strings.Join(examples, "; "),
		}}
	}
	if usageHits > 0 {
		return []models.FieldIssue{{
			Field:    "inci_ingredients",
			Code:     "inci_has_usage_text",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("%d INCI item(s) look like usage instructions", usageHits),
			Details:  strings.Join(examples, "; "),
		}}
	}
	return nil
}

// checkINCIHasSentences flags INCI items that read as full description
// sentences rather than ingredient names.
func checkINCIHasSentences(inci []string) []models.FieldIssue {
	if len(inci) == 0 {
		return nil
	}
	var sentenceItems []string
	for _, item := range inci {
		s := strings.TrimSpace(item)
		isSentence := (sentenceBreakPattern.MatchString(s) && len(s) > 50) || len(strings.Fields(s)) > 12
		if isSentence {
			sentenceItems = append(sentenceItems, truncate(s, 80))
		}
	}
	if len(sentenceItems) > 3 {
		return []models.FieldIssue{{
			Field:    "inci_ingredients",
			Code:     "inci_has_sentences",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("%d INCI items look like description sentences", len(sentenceItems)),
			Details:  sentenceItems[0],
		}}
	}
	return nil
}

// checkINCIMarketingComplex flags INCI items with a marketing "complex" name
// tacked on, e.g. "Sodium Citrate. *Pro-Reparage Complex: Biotin".
func checkINCIMarketingComplex(inci []string) []models.FieldIssue {
	if len(inci) == 0 {
		return nil
	}
	var complexItems []string
	for _, item := range inci {
		if marketingComplexPattern.MatchString(item) {
			complexItems = append(complexItems, truncate(item, 80))
		}
	}
	if len(complexItems) > 0 {
		return []models.FieldIssue{{
			Field:    "inci_ingredients",
			Code:     "inci_marketing_complex",
			Severity: models.SeverityInfo,
			Message:  fmt.Sprintf("%d INCI items have marketing complex names appended", len(complexItems)),
			Details:  complexItems[0],
		}}
	}
	return nil
}

// checkDescriptionQuality flags a description that is really an INCI list,
// or one too short to carry any meaning.
func checkDescriptionQuality(description string) []models.FieldIssue {
	desc := strings.TrimSpace(description)
	if desc == "" {
		return nil
	}
	var issues []models.FieldIssue

	if strings.Contains(desc, ",") {
		parts := strings.Split(desc, ",")
		trimmed := make([]string, len(parts))
		for i, p := range parts {
			trimmed[i] = strings.TrimSpace(p)
		}
		if len(trimmed) > 10 {
			inciLike := 0
			for _, p := range trimmed {
				if len(p) < 40 && len(strings.Fields(p)) <= 5 {
					inciLike++
				}
			}
			if float64(inciLike) > float64(len(trimmed))*0.7 {
				issues = append(issues, models.FieldIssue{
					Field:    "description",
					Code:     "desc_is_inci_list",
					Severity: models.SeverityError,
					Message:  "Description appears to be an INCI ingredient list",
					Details:  truncate(desc, 120),
				})
			}
		}
	}

	if len(desc) < 20 && !containsAlpha(desc) {
		issues = append(issues, models.FieldIssue{
			Field:    "description",
			Code:     "desc_too_short",
			Severity: models.SeverityWarning,
			Message:  "Description is too short to be meaningful",
		})
	}
	return issues
}

func containsAlpha(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

// checkUsageQuality flags usage instructions with no action verb, which
// suggests a description got stored in the wrong field.
func checkUsageQuality(usage string) []models.FieldIssue {
	text := strings.ToLower(strings.TrimSpace(usage))
	if text == "" {
		return nil
	}
	hasActionVerb := false
	for _, verb := range usageActionVerbs {
		if strings.Contains(text, verb) {
			hasActionVerb = true
			break
		}
	}
	if !hasActionVerb && len(text) > 50 {
		return []models.FieldIssue{{
			Field:    "usage_instructions",
			Code:     "usage_is_description",
			Severity: models.SeverityWarning,
			Message:  "Usage instructions contain no action verbs; may be a description",
			Details:  truncate(usage, 100),
		}}
	}
	return nil
}

// checkBenefitsQuality flags benefit claims long enough to be descriptions
// rather than short marketing bullets.
func checkBenefitsQuality(benefits []string) []models.FieldIssue {
	if len(benefits) == 0 {
		return nil
	}
	var longItems []string
	for _, b := range benefits {
		if len(strings.TrimSpace(b)) > 120 {
			longItems = append(longItems, b)
		}
	}
	if len(longItems) > 0 {
		return []models.FieldIssue{{
			Field:    "benefits_claims",
			Code:     "benefits_too_long",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("%d benefit(s) are very long; may be descriptions", len(longItems)),
			Details:  truncate(longItems[0], 100),
		}}
	}
	return nil
}

// checkPrice flags non-positive prices, outlier-high prices, and a price set
// without a currency.
func checkPrice(price float64, hasPrice bool, currency string) []models.FieldIssue {
	if !hasPrice {
		return nil
	}
	var issues []models.FieldIssue
	switch {
	case price <= 0:
		issues = append(issues, models.FieldIssue{
			Field:    "price",
			Code:     "price_invalid",
			Severity: models.SeverityError,
			Message:  fmt.Sprintf("Price is non-positive: %v", price),
		})
	case price > 5000:
		issues = append(issues, models.FieldIssue{
			Field:    "price",
			Code:     "price_outlier",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("Price seems unusually high: %v", price),
		})
	}
	if currency == "" {
		issues = append(issues, models.FieldIssue{
			Field:    "currency",
			Code:     "price_no_currency",
			Severity: models.SeverityWarning,
			Message:  "Price is set but currency is missing",
		})
	}
	return issues
}

// checkRequiredFields flags missing product name (error), image (warning),
// and normalized product type (info).
func checkRequiredFields(productName, imageURL, productType string) []models.FieldIssue {
	var issues []models.FieldIssue
	if strings.TrimSpace(productName) == "" {
		issues = append(issues, models.FieldIssue{
			Field:    "product_name",
			Code:     "name_missing",
			Severity: models.SeverityError,
			Message:  "Product name is missing",
		})
	}
	if imageURL == "" {
		issues = append(issues, models.FieldIssue{
			Field:    "image_url_main",
			Code:     "image_missing",
			Severity: models.SeverityWarning,
			Message:  "Product image is missing",
		})
	}
	if productType == "" {
		issues = append(issues, models.FieldIssue{
			Field:    "product_type_normalized",
			Code:     "type_missing",
			Severity: models.SeverityInfo,
			Message:  "Product type is not set",
		})
	}
	return issues
}
