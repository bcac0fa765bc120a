// Package label detects quality seals (sulfate_free, vegan, silicone_free, …)
// by word-boundary keyword matching over text fields and product images,
// plus INCI-absence inference, and assigns a confidence score.
package label

import (
	"regexp"
	"strings"
	"time"

	"github.com/jmylchreest/hairlens/internal/models"
)

// ciNumberPattern catches Color Index dye codes like "CI 15985" or "CI77891".
var ciNumberPattern = regexp.MustCompile(`(?i)ci\s*\d{4,5}`)

// Engine detects seals from text, product images, and INCI composition.
type Engine struct {
	sealKeywords      map[string][]string // seal name -> lowercased keywords
	silicones         []string
	lowPooProhibited  []string
	noPooProhibited   []string
	parabens          []string
	petrolatumMarkers []string
	dyeMarkers        []string
}

// New builds an Engine from the embedded default seal/marker tables.
func New() (*Engine, error) {
	seals, err := loadSealKeywords(defaultSealsYAML)
	if err != nil {
		return nil, err
	}
	silicones, err := loadMarkerList(defaultSiliconesYAML, "silicones")
	if err != nil {
		return nil, err
	}
	lowPoo, err := loadMarkerList(defaultSurfactantsYAML, "low_poo_prohibited")
	if err != nil {
		return nil, err
	}
	noPoo, err := loadMarkerList(defaultSurfactantsYAML, "no_poo_prohibited")
	if err != nil {
		return nil, err
	}
	parabens, err := loadMarkerList(defaultParabensYAML, "parabens")
	if err != nil {
		return nil, err
	}
	petrolatum, err := loadMarkerList(defaultPetrolatumYAML, "petrolatum")
	if err != nil {
		return nil, err
	}
	dyes, err := loadMarkerList(defaultDyesYAML, "dyes")
	if err != nil {
		return nil, err
	}
	return &Engine{
		sealKeywords:      seals,
		silicones:         silicones,
		lowPooProhibited:  lowPoo,
		noPooProhibited:   noPoo,
		parabens:          parabens,
		petrolatumMarkers: petrolatum,
		dyeMarkers:        dyes,
	}, nil
}

// Input bundles the fields the label engine inspects for one product.
type Input struct {
	Description       string
	ProductName       string
	BenefitsClaims    []string
	UsageInstructions string
	INCIIngredients   []string
	// ImageTexts holds strings pulled from image alt/title/filename
	// attributes on the product page.
	ImageTexts []string
}

// textField pairs a field name with its text, for keyword scanning.
type textField struct {
	name string
	text string
}

// Detect runs keyword matching, image scanning, and INCI inference and
// returns the combined ProductLabels result.
func (e *Engine) Detect(in Input) models.ProductLabels {
	var detected []string
	var inferred []string
	var sources []string
	var evidence []models.Evidence

	detectedSet := make(map[string]bool)

	textFields := buildTextFields(in)

	// Method 1: keyword matching, first match per seal ends the scan.
	for _, seal := range sortedSealNames(e.sealKeywords) {
		keywords := e.sealKeywords[seal]
		matched := false
		for _, tf := range textFields {
			lowerText := strings.ToLower(tf.text)
			for _, kw := range keywords {
				if wordBoundaryMatch(lowerText, kw) {
					detected = append(detected, seal)
					detectedSet[seal] = true
					sources = appendUnique(sources, "official_text")
					evidence = append(evidence, models.Evidence{
						FieldName:        "label:" + seal,
						ExtractionMethod: models.ExtractionTextKeyword,
						RawSourceText:    kw,
						EvidenceLocator:  tf.name,
						ExtractedAt:      time.Now().UTC(),
					})
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
	}

	// Method 1b: image scan for seals not yet detected.
	for _, seal := range sortedSealNames(e.sealKeywords) {
		if detectedSet[seal] {
			continue
		}
		keywords := e.sealKeywords[seal]
		for _, imgText := range in.ImageTexts {
			lowerText := strings.ToLower(imgText)
			matched := false
			for _, kw := range keywords {
				if wordBoundaryMatch(lowerText, kw) {
					detected = append(detected, seal)
					detectedSet[seal] = true
					sources = appendUnique(sources, "html_img_element")
					evidence = append(evidence, models.Evidence{
						FieldName:        "label:" + seal,
						ExtractionMethod: models.ExtractionImageScan,
						RawSourceText:    kw,
						EvidenceLocator:  "image_alt_or_title",
						ExtractedAt:      time.Now().UTC(),
					})
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
	}

	// Method 2: INCI inference.
	if in.INCIIngredients != nil {
		inciLower := make([]string, len(in.INCIIngredients))
		for i, ing := range in.INCIIngredients {
			inciLower[i] = strings.ToLower(ing)
		}

		hasSilicone := hasProhibited(inciLower, e.silicones)
		hasLowPooProhibited := hasProhibited(inciLower, e.lowPooProhibited)
		hasNoPooProhibited := hasProhibited(inciLower, e.noPooProhibited)
		hasParaben := hasProhibited(inciLower, e.parabens)
		hasPetrolatum := hasProhibited(inciLower, e.petrolatumMarkers)
		hasDye := hasProhibited(inciLower, e.dyeMarkers) || hasCINumber(inciLower)

		infer := func(seal, absenceText string, present bool) {
			if present || detectedSet[seal] {
				return
			}
			inferred = append(inferred, seal)
			evidence = append(evidence, models.Evidence{
				FieldName:        "label:" + seal,
				ExtractionMethod: models.ExtractionINCIInference,
				RawSourceText:    absenceText,
				EvidenceLocator:  "inci_ingredients",
				ExtractedAt:      time.Now().UTC(),
			})
		}

		infer("silicone_free", "no silicone found in INCI list", hasSilicone)
		infer("sulfate_free", "no harsh sulfates found in INCI list", hasLowPooProhibited)
		infer("low_poo", "no harsh sulfates found in INCI list", hasLowPooProhibited)
		infer("no_poo", "no prohibited surfactants or silicones in INCI list", hasNoPooProhibited || hasSilicone)
		infer("paraben_free", "no paraben markers found in INCI list", hasParaben)
		infer("petrolatum_free", "no petrolatum markers found in INCI list", hasPetrolatum)
		infer("dye_free", "no dye markers or CI numbers found in INCI list", hasDye)

		if len(inferred) > 0 {
			sources = appendUnique(sources, "inci_analysis")
		}
	}

	return models.ProductLabels{
		Detected:   detected,
		Inferred:   inferred,
		Confidence: confidenceFor(detected, inferred),
		Sources:    sources,
		Evidence:   evidence,
	}
}

func buildTextFields(in Input) []textField {
	var fields []textField
	if in.Description != "" {
		fields = append(fields, textField{"description", in.Description})
	}
	if in.ProductName != "" {
		fields = append(fields, textField{"product_name", in.ProductName})
	}
	if len(in.BenefitsClaims) > 0 {
		fields = append(fields, textField{"benefits_claims", strings.Join(in.BenefitsClaims, " ")})
	}
	if in.UsageInstructions != "" {
		fields = append(fields, textField{"usage_instructions", in.UsageInstructions})
	}
	return fields
}

// wordBoundaryMatch reports whether keyword appears in text bounded by
// non-word characters (or string edges) on both sides, where ASCII
// lowercase letters, digits and '-' count as word characters, so "vegan"
// does not match inside "veganuary" and "bio" does not match "biofilm".
func wordBoundaryMatch(text, keyword string) bool {
	idx := 0
	for {
		pos := strings.Index(text[idx:], keyword)
		if pos < 0 {
			return false
		}
		start := idx + pos
		end := start + len(keyword)
		if isWordBoundary(text, start) && isWordBoundary(text, end) {
			return true
		}
		idx = start + 1
		if idx >= len(text) {
			return false
		}
	}
}

func isWordBoundary(text string, pos int) bool {
	if pos <= 0 || pos >= len(text) {
		return true
	}
	r := rune(text[pos-1])
	r2 := rune(text[pos])
	return !(isWordChar(r) && isWordChar(r2))
}

func isWordChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-'
}

func hasProhibited(inciLower, prohibited []string) bool {
	for _, ing := range inciLower {
		for _, name := range prohibited {
			if strings.Contains(ing, name) {
				return true
			}
		}
	}
	return false
}

func hasCINumber(inciLower []string) bool {
	for _, ing := range inciLower {
		if ciNumberPattern.MatchString(ing) {
			return true
		}
	}
	return false
}

func confidenceFor(detected, inferred []string) float64 {
	hasDetected := len(detected) > 0
	hasInferred := len(inferred) > 0
	switch {
	case hasDetected && hasInferred:
		return 0.9
	case hasDetected:
		return 0.8
	case hasInferred:
		return 0.5
	default:
		return 0.0
	}
}

func appendUnique(list []string, item string) []string {
	for _, s := range list {
		if s == item {
			return list
		}
	}
	return append(list, item)
}

func sortedSealNames(m map[string][]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	// Deterministic order matters: detection must not depend on Go's
	// randomized map iteration, since the first-match-per-field-order rule
	// only fully pins down evidence *within* one seal's scan, not the
	// order seals are themselves visited.
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	return names
}
