// Package ingredient cleans, splits, and validates raw INCI ingredient text
// scraped from a product page into a list of individually-plausible
// ingredient names.
package ingredient

import (
	"fmt"
	"regexp"
	"strings"
)

// cutMarkers are section headings that mark the end of an ingredient list
// and the start of unrelated copy (usage instructions, regulatory boilerplate).
// Everything from the first marker onward is dropped.
var cutMarkers = []string{
	"modo de uso", "como usar", "how to use", "directions",
	"benefícios", "benefits", "indicação", "precauções", "warnings",
	"validade", "reg. ms", "sac:", "cnpj", "fabricante",
}

var garbagePhrases = []string{
	"click here", "see more", "read more", "ver mais", "clique aqui",
	"saiba mais", "leia mais", "show more", "infamous", "known for",
	"commonly used", "is a type of", "can cause", "compare",
	"report error", "embed",
}

var verbIndicators = []string{
	"aplique", "aplicar", "massageie", "enxágue", "enxague",
	"use", "apply", "massage", "rinse", "wash", "lavar",
	"espalhe", "distribua", "deixe agir", "aguarde",
}

var productHeadingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^shampoo\s*:`),
	regexp.MustCompile(`(?i)^condicionador\s*:`),
	regexp.MustCompile(`(?i)^conditioner\s*:`),
	regexp.MustCompile(`(?i)^máscara\s*:`),
	regexp.MustCompile(`(?i)^mascara\s*:`),
	regexp.MustCompile(`(?i)^mask\s*:`),
	regexp.MustCompile(`(?i)^creme\s*:`),
	regexp.MustCompile(`(?i)^leave-in\s*:`),
	regexp.MustCompile(`(?i)^óleo\s*:`),
}

var urlPattern = regexp.MustCompile(`(?i)https?://`)

// minValidIngredients is the floor below which a list is rejected outright
// even if every remaining item individually validates.
const minValidIngredients = 5

// ValidationResult mirrors the pipeline's INCI validation outcome: either a
// cleaned, deduplicated ingredient list, or a rejection reason suitable for
// storage on a QuarantineDetail.
type ValidationResult struct {
	Valid           bool
	Cleaned         []string
	Removed         []string
	RejectionReason string
}

// ExtractAndValidate cleans raw scraped text, splits it into candidate
// ingredients, and validates the resulting list. This is the entrypoint the
// extractor pipeline calls once it has located a raw INCI text block.
func ExtractAndValidate(rawText string) ValidationResult {
	if strings.TrimSpace(rawText) == "" {
		return ValidationResult{RejectionReason: "no_inci_text"}
	}

	cleaned := CleanText(rawText)
	if cleaned == "" {
		return ValidationResult{RejectionReason: "empty_after_cleaning"}
	}

	return ValidateList(splitIngredients(cleaned))
}

// CleanText truncates raw INCI text at the first cut marker and strips
// known garbage phrases anywhere in what remains.
func CleanText(raw string) string {
	text := raw
	lower := strings.ToLower(text)
	for _, marker := range cutMarkers {
		if idx := strings.Index(lower, marker); idx != -1 {
			text = text[:idx]
			lower = strings.ToLower(text)
		}
	}
	for _, phrase := range garbagePhrases {
		text = replaceCaseInsensitive(text, phrase)
	}
	return strings.TrimSpace(text)
}

func replaceCaseInsensitive(text, phrase string) string {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(phrase))
	return re.ReplaceAllString(text, "")
}

var inciSeparators = regexp.MustCompile(`[●•·]`)

// splitIngredients breaks cleaned text into candidate ingredient strings.
// Bullet/dot separators are preferred over commas when present, since
// comma-separated descriptive text ("rich, creamy formula") would otherwise
// be shredded into nonsense fragments.
func splitIngredients(text string) []string {
	var parts []string
	if strings.ContainsAny(text, "●•·") {
		parts = inciSeparators.Split(text, -1)
	} else {
		parts = strings.Split(text, ",")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// validateIngredient reports whether a single candidate string looks like a
// plausible INCI ingredient name rather than scraped prose.
func validateIngredient(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 2 || len(s) > 80 {
		return false
	}
	if urlPattern.MatchString(s) {
		return false
	}
	words := strings.Fields(s)
	if len(words) > 8 {
		return false
	}
	lower := strings.ToLower(s)
	for _, verb := range verbIndicators {
		if strings.Contains(lower, verb) && len(words) > 3 {
			return false
		}
	}
	return true
}

// detectRepetition reports whether the list's opening block of k >= 3 items
// is repeated immediately after it (items 0..k-1 equal items k..2k-1,
// case-insensitively); later repeated blocks are not checked. This is a
// symptom of a scraper
// reading the same DOM fragment twice.
func detectRepetition(ingredients []string) bool {
	normalized := make([]string, len(ingredients))
	for i, ing := range ingredients {
		normalized[i] = strings.ToLower(strings.TrimSpace(ing))
	}
	n := len(normalized)
	for blockSize := 3; blockSize <= n/2; blockSize++ {
		block := normalized[:blockSize]
		next := normalized[blockSize : blockSize*2]
		if equalSlices(block, next) {
			return true
		}
	}
	return false
}

func trimmed(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// detectConcatenation reports whether the list looks like two different
// products' ingredient lists spliced together: either "aqua"/"water"
// appearing twice with a gap, or an embedded product heading like
// "Shampoo:" partway through the list.
func detectConcatenation(ingredients []string) bool {
	lower := make([]string, len(ingredients))
	for i, ing := range ingredients {
		lower[i] = strings.ToLower(strings.TrimSpace(ing))
	}

	var aquaPositions []int
	for i, item := range lower {
		if item == "aqua" || item == "water" || item == "aqua/water" {
			aquaPositions = append(aquaPositions, i)
		}
	}
	if len(aquaPositions) >= 2 {
		for j := 1; j < len(aquaPositions); j++ {
			if aquaPositions[j]-aquaPositions[j-1] > 1 {
				return true
			}
		}
	}

	for _, item := range lower {
		for _, p := range productHeadingPatterns {
			if p.MatchString(item) {
				return true
			}
		}
	}
	return false
}

// ValidateList runs the full ingredient-list validation: pathology checks
// first (repetition, then concatenation; the reported code depends on this
// order), then per-item validation, dedup, and a minimum
// ingredient-count floor. On a pathology rejection the parsed items are
// retained in Cleaned as-is so a diagnostic record can carry them and a
// later re-validation reports the same code.
func ValidateList(ingredients []string) ValidationResult {
	if detectRepetition(ingredients) {
		return ValidationResult{Cleaned: trimmed(ingredients), RejectionReason: "repetition_detected"}
	}
	if detectConcatenation(ingredients) {
		return ValidationResult{Cleaned: trimmed(ingredients), RejectionReason: "concat_detected"}
	}

	seen := make(map[string]struct{})
	var cleaned, removed []string
	for _, ing := range ingredients {
		s := strings.TrimSpace(ing)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			removed = append(removed, s)
			continue
		}
		if !validateIngredient(s) {
			removed = append(removed, s)
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, s)
	}

	if len(cleaned) < minValidIngredients {
		return ValidationResult{
			Cleaned:         cleaned,
			Removed:         removed,
			RejectionReason: fmt.Sprintf("min_ingredients: only %d valid terms", len(cleaned)),
		}
	}
	return ValidationResult{Valid: true, Cleaned: cleaned, Removed: removed}
}
