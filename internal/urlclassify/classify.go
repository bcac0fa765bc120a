// Package urlclassify tags a discovered URL as product, category, kit,
// non_hair, or other, from path/query lexical patterns alone.
package urlclassify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/jmylchreest/hairlens/internal/models"
)

var kitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/kit[-/_]`),
	regexp.MustCompile(`(?i)/combo[-/_]`),
	regexp.MustCompile(`(?i)/bundle[-/_]`),
	regexp.MustCompile(`(?i)/set[-_]`),
}

// exclusionKeywords are path segments that mark a URL as out-of-scope
// (non-hair) even if it otherwise looks like a product page.
var exclusionKeywords = []string{
	"body", "face", "nail", "nails", "perfume", "perfumaria", "deodorant", "desodorante",
	"sabonete", "soap", "maquiagem", "makeup", "skincare", "barba", "beard",
}

// nonProductKeywords mark informational pages.
var nonProductKeywords = []string{
	"about", "sobre", "blog", "contact", "contato", "privacy", "privacidade",
	"careers", "trabalhe-conosco", "store-locator", "lojas", "faq", "ajuda",
	"terms", "termos", "politica",
}

var categoryIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/cabelos?/`),
	regexp.MustCompile(`(?i)/produtos?/`),
	regexp.MustCompile(`(?i)/collections?/`),
	regexp.MustCompile(`(?i)/shampoos?/`),
}

var builtinProductIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)-\d+ml\b`),
	regexp.MustCompile(`(?i)-\d+g\b`),
	regexp.MustCompile(`(?i)/p/`),
	regexp.MustCompile(`(?i)/p\?`),
	regexp.MustCompile(`(?i)-shampoo-`),
	regexp.MustCompile(`(?i)-condicionador-`),
	regexp.MustCompile(`(?i)-conditioner-`),
}

var hairKeywords = []string{
	"cabelo", "cabelos", "hair", "shampoo", "condicionador", "conditioner",
	"mascara", "máscara", "mask", "leave-in", "leavein", "tonico", "tônico",
	"oleo", "óleo", "serum", "sérum", "creme", "cream", "pomada", "gel",
	"mousse", "wax", "finalizador", "reparador", "capilar",
}

// Classify tags url as one of the five URLType buckets. productURLPattern is
// the blueprint-supplied regex (may be nil). Classify never errors; a URL
// that matches no rule falls back to "category" when it has at least one
// path segment, and to "other" otherwise.
func Classify(rawURL string, productURLPattern *regexp.Regexp) models.URLType {
	lower := strings.ToLower(rawURL)

	for _, p := range kitPatterns {
		if p.MatchString(lower) {
			return models.URLTypeKit
		}
	}

	segments := pathSegments(lower)

	for _, seg := range segments {
		if containsAny(exclusionKeywords, seg) {
			return models.URLTypeNonHair
		}
	}

	for _, seg := range segments {
		if containsAny(nonProductKeywords, seg) {
			return models.URLTypeOther
		}
	}

	if hasCategoryQueryParam(lower) {
		return models.URLTypeCategory
	}

	looksLikeProduct := (productURLPattern != nil && productURLPattern.MatchString(rawURL)) ||
		matchesAny(builtinProductIndicators, lower)

	if !looksLikeProduct && matchesCategoryIndicator(lower, segments) {
		return models.URLTypeCategory
	}

	if looksLikeProduct {
		return models.URLTypeProduct
	}

	if hasHairKeyword(segments) && len(segments) >= 2 {
		return models.URLTypeProduct
	}
	if len(segments) == 1 && isLongHyphenatedSlug(segments[0]) {
		return models.URLTypeProduct
	}
	if len(segments) >= 1 {
		return models.URLTypeCategory
	}

	return models.URLTypeOther
}

func pathSegments(rawURL string) []string {
	u, err := url.Parse(rawURL)
	path := rawURL
	if err == nil && u.Path != "" {
		path = u.Path
	} else if idx := strings.Index(rawURL, "?"); idx >= 0 {
		path = rawURL[:idx]
	}
	var out []string
	for _, seg := range strings.Split(path, "/") {
		seg = strings.TrimSpace(seg)
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// containsAny reports whether segment contains any keyword in list as a
// substring. Exclusion keywords are matched loosely (not on word boundaries)
// so compound slugs like "body-lotion" or "desodorante-spray" are still
// caught, matching the hair-relevance keyword check the rest of the pipeline
// uses.
func containsAny(list []string, segment string) bool {
	for _, kw := range list {
		if strings.Contains(segment, kw) {
			return true
		}
	}
	return false
}

func hasCategoryQueryParam(rawURL string) bool {
	idx := strings.Index(rawURL, "?")
	if idx < 0 {
		return false
	}
	query := rawURL[idx+1:]
	return strings.Contains(query, "cgid=") || strings.Contains(query, "category=")
}

func matchesCategoryIndicator(rawURL string, segments []string) bool {
	if len(segments) > 4 {
		return false
	}
	return matchesAny(categoryIndicators, rawURL)
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func hasHairKeyword(segments []string) bool {
	for _, seg := range segments {
		for _, kw := range hairKeywords {
			if strings.Contains(seg, kw) {
				return true
			}
		}
	}
	return false
}

// isLongHyphenatedSlug reports whether seg looks like a product slug: at
// least three hyphen-separated tokens.
func isLongHyphenatedSlug(seg string) bool {
	return len(strings.Split(seg, "-")) >= 3
}
