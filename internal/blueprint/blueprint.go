// Package blueprint loads and generates the per-brand configuration
// document that drives discovery and extraction.
package blueprint

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/hairlens/internal/extractor"
	"github.com/jmylchreest/hairlens/internal/models"
)

// DefaultDir is the default location blueprint files are read from and
// written to when the caller does not override it.
const DefaultDir = "config/blueprints"

// Pagination describes the discovery crawler's pagination strategy.
type Pagination struct {
	Type     string `yaml:"type"`
	MaxPages int    `yaml:"max_pages"`
}

// Discovery holds the per-brand discovery configuration.
type Discovery struct {
	Strategy          string     `yaml:"strategy"`
	SitemapURLs       []string   `yaml:"sitemap_urls"`
	ProductURLPattern string     `yaml:"product_url_pattern"`
	MaxPages          int        `yaml:"max_pages"`
	Pagination        Pagination `yaml:"pagination"`
}

// Extraction holds the per-brand extraction configuration.
type Extraction struct {
	INCISelectors   []string `yaml:"inci_selectors"`
	NameSelectors   []string `yaml:"name_selectors"`
	ImageSelectors  []string `yaml:"image_selectors"`
	WaitForSelector string   `yaml:"wait_for_selector"`
	UseLLMFallback  bool     `yaml:"use_llm_fallback"`
}

// Blueprint is one brand's full configuration document. Unknown YAML
// keys are ignored by gopkg.in/yaml.v3's default decoding behavior.
type Blueprint struct {
	BrandSlug      string     `yaml:"brand_slug"`
	BrandName      string     `yaml:"brand_name"`
	Platform       string     `yaml:"platform"`
	Domain         string     `yaml:"domain"`
	AllowedDomains []string   `yaml:"allowed_domains"`
	Entrypoints    []string   `yaml:"entrypoints"`
	Discovery      Discovery  `yaml:"discovery"`
	Extraction     Extraction `yaml:"extraction"`
	Version        int        `yaml:"version"`
}

// Selectors adapts the blueprint's extraction selector lists to the shape
// internal/extractor consumes.
func (b Blueprint) Selectors() extractor.Selectors {
	return extractor.Selectors{
		Name:        b.Extraction.NameSelectors,
		Ingredients: b.Extraction.INCISelectors,
		Image:       b.Extraction.ImageSelectors,
	}
}

// ProductURLPatternRegexp compiles the blueprint's product_url_pattern, or
// returns nil if the blueprint has none set.
func (b Blueprint) ProductURLPatternRegexp() (*regexp.Regexp, error) {
	if b.Discovery.ProductURLPattern == "" {
		return nil, nil
	}
	return regexp.Compile(b.Discovery.ProductURLPattern)
}

var (
	vtexPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\.vtexcommercestable\.com`),
		regexp.MustCompile(`\.vteximg\.com`),
		regexp.MustCompile(`/api/catalog_system/`),
		regexp.MustCompile(`vtex`),
	}
	shopifyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\.myshopify\.com`),
		regexp.MustCompile(`/collections/`),
		regexp.MustCompile(`cdn\.shopify\.com`),
	}
	woocommercePatterns = []*regexp.Regexp{
		regexp.MustCompile(`/wp-content/`),
		regexp.MustCompile(`/wp-json/wc/`),
		regexp.MustCompile(`woocommerce`),
	}
)

// defaultINCISelectors maps each supported platform to its default
// ingredient-selector pack, used when a generated blueprint doesn't
// override them.
var defaultINCISelectors = map[string][]string{
	"vtex": {
		".vtex-store-components-3-x-productDescriptionText p",
		".vtex-tab-layout-0-x-contentContainer p",
		"#tab-ingredientes p", "#tab-composicao p",
	},
	"shopify": {
		".product__description p", ".product-single__description p",
		".product-description p",
	},
	"custom": {
		".product-ingredients p", ".product-ingredients",
		"#ingredientes p", "#composicao p",
		"[data-tab='ingredientes'] p",
		".product-description p",
	},
}

// DetectPlatform guesses the e-commerce platform a brand's site runs on
// from its root URL, falling back to "custom".
func DetectPlatform(rootURL string) string {
	lower := strings.ToLower(rootURL)
	for _, p := range vtexPatterns {
		if p.MatchString(lower) {
			return "vtex"
		}
	}
	for _, p := range shopifyPatterns {
		if p.MatchString(lower) {
			return "shopify"
		}
	}
	for _, p := range woocommercePatterns {
		if p.MatchString(lower) {
			return "woocommerce"
		}
	}
	return "custom"
}

// Generate produces a default blueprint for a brand, detecting its platform
// when one isn't supplied, and seeding the platform's default selector pack.
func Generate(brand models.Brand, platform string) Blueprint {
	if platform == "" {
		platform = DetectPlatform(brand.SiteRoot)
	}

	domain := hostOf(brand.SiteRoot)

	entrypoints := append([]string(nil), brand.Entrypoints...)
	if len(entrypoints) == 0 && brand.SiteRoot != "" {
		entrypoints = []string{brand.SiteRoot}
	}

	inciSelectors, ok := defaultINCISelectors[platform]
	if !ok {
		inciSelectors = defaultINCISelectors["custom"]
	}

	allowedDomains := brand.AllowedDomains
	if len(allowedDomains) == 0 && domain != "" {
		allowedDomains = []string{domain}
	}

	return Blueprint{
		BrandSlug:      brand.BrandSlug,
		BrandName:      brand.Name,
		Platform:       platform,
		Domain:         domain,
		AllowedDomains: allowedDomains,
		Entrypoints:    entrypoints,
		Discovery: Discovery{
			Strategy:    "sitemap_first",
			SitemapURLs: []string{strings.TrimRight(brand.SiteRoot, "/") + "/sitemap.xml"},
			MaxPages:    500,
			Pagination:  Pagination{Type: "scroll", MaxPages: 10},
		},
		Extraction: Extraction{
			INCISelectors:  inciSelectors,
			NameSelectors:  []string{"h1.product-name", "h1", ".product-title", ".product-name"},
			ImageSelectors: []string{".product-image img", "img.product-img", ".gallery img"},
			UseLLMFallback: true,
		},
		Version: 1,
	}
}

func hostOf(rawURL string) string {
	rawURL = strings.TrimPrefix(rawURL, "https://")
	rawURL = strings.TrimPrefix(rawURL, "http://")
	if idx := strings.IndexAny(rawURL, "/?#"); idx >= 0 {
		rawURL = rawURL[:idx]
	}
	return rawURL
}

// Save writes a blueprint to "<dir>/<brand_slug>.yaml", creating dir if
// necessary. Pass "" for dir to use DefaultDir.
func Save(bp Blueprint, dir string) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating blueprint directory: %w", err)
	}
	path := filepath.Join(dir, bp.BrandSlug+".yaml")
	raw, err := yaml.Marshal(bp)
	if err != nil {
		return "", fmt.Errorf("marshaling blueprint: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("writing blueprint file: %w", err)
	}
	return path, nil
}

// Load reads "<dir>/<brandSlug>.yaml". Pass "" for dir to use DefaultDir.
// Returns (Blueprint{}, false, nil) when the file does not exist.
func Load(brandSlug, dir string) (Blueprint, bool, error) {
	if dir == "" {
		dir = DefaultDir
	}
	path := filepath.Join(dir, brandSlug+".yaml")
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Blueprint{}, false, nil
	}
	if err != nil {
		return Blueprint{}, false, fmt.Errorf("reading blueprint file: %w", err)
	}
	var bp Blueprint
	if err := yaml.Unmarshal(raw, &bp); err != nil {
		return Blueprint{}, false, fmt.Errorf("parsing blueprint file %s: %w", path, err)
	}
	return bp, true, nil
}
