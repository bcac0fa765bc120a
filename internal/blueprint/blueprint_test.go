package blueprint

import (
	"strings"
	"testing"

	"github.com/jmylchreest/hairlens/internal/models"
)

func TestDetectPlatform(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://www.brand.myshopify.com/products/x", "shopify"},
		{"https://www.brand.com.br/collections/shampoo", "shopify"},
		{"https://brand.vtexcommercestable.com.br/x", "vtex"},
		{"https://www.brand.com/wp-content/uploads/x", "woocommerce"},
		{"https://www.brand.com/produtos/shampoo", "custom"},
	}
	for _, tc := range cases {
		if got := DetectPlatform(tc.url); got != tc.want {
			t.Errorf("DetectPlatform(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestGenerate_DefaultsAndPlatformSelectors(t *testing.T) {
	brand := models.Brand{
		BrandSlug: "acme-hair",
		Name:      "Acme Hair",
		SiteRoot:  "https://www.acmehair.com.br",
	}
	bp := Generate(brand, "")
	if bp.Platform != "custom" {
		t.Errorf("expected custom platform, got %q", bp.Platform)
	}
	if bp.Domain != "www.acmehair.com.br" {
		t.Errorf("expected domain www.acmehair.com.br, got %q", bp.Domain)
	}
	if len(bp.AllowedDomains) != 1 || bp.AllowedDomains[0] != bp.Domain {
		t.Errorf("expected allowed_domains to default to [domain], got %v", bp.AllowedDomains)
	}
	if len(bp.Entrypoints) != 1 || bp.Entrypoints[0] != brand.SiteRoot {
		t.Errorf("expected entrypoints to default to [site_root], got %v", bp.Entrypoints)
	}
	if !strings.HasSuffix(bp.Discovery.SitemapURLs[0], "/sitemap.xml") {
		t.Errorf("expected a generated sitemap URL, got %v", bp.Discovery.SitemapURLs)
	}
	if !bp.Extraction.UseLLMFallback {
		t.Error("expected use_llm_fallback to default true")
	}
	if len(bp.Extraction.INCISelectors) == 0 {
		t.Error("expected default INCI selectors to be populated")
	}
}

func TestGenerate_ExplicitEntrypoints(t *testing.T) {
	brand := models.Brand{
		BrandSlug:   "acme-hair",
		SiteRoot:    "https://www.acmehair.com.br",
		Entrypoints: []string{"https://www.acmehair.com.br/colecoes/shampoos"},
	}
	bp := Generate(brand, "shopify")
	if len(bp.Entrypoints) != 1 || bp.Entrypoints[0] != brand.Entrypoints[0] {
		t.Errorf("expected explicit entrypoints preserved, got %v", bp.Entrypoints)
	}
	if bp.Platform != "shopify" {
		t.Errorf("expected explicit platform override respected, got %q", bp.Platform)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	brand := models.Brand{BrandSlug: "roundtrip-brand", SiteRoot: "https://www.example.com"}
	original := Generate(brand, "custom")

	path, err := Save(original, dir)
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if !strings.HasSuffix(path, "roundtrip-brand.yaml") {
		t.Errorf("expected path to end with brand_slug.yaml, got %q", path)
	}

	loaded, found, err := Load("roundtrip-brand", dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !found {
		t.Fatal("expected blueprint to be found")
	}
	if loaded.BrandSlug != original.BrandSlug || loaded.Platform != original.Platform {
		t.Errorf("round-tripped blueprint mismatch: got %+v, want %+v", loaded, original)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()
	_, found, err := Load("nonexistent-brand", dir)
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if found {
		t.Error("expected found=false for a missing blueprint file")
	}
}

func TestSelectors_AdaptsToExtractorShape(t *testing.T) {
	bp := Blueprint{
		Extraction: Extraction{
			NameSelectors:  []string{"h1"},
			INCISelectors:  []string{".ingredients"},
			ImageSelectors: []string{"img.main"},
		},
	}
	sel := bp.Selectors()
	if len(sel.Name) != 1 || sel.Name[0] != "h1" {
		t.Errorf("expected name selectors passthrough, got %v", sel.Name)
	}
	if len(sel.Ingredients) != 1 || sel.Ingredients[0] != ".ingredients" {
		t.Errorf("expected ingredient selectors passthrough, got %v", sel.Ingredients)
	}
}

func TestProductURLPatternRegexp(t *testing.T) {
	bp := Blueprint{Discovery: Discovery{ProductURLPattern: `-\d+ml$`}}
	re, err := bp.ProductURLPatternRegexp()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !re.MatchString("shampoo-300ml") {
		t.Error("expected pattern to match")
	}

	empty := Blueprint{}
	re, err = empty.ProductURLPatternRegexp()
	if err != nil || re != nil {
		t.Errorf("expected nil regexp and no error for empty pattern, got %v, %v", re, err)
	}
}
