package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmylchreest/hairlens/internal/models"
)

func TestSitemapAdapter_FlatSitemap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<?xml version="1.0"?>
<urlset>
  <url><loc>https://brand.com/produtos/shampoo-hidratante-300ml</loc></url>
  <url><loc>https://brand.com/sobre-nos</loc></url>
</urlset>`))
	}))
	defer srv.Close()

	adapter := NewSitemapAdapter()
	results, err := adapter.Discover(context.Background(), Config{SitemapURLs: []string{srv.URL + "/sitemap.xml"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 URLs, got %d: %+v", len(results), results)
	}
	for _, d := range results {
		if d.SourceType != "sitemap" {
			t.Errorf("expected source_type sitemap, got %q", d.SourceType)
		}
	}
}

func TestSitemapAdapter_RecursesIntoIndex(t *testing.T) {
	var nestedURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?>
<sitemapindex><sitemap><loc>` + nestedURL + `</loc></sitemap></sitemapindex>`))
	})
	mux.HandleFunc("/sitemap-products.xml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?>
<urlset><url><loc>https://brand.com/p/mascara-reparadora</loc></url></urlset>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	nestedURL = srv.URL + "/sitemap-products.xml"

	adapter := NewSitemapAdapter()
	results, err := adapter.Discover(context.Background(), Config{SitemapURLs: []string{srv.URL + "/sitemap.xml"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || !strings.Contains(results[0].URL, "mascara-reparadora") {
		t.Fatalf("expected nested sitemap URL to surface, got %+v", results)
	}
}

func TestSitemapAdapter_StalenessFilter(t *testing.T) {
	old := time.Now().AddDate(-2, 0, 0).Format(time.RFC3339)
	fresh := time.Now().Format(time.RFC3339)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?>
<urlset>
  <url><loc>https://brand.com/p/old-product</loc><lastmod>` + old + `</lastmod></url>
  <url><loc>https://brand.com/p/fresh-product</loc><lastmod>` + fresh + `</lastmod></url>
  <url><loc>https://brand.com/p/no-lastmod</loc></url>
</urlset>`))
	}))
	defer srv.Close()

	adapter := &SitemapAdapter{MaxAge: 30 * 24 * time.Hour}
	results, err := adapter.Discover(context.Background(), Config{SitemapURLs: []string{srv.URL}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var urls []string
	for _, d := range results {
		urls = append(urls, d.URL)
	}
	for _, want := range []string{"fresh-product", "no-lastmod"} {
		found := false
		for _, u := range urls {
			if strings.Contains(u, want) {
				found = true
			}
		}
		if !found {
			t.Errorf("expected %q to survive staleness filter, got %v", want, urls)
		}
	}
	for _, u := range urls {
		if strings.Contains(u, "old-product") {
			t.Errorf("expected stale entry to be dropped, got %v", urls)
		}
	}
}

func TestSitemapAdapter_AllFetchesFail(t *testing.T) {
	adapter := NewSitemapAdapter()
	_, err := adapter.Discover(context.Background(), Config{SitemapURLs: []string{"http://127.0.0.1:0/sitemap.xml"}})
	if err == nil {
		t.Fatal("expected an error when no sitemap could be fetched")
	}
}

func TestSitemapAdapter_ClassifiesKits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?>
<urlset><url><loc>https://brand.com/kit-completo-reparacao</loc></url></urlset>`))
	}))
	defer srv.Close()

	adapter := NewSitemapAdapter()
	results, err := adapter.Discover(context.Background(), Config{SitemapURLs: []string{srv.URL}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Type != models.URLTypeKit || !results[0].IsKit {
		t.Fatalf("expected kit classification, got %+v", results)
	}
}
