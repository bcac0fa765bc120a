package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jmylchreest/hairlens/internal/models"
)

func newCrawlTestServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<a href="/collections/shampoos">Shampoos</a>
			<a href="https://unrelated-domain.example/x">External</a>
		</body></html>`))
	})
	mux.HandleFunc("/collections/shampoos", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<a href="/p/shampoo-hidratante-300ml">Shampoo Hidratante</a>
			<a href="/collections/shampoos/oleosos">Shampoos Oleosos</a>
		</body></html>`))
	})
	mux.HandleFunc("/p/shampoo-hidratante-300ml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>No further links here</body></html>`))
	})
	mux.HandleFunc("/collections/shampoos/oleosos", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<a href="/p/shampoo-oleosos-200ml">Shampoo Oleosos</a>
		</body></html>`))
	})
	mux.HandleFunc("/p/shampoo-oleosos-200ml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>No further links here either</body></html>`))
	})
	return httptest.NewServer(mux)
}

// hostOfTestServer returns the test server's hostname without the port,
// since domain allowlists match on hostname only.
func hostOfTestServer(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parsing test server URL: %v", err)
	}
	return u.Hostname()
}

func TestDOMCrawlerAdapter_FollowsCategoriesToProducts(t *testing.T) {
	srv := newCrawlTestServer()
	defer srv.Close()

	host := hostOfTestServer(t, srv)
	adapter := NewDOMCrawlerAdapter()
	results, err := adapter.Discover(context.Background(), Config{
		Entrypoints:    []string{srv.URL + "/"},
		AllowedDomains: []string{host},
		MaxPages:       50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sawCategory, sawProduct, sawExternal bool
	for _, d := range results {
		if strings.Contains(d.URL, "/collections/shampoos") {
			sawCategory = true
			if d.Type != models.URLTypeCategory {
				t.Errorf("expected category classification, got %v", d.Type)
			}
		}
		if strings.Contains(d.URL, "/p/shampoo-hidratante-300ml") {
			sawProduct = true
			if d.Type != models.URLTypeProduct {
				t.Errorf("expected product classification, got %v", d.Type)
			}
		}
		if strings.Contains(d.URL, "unrelated-domain") {
			sawExternal = true
		}
	}
	if !sawCategory {
		t.Error("expected the category page link to be discovered")
	}
	if !sawProduct {
		t.Error("expected the category page to have been followed to discover the product link")
	}
	if sawExternal {
		t.Error("expected the off-domain link to be filtered out")
	}
}

func TestDOMCrawlerAdapter_NoEntrypointsErrors(t *testing.T) {
	adapter := NewDOMCrawlerAdapter()
	_, err := adapter.Discover(context.Background(), Config{})
	if err == nil {
		t.Fatal("expected an error when no entrypoints are configured")
	}
}

func TestDOMCrawlerAdapter_DepthLimitStopsNestedCrawl(t *testing.T) {
	srv := newCrawlTestServer()
	defer srv.Close()

	host := hostOfTestServer(t, srv)
	adapter := &DOMCrawlerAdapter{MaxDepth: 1}
	results, err := adapter.Discover(context.Background(), Config{
		Entrypoints:    []string{srv.URL + "/"},
		AllowedDomains: []string{host},
		MaxPages:       50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sawNestedCategory, sawNestedProduct bool
	for _, d := range results {
		if strings.Contains(d.URL, "/collections/shampoos/oleosos") {
			sawNestedCategory = true
		}
		if strings.Contains(d.URL, "/p/shampoo-oleosos-200ml") {
			sawNestedProduct = true
		}
	}
	if !sawNestedCategory {
		t.Error("expected the second-level category link to still be recorded (it was seen on an already-crawled page)")
	}
	if sawNestedProduct {
		t.Error("expected the second-level category page itself not to be crawled at MaxDepth=1, so its product link should be undiscovered")
	}
}
