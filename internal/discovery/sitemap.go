package discovery

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/araddon/dateparse"

	"github.com/jmylchreest/hairlens/internal/constants"
	"github.com/jmylchreest/hairlens/internal/models"
	"github.com/jmylchreest/hairlens/internal/urlclassify"
)

const maxSitemapDepth = 2

// sitemapURLEntry is one <url> entry in a sitemap.xml document.
type sitemapURLEntry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// sitemapDoc represents a regular (non-index) sitemap.
type sitemapDoc struct {
	XMLName xml.Name          `xml:"urlset"`
	URLs    []sitemapURLEntry `xml:"url"`
}

// sitemapIndexEntry is one <sitemap> entry in a sitemap index.
type sitemapIndexEntry struct {
	Loc string `xml:"loc"`
}

// sitemapIndexDoc is a sitemap-of-sitemaps index file.
type sitemapIndexDoc struct {
	XMLName  xml.Name            `xml:"sitemapindex"`
	Sitemaps []sitemapIndexEntry `xml:"sitemap"`
}

// SitemapAdapter discovers URLs by fetching and recursively parsing the
// sitemap_urls listed in a brand's blueprint. It dedups, classifies, and
// optionally drops entries whose <lastmod> is older than MaxAge.
type SitemapAdapter struct {
	Client *http.Client
	// MaxAge, when non-zero, filters out URLs whose lastmod is older than
	// now-MaxAge. Entries with no lastmod, or an unparseable one, are kept.
	MaxAge time.Duration
}

// NewSitemapAdapter builds a SitemapAdapter with a default HTTP client.
func NewSitemapAdapter() *SitemapAdapter {
	return &SitemapAdapter{Client: &http.Client{Timeout: constants.SitemapFetchTimeout}}
}

func (a *SitemapAdapter) Name() string { return "sitemap" }

func (a *SitemapAdapter) Discover(ctx context.Context, cfg Config) ([]models.DiscoveredURL, error) {
	client := a.Client
	if client == nil {
		client = &http.Client{Timeout: constants.SitemapFetchTimeout}
	}

	seen := make(map[string]struct{})
	var rawURLs []string

	for _, sitemapURL := range cfg.SitemapURLs {
		urls, err := a.fetchSitemap(ctx, client, sitemapURL, 0)
		if err != nil {
			continue
		}
		for _, u := range urls {
			if len(rawURLs) >= constants.MaxSitemapURLs {
				break
			}
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			rawURLs = append(rawURLs, u)
		}
	}

	if len(rawURLs) == 0 {
		return nil, fmt.Errorf("no URLs discovered from %d sitemap(s)", len(cfg.SitemapURLs))
	}

	maxPages := cfg.MaxPages
	if maxPages <= 0 || maxPages > len(rawURLs) {
		maxPages = len(rawURLs)
	}
	rawURLs = rawURLs[:maxPages]

	discovered := make([]models.DiscoveredURL, 0, len(rawURLs))
	for _, u := range rawURLs {
		urlType := urlclassify.Classify(u, cfg.ProductURLPattern)
		discovered = append(discovered, models.DiscoveredURL{
			URL:          u,
			SourceType:   "sitemap",
			Type:         urlType,
			HairRelevant: urlType == models.URLTypeProduct || urlType == models.URLTypeCategory,
			IsKit:        urlType == models.URLTypeKit,
			Reason:       fmt.Sprintf("url_type=%s", urlType),
		})
	}
	return discovered, nil
}

// fetchSitemap fetches sitemapURL and returns the URLs it lists,
// recursing into nested sitemaps (sitemap index files) up to maxSitemapDepth.
func (a *SitemapAdapter) fetchSitemap(ctx context.Context, client *http.Client, sitemapURL string, depth int) ([]string, error) {
	if depth > maxSitemapDepth {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building sitemap request: %w", err)
	}
	req.Header.Set("Accept", "application/xml, text/xml, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching sitemap: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sitemap %s returned status %d", sitemapURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading sitemap body: %w", err)
	}

	var index sitemapIndexDoc
	if err := xml.Unmarshal(body, &index); err == nil && len(index.Sitemaps) > 0 {
		var all []string
		for _, entry := range index.Sitemaps {
			if len(all) >= constants.MaxSitemapURLs {
				break
			}
			nested, err := a.fetchSitemap(ctx, client, entry.Loc, depth+1)
			if err != nil {
				continue
			}
			all = append(all, nested...)
		}
		return all, nil
	}

	var doc sitemapDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parsing sitemap XML: %w", err)
	}
	return a.filterByStaleness(doc.URLs), nil
}

// filterByStaleness drops entries older than MaxAge when MaxAge is set.
// Entries with no lastmod, or one dateparse cannot interpret, are kept:
// absence of evidence is not evidence of staleness.
func (a *SitemapAdapter) filterByStaleness(entries []sitemapURLEntry) []string {
	var cutoff time.Time
	if a.MaxAge > 0 {
		cutoff = time.Now().Add(-a.MaxAge)
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Loc == "" {
			continue
		}
		if !cutoff.IsZero() && e.LastMod != "" {
			if t, err := dateparse.ParseAny(e.LastMod); err == nil && t.Before(cutoff) {
				continue
			}
		}
		out = append(out, e.Loc)
	}
	return out
}
