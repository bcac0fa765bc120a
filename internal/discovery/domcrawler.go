package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/hairlens/internal/models"
	"github.com/jmylchreest/hairlens/internal/urlclassify"
)

const (
	defaultDOMCrawlMaxDepth = 2
	defaultDOMCrawlMaxPages = 500
	domCrawlRequestTimeout  = 20 * time.Second
)

// DOMCrawlerAdapter discovers URLs by following in-domain links from a
// brand's entrypoints. Category pages are queued for deeper crawling, up to
// MaxDepth; product and kit pages are collected but not followed further.
type DOMCrawlerAdapter struct {
	MaxDepth int
	Logger   *slog.Logger
}

// NewDOMCrawlerAdapter builds a DOMCrawlerAdapter with the default crawl
// depth.
func NewDOMCrawlerAdapter() *DOMCrawlerAdapter {
	return &DOMCrawlerAdapter{MaxDepth: defaultDOMCrawlMaxDepth}
}

func (a *DOMCrawlerAdapter) Name() string { return "dom_crawl" }

func (a *DOMCrawlerAdapter) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

func (a *DOMCrawlerAdapter) Discover(ctx context.Context, cfg Config) ([]models.DiscoveredURL, error) {
	if len(cfg.Entrypoints) == 0 {
		return nil, fmt.Errorf("dom crawl requires at least one entrypoint")
	}

	maxDepth := a.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultDOMCrawlMaxDepth
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = defaultDOMCrawlMaxPages
	}

	var mu sync.Mutex
	seen := make(map[string]struct{})
	var order []string
	depths := make(map[string]int)
	visited := make(map[string]bool)

	for _, ep := range cfg.Entrypoints {
		depths[ep] = 0
	}

	c := colly.NewCollector(colly.MaxDepth(maxDepth), colly.Async(true))
	c.SetRequestTimeout(domCrawlRequestTimeout)
	if len(cfg.AllowedDomains) > 0 {
		c.AllowedDomains = cfg.AllowedDomains
	}

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		select {
		case <-ctx.Done():
			return
		default:
		}

		href := e.Attr("href")
		if href == "" {
			return
		}
		absoluteURL := e.Request.AbsoluteURL(href)
		if absoluteURL == "" {
			return
		}
		normalized := normalizeForCrawl(absoluteURL)
		if normalized == "" {
			return
		}
		if len(cfg.AllowedDomains) > 0 && !hostAllowed(normalized, cfg.AllowedDomains) {
			return
		}

		parentURL := e.Request.URL.String()

		mu.Lock()
		if len(order) >= maxPages {
			mu.Unlock()
			return
		}
		_, already := seen[normalized]
		if !already {
			seen[normalized] = struct{}{}
			order = append(order, normalized)
		}
		parentDepth := depths[parentURL]
		linkDepth := parentDepth + 1
		if _, ok := depths[normalized]; !ok {
			depths[normalized] = linkDepth
		}
		shouldFollow := !already && !visited[normalized] && parentDepth < maxDepth &&
			urlclassify.Classify(normalized, cfg.ProductURLPattern) == models.URLTypeCategory
		if shouldFollow {
			visited[normalized] = true
		}
		mu.Unlock()

		if shouldFollow {
			if err := c.Visit(normalized); err != nil {
				a.logger().Debug("dom crawl follow failed", "url", normalized, "error", err)
			}
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		a.logger().Warn("dom crawl request error", "url", r.Request.URL.String(), "error", err)
	})

	for _, ep := range cfg.Entrypoints {
		if err := c.Visit(ep); err != nil {
			a.logger().Debug("dom crawl entrypoint failed", "url", ep, "error", err)
		}
	}
	c.Wait()

	mu.Lock()
	defer mu.Unlock()

	discovered := make([]models.DiscoveredURL, 0, len(order))
	for _, u := range order {
		urlType := urlclassify.Classify(u, cfg.ProductURLPattern)
		discovered = append(discovered, models.DiscoveredURL{
			URL:          u,
			SourceType:   "dom_crawl",
			Type:         urlType,
			HairRelevant: urlType == models.URLTypeProduct || urlType == models.URLTypeCategory,
			IsKit:        urlType == models.URLTypeKit,
			Reason:       fmt.Sprintf("url_type=%s", urlType),
		})
	}
	return discovered, nil
}

// normalizeForCrawl strips the fragment from a discovered link, matching
// the dedup key scheme+host+path+query.
func normalizeForCrawl(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

// hostAllowed reports whether rawURL's host equals one of allowedDomains or
// is a subdomain of one.
func hostAllowed(rawURL string, allowedDomains []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	for _, d := range allowedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
