// Package discovery finds candidate product-page URLs on a brand's site
// through independent adapters (sitemap XML, DOM link crawling), merging
// their results by first-seen-wins URL precedence.
package discovery

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/jmylchreest/hairlens/internal/models"
)

// Config is the shared input every adapter receives. It is built once per
// brand run from the brand's blueprint.
type Config struct {
	Entrypoints       []string
	AllowedDomains    []string
	SitemapURLs       []string
	MaxPages          int
	ProductURLPattern *regexp.Regexp
}

// Adapter is the capability interface every discovery strategy implements.
// Discover never returns a partial result alongside a non-nil error; on
// failure it returns (nil, err) and the caller moves on to the next adapter.
type Adapter interface {
	Name() string
	Discover(ctx context.Context, cfg Config) ([]models.DiscoveredURL, error)
}

// Discover runs each adapter in order and merges their output into a single
// list keyed by URL, first-seen wins. One adapter's failure never aborts the
// others; it is logged and skipped.
func Discover(ctx context.Context, adapters []Adapter, cfg Config, logger *slog.Logger) []models.DiscoveredURL {
	seen := make(map[string]struct{})
	var merged []models.DiscoveredURL

	for _, a := range adapters {
		results, err := a.Discover(ctx, cfg)
		if err != nil {
			logger.Warn("discovery adapter failed", "adapter", a.Name(), "error", err)
			continue
		}
		logger.Info("discovery adapter completed", "adapter", a.Name(), "url_count", len(results))

		for _, r := range results {
			if _, ok := seen[r.URL]; ok {
				continue
			}
			seen[r.URL] = struct{}{}
			merged = append(merged, r)
		}
		if cfg.MaxPages > 0 && len(merged) >= cfg.MaxPages {
			break
		}
	}

	if cfg.MaxPages > 0 && len(merged) > cfg.MaxPages {
		merged = merged[:cfg.MaxPages]
	}
	return merged
}
