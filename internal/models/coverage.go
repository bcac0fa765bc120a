package models

import "time"

// BrandCoverage is the per-brand rollup maintained by the coverage engine.
type BrandCoverage struct {
	BrandSlug         string         `json:"brand_slug"`
	DiscoveredTotal   int            `json:"discovered_total"`
	HairTotal         int            `json:"hair_total"`
	KitsTotal         int            `json:"kits_total"`
	NonHairTotal      int            `json:"non_hair_total"`
	ExtractedTotal    int            `json:"extracted_total"`
	VerifiedINCITotal int            `json:"verified_inci_total"`
	VerifiedINCIRate  float64        `json:"verified_inci_rate"`
	CatalogOnlyTotal  int            `json:"catalog_only_total"`
	QuarantinedTotal  int            `json:"quarantined_total"`
	Status            string         `json:"status"` // "completed" | "stopped_the_line"
	LastRun           time.Time      `json:"last_run"`
	Errors            []string       `json:"errors"`
	CoverageReport    map[string]any `json:"coverage_report"`
}
