// Package coverage drives one brand end-to-end: classify discovered URLs,
// fetch and extract each product, gate it, persist it, and roll up counters
// with a stop-the-line safety brake.
package coverage

import (
	"time"

	"github.com/jmylchreest/hairlens/internal/models"
)

// stopTheLineThreshold is the quarantine-rate safety brake.
const stopTheLineThreshold = 0.50

// minExtractedBeforeBrake is the minimum sample size before the brake can
// fire.
const minExtractedBeforeBrake = 5

// Report accumulates one brand run's counters; the persisted coverage
// rollup is derived from it when the run finishes.
type Report struct {
	BrandSlug         string
	DiscoveredTotal   int
	HairTotal         int
	KitsTotal         int
	NonHairTotal      int
	ExtractedTotal    int
	VerifiedINCITotal int
	CatalogOnlyTotal  int
	QuarantinedTotal  int
	Errors            []string
	StartedAt         time.Time
	CompletedAt       time.Time
	StoppedTheLine    bool

	// LLM spend for the run, snapshotted from the client's budget tracker
	// and rolled into the coverage report map.
	LLMCalls        int
	LLMInputTokens  int
	LLMOutputTokens int
}

// NewReport starts a report for brandSlug.
func NewReport(brandSlug string) *Report {
	return &Report{BrandSlug: brandSlug, StartedAt: time.Now().UTC()}
}

// VerifiedINCIRate is verified_inci_total / extracted_total, 0 when nothing
// has been extracted yet.
func (r *Report) VerifiedINCIRate() float64 {
	if r.ExtractedTotal == 0 {
		return 0
	}
	return float64(r.VerifiedINCITotal) / float64(r.ExtractedTotal)
}

// FailureRate is quarantined_total / extracted_total, used by the
// stop-the-line brake.
func (r *Report) FailureRate() float64 {
	if r.ExtractedTotal == 0 {
		return 0
	}
	return float64(r.QuarantinedTotal) / float64(r.ExtractedTotal)
}

// shouldStopTheLine reports whether the brake should fire. Checked after
// every persisted product, so the triggering record is written before the
// run stops.
func (r *Report) shouldStopTheLine() bool {
	return r.ExtractedTotal >= minExtractedBeforeBrake && r.FailureRate() > stopTheLineThreshold
}

// Complete stamps CompletedAt.
func (r *Report) Complete() {
	r.CompletedAt = time.Now().UTC()
}

// ToCoverage converts a finished Report into the persisted BrandCoverage
// rollup.
func (r *Report) ToCoverage() models.BrandCoverage {
	status := "completed"
	if r.StoppedTheLine {
		status = "stopped_the_line"
	}
	return models.BrandCoverage{
		BrandSlug:         r.BrandSlug,
		DiscoveredTotal:   r.DiscoveredTotal,
		HairTotal:         r.HairTotal,
		KitsTotal:         r.KitsTotal,
		NonHairTotal:      r.NonHairTotal,
		ExtractedTotal:    r.ExtractedTotal,
		VerifiedINCITotal: r.VerifiedINCITotal,
		VerifiedINCIRate:  round4(r.VerifiedINCIRate()),
		CatalogOnlyTotal:  r.CatalogOnlyTotal,
		QuarantinedTotal:  r.QuarantinedTotal,
		Status:            status,
		LastRun:           time.Now().UTC(),
		Errors:            append([]string(nil), r.Errors...),
		CoverageReport:    r.toReportMap(),
	}
}

func (r *Report) toReportMap() map[string]any {
	m := map[string]any{
		"brand_slug":          r.BrandSlug,
		"discovered_total":    r.DiscoveredTotal,
		"hair_total":          r.HairTotal,
		"kits_total":          r.KitsTotal,
		"non_hair_total":      r.NonHairTotal,
		"extracted_total":     r.ExtractedTotal,
		"verified_inci_total": r.VerifiedINCITotal,
		"verified_inci_rate":  round4(r.VerifiedINCIRate()),
		"catalog_only_total":  r.CatalogOnlyTotal,
		"quarantined_total":   r.QuarantinedTotal,
		"failure_rate":        round4(r.FailureRate()),
		"errors":              append([]string(nil), r.Errors...),
		"started_at":          r.StartedAt.Format(time.RFC3339),
		"completed_at":        completedAtString(r.CompletedAt),
	}
	if r.LLMCalls > 0 {
		m["llm_usage"] = map[string]any{
			"total_calls":         r.LLMCalls,
			"total_input_tokens":  r.LLMInputTokens,
			"total_output_tokens": r.LLMOutputTokens,
		}
	}
	return m
}

func completedAtString(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}

func round4(f float64) float64 {
	return float64(int(f*10000+0.5)) / 10000
}
