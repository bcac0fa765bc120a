package models

import "time"

// Evidence proves that a single extracted field value came from a specific
// place on a specific page. Append-only: never mutated or deleted except by
// cascade when its owning ProductExtraction is deleted.
type Evidence struct {
	ID               string           `json:"id"`
	FieldName        string           `json:"field_name"`
	SourceURL        string           `json:"source_url"`
	EvidenceLocator  string           `json:"evidence_locator"`
	RawSourceText    string           `json:"raw_source_text"` // truncated to 2KB by the tracker
	ExtractionMethod ExtractionMethod `json:"extraction_method"`
	ExtractedAt      time.Time        `json:"extracted_at"`
}

// MaxRawSourceTextBytes is the truncation limit for Evidence.RawSourceText.
const MaxRawSourceTextBytes = 2000
