// Package evidence accumulates the append-only provenance log attached to a
// ProductExtraction: one row per extracted field value, proving which page,
// locator, and method produced it.
package evidence

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/hairlens/internal/models"
)

// Tracker accumulates Evidence entries in extraction order for a single
// product. It is not safe for concurrent use; each product extraction gets
// its own Tracker.
type Tracker struct {
	entries []models.Evidence
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{}
}

// Record appends one Evidence entry. rawSourceText is truncated to
// models.MaxRawSourceTextBytes before storage.
func (t *Tracker) Record(fieldName, sourceURL, evidenceLocator, rawSourceText string, method models.ExtractionMethod) {
	t.entries = append(t.entries, models.Evidence{
		ID:               ulid.Make().String(),
		FieldName:        fieldName,
		SourceURL:        sourceURL,
		EvidenceLocator:  evidenceLocator,
		RawSourceText:    truncate(rawSourceText, models.MaxRawSourceTextBytes),
		ExtractionMethod: method,
		ExtractedAt:      time.Now().UTC(),
	})
}

// Entries returns the accumulated evidence in the order it was recorded.
// The returned slice is a copy; further Record calls do not affect it.
func (t *Tracker) Entries() []models.Evidence {
	out := make([]models.Evidence, len(t.entries))
	copy(out, t.entries)
	return out
}

// HasField reports whether at least one Evidence entry exists for fieldName,
// the invariant every populated ProductExtraction field must satisfy.
func (t *Tracker) HasField(fieldName string) bool {
	for _, e := range t.entries {
		if e.FieldName == fieldName {
			return true
		}
	}
	return false
}

func truncate(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	b := []byte(s)[:maxBytes]
	// avoid splitting a multi-byte rune at the boundary
	for len(b) > 0 && !isValidUTF8Boundary(b) {
		b = b[:len(b)-1]
	}
	return string(b)
}

func isValidUTF8Boundary(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	last := b[len(b)-1]
	// continuation bytes look like 10xxxxxx; a boundary is safe when the
	// last byte is not a continuation byte of a rune we've cut into.
	return last&0xC0 != 0x80
}
