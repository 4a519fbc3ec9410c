// Package perception implements the NTRL detection ensemble: a lexical
// regex matcher, a tagger-backed structural matcher, and an LLM-backed
// semantic matcher, plus the scanner that fans them out and merges their
// spans. Detectors fail open: a broken detector degrades to "found
// nothing" and never fails a scan.
package perception

import (
	"context"

	"ntrl/internal/types"
)

// Detector is the closed interface every detector implements. Concrete
// implementations are selected at construction time; no hot path branches
// on detector names.
type Detector interface {
	// Detect scans one segment of text and returns every flagged span.
	// Implementations must guarantee the span invariant:
	// 0 <= SpanStart < SpanEnd <= len(text) and text[SpanStart:SpanEnd] == Text.
	Detect(ctx context.Context, text string, segment types.Segment) (*types.ScanResult, error)

	// Source identifies the detector in results and logs.
	Source() types.DetectorSource
}
