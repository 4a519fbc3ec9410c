package perception

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"

	"ntrl/internal/logging"
	"ntrl/internal/taxonomy"
	"ntrl/internal/types"
)

// quotedSpanRe locates double and curly quote pairs in one pass.
// Detections inside quotes are attributed speech, not the outlet's own
// framing, so they are downgraded rather than flagged for rewrite.
var quotedSpanRe = regexp.MustCompile(`"[^"]{2,400}"|\x{201C}[^\x{201D}]{2,400}\x{201D}`)

// singleQuotedSpanRe matches single straight quotes only in plausible
// quoting positions: opening quote after a boundary, non-space content
// edges, closing quote before a boundary. Bare apostrophes in
// possessives and contractions sit between letters and never qualify.
var singleQuotedSpanRe = regexp.MustCompile(`(?:^|[\s(\[{])('[^'\s][^']{0,397}[^'\s]')(?:[\s)\]}.,;:!?]|$)`)

// LexicalDetector matches the taxonomy's compiled regex patterns.
type LexicalDetector struct {
	registry *taxonomy.Registry
}

// NewLexicalDetector creates a lexical detector over a shared registry.
func NewLexicalDetector(registry *taxonomy.Registry) *LexicalDetector {
	return &LexicalDetector{registry: registry}
}

// Source identifies this detector.
func (d *LexicalDetector) Source() types.DetectorSource { return types.SourceLexical }

// Detect runs every compiled taxonomy pattern over the text.
// Matches inside quoted spans keep their span but drop to confidence
// 0.15 x severity with the action forced to annotate.
func (d *LexicalDetector) Detect(ctx context.Context, text string, segment types.Segment) (*types.ScanResult, error) {
	start := time.Now()
	result := &types.ScanResult{Segment: segment, Source: types.SourceLexical}

	if text == "" {
		result.Duration = time.Since(start)
		return result, nil
	}

	quoted := quotedSpanRe.FindAllStringIndex(text, -1)
	for _, m := range singleQuotedSpanRe.FindAllStringSubmatchIndex(text, -1) {
		quoted = append(quoted, []int{m[2], m[3]})
	}

	// Overlapping pattern alternatives can produce identical spans for
	// the same type; emit each (start,end,type) triple once.
	seen := make(map[[2]int]map[string]bool)

	for _, mt := range d.registry.LexicalTypes() {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for _, re := range d.registry.CompiledPatterns(mt.TypeID) {
			for _, loc := range re.FindAllStringIndex(text, -1) {
				key := [2]int{loc[0], loc[1]}
				if seen[key] == nil {
					seen[key] = make(map[string]bool)
				}
				if seen[key][mt.TypeID] {
					continue
				}
				seen[key][mt.TypeID] = true

				det := types.DetectionInstance{
					DetectionID: uuid.NewString(),
					TypeID:      mt.TypeID,
					Segment:     segment,
					SpanStart:   loc[0],
					SpanEnd:     loc[1],
					Text:        text[loc[0]:loc[1]],
					Confidence:  0.95,
					Severity:    float64(mt.Severity),
					Source:      types.SourceLexical,
					Action:      mt.Action,
				}

				if insideAny(loc[0], loc[1], quoted) {
					det.Confidence = 0.15 * float64(mt.Severity)
					det.Action = types.ActionAnnotate
					det.Exemptions = append(det.Exemptions, "inside_quote")
				}

				result.Detections = append(result.Detections, det)
			}
		}
	}

	result.Duration = time.Since(start)
	logging.PerceptionDebug("lexical: %d detections in %s segment (%v)",
		len(result.Detections), segment, result.Duration)
	return result, nil
}

// insideAny reports whether [start,end) falls entirely inside any of the
// given half-open ranges.
func insideAny(start, end int, ranges [][]int) bool {
	for _, r := range ranges {
		if start >= r[0] && end <= r[1] {
			return true
		}
	}
	return false
}
