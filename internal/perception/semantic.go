package perception

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ntrl/internal/logging"
	"ntrl/internal/taxonomy"
	"ntrl/internal/types"
)

const semanticSystemPrompt = `You are a media-manipulation analyst. You receive one segment of a news article and a fixed list of manipulation types. Identify every passage exhibiting one of the listed types. Respond with ONLY a JSON array, no prose. Each element:
{"type_id": "...", "span_start": 0, "span_end": 0, "text": "...", "confidence": 0.0, "rationale": "..."}
span_start/span_end are byte offsets into the supplied text, half-open. "text" must be the exact substring. Only use type IDs from the provided list. Return [] if nothing qualifies.`

// SemanticDetector delegates context-dependent detection (motive
// certainty, tribal priming, false balance) to an LLM. It is best-effort
// by design: any transport or parse failure yields an empty result, not
// an error past this boundary.
type SemanticDetector struct {
	client     LLMClient
	registry   *taxonomy.Registry
	whitelist  map[string]bool
	charBudget int
}

// NewSemanticDetector creates an LLM-backed detector restricted to the
// context-dependent whitelist.
func NewSemanticDetector(client LLMClient, registry *taxonomy.Registry, charBudget int) *SemanticDetector {
	if charBudget <= 0 {
		charBudget = 6000
	}
	wl := make(map[string]bool, len(taxonomy.SemanticWhitelist))
	for _, id := range taxonomy.SemanticWhitelist {
		wl[id] = true
	}
	return &SemanticDetector{
		client:     client,
		registry:   registry,
		whitelist:  wl,
		charBudget: charBudget,
	}
}

// Source identifies this detector.
func (d *SemanticDetector) Source() types.DetectorSource { return types.SourceSemantic }

// semanticHit mirrors the documented response schema.
type semanticHit struct {
	TypeID     string  `json:"type_id"`
	SpanStart  int     `json:"span_start"`
	SpanEnd    int     `json:"span_end"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// Detect asks the model for whitelist detections over a truncated view of
// the text. Model-supplied offsets are trusted only after checking them
// against the actual text; drifted offsets are re-anchored by searching
// for the quoted substring.
func (d *SemanticDetector) Detect(ctx context.Context, text string, segment types.Segment) (*types.ScanResult, error) {
	start := time.Now()
	result := &types.ScanResult{Segment: segment, Source: types.SourceSemantic}

	if strings.TrimSpace(text) == "" {
		result.Duration = time.Since(start)
		return result, nil
	}

	truncated := text
	if len(truncated) > d.charBudget {
		truncated = truncated[:d.charBudget]
	}

	raw, err := d.client.CompleteWithSystem(ctx, semanticSystemPrompt, d.buildPrompt(truncated, segment))
	if err != nil {
		logging.PerceptionWarn("semantic detector call failed, returning empty: %v", err)
		result.Failed = true
		result.Duration = time.Since(start)
		return result, nil
	}

	var hits []semanticHit
	if err := ExtractJSON(raw, &hits); err != nil {
		logging.PerceptionWarn("semantic detector parse failed, returning empty: %v", err)
		result.Failed = true
		result.Duration = time.Since(start)
		return result, nil
	}

	for _, hit := range hits {
		if !d.whitelist[hit.TypeID] {
			logging.PerceptionDebug("semantic: dropping off-whitelist type %s", hit.TypeID)
			continue
		}
		mt := d.registry.Get(hit.TypeID)
		if mt == nil {
			continue
		}

		spanStart, spanEnd, ok := anchorSpan(truncated, hit.SpanStart, hit.SpanEnd, hit.Text)
		if !ok {
			logging.PerceptionDebug("semantic: dropping unanchorable span for %s", hit.TypeID)
			continue
		}

		confidence := hit.Confidence
		if confidence <= 0 || confidence > 1 {
			confidence = 0.6
		}

		result.Detections = append(result.Detections, types.DetectionInstance{
			DetectionID: uuid.NewString(),
			TypeID:      hit.TypeID,
			Segment:     segment,
			SpanStart:   spanStart,
			SpanEnd:     spanEnd,
			Text:        truncated[spanStart:spanEnd],
			Confidence:  confidence,
			Severity:    float64(mt.Severity),
			Source:      types.SourceSemantic,
			Action:      mt.Action,
			Rationale:   hit.Rationale,
		})
	}

	result.Duration = time.Since(start)
	logging.PerceptionDebug("semantic: %d detections in %s segment (%v)",
		len(result.Detections), segment, result.Duration)
	return result, nil
}

func (d *SemanticDetector) buildPrompt(text string, segment types.Segment) string {
	var sb strings.Builder
	sb.WriteString("Manipulation types in scope:\n")
	for _, id := range taxonomy.SemanticWhitelist {
		sb.WriteString("- ")
		sb.WriteString(d.registry.Describe(id))
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nSegment: %s\nText:\n%s\n", segment, text)
	return sb.String()
}

// anchorSpan validates model-supplied offsets, falling back to substring
// search when they drifted. Returns ok=false if the claimed text cannot
// be located at all.
func anchorSpan(text string, start, end int, claimed string) (int, int, bool) {
	if start >= 0 && start < end && end <= len(text) {
		if claimed == "" || text[start:end] == claimed {
			return start, end, true
		}
	}
	if claimed == "" {
		return 0, 0, false
	}
	idx := strings.Index(text, claimed)
	if idx < 0 {
		return 0, 0, false
	}
	return idx, idx + len(claimed), true
}
