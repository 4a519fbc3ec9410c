// Package articulation turns a merged scan into neutralized text. Three
// LLM-backed generators produce the full rewrite, the brief synthesis,
// and the feed title/summary; a deterministic rule-based generator backs
// them up when the model path is unavailable or keeps failing validation.
package articulation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ntrl/internal/types"
)

// =============================================================================
// GENERATOR CONTRACT
// =============================================================================

// RawChange is the change entry a generator reports back, keyed by the
// detection that motivated the edit. The fixer joins these to
// DetectionInstances to build ChangeRecords.
type RawChange struct {
	DetectionID string `json:"detection_id"`
	Before      string `json:"before"`
	After       string `json:"after"`
	Rationale   string `json:"rationale,omitempty"`
}

// GenerateOutput is the common result shape all generators return.
type GenerateOutput struct {
	Text     string
	Title    string // feed generator only
	Model    string
	Duration time.Duration
	Changes  []RawChange
}

// Generator produces one neutralized rendition of an article.
type Generator interface {
	Generate(ctx context.Context, body string, scan *types.MergedScanResult) (*GenerateOutput, error)
	Name() string
}

// =============================================================================
// PROMPT ASSEMBLY
// =============================================================================

// buildSpanManifest renders the flagged spans as a numbered manifest the
// model can align its edits against. Only what is listed here may change.
func buildSpanManifest(scan *types.MergedScanResult) string {
	if scan == nil || len(scan.Detections) == 0 {
		return "(no spans flagged)"
	}

	var sb strings.Builder
	for i, d := range scan.Detections {
		sb.WriteString(fmt.Sprintf("%d. [%s] detection_id=%s bytes %d-%d action=%s severity=%.0f\n   text: %q\n",
			i+1, d.TypeID, d.DetectionID, d.SpanStart, d.SpanEnd, d.Action, d.Severity, d.Text))
		if d.Rationale != "" {
			sb.WriteString(fmt.Sprintf("   rationale: %s\n", d.Rationale))
		}
	}
	return sb.String()
}

// hardConstraints is embedded in every generator system prompt. These map
// one-to-one onto the red-line validator: a rewrite that ignores them
// will be rejected.
const hardConstraints = `HARD CONSTRAINTS (violations cause automatic rejection):
1. Preserve every name, number, date, and direct quote VERBATIM.
2. Never upgrade a hedge to a certainty (alleged stays alleged).
3. Never invent facts, sources, or attributions.
4. Never drop or weaken negations, safety warnings, or causal claims.
5. Edit only the flagged spans; leave everything else untouched.`

const fullRewriteSystemPrompt = `You neutralize manipulative language in news articles. You receive the
article text and a manifest of flagged spans. Rewrite ONLY the flagged
spans so the manipulation is removed while every fact survives intact.
Keep the rewrite between 80% and 110% of the original length.

` + hardConstraints + `

Respond with a single JSON object, no prose, no markdown fences:
{
  "neutralized_text": "the full rewritten article",
  "changes": [
    {"detection_id": "...", "before": "exact original phrase", "after": "replacement", "rationale": "one line"}
  ]
}`

const briefSynthesisSystemPrompt = `You write neutral news briefs. You receive an article and a manifest of
manipulative spans detected in it. Produce a 2-4 sentence factual summary
that carries none of the flagged manipulation.

` + hardConstraints + `

Respond with a single JSON object, no prose, no markdown fences:
{"neutralized_text": "the brief"}`

const feedSystemPrompt = `You write neutral feed entries for news aggregators. You receive an
article and a manifest of manipulative spans. Produce a plain descriptive
headline (no urgency markers, no loaded verbs, sentence case) and a
one-sentence summary. When the article starts with a TITLE line,
de-escalate that headline rather than inventing a new one.

` + hardConstraints + `

Respond with a single JSON object, no prose, no markdown fences:
{"feed_title": "...", "feed_summary": "..."}`

// articleWithTitle prepends the original headline so the feed model can
// de-escalate it rather than invent a new one.
func articleWithTitle(title, body string) string {
	if strings.TrimSpace(title) == "" {
		return body
	}
	return "TITLE: " + title + "\n\n" + body
}

// buildUserPrompt is shared by the LLM generators.
func buildUserPrompt(body string, scan *types.MergedScanResult) string {
	var sb strings.Builder
	sb.WriteString("FLAGGED SPANS:\n")
	sb.WriteString(buildSpanManifest(scan))
	sb.WriteString("\nARTICLE:\n")
	sb.WriteString(body)
	return sb.String()
}
