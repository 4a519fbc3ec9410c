package articulation

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"ntrl/internal/types"
)

// =============================================================================
// RULE-BASED GENERATOR - Deterministic Fallback
// =============================================================================

// substitution maps a manipulative phrase pattern to its neutral
// replacement. Patterns are case-insensitive; a replacement of "" deletes
// the phrase. An empty-capture aware cleanup pass collapses the leftover
// whitespace afterwards.
type substitution struct {
	pattern     *regexp.Regexp
	replacement string
}

// substitutionTable covers the highest-frequency lexical manipulations.
// It deliberately edits only surface phrases; anything needing sentence
// restructuring stays with the LLM path.
var substitutionTable = []substitution{
	// Urgency markers
	{regexp.MustCompile(`(?i)\bbreaking[:\s]+`), ""},
	{regexp.MustCompile(`(?i)\bjust in[:\s]+`), ""},
	{regexp.MustCompile(`(?i)\burgent[:\s]+`), ""},
	{regexp.MustCompile(`(?i)\bdeveloping story[:\s]+`), ""},
	{regexp.MustCompile(`(?i)\bhappening now[:\s]+`), ""},

	// Rage verbs
	{regexp.MustCompile(`(?i)\bslams\b`), "criticizes"},
	{regexp.MustCompile(`(?i)\bslammed\b`), "criticized"},
	{regexp.MustCompile(`(?i)\bslam\b`), "criticize"},
	{regexp.MustCompile(`(?i)\brips into\b`), "criticizes"},
	{regexp.MustCompile(`(?i)\bripped into\b`), "criticized"},
	{regexp.MustCompile(`(?i)\blashes out at\b`), "criticizes"},
	{regexp.MustCompile(`(?i)\blashed out at\b`), "criticized"},
	{regexp.MustCompile(`(?i)\beviscerates\b`), "rebuts"},
	{regexp.MustCompile(`(?i)\beviscerated\b`), "rebutted"},
	{regexp.MustCompile(`(?i)\bdestroys\b`), "disputes"},
	{regexp.MustCompile(`(?i)\bdestroyed\b(\s+(?:the\s+)?(?:argument|claim|critic|position|narrative)s?\b)`), "disputed$1"},
	{regexp.MustCompile(`(?i)\btorches\b`), "criticizes"},
	{regexp.MustCompile(`(?i)\btorched\b(\s+(?:the\s+)?(?:argument|claim|critic|position|narrative)s?\b)`), "criticized$1"},

	// Catastrophe framing
	{regexp.MustCompile(`(?i)\bdevastating\b`), "significant"},
	{regexp.MustCompile(`(?i)\bcatastrophic\b`), "severe"},
	{regexp.MustCompile(`(?i)\bbombshell\b`), "notable"},
	{regexp.MustCompile(`(?i)\bexplosive\b(\s+(?:report|claim|allegation|testimony|revelation)s?\b)`), "notable$1"},
	{regexp.MustCompile(`(?i)\bshocking\b`), "unexpected"},
	{regexp.MustCompile(`(?i)\bstunning\b`), "notable"},
	{regexp.MustCompile(`(?i)\bjaw-dropping\b`), "notable"},
	{regexp.MustCompile(`(?i)\bchilling\b`), "concerning"},

	// Absolutes and amplifiers
	{regexp.MustCompile(`(?i)\btotally\s+`), ""},
	{regexp.MustCompile(`(?i)\bcompletely\s+(destroy|wrong|false|debunk)`), "$1"},
	{regexp.MustCompile(`(?i)\babsolutely\s+`), ""},
	{regexp.MustCompile(`(?i)\bliterally\s+`), ""},

	// Clickbait scaffolding
	{regexp.MustCompile(`(?i)\byou won't believe\b`), "reports describe"},
	{regexp.MustCompile(`(?i)\bwhat happens next will\b[^.!?]*`), ""},
	{regexp.MustCompile(`(?i)\bgoes viral\b`), "circulates widely"},
	{regexp.MustCompile(`(?i)\bbreaks the internet\b`), "draws wide attention"},
}

var collapseSpaceRe = regexp.MustCompile(`[ \t]{2,}`)

// RuleBasedGenerator applies the substitution table deterministically.
// It needs no network, so it serves both as the test double for the LLM
// generators and as the terminal fallback when validation keeps failing.
type RuleBasedGenerator struct{}

func NewRuleBasedGenerator() *RuleBasedGenerator { return &RuleBasedGenerator{} }

func (g *RuleBasedGenerator) Name() string { return "rule_based" }

// Generate rewrites the flagged spans in descending offset order so an
// earlier edit never shifts a later span, then runs the global table over
// the remainder for phrases the detectors missed.
func (g *RuleBasedGenerator) Generate(ctx context.Context, body string, scan *types.MergedScanResult) (*GenerateOutput, error) {
	start := time.Now()
	out := body
	var changes []RawChange

	if scan != nil {
		// Spans arrive sorted ascending; walk them backwards.
		dets := scan.Detections
		for i := len(dets) - 1; i >= 0; i-- {
			d := dets[i]
			if d.Action == types.ActionPreserve || d.Action == types.ActionAnnotate {
				continue
			}
			if !d.ValidSpan(body) {
				continue
			}
			replaced := applyTable(d.Text)
			if replaced == d.Text {
				continue
			}
			out = out[:d.SpanStart] + replaced + out[d.SpanEnd:]
			changes = append(changes, RawChange{
				DetectionID: d.DetectionID,
				Before:      d.Text,
				After:       replaced,
				Rationale:   "rule-based substitution",
			})
		}
	}

	// Sweep for table phrases outside any flagged span.
	swept := applyTable(out)
	if swept != out {
		changes = append(changes, RawChange{
			Before:    "(unflagged phrases)",
			After:     "(table substitutions)",
			Rationale: "rule-based sweep",
		})
		out = swept
	}

	out = cleanup(out)

	// Restore ascending order to match the manifest.
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].DetectionID < changes[j].DetectionID
	})

	return &GenerateOutput{
		Text:     out,
		Model:    "rule_based",
		Duration: time.Since(start),
		Changes:  changes,
	}, nil
}

func applyTable(text string) string {
	for _, sub := range substitutionTable {
		text = sub.pattern.ReplaceAllString(text, sub.replacement)
	}
	return text
}

// cleanup collapses whitespace artifacts left by deletions and trims
// stray space before punctuation.
func cleanup(text string) string {
	text = collapseSpaceRe.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, " .", ".")
	text = strings.ReplaceAll(text, " ,", ",")
	return strings.TrimLeft(text, " ")
}
