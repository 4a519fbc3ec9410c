package articulation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ntrl/internal/types"
)

// scanFor builds a merged scan with detections located by substring
// search so the tests never hand-count byte offsets.
func scanFor(t *testing.T, body string, segment types.Segment, spans ...[2]string) *types.MergedScanResult {
	t.Helper()
	scan := &types.MergedScanResult{Segment: segment, Text: body}
	for i, s := range spans {
		typeID, text := s[0], s[1]
		start := strings.Index(body, text)
		require.GreaterOrEqual(t, start, 0, "span %q not in body", text)
		scan.Detections = append(scan.Detections, types.DetectionInstance{
			DetectionID: string(rune('a'+i)) + "-det",
			TypeID:      typeID,
			Segment:     segment,
			SpanStart:   start,
			SpanEnd:     start + len(text),
			Text:        text,
			Confidence:  0.95,
			Severity:    4,
			Source:      types.SourceLexical,
			Action:      types.ActionReplace,
		})
	}
	return scan
}

func TestRuleBasedNeutralizesHeadline(t *testing.T) {
	body := "BREAKING: Senator SLAMS critics in devastating attack."
	scan := scanFor(t, body, types.SegmentTitle,
		[2]string{"A.2.1", "BREAKING"},
		[2]string{"B.2.2", "SLAMS"},
	)

	out, err := NewRuleBasedGenerator().Generate(context.Background(), body, scan)
	require.NoError(t, err)

	assert.NotContains(t, out.Text, "BREAKING")
	assert.NotContains(t, out.Text, "SLAMS")
	assert.Contains(t, out.Text, "criticizes")
	assert.Contains(t, out.Text, "Senator")
	assert.NotEmpty(t, out.Changes)
	assert.Equal(t, "rule_based", out.Model)
}

func TestRuleBasedDescendingOffsets(t *testing.T) {
	// Two substitutions of different replacement lengths; applying in
	// ascending order would corrupt the second span's offsets.
	body := "The shocking report eviscerated the catastrophic plan."
	scan := scanFor(t, body, types.SegmentBody,
		[2]string{"A.1.2", "shocking"},
		[2]string{"B.2.2", "eviscerated"},
		[2]string{"A.2.3", "catastrophic"},
	)

	out, err := NewRuleBasedGenerator().Generate(context.Background(), body, scan)
	require.NoError(t, err)

	assert.Equal(t, "The unexpected report rebutted the severe plan.", out.Text)
}

func TestRuleBasedSkipsPreserveAndAnnotate(t *testing.T) {
	body := `He called the plan "devastating" in his speech.`
	scan := scanFor(t, body, types.SegmentBody, [2]string{"A.2.3", "devastating"})
	scan.Detections[0].Action = types.ActionAnnotate
	scan.Detections[0].Exemptions = []string{"inside_quote"}

	out, err := NewRuleBasedGenerator().Generate(context.Background(), body, scan)
	require.NoError(t, err)

	// The exempt span itself must not be edited as a span change; the
	// global sweep may still touch the bare word, which the validator
	// then judges.
	for _, c := range out.Changes {
		assert.NotEqual(t, "a-det", c.DetectionID)
	}
}

func TestRuleBasedDeterministic(t *testing.T) {
	body := "BREAKING: a totally explosive report goes viral."
	gen := NewRuleBasedGenerator()

	first, err := gen.Generate(context.Background(), body, nil)
	require.NoError(t, err)
	second, err := gen.Generate(context.Background(), body, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.NotContains(t, first.Text, "BREAKING")
	assert.NotContains(t, first.Text, "totally")
}

func TestRuleBasedCleanTextUnchanged(t *testing.T) {
	body := "The committee approved the budget by a 7-2 vote on Tuesday."

	out, err := NewRuleBasedGenerator().Generate(context.Background(), body, nil)
	require.NoError(t, err)

	assert.Equal(t, body, out.Text)
	assert.Empty(t, out.Changes)
}
