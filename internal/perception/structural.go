package perception

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jdkato/prose/v2"

	"ntrl/internal/logging"
	"ntrl/internal/taxonomy"
	"ntrl/internal/types"
)

// Parser is the process-wide linguistic parse handle. The underlying
// prose model loads on first use and is safe for concurrent reads;
// construct one Parser at startup and inject it everywhere a tagger is
// needed instead of reaching for a hidden global.
type Parser struct{}

// NewParser creates the shared parse handle and warms the model so the
// first scan does not pay the load cost.
func NewParser() (*Parser, error) {
	if _, err := prose.NewDocument("warm up.",
		prose.WithExtraction(false), prose.WithSegmentation(false)); err != nil {
		return nil, err
	}
	return &Parser{}, nil
}

// Sentences segments text without tagging.
func (p *Parser) Sentences(text string) ([]prose.Sentence, error) {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false), prose.WithExtraction(false))
	if err != nil {
		return nil, err
	}
	return doc.Sentences(), nil
}

// Tag tokenizes and POS-tags a single sentence.
func (p *Parser) Tag(sentence string) ([]prose.Token, error) {
	doc, err := prose.NewDocument(sentence,
		prose.WithSegmentation(false), prose.WithExtraction(false))
	if err != nil {
		return nil, err
	}
	return doc.Tokens(), nil
}

// StructuralDetector finds manipulation that lives in sentence structure
// rather than word choice: hidden agency, rhetorical questions, vague
// quantifiers and absolutes. Each heuristic emits independently; the
// scanner's merge step deduplicates across heuristics.
type StructuralDetector struct {
	parser   *Parser
	registry *taxonomy.Registry
}

// NewStructuralDetector creates a structural detector sharing the
// process-wide parser.
func NewStructuralDetector(parser *Parser, registry *taxonomy.Registry) *StructuralDetector {
	return &StructuralDetector{parser: parser, registry: registry}
}

// Source identifies this detector.
func (d *StructuralDetector) Source() types.DetectorSource { return types.SourceStructural }

var (
	beVerbs = map[string]bool{
		"is": true, "are": true, "was": true, "were": true,
		"be": true, "been": true, "being": true,
	}
	speculativeModals = map[string]bool{
		"could": true, "might": true, "would": true, "may": true, "should": true,
	}
	secondPersonPronouns = map[string]bool{
		"you": true, "your": true, "yours": true, "yourself": true,
	}
	rhetoricalOpeners = []string{
		"why", "what if", "could it be", "isn't it", "is it any wonder",
		"who really", "how can", "how could", "are we", "is this",
		"do we really", "when will",
	}
	vagueQuantifiers = map[string]bool{
		"some": true, "many": true, "several": true, "most": true, "few": true,
	}
	attributionVerbs = map[string]bool{
		"say": true, "says": true, "said": true, "claim": true, "claims": true,
		"claimed": true, "believe": true, "believes": true, "argue": true,
		"argues": true, "suggest": true, "suggests": true, "insist": true,
		"insists": true, "warn": true, "warns": true, "fear": true, "fears": true,
	}
	// Longer alternatives first so "as of late" wins over "of late".
	vagueTemporalRe = regexp.MustCompile(`(?i)\b(?:in recent times|in recent memory|as of late|of late|these days|for some time now|has long been|have long been|in the past|lately)\b`)
	absoluteTerms = map[string]bool{
		"everyone": true, "everybody": true, "nobody": true, "always": true,
		"never": true, "all": true, "none": true,
	}
	cognitionSpeechVerbs = map[string]bool{
		"know": true, "knows": true, "knew": true, "think": true, "thinks": true,
		"thought": true, "believe": true, "believes": true, "say": true,
		"says": true, "said": true, "agree": true, "agrees": true,
		"understand": true, "understands": true, "want": true, "wants": true,
		"realize": true, "realizes": true, "feel": true, "feels": true,
	}
)

// Detect runs all five structural heuristics.
func (d *StructuralDetector) Detect(ctx context.Context, text string, segment types.Segment) (*types.ScanResult, error) {
	start := time.Now()
	result := &types.ScanResult{Segment: segment, Source: types.SourceStructural}

	if strings.TrimSpace(text) == "" {
		result.Duration = time.Since(start)
		return result, nil
	}

	// Vague temporal phrases need no parse; plain substring scan.
	d.detectVagueTemporal(text, segment, result)

	sentences, err := d.parser.Sentences(text)
	if err != nil {
		return nil, err
	}

	cursor := 0
	for _, sent := range sentences {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		offset := strings.Index(text[cursor:], sent.Text)
		if offset < 0 {
			continue
		}
		sentStart := cursor + offset
		cursor = sentStart + len(sent.Text)

		tokens, err := d.parser.Tag(sent.Text)
		if err != nil {
			continue
		}
		spans := tokenSpans(sent.Text, tokens)

		d.detectPassive(sent.Text, sentStart, tokens, spans, segment, result)
		d.detectRhetoricalQuestion(sent.Text, sentStart, tokens, segment, result)
		d.detectVagueQuantifier(sent.Text, sentStart, tokens, spans, segment, result)
		d.detectAbsolutes(sentStart, tokens, spans, segment, result)
	}

	result.Duration = time.Since(start)
	logging.PerceptionDebug("structural: %d detections in %s segment (%v)",
		len(result.Detections), segment, result.Duration)
	return result, nil
}

// tokenSpans maps each token to its [start,end) offsets within the
// sentence. Tokens the tokenizer rewrote (rare) get a -1 start and are
// skipped by the heuristics.
func tokenSpans(sentence string, tokens []prose.Token) [][2]int {
	spans := make([][2]int, len(tokens))
	cursor := 0
	for i, tok := range tokens {
		idx := strings.Index(sentence[cursor:], tok.Text)
		if idx < 0 {
			spans[i] = [2]int{-1, -1}
			continue
		}
		s := cursor + idx
		spans[i] = [2]int{s, s + len(tok.Text)}
		cursor = s + len(tok.Text)
	}
	return spans
}

func (d *StructuralDetector) emit(typeID string, text string, start, end int, segment types.Segment, confidence float64, severityOverride float64, result *types.ScanResult) {
	mt := d.registry.Get(typeID)
	if mt == nil || start < 0 || start >= end {
		return
	}
	severity := float64(mt.Severity)
	if severityOverride > 0 {
		severity = severityOverride
	}
	result.Detections = append(result.Detections, types.DetectionInstance{
		DetectionID: uuid.NewString(),
		TypeID:      typeID,
		Segment:     segment,
		SpanStart:   start,
		SpanEnd:     end,
		Text:        text,
		Confidence:  confidence,
		Severity:    severity,
		Source:      types.SourceStructural,
		Action:      mt.Action,
	})
}

// detectPassive flags be-verb + past participle. A "by"-agent within
// three tokens of the participle softens the finding (severity 2 vs 3):
// naming the agent still buries it, but does not hide it.
func (d *StructuralDetector) detectPassive(sentence string, sentStart int, tokens []prose.Token, spans [][2]int, segment types.Segment, result *types.ScanResult) {
	for i, tok := range tokens {
		if !beVerbs[strings.ToLower(tok.Text)] {
			continue
		}
		// Allow up to two adverbs between the auxiliary and participle.
		j := i + 1
		for j < len(tokens) && j <= i+3 && strings.HasPrefix(tokens[j].Tag, "RB") {
			j++
		}
		if j >= len(tokens) || tokens[j].Tag != "VBN" {
			continue
		}

		hasAgent := false
		for k := j + 1; k < len(tokens) && k <= j+3; k++ {
			if strings.EqualFold(tokens[k].Text, "by") {
				hasAgent = true
				break
			}
		}

		if spans[i][0] < 0 || spans[j][1] < 0 {
			continue
		}
		start := sentStart + spans[i][0]
		end := sentStart + spans[j][1]
		matched := sentence[spans[i][0]:spans[j][1]]

		if hasAgent {
			d.emit("C.1.2", matched, start, end, segment, 0.7, 2, result)
		} else {
			d.emit("C.1.1", matched, start, end, segment, 0.7, 3, result)
		}
	}
}

// detectRhetoricalQuestion flags question sentences that open with a
// curated rhetorical pattern or pair a second-person pronoun with a
// speculative modal.
func (d *StructuralDetector) detectRhetoricalQuestion(sentence string, sentStart int, tokens []prose.Token, segment types.Segment, result *types.ScanResult) {
	trimmed := strings.TrimRightFunc(sentence, unicode.IsSpace)
	if !strings.HasSuffix(trimmed, "?") {
		return
	}

	lower := strings.ToLower(strings.TrimSpace(sentence))
	matched := false
	for _, opener := range rhetoricalOpeners {
		if strings.HasPrefix(lower, opener) {
			matched = true
			break
		}
	}

	if !matched {
		hasSecondPerson, hasModal := false, false
		for _, tok := range tokens {
			lt := strings.ToLower(tok.Text)
			if secondPersonPronouns[lt] {
				hasSecondPerson = true
			}
			if speculativeModals[lt] {
				hasModal = true
			}
		}
		matched = hasSecondPerson && hasModal
	}

	if matched {
		d.emit("C.2.1", sentence, sentStart, sentStart+len(sentence), segment, 0.75, 0, result)
	}
}

// detectVagueQuantifier flags "some/many ... say" only when an
// attribution verb follows within three tokens; a bare quantifier is
// ordinary prose.
func (d *StructuralDetector) detectVagueQuantifier(sentence string, sentStart int, tokens []prose.Token, spans [][2]int, segment types.Segment, result *types.ScanResult) {
	for i, tok := range tokens {
		if !vagueQuantifiers[strings.ToLower(tok.Text)] {
			continue
		}
		for j := i + 1; j < len(tokens) && j <= i+3; j++ {
			if !attributionVerbs[strings.ToLower(tokens[j].Text)] {
				continue
			}
			if spans[i][0] < 0 || spans[j][1] < 0 {
				break
			}
			matched := sentence[spans[i][0]:spans[j][1]]
			start := sentStart + spans[i][0]
			end := sentStart + spans[j][1]
			d.emit("D.2.1", matched, start, end, segment, 0.8, 0, result)
			break
		}
	}
}

// detectAbsolutes flags absolute terms only when the sentence also
// contains a cognition/speech verb; "everyone knows" is manipulation,
// "all seats were filled" is not.
func (d *StructuralDetector) detectAbsolutes(sentStart int, tokens []prose.Token, spans [][2]int, segment types.Segment, result *types.ScanResult) {
	hasCognition := false
	for _, tok := range tokens {
		if cognitionSpeechVerbs[strings.ToLower(tok.Text)] {
			hasCognition = true
			break
		}
	}
	if !hasCognition {
		return
	}

	for i, tok := range tokens {
		if !absoluteTerms[strings.ToLower(tok.Text)] || spans[i][0] < 0 {
			continue
		}
		start := sentStart + spans[i][0]
		end := sentStart + spans[i][1]
		d.emit("B.3.2", tok.Text, start, end, segment, 0.65, 0, result)
	}
}

// detectVagueTemporal scans for the curated temporal-distancing
// phrases. The match runs case-insensitively over the original text;
// folding a copy would shift byte offsets for characters whose lowercase
// form has a different length.
func (d *StructuralDetector) detectVagueTemporal(text string, segment types.Segment, result *types.ScanResult) {
	for _, span := range vagueTemporalRe.FindAllStringIndex(text, -1) {
		d.emit("F.3.1", text[span[0]:span[1]], span[0], span[1], segment, 0.7, 0, result)
	}
}
