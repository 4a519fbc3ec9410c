// Package types provides shared type definitions used across NTRL packages.
// This package exists to break import cycles between perception, articulation,
// and pipeline. Types in this package are foundational value objects with no
// complex dependencies; everything here is created fresh per request except
// the taxonomy registry, which is shared read-only.
package types

import (
	"fmt"
	"time"
)

// =============================================================================
// SEGMENTS
// =============================================================================

// Segment identifies the structural part of an article a span belongs to.
type Segment string

const (
	SegmentTitle     Segment = "title"
	SegmentDeck      Segment = "deck"
	SegmentLede      Segment = "lede"
	SegmentBody      Segment = "body"
	SegmentCaption   Segment = "caption"
	SegmentPullquote Segment = "pullquote"
	SegmentEmbed     Segment = "embed"
	SegmentTable     Segment = "table"
)

// segmentMultipliers weights detections by how prominent the segment is.
// A manipulative title does far more damage than the same phrase in a table.
var segmentMultipliers = map[Segment]float64{
	SegmentTitle:     1.5,
	SegmentDeck:      1.3,
	SegmentLede:      1.2,
	SegmentCaption:   1.2,
	SegmentBody:      1.0,
	SegmentEmbed:     1.0,
	SegmentTable:     1.0,
	SegmentPullquote: 0.6,
}

// Multiplier returns the severity weighting for this segment.
// Unknown segments weigh 1.0.
func (s Segment) Multiplier() float64 {
	if m, ok := segmentMultipliers[s]; ok {
		return m
	}
	return 1.0
}

// =============================================================================
// ACTIONS AND DETECTOR SOURCES
// =============================================================================

// Action is the default remediation for a manipulation type.
type Action string

const (
	ActionRemove   Action = "remove"
	ActionReplace  Action = "replace"
	ActionRewrite  Action = "rewrite"
	ActionAnnotate Action = "annotate"
	ActionPreserve Action = "preserve"
)

// DetectorSource identifies which detector produced an instance.
type DetectorSource string

const (
	SourceLexical    DetectorSource = "lexical"
	SourceStructural DetectorSource = "structural"
	SourceSemantic   DetectorSource = "semantic"
)

// =============================================================================
// DETECTION INSTANCES
// =============================================================================

// DetectionInstance is a single flagged span in one segment of an article.
// Span offsets are half-open byte offsets into the scanned text:
// 0 <= SpanStart < SpanEnd <= len(text), and text[SpanStart:SpanEnd] == Text.
type DetectionInstance struct {
	DetectionID      string         `json:"detection_id"`
	TypeID           string         `json:"type_id"`
	SecondaryTypeIDs []string       `json:"secondary_type_ids,omitempty"`
	Segment          Segment        `json:"segment"`
	SpanStart        int            `json:"span_start"`
	SpanEnd          int            `json:"span_end"`
	Text             string         `json:"text"`
	Confidence       float64        `json:"confidence"`
	Severity         float64        `json:"severity"`
	SeverityWeighted float64        `json:"severity_weighted"`
	Source           DetectorSource `json:"source"`
	Action           Action         `json:"recommended_action"`
	Exemptions       []string       `json:"exemptions,omitempty"`
	Rationale        string         `json:"rationale,omitempty"`
}

// ValidSpan reports whether the span invariant holds against the scanned text.
func (d *DetectionInstance) ValidSpan(text string) bool {
	if d.SpanStart < 0 || d.SpanStart >= d.SpanEnd || d.SpanEnd > len(text) {
		return false
	}
	return text[d.SpanStart:d.SpanEnd] == d.Text
}

// HasExemption reports whether the named exemption was recorded.
func (d *DetectionInstance) HasExemption(name string) bool {
	for _, e := range d.Exemptions {
		if e == name {
			return true
		}
	}
	return false
}

// =============================================================================
// SCAN RESULTS
// =============================================================================

// ScanResult is the raw output of a single detector over one segment.
type ScanResult struct {
	Segment    Segment             `json:"segment"`
	Source     DetectorSource      `json:"source"`
	Detections []DetectionInstance `json:"detections"`
	Duration   time.Duration       `json:"duration"`
	Failed     bool                `json:"failed,omitempty"`
}

// MergedScanResult is the deduplicated, severity-weighted union of all
// detector outputs for one segment, ordered by (start, end).
type MergedScanResult struct {
	Segment          Segment                  `json:"segment"`
	Text             string                   `json:"-"`
	Detections       []DetectionInstance      `json:"detections"`
	DetectorTimings  map[DetectorSource]time.Duration `json:"detector_timings,omitempty"`
	CountsByCategory map[string]int           `json:"counts_by_category"`
	CountsBySeverity map[int]int              `json:"counts_by_severity"`
	Density          float64                  `json:"density"`
	Duration         time.Duration            `json:"duration"`
}

// =============================================================================
// FIX RESULTS
// =============================================================================

// ChangeRecord links a detection to the concrete edit applied to the text.
type ChangeRecord struct {
	DetectionID string `json:"detection_id"`
	TypeID      string `json:"type_id,omitempty"`
	Before      string `json:"before"`
	After       string `json:"after"`
	Action      Action `json:"action"`
	Rationale   string `json:"rationale,omitempty"`
}

// CheckStatus is the outcome of one red-line invariant check.
type CheckStatus string

const (
	CheckPassed  CheckStatus = "passed"
	CheckFailed  CheckStatus = "failed"
	CheckWarning CheckStatus = "warning"
	CheckSkipped CheckStatus = "skipped"
)

// CheckResult is the outcome of a single validator check.
type CheckResult struct {
	Name    CheckName   `json:"name"`
	Status  CheckStatus `json:"status"`
	Detail  string      `json:"detail,omitempty"`
	Missing []string    `json:"missing,omitempty"`
}

// CheckName identifies one of the ten red-line invariants.
type CheckName string

const (
	CheckEntityInvariance      CheckName = "entity_invariance"
	CheckNumberInvariance      CheckName = "number_invariance"
	CheckDateInvariance        CheckName = "date_invariance"
	CheckAttributionInvariance CheckName = "attribution_invariance"
	CheckModalityInvariance    CheckName = "modality_invariance"
	CheckCausalityInvariance   CheckName = "causality_invariance"
	CheckRiskInvariance        CheckName = "risk_invariance"
	CheckQuoteIntegrity        CheckName = "quote_integrity"
	CheckScopeInvariance       CheckName = "scope_invariance"
	CheckNegationIntegrity     CheckName = "negation_integrity"
)

// RiskLevel grades how badly a rewrite violated the red lines.
type RiskLevel string

const (
	RiskNone     RiskLevel = "none"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ValidationResult aggregates all red-line checks for one rewrite.
type ValidationResult struct {
	Passed   bool                      `json:"passed"`
	Strict   bool                      `json:"strict"`
	Checks   map[CheckName]CheckResult `json:"checks"`
	Failures []CheckName               `json:"failures,omitempty"`
	Warnings []CheckName               `json:"warnings,omitempty"`
	Risk     RiskLevel                 `json:"risk"`
	Note     string                    `json:"note,omitempty"`
}

// FixResult bundles every generator output for one article.
type FixResult struct {
	FullRewrite    string            `json:"full_rewrite"`
	BriefSynthesis string            `json:"brief_synthesis"`
	FeedTitle      string            `json:"feed_title"`
	FeedSummary    string            `json:"feed_summary"`
	Changes        []ChangeRecord    `json:"changes"`
	Validation     *ValidationResult `json:"validation"`
	OriginalLength int               `json:"original_length"`
	FixedLength    int               `json:"fixed_length"`
	FellBack       bool              `json:"fell_back,omitempty"`
	ModelsUsed     map[string]string `json:"models_used,omitempty"`
	Duration       time.Duration     `json:"duration"`
}

// =============================================================================
// PIPELINE RESULTS
// =============================================================================

// TransparencyPackage is the audit summary disclosed alongside a rewrite.
type TransparencyPackage struct {
	TotalDetections  int               `json:"total_detections"`
	CountsByCategory map[string]int    `json:"counts_by_category"`
	CountsBySeverity map[int]int       `json:"counts_by_severity"`
	Density          float64           `json:"density"`
	EpistemicFlags   []string          `json:"epistemic_flags,omitempty"`
	ModelsUsed       map[string]string `json:"models_used,omitempty"`
	ChangeCount      int               `json:"change_count"`
}

// PipelineResult is the top-level output for one article.
type PipelineResult struct {
	BodyScan     *MergedScanResult    `json:"body_scan"`
	TitleScan    *MergedScanResult    `json:"title_scan,omitempty"`
	DeckScan     *MergedScanResult    `json:"deck_scan,omitempty"`
	Fix          *FixResult           `json:"fix,omitempty"`
	Transparency *TransparencyPackage `json:"transparency"`
	FromCache    bool                 `json:"from_cache,omitempty"`
	ScanOnly     bool                 `json:"scan_only,omitempty"`
	Duration     time.Duration        `json:"duration"`
}

// =============================================================================
// BATCH ENVELOPES
// =============================================================================

// ArticleInput is the batcher-level input envelope.
type ArticleInput struct {
	ArticleID string `json:"article_id"`
	Title     string `json:"title"`
	Deck      string `json:"deck,omitempty"`
	Body      string `json:"body"`
}

// Validate checks the minimum the batcher needs to route an article.
func (a *ArticleInput) Validate() error {
	if a.ArticleID == "" {
		return fmt.Errorf("article_id is required")
	}
	if a.Body == "" {
		return fmt.Errorf("article %s: body is required", a.ArticleID)
	}
	return nil
}

// BatchResult maps article IDs to their pipeline results or failures.
type BatchResult struct {
	TotalArticles int                        `json:"total_articles"`
	Successful    int                        `json:"successful"`
	Failed        int                        `json:"failed"`
	Results       map[string]*PipelineResult `json:"results"`
	Failures      map[string]string          `json:"failures,omitempty"`
	Strategy      string                     `json:"strategy"`
	Duration      time.Duration              `json:"duration"`
}
