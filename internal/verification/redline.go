// Package verification implements the red-line validator: ten independent
// semantic invariants a neutralized rewrite must never violate. Validate
// is a pure function over (original, rewritten); it holds no state and is
// safe to call from any goroutine.
package verification

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"

	"ntrl/internal/logging"
	"ntrl/internal/types"
)

// criticalChecks are the failures that sink a rewrite even in
// non-strict mode.
var criticalChecks = map[types.CheckName]bool{
	types.CheckEntityInvariance:  true,
	types.CheckNumberInvariance:  true,
	types.CheckQuoteIntegrity:    true,
	types.CheckNegationIntegrity: true,
}

// Validate runs all ten red-line checks comparing the original text with
// its rewrite. strict=true fails on any failed check; strict=false fails
// only on the critical subset (entity, number, quote, negation).
func Validate(original, rewritten string, strict bool) *types.ValidationResult {
	timer := logging.StartTimer(logging.CategoryVerification, "Validate")
	defer timer.Stop()

	result := &types.ValidationResult{
		Strict: strict,
		Checks: make(map[types.CheckName]types.CheckResult, 10),
	}

	checks := []types.CheckResult{
		checkEntities(original, rewritten),
		checkNumbers(original, rewritten),
		checkDates(original, rewritten),
		checkAttribution(original, rewritten),
		checkModality(original, rewritten),
		checkCausality(original, rewritten),
		checkRisk(original, rewritten),
		checkQuotes(original, rewritten),
		checkScope(original, rewritten),
		checkNegation(original, rewritten),
	}

	for _, c := range checks {
		result.Checks[c.Name] = c
		switch c.Status {
		case types.CheckFailed:
			result.Failures = append(result.Failures, c.Name)
		case types.CheckWarning:
			result.Warnings = append(result.Warnings, c.Name)
		}
	}

	result.Passed = true
	for _, name := range result.Failures {
		if strict || criticalChecks[name] {
			result.Passed = false
			break
		}
	}

	result.Risk = riskLevel(len(result.Failures), len(result.Warnings))

	if !result.Passed {
		logging.Verification("rewrite rejected: %d failures %v, risk=%s",
			len(result.Failures), result.Failures, result.Risk)
	}
	return result
}

// riskLevel derives the aggregate risk from failure and warning counts.
func riskLevel(failures, warnings int) types.RiskLevel {
	switch {
	case failures >= 3:
		return types.RiskCritical
	case failures == 2:
		return types.RiskHigh
	case failures == 1:
		return types.RiskMedium
	case warnings >= 3:
		return types.RiskMedium
	case warnings >= 1:
		return types.RiskLow
	default:
		return types.RiskNone
	}
}

// =============================================================================
// CHECK 1: ENTITY INVARIANCE
// =============================================================================

// checkEntities requires every named entity of the original to reappear
// in the rewrite. Short entities (<4 chars) are skipped as tagger noise.
func checkEntities(original, rewritten string) types.CheckResult {
	c := types.CheckResult{Name: types.CheckEntityInvariance, Status: types.CheckPassed}

	doc, err := prose.NewDocument(original, prose.WithSegmentation(false))
	if err != nil {
		c.Status = types.CheckSkipped
		c.Detail = fmt.Sprintf("entity extraction unavailable: %v", err)
		return c
	}

	// Entities are checked token by token. The tagger misreads all-caps
	// shouting (SLAMS, BREAKING) as proper nouns and will glue it onto
	// neighboring names, so those tokens are exempt.
	lower := strings.ToLower(rewritten)
	seen := map[string]bool{}
	for _, ent := range doc.Entities() {
		for _, token := range strings.Fields(ent.Text) {
			token = strings.Trim(token, ".,;:!?\"'")
			if len(token) < 4 || seen[token] {
				continue
			}
			if token == strings.ToUpper(token) {
				continue
			}
			seen[token] = true
			if !strings.Contains(lower, strings.ToLower(token)) {
				c.Missing = append(c.Missing, token)
			}
		}
	}

	if len(c.Missing) > 0 {
		c.Status = types.CheckFailed
		c.Detail = fmt.Sprintf("%d named entities dropped", len(c.Missing))
	}
	return c
}

// =============================================================================
// CHECK 2: NUMBER INVARIANCE
// =============================================================================

var (
	numericRe = regexp.MustCompile(`\d[\d,.]*\s*(?:%|percent)?`)
	ordinalRe = regexp.MustCompile(`(?i)\b\d+(?:st|nd|rd|th)\b`)
	spelledRe = regexp.MustCompile(`(?i)\b(?:two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|twenty|thirty|forty|fifty|hundred|thousand|million|billion|trillion|dozen|half|quarter)\b`)
)

// checkNumbers requires the set of numerics, ordinals, and spelled
// numbers in the original to survive into the rewrite.
func checkNumbers(original, rewritten string) types.CheckResult {
	c := types.CheckResult{Name: types.CheckNumberInvariance, Status: types.CheckPassed}

	want := numberSet(original)
	if len(want) == 0 {
		return c
	}
	have := numberSet(rewritten)

	for n := range want {
		if !have[n] {
			c.Missing = append(c.Missing, n)
		}
	}
	if len(c.Missing) > 0 {
		c.Status = types.CheckFailed
		c.Detail = fmt.Sprintf("%d numbers dropped", len(c.Missing))
	}
	return c
}

func numberSet(text string) map[string]bool {
	out := map[string]bool{}
	for _, m := range numericRe.FindAllString(text, -1) {
		out[strings.TrimSpace(strings.ToLower(m))] = true
	}
	for _, m := range ordinalRe.FindAllString(text, -1) {
		out[strings.ToLower(m)] = true
	}
	for _, m := range spelledRe.FindAllString(text, -1) {
		out[strings.ToLower(m)] = true
	}
	return out
}

// =============================================================================
// CHECK 3: DATE INVARIANCE
// =============================================================================

var dateRe = regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december|monday|tuesday|wednesday|thursday|friday|saturday|sunday|\d{4}-\d{2}-\d{2}|(?:19|20)\d{2})\b`)

// checkDates requires date expressions in the original to survive.
func checkDates(original, rewritten string) types.CheckResult {
	c := types.CheckResult{Name: types.CheckDateInvariance, Status: types.CheckPassed}

	have := map[string]bool{}
	for _, m := range dateRe.FindAllString(rewritten, -1) {
		have[strings.ToLower(m)] = true
	}

	seen := map[string]bool{}
	for _, m := range dateRe.FindAllString(original, -1) {
		key := strings.ToLower(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		if !have[key] {
			c.Missing = append(c.Missing, m)
		}
	}

	if len(c.Missing) > 0 {
		c.Status = types.CheckFailed
		c.Detail = fmt.Sprintf("%d date expressions dropped", len(c.Missing))
	}
	return c
}

// =============================================================================
// CHECK 4: ATTRIBUTION INVARIANCE (warning only)
// =============================================================================

var attributionRe = regexp.MustCompile(`\b([A-Z][a-zA-Z]+)\s+(?:said|says|stated|told|added|noted|announced)\b`)

// checkAttribution warns when an "X said" attribution loses its speaker.
// Warning only: rewrites legitimately restructure attribution.
func checkAttribution(original, rewritten string) types.CheckResult {
	c := types.CheckResult{Name: types.CheckAttributionInvariance, Status: types.CheckPassed}

	matches := attributionRe.FindAllStringSubmatch(original, -1)
	if len(matches) == 0 {
		c.Status = types.CheckSkipped
		return c
	}

	lower := strings.ToLower(rewritten)
	for _, m := range matches {
		speaker := strings.ToLower(m[1])
		if !strings.Contains(lower, speaker) {
			c.Missing = append(c.Missing, m[1])
		}
	}
	if len(c.Missing) > 0 {
		c.Status = types.CheckWarning
		c.Detail = fmt.Sprintf("%d attributed speakers dropped", len(c.Missing))
	}
	return c
}

// =============================================================================
// CHECK 5: MODALITY INVARIANCE
// =============================================================================

var (
	softModals = []string{
		"alleged", "allegedly", "may", "might", "reportedly", "apparently",
		"possibly", "suggests", "appears", "claimed", "accused", "suspected",
	}
	hardModals = []string{
		"confirmed", "definitely", "certainly", "proved", "proven",
		"undoubtedly", "unquestionably", "conclusively",
	}
)

// checkModality fails when the original hedges (soft modal present) and
// the rewrite introduces a hard modal the original never used. Upgrading
// an allegation to a certainty invents a fact.
func checkModality(original, rewritten string) types.CheckResult {
	c := types.CheckResult{Name: types.CheckModalityInvariance, Status: types.CheckPassed}

	origLower := strings.ToLower(original)
	hedged := false
	for _, soft := range softModals {
		if containsWord(origLower, soft) {
			hedged = true
			break
		}
	}
	if !hedged {
		c.Status = types.CheckSkipped
		return c
	}

	rewLower := strings.ToLower(rewritten)
	for _, hard := range hardModals {
		if containsWord(rewLower, hard) && !containsWord(origLower, hard) {
			c.Missing = append(c.Missing, hard)
		}
	}
	if len(c.Missing) > 0 {
		c.Status = types.CheckFailed
		c.Detail = fmt.Sprintf("hedged claim upgraded: introduced %v", c.Missing)
	}
	return c
}

// =============================================================================
// CHECK 6: CAUSALITY INVARIANCE (warning only)
// =============================================================================

var causalConnectives = []string{
	"because", "due to", "caused", "led to", "resulting in",
	"therefore", "consequently", "as a result",
}

// checkCausality warns when a causal connective present in the original
// disappears entirely from the rewrite.
func checkCausality(original, rewritten string) types.CheckResult {
	c := types.CheckResult{Name: types.CheckCausalityInvariance, Status: types.CheckPassed}

	origLower := strings.ToLower(original)
	rewLower := strings.ToLower(rewritten)
	any := false
	for _, conn := range causalConnectives {
		if !strings.Contains(origLower, conn) {
			continue
		}
		any = true
		if !strings.Contains(rewLower, conn) {
			c.Missing = append(c.Missing, conn)
		}
	}
	if !any {
		c.Status = types.CheckSkipped
		return c
	}
	if len(c.Missing) > 0 {
		c.Status = types.CheckWarning
		c.Detail = fmt.Sprintf("%d causal connectives dropped", len(c.Missing))
	}
	return c
}

// =============================================================================
// CHECK 7: RISK INVARIANCE
// =============================================================================

var safetyIndicators = []string{
	"warning", "danger", "dangerous", "risk", "hazard", "toxic",
	"fatal", "deadly", "emergency", "recall", "contaminated", "unsafe",
	"evacuate", "outbreak",
}

// checkRisk hard-fails when a safety-indicator word is dropped. A rewrite
// must never make dangerous things sound safer.
func checkRisk(original, rewritten string) types.CheckResult {
	c := types.CheckResult{Name: types.CheckRiskInvariance, Status: types.CheckPassed}

	origLower := strings.ToLower(original)
	rewLower := strings.ToLower(rewritten)
	for _, word := range safetyIndicators {
		if containsWord(origLower, word) && !containsWord(rewLower, word) {
			c.Missing = append(c.Missing, word)
		}
	}
	if len(c.Missing) > 0 {
		c.Status = types.CheckFailed
		c.Detail = fmt.Sprintf("safety indicators dropped: %v", c.Missing)
	}
	return c
}

// =============================================================================
// CHECK 8: QUOTE INTEGRITY
// =============================================================================

var quoteRe = regexp.MustCompile(`"([^"]+)"|\x{201C}([^\x{201D}]+)\x{201D}`)

// checkQuotes hard-fails when a quoted substring of >=10 chars does not
// reappear verbatim. Quotes are someone else's words; one altered
// character is a misquote.
func checkQuotes(original, rewritten string) types.CheckResult {
	c := types.CheckResult{Name: types.CheckQuoteIntegrity, Status: types.CheckPassed}

	matches := quoteRe.FindAllStringSubmatch(original, -1)
	if len(matches) == 0 {
		c.Status = types.CheckSkipped
		return c
	}

	for _, m := range matches {
		quote := m[1]
		if quote == "" {
			quote = m[2]
		}
		if len(quote) < 10 {
			continue
		}
		if !strings.Contains(rewritten, quote) {
			c.Missing = append(c.Missing, quote)
		}
	}
	if len(c.Missing) > 0 {
		c.Status = types.CheckFailed
		c.Detail = fmt.Sprintf("%d quotes altered or dropped", len(c.Missing))
	}
	return c
}

// =============================================================================
// CHECK 9: SCOPE INVARIANCE (warning only)
// =============================================================================

var quantifierWords = []string{
	"all", "some", "many", "most", "few", "several", "every", "none",
}

// checkScope warns when quantifier counts decrease; narrowing "some
// officials" to "officials" silently widens the claim's scope.
func checkScope(original, rewritten string) types.CheckResult {
	c := types.CheckResult{Name: types.CheckScopeInvariance, Status: types.CheckPassed}

	origLower := strings.ToLower(original)
	rewLower := strings.ToLower(rewritten)
	for _, q := range quantifierWords {
		if countWord(rewLower, q) < countWord(origLower, q) {
			c.Missing = append(c.Missing, q)
		}
	}
	if len(c.Missing) > 0 {
		c.Status = types.CheckWarning
		c.Detail = fmt.Sprintf("quantifier counts decreased: %v", c.Missing)
	}
	return c
}

// =============================================================================
// CHECK 10: NEGATION INTEGRITY
// =============================================================================

var negationWords = []string{
	"not", "no", "never", "none", "neither", "nor", "cannot",
	"without", "denies", "denied", "deny",
}

// checkNegation hard-fails when negation counts decrease. Dropping a
// "not" inverts the claim: the single worst possible rewrite error.
func checkNegation(original, rewritten string) types.CheckResult {
	c := types.CheckResult{Name: types.CheckNegationIntegrity, Status: types.CheckPassed}

	origLower := strings.ToLower(original)
	rewLower := strings.ToLower(rewritten)
	for _, n := range negationWords {
		if countWord(rewLower, n) < countWord(origLower, n) {
			c.Missing = append(c.Missing, n)
		}
	}
	if countContractions(rewLower) < countContractions(origLower) {
		c.Missing = append(c.Missing, "n't")
	}
	if len(c.Missing) > 0 {
		c.Status = types.CheckFailed
		c.Detail = fmt.Sprintf("negations dropped: %v", c.Missing)
	}
	return c
}

// =============================================================================
// WORD HELPERS
// =============================================================================

var wordBoundaryCache = map[string]*regexp.Regexp{}

func wordRe(word string) *regexp.Regexp {
	if re, ok := wordBoundaryCache[word]; ok {
		return re
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
	wordBoundaryCache[word] = re
	return re
}

func init() {
	// Pre-populate the cache so concurrent Validate calls only read it.
	for _, lists := range [][]string{softModals, hardModals, safetyIndicators, quantifierWords, negationWords} {
		for _, w := range lists {
			wordRe(w)
		}
	}
}

func containsWord(lowerText, word string) bool {
	return wordRe(word).MatchString(lowerText)
}

func countWord(lowerText, word string) int {
	return len(wordRe(word).FindAllString(lowerText, -1))
}

func countContractions(lowerText string) int {
	return strings.Count(lowerText, "n't") + strings.Count(lowerText, "n’t")
}
