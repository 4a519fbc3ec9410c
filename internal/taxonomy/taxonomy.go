// Package taxonomy provides the static catalog of manipulation types.
// The registry is built once at startup, is immutable afterwards, and is
// shared by reference across every concurrent scan. All detectors consult
// it; nothing writes to it.
package taxonomy

import (
	"fmt"
	"regexp"
	"sort"

	"ntrl/internal/logging"
	"ntrl/internal/types"
)

// ManipulationType is one catalog entry. Severity runs 1 (mild) to 5
// (severe). Patterns, when present, are case-insensitive regexes used by
// the lexical detector; types without patterns are only reachable through
// the structural or semantic detectors.
type ManipulationType struct {
	TypeID   string
	Name     string
	Category string // single letter, "A".."F"
	Severity int
	Action   types.Action
	Patterns []string
}

// CategoryNames maps category letters to their display names.
var CategoryNames = map[string]string{
	"A": "sensationalism",
	"B": "loaded_language",
	"C": "framing",
	"D": "sourcing_attribution",
	"E": "narrative_motive",
	"F": "omission_balance",
}

// Registry is the compiled, immutable catalog.
type Registry struct {
	byID     map[string]*ManipulationType
	ordered  []*ManipulationType
	compiled map[string][]*regexp.Regexp
}

// NewRegistry builds the registry from the default catalog. Malformed
// patterns are logged and skipped so one bad entry never takes down the
// whole catalog.
func NewRegistry() *Registry {
	r := &Registry{
		byID:     make(map[string]*ManipulationType, len(defaultCatalog)),
		compiled: make(map[string][]*regexp.Regexp),
	}

	for i := range defaultCatalog {
		mt := &defaultCatalog[i]
		if _, dup := r.byID[mt.TypeID]; dup {
			logging.TaxonomyWarn("duplicate type ID %s, keeping first", mt.TypeID)
			continue
		}
		r.byID[mt.TypeID] = mt
		r.ordered = append(r.ordered, mt)

		for _, pat := range mt.Patterns {
			re, err := regexp.Compile("(?i)" + pat)
			if err != nil {
				logging.TaxonomyWarn("skipping malformed pattern for %s: %v", mt.TypeID, err)
				continue
			}
			r.compiled[mt.TypeID] = append(r.compiled[mt.TypeID], re)
		}
	}

	logging.Taxonomy("registry loaded: %d types, %d with lexical patterns",
		len(r.ordered), len(r.compiled))
	return r
}

// Get returns the type for an ID, or nil if unknown.
func (r *Registry) Get(typeID string) *ManipulationType {
	return r.byID[typeID]
}

// All returns every type in catalog order.
func (r *Registry) All() []*ManipulationType {
	return r.ordered
}

// ByCategory returns all types in a category, sorted by type ID.
func (r *Registry) ByCategory(category string) []*ManipulationType {
	var out []*ManipulationType
	for _, mt := range r.ordered {
		if mt.Category == category {
			out = append(out, mt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeID < out[j].TypeID })
	return out
}

// CompiledPatterns returns the compiled regexes for a type, if any.
func (r *Registry) CompiledPatterns(typeID string) []*regexp.Regexp {
	return r.compiled[typeID]
}

// LexicalTypes returns every type that has at least one compiled pattern.
func (r *Registry) LexicalTypes() []*ManipulationType {
	var out []*ManipulationType
	for _, mt := range r.ordered {
		if len(r.compiled[mt.TypeID]) > 0 {
			out = append(out, mt)
		}
	}
	return out
}

// Category returns a detection's category letter, or "?" if the type is
// unknown (defensive: semantic detections carry model-supplied IDs).
func (r *Registry) Category(typeID string) string {
	if mt := r.byID[typeID]; mt != nil {
		return mt.Category
	}
	return "?"
}

// Describe formats a type for prompt embedding.
func (r *Registry) Describe(typeID string) string {
	mt := r.byID[typeID]
	if mt == nil {
		return typeID
	}
	return fmt.Sprintf("%s %s (severity %d, %s)", mt.TypeID, mt.Name, mt.Severity, mt.Action)
}
