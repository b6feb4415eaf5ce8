// Package document declares the document kinds a draft session can hold,
// their entity collections, and the per-kind editing rules (minimum
// collection sizes and cross-reference relations).
package document

import (
	"errors"
	"fmt"
	"sort"
)

// Kind identifies one of the supported document shapes.
type Kind string

const (
	KindOutline           Kind = "outline"
	KindValueSummary      Kind = "value_summary"
	KindNegotiationBrief  Kind = "negotiation_brief"
	KindExecutiveBriefing Kind = "executive_briefing"
	KindTrainingProgram   Kind = "training_program"
	KindRenewalPipeline   Kind = "renewal_pipeline"
	KindResolutionPlan    Kind = "resolution_plan"
	KindChampionPlan      Kind = "champion_plan"
	KindFeatureCampaign   Kind = "feature_campaign"
)

// ErrUnknownKind indicates a kind that is not registered.
var ErrUnknownKind = errors.New("unknown document kind")

// RefRule declares a cross-reference relation: entities in the From
// collection hold a set of foreign ids (Field) referencing entities in the
// To collection. Removing a referenced entity must prune its id from every
// referrer in the same logical mutation; a dangling foreign id is a defect.
type RefRule struct {
	From  string
	Field string
	To    string
}

// Definition describes the collections and editing rules of one kind.
type Definition struct {
	Kind        Kind
	Collections []string
	MinLen      map[string]int
	Refs        []RefRule
}

// HasCollection reports whether path names a declared entity collection.
func (d Definition) HasCollection(path string) bool {
	for _, c := range d.Collections {
		if c == path {
			return true
		}
	}
	return false
}

var registry = map[Kind]Definition{
	KindOutline: {
		Kind:        KindOutline,
		Collections: []string{"sections"},
		// A document outline must keep at least one section; removal below
		// the minimum is refused, not executed.
		MinLen: map[string]int{"sections": 1},
	},
	KindValueSummary: {
		Kind:        KindValueSummary,
		Collections: []string{"achievements", "metrics"},
	},
	KindNegotiationBrief: {
		Kind:        KindNegotiationBrief,
		Collections: []string{"objectives", "concessions", "risks"},
	},
	KindExecutiveBriefing: {
		Kind:        KindExecutiveBriefing,
		Collections: []string{"highlights", "asks", "risks"},
	},
	KindTrainingProgram: {
		Kind:        KindTrainingProgram,
		Collections: []string{"modules", "resources"},
	},
	KindRenewalPipeline: {
		Kind:        KindRenewalPipeline,
		Collections: []string{"accounts"},
	},
	KindResolutionPlan: {
		Kind:        KindResolutionPlan,
		Collections: []string{"issues", "actions"},
		Refs: []RefRule{
			{From: "actions", Field: "related_issue_ids", To: "issues"},
		},
	},
	KindChampionPlan: {
		Kind:        KindChampionPlan,
		Collections: []string{"champions", "activities"},
		Refs: []RefRule{
			{From: "activities", Field: "champion_ids", To: "champions"},
		},
	},
	KindFeatureCampaign: {
		Kind:        KindFeatureCampaign,
		Collections: []string{"features", "channels"},
	},
}

// Lookup returns the definition for a kind.
func Lookup(k Kind) (Definition, error) {
	def, ok := registry[k]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
	return def, nil
}

// Kinds lists all registered kinds in stable order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
