// Package rules implements the principle rule set.
//
// Each rule encodes one design principle as a pure function over the
// normalized document. Rules never mutate blocks; they emit suggestions
// (bindings, page breaks, prominence multipliers and a page budget) that
// [Resolve] folds into a [Plan] consumed by the composer.
//
// Rules are evaluated in a fixed order:
//
//  1. [Proximity]  - bind compatible neighbours into one region
//  2. [Similarity] - identical prominence per kind and heading level
//  3. [Hierarchy]  - headings bound grouping; slide breaks for presentations
//  4. [Contrast]   - density-scaled boost for callouts and quotes
//  5. [Whitespace] - per-page weight budget from a target page count
//
// When two rules disagree on a binding the later rule wins. Weight
// multipliers compose multiplicatively.
package rules

import (
	"github.com/matzehuels/gestalt/pkg/content"
)

// Rule names, as reported in diagnostics.
const (
	NameProximity  = "proximity"
	NameSimilarity = "similarity"
	NameHierarchy  = "hierarchy"
	NameContrast   = "contrast"
	NameWhitespace = "whitespace"
	NameAlignment  = "alignment"
)

// Binding is a rule's opinion on whether a block joins its predecessor's
// region.
type Binding int

const (
	// Unset leaves the decision to other rules.
	Unset Binding = iota
	// Bind keeps the block in its predecessor's region.
	Bind
	// Break starts a new region at the block.
	Break
)

// Rule is one design principle.
type Rule interface {
	Name() string
	Evaluate(doc *content.Normalized) Output
}

// Output is the result of evaluating one rule.
type Output struct {
	Rule string

	// Bindings maps a block id to its relation with the preceding block.
	Bindings map[string]Binding

	// PageBreaks lists blocks that must start a new page or slide.
	PageBreaks map[string]bool

	// Weights are prominence multipliers per block id.
	Weights map[string]float64

	// Boosts are contrast boosts per block id. A boost above 1 asks the
	// composer for extra whitespace around the block.
	Boosts map[string]float64

	// PageBudget is the suggested maximum effective weight per page. Zero
	// means no opinion.
	PageBudget float64

	// TargetPages is the page count the budget was derived from.
	TargetPages int
}

func newOutput(name string) Output {
	return Output{
		Rule:       name,
		Bindings:   map[string]Binding{},
		PageBreaks: map[string]bool{},
		Weights:    map[string]float64{},
		Boosts:     map[string]float64{},
	}
}

// Suggestions returns the number of concrete suggestions in o.
func (o Output) Suggestions() int {
	n := len(o.Bindings) + len(o.PageBreaks) + len(o.Weights) + len(o.Boosts)
	if o.PageBudget > 0 {
		n++
	}
	return n
}

// Default returns the rule set in evaluation order.
func Default() []Rule {
	return []Rule{
		Proximity{},
		Similarity{},
		Hierarchy{},
		Contrast{},
		Whitespace{},
	}
}

// Evaluate runs every rule against doc in order.
func Evaluate(doc *content.Normalized, set []Rule) []Output {
	outs := make([]Output, 0, len(set))
	for _, r := range set {
		outs = append(outs, r.Evaluate(doc))
	}
	return outs
}

// Plan is the resolved set of suggestions handed to the composer.
type Plan struct {
	Bound       map[string]bool
	PageBreaks  map[string]bool
	Emphasis    map[string]float64
	Boost       map[string]float64
	PageBudget  float64
	TargetPages int

	// Outputs are the raw rule outputs, kept for diagnostics.
	Outputs []Output
}

// Resolve folds rule outputs into a plan. Bindings are overwritten in rule
// order, weights and boosts multiply, and the last non-zero budget wins.
func Resolve(outs []Output) *Plan {
	p := &Plan{
		Bound:      map[string]bool{},
		PageBreaks: map[string]bool{},
		Emphasis:   map[string]float64{},
		Boost:      map[string]float64{},
		Outputs:    outs,
	}
	binding := map[string]Binding{}
	for _, o := range outs {
		for id, b := range o.Bindings {
			if b != Unset {
				binding[id] = b
			}
		}
		for id := range o.PageBreaks {
			p.PageBreaks[id] = true
		}
		for id, w := range o.Weights {
			p.Emphasis[id] = p.EmphasisOf(id) * w
		}
		for id, w := range o.Boosts {
			p.Boost[id] = p.BoostOf(id) * w
			p.Emphasis[id] = p.EmphasisOf(id) * w
		}
		if o.PageBudget > 0 {
			p.PageBudget = o.PageBudget
			p.TargetPages = o.TargetPages
		}
	}
	for id, b := range binding {
		p.Bound[id] = b == Bind
	}
	return p
}

// EmphasisOf returns the combined prominence multiplier for a block.
func (p *Plan) EmphasisOf(id string) float64 {
	if w, ok := p.Emphasis[id]; ok {
		return w
	}
	return 1
}

// BoostOf returns the contrast boost for a block.
func (p *Plan) BoostOf(id string) float64 {
	if w, ok := p.Boost[id]; ok {
		return w
	}
	return 1
}

// Weight returns the effective weight of b under the plan.
func (p *Plan) Weight(b content.Block) float64 {
	return b.Metrics.Weight * p.EmphasisOf(b.ID)
}

// Output returns the raw output of the named rule.
func (p *Plan) Output(name string) (Output, bool) {
	for _, o := range p.Outputs {
		if o.Rule == name {
			return o, true
		}
	}
	return Output{}, false
}

// Build evaluates the default rule set and resolves it.
func Build(doc *content.Normalized) *Plan {
	return Resolve(Evaluate(doc, Default()))
}
