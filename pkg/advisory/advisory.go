// Package advisory refines validated layouts with suggestions from an
// external inference collaborator.
//
// The overlay runs after a layout has been composed, validated and cached.
// It sends a [Summary] of the content and the current layout to an
// [Advisor], applies the bounded set of suggestions it understands, and
// re-checks every change against the validator. Suggestions that reference
// unknown ids or break a hard constraint are dropped. A slow or failing
// advisor never fails the request: the unmodified layout is returned.
package advisory

import (
	"context"

	"github.com/matzehuels/gestalt/pkg/layout"
)

// Op names a suggested adjustment.
type Op string

// Supported operations.
const (
	// OpEmphasize sets the emphasis of the target blocks to Value.
	OpEmphasize Op = "emphasize"

	// OpMergeRegions merges two adjacent regions on the same page.
	OpMergeRegions Op = "merge_regions"
)

// Bounds applied to suggestions.
const (
	MaxSuggestions = 16
	MinEmphasis    = 0.5
	MaxEmphasis    = 2.0
)

// Suggestion is one adjustment proposed by an advisor. Targets hold block
// ids for emphasize and region ids for merge_regions.
type Suggestion struct {
	Op      Op       `json:"op"`
	Targets []string `json:"targets"`
	Value   float64  `json:"value,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

// Request is what an advisor receives.
type Request struct {
	RequestID string                `json:"request_id"`
	Summary   Summary               `json:"summary"`
	Layout    *layout.Specification `json:"layout"`
}

// Response is what an advisor returns.
type Response struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// Advisor produces suggestions for a layout.
type Advisor interface {
	Advise(ctx context.Context, req *Request) ([]Suggestion, error)
}

// AdvisorFunc adapts a function to the Advisor interface.
type AdvisorFunc func(ctx context.Context, req *Request) ([]Suggestion, error)

// Advise calls f.
func (f AdvisorFunc) Advise(ctx context.Context, req *Request) ([]Suggestion, error) {
	return f(ctx, req)
}
