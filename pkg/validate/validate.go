// Package validate checks candidate layouts against hard constraints.
//
// Checks run in a fixed order and the first failure wins:
//
//  1. PageCountExceeded - more pages than max_pages_or_slides
//  2. RegionOverflow    - a region's blocks exceed its capacity or bounds
//  3. OrphanHeading     - a heading ends a page while its content starts the
//     next one (skipped for tight density)
//  4. EmptyDocument     - nothing to lay out
//  5. SpacingViolation  - regions closer than min_spacing, or overlapping
//  6. OrderViolation    - block sequences not strictly increasing
//  7. MissingField      - envelope fields absent
//
// OrphanHeading is repaired once by re-running the composer with hints.
// Every other failure, and a repair that still fails, is returned as
// VALIDATION_ERROR and the candidate is discarded.
package validate

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gestalt/pkg/compose"
	"github.com/matzehuels/gestalt/pkg/content"
	"github.com/matzehuels/gestalt/pkg/errors"
	"github.com/matzehuels/gestalt/pkg/geom"
	"github.com/matzehuels/gestalt/pkg/layout"
	"github.com/matzehuels/gestalt/pkg/rules"
)

// Kind names a validation failure.
type Kind string

// Validation failure kinds, in check order.
const (
	PageCountExceeded Kind = "PageCountExceeded"
	RegionOverflow    Kind = "RegionOverflow"
	OrphanHeading     Kind = "OrphanHeading"
	EmptyDocument     Kind = "EmptyDocument"
	SpacingViolation  Kind = "SpacingViolation"
	OrderViolation    Kind = "OrderViolation"
	MissingField      Kind = "MissingField"
)

// Failure describes the first violated check.
type Failure struct {
	Kind    Kind
	Message string
	Page    int
	Region  string
	BlockID string

	// Constraint names the violated constraint and its value, e.g.
	// "max_pages_or_slides=3".
	Constraint string

	// Orphans lists every orphaned heading, not just the first.
	Orphans []string
}

// checkNames maps failure kinds to the check that reports them.
var checkNames = map[Kind]string{
	PageCountExceeded: "page_count",
	RegionOverflow:    "region_capacity",
	OrphanHeading:     "orphan_heading",
	EmptyDocument:     "non_empty",
	SpacingViolation:  "min_spacing",
	OrderViolation:    "sequence_order",
	MissingField:      "required_fields",
}

// Check returns the name of the check that reports k.
func (k Kind) Check() string { return checkNames[k] }

// Err converts f into a VALIDATION_ERROR.
func (f *Failure) Err() error {
	msg := f.Message
	if f.Region != "" {
		msg = fmt.Sprintf("%s on page %d region %s", msg, f.Page+1, f.Region)
	}
	return errors.New(errors.ErrCodeValidation, "%s", msg).
		WithKind(string(f.Kind)).
		WithBlock(f.BlockID).
		WithRule(f.Kind.Check()).
		WithConstraint("%s", f.Constraint)
}

// Validator checks candidates and performs the orphan repair.
type Validator struct {
	Composer *compose.Composer
	Logger   *log.Logger
}

// New returns a Validator that repairs through composer.
func New(composer *compose.Composer, logger *log.Logger) *Validator {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if composer == nil {
		composer = compose.New(logger)
	}
	return &Validator{Composer: composer, Logger: logger}
}

// Validate checks cand and returns the layout that passed, which is either
// cand itself or its repaired recomposition.
func (v *Validator) Validate(in compose.Input, cand *layout.Specification) (*layout.Specification, error) {
	spec, _, err := v.ValidateWithRepairs(in, cand)
	return spec, err
}

// ValidateWithRepairs is Validate that also reports how many orphaned
// headings the repair pass fixed.
func (v *Validator) ValidateWithRepairs(in compose.Input, cand *layout.Specification) (*layout.Specification, int, error) {
	f := Check(in.Doc, cand)
	if f == nil {
		return cand, 0, nil
	}
	if f.Kind != OrphanHeading {
		return nil, 0, f.Err()
	}

	hints := repairHints(in, cand, f.Orphans)
	v.Logger.Debug("repairing orphan headings", "headings", f.Orphans,
		"pull", len(hints.Pull), "break", len(hints.BreakBefore))

	in.Hints = hints
	repaired, err := v.Composer.Compose(in)
	if err != nil {
		return nil, 0, err
	}
	if f := Check(in.Doc, repaired); f != nil {
		return nil, 0, f.Err()
	}
	return repaired, len(f.Orphans), nil
}

func pageBlocks(p layout.Page) int {
	n := 0
	for _, r := range p.Regions {
		n += len(r.Blocks)
	}
	return n
}

// repairHints pulls the block that follows each orphaned heading back onto
// the heading's page when it fits there, and otherwise moves the heading
// forward to join it. A full slide always moves the heading.
func repairHints(in compose.Input, spec *layout.Specification, orphans []string) compose.Hints {
	hints := compose.Hints{Pull: map[string]bool{}, BreakBefore: map[string]bool{}}
	f := in.Doc.Frame
	sp := rules.SpacingFor(in.Doc)
	box := f.Content()

	for _, id := range orphans {
		pi, _, ok := spec.Locate(id)
		if !ok || pi+1 >= len(spec.Pages) {
			continue
		}
		page := spec.Pages[pi]
		last := page.Regions[len(page.Regions)-1]
		next := spec.Pages[pi+1].Regions[0].Blocks[0]

		if in.Doc.DocumentType == content.DocumentPresentation && pageBlocks(page) >= content.MaxBlocksPerSlide {
			hints.BreakBefore[id] = true
			continue
		}

		slot := next.EstimatedHeight
		bound := false
		if in.Plan != nil {
			slot += 2 * sp.Padding(in.Plan.BoostOf(next.BlockID), next.EstimatedHeight, box.Size.Height)
			bound = in.Plan.Bound[next.BlockID]
		}

		top := last.Origin.Y - box.Origin.Y
		var end float64
		if bound {
			end = top + f.SnapHeight(last.Size.Height+sp.Inner+slot)
		} else {
			end = f.SnapHeight(top+last.Size.Height+sp.Gap) + f.SnapHeight(slot)
		}
		if geom.LessOrEqual(end, box.Size.Height) {
			hints.Pull[next.BlockID] = true
		} else {
			hints.BreakBefore[id] = true
		}
	}
	return hints
}
