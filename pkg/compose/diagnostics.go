package compose

import (
	"fmt"
	"math"

	"github.com/matzehuels/gestalt/pkg/content"
	"github.com/matzehuels/gestalt/pkg/geom"
	"github.com/matzehuels/gestalt/pkg/layout"
	"github.com/matzehuels/gestalt/pkg/rules"
)

// Weights of each principle in the overall quality score.
var qualityWeights = map[string]float64{
	rules.NameProximity:  0.15,
	rules.NameSimilarity: 0.15,
	rules.NameHierarchy:  0.25,
	rules.NameAlignment:  0.20,
	rules.NameWhitespace: 0.15,
	rules.NameContrast:   0.10,
}

type position struct{ page, region, index int }

// diagnose scores how well the composed layout honored each rule's
// suggestions. padded holds the blocks that received contrast whitespace.
func diagnose(doc *content.Normalized, plan *rules.Plan, spec *layout.Specification, padded map[string]bool) []layout.Diagnostic {
	where := map[string]position{}
	for pi, p := range spec.Pages {
		for ri, r := range p.Regions {
			for bi, b := range r.Blocks {
				where[b.BlockID] = position{pi, ri, bi}
			}
		}
	}

	return []layout.Diagnostic{
		diagnoseProximity(doc, plan, where),
		diagnoseSimilarity(plan, spec),
		diagnoseAlignment(doc.Frame, spec),
		diagnoseHierarchy(plan, where),
		diagnoseContrast(plan, padded),
		diagnoseWhitespace(plan, spec),
	}
}

func diagnoseProximity(doc *content.Normalized, plan *rules.Plan, where map[string]position) layout.Diagnostic {
	out, _ := plan.Output(rules.NameProximity)
	var kept, total int
	for i := 1; i < len(doc.Blocks); i++ {
		id := doc.Blocks[i].ID
		if out.Bindings[id] != rules.Bind {
			continue
		}
		total++
		a, b := where[doc.Blocks[i-1].ID], where[id]
		if a.page == b.page && a.region == b.region {
			kept++
		}
	}
	return layout.Diagnostic{
		Rule:        rules.NameProximity,
		Score:       ratio(kept, total),
		Suggestions: out.Suggestions(),
		Detail:      fmt.Sprintf("%d of %d groupings kept", kept, total),
	}
}

func diagnoseSimilarity(plan *rules.Plan, spec *layout.Specification) layout.Diagnostic {
	out, _ := plan.Output(rules.NameSimilarity)
	type style struct {
		kind  string
		level int
	}
	baseline := map[style]float64{}
	consistent := map[style]bool{}
	for _, p := range spec.Pages {
		for _, r := range p.Regions {
			for _, b := range r.Blocks {
				k := style{b.Kind, b.Level}
				w := out.Weights[b.BlockID]
				if w == 0 {
					w = 1
				}
				if prev, ok := baseline[k]; !ok {
					baseline[k] = w
					consistent[k] = true
				} else if prev != w {
					consistent[k] = false
				}
			}
		}
	}
	var ok int
	for _, c := range consistent {
		if c {
			ok++
		}
	}
	return layout.Diagnostic{
		Rule:        rules.NameSimilarity,
		Score:       ratio(ok, len(consistent)),
		Suggestions: out.Suggestions(),
		Detail:      fmt.Sprintf("%d style groups", len(consistent)),
	}
}

// diagnoseAlignment counts placements whose left edge sits on the content
// edge or a grid column, or that are centered in the content box.
func diagnoseAlignment(f geom.Frame, spec *layout.Specification) layout.Diagnostic {
	box := f.Content()
	center := box.Origin.X + box.Size.Width/2
	step := f.ColumnWidth() + f.Gutter

	var aligned, total int
	for _, p := range spec.Pages {
		for _, r := range p.Regions {
			for _, b := range r.Blocks {
				total++
				x := b.Rect.Origin.X
				onGrid := f.Columns > 1 && step > 0 && nearInt((x-box.Origin.X)/step)
				centered := math.Abs(x+b.Rect.Size.Width/2-center) < geom.Epsilon
				if math.Abs(x-box.Origin.X) < geom.Epsilon || onGrid || centered {
					aligned++
				}
			}
		}
	}
	return layout.Diagnostic{
		Rule:   rules.NameAlignment,
		Score:  ratio(aligned, total),
		Detail: fmt.Sprintf("%d of %d blocks aligned", aligned, total),
	}
}

func diagnoseHierarchy(plan *rules.Plan, where map[string]position) layout.Diagnostic {
	out, _ := plan.Output(rules.NameHierarchy)
	var kept, total int
	for id, b := range out.Bindings {
		if b != rules.Break {
			continue
		}
		total++
		if pos, ok := where[id]; ok && pos.index == 0 {
			kept++
		}
	}
	for id := range out.PageBreaks {
		total++
		if pos, ok := where[id]; ok && pos.region == 0 && pos.index == 0 {
			kept++
		}
	}
	return layout.Diagnostic{
		Rule:        rules.NameHierarchy,
		Score:       ratio(kept, total),
		Suggestions: out.Suggestions(),
		Detail:      fmt.Sprintf("%d of %d heading boundaries kept", kept, total),
	}
}

func diagnoseContrast(plan *rules.Plan, padded map[string]bool) layout.Diagnostic {
	out, _ := plan.Output(rules.NameContrast)
	var kept int
	for id := range out.Boosts {
		if padded[id] {
			kept++
		}
	}
	return layout.Diagnostic{
		Rule:        rules.NameContrast,
		Score:       ratio(kept, len(out.Boosts)),
		Suggestions: out.Suggestions(),
		Detail:      fmt.Sprintf("%d of %d emphasised blocks set apart", kept, len(out.Boosts)),
	}
}

// diagnoseWhitespace scores the evenness of page weights as
// 1 - stddev/mean.
func diagnoseWhitespace(plan *rules.Plan, spec *layout.Specification) layout.Diagnostic {
	out, _ := plan.Output(rules.NameWhitespace)
	score := 1.0
	if n := len(spec.Pages); n > 1 {
		var sum float64
		for _, p := range spec.Pages {
			sum += p.Weight
		}
		mean := sum / float64(n)
		var sq float64
		for _, p := range spec.Pages {
			sq += (p.Weight - mean) * (p.Weight - mean)
		}
		if mean > 0 {
			score = clamp01(1 - math.Sqrt(sq/float64(n))/mean)
		}
	}
	return layout.Diagnostic{
		Rule:        rules.NameWhitespace,
		Score:       round(score),
		Suggestions: out.Suggestions(),
		Detail: fmt.Sprintf("%d pages for a target of %d, budget %.1f",
			len(spec.Pages), plan.TargetPages, plan.PageBudget),
	}
}

// Score combines per-rule diagnostics into the overall quality score.
func Score(diags []layout.Diagnostic) layout.Quality {
	var score float64
	for _, d := range diags {
		score += qualityWeights[d.Rule] * d.Score
	}
	score = round(score)
	return layout.Quality{Score: score, Grade: Grade(score)}
}

// Grade maps a quality score to its grade.
func Grade(score float64) string {
	switch {
	case score >= 0.90:
		return layout.GradeExcellent
	case score >= 0.75:
		return layout.GradeGood
	case score >= 0.60:
		return layout.GradeAcceptable
	default:
		return layout.GradeNeedsImprovement
	}
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 1
	}
	return round(float64(n) / float64(total))
}

func round(v float64) float64 { return math.Round(v*1e4) / 1e4 }

func clamp01(v float64) float64 { return math.Max(0, math.Min(1, v)) }

func nearInt(v float64) bool { return math.Abs(v-math.Round(v)) < 1e-6 }
