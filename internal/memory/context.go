package memory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/specsafe/specsafe/internal/sanitize"
	"github.com/specsafe/specsafe/internal/types"
)

// SpecContext is the accumulated knowledge relevant to one spec: every
// pattern and constraint in the project, decisions recorded under related
// specs, and a short digest suitable for display.
type SpecContext struct {
	Patterns     []types.Pattern
	Decisions    []types.Decision
	Constraints  []types.Constraint
	RelatedSpecs []string
	Summary      string
}

// GetReusablePatterns returns patterns recorded at least minUsage times,
// most-used first. Ties keep recording order.
func (m *Manager) GetReusablePatterns(minUsage int) ([]types.Pattern, error) {
	mem, err := m.memory()
	if err != nil {
		return nil, err
	}

	out := make([]types.Pattern, 0, len(mem.Patterns))
	for _, p := range mem.Patterns {
		if p.UsageCount >= minUsage {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UsageCount > out[j].UsageCount
	})
	return out, nil
}

// GetRelatedSpecs returns the other spec ids connected to specID: specs
// co-occurring with it in some pattern's examples, and specs holding a
// decision whose text contains or is contained by one of specID's
// decisions, case-insensitively. specID itself is never included; order is
// first discovery.
func (m *Manager) GetRelatedSpecs(specID string) ([]string, error) {
	mem, err := m.memory()
	if err != nil {
		return nil, err
	}

	specID = sanitize.String(specID)
	if err := types.ValidateID("specId", specID); err != nil {
		return nil, err
	}

	related := make([]string, 0)
	seen := map[string]bool{specID: true}
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			related = append(related, id)
		}
	}

	// Co-occurrence in a pattern's examples
	for _, p := range mem.Patterns {
		uses := false
		for _, e := range p.Examples {
			if e.SpecID == specID {
				uses = true
				break
			}
		}
		if !uses {
			continue
		}
		for _, e := range p.Examples {
			add(e.SpecID)
		}
	}

	// Decision text overlap in either direction
	var ownDecisions []string
	for _, d := range mem.Decisions {
		if d.SpecID == specID {
			ownDecisions = append(ownDecisions, strings.ToLower(d.Decision))
		}
	}
	if len(ownDecisions) > 0 {
		for _, d := range mem.Decisions {
			if d.SpecID == specID {
				continue
			}
			text := strings.ToLower(d.Decision)
			for _, own := range ownDecisions {
				if strings.Contains(text, own) || strings.Contains(own, text) {
					add(d.SpecID)
					break
				}
			}
		}
	}

	return related, nil
}

// GetContextForSpec composes the knowledge a spec author should see before
// writing specID: all patterns, decisions from related specs, all
// constraints, the related spec ids, and a one-line summary.
func (m *Manager) GetContextForSpec(specID string) (*SpecContext, error) {
	mem, err := m.memory()
	if err != nil {
		return nil, err
	}

	related, err := m.GetRelatedSpecs(specID)
	if err != nil {
		return nil, err
	}
	relatedSet := make(map[string]bool, len(related))
	for _, id := range related {
		relatedSet[id] = true
	}

	out := &SpecContext{
		Patterns:     make([]types.Pattern, 0, len(mem.Patterns)),
		Decisions:    make([]types.Decision, 0),
		Constraints:  append([]types.Constraint(nil), mem.Constraints...),
		RelatedSpecs: related,
	}
	for _, p := range mem.Patterns {
		if p.UsageCount >= 1 {
			out.Patterns = append(out.Patterns, p)
		}
	}
	for _, d := range mem.Decisions {
		if relatedSet[d.SpecID] {
			out.Decisions = append(out.Decisions, d)
		}
	}
	out.Summary = summarize(out)

	return out, nil
}

// summarize builds the context digest from non-empty clauses
func summarize(sc *SpecContext) string {
	var clauses []string
	if n := len(sc.Patterns); n > 0 {
		clauses = append(clauses, fmt.Sprintf("%d recorded %s", n, plural("pattern", n)))
	}
	if n := len(sc.Decisions); n > 0 {
		clauses = append(clauses, fmt.Sprintf("%d %s from related specs", n, plural("decision", n)))
	}
	if breakdown := constraintBreakdown(sc.Constraints); breakdown != "" {
		clauses = append(clauses, breakdown)
	}
	if n := len(sc.RelatedSpecs); n > 0 {
		clauses = append(clauses, fmt.Sprintf("%d related %s", n, plural("spec", n)))
	}
	if len(clauses) == 0 {
		return "no accumulated project knowledge yet"
	}
	return strings.Join(clauses, "; ")
}

// constraintBreakdown renders constraint counts by type in a fixed order,
// e.g. "constraints: 2 technical, 1 architectural"
func constraintBreakdown(constraints []types.Constraint) string {
	if len(constraints) == 0 {
		return ""
	}
	counts := make(map[types.ConstraintType]int, 3)
	for _, c := range constraints {
		counts[c.Type]++
	}
	var parts []string
	for _, t := range []types.ConstraintType{types.ConstraintTechnical, types.ConstraintBusiness, types.ConstraintArchitectural} {
		if counts[t] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[t], t))
		}
	}
	return "constraints: " + strings.Join(parts, ", ")
}

func plural(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
