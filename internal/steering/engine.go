// Package steering derives guidance for a spec being authored from
// accumulated project memory: reuse recommendations, consistency and
// conflict warnings, and ranked pattern suggestions. The engine is a
// read-only layer; it never mutates or saves memory.
package steering

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/specsafe/specsafe/internal/memory"
	"github.com/specsafe/specsafe/internal/sanitize"
	"github.com/specsafe/specsafe/internal/storage"
	"github.com/specsafe/specsafe/internal/types"
)

// Severity grades how urgently a warning should be surfaced.
type Severity string

const (
	// SeverityLow indicates a stylistic nudge that is safe to ignore
	SeverityLow Severity = "low"
	// SeverityMedium indicates guidance that likely applies to the spec
	SeverityMedium Severity = "medium"
	// SeverityHigh indicates a probable contradiction with recorded decisions
	SeverityHigh Severity = "high"
)

// Confidence grades how strongly the recorded memory supports a
// recommendation.
type Confidence string

const (
	// ConfidenceMedium indicates moderate support from recorded memory
	ConfidenceMedium Confidence = "medium"
	// ConfidenceHigh indicates strong, repeated support from recorded memory
	ConfidenceHigh Confidence = "high"
)

// WarningType classifies the heuristic that produced a warning.
type WarningType string

const (
	// WarningPatternConsistency flags a spec using a less-established variant of a known pattern
	WarningPatternConsistency WarningType = "pattern_consistency"
	// WarningDecisionConflict flags a decision that appears to contradict another spec's decision
	WarningDecisionConflict WarningType = "decision_conflict"
	// WarningMissingConstraints flags architectural constraints the spec does not appear to address
	WarningMissingConstraints WarningType = "missing_constraints"
)

// RecommendationType classifies what a recommendation points at.
type RecommendationType string

const (
	// RecommendationPattern points at an established pattern worth reusing
	RecommendationPattern RecommendationType = "pattern"
	// RecommendationDecision points at a decision recorded for a related spec
	RecommendationDecision RecommendationType = "decision"
	// RecommendationConstraint points at a constraint the spec must honor
	RecommendationConstraint RecommendationType = "constraint"
	// RecommendationBestPractice is a generic reminder once a project has history worth reviewing
	RecommendationBestPractice RecommendationType = "best_practice"
)

// Warning is a display-oriented inconsistency notice. Message is the full
// human-readable text; Type and Severity are structured so callers can
// format or filter without parsing the message.
type Warning struct {
	ID       string      `json:"id"`
	Type     WarningType `json:"type"`
	Severity Severity    `json:"severity"`
	Message  string      `json:"message"`
	// SpecID names the other spec involved, when one exists.
	SpecID string `json:"specId,omitempty"`
}

// Recommendation is a display-oriented reuse suggestion.
type Recommendation struct {
	ID         string             `json:"id"`
	Type       RecommendationType `json:"type"`
	Confidence Confidence         `json:"confidence"`
	Message    string             `json:"message"`
}

// Report bundles everything the engine derives for one spec.
type Report struct {
	Context          string           `json:"context"`
	Warnings         []Warning        `json:"warnings"`
	Recommendations  []Recommendation `json:"recommendations"`
	RelatedDecisions []types.Decision `json:"relatedDecisions"`
}

// Engine analyzes project memory on behalf of a spec being authored. It
// owns a Memory Manager internally; Initialize must be called before any
// analysis method, and analysis reflects the memory as of that load.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	mgr   *memory.Manager
	rules Rules
}

// NewEngine returns an engine over store using the default rule tables.
func NewEngine(store *storage.Store) *Engine {
	return NewEngineWithRules(store, DefaultRules())
}

// NewEngineWithRules returns an engine with caller-supplied rule tables.
// The rules are not validated here; call Rules.Validate when they come
// from an untrusted source.
func NewEngineWithRules(store *storage.Store, rules Rules) *Engine {
	return &Engine{mgr: memory.NewManager(store), rules: rules}
}

// Initialize loads the project's memory into the internal manager.
func (e *Engine) Initialize(ctx context.Context, projectID string) error {
	_, err := e.mgr.Load(ctx, projectID)
	return err
}

// Analyze composes the full steering report for the spec: a context
// summary, warnings, recommendations, and the decisions of related specs.
func (e *Engine) Analyze(currentSpecID string) (*Report, error) {
	sc, err := e.mgr.GetContextForSpec(currentSpecID)
	if err != nil {
		return nil, err
	}
	warnings, err := e.Warn(currentSpecID)
	if err != nil {
		return nil, err
	}
	recs, err := e.Suggest(currentSpecID)
	if err != nil {
		return nil, err
	}
	return &Report{
		Context:          sc.Summary,
		Warnings:         warnings,
		Recommendations:  recs,
		RelatedDecisions: sc.Decisions,
	}, nil
}

// Suggest returns reuse recommendations for the spec: the most-used
// patterns, decisions from related specs, technical and architectural
// constraints, and a generic review note once the project is large enough.
func (e *Engine) Suggest(currentSpecID string) ([]Recommendation, error) {
	related, err := e.mgr.GetRelatedSpecs(currentSpecID)
	if err != nil {
		return nil, err
	}
	mem, err := e.mgr.Memory()
	if err != nil {
		return nil, err
	}

	recs := make([]Recommendation, 0)

	reusable, err := e.mgr.GetReusablePatterns(e.rules.ReusableUsage)
	if err != nil {
		return nil, err
	}
	for i, p := range reusable {
		if i >= e.rules.MaxPatternSuggestions {
			break
		}
		conf := ConfidenceMedium
		if p.UsageCount >= e.rules.HighConfidenceUsage {
			conf = ConfidenceHigh
		}
		recs = append(recs, newRecommendation(RecommendationPattern, conf,
			fmt.Sprintf("Consider the %q pattern, used %d times in this project: %s",
				p.Name, p.UsageCount, p.Description)))
	}

	relatedSet := make(map[string]bool, len(related))
	for _, id := range related {
		relatedSet[id] = true
	}
	decisions := 0
	for _, d := range mem.Decisions {
		if !relatedSet[d.SpecID] {
			continue
		}
		if decisions >= e.rules.MaxDecisionSuggestions {
			break
		}
		recs = append(recs, newRecommendation(RecommendationDecision, ConfidenceMedium,
			fmt.Sprintf("Related spec %s decided: %s", d.SpecID, d.Decision)))
		decisions++
	}

	constraints := 0
	for _, c := range mem.Constraints {
		if c.Type != types.ConstraintTechnical && c.Type != types.ConstraintArchitectural {
			continue
		}
		if constraints >= e.rules.MaxConstraintSuggestions {
			break
		}
		recs = append(recs, newRecommendation(RecommendationConstraint, ConfidenceHigh,
			fmt.Sprintf("Honor the %s constraint: %s", c.Type, c.Description)))
		constraints++
	}

	if len(mem.Specs) > e.rules.BestPracticeSpecCount {
		recs = append(recs, newRecommendation(RecommendationBestPractice, ConfidenceMedium,
			fmt.Sprintf("This project has %d specs with recorded decisions and patterns; review them before introducing new approaches",
				len(mem.Specs))))
	}

	return recs, nil
}

// Warn returns inconsistency warnings for the spec: established patterns
// the spec deviates from, decisions that contradict other specs, and
// architectural constraints the spec does not appear to address.
func (e *Engine) Warn(currentSpecID string) ([]Warning, error) {
	mem, err := e.mgr.Memory()
	if err != nil {
		return nil, err
	}
	specID := sanitize.String(currentSpecID)
	if err := types.ValidateID("specId", specID); err != nil {
		return nil, err
	}

	warnings := make([]Warning, 0)
	current := patternsUsedIn(mem.Patterns, specID)

	consistency := 0
	for _, cp := range current {
		for _, other := range mem.Patterns {
			if other.ID == cp.ID {
				continue
			}
			if other.UsageCount <= cp.UsageCount {
				continue
			}
			if !e.rules.SimilarPatterns(cp, other) {
				continue
			}
			warnings = append(warnings, newWarning(WarningPatternConsistency, SeverityLow,
				fmt.Sprintf("Spec %s uses pattern %q (%d uses) but the similar pattern %q is more established (%d uses)",
					specID, cp.Name, cp.UsageCount, other.Name, other.UsageCount), ""))
			consistency++
			break
		}
	}
	if consistency == 0 {
		if top, ok := mostUsedPattern(mem.Patterns); ok && top.UsageCount >= e.rules.CommonPatternUsage {
			warnings = append(warnings, newWarning(WarningPatternConsistency, SeverityLow,
				fmt.Sprintf("Pattern %q is commonly used in this project (%d uses); check whether it applies to %s",
					top.Name, top.UsageCount, specID), ""))
		}
	}

	for _, own := range mem.Decisions {
		if own.SpecID != specID {
			continue
		}
		for _, other := range mem.Decisions {
			if other.SpecID == specID {
				continue
			}
			reason, ok := e.rules.ConflictingDecisions(own.Decision, other.Decision)
			if !ok {
				continue
			}
			warnings = append(warnings, newWarning(WarningDecisionConflict, SeverityHigh,
				fmt.Sprintf("Decision %q may conflict with spec %s, which decided %q (%s)",
					own.Decision, other.SpecID, other.Decision, reason), other.SpecID))
		}
	}

	unaddressed := 0
	for _, c := range mem.Constraints {
		if c.Type != types.ConstraintArchitectural {
			continue
		}
		if !e.constraintEchoed(c, current) {
			unaddressed++
		}
	}
	if unaddressed > 0 {
		warnings = append(warnings, newWarning(WarningMissingConstraints, SeverityMedium,
			fmt.Sprintf("Spec %s may not address %d architectural constraint(s)", specID, unaddressed), ""))
	}

	return warnings, nil
}

// RecommendPatterns ranks patterns for the spec: patterns used by related
// specs come first, then the globally most-used remainder, truncated to
// limit. A non-positive limit uses the default from the rules.
func (e *Engine) RecommendPatterns(specID string, limit int) ([]types.Pattern, error) {
	if limit <= 0 {
		limit = e.rules.DefaultRecommendLimit
	}
	related, err := e.mgr.GetRelatedSpecs(specID)
	if err != nil {
		return nil, err
	}
	mem, err := e.mgr.Memory()
	if err != nil {
		return nil, err
	}

	relatedSet := make(map[string]bool, len(related))
	for _, id := range related {
		relatedSet[id] = true
	}

	var fromRelated, rest []types.Pattern
	for _, p := range mem.Patterns {
		if patternTouchesAny(p, relatedSet) {
			fromRelated = append(fromRelated, p)
		} else {
			rest = append(rest, p)
		}
	}
	sort.SliceStable(fromRelated, func(i, j int) bool {
		return fromRelated[i].UsageCount > fromRelated[j].UsageCount
	})
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].UsageCount > rest[j].UsageCount
	})

	out := make([]types.Pattern, 0, limit)
	seen := make(map[string]bool)
	for _, p := range append(fromRelated, rest...) {
		if len(out) >= limit {
			break
		}
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out, nil
}

// constraintEchoed reports whether any pattern the spec uses mentions the
// constraint: a shared significant word with its type or description, or a
// common domain term.
func (e *Engine) constraintEchoed(c types.Constraint, patterns []types.Pattern) bool {
	ctext := string(c.Type) + " " + c.Description
	for _, p := range patterns {
		ptext := p.Name + " " + p.Description
		if e.rules.sharedWordCount(ctext, ptext) >= 1 {
			return true
		}
		if e.rules.sharedDomainTerm(strings.ToLower(ctext), strings.ToLower(ptext)) != "" {
			return true
		}
	}
	return false
}

// patternsUsedIn returns the patterns having an example recorded under
// specID.
func patternsUsedIn(patterns []types.Pattern, specID string) []types.Pattern {
	var out []types.Pattern
	for _, p := range patterns {
		for _, ex := range p.Examples {
			if ex.SpecID == specID {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// patternTouchesAny reports whether any of the pattern's examples was
// recorded under a spec in the set.
func patternTouchesAny(p types.Pattern, specs map[string]bool) bool {
	for _, ex := range p.Examples {
		if specs[ex.SpecID] {
			return true
		}
	}
	return false
}

// mostUsedPattern returns the pattern with the highest usage count.
func mostUsedPattern(patterns []types.Pattern) (types.Pattern, bool) {
	if len(patterns) == 0 {
		return types.Pattern{}, false
	}
	top := patterns[0]
	for _, p := range patterns[1:] {
		if p.UsageCount > top.UsageCount {
			top = p
		}
	}
	return top, true
}

func newWarning(t WarningType, sev Severity, msg, specID string) Warning {
	return Warning{ID: uuid.New().String(), Type: t, Severity: sev, Message: msg, SpecID: specID}
}

func newRecommendation(t RecommendationType, conf Confidence, msg string) Recommendation {
	return Recommendation{ID: uuid.New().String(), Type: t, Confidence: conf, Message: msg}
}
