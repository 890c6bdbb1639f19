package types

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Field and collection caps for the project memory data model. The memory
// manager enforces them at write time (truncating where documented); Validate
// enforces them when a stored aggregate is deserialized, so an on-disk store
// that violates a cap is rejected as corrupt rather than silently repaired.
//
// All character caps are measured in Unicode code points, not bytes.
const (
	// MaxIDLength is the maximum length of project and spec identifiers
	MaxIDLength = 100

	// MaxDecisionLength caps the decision text of a Decision
	MaxDecisionLength = 1000

	// MaxRationaleLength caps the rationale text of a Decision
	MaxRationaleLength = 5000

	// MaxAlternatives caps the alternatives considered for a Decision
	MaxAlternatives = 10

	// MaxPatternNameLength caps the name of a Pattern
	MaxPatternNameLength = 100

	// MaxPatternDescLength caps the description of a Pattern
	MaxPatternDescLength = 1000

	// MaxExamples caps the examples tracked per Pattern
	MaxExamples = 20

	// MaxExampleContextLength caps the context text of a PatternExample
	MaxExampleContextLength = 500

	// MaxConstraintDescLength caps the description of a Constraint
	MaxConstraintDescLength = 500

	// MaxDetailsLength caps the details text of a HistoryEntry
	MaxDetailsLength = 1000

	// HistoryLimit bounds the history of a ProjectMemory. The history is a
	// FIFO: once the limit is exceeded the oldest entries are evicted.
	HistoryLimit = 1000
)

// idPattern is the identifier grammar shared by project IDs and spec IDs:
// letters, digits, hyphens, and underscores only.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidationError reports input that violates the data model's invariants.
// The operation that raised it leaves the in-memory aggregate unchanged, so
// the caller can retry with corrected input without losing accumulated state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateID checks a project or spec identifier against the ID grammar:
// letters, digits, hyphens, and underscores, 1-100 characters. The field
// name is used in the error so callers can distinguish project IDs from
// spec IDs.
func ValidateID(field, id string) error {
	if id == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	if n := utf8.RuneCountInString(id); n > MaxIDLength {
		return &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("must be %d characters or less (got %d)", MaxIDLength, n),
		}
	}
	if !idPattern.MatchString(id) {
		return &ValidationError{
			Field:  field,
			Reason: "may only contain letters, digits, hyphens, and underscores",
		}
	}
	return nil
}

// ProjectMemory is the aggregate root: one per project, holding every spec
// ID the project has seen plus the decisions, patterns, constraints, and
// bounded activity history accumulated across sessions.
type ProjectMemory struct {
	ProjectID   string         `json:"projectId"`
	Specs       []string       `json:"specs"`
	Decisions   []Decision     `json:"decisions"`
	Patterns    []Pattern      `json:"patterns"`
	Constraints []Constraint   `json:"constraints"`
	History     []HistoryEntry `json:"history"`
}

// NewProjectMemory returns a default-constructed aggregate for a project
// with no existing store. Collections are empty but non-nil so the
// serialized form always contains JSON arrays.
func NewProjectMemory(projectID string) *ProjectMemory {
	return &ProjectMemory{
		ProjectID:   projectID,
		Specs:       []string{},
		Decisions:   []Decision{},
		Patterns:    []Pattern{},
		Constraints: []Constraint{},
		History:     []HistoryEntry{},
	}
}

// Validate recursively checks the aggregate against every invariant of the
// data model. Any mismatch fails validation as a whole; there is no partial
// acceptance.
func (m *ProjectMemory) Validate() error {
	if err := ValidateID("project ID", m.ProjectID); err != nil {
		return err
	}

	seenSpecs := make(map[string]bool, len(m.Specs))
	for _, specID := range m.Specs {
		if err := ValidateID("spec ID", specID); err != nil {
			return err
		}
		if seenSpecs[specID] {
			return &ValidationError{
				Field:  "specs",
				Reason: fmt.Sprintf("duplicate spec ID %q", specID),
			}
		}
		seenSpecs[specID] = true
	}

	for i := range m.Decisions {
		if err := m.Decisions[i].Validate(); err != nil {
			return fmt.Errorf("decision %d: %w", i, err)
		}
	}

	seenNames := make(map[string]bool, len(m.Patterns))
	for i := range m.Patterns {
		if err := m.Patterns[i].Validate(); err != nil {
			return fmt.Errorf("pattern %d: %w", i, err)
		}
		// Pattern names are unique case-insensitively
		key := strings.ToLower(m.Patterns[i].Name)
		if seenNames[key] {
			return &ValidationError{
				Field:  "patterns",
				Reason: fmt.Sprintf("duplicate pattern name %q", m.Patterns[i].Name),
			}
		}
		seenNames[key] = true
	}

	for i := range m.Constraints {
		if err := m.Constraints[i].Validate(); err != nil {
			return fmt.Errorf("constraint %d: %w", i, err)
		}
	}

	if len(m.History) > HistoryLimit {
		return &ValidationError{
			Field:  "history",
			Reason: fmt.Sprintf("must not exceed %d entries (got %d)", HistoryLimit, len(m.History)),
		}
	}
	for i := range m.History {
		if err := m.History[i].Validate(); err != nil {
			return fmt.Errorf("history entry %d: %w", i, err)
		}
	}

	return nil
}

// Decision records an architectural choice made for a spec, with the
// rationale behind it and the alternatives that were considered.
type Decision struct {
	ID           string    `json:"id"`
	SpecID       string    `json:"specId"`
	Decision     string    `json:"decision"`
	Rationale    string    `json:"rationale"`
	Timestamp    time.Time `json:"timestamp"`
	Alternatives []string  `json:"alternatives"`
}

// Validate checks the decision's field values against the data model caps
func (d *Decision) Validate() error {
	if d.ID == "" {
		return &ValidationError{Field: "decision ID", Reason: "must not be empty"}
	}
	if err := ValidateID("spec ID", d.SpecID); err != nil {
		return err
	}
	if d.Decision == "" {
		return &ValidationError{Field: "decision", Reason: "must not be empty"}
	}
	if n := utf8.RuneCountInString(d.Decision); n > MaxDecisionLength {
		return &ValidationError{
			Field:  "decision",
			Reason: fmt.Sprintf("must be %d characters or less (got %d)", MaxDecisionLength, n),
		}
	}
	if d.Rationale == "" {
		return &ValidationError{Field: "rationale", Reason: "must not be empty"}
	}
	if n := utf8.RuneCountInString(d.Rationale); n > MaxRationaleLength {
		return &ValidationError{
			Field:  "rationale",
			Reason: fmt.Sprintf("must be %d characters or less (got %d)", MaxRationaleLength, n),
		}
	}
	if d.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "must not be zero"}
	}
	if len(d.Alternatives) > MaxAlternatives {
		return &ValidationError{
			Field:  "alternatives",
			Reason: fmt.Sprintf("must not exceed %d entries (got %d)", MaxAlternatives, len(d.Alternatives)),
		}
	}
	return nil
}

// Pattern is a named, reusable design approach observed across specs. The
// name is the identity: recording the same name again (case-insensitively)
// increments the usage count instead of creating a second pattern.
type Pattern struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Examples    []PatternExample `json:"examples"`
	UsageCount  int              `json:"usageCount"`
}

// Validate checks the pattern's field values against the data model caps
func (p *Pattern) Validate() error {
	if p.ID == "" {
		return &ValidationError{Field: "pattern ID", Reason: "must not be empty"}
	}
	if p.Name == "" {
		return &ValidationError{Field: "pattern name", Reason: "must not be empty"}
	}
	if n := utf8.RuneCountInString(p.Name); n > MaxPatternNameLength {
		return &ValidationError{
			Field:  "pattern name",
			Reason: fmt.Sprintf("must be %d characters or less (got %d)", MaxPatternNameLength, n),
		}
	}
	if p.Description == "" {
		return &ValidationError{Field: "pattern description", Reason: "must not be empty"}
	}
	if n := utf8.RuneCountInString(p.Description); n > MaxPatternDescLength {
		return &ValidationError{
			Field:  "pattern description",
			Reason: fmt.Sprintf("must be %d characters or less (got %d)", MaxPatternDescLength, n),
		}
	}
	if p.UsageCount < 1 {
		return &ValidationError{
			Field:  "usage count",
			Reason: fmt.Sprintf("must be at least 1 (got %d)", p.UsageCount),
		}
	}
	if len(p.Examples) > MaxExamples {
		return &ValidationError{
			Field:  "examples",
			Reason: fmt.Sprintf("must not exceed %d entries (got %d)", MaxExamples, len(p.Examples)),
		}
	}
	for i := range p.Examples {
		if err := p.Examples[i].Validate(); err != nil {
			return fmt.Errorf("example %d: %w", i, err)
		}
	}
	return nil
}

// PatternExample ties a pattern to a spec where it was applied. Examples are
// de-duplicated by the (spec ID, context) pair.
type PatternExample struct {
	SpecID  string `json:"specId"`
	Context string `json:"context"`
	Snippet string `json:"snippet,omitempty"`
}

// Validate checks the example's field values against the data model caps
func (e *PatternExample) Validate() error {
	if err := ValidateID("spec ID", e.SpecID); err != nil {
		return err
	}
	if n := utf8.RuneCountInString(e.Context); n > MaxExampleContextLength {
		return &ValidationError{
			Field:  "example context",
			Reason: fmt.Sprintf("must be %d characters or less (got %d)", MaxExampleContextLength, n),
		}
	}
	return nil
}

// Constraint is a standing rule that specs should respect
type Constraint struct {
	ID          string         `json:"id"`
	Type        ConstraintType `json:"type"`
	Description string         `json:"description"`
	Source      string         `json:"source,omitempty"`
	SpecID      string         `json:"specId,omitempty"`
}

// Validate checks the constraint's field values against the data model caps
func (c *Constraint) Validate() error {
	if c.ID == "" {
		return &ValidationError{Field: "constraint ID", Reason: "must not be empty"}
	}
	if !c.Type.IsValid() {
		return &ValidationError{
			Field:  "constraint type",
			Reason: fmt.Sprintf("must be one of technical, business, architectural (got %q)", c.Type),
		}
	}
	if c.Description == "" {
		return &ValidationError{Field: "constraint description", Reason: "must not be empty"}
	}
	if n := utf8.RuneCountInString(c.Description); n > MaxConstraintDescLength {
		return &ValidationError{
			Field:  "constraint description",
			Reason: fmt.Sprintf("must be %d characters or less (got %d)", MaxConstraintDescLength, n),
		}
	}
	if c.SpecID != "" {
		if err := ValidateID("spec ID", c.SpecID); err != nil {
			return err
		}
	}
	return nil
}

// ConstraintType categorizes the kind of rule a constraint expresses
type ConstraintType string

const (
	// ConstraintTechnical is a technology or implementation rule
	ConstraintTechnical ConstraintType = "technical"
	// ConstraintBusiness is a product or business rule
	ConstraintBusiness ConstraintType = "business"
	// ConstraintArchitectural is a structural or design rule
	ConstraintArchitectural ConstraintType = "architectural"
)

// IsValid checks if the constraint type value is valid
func (t ConstraintType) IsValid() bool {
	switch t {
	case ConstraintTechnical, ConstraintBusiness, ConstraintArchitectural:
		return true
	}
	return false
}

// HistoryEntry is one append-only audit record of a memory-affecting action
type HistoryEntry struct {
	Timestamp time.Time     `json:"timestamp"`
	SpecID    string        `json:"specId"`
	Action    HistoryAction `json:"action"`
	Details   string        `json:"details"`
}

// Validate checks the history entry's field values against the data model caps
func (h *HistoryEntry) Validate() error {
	if h.Timestamp.IsZero() {
		return &ValidationError{Field: "history timestamp", Reason: "must not be zero"}
	}
	if err := ValidateID("spec ID", h.SpecID); err != nil {
		return err
	}
	if !h.Action.IsValid() {
		return &ValidationError{
			Field:  "history action",
			Reason: fmt.Sprintf("unknown action %q", h.Action),
		}
	}
	if n := utf8.RuneCountInString(h.Details); n > MaxDetailsLength {
		return &ValidationError{
			Field:  "history details",
			Reason: fmt.Sprintf("must be %d characters or less (got %d)", MaxDetailsLength, n),
		}
	}
	return nil
}

// HistoryAction identifies what kind of action a history entry records
type HistoryAction string

const (
	// ActionCreated indicates a spec was registered with the project
	ActionCreated HistoryAction = "created"
	// ActionUpdated indicates a spec's recorded state was updated
	ActionUpdated HistoryAction = "updated"
	// ActionCompleted indicates a spec was marked complete
	ActionCompleted HistoryAction = "completed"
	// ActionDecision indicates a decision was recorded for a spec
	ActionDecision HistoryAction = "decision"
	// ActionPattern indicates a pattern was recorded for a spec
	ActionPattern HistoryAction = "pattern"
)

// IsValid checks if the history action value is valid
func (a HistoryAction) IsValid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionCompleted, ActionDecision, ActionPattern:
		return true
	}
	return false
}

// Truncate shortens s to at most max Unicode code points. The memory manager
// uses it to enforce the write-time caps without rejecting input.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
