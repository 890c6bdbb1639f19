// Package memory provides the façade through which one project's memory is
// loaded, mutated, queried, and saved. A Manager is a two-state object:
// until Load succeeds every other operation fails with ErrNotLoaded; after
// Load, mutations work on the in-memory aggregate and Save persists it.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/specsafe/specsafe/internal/sanitize"
	"github.com/specsafe/specsafe/internal/storage"
	"github.com/specsafe/specsafe/internal/types"
)

// ErrNotLoaded is returned by every operation that needs loaded memory
// before Load has succeeded.
var ErrNotLoaded = errors.New(
	"project memory not loaded\n" +
		"  Call Load before mutating, querying, or saving")

// Manager owns one project's memory between Load and Save.
//
// A Manager is not safe for concurrent use within a process; each command
// invocation builds its own. Safety across processes comes from the store
// lock, and mutations are only made durable by Save or Update.
type Manager struct {
	store *storage.Store
	mem   *types.ProjectMemory
}

// NewManager returns an unloaded Manager over store
func NewManager(store *storage.Store) *Manager {
	return &Manager{store: store}
}

// memory is the single boundary check for the unloaded state
func (m *Manager) memory() (*types.ProjectMemory, error) {
	if m.mem == nil {
		return nil, ErrNotLoaded
	}
	return m.mem, nil
}

// Loaded reports whether Load has succeeded on this Manager
func (m *Manager) Loaded() bool {
	return m.mem != nil
}

// Exists reports whether the store file is on disk, without loading it
func (m *Manager) Exists() bool {
	return m.store.Exists()
}

// Load reads the project memory from disk and makes this Manager loaded.
// The input id is sanitized first; it seeds a fresh memory when no store
// file exists yet.
func (m *Manager) Load(ctx context.Context, projectID string) (*types.ProjectMemory, error) {
	mem, err := m.store.Load(ctx, sanitize.String(projectID))
	if err != nil {
		return nil, err
	}
	m.mem = mem
	return mem, nil
}

// Save persists the loaded memory. Concurrent savers are serialized by the
// store lock with last-writer-wins semantics; see Update for mutations that
// must compose with other processes' writes.
func (m *Manager) Save(ctx context.Context) error {
	mem, err := m.memory()
	if err != nil {
		return err
	}
	return m.store.Save(ctx, mem)
}

// Memory returns the loaded aggregate. Callers must treat it as read-only;
// all mutation goes through the Manager's methods.
func (m *Manager) Memory() (*types.ProjectMemory, error) {
	return m.memory()
}

// Update re-reads the store under its lock, applies fn to the freshest
// state through this Manager, and persists the result, all in one lock
// session. Mutations made this way cannot overwrite another process's
// just-saved work, unlike a plain Load-mutate-Save sequence.
//
// fn receives the Manager itself, so the usual mutation methods apply:
//
//	err := mgr.Update(ctx, func(mm *memory.Manager) error {
//	    _, err := mm.AddDecision(input)
//	    return err
//	})
//
// An error from fn aborts the update with nothing written and the
// previously loaded state restored.
func (m *Manager) Update(ctx context.Context, fn func(*Manager) error) error {
	prev, err := m.memory()
	if err != nil {
		return err
	}

	updated, err := m.store.Update(ctx, prev.ProjectID, func(mem *types.ProjectMemory) error {
		m.mem = mem
		return fn(m)
	})
	if err != nil {
		m.mem = prev
		return err
	}

	m.mem = updated
	return nil
}

// AddSpec registers a spec id with the project. Adding an id that is
// already present is a no-op reporting added=false; the created history
// entry is written only on first registration.
func (m *Manager) AddSpec(specID string) (added bool, err error) {
	mem, err := m.memory()
	if err != nil {
		return false, err
	}

	specID = sanitize.String(specID)
	if err := types.ValidateID("specId", specID); err != nil {
		return false, err
	}

	for _, existing := range mem.Specs {
		if existing == specID {
			return false, nil
		}
	}

	mem.Specs = append(mem.Specs, specID)
	m.appendHistory(mem, specID, types.ActionCreated, fmt.Sprintf("registered spec %s", specID))
	return true, nil
}

// DecisionInput carries the raw fields for AddDecision before
// sanitization, redaction, and truncation.
type DecisionInput struct {
	SpecID       string
	Decision     string
	Rationale    string
	Alternatives []string
}

// AddDecision records an architectural decision for a spec. Decision and
// rationale must be non-empty after sanitization; rationale and
// alternatives pass through secret redaction; text beyond the caps is
// truncated rather than rejected; at most the first ten non-empty
// alternatives are kept, in order.
func (m *Manager) AddDecision(in DecisionInput) (*types.Decision, error) {
	mem, err := m.memory()
	if err != nil {
		return nil, err
	}

	specID := sanitize.String(in.SpecID)
	if err := types.ValidateID("specId", specID); err != nil {
		return nil, err
	}

	decision := sanitize.String(in.Decision)
	if decision == "" {
		return nil, &types.ValidationError{Field: "decision", Reason: "cannot be empty"}
	}
	decision = types.Truncate(decision, types.MaxDecisionLength)

	rationale := sanitize.String(in.Rationale)
	if rationale == "" {
		return nil, &types.ValidationError{Field: "rationale", Reason: "cannot be empty"}
	}
	rationale = types.Truncate(sanitize.Redact(rationale), types.MaxRationaleLength)

	alternatives := make([]string, 0, len(in.Alternatives))
	for _, alt := range in.Alternatives {
		alt = sanitize.String(alt)
		if alt == "" {
			continue
		}
		alternatives = append(alternatives, sanitize.Redact(alt))
		if len(alternatives) == types.MaxAlternatives {
			break
		}
	}

	d := types.Decision{
		ID:           newID("dec"),
		SpecID:       specID,
		Decision:     decision,
		Rationale:    rationale,
		Timestamp:    time.Now().UTC(),
		Alternatives: alternatives,
	}
	mem.Decisions = append(mem.Decisions, d)
	m.appendHistory(mem, specID, types.ActionDecision, fmt.Sprintf("recorded decision: %s", decision))

	return &d, nil
}

// PatternInput carries the raw fields for RecordPattern. Examples with an
// empty SpecID default to the recording spec.
type PatternInput struct {
	SpecID      string
	Name        string
	Description string
	Examples    []types.PatternExample
}

// RecordPattern records a design pattern observation. Pattern identity is
// the case-insensitive name: recording an existing name increments its
// usage count and merges in new examples, de-duplicated by the
// (specId, context) pair and capped at twenty total. A new name creates a
// pattern with usage count one.
func (m *Manager) RecordPattern(in PatternInput) (*types.Pattern, error) {
	mem, err := m.memory()
	if err != nil {
		return nil, err
	}

	specID := sanitize.String(in.SpecID)
	if err := types.ValidateID("specId", specID); err != nil {
		return nil, err
	}

	name := sanitize.String(in.Name)
	if name == "" {
		return nil, &types.ValidationError{Field: "pattern name", Reason: "cannot be empty"}
	}
	name = types.Truncate(name, types.MaxPatternNameLength)

	description := sanitize.String(in.Description)
	if description == "" {
		return nil, &types.ValidationError{Field: "pattern description", Reason: "cannot be empty"}
	}
	description = types.Truncate(description, types.MaxPatternDescLength)

	examples, err := normalizeExamples(in.Examples, specID)
	if err != nil {
		return nil, err
	}

	for i := range mem.Patterns {
		if !strings.EqualFold(mem.Patterns[i].Name, name) {
			continue
		}

		p := &mem.Patterns[i]
		p.UsageCount++
		mergeExamples(p, examples)
		m.appendHistory(mem, specID, types.ActionPattern, fmt.Sprintf("recorded pattern: %s (usage %d)", p.Name, p.UsageCount))

		out := *p
		return &out, nil
	}

	p := types.Pattern{
		ID:          newID("pat"),
		Name:        name,
		Description: description,
		Examples:    dedupeExamples(examples),
		UsageCount:  1,
	}
	mem.Patterns = append(mem.Patterns, p)
	m.appendHistory(mem, specID, types.ActionPattern, fmt.Sprintf("recorded pattern: %s", p.Name))

	return &p, nil
}

// normalizeExamples sanitizes example fields and fills empty spec ids with
// the recording spec
func normalizeExamples(in []types.PatternExample, specID string) ([]types.PatternExample, error) {
	out := make([]types.PatternExample, 0, len(in))
	for _, e := range in {
		exSpec := sanitize.String(e.SpecID)
		if exSpec == "" {
			exSpec = specID
		}
		if err := types.ValidateID("example specId", exSpec); err != nil {
			return nil, err
		}
		out = append(out, types.PatternExample{
			SpecID:  exSpec,
			Context: types.Truncate(sanitize.String(e.Context), types.MaxExampleContextLength),
			Snippet: sanitize.String(e.Snippet),
		})
	}
	return out, nil
}

func exampleKey(e types.PatternExample) string {
	return e.SpecID + "\x00" + e.Context
}

// dedupeExamples drops duplicate (specId, context) pairs and enforces the
// example cap, keeping earlier entries
func dedupeExamples(in []types.PatternExample) []types.PatternExample {
	out := make([]types.PatternExample, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, e := range in {
		key := exampleKey(e)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
		if len(out) == types.MaxExamples {
			break
		}
	}
	return out
}

// mergeExamples adds incoming examples the pattern does not already have,
// up to the cap
func mergeExamples(p *types.Pattern, incoming []types.PatternExample) {
	seen := make(map[string]bool, len(p.Examples))
	for _, e := range p.Examples {
		seen[exampleKey(e)] = true
	}
	for _, e := range incoming {
		if len(p.Examples) >= types.MaxExamples {
			return
		}
		key := exampleKey(e)
		if seen[key] {
			continue
		}
		seen[key] = true
		p.Examples = append(p.Examples, e)
	}
}

// ConstraintInput carries the raw fields for AddConstraint
type ConstraintInput struct {
	Type        types.ConstraintType
	Description string
	Source      string
	SpecID      string
}

// AddConstraint records a standing project constraint. Unlike decisions
// and patterns, constraints are project-wide rules and produce no history
// entry.
func (m *Manager) AddConstraint(in ConstraintInput) (*types.Constraint, error) {
	mem, err := m.memory()
	if err != nil {
		return nil, err
	}

	if !in.Type.IsValid() {
		return nil, &types.ValidationError{
			Field:  "constraint type",
			Reason: fmt.Sprintf("must be one of technical, business, architectural (got %q)", in.Type),
		}
	}

	description := sanitize.String(in.Description)
	if description == "" {
		return nil, &types.ValidationError{Field: "constraint description", Reason: "cannot be empty"}
	}
	description = types.Truncate(description, types.MaxConstraintDescLength)

	specID := sanitize.String(in.SpecID)
	if specID != "" {
		if err := types.ValidateID("specId", specID); err != nil {
			return nil, err
		}
	}

	c := types.Constraint{
		ID:          newID("con"),
		Type:        in.Type,
		Description: description,
		Source:      sanitize.String(in.Source),
		SpecID:      specID,
	}
	mem.Constraints = append(mem.Constraints, c)

	return &c, nil
}

// appendHistory adds an audit entry and evicts the oldest entries past the
// history cap
func (m *Manager) appendHistory(mem *types.ProjectMemory, specID string, action types.HistoryAction, details string) {
	mem.History = append(mem.History, types.HistoryEntry{
		Timestamp: time.Now().UTC(),
		SpecID:    specID,
		Action:    action,
		Details:   types.Truncate(details, types.MaxDetailsLength),
	})
	if len(mem.History) > types.HistoryLimit {
		mem.History = mem.History[len(mem.History)-types.HistoryLimit:]
	}
}

// newID returns a prefixed, time-ordered identifier like
// dec-01J8ZCN6V6R8J7Q0V3T1W2X3Y4
func newID(prefix string) string {
	return prefix + "-" + ulid.Make().String()
}
