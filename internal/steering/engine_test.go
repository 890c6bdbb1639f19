package steering

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specsafe/specsafe/internal/config"
	"github.com/specsafe/specsafe/internal/memory"
	"github.com/specsafe/specsafe/internal/storage"
	"github.com/specsafe/specsafe/internal/types"
)

// newEngine returns an initialized engine over an empty project in a
// temporary directory.
func newEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.DefaultConfig()
	paths, err := storage.NewPaths(t.TempDir(), cfg)
	require.NoError(t, err)
	e := NewEngine(storage.NewStore(paths, cfg))
	require.NoError(t, e.Initialize(context.Background(), "demo"))
	return e
}

func record(t *testing.T, e *Engine, name, desc, specID, exampleContext string) {
	t.Helper()
	_, err := e.mgr.RecordPattern(memory.PatternInput{
		SpecID:      specID,
		Name:        name,
		Description: desc,
		Examples:    []types.PatternExample{{SpecID: specID, Context: exampleContext}},
	})
	require.NoError(t, err)
}

func decide(t *testing.T, e *Engine, specID, text string) {
	t.Helper()
	_, err := e.mgr.AddDecision(memory.DecisionInput{
		SpecID:    specID,
		Decision:  text,
		Rationale: "recorded during planning",
	})
	require.NoError(t, err)
}

// seedProject populates a small but realistic project: three specs, two
// patterns at different usage levels, two decisions, two constraints.
func seedProject(t *testing.T, e *Engine) {
	t.Helper()
	for _, id := range []string{"spec-auth", "spec-api", "spec-jobs"} {
		_, err := e.mgr.AddSpec(id)
		require.NoError(t, err)
	}

	record(t, e, "Repository Pattern", "Data access behind a repository interface", "spec-auth", "user store")
	record(t, e, "Repository Pattern", "Data access behind a repository interface", "spec-api", "order store")
	record(t, e, "Repository Pattern", "Data access behind a repository interface", "spec-jobs", "job store")

	record(t, e, "JWT Session Tokens", "Stateless session tokens with rotation", "spec-auth", "login flow")
	record(t, e, "JWT Session Tokens", "Stateless session tokens with rotation", "spec-api", "service calls")

	decide(t, e, "spec-auth", "Use PostgreSQL for persistent storage")
	decide(t, e, "spec-api", "Expose JSON over HTTP for all endpoints")

	_, err := e.mgr.AddConstraint(memory.ConstraintInput{
		Type:        types.ConstraintTechnical,
		Description: "All services emit structured logs",
	})
	require.NoError(t, err)
	_, err = e.mgr.AddConstraint(memory.ConstraintInput{
		Type:        types.ConstraintArchitectural,
		Description: "Services communicate only through the API gateway",
	})
	require.NoError(t, err)
}

func warningsOfType(ws []Warning, wt WarningType) []Warning {
	var out []Warning
	for _, w := range ws {
		if w.Type == wt {
			out = append(out, w)
		}
	}
	return out
}

func recommendationsOfType(rs []Recommendation, rt RecommendationType) []Recommendation {
	var out []Recommendation
	for _, r := range rs {
		if r.Type == rt {
			out = append(out, r)
		}
	}
	return out
}

// TestEngine_AnalysisRequiresInitialize verifies that every analysis
// method refuses to run before Initialize has loaded memory.
func TestEngine_AnalysisRequiresInitialize(t *testing.T) {
	cfg := config.DefaultConfig()
	paths, err := storage.NewPaths(t.TempDir(), cfg)
	require.NoError(t, err)
	e := NewEngine(storage.NewStore(paths, cfg))

	_, err = e.Analyze("spec-1")
	assert.ErrorIs(t, err, memory.ErrNotLoaded)
	_, err = e.Suggest("spec-1")
	assert.ErrorIs(t, err, memory.ErrNotLoaded)
	_, err = e.Warn("spec-1")
	assert.ErrorIs(t, err, memory.ErrNotLoaded)
	_, err = e.RecommendPatterns("spec-1", 3)
	assert.ErrorIs(t, err, memory.ErrNotLoaded)
}

func TestEngine_SuggestRanksEstablishedPatterns(t *testing.T) {
	e := newEngine(t)
	seedProject(t, e)

	recs, err := e.Suggest("spec-new")
	require.NoError(t, err)
	require.Len(t, recs, 4)

	assert.Equal(t, RecommendationPattern, recs[0].Type)
	assert.Equal(t, ConfidenceHigh, recs[0].Confidence, "3 uses earns high confidence")
	assert.Contains(t, recs[0].Message, "Repository Pattern")
	assert.Contains(t, recs[0].Message, "used 3 times")

	assert.Equal(t, RecommendationPattern, recs[1].Type)
	assert.Equal(t, ConfidenceMedium, recs[1].Confidence, "2 uses stays at medium confidence")
	assert.Contains(t, recs[1].Message, "JWT Session Tokens")

	assert.Equal(t, RecommendationConstraint, recs[2].Type)
	assert.Equal(t, ConfidenceHigh, recs[2].Confidence)
	assert.Contains(t, recs[2].Message, "technical")

	assert.Equal(t, RecommendationConstraint, recs[3].Type)
	assert.Contains(t, recs[3].Message, "architectural")

	seen := make(map[string]bool)
	for _, r := range recs {
		assert.NotEmpty(t, r.ID)
		assert.False(t, seen[r.ID], "recommendation IDs must be unique")
		seen[r.ID] = true
	}
}

func TestEngine_SuggestIncludesRelatedDecisions(t *testing.T) {
	e := newEngine(t)
	seedProject(t, e)

	recs, err := e.Suggest("spec-auth")
	require.NoError(t, err)

	decisions := recommendationsOfType(recs, RecommendationDecision)
	require.Len(t, decisions, 1, "only related specs contribute decisions")
	assert.Equal(t, ConfidenceMedium, decisions[0].Confidence)
	assert.Contains(t, decisions[0].Message, "spec-api")
	assert.Contains(t, decisions[0].Message, "Expose JSON over HTTP for all endpoints")
}

// TestEngine_SuggestSkipsSingleUsePatterns verifies the usage floor: a
// pattern recorded once is not yet worth suggesting.
func TestEngine_SuggestSkipsSingleUsePatterns(t *testing.T) {
	e := newEngine(t)
	record(t, e, "Outbox Events", "Publish events from a transactional outbox", "spec-a", "order events")

	recs, err := e.Suggest("spec-b")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

// TestEngine_SuggestCapsPatternRecommendations verifies that no more than
// three patterns are suggested even when more qualify.
func TestEngine_SuggestCapsPatternRecommendations(t *testing.T) {
	e := newEngine(t)
	for _, name := range []string{"Outbox Events", "Circuit Breaker", "Saga Orchestration", "Bulkhead Isolation"} {
		record(t, e, name, "Recurring approach in this project", "spec-a", "first sighting")
		record(t, e, name, "Recurring approach in this project", "spec-b", "second sighting")
	}

	recs, err := e.Suggest("spec-zz")
	require.NoError(t, err)
	require.Len(t, recs, 3, "pattern suggestions are capped")
	for _, r := range recs {
		assert.Equal(t, RecommendationPattern, r.Type)
	}
}

func TestEngine_SuggestBestPracticeNote(t *testing.T) {
	e := newEngine(t)
	for i := 0; i < 6; i++ {
		_, err := e.mgr.AddSpec(fmt.Sprintf("spec-%d", i))
		require.NoError(t, err)
	}

	recs, err := e.Suggest("spec-next")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, RecommendationBestPractice, recs[0].Type)
	assert.Equal(t, ConfidenceMedium, recs[0].Confidence)
	assert.Contains(t, recs[0].Message, "6 specs")
}

func TestEngine_WarnFlagsLessEstablishedVariant(t *testing.T) {
	e := newEngine(t)
	seedProject(t, e)
	record(t, e, "Token Sessions", "Stateless session tokens signed per user", "spec-pay", "checkout session")

	warnings, err := e.Warn("spec-pay")
	require.NoError(t, err)

	consistency := warningsOfType(warnings, WarningPatternConsistency)
	require.Len(t, consistency, 1)
	assert.Equal(t, SeverityLow, consistency[0].Severity)
	assert.Contains(t, consistency[0].Message, "Token Sessions")
	assert.Contains(t, consistency[0].Message, "JWT Session Tokens")
	assert.Contains(t, consistency[0].Message, "more established")
}

func TestEngine_WarnFallbackCommonPatternHint(t *testing.T) {
	e := newEngine(t)
	seedProject(t, e)

	warnings, err := e.Warn("spec-new")
	require.NoError(t, err)

	consistency := warningsOfType(warnings, WarningPatternConsistency)
	require.Len(t, consistency, 1, "a spec with no patterns still gets the common-pattern hint")
	assert.Equal(t, SeverityLow, consistency[0].Severity)
	assert.Contains(t, consistency[0].Message, "Repository Pattern")
	assert.Contains(t, consistency[0].Message, "commonly used")
}

// TestEngine_WarnNoFallbackBelowUsageThreshold verifies the hint stays
// quiet while no pattern has reached the common-usage bar.
func TestEngine_WarnNoFallbackBelowUsageThreshold(t *testing.T) {
	e := newEngine(t)
	record(t, e, "Outbox Events", "Publish events from a transactional outbox", "spec-a", "order events")
	record(t, e, "Outbox Events", "Publish events from a transactional outbox", "spec-b", "billing events")

	warnings, err := e.Warn("spec-c")
	require.NoError(t, err)
	assert.Empty(t, warningsOfType(warnings, WarningPatternConsistency))
}

func TestEngine_WarnDetectsEngineConflict(t *testing.T) {
	e := newEngine(t)
	seedProject(t, e)
	decide(t, e, "spec-pay", "Use MySQL for the payment ledger")

	warnings, err := e.Warn("spec-pay")
	require.NoError(t, err)

	conflicts := warningsOfType(warnings, WarningDecisionConflict)
	require.Len(t, conflicts, 1)
	assert.Equal(t, SeverityHigh, conflicts[0].Severity)
	assert.Equal(t, "spec-auth", conflicts[0].SpecID)
	assert.Contains(t, conflicts[0].Message, "Use PostgreSQL for persistent storage")
	assert.Contains(t, conflicts[0].Message, "mysql vs postgres")
}

func TestEngine_WarnDetectsOpposingVerbs(t *testing.T) {
	e := newEngine(t)
	decide(t, e, "spec-a", "Enable response caching for reads")
	decide(t, e, "spec-b", "Disable response caching until invalidation works")

	warnings, err := e.Warn("spec-b")
	require.NoError(t, err)

	conflicts := warningsOfType(warnings, WarningDecisionConflict)
	require.Len(t, conflicts, 1)
	assert.Equal(t, SeverityHigh, conflicts[0].Severity)
	assert.Equal(t, "spec-a", conflicts[0].SpecID)
	assert.Contains(t, conflicts[0].Message, "enable vs disable")
}

func TestEngine_WarnMissingArchitecturalConstraints(t *testing.T) {
	e := newEngine(t)
	_, err := e.mgr.AddConstraint(memory.ConstraintInput{
		Type:        types.ConstraintArchitectural,
		Description: "All traffic flows through the API gateway",
	})
	require.NoError(t, err)
	_, err = e.mgr.AddConstraint(memory.ConstraintInput{
		Type:        types.ConstraintTechnical,
		Description: "Responses stay under 200ms",
	})
	require.NoError(t, err)

	warnings, err := e.Warn("spec-x")
	require.NoError(t, err)
	missing := warningsOfType(warnings, WarningMissingConstraints)
	require.Len(t, missing, 1, "technical constraints never count toward the warning")
	assert.Equal(t, SeverityMedium, missing[0].Severity)
	assert.Contains(t, missing[0].Message, "may not address 1 architectural constraint(s)")

	// A pattern whose text overlaps the constraint silences it.
	record(t, e, "Gateway Routing", "Route every service call through the gateway", "spec-y", "ingress")
	warnings, err = e.Warn("spec-y")
	require.NoError(t, err)
	assert.Empty(t, warningsOfType(warnings, WarningMissingConstraints))
}

func TestEngine_RecommendPatternsPrioritizesRelated(t *testing.T) {
	e := newEngine(t)
	seedProject(t, e)
	for i := 1; i <= 4; i++ {
		record(t, e, "Structured Logging", "Key-value event output on every request",
			fmt.Sprintf("spec-log%d", i), "request logs")
	}

	// spec-auth relates to spec-api and spec-jobs, so both seeded patterns
	// outrank the more heavily used but unrelated logging pattern.
	recs, err := e.RecommendPatterns("spec-auth", 3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "Repository Pattern", recs[0].Name)
	assert.Equal(t, "JWT Session Tokens", recs[1].Name)
	assert.Equal(t, "Structured Logging", recs[2].Name)
}

func TestEngine_RecommendPatternsDefaultLimit(t *testing.T) {
	e := newEngine(t)
	seedProject(t, e)

	recs, err := e.RecommendPatterns("spec-unrelated", 0)
	require.NoError(t, err)
	require.Len(t, recs, 2, "a non-positive limit falls back to the default")
	assert.Equal(t, "Repository Pattern", recs[0].Name, "unrelated specs get the global usage ranking")
	assert.Equal(t, "JWT Session Tokens", recs[1].Name)
}

func TestEngine_RecommendPatternsRejectsInvalidSpecID(t *testing.T) {
	e := newEngine(t)

	_, err := e.RecommendPatterns("../escape", 3)
	require.Error(t, err)
	var vErr *types.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestEngine_AnalyzeComposesReport(t *testing.T) {
	e := newEngine(t)
	seedProject(t, e)

	rep, err := e.Analyze("spec-auth")
	require.NoError(t, err)

	assert.Contains(t, rep.Context, "recorded pattern")
	assert.Contains(t, rep.Context, "related spec")

	require.Len(t, rep.RelatedDecisions, 1)
	assert.Equal(t, "Expose JSON over HTTP for all endpoints", rep.RelatedDecisions[0].Decision)

	assert.NotEmpty(t, rep.Recommendations)
	assert.NotEmpty(t, rep.Warnings)
	for _, w := range rep.Warnings {
		assert.NotEmpty(t, w.ID)
		assert.NotEmpty(t, w.Message)
	}
}
