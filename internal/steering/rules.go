package steering

import "fmt"

// Rules holds the data tables the steering heuristics evaluate. The engine
// itself has no embedded knowledge of technologies or phrasing; tuning what
// counts as similar or conflicting is a data change here, not a code change.
type Rules struct {
	// MinSharedWords is how many distinct significant words two pattern
	// texts must share to count as similar.
	// Default: 2. Range: >= 1.
	MinSharedWords int

	// MinWordLength sets the significance cutoff: only words strictly
	// longer than this participate in word-sharing checks.
	// Default: 3. Range: >= 1.
	MinWordLength int

	// MinAffixLength is the shared prefix or suffix length (strictly
	// exceeded, after stripping non-alphanumerics) that marks two pattern
	// names as similar.
	// Default: 3. Range: >= 1.
	MinAffixLength int

	// OverlapThreshold is the minimum character-overlap ratio required by
	// the domain-term similarity rule.
	// Default: 0.5. Range: (0, 1].
	OverlapThreshold float64

	// DomainTerms are lowercase substrings that mark a pattern name as
	// belonging to a recognizable technical domain. Two names sharing a
	// term are compared by character overlap instead of exact wording.
	DomainTerms []string

	// OpposingVerbs are verb (or short phrase) pairs that signal a
	// contradiction when split across two decisions.
	OpposingVerbs [][2]string

	// DatabaseEngines maps an engine word as it appears in decision text
	// to a canonical engine name, so spelling variants of one engine
	// ("postgres", "postgresql") are not reported as conflicting.
	DatabaseEngines map[string]string

	// MaxPatternSuggestions caps pattern recommendations per suggest call.
	// Default: 3.
	MaxPatternSuggestions int

	// MaxDecisionSuggestions caps related-spec decision recommendations.
	// Default: 2.
	MaxDecisionSuggestions int

	// MaxConstraintSuggestions caps constraint recommendations.
	// Default: 2.
	MaxConstraintSuggestions int

	// ReusableUsage is the minimum usage count for a pattern to be
	// suggested for reuse.
	// Default: 2.
	ReusableUsage int

	// HighConfidenceUsage is the usage count at which a suggested pattern
	// is reported with high instead of medium confidence.
	// Default: 3.
	HighConfidenceUsage int

	// CommonPatternUsage is the usage count at which a pattern earns the
	// fallback "commonly used" hint when no direct consistency match fires.
	// Default: 3.
	CommonPatternUsage int

	// BestPracticeSpecCount is the spec count a project must exceed before
	// the generic review-existing-patterns note is emitted.
	// Default: 5.
	BestPracticeSpecCount int

	// DefaultRecommendLimit is the pattern ranking size used when the
	// caller passes no explicit limit.
	// Default: 5.
	DefaultRecommendLimit int
}

// DefaultRules returns the rule tables the engine ships with.
func DefaultRules() Rules {
	return Rules{
		MinSharedWords:   2,
		MinWordLength:    3,
		MinAffixLength:   3,
		OverlapThreshold: 0.5,
		DomainTerms: []string{
			"auth", "session", "token", "login", "oauth", "jwt",
			"password", "credential", "crypto", "encrypt", "hash", "sign",
			"cache", "queue", "database", "storage", "migration", "index",
			"postgres", "mysql", "sqlite", "mongo", "redis",
			"retry", "timeout", "logging", "metrics", "tracing",
		},
		OpposingVerbs: [][2]string{
			{"use", "avoid"},
			{"implement", "remove"},
			{"enable", "disable"},
			{"add", "remove"},
			{"increase", "decrease"},
			{"upgrade", "downgrade"},
			{"migrate to", "stay on"},
		},
		DatabaseEngines: map[string]string{
			"postgres":   "postgres",
			"postgresql": "postgres",
			"mysql":      "mysql",
			"mariadb":    "mariadb",
			"sqlite":     "sqlite",
			"sqlite3":    "sqlite",
			"mongo":      "mongodb",
			"mongodb":    "mongodb",
			"redis":      "redis",
			"cassandra":  "cassandra",
			"dynamodb":   "dynamodb",
			"couchdb":    "couchdb",
			"oracle":     "oracle",
		},
		MaxPatternSuggestions:    3,
		MaxDecisionSuggestions:   2,
		MaxConstraintSuggestions: 2,
		ReusableUsage:            2,
		HighConfidenceUsage:      3,
		CommonPatternUsage:       3,
		BestPracticeSpecCount:    5,
		DefaultRecommendLimit:    5,
	}
}

// Validate checks that the rule tables are internally coherent.
func (r Rules) Validate() error {
	if r.MinSharedWords < 1 {
		return fmt.Errorf("min shared words must be at least 1 (got %d)", r.MinSharedWords)
	}
	if r.MinWordLength < 1 {
		return fmt.Errorf("min word length must be at least 1 (got %d)", r.MinWordLength)
	}
	if r.MinAffixLength < 1 {
		return fmt.Errorf("min affix length must be at least 1 (got %d)", r.MinAffixLength)
	}
	if r.OverlapThreshold <= 0 || r.OverlapThreshold > 1 {
		return fmt.Errorf("overlap threshold must be in (0, 1] (got %v)", r.OverlapThreshold)
	}
	if r.MaxPatternSuggestions < 0 || r.MaxDecisionSuggestions < 0 || r.MaxConstraintSuggestions < 0 {
		return fmt.Errorf("suggestion caps must not be negative (got %d/%d/%d)",
			r.MaxPatternSuggestions, r.MaxDecisionSuggestions, r.MaxConstraintSuggestions)
	}
	if r.ReusableUsage < 1 {
		return fmt.Errorf("reusable usage must be at least 1 (got %d)", r.ReusableUsage)
	}
	if r.HighConfidenceUsage < r.ReusableUsage {
		return fmt.Errorf("high confidence usage (%d) must not be below reusable usage (%d)",
			r.HighConfidenceUsage, r.ReusableUsage)
	}
	if r.CommonPatternUsage < 1 {
		return fmt.Errorf("common pattern usage must be at least 1 (got %d)", r.CommonPatternUsage)
	}
	if r.BestPracticeSpecCount < 0 {
		return fmt.Errorf("best practice spec count must not be negative (got %d)", r.BestPracticeSpecCount)
	}
	if r.DefaultRecommendLimit < 1 {
		return fmt.Errorf("default recommend limit must be at least 1 (got %d)", r.DefaultRecommendLimit)
	}
	return nil
}
