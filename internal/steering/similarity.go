package steering

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/specsafe/specsafe/internal/types"
)

// words splits s into lowercase runs of letters and digits. Unlike
// significantWords it keeps short words, which verb matching needs
// ("use" is three letters).
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// significantWords returns the distinct words of s longer than
// MinWordLength, in first-appearance order.
func (r Rules) significantWords(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, w := range words(s) {
		if len([]rune(w)) <= r.MinWordLength {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// sharedWordCount counts the distinct significant words a and b share.
func (r Rules) sharedWordCount(a, b string) int {
	inA := make(map[string]struct{})
	for _, w := range r.significantWords(a) {
		inA[w] = struct{}{}
	}
	shared := 0
	for _, w := range r.significantWords(b) {
		if _, ok := inA[w]; ok {
			shared++
		}
	}
	return shared
}

// stripNonAlnum lowercases s and drops every rune that is not a letter
// or a digit.
func stripNonAlnum(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sharedAffix reports whether a and b share a prefix or suffix longer
// than MinAffixLength once non-alphanumerics are stripped.
func (r Rules) sharedAffix(a, b string) bool {
	ra, rb := []rune(stripNonAlnum(a)), []rune(stripNonAlnum(b))
	if len(ra) <= r.MinAffixLength || len(rb) <= r.MinAffixLength {
		return false
	}
	prefix := 0
	for prefix < len(ra) && prefix < len(rb) && ra[prefix] == rb[prefix] {
		prefix++
	}
	if prefix > r.MinAffixLength {
		return true
	}
	suffix := 0
	for suffix < len(ra) && suffix < len(rb) && ra[len(ra)-1-suffix] == rb[len(rb)-1-suffix] {
		suffix++
	}
	return suffix > r.MinAffixLength
}

// charOverlap returns the ratio of distinct runes shared by a and b to
// the distinct runes of the smaller set. Empty input yields 0.
func charOverlap(a, b string) float64 {
	setA := make(map[rune]struct{})
	for _, r := range a {
		setA[r] = struct{}{}
	}
	setB := make(map[rune]struct{})
	for _, r := range b {
		setB[r] = struct{}{}
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	shared := 0
	for r := range setA {
		if _, ok := setB[r]; ok {
			shared++
		}
	}
	smaller := len(setA)
	if len(setB) < smaller {
		smaller = len(setB)
	}
	return float64(shared) / float64(smaller)
}

// sharedDomainTerm returns the first domain term contained in both
// strings, or "" when none is. Inputs must already be lowercase.
func (r Rules) sharedDomainTerm(a, b string) string {
	for _, term := range r.DomainTerms {
		if strings.Contains(a, term) && strings.Contains(b, term) {
			return term
		}
	}
	return ""
}

// SimilarPatterns reports whether two patterns look like variants of the
// same approach. Three signals are tried in order: enough shared
// significant words across name+description, a shared name affix, or a
// common domain term with sufficient character overlap between names.
func (r Rules) SimilarPatterns(a, b types.Pattern) bool {
	textA := a.Name + " " + a.Description
	textB := b.Name + " " + b.Description
	if r.sharedWordCount(textA, textB) >= r.MinSharedWords {
		return true
	}
	if r.sharedAffix(a.Name, b.Name) {
		return true
	}
	nameA, nameB := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if r.sharedDomainTerm(nameA, nameB) != "" &&
		charOverlap(stripNonAlnum(nameA), stripNonAlnum(nameB)) >= r.OverlapThreshold {
		return true
	}
	return false
}

// containsPhrase reports whether phrase occurs in text on word
// boundaries. Multi-word phrases match consecutive words.
func containsPhrase(text, phrase string) bool {
	padded := " " + strings.Join(words(text), " ") + " "
	needle := " " + strings.Join(words(phrase), " ") + " "
	return strings.Contains(padded, needle)
}

// EnginesMentioned returns the canonical database engines named in s, in
// first-mention order.
func (r Rules) EnginesMentioned(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, w := range words(s) {
		canonical, ok := r.DatabaseEngines[w]
		if !ok {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out
}

// ConflictingDecisions reports whether two decision texts take opposite
// positions: an opposing verb pair split across them, or two different
// database engines. The returned reason is suitable for embedding in a
// warning message.
func (r Rules) ConflictingDecisions(a, b string) (string, bool) {
	for _, pair := range r.OpposingVerbs {
		if (containsPhrase(a, pair[0]) && containsPhrase(b, pair[1])) ||
			(containsPhrase(a, pair[1]) && containsPhrase(b, pair[0])) {
			return fmt.Sprintf("%s vs %s", pair[0], pair[1]), true
		}
	}
	for _, ea := range r.EnginesMentioned(a) {
		for _, eb := range r.EnginesMentioned(b) {
			if ea != eb {
				return fmt.Sprintf("%s vs %s", ea, eb), true
			}
		}
	}
	return "", false
}
