// Package lexicon holds the static profanity term set and its substring
// matcher. The set is built once at startup by expanding a seed list with
// space-removal and letter-substitution variants; every entry is stored in
// normalized form so lookup operates on canonical text only.
package lexicon

import (
	"sort"
	"strings"
	"sync"

	"raqib/internal/normalize"
)

// Lexicon stores normalized trigger terms and executes substring lookup.
// Safe for concurrent use; ReplaceAll swaps the term set atomically.
type Lexicon struct {
	mu    sync.RWMutex
	set   map[string]struct{}
	terms []string // sorted, for deterministic scan order and listing
}

// New builds a lexicon from the built-in seed list.
func New() *Lexicon {
	l := &Lexicon{set: make(map[string]struct{})}
	l.ReplaceAll(defaultSeeds())
	return l
}

// NewFromSeeds builds a lexicon from the given seeds only.
func NewFromSeeds(seeds []string) *Lexicon {
	l := &Lexicon{set: make(map[string]struct{})}
	l.ReplaceAll(seeds)
	return l
}

// Expand generates the variant set for one seed: the seed itself, its
// space-removed form, and the common Arabic letter substitutions. All
// variants are returned normalized.
func Expand(seed string) []string {
	raw := []string{
		seed,
		strings.ReplaceAll(seed, " ", ""),
		strings.ReplaceAll(seed, "ا", "أ"),
		strings.ReplaceAll(seed, "ا", "إ"),
		strings.ReplaceAll(seed, "ه", "ة"),
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		n := normalize.Normalize(v)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// ReplaceAll rebuilds the term set from seeds, expanding each one.
func (l *Lexicon) ReplaceAll(seeds []string) {
	set := make(map[string]struct{}, len(seeds)*2)
	for _, seed := range seeds {
		for _, v := range Expand(seed) {
			set[v] = struct{}{}
		}
	}

	terms := make([]string, 0, len(set))
	for t := range set {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	l.mu.Lock()
	l.set = set
	l.terms = terms
	l.mu.Unlock()
}

// Add inserts one seed (and its variants). Returns the number of new terms.
func (l *Lexicon) Add(seed string) int {
	variants := Expand(seed)

	l.mu.Lock()
	defer l.mu.Unlock()

	added := 0
	for _, v := range variants {
		if _, exists := l.set[v]; exists {
			continue
		}
		l.set[v] = struct{}{}
		added++
	}
	if added > 0 {
		l.rebuildTermsLocked()
	}
	return added
}

// Remove deletes one seed and its variants. Returns the number removed.
func (l *Lexicon) Remove(seed string) int {
	variants := Expand(seed)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for _, v := range variants {
		if _, exists := l.set[v]; !exists {
			continue
		}
		delete(l.set, v)
		removed++
	}
	if removed > 0 {
		l.rebuildTermsLocked()
	}
	return removed
}

func (l *Lexicon) rebuildTermsLocked() {
	terms := make([]string, 0, len(l.set))
	for t := range l.set {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	l.terms = terms
}

// Contains reports whether the exact normalized term is a member.
func (l *Lexicon) Contains(term string) bool {
	n := normalize.Normalize(term)
	l.mu.RLock()
	_, ok := l.set[n]
	l.mu.RUnlock()
	return ok
}

// Match scans normalized text for any term occurring as a substring and
// returns the first match. The scan is a naive O(terms × text) pass; the
// set is small enough that nothing smarter pays for itself.
func (l *Lexicon) Match(normalizedText string) (string, bool) {
	if normalizedText == "" {
		return "", false
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, term := range l.terms {
		if strings.Contains(normalizedText, term) {
			return term, true
		}
	}
	return "", false
}

// Count returns the number of distinct terms.
func (l *Lexicon) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.set)
}

// Terms returns a sorted copy of all terms.
func (l *Lexicon) Terms() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.terms))
	copy(out, l.terms)
	return out
}
