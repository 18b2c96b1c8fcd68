// Package normalize canonicalizes Arabic chat text before lexicon lookup.
//
// Pipeline order:
//  1. Unicode NFKD decomposition
//  2. Case folding (for transliterated Latin entries)
//  3. Remove combining marks (tashkeel, hamza marks left by NFKD)
//  4. Arabic letter folding: ى→ي, ة→ه
//  5. Collapse whitespace runs to single spaces and trim
//
// The hamza forms أ/إ/آ decompose under NFKD to bare alef plus a combining
// mark, so step 3 already folds them to ا.
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// pool of fresh transformer chains; transformers are not safe for
// concurrent use, so each call takes one from the pool.
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKD,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Mn)), // strip tashkeel and hamza marks
		)
	},
}

// Normalize returns the canonical form of s. It is a pure function and
// idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToValidUTF8(s, "")

	tr := chainPool.Get().(transform.Transformer)
	ns, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		// Transform failures leave the input untouched; fall back to it.
		ns = s
	}

	ns = foldArabic(ns)

	return strings.Join(strings.Fields(ns), " ")
}

// foldArabic maps Arabic letter variants to their canonical forms.
func foldArabic(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case 'ى': // alef maqsura → yeh
			b.WriteRune('ي')
		case 'ة': // teh marbuta → heh
			b.WriteRune('ه')
		case 'أ', 'إ', 'آ': // hamza/madda alef forms → bare alef
			b.WriteRune('ا')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
