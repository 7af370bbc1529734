// Package tags canonicalizes the free-form words a user answers a ping with.
// Pipeline order
// 1 drop control characters and invalid UTF-8
// 2 Unicode NFKC normalization
// 3 Case folding
// 4 Remove format characters (ZWJ, ZWNJ, BOM)
// 5 Width fold fullwidth to ASCII
// 6 Trim, then join inner whitespace runs with a single underscore
package tags

import (
	"slices"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// MaxLen caps a canonical tag in bytes
const MaxLen = 64

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			runes.Remove(runes.Predicate(isControl)),
			norm.NFKC,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

func isControl(r rune) bool { return unicode.IsControl(r) && !unicode.IsSpace(r) }

// Canonical returns the canonical spelling of one tag, or "" when nothing survives
func Canonical(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.ToValidUTF8(raw, "")

	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		return ""
	}

	out = strings.Join(strings.Fields(out), "_")
	if len(out) > MaxLen {
		out = truncate(out, MaxLen)
	}
	return out
}

// CanonicalSet canonicalizes, drops empties, dedupes and sorts
func CanonicalSet(raw []string) []string {
	if len(raw) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if c := Canonical(r); c != "" {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Split breaks an answer line into raw tags on whitespace and commas
func Split(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// Parse is Split followed by CanonicalSet
func Parse(line string) []string { return CanonicalSet(Split(line)) }

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
