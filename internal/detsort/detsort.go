// Package detsort provides explicit, deterministic sorting and
// deduplication helpers used by ir and schema to enforce total orderings
// over entities, edges, types, and constraints.
//
// These helpers are intentionally named and centralized rather than
// scattered ad hoc sort.Slice calls, so every collection-ordering rule is
// expressed through one audited place.
package detsort

import "sort"

// ByKey stable-sorts items using the given less-than comparator. Go's
// sort.SliceStable guarantees stability; this wrapper exists so the
// determinism intent is visible at call sites.
func ByKey[T any](items []T, less func(a, b T) bool) {
	sort.SliceStable(items, func(i, j int) bool {
		return less(items[i], items[j])
	})
}

// Strings sorts a slice of strings by Unicode code point (Go's default
// string comparison is already byte-wise, which coincides with code point
// order for valid UTF-8).
func Strings(items []string) {
	sort.Strings(items)
}

// SortedUniqueStrings returns a new slice: items sorted by code point with
// duplicates removed. Used for labels, tags, and constraint scope sets
// wherever set semantics must serialize deterministically.
func SortedUniqueStrings(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	cp := make([]string, len(items))
	copy(cp, items)
	Strings(cp)
	out := cp[:0:0]
	var prev string
	for i, s := range cp {
		if i == 0 || s != prev {
			out = append(out, s)
		}
		prev = s
	}
	return out
}

// IsSorted reports whether items are already in non-decreasing order under
// less; adjacent equal items are accepted, so callers that need a set check
// duplicates separately. Used to validate plugin-declared ordering before
// canonicalization silently re-sorts it (schema.Canonicalize re-sorts
// regardless; this is for early, precise diagnostics in ir.Validate).
func IsSorted[T any](items []T, less func(a, b T) bool) bool {
	for i := 1; i < len(items); i++ {
		if less(items[i], items[i-1]) {
			return false
		}
	}
	return true
}

// HasDuplicates reports whether adjacent-equal items exist in a slice that
// is already sorted by the matching comparator.
func HasDuplicates[T comparable](sorted []T) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return true
		}
	}
	return false
}
