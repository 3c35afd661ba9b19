// Package drug canonicalizes clinician-entered medication names and decides
// whether two differently spelled or branded names refer to the same or a
// related substance. Matching is intentionally permissive: a missed
// interaction costs far more than a spurious warning.
package drug

import "strings"

// Normalize lowercases the name, strips every character outside [a-z0-9 ],
// collapses runs of whitespace, and trims the result. The normalized form is
// used only for comparison, never as a source of truth.
func Normalize(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Match reports whether two medication names refer to the same or a related
// substance:
//
//  1. exact match after normalization
//  2. substring containment in either direction
//  3. both names resolve (by containment) into the same alias group
func Match(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	for _, group := range aliasGroups {
		if inGroup(na, group) && inGroup(nb, group) {
			return true
		}
	}
	return false
}

// MatchesAny reports whether name matches any entry of candidates.
func MatchesAny(name string, candidates []string) bool {
	for _, c := range candidates {
		if Match(name, c) {
			return true
		}
	}
	return false
}

// inGroup tests containment of the already-normalized name against every
// member of an alias group.
func inGroup(normalized string, group []string) bool {
	for _, member := range group {
		if strings.Contains(normalized, member) || strings.Contains(member, normalized) {
			return true
		}
	}
	return false
}
