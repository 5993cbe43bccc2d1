package util

import (
	"strings"
)

// ContainsAnyCaseInsensitive returns true if text contains any of the needles (case-insensitive).
func ContainsAnyCaseInsensitive(text string, needles []string) bool {
	lt := strings.ToLower(text)
	for _, n := range needles {
		if strings.Contains(lt, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// TokenSet lower-cases s and splits it on whitespace into a set.
func TokenSet(s string) map[string]struct{} {
	parts := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		set[p] = struct{}{}
	}
	return set
}

// Jaccard is |a∩b| / |a∪b|; two empty sets score 0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
