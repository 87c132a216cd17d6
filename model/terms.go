package model

import "strings"

// normalizeTerm lowercases and trims a concept term for set comparison.
// No stemming is applied (§4.5 "Concept comparison normalizes whitespace
// and case; no stemming").
func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// JaccardOverlap returns |a ∩ b| / |a ∪ b| for two term sets, 0 when both
// are empty (GLOSSARY "Jaccard overlap").
func JaccardOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for term := range a {
		if _, ok := b[term]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}
