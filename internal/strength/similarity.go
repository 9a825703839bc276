// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package strength

// Similarity tuning.
const (
	// The edit distance may reach similarityNum/similarityDen of the shorter
	// password's length and still count as similar.
	similarityNum = 7
	similarityDen = 10

	// minSimilarityLength is the shortest password compared at all.
	minSimilarityLength = 4
)

// IsSimilar reports whether newPassword is too close to oldPassword.
// Empty inputs and passwords shorter than four runes are never similar.
func IsSimilar(newPassword, oldPassword string) bool {
	if newPassword == "" || oldPassword == "" {
		return false
	}

	a, b := []rune(newPassword), []rune(oldPassword)
	shortest := min(len(a), len(b))
	if shortest < minSimilarityLength {
		return false
	}

	threshold := shortest * similarityNum / similarityDen
	return levenshtein(a, b) <= threshold
}

// Distance returns the Levenshtein edit distance between a and b, counted
// in runes with unit cost for insertion, deletion and substitution.
func Distance(a, b string) int {
	return levenshtein([]rune(a), []rune(b))
}

// levenshtein keeps a single row sized to the shorter input.
func levenshtein(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(a); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			above := row[j]
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			row[j] = min(row[j]+1, row[j-1]+1, diag+cost)
			diag = above
		}
	}

	return row[len(b)]
}
