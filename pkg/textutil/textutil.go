// Package textutil provides title normalization and similarity measures
// used by the news deduplication and novelty scoring pipeline.
package textutil

import (
	"strings"
	"unicode"
)

// NormalizeTitle lowercases a title, strips everything that is not a
// letter, digit, underscore or whitespace, and collapses whitespace runs.
// Used only as a dedup key, never shown to users.
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(title))

	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Jaccard computes word-set Jaccard similarity between two normalized
// strings. Returns 0.0 when either token set is empty, so the both-empty
// case never divides by zero.
func Jaccard(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}

	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

// SequenceRatio computes a difflib-style similarity ratio between two
// strings: 2*M/T where M is the total length of matching blocks and T is
// the combined length. Operates on runes so Korean text compares correctly.
func SequenceRatio(a, b string) float64 {
	ar := []rune(a)
	br := []rune(b)

	total := len(ar) + len(br)
	if total == 0 {
		return 1.0
	}
	if len(ar) == 0 || len(br) == 0 {
		return 0.0
	}

	matched := matchingSize(ar, br, 0, len(ar), 0, len(br))
	return 2.0 * float64(matched) / float64(total)
}

// matchingSize sums the sizes of all matching blocks by recursively
// splitting around the longest match, mirroring difflib's algorithm
// without junk handling.
func matchingSize(a, b []rune, alo, ahi, blo, bhi int) int {
	i, j, size := longestMatch(a, b, alo, ahi, blo, bhi)
	if size == 0 {
		return 0
	}

	sum := size
	sum += matchingSize(a, b, alo, i, blo, j)
	sum += matchingSize(a, b, i+size, ahi, j+size, bhi)
	return sum
}

func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (besti, bestj, bestSize int) {
	b2j := make(map[rune][]int)
	for j := blo; j < bhi; j++ {
		b2j[b[j]] = append(b2j[b[j]], j)
	}

	besti, bestj = alo, blo
	j2len := make(map[int]int)

	for i := alo; i < ahi; i++ {
		newJ2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > bestSize {
				besti, bestj, bestSize = i-k+1, j-k+1, k
			}
		}
		j2len = newJ2len
	}

	return besti, bestj, bestSize
}
