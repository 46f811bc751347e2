package budget

import (
	"unicode"

	"github.com/pario-ai/promptsmith/pkg/textnorm"
)

const (
	refWords = 60
	refMarks = 8

	wordWeight        = 0.5
	punctuationWeight = 0.3
	conjunctionBonus  = 0.2
)

// conjunctions mark a request that asks for more than one thing.
var conjunctions = map[string]bool{
	"and": true, "also": true, "then": true, "plus": true, "with": true,
	"و": true, "ثم": true, "ايضا": true, "كذلك": true, "مع": true,
}

// Estimate scores how demanding raw is, in [0,1]. Words and conjunctions are
// read from the normalized text; punctuation is counted on raw because
// normalization erases it.
func Estimate(raw string) float64 {
	tokens := textnorm.Tokens(textnorm.Normalize(raw))

	score := ratio(len(tokens), refWords) * wordWeight
	score += ratio(countMarks(raw), refMarks) * punctuationWeight
	for _, tok := range tokens {
		if conjunctions[tok] {
			score += conjunctionBonus
			break
		}
	}
	return clamp(score, 0, 1)
}

func countMarks(raw string) int {
	n := 0
	for _, r := range raw {
		if unicode.IsPunct(r) {
			n++
		}
	}
	return n
}

func ratio(n, ref int) float64 {
	if n >= ref {
		return 1
	}
	return float64(n) / float64(ref)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
