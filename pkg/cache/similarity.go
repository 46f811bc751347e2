package cache

import (
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/pario-ai/promptsmith/pkg/textnorm"
)

// Similarity returns the longest-matching-blocks ratio of two normalized
// texts, compared word by word. The matcher's ratio depends on argument order
// when blocks overlap, so the larger direction is taken to keep it symmetric.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ta, tb := textnorm.Tokens(a), textnorm.Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	r1 := difflib.NewMatcher(ta, tb).Ratio()
	r2 := difflib.NewMatcher(tb, ta).Ratio()
	if r2 > r1 {
		return r2
	}
	return r1
}

const (
	refResponseLength = 500
	refRequestCount   = 3

	maxLengthFactor = 3
	maxRepeatFactor = 4
)

// TTL computes the adaptive expiry for an entry: the base TTL scaled by how
// long the response is and how often the fingerprint was requested, capped
// at MaxTTL.
func (o Options) TTL(responseLen int, count int64) time.Duration {
	o = o.withDefaults()
	lf := bounded(float64(responseLen)/refResponseLength, maxLengthFactor)
	rf := bounded(float64(count)/refRequestCount, maxRepeatFactor)
	ttl := time.Duration(float64(o.BaseTTL) * lf * rf)
	if ttl > o.MaxTTL {
		return o.MaxTTL
	}
	return ttl
}

// bounded clamps v to [1, hi].
func bounded(v, hi float64) float64 {
	if v < 1 {
		return 1
	}
	if v > hi {
		return hi
	}
	return v
}
