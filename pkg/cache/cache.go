// Package cache implements the two-tier fingerprint cache.
//
// The local tier is a bounded LRU keyed by fingerprint and answers exact
// matches only. The optional shared tier adds exact lookup across processes
// and an approximate scan over a bounded window of recently stored entries in
// the same (category, language) partition. Shared-tier failures never reach
// the caller; they show up as misses.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/pario-ai/promptsmith/pkg/models"
)

// Tier names the part of the cache that answered a lookup.
type Tier string

const (
	TierLocal  Tier = "local"
	TierShared Tier = "shared"
	TierApprox Tier = "approx"
)

// Hit is a successful lookup.
type Hit struct {
	Response    string
	Tier        Tier
	Fingerprint string
	// Similarity is 1 for exact hits.
	Similarity float64
}

// Cache is the lookup/store contract the resolver depends on.
type Cache interface {
	Lookup(ctx context.Context, text string, cat models.Category, lang models.Language) (Hit, bool)
	Store(ctx context.Context, text string, cat models.Category, lang models.Language, response string)
	Stats(ctx context.Context) (models.CacheStats, error)
}

// Options tunes both cache implementations.
type Options struct {
	LocalSize           int
	WindowSize          int
	SimilarityThreshold float64
	BaseTTL             time.Duration
	MaxTTL              time.Duration
	// SharedTimeout bounds each shared-tier round trip.
	SharedTimeout time.Duration
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		LocalSize:           256,
		WindowSize:          2000,
		SimilarityThreshold: 0.86,
		BaseTTL:             24 * time.Hour,
		MaxTTL:              30 * 24 * time.Hour,
		SharedTimeout:       500 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.LocalSize <= 0 {
		o.LocalSize = d.LocalSize
	}
	if o.WindowSize <= 0 {
		o.WindowSize = d.WindowSize
	}
	if o.SimilarityThreshold <= 0 || o.SimilarityThreshold > 1 {
		o.SimilarityThreshold = d.SimilarityThreshold
	}
	if o.BaseTTL <= 0 {
		o.BaseTTL = d.BaseTTL
	}
	if o.MaxTTL <= 0 {
		o.MaxTTL = d.MaxTTL
	}
	if o.SharedTimeout <= 0 {
		o.SharedTimeout = d.SharedTimeout
	}
	return o
}

// Fingerprint identifies a cache slot. normalized must already be the output
// of textnorm.Normalize.
func Fingerprint(normalized string, cat models.Category, lang models.Language) string {
	h := sha256.New()
	h.Write([]byte(cat))
	h.Write([]byte{0})
	h.Write([]byte(lang))
	h.Write([]byte{0})
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil))
}

// Short returns a log-safe prefix of a fingerprint.
func Short(fp string) string {
	if len(fp) > 8 {
		return fp[:8]
	}
	return fp
}
