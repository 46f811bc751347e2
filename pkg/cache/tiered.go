package cache

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"

	"github.com/pario-ai/promptsmith/pkg/metrics"
	"github.com/pario-ai/promptsmith/pkg/models"
	"github.com/pario-ai/promptsmith/pkg/textnorm"
)

// SharedStore is the distributed tier. Implementations must make Put atomic:
// the entry, its metadata and the window push (with trim) land together.
type SharedStore interface {
	// Get returns the entry for fp, or nil when absent or expired.
	Get(ctx context.Context, fp string) (*models.CacheEntry, error)
	// Put writes e, expiring at e.ExpiresAt, and pushes its fingerprint
	// onto the partition window, trimmed to window entries.
	Put(ctx context.Context, e models.CacheEntry, window int) error
	// Touch adds hits requests to the count of a live fp and moves its expiry
	// to expiresAt if that is later. Missing or expired entries are left
	// alone.
	Touch(ctx context.Context, fp string, hits int64, expiresAt time.Time) error
	// Recent returns up to n live entries of a partition, most recent first,
	// without duplicates.
	Recent(ctx context.Context, cat models.Category, lang models.Language, n int) ([]models.CacheEntry, error)
	// Count returns the number of live entries.
	Count(ctx context.Context) (int64, error)
	// Clear removes every entry and window.
	Clear(ctx context.Context) error
	Close() error
}

// syncEvery bounds how many local hits may go unreported to the shared tier.
const syncEvery = 8

// TieredCache layers a SharedStore behind a LocalCache.
type TieredCache struct {
	local   *LocalCache
	shared  SharedStore
	breaker *gobreaker.CircuitBreaker
	opts    Options
	now     func() time.Time

	sharedHits   atomic.Int64
	approxHits   atomic.Int64
	misses       atomic.Int64
	sharedErrors atomic.Int64
}

// NewTiered creates a two-tier cache. A nil shared store gives local-only
// behaviour.
func NewTiered(opts Options, shared SharedStore) *TieredCache {
	opts = opts.withDefaults()
	return &TieredCache{
		local:  NewLocal(opts),
		shared: shared,
		opts:   opts,
		now:    time.Now,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "cache-shared",
			MaxRequests: 1,
			Interval:    30 * time.Second,
			Timeout:     15 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// A caller giving up says nothing about the shared tier.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Printf("cache: %s breaker %s -> %s", name, from, to)
				if to == gobreaker.StateOpen {
					metrics.CacheBreakerOpen.Set(1)
				} else {
					metrics.CacheBreakerOpen.Set(0)
				}
			},
		}),
	}
}

// Shared returns the underlying shared store, or nil.
func (c *TieredCache) Shared() SharedStore {
	return c.shared
}

// Lookup checks the local tier, then the shared tier by exact fingerprint,
// then scans the partition window for a similar request. Any hit is copied
// into the local tier under the query's own fingerprint.
//
// An approximate hit leaves the matched entry's count and expiry alone; only
// exact hits count as a repeat of that fingerprint. Local hits reach the
// shared tier in batches: whenever the adaptive expiry grows, and at least
// every syncEvery hits.
func (c *TieredCache) Lookup(ctx context.Context, text string, cat models.Category, lang models.Language) (Hit, bool) {
	norm := textnorm.Normalize(text)
	fp := Fingerprint(norm, cat, lang)

	if e, ok := c.local.hit(fp); ok {
		if c.shared != nil && c.needsSync(e) {
			c.sync(ctx, e)
		}
		c.local.hits.Add(1)
		metrics.CacheLookups.WithLabelValues(string(TierLocal)).Inc()
		return Hit{Response: e.Response, Tier: TierLocal, Fingerprint: fp, Similarity: 1}, true
	}
	if c.shared == nil {
		return c.miss()
	}

	now := c.now()
	if e := c.sharedGet(ctx, fp); e != nil && !e.Expired(now) {
		count := e.Count + 1
		expires := now.Add(c.opts.TTL(len(e.Response), count))
		c.do(ctx, "touch", func(ctx context.Context) (interface{}, error) {
			return nil, c.shared.Touch(ctx, fp, 1, expires)
		})
		e.Count = count
		e.ExpiresAt = expires
		c.local.put(*e)
		c.sharedHits.Add(1)
		metrics.CacheLookups.WithLabelValues(string(TierShared)).Inc()
		return Hit{Response: e.Response, Tier: TierShared, Fingerprint: fp, Similarity: 1}, true
	}

	if best, score, ok := c.scan(ctx, norm, cat, lang); ok {
		c.local.put(models.CacheEntry{
			Fingerprint: fp,
			Text:        norm,
			Category:    cat,
			Language:    lang,
			Response:    best.Response,
			CreatedAt:   now,
			Count:       1,
			ExpiresAt:   earliest(best.ExpiresAt, now.Add(c.opts.TTL(len(best.Response), 1))),
		})
		c.approxHits.Add(1)
		metrics.CacheLookups.WithLabelValues(string(TierApprox)).Inc()
		return Hit{Response: best.Response, Tier: TierApprox, Fingerprint: fp, Similarity: score}, true
	}
	return c.miss()
}

// scan compares norm against the partition window. Candidates arrive most
// recent first, so a strict comparison keeps the most recent on ties.
func (c *TieredCache) scan(ctx context.Context, norm string, cat models.Category, lang models.Language) (models.CacheEntry, float64, bool) {
	v, err := c.do(ctx, "recent", func(ctx context.Context) (interface{}, error) {
		return c.shared.Recent(ctx, cat, lang, c.opts.WindowSize)
	})
	if err != nil {
		return models.CacheEntry{}, 0, false
	}
	candidates, _ := v.([]models.CacheEntry)

	now := c.now()
	var best models.CacheEntry
	bestScore := -1.0
	for _, cand := range candidates {
		if cand.Expired(now) {
			continue
		}
		if s := Similarity(norm, cand.Text); s > bestScore {
			best, bestScore = cand, s
		}
	}
	if bestScore < c.opts.SimilarityThreshold {
		return models.CacheEntry{}, 0, false
	}
	return best, bestScore, true
}

// Store writes through both tiers. The repeat count carries over from any
// live shared entry with the same fingerprint.
func (c *TieredCache) Store(ctx context.Context, text string, cat models.Category, lang models.Language, response string) {
	norm := textnorm.Normalize(text)
	fp := Fingerprint(norm, cat, lang)
	now := c.now()

	count := int64(1)
	if c.shared != nil {
		if prev := c.sharedGet(ctx, fp); prev != nil && !prev.Expired(now) {
			count = prev.Count + 1
		}
	}
	e := models.CacheEntry{
		Fingerprint: fp,
		Text:        norm,
		Category:    cat,
		Language:    lang,
		Response:    response,
		CreatedAt:   now,
		Count:       count,
		ExpiresAt:   now.Add(c.opts.TTL(len(response), count)),
	}
	c.local.put(e)
	if c.shared == nil {
		return
	}
	c.do(ctx, "put", func(ctx context.Context) (interface{}, error) {
		return nil, c.shared.Put(ctx, e, c.opts.WindowSize)
	})
}

// Stats merges local counters with shared-tier figures. The counters are
// always returned; err reports a shared tier that could not be counted.
func (c *TieredCache) Stats(ctx context.Context) (models.CacheStats, error) {
	stats := models.CacheStats{
		LocalEntries: int64(c.local.entries.Len()),
		Hits:         c.local.hits.Load() + c.sharedHits.Load() + c.approxHits.Load(),
		ApproxHits:   c.approxHits.Load(),
		Misses:       c.misses.Load(),
		SharedErrors: c.sharedErrors.Load(),
	}
	if c.shared == nil {
		return stats, nil
	}
	v, err := c.do(ctx, "count", func(ctx context.Context) (interface{}, error) {
		return c.shared.Count(ctx)
	})
	if err != nil {
		return stats, err
	}
	stats.SharedEntries, _ = v.(int64)
	return stats, nil
}

// needsSync reports whether e's unreported hits should be pushed now.
func (c *TieredCache) needsSync(e localEntry) bool {
	if e.unsynced >= syncEvery {
		return true
	}
	n := len(e.Response)
	return c.opts.TTL(n, e.Count) > c.opts.TTL(n, e.Count-1)
}

func (c *TieredCache) sync(ctx context.Context, e localEntry) {
	_, err := c.do(ctx, "touch", func(ctx context.Context) (interface{}, error) {
		return nil, c.shared.Touch(ctx, e.Fingerprint, e.unsynced, e.ExpiresAt)
	})
	if err == nil {
		c.local.synced(e.Fingerprint, e.unsynced)
	}
}

func (c *TieredCache) miss() (Hit, bool) {
	c.misses.Add(1)
	metrics.CacheLookups.WithLabelValues("miss").Inc()
	return Hit{}, false
}

func (c *TieredCache) sharedGet(ctx context.Context, fp string) *models.CacheEntry {
	v, err := c.do(ctx, "get", func(ctx context.Context) (interface{}, error) {
		return c.shared.Get(ctx, fp)
	})
	if err != nil {
		return nil
	}
	e, _ := v.(*models.CacheEntry)
	return e
}

// do runs one shared-tier operation through the breaker with its own
// deadline. Failures are counted and logged, never returned to Lookup/Store
// callers.
func (c *TieredCache) do(ctx context.Context, op string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	v, err := c.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, c.opts.SharedTimeout)
		defer cancel()
		return fn(ctx)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		c.sharedErrors.Add(1)
		metrics.CacheSharedErrors.WithLabelValues(op).Inc()
		if !errors.Is(err, gobreaker.ErrOpenState) && !errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.Printf("cache: shared %s: %v", op, err)
		}
	}
	return v, err
}

func earliest(a, b time.Time) time.Time {
	if a.IsZero() || b.Before(a) {
		return b
	}
	return a
}
