package cache

import (
	"context"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pario-ai/promptsmith/pkg/metrics"
	"github.com/pario-ai/promptsmith/pkg/models"
	"github.com/pario-ai/promptsmith/pkg/textnorm"
)

// LocalCache is the process-local tier on its own: exact matches only.
type LocalCache struct {
	opts    Options
	entries *lru.Cache[string, localEntry]
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// NewLocal creates a local-only cache.
func NewLocal(opts Options) *LocalCache {
	opts = opts.withDefaults()
	// lru.New only fails for a non-positive size, which withDefaults rules out.
	entries, _ := lru.New[string, localEntry](opts.LocalSize)
	return &LocalCache{opts: opts, entries: entries, now: time.Now}
}

// localEntry is a cached entry plus the hits not yet reported to a shared
// tier.
type localEntry struct {
	models.CacheEntry
	unsynced int64
}

// Lookup returns the entry stored under the exact fingerprint of text. A hit
// counts as a repeat request and may extend the entry's expiry.
func (c *LocalCache) Lookup(_ context.Context, text string, cat models.Category, lang models.Language) (Hit, bool) {
	fp := Fingerprint(textnorm.Normalize(text), cat, lang)
	if e, ok := c.hit(fp); ok {
		c.hits.Add(1)
		metrics.CacheLookups.WithLabelValues(string(TierLocal)).Inc()
		return Hit{Response: e.Response, Tier: TierLocal, Fingerprint: fp, Similarity: 1}, true
	}
	c.misses.Add(1)
	metrics.CacheLookups.WithLabelValues("miss").Inc()
	return Hit{}, false
}

// Store writes response under the fingerprint of text.
func (c *LocalCache) Store(_ context.Context, text string, cat models.Category, lang models.Language, response string) {
	norm := textnorm.Normalize(text)
	fp := Fingerprint(norm, cat, lang)
	now := c.now()
	count := int64(1)
	if prev, ok := c.entries.Peek(fp); ok && !prev.Expired(now) {
		count = prev.Count + 1
	}
	c.put(models.CacheEntry{
		Fingerprint: fp,
		Text:        norm,
		Category:    cat,
		Language:    lang,
		Response:    response,
		CreatedAt:   now,
		Count:       count,
		ExpiresAt:   now.Add(c.opts.TTL(len(response), count)),
	})
}

// Stats reports local counters.
func (c *LocalCache) Stats(context.Context) (models.CacheStats, error) {
	return models.CacheStats{
		LocalEntries: int64(c.entries.Len()),
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
	}, nil
}

// Purge drops every local entry.
func (c *LocalCache) Purge() {
	c.entries.Purge()
}

func (c *LocalCache) get(fp string) (localEntry, bool) {
	e, ok := c.entries.Get(fp)
	if !ok {
		return localEntry{}, false
	}
	if e.Expired(c.now()) {
		c.entries.Remove(fp)
		return localEntry{}, false
	}
	return e, true
}

// hit records one more request for fp. The expiry only ever moves later.
// Concurrent hits on one key may drop an increment; counts are advisory.
func (c *LocalCache) hit(fp string) (localEntry, bool) {
	e, ok := c.get(fp)
	if !ok {
		return localEntry{}, false
	}
	e.Count++
	e.unsynced++
	if exp := c.now().Add(c.opts.TTL(len(e.Response), e.Count)); exp.After(e.ExpiresAt) {
		e.ExpiresAt = exp
	}
	c.entries.Add(fp, e)
	return e, true
}

// synced marks n hits of fp as reported to the shared tier.
func (c *LocalCache) synced(fp string, n int64) {
	if e, ok := c.entries.Peek(fp); ok {
		e.unsynced = max(e.unsynced-n, 0)
		c.entries.Add(fp, e)
	}
}

func (c *LocalCache) put(e models.CacheEntry) {
	c.entries.Add(e.Fingerprint, localEntry{CacheEntry: e})
}
