package models

import "time"

// CacheEntry stores a resolved prompt keyed by its fingerprint.
type CacheEntry struct {
	Fingerprint string    `json:"fingerprint"`
	Text        string    `json:"text"` // normalized request text, kept for similarity scans
	Category    Category  `json:"category"`
	Language    Language  `json:"language"`
	Response    string    `json:"response"`
	CreatedAt   time.Time `json:"created_at"`
	Count       int64     `json:"count"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the entry is past its expiry at now.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// CacheStats reports cache performance metrics.
type CacheStats struct {
	LocalEntries  int64 `json:"local_entries"`
	SharedEntries int64 `json:"shared_entries"`
	Hits          int64 `json:"hits"`
	ApproxHits    int64 `json:"approx_hits"`
	Misses        int64 `json:"misses"`
	SharedErrors  int64 `json:"shared_errors"`
}
