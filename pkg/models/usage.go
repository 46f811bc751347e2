package models

import "time"

// Outcome records how a request was resolved.
type Outcome string

const (
	OutcomeRule     Outcome = "rule"
	OutcomeCache    Outcome = "cache"
	OutcomeUpstream Outcome = "upstream"
	OutcomeError    Outcome = "error"
)

// UsageRecord tracks a single resolution.
type UsageRecord struct {
	ID          int64     `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Category    Category  `json:"category"`
	Language    Language  `json:"language"`
	Outcome     Outcome   `json:"outcome"`
	Budget      int       `json:"budget"`
	TotalTokens int       `json:"total_tokens"`
	LatencyMs   int64     `json:"latency_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// UsageSummary aggregates resolutions by outcome.
type UsageSummary struct {
	Outcome      Outcome `json:"outcome"`
	RequestCount int     `json:"request_count"`
	TotalTokens  int     `json:"total_tokens"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// TopRequest is a frequently requested fingerprint.
type TopRequest struct {
	Fingerprint string   `json:"fingerprint"`
	Category    Category `json:"category"`
	Language    Language `json:"language"`
	Count       int      `json:"count"`
}
