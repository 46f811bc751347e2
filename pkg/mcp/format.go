package mcp

import (
	"fmt"
	"strings"

	"github.com/pario-ai/promptsmith/pkg/models"
)

func formatResolution(resp models.PromptResponse) string {
	source := "generated"
	switch {
	case resp.RuleBased:
		source = "rule"
	case resp.Cached:
		source = "cached"
	}
	return fmt.Sprintf("%s\n\n[category: %s, language: %s, source: %s]", resp.Text, resp.Category, resp.Language, source)
}

func formatBudget(cat models.Category, lang models.Language, complexity float64, n, base int, temp float64) string {
	return fmt.Sprintf("Budget Preview\n"+
		"  Category:    %s\n"+
		"  Language:    %s\n"+
		"  Complexity:  %.2f\n"+
		"  Base:        %d\n"+
		"  Budget:      %d tokens\n"+
		"  Temperature: %.1f\n",
		cat, lang, complexity, base, n, temp)
}

// formatSummary formats per-outcome usage as a text table.
func formatSummary(rows []models.UsageSummary) string {
	if len(rows) == 0 {
		return "No usage data found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %8s %10s %12s\n", "Outcome", "Requests", "Tokens", "Avg Latency")
	b.WriteString(strings.Repeat("-", 43) + "\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-10s %8d %10d %10.0fms\n", r.Outcome, r.RequestCount, r.TotalTokens, r.AvgLatencyMs)
	}
	return b.String()
}

// formatTop lists the most requested fingerprints.
func formatTop(rows []models.TopRequest) string {
	if len(rows) == 0 {
		return "No repeated requests yet.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %-6s %-4s %8s\n", "Prompt", "Type", "Lang", "Requests")
	b.WriteString(strings.Repeat("-", 31) + "\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-10s %-6s %-4s %8d\n", r.Fingerprint, r.Category, r.Language, r.Count)
	}
	return b.String()
}

func formatCacheStats(stats models.CacheStats) string {
	total := stats.Hits + stats.Misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}
	return fmt.Sprintf("Cache Statistics\n"+
		"  Local entries:  %d\n"+
		"  Shared entries: %d\n"+
		"  Hits:           %d (approximate %d)\n"+
		"  Misses:         %d\n"+
		"  Hit rate:       %.1f%%\n"+
		"  Shared errors:  %d\n",
		stats.LocalEntries, stats.SharedEntries, stats.Hits, stats.ApproxHits, stats.Misses, hitRate, stats.SharedErrors)
}
