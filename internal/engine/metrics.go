package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	ChatRequests          atomic.Int64
	Classifications       atomic.Int64
	ClassificationFailures atomic.Int64
	LLMCalls              atomic.Int64
	LLMErrors             atomic.Int64
	PrimarySearches       atomic.Int64
	BroadenedSearches     atomic.Int64
	RejectedLocations     atomic.Int64
	LoadMoreRequests      atomic.Int64
	UpstreamRequests      atomic.Int64
	UpstreamTimeouts      atomic.Int64
	UpstreamConnErrors    atomic.Int64
	UpstreamAPIErrors     atomic.Int64
	ContextStoreFailures  atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"chat_requests":           metrics.ChatRequests.Load(),
		"classifications":         metrics.Classifications.Load(),
		"classification_failures": metrics.ClassificationFailures.Load(),
		"llm_calls":               metrics.LLMCalls.Load(),
		"llm_errors":              metrics.LLMErrors.Load(),
		"primary_searches":        metrics.PrimarySearches.Load(),
		"broadened_searches":      metrics.BroadenedSearches.Load(),
		"rejected_locations":      metrics.RejectedLocations.Load(),
		"load_more_requests":      metrics.LoadMoreRequests.Load(),
		"upstream_requests":       metrics.UpstreamRequests.Load(),
		"upstream_timeouts":       metrics.UpstreamTimeouts.Load(),
		"upstream_conn_errors":    metrics.UpstreamConnErrors.Load(),
		"upstream_api_errors":     metrics.UpstreamAPIErrors.Load(),
		"context_store_failures":  metrics.ContextStoreFailures.Load(),
		"cache_hits":              hits,
		"cache_misses":            misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"chat_requests", "classifications", "classification_failures",
		"llm_calls", "llm_errors",
		"primary_searches", "broadened_searches", "rejected_locations", "load_more_requests",
		"upstream_requests", "upstream_timeouts", "upstream_conn_errors", "upstream_api_errors",
		"context_store_failures",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the chat and jobs sub-packages.
func IncrChatRequests()           { metrics.ChatRequests.Add(1) }
func IncrClassifications()        { metrics.Classifications.Add(1) }
func IncrClassificationFailures() { metrics.ClassificationFailures.Add(1) }
func IncrPrimarySearches()        { metrics.PrimarySearches.Add(1) }
func IncrBroadenedSearches()      { metrics.BroadenedSearches.Add(1) }
func IncrRejectedLocations()      { metrics.RejectedLocations.Add(1) }
func IncrLoadMoreRequests()       { metrics.LoadMoreRequests.Add(1) }
func IncrUpstreamRequests()       { metrics.UpstreamRequests.Add(1) }
func IncrUpstreamTimeouts()       { metrics.UpstreamTimeouts.Add(1) }
func IncrUpstreamConnErrors()     { metrics.UpstreamConnErrors.Add(1) }
func IncrUpstreamAPIErrors()      { metrics.UpstreamAPIErrors.Add(1) }
func IncrContextStoreFailures()   { metrics.ContextStoreFailures.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
