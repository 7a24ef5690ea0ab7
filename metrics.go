package main

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// HTTP metrics
var (
	httpRequestsTotal atomic.Int64
	httpErrorsTotal   atomic.Int64
)

// Relay metrics
var (
	droppedEventCount atomic.Int64
)

// Publish pipeline metrics
var (
	publishedTotal     atomic.Int64
	publishFailedTotal atomic.Int64
)

// Thread aggregation metrics
var (
	eventsIngestedTotal atomic.Int64
	duplicatesDropped   atomic.Int64
)

var serverStartTime = time.Now()

// ActiveConnections returns the current relay connection count
func (p *RelayPool) ActiveConnections() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.connections)
}

// metricsHandler serves Prometheus-compatible metrics
func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	// Build info metric
	fmt.Fprintf(w, "# HELP workbench_build_info Build and configuration information\n")
	fmt.Fprintf(w, "# TYPE workbench_build_info gauge\n")
	fmt.Fprintf(w, "workbench_build_info{cache_backend=%q,go_version=%q} 1\n\n", cacheBackendType, runtime.Version())

	// Process metrics
	fmt.Fprintf(w, "# HELP process_start_time_seconds Unix timestamp of process start\n")
	fmt.Fprintf(w, "# TYPE process_start_time_seconds gauge\n")
	fmt.Fprintf(w, "process_start_time_seconds %d\n\n", serverStartTime.Unix())

	fmt.Fprintf(w, "# HELP process_uptime_seconds Time since process started\n")
	fmt.Fprintf(w, "# TYPE process_uptime_seconds gauge\n")
	fmt.Fprintf(w, "process_uptime_seconds %.0f\n\n", time.Since(serverStartTime).Seconds())

	// Go runtime metrics
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	fmt.Fprintf(w, "# HELP go_goroutines Number of active goroutines\n")
	fmt.Fprintf(w, "# TYPE go_goroutines gauge\n")
	fmt.Fprintf(w, "go_goroutines %d\n\n", runtime.NumGoroutine())

	fmt.Fprintf(w, "# HELP go_memstats_alloc_bytes Currently allocated memory in bytes\n")
	fmt.Fprintf(w, "# TYPE go_memstats_alloc_bytes gauge\n")
	fmt.Fprintf(w, "go_memstats_alloc_bytes %d\n\n", memStats.Alloc)

	fmt.Fprintf(w, "# HELP go_memstats_sys_bytes Total memory obtained from the OS\n")
	fmt.Fprintf(w, "# TYPE go_memstats_sys_bytes gauge\n")
	fmt.Fprintf(w, "go_memstats_sys_bytes %d\n\n", memStats.Sys)

	fmt.Fprintf(w, "# HELP go_gc_cycles_total Number of completed GC cycles\n")
	fmt.Fprintf(w, "# TYPE go_gc_cycles_total counter\n")
	fmt.Fprintf(w, "go_gc_cycles_total %d\n\n", memStats.NumGC)

	// HTTP metrics
	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", httpRequestsTotal.Load())

	fmt.Fprintf(w, "# HELP http_errors_total Total number of HTTP 5xx errors\n")
	fmt.Fprintf(w, "# TYPE http_errors_total counter\n")
	fmt.Fprintf(w, "http_errors_total %d\n\n", httpErrorsTotal.Load())

	// Connection pool metrics
	fmt.Fprintf(w, "# HELP nostr_relay_connections_active Number of active relay connections\n")
	fmt.Fprintf(w, "# TYPE nostr_relay_connections_active gauge\n")
	fmt.Fprintf(w, "nostr_relay_connections_active %d\n\n", relayPool.ActiveConnections())

	// Publish metrics
	fmt.Fprintf(w, "# HELP nostr_events_published_total Events accepted by at least one relay\n")
	fmt.Fprintf(w, "# TYPE nostr_events_published_total counter\n")
	fmt.Fprintf(w, "nostr_events_published_total %d\n\n", publishedTotal.Load())

	fmt.Fprintf(w, "# HELP nostr_publish_failures_total Publish attempts rejected by every relay\n")
	fmt.Fprintf(w, "# TYPE nostr_publish_failures_total counter\n")
	fmt.Fprintf(w, "nostr_publish_failures_total %d\n\n", publishFailedTotal.Load())

	// Thread aggregation metrics
	fmt.Fprintf(w, "# HELP nostr_thread_events_ingested_total Events accepted into thread scopes\n")
	fmt.Fprintf(w, "# TYPE nostr_thread_events_ingested_total counter\n")
	fmt.Fprintf(w, "nostr_thread_events_ingested_total %d\n\n", eventsIngestedTotal.Load())

	fmt.Fprintf(w, "# HELP nostr_thread_duplicates_dropped_total Duplicate events dropped by thread scopes\n")
	fmt.Fprintf(w, "# TYPE nostr_thread_duplicates_dropped_total counter\n")
	fmt.Fprintf(w, "nostr_thread_duplicates_dropped_total %d\n\n", duplicatesDropped.Load())

	// Event metrics
	fmt.Fprintf(w, "# HELP nostr_events_dropped_total Events dropped due to full channels\n")
	fmt.Fprintf(w, "# TYPE nostr_events_dropped_total counter\n")
	fmt.Fprintf(w, "nostr_events_dropped_total %d\n\n", droppedEventCount.Load())

	// Thread scope gauge
	fmt.Fprintf(w, "# HELP nostr_thread_scopes_active Number of live thread scopes\n")
	fmt.Fprintf(w, "# TYPE nostr_thread_scopes_active gauge\n")
	fmt.Fprintf(w, "nostr_thread_scopes_active %d\n", threadScopes.Len())
}
