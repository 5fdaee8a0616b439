package metrics

import (
	"net/http"
	"sort"
	"sync"
	"time"
)

// latencySample is one timed request
type latencySample struct {
	duration  time.Duration
	timestamp time.Time
	success   bool
}

// LatencyStats contains percentile statistics for one route
type LatencyStats struct {
	Operation    string    `json:"operation"`
	Count        int64     `json:"count"`
	P50          float64   `json:"p50_ms"`
	P95          float64   `json:"p95_ms"`
	P99          float64   `json:"p99_ms"`
	Mean         float64   `json:"mean_ms"`
	Min          float64   `json:"min_ms"`
	Max          float64   `json:"max_ms"`
	SuccessRate  float64   `json:"success_rate"`
	ErrorCount   int64     `json:"error_count"`
	LastRecorded time.Time `json:"last_recorded"`
}

// PerformanceCollector keeps a rolling window of request latencies per
// operation, an operation being "METHOD /route/template"
type PerformanceCollector struct {
	mu         sync.RWMutex
	samples    map[string][]latencySample
	maxSamples int           // per operation
	retention  time.Duration // samples older than this are dropped
	now        func() time.Time
}

// NewPerformanceCollector creates a new performance collector
func NewPerformanceCollector(maxSamples int, retention time.Duration) *PerformanceCollector {
	return &PerformanceCollector{
		samples:    make(map[string][]latencySample),
		maxSamples: maxSamples,
		retention:  retention,
		now:        time.Now,
	}
}

// RecordLatency records one measurement of op
func (pc *PerformanceCollector) RecordLatency(op string, duration time.Duration, success bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	now := pc.now()
	window := append(pc.samples[op], latencySample{
		duration:  duration,
		timestamp: now,
		success:   success,
	})

	if len(window) > pc.maxSamples {
		window = window[len(window)-pc.maxSamples:]
	}

	cutoff := now.Add(-pc.retention)
	first := sort.Search(len(window), func(i int) bool {
		return window[i].timestamp.After(cutoff)
	})
	pc.samples[op] = window[first:]
}

// GetLatencyStats summarises the window of op
func (pc *PerformanceCollector) GetLatencyStats(op string) *LatencyStats {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.statsLocked(op)
}

func (pc *PerformanceCollector) statsLocked(op string) *LatencyStats {
	window := pc.samples[op]
	if len(window) == 0 {
		return &LatencyStats{Operation: op}
	}

	durations := make([]float64, 0, len(window))
	var sum float64
	var failed int64
	for _, s := range window {
		ms := float64(s.duration) / float64(time.Millisecond)
		durations = append(durations, ms)
		sum += ms
		if !s.success {
			failed++
		}
	}
	sort.Float64s(durations)

	count := int64(len(durations))
	return &LatencyStats{
		Operation:    op,
		Count:        count,
		P50:          calculatePercentile(durations, 50),
		P95:          calculatePercentile(durations, 95),
		P99:          calculatePercentile(durations, 99),
		Mean:         sum / float64(count),
		Min:          durations[0],
		Max:          durations[len(durations)-1],
		SuccessRate:  float64(count-failed) / float64(count) * 100,
		ErrorCount:   failed,
		LastRecorded: window[len(window)-1].timestamp,
	}
}

// GetAllLatencyStats returns the stats of every operation seen, ordered by name
func (pc *PerformanceCollector) GetAllLatencyStats() []*LatencyStats {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	ops := make([]string, 0, len(pc.samples))
	for op := range pc.samples {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	stats := make([]*LatencyStats, 0, len(ops))
	for _, op := range ops {
		stats = append(stats, pc.statsLocked(op))
	}
	return stats
}

// Reset clears all collected samples
func (pc *PerformanceCollector) Reset() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.samples = make(map[string][]latencySample)
}

// Middleware times every request under its route template. Templates in
// skip are not recorded. A 5xx response counts as a failure.
func (pc *PerformanceCollector) Middleware(skip ...string) func(http.Handler) http.Handler {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			route := routePath(r)
			if skipped[route] {
				return
			}
			pc.RecordLatency(r.Method+" "+route, time.Since(start), wrapped.statusCode < http.StatusInternalServerError)
		})
	}
}

// calculatePercentile interpolates the percentile of sorted data
func calculatePercentile(sortedData []float64, percentile int) float64 {
	if len(sortedData) == 0 {
		return 0
	}

	if percentile <= 0 {
		return sortedData[0]
	}
	if percentile >= 100 {
		return sortedData[len(sortedData)-1]
	}

	rank := float64(percentile) / 100.0 * float64(len(sortedData)-1)
	lowerIndex := int(rank)
	upperIndex := lowerIndex + 1

	if upperIndex >= len(sortedData) {
		return sortedData[lowerIndex]
	}

	weight := rank - float64(lowerIndex)
	return sortedData[lowerIndex]*(1-weight) + sortedData[upperIndex]*weight
}
