package metrics

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemMetricsTracker tracks process uptime, host resources and request counts
type SystemMetricsTracker struct {
	startTime      time.Time
	requestCount   atomic.Uint64
	errorCount     atomic.Uint64
	totalLatencyMs atomic.Uint64
}

// NewSystemMetrics creates a new SystemMetricsTracker instance
func NewSystemMetrics() *SystemMetricsTracker {
	return &SystemMetricsTracker{
		startTime: time.Now(),
	}
}

// GetUptime returns the process uptime in seconds
func (sm *SystemMetricsTracker) GetUptime() int64 {
	return int64(time.Since(sm.startTime).Seconds())
}

// StartTime returns when the tracker was created
func (sm *SystemMetricsTracker) StartTime() time.Time {
	return sm.startTime
}

// CPUStats represents CPU usage and information
type CPUStats struct {
	UsagePercent float64 `json:"usage_percent"`
	LogicalCores int     `json:"logical_cores"`
}

// GetCPUStats returns CPU usage since the previous call and the core count.
// It does not block to sample.
func (sm *SystemMetricsTracker) GetCPUStats() (*CPUStats, error) {
	usagePercent := 0.0
	percentages, err := cpu.Percent(0, false)
	if err == nil && len(percentages) > 0 {
		usagePercent = percentages[0]
	}

	logicalCores, err := cpu.Counts(true)
	if err != nil {
		return nil, err
	}

	return &CPUStats{
		UsagePercent: usagePercent,
		LogicalCores: logicalCores,
	}, nil
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	UsedPercent float64 `json:"used_percent"`
	UsedBytes   uint64  `json:"used_bytes"`
	TotalBytes  uint64  `json:"total_bytes"`
	FreeBytes   uint64  `json:"free_bytes"`
}

// GetMemoryUsage returns current memory usage statistics
func (sm *SystemMetricsTracker) GetMemoryUsage() (*MemoryStats, error) {
	memInfo, err := mem.VirtualMemory()
	if err != nil {
		return nil, err
	}

	return &MemoryStats{
		UsedPercent: memInfo.UsedPercent,
		UsedBytes:   memInfo.Used,
		TotalBytes:  memInfo.Total,
		FreeBytes:   memInfo.Free,
	}, nil
}

// HostStats identifies the machine the console runs on
type HostStats struct {
	Hostname      string `json:"hostname"`
	OS            string `json:"os"`
	Platform      string `json:"platform"`
	UptimeSeconds uint64 `json:"uptime_seconds"`
}

// GetHostInfo returns host identification
func (sm *SystemMetricsTracker) GetHostInfo() (*HostStats, error) {
	info, err := host.Info()
	if err != nil {
		return nil, err
	}
	return &HostStats{
		Hostname:      info.Hostname,
		OS:            info.OS,
		Platform:      info.Platform,
		UptimeSeconds: info.Uptime,
	}, nil
}

// RequestStats represents request tracking statistics
type RequestStats struct {
	TotalRequests  uint64  `json:"total_requests"`
	TotalErrors    uint64  `json:"total_errors"`
	AverageLatency float64 `json:"average_latency_ms"`
	RequestsPerSec float64 `json:"requests_per_sec"`
}

// GetRequestStats returns request tracking statistics
func (sm *SystemMetricsTracker) GetRequestStats() *RequestStats {
	totalRequests := sm.requestCount.Load()
	totalErrors := sm.errorCount.Load()
	totalLatency := sm.totalLatencyMs.Load()

	var avgLatency float64
	if totalRequests > 0 {
		avgLatency = float64(totalLatency) / float64(totalRequests)
	}

	uptime := time.Since(sm.startTime).Seconds()
	var reqPerSec float64
	if uptime > 0 {
		reqPerSec = float64(totalRequests) / uptime
	}

	return &RequestStats{
		TotalRequests:  totalRequests,
		TotalErrors:    totalErrors,
		AverageLatency: avgLatency,
		RequestsPerSec: reqPerSec,
	}
}

// PerformanceStats represents Go runtime statistics
type PerformanceStats struct {
	Uptime      int64   `json:"uptime_seconds"`
	GoRoutines  int     `json:"goroutines"`
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	HeapSysMB   float64 `json:"heap_sys_mb"`
	GCRuns      uint32  `json:"gc_runs"`
}

// GetPerformanceStats returns runtime statistics
func (sm *SystemMetricsTracker) GetPerformanceStats() *PerformanceStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return &PerformanceStats{
		Uptime:      sm.GetUptime(),
		GoRoutines:  runtime.NumGoroutine(),
		HeapAllocMB: float64(ms.HeapAlloc) / 1024 / 1024,
		HeapSysMB:   float64(ms.HeapSys) / 1024 / 1024,
		GCRuns:      ms.NumGC,
	}
}

// RecordRequest records a request with its latency
func (sm *SystemMetricsTracker) RecordRequest(latencyMs uint64, isError bool) {
	sm.requestCount.Add(1)
	sm.totalLatencyMs.Add(latencyMs)
	if isError {
		sm.errorCount.Add(1)
	}
}
