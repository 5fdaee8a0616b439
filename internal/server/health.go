package server

import (
	"net/http"
	"time"

	"github.com/rmsconsole/rmsconsole/internal/metrics"
	"github.com/sirupsen/logrus"
)

// HealthResponse is the payload of GET /api/v1/health
type HealthResponse struct {
	Status        string                    `json:"status"`
	StartedAt     time.Time                 `json:"startedAt"`
	UptimeSeconds int64                     `json:"uptimeSeconds"`
	Workspaces    int                       `json:"workspaces"`
	StreamClients int                       `json:"streamClients"`
	Requests      *metrics.RequestStats     `json:"requests"`
	Runtime       *metrics.PerformanceStats `json:"runtime"`
	CPU           *metrics.CPUStats         `json:"cpu,omitempty"`
	Memory        *metrics.MemoryStats      `json:"memory,omitempty"`
	Host          *metrics.HostStats        `json:"host,omitempty"`
	Latency       []*metrics.LatencyStats   `json:"latency"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		StartedAt:     s.startTime,
		UptimeSeconds: s.systemMetrics.GetUptime(),
		Workspaces:    s.registry.Len(),
		StreamClients: s.hub.ClientCount(),
		Requests:      s.systemMetrics.GetRequestStats(),
		Runtime:       s.systemMetrics.GetPerformanceStats(),
		Latency:       s.performance.GetAllLatencyStats(),
	}

	// Host stats are best effort
	if cpuStats, err := s.systemMetrics.GetCPUStats(); err == nil {
		resp.CPU = cpuStats
	} else {
		logrus.WithError(err).Debug("Failed to read CPU stats")
	}
	if memStats, err := s.systemMetrics.GetMemoryUsage(); err == nil {
		resp.Memory = memStats
	} else {
		logrus.WithError(err).Debug("Failed to read memory stats")
	}
	if hostInfo, err := s.systemMetrics.GetHostInfo(); err == nil {
		resp.Host = hostInfo
	} else {
		logrus.WithError(err).Debug("Failed to read host info")
	}

	s.writeJSON(w, r, resp)
}
