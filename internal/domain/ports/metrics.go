package ports

import (
	"time"

	"github.com/fredcamaral/carousel/internal/domain/entities"
)

// Metrics receives runtime measurements from the HTTP and export layers
type Metrics interface {
	RecordRequest(status int)
	RecordConnection()
	RecordCapture(d time.Duration)
	RecordExport(mode entities.ExportMode, d time.Duration, err error)
}

// Monitor is a Metrics sink that can report process health
type Monitor interface {
	Metrics
	Health() HealthStatus
}

// HealthStatus is the body of GET /api/health
type HealthStatus struct {
	Healthy    bool      `json:"healthy"`
	StartedAt  time.Time `json:"startedAt"`
	Uptime     string    `json:"uptime"`
	MemoryMB   int64     `json:"memoryMb"`
	HeapMB     int64     `json:"heapMb"`
	Goroutines int       `json:"goroutines"`
	GCCycles   uint32    `json:"gcCycles"`

	Requests         int64            `json:"requests"`
	ServerErrors     int64            `json:"serverErrors"`
	Connections      int64            `json:"websocketConnections"`
	Captures         int64            `json:"captures"`
	AverageCaptureMs int64            `json:"averageCaptureMs"`
	Exports          map[string]int64 `json:"exports"`
	ExportFailures   int64            `json:"exportFailures"`
}

// NopMetrics discards every measurement
type NopMetrics struct{}

func (NopMetrics) RecordRequest(int)                                      {}
func (NopMetrics) RecordConnection()                                      {}
func (NopMetrics) RecordCapture(time.Duration)                            {}
func (NopMetrics) RecordExport(entities.ExportMode, time.Duration, error) {}
