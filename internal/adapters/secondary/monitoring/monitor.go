// Package monitoring keeps the process counters behind the health endpoint.
package monitoring

import (
	"context"
	"math"
	"net/http"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
)

const (
	sampleInterval = 30 * time.Second

	maxHealthyMemory     = int64(500 * 1024 * 1024)
	maxHealthyGoroutines = 1000

	// weight of the newest sample in the capture time moving average
	captureAlpha = 0.1
)

type memorySample struct {
	alloc      int64
	heap       int64
	goroutines int
	gcCycles   uint32
}

// Monitor implements ports.Monitor
type Monitor struct {
	clock     ports.TimeProvider
	logger    *zap.Logger
	startedAt time.Time

	mu             sync.RWMutex
	memory         memorySample
	requests       int64
	serverErrors   int64
	connections    int64
	captures       int64
	averageCapture time.Duration
	exports        map[entities.ExportMode]int64
	exportFailures int64

	running bool
	stopCh  chan struct{}
}

// NewMonitor creates a monitor; memory is sampled once immediately
func NewMonitor(clock ports.TimeProvider, logger *zap.Logger) *Monitor {
	if clock == nil {
		clock = ports.NewRealTimeProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		clock:     clock,
		logger:    logger.Named("monitor"),
		startedAt: clock.Now(),
		exports:   make(map[entities.ExportMode]int64),
		stopCh:    make(chan struct{}),
	}
	m.sample()
	return m
}

// Start samples memory periodically until ctx is done or Stop is called
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true

	go m.collect(ctx)
}

// Stop ends periodic sampling
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.running = false
	close(m.stopCh)
}

func (m *Monitor) collect(ctx context.Context) {
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sample()
			if h := m.Health(); !h.Healthy {
				m.logger.Warn("Process unhealthy",
					zap.Int64("memory_mb", h.MemoryMB),
					zap.Int("goroutines", h.Goroutines))
			}
		}
	}
}

func (m *Monitor) sample() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	s := memorySample{
		alloc:      safeUint64ToInt64(stats.Alloc),
		heap:       safeUint64ToInt64(stats.HeapAlloc),
		goroutines: runtime.NumGoroutine(),
		gcCycles:   stats.NumGC,
	}

	m.mu.Lock()
	m.memory = s
	m.mu.Unlock()
}

// RecordRequest counts one served HTTP request
func (m *Monitor) RecordRequest(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	if status >= http.StatusInternalServerError {
		m.serverErrors++
	}
}

// RecordConnection counts one accepted websocket client
func (m *Monitor) RecordConnection() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connections++
}

// RecordCapture folds one frame capture into the moving average
func (m *Monitor) RecordCapture(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.captures++
	if m.averageCapture == 0 {
		m.averageCapture = d
		return
	}
	m.averageCapture = time.Duration(float64(m.averageCapture)*(1-captureAlpha) + float64(d)*captureAlpha)
}

// RecordExport counts one finished export
func (m *Monitor) RecordExport(mode entities.ExportMode, d time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.exportFailures++
		return
	}
	m.exports[mode]++
	m.logger.Debug("Export recorded", zap.String("mode", string(mode)), zap.Duration("duration", d))
}

// Health returns the current counters and the last memory sample
func (m *Monitor) Health() ports.HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	exports := make(map[string]int64, len(m.exports))
	for mode, n := range m.exports {
		exports[string(mode)] = n
	}

	return ports.HealthStatus{
		Healthy:          m.memory.alloc < maxHealthyMemory && m.memory.goroutines < maxHealthyGoroutines,
		StartedAt:        m.startedAt,
		Uptime:           m.clock.Since(m.startedAt).Round(time.Second).String(),
		MemoryMB:         m.memory.alloc / (1024 * 1024),
		HeapMB:           m.memory.heap / (1024 * 1024),
		Goroutines:       m.memory.goroutines,
		GCCycles:         m.memory.gcCycles,
		Requests:         m.requests,
		ServerErrors:     m.serverErrors,
		Connections:      m.connections,
		Captures:         m.captures,
		AverageCaptureMs: m.averageCapture.Milliseconds(),
		Exports:          exports,
		ExportFailures:   m.exportFailures,
	}
}

// safeUint64ToInt64 caps val at the largest int64
func safeUint64ToInt64(val uint64) int64 {
	if val > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(val)
}

var _ ports.Monitor = (*Monitor)(nil)
