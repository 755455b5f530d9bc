package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeStats is a point-in-time view of the process
type RuntimeStats struct {
	Goroutines    int     `json:"goroutines"`
	HeapAllocMB   float64 `json:"heap_alloc_mb"`
	SystemMB      float64 `json:"system_mb"`
	GCCount       uint32  `json:"gc_count"`
	CPUCount      int     `json:"cpu_count"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// RuntimeMetrics exports Go runtime gauges and serves snapshots for health checks
type RuntimeMetrics struct {
	startTime    time.Time
	registration metric.Registration
}

// NewRuntimeMetrics registers observable runtime gauges on the meter.
// Values are read on each collection, so there is no polling goroutine.
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	rm := &RuntimeMetrics{startTime: time.Now()}
	if meter == nil {
		return rm, nil
	}

	goroutines, err := meter.Int64ObservableGauge(
		"process_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, fmt.Errorf("goroutine gauge: %w", err)
	}

	heap, err := meter.Int64ObservableGauge(
		"process_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("heap gauge: %w", err)
	}

	uptime, err := meter.Float64ObservableGauge(
		"process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("uptime gauge: %w", err)
	}

	rm.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		o.ObserveInt64(goroutines, int64(runtime.NumGoroutine()))
		o.ObserveInt64(heap, int64(mem.HeapAlloc))
		o.ObserveFloat64(uptime, time.Since(rm.startTime).Seconds())
		return nil
	}, goroutines, heap, uptime)
	if err != nil {
		return nil, fmt.Errorf("register runtime callback: %w", err)
	}

	return rm, nil
}

// Snapshot collects the current runtime statistics
func (rm *RuntimeMetrics) Snapshot() RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeStats{
		Goroutines:    runtime.NumGoroutine(),
		HeapAllocMB:   float64(mem.HeapAlloc) / 1024 / 1024,
		SystemMB:      float64(mem.Sys) / 1024 / 1024,
		GCCount:       mem.NumGC,
		CPUCount:      runtime.NumCPU(),
		UptimeSeconds: time.Since(rm.startTime).Seconds(),
	}
}

// Uptime reports how long the metrics have been registered
func (rm *RuntimeMetrics) Uptime() time.Duration {
	return time.Since(rm.startTime)
}

// Close unregisters the gauge callback
func (rm *RuntimeMetrics) Close() error {
	if rm.registration == nil {
		return nil
	}
	return rm.registration.Unregister()
}
