package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"streamcast/internal/config"
	"streamcast/internal/forecast"
	"streamcast/internal/infrastructure"
	"streamcast/pkg/contracts/domain"
)

// Health status values
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	models    *forecast.ModelSet
	paths     *config.Paths
	runtime   *infrastructure.RuntimeMetrics
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                       `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Version   string                       `json:"version"`
	Runtime   *infrastructure.RuntimeStats `json:"runtime,omitempty"`
	Checks    map[string]ServiceHealth     `json:"checks,omitempty"`
}

// ServiceHealth represents individual dependency health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// VersionInfo describes the running build
type VersionInfo struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	BuildTime string            `json:"build_time,omitempty"`
	GoVersion string            `json:"go_version"`
	OS        string            `json:"os"`
	Arch      string            `json:"arch"`
	StartTime time.Time         `json:"start_time"`
	Models    map[string]string `json:"models,omitempty"`
}

// NewHealthService creates a new health service. models, paths and rt may be nil.
func NewHealthService(version, buildTime string, models *forecast.ModelSet, paths *config.Paths, rt *infrastructure.RuntimeMetrics, logger *slog.Logger) *HealthService {
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		models:    models,
		paths:     paths,
		runtime:   rt,
		startTime: time.Now(),
		logger:    infrastructure.WithComponent(logger, "health_service"),
	}
}

// HealthCheck returns liveness with a runtime snapshot
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now().UTC(),
		Version:   hs.version,
	}
	if hs.runtime != nil {
		stats := hs.runtime.Snapshot()
		status.Runtime = &stats
	}
	hs.logger.DebugContext(ctx, "health check", slog.String("status", status.Status))
	return status
}

// ReadinessCheck reports whether uploads can be served: all quantile models
// loaded and the output directory writable.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now().UTC(),
		Version:   hs.version,
		Checks: map[string]ServiceHealth{
			"models": hs.checkModels(),
			"output": hs.checkOutputDir(),
		},
	}

	for name, check := range status.Checks {
		if check.Status != StatusReady {
			status.Status = StatusNotReady
			hs.logger.WarnContext(ctx, "readiness check failed",
				slog.String("check", name),
				slog.String("message", check.Message))
		}
	}
	return status
}

// Ready reports whether ReadinessCheck would succeed
func (hs *HealthService) Ready(ctx context.Context) bool {
	return hs.ReadinessCheck(ctx).Status == StatusReady
}

// Version returns version information
func (hs *HealthService) Version() VersionInfo {
	info := VersionInfo{
		Name:      config.AppName,
		Version:   hs.version,
		BuildTime: hs.buildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		StartTime: hs.startTime.UTC(),
	}
	if hs.models != nil {
		info.Models = make(map[string]string)
		for label, name := range hs.models.Names() {
			info.Models[string(label)] = name
		}
	}
	return info
}

func (hs *HealthService) checkModels() ServiceHealth {
	if hs.models == nil || !hs.models.Complete() {
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("%d quantile models required", len(domain.QuantileLabels)),
		}
	}
	return ServiceHealth{Status: StatusReady}
}

func (hs *HealthService) checkOutputDir() ServiceHealth {
	if hs.paths == nil {
		return ServiceHealth{Status: StatusReady, Message: "no output directory configured"}
	}
	info, err := os.Stat(hs.paths.OutputDir)
	if err != nil {
		return ServiceHealth{Status: StatusNotReady, Message: err.Error()}
	}
	if !info.IsDir() {
		return ServiceHealth{Status: StatusNotReady, Message: hs.paths.OutputDir + " is not a directory"}
	}
	return ServiceHealth{Status: StatusReady}
}
