package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamcast/internal/config"
	"streamcast/internal/forecast"
	"streamcast/internal/infrastructure"
	"streamcast/pkg/contracts/domain"
)

func scrape(t *testing.T, providers *infrastructure.OTelProviders) string {
	t.Helper()
	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestHealthCheck(t *testing.T) {
	rt, err := infrastructure.NewRuntimeMetrics(nil)
	require.NoError(t, err)

	hs := NewHealthService("1.2.3", "", nil, nil, rt, infrastructure.NewDiscardLogger())
	status := hs.HealthCheck(context.Background())

	assert.Equal(t, StatusOK, status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	require.NotNil(t, status.Runtime)
	assert.Positive(t, status.Runtime.Goroutines)
}

func TestReadinessCheck(t *testing.T) {
	dir := t.TempDir()
	paths := &config.Paths{OutputDir: dir}

	tests := []struct {
		name   string
		models *forecast.ModelSet
		paths  *config.Paths
		want   string
	}{
		{"ready", testModels(), paths, StatusReady},
		{"no models", nil, paths, StatusNotReady},
		{"partial models", forecast.NewModelSet(map[domain.QuantileLabel]forecast.Model{
			domain.P50: constantModel("q50", 1),
		}), paths, StatusNotReady},
		{"missing output dir", testModels(), &config.Paths{OutputDir: filepath.Join(dir, "missing")}, StatusNotReady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthService("1.0.0", "", tt.models, tt.paths, nil, infrastructure.NewDiscardLogger())
			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.want, status.Status)
			assert.Contains(t, status.Checks, "models")
			assert.Contains(t, status.Checks, "output")
			assert.Equal(t, tt.want == StatusReady, hs.Ready(context.Background()))
		})
	}
}

func TestVersion(t *testing.T) {
	hs := NewHealthService("1.0.0", "2024-01-01T00:00:00Z", testModels(), nil, nil, infrastructure.NewDiscardLogger())
	info := hs.Version()

	assert.Equal(t, config.AppName, info.Name)
	assert.Equal(t, "1.0.0", info.Version)
	assert.Equal(t, "2024-01-01T00:00:00Z", info.BuildTime)
	assert.NotEmpty(t, info.GoVersion)
	assert.Equal(t, map[string]string{"P10": "q10", "P50": "q50", "P90": "q90"}, info.Models)
}
