package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"streamcast/internal/config"
	"streamcast/internal/forecast"
	"streamcast/pkg/contracts/domain"
)

// setupWorkspace writes constant model artifacts and a config file pointing at them
func setupWorkspace(t *testing.T) (cfgPath, outDir string) {
	t.Helper()
	root := t.TempDir()
	modelsDir := filepath.Join(root, "models")
	require.NoError(t, os.MkdirAll(modelsDir, 0o755))

	cfg := config.Default()
	for label, bias := range map[string]float64{"p10": 0.1, "p50": 0.5, "p90": 0.9} {
		weights := make([][]float64, config.DefaultSequenceLength*domain.FeatureCount)
		for i := range weights {
			weights[i] = make([]float64, len(domain.Horizons))
		}
		biases := make([]float64, len(domain.Horizons))
		for i := range biases {
			biases[i] = bias
		}
		data, err := json.Marshal(forecast.ModelArtifact{
			Name:       "model_" + label,
			InputShape: []int{config.DefaultSequenceLength, domain.FeatureCount},
			Layers:     []forecast.DenseLayer{{Weights: weights, Bias: biases, Activation: forecast.ActivationLinear}},
		})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(modelsDir, "model_"+label+".json"), data, 0o644))
	}
	cfg.Forecast.Models = config.ModelFiles{P10: "model_p10.json", P50: "model_p50.json", P90: "model_p90.json"}
	cfg.Paths.ModelsDir = modelsDir
	cfg.Paths.OutputDir = filepath.Join(root, "output")
	cfg.Paths.LogsDir = filepath.Join(root, "logs")

	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	cfgPath = filepath.Join(root, "streamcast.yaml")
	require.NoError(t, os.WriteFile(cfgPath, data, 0o644))
	return cfgPath, cfg.Paths.OutputDir
}

func writeInput(t *testing.T, days int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Artist,Title,Streams,Date\n")
	for i := 0; i < days; i++ {
		day := time.Date(2024, 5, 1+i, 0, 0, 0, 0, time.UTC)
		fmt.Fprintf(&b, "Band,Hit,%d,%s\n", 500+i, day.Format("2006-01-02"))
	}
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestRun(t *testing.T) {
	cfgPath, outDir := setupWorkspace(t)
	input := writeInput(t, 20)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-in", input, "-config", cfgPath, "-xlsx"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	assert.Contains(t, stdout.String(), "tracks: 1, forecasts: 1")
	for _, name := range []string{config.CleanedCSVName, config.PredictionsCSVName, config.ReportXLSXName} {
		assert.FileExists(t, filepath.Join(outDir, name))
		assert.Contains(t, stdout.String(), name)
	}

	predictions, err := os.ReadFile(filepath.Join(outDir, config.PredictionsCSVName))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(predictions), "Horizon (days)"))
}

func TestRunBreakdownToExplicitDir(t *testing.T) {
	cfgPath, _ := setupWorkspace(t)
	input := writeInput(t, 14)
	out := t.TempDir()

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-in", input, "-config", cfgPath, "-out", out, "-variant", "breakdown"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	predictions, err := os.ReadFile(filepath.Join(out, config.PredictionsCSVName))
	require.NoError(t, err)
	assert.Contains(t, string(predictions), "Streams So Far")
	assert.NoFileExists(t, filepath.Join(out, config.ReportXLSXName))
}

func TestRunShortHistory(t *testing.T) {
	cfgPath, outDir := setupWorkspace(t)
	input := writeInput(t, 5)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-in", input, "-config", cfgPath}, &stdout, &stderr))

	assert.Contains(t, stdout.String(), "tracks: 1, forecasts: 0")
	assert.Contains(t, stdout.String(), domain.WarningInsufficientHistory)
	assert.FileExists(t, filepath.Join(outDir, config.CleanedCSVName))
	assert.NoFileExists(t, filepath.Join(outDir, config.PredictionsCSVName))
}

func TestRunErrors(t *testing.T) {
	cfgPath, _ := setupWorkspace(t)
	input := writeInput(t, 14)

	tests := []struct {
		name    string
		args    []string
		wantErr error
		msg     string
	}{
		{name: "missing input", args: []string{"-config", cfgPath}, wantErr: errUsage},
		{name: "bad variant", args: []string{"-in", input, "-config", cfgPath, "-variant", "fancy"}, wantErr: errUsage},
		{name: "missing file", args: []string{"-in", filepath.Join(t.TempDir(), "nope.csv"), "-config", cfgPath}, wantErr: os.ErrNotExist},
		{name: "bad config", args: []string{"-in", input, "-config", filepath.Join(t.TempDir(), "nope.yaml")}, msg: "failed to load config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args, &stdout, &stderr)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestRunMissingModels(t *testing.T) {
	cfgPath, _ := setupWorkspace(t)
	require.NoError(t, os.Remove(filepath.Join(filepath.Dir(cfgPath), "models", "model_p50.json")))

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-in", writeInput(t, 14), "-config", cfgPath}, &stdout, &stderr)

	var loadErr *forecast.ModelLoadError
	assert.ErrorAs(t, err, &loadErr)
}
