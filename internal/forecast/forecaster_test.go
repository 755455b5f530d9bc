package forecast

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamcast/internal/config"
	"streamcast/internal/infrastructure"
	"streamcast/pkg/contracts/domain"
)

// growthModel always predicts the given growth at every horizon
func growthModel(name string, growth ...float64) Model {
	return FuncModel{ModelName: name, Fn: func(Tensor) []float64 {
		out := make([]float64, len(growth))
		for i, g := range growth {
			out[i] = math.Log1p(g)
		}
		return out
	}}
}

func flat(g float64) []float64 {
	return []float64{g, g, g, g, g}
}

func newTestForecaster(models map[domain.QuantileLabel]Model, opts ...Option) *Forecaster {
	opts = append([]Option{WithLogger(infrastructure.NewDiscardLogger())}, opts...)
	return New(NewModelSet(models), opts...)
}

func TestForecasterPredict(t *testing.T) {
	f := newTestForecaster(map[domain.QuantileLabel]Model{
		domain.P10: growthModel("q10", flat(100)...),
		domain.P50: growthModel("q50", 200, 400, 800, 1600, 3200),
		domain.P90: growthModel("q90", flat(1000)...),
	})
	series := makeSeries("t", ramp(14)...)

	forecast, err := f.Predict(context.Background(), series)
	require.NoError(t, err)

	current := series.Total()
	assert.Equal(t, "t", forecast.TrackID)
	assert.Equal(t, current, forecast.CurrentTotal)
	assert.Equal(t, series.LastDate(), forecast.AsOf)
	require.Len(t, forecast.Horizons, len(domain.Horizons))

	for i, h := range forecast.Horizons {
		assert.Equal(t, domain.Horizons[i], h.HorizonDays)
		assert.InDelta(t, current+100, h.P10, 1e-6)
		assert.InDelta(t, current+1000, h.P90, 1e-6)
	}
	assert.InDelta(t, current+3200, forecast.Horizons[4].P50, 1e-6)
	assert.Len(t, forecast.Quantiles[domain.P50], 5)
}

func TestForecasterInsufficientHistory(t *testing.T) {
	f := newTestForecaster(map[domain.QuantileLabel]Model{
		domain.P10: growthModel("q10", flat(1)...),
		domain.P50: growthModel("q50", flat(1)...),
		domain.P90: growthModel("q90", flat(1)...),
	})

	_, err := f.Predict(context.Background(), makeSeries("t", ramp(13)...))
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestForecasterDeterministic(t *testing.T) {
	dir := t.TempDir()
	artifact := constantArtifact("q", []float64{0.1, 0.2, 0.3, 0.4, 0.5})
	for i := range artifact.Layers[0].Weights {
		for j := range artifact.Layers[0].Weights[i] {
			artifact.Layers[0].Weights[i][j] = float64((i*7+j*3)%11-5) / 100
		}
	}
	files := config.ModelFiles{P10: "a.json", P50: "b.json", P90: "c.json"}
	for _, name := range []string{files.P10, files.P50, files.P90} {
		writeArtifact(t, dir, name, artifact)
	}
	set, err := LoadModelSet(context.Background(), ModelPaths(dir, files), infrastructure.NewDiscardLogger())
	require.NoError(t, err)

	f := New(set, WithLogger(infrastructure.NewDiscardLogger()))
	series := makeSeries("t", 5, 8, 13, 21, 34, 55, 89, 144, 89, 55, 34, 21, 13, 8, 5, 3)

	first, err := f.Predict(context.Background(), series)
	require.NoError(t, err)
	second, err := f.Predict(context.Background(), series)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestForecasterQuantilePolicy(t *testing.T) {
	models := map[domain.QuantileLabel]Model{
		domain.P10: growthModel("q10", flat(900)...),
		domain.P50: growthModel("q50", flat(100)...),
		domain.P90: growthModel("q90", flat(500)...),
	}
	series := makeSeries("t", ramp(14)...)
	current := series.Total()

	t.Run("none keeps model order", func(t *testing.T) {
		forecast, err := newTestForecaster(models).Predict(context.Background(), series)
		require.NoError(t, err)
		assert.InDelta(t, current+900, forecast.Horizons[0].P10, 1e-6)
	})

	t.Run("sort enforces ordering", func(t *testing.T) {
		forecast, err := newTestForecaster(models, WithQuantilePolicy(config.QuantilePolicySort)).Predict(context.Background(), series)
		require.NoError(t, err)
		for _, h := range forecast.Horizons {
			assert.InDelta(t, current+100, h.P10, 1e-6)
			assert.InDelta(t, current+500, h.P50, 1e-6)
			assert.InDelta(t, current+900, h.P90, 1e-6)
		}
	})
}

func TestForecasterErrors(t *testing.T) {
	series := makeSeries("t", ramp(14)...)

	t.Run("missing model", func(t *testing.T) {
		f := newTestForecaster(map[domain.QuantileLabel]Model{domain.P10: growthModel("q10", flat(1)...)})
		_, err := f.Predict(context.Background(), series)
		assert.ErrorIs(t, err, ErrModelUnavailable)
	})

	t.Run("wrong output width", func(t *testing.T) {
		f := newTestForecaster(map[domain.QuantileLabel]Model{
			domain.P10: growthModel("q10", 1, 2),
			domain.P50: growthModel("q50", flat(1)...),
			domain.P90: growthModel("q90", flat(1)...),
		})
		_, err := f.Predict(context.Background(), series)
		var shapeErr *ShapeError
		assert.ErrorAs(t, err, &shapeErr)
	})

	t.Run("non-finite output", func(t *testing.T) {
		inf := FuncModel{ModelName: "inf", Fn: func(Tensor) []float64 { return flat(math.Inf(1)) }}
		f := newTestForecaster(map[domain.QuantileLabel]Model{
			domain.P10: inf,
			domain.P50: growthModel("q50", flat(1)...),
			domain.P90: growthModel("q90", flat(1)...),
		})
		_, err := f.Predict(context.Background(), series)
		assert.Error(t, err)
	})
}

func TestPerWindowScaler(t *testing.T) {
	window, err := BuildWindow(makeSeries("t", ramp(20)...), 14, eps)
	require.NoError(t, err)

	scaled, err := PerWindowScaler{}.Transform(window.Matrix())
	require.NoError(t, err)
	require.Len(t, scaled, 14)

	for j := 0; j < domain.FeatureCount; j++ {
		mean, sq := 0.0, 0.0
		for _, r := range scaled {
			mean += r[j]
		}
		mean /= float64(len(scaled))
		for _, r := range scaled {
			sq += (r[j] - mean) * (r[j] - mean)
		}
		assert.InDelta(t, 0, mean, 1e-9, "feature %s mean", domain.FeatureNames[j])
		std := math.Sqrt(sq / float64(len(scaled)))
		// constant features stay at zero, varying ones get unit variance
		assert.True(t, math.Abs(std-1) < 1e-9 || std < 1e-9, "feature %s std %v", domain.FeatureNames[j], std)
	}

	// daily change of a linear ramp is constant after day one
	for _, r := range scaled {
		assert.Zero(t, r[7])
	}
}

func TestFixedScaler(t *testing.T) {
	stats := ScalerStats{Mean: make([]float64, 9), Scale: []float64{2, 2, 2, 2, 2, 2, 2, 2, 2}}
	scaler, err := NewFixedScaler(stats)
	require.NoError(t, err)

	rows := [][]float64{{2, 4, 6, 8, 10, 12, 14, 16, 18}}
	scaled, err := scaler.Transform(rows)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2, 3, 4, 5, 6, 7, 8, 9}}, scaled)

	_, err = NewFixedScaler(ScalerStats{Mean: make([]float64, 9), Scale: make([]float64, 9)})
	assert.Error(t, err)

	_, err = scaler.Transform([][]float64{{1, 2}})
	var shapeErr *ShapeError
	assert.ErrorAs(t, err, &shapeErr)
}

func TestNewScaler(t *testing.T) {
	s, err := NewScaler(config.ForecastConfig{Scaler: config.ScalerPerWindow})
	require.NoError(t, err)
	assert.Equal(t, config.ScalerPerWindow, s.Name())

	path := filepath.Join(t.TempDir(), "scaler.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mean":[0,0,0,0,0,0,0,0,0],"scale":[1,1,1,1,1,1,1,1,1]}`), 0o644))
	s, err = NewScaler(config.ForecastConfig{Scaler: config.ScalerFixed, ScalerStatsFile: path})
	require.NoError(t, err)
	assert.Equal(t, config.ScalerFixed, s.Name())

	_, err = NewScaler(config.ForecastConfig{Scaler: "bogus"})
	assert.Error(t, err)
}
