package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/go-playground/validator/v10"

	"streamcast/internal/config"
	"streamcast/pkg/contracts/domain"
)

// zeroScale is the standard deviation below which a feature is treated as constant
const zeroScale = 10 * 2.220446049250313e-16

// Scaler standardizes a window of feature rows
type Scaler interface {
	Name() string
	Transform(rows [][]float64) ([][]float64, error)
}

// PerWindowScaler standardizes each feature with the mean and population
// standard deviation of the window itself. Constant features scale by 1.
type PerWindowScaler struct{}

// Name returns the strategy name
func (PerWindowScaler) Name() string { return config.ScalerPerWindow }

// Transform returns a standardized copy of rows
func (PerWindowScaler) Transform(rows [][]float64) ([][]float64, error) {
	if err := checkRows(rows); err != nil {
		return nil, err
	}
	mean, scale := fitStats(rows)
	return apply(rows, mean, scale), nil
}

// ScalerStats are training-time feature statistics, one entry per feature
type ScalerStats struct {
	Mean  []float64 `json:"mean" validate:"len=9"`
	Scale []float64 `json:"scale" validate:"len=9,dive,gt=0"`
}

// FixedScaler standardizes with statistics captured at training time
type FixedScaler struct {
	stats ScalerStats
}

// NewFixedScaler validates stats and returns a scaler using them
func NewFixedScaler(stats ScalerStats) (*FixedScaler, error) {
	if err := validator.New().Struct(stats); err != nil {
		return nil, fmt.Errorf("invalid scaler stats: %w", err)
	}
	return &FixedScaler{stats: stats}, nil
}

// LoadFixedScaler reads ScalerStats from a JSON file
func LoadFixedScaler(path string) (*FixedScaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler stats: %w", err)
	}
	var stats ScalerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("decode scaler stats %s: %w", path, err)
	}
	return NewFixedScaler(stats)
}

// Name returns the strategy name
func (s *FixedScaler) Name() string { return config.ScalerFixed }

// Transform returns a standardized copy of rows
func (s *FixedScaler) Transform(rows [][]float64) ([][]float64, error) {
	if err := checkRows(rows); err != nil {
		return nil, err
	}
	return apply(rows, s.stats.Mean, s.stats.Scale), nil
}

// NewScaler builds the scaler selected by configuration
func NewScaler(cfg config.ForecastConfig) (Scaler, error) {
	switch cfg.Scaler {
	case config.ScalerFixed:
		return LoadFixedScaler(cfg.ScalerStatsFile)
	case config.ScalerPerWindow, "":
		return PerWindowScaler{}, nil
	default:
		return nil, fmt.Errorf("unknown scaler strategy %q", cfg.Scaler)
	}
}

func checkRows(rows [][]float64) error {
	if len(rows) == 0 {
		return &ShapeError{What: "scaler rows", Want: 1, Got: 0}
	}
	for _, r := range rows {
		if len(r) != domain.FeatureCount {
			return &ShapeError{What: "scaler features", Want: domain.FeatureCount, Got: len(r)}
		}
	}
	return nil
}

// fitStats returns the per-column mean and population standard deviation
func fitStats(rows [][]float64) (mean, scale []float64) {
	cols := len(rows[0])
	n := float64(len(rows))
	mean = make([]float64, cols)
	scale = make([]float64, cols)

	for _, r := range rows {
		for j, v := range r {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}

	for _, r := range rows {
		for j, v := range r {
			d := v - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] < zeroScale {
			scale[j] = 1
		}
	}
	return mean, scale
}

func apply(rows [][]float64, mean, scale []float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		scaled := make([]float64, len(r))
		for j, v := range r {
			scaled[j] = (v - mean[j]) / scale[j]
		}
		out[i] = scaled
	}
	return out
}
