package forecast

import (
	"math"

	"streamcast/pkg/contracts/domain"
)

// Rolling windows and lags used by the engineered features
const (
	shortWindow = 3
	longWindow  = 7
)

// DeriveFeatures computes the engineered features of every day of a series.
// Each day only looks at itself and earlier days of the same series.
func DeriveFeatures(series domain.TrackSeries, epsilon float64) []domain.FeatureVector {
	streams := series.Streams()
	n := len(streams)
	if n == 0 {
		return nil
	}

	sum3 := rollingSum(streams, shortWindow)
	sum7 := rollingSum(streams, longWindow)
	lag7 := shift(streams, longWindow)
	sum3Lag := shift(sum3, shortWindow)
	sum7Lag := shift(sum7, longWindow)

	features := make([]domain.FeatureVector, n)
	cumulative := 0.0
	prevChange := 0.0

	for i, v := range streams {
		cumulative += v

		change := 0.0
		if i > 0 {
			change = v - streams[i-1]
		}
		acceleration := 0.0
		if i > 0 {
			acceleration = change - prevChange
		}
		prevChange = change

		features[i] = domain.FeatureVector{
			DailyStreams:       v,
			WeekOverWeekGrowth: growth(v, lag7[i], epsilon),
			Growth3dOver3d:     growth(sum3[i], sum3Lag[i], epsilon),
			Growth7dOver7d:     growth(sum7[i], sum7Lag[i], epsilon),
			CumulativeStreams:  cumulative,
			Mean3dStreams:      sum3[i] / float64(min(i+1, shortWindow)),
			Mean7dStreams:      sum7[i] / float64(min(i+1, longWindow)),
			DailyChange:        change,
			DailyAcceleration:  acceleration,
		}
	}

	return features
}

// growth is the relative change of current over previous, guarded by epsilon.
// Non-finite results are reported as 0.
func growth(current, previous, epsilon float64) float64 {
	g := (current - previous) / (previous + epsilon)
	if math.IsNaN(g) || math.IsInf(g, 0) {
		return 0
	}
	return g
}

// rollingSum returns the trailing sum over window values; the window shrinks at the start
func rollingSum(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		start := max(0, i-window+1)
		s := 0.0
		for _, v := range values[start : i+1] {
			s += v
		}
		out[i] = s
	}
	return out
}

// shift returns values lagged by n positions, 0 where no earlier value exists
func shift(values []float64, n int) []float64 {
	out := make([]float64, len(values))
	for i := n; i < len(values); i++ {
		out[i] = values[i-n]
	}
	return out
}
