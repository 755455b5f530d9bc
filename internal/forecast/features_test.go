package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamcast/pkg/contracts/domain"
)

const eps = 1e-6

func makeSeries(trackID string, values ...float64) domain.TrackSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	days := make([]domain.SeriesDay, len(values))
	for i, v := range values {
		days[i] = domain.SeriesDay{
			CanonicalRow: domain.CanonicalRow{TrackID: trackID, Date: start.AddDate(0, 0, i), DailyStreams: v},
			Day:          i + 1,
		}
	}
	return domain.TrackSeries{TrackID: trackID, Days: days}
}

func ramp(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(10 * (i + 1))
	}
	return values
}

func TestDeriveFeatures(t *testing.T) {
	features := DeriveFeatures(makeSeries("t", ramp(9)...), eps)
	require.Len(t, features, 9)

	first := features[0]
	assert.Equal(t, 10.0, first.DailyStreams)
	assert.InDelta(t, 10/eps, first.WeekOverWeekGrowth, 1e-3)
	assert.InDelta(t, 10/eps, first.Growth3dOver3d, 1e-3)
	assert.Equal(t, 10.0, first.CumulativeStreams)
	assert.Equal(t, 10.0, first.Mean3dStreams)
	assert.Equal(t, 10.0, first.Mean7dStreams)
	assert.Zero(t, first.DailyChange)
	assert.Zero(t, first.DailyAcceleration)

	second := features[1]
	assert.Equal(t, 10.0, second.DailyChange)
	assert.Equal(t, 10.0, second.DailyAcceleration)
	assert.Equal(t, 15.0, second.Mean3dStreams)

	third := features[2]
	assert.Equal(t, 10.0, third.DailyChange)
	assert.Zero(t, third.DailyAcceleration)
	assert.Equal(t, 20.0, third.Mean3dStreams)
	assert.Equal(t, 60.0, third.CumulativeStreams)

	// 3-day sum 20+30+40 against the sum three days earlier (10)
	assert.InDelta(t, 8.0, features[3].Growth3dOver3d, 1e-5)

	eighth := features[7]
	assert.InDelta(t, 7.0, eighth.WeekOverWeekGrowth, 1e-5)
	assert.InDelta(t, 34.0, eighth.Growth7dOver7d, 1e-4)
	assert.Equal(t, 50.0, eighth.Mean7dStreams)
	assert.Equal(t, 360.0, eighth.CumulativeStreams)
}

func TestDeriveFeaturesDeterministic(t *testing.T) {
	series := makeSeries("t", 3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8, 9, 7, 9, 3)

	assert.Equal(t, DeriveFeatures(series, eps), DeriveFeatures(series, eps))
}

func TestDeriveFeaturesUsesOnlyPastDays(t *testing.T) {
	full := makeSeries("t", 5, 0, 12, 7, 7, 30, 2, 9, 11, 4)
	prefix := domain.TrackSeries{TrackID: "t", Days: full.Days[:6]}

	fullFeatures := DeriveFeatures(full, eps)
	prefixFeatures := DeriveFeatures(prefix, eps)

	assert.Equal(t, prefixFeatures, fullFeatures[:6])
}

func TestDeriveFeaturesZeroGuard(t *testing.T) {
	features := DeriveFeatures(makeSeries("t", 0, 0, 0, 0, 0, 0, 0, 0), eps)
	for _, f := range features {
		for _, v := range f.Values() {
			assert.Zero(t, v)
		}
	}
}

func TestBuildWindow(t *testing.T) {
	t.Run("13 days is insufficient", func(t *testing.T) {
		_, err := BuildWindow(makeSeries("t", ramp(13)...), 14, eps)
		require.ErrorIs(t, err, ErrInsufficientHistory)

		var histErr *InsufficientHistoryError
		require.ErrorAs(t, err, &histErr)
		assert.Equal(t, 13, histErr.Have)
		assert.Equal(t, 14, histErr.Need)
	})

	t.Run("14 days is enough", func(t *testing.T) {
		series := makeSeries("t", ramp(14)...)
		window, err := BuildWindow(series, 14, eps)
		require.NoError(t, err)
		assert.Len(t, window.Vectors, 14)
		assert.Equal(t, series.Total(), window.CurrentTotal)
		assert.Equal(t, series.LastDate(), window.EndDate)
	})

	t.Run("keeps the most recent days oldest first", func(t *testing.T) {
		series := makeSeries("t", ramp(20)...)
		window, err := BuildWindow(series, 14, eps)
		require.NoError(t, err)
		assert.Equal(t, 70.0, window.Vectors[0].DailyStreams)
		assert.Equal(t, 200.0, window.Vectors[13].DailyStreams)

		matrix := window.Matrix()
		require.Len(t, matrix, 14)
		assert.Len(t, matrix[0], domain.FeatureCount)
	})
}
