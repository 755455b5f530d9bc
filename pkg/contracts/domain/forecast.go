package domain

import (
	"time"
)

// FeatureCount is the width of a FeatureVector
const FeatureCount = 9

// Horizons are the forecast offsets in days, in model output order
var Horizons = []int{14, 30, 90, 180, 365}

// QuantileLabel names one of the three quantile models
type QuantileLabel string

const (
	P10 QuantileLabel = "P10"
	P50 QuantileLabel = "P50"
	P90 QuantileLabel = "P90"
)

// QuantileLabels lists the labels in pessimistic → optimistic order
var QuantileLabels = []QuantileLabel{P10, P50, P90}

// FeatureVector holds the engineered features of one day.
// Field order matches the input layout the models were trained on.
type FeatureVector struct {
	DailyStreams       float64 `json:"daily_streams"`
	WeekOverWeekGrowth float64 `json:"week_over_week_growth"`
	Growth3dOver3d     float64 `json:"growth_3d_over_3d"`
	Growth7dOver7d     float64 `json:"growth_7d_over_7d"`
	CumulativeStreams  float64 `json:"cumulative_streams"`
	Mean3dStreams      float64 `json:"mean_3d_streams"`
	Mean7dStreams      float64 `json:"mean_7d_streams"`
	DailyChange        float64 `json:"daily_change"`
	DailyAcceleration  float64 `json:"daily_acceleration"`
}

// Values returns the features in model input order
func (f FeatureVector) Values() []float64 {
	return []float64{
		f.DailyStreams,
		f.WeekOverWeekGrowth,
		f.Growth3dOver3d,
		f.Growth7dOver7d,
		f.CumulativeStreams,
		f.Mean3dStreams,
		f.Mean7dStreams,
		f.DailyChange,
		f.DailyAcceleration,
	}
}

// FeatureNames lists the feature columns in model input order
var FeatureNames = []string{
	"daily_streams",
	"week_over_week_growth",
	"growth_3d_over_3d",
	"growth_7d_over_7d",
	"cumulative_streams",
	"mean_3d_streams",
	"mean_7d_streams",
	"daily_change",
	"daily_acceleration",
}

// PredictionWindow is the most recent fixed-length run of features of one track, oldest first
type PredictionWindow struct {
	TrackID      string          `json:"track_id"`
	Vectors      []FeatureVector `json:"vectors"`
	CurrentTotal float64         `json:"current_total"`
	EndDate      time.Time       `json:"end_date"`
}

// Matrix returns the window as rows of feature values
func (w PredictionWindow) Matrix() [][]float64 {
	rows := make([][]float64, len(w.Vectors))
	for i, v := range w.Vectors {
		rows[i] = v.Values()
	}
	return rows
}

// QuantileForecast is the forecast at one horizon, as cumulative stream totals
type QuantileForecast struct {
	HorizonDays int     `json:"horizon_days"`
	P10         float64 `json:"p10"`
	P50         float64 `json:"p50"`
	P90         float64 `json:"p90"`
}

// Value returns the total for a quantile label
func (q QuantileForecast) Value(label QuantileLabel) float64 {
	switch label {
	case P10:
		return q.P10
	case P50:
		return q.P50
	case P90:
		return q.P90
	default:
		return 0
	}
}

// TrackForecast holds all horizons for one track
type TrackForecast struct {
	TrackID      string                      `json:"track_id"`
	CurrentTotal float64                     `json:"current_total"`
	AsOf         time.Time                   `json:"as_of"`
	Quantiles    map[QuantileLabel][]float64 `json:"quantiles"`
	Horizons     []QuantileForecast          `json:"horizons"`
}

// Warning is a human-readable, non-fatal outcome attached to a report
type Warning struct {
	Code    string `json:"code"`
	TrackID string `json:"track_id,omitempty"`
	Message string `json:"message"`
}

// Warning codes
const (
	WarningNoValidData         = "NO_VALID_DATA"
	WarningInsufficientHistory = "INSUFFICIENT_HISTORY"
	WarningTrackSkipped        = "TRACK_SKIPPED"
)

// Report is the full outcome of processing one upload
type Report struct {
	UploadID            string          `json:"upload_id"`
	Filename            string          `json:"filename"`
	SourceFormat        string          `json:"source_format"`
	OriginalColumns     []string        `json:"original_columns"`
	StandardizedColumns []string        `json:"standardized_columns"`
	RowsRead            int             `json:"rows_read"`
	RowsDropped         int             `json:"rows_dropped"`
	Tracks              []TrackSummary  `json:"tracks"`
	Series              []TrackSeries   `json:"-"`
	Forecasts           []TrackForecast `json:"forecasts"`
	Warnings            []Warning       `json:"warnings,omitempty"`
	GeneratedAt         time.Time       `json:"generated_at"`
}

// HasForecasts reports whether at least one track produced a forecast
func (r *Report) HasForecasts() bool {
	return r != nil && len(r.Forecasts) > 0
}
