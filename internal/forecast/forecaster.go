package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"streamcast/internal/config"
	"streamcast/internal/infrastructure"
	"streamcast/pkg/contracts/domain"
)

// TracerName is the instrumentation scope of forecaster spans
const TracerName = "streamcast/forecast"

// Forecaster turns a normalized series into quantile forecasts of cumulative streams
type Forecaster struct {
	models  *ModelSet
	scaler  Scaler
	seqLen  int
	epsilon float64
	policy  string
	logger  *slog.Logger
}

// Option configures a Forecaster
type Option func(*Forecaster)

// WithScaler sets the window scaling strategy
func WithScaler(s Scaler) Option {
	return func(f *Forecaster) { f.scaler = s }
}

// WithSequenceLength sets the number of days fed to the models
func WithSequenceLength(n int) Option {
	return func(f *Forecaster) {
		if n > 0 {
			f.seqLen = n
		}
	}
}

// WithEpsilon sets the division guard of the growth features
func WithEpsilon(eps float64) Option {
	return func(f *Forecaster) {
		if eps > 0 {
			f.epsilon = eps
		}
	}
}

// WithQuantilePolicy sets how the three quantiles are reconciled per horizon
func WithQuantilePolicy(policy string) Option {
	return func(f *Forecaster) { f.policy = policy }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(f *Forecaster) { f.logger = infrastructure.WithComponent(logger, "forecaster") }
}

// New creates a Forecaster over a loaded model set
func New(models *ModelSet, opts ...Option) *Forecaster {
	f := &Forecaster{
		models:  models,
		scaler:  PerWindowScaler{},
		seqLen:  config.DefaultSequenceLength,
		epsilon: config.DefaultEpsilon,
		policy:  config.QuantilePolicyNone,
		logger:  infrastructure.WithComponent(nil, "forecaster"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewFromConfig creates a Forecaster with the scaler and policy selected by configuration.
// Models that declare an input shape must match the configured window.
func NewFromConfig(cfg config.ForecastConfig, models *ModelSet, logger *slog.Logger) (*Forecaster, error) {
	if err := models.CheckInputShape(cfg.SequenceLength, domain.FeatureCount); err != nil {
		return nil, err
	}
	scaler, err := NewScaler(cfg)
	if err != nil {
		return nil, err
	}
	return New(models,
		WithScaler(scaler),
		WithSequenceLength(cfg.SequenceLength),
		WithEpsilon(cfg.Epsilon),
		WithQuantilePolicy(cfg.QuantilePolicy),
		WithLogger(logger),
	), nil
}

// SequenceLength returns the minimum number of days a series needs
func (f *Forecaster) SequenceLength() int {
	return f.seqLen
}

// Predict forecasts one track. A series shorter than the sequence length
// yields an *InsufficientHistoryError.
func (f *Forecaster) Predict(ctx context.Context, series domain.TrackSeries) (*domain.TrackForecast, error) {
	ctx, span := otel.Tracer(TracerName).Start(ctx, "forecast.predict")
	defer span.End()
	span.SetAttributes(
		attribute.String("track_id", series.TrackID),
		attribute.Int("days", series.Len()),
	)

	window, err := BuildWindow(series, f.seqLen, f.epsilon)
	if err != nil {
		if errors.Is(err, ErrInsufficientHistory) {
			span.SetAttributes(attribute.Bool("insufficient_history", true))
			f.logger.InfoContext(ctx, "not enough history for a prediction",
				slog.String("track_id", series.TrackID),
				slog.Int("days", series.Len()),
				slog.Int("required", f.seqLen))
		}
		return nil, err
	}

	forecast, err := f.PredictWindow(ctx, window)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "prediction failed")
		return nil, err
	}
	return forecast, nil
}

// PredictWindow runs the three quantile models on a prepared window and converts
// their log1p growth outputs to cumulative totals.
func (f *Forecaster) PredictWindow(ctx context.Context, window domain.PredictionWindow) (*domain.TrackForecast, error) {
	scaled, err := f.scaler.Transform(window.Matrix())
	if err != nil {
		return nil, fmt.Errorf("scale window: %w", err)
	}
	input := NewWindowTensor(scaled)

	quantiles := make(map[domain.QuantileLabel][]float64, len(domain.QuantileLabels))
	for _, label := range domain.QuantileLabels {
		model, err := f.models.Get(label)
		if err != nil {
			return nil, err
		}

		raw, err := model.Predict(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("%s model %s: %w", label, model.Name(), err)
		}
		if len(raw) != len(domain.Horizons) {
			return nil, &ShapeError{What: fmt.Sprintf("%s model outputs", label), Want: len(domain.Horizons), Got: len(raw)}
		}

		totals := make([]float64, len(raw))
		for i, v := range raw {
			totals[i] = math.Expm1(v) + window.CurrentTotal
			if math.IsNaN(totals[i]) || math.IsInf(totals[i], 0) {
				return nil, fmt.Errorf("%s model produced a non-finite value at horizon %d", label, domain.Horizons[i])
			}
		}
		quantiles[label] = totals
	}

	if f.policy == config.QuantilePolicySort {
		sortQuantiles(quantiles)
	}

	horizons := make([]domain.QuantileForecast, len(domain.Horizons))
	for i, h := range domain.Horizons {
		horizons[i] = domain.QuantileForecast{
			HorizonDays: h,
			P10:         quantiles[domain.P10][i],
			P50:         quantiles[domain.P50][i],
			P90:         quantiles[domain.P90][i],
		}
	}

	f.logger.DebugContext(ctx, "track forecast computed",
		slog.String("track_id", window.TrackID),
		slog.Float64("current_total", window.CurrentTotal),
		slog.String("scaler", f.scaler.Name()))

	return &domain.TrackForecast{
		TrackID:      window.TrackID,
		CurrentTotal: window.CurrentTotal,
		AsOf:         window.EndDate,
		Quantiles:    quantiles,
		Horizons:     horizons,
	}, nil
}

// sortQuantiles reorders the three values of every horizon so P10 <= P50 <= P90
func sortQuantiles(q map[domain.QuantileLabel][]float64) {
	for i := range q[domain.P50] {
		v := []float64{q[domain.P10][i], q[domain.P50][i], q[domain.P90][i]}
		sort.Float64s(v)
		q[domain.P10][i], q[domain.P50][i], q[domain.P90][i] = v[0], v[1], v[2]
	}
}
