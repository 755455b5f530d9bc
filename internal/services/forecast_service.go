package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"streamcast/internal/config"
	"streamcast/internal/exporter"
	"streamcast/internal/forecast"
	"streamcast/internal/infrastructure"
	"streamcast/internal/ingest"
	"streamcast/internal/normalizer"
	"streamcast/pkg/contracts/domain"
)

// TracerName is the instrumentation scope of upload processing spans
const TracerName = "streamcast/services"

// Upload outcomes recorded on uploads_total
const (
	OutcomeSuccess       = "success"
	OutcomeSchemaError   = "schema_error"
	OutcomeNoValidData   = "no_valid_data"
	OutcomeInvalidUpload = "invalid_upload"
	OutcomeError         = "error"
)

// Per-track forecast outcomes recorded on forecasts_total
const (
	ForecastSuccess             = "success"
	ForecastInsufficientHistory = "insufficient_history"
	ForecastFailed              = "error"
)

// TrackForecaster predicts one normalized track
type TrackForecaster interface {
	Predict(ctx context.Context, series domain.TrackSeries) (*domain.TrackForecast, error)
	SequenceLength() int
}

// ForecastService runs an upload through ingest, normalization and forecasting
// and turns per-track problems into report warnings.
type ForecastService struct {
	normalizer *normalizer.Normalizer
	forecaster TrackForecaster
	metrics    *infrastructure.BusinessMetrics
	paths      *config.Paths
	logger     *slog.Logger
	now        func() time.Time
}

// ForecastServiceOption configures a ForecastService
type ForecastServiceOption func(*ForecastService)

// WithMetrics records upload, normalization and forecast metrics
func WithMetrics(m *infrastructure.BusinessMetrics) ForecastServiceOption {
	return func(s *ForecastService) { s.metrics = m }
}

// WithPaths sets where WriteArtifacts resolves relative output directories
func WithPaths(p *config.Paths) ForecastServiceOption {
	return func(s *ForecastService) { s.paths = p }
}

// WithClock overrides the report timestamp source
func WithClock(now func() time.Time) ForecastServiceOption {
	return func(s *ForecastService) { s.now = now }
}

// NewForecastService creates the upload pipeline. A nil forecaster makes every
// upload that reaches the prediction step fail with forecast.ErrModelUnavailable.
func NewForecastService(n *normalizer.Normalizer, f TrackForecaster, logger *slog.Logger, opts ...ForecastServiceOption) *ForecastService {
	s := &ForecastService{
		normalizer: n,
		forecaster: f,
		logger:     infrastructure.WithComponent(logger, "forecast_service"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process reads one uploaded file and produces its report. Schema and empty-data
// failures return the partially filled report together with the error.
func (s *ForecastService) Process(ctx context.Context, filename string, r io.Reader) (*domain.Report, error) {
	start := time.Now()
	uploadID := uuid.New().String()

	ctx, span := otel.Tracer(TracerName).Start(ctx, "forecast.upload")
	defer span.End()
	span.SetAttributes(
		attribute.String("upload_id", uploadID),
		attribute.String("filename", filename),
	)

	report := &domain.Report{
		UploadID:    uploadID,
		Filename:    filepath.Base(filename),
		GeneratedAt: s.now().UTC(),
	}

	outcome := OutcomeError
	defer func() {
		s.metrics.RecordUpload(ctx, outcome, time.Since(start))
	}()

	fail := func(err error, o string) (*domain.Report, error) {
		outcome = o
		span.RecordError(err)
		span.SetStatus(codes.Error, o)
		return report, err
	}

	frame, err := ingest.Read(filename, r)
	if err != nil {
		s.logger.WarnContext(ctx, "upload could not be read",
			slog.String("upload_id", uploadID),
			slog.String("filename", report.Filename),
			slog.String("error", err.Error()))
		o := OutcomeError
		if errors.Is(err, ingest.ErrEmptyInput) || errors.Is(err, ingest.ErrUnsupportedFormat) || errors.Is(err, ingest.ErrMalformedInput) {
			o = OutcomeInvalidUpload
		}
		return fail(fmt.Errorf("read upload: %w", err), o)
	}

	result, err := s.normalizer.Normalize(ctx, frame)
	if result != nil {
		report.SourceFormat = result.SourceFormat
		report.OriginalColumns = result.OriginalColumns
		report.StandardizedColumns = result.StandardizedColumns
		report.RowsRead = result.RowsRead
		report.RowsDropped = result.RowsDropped
		for _, id := range result.Skipped {
			report.Warnings = append(report.Warnings, domain.Warning{
				Code:    domain.WarningNoValidData,
				TrackID: id,
				Message: fmt.Sprintf("track %q has no positive daily stream count and was excluded", id),
			})
		}
		s.metrics.RecordNormalization(ctx, len(result.Series), len(result.Skipped), result.RowsDropped)
	}
	if err != nil {
		var schemaErr *normalizer.SchemaError
		if errors.As(err, &schemaErr) {
			return fail(err, OutcomeSchemaError)
		}
		if errors.Is(err, normalizer.ErrNoValidData) {
			return fail(err, OutcomeNoValidData)
		}
		return fail(err, OutcomeError)
	}

	report.Series = result.Series
	for _, series := range result.Series {
		report.Tracks = append(report.Tracks, series.Summarize())
	}

	if s.forecaster == nil {
		return fail(fmt.Errorf("forecast: %w", forecast.ErrModelUnavailable), OutcomeError)
	}

	for _, series := range result.Series {
		fc, warning, err := s.forecastTrack(ctx, series)
		if err != nil {
			return fail(err, OutcomeError)
		}
		if warning != nil {
			report.Warnings = append(report.Warnings, *warning)
			continue
		}
		report.Forecasts = append(report.Forecasts, *fc)
	}

	outcome = OutcomeSuccess
	span.SetAttributes(
		attribute.String("source_format", report.SourceFormat),
		attribute.Int("tracks", len(report.Tracks)),
		attribute.Int("forecasts", len(report.Forecasts)),
		attribute.Int("warnings", len(report.Warnings)),
	)
	s.logger.InfoContext(ctx, "upload processed",
		slog.String("upload_id", uploadID),
		slog.String("filename", report.Filename),
		slog.String("source_format", report.SourceFormat),
		slog.Int("rows_read", report.RowsRead),
		slog.Int("tracks", len(report.Tracks)),
		slog.Int("forecasts", len(report.Forecasts)),
		slog.Int("warnings", len(report.Warnings)),
		slog.Duration("duration", time.Since(start)))

	return report, nil
}

// forecastTrack predicts one track. Short history and per-track failures become
// warnings; only a missing model fails the upload.
func (s *ForecastService) forecastTrack(ctx context.Context, series domain.TrackSeries) (fc *domain.TrackForecast, warning *domain.Warning, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "forecast panicked",
				slog.String("track_id", series.TrackID),
				slog.Any("panic", r))
			s.metrics.RecordForecast(ctx, ForecastFailed, time.Since(start))
			fc, err = nil, nil
			warning = &domain.Warning{
				Code:    domain.WarningTrackSkipped,
				TrackID: series.TrackID,
				Message: "forecast failed unexpectedly for this track",
			}
		}
	}()

	fc, err = s.forecaster.Predict(ctx, series)
	switch {
	case err == nil:
		s.metrics.RecordForecast(ctx, ForecastSuccess, time.Since(start))
		return fc, nil, nil
	case errors.Is(err, forecast.ErrInsufficientHistory):
		s.metrics.RecordForecast(ctx, ForecastInsufficientHistory, 0)
		return nil, &domain.Warning{
			Code:    domain.WarningInsufficientHistory,
			TrackID: series.TrackID,
			Message: fmt.Sprintf("only %d days of history; at least %d are needed for a prediction",
				series.Len(), s.forecaster.SequenceLength()),
		}, nil
	case errors.Is(err, forecast.ErrModelUnavailable):
		s.metrics.RecordForecast(ctx, ForecastFailed, time.Since(start))
		return nil, nil, err
	default:
		s.metrics.RecordForecast(ctx, ForecastFailed, time.Since(start))
		s.logger.ErrorContext(ctx, "forecast failed",
			slog.String("track_id", series.TrackID),
			slog.String("error", err.Error()))
		return nil, &domain.Warning{
			Code:    domain.WarningTrackSkipped,
			TrackID: series.TrackID,
			Message: "forecast failed for this track: " + err.Error(),
		}, nil
	}
}

// Artifacts lists the files written for one report
type Artifacts struct {
	Cleaned     string
	Predictions string
	Workbook    string
}

// WriteArtifacts writes the cleaned CSV, the predictions CSV when any track was
// forecast, and optionally the XLSX workbook into dir.
func (s *ForecastService) WriteArtifacts(ctx context.Context, report *domain.Report, dir string, variant exporter.Variant, workbook bool) (Artifacts, error) {
	var out Artifacts
	writer := exporter.NewCSVWriter(s.paths, s.logger)
	opts := exporter.WriteOptions{}

	path, err := writer.WriteFile(filepath.Join(dir, config.CleanedCSVName), exporter.CleanedTable(report.Series), opts)
	if err != nil {
		return out, fmt.Errorf("write cleaned csv: %w", err)
	}
	out.Cleaned = path

	if report.HasForecasts() {
		path, err = writer.WriteFile(filepath.Join(dir, config.PredictionsCSVName), exporter.PredictionsTable(report.Forecasts, variant), opts)
		if err != nil {
			return out, fmt.Errorf("write predictions csv: %w", err)
		}
		out.Predictions = path
	}

	if workbook {
		path = filepath.Join(filepath.Dir(out.Cleaned), config.ReportXLSXName)
		if err := writeWorkbookFile(path, exporter.ReportTables(report, variant)); err != nil {
			return out, err
		}
		out.Workbook = path
	}

	s.logger.InfoContext(ctx, "artifacts written",
		slog.String("upload_id", report.UploadID),
		slog.String("cleaned", out.Cleaned),
		slog.String("predictions", out.Predictions),
		slog.String("workbook", out.Workbook))
	return out, nil
}

func writeWorkbookFile(path string, tables []exporter.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create workbook: %w", err)
	}
	if err := exporter.WriteWorkbook(f, tables...); err != nil {
		f.Close()
		return fmt.Errorf("write workbook: %w", err)
	}
	return f.Close()
}
