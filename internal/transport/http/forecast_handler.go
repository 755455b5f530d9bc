package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"streamcast/internal/config"
	apierrors "streamcast/internal/errors"
	"streamcast/internal/exporter"
	"streamcast/internal/infrastructure"
	"streamcast/internal/middleware"
	"streamcast/pkg/contracts/domain"
)

// UploadField is the multipart form field carrying the file
const UploadField = "file"

// Download media types
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var variants = []string{string(exporter.VariantSimple), string(exporter.VariantBreakdown)}

// ForecastServiceInterface defines the upload pipeline used by the handler
type ForecastServiceInterface interface {
	Process(ctx context.Context, filename string, r io.Reader) (*domain.Report, error)
}

// ForecastHandler turns uploads into reports and downloadable artifacts
type ForecastHandler struct {
	service      ForecastServiceInterface
	csv          *exporter.CSVWriter
	query        *middleware.QueryParamValidator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(service ForecastServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ForecastHandler {
	logger = infrastructure.WithComponent(logger, "forecast_handler")
	return &ForecastHandler{
		service:      service,
		csv:          exporter.NewCSVWriter(nil, logger),
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// Routes returns the forecast routes
func (h *ForecastHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.ContentTypeValidator("multipart/form-data"))

	r.Post("/", h.Forecast)
	r.Post("/cleaned.csv", h.CleanedCSV)
	r.Post("/predictions.csv", h.PredictionsCSV)
	r.Post("/report.xlsx", h.ReportXLSX)
	return r
}

// Forecast handles POST /api/forecast
func (h *ForecastHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	report, ok := h.process(w, r)
	if !ok {
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, report)
}

// CleanedCSV handles POST /api/forecast/cleaned.csv
func (h *ForecastHandler) CleanedCSV(w http.ResponseWriter, r *http.Request) {
	report, ok := h.process(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.csv.Write(&buf, exporter.CleanedTable(report.Series), exporter.WriteOptions{}); err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("encode cleaned csv: %w", err))
		return
	}
	h.download(w, r, config.CleanedCSVName, ContentTypeCSV, &buf)
}

// PredictionsCSV handles POST /api/forecast/predictions.csv?variant=simple|breakdown
func (h *ForecastHandler) PredictionsCSV(w http.ResponseWriter, r *http.Request) {
	name, ok := h.query.ValidateEnum(w, r, "variant", variants, string(exporter.VariantSimple))
	if !ok {
		return
	}
	variant, err := exporter.ParseVariant(name)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("variant", err.Error()))
		return
	}

	report, ok := h.process(w, r)
	if !ok {
		return
	}
	if !report.HasForecasts() {
		h.errorHandler.HandleError(w, r, apierrors.ErrNoForecasts(report.Warnings))
		return
	}

	var buf bytes.Buffer
	if err := h.csv.Write(&buf, exporter.PredictionsTable(report.Forecasts, variant), exporter.WriteOptions{}); err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("encode predictions csv: %w", err))
		return
	}
	h.download(w, r, config.PredictionsCSVName, ContentTypeCSV, &buf)
}

// ReportXLSX handles POST /api/forecast/report.xlsx?variant=simple|breakdown
func (h *ForecastHandler) ReportXLSX(w http.ResponseWriter, r *http.Request) {
	name, ok := h.query.ValidateEnum(w, r, "variant", variants, string(exporter.VariantSimple))
	if !ok {
		return
	}
	variant, _ := exporter.ParseVariant(name)

	report, ok := h.process(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := exporter.WriteWorkbook(&buf, exporter.ReportTables(report, variant)...); err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("encode workbook: %w", err))
		return
	}
	h.download(w, r, config.ReportXLSXName, ContentTypeXLSX, &buf)
}

// process streams the uploaded file part into the pipeline. It writes the error
// response itself and returns false when the upload cannot be turned into a report.
func (h *ForecastHandler) process(w http.ResponseWriter, r *http.Request) (*domain.Report, bool) {
	ctx := r.Context()
	start := time.Now()

	mr, err := r.MultipartReader()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return nil, false
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			h.errorHandler.HandleError(w, r, apierrors.ErrMissingFile)
			return nil, false
		}
		if err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				h.errorHandler.HandleError(w, r, err)
			} else {
				h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			}
			return nil, false
		}

		if part.FormName() != UploadField || part.FileName() == "" {
			part.Close()
			continue
		}

		filename := part.FileName()
		h.logger.InfoContext(ctx, "upload received",
			slog.String("filename", filename),
			slog.String("request_id", middleware.GetRequestID(ctx)))

		report, err := h.service.Process(ctx, filename, part)
		part.Close()
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return nil, false
		}

		h.logger.InfoContext(ctx, "upload processed",
			slog.String("filename", filename),
			slog.String("upload_id", report.UploadID),
			slog.Int("forecasts", len(report.Forecasts)),
			slog.Duration("duration", time.Since(start)))
		return report, true
	}
}

func (h *ForecastHandler) download(w http.ResponseWriter, r *http.Request, filename, contentType string, body *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := body.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "download interrupted",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
	}
}
