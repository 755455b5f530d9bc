package normalizer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"streamcast/internal/config"
	"streamcast/internal/infrastructure"
	"streamcast/internal/ingest"
	"streamcast/pkg/contracts/domain"
)

// TracerName is the instrumentation scope of normalizer spans
const TracerName = "streamcast/normalizer"

// Result is the outcome of normalizing one upload
type Result struct {
	OriginalColumns     []string
	StandardizedColumns []string
	AppliedRules        []string
	SourceFormat        string
	RowsRead            int
	RowsDropped         int
	Series              []domain.TrackSeries
	Skipped             []string
}

// Rows flattens every series into cleaned rows, tracks in Series order
func (r *Result) Rows() []domain.SeriesDay {
	var rows []domain.SeriesDay
	for _, s := range r.Series {
		rows = append(rows, s.Days...)
	}
	return rows
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithRules replaces the default schema rule cascade
func WithRules(rules ...SchemaRule) Option {
	return func(n *Normalizer) {
		n.rules = rules
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = infrastructure.WithComponent(logger, "normalizer")
	}
}

// Normalizer turns raw frames into gap-free per-track daily series
type Normalizer struct {
	rules       []SchemaRule
	placeholder string
	logger      *slog.Logger
}

// New creates a Normalizer. An empty placeholder falls back to the default single-track id.
func New(placeholderTrackID string, opts ...Option) *Normalizer {
	if placeholderTrackID == "" {
		placeholderTrackID = config.DefaultPlaceholderTrackID
	}
	n := &Normalizer{
		rules:       DefaultRules(placeholderTrackID),
		placeholder: placeholderTrackID,
		logger:      infrastructure.WithComponent(nil, "normalizer"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize reconciles the frame to the canonical schema and builds one series per track.
// The input frame is not modified. It returns a *SchemaError when the canonical
// columns cannot be resolved and a *NoValidDataError when every track was skipped.
func (n *Normalizer) Normalize(ctx context.Context, frame *ingest.Frame) (*Result, error) {
	ctx, span := otel.Tracer(TracerName).Start(ctx, "normalizer.normalize")
	defer span.End()

	logger := n.logger

	result := &Result{
		OriginalColumns: append([]string(nil), frame.Columns...),
		RowsRead:        frame.Len(),
	}

	work := frame.Clone()
	applied, err := Reconcile(work, n.rules)
	result.AppliedRules = applied
	result.SourceFormat = sourceFormat(applied)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "schema reconciliation failed")
		logger.WarnContext(ctx, "schema reconciliation failed",
			slog.Any("columns", result.OriginalColumns),
			slog.String("error", err.Error()))
		return result, err
	}

	// Standardized names as the user sees them, before the cascade reshaped the frame
	result.StandardizedColumns = make([]string, len(frame.Columns))
	for i, c := range frame.Columns {
		result.StandardizedColumns[i] = StandardizeColumn(c)
	}

	rows, dropped := Coerce(work)
	result.RowsDropped = dropped
	if dropped > 0 {
		logger.DebugContext(ctx, "rows dropped during coercion",
			slog.Int("dropped", dropped),
			slog.Int("read", result.RowsRead))
	}

	groups := groupByTrack(rows)
	trackIDs := make([]string, 0, len(groups))
	for id := range groups {
		trackIDs = append(trackIDs, id)
	}
	sort.Strings(trackIDs)

	for _, id := range trackIDs {
		series, ok, err := fillIsolated(id, groups[id])
		if err != nil {
			logger.ErrorContext(ctx, "track failed during gap filling",
				slog.String("track_id", id),
				slog.String("error", err.Error()))
			result.Skipped = append(result.Skipped, id)
			continue
		}
		if !ok {
			logger.WarnContext(ctx, "no valid data", slog.String("track_id", id))
			result.Skipped = append(result.Skipped, id)
			continue
		}
		result.Series = append(result.Series, series)
	}

	span.SetAttributes(
		attribute.String("source_format", result.SourceFormat),
		attribute.Int("rows_read", result.RowsRead),
		attribute.Int("rows_dropped", result.RowsDropped),
		attribute.Int("tracks", len(result.Series)),
		attribute.Int("tracks_skipped", len(result.Skipped)),
	)

	if len(result.Series) == 0 {
		err := &NoValidDataError{
			Skipped:     result.Skipped,
			RowsRead:    result.RowsRead,
			RowsDropped: result.RowsDropped,
		}
		span.SetStatus(codes.Error, "no valid data")
		logger.WarnContext(ctx, "no track had a positive stream count",
			slog.Int("rows_read", result.RowsRead),
			slog.Int("rows_dropped", result.RowsDropped))
		return result, err
	}

	logger.InfoContext(ctx, "upload normalized",
		slog.String("source_format", result.SourceFormat),
		slog.Int("tracks", len(result.Series)),
		slog.Int("skipped", len(result.Skipped)))

	return result, nil
}

// groupByTrack groups rows by track id, keeping file order within a track
func groupByTrack(rows []domain.CanonicalRow) map[string][]domain.CanonicalRow {
	groups := make(map[string][]domain.CanonicalRow)
	for _, r := range rows {
		groups[r.TrackID] = append(groups[r.TrackID], r)
	}
	return groups
}

// fillIsolated runs FillTrack and turns a panic into an error so one track cannot abort the rest
func fillIsolated(trackID string, rows []domain.CanonicalRow) (series domain.TrackSeries, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gap filling track %q: %v", trackID, r)
		}
	}()
	series, ok = FillTrack(trackID, rows)
	return series, ok, nil
}
