package exporter

import (
	"fmt"
	"strings"

	"streamcast/pkg/contracts/domain"
)

// Table is a named grid of typed cells shared by the CSV and XLSX writers
type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Sheet and table names
const (
	TableCleaned     = "Cleaned"
	TablePredictions = "Predictions"
	TableSummary     = "Summary"
)

// Variant selects the layout of the predictions table
type Variant string

const (
	// VariantSimple lists the total per quantile
	VariantSimple Variant = "simple"
	// VariantBreakdown splits each quantile into predicted growth and total
	VariantBreakdown Variant = "breakdown"
)

// ParseVariant parses a variant name; empty means simple
func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case "", VariantSimple:
		return VariantSimple, nil
	case VariantBreakdown:
		return VariantBreakdown, nil
	default:
		return "", fmt.Errorf("unknown predictions variant %q (want simple or breakdown)", s)
	}
}

// CleanedTable lists every normalized day: track_id, date, daily_streams, day
func CleanedTable(series []domain.TrackSeries) Table {
	t := Table{
		Name:    TableCleaned,
		Headers: []string{"track_id", "date", "daily_streams", "day"},
	}
	for _, s := range series {
		for _, d := range s.Days {
			t.Rows = append(t.Rows, []any{d.TrackID, d.Date, d.DailyStreams, d.Day})
		}
	}
	return t
}

// PredictionsTable lists one row per horizon with values truncated to whole streams.
// A leading Track ID column is added when more than one track is present.
func PredictionsTable(forecasts []domain.TrackForecast, variant Variant) Table {
	multi := len(forecasts) > 1

	var headers []string
	if multi {
		headers = append(headers, "Track ID")
	}
	headers = append(headers, "Horizon (days)")
	if variant == VariantBreakdown {
		headers = append(headers, "Streams So Far")
		for _, q := range domain.QuantileLabels {
			headers = append(headers,
				fmt.Sprintf("Predicted Growth (%s)", q),
				fmt.Sprintf("Total Predicted (%s)", q))
		}
	} else {
		for _, q := range domain.QuantileLabels {
			headers = append(headers, fmt.Sprintf("%s Prediction", q))
		}
	}

	t := Table{Name: TablePredictions, Headers: headers}
	for _, f := range forecasts {
		for _, h := range f.Horizons {
			var row []any
			if multi {
				row = append(row, f.TrackID)
			}
			row = append(row, h.HorizonDays)
			if variant == VariantBreakdown {
				row = append(row, truncate(f.CurrentTotal))
				for _, q := range domain.QuantileLabels {
					total := h.Value(q)
					row = append(row, truncate(total-f.CurrentTotal), truncate(total))
				}
			} else {
				for _, q := range domain.QuantileLabels {
					row = append(row, truncate(h.Value(q)))
				}
			}
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}

// SummaryTable describes each normalized track and every warning of a report
func SummaryTable(report *domain.Report) Table {
	t := Table{
		Name:    TableSummary,
		Headers: []string{"track_id", "days", "first_date", "last_date", "interpolated_days", "current_total", "note"},
	}
	for _, s := range report.Tracks {
		t.Rows = append(t.Rows, []any{s.TrackID, s.Days, s.FirstDate, s.LastDate, s.Interpolated, s.CurrentTotal, ""})
	}
	for _, w := range report.Warnings {
		t.Rows = append(t.Rows, []any{w.TrackID, nil, nil, nil, nil, nil, w.Code + ": " + w.Message})
	}
	return t
}
