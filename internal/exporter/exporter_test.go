package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"streamcast/internal/config"
	"streamcast/internal/infrastructure"
	"streamcast/pkg/contracts/domain"
)

func testSeries() []domain.TrackSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	days := []domain.SeriesDay{
		{CanonicalRow: domain.CanonicalRow{TrackID: "A - SongX", Date: start, DailyStreams: 100}, Day: 1},
		{CanonicalRow: domain.CanonicalRow{TrackID: "A - SongX", Date: start.AddDate(0, 0, 1), DailyStreams: 112.5}, Day: 2, Interpolated: true},
		{CanonicalRow: domain.CanonicalRow{TrackID: "A - SongX", Date: start.AddDate(0, 0, 2), DailyStreams: 125}, Day: 3},
	}
	return []domain.TrackSeries{{TrackID: "A - SongX", Days: days}}
}

func testForecast(trackID string, current float64) domain.TrackForecast {
	f := domain.TrackForecast{TrackID: trackID, CurrentTotal: current}
	for i, h := range domain.Horizons {
		g := float64(i+1) * 100
		f.Horizons = append(f.Horizons, domain.QuantileForecast{
			HorizonDays: h,
			P10:         current + g + 0.9,
			P50:         current + 2*g + 0.5,
			P90:         current + 3*g + 0.1,
		})
	}
	return f
}

func writeCSV(t *testing.T, table Table) [][]string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewCSVWriter(nil, infrastructure.NewDiscardLogger()).Write(&buf, table, WriteOptions{}))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCleanedCSV(t *testing.T) {
	records := writeCSV(t, CleanedTable(testSeries()))

	assert.Equal(t, [][]string{
		{"track_id", "date", "daily_streams", "day"},
		{"A - SongX", "2024-01-01", "100", "1"},
		{"A - SongX", "2024-01-02", "112.5", "2"},
		{"A - SongX", "2024-01-03", "125", "3"},
	}, records)
}

func TestPredictionsCSVSimple(t *testing.T) {
	records := writeCSV(t, PredictionsTable([]domain.TrackForecast{testForecast("t", 1000)}, VariantSimple))

	require.Len(t, records, 6)
	assert.Equal(t, []string{"Horizon (days)", "P10 Prediction", "P50 Prediction", "P90 Prediction"}, records[0])
	// fractional parts are truncated
	assert.Equal(t, []string{"14", "1100", "1200", "1300"}, records[1])
	assert.Equal(t, []string{"365", "1500", "2000", "2500"}, records[5])
}

func TestPredictionsCSVBreakdown(t *testing.T) {
	records := writeCSV(t, PredictionsTable([]domain.TrackForecast{testForecast("t", 1000)}, VariantBreakdown))

	assert.Equal(t, []string{
		"Horizon (days)", "Streams So Far",
		"Predicted Growth (P10)", "Total Predicted (P10)",
		"Predicted Growth (P50)", "Total Predicted (P50)",
		"Predicted Growth (P90)", "Total Predicted (P90)",
	}, records[0])
	assert.Equal(t, []string{"30", "1000", "200", "1200", "400", "1400", "600", "1600"}, records[2])
}

func TestPredictionsCSVMultiTrack(t *testing.T) {
	records := writeCSV(t, PredictionsTable([]domain.TrackForecast{testForecast("a", 10), testForecast("b", 20)}, VariantSimple))

	require.Len(t, records, 11)
	assert.Equal(t, "Track ID", records[0][0])
	assert.Equal(t, []string{"a", "14", "110", "210", "310"}, records[1])
	assert.Equal(t, "b", records[6][0])
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in      string
		want    Variant
		wantErr bool
	}{
		{"", VariantSimple, false},
		{"simple", VariantSimple, false},
		{"Breakdown", VariantBreakdown, false},
		{"fancy", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVariant(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(&config.Paths{OutputDir: dir}, infrastructure.NewDiscardLogger())

	path, err := writer.WriteFile(config.CleanedCSVName, CleanedTable(testSeries()), WriteOptions{BOMPrefix: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, config.CleanedCSVName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))
	assert.True(t, strings.Contains(string(data), "A - SongX,2024-01-02,112.5,2"))
}

func TestWriteWorkbook(t *testing.T) {
	report := &domain.Report{
		Series:    testSeries(),
		Tracks:    []domain.TrackSummary{testSeries()[0].Summarize()},
		Forecasts: []domain.TrackForecast{testForecast("A - SongX", 337.5)},
		Warnings:  []domain.Warning{{Code: domain.WarningNoValidData, TrackID: "dead", Message: "no valid data"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, ReportTables(report, VariantSimple)...))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{TableSummary, TableCleaned, TablePredictions}, f.GetSheetList())

	cleaned, err := f.GetRows(TableCleaned)
	require.NoError(t, err)
	require.Len(t, cleaned, 4)
	assert.Equal(t, []string{"track_id", "date", "daily_streams", "day"}, cleaned[0])
	assert.Equal(t, "A - SongX", cleaned[1][0])

	predictions, err := f.GetRows(TablePredictions)
	require.NoError(t, err)
	assert.Len(t, predictions, 6)

	summary, err := f.GetRows(TableSummary)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Contains(t, summary[2][len(summary[2])-1], "NO_VALID_DATA")
}

func TestReportTablesWithoutForecasts(t *testing.T) {
	tables := ReportTables(&domain.Report{Series: testSeries()}, VariantSimple)
	require.Len(t, tables, 2)
	assert.Equal(t, TableCleaned, tables[1].Name)
}
